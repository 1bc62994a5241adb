package btree

import (
	"fmt"
	"sort"
)

// pathEntry records one node on the root-to-leaf descent: its page offset,
// its decoded form, and its index within its parent's child list (0 for the
// root, where it is unused).
type pathEntry struct {
	offset   Offset
	node     *Node
	childIdx int
}

// Delete removes key from the tree and reports whether it was present.
// Deleting an absent key is a no-op. After removing the pair from its leaf,
// underflowing nodes are repaired bottom-up -- borrow from the left sibling,
// else from the right, else merge -- all the way to the root; a root left
// with a single child is collapsed so tree height shrinks.
func (t *BTree) Delete(key string) (bool, error) {
	path, err := t.pathToLeaf(key)
	if err != nil {
		return false, err
	}

	leaf := path[len(path)-1]
	idx := sort.Search(len(leaf.node.Pairs), func(i int) bool { return leaf.node.Pairs[i].Key >= key })
	if idx >= len(leaf.node.Pairs) || leaf.node.Pairs[idx].Key != key {
		return false, nil
	}
	leaf.node.Pairs = append(leaf.node.Pairs[:idx], leaf.node.Pairs[idx+1:]...)
	if err := t.persistNodeAt(leaf.node, leaf.offset); err != nil {
		return false, err
	}

	// Repair underflow from the leaf upward. A borrow leaves the parent's
	// entry counts untouched, so it ends the climb; a merge removes a
	// separator from the parent, which may now underflow in turn.
	for i := len(path) - 1; i > 0; i-- {
		entry := path[i]
		if !t.isNodeUnderflow(entry.node) {
			break
		}
		merged, err := t.repairUnderflow(path[i-1], entry)
		if err != nil {
			return false, err
		}
		if !merged {
			break
		}
	}

	if err := t.collapseRoot(path[0]); err != nil {
		return false, err
	}
	return true, t.pager.Flush()
}

// pathToLeaf descends exactly as Search does, keeping every node on the way.
func (t *BTree) pathToLeaf(key string) ([]*pathEntry, error) {
	var path []*pathEntry
	offset := t.rootOffset
	childIdx := 0
	for {
		node, err := t.fetchNode(offset)
		if err != nil {
			return nil, fmt.Errorf("failed to load node: %w", err)
		}
		path = append(path, &pathEntry{offset: offset, node: node, childIdx: childIdx})
		if node.IsLeaf {
			return path, nil
		}
		idx := searchChildIndex(node.Keys, key)
		if idx >= len(node.Children) {
			return nil, fmt.Errorf("%w: internal node with %d children, want child %d", ErrInvariant, len(node.Children), idx)
		}
		offset = node.Children[idx]
		childIdx = idx
	}
}

// repairUnderflow fixes an underflowing node below parent. It reports
// whether the repair merged two children (removing a separator from the
// parent) as opposed to borrowing (which leaves the parent's counts alone).
func (t *BTree) repairUnderflow(parent, entry *pathEntry) (bool, error) {
	idx := entry.childIdx
	node := entry.node

	if idx > 0 {
		leftOffset := parent.node.Children[idx-1]
		left, err := t.fetchNode(leftOffset)
		if err != nil {
			return false, fmt.Errorf("failed to load left sibling: %w", err)
		}
		if t.canLend(left) {
			borrowFromLeft(parent.node, node, left, idx)
			if err := t.persistRepair(parent, entry, left, leftOffset); err != nil {
				return false, err
			}
			return false, nil
		}
	}

	if idx < len(parent.node.Children)-1 {
		rightOffset := parent.node.Children[idx+1]
		right, err := t.fetchNode(rightOffset)
		if err != nil {
			return false, fmt.Errorf("failed to load right sibling: %w", err)
		}
		if t.canLend(right) {
			borrowFromRight(parent.node, node, right, idx)
			if err := t.persistRepair(parent, entry, right, rightOffset); err != nil {
				return false, err
			}
			return false, nil
		}
	}

	// Neither sibling can lend: merge. Prefer the left sibling; the page of
	// the absorbed node is abandoned, never reclaimed.
	if idx > 0 {
		leftOffset := parent.node.Children[idx-1]
		left, err := t.fetchNode(leftOffset)
		if err != nil {
			return false, fmt.Errorf("failed to load left sibling: %w", err)
		}
		mergeNodes(parent.node, left, node, idx-1)
		if err := t.persistNodeAt(left, leftOffset); err != nil {
			return false, err
		}
	} else {
		if len(parent.node.Children) < 2 {
			return false, fmt.Errorf("%w: underflowing node has no sibling to merge with", ErrInvariant)
		}
		rightOffset := parent.node.Children[idx+1]
		right, err := t.fetchNode(rightOffset)
		if err != nil {
			return false, fmt.Errorf("failed to load right sibling: %w", err)
		}
		mergeNodes(parent.node, node, right, idx)
		if err := t.persistNodeAt(node, entry.offset); err != nil {
			return false, err
		}
	}
	if err := t.persistNodeAt(parent.node, parent.offset); err != nil {
		return false, err
	}
	return true, nil
}

// canLend reports whether a sibling holds more than the minimum b-1 entries.
func (t *BTree) canLend(node *Node) bool {
	if node.IsLeaf {
		return len(node.Pairs) > t.b-1
	}
	return len(node.Keys) > t.b-1
}

func (t *BTree) persistRepair(parent, entry *pathEntry, sibling *Node, siblingOffset Offset) error {
	if err := t.persistNodeAt(sibling, siblingOffset); err != nil {
		return err
	}
	if err := t.persistNodeAt(entry.node, entry.offset); err != nil {
		return err
	}
	return t.persistNodeAt(parent.node, parent.offset)
}

// borrowFromLeft moves the left sibling's last entry into node's front and
// refreshes the separator at idx-1. For leaves the separator becomes the
// left sibling's new maximum; for internal nodes the old separator rotates
// down into node and the left sibling's last key rotates up.
func borrowFromLeft(parent, node, left *Node, idx int) {
	sep := idx - 1
	if node.IsLeaf {
		moved := left.Pairs[len(left.Pairs)-1]
		left.Pairs = left.Pairs[:len(left.Pairs)-1]
		node.Pairs = append([]KeyValue{moved}, node.Pairs...)
		parent.Keys[sep] = left.Pairs[len(left.Pairs)-1].Key
		return
	}
	movedChild := left.Children[len(left.Children)-1]
	left.Children = left.Children[:len(left.Children)-1]
	movedKey := left.Keys[len(left.Keys)-1]
	left.Keys = left.Keys[:len(left.Keys)-1]
	node.Children = append([]Offset{movedChild}, node.Children...)
	node.Keys = append([]string{parent.Keys[sep]}, node.Keys...)
	parent.Keys[sep] = movedKey
}

// borrowFromRight is the mirror image: the right sibling's first entry moves
// to node's back and the separator at idx is refreshed.
func borrowFromRight(parent, node, right *Node, idx int) {
	sep := idx
	if node.IsLeaf {
		moved := right.Pairs[0]
		right.Pairs = append([]KeyValue(nil), right.Pairs[1:]...)
		node.Pairs = append(node.Pairs, moved)
		parent.Keys[sep] = moved.Key
		return
	}
	movedChild := right.Children[0]
	right.Children = append([]Offset(nil), right.Children[1:]...)
	movedKey := right.Keys[0]
	right.Keys = append([]string(nil), right.Keys[1:]...)
	node.Children = append(node.Children, movedChild)
	node.Keys = append(node.Keys, parent.Keys[sep])
	parent.Keys[sep] = movedKey
}

// mergeNodes absorbs right into left and drops the separator at sepIdx along
// with right's child pointer from the parent. Leaf merges concatenate pair
// runs (the separator is already represented by the left leaf's maximum);
// internal merges pull the separator down between the two key runs.
func mergeNodes(parent, left, right *Node, sepIdx int) {
	if left.IsLeaf {
		left.Pairs = append(left.Pairs, right.Pairs...)
	} else {
		left.Keys = append(left.Keys, parent.Keys[sepIdx])
		left.Keys = append(left.Keys, right.Keys...)
		left.Children = append(left.Children, right.Children...)
	}
	parent.Keys = append(parent.Keys[:sepIdx], parent.Keys[sepIdx+1:]...)
	parent.Children = append(parent.Children[:sepIdx+1], parent.Children[sepIdx+2:]...)
}

// collapseRoot replaces an internal root left with zero keys by its single
// remaining child. A root leaf is never collapsed, however small.
func (t *BTree) collapseRoot(root *pathEntry) error {
	if root.node.IsLeaf || len(root.node.Keys) > 0 || len(root.node.Children) != 1 {
		return nil
	}
	childOffset := root.node.Children[0]
	child, err := t.fetchNode(childOffset)
	if err != nil {
		return fmt.Errorf("failed to load new root: %w", err)
	}
	child.IsRoot = true
	child.Parent = 0
	if err := t.persistNodeAt(child, childOffset); err != nil {
		return err
	}
	t.rootOffset = childOffset
	return t.writeSuperblock()
}
