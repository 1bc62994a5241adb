package btree

import (
	"fmt"
	"sort"
)

// Insert adds a key-value pair, splitting full nodes proactively on the way
// down so every node the descent commits to already has room. Inserting a
// key that is already present overwrites its value in place.
func (t *BTree) Insert(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := validateValue(value); err != nil {
		return err
	}

	root, err := t.fetchNode(t.rootOffset)
	if err != nil {
		return fmt.Errorf("failed to load root node: %w", err)
	}

	if t.isNodeFull(root) {
		if err := t.splitRoot(root); err != nil {
			return err
		}
		root, err = t.fetchNode(t.rootOffset)
		if err != nil {
			return fmt.Errorf("failed to reload root node: %w", err)
		}
	}

	if err := t.insertNonFull(root, t.rootOffset, KeyValue{Key: key, Value: value}); err != nil {
		return err
	}
	return t.pager.Flush()
}

// splitRoot is the only place tree height grows. It allocates a brand-new
// internal root, demotes the old root in place at its original offset,
// splits it, and points the new root at the two halves.
func (t *BTree) splitRoot(root *Node) error {
	oldRootOffset := t.rootOffset

	newRoot := &Node{IsRoot: true}
	newRootOffset, err := t.persistNewNode(newRoot)
	if err != nil {
		return fmt.Errorf("failed to allocate new root: %w", err)
	}

	root.IsRoot = false
	root.Parent = newRootOffset
	median, sibling, err := root.split(t.b)
	if err != nil {
		return err
	}
	sibling.Parent = newRootOffset

	if err := t.persistNodeAt(root, oldRootOffset); err != nil {
		return fmt.Errorf("failed to write old root: %w", err)
	}
	siblingOffset, err := t.persistNewNode(sibling)
	if err != nil {
		return fmt.Errorf("failed to write sibling: %w", err)
	}

	newRoot.Children = []Offset{oldRootOffset, siblingOffset}
	newRoot.Keys = []string{median}
	if err := t.persistNodeAt(newRoot, newRootOffset); err != nil {
		return fmt.Errorf("failed to write new root: %w", err)
	}

	t.rootOffset = newRootOffset
	return t.writeSuperblock()
}

// insertNonFull inserts kv under a node already known not to be full,
// persisting every node it touches before returning.
func (t *BTree) insertNonFull(node *Node, offset Offset, kv KeyValue) error {
	if node.IsLeaf {
		idx := sort.Search(len(node.Pairs), func(i int) bool { return node.Pairs[i].Key >= kv.Key })
		if idx < len(node.Pairs) && node.Pairs[idx].Key == kv.Key {
			node.Pairs[idx].Value = kv.Value
		} else {
			node.Pairs = append(node.Pairs, KeyValue{})
			copy(node.Pairs[idx+1:], node.Pairs[idx:])
			node.Pairs[idx] = kv
		}
		return t.persistNodeAt(node, offset)
	}

	idx := searchChildIndex(node.Keys, kv.Key)
	if idx >= len(node.Children) {
		return fmt.Errorf("%w: internal node with %d children, want child %d", ErrInvariant, len(node.Children), idx)
	}
	childOffset := node.Children[idx]
	child, err := t.fetchNode(childOffset)
	if err != nil {
		return fmt.Errorf("failed to load child node: %w", err)
	}

	if !t.isNodeFull(child) {
		return t.insertNonFull(child, childOffset, kv)
	}

	// Split the full child before descending: the median separates the two
	// halves and is promoted into this node at the descent point.
	median, sibling, err := child.split(t.b)
	if err != nil {
		return err
	}
	if err := t.persistNodeAt(child, childOffset); err != nil {
		return fmt.Errorf("failed to write split child: %w", err)
	}
	siblingOffset, err := t.persistNewNode(sibling)
	if err != nil {
		return fmt.Errorf("failed to write sibling: %w", err)
	}

	node.Children = append(node.Children, 0)
	copy(node.Children[idx+2:], node.Children[idx+1:])
	node.Children[idx+1] = siblingOffset

	node.Keys = append(node.Keys, "")
	copy(node.Keys[idx+1:], node.Keys[idx:])
	node.Keys[idx] = median

	if err := t.persistNodeAt(node, offset); err != nil {
		return fmt.Errorf("failed to write parent node: %w", err)
	}

	// Keys up to and including the median live in the left half.
	if kv.Key <= median {
		return t.insertNonFull(child, childOffset, kv)
	}
	return t.insertNonFull(sibling, siblingOffset, kv)
}
