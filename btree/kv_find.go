package btree

import (
	"errors"
	"fmt"
	"sort"
)

// searchChildIndex picks the child to descend into for key: the first
// separator >= key. Keys equal to a separator live in the left child,
// mirroring the split rule that keeps the median pair in the left leaf.
func searchChildIndex(keys []string, key string) int {
	return sort.Search(len(keys), func(i int) bool { return keys[i] >= key })
}

// Search descends from the root to the leaf that could hold key and returns
// its pair, or ErrKeyNotFound. No node is mutated; repeated searches with no
// intervening writes return identical results.
func (t *BTree) Search(key string) (KeyValue, error) {
	root, err := t.fetchNode(t.rootOffset)
	if err != nil {
		return KeyValue{}, fmt.Errorf("failed to load root node: %w", err)
	}
	return t.searchNode(root, key)
}

func (t *BTree) searchNode(node *Node, key string) (KeyValue, error) {
	if node.IsLeaf {
		idx := sort.Search(len(node.Pairs), func(i int) bool { return node.Pairs[i].Key >= key })
		if idx < len(node.Pairs) && node.Pairs[idx].Key == key {
			return node.Pairs[idx], nil
		}
		return KeyValue{}, ErrKeyNotFound
	}

	idx := searchChildIndex(node.Keys, key)
	if idx >= len(node.Children) {
		return KeyValue{}, fmt.Errorf("%w: internal node with %d children, want child %d", ErrInvariant, len(node.Children), idx)
	}
	child, err := t.fetchNode(node.Children[idx])
	if err != nil {
		return KeyValue{}, fmt.Errorf("failed to load child node: %w", err)
	}
	return t.searchNode(child, key)
}

// Find looks up key and reports whether it exists, folding the expected
// miss into the bool instead of an error.
func (t *BTree) Find(key string) (string, bool, error) {
	pair, err := t.Search(key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return pair.Value, true, nil
}
