package btree

import (
	"fmt"
	"sort"
)

// Update overwrites the value of an existing key in place and reports
// whether the key existed. Unlike Insert it never creates a new entry, so
// the tree's shape is untouched.
func (t *BTree) Update(key, value string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if err := validateValue(value); err != nil {
		return false, err
	}

	offset := t.rootOffset
	for {
		node, err := t.fetchNode(offset)
		if err != nil {
			return false, fmt.Errorf("failed to load node: %w", err)
		}
		if node.IsLeaf {
			idx := sort.Search(len(node.Pairs), func(i int) bool { return node.Pairs[i].Key >= key })
			if idx >= len(node.Pairs) || node.Pairs[idx].Key != key {
				return false, nil
			}
			node.Pairs[idx].Value = value
			if err := t.persistNodeAt(node, offset); err != nil {
				return false, err
			}
			return true, t.pager.Flush()
		}
		idx := searchChildIndex(node.Keys, key)
		if idx >= len(node.Children) {
			return false, fmt.Errorf("%w: internal node with %d children, want child %d", ErrInvariant, len(node.Children), idx)
		}
		offset = node.Children[idx]
	}
}
