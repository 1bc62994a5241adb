package btree

import "fmt"

// ListAll walks the tree in order and returns every key-value pair in
// ascending key order.
func (t *BTree) ListAll() ([]KeyValue, error) {
	var pairs []KeyValue
	if err := t.collectPairs(t.rootOffset, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

func (t *BTree) collectPairs(offset Offset, pairs *[]KeyValue) error {
	node, err := t.fetchNode(offset)
	if err != nil {
		return fmt.Errorf("failed to load node: %w", err)
	}
	if node.IsLeaf {
		*pairs = append(*pairs, node.Pairs...)
		return nil
	}
	for _, child := range node.Children {
		if err := t.collectPairs(child, pairs); err != nil {
			return err
		}
	}
	return nil
}
