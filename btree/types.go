package btree

// Offset is a page's byte address in the backing file. Page k lives at
// offset k*PageSize. An offset is never reused while the node stored there
// is reachable from the root.
type Offset = uint64

// KeyValue is a single key-value pair stored in a leaf. Pairs are ordered
// by key only; keys are unique within a tree.
type KeyValue struct {
	Key   string
	Value string
}
