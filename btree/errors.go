package btree

import "errors"

var (
	// ErrBadConfig is returned by the builder for an empty path, a zero b
	// parameter, or a b too large for the page size.
	ErrBadConfig = errors.New("invalid btree configuration")

	// ErrKeyNotFound is returned by Search when the key is not in the tree.
	ErrKeyNotFound = errors.New("key not found")

	// ErrCorruptPage is returned when a page cannot be decoded into a node:
	// unknown node type tag, bad flag byte, or counts that overflow the page.
	ErrCorruptPage = errors.New("corrupt page")

	// ErrKeyOverflow and ErrValueOverflow are returned when a key or value
	// does not fit its fixed cell, or contains a NUL byte and therefore
	// could not survive the null-padded encoding.
	ErrKeyOverflow   = errors.New("key exceeds maximum length")
	ErrValueOverflow = errors.New("value exceeds maximum length")

	// ErrInvariant is returned when a tree state is impossible: an internal
	// node with no children on a search path, a node that no longer fits
	// its page, a split of a non-full node. It indicates a bug or on-disk
	// corruption and always aborts the operation.
	ErrInvariant = errors.New("tree invariant violated")
)
