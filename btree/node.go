package btree

import (
	"bytes"
	"fmt"
	"strings"
)

// Node is the in-memory decoded form of a page. A node is either a leaf
// (sorted key-value pairs) or an internal node (child offsets interleaved
// with separator keys, len(Children) == len(Keys)+1). Every node carries a
// root flag and a parent offset; the parent offset is advisory only -- it is
// set at creation and split time but traversal never relies on it.
type Node struct {
	IsLeaf   bool
	IsRoot   bool
	Parent   Offset
	Pairs    []KeyValue // leaf only
	Children []Offset   // internal only
	Keys     []string   // internal only, separator keys
}

func validateKey(key string) error {
	if len(key) > KeySize || strings.ContainsRune(key, 0) {
		return fmt.Errorf("%w: %q", ErrKeyOverflow, key)
	}
	return nil
}

func validateValue(value string) error {
	if len(value) > ValueSize || strings.ContainsRune(value, 0) {
		return fmt.Errorf("%w", ErrValueOverflow)
	}
	return nil
}

// ToPage encodes the node into a fresh page. Encoding fails if the node
// holds more cells than the page can carry or if any key or value exceeds
// its fixed width; it never truncates silently.
func (n *Node) ToPage() (*Page, error) {
	p := &Page{}
	if err := p.WriteBool(isRootOffset, n.IsRoot); err != nil {
		return nil, err
	}
	tag := nodeTypeInternal
	if n.IsLeaf {
		tag = nodeTypeLeaf
	}
	if err := p.WriteByteAt(nodeTypeOffset, tag); err != nil {
		return nil, err
	}
	if err := p.WriteUint64(parentPointerOffset, n.Parent); err != nil {
		return nil, err
	}

	if n.IsLeaf {
		return n.encodeLeaf(p)
	}
	return n.encodeInternal(p)
}

func (n *Node) encodeLeaf(p *Page) (*Page, error) {
	if len(n.Pairs) > maxLeafPairs {
		return nil, fmt.Errorf("%w: %d pairs exceed leaf capacity %d", ErrInvariant, len(n.Pairs), maxLeafPairs)
	}
	if err := p.WriteUint16(leafNumPairsOffset, uint16(len(n.Pairs))); err != nil {
		return nil, err
	}
	cell := leafHeaderSize
	for _, pair := range n.Pairs {
		if err := validateKey(pair.Key); err != nil {
			return nil, err
		}
		if err := validateValue(pair.Value); err != nil {
			return nil, err
		}
		key := make([]byte, KeySize)
		copy(key, pair.Key)
		if err := p.WriteBytes(cell, key); err != nil {
			return nil, err
		}
		value := make([]byte, ValueSize)
		copy(value, pair.Value)
		if err := p.WriteBytes(cell+KeySize, value); err != nil {
			return nil, err
		}
		cell += KeySize + ValueSize
	}
	return p, nil
}

func (n *Node) encodeInternal(p *Page) (*Page, error) {
	numChildren := len(n.Children)
	if numChildren > maxInternalChildren {
		return nil, fmt.Errorf("%w: %d children exceed internal capacity %d", ErrInvariant, numChildren, maxInternalChildren)
	}
	if numChildren > 0 && len(n.Keys) != numChildren-1 {
		return nil, fmt.Errorf("%w: internal node with %d children and %d keys", ErrInvariant, numChildren, len(n.Keys))
	}
	if numChildren == 0 && len(n.Keys) != 0 {
		return nil, fmt.Errorf("%w: internal node with keys but no children", ErrInvariant)
	}
	if err := p.WriteUint16(internalNumChildrenOffset, uint16(numChildren)); err != nil {
		return nil, err
	}
	cell := internalHeaderSize
	for _, child := range n.Children {
		if err := p.WriteUint64(cell, child); err != nil {
			return nil, err
		}
		cell += ptrSize
	}
	for _, key := range n.Keys {
		if err := validateKey(key); err != nil {
			return nil, err
		}
		buf := make([]byte, KeySize)
		copy(buf, key)
		if err := p.WriteBytes(cell, buf); err != nil {
			return nil, err
		}
		cell += KeySize
	}
	return p, nil
}

// NodeFromPage decodes a page into an owned Node. Decoding is total: an
// unknown node type tag or a count that would overflow the page is a
// corruption error, never a silently defaulted node.
func NodeFromPage(p *Page) (*Node, error) {
	isRoot, err := p.ReadBool(isRootOffset)
	if err != nil {
		return nil, err
	}
	tag, err := p.ReadByteAt(nodeTypeOffset)
	if err != nil {
		return nil, err
	}
	parent, err := p.ReadUint64(parentPointerOffset)
	if err != nil {
		return nil, err
	}

	node := &Node{IsRoot: isRoot, Parent: parent}
	switch tag {
	case nodeTypeLeaf:
		node.IsLeaf = true
		err = node.decodeLeaf(p)
	case nodeTypeInternal:
		err = node.decodeInternal(p)
	default:
		return nil, fmt.Errorf("%w: unknown node type tag %d", ErrCorruptPage, tag)
	}
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (n *Node) decodeLeaf(p *Page) error {
	numPairs, err := p.ReadUint16(leafNumPairsOffset)
	if err != nil {
		return err
	}
	if int(numPairs) > maxLeafPairs {
		return fmt.Errorf("%w: leaf declares %d pairs, page fits %d", ErrCorruptPage, numPairs, maxLeafPairs)
	}
	n.Pairs = make([]KeyValue, 0, numPairs)
	cell := leafHeaderSize
	for i := 0; i < int(numPairs); i++ {
		key, err := p.ReadBytes(cell, KeySize)
		if err != nil {
			return err
		}
		value, err := p.ReadBytes(cell+KeySize, ValueSize)
		if err != nil {
			return err
		}
		n.Pairs = append(n.Pairs, KeyValue{
			Key:   string(bytes.TrimRight(key, "\x00")),
			Value: string(bytes.TrimRight(value, "\x00")),
		})
		cell += KeySize + ValueSize
	}
	return nil
}

func (n *Node) decodeInternal(p *Page) error {
	numChildren, err := p.ReadUint16(internalNumChildrenOffset)
	if err != nil {
		return err
	}
	if int(numChildren) > maxInternalChildren {
		return fmt.Errorf("%w: internal declares %d children, page fits %d", ErrCorruptPage, numChildren, maxInternalChildren)
	}
	n.Children = make([]Offset, 0, numChildren)
	cell := internalHeaderSize
	for i := 0; i < int(numChildren); i++ {
		child, err := p.ReadUint64(cell)
		if err != nil {
			return err
		}
		n.Children = append(n.Children, child)
		cell += ptrSize
	}
	if numChildren == 0 {
		n.Keys = []string{}
		return nil
	}
	n.Keys = make([]string, 0, numChildren-1)
	for i := 0; i < int(numChildren)-1; i++ {
		key, err := p.ReadBytes(cell, KeySize)
		if err != nil {
			return err
		}
		n.Keys = append(n.Keys, string(bytes.TrimRight(key, "\x00")))
		cell += KeySize
	}
	return nil
}

// split divides a full node (2b-1 entries) in two and returns the separator
// key to promote alongside the new right sibling. A leaf keeps pairs
// [0, b-1] -- the median pair stays in the leaf, only a copy of its key is
// lifted -- and moves [b, 2b-2] to the sibling. An internal node keeps keys
// [0, b-2] and children [0, b-1], moves keys [b, 2b-2] and children
// [b, 2b-1], and the median key itself is promoted alone. The receiver and
// the sibling end up with freshly allocated slices so the two halves never
// alias the original backing arrays.
func (n *Node) split(b int) (string, *Node, error) {
	if n.IsLeaf {
		if len(n.Pairs) != 2*b-1 {
			return "", nil, fmt.Errorf("%w: splitting leaf with %d pairs at b=%d", ErrInvariant, len(n.Pairs), b)
		}
		median := n.Pairs[b-1].Key
		sibling := &Node{
			IsLeaf: true,
			Parent: n.Parent,
			Pairs:  append([]KeyValue(nil), n.Pairs[b:]...),
		}
		n.Pairs = append([]KeyValue(nil), n.Pairs[:b]...)
		return median, sibling, nil
	}

	if len(n.Keys) != 2*b-1 || len(n.Children) != 2*b {
		return "", nil, fmt.Errorf("%w: splitting internal with %d keys and %d children at b=%d", ErrInvariant, len(n.Keys), len(n.Children), b)
	}
	median := n.Keys[b-1]
	sibling := &Node{
		Parent:   n.Parent,
		Keys:     append([]string(nil), n.Keys[b:]...),
		Children: append([]Offset(nil), n.Children[b:]...),
	}
	n.Keys = append([]string(nil), n.Keys[:b-1]...)
	n.Children = append([]Offset(nil), n.Children[:b]...)
	return median, sibling, nil
}
