package btree

import "fmt"

// BTree is an on-disk B+Tree. Every node is persisted in a fixed-size page
// of a single backing file; all values live in the leaves. The tree is
// single-writer and synchronous: each public operation runs to completion,
// decoding owned nodes one page at a time and persisting them before it
// returns.
type BTree struct {
	pager      *Pager
	b          int
	rootOffset Offset
}

// Builder configures and opens a BTree. An internal node holds between b-1
// and 2b-1 keys and between b and 2b children, a leaf between b-1 and 2b-1
// pairs; only the root may hold less.
type Builder struct {
	path string
	b    int
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Path sets the location of the backing page file.
func (bl *Builder) Path(path string) *Builder {
	bl.path = path
	return bl
}

// B sets the minimum branching factor.
func (bl *Builder) B(b int) *Builder {
	bl.b = b
	return bl
}

// MaxB is the largest branching factor the page size can support: a full
// node (2b-1 entries, 2b children) must still encode into one page.
func MaxB() int {
	maxB := (maxLeafPairs + 1) / 2
	if internalMax := maxInternalChildren / 2; internalMax < maxB {
		maxB = internalMax
	}
	return maxB
}

// Build validates the configuration before any file I/O, then opens the
// backing file. A fresh file gets a superblock and a single empty root leaf;
// an existing file is validated against its superblock, which is
// authoritative for the root offset and must agree with the configured b.
func (bl *Builder) Build() (*BTree, error) {
	if bl.path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrBadConfig)
	}
	if bl.b <= 0 {
		return nil, fmt.Errorf("%w: b must be positive, got %d", ErrBadConfig, bl.b)
	}
	if bl.b > MaxB() {
		return nil, fmt.Errorf("%w: b=%d exceeds page capacity bound %d", ErrBadConfig, bl.b, MaxB())
	}

	pager, err := OpenPager(bl.path)
	if err != nil {
		return nil, err
	}

	if pager.cursor == 0 {
		tree, err := bootstrap(pager, bl.b)
		if err != nil {
			pager.Close()
			return nil, err
		}
		return tree, nil
	}

	page, err := pager.GetPage(0)
	if err != nil {
		pager.Close()
		return nil, fmt.Errorf("failed to read superblock: %w", err)
	}
	sb, err := superblockFromPage(page)
	if err != nil {
		pager.Close()
		return nil, err
	}
	if sb.b != bl.b {
		pager.Close()
		return nil, fmt.Errorf("%w: tree was built with b=%d, not b=%d", ErrBadConfig, sb.b, bl.b)
	}
	return &BTree{pager: pager, b: sb.b, rootOffset: sb.root}, nil
}

// bootstrap lays out a fresh tree: superblock at page 0, then an empty root
// leaf, then the superblock again now that the root offset is known.
func bootstrap(pager *Pager, b int) (*BTree, error) {
	sb := &superblock{b: b}
	page, err := sb.toPage()
	if err != nil {
		return nil, err
	}
	if _, err := pager.WritePage(page); err != nil {
		return nil, err
	}

	root := &Node{IsLeaf: true, IsRoot: true}
	rootPage, err := root.ToPage()
	if err != nil {
		return nil, err
	}
	rootOffset, err := pager.WritePage(rootPage)
	if err != nil {
		return nil, err
	}

	tree := &BTree{pager: pager, b: b, rootOffset: rootOffset}
	if err := tree.writeSuperblock(); err != nil {
		return nil, err
	}
	if err := pager.Flush(); err != nil {
		return nil, err
	}
	return tree, nil
}

func (t *BTree) writeSuperblock() error {
	sb := &superblock{root: t.rootOffset, b: t.b}
	page, err := sb.toPage()
	if err != nil {
		return err
	}
	return t.pager.WritePageAtOffset(page, 0)
}

// B returns the tree's branching parameter.
func (t *BTree) B() int {
	return t.b
}

// RootOffset returns the offset of the current root page.
func (t *BTree) RootOffset() Offset {
	return t.rootOffset
}

// Close flushes and closes the backing file.
func (t *BTree) Close() error {
	return t.pager.Close()
}

func (t *BTree) isNodeFull(node *Node) bool {
	if node.IsLeaf {
		return len(node.Pairs) == 2*t.b-1
	}
	return len(node.Keys) == 2*t.b-1
}

// A root is never considered underflowing; it may hold arbitrarily few
// entries.
func (t *BTree) isNodeUnderflow(node *Node) bool {
	if node.IsRoot {
		return false
	}
	if node.IsLeaf {
		return len(node.Pairs) < t.b-1
	}
	return len(node.Keys) < t.b-1
}

// fetchNode reads and decodes the node stored at offset.
func (t *BTree) fetchNode(offset Offset) (*Node, error) {
	page, err := t.pager.GetPage(offset)
	if err != nil {
		return nil, err
	}
	return NodeFromPage(page)
}

// persistNodeAt encodes node and overwrites its existing page in place.
func (t *BTree) persistNodeAt(node *Node, offset Offset) error {
	page, err := node.ToPage()
	if err != nil {
		return err
	}
	return t.pager.WritePageAtOffset(page, offset)
}

// persistNewNode encodes node and appends it, returning the new offset.
func (t *BTree) persistNewNode(node *Node) (Offset, error) {
	page, err := node.ToPage()
	if err != nil {
		return 0, err
	}
	return t.pager.WritePage(page)
}
