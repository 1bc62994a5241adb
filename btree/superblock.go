package btree

import "fmt"

// The superblock occupies page 0 and records what the tree needs to survive
// a restart: the current root offset and the b parameter.
//
// Layout: magic (uint32), format version (uint32), root offset (uint64),
// b parameter (uint64).
const (
	superblockMagic   uint32 = 0x42444750 // "PGDB"
	superblockVersion uint32 = 1

	sbMagicOffset   = 0
	sbVersionOffset = 4
	sbRootOffset    = 8
	sbBOffset       = 16
)

type superblock struct {
	root Offset
	b    int
}

func (sb *superblock) toPage() (*Page, error) {
	p := &Page{}
	if err := p.WriteUint32(sbMagicOffset, superblockMagic); err != nil {
		return nil, err
	}
	if err := p.WriteUint32(sbVersionOffset, superblockVersion); err != nil {
		return nil, err
	}
	if err := p.WriteUint64(sbRootOffset, sb.root); err != nil {
		return nil, err
	}
	if err := p.WriteUint64(sbBOffset, uint64(sb.b)); err != nil {
		return nil, err
	}
	return p, nil
}

func superblockFromPage(p *Page) (*superblock, error) {
	magic, err := p.ReadUint32(sbMagicOffset)
	if err != nil {
		return nil, err
	}
	if magic != superblockMagic {
		return nil, fmt.Errorf("%w: bad superblock magic %#x", ErrCorruptPage, magic)
	}
	version, err := p.ReadUint32(sbVersionOffset)
	if err != nil {
		return nil, err
	}
	if version != superblockVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrCorruptPage, version)
	}
	root, err := p.ReadUint64(sbRootOffset)
	if err != nil {
		return nil, err
	}
	b, err := p.ReadUint64(sbBOffset)
	if err != nil {
		return nil, err
	}
	return &superblock{root: root, b: int(b)}, nil
}
