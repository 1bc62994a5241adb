package btree

import (
	"encoding/binary"
	"fmt"
)

// Page is a fixed-size, zero-initialized byte buffer holding one node's
// encoded form. It knows nothing about node semantics; it only offers
// bounds-checked typed accessors at byte offsets.
type Page struct {
	data [PageSize]byte
}

func (p *Page) checkBounds(offset, length int) error {
	if offset < 0 || length < 0 || offset+length > PageSize {
		return fmt.Errorf("page access out of bounds: offset %d length %d", offset, length)
	}
	return nil
}

// WriteBytes copies b into the page starting at offset.
func (p *Page) WriteBytes(offset int, b []byte) error {
	if err := p.checkBounds(offset, len(b)); err != nil {
		return err
	}
	copy(p.data[offset:], b)
	return nil
}

// ReadBytes returns a copy of length bytes starting at offset.
func (p *Page) ReadBytes(offset, length int) ([]byte, error) {
	if err := p.checkBounds(offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, p.data[offset:offset+length])
	return out, nil
}

// WriteUint64 stores v little-endian at offset.
func (p *Page) WriteUint64(offset int, v uint64) error {
	if err := p.checkBounds(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(p.data[offset:], v)
	return nil
}

// ReadUint64 reads a little-endian uint64 at offset.
func (p *Page) ReadUint64(offset int) (uint64, error) {
	if err := p.checkBounds(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(p.data[offset:]), nil
}

// WriteUint32 stores v little-endian at offset.
func (p *Page) WriteUint32(offset int, v uint32) error {
	if err := p.checkBounds(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(p.data[offset:], v)
	return nil
}

// ReadUint32 reads a little-endian uint32 at offset.
func (p *Page) ReadUint32(offset int) (uint32, error) {
	if err := p.checkBounds(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p.data[offset:]), nil
}

// WriteUint16 stores v little-endian at offset.
func (p *Page) WriteUint16(offset int, v uint16) error {
	if err := p.checkBounds(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(p.data[offset:], v)
	return nil
}

// ReadUint16 reads a little-endian uint16 at offset.
func (p *Page) ReadUint16(offset int) (uint16, error) {
	if err := p.checkBounds(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p.data[offset:]), nil
}

// WriteByteAt stores a single byte at offset.
func (p *Page) WriteByteAt(offset int, b byte) error {
	if err := p.checkBounds(offset, 1); err != nil {
		return err
	}
	p.data[offset] = b
	return nil
}

// ReadByteAt reads a single byte at offset.
func (p *Page) ReadByteAt(offset int) (byte, error) {
	if err := p.checkBounds(offset, 1); err != nil {
		return 0, err
	}
	return p.data[offset], nil
}

// WriteBool stores a boolean as 0/1 at offset.
func (p *Page) WriteBool(offset int, v bool) error {
	b := byte(0)
	if v {
		b = 1
	}
	return p.WriteByteAt(offset, b)
}

// ReadBool reads a boolean at offset. Any byte other than 0 or 1 is a
// corruption error, not a silent truthy value.
func (p *Page) ReadBool(offset int) (bool, error) {
	b, err := p.ReadByteAt(offset)
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: invalid boolean byte %d at offset %d", ErrCorruptPage, b, offset)
	}
}

// Data exposes the raw backing bytes for the pager to move to and from disk.
func (p *Page) Data() []byte {
	return p.data[:]
}
