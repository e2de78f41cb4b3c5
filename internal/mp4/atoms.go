// Package mp4 implements the atom-map dialect extractor for the MP4 family
// (M4A/M4B/M4P/MP4/AAC): iTunes-style ilst items, freeform vendor atoms and
// embedded cover art.
package mp4

import (
	"fmt"

	"github.com/veldran/tagnorm/internal/binary"
)

// Atom represents an MP4 atom (box).
type Atom struct {
	Size     uint64 // total size including header
	Type     string // 4-character type code
	Offset   int64  // position in file
	Extended bool   // uses 64-bit extended size
}

// DataSize returns the size of the atom's data, excluding the header.
func (a *Atom) DataSize() uint64 {
	headerSize := uint64(8)
	if a.Extended {
		headerSize = 16
	}
	if a.Size < headerSize {
		return 0
	}
	return a.Size - headerSize
}

// DataOffset returns the file offset where the atom's data starts.
func (a *Atom) DataOffset() int64 {
	headerSize := int64(8)
	if a.Extended {
		headerSize = 16
	}
	return a.Offset + headerSize
}

// End returns the file offset just past the atom.
func (a *Atom) End() int64 {
	return a.Offset + int64(a.Size)
}

// readAtomHeader reads an atom header at the given offset.
func readAtomHeader(sr *binary.SafeReader, offset int64) (*Atom, error) {
	size32, err := binary.Read[uint32](sr, offset, "atom size")
	if err != nil {
		return nil, err
	}

	typeBytes := make([]byte, 4)
	if err := sr.ReadAt(typeBytes, offset+4, "atom type"); err != nil {
		return nil, err
	}

	atom := &Atom{
		Type:   string(typeBytes),
		Offset: offset,
	}

	// size == 1 means a 64-bit extended size follows.
	if size32 == 1 {
		size64, err := binary.Read[uint64](sr, offset+8, "extended atom size")
		if err != nil {
			return nil, err
		}
		atom.Size = size64
		atom.Extended = true
	} else {
		atom.Size = uint64(size32)
	}

	if atom.Size < 8 {
		return nil, fmt.Errorf("invalid atom size %d at offset %d", atom.Size, offset)
	}

	return atom, nil
}

// findAtom returns the first atom of the given type within [start, end).
func findAtom(sr *binary.SafeReader, start, end int64, atomType string) (*Atom, error) {
	offset := start

	for offset < end {
		atom, err := readAtomHeader(sr, offset)
		if err != nil {
			return nil, err
		}

		if atom.Type == atomType {
			return atom, nil
		}

		offset += int64(atom.Size)
		if atom.Size == 0 {
			return nil, fmt.Errorf("atom with zero size at offset %d", offset)
		}
	}

	return nil, fmt.Errorf("atom %q not found", atomType)
}

// findIlst navigates moov → udta → meta → ilst and returns the metadata
// item list atom.
func findIlst(sr *binary.SafeReader, size int64) (*Atom, error) {
	moov, err := findAtom(sr, 0, size, "moov")
	if err != nil {
		return nil, err
	}
	udta, err := findAtom(sr, moov.DataOffset(), moov.End(), "udta")
	if err != nil {
		return nil, err
	}
	meta, err := findAtom(sr, udta.DataOffset(), udta.End(), "meta")
	if err != nil {
		return nil, err
	}
	// The meta atom carries 4 bytes of version+flags before its children.
	return findAtom(sr, meta.DataOffset()+4, meta.End(), "ilst")
}
