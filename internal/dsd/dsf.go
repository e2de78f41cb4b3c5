// Package dsd covers the two DSD container flavors: DSF, whose metadata is a
// trailing ID3v2 tag, and DSDIFF, which carries no dialect tag at all.
package dsd

import (
	"fmt"

	binutil "github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/id3"
	"github.com/veldran/tagnorm/internal/registry"
	"github.com/veldran/tagnorm/internal/types"
)

// dsfParser implements registry.Parser for Sony DSF files.
type dsfParser struct{}

// ReadProps extracts audio properties from the DSD and fmt chunks.
// All DSF header fields are little-endian.
func (dsfParser) ReadProps(sr *binutil.SafeReader, rec *types.Record) error {
	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "DSF magic"); err != nil {
		return err
	}
	if string(magic) != "DSD " {
		return fmt.Errorf("no DSD chunk found")
	}

	fmtMagic := make([]byte, 4)
	if err := sr.ReadAt(fmtMagic, 28, "fmt chunk id"); err != nil {
		return err
	}
	if string(fmtMagic) != "fmt " {
		return fmt.Errorf("no fmt chunk found")
	}

	channels, err := binutil.ReadLE[uint32](sr, 52, "channel count")
	if err != nil {
		return err
	}
	sampleRate, err := binutil.ReadLE[uint32](sr, 56, "sampling frequency")
	if err != nil {
		return err
	}
	bits, err := binutil.ReadLE[uint32](sr, 60, "bits per sample")
	if err != nil {
		return err
	}
	sampleCount, err := binutil.ReadLE[uint64](sr, 64, "sample count")
	if err != nil {
		return err
	}

	rec.Channels = int(channels)
	rec.SampleRate = int(sampleRate)
	rec.BitDepth = int(bits)
	if sampleRate > 0 {
		rec.Duration = float64(sampleCount) / float64(sampleRate)
		rec.Bitrate = int(uint64(sampleRate) * uint64(bits) * uint64(channels) / 1000)
	}
	return nil
}

// ExtractTags parses the ID3v2 tag the DSD chunk's metadata pointer
// addresses. A zero pointer means the file carries no tag.
func (dsfParser) ExtractTags(sr *binutil.SafeReader, rec *types.Record) error {
	pointer, err := binutil.ReadLE[uint64](sr, 20, "metadata pointer")
	if err != nil {
		return err
	}
	if pointer == 0 || int64(pointer) >= sr.Size() {
		return fmt.Errorf("no metadata chunk present")
	}
	return id3.ExtractFrames(sr, int64(pointer), 0, rec)
}

func init() {
	registry.Register(types.ContainerDSF, dsfParser{})
}
