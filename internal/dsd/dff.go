package dsd

import (
	"fmt"

	binutil "github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/registry"
	"github.com/veldran/tagnorm/internal/types"
)

// dffParser implements registry.Parser for DSDIFF files. The format defines
// no tag dialect; only properties are available.
type dffParser struct{}

// ReadProps walks the FRM8 chunk tree. Chunk sizes are big-endian, unlike DSF.
func (dffParser) ReadProps(sr *binutil.SafeReader, rec *types.Record) error {
	size := sr.Size()
	if size < 16 {
		return fmt.Errorf("DSDIFF file too small")
	}

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "FRM8 magic"); err != nil {
		return err
	}
	if string(magic) != "FRM8" {
		return fmt.Errorf("no FRM8 chunk found")
	}

	var soundDataSize int64

	offset := int64(16) // past FRM8 header and "DSD " form type
	for offset+12 <= size {
		hdr := make([]byte, 12)
		if err := sr.ReadAt(hdr, offset, "DSDIFF chunk header"); err != nil {
			break
		}
		id := string(hdr[:4])
		chunkSize := int64(uint64(hdr[4])<<56 | uint64(hdr[5])<<48 | uint64(hdr[6])<<40 | uint64(hdr[7])<<32 |
			uint64(hdr[8])<<24 | uint64(hdr[9])<<16 | uint64(hdr[10])<<8 | uint64(hdr[11]))
		if chunkSize < 0 || offset+12+chunkSize > size {
			break
		}

		switch id {
		case "PROP":
			readDFFProperties(sr, offset+12, chunkSize, rec)
		case "DSD ":
			soundDataSize = chunkSize
		}

		offset += 12 + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}

	if rec.SampleRate == 0 {
		return fmt.Errorf("no sound properties found")
	}

	rec.BitDepth = 1 // DSD is a 1-bit stream
	if soundDataSize > 0 && rec.Channels > 0 {
		rec.Duration = float64(soundDataSize*8) / float64(rec.SampleRate*rec.Channels)
		rec.Bitrate = rec.SampleRate * rec.Channels / 1000
	}
	return nil
}

// readDFFProperties scans a PROP chunk for the SND property set.
func readDFFProperties(sr *binutil.SafeReader, start, length int64, rec *types.Record) {
	propType := make([]byte, 4)
	if err := sr.ReadAt(propType, start, "PROP type"); err != nil || string(propType) != "SND " {
		return
	}

	offset := start + 4
	end := start + length
	for offset+12 <= end {
		hdr := make([]byte, 12)
		if err := sr.ReadAt(hdr, offset, "property chunk header"); err != nil {
			return
		}
		id := string(hdr[:4])
		chunkSize := int64(uint64(hdr[8])<<24 | uint64(hdr[9])<<16 | uint64(hdr[10])<<8 | uint64(hdr[11]))

		switch id {
		case "FS  ":
			if rate, err := binutil.Read[uint32](sr, offset+12, "sample rate"); err == nil {
				rec.SampleRate = int(rate)
			}
		case "CHNL":
			if channels, err := binutil.Read[uint16](sr, offset+12, "channel count"); err == nil {
				rec.Channels = int(channels)
			}
		}

		offset += 12 + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}
}

// ExtractTags validates the container but extracts nothing: DSDIFF defines
// no tag dialect.
func (dffParser) ExtractTags(sr *binutil.SafeReader, _ *types.Record) error {
	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "FRM8 magic"); err != nil {
		return err
	}
	if string(magic) != "FRM8" {
		return fmt.Errorf("no FRM8 chunk found")
	}
	return nil
}

func init() {
	registry.Register(types.ContainerDSDIFF, dffParser{})
}
