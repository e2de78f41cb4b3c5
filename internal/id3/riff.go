package id3

import (
	"fmt"

	binutil "github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/types"
)

// walkRIFF visits each top-level chunk of a RIFF/WAVE file. The visitor
// receives the chunk id, its data offset and data size; returning false
// stops the walk.
func walkRIFF(sr *binutil.SafeReader, visit func(id string, off int64, size int64) bool) error {
	size := sr.Size()
	if size < 12 {
		return fmt.Errorf("RIFF file too small")
	}

	offset := int64(12) // past "RIFF" + size + "WAVE"
	for offset+8 <= size {
		hdr := make([]byte, 8)
		if err := sr.ReadAt(hdr, offset, "RIFF chunk header"); err != nil {
			return err
		}
		id := string(hdr[:4])
		chunkSize := int64(uint32(hdr[4]) | uint32(hdr[5])<<8 | uint32(hdr[6])<<16 | uint32(hdr[7])<<24)
		if offset+8+chunkSize > size {
			break
		}
		if !visit(id, offset+8, chunkSize) {
			return nil
		}
		offset += 8 + chunkSize
		if chunkSize%2 != 0 { // chunks are word-aligned
			offset++
		}
	}
	return nil
}

// readWAVProps extracts audio properties from the fmt and data chunks.
func readWAVProps(sr *binutil.SafeReader, rec *types.Record) error {
	var haveFmt bool
	var byteRate uint32
	var dataSize int64

	err := walkRIFF(sr, func(id string, off, size int64) bool {
		switch id {
		case "fmt ":
			if size < 16 {
				return true
			}
			channels, _ := binutil.ReadLE[uint16](sr, off+2, "channel count")
			sampleRate, _ := binutil.ReadLE[uint32](sr, off+4, "sample rate")
			rate, _ := binutil.ReadLE[uint32](sr, off+8, "byte rate")
			bits, _ := binutil.ReadLE[uint16](sr, off+14, "bits per sample")
			rec.Channels = int(channels)
			rec.SampleRate = int(sampleRate)
			rec.BitDepth = int(bits)
			byteRate = rate
			haveFmt = true
		case "data":
			dataSize = size
		}
		return true
	})
	if err != nil {
		return err
	}
	if !haveFmt {
		return fmt.Errorf("no fmt chunk found")
	}

	if byteRate > 0 {
		rec.Bitrate = int(byteRate * 8 / 1000)
		if dataSize > 0 {
			rec.Duration = float64(dataSize) / float64(byteRate)
		}
	}
	return nil
}

// findRIFFID3 locates an embedded "id3 " chunk and returns its bounds.
func findRIFFID3(sr *binutil.SafeReader) (off, size int64, err error) {
	walkErr := walkRIFF(sr, func(id string, o, s int64) bool {
		if id == "id3 " || id == "ID3 " {
			off, size = o, s
			return false
		}
		return true
	})
	if walkErr != nil {
		return 0, 0, walkErr
	}
	if size == 0 {
		return 0, 0, fmt.Errorf("no ID3 chunk found")
	}
	return off, size, nil
}
