package id3

import (
	"fmt"
	"math"

	binutil "github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/types"
)

// walkAIFF visits each chunk of a FORM/AIFF file. Chunk sizes are big-endian.
func walkAIFF(sr *binutil.SafeReader, visit func(id string, off int64, size int64) bool) error {
	size := sr.Size()
	if size < 12 {
		return fmt.Errorf("AIFF file too small")
	}

	offset := int64(12) // past "FORM" + size + "AIFF"/"AIFC"
	for offset+8 <= size {
		hdr := make([]byte, 8)
		if err := sr.ReadAt(hdr, offset, "AIFF chunk header"); err != nil {
			return err
		}
		id := string(hdr[:4])
		chunkSize := int64(uint32(hdr[4])<<24 | uint32(hdr[5])<<16 | uint32(hdr[6])<<8 | uint32(hdr[7]))
		if offset+8+chunkSize > size {
			break
		}
		if !visit(id, offset+8, chunkSize) {
			return nil
		}
		offset += 8 + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}
	return nil
}

// readAIFFProps extracts audio properties from the COMM chunk.
func readAIFFProps(sr *binutil.SafeReader, rec *types.Record) error {
	var found bool

	err := walkAIFF(sr, func(id string, off, size int64) bool {
		if id != "COMM" || size < 18 {
			return true
		}
		channels, _ := binutil.Read[uint16](sr, off, "channel count")
		frames, _ := binutil.Read[uint32](sr, off+2, "sample frames")
		bits, _ := binutil.Read[uint16](sr, off+6, "sample size")

		rateBuf := make([]byte, 10)
		if err := sr.ReadAt(rateBuf, off+8, "sample rate"); err != nil {
			return true
		}
		rate := decodeExtendedFloat(rateBuf)

		rec.Channels = int(channels)
		rec.BitDepth = int(bits)
		if rate > 0 {
			rec.SampleRate = int(rate)
			rec.Duration = float64(frames) / rate
			rec.Bitrate = int(rate) * int(channels) * int(bits) / 1000
		}
		found = true
		return false
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no COMM chunk found")
	}
	return nil
}

// decodeExtendedFloat decodes the 80-bit IEEE 754 extended-precision sample
// rate stored in AIFF COMM chunks.
func decodeExtendedFloat(b []byte) float64 {
	sign := 1.0
	if b[0]&0x80 != 0 {
		sign = -1.0
	}
	exponent := int(uint16(b[0]&0x7F)<<8|uint16(b[1])) - 16383

	var mantissa uint64
	for i := 2; i < 10; i++ {
		mantissa = mantissa<<8 | uint64(b[i])
	}
	if mantissa == 0 {
		return 0
	}
	return sign * float64(mantissa) * math.Pow(2, float64(exponent-63))
}

// findAIFFID3 locates an embedded "ID3 " chunk and returns its bounds.
func findAIFFID3(sr *binutil.SafeReader) (off, size int64, err error) {
	walkErr := walkAIFF(sr, func(id string, o, s int64) bool {
		if id == "ID3 " || id == "id3 " {
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
