package id3

import (
	"fmt"

	binutil "github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/types"
)

// readTTAProps extracts audio properties from a TrueAudio "TTA1" header,
// which may sit behind a leading ID3v2 tag.
func readTTAProps(sr *binutil.SafeReader, rec *types.Record) error {
	base := id3TagEnd(sr)

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, base, "TTA magic"); err != nil {
		return err
	}
	if string(magic) != "TTA1" {
		return fmt.Errorf("no TTA1 header found")
	}

	// TTA1 header, all little-endian:
	// format(2) channels(2) bitsPerSample(2) sampleRate(4) dataLength(4) crc(4)
	channels, err := binutil.ReadLE[uint16](sr, base+6, "channel count")
	if err != nil {
		return err
	}
	bits, err := binutil.ReadLE[uint16](sr, base+8, "bits per sample")
	if err != nil {
		return err
	}
	sampleRate, err := binutil.ReadLE[uint32](sr, base+10, "sample rate")
	if err != nil {
		return err
	}
	totalSamples, err := binutil.ReadLE[uint32](sr, base+14, "sample count")
	if err != nil {
		return err
	}

	rec.Channels = int(channels)
	rec.BitDepth = int(bits)
	rec.SampleRate = int(sampleRate)
	if sampleRate > 0 {
		rec.Duration = float64(totalSamples) / float64(sampleRate)
		if rec.Duration > 0 {
			rec.Bitrate = int(float64(sr.Size()-base) * 8 / rec.Duration / 1000)
		}
	}
	return nil
}
