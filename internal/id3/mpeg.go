package id3

import (
	"encoding/binary"
	"fmt"

	binutil "github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/types"
)

// MPEG Layer III bitrate tables in kbps, indexed by version then bitrate index.
var mpegBitrates = map[uint32][]int{
	3: {0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}, // MPEG1
	2: {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},     // MPEG2
	0: {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},     // MPEG2.5
}

// Sample rate tables in Hz, indexed by version then sample rate index.
var mpegSampleRates = map[uint32][]int{
	3: {44100, 48000, 32000, 0},
	2: {22050, 24000, 16000, 0},
	0: {11025, 12000, 8000, 0},
}

// samplesPerFrame for Layer III by version.
func layer3SamplesPerFrame(version uint32) int {
	if version == 3 {
		return 1152
	}
	return 576
}

// readMPEGProps extracts bitrate, sample rate, channels and duration from
// the first valid MPEG frame header after the leading ID3v2 tag.
func readMPEGProps(sr *binutil.SafeReader, rec *types.Record) error {
	size := sr.Size()
	offset := id3TagEnd(sr)

	for ; offset < size-4; offset++ {
		buf := make([]byte, 4)
		if err := sr.ReadAt(buf, offset, "MPEG frame header"); err != nil {
			return err
		}
		header := binary.BigEndian.Uint32(buf)
		if header&0xFFE00000 != 0xFFE00000 {
			continue
		}

		version := (header >> 19) & 0x3
		layer := (header >> 17) & 0x3
		if version == 1 || layer != 1 { // reserved version, or not Layer III
			continue
		}

		bitrateIdx := (header >> 12) & 0xF
		sampleRateIdx := (header >> 10) & 0x3
		bitrate := mpegBitrates[version][bitrateIdx]
		sampleRate := mpegSampleRates[version][sampleRateIdx]
		if bitrate == 0 || sampleRate == 0 {
			continue
		}

		rec.Bitrate = bitrate
		rec.SampleRate = sampleRate
		if (header>>6)&0x3 == 3 {
			rec.Channels = 1
		} else {
			rec.Channels = 2
		}

		audioSize := size - offset
		if frames, ok := readXingFrameCount(sr, offset); ok {
			spf := layer3SamplesPerFrame(version)
			rec.Duration = float64(uint64(frames)*uint64(spf)) / float64(sampleRate)
			if rec.Duration > 0 {
				rec.Bitrate = int(float64(audioSize*8) / rec.Duration / 1000)
			}
		} else {
			rec.Duration = float64(audioSize*8) / float64(bitrate*1000)
		}
		return nil
	}

	return fmt.Errorf("no valid MPEG frame found")
}

// id3TagEnd returns the offset of the first byte after a leading ID3v2 tag,
// or 0 when the file does not start with one.
func id3TagEnd(sr *binutil.SafeReader) int64 {
	buf := make([]byte, 10)
	if err := sr.ReadAt(buf, 0, "ID3v2 header"); err != nil {
		return 0
	}
	if string(buf[:3]) != "ID3" {
		return 0
	}
	return 10 + int64(decodeSynchsafe(buf[6:10]))
}

// decodeSynchsafe decodes a synchsafe integer (7 bits per byte).
func decodeSynchsafe(b []byte) uint32 {
	if len(b) != 4 {
		return 0
	}
	return uint32(b[0]&0x7F)<<21 |
		uint32(b[1]&0x7F)<<14 |
		uint32(b[2]&0x7F)<<7 |
		uint32(b[3]&0x7F)
}

// readXingFrameCount looks for a Xing/Info VBR header near the first frame
// and returns its frame count.
func readXingFrameCount(sr *binutil.SafeReader, frameOffset int64) (uint32, bool) {
	// The Xing header sits after the side info; probe the common offsets
	// for mono and stereo MPEG1/MPEG2 layouts.
	for _, sideInfo := range []int64{36, 21, 25, 13} {
		buf := make([]byte, 12)
		if err := sr.ReadAt(buf, frameOffset+4+sideInfo-4, "VBR header"); err != nil {
			continue
		}
		if tag := string(buf[:4]); tag != "Xing" && tag != "Info" {
			continue
		}
		flags := binary.BigEndian.Uint32(buf[4:8])
		if flags&0x1 == 0 {
			return 0, false
		}
		return binary.BigEndian.Uint32(buf[8:12]), true
	}
	return 0, false
}
