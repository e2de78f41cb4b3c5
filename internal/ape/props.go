package ape

import (
	"fmt"

	"github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/types"
)

// readMonkeysProps reads stream properties from a Monkey's Audio header.
// Only the 3.98+ layout (separate descriptor and header) is supported;
// older streams report nothing rather than failing the whole extraction.
func readMonkeysProps(sr *binary.SafeReader, rec *types.Record) error {
	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "stream magic"); err != nil {
		return err
	}
	if string(magic) != "MAC " {
		return fmt.Errorf("%s: not a Monkey's Audio stream", sr.Path())
	}

	version, err := binary.ReadLE[uint16](sr, 4, "stream version")
	if err != nil {
		return err
	}
	if version < 3980 {
		rec.Warn("properties", "legacy Monkey's Audio version %d, properties unavailable", version)
		return nil
	}

	descriptorBytes, err := binary.ReadLE[uint32](sr, 8, "descriptor size")
	if err != nil {
		return err
	}
	header := int64(descriptorBytes)

	blocksPerFrame, err := binary.ReadLE[uint32](sr, header+4, "blocks per frame")
	if err != nil {
		return err
	}
	finalFrameBlocks, _ := binary.ReadLE[uint32](sr, header+8, "final frame blocks")
	totalFrames, _ := binary.ReadLE[uint32](sr, header+12, "total frames")
	bitsPerSample, _ := binary.ReadLE[uint16](sr, header+16, "bits per sample")
	channels, _ := binary.ReadLE[uint16](sr, header+18, "channel count")
	sampleRate, err := binary.ReadLE[uint32](sr, header+20, "sample rate")
	if err != nil {
		return err
	}

	rec.SampleRate = int(sampleRate)
	rec.Channels = int(channels)
	rec.BitDepth = int(bitsPerSample)

	if sampleRate > 0 && totalFrames > 0 {
		totalBlocks := uint64(totalFrames-1)*uint64(blocksPerFrame) + uint64(finalFrameBlocks)
		rec.Duration = float64(totalBlocks) / float64(sampleRate)
		rec.Bitrate = int(float64(sr.Size()*8) / rec.Duration / 1000)
	}
	return nil
}

// wavpackSampleRates indexes the sample rate encoded in a WavPack block's
// flags word (bits 23-26).
var wavpackSampleRates = [...]int{
	6000, 8000, 9600, 11025, 12000, 16000, 22050, 24000,
	32000, 44100, 48000, 64000, 88200, 96000, 192000,
}

// readWavPackProps reads stream properties from the first WavPack block
// header.
func readWavPackProps(sr *binary.SafeReader, rec *types.Record) error {
	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "block magic"); err != nil {
		return err
	}
	if string(magic) != "wvpk" {
		return fmt.Errorf("%s: not a WavPack stream", sr.Path())
	}

	totalSamples, err := binary.ReadLE[uint32](sr, 12, "total samples")
	if err != nil {
		return err
	}
	flags, err := binary.ReadLE[uint32](sr, 24, "block flags")
	if err != nil {
		return err
	}

	rateIndex := int(flags >> 23 & 0x0F)
	if rateIndex < len(wavpackSampleRates) {
		rec.SampleRate = wavpackSampleRates[rateIndex]
	}

	rec.Channels = 2
	if flags&0x04 != 0 { // mono flag
		rec.Channels = 1
	}
	rec.BitDepth = (int(flags&0x03) + 1) * 8

	// 0xFFFFFFFF marks an unknown sample count.
	if rec.SampleRate > 0 && totalSamples != 0xFFFFFFFF && totalSamples > 0 {
		rec.Duration = float64(totalSamples) / float64(rec.SampleRate)
		rec.Bitrate = int(float64(sr.Size()*8) / rec.Duration / 1000)
	}
	return nil
}

// musepackSampleRates is shared by stream versions 7 and 8.
var musepackSampleRates = [...]int{44100, 48000, 37800, 32000}

// musepackFrameSamples is the fixed frame length of SV7 streams.
const musepackFrameSamples = 1152

// readMusepackProps reads stream properties from an SV7 ("MP+") or SV8
// ("MPCK") Musepack header.
func readMusepackProps(sr *binary.SafeReader, rec *types.Record) error {
	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "stream magic"); err != nil {
		return err
	}

	switch {
	case string(magic[:3]) == "MP+":
		return readMusepackSV7(sr, rec)
	case string(magic) == "MPCK":
		return readMusepackSV8(sr, rec)
	}
	return fmt.Errorf("%s: not a Musepack stream", sr.Path())
}

func readMusepackSV7(sr *binary.SafeReader, rec *types.Record) error {
	frames, err := binary.ReadLE[uint32](sr, 4, "frame count")
	if err != nil {
		return err
	}
	flags, err := binary.ReadLE[uint32](sr, 8, "stream flags")
	if err != nil {
		return err
	}

	rec.SampleRate = musepackSampleRates[flags>>16&0x03]
	rec.Channels = 2

	if frames > 0 {
		rec.Duration = float64(uint64(frames)*musepackFrameSamples) / float64(rec.SampleRate)
		rec.Bitrate = int(float64(sr.Size()*8) / rec.Duration / 1000)
	}
	return nil
}

// readMusepackSV8 walks the packet stream for the mandatory stream header
// ("SH") packet.
func readMusepackSV8(sr *binary.SafeReader, rec *types.Record) error {
	offset := int64(4)

	for offset+3 < sr.Size() {
		key := make([]byte, 2)
		if err := sr.ReadAt(key, offset, "packet key"); err != nil {
			return err
		}
		size, sizeLen, err := readVarint(sr, offset+2)
		if err != nil {
			return err
		}

		if string(key) == "SH" {
			return readMusepackStreamHeader(sr, offset+2+int64(sizeLen), rec)
		}
		if size <= 0 {
			break
		}
		offset += int64(size)
	}
	return fmt.Errorf("%s: no stream header packet", sr.Path())
}

func readMusepackStreamHeader(sr *binary.SafeReader, offset int64, rec *types.Record) error {
	// CRC (4) and stream version (1) precede two varints for the sample
	// count and beginning silence.
	pos := offset + 5

	samples, n, err := readVarint(sr, pos)
	if err != nil {
		return err
	}
	pos += int64(n)
	_, n, err = readVarint(sr, pos) // beginning silence
	if err != nil {
		return err
	}
	pos += int64(n)

	packed := make([]byte, 2)
	if err := sr.ReadAt(packed, pos, "stream header flags"); err != nil {
		return err
	}

	rec.SampleRate = musepackSampleRates[packed[0]>>5&0x03]
	rec.Channels = int(packed[1]>>4) + 1

	if samples > 0 && rec.SampleRate > 0 {
		rec.Duration = float64(samples) / float64(rec.SampleRate)
		rec.Bitrate = int(float64(sr.Size()*8) / rec.Duration / 1000)
	}
	return nil
}

// readVarint decodes the 7-bits-per-byte big-endian variable-length
// integer used by SV8 packets.
func readVarint(sr *binary.SafeReader, offset int64) (value int64, length int, err error) {
	for length < 9 {
		b, err := binary.Read[uint8](sr, offset+int64(length), "varint")
		if err != nil {
			return 0, 0, err
		}
		length++
		value = value<<7 | int64(b&0x7F)
		if b&0x80 == 0 {
			return value, length, nil
		}
	}
	return 0, 0, fmt.Errorf("%s: varint too long at offset %d", sr.Path(), offset)
}
