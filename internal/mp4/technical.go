package mp4

import (
	"fmt"

	"github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/types"
)

// readProps extracts duration, sample rate, channels and bit depth from the
// movie header and the first audio sample description.
func readProps(sr *binary.SafeReader, size int64, rec *types.Record) error {
	moov, err := findAtom(sr, 0, size, "moov")
	if err != nil {
		return fmt.Errorf("no moov atom: %w", err)
	}

	if mvhd, err := findAtom(sr, moov.DataOffset(), moov.End(), "mvhd"); err == nil {
		readMvhd(sr, mvhd, rec)
	}

	// moov → trak → mdia → minf → stbl → stsd
	parent := moov
	for _, child := range []string{"trak", "mdia", "minf", "stbl"} {
		next, err := findAtom(sr, parent.DataOffset(), parent.End(), child)
		if err != nil {
			return nil //nolint:nilerr // missing sample table is not fatal
		}
		parent = next
	}
	if stsd, err := findAtom(sr, parent.DataOffset(), parent.End(), "stsd"); err == nil {
		readStsd(sr, stsd, rec)
	}

	// Bitrate estimated from total size; good enough for a property hint.
	if rec.Duration > 0 {
		rec.Bitrate = int(float64(size*8) / rec.Duration / 1000)
	}
	return nil
}

// readMvhd reads timescale and duration from the movie header atom.
func readMvhd(sr *binary.SafeReader, mvhd *Atom, rec *types.Record) {
	base := mvhd.DataOffset()

	version, err := binary.Read[uint8](sr, base, "mvhd version")
	if err != nil {
		return
	}

	if version == 1 {
		timescale, err1 := binary.Read[uint32](sr, base+20, "mvhd timescale")
		duration, err2 := binary.Read[uint64](sr, base+24, "mvhd duration")
		if err1 == nil && err2 == nil && timescale > 0 {
			rec.Duration = float64(duration) / float64(timescale)
		}
		return
	}

	timescale, err1 := binary.Read[uint32](sr, base+12, "mvhd timescale")
	duration, err2 := binary.Read[uint32](sr, base+16, "mvhd duration")
	if err1 == nil && err2 == nil && timescale > 0 {
		rec.Duration = float64(duration) / float64(timescale)
	}
}

// readStsd reads channels, bit depth and sample rate from the first audio
// sample entry.
func readStsd(sr *binary.SafeReader, stsd *Atom, rec *types.Record) {
	// stsd data: version+flags (4), entry count (4), then the first entry,
	// itself an atom: size (4), format (4), then the audio sample fields.
	entry := stsd.DataOffset() + 8

	channels, err := binary.Read[uint16](sr, entry+24, "channel count")
	if err != nil {
		return
	}
	sampleSize, _ := binary.Read[uint16](sr, entry+26, "sample size")
	rate, err := binary.Read[uint32](sr, entry+32, "sample rate")
	if err != nil {
		return
	}

	rec.Channels = int(channels)
	rec.BitDepth = int(sampleSize)
	rec.SampleRate = int(rate >> 16) // 16.16 fixed point
}
