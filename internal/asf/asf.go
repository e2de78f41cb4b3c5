// Package asf reads Windows Media (ASF/WMA) containers: a flat sequence of
// GUID-keyed objects inside one header object. Strings are UTF-16LE.
package asf

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/parsing"
	"github.com/veldran/tagnorm/internal/registry"
	"github.com/veldran/tagnorm/internal/types"
)

// Object GUIDs, stored little-endian on disk.
var (
	headerGUID = []byte{
		0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11,
		0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C,
	}
	filePropertiesGUID = []byte{
		0xA1, 0xDC, 0xAB, 0x8C, 0x47, 0xA9, 0xCF, 0x11,
		0x8E, 0xE4, 0x00, 0xC0, 0x0C, 0x20, 0x53, 0x65,
	}
	streamPropertiesGUID = []byte{
		0x91, 0x07, 0xDC, 0xB7, 0xB7, 0xA9, 0xCF, 0x11,
		0x8E, 0xE6, 0x00, 0xC0, 0x0C, 0x20, 0x53, 0x65,
	}
	audioMediaGUID = []byte{
		0x40, 0x9E, 0x69, 0xF8, 0x4D, 0x5B, 0xCF, 0x11,
		0xA8, 0xFD, 0x00, 0x80, 0x5F, 0x5C, 0x44, 0x2B,
	}
	contentDescriptionGUID = []byte{
		0x33, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11,
		0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C,
	}
	extendedContentGUID = []byte{
		0x40, 0xA4, 0xD0, 0xD2, 0x07, 0xE3, 0xD2, 0x11,
		0x97, 0xF0, 0x00, 0xA0, 0xC9, 0x5E, 0xA8, 0x50,
	}
)

// decodeString converts a UTF-16LE byte run to a Go string, dropping the
// trailing NUL terminator. Decoders carry state, so each call gets its own;
// extractions may run concurrently.
func decodeString(b []byte) string {
	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(decoded), "\x00")
}

// walkObjects calls visit with the GUID and data bounds of every top-level
// object inside the header object.
func walkObjects(sr *binary.SafeReader, visit func(guid []byte, offset, size int64) error) error {
	guid := make([]byte, 16)
	if err := sr.ReadAt(guid, 0, "header object guid"); err != nil {
		return err
	}
	if !bytes.Equal(guid, headerGUID) {
		return fmt.Errorf("%s: not an ASF container", sr.Path())
	}

	headerSize, err := binary.ReadLE[uint64](sr, 16, "header object size")
	if err != nil {
		return err
	}
	count, err := binary.ReadLE[uint32](sr, 24, "header object count")
	if err != nil {
		return err
	}

	// Children start after the 30-byte header object preamble.
	offset := int64(30)
	end := int64(headerSize)
	if end > sr.Size() {
		end = sr.Size()
	}

	for i := uint32(0); i < count && offset+24 <= end; i++ {
		if err := sr.ReadAt(guid, offset, "object guid"); err != nil {
			return err
		}
		size, err := binary.ReadLE[uint64](sr, offset+16, "object size")
		if err != nil {
			return err
		}
		if size < 24 {
			break
		}
		if err := visit(guid, offset+24, int64(size)-24); err != nil {
			return err
		}
		offset += int64(size)
	}
	return nil
}

// parser implements registry.Parser for ASF containers.
type parser struct{}

// ReadProps reads duration and bitrate from the file properties object and
// the audio format from the first audio stream properties object.
func (parser) ReadProps(sr *binary.SafeReader, rec *types.Record) error {
	found := false
	err := walkObjects(sr, func(guid []byte, offset, size int64) error {
		switch {
		case bytes.Equal(guid, filePropertiesGUID) && size >= 80:
			playDuration, err := binary.ReadLE[uint64](sr, offset+40, "play duration")
			if err != nil {
				return err
			}
			preroll, _ := binary.ReadLE[uint64](sr, offset+56, "preroll")
			maxBitrate, _ := binary.ReadLE[uint32](sr, offset+76, "max bitrate")

			// Play duration is in 100ns units and includes the preroll
			// buffering time (milliseconds).
			duration := float64(playDuration)/1e7 - float64(preroll)/1000
			if duration > 0 {
				rec.Duration = duration
			}
			if maxBitrate > 0 {
				rec.Bitrate = int(maxBitrate) / 1000
			}
			found = true

		case bytes.Equal(guid, streamPropertiesGUID) && size >= 54+16:
			streamType := make([]byte, 16)
			if err := sr.ReadAt(streamType, offset, "stream type"); err != nil {
				return err
			}
			if !bytes.Equal(streamType, audioMediaGUID) || rec.SampleRate > 0 {
				return nil
			}
			// Type-specific data is a WAVEFORMATEX structure.
			wf := offset + 54
			channels, _ := binary.ReadLE[uint16](sr, wf+2, "channel count")
			sampleRate, _ := binary.ReadLE[uint32](sr, wf+4, "sample rate")
			bits, _ := binary.ReadLE[uint16](sr, wf+14, "bits per sample")
			rec.Channels = int(channels)
			rec.SampleRate = int(sampleRate)
			rec.BitDepth = int(bits)
			found = true
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: no properties objects found", sr.Path())
	}
	return nil
}

// ExtractTags reads the content description and extended content
// description objects.
func (parser) ExtractTags(sr *binary.SafeReader, rec *types.Record) error {
	found := false
	err := walkObjects(sr, func(guid []byte, offset, size int64) error {
		switch {
		case bytes.Equal(guid, contentDescriptionGUID):
			data := make([]byte, size)
			if err := sr.ReadAt(data, offset, "content description"); err != nil {
				return err
			}
			applyContentDescription(data, rec)
			found = true

		case bytes.Equal(guid, extendedContentGUID):
			data := make([]byte, size)
			if err := sr.ReadAt(data, offset, "extended content description"); err != nil {
				return err
			}
			applyExtendedContent(data, rec)
			found = true
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: no content description objects", sr.Path())
	}
	return nil
}

// applyContentDescription decodes the five length-prefixed strings: title,
// author, copyright, description, rating.
func applyContentDescription(data []byte, rec *types.Record) {
	if len(data) < 10 {
		return
	}

	var lengths [5]int
	for i := range lengths {
		lengths[i] = int(data[i*2]) | int(data[i*2+1])<<8
	}

	pos := 10
	values := make([]string, 5)
	for i, l := range lengths {
		if pos+l > len(data) {
			return
		}
		values[i] = decodeString(data[pos : pos+l])
		pos += l
	}

	types.SetString(&rec.Title, values[0])
	types.SetString(&rec.Artist, values[1])
	types.SetString(&rec.Copyright, values[2])
	types.SetFirst(&rec.Comment, values[3])
}

// extendedFields maps WM/ descriptor names (uppercased) to record fields.
var extendedFields = map[string]func(*types.Record, string){
	"WM/ALBUMTITLE":  func(r *types.Record, v string) { types.SetString(&r.Album, v) },
	"WM/ALBUMARTIST": func(r *types.Record, v string) { types.SetString(&r.AlbumArtist, v) },
	"WM/GENRE":       func(r *types.Record, v string) { types.SetString(&r.Genre, v) },
	"WM/PUBLISHER":   func(r *types.Record, v string) { types.SetString(&r.Label, v) },
	"WM/CONDUCTOR":   func(r *types.Record, v string) { types.SetString(&r.Conductor, v) },
	"WM/SUBTITLE":    func(r *types.Record, v string) { types.SetString(&r.Subtitle, v) },
	"WM/MOOD":        func(r *types.Record, v string) { types.SetString(&r.Mood, v) },
	"WM/INITIALKEY":  func(r *types.Record, v string) { types.SetString(&r.MusicalKey, v) },
	"WM/ISRC":        func(r *types.Record, v string) { types.SetString(&r.ISRC, v) },
	"WM/BARCODE":     func(r *types.Record, v string) { types.SetString(&r.Barcode, v) },
	"WM/YEAR": func(r *types.Record, v string) {
		types.SetString(&r.ReleaseDate, v)
		if len(v) >= 4 {
			types.SetString(&r.Year, v[:4])
		}
	},
	"WM/TRACKNUMBER": func(r *types.Record, v string) {
		if n, total := parsing.NumberPair(v); n > 0 {
			r.TrackNumber = n
			types.SetTotal(&r.TrackTotal, total)
		}
	},
	"WM/PARTOFSET": func(r *types.Record, v string) {
		if n, total := parsing.NumberPair(v); n > 0 {
			r.DiscNumber = n
			types.SetTotal(&r.DiscTotal, total)
		}
	},
	"WM/BEATSPERMINUTE": func(r *types.Record, v string) {
		if n, _ := parsing.NumberPair(v); n > 0 {
			r.BPM = n
		}
	},
}

// applyExtendedContent decodes the descriptor list:
// count (2), then per descriptor name len (2) | name | value type (2) |
// value len (2) | value.
func applyExtendedContent(data []byte, rec *types.Record) {
	if len(data) < 2 {
		return
	}
	count := int(data[0]) | int(data[1])<<8
	pos := 2

	for i := 0; i < count && pos+2 <= len(data); i++ {
		nameLen := int(data[pos]) | int(data[pos+1])<<8
		pos += 2
		if pos+nameLen+4 > len(data) {
			return
		}
		name := strings.ToUpper(decodeString(data[pos : pos+nameLen]))
		pos += nameLen

		valueType := int(data[pos]) | int(data[pos+1])<<8
		valueLen := int(data[pos+2]) | int(data[pos+3])<<8
		pos += 4
		if pos+valueLen > len(data) {
			return
		}
		value := data[pos : pos+valueLen]
		pos += valueLen

		set, ok := extendedFields[name]
		if !ok {
			continue
		}

		switch valueType {
		case 0: // unicode string
			set(rec, decodeString(value))
		case 3, 5: // dword / word
			n := 0
			for j := len(value) - 1; j >= 0; j-- {
				n = n<<8 | int(value[j])
			}
			set(rec, fmt.Sprintf("%d", n))
		}
	}
}

func init() {
	registry.Register(types.ContainerASF, parser{})
}
