package mp4

import (
	"strings"

	"github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/types"
)

const (
	mimeTypeJPEG = "image/jpeg"
	mimeTypePNG  = "image/png"
	mimeTypeBMP  = "image/bmp"
	mimeTypeGIF  = "image/gif"
)

// stringAtomFields maps text item atoms to canonical record fields.
// In MP4 the © prefix is byte 0xA9.
var stringAtomFields = map[string]func(*types.Record, string){
	"\xA9nam": func(r *types.Record, v string) { types.SetString(&r.Title, v) },
	"\xA9ART": func(r *types.Record, v string) { types.SetString(&r.Artist, v) },
	"\xA9alb": func(r *types.Record, v string) { types.SetString(&r.Album, v) },
	"\xA9gen": func(r *types.Record, v string) { types.SetString(&r.Genre, v) },
	"\xA9cmt": func(r *types.Record, v string) { types.SetFirst(&r.Comment, v) },
	"aART":    func(r *types.Record, v string) { types.SetString(&r.AlbumArtist, v) },
	"sonm":    func(r *types.Record, v string) { types.SetString(&r.SortTitle, v) },
	"soar":    func(r *types.Record, v string) { types.SetString(&r.SortArtist, v) },
	"soal":    func(r *types.Record, v string) { types.SetString(&r.SortAlbum, v) },
	"soaa":    func(r *types.Record, v string) { types.SetString(&r.SortAlbumArtist, v) },
	"soco":    func(r *types.Record, v string) { types.SetString(&r.SortComposer, v) },
	"\xA9grp": func(r *types.Record, v string) { types.SetString(&r.Grouping, v) },
	"\xA9mvn": func(r *types.Record, v string) { types.SetString(&r.Movement, v) },
	"cprt":    func(r *types.Record, v string) { types.SetString(&r.Copyright, v) },
	"\xA9lyr": func(r *types.Record, v string) { types.SetFirst(&r.Lyrics, v) },
	"\xA9enc": func(r *types.Record, v string) { types.SetString(&r.EncodedBy, v) },
	"\xA9too": func(r *types.Record, v string) { types.SetString(&r.EncoderSettings, v) },
	"\xA9day": func(r *types.Record, v string) {
		types.SetString(&r.ReleaseDate, v)
		if len(v) >= 4 {
			types.SetString(&r.Year, v[:4])
		}
	},
}

// freeformFields lists, per canonical field, the freeform atom names
// consulted in fixed priority order. Names are matched case-insensitively.
var freeformFields = []struct {
	set     func(*types.Record, string)
	aliases []string
}{
	{func(r *types.Record, v string) { types.SetString(&r.ReleaseType, v) },
		[]string{"MUSICBRAINZ ALBUM TYPE", "RELEASETYPE"}},
	{func(r *types.Record, v string) { types.SetString(&r.Barcode, v) },
		[]string{"BARCODE", "UPC", "EAN"}},
	{func(r *types.Record, v string) { types.SetString(&r.CatalogNumber, v) },
		[]string{"CATALOGNUMBER", "CATALOG"}},
	{func(r *types.Record, v string) { types.SetString(&r.ReleaseCountry, v) },
		[]string{"MUSICBRAINZ ALBUM RELEASE COUNTRY", "RELEASECOUNTRY"}},
	{func(r *types.Record, v string) { types.SetString(&r.MusicBrainzArtistID, v) },
		[]string{"MUSICBRAINZ ARTIST ID"}},
	{func(r *types.Record, v string) { types.SetString(&r.MusicBrainzAlbumID, v) },
		[]string{"MUSICBRAINZ ALBUM ID"}},
	{func(r *types.Record, v string) { types.SetString(&r.MusicBrainzTrackID, v) },
		[]string{"MUSICBRAINZ TRACK ID", "MUSICBRAINZ RELEASE TRACK ID"}},
	{func(r *types.Record, v string) { types.SetString(&r.MusicBrainzReleaseGroupID, v) },
		[]string{"MUSICBRAINZ RELEASE GROUP ID"}},
}

// extractIlst walks the item list once and layers items onto the record.
func extractIlst(sr *binary.SafeReader, ilst *Atom, rec *types.Record) error {
	freeform := make(map[string]string)

	offset := ilst.DataOffset()
	end := ilst.End()

	for offset < end {
		item, err := readAtomHeader(sr, offset)
		if err != nil {
			return err
		}

		switch item.Type {
		case "trkn":
			// Integer-pair atoms are decomposed directly; no string parsing.
			if n, total, err := parseIntPair(sr, item); err == nil {
				if n > 0 {
					rec.TrackNumber = n
				}
				types.SetTotal(&rec.TrackTotal, total)
			}
		case "disk":
			if n, total, err := parseIntPair(sr, item); err == nil {
				if n > 0 {
					rec.DiscNumber = n
				}
				types.SetTotal(&rec.DiscTotal, total)
			}
		case "tmpo":
			if bpm, err := parseIntItem(sr, item); err == nil && bpm > 0 {
				rec.BPM = bpm
			}
		case "cpil":
			if v, err := parseIntItem(sr, item); err == nil && v != 0 {
				rec.Compilation = true
			}
		case "covr":
			extractCover(sr, item, rec)
		case "----":
			if name, value, ok := parseFreeform(sr, item); ok {
				key := strings.ToUpper(name)
				if _, seen := freeform[key]; !seen {
					freeform[key] = value
				}
			}
		default:
			if set, ok := stringAtomFields[item.Type]; ok {
				if value, err := parseStringItem(sr, item); err == nil {
					set(rec, value)
				}
			}
		}

		if item.Size == 0 {
			break
		}
		offset += int64(item.Size)
	}

	// Resolve freeform atoms in fixed per-field priority order.
	for _, field := range freeformFields {
		for _, alias := range field.aliases {
			if v, ok := freeform[alias]; ok && v != "" {
				field.set(rec, v)
				break
			}
		}
	}

	return nil
}

// parseStringItem reads the string value from an item's data atom.
func parseStringItem(sr *binary.SafeReader, item *Atom) (string, error) {
	data, err := findAtom(sr, item.DataOffset(), item.End(), "data")
	if err != nil {
		return "", err
	}

	// Skip version (1) + flags (3) + reserved (4).
	valueOffset := data.DataOffset() + 8
	valueSize := int64(data.DataSize()) - 8
	if valueSize <= 0 {
		return "", nil
	}

	buf := make([]byte, valueSize)
	if err := sr.ReadAt(buf, valueOffset, "item value"); err != nil {
		return "", err
	}

	value := strings.TrimRight(string(buf), "\x00")
	return strings.TrimSpace(value), nil
}

// parseIntPair reads a track/disc pair item:
// [2 reserved][2 number][2 total][...].
func parseIntPair(sr *binary.SafeReader, item *Atom) (number, total int, err error) {
	data, err := findAtom(sr, item.DataOffset(), item.End(), "data")
	if err != nil {
		return 0, 0, err
	}

	offset := data.DataOffset() + 8 + 2 // version+flags, reserved, pair padding
	n, err := binary.Read[uint16](sr, offset, "pair number")
	if err != nil {
		return 0, 0, err
	}
	t, err := binary.Read[uint16](sr, offset+2, "pair total")
	if err != nil {
		return int(n), 0, nil //nolint:nilerr // a lone number is still usable
	}
	return int(n), int(t), nil
}

// parseIntItem reads a small big-endian integer item (tmpo, cpil).
func parseIntItem(sr *binary.SafeReader, item *Atom) (int, error) {
	data, err := findAtom(sr, item.DataOffset(), item.End(), "data")
	if err != nil {
		return 0, err
	}

	offset := data.DataOffset() + 8
	size := int64(data.DataSize()) - 8
	if size <= 0 {
		return 0, nil
	}

	buf := make([]byte, size)
	if err := sr.ReadAt(buf, offset, "integer item"); err != nil {
		return 0, err
	}

	v := 0
	for _, b := range buf {
		v = v<<8 | int(b)
	}
	return v, nil
}

// parseFreeform decodes a "----" vendor atom into its name and value.
// Structure: mean atom (reverse-domain namespace), name atom, data atom.
func parseFreeform(sr *binary.SafeReader, item *Atom) (name, value string, ok bool) {
	nameAtom, err := findAtom(sr, item.DataOffset(), item.End(), "name")
	if err != nil {
		return "", "", false
	}

	nameSize := int64(nameAtom.DataSize()) - 4 // skip version+flags
	if nameSize <= 0 {
		return "", "", false
	}
	nameBuf := make([]byte, nameSize)
	if err := sr.ReadAt(nameBuf, nameAtom.DataOffset()+4, "freeform name"); err != nil {
		return "", "", false
	}

	value, err = parseStringItem(sr, item)
	if err != nil {
		return "", "", false
	}
	return string(nameBuf), value, true
}

// extractCover takes the first entry of the cover-art item's data list.
func extractCover(sr *binary.SafeReader, covr *Atom, rec *types.Record) {
	offset := covr.DataOffset()
	end := covr.End()

	for offset < end {
		data, err := readAtomHeader(sr, offset)
		if err != nil {
			return
		}

		if data.Type == "data" {
			versionFlags, err := binary.Read[uint32](sr, data.DataOffset(), "data version+flags")
			if err != nil {
				return
			}
			imageSize := int64(data.DataSize()) - 8
			if imageSize <= 0 {
				return
			}
			image := make([]byte, imageSize)
			if err := sr.ReadAt(image, data.DataOffset()+8, "cover image data"); err != nil {
				return
			}
			rec.SetArtwork(image, coverFormatMIME(byte(versionFlags&0xFF)))
			return
		}

		if data.Size == 0 {
			return
		}
		offset += int64(data.Size)
	}
}

// coverFormatMIME maps the cover item's declared image format to a MIME
// string; unrecognized formats default to JPEG.
func coverFormatMIME(format byte) string {
	switch format {
	case 0x0D:
		return mimeTypeJPEG
	case 0x0E:
		return mimeTypePNG
	case 0x1B:
		return mimeTypeBMP
	case 0x0C:
		return mimeTypeGIF
	default:
		return mimeTypeJPEG
	}
}
