// Package ape implements the item-list dialect extractor (APEv2 tags) and
// stream property readers for the containers that conventionally carry it:
// Monkey's Audio, WavPack and Musepack.
package ape

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/parsing"
	"github.com/veldran/tagnorm/internal/types"
)

const (
	tagPreamble   = "APETAGEX"
	tagFooterSize = 32
	id3v1Size     = 128

	itemText   = 0
	itemBinary = 1
)

// item is one decoded tag entry. Text items may carry several NUL-separated
// values; binary items keep the raw blob.
type item struct {
	kind   int
	values []string
	blob   []byte
}

// tag is the decoded item list, keyed by uppercase item key. order keeps
// the keys in on-disk item order; picture selection depends on it.
type tag struct {
	items map[string]*item
	order []string
}

func (t *tag) get(aliases ...string) string {
	for _, key := range aliases {
		it, ok := t.items[key]
		if !ok || it.kind != itemText {
			continue
		}
		for _, v := range it.values {
			if v != "" {
				return v
			}
		}
	}
	return ""
}

// readTag locates the APETAGEX footer (optionally behind a trailing ID3v1
// tag) and decodes the item list.
func readTag(sr *binary.SafeReader) (*tag, error) {
	footerOffset, err := findFooter(sr)
	if err != nil {
		return nil, err
	}

	tagSize, err := binary.ReadLE[uint32](sr, footerOffset+12, "tag size")
	if err != nil {
		return nil, err
	}
	itemCount, err := binary.ReadLE[uint32](sr, footerOffset+16, "item count")
	if err != nil {
		return nil, err
	}
	if int64(tagSize) < tagFooterSize || int64(tagSize) > footerOffset+tagFooterSize {
		return nil, fmt.Errorf("%s: implausible tag size %d", sr.Path(), tagSize)
	}

	// tagSize covers the items plus the footer, but not an optional header.
	itemsOffset := footerOffset + tagFooterSize - int64(tagSize)
	itemsLen := int64(tagSize) - tagFooterSize

	data := make([]byte, itemsLen)
	if err := sr.ReadAt(data, itemsOffset, "tag items"); err != nil {
		return nil, err
	}

	return parseItems(data, int(itemCount)), nil
}

// findFooter checks the end of file, then just before a trailing ID3v1 tag.
func findFooter(sr *binary.SafeReader) (int64, error) {
	preamble := make([]byte, 8)

	if off := sr.Size() - tagFooterSize; off >= 0 {
		if err := sr.ReadAt(preamble, off, "tag footer"); err == nil && string(preamble) == tagPreamble {
			return off, nil
		}
	}
	if off := sr.Size() - id3v1Size - tagFooterSize; off >= 0 {
		if err := sr.ReadAt(preamble, off, "tag footer"); err == nil && string(preamble) == tagPreamble {
			return off, nil
		}
	}
	return 0, fmt.Errorf("%s: no item-list tag found", sr.Path())
}

// parseItems decodes up to count length-prefixed items:
// value size (4 LE) | flags (4 LE) | NUL-terminated key | value bytes.
func parseItems(data []byte, count int) *tag {
	t := &tag{items: make(map[string]*item)}

	pos := 0
	for i := 0; i < count && pos+8 < len(data); i++ {
		valueSize := int(uint32(data[pos]) | uint32(data[pos+1])<<8 |
			uint32(data[pos+2])<<16 | uint32(data[pos+3])<<24)
		flags := uint32(data[pos+4]) | uint32(data[pos+5])<<8 |
			uint32(data[pos+6])<<16 | uint32(data[pos+7])<<24
		pos += 8

		keyEnd := bytes.IndexByte(data[pos:], 0)
		if keyEnd < 0 {
			break
		}
		key := strings.ToUpper(string(data[pos : pos+keyEnd]))
		pos += keyEnd + 1

		if valueSize < 0 || pos+valueSize > len(data) {
			break
		}
		value := data[pos : pos+valueSize]
		pos += valueSize

		it := &item{kind: int(flags >> 1 & 0x03)}
		if it.kind == itemBinary {
			it.blob = value
		} else {
			it.values = strings.Split(string(value), "\x00")
		}
		if _, seen := t.items[key]; !seen {
			t.items[key] = it
			t.order = append(t.order, key)
		}
	}
	return t
}

// itemFields lists, per canonical field, the item keys consulted in fixed
// precedence order; spaced and concatenated variants are both accepted.
var itemFields = []struct {
	set     func(*types.Record, string)
	aliases []string
}{
	{func(r *types.Record, v string) { types.SetString(&r.Title, v) }, []string{"TITLE"}},
	{func(r *types.Record, v string) { types.SetString(&r.Artist, v) }, []string{"ARTIST"}},
	{func(r *types.Record, v string) { types.SetString(&r.Album, v) }, []string{"ALBUM"}},
	{func(r *types.Record, v string) { types.SetString(&r.AlbumArtist, v) }, []string{"ALBUM ARTIST", "ALBUMARTIST"}},
	{func(r *types.Record, v string) { types.SetString(&r.Genre, v) }, []string{"GENRE"}},
	{func(r *types.Record, v string) { types.SetFirst(&r.Comment, v) }, []string{"COMMENT"}},
	{func(r *types.Record, v string) { types.SetFirst(&r.Lyrics, v) }, []string{"LYRICS"}},
	{func(r *types.Record, v string) {
		types.SetString(&r.ReleaseDate, v)
		if len(v) >= 4 {
			types.SetString(&r.Year, v[:4])
		}
	}, []string{"YEAR"}},

	{func(r *types.Record, v string) {
		if n, _ := parsing.NumberPair(v); n > 0 {
			r.BPM = n
		}
	}, []string{"BPM"}},

	{func(r *types.Record, v string) { types.SetString(&r.Conductor, v) }, []string{"CONDUCTOR"}},
	{func(r *types.Record, v string) { types.SetString(&r.Copyright, v) }, []string{"COPYRIGHT"}},
	{func(r *types.Record, v string) { types.SetString(&r.ISRC, v) }, []string{"ISRC"}},
	{func(r *types.Record, v string) { types.SetString(&r.Label, v) }, []string{"LABEL", "PUBLISHER"}},
	{func(r *types.Record, v string) { types.SetString(&r.EncodedBy, v) }, []string{"ENCODEDBY", "ENCODED BY"}},

	{func(r *types.Record, v string) { types.SetString(&r.ReleaseType, v) }, []string{"RELEASETYPE", "MUSICBRAINZ_ALBUMTYPE"}},
	{func(r *types.Record, v string) { types.SetString(&r.Barcode, v) }, []string{"BARCODE", "UPC"}},
	{func(r *types.Record, v string) { types.SetString(&r.CatalogNumber, v) }, []string{"CATALOGNUMBER", "CATALOG NUMBER", "CATALOG"}},
	{func(r *types.Record, v string) { types.SetString(&r.ReleaseCountry, v) }, []string{"RELEASECOUNTRY", "RELEASE COUNTRY"}},

	{func(r *types.Record, v string) { types.SetString(&r.ReplayGainTrack, v) }, []string{"REPLAYGAIN_TRACK_GAIN"}},
	{func(r *types.Record, v string) { types.SetString(&r.ReplayGainAlbum, v) }, []string{"REPLAYGAIN_ALBUM_GAIN"}},
}

// apply resolves the item list onto the record.
func (t *tag) apply(rec *types.Record) {
	if v := t.get("TRACK", "TRACKNUMBER"); v != "" {
		n, total := parsing.NumberPair(v)
		if n > 0 {
			rec.TrackNumber = n
		}
		types.SetTotal(&rec.TrackTotal, total)
	}
	if v := t.get("TRACKTOTAL", "TOTALTRACKS"); v != "" {
		n, _ := parsing.NumberPair(v)
		types.SetTotal(&rec.TrackTotal, n)
	}
	if v := t.get("DISC", "DISCNUMBER"); v != "" {
		n, total := parsing.NumberPair(v)
		if n > 0 {
			rec.DiscNumber = n
		}
		types.SetTotal(&rec.DiscTotal, total)
	}
	if v := t.get("DISCTOTAL", "TOTALDISCS"); v != "" {
		n, _ := parsing.NumberPair(v)
		types.SetTotal(&rec.DiscTotal, n)
	}

	for _, field := range itemFields {
		if v := t.get(field.aliases...); v != "" {
			field.set(rec, v)
		}
	}

	if v := t.get("COMPILATION"); v == "1" || strings.EqualFold(v, "TRUE") {
		rec.Compilation = true
	}

	if data, mime, ok := parsing.SelectPicture(t.pictures()); ok {
		rec.SetArtwork(data, mime)
	}
}

// pictures collects cover-art items in on-disk item order. Each blob holds
// a free-text description, one NUL separator, then the raw image; a blob
// with no NUL yields nothing.
func (t *tag) pictures() []types.Picture {
	var pics []types.Picture
	for _, key := range t.order {
		it := t.items[key]
		if it.kind != itemBinary || !strings.HasPrefix(key, "COVER ART") {
			continue
		}
		desc, image, found := bytes.Cut(it.blob, []byte{0})
		if !found || len(image) == 0 {
			continue
		}

		picType := types.PictureOther
		if strings.Contains(key, "FRONT") {
			picType = types.PictureFrontCover
		} else if strings.Contains(key, "BACK") {
			picType = types.PictureBackCover
		}
		pics = append(pics, types.Picture{
			Type: picType,
			MIME: coverMIME(string(desc), image),
			Data: image,
		})
	}
	return pics
}

// coverMIME guesses the image MIME type from the description's file
// extension, falling back to magic bytes.
func coverMIME(desc string, image []byte) string {
	switch {
	case strings.HasSuffix(strings.ToLower(desc), ".png"):
		return "image/png"
	case strings.HasSuffix(strings.ToLower(desc), ".gif"):
		return "image/gif"
	case bytes.HasPrefix(image, []byte("\x89PNG")):
		return "image/png"
	case bytes.HasPrefix(image, []byte("GIF8")):
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
