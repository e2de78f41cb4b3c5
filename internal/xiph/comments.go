// Package xiph implements the comment-map dialect extractor shared by FLAC
// and the Ogg codec family (Vorbis, Opus, Speex, Ogg FLAC): a flat,
// case-insensitive key/value block plus an independent picture list.
package xiph

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/veldran/tagnorm/internal/parsing"
	"github.com/veldran/tagnorm/internal/types"
)

// Map is a comment block keyed by uppercase field name. Values keep the
// block's own order, which decides first-non-empty-wins fields.
type Map map[string][]string

// Get returns the first non-empty value for an uppercase key.
func (m Map) Get(key string) string {
	for _, v := range m[key] {
		if v != "" {
			return v
		}
	}
	return ""
}

// GetAny returns the first non-empty value among the alias keys, consulted
// in the given precedence order.
func (m Map) GetAny(aliases ...string) string {
	for _, key := range aliases {
		if v := m.Get(key); v != "" {
			return v
		}
	}
	return ""
}

// ParseCommentBlock decodes a Vorbis comment block: a little-endian
// length-prefixed vendor string followed by length-prefixed "KEY=VALUE"
// entries. METADATA_BLOCK_PICTURE entries are decoded into the returned
// picture list instead of the map.
func ParseCommentBlock(data []byte) (Map, []types.Picture, error) {
	if len(data) < 8 {
		return nil, nil, fmt.Errorf("comment block too short: %d bytes", len(data))
	}

	vendorLen := int(binary.LittleEndian.Uint32(data[0:4]))
	pos := 4 + vendorLen
	if pos+4 > len(data) {
		return nil, nil, fmt.Errorf("vendor string exceeds block")
	}

	count := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4

	m := make(Map)
	var pictures []types.Picture

	for i := 0; i < count && pos+4 <= len(data); i++ {
		entryLen := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if entryLen < 0 || pos+entryLen > len(data) {
			break
		}
		entry := string(data[pos : pos+entryLen])
		pos += entryLen

		key, value, found := strings.Cut(entry, "=")
		if !found {
			continue
		}
		key = strings.ToUpper(key)

		if key == "METADATA_BLOCK_PICTURE" {
			if pic, err := decodePictureComment(value); err == nil {
				pictures = append(pictures, pic)
			}
			continue
		}
		m[key] = append(m[key], value)
	}

	return m, pictures, nil
}

// decodePictureComment decodes a base64 METADATA_BLOCK_PICTURE entry, which
// wraps the same structure as a FLAC picture block.
func decodePictureComment(value string) (types.Picture, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return types.Picture{}, fmt.Errorf("decode picture comment: %w", err)
	}
	return ParsePictureBlock(raw)
}

// commentFields lists, per canonical field, the alias keys consulted in
// fixed precedence order.
var commentFields = []struct {
	set     func(*types.Record, string)
	aliases []string
}{
	{func(r *types.Record, v string) { types.SetString(&r.Title, v) }, []string{"TITLE"}},
	{func(r *types.Record, v string) { types.SetString(&r.Artist, v) }, []string{"ARTIST"}},
	{func(r *types.Record, v string) { types.SetString(&r.Album, v) }, []string{"ALBUM"}},
	{func(r *types.Record, v string) { types.SetString(&r.AlbumArtist, v) }, []string{"ALBUMARTIST", "ALBUM ARTIST"}},
	{func(r *types.Record, v string) { types.SetString(&r.Genre, v) }, []string{"GENRE"}},
	{func(r *types.Record, v string) { types.SetFirst(&r.Comment, v) }, []string{"COMMENT", "DESCRIPTION"}},
	{func(r *types.Record, v string) { types.SetFirst(&r.Lyrics, v) }, []string{"LYRICS", "UNSYNCEDLYRICS"}},

	{func(r *types.Record, v string) {
		types.SetString(&r.ReleaseDate, v)
		if len(v) >= 4 {
			types.SetString(&r.Year, v[:4])
		}
	}, []string{"DATE"}},
	{func(r *types.Record, v string) { types.SetString(&r.OriginalReleaseDate, v) }, []string{"ORIGINALDATE", "ORIGINALYEAR"}},

	{func(r *types.Record, v string) {
		if n, _ := parsing.NumberPair(v); n > 0 {
			r.BPM = n
		}
	}, []string{"BPM"}},

	{func(r *types.Record, v string) { types.SetString(&r.SortTitle, v) }, []string{"TITLESORT"}},
	{func(r *types.Record, v string) { types.SetString(&r.SortArtist, v) }, []string{"ARTISTSORT"}},
	{func(r *types.Record, v string) { types.SetString(&r.SortAlbum, v) }, []string{"ALBUMSORT"}},
	{func(r *types.Record, v string) { types.SetString(&r.SortAlbumArtist, v) }, []string{"ALBUMARTISTSORT"}},
	{func(r *types.Record, v string) { types.SetString(&r.SortComposer, v) }, []string{"COMPOSERSORT"}},

	{func(r *types.Record, v string) { types.SetString(&r.Conductor, v) }, []string{"CONDUCTOR"}},
	{func(r *types.Record, v string) { types.SetString(&r.Remixer, v) }, []string{"REMIXER"}},
	{func(r *types.Record, v string) { types.SetString(&r.Producer, v) }, []string{"PRODUCER"}},
	{func(r *types.Record, v string) { types.SetString(&r.Engineer, v) }, []string{"ENGINEER"}},
	{func(r *types.Record, v string) { types.SetString(&r.Lyricist, v) }, []string{"LYRICIST"}},

	{func(r *types.Record, v string) { types.SetString(&r.Subtitle, v) }, []string{"SUBTITLE"}},
	{func(r *types.Record, v string) { types.SetString(&r.Grouping, v) }, []string{"GROUPING"}},
	{func(r *types.Record, v string) { types.SetString(&r.Movement, v) }, []string{"MOVEMENTNAME", "MOVEMENT"}},
	{func(r *types.Record, v string) { types.SetString(&r.Mood, v) }, []string{"MOOD"}},
	{func(r *types.Record, v string) { types.SetString(&r.Language, v) }, []string{"LANGUAGE"}},
	{func(r *types.Record, v string) { types.SetString(&r.MusicalKey, v) }, []string{"INITIALKEY", "KEY"}},

	{func(r *types.Record, v string) { types.SetString(&r.Copyright, v) }, []string{"COPYRIGHT"}},
	{func(r *types.Record, v string) { types.SetString(&r.Label, v) }, []string{"LABEL", "ORGANIZATION"}},
	{func(r *types.Record, v string) { types.SetString(&r.ISRC, v) }, []string{"ISRC"}},
	{func(r *types.Record, v string) { types.SetString(&r.EncodedBy, v) }, []string{"ENCODEDBY", "ENCODED-BY"}},
	{func(r *types.Record, v string) { types.SetString(&r.EncoderSettings, v) }, []string{"ENCODERSETTINGS", "ENCODER"}},

	{func(r *types.Record, v string) { types.SetString(&r.MusicBrainzArtistID, v) }, []string{"MUSICBRAINZ_ARTISTID"}},
	{func(r *types.Record, v string) { types.SetString(&r.MusicBrainzAlbumID, v) }, []string{"MUSICBRAINZ_ALBUMID"}},
	{func(r *types.Record, v string) { types.SetString(&r.MusicBrainzTrackID, v) }, []string{"MUSICBRAINZ_TRACKID", "MUSICBRAINZ_RELEASETRACKID"}},
	{func(r *types.Record, v string) { types.SetString(&r.MusicBrainzReleaseGroupID, v) }, []string{"MUSICBRAINZ_RELEASEGROUPID"}},

	{func(r *types.Record, v string) { types.SetString(&r.ReleaseType, v) }, []string{"RELEASETYPE", "MUSICBRAINZ_ALBUMTYPE"}},
	{func(r *types.Record, v string) { types.SetString(&r.Barcode, v) }, []string{"BARCODE", "UPC", "EAN"}},
	{func(r *types.Record, v string) { types.SetString(&r.CatalogNumber, v) }, []string{"CATALOGNUMBER", "CATALOG"}},
	{func(r *types.Record, v string) { types.SetString(&r.ReleaseCountry, v) }, []string{"RELEASECOUNTRY", "MUSICBRAINZ_ALBUMRELEASECOUNTRY"}},
	{func(r *types.Record, v string) { types.SetString(&r.ArtistType, v) }, []string{"ARTISTTYPE", "MUSICBRAINZ_ARTISTTYPE"}},

	{func(r *types.Record, v string) { types.SetString(&r.ReplayGainTrack, v) }, []string{"REPLAYGAIN_TRACK_GAIN"}},
	{func(r *types.Record, v string) { types.SetString(&r.ReplayGainAlbum, v) }, []string{"REPLAYGAIN_ALBUM_GAIN"}},
}

// Apply resolves the comment map onto the record.
func Apply(m Map, rec *types.Record) {
	// Track and disc pairs first: the combined value may carry a total,
	// and a separate total tag overrides it only when greater than zero.
	if v := m.Get("TRACKNUMBER"); v != "" {
		n, total := parsing.NumberPair(v)
		if n > 0 {
			rec.TrackNumber = n
		}
		types.SetTotal(&rec.TrackTotal, total)
	}
	if v := m.GetAny("TRACKTOTAL", "TOTALTRACKS"); v != "" {
		n, _ := parsing.NumberPair(v)
		types.SetTotal(&rec.TrackTotal, n)
	}
	if v := m.Get("DISCNUMBER"); v != "" {
		n, total := parsing.NumberPair(v)
		if n > 0 {
			rec.DiscNumber = n
		}
		types.SetTotal(&rec.DiscTotal, total)
	}
	if v := m.GetAny("DISCTOTAL", "TOTALDISCS"); v != "" {
		n, _ := parsing.NumberPair(v)
		types.SetTotal(&rec.DiscTotal, n)
	}

	for _, field := range commentFields {
		if v := m.GetAny(field.aliases...); v != "" {
			field.set(rec, v)
		}
	}

	// Compilation is true for "1" or a case-insensitive "TRUE".
	if v := m.Get("COMPILATION"); v == "1" || strings.EqualFold(v, "TRUE") {
		rec.Compilation = true
	}
}
