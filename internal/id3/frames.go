// Package id3 implements the frame-based dialect extractor: ID3v2 tags as
// found in MPEG audio and embedded in RIFF, AIFF, TrueAudio and DSF
// containers.
package id3

import (
	"fmt"
	"strings"

	id3v2 "github.com/bogem/id3v2/v2"

	"github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/parsing"
	"github.com/veldran/tagnorm/internal/types"
)

// textFrameFields maps 4-character text frame identifiers to canonical
// record fields. Resolved once at startup instead of per-call branching.
var textFrameFields = map[string]func(*types.Record, string){
	"TIT2": func(r *types.Record, v string) { types.SetString(&r.Title, v) },
	"TPE1": func(r *types.Record, v string) { types.SetString(&r.Artist, v) },
	"TALB": func(r *types.Record, v string) { types.SetString(&r.Album, v) },
	"TPE2": func(r *types.Record, v string) { types.SetString(&r.AlbumArtist, v) },
	"TCON": func(r *types.Record, v string) { types.SetString(&r.Genre, v) },

	"TSOT": func(r *types.Record, v string) { types.SetString(&r.SortTitle, v) },
	"TSOP": func(r *types.Record, v string) { types.SetString(&r.SortArtist, v) },
	"TSOA": func(r *types.Record, v string) { types.SetString(&r.SortAlbum, v) },
	"TSO2": func(r *types.Record, v string) { types.SetString(&r.SortAlbumArtist, v) },
	"TSOC": func(r *types.Record, v string) { types.SetString(&r.SortComposer, v) },

	"TPE3": func(r *types.Record, v string) { types.SetString(&r.Conductor, v) },
	"TPE4": func(r *types.Record, v string) { types.SetString(&r.Remixer, v) },
	"TEXT": func(r *types.Record, v string) { types.SetString(&r.Lyricist, v) },
	"TPUB": func(r *types.Record, v string) { types.SetString(&r.Label, v) },
	"TENC": func(r *types.Record, v string) { types.SetString(&r.EncodedBy, v) },
	"TSSE": func(r *types.Record, v string) { types.SetString(&r.EncoderSettings, v) },
	"TSRC": func(r *types.Record, v string) { types.SetString(&r.ISRC, v) },
	"TCOP": func(r *types.Record, v string) { types.SetString(&r.Copyright, v) },
	"TIT3": func(r *types.Record, v string) { types.SetString(&r.Subtitle, v) },
	"TIT1": func(r *types.Record, v string) { types.SetString(&r.Grouping, v) },
	"MVNM": func(r *types.Record, v string) { types.SetString(&r.Movement, v) },
	"TMOO": func(r *types.Record, v string) { types.SetString(&r.Mood, v) },
	"TLAN": func(r *types.Record, v string) { types.SetString(&r.Language, v) },
	"TKEY": func(r *types.Record, v string) { types.SetString(&r.MusicalKey, v) },

	"TYER": func(r *types.Record, v string) { types.SetString(&r.Year, v) },
	"TDRC": func(r *types.Record, v string) {
		types.SetString(&r.ReleaseDate, v)
		if len(v) >= 4 {
			types.SetString(&r.Year, v[:4])
		}
	},
	"TDRL": func(r *types.Record, v string) { types.SetString(&r.ReleaseDate, v) },
	"TDOR": func(r *types.Record, v string) { types.SetString(&r.OriginalReleaseDate, v) },
	"TORY": func(r *types.Record, v string) { types.SetString(&r.OriginalReleaseDate, v) },

	"TRCK": func(r *types.Record, v string) {
		n, total := parsing.NumberPair(v)
		if n > 0 {
			r.TrackNumber = n
		}
		types.SetTotal(&r.TrackTotal, total)
	},
	"TPOS": func(r *types.Record, v string) {
		n, total := parsing.NumberPair(v)
		if n > 0 {
			r.DiscNumber = n
		}
		types.SetTotal(&r.DiscTotal, total)
	},
	"TBPM": func(r *types.Record, v string) {
		if n, _ := parsing.NumberPair(v); n > 0 {
			r.BPM = n
		}
	},
	// The compilation flag is set only by the literal "1".
	"TCMP": func(r *types.Record, v string) {
		if v == "1" {
			r.Compilation = true
		}
	},
}

// userTextFields maps uppercased TXXX descriptions to canonical fields.
var userTextFields = map[string]func(*types.Record, string){
	"RELEASETYPE":            func(r *types.Record, v string) { types.SetString(&r.ReleaseType, v) },
	"MUSICBRAINZ ALBUM TYPE": func(r *types.Record, v string) { types.SetString(&r.ReleaseType, v) },

	"BARCODE": func(r *types.Record, v string) { types.SetString(&r.Barcode, v) },
	"UPC":     func(r *types.Record, v string) { types.SetString(&r.Barcode, v) },
	"EAN":     func(r *types.Record, v string) { types.SetString(&r.Barcode, v) },

	"CATALOGNUMBER": func(r *types.Record, v string) { types.SetString(&r.CatalogNumber, v) },
	"CATALOG":       func(r *types.Record, v string) { types.SetString(&r.CatalogNumber, v) },

	"RELEASECOUNTRY":                       func(r *types.Record, v string) { types.SetString(&r.ReleaseCountry, v) },
	"MUSICBRAINZ ALBUM RELEASE COUNTRY":    func(r *types.Record, v string) { types.SetString(&r.ReleaseCountry, v) },
	"ARTISTTYPE":                           func(r *types.Record, v string) { types.SetString(&r.ArtistType, v) },
	"MUSICBRAINZ ARTIST TYPE":              func(r *types.Record, v string) { types.SetString(&r.ArtistType, v) },
	"MUSICBRAINZ ARTIST ID":                func(r *types.Record, v string) { types.SetString(&r.MusicBrainzArtistID, v) },
	"MUSICBRAINZ ALBUM ID":                 func(r *types.Record, v string) { types.SetString(&r.MusicBrainzAlbumID, v) },
	"MUSICBRAINZ TRACK ID":                 func(r *types.Record, v string) { types.SetString(&r.MusicBrainzTrackID, v) },
	"MUSICBRAINZ RELEASE TRACK ID":         func(r *types.Record, v string) { types.SetString(&r.MusicBrainzTrackID, v) },
	"MUSICBRAINZ RELEASE GROUP ID":         func(r *types.Record, v string) { types.SetString(&r.MusicBrainzReleaseGroupID, v) },
	"REPLAYGAIN_TRACK_GAIN":                func(r *types.Record, v string) { types.SetString(&r.ReplayGainTrack, v) },
	"REPLAYGAIN_ALBUM_GAIN":                func(r *types.Record, v string) { types.SetString(&r.ReplayGainAlbum, v) },
}

// ExtractFrames parses an ID3v2 tag starting at offset and maps its frames
// onto the record. limit bounds the read; pass 0 to read to end of file.
func ExtractFrames(sr *binary.SafeReader, offset, limit int64, rec *types.Record) error {
	if limit <= 0 {
		limit = sr.Size() - offset
	}
	tag, err := id3v2.ParseReader(sr.Section(offset, limit), id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("parse ID3v2 tag: %w", err)
	}
	if tag.Count() == 0 {
		return fmt.Errorf("no ID3v2 frames found")
	}
	applyFrames(tag, rec)
	return nil
}

// applyFrames walks the tag's frame list once and classifies each frame.
func applyFrames(tag *id3v2.Tag, rec *types.Record) {
	for id, frames := range tag.AllFrames() {
		switch {
		case id == "TXXX":
			applyUserText(frames, rec)
		case id == "COMM":
			applyComments(frames, rec)
		case id == "USLT":
			applyLyrics(frames, rec)
		case id == "APIC":
			applyPictures(frames, rec)
		case strings.HasPrefix(id, "T") || id == "MVNM":
			set, ok := textFrameFields[id]
			if !ok {
				continue
			}
			for _, f := range frames {
				tf, ok := f.(id3v2.TextFrame)
				if !ok {
					continue
				}
				set(rec, joinMultiValue(tf.Text))
			}
		}
	}
}

// joinMultiValue joins ID3v2.4 null-separated multi-valued text with ", "
// before interpretation.
func joinMultiValue(s string) string {
	s = strings.TrimRight(s, "\x00")
	if !strings.Contains(s, "\x00") {
		return strings.TrimSpace(s)
	}
	parts := strings.Split(s, "\x00")
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

func applyUserText(frames []id3v2.Framer, rec *types.Record) {
	for _, f := range frames {
		udf, ok := f.(id3v2.UserDefinedTextFrame)
		if !ok {
			continue
		}
		set, ok := userTextFields[strings.ToUpper(strings.TrimSpace(udf.Description))]
		if !ok {
			continue
		}
		set(rec, strings.TrimSpace(udf.Value))
	}
}

// applyComments keeps the first non-empty comment; later duplicates are
// ignored.
func applyComments(frames []id3v2.Framer, rec *types.Record) {
	for _, f := range frames {
		cf, ok := f.(id3v2.CommentFrame)
		if !ok {
			continue
		}
		types.SetFirst(&rec.Comment, strings.TrimSpace(cf.Text))
	}
}

func applyLyrics(frames []id3v2.Framer, rec *types.Record) {
	for _, f := range frames {
		lf, ok := f.(id3v2.UnsynchronisedLyricsFrame)
		if !ok {
			continue
		}
		types.SetFirst(&rec.Lyrics, strings.TrimSpace(lf.Lyrics))
	}
}

// applyPictures selects artwork from APIC frames. Zero-length pictures are
// skipped. A front-cover frame displaces a previously taken non-front-cover
// picture, but never the other way around.
func applyPictures(frames []id3v2.Framer, rec *types.Record) {
	var (
		data  []byte
		mime  string
		front bool
	)
	for _, f := range frames {
		pf, ok := f.(id3v2.PictureFrame)
		if !ok || len(pf.Picture) == 0 {
			continue
		}
		isFront := pf.PictureType == id3v2.PTFrontCover
		if data == nil || (isFront && !front) {
			data = pf.Picture
			mime = pf.MimeType
			front = isFront
		}
	}
	if data != nil {
		rec.SetArtwork(data, mime)
	}
}
