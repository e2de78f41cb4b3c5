// Package probe extracts format-agnostic descriptive fields through a
// generic tag interface, before any dialect extractor runs.
package probe

import (
	"io"
	"strconv"

	"github.com/dhowden/tag"

	"github.com/veldran/tagnorm/internal/types"
)

// Generic populates the base record from whichever tag the generic reader
// recognizes in the stream. Dialect extractors may later overwrite these
// fields with non-empty values, never with absent ones.
//
// The error return reports that no generic tag was found; callers treat it
// as one vote toward UnreadableFile, not as a failure by itself.
func Generic(rs io.ReadSeeker, rec *types.Record) error {
	m, err := tag.ReadFrom(rs)
	if err != nil {
		return err
	}

	types.SetString(&rec.Title, m.Title())
	types.SetString(&rec.Artist, m.Artist())
	types.SetString(&rec.Album, m.Album())
	types.SetString(&rec.Genre, m.Genre())
	types.SetString(&rec.Comment, m.Comment())

	if year := m.Year(); year > 0 {
		types.SetString(&rec.Year, strconv.Itoa(year))
	}

	if n, total := m.Track(); n > 0 || total > 0 {
		if n > 0 {
			rec.TrackNumber = n
		}
		types.SetTotal(&rec.TrackTotal, total)
	}
	if n, total := m.Disc(); n > 0 || total > 0 {
		if n > 0 {
			rec.DiscNumber = n
		}
		types.SetTotal(&rec.DiscTotal, total)
	}

	return nil
}
