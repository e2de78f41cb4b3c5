// Package types holds the canonical metadata record and the shared types
// used by the container probes and dialect extractors.
package types

import "fmt"

// Record is the canonical, format-independent metadata record produced by a
// single extraction call.
//
// Optional string fields use "" as the absent marker. Extractors never store
// an empty string (see SetString/SetFirst), so "" always means "not present
// in any consulted tag". Numeric fields default to 0, Compilation to false.
//
// A Record is built in one pass and never mutated after the extraction call
// returns. Artwork bytes are owned by the record; no reference to the source
// file survives extraction.
type Record struct {
	// Identity / descriptive
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Genre       string
	Comment     string
	Year        string
	Codec       string // canonical codec label from the extension table

	// Positional
	TrackNumber int
	TrackTotal  int
	DiscNumber  int
	DiscTotal   int

	// Sort keys
	SortTitle       string
	SortArtist      string
	SortAlbum       string
	SortAlbumArtist string
	SortComposer    string

	// Personnel / descriptive
	Conductor       string
	Remixer         string
	Producer        string
	Engineer        string
	Lyricist        string
	Label           string
	EncodedBy       string
	EncoderSettings string
	Subtitle        string
	Grouping        string
	Movement        string
	Mood            string
	Language        string
	MusicalKey      string
	Lyrics          string

	// Identifiers
	ISRC                      string
	Copyright                 string
	Barcode                   string
	CatalogNumber             string
	ReleaseCountry            string
	ReleaseType               string
	ArtistType                string
	MusicBrainzArtistID       string
	MusicBrainzAlbumID        string
	MusicBrainzTrackID        string
	MusicBrainzReleaseGroupID string

	// Dates, kept as raw tag text. No parsing or validation is imposed.
	ReleaseDate         string
	OriginalReleaseDate string

	// ReplayGain hints, kept as raw "+x.xx dB" text.
	ReplayGainTrack string
	ReplayGainAlbum string

	// Flags / numeric
	BPM         int
	Compilation bool

	// Audio properties reported by the container.
	Duration   float64 // seconds
	Bitrate    int     // kilobits per second
	SampleRate int     // Hz
	Channels   int
	BitDepth   int // 0 if the format has no fixed bit depth

	// Artwork. Nil Artwork means no embedded image was selected.
	Artwork     []byte
	ArtworkMIME string

	// Warnings collected during extraction. Diagnostic only; a dialect
	// structure that fails to parse contributes a warning, never an error.
	Warnings []Warning
}

// Warning records a non-fatal issue encountered during extraction.
type Warning struct {
	Stage   string // "probe", "properties", "frames", "atoms", "comments", "items"
	Message string
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}

// Warn appends a formatted warning to the record.
func (r *Record) Warn(stage, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Stage: stage, Message: fmt.Sprintf(format, args...)})
}

// SetString assigns v to dst unless v is empty. A dialect value may overwrite
// a value populated by the generic probe, but an absent dialect value never
// clears one.
func SetString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// SetFirst assigns v to dst only when dst is still unset. Used for repeatable
// fields with a single canonical slot (comment, lyrics): the first non-empty
// value in the dialect's own iteration order wins.
func SetFirst(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// SetTotal assigns n to dst only when n is greater than zero. A separate
// "total" tag never downgrades a total already taken from a combined "N/M"
// string.
func SetTotal(dst *int, n int) {
	if n > 0 {
		*dst = n
	}
}

// SetArtwork installs artwork on the record unless a previous extractor pass
// already found some. The bytes are copied: ownership transfers to the record
// and parser-local buffers may be reused.
func (r *Record) SetArtwork(data []byte, mime string) {
	if r.Artwork != nil || len(data) == 0 {
		return
	}
	owned := make([]byte, len(data))
	copy(owned, data)
	r.Artwork = owned
	r.ArtworkMIME = mime
}
