// Package tagnorm extracts audio metadata into one canonical,
// format-independent record.
//
// Audio files in the wild use at least four structurally incompatible
// tagging schemes: frame-based binary tags (MP3, WAV, AIFF, TrueAudio, DSF),
// atom/item maps (MP4 family), free-text key/value comment blocks (FLAC and
// the Ogg codecs) and length-prefixed item lists (Monkey's Audio, WavPack,
// Musepack). Extraction reads whichever dialect the container carries and
// returns a flat Record with a predictable shape: title, artist, album,
// positions, sort keys, personnel credits, identifiers, dates, ReplayGain
// hints, embedded cover art and the container's own audio properties.
//
// Extraction is read-only and single-pass. Tags are never written back and
// audio sample data is never decoded.
//
//	rec, err := tagnorm.Extract("/music/album/01.flac")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(rec.Artist, "-", rec.Title)
package tagnorm
