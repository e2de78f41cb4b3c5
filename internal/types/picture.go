package types

// PictureType categorizes an embedded picture.
//
// Values follow the ID3v2 APIC / FLAC picture type enumeration; only the
// distinction that matters for selection (front cover vs everything else)
// is modeled.
type PictureType int

const (
	PictureOther PictureType = iota
	PictureFrontCover
	PictureBackCover
	PictureLeaflet
	PictureMedia
	PictureArtist
	PictureIcon
)

// Picture is a candidate embedded image offered to the picture resolver.
type Picture struct {
	Type PictureType
	MIME string
	Data []byte
}

// IsFrontCover reports whether the picture is explicitly typed as the
// canonical primary album art.
func (p Picture) IsFrontCover() bool {
	return p.Type == PictureFrontCover
}
