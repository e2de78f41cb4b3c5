package xiph

import (
	"encoding/binary"
	"fmt"

	"github.com/veldran/tagnorm/internal/types"
)

// ParsePictureBlock decodes a FLAC picture block (also the payload of a
// base64 METADATA_BLOCK_PICTURE comment):
//
//	type (4) | mime len (4) | mime | desc len (4) | desc |
//	width (4) | height (4) | depth (4) | colors (4) | data len (4) | data
//
// All integers are big-endian.
func ParsePictureBlock(data []byte) (types.Picture, error) {
	if len(data) < 32 {
		return types.Picture{}, fmt.Errorf("picture block too short: %d bytes", len(data))
	}

	picType := binary.BigEndian.Uint32(data[0:4])
	pos := 4

	mimeLen := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if pos+mimeLen > len(data) {
		return types.Picture{}, fmt.Errorf("picture MIME type exceeds block")
	}
	mime := string(data[pos : pos+mimeLen])
	pos += mimeLen

	if pos+4 > len(data) {
		return types.Picture{}, fmt.Errorf("truncated picture block")
	}
	descLen := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4 + descLen

	// width, height, depth, colors
	pos += 16

	if pos+4 > len(data) {
		return types.Picture{}, fmt.Errorf("truncated picture block")
	}
	dataLen := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if dataLen < 0 || pos+dataLen > len(data) {
		return types.Picture{}, fmt.Errorf("picture data exceeds block")
	}

	return types.Picture{
		Type: picTypeFromFLAC(picType),
		MIME: mime,
		Data: data[pos : pos+dataLen],
	}, nil
}

// picTypeFromFLAC maps the FLAC/ID3 picture type enumeration onto the
// coarser internal categories.
func picTypeFromFLAC(t uint32) types.PictureType {
	switch t {
	case 1, 2:
		return types.PictureIcon
	case 3:
		return types.PictureFrontCover
	case 4:
		return types.PictureBackCover
	case 5:
		return types.PictureLeaflet
	case 6:
		return types.PictureMedia
	case 7, 8:
		return types.PictureArtist
	default:
		return types.PictureOther
	}
}
