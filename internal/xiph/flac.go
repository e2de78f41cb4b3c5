package xiph

import (
	"fmt"

	"github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/parsing"
	"github.com/veldran/tagnorm/internal/types"
)

const (
	blockTypeStreamInfo    = 0
	blockTypeVorbisComment = 4
	blockTypePicture       = 6

	flacMagic = "fLaC"
)

// flacBlock is one metadata block header.
type flacBlock struct {
	Type   int
	Last   bool
	Offset int64 // data offset
	Size   int64
}

// walkFLACBlocks calls visit for each metadata block after the "fLaC"
// marker. It stops at the last-block flag or the first malformed header.
func walkFLACBlocks(sr *binary.SafeReader, visit func(flacBlock) error) error {
	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "stream marker"); err != nil {
		return err
	}
	if string(magic) != flacMagic {
		return fmt.Errorf("%s: missing fLaC stream marker", sr.Path())
	}

	offset := int64(4)
	for {
		header, err := binary.Read[uint32](sr, offset, "metadata block header")
		if err != nil {
			return err
		}

		block := flacBlock{
			Type:   int(header >> 24 & 0x7F),
			Last:   header>>31 == 1,
			Offset: offset + 4,
			Size:   int64(header & 0xFFFFFF),
		}
		if err := visit(block); err != nil {
			return err
		}
		if block.Last {
			return nil
		}
		offset = block.Offset + block.Size
		if offset >= sr.Size() {
			return nil
		}
	}
}

// readBlock loads a block's payload into memory.
func readBlock(sr *binary.SafeReader, block flacBlock, what string) ([]byte, error) {
	buf := make([]byte, block.Size)
	if err := sr.ReadAt(buf, block.Offset, what); err != nil {
		return nil, err
	}
	return buf, nil
}

// readFLACProps extracts stream properties from the STREAMINFO block.
func readFLACProps(sr *binary.SafeReader, rec *types.Record) error {
	found := false
	err := walkFLACBlocks(sr, func(block flacBlock) error {
		if block.Type != blockTypeStreamInfo {
			return nil
		}
		data, err := readBlock(sr, block, "STREAMINFO block")
		if err != nil {
			return err
		}
		found = true
		applyStreamInfo(data, sr.Size(), rec)
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: no STREAMINFO block", sr.Path())
	}
	return nil
}

// applyStreamInfo decodes the packed 34-byte STREAMINFO body. fileSize, when
// positive, is used for a whole-file bitrate estimate.
func applyStreamInfo(data []byte, fileSize int64, rec *types.Record) {
	if len(data) < 18 {
		return
	}

	// After min/max block size (4) and min/max frame size (6), an 8-byte
	// packed run holds: sample rate (20 bits), channels-1 (3), bps-1 (5),
	// total samples (36).
	rate := int(data[10])<<12 | int(data[11])<<4 | int(data[12])>>4
	channels := int(data[12]>>1&0x07) + 1
	bits := int(data[12]&0x01)<<4 | int(data[13])>>4
	samples := uint64(data[13]&0x0F)<<32 |
		uint64(data[14])<<24 | uint64(data[15])<<16 | uint64(data[16])<<8 | uint64(data[17])

	rec.SampleRate = rate
	rec.Channels = channels
	rec.BitDepth = bits + 1

	if rate > 0 && samples > 0 {
		rec.Duration = float64(samples) / float64(rate)
		if fileSize > 0 {
			rec.Bitrate = int(float64(fileSize*8) / rec.Duration / 1000)
		}
	}
}

// extractFLACTags walks the metadata blocks once, layering the comment map
// and the picture list onto the record.
func extractFLACTags(sr *binary.SafeReader, rec *types.Record) error {
	var pictures []types.Picture
	var applied bool

	err := walkFLACBlocks(sr, func(block flacBlock) error {
		switch block.Type {
		case blockTypeVorbisComment:
			data, err := readBlock(sr, block, "VORBIS_COMMENT block")
			if err != nil {
				return err
			}
			m, pics, err := ParseCommentBlock(data)
			if err != nil {
				rec.Warn("comments", "%v", err)
				return nil
			}
			Apply(m, rec)
			pictures = append(pictures, pics...)
			applied = true
		case blockTypePicture:
			data, err := readBlock(sr, block, "PICTURE block")
			if err != nil {
				return err
			}
			pic, err := ParsePictureBlock(data)
			if err != nil {
				rec.Warn("comments", "%v", err)
				return nil
			}
			pictures = append(pictures, pic)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if data, mime, ok := parsing.SelectPicture(pictures); ok {
		rec.SetArtwork(data, mime)
	}
	if !applied && len(pictures) == 0 {
		return fmt.Errorf("%s: no comment or picture blocks", sr.Path())
	}
	return nil
}
