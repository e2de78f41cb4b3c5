package mp4

import (
	"github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/registry"
	"github.com/veldran/tagnorm/internal/types"
)

// parser implements registry.Parser for MP4-family containers.
type parser struct{}

func (parser) ReadProps(sr *binary.SafeReader, rec *types.Record) error {
	return readProps(sr, sr.Size(), rec)
}

func (parser) ExtractTags(sr *binary.SafeReader, rec *types.Record) error {
	ilst, err := findIlst(sr, sr.Size())
	if err != nil {
		return err
	}
	return extractIlst(sr, ilst, rec)
}

func init() {
	registry.Register(types.ContainerMP4, parser{})
}
