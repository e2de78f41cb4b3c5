package xiph

import (
	"github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/registry"
	"github.com/veldran/tagnorm/internal/types"
)

// parser implements registry.Parser for the comment-map containers.
type parser struct {
	kind types.Container
}

func (p parser) ReadProps(sr *binary.SafeReader, rec *types.Record) error {
	if p.kind == types.ContainerFLAC {
		return readFLACProps(sr, rec)
	}
	return readOggProps(sr, rec)
}

func (p parser) ExtractTags(sr *binary.SafeReader, rec *types.Record) error {
	if p.kind == types.ContainerFLAC {
		return extractFLACTags(sr, rec)
	}
	return extractOggTags(sr, rec)
}

func init() {
	registry.Register(types.ContainerFLAC, parser{kind: types.ContainerFLAC})
	registry.Register(types.ContainerOgg, parser{kind: types.ContainerOgg})
}
