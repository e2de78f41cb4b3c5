package ape

import (
	"github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/registry"
	"github.com/veldran/tagnorm/internal/types"
)

// parser implements registry.Parser for the item-list containers.
type parser struct {
	kind types.Container
}

func (p parser) ReadProps(sr *binary.SafeReader, rec *types.Record) error {
	switch p.kind {
	case types.ContainerWavPack:
		return readWavPackProps(sr, rec)
	case types.ContainerMusepack:
		return readMusepackProps(sr, rec)
	default:
		return readMonkeysProps(sr, rec)
	}
}

func (p parser) ExtractTags(sr *binary.SafeReader, rec *types.Record) error {
	t, err := readTag(sr)
	if err != nil {
		return err
	}
	t.apply(rec)
	return nil
}

func init() {
	registry.Register(types.ContainerAPE, parser{kind: types.ContainerAPE})
	registry.Register(types.ContainerWavPack, parser{kind: types.ContainerWavPack})
	registry.Register(types.ContainerMusepack, parser{kind: types.ContainerMusepack})
}
