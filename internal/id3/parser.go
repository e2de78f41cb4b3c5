package id3

import (
	"fmt"

	binutil "github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/registry"
	"github.com/veldran/tagnorm/internal/types"
)

// parser implements registry.Parser for the containers that embed ID3v2
// frame tags: MPEG streams, RIFF/WAVE, AIFF and TrueAudio.
type parser struct {
	kind types.Container
}

func (p *parser) ReadProps(sr *binutil.SafeReader, rec *types.Record) error {
	switch p.kind {
	case types.ContainerMPEG:
		return readMPEGProps(sr, rec)
	case types.ContainerWAV:
		return readWAVProps(sr, rec)
	case types.ContainerAIFF:
		return readAIFFProps(sr, rec)
	case types.ContainerTrueAudio:
		return readTTAProps(sr, rec)
	default:
		return fmt.Errorf("unsupported container %s", p.kind)
	}
}

func (p *parser) ExtractTags(sr *binutil.SafeReader, rec *types.Record) error {
	offset, limit, err := p.locateTag(sr)
	if err != nil {
		return err
	}
	return ExtractFrames(sr, offset, limit, rec)
}

// locateTag finds the ID3v2 tag inside the container. MPEG and TrueAudio
// carry it at the start of the file; RIFF and AIFF embed it in a chunk.
func (p *parser) locateTag(sr *binutil.SafeReader) (offset, limit int64, err error) {
	switch p.kind {
	case types.ContainerMPEG, types.ContainerTrueAudio:
		buf := make([]byte, 3)
		if err := sr.ReadAt(buf, 0, "ID3v2 magic"); err != nil {
			return 0, 0, err
		}
		if string(buf) != "ID3" {
			return 0, 0, fmt.Errorf("no ID3v2 tag present")
		}
		return 0, 0, nil
	case types.ContainerWAV:
		return riffID3Bounds(findRIFFID3(sr))
	case types.ContainerAIFF:
		return riffID3Bounds(findAIFFID3(sr))
	default:
		return 0, 0, fmt.Errorf("unsupported container %s", p.kind)
	}
}

func riffID3Bounds(off, size int64, err error) (int64, int64, error) {
	if err != nil {
		return 0, 0, err
	}
	return off, size, nil
}

func init() {
	for _, kind := range []types.Container{
		types.ContainerMPEG,
		types.ContainerWAV,
		types.ContainerAIFF,
		types.ContainerTrueAudio,
	} {
		registry.Register(kind, &parser{kind: kind})
	}
}
