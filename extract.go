package tagnorm

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/probe"
	"github.com/veldran/tagnorm/internal/registry"
	"github.com/veldran/tagnorm/internal/types"

	// Container parsers register themselves with the registry.
	_ "github.com/veldran/tagnorm/internal/ape"
	_ "github.com/veldran/tagnorm/internal/asf"
	_ "github.com/veldran/tagnorm/internal/dsd"
	_ "github.com/veldran/tagnorm/internal/id3"
	_ "github.com/veldran/tagnorm/internal/mp4"
	_ "github.com/veldran/tagnorm/internal/xiph"
)

// Extract reads the audio file at path and returns its canonical metadata
// record.
//
// The codec label comes from the extension table; an unmapped extension
// still yields a record (via container signature detection) but no label.
// Dialect-level parse failures contribute warnings rather than errors: the
// call fails only when the path is invalid (InvalidInputError) or when no
// properties and no tag of any kind could be obtained (UnreadableFileError).
func Extract(path string, opts ...Option) (*Record, error) {
	return ExtractContext(context.Background(), path, opts...)
}

// ExtractContext is Extract with a context checked between stages. The
// in-progress file read itself is not interruptible.
func ExtractContext(ctx context.Context, path string, opts ...Option) (*Record, error) {
	cfg := newConfig(opts)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &InvalidInputError{Path: path, Reason: "no such file"}
	}
	if !info.Mode().IsRegular() {
		return nil, &InvalidInputError{Path: path, Reason: "not a regular file"}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &UnreadableFileError{Path: path, Reason: err.Error()}
	}
	defer f.Close()

	size := info.Size()
	rec := &Record{}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	row, mapped := formats[ext]

	kind := row.Container
	if mapped {
		rec.Codec = row.Label
	} else {
		kind = types.DetectContainer(f, size, path)
	}

	sr := binary.NewSafeReader(f, size, path)
	parser := registry.Get(kind)

	// Stage 1: container audio properties.
	propsOK := false
	if parser != nil {
		if err := parser.ReadProps(sr, rec); err != nil {
			if cfg.strict {
				return nil, err
			}
			rec.Warn("properties", "%v", err)
		} else {
			propsOK = true
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: generic tag probe for the base descriptive fields.
	probeOK := false
	if _, err := f.Seek(0, io.SeekStart); err == nil {
		if err := probe.Generic(f, rec); err == nil {
			probeOK = true
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: dialect extractor layers its fields on top. A corrupt
	// dialect structure contributes nothing; the record still succeeds on
	// whatever the earlier stages produced.
	tagsOK := false
	if parser != nil {
		if err := parser.ExtractTags(sr, rec); err != nil {
			if cfg.strict {
				return nil, err
			}
			rec.Warn(dialectStage(kind), "%v", err)
		} else {
			tagsOK = true
		}
	}

	if !propsOK && !probeOK && !tagsOK {
		return nil, &UnreadableFileError{Path: path, Reason: "no tag or audio properties found"}
	}

	if cfg.skipArtwork {
		rec.Artwork = nil
		rec.ArtworkMIME = ""
	}
	return rec, nil
}

// dialectStage names the tag dialect of a container for warning messages.
func dialectStage(kind types.Container) string {
	switch kind {
	case types.ContainerMPEG, types.ContainerWAV, types.ContainerAIFF,
		types.ContainerTrueAudio, types.ContainerDSF:
		return "frames"
	case types.ContainerMP4:
		return "atoms"
	case types.ContainerFLAC, types.ContainerOgg, types.ContainerASF:
		return "comments"
	case types.ContainerAPE, types.ContainerWavPack, types.ContainerMusepack:
		return "items"
	default:
		return "tags"
	}
}

// Result pairs one path from a batch extraction with its outcome.
type Result struct {
	Path   string
	Record *Record
	Err    error
}

// ExtractMany extracts a batch of files concurrently, at most concurrency
// at a time (NumCPU when zero or negative). Results are returned in input
// order; a failing file fails only its own slot. The returned error is
// non-nil only when the context is canceled.
func ExtractMany(ctx context.Context, paths []string, concurrency int, opts ...Option) ([]Result, error) {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	results := make([]Result, len(paths))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Path: path, Err: err}
				return err
			}
			rec, err := ExtractContext(ctx, path, opts...)
			results[i] = Result{Path: path, Record: rec, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
