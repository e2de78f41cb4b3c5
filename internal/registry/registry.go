// Package registry manages the container-specific parsers.
package registry

import (
	"github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/types"
)

// Parser is implemented once per container structure. Both stages are best
// effort from the dispatcher's point of view: a returned error means the
// structure was invalid and contributed nothing, never that extraction as a
// whole must fail.
type Parser interface {
	// ReadProps extracts the audio property block (duration, bitrate,
	// sample rate, channels, bit depth) from the container.
	ReadProps(sr *binary.SafeReader, rec *types.Record) error

	// ExtractTags layers dialect-specific fields and artwork on top of the
	// record. Fields already populated are only overwritten by non-empty
	// dialect values.
	ExtractTags(sr *binary.SafeReader, rec *types.Record) error
}

// parsers maps container kinds to their parsers.
var parsers = make(map[types.Container]Parser)

// Register registers a parser for a container kind.
// Called by container packages during initialization (init functions).
func Register(c types.Container, p Parser) {
	parsers[c] = p
}

// Get returns the parser for a container kind, or nil if none is registered.
func Get(c types.Container) Parser {
	return parsers[c]
}
