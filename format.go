package tagnorm

import (
	"sort"

	"github.com/veldran/tagnorm/internal/types"
)

// formatInfo is one row of the extension table: the canonical codec label
// and the container structure to parse.
type formatInfo struct {
	Label     string
	Container types.Container
}

// formats maps lowercase file extensions to their format row. Files with an
// unmapped extension are still extracted through container detection, but
// carry no codec label.
var formats = map[string]formatInfo{
	"mp3": {"MP3", types.ContainerMPEG},
	"mp2": {"MP3", types.ContainerMPEG},

	"m4a": {"AAC", types.ContainerMP4},
	"m4b": {"AAC", types.ContainerMP4},
	"m4p": {"AAC", types.ContainerMP4},
	"mp4": {"AAC", types.ContainerMP4},
	"aac": {"AAC", types.ContainerMP4},

	"flac": {"FLAC", types.ContainerFLAC},

	"ogg":  {"Vorbis", types.ContainerOgg},
	"opus": {"Opus", types.ContainerOgg},
	"oga":  {"OGG FLAC", types.ContainerOgg},
	"spx":  {"Speex", types.ContainerOgg},

	"ape": {"APE", types.ContainerAPE},
	"wv":  {"WavPack", types.ContainerWavPack},
	"mpc": {"Musepack", types.ContainerMusepack},

	"wav":  {"WAV", types.ContainerWAV},
	"aiff": {"AIFF", types.ContainerAIFF},
	"aif":  {"AIFF", types.ContainerAIFF},
	"tta":  {"TrueAudio", types.ContainerTrueAudio},

	"wma": {"WMA", types.ContainerASF},
	"asf": {"WMA", types.ContainerASF},

	"dsf": {"DSF", types.ContainerDSF},
	"dff": {"DSDIFF", types.ContainerDSDIFF},
}

// Formats returns the supported file extensions, sorted.
func Formats() []string {
	exts := make([]string, 0, len(formats))
	for ext := range formats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
