package types

import (
	"bytes"
	"io"

	"github.com/veldran/tagnorm/internal/binary"
)

// Container identifies the physical container structure of an audio file.
// It decides which property reader runs and which dialect structures exist.
type Container int

const (
	ContainerUnknown Container = iota
	ContainerMPEG
	ContainerMP4
	ContainerFLAC
	ContainerOgg
	ContainerAPE
	ContainerWavPack
	ContainerMusepack
	ContainerWAV
	ContainerAIFF
	ContainerTrueAudio
	ContainerDSF
	ContainerDSDIFF
	ContainerASF
)

// String returns the container name.
func (c Container) String() string {
	switch c {
	case ContainerMPEG:
		return "MPEG"
	case ContainerMP4:
		return "MP4"
	case ContainerFLAC:
		return "FLAC"
	case ContainerOgg:
		return "Ogg"
	case ContainerAPE:
		return "APE"
	case ContainerWavPack:
		return "WavPack"
	case ContainerMusepack:
		return "Musepack"
	case ContainerWAV:
		return "WAV"
	case ContainerAIFF:
		return "AIFF"
	case ContainerTrueAudio:
		return "TrueAudio"
	case ContainerDSF:
		return "DSF"
	case ContainerDSDIFF:
		return "DSDIFF"
	case ContainerASF:
		return "ASF"
	default:
		return "Unknown"
	}
}

// asfHeaderGUID is the ASF_Header_Object GUID that opens every ASF/WMA file.
var asfHeaderGUID = []byte{
	0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11,
	0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C,
}

// DetectContainer determines the container structure by examining magic
// bytes. Detection validates only the file signature, not the whole
// structure.
func DetectContainer(r io.ReaderAt, size int64, path string) Container { //nolint:gocyclo // one branch per known signature
	if size < 4 {
		return ContainerUnknown
	}

	sr := binary.NewSafeReader(r, size, path)

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "file magic bytes"); err != nil {
		return ContainerUnknown
	}

	switch {
	case string(magic) == "fLaC":
		return ContainerFLAC
	case string(magic[:3]) == "ID3":
		// An ID3v2 tag at offset zero is the MPEG convention; TrueAudio
		// files that lead with ID3 are resolved by extension upstream.
		return ContainerMPEG
	case magic[0] == 0xFF && magic[1]&0xE0 == 0xE0:
		return ContainerMPEG
	case string(magic) == "OggS":
		return ContainerOgg
	case string(magic) == "MAC ":
		return ContainerAPE
	case string(magic) == "wvpk":
		return ContainerWavPack
	case string(magic) == "MPCK" || string(magic[:3]) == "MP+":
		return ContainerMusepack
	case string(magic) == "TTA1":
		return ContainerTrueAudio
	}

	if string(magic) == "RIFF" && size >= 12 {
		tag := make([]byte, 4)
		if err := sr.ReadAt(tag, 8, "WAVE tag"); err == nil && string(tag) == "WAVE" {
			return ContainerWAV
		}
	}

	if string(magic) == "FORM" && size >= 12 {
		tag := make([]byte, 4)
		if err := sr.ReadAt(tag, 8, "AIFF tag"); err == nil {
			if string(tag) == "AIFF" || string(tag) == "AIFC" {
				return ContainerAIFF
			}
		}
	}

	if string(magic) == "DSD " {
		return ContainerDSF
	}

	if string(magic) == "FRM8" && size >= 16 {
		tag := make([]byte, 4)
		if err := sr.ReadAt(tag, 12, "DSDIFF form type"); err == nil && string(tag) == "DSD " {
			return ContainerDSDIFF
		}
	}

	if size >= 16 {
		guid := make([]byte, 16)
		if err := sr.ReadAt(guid, 0, "ASF header GUID"); err == nil && bytes.Equal(guid, asfHeaderGUID) {
			return ContainerASF
		}
	}

	// MP4-family: an ftyp atom within the first bytes.
	if size >= 12 {
		atomType := make([]byte, 4)
		if err := sr.ReadAt(atomType, 4, "ftyp atom type"); err == nil && string(atomType) == "ftyp" {
			return ContainerMP4
		}
	}

	return ContainerUnknown
}
