package xiph

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/parsing"
	"github.com/veldran/tagnorm/internal/types"
)

// oggCodec identifies the codec carried by an Ogg physical stream.
type oggCodec int

const (
	codecUnknown oggCodec = iota
	codecVorbis
	codecOpus
	codecSpeex
	codecOggFLAC
)

const (
	oggCapture = "OggS"

	// Enough header packets for every codec: the comment packet is the
	// second for Vorbis, Opus and Speex; Ogg FLAC may pad the front with
	// extra metadata blocks.
	oggHeaderPackets = 8

	// Opus granule positions always count 48 kHz samples.
	opusSampleRate = 48000

	// How far back from EOF we look for the final page's granule.
	oggTailWindow = 128 * 1024
)

// readOggPackets assembles up to maxPackets logical packets from the start
// of the stream, following the lacing tables across page boundaries.
func readOggPackets(sr *bin.SafeReader, maxPackets int) ([][]byte, error) {
	var packets [][]byte
	var current []byte

	offset := int64(0)
	for offset+27 <= sr.Size() && len(packets) < maxPackets {
		header := make([]byte, 27)
		if err := sr.ReadAt(header, offset, "ogg page header"); err != nil {
			return packets, err
		}
		if string(header[:4]) != oggCapture {
			break
		}

		segCount := int(header[26])
		lacing := make([]byte, segCount)
		if err := sr.ReadAt(lacing, offset+27, "ogg lacing table"); err != nil {
			return packets, err
		}

		pos := offset + 27 + int64(segCount)
		for _, l := range lacing {
			if l > 0 {
				chunk := make([]byte, l)
				if err := sr.ReadAt(chunk, pos, "ogg segment"); err != nil {
					return packets, err
				}
				current = append(current, chunk...)
				pos += int64(l)
			}
			// A lacing value below 255 terminates the packet.
			if l < 255 {
				packets = append(packets, current)
				current = nil
				if len(packets) >= maxPackets {
					break
				}
			}
		}
		offset = pos
	}

	if len(packets) == 0 {
		return nil, fmt.Errorf("%s: no ogg packets found", sr.Path())
	}
	return packets, nil
}

// detectOggCodec identifies the codec from the identification packet.
func detectOggCodec(id []byte) oggCodec {
	switch {
	case len(id) >= 7 && id[0] == 0x01 && string(id[1:7]) == "vorbis":
		return codecVorbis
	case bytes.HasPrefix(id, []byte("OpusHead")):
		return codecOpus
	case bytes.HasPrefix(id, []byte("Speex   ")):
		return codecSpeex
	case len(id) >= 5 && id[0] == 0x7F && string(id[1:5]) == "FLAC":
		return codecOggFLAC
	}
	return codecUnknown
}

// lastOggGranule scans the tail of the stream for the final page and
// returns its granule position, or 0 when none is found.
func lastOggGranule(sr *bin.SafeReader) int64 {
	window := int64(oggTailWindow)
	if window > sr.Size() {
		window = sr.Size()
	}
	start := sr.Size() - window

	tail := make([]byte, window)
	if err := sr.ReadAt(tail, start, "ogg stream tail"); err != nil {
		return 0
	}

	var granule int64
	for i := 0; i+27 <= len(tail); {
		idx := bytes.Index(tail[i:], []byte(oggCapture))
		if idx < 0 {
			break
		}
		i += idx
		if i+27 <= len(tail) && tail[i+4] == 0 {
			g := int64(binary.LittleEndian.Uint64(tail[i+6 : i+14]))
			if g > 0 {
				granule = g
			}
		}
		i += 4
	}
	return granule
}

// readOggProps decodes stream properties from the identification packet and
// the final page's granule position.
func readOggProps(sr *bin.SafeReader, rec *types.Record) error {
	packets, err := readOggPackets(sr, 1)
	if err != nil {
		return err
	}
	id := packets[0]
	granule := lastOggGranule(sr)

	switch detectOggCodec(id) {
	case codecVorbis:
		if len(id) < 28 {
			return fmt.Errorf("%s: short vorbis identification header", sr.Path())
		}
		rec.Channels = int(id[11])
		rec.SampleRate = int(binary.LittleEndian.Uint32(id[12:16]))
		if rec.SampleRate > 0 && granule > 0 {
			rec.Duration = float64(granule) / float64(rec.SampleRate)
		}
		if nominal := binary.LittleEndian.Uint32(id[20:24]); nominal > 0 {
			rec.Bitrate = int(nominal) / 1000
		} else if rec.Duration > 0 {
			rec.Bitrate = int(float64(sr.Size()*8) / rec.Duration / 1000)
		}

	case codecOpus:
		if len(id) < 16 {
			return fmt.Errorf("%s: short opus identification header", sr.Path())
		}
		rec.Channels = int(id[9])
		rec.SampleRate = opusSampleRate
		preSkip := int64(binary.LittleEndian.Uint16(id[10:12]))
		if granule > preSkip {
			rec.Duration = float64(granule-preSkip) / float64(opusSampleRate)
			rec.Bitrate = int(float64(sr.Size()*8) / rec.Duration / 1000)
		}

	case codecSpeex:
		if len(id) < 56 {
			return fmt.Errorf("%s: short speex identification header", sr.Path())
		}
		rec.SampleRate = int(binary.LittleEndian.Uint32(id[36:40]))
		rec.Channels = int(binary.LittleEndian.Uint32(id[48:52]))
		if rec.SampleRate > 0 && granule > 0 {
			rec.Duration = float64(granule) / float64(rec.SampleRate)
		}
		if bitrate := int32(binary.LittleEndian.Uint32(id[52:56])); bitrate > 0 {
			rec.Bitrate = int(bitrate) / 1000
		} else if rec.Duration > 0 {
			rec.Bitrate = int(float64(sr.Size()*8) / rec.Duration / 1000)
		}

	case codecOggFLAC:
		// \x7fFLAC, version (2), header count (2), "fLaC", then a regular
		// STREAMINFO block with its 4-byte header.
		if len(id) < 17+18 {
			return fmt.Errorf("%s: short ogg flac identification header", sr.Path())
		}
		applyStreamInfo(id[17:], sr.Size(), rec)
		if rec.Duration == 0 && rec.SampleRate > 0 && granule > 0 {
			rec.Duration = float64(granule) / float64(rec.SampleRate)
		}

	default:
		return fmt.Errorf("%s: unrecognized ogg codec", sr.Path())
	}
	return nil
}

// extractOggTags locates the codec's comment packet and applies it.
func extractOggTags(sr *bin.SafeReader, rec *types.Record) error {
	packets, err := readOggPackets(sr, oggHeaderPackets)
	if err != nil {
		return err
	}
	if len(packets) < 2 {
		return fmt.Errorf("%s: no comment packet", sr.Path())
	}

	var block []byte
	var pictures []types.Picture

	switch detectOggCodec(packets[0]) {
	case codecVorbis:
		comment := packets[1]
		if len(comment) < 7 || comment[0] != 0x03 || string(comment[1:7]) != "vorbis" {
			return fmt.Errorf("%s: malformed vorbis comment packet", sr.Path())
		}
		block = comment[7:]

	case codecOpus:
		comment := packets[1]
		if !bytes.HasPrefix(comment, []byte("OpusTags")) {
			return fmt.Errorf("%s: malformed opus comment packet", sr.Path())
		}
		block = comment[8:]

	case codecSpeex:
		// Speex comment packets carry the bare comment block.
		block = packets[1]

	case codecOggFLAC:
		// Subsequent header packets are FLAC metadata blocks.
		for _, pkt := range packets[1:] {
			if len(pkt) < 4 {
				continue
			}
			switch int(pkt[0] & 0x7F) {
			case blockTypeVorbisComment:
				if block == nil {
					block = pkt[4:]
				}
			case blockTypePicture:
				if pic, err := ParsePictureBlock(pkt[4:]); err == nil {
					pictures = append(pictures, pic)
				}
			}
		}
		if block == nil {
			return fmt.Errorf("%s: no comment block in ogg flac headers", sr.Path())
		}

	default:
		return fmt.Errorf("%s: unrecognized ogg codec", sr.Path())
	}

	m, pics, err := ParseCommentBlock(block)
	if err != nil {
		return err
	}
	Apply(m, rec)
	pictures = append(pictures, pics...)

	if data, mime, ok := parsing.SelectPicture(pictures); ok {
		rec.SetArtwork(data, mime)
	}
	return nil
}
