package xiph

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bin "github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/types"
)

// buildOggPage assembles one page carrying whole packets. The CRC is left
// zero; the reader does not verify it.
func buildOggPage(seq uint32, granule int64, packets ...[]byte) []byte {
	header := make([]byte, 27)
	copy(header, oggCapture)
	binary.LittleEndian.PutUint64(header[6:], uint64(granule))
	binary.LittleEndian.PutUint32(header[14:], 0xBEEF) // serial
	binary.LittleEndian.PutUint32(header[18:], seq)

	var lacing []byte
	var body []byte
	for _, pkt := range packets {
		n := len(pkt)
		for n >= 255 {
			lacing = append(lacing, 255)
			n -= 255
		}
		lacing = append(lacing, byte(n))
		body = append(body, pkt...)
	}
	header[26] = byte(len(lacing))

	out := append(header, lacing...)
	return append(out, body...)
}

// buildVorbisID builds a Vorbis identification packet: 44100 Hz, 2
// channels, 128 kbps nominal.
func buildVorbisID() []byte {
	pkt := make([]byte, 30)
	pkt[0] = 0x01
	copy(pkt[1:], "vorbis")
	pkt[11] = 2 // channels
	binary.LittleEndian.PutUint32(pkt[12:], 44100)
	binary.LittleEndian.PutUint32(pkt[20:], 128000) // nominal bitrate
	pkt[29] = 0x01                                  // framing bit
	return pkt
}

func buildVorbisComment(entries ...string) []byte {
	pkt := append([]byte{0x03}, "vorbis"...)
	pkt = append(pkt, buildCommentBlock(entries...)...)
	return append(pkt, 0x01) // framing bit
}

func buildVorbisFile(entries ...string) []byte {
	var out []byte
	out = append(out, buildOggPage(0, 0, buildVorbisID())...)
	out = append(out, buildOggPage(1, 0, buildVorbisComment(entries...), []byte{0x05})...)
	out = append(out, buildOggPage(2, 441000, []byte{0x00})...) // 10 seconds
	return out
}

func oggReader(data []byte) *bin.SafeReader {
	return bin.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.ogg")
}

func TestReadOggPropsVorbis(t *testing.T) {
	rec := &types.Record{}
	require.NoError(t, readOggProps(oggReader(buildVorbisFile()), rec))

	assert.Equal(t, 2, rec.Channels)
	assert.Equal(t, 44100, rec.SampleRate)
	assert.InDelta(t, 10.0, rec.Duration, 0.01)
	assert.Equal(t, 128, rec.Bitrate)
}

func TestExtractOggTagsVorbis(t *testing.T) {
	file := buildVorbisFile(
		"TITLE=Lighthouse",
		"ARTIST=North Sea",
		"TRACKNUMBER=5",
		"TRACKTOTAL=11",
	)

	rec := &types.Record{}
	require.NoError(t, extractOggTags(oggReader(file), rec))

	assert.Equal(t, "Lighthouse", rec.Title)
	assert.Equal(t, "North Sea", rec.Artist)
	assert.Equal(t, 5, rec.TrackNumber)
	assert.Equal(t, 11, rec.TrackTotal)
}

func TestReadOggPropsOpus(t *testing.T) {
	id := make([]byte, 19)
	copy(id, "OpusHead")
	id[8] = 1 // version
	id[9] = 2 // channels
	binary.LittleEndian.PutUint16(id[10:], 312)   // pre-skip
	binary.LittleEndian.PutUint32(id[12:], 48000) // input rate

	var file []byte
	file = append(file, buildOggPage(0, 0, id)...)
	file = append(file, buildOggPage(1, 480312, []byte{0x00})...) // 10s + pre-skip

	rec := &types.Record{}
	require.NoError(t, readOggProps(oggReader(file), rec))

	assert.Equal(t, 2, rec.Channels)
	assert.Equal(t, opusSampleRate, rec.SampleRate)
	assert.InDelta(t, 10.0, rec.Duration, 0.01)
}

func TestExtractOggTagsOpus(t *testing.T) {
	id := make([]byte, 19)
	copy(id, "OpusHead")
	id[9] = 2

	tags := append([]byte("OpusTags"), buildCommentBlock("TITLE=Drift", "ALBUMARTIST=Tides")...)

	var file []byte
	file = append(file, buildOggPage(0, 0, id)...)
	file = append(file, buildOggPage(1, 0, tags)...)

	rec := &types.Record{}
	require.NoError(t, extractOggTags(oggReader(file), rec))

	assert.Equal(t, "Drift", rec.Title)
	assert.Equal(t, "Tides", rec.AlbumArtist)
}

func TestReadOggPropsUnknownCodec(t *testing.T) {
	file := buildOggPage(0, 0, []byte("mystery codec header"))
	rec := &types.Record{}
	assert.Error(t, readOggProps(oggReader(file), rec))
}

func TestReadOggPacketsSpansPages(t *testing.T) {
	// A 600-byte packet laced across 255+255+90.
	big := bytes.Repeat([]byte{0xAB}, 600)
	file := buildOggPage(0, 0, big)

	packets, err := readOggPackets(oggReader(file), 1)
	require.NoError(t, err)
	require.Len(t, packets, 1)
	assert.Equal(t, big, packets[0])
}
