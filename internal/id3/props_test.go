package id3

import (
	"bytes"
	"encoding/binary"
	"testing"

	id3v2 "github.com/bogem/id3v2/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bin "github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/types"
)

// buildWAV assembles a RIFF/WAVE file from chunks.
func buildWAV(chunks ...[]byte) []byte {
	var body []byte
	for _, c := range chunks {
		body = append(body, c...)
	}

	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, uint32(4+len(body)))
	out = append(out, "WAVE"...)
	return append(out, body...)
}

func riffChunk(id string, data []byte) []byte {
	out := []byte(id)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	out = append(out, data...)
	if len(data)%2 != 0 {
		out = append(out, 0)
	}
	return out
}

func fmtChunk(channels uint16, rate, byteRate uint32, bits uint16) []byte {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint16(data, 1) // PCM
	binary.LittleEndian.PutUint16(data[2:], channels)
	binary.LittleEndian.PutUint32(data[4:], rate)
	binary.LittleEndian.PutUint32(data[8:], byteRate)
	binary.LittleEndian.PutUint16(data[14:], bits)
	return riffChunk("fmt ", data)
}

func propsReader(data []byte, name string) *bin.SafeReader {
	return bin.NewSafeReader(bytes.NewReader(data), int64(len(data)), name)
}

func TestReadWAVProps(t *testing.T) {
	byteRate := uint32(44100 * 2 * 2)
	file := buildWAV(
		fmtChunk(2, 44100, byteRate, 16),
		riffChunk("data", bytes.Repeat([]byte{0}, int(byteRate))), // 1 second
	)

	rec := &types.Record{}
	require.NoError(t, readWAVProps(propsReader(file, "test.wav"), rec))

	assert.Equal(t, 2, rec.Channels)
	assert.Equal(t, 44100, rec.SampleRate)
	assert.Equal(t, 16, rec.BitDepth)
	assert.Equal(t, 1411, rec.Bitrate)
	assert.InDelta(t, 1.0, rec.Duration, 0.01)
}

func TestReadWAVPropsNoFmt(t *testing.T) {
	file := buildWAV(riffChunk("data", []byte{0, 0}))
	rec := &types.Record{}
	assert.Error(t, readWAVProps(propsReader(file, "test.wav"), rec))
}

func TestWAVEmbeddedID3(t *testing.T) {
	tag := id3v2.NewEmptyTag()
	tag.SetTitle("Chunked")
	var buf bytes.Buffer
	_, err := tag.WriteTo(&buf)
	require.NoError(t, err)

	file := buildWAV(
		fmtChunk(2, 44100, 176400, 16),
		riffChunk("id3 ", buf.Bytes()),
	)

	sr := propsReader(file, "test.wav")
	p := &parser{kind: types.ContainerWAV}

	rec := &types.Record{}
	require.NoError(t, p.ExtractTags(sr, rec))
	assert.Equal(t, "Chunked", rec.Title)
}

func TestReadTTAProps(t *testing.T) {
	data := make([]byte, 64)
	copy(data, "TTA1")
	binary.LittleEndian.PutUint16(data[4:], 1)       // format
	binary.LittleEndian.PutUint16(data[6:], 2)       // channels
	binary.LittleEndian.PutUint16(data[8:], 16)      // bits
	binary.LittleEndian.PutUint32(data[10:], 44100)  // rate
	binary.LittleEndian.PutUint32(data[14:], 441000) // samples

	rec := &types.Record{}
	require.NoError(t, readTTAProps(propsReader(data, "test.tta"), rec))

	assert.Equal(t, 2, rec.Channels)
	assert.Equal(t, 16, rec.BitDepth)
	assert.Equal(t, 44100, rec.SampleRate)
	assert.InDelta(t, 10.0, rec.Duration, 0.01)
}

func TestReadTTAPropsBehindID3(t *testing.T) {
	tag := id3v2.NewEmptyTag()
	tag.SetArtist("Lossless Crew")
	var buf bytes.Buffer
	_, err := tag.WriteTo(&buf)
	require.NoError(t, err)

	tta := make([]byte, 64)
	copy(tta, "TTA1")
	binary.LittleEndian.PutUint16(tta[6:], 2)
	binary.LittleEndian.PutUint16(tta[8:], 16)
	binary.LittleEndian.PutUint32(tta[10:], 48000)
	binary.LittleEndian.PutUint32(tta[14:], 480000)

	file := append(buf.Bytes(), tta...)

	rec := &types.Record{}
	require.NoError(t, readTTAProps(propsReader(file, "test.tta"), rec))
	assert.Equal(t, 48000, rec.SampleRate)
	assert.InDelta(t, 10.0, rec.Duration, 0.01)
}
