package id3

import (
	"bytes"
	"testing"

	id3v2 "github.com/bogem/id3v2/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bin "github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/types"
)

// renderTag serializes a tag built in memory so the extractor reads the
// same bytes it would find in a file.
func renderTag(t *testing.T, build func(*id3v2.Tag)) *bin.SafeReader {
	t.Helper()

	tag := id3v2.NewEmptyTag()
	build(tag)

	var buf bytes.Buffer
	_, err := tag.WriteTo(&buf)
	require.NoError(t, err)

	data := buf.Bytes()
	return bin.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.mp3")
}

func extract(t *testing.T, build func(*id3v2.Tag)) *types.Record {
	t.Helper()
	rec := &types.Record{}
	require.NoError(t, ExtractFrames(renderTag(t, build), 0, 0, rec))
	return rec
}

func TestExtractFramesBasic(t *testing.T) {
	rec := extract(t, func(tag *id3v2.Tag) {
		tag.SetTitle("Parallel Lines")
		tag.SetArtist("Glass Array")
		tag.SetAlbum("Refraction")
		tag.SetGenre("Ambient")
		tag.AddTextFrame("TPE2", id3v2.EncodingUTF8, "Glass Array")
		tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, "7/15")
		tag.AddTextFrame("TPOS", id3v2.EncodingUTF8, "1/2")
		tag.AddTextFrame("TBPM", id3v2.EncodingUTF8, "118")
	})

	assert.Equal(t, "Parallel Lines", rec.Title)
	assert.Equal(t, "Glass Array", rec.Artist)
	assert.Equal(t, "Refraction", rec.Album)
	assert.Equal(t, "Ambient", rec.Genre)
	assert.Equal(t, "Glass Array", rec.AlbumArtist)
	assert.Equal(t, 7, rec.TrackNumber)
	assert.Equal(t, 15, rec.TrackTotal)
	assert.Equal(t, 1, rec.DiscNumber)
	assert.Equal(t, 2, rec.DiscTotal)
	assert.Equal(t, 118, rec.BPM)
}

func TestExtractFramesSortAndPersonnel(t *testing.T) {
	rec := extract(t, func(tag *id3v2.Tag) {
		tag.AddTextFrame("TSOT", id3v2.EncodingUTF8, "Parallel Lines, The")
		tag.AddTextFrame("TSOP", id3v2.EncodingUTF8, "Array, Glass")
		tag.AddTextFrame("TPE3", id3v2.EncodingUTF8, "A. Conductor")
		tag.AddTextFrame("TPUB", id3v2.EncodingUTF8, "Prism Records")
		tag.AddTextFrame("TKEY", id3v2.EncodingUTF8, "Am")
		tag.AddTextFrame("TSRC", id3v2.EncodingUTF8, "USRC17607839")
	})

	assert.Equal(t, "Parallel Lines, The", rec.SortTitle)
	assert.Equal(t, "Array, Glass", rec.SortArtist)
	assert.Equal(t, "A. Conductor", rec.Conductor)
	assert.Equal(t, "Prism Records", rec.Label)
	assert.Equal(t, "Am", rec.MusicalKey)
	assert.Equal(t, "USRC17607839", rec.ISRC)
}

func TestExtractFramesDates(t *testing.T) {
	rec := extract(t, func(tag *id3v2.Tag) {
		tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, "2021-03-14")
	})
	assert.Equal(t, "2021-03-14", rec.ReleaseDate)
	assert.Equal(t, "2021", rec.Year)
}

func TestExtractFramesCompilation(t *testing.T) {
	rec := extract(t, func(tag *id3v2.Tag) {
		tag.AddTextFrame("TCMP", id3v2.EncodingUTF8, "1")
	})
	assert.True(t, rec.Compilation)

	rec = extract(t, func(tag *id3v2.Tag) {
		tag.AddTextFrame("TCMP", id3v2.EncodingUTF8, "true")
	})
	assert.False(t, rec.Compilation, "only the literal \"1\" sets the flag")
}

func TestExtractFramesUserDefined(t *testing.T) {
	rec := extract(t, func(tag *id3v2.Tag) {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: "MusicBrainz Album Type",
			Value:       "album",
		})
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: "BARCODE",
			Value:       "0724596934128",
		})
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: "replaygain_track_gain",
			Value:       "-3.21 dB",
		})
	})

	assert.Equal(t, "album", rec.ReleaseType)
	assert.Equal(t, "0724596934128", rec.Barcode)
	assert.Equal(t, "-3.21 dB", rec.ReplayGainTrack)
}

func TestExtractFramesFirstCommentWins(t *testing.T) {
	rec := extract(t, func(tag *id3v2.Tag) {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding: id3v2.EncodingUTF8, Language: "eng", Text: "first",
		})
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding: id3v2.EncodingUTF8, Language: "eng", Description: "x", Text: "second",
		})
	})
	assert.Equal(t, "first", rec.Comment)
}

func TestExtractFramesPictures(t *testing.T) {
	front := []byte{0x01, 0x02, 0x03}
	back := []byte{0x04, 0x05}

	rec := extract(t, func(tag *id3v2.Tag) {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding: id3v2.EncodingUTF8, MimeType: "image/jpeg",
			PictureType: id3v2.PTBackCover, Picture: back,
		})
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding: id3v2.EncodingUTF8, MimeType: "image/png",
			PictureType: id3v2.PTFrontCover, Picture: front,
		})
	})

	assert.Equal(t, front, rec.Artwork, "front cover displaces other picture types")
	assert.Equal(t, "image/png", rec.ArtworkMIME)
}

func TestExtractFramesZeroLengthPictureSkipped(t *testing.T) {
	rec := extract(t, func(tag *id3v2.Tag) {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding: id3v2.EncodingUTF8, MimeType: "image/jpeg",
			PictureType: id3v2.PTFrontCover, Picture: nil,
		})
	})
	assert.Nil(t, rec.Artwork)
}

func TestExtractFramesNoTag(t *testing.T) {
	data := []byte("garbage, not a tag")
	sr := bin.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.mp3")
	rec := &types.Record{}
	assert.Error(t, ExtractFrames(sr, 0, 0, rec))
}

func TestJoinMultiValue(t *testing.T) {
	assert.Equal(t, "one", joinMultiValue("one"))
	assert.Equal(t, "one, two", joinMultiValue("one\x00two"))
	assert.Equal(t, "one", joinMultiValue("one\x00"))
	assert.Equal(t, "one, two", joinMultiValue("one\x00\x00two"))
}
