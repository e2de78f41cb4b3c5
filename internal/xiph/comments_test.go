package xiph

import (
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldran/tagnorm/internal/types"
)

// buildCommentBlock assembles a Vorbis comment block from KEY=VALUE entries.
func buildCommentBlock(entries ...string) []byte {
	var out []byte
	le32 := func(n int) []byte {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(n))
		return b
	}

	vendor := "test vendor"
	out = append(out, le32(len(vendor))...)
	out = append(out, vendor...)
	out = append(out, le32(len(entries))...)
	for _, e := range entries {
		out = append(out, le32(len(e))...)
		out = append(out, e...)
	}
	return out
}

func parseAndApply(t *testing.T, entries ...string) *types.Record {
	t.Helper()
	m, _, err := ParseCommentBlock(buildCommentBlock(entries...))
	require.NoError(t, err)
	rec := &types.Record{}
	Apply(m, rec)
	return rec
}

func TestApplyBasicFields(t *testing.T) {
	rec := parseAndApply(t,
		"TITLE=Night Drive",
		"artist=The Commuters", // keys are case-insensitive
		"ALBUM=City Lights",
		"ALBUMARTIST=Various",
		"GENRE=Electronic",
		"DATE=2019-04-02",
		"ORIGINALDATE=2018",
	)

	assert.Equal(t, "Night Drive", rec.Title)
	assert.Equal(t, "The Commuters", rec.Artist)
	assert.Equal(t, "City Lights", rec.Album)
	assert.Equal(t, "Various", rec.AlbumArtist)
	assert.Equal(t, "Electronic", rec.Genre)
	assert.Equal(t, "2019-04-02", rec.ReleaseDate)
	assert.Equal(t, "2019", rec.Year)
	assert.Equal(t, "2018", rec.OriginalReleaseDate)
}

func TestApplyTrackAndDisc(t *testing.T) {
	rec := parseAndApply(t, "TRACKNUMBER=4", "TRACKTOTAL=9", "DISCNUMBER=1", "TOTALDISCS=2")
	assert.Equal(t, 4, rec.TrackNumber)
	assert.Equal(t, 9, rec.TrackTotal)
	assert.Equal(t, 1, rec.DiscNumber)
	assert.Equal(t, 2, rec.DiscTotal)
}

func TestApplyTotalNeverDowngrades(t *testing.T) {
	// A combined string sets the total; TRACKTOTAL=0 must not zero it.
	rec := parseAndApply(t, "TRACKNUMBER=3/12", "TRACKTOTAL=0")
	assert.Equal(t, 3, rec.TrackNumber)
	assert.Equal(t, 12, rec.TrackTotal)
}

func TestApplyCompilation(t *testing.T) {
	assert.True(t, parseAndApply(t, "COMPILATION=1").Compilation)
	assert.True(t, parseAndApply(t, "COMPILATION=TrUe").Compilation)
	assert.False(t, parseAndApply(t, "COMPILATION=yes").Compilation)
	assert.False(t, parseAndApply(t, "COMPILATION=0").Compilation)
}

func TestApplyAliasPrecedence(t *testing.T) {
	rec := parseAndApply(t,
		"KEY=Dm",
		"INITIALKEY=F#m", // preferred over KEY
		"MUSICBRAINZ_ALBUMTYPE=album",
		"CATALOG=CAT-001",
		"UPC=0123456789",
	)
	assert.Equal(t, "F#m", rec.MusicalKey)
	assert.Equal(t, "album", rec.ReleaseType)
	assert.Equal(t, "CAT-001", rec.CatalogNumber)
	assert.Equal(t, "0123456789", rec.Barcode)
}

func TestApplyFirstNonEmptyCommentWins(t *testing.T) {
	rec := parseAndApply(t, "COMMENT=", "COMMENT=first real", "COMMENT=second")
	assert.Equal(t, "first real", rec.Comment)
}

func TestApplyReplayGain(t *testing.T) {
	rec := parseAndApply(t,
		"REPLAYGAIN_TRACK_GAIN=-6.52 dB",
		"REPLAYGAIN_ALBUM_GAIN=-7.01 dB",
	)
	assert.Equal(t, "-6.52 dB", rec.ReplayGainTrack)
	assert.Equal(t, "-7.01 dB", rec.ReplayGainAlbum)
}

func TestParseCommentBlockPictureEntry(t *testing.T) {
	img := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	pic := base64.StdEncoding.EncodeToString(buildPictureBlock(3, "image/jpeg", img))

	m, pics, err := ParseCommentBlock(buildCommentBlock(
		"TITLE=Pictured",
		"METADATA_BLOCK_PICTURE="+pic,
	))
	require.NoError(t, err)
	require.Len(t, pics, 1)

	assert.Equal(t, "Pictured", m.Get("TITLE"))
	assert.True(t, pics[0].IsFrontCover())
	assert.Equal(t, "image/jpeg", pics[0].MIME)
	assert.Equal(t, img, pics[0].Data)
}

func TestParseCommentBlockTruncated(t *testing.T) {
	_, _, err := ParseCommentBlock([]byte{0x01})
	assert.Error(t, err)

	// Vendor length pointing past the end.
	_, _, err = ParseCommentBlock([]byte{0xFF, 0xFF, 0xFF, 0x7F, 0x00, 0x00, 0x00, 0x00})
	assert.Error(t, err)
}

// buildPictureBlock assembles a FLAC picture block for tests.
func buildPictureBlock(picType uint32, mime string, img []byte) []byte {
	var out []byte
	be32 := func(n uint32) []byte {
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, n)
		return b
	}

	out = append(out, be32(picType)...)
	out = append(out, be32(uint32(len(mime)))...)
	out = append(out, mime...)
	out = append(out, be32(0)...)             // description length
	out = append(out, make([]byte, 16)...)    // width, height, depth, colors
	out = append(out, be32(uint32(len(img)))...)
	out = append(out, img...)
	return out
}

func TestParsePictureBlock(t *testing.T) {
	img := []byte{0x89, 0x50, 0x4E, 0x47}
	pic, err := ParsePictureBlock(buildPictureBlock(4, "image/png", img))
	require.NoError(t, err)

	assert.Equal(t, types.PictureBackCover, pic.Type)
	assert.Equal(t, "image/png", pic.MIME)
	assert.Equal(t, img, pic.Data)
}

func TestParsePictureBlockTruncated(t *testing.T) {
	_, err := ParsePictureBlock([]byte{0x00, 0x00})
	assert.Error(t, err)

	block := buildPictureBlock(3, "image/jpeg", []byte{1, 2, 3})
	_, err = ParsePictureBlock(block[:len(block)-2])
	assert.Error(t, err)
}
