package mp4

import (
	"bytes"
	gobin "encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bin "github.com/veldran/tagnorm/internal/binary"
	"github.com/veldran/tagnorm/internal/types"
)

// atom assembles a size-prefixed atom.
func atom(typ string, payload ...[]byte) []byte {
	size := 8
	for _, p := range payload {
		size += len(p)
	}
	out := make([]byte, 0, size)
	out = gobin.BigEndian.AppendUint32(out, uint32(size))
	out = append(out, typ...)
	for _, p := range payload {
		out = append(out, p...)
	}
	return out
}

// dataAtom builds a "data" atom with version+flags and 4 reserved bytes.
func dataAtom(flags uint32, value []byte) []byte {
	head := make([]byte, 8)
	gobin.BigEndian.PutUint32(head, flags)
	return atom("data", head, value)
}

func stringItem(typ, value string) []byte {
	return atom(typ, dataAtom(1, []byte(value)))
}

func pairItem(typ string, number, total uint16) []byte {
	value := make([]byte, 8)
	gobin.BigEndian.PutUint16(value[2:], number)
	gobin.BigEndian.PutUint16(value[4:], total)
	return atom(typ, dataAtom(0, value))
}

func freeformItem(name, value string) []byte {
	mean := atom("mean", make([]byte, 4), []byte("com.apple.iTunes"))
	nameAtom := atom("name", make([]byte, 4), []byte(name))
	return atom("----", mean, nameAtom, dataAtom(1, []byte(value)))
}

func extractItems(t *testing.T, items ...[]byte) *types.Record {
	t.Helper()

	file := atom("ilst", items...)
	sr := bin.NewSafeReader(bytes.NewReader(file), int64(len(file)), "test.m4a")

	ilst, err := readAtomHeader(sr, 0)
	require.NoError(t, err)

	rec := &types.Record{}
	require.NoError(t, extractIlst(sr, ilst, rec))
	return rec
}

func TestExtractIlstStrings(t *testing.T) {
	rec := extractItems(t,
		stringItem("\xA9nam", "Skyline"),
		stringItem("\xA9ART", "Meridian"),
		stringItem("\xA9alb", "Vantage"),
		stringItem("aART", "Meridian"),
		stringItem("soal", "Vantage, The"),
		stringItem("\xA9day", "2020-08-01"),
	)

	assert.Equal(t, "Skyline", rec.Title)
	assert.Equal(t, "Meridian", rec.Artist)
	assert.Equal(t, "Vantage", rec.Album)
	assert.Equal(t, "Meridian", rec.AlbumArtist)
	assert.Equal(t, "Vantage, The", rec.SortAlbum)
	assert.Equal(t, "2020-08-01", rec.ReleaseDate)
	assert.Equal(t, "2020", rec.Year)
}

func TestExtractIlstPairs(t *testing.T) {
	rec := extractItems(t,
		pairItem("trkn", 7, 15),
		pairItem("disk", 1, 2),
	)

	assert.Equal(t, 7, rec.TrackNumber)
	assert.Equal(t, 15, rec.TrackTotal)
	assert.Equal(t, 1, rec.DiscNumber)
	assert.Equal(t, 2, rec.DiscTotal)
}

func TestExtractIlstCompilationAndTempo(t *testing.T) {
	rec := extractItems(t,
		atom("cpil", dataAtom(21, []byte{1})),
		atom("tmpo", dataAtom(21, []byte{0x00, 0x76})), // 118
	)

	assert.True(t, rec.Compilation)
	assert.Equal(t, 118, rec.BPM)
}

func TestExtractIlstCover(t *testing.T) {
	img := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	rec := extractItems(t, atom("covr", dataAtom(0x0D, img)))

	assert.Equal(t, img, rec.Artwork)
	assert.Equal(t, "image/jpeg", rec.ArtworkMIME)
}

func TestExtractIlstCoverFormats(t *testing.T) {
	assert.Equal(t, "image/png", coverFormatMIME(0x0E))
	assert.Equal(t, "image/bmp", coverFormatMIME(0x1B))
	assert.Equal(t, "image/gif", coverFormatMIME(0x0C))
	assert.Equal(t, "image/jpeg", coverFormatMIME(0x00), "unknown formats default to JPEG")
}

func TestExtractIlstFreeform(t *testing.T) {
	rec := extractItems(t,
		freeformItem("BARCODE", "5099902988221"),
		freeformItem("MusicBrainz Album Type", "ep"),
		freeformItem("CATALOGNUMBER", "VAN-002"),
		freeformItem("MusicBrainz Release Group ID", "8f4c2a9e"),
	)

	assert.Equal(t, "5099902988221", rec.Barcode)
	assert.Equal(t, "ep", rec.ReleaseType)
	assert.Equal(t, "VAN-002", rec.CatalogNumber)
	assert.Equal(t, "8f4c2a9e", rec.MusicBrainzReleaseGroupID)
}

func TestExtractIlstFreeformPriority(t *testing.T) {
	// "MUSICBRAINZ ALBUM TYPE" outranks "RELEASETYPE" in the alias order.
	rec := extractItems(t,
		freeformItem("RELEASETYPE", "single"),
		freeformItem("MUSICBRAINZ ALBUM TYPE", "album"),
	)
	assert.Equal(t, "album", rec.ReleaseType)
}

func TestFindIlst(t *testing.T) {
	ilst := atom("ilst", stringItem("\xA9nam", "Nested"))
	meta := atom("meta", make([]byte, 4), ilst)
	file := atom("moov", atom("udta", meta))

	sr := bin.NewSafeReader(bytes.NewReader(file), int64(len(file)), "test.m4a")
	found, err := findIlst(sr, int64(len(file)))
	require.NoError(t, err)

	rec := &types.Record{}
	require.NoError(t, extractIlst(sr, found, rec))
	assert.Equal(t, "Nested", rec.Title)
}

func TestReadAtomHeaderExtendedSize(t *testing.T) {
	data := make([]byte, 24)
	gobin.BigEndian.PutUint32(data, 1) // extended marker
	copy(data[4:], "mdat")
	gobin.BigEndian.PutUint64(data[8:], 24)

	sr := bin.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.m4a")
	a, err := readAtomHeader(sr, 0)
	require.NoError(t, err)

	assert.True(t, a.Extended)
	assert.Equal(t, uint64(24), a.Size)
	assert.Equal(t, int64(16), a.DataOffset())
}
