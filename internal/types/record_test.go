package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetString(t *testing.T) {
	var dst string

	SetString(&dst, "probe value")
	assert.Equal(t, "probe value", dst)

	// A non-empty dialect value overwrites.
	SetString(&dst, "dialect value")
	assert.Equal(t, "dialect value", dst)

	// An absent dialect value never clears.
	SetString(&dst, "")
	assert.Equal(t, "dialect value", dst)
}

func TestSetFirst(t *testing.T) {
	var dst string

	SetFirst(&dst, "")
	assert.Empty(t, dst)

	SetFirst(&dst, "first")
	SetFirst(&dst, "second")
	assert.Equal(t, "first", dst)
}

func TestSetTotal(t *testing.T) {
	total := 15

	// Zero never downgrades a valid total.
	SetTotal(&total, 0)
	assert.Equal(t, 15, total)

	SetTotal(&total, 9)
	assert.Equal(t, 9, total)
}

func TestSetArtwork(t *testing.T) {
	var rec Record

	buf := []byte{0xFF, 0xD8, 0xFF}
	rec.SetArtwork(buf, "image/jpeg")
	assert.Equal(t, buf, rec.Artwork)
	assert.Equal(t, "image/jpeg", rec.ArtworkMIME)

	// Bytes are copied: mutating the source buffer must not leak through.
	buf[0] = 0x00
	assert.Equal(t, byte(0xFF), rec.Artwork[0])

	// First extractor to find art wins across passes.
	rec.SetArtwork([]byte{0x89, 0x50}, "image/png")
	assert.Equal(t, "image/jpeg", rec.ArtworkMIME)
}

func TestSetArtworkIgnoresEmpty(t *testing.T) {
	var rec Record
	rec.SetArtwork(nil, "image/jpeg")
	assert.Nil(t, rec.Artwork)
	assert.Empty(t, rec.ArtworkMIME)
}

func TestWarn(t *testing.T) {
	var rec Record
	rec.Warn("comments", "bad block at %d", 42)

	assert.Len(t, rec.Warnings, 1)
	assert.Equal(t, "comments", rec.Warnings[0].Stage)
	assert.Equal(t, "comments: bad block at 42", rec.Warnings[0].String())
}
