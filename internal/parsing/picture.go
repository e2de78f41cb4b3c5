package parsing

import "github.com/veldran/tagnorm/internal/types"

// SelectPicture picks the best embedded image from an ordered candidate list.
//
// The first picture explicitly typed as front cover with non-zero length
// wins. If none qualifies, the first picture with non-zero length wins, in
// original order. Empty pictures are never selected. The returned slice
// aliases the candidate data; callers transfer ownership via
// Record.SetArtwork, which copies.
func SelectPicture(pics []types.Picture) (data []byte, mime string, ok bool) {
	for _, p := range pics {
		if p.IsFrontCover() && len(p.Data) > 0 {
			return p.Data, p.MIME, true
		}
	}
	for _, p := range pics {
		if len(p.Data) > 0 {
			return p.Data, p.MIME, true
		}
	}
	return nil, "", false
}
