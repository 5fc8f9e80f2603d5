package search

import (
	"github.com/abelbrown/boardview/internal/model"
	"github.com/abelbrown/boardview/internal/otel"
)

// Gallery is a Pager restricted to posts with an oekaki attachment.
type Gallery struct {
	*Pager
	imageURL func(oekakiID int) string
}

// NewGallery returns an oekaki pager. imageURL maps an attachment id to its
// PNG location, usually (*api.Client).ImageURL.
func NewGallery(client Client, imageURL func(int) string, log *otel.Logger) *Gallery {
	p := NewPager(client, log)
	p.oekaki = true
	return &Gallery{Pager: p, imageURL: imageURL}
}

// ImageURL is the picture location of r, or false if r has none.
func (g *Gallery) ImageURL(r model.Row) (string, bool) {
	if !r.HasOekaki() || g.imageURL == nil {
		return "", false
	}
	return g.imageURL(r.OekakiID), true
}

// DerivedFrom is the post number r's picture was drawn over, if any.
func DerivedFrom(r model.Row) (int, bool) {
	if r.OriginalOekakiResNo > 0 {
		return r.OriginalOekakiResNo, true
	}
	return 0, false
}
