package model

// IndexStatus is the backend's report on the retrieval index.
type IndexStatus struct {
	Status string    `json:"status"`
	Index  IndexInfo `json:"index"`
}

// IndexInfo describes the indexed post range. LastSync is nil before the first sync.
type IndexInfo struct {
	TotalPosts int     `json:"total_posts"`
	MinPostNo  int     `json:"min_post_no"`
	MaxPostNo  int     `json:"max_post_no"`
	LastSync   *string `json:"last_sync"`
}

// Built reports whether the index holds any posts.
func (s IndexStatus) Built() bool {
	return s.Index.TotalPosts > 0
}
