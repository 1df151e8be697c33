package data

import "time"

// Article is the metadata record of a single article. The article id is
// the key it is stored under and is not part of the record itself.
type Article struct {
	Title     string     `json:"title"`
	Public    bool       `json:"public"`
	CreatedAt *time.Time `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
	Tags      []string   `json:"tags"`
	Hidden    bool       `json:"hidden"`
	Pinned    bool       `json:"pinned"`
}

// Published reports whether the article has been public at least once.
func (a *Article) Published() bool {
	return a.CreatedAt != nil
}

// Clone returns a deep copy so callers can hand records out without
// sharing the tag slice or timestamps with the store's working copy.
func (a *Article) Clone() *Article {
	c := *a
	c.Tags = append([]string{}, a.Tags...)
	if a.CreatedAt != nil {
		t := *a.CreatedAt
		c.CreatedAt = &t
	}
	if a.UpdatedAt != nil {
		t := *a.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

// Metadata maps article ids to their records. It is persisted as one JSON document.
type Metadata map[string]*Article

// ManifestEntry describes one uploaded media file of an article.
type ManifestEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}
