package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
)

const defaultPageSize = 20

// Sort keys accepted by List.
const (
	SortCreatedAt = "createdAt"
	SortUpdatedAt = "updatedAt"
	SortTitle     = "title"
)

// ListQuery selects, orders and pages the article listing.
type ListQuery struct {
	// Admin switches to the admin view: drafts and private articles included.
	// Callers must have checked the admin credential already.
	Admin bool
	// All also includes hidden articles in the admin view.
	All       bool
	Query     string
	Page      int
	SortKey   string
	SortOrder string
}

// ListResult is one page of the listing.
type ListResult struct {
	Articles    []ArticleSummary `json:"articles"`
	Total       int              `json:"total"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
}

// List filters, sorts and paginates the article records. Pinned articles
// always come first.
func (s *ArticleService) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	md := s.stores.Metadata.Load(ctx)
	needle := strings.ToLower(strings.TrimSpace(q.Query))

	items := make([]ArticleSummary, 0, len(md))
	for id, rec := range md {
		if !listed(rec.Public, rec.CreatedAt != nil, rec.Hidden, q) {
			continue
		}
		if needle != "" && !matches(rec.Title, rec.Tags, needle) {
			continue
		}
		items = append(items, summarize(id, rec))
	}

	sortArticles(items, q.SortKey, q.SortOrder, newCollator(s.list.Collation))

	size := s.list.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	total := len(items)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	return &ListResult{
		Articles:    items[start:end],
		Total:       total,
		TotalPages:  (total + size - 1) / size,
		CurrentPage: page,
	}, nil
}

func listed(public, published, hidden bool, q ListQuery) bool {
	if !q.Admin {
		return public && published && !hidden
	}
	return !hidden || q.All
}

func matches(title string, tags []string, needle string) bool {
	if strings.Contains(strings.ToLower(title), needle) {
		return true
	}
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

func sortArticles(items []ArticleSummary, key, order string, coll *collate.Collator) {
	if key == "" {
		key = SortCreatedAt
	}
	desc := order != "asc"

	compare := func(a, b ArticleSummary) int {
		switch key {
		case SortCreatedAt:
			return timeOf(a.CreatedAt).Compare(timeOf(b.CreatedAt))
		case SortUpdatedAt:
			return timeOf(a.UpdatedAt).Compare(timeOf(b.UpdatedAt))
		case SortTitle:
			return coll.CompareString(a.Title, b.Title)
		}
		return 0
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		c := compare(a, b)
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
