package models

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type PageMeta struct {
	TotalItems   int64 `json:"totalItems"`
	ItemCount    int   `json:"itemCount"`
	ItemsPerPage int   `json:"itemsPerPage"`
	TotalPages   int   `json:"totalPages"`
	CurrentPage  int   `json:"currentPage"`
}

// NormalizePage clamps page and limit to usable values.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

func NewPageMeta(total int64, itemCount, page, limit int) PageMeta {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return PageMeta{
		TotalItems:   total,
		ItemCount:    itemCount,
		ItemsPerPage: limit,
		TotalPages:   pages,
		CurrentPage:  page,
	}
}
