package models

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page holds pagination parameters for listing queries.
// Listings are ordered by creation time, newest first.
type Page struct {
	Number int `json:"page"`
	Size   int `json:"size"`
}

// Normalize clamps the page parameters to sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	return p.Number * p.Size
}
