package service

import "math"

// Pagination selects one page of a list. Page is 1-based.
type Pagination struct {
	Page  int
	Limit int
}

const (
	// MaxPageSize caps client supplied limits.
	MaxPageSize = 100
	// MaxPage keeps page offsets from overflowing int.
	MaxPage = math.MaxInt / MaxPageSize
)

// Normalize clamps p to a valid page using defaultLimit when no limit was given.
func (p Pagination) Normalize(defaultLimit int) Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
