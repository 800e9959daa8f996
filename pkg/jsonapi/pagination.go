package jsonapi

import (
	"net/url"
	"strconv"
)

const (
	// DefaultPerPage is the grid page size when the request names none.
	DefaultPerPage = 15
	// MaxPerPage caps client supplied page sizes.
	MaxPerPage = 100
)

// Pagination describes one page of a grid.
type Pagination struct {
	Total   int64
	Page    int // 1-based
	PerPage int
	// URL is the request URL the paging links are derived from. Its other
	// query parameters, such as filters, are kept.
	URL string
}

func NewPagination(total int64, page, perPage int, requestURL string) *Pagination {
	return &Pagination{
		Total:   total,
		Page:    max(page, 1),
		PerPage: orDefault(perPage, DefaultPerPage),
		URL:     requestURL,
	}
}

// TotalPages is at least 1 so an empty grid still has a first page.
func (p *Pagination) TotalPages() int {
	pages := int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
	return max(pages, 1)
}

func (p *Pagination) HasPrev() bool { return p.Page > 1 }

func (p *Pagination) HasNext() bool { return p.Page < p.TotalPages() }

// Links returns the paging links, all empty when URL is not set.
func (p *Pagination) Links() *Links {
	links := &Links{
		Self:  p.pageURL(p.Page),
		First: p.pageURL(1),
		Last:  p.pageURL(p.TotalPages()),
	}
	if p.HasPrev() {
		links.Prev = p.pageURL(p.Page - 1)
	}
	if p.HasNext() {
		links.Next = p.pageURL(p.Page + 1)
	}
	return links
}

// pageURL rewrites the request URL to the grid style page/perPage pair.
func (p *Pagination) pageURL(page int) string {
	if p.URL == "" {
		return ""
	}
	u, err := url.Parse(p.URL)
	if err != nil {
		return p.URL
	}
	q := u.Query()
	q.Del("page[number]")
	q.Del("page[size]")
	q.Set("page", strconv.Itoa(page))
	q.Set("perPage", strconv.Itoa(p.PerPage))
	u.RawQuery = q.Encode()
	return u.String()
}

func (p *Pagination) Meta() Meta {
	return Meta{
		"total":    p.Total,
		"page":     p.Page,
		"per_page": p.PerPage,
		"pages":    p.TotalPages(),
	}
}

// ParsePaginationParams reads page and perPage from a grid query, falling
// back to JSON:API page[number] and page[size]. Zero means not given.
func ParsePaginationParams(query url.Values) (page, perPage int) {
	page = firstPositive(query.Get("page"), query.Get("page[number]"))
	perPage = min(firstPositive(query.Get("perPage"), query.Get("page[size]")), MaxPerPage)
	return page, perPage
}

func firstPositive(values ...string) int {
	for _, v := range values {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// orDefault returns v, or def when v is not positive.
func orDefault(v, def int) int {
	if v < 1 {
		return def
	}
	return v
}
