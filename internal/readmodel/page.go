package readmodel

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultPage is used when the caller does not ask for a page.
	DefaultPage = 1
	// DefaultLimit is used when the caller does not ask for a page size.
	DefaultLimit = 10
	// MaxLimit bounds the page size a caller may request.
	MaxLimit = 100
)

// ErrInvalidPage indicates page or limit is not a positive integer.
var ErrInvalidPage = errors.New("page and limit must be positive integers")

// ErrInvalidSort indicates an unknown sort field or direction.
var ErrInvalidSort = errors.New("unsupported sort field or direction")

// Page selects the window [(Page-1)*Limit, Page*Limit) of an ordered result.
type Page struct {
	Page  int
	Limit int
}

// DefaultPageRequest returns page 1 with the default limit.
func DefaultPageRequest() Page {
	return Page{Page: DefaultPage, Limit: DefaultLimit}
}

// ParsePage reads page and limit from raw query values. Empty values fall back
// to the defaults; limits above MaxLimit are clamped.
func ParsePage(rawPage, rawLimit string) (Page, error) {
	p := DefaultPageRequest()

	if v := strings.TrimSpace(rawPage); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Page{}, ErrInvalidPage
		}
		p.Page = n
	}
	if v := strings.TrimSpace(rawLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Page{}, ErrInvalidPage
		}
		p.Limit = min(n, MaxLimit)
	}
	return p, nil
}

// Offset is the number of rows skipped before the window starts. It saturates
// at math.MaxInt so a page far past the end still yields an empty window.
func (p Page) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

func (p Page) normalized() Page {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	return p
}

// Direction orders a sorted read model.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// ParseDirection accepts "asc" or "desc" in any case; empty means descending.
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return Descending, nil
	case "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	default:
		return "", ErrInvalidSort
	}
}

// VideoSortField names the columns a video feed may be sorted by.
type VideoSortField string

const (
	SortByCreatedAt VideoSortField = "createdAt"
	SortByViews     VideoSortField = "views"
	SortByDuration  VideoSortField = "duration"
	SortByTitle     VideoSortField = "title"
)

var videoSortColumns = map[VideoSortField]string{
	SortByCreatedAt: "created_at",
	SortByViews:     "views",
	SortByDuration:  "duration",
	SortByTitle:     "title",
}

// ParseVideoSortField accepts one of the VideoSortField values; empty means createdAt.
func ParseVideoSortField(raw string) (VideoSortField, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SortByCreatedAt, nil
	}
	field := VideoSortField(raw)
	if _, ok := videoSortColumns[field]; !ok {
		return "", ErrInvalidSort
	}
	return field, nil
}
