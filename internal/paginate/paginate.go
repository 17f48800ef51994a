// Package paginate slices an already ordered sequence into fixed-size pages.
package paginate

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrOutOfRange = errors.New("page out of range")

type Page[T any] struct {
	Items      []T
	Number     int
	Size       int
	TotalItems int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

func (p Page[T]) NextNumber() int { return p.Number + 1 }
func (p Page[T]) PrevNumber() int { return p.Number - 1 }

// StartIndex is the 1-based position of the first item on the page, 0 when
// the page is empty.
func (p Page[T]) StartIndex() int {
	if len(p.Items) == 0 {
		return 0
	}
	return (p.Number-1)*p.Size + 1
}

// Paginate returns page number of items split into pages of size. An empty
// sequence still has one, empty, first page. Numbers below 1 or past the
// last page fail with ErrOutOfRange.
func Paginate[T any](items []T, size, number int) (Page[T], error) {
	if size <= 0 {
		return Page[T]{}, errors.Errorf("page size must be positive, got %d", size)
	}
	total := len(items)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if number < 1 || number > pages {
		return Page[T]{}, errors.Wrapf(ErrOutOfRange, "page %d of %d", number, pages)
	}

	start := (number - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	return Page[T]{
		Items:      items[start:end],
		Number:     number,
		Size:       size,
		TotalItems: total,
		TotalPages: pages,
		HasNext:    number < pages,
		HasPrev:    number > 1,
	}, nil
}

// ParsePageNumber reads the "page" query value. Missing or non-numeric
// values mean the first page; numeric values are returned as-is so that
// Paginate can reject them.
func ParsePageNumber(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return n
}
