package util

import "strconv"

const (
	DefaultPageSize = 10
	ProductPageSize = 12
	MaxPageSize     = 100
)

type Page struct {
	Page   int
	Limit  int
	Offset int
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// Calculate clamps page to at least 1 and size into 1..MaxPageSize,
// falling back to def when size is unusable.
func Calculate(page, size, def int) Page {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = def
	}
	return Page{Page: page, Limit: size, Offset: (page - 1) * size}
}

func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
