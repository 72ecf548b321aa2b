package query

import (
	"iter"
	"slices"
)

// Pages splits items into consecutive pages of at most size elements.
// The final page keeps its remainder without padding. A size below one
// yields a single page holding every item.
func Pages[T any](items []T, size int) [][]T {
	var pages [][]T
	for page := range Paginate(slices.Values(items), size) {
		pages = append(pages, page)
	}
	return pages
}

// Paginate groups a sequence into pages of at most size elements, yielding
// each page as soon as it is full.
func Paginate[T any](seq iter.Seq[T], size int) iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		var page []T
		for item := range seq {
			page = append(page, item)
			if size > 0 && len(page) == size {
				if !yield(page) {
					return
				}
				page = nil
			}
		}
		if len(page) > 0 {
			yield(page)
		}
	}
}
