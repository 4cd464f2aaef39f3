package navi

// ListSource is a cursor over fixed-size pages of a slice.
type ListSource[T any] struct {
	items   []T
	perPage int
	index   int
}

// NewListSource creates a source over items. A perPage below one shows one
// item per page.
func NewListSource[T any](items []T, perPage int) *ListSource[T] {
	if perPage < 1 {
		perPage = 1
	}

	return &ListSource[T]{
		items:   items,
		perPage: perPage,
	}
}

// MaxPages returns the number of pages, never less than one.
func (s *ListSource[T]) MaxPages() int {
	return max(1, (len(s.items)+s.perPage-1)/s.perPage)
}

// Index returns the zero-based current page.
func (s *ListSource[T]) Index() int {
	return s.index
}

// Peek returns the current page without moving.
func (s *ListSource[T]) Peek() []T {
	return s.slice()
}

// JumpFirst moves to the first page.
func (s *ListSource[T]) JumpFirst() []T {
	s.index = 0
	return s.slice()
}

// Previous moves back one page, stopping at the first.
func (s *ListSource[T]) Previous() []T {
	s.index = max(s.index-1, 0)
	return s.slice()
}

// Next moves forward one page, stopping at the last.
func (s *ListSource[T]) Next() []T {
	s.index = min(s.index+1, s.MaxPages()-1)
	return s.slice()
}

// JumpLast moves to the last page.
func (s *ListSource[T]) JumpLast() []T {
	s.index = s.MaxPages() - 1
	return s.slice()
}

// Seek moves to page n, clamped into range.
func (s *ListSource[T]) Seek(n int) []T {
	s.index = min(max(n, 0), s.MaxPages()-1)
	return s.slice()
}

func (s *ListSource[T]) slice() []T {
	start := min(s.index*s.perPage, len(s.items))
	end := min(start+s.perPage, len(s.items))

	return s.items[start:end]
}
