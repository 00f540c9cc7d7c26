package kernel

// Page describes one page of a listing.
type Page struct {
	Number int `json:"page"`      // 1-based
	Size   int `json:"page_size"` // items per page
	Total  int `json:"total"`     // items across all pages
	Pages  int `json:"pages"`
}

// Paginated is one page of items plus its metadata.
type Paginated[T any] struct {
	Items []T  `json:"items"`
	Page  Page `json:"pagination"`
	Empty bool `json:"empty"`
}

// PaginationOptions selects a page. Zero values mean the defaults.
type PaginationOptions struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Normalize clamps the options into a valid range.
func (o PaginationOptions) Normalize() PaginationOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	return o
}

// Offset is the index of the first item of the page.
func (o PaginationOptions) Offset() int {
	o = o.Normalize()
	return (o.Page - 1) * o.PageSize
}

// Paginate cuts the page selected by opts out of all.
func Paginate[T any](all []T, opts PaginationOptions) Paginated[T] {
	opts = opts.Normalize()
	total := len(all)

	start := min(opts.Offset(), total)
	end := min(start+opts.PageSize, total)
	items := all[start:end]

	return Paginated[T]{
		Items: items,
		Page: Page{
			Number: opts.Page,
			Size:   opts.PageSize,
			Total:  total,
			Pages:  (total + opts.PageSize - 1) / opts.PageSize,
		},
		Empty: len(items) == 0,
	}
}

// HasNext reports whether a later page exists.
func (p Paginated[T]) HasNext() bool {
	return p.Page.Number < p.Page.Pages
}
