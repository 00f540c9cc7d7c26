package kernel_test

import (
	"testing"

	"github.com/Abraxas-365/jobsched/pkg/kernel"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name    string
		opts    kernel.PaginationOptions
		want    []int
		pages   int
		hasNext bool
	}{
		{"first page", kernel.PaginationOptions{Page: 1, PageSize: 3}, []int{1, 2, 3}, 3, true},
		{"last partial page", kernel.PaginationOptions{Page: 3, PageSize: 3}, []int{7}, 3, false},
		{"past the end", kernel.PaginationOptions{Page: 9, PageSize: 3}, []int{}, 3, false},
		{"defaults", kernel.PaginationOptions{}, items, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := kernel.Paginate(items, tt.opts)
			if len(p.Items) != len(tt.want) {
				t.Fatalf("items = %v, want %v", p.Items, tt.want)
			}
			for i := range tt.want {
				if p.Items[i] != tt.want[i] {
					t.Fatalf("items = %v, want %v", p.Items, tt.want)
				}
			}
			if p.Page.Pages != tt.pages || p.HasNext() != tt.hasNext || p.Page.Total != len(items) {
				t.Fatalf("unexpected page %+v", p.Page)
			}
			if p.Empty != (len(tt.want) == 0) {
				t.Fatalf("empty = %v", p.Empty)
			}
		})
	}
}

func TestPaginationOptions_Normalize(t *testing.T) {
	o := kernel.PaginationOptions{Page: -2, PageSize: 10000}.Normalize()
	if o.Page != 1 || o.PageSize != kernel.MaxPageSize {
		t.Fatalf("unexpected options %+v", o)
	}
}
