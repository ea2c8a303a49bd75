package sheet

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func codesN(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("C%03d", i)
	}
	return out
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name    string
		codes   []string
		columns int
		rows    int
		want    [][]string
	}{
		{
			name:    "empty",
			codes:   nil,
			columns: 3,
			rows:    8,
			want:    nil,
		},
		{
			name:    "partial single page",
			codes:   []string{"A", "B", "C", "D", "E"},
			columns: 3,
			rows:    8,
			want:    [][]string{{"A", "B", "C", "D", "E"}},
		},
		{
			name:    "exact fill",
			codes:   []string{"A", "B", "C", "D"},
			columns: 2,
			rows:    2,
			want:    [][]string{{"A", "B", "C", "D"}},
		},
		{
			name:    "overflow",
			codes:   []string{"A", "B", "C", "D", "E"},
			columns: 2,
			rows:    2,
			want:    [][]string{{"A", "B", "C", "D"}, {"E"}},
		},
		{
			name:    "zero grid treated as one",
			codes:   []string{"A", "B"},
			columns: 0,
			rows:    -3,
			want:    [][]string{{"A"}, {"B"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := Paginate(tt.codes, tt.columns, tt.rows)
			var got [][]string
			for i, p := range pages {
				if p.Index != i {
					t.Errorf("page %d has Index %d", i, p.Index)
				}
				if p.Placeholder {
					t.Errorf("page %d marked as placeholder", i)
				}
				got = append(got, p.Codes)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Paginate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPaginateLossless(t *testing.T) {
	for _, n := range []int{1, 2, 23, 24, 25, 48, 49, 100} {
		for _, grid := range [][2]int{{1, 1}, {3, 8}, {2, 7}, {5, 13}} {
			codes := codesN(n)
			pages := Paginate(codes, grid[0], grid[1])

			per := grid[0] * grid[1]
			wantPages := (n + per - 1) / per
			if len(pages) != wantPages {
				t.Fatalf("n=%d grid=%v: got %d pages, want %d", n, grid, len(pages), wantPages)
			}
			if got := PageCount(n, grid[0], grid[1]); got != wantPages {
				t.Errorf("PageCount(%d, %v) = %d, want %d", n, grid, got, wantPages)
			}

			var joined []string
			for i, p := range pages {
				if len(p.Codes) == 0 || len(p.Codes) > per {
					t.Errorf("n=%d grid=%v: page %d holds %d codes", n, grid, i, len(p.Codes))
				}
				if i < len(pages)-1 && len(p.Codes) != per {
					t.Errorf("n=%d grid=%v: non-final page %d not full", n, grid, i)
				}
				joined = append(joined, p.Codes...)
			}
			if diff := cmp.Diff(codes, joined); diff != "" {
				t.Errorf("n=%d grid=%v: concatenation mismatch (-want +got):\n%s", n, grid, diff)
			}
		}
	}
}

func TestPaginateRepartition(t *testing.T) {
	codes := codesN(30)

	before := Paginate(codes, 3, 8)
	if len(before) != 2 {
		t.Fatalf("3x8: got %d pages, want 2", len(before))
	}

	after := Paginate(codes, 2, 5)
	if len(after) != 3 {
		t.Fatalf("2x5: got %d pages, want 3", len(after))
	}
	if diff := cmp.Diff(codes[10:20], after[1].Codes); diff != "" {
		t.Errorf("second page after regrid (-want +got):\n%s", diff)
	}
}

func TestPaginateDoesNotShareCapacity(t *testing.T) {
	codes := codesN(5)
	pages := Paginate(codes, 2, 1)
	_ = append(pages[0].Codes, "X")
	if codes[2] != "C002" {
		t.Errorf("appending to page 0 overwrote input: %q", codes[2])
	}
}

func TestPreview(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		pages := Preview(nil, 3, 8)
		want := []Page{{Index: 0, Codes: []string{PlaceholderCode}, Placeholder: true}}
		if diff := cmp.Diff(want, pages); diff != "" {
			t.Errorf("Preview(nil) mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("non-empty", func(t *testing.T) {
		codes := codesN(3)
		if diff := cmp.Diff(Paginate(codes, 3, 8), Preview(codes, 3, 8)); diff != "" {
			t.Errorf("Preview differs from Paginate (-want +got):\n%s", diff)
		}
	})
}

func TestPageCountEmpty(t *testing.T) {
	if got := PageCount(0, 3, 8); got != 0 {
		t.Errorf("PageCount(0) = %d, want 0", got)
	}
	if got := PageCount(-1, 3, 8); got != 0 {
		t.Errorf("PageCount(-1) = %d, want 0", got)
	}
}
