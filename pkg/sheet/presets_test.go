package sheet

import (
	"testing"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

func TestBuiltinPresetsFitPage(t *testing.T) {
	for _, p := range Presets() {
		t.Run(p.Name, func(t *testing.T) {
			g := DefaultGrid().ApplyPreset(p)
			if err := g.Validate(); err != nil {
				t.Fatalf("Validate() = %v", err)
			}
			bottom := p.MarginTop + float64(p.Rows)*p.RowHeight
			if bottom > PageHeightMM+0.01 {
				t.Errorf("rows end at %.2fmm, beyond page height", bottom)
			}
			if p.PerPage() != p.Columns*p.Rows {
				t.Errorf("PerPage() = %d", p.PerPage())
			}
		})
	}
}

func TestPresetsReturnsCopy(t *testing.T) {
	a := Presets()
	a[0].Columns = 99
	if Presets()[0].Columns == 99 {
		t.Error("Presets() exposes internal slice")
	}
}

func TestCatalogLookup(t *testing.T) {
	c := NewCatalog()
	p, err := c.Lookup("  AVERY-L7160 ")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if p.Rows != 7 {
		t.Errorf("Rows = %d, want 7", p.Rows)
	}

	_, err = c.Lookup("nope")
	if !errors.Is(err, errors.ErrCodeInvalidPreset) {
		t.Errorf("Lookup(unknown) error = %v, want %s", err, errors.ErrCodeInvalidPreset)
	}
}

func TestNewCatalogExtras(t *testing.T) {
	builtin := len(Presets())
	c := NewCatalog(
		Preset{Name: "zeta", Columns: 1, Rows: 1, RowHeight: 10},
		Preset{Name: "default", Columns: 4, Rows: 10, RowHeight: 25},
		Preset{Name: "alpha", Columns: 2, Rows: 2, RowHeight: 10},
	)

	all := c.All()
	if len(all) != builtin+2 {
		t.Fatalf("got %d presets, want %d", len(all), builtin+2)
	}
	if all[0].Name != "default" || all[0].Columns != 4 {
		t.Errorf("default not overridden in place: %+v", all[0])
	}
	if all[builtin].Name != "alpha" || all[builtin+1].Name != "zeta" {
		t.Errorf("extras not appended sorted: %s, %s", all[builtin].Name, all[builtin+1].Name)
	}

	p, _ := LookupPreset("default")
	if p.Columns != DefaultColumns {
		t.Error("override leaked into built-in catalog")
	}
}
