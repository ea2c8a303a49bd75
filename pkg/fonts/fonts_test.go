package fonts

import (
	"testing"

	"github.com/golang/freetype/truetype"
)

func TestFaces(t *testing.T) {
	for name, load := range map[string]func() (*truetype.Font, error){
		"regular": Regular,
		"mono":    Mono,
	} {
		t.Run(name, func(t *testing.T) {
			f, err := load()
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			again, _ := load()
			if again != f {
				t.Error("font parsed twice")
			}
			face := Face(f, 10, 150)
			if h := face.Metrics().Height.Ceil(); h <= 0 {
				t.Errorf("line height = %d", h)
			}
		})
	}
}
