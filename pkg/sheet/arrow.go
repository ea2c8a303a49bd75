package sheet

import (
	"strings"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

// Arrow is the orientation marker printed next to a code, used on shelf
// labels to point at the product the label belongs to.
type Arrow string

// Supported arrow markers.
const (
	ArrowNone  Arrow = "none"
	ArrowUp    Arrow = "up"
	ArrowDown  Arrow = "down"
	ArrowLeft  Arrow = "left"
	ArrowRight Arrow = "right"
)

// Arrows lists every arrow option in display order.
var Arrows = []Arrow{ArrowNone, ArrowUp, ArrowDown, ArrowLeft, ArrowRight}

// ParseArrow parses an arrow option case-insensitively.
// An empty string means ArrowNone.
func ParseArrow(s string) (Arrow, error) {
	switch a := Arrow(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return ArrowNone, nil
	case ArrowNone, ArrowUp, ArrowDown, ArrowLeft, ArrowRight:
		return a, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput,
			"invalid arrow: %q (must be one of: none, up, down, left, right)", s)
	}
}

// Visible reports whether the marker draws anything.
func (a Arrow) Visible() bool {
	return a != "" && a != ArrowNone
}
