// Package render turns plot pages into chart images. It owns the color
// assignment rule and the adapter onto gonum.org/v1/plot.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ErrUnknownColor indicates a color string that is neither a CSS color name
// nor a #rgb / #rrggbb hex value.
var ErrUnknownColor = errors.New("unknown color")

// ParseColor resolves a CSS color name ("royalblue") or a hex value
// ("#4169e1", "#41e") to an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(name, "#") {
		return parseHex(name[1:], s)
	}
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	return color.RGBA{}, fmt.Errorf("%w: %q", ErrUnknownColor, s)
}

func parseHex(hex, orig string) (color.RGBA, error) {
	switch len(hex) {
	case 3:
		// #rgb expands each digit: #41e == #4411ee
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrUnknownColor, orig)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrUnknownColor, orig)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
