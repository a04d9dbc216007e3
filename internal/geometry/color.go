package geometry

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an opaque RGB triple. Opacity travels separately as a byte.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// Black is the default dimming color.
var Black = Color{}

// ParseHex accepts "#RRGGBB", "RRGGBB" and the short "#RGB" form.
func ParseHex(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid color %q: expected #RRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Hex formats the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Pixel packs the color as 0x00RRGGBB, the layout of a 24-bit TrueColor
// visual.
func (c Color) Pixel() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// OpacityByte converts a 0.0-1.0 opacity to 0-255, clamping out-of-range
// input. The conversion truncates: 0.6 -> 153, 0.4 -> 102.
func OpacityByte(opacity float64) uint8 {
	if opacity != opacity || opacity <= 0 {
		return 0
	}
	if opacity >= 1 {
		return 255
	}
	return uint8(opacity * 255)
}

// OpacityFraction is the inverse of OpacityByte.
func OpacityFraction(b uint8) float64 {
	return float64(b) / 255
}
