package config

import (
	"regexp"
	"strconv"
	"strings"
)

// Fallback pixels used when a configured color cannot be resolved.
const (
	FallbackActiveBorder   uint32 = 0xa0522d // sienna
	FallbackInactiveBorder uint32 = 0xd3d3d3 // lightgray
	FallbackBarBackground  uint32 = 0xffffff
	FallbackBarForeground  uint32 = 0x000000
	FallbackRootBackground uint32 = 0x708090 // slategray
)

var namedColors = map[string]uint32{
	"red":            0xff0000,
	"sienna":         0xa0522d,
	"tan":            0xd2b48c,
	"green":          0x00ff00,
	"blue":           0x0000ff,
	"white":          0xffffff,
	"gainsboro":      0xdcdcdc,
	"lightgray":      0xd3d3d3,
	"darkgray":       0xa9a9a9,
	"gray":           0x808080,
	"dimgray":        0x696969,
	"lightslategray": 0x778899,
	"slategray":      0x708090,
	"darkslategray":  0x2f4f4f,
	"black":          0x000000,
}

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)

// LookupColor resolves a color name or #rgb / #rrggbb code to a 24-bit
// 0xRRGGBB pixel, suitable as-is on TrueColor visuals.
func LookupColor(spec string) (uint32, bool) {
	spec = strings.TrimSpace(spec)
	if pixel, ok := namedColors[strings.ToLower(spec)]; ok {
		return pixel, true
	}
	if !hexColorPattern.MatchString(spec) {
		return 0, false
	}

	digits := spec[1:]
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// ResolveColor is LookupColor with a fallback for unresolvable specs.
func ResolveColor(spec string, fallback uint32) uint32 {
	if pixel, ok := LookupColor(spec); ok {
		return pixel
	}
	return fallback
}
