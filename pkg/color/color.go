// Package color parses hex color specifications and encodes them as archived
// NSColor objects.
package color

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"howett.net/plist"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/archive"
)

const (
	// ColorSpaceCalibratedRGB is the NSColorSpace code written for RGB colors.
	ColorSpaceCalibratedRGB = 1
	// ColorSpaceIDSRGB is the NSID of the sRGB NSColorSpace.
	ColorSpaceIDSRGB = 7

	componentDigits = 10
)

// ErrInvalidColorFormat indicates a color specification that is not 6 or 8
// hex digits long.
var ErrInvalidColorFormat = errors.New("invalid color format, use #RRGGBB or #RRGGBBAA")

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// Parse parses "RRGGBB" or "RRGGBBAA", with an optional leading '#' and
// surrounding whitespace. A pair that is not valid hex decodes as 0.
func Parse(spec string) (Color, error) {
	hex := strings.TrimSpace(spec)
	hex = strings.TrimPrefix(hex, "#")

	// Length is counted in characters, not bytes.
	digits := []rune(hex)
	c := Color{A: 255}

	switch len(digits) {
	case 8:
		c.A = parsePair(string(digits[6:8]))

		fallthrough
	case 6:
		c.R = parsePair(string(digits[0:2]))
		c.G = parsePair(string(digits[2:4]))
		c.B = parsePair(string(digits[4:6]))

	default:
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColorFormat, spec)
	}

	return c, nil
}

// MustParse is like [Parse] but panics on error.
func MustParse(spec string) Color {
	c, err := Parse(spec)
	if err != nil {
		panic(err)
	}

	return c
}

func parsePair(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}

	return uint8(v)
}

// Components returns the channels scaled to [0, 1].
func (c Color) Components() (r, g, b, a float64) { //nolint:nonamedreturns // Names document order.
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, float64(c.A) / 255
}

// Opaque reports whether alpha is 255.
func (c Color) Opaque() bool {
	return c.A == 255
}

// Hex returns "#rrggbb", or "#rrggbbaa" for translucent colors.
func (c Color) Hex() string {
	if c.Opaque() {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}

	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// Luminance returns the relative luminance of the sRGB channels in [0, 1],
// ignoring alpha.
func (c Color) Luminance() float64 {
	r, g, b, _ := c.Components()

	return 0.2126*linear(r) + 0.7152*linear(g) + 0.0722*linear(b)
}

func linear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}

	return math.Pow((v+0.055)/1.055, 2.4)
}

func (c Color) String() string {
	return c.Hex()
}

// Object returns the archived NSColor for c.
//
// NSRGB carries "r g b" (or "r g b a" when translucent) and NSComponents
// always carries "r g b a", both NUL terminated. NSCustomColorSpace refers to
// the sRGB color space.
func (c Color) Object() *archive.Object {
	r, g, b, a := c.Components()

	rgb := []float64{r, g, b}
	if !c.Opaque() {
		rgb = append(rgb, a)
	}

	space := archive.NewObject("NSColorSpace", "NSObject").
		Set("NSID", ColorSpaceIDSRGB)

	return archive.NewObject("NSColor", "NSObject").
		Set("NSColorSpace", ColorSpaceCalibratedRGB).
		Set("NSRGB", componentBytes(rgb...)).
		Set("NSComponents", componentBytes(r, g, b, a)).
		Set("NSCustomColorSpace", archive.Ref{Value: space})
}

// Encode returns c as a binary keyed archive, the value Terminal.app expects
// for color keys.
func Encode(c Color) ([]byte, error) {
	b, err := archive.Marshal(c.Object(), plist.BinaryFormat)
	if err != nil {
		return nil, fmt.Errorf("encode color %s: %w", c.Hex(), err)
	}

	return b, nil
}

// ParseAndEncode parses spec and returns its archived form.
func ParseAndEncode(spec string) ([]byte, error) {
	c, err := Parse(spec)
	if err != nil {
		return nil, err
	}

	return Encode(c)
}

func componentBytes(vs ...float64) []byte {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', componentDigits, 64)
	}

	return append([]byte(strings.Join(parts, " ")), 0)
}

// Decode reads a color written by [Encode]. Colors are read from
// NSComponents, so archives without it are rejected.
func Decode(data []byte) (Color, error) {
	d, err := archive.Unmarshal(data)
	if err != nil {
		return Color{}, fmt.Errorf("decode color: %w", err)
	}

	obj, err := d.RootObject()
	if err != nil {
		return Color{}, fmt.Errorf("decode color: %w", err)
	}

	cls, err := d.ClassName(obj)
	if err != nil {
		return Color{}, fmt.Errorf("decode color: %w", err)
	}

	if cls != "NSColor" {
		return Color{}, fmt.Errorf("decode color: %w: root is %s", archive.ErrMalformedArchive, cls)
	}

	raw, ok := obj["NSComponents"].([]byte)
	if !ok {
		return Color{}, fmt.Errorf("decode color: %w: missing NSComponents", archive.ErrMalformedArchive)
	}

	fields := strings.Fields(strings.TrimRight(string(raw), "\x00"))
	if len(fields) != 4 {
		return Color{}, fmt.Errorf("decode color: %w: want 4 components, got %d",
			archive.ErrMalformedArchive, len(fields))
	}

	var ch [4]uint8

	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 0 || v > 1 {
			return Color{}, fmt.Errorf("decode color: %w: component %q", archive.ErrMalformedArchive, f)
		}

		ch[i] = uint8(math.Round(v * 255))
	}

	return Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}
