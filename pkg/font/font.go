// Package font resolves font names against a registry of installed fonts and
// encodes the result as an archived NSFont.
//
// Resolution is best effort: the first candidate known to the [Registry] wins,
// and when none is known the monospaced system font is used instead. It never
// fails.
package font

import (
	"fmt"
	"strings"

	"howett.net/plist"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/archive"
)

const (
	// SystemMonospacedName is the name NSFont reports for
	// monospacedSystemFont(ofSize:weight: .regular).
	SystemMonospacedName = ".AppleSystemUIFontMonospaced-Regular"

	// DefaultFlags is the NSfFlags value written for every font.
	DefaultFlags = 16
)

// Descriptor identifies a concrete font at a point size.
type Descriptor struct {
	Name  string
	Size  float64
	Flags int
}

// SystemMonospaced returns the monospaced system font at size.
func SystemMonospaced(size float64) Descriptor {
	return Descriptor{Name: SystemMonospacedName, Size: size, Flags: DefaultFlags}
}

// IsSystemDefault reports whether d is the monospaced system fallback.
func (d Descriptor) IsSystemDefault() bool {
	return d.Name == SystemMonospacedName
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s %gpt", d.Name, d.Size)
}

// Object returns the archived NSFont for d.
func (d Descriptor) Object() *archive.Object {
	return archive.NewObject("NSFont", "NSObject").
		Set("NSName", archive.Ref{Value: d.Name}).
		Set("NSSize", d.Size).
		Set("NSfFlags", d.Flags)
}

// Encode returns d as a binary keyed archive, the value Terminal.app expects
// for the Font key.
func Encode(d Descriptor) ([]byte, error) {
	b, err := archive.Marshal(d.Object(), plist.BinaryFormat)
	if err != nil {
		return nil, fmt.Errorf("encode font %s: %w", d, err)
	}

	return b, nil
}

// Decode reads a font written by [Encode].
func Decode(data []byte) (Descriptor, error) {
	d, err := archive.Unmarshal(data)
	if err != nil {
		return Descriptor{}, fmt.Errorf("decode font: %w", err)
	}

	obj, err := d.RootObject()
	if err != nil {
		return Descriptor{}, fmt.Errorf("decode font: %w", err)
	}

	cls, err := d.ClassName(obj)
	if err != nil {
		return Descriptor{}, fmt.Errorf("decode font: %w", err)
	}

	if cls != "NSFont" {
		return Descriptor{}, fmt.Errorf("decode font: %w: root is %s", archive.ErrMalformedArchive, cls)
	}

	uid, ok := obj["NSName"].(plist.UID)
	if !ok {
		return Descriptor{}, fmt.Errorf("decode font: %w: missing NSName", archive.ErrMalformedArchive)
	}

	name, err := d.String(uid)
	if err != nil {
		return Descriptor{}, fmt.Errorf("decode font: %w", err)
	}

	size, ok := number(obj["NSSize"])
	if !ok {
		return Descriptor{}, fmt.Errorf("decode font: %w: missing NSSize", archive.ErrMalformedArchive)
	}

	flags, _ := number(obj["NSfFlags"])

	return Descriptor{Name: name, Size: size, Flags: int(flags)}, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Registry looks up installed fonts.
type Registry interface {
	// Lookup returns the name to archive for name, and whether the font is
	// available.
	Lookup(name string) (string, bool)
}

// Resolver picks the first available font from a candidate list.
type Resolver struct {
	registry Registry
}

// NewResolver creates a [Resolver] backed by registry. A nil registry knows no
// fonts, so every resolution returns the system default.
func NewResolver(registry Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve returns the first candidate known to the registry at size, or the
// monospaced system font at size.
func (r *Resolver) Resolve(candidates []string, size float64) Descriptor {
	if r.registry != nil {
		for _, name := range candidates {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}

			if resolved, ok := r.registry.Lookup(name); ok {
				return Descriptor{Name: resolved, Size: size, Flags: DefaultFlags}
			}
		}
	}

	return SystemMonospaced(size)
}
