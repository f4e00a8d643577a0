package font

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-text/typesetting/fontscan"

	gotext "github.com/go-text/typesetting/font"
)

// MapRegistry is a fixed set of font names. Names are compared the way font
// families are, ignoring case and spaces.
type MapRegistry struct {
	names map[string]string
}

// NewMapRegistry creates a [MapRegistry] containing names.
func NewMapRegistry(names ...string) *MapRegistry {
	r := &MapRegistry{names: make(map[string]string, len(names))}
	for _, name := range names {
		r.names[gotext.NormalizeFamily(name)] = name
	}

	return r
}

// Lookup implements [Registry]. The candidate is returned as given.
func (r *MapRegistry) Lookup(name string) (string, bool) {
	_, ok := r.names[gotext.NormalizeFamily(name)]
	if !ok {
		return "", false
	}

	return name, true
}

// SystemRegistry looks fonts up among the fonts installed on the host, as
// indexed by [fontscan]. The index is built on first use and cached on disk.
//
// SystemRegistry is safe for concurrent use.
type SystemRegistry struct {
	loadErr  error
	logger   *slog.Logger
	faces    map[string][]gotext.Aspect
	cache    map[string]bool
	cacheDir string
	once     sync.Once
	mu       sync.Mutex
}

// SystemRegistryOpt configures a [SystemRegistry].
type SystemRegistryOpt func(*SystemRegistry)

// WithCacheDir sets the directory for the font index cache.
func WithCacheDir(dir string) SystemRegistryOpt {
	return func(r *SystemRegistry) {
		if dir != "" {
			r.cacheDir = dir
		}
	}
}

// WithLogger sets the logger used for scan diagnostics.
func WithLogger(logger *slog.Logger) SystemRegistryOpt {
	return func(r *SystemRegistry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFootprints uses footprints instead of scanning the system fonts.
func WithFootprints(footprints ...fontscan.Footprint) SystemRegistryOpt {
	return func(r *SystemRegistry) {
		r.index(footprints)
		r.once.Do(func() {})
	}
}

// NewSystemRegistry creates a [SystemRegistry]. No fonts are scanned until the
// first lookup.
func NewSystemRegistry(opts ...SystemRegistryOpt) *SystemRegistry {
	r := &SystemRegistry{
		cacheDir: defaultCacheDir(),
		logger:   slog.Default(),
		cache:    map[string]bool{},
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Lookup implements [Registry].
//
// A family name matches when any face of the family is installed. PostScript
// style names such as "Menlo-Bold" match only when the family has a face with
// that style; unknown style words never match. If the system fonts cannot be
// scanned, every lookup misses.
func (r *SystemRegistry) Lookup(name string) (string, bool) {
	r.once.Do(r.load)

	if r.loadErr != nil {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	found, ok := r.cache[name]
	if !ok {
		found = r.find(name)
		r.cache[name] = found
	}

	if !found {
		return "", false
	}

	return name, true
}

// Err returns the error from scanning the system fonts, if any.
func (r *SystemRegistry) Err() error {
	r.once.Do(r.load)

	return r.loadErr
}

func (r *SystemRegistry) find(name string) bool {
	if len(r.faces[gotext.NormalizeFamily(name)]) > 0 {
		return true
	}

	family, style, ok := cutStyle(name)
	if !ok {
		return false
	}

	want, ok := parseStyle(style)
	if !ok {
		return false
	}

	for _, aspect := range r.faces[gotext.NormalizeFamily(family)] {
		aspect.SetDefaults()
		if aspect == want {
			return true
		}
	}

	return false
}

func (r *SystemRegistry) load() {
	footprints, err := fontscan.SystemFonts(printfLogger{r.logger}, r.cacheDir)
	if err != nil {
		r.loadErr = fmt.Errorf("scan system fonts: %w", err)
		r.logger.Warn("system fonts unavailable, using default font",
			slog.String("cache", r.cacheDir),
			slog.Any("err", err),
		)

		return
	}

	r.index(footprints)

	r.logger.Debug("loaded system font index",
		slog.String("cache", r.cacheDir),
		slog.Int("families", len(r.faces)),
	)
}

// index records the aspect of each face by normalized family. Footprint
// families are already normalized.
func (r *SystemRegistry) index(footprints []fontscan.Footprint) {
	r.faces = make(map[string][]gotext.Aspect)
	for _, fp := range footprints {
		family := gotext.NormalizeFamily(fp.Family)
		r.faces[family] = append(r.faces[family], fp.Aspect)
	}
}

// cutStyle splits "Family-Style" at the last dash.
func cutStyle(name string) (string, string, bool) {
	i := strings.LastIndex(name, "-")
	if i <= 0 || i == len(name)-1 {
		return "", "", false
	}

	return name[:i], name[i+1:], true
}

// styleWords maps the words of a PostScript style suffix to the part of the
// aspect they set. Longer words are listed before their prefixes.
var styleWords = []struct {
	set  func(*gotext.Aspect)
	word string
}{
	{word: "ultracondensed", set: stretch(gotext.StretchUltraCondensed)},
	{word: "extracondensed", set: stretch(gotext.StretchExtraCondensed)},
	{word: "semicondensed", set: stretch(gotext.StretchSemiCondensed)},
	{word: "condensed", set: stretch(gotext.StretchCondensed)},
	{word: "semiexpanded", set: stretch(gotext.StretchSemiExpanded)},
	{word: "extraexpanded", set: stretch(gotext.StretchExtraExpanded)},
	{word: "ultraexpanded", set: stretch(gotext.StretchUltraExpanded)},
	{word: "expanded", set: stretch(gotext.StretchExpanded)},
	{word: "extralight", set: weight(gotext.WeightExtraLight)},
	{word: "ultralight", set: weight(gotext.WeightExtraLight)},
	{word: "light", set: weight(gotext.WeightLight)},
	{word: "thin", set: weight(gotext.WeightThin)},
	{word: "hairline", set: weight(gotext.WeightThin)},
	{word: "regular", set: weight(gotext.WeightNormal)},
	{word: "normal", set: weight(gotext.WeightNormal)},
	{word: "roman", set: weight(gotext.WeightNormal)},
	{word: "medium", set: weight(gotext.WeightMedium)},
	{word: "semibold", set: weight(gotext.WeightSemibold)},
	{word: "demibold", set: weight(gotext.WeightSemibold)},
	{word: "extrabold", set: weight(gotext.WeightExtraBold)},
	{word: "ultrabold", set: weight(gotext.WeightExtraBold)},
	{word: "bold", set: weight(gotext.WeightBold)},
	{word: "heavy", set: weight(gotext.WeightBlack)},
	{word: "black", set: weight(gotext.WeightBlack)},
	{word: "italic", set: slant(gotext.StyleItalic)},
	{word: "oblique", set: slant(gotext.StyleItalic)},
}

func stretch(v gotext.Stretch) func(*gotext.Aspect) {
	return func(a *gotext.Aspect) { a.Stretch = v }
}

func weight(v gotext.Weight) func(*gotext.Aspect) {
	return func(a *gotext.Aspect) { a.Weight = v }
}

func slant(v gotext.Style) func(*gotext.Aspect) {
	return func(a *gotext.Aspect) { a.Style = v }
}

// parseStyle reads a style suffix such as "BoldItalic" or "SemiCondensed"
// into an aspect with defaults filled in. It fails on any word it does not
// know.
func parseStyle(style string) (gotext.Aspect, bool) {
	var aspect gotext.Aspect

	rest := gotext.NormalizeFamily(style)
	if rest == "" {
		return aspect, false
	}

	for rest != "" {
		matched := false

		for _, sw := range styleWords {
			if after, ok := strings.CutPrefix(rest, sw.word); ok {
				sw.set(&aspect)
				rest = after
				matched = true

				break
			}
		}

		if !matched {
			return gotext.Aspect{}, false
		}
	}

	aspect.SetDefaults()

	return aspect, true
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}

	return filepath.Join(dir, "termpack")
}

// printfLogger adapts [slog.Logger] to [fontscan.Logger].
type printfLogger struct {
	logger *slog.Logger
}

func (l printfLogger) Printf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), slog.String("source", "fontscan"))
}
