// Package assembler maps a [profile.Profile] onto the keys of a Terminal.app
// profile.
package assembler

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/color"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/document"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/font"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/profile"
)

// Terminal.app profile keys.
const (
	KeyName             = "name"
	KeyType             = "type"
	KeyProfileVersion   = "ProfileCurrentVersion"
	KeyBackgroundColor  = "BackgroundColor"
	KeyTextColor        = "TextColor"
	KeyTextBoldColor    = "TextBoldColor"
	KeySelectionColor   = "SelectionColor"
	KeyCursorType       = "CursorType"
	KeyCursorColor      = "CursorColor"
	KeyCursorBlink      = "CursorBlink"
	KeyBackgroundBlur   = "BackgroundBlur"
	KeyInactiveSettings = "BackgroundSettingsForInactiveWindows"
	KeyInactiveAlpha    = "BackgroundAlphaInactive"
	KeyInactiveBlur     = "BackgroundBlurInactive"
	KeyDisableANSIColor = "DisableANSIColor"
	KeyUseBrightBold    = "UseBrightBold"
	KeyFont             = "Font"
	KeyFontAntialias    = "FontAntialias"
	KeyFontWidthSpacing = "FontWidthSpacing"
)

const (
	// ProfileType is the value of [KeyType].
	ProfileType = "Window Settings"
	// ProfileCurrentVersion is the value of [KeyProfileVersion].
	ProfileCurrentVersion = 2.07
	// DefaultInactiveEnabled applies when inactive window settings are given
	// without enable.
	DefaultInactiveEnabled = false
)

// CursorTypes maps cursor type names to their CursorType values. Unknown
// names map to 0, the block cursor.
var CursorTypes = map[string]int64{
	"block":     0,
	"underline": 1,
	"bar":       3,
}

var (
	// ansiKeys maps palette names to their keys, e.g. "brightBlack" to
	// "ANSIBrightBlackColor".
	ansiKeys = func() map[string]string {
		title := cases.Title(language.Und, cases.NoLower)

		keys := make(map[string]string, len(profile.ANSIColorNames))
		for _, name := range profile.ANSIColorNames {
			keys[name] = "ANSI" + title.String(name) + "Color"
		}

		return keys
	}()
)

// ANSIColorKey returns the key of the palette entry name, and whether name is
// a known palette entry.
func ANSIColorKey(name string) (string, bool) {
	key, ok := ansiKeys[name]

	return key, ok
}

// CursorType returns the CursorType value for a cursor type name. Names are
// compared case-insensitively but otherwise exactly, so " bar" is unknown.
func CursorType(name string) int64 {
	// Casers are stateful, so each call gets its own.
	return CursorTypes[cases.Fold().String(name)]
}

// Assembler converts profiles into documents.
//
// An Assembler is safe for concurrent use if its [font.Registry] is.
type Assembler struct {
	resolver  *font.Resolver
	logger    *slog.Logger
	fallbacks []string
}

// Opt configures an [Assembler].
type Opt func(*Assembler)

// WithFallbackFonts appends names to every profile's font fallback list.
func WithFallbackFonts(names ...string) Opt {
	return func(a *Assembler) {
		a.fallbacks = append(a.fallbacks, names...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Opt {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an [Assembler] resolving fonts with resolver. A nil resolver
// always resolves to the system monospaced font.
func New(resolver *font.Resolver, opts ...Opt) *Assembler {
	if resolver == nil {
		resolver = font.NewResolver(nil)
	}

	a := &Assembler{
		resolver: resolver,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Assemble builds the document for p. Any invalid color aborts the profile
// with an error naming the field and wrapping [color.ErrInvalidColorFormat].
func (a *Assembler) Assemble(p *profile.Profile) (*document.Document, error) {
	doc := document.New().
		Set(KeyName, document.String(p.Name)).
		Set(KeyType, document.String(ProfileType)).
		Set(KeyProfileVersion, document.Real(ProfileCurrentVersion))

	b := builder{doc: doc}

	b.color(KeyBackgroundColor, "backgroundColor", p.BackgroundColor)
	b.color(KeyTextColor, "textColor", p.TextColor)
	b.color(KeyTextBoldColor, "textBoldColor", p.TextBoldColor)
	b.color(KeySelectionColor, "selectionColor", p.SelectionColor)

	if c := p.Cursor; c != nil {
		if c.Type != nil {
			doc.Set(KeyCursorType, document.Integer(CursorType(*c.Type)))
		}

		b.color(KeyCursorColor, "cursor.color", c.Color)

		if c.Blink != nil {
			doc.Set(KeyCursorBlink, document.Bool(*c.Blink))
		}
	}

	if p.BackgroundBlur != nil {
		doc.Set(KeyBackgroundBlur, document.Real(*p.BackgroundBlur))
	}

	if s := p.InactiveSettings; s != nil {
		enabled := DefaultInactiveEnabled
		if s.Enable != nil {
			enabled = *s.Enable
		}

		doc.Set(KeyInactiveSettings, document.Integer(boolInt(enabled)))

		if s.BackgroundAlpha != nil {
			doc.Set(KeyInactiveAlpha, document.Real(*s.BackgroundAlpha))
		}

		if s.BackgroundBlur != nil {
			doc.Set(KeyInactiveBlur, document.Real(*s.BackgroundBlur))
		}
	}

	if ansi := p.ANSI; ansi != nil {
		if ansi.Enable != nil && !*ansi.Enable {
			doc.Set(KeyDisableANSIColor, document.Integer(1))
		}

		for _, name := range profile.ANSIColorNames {
			spec, ok := ansi.Colors[name]
			if !ok {
				continue
			}

			b.color(ansiKeys[name], "ansi.colors."+name, &spec)
		}
	}

	if b.err != nil {
		return nil, b.err
	}

	if p.BoldUsesBrightColors != nil {
		doc.Set(KeyUseBrightBold, document.Bool(*p.BoldUsesBrightColors))
	}

	err := a.font(doc, p)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (a *Assembler) font(doc *document.Document, p *profile.Profile) error {
	candidates := append(p.Font.Candidates(), a.fallbacks...)

	desc := a.resolver.Resolve(candidates, p.Font.Size)
	if desc.IsSystemDefault() {
		a.logger.Warn("no candidate font found, using system monospaced font",
			slog.String("profile", p.Name),
			slog.Any("candidates", candidates),
		)
	} else {
		a.logger.Debug("resolved font",
			slog.String("profile", p.Name),
			slog.String("font", desc.String()),
		)
	}

	data, err := font.Encode(desc)
	if err != nil {
		return fmt.Errorf("font: %w", err)
	}

	doc.Set(KeyFont, document.Data(data))

	if p.Font.Antialias != nil {
		doc.Set(KeyFontAntialias, document.Bool(*p.Font.Antialias))
	}

	if p.Font.WidthSpacing != nil {
		doc.Set(KeyFontWidthSpacing, document.String(FormatDecimal(*p.Font.WidthSpacing)))
	}

	return nil
}

// FormatDecimal formats v as a decimal string. Integral values keep a ".0"
// suffix, so 1 is "1.0" and 1.004 is "1.004". Magnitudes below 1e-4 or from
// 1e16 up use exponent form with a signed two digit exponent, so 1e-05 is
// "1e-05" and 1e16 is "1e+16".
func FormatDecimal(v float64) string {
	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsInf(v, 0) || math.IsNaN(v) || strings.Contains(s, ".") {
		return s
	}

	return s + ".0"
}

// builder sets color keys, keeping the first error.
type builder struct {
	err error
	doc *document.Document
}

func (b *builder) color(key, field string, spec *string) {
	if b.err != nil || spec == nil {
		return
	}

	data, err := color.ParseAndEncode(*spec)
	if err != nil {
		b.err = fmt.Errorf("%s: %w", field, err)

		return
	}

	b.doc.Set(key, document.Data(data))
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}

	return 0
}
