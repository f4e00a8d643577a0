// Package preview renders assembled fragments for a terminal: the property
// list, syntax highlighted, followed by the resolved font and a swatch for
// every color.
package preview

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/assembler"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/color"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/document"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/font"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/fragment"
)

// Swatch is a color stored in a document.
type Swatch struct {
	Key   string
	Color color.Color
}

// Swatches returns the archived colors of doc in document order. Data values
// that are not color archives are skipped.
func Swatches(doc *document.Document) []Swatch {
	var out []Swatch

	for _, e := range doc.Entries() {
		if e.Value.Kind() != document.KindData {
			continue
		}

		data, _ := e.Value.AsData()

		c, err := color.Decode(data)
		if err != nil {
			continue
		}

		out = append(out, Swatch{Key: e.Key, Color: c})
	}

	return out
}

// Font returns the font archived in doc.
func Font(doc *document.Document) (font.Descriptor, bool) {
	v, ok := doc.Get(assembler.KeyFont)
	if !ok || v.Kind() != document.KindData {
		return font.Descriptor{}, false
	}

	data, _ := v.AsData()

	d, err := font.Decode(data)
	if err != nil {
		return font.Descriptor{}, false
	}

	return d, true
}

// Renderer writes previews to an output.
type Renderer struct {
	w           io.Writer
	lg          *lipgloss.Renderer
	highlighter *Highlighter
	profile     termenv.Profile
	styleName   string
	swatches    bool
}

// Opt configures a [Renderer].
type Opt func(*Renderer)

// WithColorProfile sets the color profile. Defaults to [termenv.Ascii].
func WithColorProfile(p termenv.Profile) Opt {
	return func(r *Renderer) {
		r.profile = p
	}
}

// WithStyle sets the chroma style name.
func WithStyle(name string) Opt {
	return func(r *Renderer) {
		if name != "" {
			r.styleName = name
		}
	}
}

// WithSwatches enables the font and color summary after each fragment.
func WithSwatches(enabled bool) Opt {
	return func(r *Renderer) {
		r.swatches = enabled
	}
}

// New creates a [Renderer] writing to w.
func New(w io.Writer, opts ...Opt) *Renderer {
	r := &Renderer{
		w:         w,
		profile:   termenv.Ascii,
		styleName: DefaultStyle,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.lg = lipgloss.NewRenderer(w)
	r.lg.SetColorProfile(r.profile)
	r.highlighter = NewHighlighter("XML", r.styleName, r.profile)

	return r
}

// Render writes the preview of the fragment named name.
func (r *Renderer) Render(name string, doc *document.Document) error {
	b, err := fragment.Encode(doc, fragment.FormatXML)
	if err != nil {
		return fmt.Errorf("encode %q: %w", name, err)
	}

	src, err := r.highlighter.Highlight(string(b))
	if err != nil {
		return fmt.Errorf("highlight %q: %w", name, err)
	}

	sb := &strings.Builder{}
	sb.WriteString(r.lg.NewStyle().Bold(true).Underline(true).Render(name))
	sb.WriteString("\n\n")
	sb.WriteString(strings.TrimRight(src, "\n"))
	sb.WriteString("\n")

	if r.swatches {
		sb.WriteString("\n")
		r.summary(sb, doc)
	}

	_, err = io.WriteString(r.w, sb.String())
	if err != nil {
		return fmt.Errorf("write preview: %w", err)
	}

	return nil
}

func (r *Renderer) summary(sb *strings.Builder, doc *document.Document) {
	swatches := Swatches(doc)

	width := len(assembler.KeyFont)
	for _, s := range swatches {
		width = max(width, len(s.Key))
	}

	label := r.lg.NewStyle().Faint(true).Width(width)

	if d, ok := Font(doc); ok {
		fmt.Fprintf(sb, "%s %s\n", label.Render(assembler.KeyFont), d)
	}

	for _, s := range swatches {
		fmt.Fprintf(sb, "%s %s\n", label.Render(s.Key), r.swatch(s.Color))
	}
}

// swatch renders the color's hex code on a block of that color, in black or
// white depending on which reads better.
func (r *Renderer) swatch(c color.Color) string {
	opaque := color.Color{R: c.R, G: c.G, B: c.B, A: 255}

	fg := lipgloss.Color("#ffffff")
	if c.Luminance() > 0.179 {
		fg = lipgloss.Color("#000000")
	}

	return r.lg.NewStyle().
		Background(lipgloss.Color(opaque.Hex())).
		Foreground(fg).
		Padding(0, 1).
		Render(c.Hex())
}
