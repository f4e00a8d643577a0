package preview

import (
	"bytes"
	"fmt"
	"os"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// DefaultStyle is the chroma style used for highlighting.
const DefaultStyle = "github-dark"

// Highlighter renders source with chroma syntax highlighting.
type Highlighter struct {
	lexer     chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
}

// NewHighlighter creates a [Highlighter] for language, emitting escape
// sequences for profile. Unknown languages and styles fall back to chroma's
// defaults; the [termenv.Ascii] profile disables highlighting.
func NewHighlighter(language, styleName string, profile termenv.Profile) *Highlighter {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	formatterName := "noop"
	switch profile {
	case termenv.TrueColor:
		formatterName = "terminal16m"

	case termenv.ANSI256:
		formatterName = "terminal256"

	case termenv.ANSI:
		formatterName = "terminal8"
	}

	return &Highlighter{
		lexer:     chroma.Coalesce(lexer),
		formatter: formatters.Get(formatterName),
		style:     styles.Get(styleName),
	}
}

// Highlight returns src with highlighting applied.
func (h *Highlighter) Highlight(src string) (string, error) {
	iterator, err := h.lexer.Tokenise(nil, src)
	if err != nil {
		return "", fmt.Errorf("lexer tokenize: %w", err)
	}

	buf := &bytes.Buffer{}

	err = h.formatter.Format(buf, h.style, iterator)
	if err != nil {
		return "", fmt.Errorf("format: %w", err)
	}

	return buf.String(), nil
}

// ColorProfile returns the color profile to render f with: the profile its
// environment supports when f is a terminal, and [termenv.Ascii] otherwise.
func ColorProfile(f *os.File) termenv.Profile {
	if !term.IsTerminal(int(f.Fd())) { //nolint:gosec // G115: file descriptors fit in an int.
		return termenv.Ascii
	}

	return termenv.NewOutput(f).EnvColorProfile()
}
