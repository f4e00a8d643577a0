package preview_test

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/assembler"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/color"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/document"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/font"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/preview"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/profile"
)

func ptr[T any](v T) *T {
	return &v
}

func assemble(t *testing.T) *document.Document {
	t.Helper()

	p := &profile.Profile{
		Name:            "Solarized Dark",
		BackgroundColor: ptr("#002b36"),
		TextColor:       ptr("#839496F0"),
		Font:            profile.Font{Name: "Menlo", Size: 12},
	}

	doc, err := assembler.New(font.NewResolver(font.NewMapRegistry("Menlo"))).Assemble(p)
	require.NoError(t, err)

	return doc
}

func TestSwatches(t *testing.T) {
	t.Parallel()

	got := preview.Swatches(assemble(t))
	assert.Equal(t, []preview.Swatch{
		{Key: assembler.KeyBackgroundColor, Color: color.MustParse("#002b36")},
		{Key: assembler.KeyTextColor, Color: color.MustParse("#839496F0")},
	}, got)
}

func TestFont(t *testing.T) {
	t.Parallel()

	d, ok := preview.Font(assemble(t))
	require.True(t, ok)
	assert.Equal(t, font.Descriptor{Name: "Menlo", Size: 12, Flags: font.DefaultFlags}, d)

	_, ok = preview.Font(document.New().Set("Font", document.String("Menlo")))
	assert.False(t, ok)
}

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		want     []string
		wantNot  []string
		profile  termenv.Profile
		swatches bool
	}{
		"plain": {
			profile: termenv.Ascii,
			want: []string{
				"Solarized Dark\n\n<?xml",
				"<key>name</key>",
				"<string>Solarized Dark</string>",
			},
			wantNot: []string{"\x1b[", "#002b36"},
		},
		"swatches": {
			profile:  termenv.Ascii,
			swatches: true,
			want: []string{
				"Font            Menlo 12pt\n",
				"BackgroundColor  #002b36 \n",
				"TextColor        #839496f0 \n",
			},
		},
		"true color": {
			profile:  termenv.TrueColor,
			swatches: true,
			want:     []string{"\x1b[", "<key>name</key>", "#002b36"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			buf := &bytes.Buffer{}
			r := preview.New(buf,
				preview.WithColorProfile(tc.profile),
				preview.WithSwatches(tc.swatches),
			)

			require.NoError(t, r.Render("Solarized Dark", assemble(t)))

			out := buf.String()
			for _, s := range tc.wantNot {
				assert.NotContains(t, out, s)
			}

			if tc.profile != termenv.Ascii {
				out = ansi.Strip(out)
			}

			for _, s := range tc.want {
				if s == "\x1b[" {
					assert.Contains(t, buf.String(), s)

					continue
				}

				assert.Contains(t, out, s)
			}
		})
	}
}

func TestHighlighter(t *testing.T) {
	t.Parallel()

	src := "<plist><dict><key>name</key><string>Test</string></dict></plist>\n"

	tcs := map[string]struct {
		profile     termenv.Profile
		wantEscapes bool
	}{
		"ascii":     {profile: termenv.Ascii},
		"ansi":      {profile: termenv.ANSI, wantEscapes: true},
		"ansi256":   {profile: termenv.ANSI256, wantEscapes: true},
		"truecolor": {profile: termenv.TrueColor, wantEscapes: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := preview.NewHighlighter("XML", preview.DefaultStyle, tc.profile).Highlight(src)
			require.NoError(t, err)

			if !tc.wantEscapes {
				assert.Equal(t, src, got)

				return
			}

			assert.Contains(t, got, "\x1b[")
			assert.Contains(t, ansi.Strip(got), "<key>name</key>")
		})
	}
}

func TestHighlighter_UnknownLanguage(t *testing.T) {
	t.Parallel()

	got, err := preview.NewHighlighter("NoSuchLanguage", "no-such-style", termenv.Ascii).Highlight("a: b")
	require.NoError(t, err)
	assert.Equal(t, "a: b", got)
}
