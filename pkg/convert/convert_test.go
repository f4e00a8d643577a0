package convert_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"howett.net/plist"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/assembler"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/color"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/convert"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/document"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/expr"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/font"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/fragment"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/profile"
)

func ptr[T any](v T) *T {
	return &v
}

func newProfile(name string) *profile.Profile {
	return &profile.Profile{
		Name: name,
		Font: profile.Font{Name: "Menlo", Size: 12},
	}
}

func newConverter(t *testing.T, opts ...convert.Opt) (*convert.Converter, string) {
	t.Helper()

	dir := t.TempDir()
	a := assembler.New(font.NewResolver(font.NewMapRegistry("Menlo", "Monaco")))
	w := fragment.NewWriter(fragment.WithDir(dir))

	return convert.New(a, w, opts...), dir
}

func readFragment(t *testing.T, path string) map[string]any {
	t.Helper()

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var m map[string]any

	_, err = plist.Unmarshal(b, &m)
	require.NoError(t, err)

	return m
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	return names
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	c, dir := newConverter(t)

	p := newProfile("Test")
	p.Cursor = &profile.Cursor{Type: ptr("bar"), Blink: ptr(true)}

	report, err := c.Run(t.Context(), profile.List{p})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	res := report.Results[0]
	assert.Equal(t, "Test", res.Name)
	assert.Equal(t, "Test", res.ID)
	assert.Equal(t, filepath.Join(dir, "Test.xml"), res.Location)

	m := readFragment(t, res.Location)
	assert.EqualValues(t, 3, m["CursorType"])
	assert.Equal(t, true, m["CursorBlink"])
	assert.NotContains(t, m, "CursorColor")
	assert.Equal(t, "Window Settings", m["type"])
}

func TestRun_Duplicates(t *testing.T) {
	t.Parallel()

	dupList := func() profile.List {
		first := newProfile("a")
		last := newProfile("a")
		last.Font.Name = "Monaco"

		return profile.List{first, newProfile("b"), last}
	}

	t.Run("error", func(t *testing.T) {
		t.Parallel()

		c, dir := newConverter(t)

		report, err := c.Run(t.Context(), dupList())
		require.ErrorIs(t, err, convert.ErrDuplicateName)
		assert.Contains(t, err.Error(), `"a"`)
		assert.Empty(t, report.Results)
		assert.Empty(t, listDir(t, dir))
	})

	t.Run("overwrite", func(t *testing.T) {
		t.Parallel()

		c, dir := newConverter(t,
			convert.WithDuplicatePolicy(convert.DuplicatesOverwrite),
			convert.WithParallelism(4),
		)

		report, err := c.Run(t.Context(), dupList())
		require.NoError(t, err)
		require.Len(t, report.Results, 3)
		assert.Equal(t, report.Results[0].Location, report.Results[2].Location)
		assert.ElementsMatch(t, []string{"a.xml", "b.xml"}, listDir(t, dir))

		want, err := font.Encode(font.Descriptor{Name: "Monaco", Size: 12, Flags: font.DefaultFlags})
		require.NoError(t, err)

		m := readFragment(t, filepath.Join(dir, "a.xml"))
		assert.Equal(t, want, m["Font"])
	})

	t.Run("suffix", func(t *testing.T) {
		t.Parallel()

		c, dir := newConverter(t, convert.WithDuplicatePolicy(convert.DuplicatesSuffix))

		report, err := c.Run(t.Context(), dupList())
		require.NoError(t, err)
		require.Len(t, report.Results, 3)
		assert.Equal(t, "a (2)", report.Results[2].ID)
		assert.Equal(t, "a", report.Results[2].Name)
		assert.ElementsMatch(t, []string{"a.xml", "b.xml", "a (2).xml"}, listDir(t, dir))
	})
}

func TestIdentifiers(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		policy  convert.DuplicatePolicy
		wantErr error
		names   []string
		want    []string
	}{
		"unique": {
			names:  []string{"a", "b"},
			policy: convert.DuplicatesError,
			want:   []string{"a", "b"},
		},
		"error": {
			names:   []string{"a", "b", "a", "b"},
			policy:  convert.DuplicatesError,
			wantErr: convert.ErrDuplicateName,
		},
		"overwrite": {
			names:  []string{"a", "a"},
			policy: convert.DuplicatesOverwrite,
			want:   []string{"a", "a"},
		},
		"suffix": {
			names:  []string{"a", "a", "b", "a"},
			policy: convert.DuplicatesSuffix,
			want:   []string{"a", "a (2)", "b", "a (3)"},
		},
		"suffix avoids existing names": {
			names:  []string{"a", "a (2)", "a"},
			policy: convert.DuplicatesSuffix,
			want:   []string{"a", "a (2)", "a (3)"},
		},
		"unknown": {
			names:   []string{"a"},
			policy:  convert.DuplicatePolicy("merge"),
			wantErr: convert.ErrUnknownPolicy,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			l := make(profile.List, 0, len(tc.names))
			for _, n := range tc.names {
				l = append(l, newProfile(n))
			}

			got, err := convert.Identifiers(l, tc.policy)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParsePolicies(t *testing.T) {
	t.Parallel()

	for _, s := range convert.AllDuplicatePolicies {
		p, err := convert.ParseDuplicatePolicy(s)
		require.NoError(t, err)
		assert.Equal(t, convert.DuplicatePolicy(s), p)
	}

	for _, s := range convert.AllFailurePolicies {
		p, err := convert.ParseFailurePolicy(s)
		require.NoError(t, err)
		assert.Equal(t, convert.FailurePolicy(s), p)
	}

	_, err := convert.ParseDuplicatePolicy("merge")
	require.ErrorIs(t, err, convert.ErrUnknownPolicy)

	_, err = convert.ParseFailurePolicy("retry")
	require.ErrorIs(t, err, convert.ErrUnknownPolicy)
}

func failingList() profile.List {
	bad := newProfile("bad")
	bad.TextColor = ptr("FFF")

	worse := newProfile("worse")
	worse.ANSI = &profile.ANSI{Colors: map[string]string{"red": "nope"}}

	return profile.List{newProfile("good1"), bad, newProfile("good2"), worse}
}

func TestRun_Abort(t *testing.T) {
	t.Parallel()

	c, dir := newConverter(t)

	report, err := c.Run(t.Context(), failingList())
	require.ErrorIs(t, err, color.ErrInvalidColorFormat)
	assert.Equal(t, `profile "bad": textColor: invalid color format, use #RRGGBB or #RRGGBBAA: "FFF"`, err.Error())

	require.Len(t, report.Results, 2)
	assert.Len(t, report.Written(), 1)
	assert.Len(t, report.Failed(), 1)
	assert.Equal(t, []string{"good1.xml"}, listDir(t, dir))
}

func TestRun_Continue(t *testing.T) {
	t.Parallel()

	for _, parallelism := range []int{1, 3} {
		t.Run(fmt.Sprint(parallelism), func(t *testing.T) {
			t.Parallel()

			c, dir := newConverter(t,
				convert.WithFailurePolicy(convert.OnErrorContinue),
				convert.WithParallelism(parallelism),
			)

			report, err := c.Run(t.Context(), failingList())
			require.ErrorIs(t, err, color.ErrInvalidColorFormat)
			assert.Contains(t, err.Error(), `profile "bad": textColor`)
			assert.Contains(t, err.Error(), `profile "worse": ansi.colors.red`)

			require.Len(t, report.Results, 4)
			assert.Len(t, report.Failed(), 2)
			assert.ElementsMatch(t, []string{"good1.xml", "good2.xml"}, listDir(t, dir))
		})
	}
}

func TestRun_ParallelOrder(t *testing.T) {
	t.Parallel()

	c, dir := newConverter(t, convert.WithParallelism(4))

	var l profile.List
	for i := range 20 {
		l = append(l, newProfile(fmt.Sprintf("p%02d", i)))
	}

	report, err := c.Run(t.Context(), l)
	require.NoError(t, err)
	require.Len(t, report.Results, 20)

	for i, res := range report.Results {
		assert.Equal(t, fmt.Sprintf("p%02d", i), res.Name)
	}

	assert.Len(t, listDir(t, dir), 20)
}

func TestRun_Selector(t *testing.T) {
	t.Parallel()

	s, err := expr.NewSelector(`name.startsWith("dark") || has(profile.cursor)`)
	require.NoError(t, err)

	c, dir := newConverter(t, convert.WithSelector(s))

	withCursor := newProfile("cursor")
	withCursor.Cursor = &profile.Cursor{Type: ptr("bar")}

	report, err := c.Run(t.Context(), profile.List{newProfile("dark"), newProfile("light"), withCursor})
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.False(t, report.Results[0].Skipped)
	assert.True(t, report.Results[1].Skipped)
	assert.False(t, report.Results[2].Skipped)
	assert.Len(t, report.Written(), 2)
	assert.ElementsMatch(t, []string{"dark.xml", "cursor.xml"}, listDir(t, dir))
}

func TestRun_SelectorOptionalField(t *testing.T) {
	t.Parallel()

	tcs := map[string]string{
		"optional selection": `luminance(profile.?backgroundColor).orValue(1.0) < 0.2`,
		"has guard":          `has(profile.backgroundColor) && luminance(profile.backgroundColor) < 0.2`,
	}

	for name, expression := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, err := expr.NewSelector(expression)
			require.NoError(t, err)

			c, dir := newConverter(t, convert.WithSelector(s))

			dark := newProfile("Dark")
			dark.BackgroundColor = ptr("#000000")

			light := newProfile("Light")
			light.BackgroundColor = ptr("#ffffff")

			report, err := c.Run(t.Context(), profile.List{dark, newProfile("Plain"), light})
			require.NoError(t, err)
			require.Len(t, report.Results, 3)
			assert.False(t, report.Results[0].Skipped)
			assert.True(t, report.Results[1].Skipped)
			assert.True(t, report.Results[2].Skipped)
			assert.Equal(t, []string{"Dark.xml"}, listDir(t, dir))
		})
	}
}

func TestRun_DryRun(t *testing.T) {
	t.Parallel()

	c, dir := newConverter(t, convert.WithDryRun(true))

	report, err := c.Run(t.Context(), profile.List{newProfile("Test")})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Contains(t, report.Results[0].Diff, "<string>Test</string>")
	assert.Empty(t, report.Results[0].Location)
	assert.Empty(t, listDir(t, dir))
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	c, dir := newConverter(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	report, err := c.Run(ctx, profile.List{newProfile("Test")})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)
	assert.Empty(t, listDir(t, dir))
}

type failingWriter struct{}

func (failingWriter) Write(string, *document.Document) (string, error) {
	return "", errors.New("disk full")
}

func (failingWriter) Diff(string, *document.Document) (string, error) {
	return "", errors.New("disk full")
}

func TestRun_WriterError(t *testing.T) {
	t.Parallel()

	c := convert.New(assembler.New(nil), failingWriter{})

	_, err := c.Run(t.Context(), profile.List{newProfile("Test")})
	require.EqualError(t, err, `profile "Test": disk full`)
}

func TestRun_Tracing(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	c, _ := newConverter(t,
		convert.WithTracer(tp.Tracer("test")),
		convert.WithFailurePolicy(convert.OnErrorContinue),
	)

	_, err := c.Run(t.Context(), failingList())
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 4)

	status := map[string]codes.Code{}
	for _, span := range spans {
		assert.Equal(t, "convert.profile", span.Name())

		for _, kv := range span.Attributes() {
			if kv.Key == "profile.name" {
				status[kv.Value.AsString()] = span.Status().Code
			}
		}
	}

	assert.Equal(t, map[string]codes.Code{
		"good1": codes.Unset,
		"bad":   codes.Error,
		"good2": codes.Unset,
		"worse": codes.Error,
	}, status)
}
