package color_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/archive"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/color"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		spec string
		want color.Color
	}{
		"six digits with hash": {
			spec: "#FF0000",
			want: color.Color{R: 255, G: 0, B: 0, A: 255},
		},
		"six digits lowercase with whitespace": {
			spec: " ff0000 ",
			want: color.Color{R: 255, G: 0, B: 0, A: 255},
		},
		"six digits mixed": {
			spec: "1e2F3a",
			want: color.Color{R: 0x1e, G: 0x2f, B: 0x3a, A: 255},
		},
		"eight digits": {
			spec: "#10203080",
			want: color.Color{R: 0x10, G: 0x20, B: 0x30, A: 0x80},
		},
		"eight digits transparent": {
			spec: "00000000",
			want: color.Color{},
		},
		"invalid pair decodes as zero": {
			spec: "#zz8000",
			want: color.Color{R: 0, G: 0x80, B: 0, A: 255},
		},
		"invalid alpha pair decodes as zero": {
			spec: "ffffff-1",
			want: color.Color{R: 255, G: 255, B: 255, A: 0},
		},
		"length counts runes not bytes": {
			spec: "ééff00",
			want: color.Color{R: 0, G: 255, B: 0, A: 255},
		},
		"tab and newline whitespace": {
			spec: "\t#0a0b0c\n",
			want: color.Color{R: 10, G: 11, B: 12, A: 255},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := color.Parse(tc.spec)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse_InvalidLength(t *testing.T) {
	t.Parallel()

	for _, spec := range []string{
		"",
		"#",
		"FFF",
		"#FFF",
		"FFFFF",
		"FFFFFFF",
		"FF00FF00FF",
		"##FF0000",
		"éééé",
		"ééééé",
	} {
		t.Run(spec, func(t *testing.T) {
			t.Parallel()

			_, err := color.Parse(spec)
			require.ErrorIs(t, err, color.ErrInvalidColorFormat)
		})
	}
}

func TestParse_Alpha(t *testing.T) {
	t.Parallel()

	for i := range 256 {
		six := color.MustParse(color.Color{R: uint8(i), G: uint8(255 - i), B: 7, A: 255}.Hex())
		assert.Equal(t, uint8(255), six.A)

		eight := color.MustParse(color.Color{R: 1, G: 2, B: 3, A: uint8(i)}.Hex())
		assert.Equal(t, uint8(i), eight.A)
	}
}

func TestParse_PrefixIdempotent(t *testing.T) {
	t.Parallel()

	for _, pair := range [][2]string{
		{"#FF0000", " ff0000 "},
		{"#123456", "123456"},
		{"#AbCdEf80", "  abcdef80"},
	} {
		a, err := color.Parse(pair[0])
		require.NoError(t, err)

		b, err := color.Parse(pair[1])
		require.NoError(t, err)

		assert.Equal(t, a, b)
	}
}

func TestMustParse(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { color.MustParse("nope") })
	assert.NotPanics(t, func() { color.MustParse("#000000") })
}

func TestColor_Hex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "#ff8000", color.Color{R: 255, G: 128, A: 255}.Hex())
	assert.Equal(t, "#ff800040", color.Color{R: 255, G: 128, A: 64}.Hex())
	assert.Equal(t, "#ff8000", color.MustParse("#FF8000").String())
}

func TestColor_Luminance(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		spec string
		want float64
	}{
		"black":       {spec: "#000000", want: 0},
		"white":       {spec: "#ffffff", want: 1},
		"red":         {spec: "#ff0000", want: 0.2126},
		"green":       {spec: "#00ff00", want: 0.7152},
		"alpha":       {spec: "#ffffff00", want: 1},
		"solarized":   {spec: "#002b36", want: 0.0202},
		"dark pixels": {spec: "#0a0a0a", want: 0.003},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tc.want, color.MustParse(tc.spec).Luminance(), 0.001)
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		spec           string
		wantRGB        string
		wantComponents string
	}{
		"opaque red": {
			spec:           "#FF0000",
			wantRGB:        "1 0 0\x00",
			wantComponents: "1 0 0 1\x00",
		},
		"opaque gray": {
			spec:           "#F0F7F9",
			wantRGB:        "0.9411764706 0.968627451 0.9764705882\x00",
			wantComponents: "0.9411764706 0.968627451 0.9764705882 1\x00",
		},
		"translucent black": {
			spec:           "#00000080",
			wantRGB:        "0 0 0 0.5019607843\x00",
			wantComponents: "0 0 0 0.5019607843\x00",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			b, err := color.ParseAndEncode(tc.spec)
			require.NoError(t, err)

			// Foundation writes keyed archives as binary plists.
			assert.Equal(t, "bplist00", string(b[:8]))

			d, err := archive.Unmarshal(b)
			require.NoError(t, err)
			require.Len(t, d.Objects, 5)
			assert.Equal(t, plist.UID(1), d.Root)

			obj, err := d.RootObject()
			require.NoError(t, err)

			cls, err := d.ClassName(obj)
			require.NoError(t, err)
			assert.Equal(t, "NSColor", cls)

			assert.EqualValues(t, color.ColorSpaceCalibratedRGB, obj["NSColorSpace"])
			assert.Equal(t, []byte(tc.wantRGB), obj["NSRGB"])
			assert.Equal(t, []byte(tc.wantComponents), obj["NSComponents"])

			spaceUID, ok := obj["NSCustomColorSpace"].(plist.UID)
			require.True(t, ok)
			assert.Equal(t, plist.UID(2), spaceUID)

			space, err := d.Object(spaceUID)
			require.NoError(t, err)
			assert.EqualValues(t, color.ColorSpaceIDSRGB, space["NSID"])

			spaceCls, err := d.ClassName(space)
			require.NoError(t, err)
			assert.Equal(t, "NSColorSpace", spaceCls)
			assert.Equal(t, plist.UID(3), space["$class"])
			assert.Equal(t, plist.UID(4), obj["$class"])
		})
	}
}

func TestParseAndEncode_Invalid(t *testing.T) {
	t.Parallel()

	_, err := color.ParseAndEncode("#12345")
	require.ErrorIs(t, err, color.ErrInvalidColorFormat)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tcs := map[string]string{
		"opaque":      "#FF8000",
		"translucent": "#10203040",
		"black":       "#000000",
		"white":       "#FFFFFFFF",
	}

	for name, spec := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			want := color.MustParse(spec)

			b, err := color.Encode(want)
			require.NoError(t, err)

			got, err := color.Decode(b)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	notColor, err := archive.Marshal(archive.NewObject("NSFont", "NSObject").Set("NSSize", 12.0), plist.BinaryFormat)
	require.NoError(t, err)

	noComponents, err := archive.Marshal(archive.NewObject("NSColor", "NSObject").Set("NSColorSpace", 1), plist.BinaryFormat)
	require.NoError(t, err)

	tcs := map[string][]byte{
		"not a plist":     []byte("#FF0000"),
		"wrong class":     notColor,
		"no NSComponents": noComponents,
	}

	for name, data := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := color.Decode(data)
			require.Error(t, err)
		})
	}
}
