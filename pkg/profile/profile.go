package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrSchemaViolation indicates a profile whose required fields are missing or
// malformed.
var ErrSchemaViolation = errors.New("schema violation")

// ANSIColorNames lists the palette entries a profile may override, in the
// order they are written.
var ANSIColorNames = []string{
	"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white",
	"brightBlack", "brightRed", "brightGreen", "brightYellow",
	"brightBlue", "brightMagenta", "brightCyan", "brightWhite",
}

// Profile is one terminal configuration unit.
//
// Optional fields are pointers so that an absent field is distinguishable
// from its zero value.
type Profile struct {
	// Cursor configures the cursor shape, color and blinking.
	Cursor *Cursor `json:"cursor,omitempty" hcl:"cursor,block" jsonschema:"title=Cursor"`
	// ANSI configures the ANSI palette.
	ANSI *ANSI `json:"ansi,omitempty" hcl:"ansi,block" jsonschema:"title=ANSI Colors"`
	// InactiveSettings configures the background of inactive windows.
	InactiveSettings *InactiveSettings `json:"inactiveSettings,omitempty" hcl:"inactive_settings,block" jsonschema:"title=Inactive Window Settings"`
	// BackgroundColor is a ColorSpec (#RRGGBB or #RRGGBBAA).
	BackgroundColor *string `json:"backgroundColor,omitempty" hcl:"background_color,optional" jsonschema:"title=Background Color"`
	// TextColor is a ColorSpec (#RRGGBB or #RRGGBBAA).
	TextColor *string `json:"textColor,omitempty" hcl:"text_color,optional" jsonschema:"title=Text Color"`
	// TextBoldColor is a ColorSpec (#RRGGBB or #RRGGBBAA).
	TextBoldColor *string `json:"textBoldColor,omitempty" hcl:"text_bold_color,optional" jsonschema:"title=Bold Text Color"`
	// SelectionColor is a ColorSpec (#RRGGBB or #RRGGBBAA).
	SelectionColor *string `json:"selectionColor,omitempty" hcl:"selection_color,optional" jsonschema:"title=Selection Color"`
	// BackgroundBlur is the blur applied behind translucent backgrounds.
	BackgroundBlur *float64 `json:"backgroundBlur,omitempty" hcl:"background_blur,optional" jsonschema:"title=Background Blur"`
	// BoldUsesBrightColors renders bold text with the bright palette.
	BoldUsesBrightColors *bool `json:"boldUsesBrightColors,omitempty" hcl:"bold_uses_bright_colors,optional" jsonschema:"title=Bold Uses Bright Colors"`
	// Name identifies the profile and names its fragment.
	Name string `json:"name" hcl:"name,label" jsonschema:"title=Name,minLength=1"`
	// Font selects the font. Required.
	Font Font `json:"font" hcl:"font,block" jsonschema:"title=Font"`
}

// Cursor configures the cursor.
type Cursor struct {
	// Type is one of block, underline or bar. Other values mean block.
	Type *string `json:"type,omitempty" hcl:"type,optional" jsonschema:"title=Type,example=block,example=underline,example=bar"`
	// Color is a ColorSpec (#RRGGBB or #RRGGBBAA).
	Color *string `json:"color,omitempty" hcl:"color,optional" jsonschema:"title=Color"`
	// Blink enables cursor blinking.
	Blink *bool `json:"blink,omitempty" hcl:"blink,optional" jsonschema:"title=Blink"`
}

// ANSI configures the ANSI palette.
type ANSI struct {
	// Enable set to false disables ANSI colors entirely.
	Enable *bool `json:"enable,omitempty" hcl:"enable,optional" jsonschema:"title=Enable"`
	// Colors maps palette names (black, red, ..., brightWhite) to ColorSpecs.
	// Unknown names are ignored.
	Colors map[string]string `json:"colors,omitempty" hcl:"colors,optional" jsonschema:"title=Colors"`
}

// InactiveSettings configures the background of inactive windows.
type InactiveSettings struct {
	// Enable turns inactive window settings on. Defaults to false.
	Enable *bool `json:"enable,omitempty" hcl:"enable,optional" jsonschema:"title=Enable"`
	// BackgroundAlpha is the background opacity of inactive windows.
	BackgroundAlpha *float64 `json:"backgroundAlpha,omitempty" hcl:"background_alpha,optional" jsonschema:"title=Background Alpha"`
	// BackgroundBlur is the background blur of inactive windows.
	BackgroundBlur *float64 `json:"backgroundBlur,omitempty" hcl:"background_blur,optional" jsonschema:"title=Background Blur"`
}

// Font selects a font and its rendering options.
type Font struct {
	// Antialias enables font antialiasing.
	Antialias *bool `json:"antialias,omitempty" hcl:"antialias,optional" jsonschema:"title=Antialias"`
	// WidthSpacing is the character width multiplier.
	WidthSpacing *float64 `json:"widthSpacing,omitempty" hcl:"width_spacing,optional" jsonschema:"title=Character Width Spacing"`
	// Name is the preferred font name (family or PostScript name).
	Name string `json:"name" hcl:"name" jsonschema:"title=Name,minLength=1"`
	// Fallback lists font names tried in order when Name is unavailable.
	Fallback []string `json:"fallback,omitempty" hcl:"fallback,optional" jsonschema:"title=Fallback Fonts"`
	// Size is the point size.
	Size float64 `json:"size" hcl:"size" jsonschema:"title=Size,exclusiveMinimum=0"`
}

// Candidates returns the font name followed by the fallback names.
func (f Font) Candidates() []string {
	return append([]string{f.Name}, f.Fallback...)
}

// Validate checks the required fields.
func (p *Profile) Validate() error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}

	if strings.TrimSpace(p.Font.Name) == "" {
		errs = append(errs, errors.New("font.name is required"))
	}

	if p.Font.Size <= 0 || math.IsInf(p.Font.Size, 0) || math.IsNaN(p.Font.Size) {
		errs = append(errs, fmt.Errorf("font.size must be a positive number, got %v", p.Font.Size))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSchemaViolation, errors.Join(errs...))
	}

	return nil
}

// Map returns the profile in its generic JSON form, as used by selection
// expressions.
func (p *Profile) Map() (map[string]any, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}

	m := map[string]any{}

	err = json.Unmarshal(b, &m)
	if err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}

	return m, nil
}

func (p *Profile) String() string {
	return p.Name
}

// List is an ordered list of profiles, as decoded from one input document.
type List []*Profile

// Validate validates every profile, returning all violations.
func (l List) Validate() error {
	var errs []error

	for i, p := range l {
		if p == nil {
			errs = append(errs, fmt.Errorf("%w: profile %d is empty", ErrSchemaViolation, i))

			continue
		}

		err := p.Validate()
		if err != nil {
			errs = append(errs, fmt.Errorf("profile %d (%q): %w", i, p.Name, err))
		}
	}

	return errors.Join(errs...)
}

// Names returns the profile names in order.
func (l List) Names() []string {
	names := make([]string, 0, len(l))
	for _, p := range l {
		names = append(names, p.Name)
	}

	return names
}

// Get returns the first profile named name.
func (l List) Get(name string) (*Profile, bool) {
	for _, p := range l {
		if p.Name == name {
			return p, true
		}
	}

	return nil, false
}

// Duplicates returns the names used by more than one profile, in order of
// their first repeat.
func (l List) Duplicates() []string {
	seen := make(map[string]int, len(l))

	var dups []string

	for _, p := range l {
		seen[p.Name]++
		if seen[p.Name] == 2 {
			dups = append(dups, p.Name)
		}
	}

	return dups
}
