package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/yaml"
)

// StdinPath is the path that reads the profile list from standard input.
const StdinPath = "-"

// Format is a profile list encoding.
type Format string

const (
	// FormatJSON is a JSON array of profiles.
	FormatJSON Format = "json"
	// FormatYAML is a YAML sequence of profiles.
	FormatYAML Format = "yaml"
	// FormatHCL is a sequence of `profile "<name>" { ... }` blocks.
	FormatHCL Format = "hcl"
)

// ErrUnknownFormat is returned for an unrecognized [Format].
var ErrUnknownFormat = errors.New("unknown format")

// FormatFromPath guesses the format from the file extension. Anything that
// is not YAML or HCL is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".hcl":
		return FormatHCL
	default:
		return FormatJSON
	}
}

// ParseFormat parses a [Format] name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML, FormatHCL:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Load reads and decodes the profile list at path, in the format given by
// its extension. The [StdinPath] reads from stdin instead, decoded as JSON.
func Load(path string, stdin io.Reader) (List, error) {
	return LoadAs(path, FormatFromPath(path), stdin)
}

// LoadAs reads the profile list at path (or stdin, for [StdinPath]) and
// decodes it as format.
func LoadAs(path string, format Format, stdin io.Reader) (List, error) {
	var (
		data []byte
		err  error
	)

	if path == StdinPath {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // G304: Path is provided by the user.
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return Decode(data, format, path)
}

// Decode decodes a profile list in the given format. The filename is only
// used in diagnostics.
//
// JSON and YAML documents are validated against [Schema] before decoding, so
// that errors point at the offending node. Every decoded profile is then
// checked with [Profile.Validate].
func Decode(data []byte, format Format, filename string) (List, error) {
	var (
		l   List
		err error
	)

	switch format {
	case FormatJSON, FormatYAML:
		l, err = decodeYAML(data)
	case FormatHCL:
		l, err = decodeHCL(data, filename)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err != nil {
		return nil, err
	}

	err = l.Validate()
	if err != nil {
		return nil, err
	}

	return l, nil
}

func decodeYAML(data []byte) (List, error) {
	v, err := DefaultValidator()
	if err != nil {
		return nil, err
	}

	ew := yaml.NewErrorWrapper(yaml.WithSource(data))

	var generic any

	err = yaml.Unmarshal(data, &generic)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaViolation, err)
	}

	err = v.Validate(generic)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaViolation, ew.Wrap(err))
	}

	var l List

	err = yaml.NewDecoder(bytes.NewReader(data), false).Decode(&l)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaViolation, ew.Wrap(err))
	}

	return l, nil
}

// hclDocument is the body of an HCL profile file.
type hclDocument struct {
	Profiles []*Profile `hcl:"profile,block"`
}

func decodeHCL(data []byte, filename string) (List, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: parse %s: %s", ErrSchemaViolation, filename, diags.Error())
	}

	var doc hclDocument

	diags = gohcl.DecodeBody(file.Body, nil, &doc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: decode %s: %s", ErrSchemaViolation, filename, diags.Error())
	}

	return List(doc.Profiles), nil
}
