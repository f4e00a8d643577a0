// Package yaml wraps [github.com/goccy/go-yaml] for decoding profile lists and
// tool configuration, validating them against JSON schemas, and reporting
// errors with the YAML path of the offending node.
package yaml

import (
	"bytes"
	"errors"
	"io"

	"github.com/goccy/go-yaml"
)

// Decoder reads YAML (and therefore JSON) documents.
type Decoder struct {
	d *yaml.Decoder
}

// NewDecoder creates a [Decoder]. Unknown fields are rejected when strict is
// set.
func NewDecoder(r io.Reader, strict bool) *Decoder {
	var opts []yaml.DecodeOption
	if strict {
		opts = append(opts, yaml.DisallowUnknownField())
	}

	return &Decoder{
		d: yaml.NewDecoder(r, opts...),
	}
}

// Decode decodes the next document into v. Syntax errors are returned as
// [*Error] carrying the token where decoding failed.
func (d *Decoder) Decode(v any) error {
	err := d.d.Decode(v)
	if err == nil {
		return nil
	}

	var yamlErr yaml.Error
	if errors.As(err, &yamlErr) {
		return NewError(errors.New(yamlErr.GetMessage()), WithToken(yamlErr.GetToken()))
	}

	//nolint:wrapcheck // Return the original error if it's not a [yaml.Error].
	return err
}

// Unmarshal decodes data into v, returning errors annotated with data.
func Unmarshal(data []byte, v any) error {
	err := NewDecoder(bytes.NewReader(data), false).Decode(v)

	return NewErrorWrapper(WithSource(data)).Wrap(err)
}
