package config

import (
	"bytes"
	"fmt"

	"github.com/not-in-stock/terminal-profiles-hm/api"
	"github.com/not-in-stock/terminal-profiles-hm/api/v1beta1"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/yaml"
)

// Validator checks a decoded YAML document, typically against a JSON schema.
type Validator interface {
	Validate(data any) error
}

// LoaderOpt configures a [Loader].
type LoaderOpt func(*loaderOptions)

type loaderOptions struct {
	validator Validator
}

// WithValidator replaces the default validator.
func WithValidator(v Validator) LoaderOpt {
	return func(o *loaderOptions) {
		o.validator = v
	}
}

// Loader decodes one YAML document into a configuration object of type T.
//
// The document is checked in two passes: [Loader.Validate] runs the
// [Validator] on the generic document, and [Loader.Load] decodes into T,
// fills in defaults and runs T's own checks. Errors from either pass carry
// the YAML source so they print with the offending lines.
type Loader[T v1beta1.Object] struct {
	validator Validator
	newFunc   func() T
	wrap      *yaml.ErrorWrapper
	data      []byte
	validated bool
}

// NewLoaderFromBytes creates a [Loader] for data. newFunc constructs an empty
// T, e.g. [configs.New]. A nil defaultValidator skips schema validation.
func NewLoaderFromBytes[T v1beta1.Object](
	data []byte,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt,
) *Loader[T] {
	o := &loaderOptions{validator: defaultValidator}
	for _, opt := range opts {
		opt(o)
	}

	return &Loader[T]{
		data:      data,
		newFunc:   newFunc,
		validator: o.validator,
		wrap:      yaml.NewErrorWrapper(yaml.WithSource(data)),
	}
}

// NewLoaderFromFile creates a [Loader] for the file at path.
func NewLoaderFromFile[T v1beta1.Object](
	path string,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt,
) (*Loader[T], error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped.
	}

	return NewLoaderFromBytes(data, newFunc, defaultValidator, opts...), nil
}

func (l *Loader[T]) decode(v any) error {
	err := yaml.NewDecoder(bytes.NewReader(l.data), false).Decode(v)
	if err != nil {
		return l.wrap.Wrap(err)
	}

	return nil
}

// Validate checks the document syntax and runs the validator.
func (l *Loader[T]) Validate() error {
	var doc any

	err := l.decode(&doc)
	if err != nil {
		return err
	}

	if l.validator != nil {
		err = l.validator.Validate(doc)
		if err != nil {
			return l.wrap.Wrap(err)
		}
	}

	l.validated = true

	return nil
}

// Load returns the decoded configuration with defaults filled in. The
// document is validated first unless [Loader.Validate] already succeeded.
//
//nolint:ireturn // Generic type parameter return is intentional.
func (l *Loader[T]) Load() (T, error) {
	var zero T

	if !l.validated {
		err := l.Validate()
		if err != nil {
			return zero, err
		}
	}

	cfg := l.newFunc()

	err := l.decode(cfg)
	if err != nil {
		return zero, err
	}

	cfg.EnsureDefaults()

	err = cfg.Validate()
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", cfg.GetKind(), cfg.GetAPIVersion(), err)
	}

	return cfg, nil
}
