// Package fragment serializes documents into property list fragments and
// persists them.
package fragment

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/dustin/go-humanize"
	"howett.net/plist"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/document"
)

// DefaultExtension is the extension of written fragments.
const DefaultExtension = ".xml"

var (
	// ErrUnsupportedValueType is returned for values a property list cannot
	// hold.
	ErrUnsupportedValueType = errors.New("unsupported value type")
	// ErrInvalidIdentifier is returned for identifiers that cannot name a
	// single file.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrUnknownFormat is returned for an unrecognized [Format].
	ErrUnknownFormat = errors.New("unknown format")
)

// Format is a property list encoding.
type Format string

const (
	// FormatXML is a tab-indented XML property list.
	FormatXML Format = "xml"
	// FormatBinary is a binary property list.
	FormatBinary Format = "binary"
)

// ParseFormat parses a [Format] name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatXML, FormatBinary:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Writer writes fragments to a directory.
//
// A Writer is safe for concurrent use as long as no two calls share an
// identifier.
type Writer struct {
	logger *slog.Logger
	dir    string
	ext    string
	format Format
}

// Opt configures a [Writer].
type Opt func(*Writer)

// WithDir sets the output directory. Defaults to [os.TempDir].
func WithDir(dir string) Opt {
	return func(w *Writer) {
		if dir != "" {
			w.dir = dir
		}
	}
}

// WithExtension sets the file extension, including the leading dot.
func WithExtension(ext string) Opt {
	return func(w *Writer) {
		if ext != "" {
			w.ext = ext
		}
	}
}

// WithFormat sets the encoding. Defaults to [FormatXML].
func WithFormat(f Format) Opt {
	return func(w *Writer) {
		if f != "" {
			w.format = f
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Opt {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWriter creates a [Writer].
func NewWriter(opts ...Opt) *Writer {
	w := &Writer{
		dir:    os.TempDir(),
		ext:    DefaultExtension,
		format: FormatXML,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Encode serializes doc in the writer's format.
func (w *Writer) Encode(doc *document.Document) ([]byte, error) {
	return Encode(doc, w.format)
}

// Encode serializes doc as a property list dictionary.
func Encode(doc *document.Document, format Format) ([]byte, error) {
	dict, err := Dict(doc)
	if err != nil {
		return nil, err
	}

	var b []byte

	switch format {
	case FormatXML:
		b, err = plist.MarshalIndent(dict, plist.XMLFormat, "\t")
	case FormatBinary:
		b, err = plist.Marshal(dict, plist.BinaryFormat)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err != nil {
		return nil, fmt.Errorf("marshal plist: %w", err)
	}

	return b, nil
}

// Dict returns doc as a map of property list values.
func Dict(doc *document.Document) (map[string]any, error) {
	dict := make(map[string]any, doc.Len())

	for _, e := range doc.Entries() {
		v := e.Value.Interface()
		if v == nil {
			return nil, fmt.Errorf("%s: %w: %s", e.Key, ErrUnsupportedValueType, e.Value.Kind())
		}

		dict[e.Key] = v
	}

	return dict, nil
}

// Path returns the location of the fragment named id.
func (w *Writer) Path(id string) (string, error) {
	err := ValidateIdentifier(id)
	if err != nil {
		return "", err
	}

	return filepath.Join(w.dir, id+w.ext), nil
}

// Write encodes doc and writes it to the location of id, replacing any
// existing fragment atomically. It returns the location.
func (w *Writer) Write(id string, doc *document.Document) (string, error) {
	path, err := w.Path(id)
	if err != nil {
		return "", err
	}

	data, err := w.Encode(doc)
	if err != nil {
		return "", fmt.Errorf("encode %q: %w", id, err)
	}

	err = writeFileAtomic(path, data)
	if err != nil {
		return "", err
	}

	w.logger.Info("wrote fragment",
		slog.String("id", id),
		slog.String("path", path),
		slog.String("size", humanize.Bytes(uint64(len(data)))), //nolint:gosec // Lengths are non-negative.
	)

	return path, nil
}

// Diff returns a unified diff between the fragment currently at the location
// of id and the fragment doc would produce. Both sides are compared as XML.
// A missing fragment diffs against an empty file. The diff is empty when
// nothing would change.
func (w *Writer) Diff(id string, doc *document.Document) (string, error) {
	path, err := w.Path(id)
	if err != nil {
		return "", err
	}

	next, err := Encode(doc, FormatXML)
	if err != nil {
		return "", fmt.Errorf("encode %q: %w", id, err)
	}

	prev, err := readXML(path)
	if err != nil {
		return "", err
	}

	return udiff.Unified(path, path, prev, string(next)), nil
}

// readXML reads the property list at path and renders it as XML.
func readXML(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is built from the output directory.
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("read fragment: %w", err)
	}

	var v any

	_, err = plist.Unmarshal(data, &v)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}

	b, err := plist.MarshalIndent(v, plist.XMLFormat, "\t")
	if err != nil {
		return "", fmt.Errorf("marshal plist: %w", err)
	}

	return string(b), nil
}

// ValidateIdentifier checks that id can name a single fragment file.
func ValidateIdentifier(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	case id == "." || id == "..":
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	case strings.ContainsAny(id, "/\x00") || strings.ContainsRune(id, filepath.Separator):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidIdentifier, id)
	}

	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, 0o700)
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmp := f.Name()

	_, err = f.Write(data)
	if err == nil {
		err = f.Sync()
	}

	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}

	if err == nil {
		err = os.Chmod(tmp, 0o644) //nolint:gosec // G302: Fragments are meant to be read by other tools.
	}

	if err == nil {
		err = os.Rename(tmp, path)
	}

	if err != nil {
		removeErr := os.Remove(tmp)
		if removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
			slog.Debug("remove temp file", slog.String("path", tmp), slog.Any("error", removeErr))
		}

		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
