// Package archive builds NSKeyedArchiver object graphs and serializes them as
// property lists.
//
// Terminal.app stores colors and fonts as archived Cocoa objects inside its
// preferences. An archive is a dictionary with a flat `$objects` table where
// every object refers to other objects by [plist.UID]. Index 0 is always the
// `$null` marker, and the root object is referenced from `$top`.
//
// UIDs are assigned depth first: an object gets its UID before its fields are
// encoded, and its class descriptor is appended after the fields, the same
// order Foundation's archiver produces.
package archive

import (
	"errors"
	"fmt"

	"howett.net/plist"
)

const (
	// ArchiverName is the value of the `$archiver` key.
	ArchiverName = "NSKeyedArchiver"
	// Version is the value of the `$version` key.
	Version = 100000

	nullMarker = "$null"
)

// ErrUnsupportedField indicates a field value that cannot be archived.
var ErrUnsupportedField = errors.New("unsupported field value")

// Field is one key of an archived object.
//
// Value may be a bool, an integer, a float64, a []byte, or a [Ref] to another
// archived object.
type Field struct {
	Value any
	Key   string
}

// Ref points to a value that is archived as its own entry in the object
// table: a string or an [*Object].
type Ref struct {
	Value any
}

// Object is an archived Cocoa object.
type Object struct {
	// Classes is the class hierarchy, most derived class first.
	Classes []string
	Fields  []Field
}

// NewObject creates an [Object] of the given class hierarchy.
func NewObject(classes ...string) *Object {
	return &Object{Classes: classes}
}

// Set appends a field and returns the object for chaining.
func (o *Object) Set(key string, value any) *Object {
	o.Fields = append(o.Fields, Field{Key: key, Value: value})

	return o
}

// Archiver accumulates the object table for a single archive.
type Archiver struct {
	classes map[string]plist.UID
	objects []any
}

// NewArchiver creates an [Archiver] with the `$null` entry in place.
func NewArchiver() *Archiver {
	return &Archiver{
		objects: []any{nullMarker},
		classes: map[string]plist.UID{},
	}
}

// Archive encodes root as the `$top.root` object and returns the archive
// dictionary.
func Archive(root *Object) (map[string]any, error) {
	a := NewArchiver()

	uid, err := a.encode(root)
	if err != nil {
		return nil, err
	}

	return a.document(uid), nil
}

// Marshal archives root and serializes it with the given plist format.
// Foundation writes archives as binary plists ([plist.BinaryFormat]).
func Marshal(root *Object, format int) ([]byte, error) {
	doc, err := Archive(root)
	if err != nil {
		return nil, err
	}

	b, err := plist.Marshal(doc, format)
	if err != nil {
		return nil, fmt.Errorf("marshal archive: %w", err)
	}

	return b, nil
}

// Objects returns the current object table.
func (a *Archiver) Objects() []any {
	return a.objects
}

func (a *Archiver) document(root plist.UID) map[string]any {
	return map[string]any{
		"$archiver": ArchiverName,
		"$objects":  a.objects,
		"$top":      map[string]any{"root": root},
		"$version":  Version,
	}
}

func (a *Archiver) encode(v any) (plist.UID, error) {
	switch val := v.(type) {
	case string:
		return a.append(val), nil

	case *Object:
		if val == nil {
			return 0, nil
		}

		return a.encodeObject(val)
	}

	return 0, fmt.Errorf("%w: %T cannot be referenced", ErrUnsupportedField, v)
}

func (a *Archiver) encodeObject(o *Object) (plist.UID, error) {
	if len(o.Classes) == 0 {
		return 0, errors.New("object has no class")
	}

	dict := make(map[string]any, len(o.Fields)+1)
	uid := a.append(dict)

	for _, f := range o.Fields {
		val, err := a.fieldValue(f.Value)
		if err != nil {
			return 0, fmt.Errorf("%s.%s: %w", o.Classes[0], f.Key, err)
		}

		dict[f.Key] = val
	}

	dict["$class"] = a.class(o.Classes)

	return uid, nil
}

func (a *Archiver) fieldValue(v any) (any, error) {
	switch val := v.(type) {
	case bool, int, int64, uint64, float64, []byte:
		return val, nil

	case Ref:
		return a.encode(val.Value)
	}

	return nil, fmt.Errorf("%w: %T", ErrUnsupportedField, v)
}

// class returns the UID of the class descriptor for the hierarchy, adding it
// on first use.
func (a *Archiver) class(classes []string) plist.UID {
	name := classes[0]
	if uid, ok := a.classes[name]; ok {
		return uid
	}

	uid := a.append(map[string]any{
		"$classname": name,
		"$classes":   classes,
	})
	a.classes[name] = uid

	return uid
}

func (a *Archiver) append(v any) plist.UID {
	a.objects = append(a.objects, v)

	return plist.UID(len(a.objects) - 1) //nolint:gosec // G115: table length is never negative.
}
