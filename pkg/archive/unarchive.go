package archive

import (
	"errors"
	"fmt"

	"howett.net/plist"
)

var ErrMalformedArchive = errors.New("malformed archive")

// Decoded is a parsed keyed archive. It gives read access to the object table
// without instantiating Cocoa classes.
type Decoded struct {
	Objects []any
	Root    plist.UID
}

// Unmarshal parses a keyed archive in any plist format.
func Unmarshal(data []byte) (*Decoded, error) {
	var doc struct {
		Top      map[string]plist.UID `plist:"$top"`
		Archiver string               `plist:"$archiver"`
		Objects  []any                `plist:"$objects"`
		Version  int                  `plist:"$version"`
	}

	_, err := plist.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("unmarshal archive: %w", err)
	}

	if doc.Archiver != ArchiverName {
		return nil, fmt.Errorf("%w: unexpected archiver %q", ErrMalformedArchive, doc.Archiver)
	}

	root, ok := doc.Top["root"]
	if !ok {
		return nil, fmt.Errorf("%w: missing root object", ErrMalformedArchive)
	}

	d := &Decoded{Objects: doc.Objects, Root: root}

	_, err = d.Object(root)
	if err != nil {
		return nil, err
	}

	return d, nil
}

// Object returns the dictionary stored at uid.
func (d *Decoded) Object(uid plist.UID) (map[string]any, error) {
	v, err := d.value(uid)
	if err != nil {
		return nil, err
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: object %d is %T, not a dictionary", ErrMalformedArchive, uid, v)
	}

	return obj, nil
}

// RootObject returns the `$top.root` dictionary.
func (d *Decoded) RootObject() (map[string]any, error) {
	return d.Object(d.Root)
}

// String returns the string stored at uid.
func (d *Decoded) String(uid plist.UID) (string, error) {
	v, err := d.value(uid)
	if err != nil {
		return "", err
	}

	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: object %d is %T, not a string", ErrMalformedArchive, uid, v)
	}

	return s, nil
}

// ClassName returns the `$classname` of obj's class descriptor.
func (d *Decoded) ClassName(obj map[string]any) (string, error) {
	uid, ok := obj["$class"].(plist.UID)
	if !ok {
		return "", fmt.Errorf("%w: object has no $class", ErrMalformedArchive)
	}

	cls, err := d.Object(uid)
	if err != nil {
		return "", err
	}

	name, ok := cls["$classname"].(string)
	if !ok {
		return "", fmt.Errorf("%w: class %d has no $classname", ErrMalformedArchive, uid)
	}

	return name, nil
}

func (d *Decoded) value(uid plist.UID) (any, error) {
	if uid == 0 || int(uid) >= len(d.Objects) { //nolint:gosec // G115: bounds checked.
		return nil, fmt.Errorf("%w: object %d out of range", ErrMalformedArchive, uid)
	}

	return d.Objects[uid], nil
}
