// Package profile defines the terminal profiles termpack converts.
//
// A [Profile] describes colors, cursor, ANSI palette, inactive-window
// behavior and font for one Terminal.app profile. Profiles are decoded from
// JSON, YAML or HCL documents containing a list of profiles, validated
// against a JSON schema generated from the Go types, and checked for required
// fields before conversion.
package profile
