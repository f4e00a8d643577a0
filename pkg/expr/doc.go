// Package expr provides CEL (Common Expression Language) functionality
// for selecting profiles.
//
// Selection expressions have access to variables:
//   - `name` (string): The profile name
//   - `profile` (map<string, dyn>): The decoded profile, keyed as in the input
//
// And to custom functions:
//   - `colorHex(spec)`: The normalized "#rrggbb[aa]" form of a color spec, or null
//   - `luminance(spec)`: The relative luminance of a color spec, or null
//   - `yamlPath(value, path)`: The value at a YAML path, or null
//
// Optional profile fields are absent from `profile` when unset, so selecting
// them directly fails for profiles that omit them. Guard with
// `has(profile.backgroundColor)`, or use optional field selection:
// `luminance(profile.?backgroundColor).orValue(1.0) < 0.2`.
package expr
