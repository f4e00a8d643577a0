package expr

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"reflect"

	"github.com/goccy/go-yaml"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/color"
)

type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Math(),
		ext.Strings(),
		ext.Lists(),

		// `colorHex` returns the normalized form of a color spec, or null if
		// the spec is invalid. Given an optional, such as
		// profile.?backgroundColor, it returns an optional that is empty when
		// the field is missing or invalid.
		// Example: colorHex(profile.backgroundColor) == "#000000".
		cel.Function("colorHex",
			cel.Overload("color_hex", []*cel.Type{cel.DynType}, cel.DynType,
				cel.UnaryBinding(colorBinding(func(c color.Color) ref.Val {
					return types.String(c.Hex())
				})),
			),
		),

		// `luminance` returns the relative luminance of a color spec in [0, 1],
		// or null if the spec is invalid. Optionals are handled as for
		// `colorHex`.
		// Example: luminance(profile.?backgroundColor).orValue(1.0) < 0.5.
		cel.Function("luminance",
			cel.Overload("color_luminance", []*cel.Type{cel.DynType}, cel.DynType,
				cel.UnaryBinding(colorBinding(func(c color.Color) ref.Val {
					return types.Double(c.Luminance())
				})),
			),
		),

		// `yamlPath` extracts a value using a YAML path.
		// Returns the value at the specified path, or null if the path doesn't exist.
		// Example: yamlPath(profile, "$.font.fallback[0]") == "Menlo".
		cel.Function("yamlPath",
			cel.Overload("yaml_path", []*cel.Type{cel.DynType, cel.StringType}, cel.DynType,
				cel.BinaryBinding(func(value, yamlPathExpr ref.Val) ref.Val {
					yamlPathStr, ok := yamlPathExpr.(types.String).Value().(string)
					if !ok {
						return types.NewErr("yamlPath: invalid yaml path")
					}

					logger := slog.With(slog.String("yamlPath", yamlPathStr))

					// Parse YAML path.
					path, err := yaml.PathString(yamlPathStr)
					if err != nil {
						// Return null if path is invalid.
						logger.Debug("invalid YAML path, returning null",
							slog.Any("error", err),
						)

						return types.NullValue
					}

					content, err := yaml.Marshal(nativeValue(value))
					if err != nil {
						return types.NewErr("yamlPath: %v", err)
					}

					// Extract value using YAML path.
					var extracted any

					err = path.Read(bytes.NewReader(content), &extracted)
					if err != nil {
						// Return null if path doesn't exist or extraction fails.
						logger.Debug("failed to extract value from YAML, returning null",
							slog.Any("error", err),
						)

						return types.NullValue
					}

					// Convert the extracted value to a CEL value.
					return ConvertToCELValue(extracted)
				}),
			),
		),
	}
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

// colorBinding applies fn to a color spec argument. Invalid specs give null,
// and optional arguments give an optional result.
func colorBinding(fn func(color.Color) ref.Val) func(ref.Val) ref.Val {
	return func(spec ref.Val) ref.Val {
		opt, isOptional := spec.(*types.Optional)
		if !isOptional {
			c, ok := parseColor(spec)
			if !ok {
				return types.NullValue
			}

			return fn(c)
		}

		if !opt.HasValue() {
			return types.OptionalNone
		}

		c, ok := parseColor(opt.GetValue())
		if !ok {
			return types.OptionalNone
		}

		return types.OptionalOf(fn(c))
	}
}

// parseColor parses a CEL string holding a color spec.
func parseColor(spec ref.Val) (color.Color, bool) {
	s, ok := spec.Value().(string)
	if !ok {
		return color.Color{}, false
	}

	c, err := color.Parse(s)
	if err != nil {
		return color.Color{}, false
	}

	return c, true
}

// nativeValue converts a CEL value back into plain Go maps, slices and
// scalars.
func nativeValue(v ref.Val) any {
	switch v := v.(type) {
	case traits.Mapper:
		m := map[string]any{}

		for it := v.Iterator(); it.HasNext() == types.True; {
			key := it.Next()
			m[fmt.Sprint(key.Value())] = nativeValue(v.Get(key))
		}

		return m

	case traits.Lister:
		var l []any

		for it := v.Iterator(); it.HasNext() == types.True; {
			l = append(l, nativeValue(it.Next()))
		}

		return l

	default:
		if v == types.NullValue {
			return nil
		}

		return v.Value()
	}
}

// ConvertToCELValue converts decoded JSON or YAML data into a CEL value.
// Integers become CEL ints, except unsigned values that overflow int64, which
// become doubles. Unsupported types become null.
//
//nolint:ireturn // Following CEL's function signature.
func ConvertToCELValue(value any) ref.Val {
	switch v := value.(type) {
	case nil:
		return types.NullValue
	case bool:
		return types.Bool(v)
	case string:
		return types.String(v)
	case int, int8, int16, int32, int64:
		return types.Int(reflect.ValueOf(v).Int())
	case uint, uint8, uint16, uint32, uint64:
		u := reflect.ValueOf(v).Uint()
		if u > math.MaxInt64 {
			return types.Double(float64(u))
		}

		return types.Int(int64(u))
	case float32, float64:
		return types.Double(reflect.ValueOf(v).Float())
	case []any:
		items := make([]ref.Val, len(v))
		for i, item := range v {
			items[i] = ConvertToCELValue(item)
		}

		return types.NewDynamicList(types.DefaultTypeAdapter, items)
	case map[string]any:
		return celMap(v, func(k string) ref.Val { return types.String(k) })
	case map[any]any:
		return celMap(v, ConvertToCELValue)
	}

	return types.NullValue
}

//nolint:ireturn // Following CEL's function signature.
func celMap[K comparable](m map[K]any, key func(K) ref.Val) ref.Val {
	out := make(map[ref.Val]ref.Val, len(m))
	for k, v := range m {
		out[key(k)] = ConvertToCELValue(v)
	}

	return types.NewRefValMap(types.DefaultTypeAdapter, out)
}
