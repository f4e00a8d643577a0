package expr

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Selector decides which profiles to convert.
//
// A Selector is safe for concurrent use.
type Selector struct {
	program    cel.Program
	expression string
}

// NewSelector compiles expression into a [Selector]. The expression is
// evaluated with the variables of [NewSelectionEnvironment].
func NewSelector(expression string) (*Selector, error) {
	env, err := NewSelectionEnvironment()
	if err != nil {
		return nil, err
	}

	program, err := env.CompileBool(expression)
	if err != nil {
		return nil, fmt.Errorf("selector %q: %w", expression, err)
	}

	return &Selector{program: program, expression: expression}, nil
}

// Match evaluates the selector for one profile.
func (s *Selector) Match(name string, profile map[string]any) (bool, error) {
	result, _, err := s.program.Eval(map[string]any{
		"name":    name,
		"profile": ConvertToCELValue(profile),
	})
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", s.expression, err)
	}

	match, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("evaluate %q: %w, got %s", s.expression, ErrNotBool, result.Type())
	}

	return match, nil
}

func (s *Selector) String() string {
	return s.expression
}
