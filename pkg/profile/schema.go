package profile

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/yaml"
)

// SchemaURL identifies the profile list schema.
const SchemaURL = "https://github.com/not-in-stock/terminal-profiles-hm/profiles.schema.json"

var (
	schemaOnce sync.Once
	schemaJSON []byte
	validator  *yaml.Validator
	schemaErr  error
)

// Schema returns the JSON schema of a profile list.
func Schema() ([]byte, error) {
	schemaOnce.Do(loadSchema)

	return schemaJSON, schemaErr
}

// DefaultValidator returns a validator for profile list documents.
func DefaultValidator() (*yaml.Validator, error) {
	schemaOnce.Do(loadSchema)

	return validator, schemaErr
}

// GenerateSchema reflects the JSON schema of [List] from the Go types.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		Anonymous:                 true,
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}

	s := r.Reflect(List{})
	s.ID = SchemaURL
	s.Title = "Terminal Profiles"
	s.Description = "A list of Terminal.app profiles for termpack."

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return b, nil
}

func loadSchema() {
	schemaJSON, schemaErr = GenerateSchema()
	if schemaErr != nil {
		return
	}

	validator, schemaErr = yaml.NewValidator(SchemaURL, schemaJSON)
	if schemaErr != nil {
		schemaErr = fmt.Errorf("create validator: %w", schemaErr)
	}
}
