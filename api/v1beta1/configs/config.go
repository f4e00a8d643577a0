// Package configs provides the Configuration type holding termpack's CLI
// defaults.
package configs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/not-in-stock/terminal-profiles-hm/api"
	"github.com/not-in-stock/terminal-profiles-hm/api/v1beta1"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/convert"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/fragment"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/yaml"
)

// SchemaURL identifies the configuration schema.
const SchemaURL = "https://github.com/not-in-stock/terminal-profiles-hm/configs.v1beta1.json"

var (
	//go:embed config.yaml
	defaultConfigYAML []byte

	// ValidKinds contains the valid kind values for configurations.
	ValidKinds = []string{"Configuration"}

	// ErrInvalidConfig is returned by [Config.Validate].
	ErrInvalidConfig = errors.New("invalid configuration")

	schemaOnce sync.Once
	schemaJSON []byte
	validator  *yaml.Validator
	schemaErr  error

	// Compile-time interface checks.
	_ v1beta1.Object = (*Config)(nil)
)

// Config represents the termpack configuration file.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	Output           *Output `json:"output,omitempty" jsonschema:"title=Output"`
	Batch            *Batch  `json:"batch,omitempty" jsonschema:"title=Batch"`
	Fonts            *Fonts  `json:"fonts,omitempty" jsonschema:"title=Fonts"`
	v1beta1.TypeMeta `json:",inline"`
}

// Output configures where and how fragments are written.
type Output struct {
	// Dir is the directory fragments are written to. Defaults to the system
	// temporary directory.
	Dir string `json:"dir,omitempty" jsonschema:"title=Directory"`
	// Format is the property list encoding.
	Format string `json:"format,omitempty" jsonschema:"title=Format,enum=xml,enum=binary"`
	// Extension is appended to every fragment identifier.
	Extension string `json:"extension,omitempty" jsonschema:"title=Extension"`
}

// Batch configures how a list of profiles is processed.
type Batch struct {
	// OnError is the failure policy.
	OnError string `json:"onError,omitempty" jsonschema:"title=On Error,enum=abort,enum=continue"`
	// Duplicates is the duplicate name policy.
	Duplicates string `json:"duplicates,omitempty" jsonschema:"title=Duplicates,enum=error,enum=overwrite,enum=suffix"`
	// Parallelism is the number of profiles processed at once.
	Parallelism int `json:"parallelism,omitempty" jsonschema:"title=Parallelism,minimum=1"`
}

// Fonts configures font resolution.
type Fonts struct {
	// CacheDir holds the system font index. Defaults to the user cache
	// directory.
	CacheDir string `json:"cacheDir,omitempty" jsonschema:"title=Cache Directory"`
	// Fallback is appended to every profile's fallback list.
	Fallback []string `json:"fallback,omitempty" jsonschema:"title=Fallback Fonts"`
}

// New creates a new [Config] with default values.
func New() *Config {
	c := &Config{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       "Configuration",
		},
	}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults initializes nil and empty fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.Output == nil {
		c.Output = &Output{}
	}

	if c.Output.Dir == "" {
		c.Output.Dir = os.TempDir()
	}

	if c.Output.Format == "" {
		c.Output.Format = string(fragment.FormatXML)
	}

	if c.Output.Extension == "" {
		c.Output.Extension = fragment.DefaultExtension
	}

	if c.Batch == nil {
		c.Batch = &Batch{}
	}

	if c.Batch.OnError == "" {
		c.Batch.OnError = string(convert.OnErrorAbort)
	}

	if c.Batch.Duplicates == "" {
		c.Batch.Duplicates = string(convert.DuplicatesError)
	}

	if c.Batch.Parallelism < 1 {
		c.Batch.Parallelism = 1
	}

	if c.Fonts == nil {
		c.Fonts = &Fonts{}
	}
}

// Validate checks the values the schema cannot express.
func (c *Config) Validate() error {
	err := c.Check(ValidKinds...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	var errs []error

	if c.Output != nil && c.Output.Format != "" {
		_, err := fragment.ParseFormat(c.Output.Format)
		if err != nil {
			errs = append(errs, fmt.Errorf("output.format: %w", err))
		}
	}

	if c.Batch != nil {
		if c.Batch.OnError != "" {
			_, err := convert.ParseFailurePolicy(c.Batch.OnError)
			if err != nil {
				errs = append(errs, fmt.Errorf("batch.onError: %w", err))
			}
		}

		if c.Batch.Duplicates != "" {
			_, err := convert.ParseDuplicatePolicy(c.Batch.Duplicates)
			if err != nil {
				errs = append(errs, fmt.Errorf("batch.duplicates: %w", err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	return nil
}

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// MarshalYAML serializes the config to YAML.
func (c Config) MarshalYAML() ([]byte, error) {
	type alias Config

	b, err := api.MarshalYAML(alias(c))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return b, nil
}

// Write writes the config to the specified path if it doesn't already exist.
func (c Config) Write(path string) error {
	b, err := c.MarshalYAML()
	if err != nil {
		return err
	}

	err = api.WriteIfNotExists(path, b)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// DefaultYAML returns the embedded default config.yaml.
func DefaultYAML() []byte {
	return defaultConfigYAML
}

// WriteDefault writes the embedded default config.yaml to the specified path.
// With force, an existing file is backed up and replaced.
func WriteDefault(path string, force bool) error {
	err := api.WriteDefaultFile(path, defaultConfigYAML, force, "configuration")
	if err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	return nil
}

// Schema returns the JSON schema of [Config].
func Schema() ([]byte, error) {
	schemaOnce.Do(loadSchema)

	return schemaJSON, schemaErr
}

// DefaultValidator returns a validator for configuration documents.
func DefaultValidator() (*yaml.Validator, error) {
	schemaOnce.Do(loadSchema)

	return validator, schemaErr
}

// GenerateSchema reflects the JSON schema of [Config] from the Go types.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
	}

	s := r.Reflect(&Config{})
	s.ID = SchemaURL
	s.Title = "termpack Configuration"

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

// GetPath returns the default path of the configuration file.
func GetPath() string {
	return api.GetConfigPath("config.yaml")
}
