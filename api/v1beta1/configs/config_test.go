package configs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/not-in-stock/terminal-profiles-hm/api/v1beta1"
	"github.com/not-in-stock/terminal-profiles-hm/api/v1beta1/configs"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/convert"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/fragment"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/yaml"
)

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := configs.New()

	assert.Equal(t, "termpack.not-in-stock.dev/v1beta1", cfg.GetAPIVersion())
	assert.Equal(t, "Configuration", cfg.GetKind())
	assert.Equal(t, &configs.Output{
		Dir:       os.TempDir(), //nolint:usetesting // Needs to equal host.
		Format:    "xml",
		Extension: ".xml",
	}, cfg.Output)
	assert.Equal(t, &configs.Batch{
		OnError:     "abort",
		Duplicates:  "error",
		Parallelism: 1,
	}, cfg.Batch)
	assert.Equal(t, &configs.Fonts{}, cfg.Fonts)
	require.NoError(t, cfg.Validate())
}

func TestConfig_EnsureDefaults(t *testing.T) {
	t.Parallel()

	cfg := &configs.Config{
		Output: &configs.Output{Dir: "/fragments", Format: "binary"},
		Batch:  &configs.Batch{Parallelism: -2, Duplicates: "suffix"},
	}

	cfg.EnsureDefaults()

	assert.Equal(t, "/fragments", cfg.Output.Dir)
	assert.Equal(t, "binary", cfg.Output.Format)
	assert.Equal(t, fragment.DefaultExtension, cfg.Output.Extension)
	assert.Equal(t, string(convert.OnErrorAbort), cfg.Batch.OnError)
	assert.Equal(t, "suffix", cfg.Batch.Duplicates)
	assert.Equal(t, 1, cfg.Batch.Parallelism)
	assert.NotNil(t, cfg.Fonts)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		modify func(c *configs.Config)
		err    error
		errMsg string
	}{
		"defaults": {},
		"unknown api version": {
			modify: func(c *configs.Config) { c.APIVersion = "v1" },
			err:    v1beta1.ErrUnsupportedAPIVersion,
		},
		"unknown kind": {
			modify: func(c *configs.Config) { c.Kind = "Profile" },
			err:    v1beta1.ErrUnsupportedKind,
		},
		"unknown format": {
			modify: func(c *configs.Config) { c.Output.Format = "json" },
			err:    fragment.ErrUnknownFormat,
			errMsg: "output.format",
		},
		"unknown failure policy": {
			modify: func(c *configs.Config) { c.Batch.OnError = "retry" },
			err:    convert.ErrUnknownPolicy,
			errMsg: "batch.onError",
		},
		"unknown duplicate policy": {
			modify: func(c *configs.Config) { c.Batch.Duplicates = "merge" },
			err:    convert.ErrUnknownPolicy,
			errMsg: "batch.duplicates",
		},
		"policies are case insensitive": {
			modify: func(c *configs.Config) {
				c.Batch.OnError = "Continue"
				c.Batch.Duplicates = "SUFFIX"
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := configs.New()
			if tc.modify != nil {
				tc.modify(cfg)
			}

			err := cfg.Validate()
			if tc.err == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, configs.ErrInvalidConfig)
			require.ErrorIs(t, err, tc.err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestConfig_MarshalYAML(t *testing.T) {
	t.Parallel()

	cfg := configs.New()
	cfg.Output.Dir = "/fragments"
	cfg.Fonts.Fallback = []string{"Menlo"}

	b, err := cfg.MarshalYAML()
	require.NoError(t, err)

	got := &configs.Config{}
	require.NoError(t, yaml.Unmarshal(b, got))
	assert.Equal(t, cfg, got)
}

func TestConfig_Write(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		setupPath func(t *testing.T) string
		want      string
		errMsg    string
		wantErr   bool
	}{
		"new file": {
			setupPath: func(t *testing.T) string {
				t.Helper()

				return filepath.Join(t.TempDir(), "config.yaml")
			},
		},
		"existing file": {
			setupPath: func(t *testing.T) string {
				t.Helper()

				path := filepath.Join(t.TempDir(), "config.yaml")
				err := os.WriteFile(path, []byte("existing"), 0o600)
				require.NoError(t, err)

				return path
			},
			want: "existing",
		},
		"creates parent directories": {
			setupPath: func(t *testing.T) string {
				t.Helper()

				return filepath.Join(t.TempDir(), "subdir", "config.yaml")
			},
		},
		"path is directory": {
			setupPath: func(t *testing.T) string {
				t.Helper()

				return t.TempDir()
			},
			wantErr: true,
			errMsg:  "path is a directory",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := tc.setupPath(t)

			err := configs.New().Write(path)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)

				return
			}

			require.NoError(t, err)

			b, err := os.ReadFile(path)
			require.NoError(t, err)

			if tc.want != "" {
				assert.Equal(t, tc.want, string(b))
			} else {
				assert.Contains(t, string(b), "kind: Configuration")
			}
		})
	}
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		setupPath  func(t *testing.T) string
		errMsg     string
		force      bool
		wantErr    bool
		wantBackup bool
	}{
		"new file": {
			setupPath: func(t *testing.T) string {
				t.Helper()

				return filepath.Join(t.TempDir(), "config.yaml")
			},
		},
		"path is directory": {
			setupPath: func(t *testing.T) string {
				t.Helper()

				return t.TempDir()
			},
			wantErr: true,
			errMsg:  "path is a directory",
		},
		"force existing file creates backup": {
			setupPath: func(t *testing.T) string {
				t.Helper()

				path := filepath.Join(t.TempDir(), "config.yaml")
				err := os.WriteFile(path, []byte("existing content"), 0o600)
				require.NoError(t, err)

				return path
			},
			force:      true,
			wantBackup: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := tc.setupPath(t)

			err := configs.WriteDefault(path, tc.force)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)

				return
			}

			require.NoError(t, err)

			b, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, configs.DefaultYAML(), b)

			backups, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.old"))
			require.NoError(t, err)

			if tc.wantBackup {
				require.Len(t, backups, 1)

				old, err := os.ReadFile(backups[0])
				require.NoError(t, err)
				assert.Equal(t, "existing content", string(old))
			} else {
				assert.Empty(t, backups)
			}
		})
	}
}

func TestDefaultYAML(t *testing.T) {
	t.Parallel()

	v, err := configs.DefaultValidator()
	require.NoError(t, err)

	var data any
	require.NoError(t, yaml.Unmarshal(configs.DefaultYAML(), &data))
	require.NoError(t, v.Validate(data))

	cfg := &configs.Config{}
	require.NoError(t, yaml.Unmarshal(configs.DefaultYAML(), cfg))
	cfg.EnsureDefaults()

	want := configs.New()
	assert.Equal(t, want.TypeMeta, cfg.TypeMeta)
	assert.Equal(t, want.Output, cfg.Output)
	assert.Equal(t, want.Batch, cfg.Batch)
	assert.Empty(t, cfg.Fonts.Fallback)
}

func TestDefaultValidator(t *testing.T) {
	t.Parallel()

	v, err := configs.DefaultValidator()
	require.NoError(t, err)

	tcs := map[string]struct {
		data     string
		wantPath string
		wantErr  bool
	}{
		"minimal": {
			data: "apiVersion: termpack.not-in-stock.dev/v1beta1\nkind: Configuration\n",
		},
		"missing kind": {
			data:     "apiVersion: termpack.not-in-stock.dev/v1beta1\n",
			wantErr:  true,
			wantPath: "$",
		},
		"wrong api version": {
			data:     "apiVersion: v1\nkind: Configuration\n",
			wantErr:  true,
			wantPath: "$.apiVersion",
		},
		"unknown format": {
			data:     "apiVersion: termpack.not-in-stock.dev/v1beta1\nkind: Configuration\noutput:\n  format: json\n",
			wantErr:  true,
			wantPath: "$.output.format",
		},
		"parallelism below one": {
			data:     "apiVersion: termpack.not-in-stock.dev/v1beta1\nkind: Configuration\nbatch:\n  parallelism: 0\n",
			wantErr:  true,
			wantPath: "$.batch.parallelism",
		},
		"unknown field": {
			data:     "apiVersion: termpack.not-in-stock.dev/v1beta1\nkind: Configuration\noutput:\n  color: red\n",
			wantErr:  true,
			wantPath: "$.output",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var data any
			require.NoError(t, yaml.Unmarshal([]byte(tc.data), &data))

			err := v.Validate(data)
			if !tc.wantErr {
				require.NoError(t, err)

				return
			}

			var yamlErr *yaml.Error
			require.ErrorAs(t, err, &yamlErr)
			require.NotNil(t, yamlErr.Path)
			assert.Equal(t, tc.wantPath, yamlErr.Path.String())
		})
	}
}

//nolint:paralleltest // We need to set environment variables, so run tests sequentially.
func TestGetPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	assert.Equal(t, "/custom/config/termpack/config.yaml", configs.GetPath())
}
