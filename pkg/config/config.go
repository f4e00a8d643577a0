package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/not-in-stock/terminal-profiles-hm/api"
	"github.com/not-in-stock/terminal-profiles-hm/api/v1beta1/configs"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/profile"
)

// Source describes where a configuration came from.
type Source string

const (
	// SourceFlag is a path given explicitly, e.g. with --config.
	SourceFlag Source = "flag"
	// SourceProject is a .termpack.yaml next to the input.
	SourceProject Source = "project"
	// SourceUser is the per-user configuration file.
	SourceUser Source = "user"
	// SourceDefault means no file was found and defaults are in effect.
	SourceDefault Source = "default"
)

// Resolved is a loaded configuration and where it came from.
type Resolved struct {
	Config *configs.Config
	Source Source
	// Path is empty for [SourceDefault].
	Path string
}

// Load reads, validates and loads the configuration file at path.
func Load(path string) (*configs.Config, error) {
	v, err := configs.DefaultValidator()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	l, err := NewLoaderFromFile(path, configs.New, v)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	err = l.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}

	cfg, err := l.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve finds and loads the configuration for an input file.
//
// If explicit is set, that file must exist. Otherwise a project file is
// searched for from input upwards, then the user configuration is tried.
// Input may be empty or [profile.StdinPath], in which case no project file is
// searched for.
func Resolve(explicit, input string) (*Resolved, error) {
	if explicit != "" {
		return resolveFile(explicit, SourceFlag)
	}

	if input != "" && input != profile.StdinPath {
		path, err := api.FindConfigFile(input, api.ProjectConfigNames)
		if err != nil {
			slog.Debug("skip project config search",
				slog.String("input", input),
				slog.Any("err", err),
			)
		}

		if path != "" {
			return resolveFile(path, SourceProject)
		}
	}

	path := configs.GetPath()

	_, err := os.Stat(path)
	switch {
	case err == nil:
		return resolveFile(path, SourceUser)
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("no config file found, using defaults", slog.String("path", path))

		return &Resolved{Config: configs.New(), Source: SourceDefault}, nil
	default:
		return nil, fmt.Errorf("stat config: %w", err)
	}
}

func resolveFile(path string, source Source) (*Resolved, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	slog.Debug("loaded config",
		slog.String("path", path),
		slog.String("source", string(source)),
	)

	return &Resolved{Config: cfg, Source: source, Path: path}, nil
}
