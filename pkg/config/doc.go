// Package config loads termpack's configuration file.
//
// A configuration is looked up in order: an explicit path, a project file
// (.termpack.yaml) in the input's directory or one of its parents, and
// finally the user configuration under $XDG_CONFIG_HOME/termpack. When none
// exists the built-in defaults are used.
package config
