// Package config provides configuration structures and utilities for
// newsadvisor. It defines the run settings an advisor session re-evaluates
// on every update, the scanning options of the CLI, and the YAML and
// environment sources they are loaded from.
package config
