// Package config holds the audit configuration: defaults, validation, XDG
// directories and the optional .sitequality YAML file with per-site cookies,
// headers, page limits and URL patterns.
package config
