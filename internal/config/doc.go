// Package config loads, normalizes, and validates tracklift configuration.
//
// Configuration lives in a TOML file (default ~/.config/tracklift/config.toml,
// with ./tracklift.toml as a project-local fallback). Load applies defaults,
// expands ~ in path fields, and validates required storage credentials before
// anything touches the network. Business logic never reads environment state;
// the Config value is constructed once and injected into the signer, store
// client, and daemon.
package config
