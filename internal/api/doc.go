// Package api defines the transport DTOs shared by the daemon's HTTP
// surface and the CLI, plus thin read services over the stores.
package api
