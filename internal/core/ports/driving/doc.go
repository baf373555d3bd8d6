// Package driving defines the interfaces that external actors use to drive the core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// The CLI, MCP server and TUI call these interfaces; services implement them.
package driving
