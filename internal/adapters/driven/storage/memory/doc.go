// Package memory provides in-memory implementations of the driven storage
// ports. They hold no state across processes and are used in tests and for
// dry runs.
package memory
