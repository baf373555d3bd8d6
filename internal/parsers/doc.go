// Package parsers provides implementations of the DocumentParser interface
// for the guideline formats the registry accepts. Each parser turns raw file
// bytes into pages of plain text, an optional native outline and optional
// native tables.
//
// Parsers are registered with the Registry at startup; RegisterDefaults adds
// the built-in set.
package parsers
