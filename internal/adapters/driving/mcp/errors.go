// Package mcp provides an MCP (Model Context Protocol) server adapter for guidekit.
// It lets AI assistants search indexed guidelines and drive the proposal workflow.
// Writes still require the reviewer's code hash or a confirmed option.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
