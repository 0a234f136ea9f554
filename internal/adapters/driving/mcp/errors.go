// Package mcp provides an MCP (Model Context Protocol) server adapter for citeqa.
// It lets AI assistants ask cited questions over the ingested documents.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
