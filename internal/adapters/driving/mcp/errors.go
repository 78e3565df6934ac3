// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants index a web page and query it through tools.
package mcp

import "errors"

// ErrMissingPageService is returned when the page service is not provided.
var ErrMissingPageService = errors.New("mcp: page service is required")
