package mcp

import (
	"github.com/pagelens/pagelens-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Page indexes pages and serves queries over them.
	Page driving.PageService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Page == nil {
		return ErrMissingPageService
	}
	return nil
}
