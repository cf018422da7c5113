// Package resources implements MCP resource handlers for the roadmap
// engine.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (waypoint://...) following MCP
// conventions. Reads take no lock and may observe a stale snapshot.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/waypoint/internal/archive"
	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler manages roadmap resource endpoints.
type Handler struct {
	store roadmap.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store roadmap.Store) *Handler {
	return &Handler{store: store}
}

// RoadmapResource returns the MCP resource definition for the document.
func (h *Handler) RoadmapResource() mcp.Resource {
	return mcp.NewResource(
		"waypoint://roadmap",
		"Roadmap Document",
		mcp.WithResourceDescription("The full roadmap: phases, active phase, and backlog"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleRoadmap returns the parsed roadmap document as JSON.
func (h *Handler) HandleRoadmap(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	root, err := findRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	doc, err := h.store.Load(root)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, doc)
}

// BacklogResource returns the MCP resource definition for the backlog.
func (h *Handler) BacklogResource() mcp.Resource {
	return mcp.NewResource(
		"waypoint://roadmap/backlog",
		"Backlog",
		mcp.WithResourceDescription("All backlog items with status, provenance, and assignments"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleBacklog returns the backlog item set as JSON.
func (h *Handler) HandleBacklog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	root, err := findRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	doc, err := h.store.Load(root)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, doc.Backlog)
}

// ArchiveResource returns the MCP resource definition for the archive.
func (h *Handler) ArchiveResource() mcp.Resource {
	return mcp.NewResource(
		"waypoint://archive",
		"Phase Archive",
		mcp.WithResourceDescription("Full snapshots of closed phases, keyed by phase number"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleArchive returns every archived phase snapshot as JSON.
func (h *Handler) HandleArchive(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	root, err := findRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	arch, err := archive.Open(root)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	defer arch.Close()

	entries, err := arch.List()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, entries)
}

// jsonResource marshals a value into a single JSON resource.
func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
