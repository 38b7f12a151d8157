// Package mcpserver exposes the directory split as an MCP tool.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"dicomsplit/pkg/split"
)

// ToolName is the name the split tool is registered under
const ToolName = "split_dicom_directory"

// Handler runs split requests
type Handler struct {
	logger *log.Logger
}

// NewHandler creates a handler. A nil logger uses log.Default(); it must not
// write to stdout when serving over stdio.
func NewHandler(logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{logger: logger}
}

// NewServer creates an MCP server with the split tool registered
func NewServer(name, version string, h *Handler) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithRecovery(),
	)
	mcpServer.AddTool(Tool(), h.Split)
	return mcpServer
}

// Tool describes the split tool's arguments
func Tool() mcp.Tool {
	return mcp.Tool{
		Name: ToolName,
		Description: "Split every slice of a DICOM series directory into N pieces along rows or columns. " +
			"Writes <directory>.1 .. <directory>.N and returns a JSON report. Give either count or pairs.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"directory": map[string]interface{}{
					"type":        "string",
					"description": "Directory holding one DICOM file per slice",
				},
				"axis": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"rows", "columns"},
					"description": "In-plane axis to split along (default columns)",
				},
				"count": map[string]interface{}{
					"type":        "integer",
					"description": "Number of output volumes",
				},
				"pairs": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "One SOP_UID/Series_UID pair per output volume",
				},
				"origin": map[string]interface{}{
					"type":        "boolean",
					"description": "Recompute Image Position (Patient) for every piece",
				},
				"continue_on_error": map[string]interface{}{
					"type":        "boolean",
					"description": "Keep splitting the remaining files after a failure",
				},
			},
			Required: []string{"directory"},
		},
	}
}

// request holds decoded tool arguments
type request struct {
	directory       string
	axis            string
	count           int
	pairs           []string
	origin          bool
	continueOnError bool
}

func decode(req mcp.CallToolRequest) (request, error) {
	r := request{axis: "columns"}
	args, ok := req.Params.Arguments.(map[string]interface{})
	if !ok {
		return r, fmt.Errorf("%w: missing arguments", split.ErrConfig)
	}

	if v, ok := args["directory"].(string); ok {
		r.directory = v
	}
	if r.directory == "" {
		return r, fmt.Errorf("%w: directory is required", split.ErrConfig)
	}
	if v, ok := args["axis"].(string); ok && v != "" {
		r.axis = v
	}
	switch v := args["count"].(type) {
	case float64:
		r.count = int(v)
		if float64(r.count) != v {
			return r, fmt.Errorf("%w: count must be an integer, got %v", split.ErrConfig, v)
		}
	case int:
		r.count = v
	case nil:
	default:
		return r, fmt.Errorf("%w: count must be a number", split.ErrConfig)
	}
	if v, ok := args["pairs"].([]interface{}); ok {
		for _, p := range v {
			s, ok := p.(string)
			if !ok {
				return r, fmt.Errorf("%w: pairs must be strings", split.ErrConfig)
			}
			r.pairs = append(r.pairs, s)
		}
	}
	if v, ok := args["origin"].(bool); ok {
		r.origin = v
	}
	if v, ok := args["continue_on_error"].(bool); ok {
		r.continueOnError = v
	}
	return r, nil
}

func (r request) plan() (split.Plan, error) {
	if r.count != 0 && len(r.pairs) > 0 {
		return split.Plan{}, fmt.Errorf("%w: give either count or pairs, not both", split.ErrConfig)
	}
	axis, err := split.ParseAxis(r.axis)
	if err != nil {
		return split.Plan{}, err
	}
	pairs, err := split.ParsePairs(r.pairs)
	if err != nil {
		return split.Plan{}, err
	}
	return split.NewPlan(axis, r.count, pairs, r.origin)
}

// Split is the tool handler. Configuration and run failures are returned as
// errors; a run that completes returns the report as indented JSON.
func (h *Handler) Split(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := decode(req)
	if err != nil {
		return nil, err
	}
	plan, err := r.plan()
	if err != nil {
		return nil, err
	}

	splitter, err := split.NewSplitter(plan, split.Options{
		Logger:          h.logger,
		ContinueOnError: r.continueOnError,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Printf("Splitting %s (%s)", r.directory, plan)
	report, runErr := splitter.Directory(r.directory)
	// Per-file failures collected under continue_on_error still produce a report
	if runErr != nil && (report == nil || len(report.Failed) == 0) {
		return nil, fmt.Errorf("split of %s failed: %w", r.directory, runErr)
	}

	jsonBytes, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, err
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(string(jsonBytes)),
		},
		IsError: runErr != nil,
	}, nil
}
