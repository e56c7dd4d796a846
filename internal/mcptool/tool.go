// Package mcptool exposes the export parsers as an MCP tool so assistants
// can turn pasted report text into typed records.
package mcptool

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"qualityreport/internal/extract"
	"qualityreport/internal/inputs"
)

// MetadataExtractRecords describes the extract_records tool.
var MetadataExtractRecords = &mcp.Tool{
	Name: "extract_records",
	Description: "Extract typed records from a copy-pasted quality export. " +
		"Choose the parser by export name: prb, bugs, ci, leftshift, abs, security, scan, " +
		"ci_backlog, security_backlog or leftshift_backlog. " +
		"Returns one object per unique work or problem report ID; fields the text does not " +
		"carry keep their default values.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"export", "content"},
		"properties": map[string]interface{}{
			"export": map[string]interface{}{
				"type":        "string",
				"description": "Name of the export layout the content was copied from.",
				"enum":        extract.DefaultRegistry().Names(),
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Raw text of the export.",
			},
		},
	},
}

type InputExtractRecords struct {
	Export  string `json:"export"`
	Content string `json:"content"`
}

type OutputExtractRecords struct {
	Kind    string           `json:"kind"`
	Count   int              `json:"count"`
	Records []map[string]any `json:"records"`
}

type handler struct {
	registry *extract.Registry
}

func (h handler) extractRecords(_ context.Context, _ *mcp.CallToolRequest, input InputExtractRecords) (*mcp.CallToolResult, OutputExtractRecords, error) {
	parser, ok := h.registry.Lookup(input.Export)
	if !ok {
		return nil, OutputExtractRecords{}, fmt.Errorf("unknown export %q (known: %v)", input.Export, h.registry.Names())
	}
	records := parser.Parse(inputs.Normalize(input.Content))

	out := OutputExtractRecords{Kind: string(parser.Kind()), Count: len(records), Records: make([]map[string]any, 0, len(records))}
	for _, r := range records {
		obj, err := toObject(r)
		if err != nil {
			return nil, OutputExtractRecords{}, err
		}
		out.Records = append(out.Records, obj)
	}
	log.Printf("mcp extract_records export=%s records=%d", input.Export, out.Count)
	return nil, out, nil
}

func toObject(r extract.Record) (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.RecordID(), err)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.RecordID(), err)
	}
	return obj, nil
}

// NewServer returns an MCP server with the extraction tool registered.
func NewServer(version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "qualityreport", Version: version}, nil)
	h := handler{registry: extract.DefaultRegistry()}
	mcp.AddTool(server, MetadataExtractRecords, h.extractRecords)
	return server
}

// Serve runs the server over stdin/stdout until the client disconnects or
// ctx is done.
func Serve(ctx context.Context, version string) error {
	return NewServer(version).Run(ctx, &mcp.StdioTransport{})
}
