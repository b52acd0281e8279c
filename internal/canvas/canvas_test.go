package canvas_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/goliatone/go-memory/internal/canvas"
)

func TestParseRoundTripsKnownFields(t *testing.T) {
	input := []byte(`{
		"nodes": [
			{"id": "doc1", "type": "file", "file": "docs/architecture.md", "x": 0, "y": 0, "width": 400, "height": 300, "color": "3"},
			{"id": "note1", "type": "text", "text": "# Key Points", "x": 500, "y": 0, "width": 300, "height": 200}
		],
		"edges": [
			{"id": "e1", "fromNode": "doc1", "toNode": "note1", "label": "summarizes"}
		]
	}`)

	c, err := canvas.Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Nodes) != 2 || len(c.Edges) != 1 {
		t.Fatalf("expected 2 nodes and 1 edge, got %d/%d", len(c.Nodes), len(c.Edges))
	}
	if c.Nodes[0].Type != canvas.NodeFile || c.Nodes[0].File != "docs/architecture.md" {
		t.Fatalf("unexpected file node: %+v", c.Nodes[0])
	}
	if c.Edges[0].Label != "summarizes" {
		t.Fatalf("unexpected edge: %+v", c.Edges[0])
	}
}

func TestParseEmptyInputReturnsEmptyCanvas(t *testing.T) {
	c, err := canvas.Parse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Nodes) != 0 || len(c.Edges) != 0 {
		t.Fatalf("expected empty canvas, got %+v", c)
	}
}

func TestParseMalformedReturnsWrappedSentinel(t *testing.T) {
	_, err := canvas.Parse([]byte(`{not json`))
	if !errors.Is(err, canvas.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestUnknownFieldsPassThroughMarshal(t *testing.T) {
	input := []byte(`{
		"nodes": [
			{"id": "n1", "type": "group", "label": "Section", "x": 0, "y": 0, "width": 100, "height": 100, "futureField": "keep-me"}
		],
		"edges": []
	}`)

	c, err := canvas.Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	encoded, err := c.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var roundTripped map[string]any
	if err := json.Unmarshal(encoded, &roundTripped); err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	nodes, ok := roundTripped["nodes"].([]any)
	if !ok || len(nodes) != 1 {
		t.Fatalf("expected one node in round-tripped output, got %v", roundTripped["nodes"])
	}
	node, ok := nodes[0].(map[string]any)
	if !ok || node["futureField"] != "keep-me" {
		t.Fatalf("expected futureField to survive round-trip, got %v", node)
	}
}
