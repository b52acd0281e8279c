// Package canvas reads and writes Obsidian ".canvas" files: JSON documents
// following the JSON Canvas 1.0 spec (spec.md §6). The engine treats a
// canvas as opaque JSON it passes through rather than a structure it
// understands semantically, so every node and edge keeps any field it
// didn't recognize in an Extra passthrough map round-tripped on marshal.
package canvas

import (
	"encoding/json"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Categories follow the teacher's go-repository-bun idiom of declaring
// package-scoped goerrors.Category constants.
const (
	CategoryCanvasInvalid goerrors.Category = "canvas_invalid"
)

const textCodeCanvasInvalid = "CANVAS_INVALID"

// ErrMalformed is the sentinel goerrors.Wrap carries when a .canvas file's
// bytes aren't valid JSON Canvas.
var ErrMalformed = fmt.Errorf("canvas: malformed JSON Canvas document")

// Node types the JSON Canvas 1.0 spec defines.
const (
	NodeFile  = "file"
	NodeText  = "text"
	NodeLink  = "link"
	NodeGroup = "group"
)

// Canvas is a full JSON Canvas document: a set of nodes and the edges
// connecting them.
type Canvas struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one JSON Canvas node. Fields the spec defines are typed; any
// field this package doesn't model is preserved in Extra and re-emitted on
// Marshal, so a canvas this package doesn't fully understand round-trips
// byte-for-byte in content (field order aside).
type Node struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Color  string `json:"color,omitempty"`

	// Type-specific fields: File for type "file", Text for "text", URL for
	// "link", Label for "group". Only the one matching Type is populated.
	File  string `json:"file,omitempty"`
	Text  string `json:"text,omitempty"`
	URL   string `json:"url,omitempty"`
	Label string `json:"label,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Edge is one JSON Canvas edge connecting two nodes by id.
type Edge struct {
	ID       string `json:"id"`
	FromNode string `json:"fromNode"`
	ToNode   string `json:"toNode"`
	FromSide string `json:"fromSide,omitempty"`
	ToSide   string `json:"toSide,omitempty"`
	Label    string `json:"label,omitempty"`
	Color    string `json:"color,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var nodeKnownFields = map[string]bool{
	"id": true, "type": true, "x": true, "y": true, "width": true, "height": true,
	"color": true, "file": true, "text": true, "url": true, "label": true,
}

var edgeKnownFields = map[string]bool{
	"id": true, "fromNode": true, "toNode": true,
	"fromSide": true, "toSide": true, "label": true, "color": true,
}

// UnmarshalJSON decodes a node, routing any field this package doesn't
// model into Extra instead of discarding it.
func (n *Node) UnmarshalJSON(data []byte) error {
	type alias Node
	var typed alias
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	*n = Node(typed)

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.Extra = extraFields(raw, nodeKnownFields)
	return nil
}

// MarshalJSON encodes a node, merging its typed fields back in with
// whatever was preserved in Extra.
func (n Node) MarshalJSON() ([]byte, error) {
	type alias Node
	encoded, err := json.Marshal(alias(n))
	if err != nil {
		return nil, err
	}
	return mergeExtra(encoded, n.Extra)
}

// UnmarshalJSON decodes an edge, routing any field this package doesn't
// model into Extra instead of discarding it.
func (e *Edge) UnmarshalJSON(data []byte) error {
	type alias Edge
	var typed alias
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	*e = Edge(typed)

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Extra = extraFields(raw, edgeKnownFields)
	return nil
}

// MarshalJSON encodes an edge, merging its typed fields back in with
// whatever was preserved in Extra.
func (e Edge) MarshalJSON() ([]byte, error) {
	type alias Edge
	encoded, err := json.Marshal(alias(e))
	if err != nil {
		return nil, err
	}
	return mergeExtra(encoded, e.Extra)
}

func extraFields(raw map[string]json.RawMessage, known map[string]bool) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	extra := make(map[string]json.RawMessage)
	for key, value := range raw {
		if !known[key] {
			extra[key] = value
		}
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}

func mergeExtra(encoded []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return encoded, nil
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(encoded, &merged); err != nil {
		return nil, err
	}
	for key, value := range extra {
		merged[key] = value
	}
	return json.Marshal(merged)
}

// Parse decodes a .canvas file's bytes into a Canvas. An empty input
// decodes to an empty Canvas rather than an error, matching how Obsidian
// treats a freshly created canvas file.
func Parse(data []byte) (*Canvas, error) {
	if len(data) == 0 {
		return &Canvas{}, nil
	}
	var c Canvas
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, goerrors.Wrap(ErrMalformed, CategoryCanvasInvalid, fmt.Sprintf("canvas: parse: %v", err)).
			WithTextCode(textCodeCanvasInvalid)
	}
	return &c, nil
}

// Marshal encodes a Canvas back to indented JSON, matching the format
// Obsidian itself writes .canvas files in.
func (c *Canvas) Marshal() ([]byte, error) {
	if c == nil {
		c = &Canvas{}
	}
	return json.MarshalIndent(c, "", "  ")
}
