// Package ingest is the boundary to the parsing collaborator: it decodes
// batch documents into CRUD calls against the graph state and exports the
// model back out. The state engine never sees the file format.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/foldview/foldview/pkg/graphstate"
)

// Document is a parsed batch of node, edge and container records.
//
// The JSON shape is:
//
//	{
//	  "nodes":      [{"id": "a", "label": "A"}],
//	  "edges":      [{"id": "e1", "source": "a", "target": "b"}],
//	  "containers": [{"id": "c1", "label": "C1", "children": ["a", "b"]}]
//	}
//
// Container membership is declared only through children arrays; there is
// no separate tree object.
type Document struct {
	Nodes      []graphstate.Node      `json:"nodes"`
	Edges      []graphstate.Edge      `json:"edges"`
	Containers []graphstate.Container `json:"containers"`
}

// ReadJSON decodes a document from r. The document is validated lazily:
// malformed records surface when Apply feeds them to the state engine.
func ReadJSON(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode: %w", err)
	}
	return doc, nil
}

// ReadFile reads a document from a JSON file.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// Apply feeds the document through the state engine's CRUD surface.
// Containers go last so children declared before their container still
// attach. Errors are wrapped with the offending entity's ID; records
// already applied stay applied (there is no rollback, matching the
// queue's single-thunk atomicity model).
func (d Document) Apply(st *graphstate.State) error {
	for _, n := range d.Nodes {
		if err := st.AddNode(n); err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range d.Edges {
		if err := st.AddEdge(e); err != nil {
			return fmt.Errorf("edge %s: %w", e.ID, err)
		}
	}
	for _, c := range d.Containers {
		if err := st.AddContainer(c); err != nil {
			return fmt.Errorf("container %s: %w", c.ID, err)
		}
	}
	return nil
}

// Export captures the full model (visibility ignored) as a document.
func Export(st *graphstate.State) Document {
	return Document{
		Nodes:      st.Nodes(),
		Edges:      st.Edges(),
		Containers: st.Containers(),
	}
}

// WriteJSON writes a document to w as indented JSON.
func WriteJSON(d Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes a document to a JSON file with 0644 permissions.
func WriteFile(d Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(d, f)
}
