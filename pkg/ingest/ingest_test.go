package ingest

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/foldview/foldview/pkg/errors"
	"github.com/foldview/foldview/pkg/graphstate"
)

const sampleJSON = `{
  "nodes": [
    {"id": "a", "label": "A"},
    {"id": "b", "label": "B"}
  ],
  "edges": [
    {"id": "e1", "source": "a", "target": "b"}
  ],
  "containers": [
    {"id": "c1", "label": "C1", "children": ["a", "b"], "collapsed": true}
  ]
}`

func TestReadJSON(t *testing.T) {
	doc, err := ReadJSON(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	if len(doc.Nodes) != 2 || len(doc.Edges) != 1 || len(doc.Containers) != 1 {
		t.Errorf("doc = %d nodes, %d edges, %d containers", len(doc.Nodes), len(doc.Edges), len(doc.Containers))
	}
	if !doc.Containers[0].Collapsed {
		t.Error("collapsed flag should survive decoding")
	}
}

func TestReadJSONMalformed(t *testing.T) {
	if _, err := ReadJSON(strings.NewReader("{not json")); err == nil {
		t.Error("malformed JSON should error")
	}
}

func TestApply(t *testing.T) {
	doc, err := ReadJSON(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatal(err)
	}

	st := graphstate.New()
	if err := doc.Apply(st); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(st.Nodes()) != 2 || len(st.Edges()) != 1 || len(st.Containers()) != 1 {
		t.Error("Apply should feed every record into the state")
	}
	if parent, _ := st.ContainerOf("a"); parent != "c1" {
		t.Errorf("ContainerOf(a) = %q, want c1", parent)
	}

	// The collapsed flag is live: members are already hidden
	if st.NodeVisible("a") {
		t.Error("member of collapsed container should not be visible after Apply")
	}
	if got := len(st.AggregatedEdges()); got != 0 {
		// e1 is interior to c1, so nothing aggregates
		t.Errorf("got %d hyperedges, want 0", got)
	}
}

func TestApplyWrapsEntityID(t *testing.T) {
	doc := Document{Nodes: []graphstate.Node{{ID: "bad"}}} // missing label

	err := doc.Apply(graphstate.New())
	if err == nil {
		t.Fatal("Apply should surface validation errors")
	}
	if !strings.Contains(err.Error(), "node bad") {
		t.Errorf("error %q should name the offending entity", err)
	}
	if !errors.Is(err, errors.ErrCodeValidation) {
		t.Error("wrapped error should keep its validation code")
	}
}

func TestApplyNoRollback(t *testing.T) {
	doc := Document{
		Nodes: []graphstate.Node{
			{ID: "ok", Label: "OK"},
			{ID: "bad"}, // fails after ok is applied
		},
	}

	st := graphstate.New()
	if err := doc.Apply(st); err == nil {
		t.Fatal("Apply should fail on the bad record")
	}
	if _, ok := st.Node("ok"); !ok {
		t.Error("records applied before the failure must stay applied")
	}
}

func TestExportRoundTrip(t *testing.T) {
	doc, err := ReadJSON(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatal(err)
	}
	st := graphstate.New()
	if err := doc.Apply(st); err != nil {
		t.Fatal(err)
	}

	out := Export(st)
	if len(out.Nodes) != 2 || len(out.Edges) != 1 || len(out.Containers) != 1 {
		t.Error("Export should capture the full model")
	}
	// Export ignores visibility: collapsed members are still present
	if !out.Containers[0].Collapsed {
		t.Error("Export should keep the collapsed flag")
	}
}

func TestWriteReadFile(t *testing.T) {
	doc, err := ReadJSON(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "graph.json")
	if err := WriteFile(doc, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	back, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(back.Nodes) != len(doc.Nodes) || len(back.Containers) != len(doc.Containers) {
		t.Error("file round trip should preserve the document")
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("missing file should error")
	}
}
