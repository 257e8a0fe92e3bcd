package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/layout"
)

func TestReadGraph(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNodes int
		wantEdges int
		wantCode  errors.Code
		check     func(t *testing.T, g Graph)
	}{
		{
			name: "Valid",
			input: `{
				"kind": "lts",
				"start": "s0",
				"nodes": [
					{"id": "s0"},
					{"id": "s1", "x": 100, "y": 50, "width": 120, "pinned": true}
				],
				"edges": [
					{"from": "s0", "to": "s1", "label": "a"}
				]
			}`,
			wantNodes: 2,
			wantEdges: 1,
			check: func(t *testing.T, g Graph) {
				n, ok := g.Node("s1")
				if !ok {
					t.Fatal("node s1 not found")
				}
				if n.Width != 120 || n.Height != DefaultNodeHeight {
					t.Errorf("size = %vx%v, want 120x%v", n.Width, n.Height, DefaultNodeHeight)
				}
				if !n.Pinned {
					t.Error("s1 not pinned")
				}
				if g.Edges[0].ID != "e0" {
					t.Errorf("edge id = %q, want e0", g.Edges[0].ID)
				}
			},
		},
		{
			name:      "DefaultKind",
			input:     `{"nodes": [{"id": "a"}], "edges": []}`,
			wantNodes: 1,
			check: func(t *testing.T, g Graph) {
				if g.Kind != KindHost {
					t.Errorf("kind = %q, want %q", g.Kind, KindHost)
				}
			},
		},
		{
			name:     "Malformed",
			input:    `{"nodes": [`,
			wantCode: errors.ErrCodeInvalidInput,
		},
		{
			name:     "DuplicateNode",
			input:    `{"nodes": [{"id": "a"}, {"id": "a"}], "edges": []}`,
			wantCode: errors.ErrCodeInvalidGraph,
		},
		{
			name:     "UnknownTarget",
			input:    `{"nodes": [{"id": "a"}], "edges": [{"from": "a", "to": "b"}]}`,
			wantCode: errors.ErrCodeInvalidGraph,
		},
		{
			name:     "NegativeSize",
			input:    `{"nodes": [{"id": "a", "width": -5}], "edges": []}`,
			wantCode: errors.ErrCodeInvalidGraph,
		},
		{
			name:     "UnknownKind",
			input:    `{"kind": "petri", "nodes": [], "edges": []}`,
			wantCode: errors.ErrCodeInvalidGraph,
		},
		{
			name:     "UnknownStart",
			input:    `{"start": "s9", "nodes": [{"id": "s0"}], "edges": []}`,
			wantCode: errors.ErrCodeInvalidGraph,
		},
		{
			name:     "EmptyID",
			input:    `{"nodes": [{"id": ""}], "edges": []}`,
			wantCode: errors.ErrCodeInvalidGraph,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ReadGraph(strings.NewReader(tt.input))
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("ReadGraph() error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadGraph() error = %v", err)
			}
			if len(g.Nodes) != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", len(g.Nodes), tt.wantNodes)
			}
			if len(g.Edges) != tt.wantEdges {
				t.Errorf("edges = %d, want %d", len(g.Edges), tt.wantEdges)
			}
			if tt.check != nil {
				tt.check(t, g)
			}
		})
	}
}

func TestWriteReadGraphFile(t *testing.T) {
	g := Graph{
		Kind:  KindRule,
		Nodes: []Node{{ID: "a", X: 1, Y: 2}, {ID: "b", Label: "B"}},
		Edges: []Edge{{ID: "x", From: "a", To: "b", Points: []layout.Point{{X: 5, Y: 5}}}},
	}
	g.Normalize()

	path := filepath.Join(t.TempDir(), "g.json")
	if err := WriteGraphFile(g, path); err != nil {
		t.Fatalf("WriteGraphFile: %v", err)
	}
	got, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile: %v", err)
	}
	if got.Kind != KindRule || len(got.Nodes) != 2 || got.Nodes[1].DisplayLabel() != "B" {
		t.Errorf("round trip = %+v", got)
	}
	if len(got.Edges[0].Points) != 1 {
		t.Errorf("points = %v, want 1", got.Edges[0].Points)
	}
}

func TestReadGraphFileNotFound(t *testing.T) {
	_, err := ReadGraphFile(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestMarshalGraph(t *testing.T) {
	g := Graph{Nodes: []Node{{ID: "a", Width: 10, Height: 10}}, Edges: []Edge{}}
	data, err := MarshalGraph(g)
	if err != nil {
		t.Fatalf("MarshalGraph: %v", err)
	}
	if !bytes.Contains(data, []byte(`"id": "a"`)) {
		t.Errorf("output missing node: %s", data)
	}
	if bytes.Contains(data, []byte("pinned")) {
		t.Errorf("false flags should be omitted: %s", data)
	}

	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Error("WriteGraph and MarshalGraph differ")
	}
}

func TestBounds(t *testing.T) {
	g := Graph{Nodes: []Node{
		{ID: "a", X: 10, Y: 20, Width: 80, Height: 30},
		{ID: "b", X: 200, Y: 5, Width: 40, Height: 100},
		{ID: "c", X: 900, Y: 900, Width: 10, Height: 10, Hidden: true},
	}}
	want := layout.Rect{X: 10, Y: 5, Width: 230, Height: 100}
	if got := g.Bounds(); got != want {
		t.Errorf("Bounds() = %+v, want %+v", got, want)
	}
	if got := (&Graph{}).Bounds(); got != (layout.Rect{}) {
		t.Errorf("empty Bounds() = %+v", got)
	}
}

func TestDefaultAlgorithm(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{KindLTS, layout.AlgorithmForest},
		{KindControl, layout.AlgorithmForest},
		{KindRule, layout.AlgorithmSpring},
		{KindHost, layout.AlgorithmSpring},
		{KindType, layout.AlgorithmSpring},
		{"", layout.AlgorithmSpring},
	}
	for _, tt := range tests {
		if got := DefaultAlgorithm(tt.kind); got != tt.want {
			t.Errorf("DefaultAlgorithm(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestLayoutFile(t *testing.T) {
	l := Layout{
		Algorithm: layout.AlgorithmForest,
		Positions: map[string]layout.Point{"a": {X: 80, Y: 15}},
		LaidOut:   []string{"a"},
		Roots:     []string{"a"},
	}
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteLayoutFile(l, path); err != nil {
		t.Fatalf("WriteLayoutFile: %v", err)
	}
	got, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("ReadLayoutFile: %v", err)
	}
	if got.Positions["a"] != l.Positions["a"] {
		t.Errorf("position = %v, want %v", got.Positions["a"], l.Positions["a"])
	}

	if err := os.WriteFile(path, []byte(`{"algorithm": "radial"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadLayoutFile(path); !errors.Is(err, errors.ErrCodeInvalidAlgorithm) {
		t.Errorf("error = %v, want INVALID_ALGORITHM", err)
	}
}
