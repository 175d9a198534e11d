package graph

import (
	"encoding/gob"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// snapshot is the native serialization form. Arena indexes and adjacency are
// rebuilt on load.
type snapshot struct {
	Vertices []*Vertex
	Edges    []*Edge
}

// WriteSnapshot writes the native binary snapshot.
func (g *Graph) WriteSnapshot(w io.Writer) error {
	snap := snapshot{Vertices: g.vertices, Edges: g.edges}
	if err := gob.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("failed to encode graph snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot reconstructs a graph from its native binary snapshot. The
// round trip preserves vertex set, edge set, and every weight exactly.
func ReadSnapshot(r io.Reader) (*Graph, error) {
	var snap snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode graph snapshot: %w", err)
	}

	g := New()
	for _, v := range snap.Vertices {
		g.vertexIdx[v.ID] = len(g.vertices)
		g.vertices = append(g.vertices, v)
	}
	for _, e := range snap.Edges {
		g.edgeIdx[edgeKey(e.Source, e.Target)] = len(g.edges)
		g.edges = append(g.edges, e)
		g.adjacency[e.Source] = append(g.adjacency[e.Source], e.Target)
		g.adjacency[e.Target] = append(g.adjacency[e.Target], e.Source)
	}
	return g, nil
}

// SaveSnapshot writes the snapshot to a file.
func (g *Graph) SaveSnapshot(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer f.Close()

	if err := g.WriteSnapshot(f); err != nil {
		return err
	}
	return f.Close()
}

// LoadSnapshot reads a snapshot file.
func LoadSnapshot(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}

// GraphML types. List-valued attributes are flattened to comma-joined
// strings because GraphML has no native list type; round-tripping through
// this format yields the flattened form, which is accepted and documented.
type graphmlDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	Xmlns   string       `xml:"xmlns,attr"`
	Keys    []graphmlKey `xml:"key"`
	Graph   graphmlGraph `xml:"graph"`
}

type graphmlKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type graphmlGraph struct {
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphmlNode `xml:"node"`
	Edges       []graphmlEdge `xml:"edge"`
}

type graphmlNode struct {
	ID   string         `xml:"id,attr"`
	Data []graphmlDatum `xml:"data"`
}

type graphmlEdge struct {
	Source string         `xml:"source,attr"`
	Target string         `xml:"target,attr"`
	Data   []graphmlDatum `xml:"data"`
}

type graphmlDatum struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// WriteGraphML writes the graph in GraphML for external visualization tools.
func (g *Graph) WriteGraphML(w io.Writer) error {
	doc := graphmlDoc{
		Xmlns: "http://graphml.graphdrawing.org/xmlns",
		Keys: []graphmlKey{
			{ID: "d0", For: "node", AttrName: "type", AttrType: "string"},
			{ID: "d1", For: "node", AttrName: "label", AttrType: "string"},
			{ID: "d2", For: "node", AttrName: "source_documents", AttrType: "string"},
			{ID: "d3", For: "edge", AttrName: "weight", AttrType: "int"},
		},
		Graph: graphmlGraph{EdgeDefault: "undirected"},
	}

	for _, v := range g.vertices {
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphmlNode{
			ID: v.ID,
			Data: []graphmlDatum{
				{Key: "d0", Value: v.Type},
				{Key: "d1", Value: v.Label},
				{Key: "d2", Value: strings.Join(v.SourceDocumentIDs, ",")},
			},
		})
	}
	for _, e := range g.edges {
		doc.Graph.Edges = append(doc.Graph.Edges, graphmlEdge{
			Source: e.Source,
			Target: e.Target,
			Data:   []graphmlDatum{{Key: "d3", Value: strconv.Itoa(e.Weight)}},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode graphml: %w", err)
	}
	return enc.Close()
}

// SaveGraphML writes the GraphML document to a file.
func (g *Graph) SaveGraphML(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create graphml file: %w", err)
	}
	defer f.Close()

	if err := g.WriteGraphML(f); err != nil {
		return err
	}
	return f.Close()
}

// nodeLink is the generic node-link JSON projection.
type nodeLink struct {
	Directed   bool           `json:"directed"`
	Multigraph bool           `json:"multigraph"`
	Nodes      []nodeLinkNode `json:"nodes"`
	Links      []EdgeView     `json:"links"`
}

type nodeLinkNode struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	Label           string   `json:"label"`
	SourceDocuments []string `json:"source_documents"`
}

// WriteNodeLinkJSON writes a generic node-link JSON projection of the graph.
func (g *Graph) WriteNodeLinkJSON(w io.Writer) error {
	doc := nodeLink{
		Nodes: make([]nodeLinkNode, 0, g.NodeCount()),
		Links: make([]EdgeView, 0, g.EdgeCount()),
	}
	for _, v := range g.vertices {
		doc.Nodes = append(doc.Nodes, nodeLinkNode{
			ID:              v.ID,
			Type:            v.Type,
			Label:           v.Label,
			SourceDocuments: v.SourceDocumentIDs,
		})
	}
	for _, e := range g.edges {
		doc.Links = append(doc.Links, EdgeView{Source: e.Source, Target: e.Target, Weight: e.Weight})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode node-link json: %w", err)
	}
	return nil
}
