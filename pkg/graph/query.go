package graph

import "fmt"

// Stats summarizes graph structure for the stats endpoint.
type Stats struct {
	NodeCount     int            `json:"node_count"`
	EdgeCount     int            `json:"edge_count"`
	NodeTypes     map[string]int `json:"node_types"`
	AverageDegree float64        `json:"average_degree"`
	MinDegree     int            `json:"min_degree"`
	MaxDegree     int            `json:"max_degree"`
	MostConnected *NodeView      `json:"most_connected,omitempty"`
}

// NodeView is a rendering-ready node projection.
type NodeView struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Label         string `json:"label"`
	Degree        int    `json:"degree"`
	DocumentCount int    `json:"document_count"`
}

// EdgeView is a rendering-ready edge projection.
type EdgeView struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// View is a filtered or extracted portion of the graph, ready for rendering.
type View struct {
	Nodes []NodeView `json:"nodes"`
	Edges []EdgeView `json:"edges"`
}

// NodeDetails is the full attribute dump for one vertex.
type NodeDetails struct {
	ID                string   `json:"id"`
	Type              string   `json:"type"`
	Label             string   `json:"label"`
	Degree            int      `json:"degree"`
	SourceDocumentIDs []string `json:"source_document_ids"`
	// Neighbors previews up to the first 20 neighbor ids.
	Neighbors []string `json:"neighbors"`
}

// neighborPreviewLimit bounds the neighbor list in node details.
const neighborPreviewLimit = 20

// ViewFilter selects vertices for GetFilteredView. All set filters must
// hold (conjunction). Zero values mean "no constraint".
type ViewFilter struct {
	NodeType     string
	ExperimentID string
	MinDegree    int
	Limit        int
}

// GetStats computes structural statistics over the whole graph.
func (g *Graph) GetStats() Stats {
	stats := Stats{
		NodeCount: g.NodeCount(),
		EdgeCount: g.EdgeCount(),
		NodeTypes: make(map[string]int),
	}

	if stats.NodeCount == 0 {
		return stats
	}

	totalDegree := 0
	var top *Vertex
	topDegree := -1

	for i, v := range g.vertices {
		stats.NodeTypes[v.Type]++
		d := g.Degree(v.ID)
		totalDegree += d

		if i == 0 || d < stats.MinDegree {
			stats.MinDegree = d
		}
		if d > stats.MaxDegree {
			stats.MaxDegree = d
		}
		// Strict comparison keeps the first-encountered vertex on ties.
		if d > topDegree {
			topDegree = d
			top = v
		}
	}

	stats.AverageDegree = float64(totalDegree) / float64(stats.NodeCount)
	stats.MostConnected = &NodeView{
		ID:            top.ID,
		Type:          top.Type,
		Label:         top.Label,
		Degree:        topDegree,
		DocumentCount: len(top.SourceDocumentIDs),
	}
	return stats
}

// GetFilteredView applies the filter conjunction, keeps the highest-degree
// survivors when a limit trims the result, and returns the induced subgraph
// as a rendering-ready view.
func (g *Graph) GetFilteredView(filter ViewFilter) View {
	var matched []string
	for _, v := range g.vertices {
		if filter.NodeType != "" && v.Type != filter.NodeType {
			continue
		}
		if filter.ExperimentID != "" && !containsString(v.SourceDocumentIDs, filter.ExperimentID) {
			continue
		}
		if filter.MinDegree > 0 && g.Degree(v.ID) < filter.MinDegree {
			continue
		}
		matched = append(matched, v.ID)
	}

	matched = g.topByDegree(matched, filter.Limit)

	ids := make(map[string]bool, len(matched))
	for _, id := range matched {
		ids[id] = true
	}
	return g.viewOf(g.induce(ids))
}

// GetNeighborSubgraph expands breadth-first from vertexId for exactly
// maxDepth rounds and returns the induced subgraph over everything reached.
// maxDepth 0 yields just the starting vertex with no edges.
func (g *Graph) GetNeighborSubgraph(vertexID string, maxDepth int) (View, error) {
	if _, ok := g.Vertex(vertexID); !ok {
		return View{}, fmt.Errorf("%w: %s", ErrVertexNotFound, vertexID)
	}

	reached := map[string]bool{vertexID: true}
	frontier := []string{vertexID}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			for _, neighbor := range g.Neighbors(id) {
				if reached[neighbor] {
					continue
				}
				reached[neighbor] = true
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return g.viewOf(g.induce(reached)), nil
}

// GetNodeDetails returns the full attribute dump for one vertex, with a
// bounded neighbor preview.
func (g *Graph) GetNodeDetails(vertexID string) (*NodeDetails, error) {
	v, ok := g.Vertex(vertexID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVertexNotFound, vertexID)
	}

	neighbors := g.Neighbors(vertexID)
	preview := neighbors
	if len(preview) > neighborPreviewLimit {
		preview = preview[:neighborPreviewLimit]
	}
	previewCopy := make([]string, len(preview))
	copy(previewCopy, preview)

	docs := make([]string, len(v.SourceDocumentIDs))
	copy(docs, v.SourceDocumentIDs)

	return &NodeDetails{
		ID:                v.ID,
		Type:              v.Type,
		Label:             v.Label,
		Degree:            len(neighbors),
		SourceDocumentIDs: docs,
		Neighbors:         previewCopy,
	}, nil
}

// viewOf projects a (sub)graph into rendering-ready node and edge lists.
// Node degrees are those of the projected graph, not the full graph.
func (g *Graph) viewOf(sub *Graph) View {
	view := View{
		Nodes: make([]NodeView, 0, sub.NodeCount()),
		Edges: make([]EdgeView, 0, sub.EdgeCount()),
	}
	for _, v := range sub.vertices {
		view.Nodes = append(view.Nodes, NodeView{
			ID:            v.ID,
			Type:          v.Type,
			Label:         v.Label,
			Degree:        sub.Degree(v.ID),
			DocumentCount: len(v.SourceDocumentIDs),
		})
	}
	for _, e := range sub.edges {
		view.Edges = append(view.Edges, EdgeView{Source: e.Source, Target: e.Target, Weight: e.Weight})
	}
	return view
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
