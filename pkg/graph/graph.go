// Package graph implements a weighted co-occurrence multigraph over entities
// mentioned in scientific articles: authors, institutions, organisms, and
// journals. Entities co-occurring in one article are pairwise connected, and
// edge weights count co-occurring articles.
//
// Vertices and edges live in insertion-ordered arenas addressed by stable
// keys, so iteration order is deterministic and rebuilds are reproducible.
package graph

import (
	"errors"
	"log/slog"
	"sort"
	"strings"
)

// ErrVertexNotFound is returned by queries for an unknown vertex id.
var ErrVertexNotFound = errors.New("vertex not found")

// Entity types. A vertex id is the type joined with the normalized name, so
// same-named entities of different types never collide.
const (
	TypeAuthor      = "author"
	TypeInstitution = "institution"
	TypeOrganism    = "organism"
	TypeJournal     = "journal"
)

// Vertex is one distinct entity.
type Vertex struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"` // first-seen original casing

	// SourceDocumentIDs lists the experiment ids of articles mentioning
	// this entity. Grows monotonically, no duplicates.
	SourceDocumentIDs []string `json:"source_document_ids"`
}

// Edge is an undirected weighted relation between two vertices. Weight
// counts the articles in which both entities co-occur.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// Graph is the in-memory co-occurrence graph. It is not safe for concurrent
// mutation; builds produce a complete graph which is then swapped in for
// read-only query traffic (see Engine).
type Graph struct {
	vertices  []*Vertex
	vertexIdx map[string]int

	edges   []*Edge
	edgeIdx map[[2]string]int

	// adjacency keeps neighbor ids in first-connection order.
	adjacency map[string][]string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		vertexIdx: make(map[string]int),
		edgeIdx:   make(map[[2]string]int),
		adjacency: make(map[string][]string),
	}
}

// NormalizeName canonicalizes an entity mention: trim, collapse whitespace
// runs, lowercase.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// VertexID derives the arena key for an entity mention. Empty for blank
// mentions.
func VertexID(entityType, name string) string {
	normalized := NormalizeName(name)
	if normalized == "" {
		return ""
	}
	return entityType + ":" + normalized
}

// Touch creates the vertex for (entityType, name) if absent and records
// docID as a source document. Returns the vertex id, or "" for a blank
// mention.
func (g *Graph) Touch(entityType, name, docID string) string {
	id := VertexID(entityType, name)
	if id == "" {
		return ""
	}

	pos, ok := g.vertexIdx[id]
	if !ok {
		pos = len(g.vertices)
		g.vertexIdx[id] = pos
		g.vertices = append(g.vertices, &Vertex{
			ID:    id,
			Type:  entityType,
			Label: strings.Join(strings.Fields(name), " "),
		})
	}

	v := g.vertices[pos]
	for _, existing := range v.SourceDocumentIDs {
		if existing == docID {
			return id
		}
	}
	v.SourceDocumentIDs = append(v.SourceDocumentIDs, docID)
	return id
}

// Connect creates the undirected edge (a, b) with weight 1, or increments
// its weight if it already exists. Both vertices must exist; self-loops are
// ignored.
func (g *Graph) Connect(a, b string) {
	if a == b || a == "" || b == "" {
		return
	}
	if _, ok := g.vertexIdx[a]; !ok {
		return
	}
	if _, ok := g.vertexIdx[b]; !ok {
		return
	}

	key := edgeKey(a, b)
	if pos, ok := g.edgeIdx[key]; ok {
		g.edges[pos].Weight++
		return
	}

	g.edgeIdx[key] = len(g.edges)
	g.edges = append(g.edges, &Edge{Source: a, Target: b, Weight: 1})
	g.adjacency[a] = append(g.adjacency[a], b)
	g.adjacency[b] = append(g.adjacency[b], a)
}

func edgeKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// Vertex returns the vertex with the given id.
func (g *Graph) Vertex(id string) (*Vertex, bool) {
	pos, ok := g.vertexIdx[id]
	if !ok {
		return nil, false
	}
	return g.vertices[pos], true
}

// Vertices returns every vertex in insertion order.
func (g *Graph) Vertices() []*Vertex { return g.vertices }

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []*Edge { return g.edges }

// Neighbors returns the neighbor ids of a vertex in first-connection order.
func (g *Graph) Neighbors(id string) []string { return g.adjacency[id] }

// Degree returns the number of distinct neighbors of a vertex.
func (g *Graph) Degree(id string) int { return len(g.adjacency[id]) }

// NodeCount returns the number of vertices.
func (g *Graph) NodeCount() int { return len(g.vertices) }

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// EdgeBetween returns the edge connecting a and b, if any.
func (g *Graph) EdgeBetween(a, b string) (*Edge, bool) {
	pos, ok := g.edgeIdx[edgeKey(a, b)]
	if !ok {
		return nil, false
	}
	return g.edges[pos], true
}

// induce builds the subgraph over the given vertex ids: those vertices plus
// exactly the edges of g whose both endpoints survive. Vertex order follows
// the original insertion order.
func (g *Graph) induce(ids map[string]bool) *Graph {
	sub := New()
	for _, v := range g.vertices {
		if !ids[v.ID] {
			continue
		}
		pos := len(sub.vertices)
		sub.vertexIdx[v.ID] = pos
		docs := make([]string, len(v.SourceDocumentIDs))
		copy(docs, v.SourceDocumentIDs)
		sub.vertices = append(sub.vertices, &Vertex{
			ID:                v.ID,
			Type:              v.Type,
			Label:             v.Label,
			SourceDocumentIDs: docs,
		})
	}
	for _, e := range g.edges {
		if !ids[e.Source] || !ids[e.Target] {
			continue
		}
		key := edgeKey(e.Source, e.Target)
		sub.edgeIdx[key] = len(sub.edges)
		sub.edges = append(sub.edges, &Edge{Source: e.Source, Target: e.Target, Weight: e.Weight})
		sub.adjacency[e.Source] = append(sub.adjacency[e.Source], e.Target)
		sub.adjacency[e.Target] = append(sub.adjacency[e.Target], e.Source)
	}
	return sub
}

// topByDegree returns up to limit vertex ids ordered by descending degree,
// ties broken by insertion order.
func (g *Graph) topByDegree(ids []string, limit int) []string {
	ordered := make([]string, len(ids))
	copy(ordered, ids)
	sort.SliceStable(ordered, func(i, j int) bool {
		return g.Degree(ordered[i]) > g.Degree(ordered[j])
	})
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered
}

// ArticleEntities is the typed entity mentions of one article, as consumed
// by Build.
type ArticleEntities struct {
	ExperimentID string
	Authors      []string
	Institutions []string
	Organisms    []string
	Journal      string
}

// Build constructs a fresh graph from the corpus. Articles without an
// experiment id are skipped. Running Build twice over the same corpus yields
// identical vertices, edges, and weights: every build starts from an empty
// graph.
func Build(articles []ArticleEntities, logger *slog.Logger) *Graph {
	g := New()
	skipped := 0

	for _, art := range articles {
		if art.ExperimentID == "" {
			skipped++
			continue
		}

		// The article's local clique: distinct vertex ids across all
		// entity categories. Touch de-duplicates repeated mentions.
		seen := make(map[string]bool)
		clique := make([]string, 0, len(art.Authors)+len(art.Institutions)+len(art.Organisms)+1)

		add := func(entityType, name string) {
			id := g.Touch(entityType, name, art.ExperimentID)
			if id == "" || seen[id] {
				return
			}
			seen[id] = true
			clique = append(clique, id)
		}

		for _, a := range art.Authors {
			add(TypeAuthor, a)
		}
		for _, inst := range art.Institutions {
			add(TypeInstitution, inst)
		}
		for _, org := range art.Organisms {
			add(TypeOrganism, org)
		}
		add(TypeJournal, art.Journal)

		for i := 0; i < len(clique); i++ {
			for j := i + 1; j < len(clique); j++ {
				g.Connect(clique[i], clique[j])
			}
		}
	}

	if logger != nil {
		logger.Info("knowledge graph built",
			"articles", len(articles)-skipped,
			"skipped", skipped,
			"nodes", g.NodeCount(),
			"edges", g.EdgeCount())
	}
	return g
}
