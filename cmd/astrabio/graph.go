package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/astrabio/astrabio/pkg/config"
	"github.com/astrabio/astrabio/pkg/graph"
	"github.com/astrabio/astrabio/pkg/logger"
	"github.com/astrabio/astrabio/pkg/store"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Knowledge graph maintenance",
}

var graphBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the co-occurrence graph from the article corpus",
	Long: `Rebuild the knowledge graph from every article in the document store and
write the export artifacts (native snapshot, GraphML, node-link JSON) into
the export directory.`,
	RunE: runGraphBuild,
}

// buildSummary is the operator-facing report printed after a build.
type buildSummary struct {
	Articles    int            `yaml:"articles"`
	Nodes       int            `yaml:"nodes"`
	Edges       int            `yaml:"edges"`
	NodeTypes   map[string]int `yaml:"node_types"`
	DurationsMs int64          `yaml:"duration_ms"`
	Snapshot    string         `yaml:"snapshot"`
	GraphML     string         `yaml:"graphml"`
	NodeLink    string         `yaml:"node_link_json"`
}

func init() {
	graphBuildCmd.Flags().String("export-dir", "", "directory for build artifacts (overrides config)")

	graphCmd.AddCommand(graphBuildCmd)
	rootCmd.AddCommand(graphCmd)
}

func runGraphBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("export-dir") {
		cfg.Graph.ExportDir, _ = cmd.Flags().GetString("export-dir")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	ctx := context.Background()

	articles, err := store.NewMongoStore(ctx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("failed to connect to document store: %w", err)
	}
	defer articles.Close(ctx)

	records, err := articles.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch articles: %w", err)
	}

	start := time.Now()
	g := graph.Build(graph.EntitiesFromRecords(records), log)

	if err := os.MkdirAll(cfg.Graph.ExportDir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	stamp := start.UTC().Format("20060102_150405")
	snapshotPath := filepath.Join(cfg.Graph.ExportDir, fmt.Sprintf("graph_%s.gob", stamp))
	graphmlPath := filepath.Join(cfg.Graph.ExportDir, fmt.Sprintf("graph_%s.graphml", stamp))
	nodeLinkPath := filepath.Join(cfg.Graph.ExportDir, fmt.Sprintf("graph_%s.json", stamp))

	if err := g.SaveSnapshot(snapshotPath); err != nil {
		return err
	}
	if err := g.SaveGraphML(graphmlPath); err != nil {
		return err
	}
	if err := saveNodeLink(g, nodeLinkPath); err != nil {
		return err
	}

	stats := g.GetStats()
	summary := buildSummary{
		Articles:    len(records),
		Nodes:       stats.NodeCount,
		Edges:       stats.EdgeCount,
		NodeTypes:   stats.NodeTypes,
		DurationsMs: time.Since(start).Milliseconds(),
		Snapshot:    snapshotPath,
		GraphML:     graphmlPath,
		NodeLink:    nodeLinkPath,
	}

	out, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to render build summary: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func saveNodeLink(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create node-link file: %w", err)
	}
	defer f.Close()

	if err := g.WriteNodeLinkJSON(f); err != nil {
		return err
	}
	return f.Close()
}
