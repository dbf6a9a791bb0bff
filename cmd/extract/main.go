// Command extract runs the document-to-graph pipeline once over a local file
// and prints the run report as JSON. Persistence is optional; without
// -persist the graph store is never contacted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/infragraph/infragraph/internal/config"
	"github.com/infragraph/infragraph/internal/core"
	"github.com/infragraph/infragraph/internal/driver"
	"github.com/infragraph/infragraph/internal/ingest"
	"github.com/infragraph/infragraph/internal/llm"
)

func main() {
	var (
		filePath  = flag.String("file", "", "document to extract (.txt, .md or .pdf)")
		projectID = flag.String("project", "default", "project the graph belongs to")
		cfgPath   = flag.String("config", "config/config.toml", "path to config file")
		persist   = flag.Bool("persist", false, "write the graph to the graph store")
	)
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if *filePath == "" {
		logger.Fatal("missing required -file flag")
	}

	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded .env")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Warn("could not load config file, using defaults", zap.Error(err))
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	content, err := ingest.LoadFile(*filePath)
	if err != nil {
		logger.Fatal("failed to load document", zap.Error(err))
	}

	ctx := context.Background()

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		logger.Fatal("failed to initialize llm client", zap.Error(err))
	}

	var d driver.GraphDriver
	if *persist {
		nd, err := driver.NewNeo4jDriver(cfg.Graph.URI, cfg.Graph.User, cfg.Graph.Password, logger)
		if err != nil {
			logger.Fatal("failed to connect to graph store", zap.Error(err))
		}
		defer nd.Close(ctx)
		d = nd
	}

	pipeline := core.NewPipeline(cfg, d, llmClient, logger)

	report, err := pipeline.ProcessDocument(ctx, *projectID, *filePath, content)
	if err != nil {
		logger.Fatal("extraction run failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Fatal("failed to encode report", zap.Error(err))
	}
}
