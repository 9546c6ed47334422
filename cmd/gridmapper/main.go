package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vjranagit/gridmapper/internal/config"
	"github.com/vjranagit/gridmapper/pkg/api"
	"github.com/vjranagit/gridmapper/pkg/grid"
	"github.com/vjranagit/gridmapper/pkg/importer"
	"github.com/vjranagit/gridmapper/pkg/storage"
	"github.com/vjranagit/gridmapper/pkg/types"
)

const (
	version = "0.1.0"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup always runs
func run(args []string) int {
	fs := flag.NewFlagSet("gridmapper", flag.ContinueOnError)
	heightPath := fs.String("height", "", "grid file mapped to the height role")
	topPath := fs.String("top", "", "grid file mapped to the top color role")
	sidePath := fs.String("side", "", "grid file mapped to the side color role")
	noServe := fs.Bool("no-serve", false, "load and validate, then exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	fmt.Printf("Gridmapper v%s\n", version)
	fmt.Println("Grid variable role mapping service")
	fmt.Println()

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Printf("Invalid configuration: %v", err)
		return 1
	}

	log.Printf("Configuration loaded:")
	log.Printf("  Listen Address: %s", cfg.Server.ListenAddr)
	log.Printf("  Cache Enabled: %t", cfg.Cache.Enabled)
	if cfg.Cache.Enabled {
		log.Printf("  Cache Path: %s", cfg.Cache.Path)
		log.Printf("  Compression Level: %d", cfg.Cache.CompressionLevel)
	}

	// Initialize import pipeline
	var store storage.Store
	if cfg.Cache.Enabled {
		log.Println("Opening snapshot store...")
		s, err := storage.NewStore(cfg.ToStorageConfig())
		if err != nil {
			log.Printf("Failed to initialize storage: %v", err)
			return 1
		}
		store = s
	}
	source := storage.NewCachedSource(importer.Auto{}, store, cfg.Cache.Capacity, cfg.Cache.TTL)
	defer source.Close()

	recorder := grid.NewRecorder(cfg.Grid.DiagnosticsKeep)
	ws := grid.NewWorkspace(
		grid.WithDiagnostics(grid.MultiSink{grid.LogSink{}, recorder}),
		grid.WithNotifier(grid.NotifierFuncs{
			OnRedraw: func() { log.Println("Mapping ready, redraw requested") },
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *heightPath != "" || *topPath != "" || *sidePath != "" {
		if err := loadAndMap(ctx, ws, source, cfg, [grid.NumRoles]string{*heightPath, *topPath, *sidePath}); err != nil {
			log.Printf("Mapping not ready: %v", err)
		}
		stats, hits, misses := source.CacheStats()
		log.Printf("Import cache: %d entries, %d hits, %d misses", stats.Size, hits, misses)
	}

	if *noServe {
		if err := ws.CheckReady(); err != nil {
			return 1
		}
		return 0
	}

	server := api.NewServer(cfg.Server.ListenAddr, cfg.Server.Timeout, ws, source, recorder)

	log.Printf("API server listening on %s", cfg.Server.ListenAddr)
	if err := server.Run(ctx); err != nil {
		log.Printf("Server error: %v", err)
		return 1
	}

	log.Println("Server stopped successfully")
	return 0
}

// loadAndMap bulk-loads one file per role and reports each role's result
func loadAndMap(ctx context.Context, ws *grid.Workspace, src grid.Source, cfg *config.Config, paths [grid.NumRoles]string) error {
	var sources [grid.NumRoles]grid.RoleSource
	for _, role := range grid.Roles {
		if paths[role] == "" {
			return fmt.Errorf("missing file for role %s", role)
		}
		sources[role] = grid.RoleSource{Request: types.ImportRequest{
			SourcePath:       paths[role],
			HasRowHeaders:    cfg.Import.RowHeaders,
			HasColumnHeaders: cfg.Import.ColumnHeaders,
		}}
	}

	log.Println("Loading grids...")
	if _, err := ws.LoadAndMap(ctx, src, sources); err != nil {
		var ce *grid.ConsistencyError
		if errors.As(err, &ce) {
			for _, s := range ce.Shapes {
				log.Printf("  %-10s %-30s %dx%d", s.Role, s.Label, s.Shape.Rows, s.Shape.Cols)
			}
		}
		return err
	}

	for _, info := range ws.Variables() {
		if info.Statistics != nil {
			log.Printf("  %-30s %dx%d min=%g max=%g", info.Label, info.Shape.Rows, info.Shape.Cols,
				info.Statistics.Min, info.Statistics.Max)
		}
	}
	log.Println("Mapping ready")
	return nil
}
