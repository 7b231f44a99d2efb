package main

import (
	"log"
	"net/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tiw/ontology-fk/pkg/acl"
	"github.com/tiw/ontology-fk/pkg/cache"
	"github.com/tiw/ontology-fk/pkg/config"
	"github.com/tiw/ontology-fk/pkg/events"
	"github.com/tiw/ontology-fk/pkg/functions"
	"github.com/tiw/ontology-fk/pkg/mcp"
	"github.com/tiw/ontology-fk/pkg/mcp/tools"
	"github.com/tiw/ontology-fk/pkg/ontology"
	"github.com/tiw/ontology-fk/pkg/schema"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("bind_addr", cfg.BindAddr),
		zap.String("port", cfg.Port),
		zap.Bool("cache_enabled", cfg.Cache.Enabled()),
		zap.String("schema_path", cfg.SchemaPath))

	registry := schema.NewRegistry()
	if cfg.SchemaPath != "" {
		if err := registry.LoadFile(cfg.SchemaPath); err != nil {
			logger.Fatal("Failed to load schema", zap.String("path", cfg.SchemaPath), zap.Error(err))
		}
		logger.Info("Schema loaded",
			zap.Int("object_types", len(registry.ObjectTypeNames())),
			zap.Int("link_types", len(registry.LinkTypeNames())))
	}

	emitter := &events.Emitter{}
	emitter.Subscribe(events.NewZapListener(logger))

	var tiers *cache.MultiTier
	if cfg.Cache.Enabled() {
		tiers = cache.New(
			cache.TierConfig{Capacity: cfg.Cache.L1Capacity, TTL: cfg.Cache.L1TTL()},
			cache.TierConfig{Capacity: cfg.Cache.L2Capacity, TTL: cfg.Cache.L2TTL()},
			cache.TierConfig{Capacity: cfg.Cache.L3Capacity, TTL: cfg.Cache.L3TTL()},
			emitter,
		)
	}

	engine := ontology.New(registry, functions.NewRegistry(), ontology.Options{
		Cache:      tiers,
		Gate:       acl.AllowAll{},
		Events:     emitter,
		DerivedTTL: cfg.DerivedTTL(),
	})

	mcpServer := mcp.NewServer("ontology-engine", cfg.Version, logger)
	deps := &tools.Deps{Ontology: engine, Logger: logger}
	tools.RegisterSchemaTools(mcpServer.MCP(), deps)
	tools.RegisterObjectTools(mcpServer.MCP(), deps)
	tools.RegisterActionTools(mcpServer.MCP(), deps)

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpServer.NewStreamableHTTPServer())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting ontology engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// newLogger builds the process logger: console output in local env, JSON
// elsewhere, with the level taken from configuration.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zapCfg := zap.NewProductionConfig()
	if cfg.Env == "local" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
