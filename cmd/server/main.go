package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"linearmcp/server/internal/auth"
	"linearmcp/server/internal/broker"
	"linearmcp/server/internal/db"
	"linearmcp/server/internal/mcp"
	"linearmcp/server/internal/middleware"
	"linearmcp/server/internal/modules"
	"linearmcp/server/internal/modules/linear"
	"linearmcp/server/internal/observability"
)

func init() {
	modules.RegisterModule(linear.New())
}

func main() {
	// Initialize observability (Loki)
	observability.Init()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8089"
	}

	// Instance identification for LB
	instanceID := os.Getenv("INSTANCE_ID")
	if instanceID == "" {
		instanceID = "local"
	}
	instanceRegion := os.Getenv("INSTANCE_REGION")
	if instanceRegion == "" {
		instanceRegion = "local"
	}

	// Log registered modules
	moduleNames := modules.ListModules()
	log.Printf("Registered modules: %v", moduleNames)
	log.Printf("Instance: %s (region: %s)", instanceID, instanceRegion)

	// Initialize database
	database := db.Open()
	log.Printf("Database connected")

	// Initialize credential encryption (panics if CREDENTIAL_ENCRYPTION_KEY not set)
	db.InitEncryptionKey()
	log.Printf("Credential encryption initialized")

	// Initialize Ed25519 signing keys for JWT API keys
	if err := auth.Init(); err != nil {
		log.Fatalf("Failed to initialize auth keys: %v", err)
	}

	// Initialize brokers with GORM DB
	broker.InitTokenBroker(database)
	userStore := broker.NewUserBroker(database)

	// Sync modules+tools to database (non-blocking: log errors but don't abort)
	syncEntries := buildSyncEntries(moduleNames)
	if err := userStore.SyncModules(syncEntries); err != nil {
		log.Printf("WARNING: SyncModules failed: %v", err)
	}

	gatewayJwksURL := os.Getenv("GATEWAY_JWKS_URL")
	if gatewayJwksURL == "" {
		log.Fatal("GATEWAY_JWKS_URL is not set. Set it via environment variable or .env.dev")
	}
	gatewayVerifier := auth.NewGatewayVerifier(gatewayJwksURL)
	authorizer := middleware.NewAuthorizer(userStore, database, gatewayVerifier)

	// Create router (Go 1.22+ method-aware patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Instance-ID", instanceID)
		w.Header().Set("X-Instance-Region", instanceRegion)

		dbStatus := "ok"
		if err := userStore.HealthCheck(); err != nil {
			dbStatus = "unavailable"
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"degraded","instance":"%s","region":"%s","db":"%s"}`, instanceID, instanceRegion, dbStatus)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","instance":"%s","region":"%s","db":"%s"}`, instanceID, instanceRegion, dbStatus)
	})

	// MCP endpoint with authorization + rate limit + transport middleware
	rateLimiter := middleware.NewRateLimiter(10)
	mcpHandler := mcp.NewHandler(userStore)
	mux.Handle("/v1/mcp", middleware.Recovery(authorizer.Authorize(rateLimiter.Middleware(middleware.Transport(mcpHandler)))))

	// Per-user usage summary (today, UTC)
	mux.Handle("GET /v1/usage", authorizer.Authorize(newUsageHandler(database)))

	// JWKS endpoint (public, for API key verification)
	mux.HandleFunc("GET /.well-known/jwks.json", handleJWKS)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: mux,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting MCP server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("Received signal %s, shutting down gracefully...", sig)

	// Give in-flight requests up to 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Printf("Server stopped")
}

// buildSyncEntries collects module+tool data from the Go registry for DB sync.
func buildSyncEntries(moduleNames []string) []broker.SyncModuleEntry {
	type syncTool struct {
		ID          string      `json:"id"`
		Name        string      `json:"name"`
		Description string      `json:"description,omitempty"`
		Annotations interface{} `json:"annotations,omitempty"`
	}

	entries := make([]broker.SyncModuleEntry, 0, len(moduleNames))
	for _, name := range moduleNames {
		m, ok := modules.GetModule(name)
		if !ok {
			continue
		}

		tools := m.Tools()
		syncTools := make([]syncTool, 0, len(tools))
		for _, t := range tools {
			syncTools = append(syncTools, syncTool{
				ID:          t.ID,
				Name:        t.Name,
				Description: t.Description,
				Annotations: t.Annotations,
			})
		}

		entries = append(entries, broker.SyncModuleEntry{
			Name:   name,
			Status: "active",
			Tools:  syncTools,
		})
	}
	return entries
}

// newUsageHandler serves the caller's tool usage for the current UTC day.
func newUsageHandler(database *gorm.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx := middleware.GetAuthContext(r.Context())
		if authCtx == nil {
			http.Error(w, "auth context missing", http.StatusInternalServerError)
			return
		}

		now := time.Now().UTC()
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		usage, err := db.GetUsageByDateRange(database, authCtx.UserID, start, start.Add(24*time.Hour))
		if err != nil {
			http.Error(w, "failed to load usage", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(usage)
	})
}

// handleJWKS serves the JWKS endpoint for API key verification.
func handleJWKS(w http.ResponseWriter, r *http.Request) {
	kp := auth.GetKeyPair()
	w.Header().Set("Content-Type", "application/json")
	if kp == nil {
		json.NewEncoder(w).Encode(map[string]interface{}{"keys": []interface{}{}})
		return
	}
	jwk := map[string]interface{}{
		"kty": "OKP",
		"crv": "Ed25519",
		"x":   base64.RawURLEncoding.EncodeToString(kp.PublicKey),
		"kid": kp.KID,
		"use": "sig",
		"alg": "EdDSA",
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"keys": []interface{}{jwk}})
}
