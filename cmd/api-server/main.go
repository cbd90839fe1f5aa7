package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"spechub/internal/auth"
	"spechub/internal/catalog"
	"spechub/internal/gaps"
	"spechub/internal/importer"
	"spechub/internal/ledger"
	"spechub/internal/notify"
	"spechub/internal/registry"
	"spechub/internal/template"
	"spechub/internal/watch"
	"spechub/pkg/database"
	"spechub/pkg/models"
	"spechub/pkg/utils"
)

func main() {
	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	dataCfg := utils.LoadDataConfig()
	for _, d := range []string{dataCfg.RegistryDir, dataCfg.CatalogDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			log.Fatalf("ensure data dir %s: %v", d, err)
		}
	}

	ledgerRepo := ledger.NewRepo(db)

	registryStore := registry.NewStore(dataCfg.RegistryDir, ledgerRepo)
	registryStore.Load()

	catalogStore := catalog.NewStore(dataCfg.CatalogDir)
	if err := catalogStore.Load(); err != nil {
		log.Fatalf("catalog load failed: %v", err)
	}

	engine := template.NewEngine(dataCfg.CachePath, registryStore, catalogStore)

	hub := notify.NewHub()
	engine.SetOnRegenerated(func(art models.CacheArtifact) {
		hub.Broadcast(notify.Event{
			Type:           notify.EventTemplatesRegenerated,
			TotalTemplates: art.TotalTemplates,
		})
	})

	watcher, err := watch.New(engine, hub, dataCfg.RegistryDir, dataCfg.CatalogDir)
	if err != nil {
		log.Fatalf("watcher failed: %v", err)
	}
	go watcher.Run()

	router := gin.Default()

	// Optional: avoid “trusted all proxies” warning
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/ws", notify.WSHandler(hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "not_ready",
				"db_error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
			"db":     "ok",
			"brands": len(catalogStore.Brands()),
		})
	})

	router.GET("/debug", func(c *gin.Context) {
		stats := hub.Stats()
		art, _ := engine.Artifact()
		c.JSON(http.StatusOK, gin.H{
			"db":              dbCfg.Path,
			"ws_clients":      stats.WSClients,
			"cache_stale":     engine.Stale(),
			"cache_generated": art.GeneratedAt,
			"cache_templates": art.TotalTemplates,
		})
	})

	// Registry + dropdowns (public)
	registryHandler := registry.NewHandler(registryStore)
	registryHandler.RegisterRoutes(router.Group("/registry"))

	// Catalog (public, read-only)
	catalogHandler := catalog.NewHandler(catalogStore)
	catalogHandler.RegisterRoutes(router.Group("/catalog"))

	// Templates (public)
	templateHandler := template.NewHandler(engine)
	templateHandler.RegisterRoutes(router.Group("/templates"))

	// Coverage + ledger (public, read-only)
	platformCfg := utils.LoadPlatformConfig()
	analyzer := gaps.NewAnalyzer(registryStore, catalogStore)
	resolver := gaps.NewResolver(registryStore, gaps.NewPlatformClient(platformCfg.BaseURL, platformCfg.Token))
	resolver.Misses = ledgerRepo
	gapsHandler := gaps.NewHandler(analyzer, resolver, ledgerRepo)
	gapsHandler.RegisterRoutes(router.Group("/gaps"))

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authHandler := auth.NewHandler(tokenSvc, authCfg)
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Protected admin routes
	admin := router.Group("/admin")
	admin.Use(auth.AuthMiddleware(tokenSvc))
	templateHandler.RegisterAdminRoutes(admin)
	gapsHandler.RegisterAdminRoutes(admin)
	importHandler := importer.NewHandler(catalogStore, engine)
	importHandler.RegisterAdminRoutes(admin)

	httpSrv := &http.Server{
		Addr:    utils.HTTPAddr(),
		Handler: router,
	}

	errCh := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := watcher.Close(); err != nil {
		log.Printf("watcher shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("server stopped")
}
