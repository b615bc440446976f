package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"paper-depot/config"
	"paper-depot/extraction"
	"paper-depot/models"
	"paper-depot/repository"
	"paper-depot/services"
	"paper-depot/storage"
)

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to paper database.")

	logging.Info("Running database auto-migration...")
	db.AutoMigrate(&models.Paper{}, &models.TextSection{}, &models.TableRecord{},
		&models.ImageRecord{}, &models.ReferenceList{})

	// Setup Services
	var archive *storage.S3Client
	if cfg.ArchiveEnabled {
		archive, err = storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		logging.Info("Document archive enabled", zap.String("bucket", cfg.ArchiveS3Bucket))
	}

	var analyzer *extraction.Analyzer
	if cfg.AnalyzerBaseURL != "" {
		analyzer = extraction.NewAnalyzer(cfg.AnalyzerBaseURL, cfg.AnalyzerAPIKey, logging)
		logging.Info("Analysis service enabled", zap.String("base_url", cfg.AnalyzerBaseURL))
	} else {
		logging.Info("No analysis service configured, using pattern-based extraction only")
	}

	extractor := extraction.NewExtractor(extraction.ModelConfig{
		MetadataModel: cfg.MetadataModel,
		TextModel:     cfg.TextModel,
		TableModel:    cfg.TableModel,
		ImageModel:    cfg.ImageModel,
		Temperature:   cfg.ModelTemperature,
	}, analyzer, logging)

	orchestrator := services.NewIngestionOrchestrator(db, extractor, archive, logging)
	orchestrator.Workers = cfg.ExtractionWorkers
	orchestrator.KindTimeout = time.Duration(cfg.ExtractionTimeout) * time.Second

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupIngestRoutes(router, orchestrator, logging)
	setupPaperRoutes(router, db, logging)

	// Setup Cron: das Eingangsverzeichnis wird regelmäßig geleert, Duplikate
	// werden dabei übersprungen.
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled inbox scan...", zap.String("inbox", cfg.InboxDir))
		ingested, err := scanInbox(context.Background(), orchestrator, cfg.InboxDir, logging)
		if err != nil {
			logging.Error("Inbox scan failed", zap.Error(err))
		} else {
			logging.Info("Inbox scan completed", zap.Int("ingested", ingested))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// scanInbox verarbeitet alle Markdown-Dateien im Eingangsverzeichnis.
// Bereits bekannte Papers werden übersprungen, Fehler einzelner Dateien
// stoppen den Lauf nicht.
func scanInbox(ctx context.Context, orchestrator *services.IngestionOrchestrator, inboxDir string, log *zap.Logger) (int, error) {
	files, err := filepath.Glob(filepath.Join(inboxDir, "*.md"))
	if err != nil {
		return 0, err
	}

	ingested := 0
	for _, file := range files {
		report, err := orchestrator.IngestFile(ctx, file, services.Policy{OnDuplicate: services.ActionSkip})
		if err != nil {
			log.Error("Inbox file could not be ingested", zap.String("file", file), zap.Error(err))
			continue
		}
		if report.Action == services.ActionIngest {
			ingested++
		}
	}
	return ingested, nil
}

func setupIngestRoutes(router *gin.Engine, orchestrator *services.IngestionOrchestrator, log *zap.Logger) {
	router.POST("/ingest", func(c *gin.Context) {
		type IngestRequest struct {
			// Entweder Path (Server-lokal) oder Content direkt im Body.
			Path       string `json:"path"`
			Content    string `json:"content"`
			SourceFile string `json:"source_file"`
			// OnDuplicate: "skip" (Default) oder "overwrite".
			OnDuplicate string `json:"on_duplicate"`
			// Overwrite: kommagetrennte Datenarten, z.B. "metadata,tables" oder "all".
			Overwrite string `json:"overwrite"`
		}

		var req IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if req.Path == "" && req.Content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "either path or content is required"})
			return
		}

		policy := services.Policy{OnDuplicate: services.ActionSkip}
		switch req.OnDuplicate {
		case "", "skip":
		case "overwrite":
			kinds, err := services.ParseKinds(req.Overwrite)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if kinds == 0 {
				kinds = services.KindAll
			}
			policy = services.Policy{OnDuplicate: services.ActionOverwrite, Kinds: kinds}
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "on_duplicate must be skip or overwrite"})
			return
		}

		var report *services.Report
		var err error
		if req.Path != "" {
			report, err = orchestrator.IngestFile(c.Request.Context(), req.Path, policy)
		} else {
			sourceFile := req.SourceFile
			if sourceFile == "" {
				sourceFile = "upload.md"
			}
			report, err = orchestrator.Ingest(c.Request.Context(), req.Content, sourceFile, policy)
		}
		if err != nil {
			log.Error("Ingest request failed", zap.Error(err))
			if errors.Is(err, repository.ErrConflict) {
				c.JSON(http.StatusConflict, gin.H{"error": "id collision with different content"})
				return
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, report)
	})
}

func setupPaperRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/papers")

	papers := repository.NewPaperRepository(db)
	sections := repository.NewSectionRepository(db)
	tables := repository.NewTableRepository(db)
	images := repository.NewImageRepository(db)
	references := repository.NewReferenceRepository(db)

	rg.GET("/", func(c *gin.Context) {
		all, err := papers.FindAll()
		if err != nil {
			log.Error("Database query for all papers failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, all)
	})

	rg.GET("/:id", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paper id"})
			return
		}

		paper, err := papers.FindByID(id)
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
			return
		}
		if err != nil {
			log.Error("DB error loading paper", zap.Int64("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		sectionCount, _ := sections.CountByPaper(id)
		tableCount, _ := tables.CountByPaper(id)
		imageCount, _ := images.CountByPaper(id)
		referenceCount, _ := references.CountByPaper(id)

		c.JSON(http.StatusOK, gin.H{
			"paper":           paper,
			"section_count":   sectionCount,
			"table_count":     tableCount,
			"image_count":     imageCount,
			"reference_lists": referenceCount,
		})
	})

	rg.GET("/:id/sections", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paper id"})
			return
		}
		result, err := sections.FindByPaper(id)
		if err != nil {
			log.Error("DB error loading sections", zap.Int64("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	rg.GET("/:id/tables", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paper id"})
			return
		}
		result, err := tables.FindByPaper(id)
		if err != nil {
			log.Error("DB error loading tables", zap.Int64("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	rg.GET("/:id/images", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paper id"})
			return
		}
		result, err := images.FindByPaper(id)
		if err != nil {
			log.Error("DB error loading images", zap.Int64("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	rg.GET("/:id/references", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paper id"})
			return
		}
		list, err := references.FindByPaper(id)
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no references stored for this paper"})
			return
		}
		if err != nil {
			log.Error("DB error loading references", zap.Int64("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, list)
	})
}
