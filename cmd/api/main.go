package main

import (
	"context"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/remoteradar/remote-radar/internal/config"
	"github.com/remoteradar/remote-radar/internal/database"
	"github.com/remoteradar/remote-radar/internal/handlers"
	"github.com/remoteradar/remote-radar/internal/scheduler"
	"github.com/remoteradar/remote-radar/internal/scrapers"
	"github.com/remoteradar/remote-radar/internal/services"
)

func main() {
	// 1. Environment + configuration
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading process environment")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	// 2. Database
	db := database.Connect(cfg.DatabaseURL)

	ctx := context.Background()

	// 3. Model backends, primary first. Groq is the fallback when Gemini is
	// rate limited, never for other failure classes.
	var backends []services.Backend
	var embedder embeddings.Embedder

	if cfg.GeminiAPIKey != "" {
		gemini, err := googleai.New(ctx,
			googleai.WithAPIKey(cfg.GeminiAPIKey),
			googleai.WithDefaultModel("gemini-2.5-flash"),
			googleai.WithDefaultEmbeddingModel("text-embedding-004"),
		)
		if err != nil {
			log.Fatal("Failed to create Gemini client:", err)
		}
		backends = append(backends, services.NewModelBackend("gemini-2.5-flash", gemini))

		embedder, err = embeddings.NewEmbedder(gemini)
		if err != nil {
			log.Fatal("Failed to create embedder:", err)
		}
	}
	if cfg.GroqAPIKey != "" {
		groq, err := openai.New(
			openai.WithBaseURL("https://api.groq.com/openai/v1"),
			openai.WithToken(cfg.GroqAPIKey),
			openai.WithModel("llama-3.1-8b-instant"),
		)
		if err != nil {
			log.Fatal("Failed to create Groq client:", err)
		}
		backends = append(backends, services.NewModelBackend("groq-llama-3.1-8b", groq))
	}
	if len(backends) == 0 {
		log.Fatal("At least one of GEMINI_API_KEY / GROQ_API_KEY must be set")
	}
	if embedder == nil {
		log.Fatal("GEMINI_API_KEY is required: the relevance index embeds through it")
	}

	// 4. Core services
	llmService := services.NewLLMService(backends...)
	jobService := services.NewJobService(db, cfg.JobTTLDays)
	indexService := services.NewIndexService(db, embedder)
	userService := services.NewUserService(db)
	rankingService := services.NewRankingService(jobService, indexService)

	// 5. Ingestion pipeline + schedule
	fetcher := scrapers.NewHTTPFetcher()
	ingestService := services.NewIngestService(
		scrapers.All(fetcher, cfg.URLsPerLocation),
		fetcher,
		llmService,
		scrapers.NewLevelsFyi(fetcher),
		jobService,
		indexService,
		config.Roles,
		config.Locations(),
	)

	sched := scheduler.New(ingestService, cfg.ScrapeIntervalHours, cfg.LifecycleIntervalHours)
	if err := sched.Start(ctx); err != nil {
		log.Fatal("Scheduler failed to start:", err)
	}
	defer sched.Stop()

	// 6. Router
	jobHandler := handlers.NewJobHandler(llmService, jobService, rankingService, userService)

	r := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-User-Email"}
	r.Use(cors.New(corsConfig))

	api := r.Group("/api/v1")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/rls", handlers.RolesLocationsSources)

		api.GET("/jobs", jobHandler.GetJob)
		api.GET("/jobs/search", jobHandler.SearchJobs)
		api.GET("/jobs/recommended", jobHandler.RecommendedJobs)

		api.POST("/profile/keywords", jobHandler.RefreshKeywords)
		api.POST("/cover-letter", jobHandler.CoverLetter)
	}

	log.Printf("🚀 Server starting on port %s...", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
