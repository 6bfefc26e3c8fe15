package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prabhucts/pmo/internal/chat"
	"github.com/prabhucts/pmo/internal/config"
	"github.com/prabhucts/pmo/internal/database"
	httpapi "github.com/prabhucts/pmo/internal/http"
	"github.com/prabhucts/pmo/internal/logger"
	"github.com/prabhucts/pmo/internal/repository"
	"github.com/prabhucts/pmo/internal/router"
	"github.com/prabhucts/pmo/internal/rules"
	"github.com/prabhucts/pmo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	db := database.ConnectDB(&cfg.DB, log)
	defer database.CloseDB(db, log)

	repo := repository.New(db)
	defaults := rules.DefaultTable(cfg.Rules)
	services := service.New(repo, log, service.Options{
		Rules:        defaults,
		TemplatesDir: cfg.Templates,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Seed {
		if _, err := service.Seed(ctx, repo, services.Imports, cfg.Templates, log); err != nil {
			log.Error("seeding failed", zap.Error(err))
		}
	}

	var llm chat.Completer
	if cfg.OpenAI.APIKey != "" {
		llm = chat.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, log)
	} else {
		log.Info("OPENAI_API_KEY not set, chat uses keyword intents")
	}

	handler := httpapi.New(services, chat.New(repo, defaults, llm, log), httpapi.UploadConfig{
		MaxSize: cfg.Upload.MaxSize,
		Dir:     cfg.Upload.Dir,
	}, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Router(handler, cfg.CORS),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
