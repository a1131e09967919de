package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"github.com/opensharing/showcase/internal/config"
	"github.com/opensharing/showcase/internal/handler"
	"github.com/opensharing/showcase/internal/password"
	"github.com/opensharing/showcase/internal/platform"
	"github.com/opensharing/showcase/internal/reconcile"
	"github.com/opensharing/showcase/internal/repository"
	"github.com/opensharing/showcase/internal/search"
	"github.com/opensharing/showcase/internal/service"
	"github.com/opensharing/showcase/internal/token"
)

const indexerQueueSize = 256

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	searchClient, err := search.NewClient(cfg.ElasticURL, cfg.ElasticAPIKey)
	if err != nil {
		return fmt.Errorf("connect elasticsearch: %w", err)
	}

	clients := []platform.Client{
		platform.NewGitHub(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubRedirectURI, cfg.GitHubToken),
		platform.NewGitee(cfg.GiteeClientID, cfg.GiteeClientSecret, cfg.GiteeRedirectURI),
	}

	userRepo := repository.NewUserRepository(db)
	oauthRepo := repository.NewOAuthAccountRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	tagRepo := repository.NewTagRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	imageRepo := repository.NewImageRepository(db)
	syncLogRepo := repository.NewSyncLogRepository(db)

	tokens := token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	passwords := password.NewHasher()
	indexer := search.NewIndexer(searchClient, indexerQueueSize)

	notificationSvc := service.NewNotificationService(notificationRepo)
	authSvc := service.NewAuthService(userRepo, oauthRepo, clients, tokens, passwords)
	userSvc := service.NewUserService(userRepo, passwords)
	projectSvc := service.NewProjectService(projectRepo, imageRepo, syncLogRepo, userRepo,
		clients, searchClient, indexer, notificationSvc)
	ratingSvc := service.NewRatingService(ratingRepo)
	commentSvc := service.NewCommentService(commentRepo, projectRepo, notificationSvc)
	tagSvc := service.NewTagService(tagRepo)
	favoriteSvc := service.NewFavoriteService(favoriteRepo, projectRepo)
	imageSvc, err := service.NewImageService(imageRepo, cfg.ImagesDir)
	if err != nil {
		return err
	}

	reconciler := reconcile.New(projectRepo, syncLogRepo, indexer, clients,
		cfg.SyncInterval, cfg.SyncFrequency)

	e := echo.New()
	e.HideBanner = true
	handler.NewRouter(authSvc, userSvc, projectSvc, ratingSvc, commentSvc,
		tagSvc, favoriteSvc, notificationSvc, imageSvc, cfg.FrontendURL).Register(e)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		indexer.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		reconciler.Run(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		slog.Info("server listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		stop()
		wg.Wait()
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
	wg.Wait()
	return nil
}
