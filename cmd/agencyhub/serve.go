package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/spf13/cobra"

	"agencyhub/internal/approval"
	"agencyhub/internal/files"
	"agencyhub/internal/generate"
	"agencyhub/internal/notify"
	"agencyhub/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the frontend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	logger := a.logger
	cfg := a.cfg

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var mailer notify.Notifier = notify.LogNotifier{Logger: logger}
	if cfg.Email.ResendAPIKey != "" {
		mailer = notify.NewResendNotifier(cfg.Email.ResendAPIKey, cfg.Email.From)
	}
	mail := notify.NewDispatcher(mailer, logger, 0)
	defer mail.Wait()

	var model generate.Model
	if cfg.AI.GeminiAPIKey != "" {
		gm, err := generate.NewGeminiModel(ctx, cfg.AI.GeminiAPIKey, cfg.AI.Model)
		if err != nil {
			return err
		}
		model = gm
	} else {
		logger.Warn("ai.gemini_api_key not set; content generation disabled")
	}

	uploads, err := files.NewLocalStore(cfg.Files.Dir, cfg.Files.PublicBase, logger)
	if err != nil {
		return err
	}

	srv := server.New(store, logger, server.Options{
		StaticDir:     cfg.HTTP.StaticDir,
		SessionTTL:    cfg.Session.TTL,
		SecureCookies: strings.HasPrefix(cfg.App.PublicURL, "https://"),
		Approvals: approval.NewService(store, mail, approval.Options{
			TTL:       cfg.Approval.TTL,
			PublicURL: cfg.App.PublicURL,
			Logger:    logger,
		}),
		Generator: generate.NewService(model, store, logger),
		Files:     uploads,
	})

	origins := cfg.HTTP.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	handler := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.AllowCredentials(),
	)(srv.Engine())

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr), slog.String("public_url", cfg.App.PublicURL))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	return nil
}
