package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/z-perception/backend/internal/config"
	"github.com/zhouzirui/z-perception/backend/internal/handler"
	"github.com/zhouzirui/z-perception/backend/internal/logger"
	"github.com/zhouzirui/z-perception/backend/internal/service/analyzer"
	"github.com/zhouzirui/z-perception/backend/internal/service/explain"
	"github.com/zhouzirui/z-perception/backend/internal/service/session"
	"github.com/zhouzirui/z-perception/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLog.Sync()

	if envErr != nil {
		appLog.Warn("failed to load .env file, continuing with system environment variables only", "error", envErr)
	}

	if err := run(ctx, cfg, appLog); err != nil {
		appLog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, appLog *logger.Logger) error {
	sentimentModel, explainer := buildCollaborators(ctx, cfg.AI, appLog)

	st, err := buildStore(cfg.Store, appLog)
	if err != nil {
		return err
	}
	defer st.Close()

	sink := logger.NewZapSink(appLog)
	manager := session.NewManager(session.ManagerOptions{
		Store:           st,
		Log:             appLog,
		IdleTTL:         cfg.Session.IdleTTL,
		CleanupInterval: cfg.Session.CleanupInterval,
		Config: func(string) session.Config {
			// 分析器保存最近一次上下文，每个会话独立一份
			return session.Config{
				Analyzer:  analyzer.New(sentimentModel),
				Explainer: explainer,
				Sink:      sink,
			}
		},
	})

	router := handler.NewRouter(manager, appLog)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	appLog.Info("perception backend listening", "addr", cfg.Server.Addr, "store", cfg.Store.Driver)
	serveErr := runServer(ctx, srv, cfg.Server.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := manager.Shutdown(shutdownCtx); err != nil {
		appLog.Error("failed to persist sessions on shutdown", "error", err)
	}
	return serveErr
}

// buildCollaborators 按配置选择大模型或本地实现；大模型初始化失败时退回本地实现
func buildCollaborators(ctx context.Context, aiCfg config.AIConfig, appLog *logger.Logger) (analyzer.Model, explain.Explainer) {
	var sentimentModel analyzer.Model = analyzer.NewHeuristicModel()
	var explainer explain.Explainer = explain.TemplateExplainer{}

	if !aiCfg.AnalyzerLLMEnabled && !aiCfg.ExplainerLLMEnabled {
		appLog.Info("LLM collaborators disabled by configuration, using heuristics")
		return sentimentModel, explainer
	}
	if !aiCfg.Enabled() {
		appLog.Warn("Ark 凭证未配置，跳过大模型初始化")
		return sentimentModel, explainer
	}

	chatModel, err := aiCfg.NewChatModel(ctx)
	if err != nil {
		appLog.Warn("failed to initialize chat model, continuing with heuristics", "error", err)
		return sentimentModel, explainer
	}

	if aiCfg.AnalyzerLLMEnabled {
		if m, err := analyzer.NewLLMModel(ctx, chatModel); err != nil {
			appLog.Warn("failed to build LLM sentiment model", "error", err)
		} else {
			sentimentModel = m
			appLog.Info("LLM sentiment model enabled", "model", aiCfg.Model)
		}
	}
	if aiCfg.ExplainerLLMEnabled {
		if e, err := explain.NewLLMExplainer(ctx, chatModel); err != nil {
			appLog.Warn("failed to build LLM explainer", "error", err)
		} else {
			explainer = e
			appLog.Info("LLM explainer enabled", "model", aiCfg.Model)
		}
	}
	return sentimentModel, explainer
}

func buildStore(storeCfg config.StoreConfig, appLog *logger.Logger) (store.Store, error) {
	switch storeCfg.Driver {
	case "redis":
		st, err := store.NewRedisStore(store.RedisOptions{
			Addr:      storeCfg.RedisAddr,
			Password:  storeCfg.RedisPassword,
			DB:        storeCfg.RedisDB,
			KeyPrefix: storeCfg.KeyPrefix,
			TTL:       storeCfg.TTL,
		}, appLog)
		if err != nil {
			return nil, fmt.Errorf("init redis store: %w", err)
		}
		return st, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

func runServer(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
