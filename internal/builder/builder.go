package builder

import (
	"fmt"
	"net/http"
	"time"

	"github.com/opmgt/beergame-coach/internal/api"
	sessionapi "github.com/opmgt/beergame-coach/internal/api/session"
	"github.com/opmgt/beergame-coach/internal/config"
	"github.com/opmgt/beergame-coach/internal/entity"
	"github.com/opmgt/beergame-coach/internal/integration/blob"
	"github.com/opmgt/beergame-coach/internal/integration/openai"
	"github.com/opmgt/beergame-coach/internal/pkg/validator"
	"github.com/opmgt/beergame-coach/internal/prompts"
	"github.com/opmgt/beergame-coach/internal/repository"
	"github.com/opmgt/beergame-coach/internal/telegram"
	"github.com/opmgt/beergame-coach/internal/telegram/state"
	"github.com/opmgt/beergame-coach/internal/usecase/coach"
	"go.uber.org/zap"
)

func Build() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	coachUC, err := buildCoachUsecase(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Setup API handlers
	sessionHandler := sessionapi.NewHandler(coachUC)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(sessionHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		logger: logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot() (telegram.Bot, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
	)

	if cfg.TelegramCfg.BotToken == "" {
		return nil, nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required for the telegram bot binary")
	}

	coachUC, err := buildCoachUsecase(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	chatStorage := state.NewMemoryStorage(cfg.CoachCfg.SessionTTL)

	bot, err := telegram.NewBot(&cfg.TelegramCfg, cfg.CoachCfg.Sections, chatStorage, coachUC, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	logger.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return bot, logger, nil
}

// buildCoachUsecase wires the shared core behind both front ends.
func buildCoachUsecase(cfg *config.Config, logger *zap.Logger) (*coach.CoachUsecase, error) {
	// Initialize external service connectors (with mock support)
	var primary, fallback coach.ChatBackend
	var blobStore coach.BlobStore

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		primary = openai.NewMockConnector(logger)
		fallback = openai.NewMockConnector(logger)
		blobStore = blob.NewMockConnector(logger)
	} else {
		logger.Info("Using real connectors for external services")
		primary = openai.NewConnector(cfg.OpenAICfg, cfg.OpenAICfg.PrimaryModel, cfg.OpenAICfg.ReasoningEffort, logger)
		// The fallback model runs without reasoning options so older model
		// families accept the request.
		fallback = openai.NewConnector(cfg.OpenAICfg, cfg.OpenAICfg.FallbackModel, entity.EffortNone, logger)
		blobStore = blob.NewConnector(cfg.BlobCfg, logger)
	}

	sessionRepo := repository.NewSessionMemory(cfg.CoachCfg.SessionTTL)
	logger.Info("Repositories initialized")

	modeProvider := prompts.NewProvider(cfg.ModeOverrides)
	if _, err := modeProvider.Mode(cfg.CoachCfg.ModeKey); err != nil {
		return nil, fmt.Errorf("configured mode key: %w", err)
	}

	generator := coach.NewGenerator(primary, fallback, modeProvider, validator.New(), logger)

	coachUC := coach.NewUsecase(sessionRepo, generator, blobStore, cfg.CoachCfg, logger)
	logger.Info("Use cases initialized")

	return coachUC, nil
}
