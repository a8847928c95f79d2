package telegram

import (
	"context"
	"fmt"

	"github.com/opmgt/beergame-coach/internal/config"
	"github.com/opmgt/beergame-coach/internal/telegram/bot"
	"github.com/opmgt/beergame-coach/internal/telegram/handlers"
	"github.com/opmgt/beergame-coach/internal/telegram/state"
	"go.uber.org/zap"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot initializes the telegram bot with all dependencies
func NewBot(
	cfg *config.TelegramConfig,
	sections []string,
	storage state.Storage,
	coachUC handlers.CoachUsecase,
	logger *zap.Logger,
) (Bot, error) {
	stateManager := state.NewManager(storage)

	b, err := bot.New(cfg, stateManager, coachUC, sections, logger)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	logger.Info("telegram bot initialized successfully")

	return b, nil
}
