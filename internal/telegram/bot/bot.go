package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/opmgt/beergame-coach/internal/config"
	"github.com/opmgt/beergame-coach/internal/entity"
	"github.com/opmgt/beergame-coach/internal/telegram/handlers"
	"github.com/opmgt/beergame-coach/internal/telegram/keyboard"
	"github.com/opmgt/beergame-coach/internal/telegram/middleware"
	"github.com/opmgt/beergame-coach/internal/telegram/render"
	"github.com/opmgt/beergame-coach/internal/telegram/state"
	"go.uber.org/zap"
)

// Bot represents the Telegram bot
type Bot struct {
	api          *tgbotapi.BotAPI
	cfg          *config.TelegramConfig
	stateManager *state.Manager
	coachUC      handlers.CoachUsecase
	sections     []string
	keyboard     *keyboard.Builder
	sender       *handlers.MessageSender
	logger       *zap.Logger
	loggingMW    *middleware.LoggingMiddleware
	recoveryMW   *middleware.RecoveryMiddleware
	rateLimitMW  *middleware.RateLimiterMiddleware
	updatesChan  tgbotapi.UpdatesChannel
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

// New creates a new Telegram bot
func New(
	cfg *config.TelegramConfig,
	stateManager *state.Manager,
	coachUC handlers.CoachUsecase,
	sections []string,
	logger *zap.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	api.Debug = false

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	bot := &Bot{
		api:          api,
		cfg:          cfg,
		stateManager: stateManager,
		coachUC:      coachUC,
		sections:     sections,
		keyboard:     keyboard.NewBuilder(),
		sender:       handlers.NewMessageSender(api, logger),
		logger:       logger,
		stopChan:     make(chan struct{}),
	}

	bot.loggingMW = middleware.NewLoggingMiddleware(logger)
	bot.recoveryMW = middleware.NewRecoveryMiddleware(logger, api)
	bot.rateLimitMW = middleware.NewRateLimiterMiddleware(
		cfg.RateLimitPerMinute,
		cfg.RateLimitBurst,
		logger,
		api,
	)

	return bot, nil
}

// Start starts the bot
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout

	b.updatesChan = b.api.GetUpdatesChan(u)

	ctx = ctxzap.ToContext(ctx, b.logger)
	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops the bot gracefully with timeout
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	close(b.stopChan)
	b.api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

// processUpdates processes incoming updates
func (b *Bot) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update := <-b.updatesChan:
			// Generation turns are slow, so every update runs in its own
			// goroutine behind the middleware chain.
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdateWithMiddleware(u)
			}(update)
		}
	}
}

// handleUpdateWithMiddleware processes update through middleware chain
func (b *Bot) handleUpdateWithMiddleware(update tgbotapi.Update) {
	b.rateLimitMW.Handle(update, func(u tgbotapi.Update) {
		b.loggingMW.Handle(u, func(u2 tgbotapi.Update) {
			b.recoveryMW.Handle(u2, func(u3 tgbotapi.Update) {
				b.handleUpdate(u3)
			})
		})
	})
}

// handleUpdate routes update to the appropriate handler
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	ctx := ctxzap.ToContext(context.Background(), b.logger)

	if update.CallbackQuery != nil {
		b.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	if update.Message != nil {
		b.handleMessage(ctx, update.Message)
		return
	}
}

// handleMessage handles incoming text messages
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	userID := message.From.ID
	chatID := message.Chat.ID

	chat, err := b.stateManager.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			ctxzap.Error(ctx, "failed to get chat state",
				zap.Error(err),
				zap.Int64("user_id", userID),
			)
		}
		b.sender.Send(chatID, render.ErrNoSession, nil)
		return
	}

	switch chat.Stage {
	case state.StageAskSection:
		b.sender.Send(chatID, render.MsgWelcome, b.keyboard.SectionKeyboard(b.sections))
	case state.StageAskParticipant:
		b.handleParticipantID(ctx, chat, chatID, message.Text)
	case state.StageChatting:
		b.handleChatMessage(ctx, chat, chatID, message.Text)
	default:
		ctxzap.Warn(ctx, "no handler for stage",
			zap.String("stage", string(chat.Stage)),
			zap.Int64("user_id", userID),
		)
		b.sender.Send(chatID, render.ErrGeneric, nil)
	}
}

// handleParticipantID creates the coaching session once the ID arrives
func (b *Bot) handleParticipantID(ctx context.Context, chat *state.ChatState, chatID int64, text string) {
	session, err := b.coachUC.StartSession(ctx, &entity.StartSessionRequest{
		Section:       chat.Section,
		ParticipantID: text,
	})
	if err != nil {
		ctxzap.Error(ctx, "failed to start session", zap.Error(err))
		if errors.Is(err, entity.ErrMissingField) {
			b.sender.Send(chatID, render.MsgAskParticipant, nil)
			return
		}
		b.sender.Send(chatID, render.ErrGeneric, nil)
		return
	}

	chat.SessionID = session.ID
	chat.Stage = state.StageChatting
	if err := b.stateManager.Set(ctx, chat); err != nil {
		ctxzap.Error(ctx, "failed to save chat state", zap.Error(err))
		b.sender.Send(chatID, render.ErrGeneric, nil)
		return
	}

	b.sender.Send(chatID, render.MsgPickRole, b.keyboard.RoleKeyboard())
}

// handleChatMessage runs one coaching turn
func (b *Bot) handleChatMessage(ctx context.Context, chat *state.ChatState, chatID int64, text string) {
	turn, err := b.coachUC.SubmitMessage(ctx, chat.SessionID, text)
	if err != nil {
		ctxzap.Error(ctx, "failed to submit message",
			zap.Error(err),
			zap.String("session_id", chat.SessionID),
		)
		switch {
		case errors.Is(err, entity.ErrRoleRequired):
			b.sender.Send(chatID, render.ErrRoleRequired, b.keyboard.RoleKeyboard())
		case errors.Is(err, entity.ErrSessionNotFound):
			b.sender.Send(chatID, render.ErrNoSession, nil)
		default:
			b.sender.Send(chatID, render.ErrGeneric, nil)
		}
		return
	}

	b.sender.Send(chatID, render.Turn(turn), b.keyboard.ChatKeyboard())
}

// handleCommand handles bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()

	ctxzap.Info(ctx, "command received",
		zap.String("command", command),
		zap.Int64("user_id", message.From.ID),
	)

	switch command {
	case "start":
		b.handleStartCommand(ctx, message)
	case "help":
		b.sender.Send(message.Chat.ID, render.MsgHelp, nil)
	case "end":
		b.handleEndCommand(ctx, message.From.ID, message.Chat.ID)
	default:
		b.sender.Send(message.Chat.ID, "❌ Unknown command. Use /start", nil)
	}
}

// handleStartCommand handles /start command
func (b *Bot) handleStartCommand(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	// A fresh /start abandons whatever came before.
	chat := &state.ChatState{
		UserID: userID,
		Stage:  state.StageAskSection,
	}
	if err := b.stateManager.Set(ctx, chat); err != nil {
		ctxzap.Error(ctx, "failed to save chat state", zap.Error(err))
		b.sender.Send(chatID, render.ErrGeneric, nil)
		return
	}

	b.sender.Send(chatID, render.MsgWelcome, b.keyboard.SectionKeyboard(b.sections))
}

// handleEndCommand handles /end command and the end button
func (b *Bot) handleEndCommand(ctx context.Context, userID, chatID int64) {
	chat, err := b.stateManager.Get(ctx, userID)
	if err != nil || chat.SessionID == "" {
		b.sender.Send(chatID, render.ErrNoSession, nil)
		return
	}

	result, err := b.coachUC.EndSession(ctx, chat.SessionID)
	if err != nil {
		ctxzap.Error(ctx, "failed to end session",
			zap.Error(err),
			zap.String("session_id", chat.SessionID),
		)
		b.sender.Send(chatID, render.ErrGeneric, nil)
		return
	}

	if err := b.stateManager.Delete(ctx, userID); err != nil {
		ctxzap.Error(ctx, "failed to delete chat state", zap.Error(err))
	}

	b.sender.Send(chatID, render.SessionEnded(result), nil)
}

// handleCallbackQuery handles callback button clicks
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	callbackData, err := keyboard.ParseCallback(query.Data)
	if err != nil {
		ctxzap.Error(ctx, "invalid callback data",
			zap.Error(err),
			zap.String("data", query.Data),
		)
		b.answerCallback(query.ID, "❌ Invalid data")
		return
	}

	ctxzap.Info(ctx, "callback query received",
		zap.String("action", callbackData.Action),
		zap.String("value", callbackData.Value),
		zap.Int64("user_id", query.From.ID),
	)

	userID := query.From.ID
	chatID := query.Message.Chat.ID

	// Answer right away so Telegram does not consider the query stale.
	b.answerCallback(query.ID, "")

	switch callbackData.Action {
	case "section":
		b.handleSectionCallback(ctx, userID, chatID, callbackData.Value)
	case "role":
		b.handleRoleCallback(ctx, userID, chatID, callbackData.Value)
	case "dl":
		b.handleDownloadCallback(ctx, userID, chatID, callbackData.Value)
	case "action":
		if callbackData.Value == "end" {
			b.handleEndCommand(ctx, userID, chatID)
		}
	default:
		ctxzap.Warn(ctx, "unknown callback action", zap.String("action", callbackData.Action))
	}
}

// handleSectionCallback stores the chosen section and asks for the ID
func (b *Bot) handleSectionCallback(ctx context.Context, userID, chatID int64, section string) {
	chat, err := b.stateManager.Get(ctx, userID)
	if err != nil {
		b.sender.Send(chatID, render.ErrNoSession, nil)
		return
	}

	chat.Section = section
	chat.Stage = state.StageAskParticipant
	if err := b.stateManager.Set(ctx, chat); err != nil {
		ctxzap.Error(ctx, "failed to save chat state", zap.Error(err))
		b.sender.Send(chatID, render.ErrGeneric, nil)
		return
	}

	b.sender.Send(chatID, render.MsgAskParticipant, nil)
}

// handleRoleCallback applies a role selection
func (b *Bot) handleRoleCallback(ctx context.Context, userID, chatID int64, role string) {
	chat, err := b.stateManager.Get(ctx, userID)
	if err != nil || chat.SessionID == "" {
		b.sender.Send(chatID, render.ErrNoSession, nil)
		return
	}

	session, err := b.coachUC.SelectRole(ctx, chat.SessionID, role)
	if err != nil {
		ctxzap.Error(ctx, "failed to select role",
			zap.Error(err),
			zap.String("session_id", chat.SessionID),
		)
		if errors.Is(err, entity.ErrRoleLocked) {
			b.sender.Send(chatID, render.ErrRoleLocked, nil)
			return
		}
		b.sender.Send(chatID, render.ErrGeneric, nil)
		return
	}

	// The log was just reset to the role welcome message.
	if len(session.Messages) > 0 {
		b.sender.Send(chatID, session.Messages[len(session.Messages)-1].Content, nil)
	}
}

// handleDownloadCallback sends the transcript as a document
func (b *Bot) handleDownloadCallback(ctx context.Context, userID, chatID int64, format string) {
	chat, err := b.stateManager.Get(ctx, userID)
	if err != nil || chat.SessionID == "" {
		b.sender.Send(chatID, render.ErrNoSession, nil)
		return
	}

	body, _, filename, err := b.coachUC.Export(ctx, chat.SessionID, entity.ResultFormat(format))
	if err != nil {
		ctxzap.Error(ctx, "failed to export transcript",
			zap.Error(err),
			zap.String("session_id", chat.SessionID),
			zap.String("format", format),
		)
		b.sender.Send(chatID, render.ErrGeneric, nil)
		return
	}

	if err := b.sender.SendDocument(chatID, filename, body); err != nil {
		b.sender.Send(chatID, render.ErrGeneric, nil)
	}
}

// answerCallback answers a callback query
func (b *Bot) answerCallback(callbackID string, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Error("failed to answer callback",
			zap.Error(err),
			zap.String("callback_id", callbackID),
		)
	}
}
