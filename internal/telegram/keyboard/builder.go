package keyboard

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/opmgt/beergame-coach/internal/entity"
)

// Builder creates inline keyboards
type Builder struct{}

// NewBuilder creates a keyboard builder
func NewBuilder() *Builder {
	return &Builder{}
}

// SectionKeyboard creates one button per class section
func (b *Builder) SectionKeyboard(sections []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(sections))
	for _, section := range sections {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(section, EncodeCallback("section", section)),
		))
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// RoleKeyboard creates supply chain role selection buttons
func (b *Builder) RoleKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(entity.Roles))
	for _, role := range entity.Roles {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(string(role), EncodeCallback("role", string(role))),
		))
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// ChatKeyboard creates the controls shown alongside coaching replies
func (b *Builder) ChatKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📄 Transcript (.md)", EncodeCallback("dl", "md")),
			tgbotapi.NewInlineKeyboardButtonData("📕 Transcript (.pdf)", EncodeCallback("dl", "pdf")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛑 End session", EncodeCallback("action", "end")),
		),
	)
}
