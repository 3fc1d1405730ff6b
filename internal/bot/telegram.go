// internal/bot/telegram.go
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Bot connects a Commander to the Telegram Bot API using long polling.
type Bot struct {
	api       *tgbot.Bot
	commander *Commander
	logger    *slog.Logger
}

// NewBot creates a Telegram client for token. Nothing is sent until Run.
func NewBot(token string, commander *Commander, logger *slog.Logger) (*Bot, error) {
	b := &Bot{
		commander: commander,
		logger:    logger,
	}

	api, err := tgbot.New(token,
		tgbot.WithDefaultHandler(b.onMessage),
		tgbot.WithErrorsHandler(func(err error) {
			logger.Error("Telegram polling error", "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	api.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, "", tgbot.MatchTypePrefix, b.onCallback)
	b.api = api
	return b, nil
}

// Run registers the command menu and polls for updates until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	if _, err := b.api.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{
		Commands: []models.BotCommand{
			{Command: CommandStart, Description: "Play the game"},
			{Command: CommandHelp, Description: "Game instructions"},
			{Command: CommandStats, Description: "Your statistics"},
			{Command: CommandLeaderboard, Description: "Top 10 players"},
			{Command: CommandWithdraw, Description: "Withdraw coins"},
		},
	}); err != nil {
		b.logger.Warn("Failed to register bot commands", "error", err)
	}

	b.logger.Info("Telegram bot polling started")
	b.api.Start(ctx)
	b.logger.Info("Telegram bot stopped")
}

func (b *Bot) onMessage(ctx context.Context, api *tgbot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}

	cmd, args := ParseCommand(msg.Text)
	req := requestFor(*msg.From)
	req.Command = cmd
	req.Args = args

	reply := b.commander.Handle(ctx, req)
	if _, err := api.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        reply.Text,
		ReplyMarkup: keyboardMarkup(reply.Keyboard),
	}); err != nil {
		b.logger.Error("Failed to send bot reply", "chat_id", msg.Chat.ID, "command", cmd, "error", err)
	}
}

// onCallback answers inline button presses by replacing the message text.
func (b *Bot) onCallback(ctx context.Context, api *tgbot.Bot, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}
	if _, err := api.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: query.ID,
	}); err != nil {
		b.logger.Warn("Failed to answer callback query", "error", err)
	}

	req := requestFor(query.From)
	req.Command = query.Data
	reply := b.commander.Handle(ctx, req)

	msg := query.Message.Message
	if msg == nil {
		return
	}
	if _, err := api.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        reply.Text,
		ReplyMarkup: keyboardMarkup(reply.Keyboard),
	}); err != nil {
		b.logger.Error("Failed to edit bot message", "chat_id", msg.Chat.ID, "command", req.Command, "error", err)
	}
}

func requestFor(u models.User) Request {
	return Request{
		UserID:    strconv.FormatInt(u.ID, 10),
		FirstName: u.FirstName,
		Username:  u.Username,
		IsPremium: u.IsPremium,
	}
}

func keyboardMarkup(rows [][]Button) models.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	keyboard := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			button := models.InlineKeyboardButton{Text: btn.Text, CallbackData: btn.Data}
			if btn.URL != "" {
				button.WebApp = &models.WebAppInfo{URL: btn.URL}
			}
			buttons = append(buttons, button)
		}
		keyboard = append(keyboard, buttons)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}
