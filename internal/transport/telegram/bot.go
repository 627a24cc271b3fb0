package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"teacher-assistant-bot/internal/domain"
)

// maxCallbackData is Telegram's limit on inline button payloads.
const maxCallbackData = 64

// Submit hands a decoded event to the dispatcher.
type Submit func(ctx context.Context, ev domain.Event)

// Bot adapts the Telegram Bot API to the router: updates in, replies out.
type Bot struct {
	api    *bot.Bot
	submit Submit
	files  *http.Client
	log    zerolog.Logger
}

func New(token string, submit Submit, log zerolog.Logger) (*Bot, error) {
	t := &Bot{
		submit: submit,
		files:  &http.Client{Timeout: 60 * time.Second},
		log:    log.With().Str("module", "telegram").Logger(),
	}
	api, err := bot.New(token, bot.WithDefaultHandler(t.handle))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	t.api = api
	return t, nil
}

// Run long-polls for updates until ctx is cancelled.
func (t *Bot) Run(ctx context.Context) {
	t.log.Info().Msg("polling_started")
	t.api.Start(ctx)
	t.log.Info().Msg("polling_stopped")
}

func (t *Bot) handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery != nil {
		// stop the client-side spinner regardless of what the handler does
		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
		}); err != nil {
			t.log.Warn().Err(err).Msg("answer_callback_failed")
		}
	}
	ev, ok := t.decode(update)
	if !ok {
		return
	}
	t.submit(ctx, ev)
}

func (t *Bot) decode(update *models.Update) (domain.Event, bool) {
	ev, ok := decodeUpdate(update)
	if !ok {
		return nil, false
	}
	if doc, isDoc := ev.(domain.DocumentEvent); isDoc {
		fileID := update.Message.Document.FileID
		doc.Open = func(ctx context.Context) (io.ReadCloser, error) {
			return t.download(ctx, fileID)
		}
		return doc, true
	}
	return ev, true
}

// decodeUpdate converts the parts of an update the bot cares about; everything else is
// ignored.
func decodeUpdate(update *models.Update) (domain.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		chatID := cq.From.ID
		if cq.Message.Message != nil {
			chatID = cq.Message.Message.Chat.ID
		}
		return domain.CallbackEvent{
			Actor:    actorOf(&cq.From, chatID),
			Callback: domain.DecodeCallback(cq.Data),
		}, true
	case update.Message != nil && update.Message.From != nil:
		msg := update.Message
		actor := actorOf(msg.From, msg.Chat.ID)
		if msg.Document != nil {
			return domain.DocumentEvent{Actor: actor, FileName: msg.Document.FileName}, true
		}
		if msg.Text == "" {
			return nil, false
		}
		return domain.DecodeMessage(actor, msg.Text), true
	default:
		return nil, false
	}
}

func actorOf(u *models.User, chatID int64) domain.Actor {
	return domain.Actor{
		UserID:    u.ID,
		ChatID:    chatID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

func (t *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := t.api.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}

func (t *Bot) SendChoices(ctx context.Context, chatID int64, text string, choices []domain.Choice) error {
	markup := keyboard(choices, func(c domain.Choice) {
		t.log.Warn().Str("label", c.Label).Msg("choice_dropped_too_long")
	})
	_, err := t.api.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text, ReplyMarkup: markup})
	if err != nil {
		return fmt.Errorf("send choices to %d: %w", chatID, err)
	}
	return nil
}

func (t *Bot) SendDocument(ctx context.Context, chatID int64, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	_, err = t.api.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileUpload{Filename: filepath.Base(path), Data: f},
	})
	if err != nil {
		return fmt.Errorf("send document to %d: %w", chatID, err)
	}
	return nil
}

// keyboard lays choices out one per row. Choices whose token exceeds the callback
// payload limit cannot be delivered and are reported through dropped.
func keyboard(choices []domain.Choice, dropped func(domain.Choice)) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(choices))
	for _, c := range choices {
		if len(c.Token) > maxCallbackData {
			dropped(c)
			continue
		}
		rows = append(rows, []models.InlineKeyboardButton{{Text: c.Label, CallbackData: c.Token}})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (t *Bot) download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	file, err := t.api.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.api.FileDownloadLink(file), nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.files.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
