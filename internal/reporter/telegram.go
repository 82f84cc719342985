package reporter

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-cvassist-client/internal/config"
	"go-cvassist-client/internal/models"
)

// Telegram caps message text at 4096 characters.
const maxMessageRunes = 4000

// Reporter delivers results outside the terminal.
type Reporter interface {
	SendApplication(app models.Application, jobURL string) error
	SendDocument(path, caption string) error
	SendStatus(message string) error
	SendError(err error) error
}

// New returns a Telegram reporter when a bot token is configured, and Nop
// otherwise.
func New(cfg *config.Config) (Reporter, error) {
	if !cfg.TelegramEnabled() {
		return Nop{}, nil
	}
	return NewTelegramReporter(cfg.TelegramToken, cfg.TelegramChatID)
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramReporter struct {
	bot    sender
	chatID int64
}

func NewTelegramReporter(token string, chatID int64) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	//turn this on in case of debug
	//bot.Debug = true

	return &TelegramReporter{bot: bot, chatID: chatID}, nil
}

func (t *TelegramReporter) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := t.bot.Send(msg)
	return err
}

func (t *TelegramReporter) SendApplication(app models.Application, jobURL string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 <b>%s</b>\n", html.EscapeString(app.ApplicationType.Label()))
	if subject := app.SubjectText(); subject != "" {
		fmt.Fprintf(&b, "✉️ <b>Subject:</b> %s\n", html.EscapeString(subject))
	}
	fmt.Fprintf(&b, "💼 %s\n\n", html.EscapeString(truncate(firstLine(app.JobDescription), 120)))
	b.WriteString(html.EscapeString(truncate(app.Content, maxMessageRunes-b.Len())))

	msg := tgbotapi.NewMessage(t.chatID, b.String())
	msg.ParseMode = tgbotapi.ModeHTML
	if jobURL != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", jobURL)),
		)
	}
	_, err := t.bot.Send(msg)
	return err
}

func (t *TelegramReporter) SendDocument(path, caption string) error {
	doc := tgbotapi.NewDocument(t.chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	_, err := t.bot.Send(doc)
	return err
}

func (t *TelegramReporter) SendStatus(message string) error {
	return t.SendMessage("ℹ️ " + html.EscapeString(message))
}

func (t *TelegramReporter) SendError(errReq error) error {
	return t.SendMessage(fmt.Sprintf("⚠️ <b>cvassist error</b>:\n%s", html.EscapeString(errReq.Error())))
}

// Nop drops everything.
type Nop struct{}

func (Nop) SendApplication(models.Application, string) error { return nil }
func (Nop) SendDocument(string, string) error               { return nil }
func (Nop) SendStatus(string) error                         { return nil }
func (Nop) SendError(error) error                           { return nil }

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
