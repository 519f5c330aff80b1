package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/dugtrio-labs/dugtrio/internal/projects"
)

const helpText = `<b>DugTrio — crypto social sentiment</b>

/sentiment &lt;project&gt; — current market read
/stats &lt;project&gt; — mood from recent posts
/tweets &lt;project&gt; — latest collected posts
/pnl &lt;project&gt; — parsed PNL screenshots
/trending — projects gaining momentum
/projects — everything being tracked
/track &lt;project&gt; — start tracking a project
/menu — show the main menu`

// Bot is the Telegram front end. All data access goes through the HTTP API.
type Bot struct {
	api    *tgbotapi.BotAPI
	client *APIClient
	logger *logrus.Logger
}

// Config holds configuration for the Telegram bot.
type Config struct {
	Token  string
	Client *APIClient
	Logger *logrus.Logger
}

func New(cfg Config) (*Bot, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("bot: TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("bot: API client is required")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	cfg.Logger.WithField("username", api.Self.UserName).Info("Telegram bot connected")

	return &Bot{
		api:    api,
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Start long-polls for updates until the context is canceled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.Message != nil {
				go b.handleMessage(ctx, update.Message)
			}
			if update.CallbackQuery != nil {
				go b.handleCallback(ctx, update.CallbackQuery)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}

	chatID := msg.Chat.ID
	arg := strings.ToLower(strings.TrimSpace(msg.CommandArguments()))

	ctx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()

	switch msg.Command() {
	case "start", "menu":
		b.sendHTML(chatID, "<b>👋 Welcome to DugTrio</b>\n\nPick a view below or use /help for commands.", mainMenuKeyboard())
	case "help":
		b.sendHTML(chatID, helpText, backKeyboard())
	case "sentiment":
		b.cmdSentiment(ctx, chatID, arg)
	case "stats":
		b.cmdStats(ctx, chatID, arg)
	case "tweets":
		b.cmdPosts(ctx, chatID, arg)
	case "pnl":
		b.cmdPNL(ctx, chatID, arg)
	case "trending":
		b.cmdTrending(ctx, chatID)
	case "projects":
		b.cmdProjects(ctx, chatID)
	case "track":
		b.cmdTrack(ctx, chatID, arg)
	default:
		b.sendText(chatID, "❓ Unknown command. Use /help")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	// Acknowledge so the client stops the loading spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.WithError(err).Warn("callback ack failed")
	}

	ctx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()

	data := cb.Data
	switch {
	case data == cbShowMain:
		b.sendHTML(chatID, "<b>👋 DugTrio</b>\n\nPick a view below.", mainMenuKeyboard())
	case data == cbShowHelp:
		b.sendHTML(chatID, helpText, backKeyboard())
	case data == cbShowTrending:
		b.cmdTrending(ctx, chatID)
	case data == cbShowProjects:
		b.cmdProjects(ctx, chatID)
	case strings.HasPrefix(data, cbSentimentPrefix):
		b.cmdSentiment(ctx, chatID, strings.TrimPrefix(data, cbSentimentPrefix))
	case strings.HasPrefix(data, cbStatsPrefix):
		b.cmdStats(ctx, chatID, strings.TrimPrefix(data, cbStatsPrefix))
	case strings.HasPrefix(data, cbPostsPrefix):
		b.cmdPosts(ctx, chatID, strings.TrimPrefix(data, cbPostsPrefix))
	case strings.HasPrefix(data, cbPNLPrefix):
		b.cmdPNL(ctx, chatID, strings.TrimPrefix(data, cbPNLPrefix))
	}
}

func (b *Bot) cmdSentiment(ctx context.Context, chatID int64, project string) {
	if project == "" {
		b.sendText(chatID, "Usage: /sentiment <project>, e.g. /sentiment solana")
		return
	}

	summary, err := b.client.Sentiment(ctx, project)
	if err != nil {
		b.replyError(chatID, project, err)
		return
	}
	b.sendHTML(chatID, FormatSummary(summary), projectKeyboard(project))
}

func (b *Bot) cmdStats(ctx context.Context, chatID int64, project string) {
	if project == "" {
		b.sendText(chatID, "Usage: /stats <project>, e.g. /stats solana")
		return
	}

	posts, err := b.client.ProjectPosts(ctx, project, 100)
	if err != nil {
		b.replyError(chatID, project, err)
		return
	}
	b.sendHTML(chatID, FormatStats(project, CountLabels(posts)), projectKeyboard(project))
}

func (b *Bot) cmdPosts(ctx context.Context, chatID int64, project string) {
	if project == "" {
		b.sendText(chatID, "Usage: /tweets <project>, e.g. /tweets solana")
		return
	}

	posts, err := b.client.ProjectPosts(ctx, project, 5)
	if err != nil {
		b.replyError(chatID, project, err)
		return
	}
	b.sendHTML(chatID, FormatPosts(project, posts), projectKeyboard(project))
}

func (b *Bot) cmdPNL(ctx context.Context, chatID int64, project string) {
	if project == "" {
		b.sendText(chatID, "Usage: /pnl <project>, e.g. /pnl solana")
		return
	}

	cards, err := b.client.PNLCards(ctx, project, 10)
	if err != nil {
		b.replyError(chatID, project, err)
		return
	}
	b.sendHTML(chatID, FormatPNL(project, cards), projectKeyboard(project))
}

func (b *Bot) cmdTrending(ctx context.Context, chatID int64) {
	entries, err := b.client.Trending(ctx)
	if err != nil {
		b.replyError(chatID, "", err)
		return
	}
	b.sendHTML(chatID, FormatTrending(entries), backKeyboard())
}

func (b *Bot) cmdProjects(ctx context.Context, chatID int64) {
	list, err := b.client.Projects(ctx)
	if err != nil {
		b.replyError(chatID, "", err)
		return
	}
	b.sendHTML(chatID, FormatProjects(list), projectsKeyboard(list))
}

func (b *Bot) cmdTrack(ctx context.Context, chatID int64, name string) {
	if name == "" {
		b.sendText(chatID, "Usage: /track <project>, e.g. /track jupiter")
		return
	}
	if err := projects.ValidateName(name); err != nil {
		b.sendText(chatID, "Project names are lowercase slugs, e.g. /track jupiter")
		return
	}

	p, err := b.client.TrackProject(ctx, name)
	if err != nil {
		b.replyError(chatID, name, err)
		return
	}

	b.sendHTML(chatID, fmt.Sprintf("✅ Now tracking <b>%s</b>. First posts arrive on the next collection run, or immediately via the API's update endpoint.", p.Name), projectKeyboard(p.Name))
}

// replyError turns API failures into user-friendly messages.
func (b *Bot) replyError(chatID int64, project string, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
		if project != "" {
			b.sendText(chatID, fmt.Sprintf("Nothing here for %q yet. Is it tracked? Use /projects to check.", project))
			return
		}
		b.sendText(chatID, "No data yet. Try again in a few minutes.")
		return
	}

	b.logger.WithError(err).Error("api request failed")
	b.sendText(chatID, "⚠️ Something went wrong, try again in a bit.")
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithError(err).Error("failed to send message")
	}
}

func (b *Bot) sendHTML(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithError(err).Error("failed to send message")
	}
}
