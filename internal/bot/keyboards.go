package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dugtrio-labs/dugtrio/internal/projects"
)

// Callback data values for inline keyboards.
const (
	cbShowTrending = "menu_trending"
	cbShowProjects = "menu_projects"
	cbShowHelp     = "menu_help"
	cbShowMain     = "menu_main"

	// Per-project callbacks carry the project name after the prefix.
	cbSentimentPrefix = "sentiment:"
	cbStatsPrefix     = "stats:"
	cbPostsPrefix     = "posts:"
	cbPNLPrefix       = "pnl:"
)

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔥 Trending", cbShowTrending),
			tgbotapi.NewInlineKeyboardButtonData("👀 Projects", cbShowProjects),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", cbShowHelp),
		),
	)
}

// projectsKeyboard offers one sentiment button per tracked project.
func projectsKeyboard(list []*projects.Project) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(list)+1)
	row := make([]tgbotapi.InlineKeyboardButton, 0, 2)
	for _, p := range list {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("📊 "+p.Name, cbSentimentPrefix+p.Name))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("◀️ Menu", cbShowMain),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// projectKeyboard offers drill-down views for one project.
func projectKeyboard(name string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📈 Mood", cbStatsPrefix+name),
			tgbotapi.NewInlineKeyboardButtonData("🐦 Posts", cbPostsPrefix+name),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 PNL", cbPNLPrefix+name),
			tgbotapi.NewInlineKeyboardButtonData("◀️ Menu", cbShowMain),
		),
	)
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Menu", cbShowMain),
		),
	)
}
