package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/dugtrio-labs/dugtrio/internal/constants"
	"github.com/dugtrio-labs/dugtrio/internal/models"
	"github.com/dugtrio-labs/dugtrio/internal/projects"
)

// Mood maps the positive share of recent posts onto a market mood line.
func Mood(positivePct float64) string {
	switch {
	case positivePct >= 60:
		return "🚀 Very Bullish"
	case positivePct >= 45:
		return "📈 Bullish"
	case positivePct >= 35:
		return "😐 Neutral"
	case positivePct >= 25:
		return "📉 Cautious"
	default:
		return "🐻 Bearish"
	}
}

// SentimentStats are label counts over a set of posts.
type SentimentStats struct {
	Positive int
	Neutral  int
	Negative int
	Total    int
}

// PositivePct is the share of positive posts among the labeled ones.
func (s SentimentStats) PositivePct() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Positive) * 100 / float64(s.Total)
}

// CountLabels tallies sentiment labels, skipping unlabeled and errored posts.
func CountLabels(posts []*models.Post) SentimentStats {
	var s SentimentStats
	for _, p := range posts {
		switch p.SentimentLabel {
		case constants.SentimentPositive:
			s.Positive++
		case constants.SentimentNeutral:
			s.Neutral++
		case constants.SentimentNegative:
			s.Negative++
		default:
			continue
		}
		s.Total++
	}
	return s
}

func sentimentEmoji(label string) string {
	switch label {
	case constants.SentimentPositive:
		return "🟢"
	case constants.SentimentNegative:
		return "🔴"
	case constants.SentimentNeutral:
		return "🟡"
	default:
		return "⚪"
	}
}

// FormatSummary renders a project aggregate as a Telegram HTML message.
func FormatSummary(summary *models.SentimentSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>📊 $%s Sentiment</b>\n\n", strings.ToUpper(summary.ProjectTag))
	fmt.Fprintf(&b, "Signal: <b>%s</b>\n", summary.Label)
	fmt.Fprintf(&b, "Confidence: <b>%.0f%%</b>\n", summary.Score*100)
	fmt.Fprintf(&b, "Based on <b>%d</b> labeled posts\n", summary.SampleCount)

	if len(summary.RecentPosts) > 0 {
		b.WriteString("\n<b>Recent posts:</b>\n")
		for _, text := range summary.RecentPosts {
			fmt.Fprintf(&b, "• %s\n", html.EscapeString(truncate(text, 120)))
		}
	}
	return b.String()
}

// FormatStats renders the label breakdown over recent posts.
func FormatStats(project string, stats SentimentStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>📈 $%s Mood</b>\n\n", strings.ToUpper(project))

	if stats.Total == 0 {
		b.WriteString("No labeled posts yet. Try again after the next analysis run.")
		return b.String()
	}

	fmt.Fprintf(&b, "Mood: <b>%s</b>\n\n", Mood(stats.PositivePct()))
	fmt.Fprintf(&b, "🟢 Positive: %d\n", stats.Positive)
	fmt.Fprintf(&b, "🟡 Neutral: %d\n", stats.Neutral)
	fmt.Fprintf(&b, "🔴 Negative: %d\n", stats.Negative)
	fmt.Fprintf(&b, "\n%d posts analyzed", stats.Total)
	return b.String()
}

// FormatPosts renders the latest posts for a project.
func FormatPosts(project string, posts []*models.Post) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>🐦 Latest $%s posts</b>\n\n", strings.ToUpper(project))

	if len(posts) == 0 {
		b.WriteString("No posts collected yet.")
		return b.String()
	}

	for _, p := range posts {
		fmt.Fprintf(&b, "%s <b>@%s</b>: %s\n\n",
			sentimentEmoji(p.SentimentLabel),
			html.EscapeString(p.Author),
			html.EscapeString(truncate(p.Text, 150)),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatTrending renders the trending leaderboard.
func FormatTrending(entries []*models.TrendEntry) string {
	var b strings.Builder
	b.WriteString("<b>🔥 Trending Projects</b>\n\n")

	if len(entries) == 0 {
		b.WriteString("Nothing is trending right now.")
		return b.String()
	}

	medals := []string{"🥇", "🥈", "🥉"}
	for i, e := range entries {
		marker := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			marker = medals[i]
		}
		fmt.Fprintf(&b, "%s <b>$%s</b> — %d mentions (momentum %.2f)\n",
			marker, strings.ToUpper(e.ProjectTag), e.Mentions, e.Score)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatProjects renders the tracked-project list.
func FormatProjects(list []*projects.Project) string {
	var b strings.Builder
	b.WriteString("<b>👀 Tracked Projects</b>\n\n")

	if len(list) == 0 {
		b.WriteString("No projects are being tracked. Use /track &lt;name&gt; to add one.")
		return b.String()
	}

	for _, p := range list {
		state := "✅"
		if !p.Enabled {
			state = "⏸"
		}
		fmt.Fprintf(&b, "%s <b>%s</b>\n", state, html.EscapeString(p.Name))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatPNL renders recent PNL cards for a project.
func FormatPNL(project string, cards []*models.PNLCard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>💰 $%s PNL Cards</b>\n\n", strings.ToUpper(project))

	if len(cards) == 0 {
		b.WriteString("No PNL screenshots parsed yet.")
		return b.String()
	}

	for _, card := range cards {
		arrow := "🟢"
		if card.PNLPercent < 0 {
			arrow = "🔴"
		}
		symbol := card.TokenSymbol
		if symbol == "" {
			symbol = project
		}
		fmt.Fprintf(&b, "%s <b>$%s</b> %+.1f%%", arrow, strings.ToUpper(symbol), card.PNLPercent)
		if card.EntryPrice > 0 && card.ExitPrice > 0 {
			fmt.Fprintf(&b, " (entry $%g → exit $%g)", card.EntryPrice, card.ExitPrice)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
