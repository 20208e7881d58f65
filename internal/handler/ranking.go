package handler

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"telegram-roulette-bot/internal/game/roulette"
	"telegram-roulette-bot/internal/game/siege"
	"telegram-roulette-bot/internal/model"
	"telegram-roulette-bot/internal/service"
)

// RankingHandler handles leaderboard commands.
type RankingHandler struct {
	rankingService *service.RankingService
	limit          int
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(rankingService *service.RankingService, limit int) *RankingHandler {
	if limit <= 0 {
		limit = 10
	}
	return &RankingHandler{
		rankingService: rankingService,
		limit:          limit,
	}
}

// HandleRouletteTop handles /rr_top.
func (h *RankingHandler) HandleRouletteTop(c tele.Context) error {
	return h.top(c, roulette.Kind, "🔫 Roulette")
}

// HandleSiegeTop handles /siege_top.
func (h *RankingHandler) HandleSiegeTop(c tele.Context) error {
	return h.top(c, siege.Kind, "⚔️ Siege")
}

func (h *RankingHandler) top(c tele.Context, gameName, title string) error {
	stats, err := h.rankingService.Leaderboard(context.Background(), gameName, h.limit)
	if err != nil {
		return replyError(c, "top", err)
	}
	return c.Reply(formatLeaderboard(title, h.limit, stats))
}

func formatLeaderboard(title string, limit int, stats []*model.GameStat) string {
	if len(stats) == 0 {
		return "📊 No games played yet"
	}

	msg := fmt.Sprintf("%s TOP %d\n", title, limit)
	msg += "━━━━━━━━━━━━━━━\n"

	medals := []string{"🥇", "🥈", "🥉"}
	for i, st := range stats {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}

		name := st.Username
		if name == "" {
			name = fmt.Sprintf("User%d", st.UserID)
		}

		msg += fmt.Sprintf("%s %s: %d wins / %d games (%.0f%%)\n",
			rank, name, st.Wins, st.Played, service.WinRate(st))
	}

	msg += "━━━━━━━━━━━━━━━"
	return msg
}
