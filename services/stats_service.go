package services

import (
	"fmt"
	"time"

	"pokerroom/models"

	"gorm.io/gorm"
)

// StatsService answers read-only questions about a user's play history.
// One completed round counts as one game.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

type UserStats struct {
	WinRate     int `json:"win_rate"` // percentage, 0-100
	TotalProfit int `json:"total_profit"`
	GamesPlayed int `json:"games_played"`
	Wins        int `json:"wins"`
}

type RecentGame struct {
	ID          string    `json:"id"`
	RoomCode    string    `json:"room_code"`
	RoundNumber int       `json:"round_number"`
	Profit      int       `json:"profit"`
	PlayerCount int       `json:"player_count"`
	Winner      string    `json:"winner"`
	IsWinner    bool      `json:"is_winner"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *StatsService) GetUserStats(userID string) (*UserStats, error) {
	var row struct {
		Games  int64
		Wins   int64
		Profit int64
	}
	err := s.db.Model(&models.RoundScore{}).
		Select("COUNT(*) AS games, "+
			"COALESCE(SUM(CASE WHEN rounds.winner_id = round_scores.user_id THEN 1 ELSE 0 END), 0) AS wins, "+
			"COALESCE(SUM(round_scores.score), 0) AS profit").
		Joins("JOIN rounds ON rounds.id = round_scores.round_id AND rounds.deleted_at IS NULL").
		Where("round_scores.user_id = ? AND rounds.complete = ?", userID, true).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	stats := &UserStats{
		TotalProfit: int(row.Profit),
		GamesPlayed: int(row.Games),
		Wins:        int(row.Wins),
	}
	if row.Games > 0 {
		stats.WinRate = int((row.Wins*100 + row.Games/2) / row.Games)
	}
	return stats, nil
}

// GetRecentGames lists the user's most recent completed rounds, newest first.
func (s *StatsService) GetRecentGames(userID string, limit int) ([]RecentGame, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var entries []models.RoundScore
	err := s.db.
		Joins("Round").
		Where("round_scores.user_id = ? AND \"Round\".\"complete\" = ?", userID, true).
		Order("round_scores.created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	games := make([]RecentGame, 0, len(entries))
	if len(entries) == 0 {
		return games, nil
	}

	roomIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		roomIDs = append(roomIDs, e.RoomID)
	}

	var rooms []models.Room
	if err := s.db.Where("id IN ?", roomIDs).Find(&rooms).Error; err != nil {
		return nil, err
	}
	codes := make(map[string]string, len(rooms))
	for _, r := range rooms {
		codes[r.ID] = r.Code
	}

	var players []models.Player
	if err := s.db.Where("room_id IN ?", roomIDs).Find(&players).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	names := make(map[string]string) // roomID+userID -> nickname
	for _, p := range players {
		counts[p.RoomID]++
		names[p.RoomID+"/"+p.UserID] = p.Nickname
	}

	for _, e := range entries {
		games = append(games, RecentGame{
			ID:          fmt.Sprintf("%s#%d", e.RoomID, e.Round.Number),
			RoomCode:    codes[e.RoomID],
			RoundNumber: e.Round.Number,
			Profit:      e.Score,
			PlayerCount: counts[e.RoomID],
			Winner:      names[e.RoomID+"/"+e.Round.WinnerID],
			IsWinner:    e.Round.WinnerID == e.UserID,
			CreatedAt:   e.CreatedAt,
		})
	}
	return games, nil
}
