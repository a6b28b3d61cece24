package game

import "sort"

// SettlementEntry is one member's final position.
type SettlementEntry struct {
	Rank       int    `json:"rank"`
	UserID     string `json:"user_id"`
	Nickname   string `json:"nickname"`
	Avatar     string `json:"avatar"`
	TotalScore int    `json:"total_score"`
}

// Settlement is the frozen final ranking of a finished room. Only completed
// rounds appear in the breakdown; a trailing open round was never folded and
// is excluded here.
type Settlement struct {
	RoomID       string            `json:"room_id"`
	Code         string            `json:"room_code"`
	RoundsPlayed int               `json:"rounds_played"`
	Rankings     []SettlementEntry `json:"rankings"`
	Rounds       []Round           `json:"rounds"`
}

// Settle derives the settlement view. Pure and repeatable: the same room state
// always yields the same settlement. Members are ranked by total score
// descending with ties broken by join order.
func (r *Room) Settle() (*Settlement, error) {
	if r.Status != StatusFinished {
		return nil, ErrInvalidState
	}

	ranked := make([]Player, len(r.Members))
	copy(ranked, r.Members)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalScore > ranked[j].TotalScore
	})

	s := &Settlement{
		RoomID:   r.ID,
		Code:     r.Code,
		Rankings: make([]SettlementEntry, len(ranked)),
		Rounds:   []Round{},
	}
	for i, p := range ranked {
		s.Rankings[i] = SettlementEntry{
			Rank:       i + 1,
			UserID:     p.UserID,
			Nickname:   p.Nickname,
			Avatar:     p.Avatar,
			TotalScore: p.TotalScore,
		}
	}
	for i := range r.Rounds {
		if r.Rounds[i].Complete {
			s.Rounds = append(s.Rounds, copyRound(&r.Rounds[i]))
		}
	}
	s.RoundsPlayed = len(s.Rounds)
	return s, nil
}
