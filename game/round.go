package game

// Round is one hand of play. Losers report the magnitude of their own loss
// (stored negative); the winner claims the round and their score is computed
// as the negated sum of all loser entries once everyone has submitted, so a
// complete round always sums to zero.
type Round struct {
	Number   int            `json:"round_number"`
	Scores   map[string]int `json:"scores"`
	WinnerID string         `json:"winner_id"`
	Complete bool           `json:"complete"`
}

func newRound(number int) *Round {
	return &Round{
		Number: number,
		Scores: make(map[string]int),
	}
}

// submit records or overwrites one member's entry for this open round.
// Re-submitting is an update, never a duplicate accumulation.
func (rd *Round) submit(userID string, isWinner bool, score int) error {
	if rd.Complete {
		return ErrInvalidState
	}

	if isWinner {
		if rd.WinnerID != "" && rd.WinnerID != userID {
			return ErrWinnerConflict
		}
		rd.WinnerID = userID
		// Placeholder entry; the real value is computed at completion.
		rd.Scores[userID] = 0
		return nil
	}

	if score <= 0 {
		return ErrInvalidScore
	}
	rd.Scores[userID] = -score
	return nil
}

// reconcile checks whether the round can be closed against the given member
// set and, if so, computes the winner's score and marks the round complete.
// Entries are never summed before this point.
func (rd *Round) reconcile(members []Player) bool {
	if rd.Complete || rd.WinnerID == "" || len(members) < 2 {
		return false
	}

	winnerIsMember := false
	for _, m := range members {
		if m.UserID == rd.WinnerID {
			winnerIsMember = true
			continue
		}
		if _, ok := rd.Scores[m.UserID]; !ok {
			return false
		}
	}
	if !winnerIsMember {
		return false
	}

	total := 0
	for userID, score := range rd.Scores {
		if userID != rd.WinnerID {
			total += score
		}
	}
	rd.Scores[rd.WinnerID] = -total
	rd.Complete = true
	return true
}

// remove drops a member's partial submission, clearing the winner claim if it
// was theirs. Used when a member leaves while the round is still open.
func (rd *Round) remove(userID string) {
	if rd.Complete {
		return
	}
	delete(rd.Scores, userID)
	if rd.WinnerID == userID {
		rd.WinnerID = ""
	}
}

// Sum returns the total of all recorded entries. Zero for a complete round.
func (rd *Round) Sum() int {
	total := 0
	for _, score := range rd.Scores {
		total += score
	}
	return total
}
