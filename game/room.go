package game

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Player is one member of a room. Members keep join order; total scores only
// change when a completed round is folded in or undone.
type Player struct {
	UserID     string    `json:"user_id"`
	Nickname   string    `json:"nickname"`
	Avatar     string    `json:"avatar"`
	TotalScore int       `json:"total_score"`
	IsHost     bool      `json:"is_host"`
	JoinedAt   time.Time `json:"joined_at"`
}

// Room is the aggregate root: membership, status, round history and running
// totals. All mutations go through its methods; callers are responsible for
// serializing concurrent operations on the same room (services.RoomService
// holds a per-room lock).
type Room struct {
	ID        string    `json:"id"`
	Code      string    `json:"room_code"`
	HostID    string    `json:"host_id"`
	Status    Status    `json:"status"`
	Members   []Player  `json:"members"`
	Rounds    []Round   `json:"rounds"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitResult reports what a round submission did.
type SubmitResult struct {
	Round     Round
	Opened    bool // a new round was created for this submission
	Completed bool // the round closed and totals were folded
}

// UndoResult reports what undoing the last round did.
type UndoResult struct {
	Round    Round
	Reversed bool // the round was complete and its fold was reversed
}

// LeaveResult reports side effects of a member leaving.
type LeaveResult struct {
	WasHost        bool
	RoundCompleted bool // the open round closed because the leaver's entry was no longer required
}

func NewRoom(id, code string, host Player, now time.Time) *Room {
	host.IsHost = true
	host.TotalScore = 0
	host.JoinedAt = now
	return &Room{
		ID:        id,
		Code:      code,
		HostID:    host.UserID,
		Status:    StatusWaiting,
		Members:   []Player{host},
		Rounds:    []Round{},
		CreatedAt: now,
	}
}

// Member returns the member with the given user id, if present.
func (r *Room) Member(userID string) (*Player, bool) {
	for i := range r.Members {
		if r.Members[i].UserID == userID {
			return &r.Members[i], true
		}
	}
	return nil, false
}

// Join adds a new member. Joining is allowed while waiting or playing; late
// joiners start at zero and take no part in earlier rounds.
func (r *Room) Join(p Player, now time.Time) error {
	if r.Status == StatusFinished {
		return ErrInvalidState
	}
	if _, ok := r.Member(p.UserID); ok {
		return ErrAlreadyMember
	}
	p.IsHost = false
	p.TotalScore = 0
	p.JoinedAt = now
	r.Members = append(r.Members, p)
	return nil
}

// Start moves the room from waiting to playing. Host only, two members
// minimum.
func (r *Room) Start(callerID string) error {
	if r.Status != StatusWaiting {
		return ErrInvalidState
	}
	caller, ok := r.Member(callerID)
	if !ok {
		return fmt.Errorf("user %s: %w", callerID, ErrNotFound)
	}
	if !caller.IsHost {
		return ErrNotHost
	}
	if len(r.Members) < 2 {
		return ErrInsufficientPlayers
	}
	r.Status = StatusPlaying
	return nil
}

// SubmitRound records the caller's result for the open round, opening a new
// round if the latest one is already complete. When the submission closes the
// round, every member's score is folded into their running total. The call
// never waits for other members; a still-open round is returned as is.
func (r *Room) SubmitRound(callerID string, isWinner bool, score int) (*SubmitResult, error) {
	if r.Status != StatusPlaying {
		return nil, ErrInvalidState
	}
	if _, ok := r.Member(callerID); !ok {
		return nil, fmt.Errorf("user %s: %w", callerID, ErrNotFound)
	}
	if len(r.Members) < 2 {
		return nil, ErrInsufficientPlayers
	}
	if !isWinner && score <= 0 {
		return nil, fmt.Errorf("loser score must be a positive magnitude: %w", ErrInvalidScore)
	}

	result := &SubmitResult{}
	round := r.openRound()
	if round == nil {
		r.Rounds = append(r.Rounds, *newRound(len(r.Rounds)+1))
		round = &r.Rounds[len(r.Rounds)-1]
		result.Opened = true
	}

	if err := round.submit(callerID, isWinner, score); err != nil {
		if result.Opened {
			// A rejected submission leaves the room exactly as it was.
			r.Rounds = r.Rounds[:len(r.Rounds)-1]
		}
		return nil, err
	}

	if round.reconcile(r.Members) {
		r.fold(round)
		result.Completed = true
	}
	result.Round = copyRound(round)
	return result, nil
}

// UndoLastRound removes the latest round. A completed round has its fold
// reversed out of every total; a still-open round is simply discarded, since
// partial entries were never applied. Host only.
func (r *Room) UndoLastRound(callerID string) (*UndoResult, error) {
	if r.Status != StatusPlaying {
		return nil, ErrInvalidState
	}
	caller, ok := r.Member(callerID)
	if !ok {
		return nil, fmt.Errorf("user %s: %w", callerID, ErrNotFound)
	}
	if !caller.IsHost {
		return nil, ErrNotHost
	}
	if len(r.Rounds) == 0 {
		return nil, fmt.Errorf("no round to undo: %w", ErrInvalidState)
	}

	last := &r.Rounds[len(r.Rounds)-1]
	result := &UndoResult{Round: copyRound(last)}
	if last.Complete {
		r.unfold(last)
		result.Reversed = true
	}
	r.Rounds = r.Rounds[:len(r.Rounds)-1]
	return result, nil
}

// Finish moves the room to its terminal state, freezing totals as of the last
// completed round. An open round keeps its record but is never folded.
// Finishing an already finished room is a no-op.
func (r *Room) Finish(callerID string) (bool, error) {
	if r.Status == StatusFinished {
		return false, nil
	}
	if r.Status != StatusPlaying {
		return false, ErrInvalidState
	}
	caller, ok := r.Member(callerID)
	if !ok {
		return false, fmt.Errorf("user %s: %w", callerID, ErrNotFound)
	}
	if !caller.IsHost {
		return false, ErrNotHost
	}
	r.Status = StatusFinished
	return true, nil
}

// Leave removes a member. The host role is intentionally not reassigned when
// the host leaves; host-only operations then fail until the room is abandoned.
// A leaver's partial entry is dropped from the open round, which may allow the
// round to complete for the remaining members.
func (r *Room) Leave(userID string) (*LeaveResult, error) {
	if r.Status == StatusFinished {
		return nil, ErrInvalidState
	}
	member, ok := r.Member(userID)
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	result := &LeaveResult{WasHost: member.IsHost}

	for i := range r.Members {
		if r.Members[i].UserID == userID {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			break
		}
	}

	if round := r.openRound(); round != nil {
		round.remove(userID)
		if round.reconcile(r.Members) {
			r.fold(round)
			result.RoundCompleted = true
		}
	}
	return result, nil
}

// CompletedRounds returns how many rounds have been folded into totals.
func (r *Room) CompletedRounds() int {
	n := 0
	for i := range r.Rounds {
		if r.Rounds[i].Complete {
			n++
		}
	}
	return n
}

// openRound returns the latest round if it is still accepting submissions.
// At most one round is ever open, and it is always the last one.
func (r *Room) openRound() *Round {
	if len(r.Rounds) == 0 {
		return nil
	}
	last := &r.Rounds[len(r.Rounds)-1]
	if last.Complete {
		return nil
	}
	return last
}

func (r *Room) fold(round *Round) {
	for i := range r.Members {
		r.Members[i].TotalScore += round.Scores[r.Members[i].UserID]
	}
}

func (r *Room) unfold(round *Round) {
	for i := range r.Members {
		r.Members[i].TotalScore -= round.Scores[r.Members[i].UserID]
	}
}

func copyRound(rd *Round) Round {
	c := *rd
	c.Scores = make(map[string]int, len(rd.Scores))
	for k, v := range rd.Scores {
		c.Scores[k] = v
	}
	return c
}
