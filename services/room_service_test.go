package services

import (
	"testing"
	"time"

	"pokerroom/game"
	"pokerroom/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAggregate_RebuildsRoomFromRows(t *testing.T) {
	joined := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	row := &models.Room{
		ID:     "room-1",
		Code:   "100001",
		HostID: "alice",
		Status: "playing",
		Players: []models.Player{
			{RoomID: "room-1", UserID: "alice", Nickname: "Alice", IsHost: true, TotalScore: -30, JoinedAt: joined},
			{RoomID: "room-1", UserID: "bob", Nickname: "Bob", TotalScore: 30, JoinedAt: joined.Add(time.Minute)},
		},
		Rounds: []models.Round{
			{
				RoomID:   "room-1",
				Number:   1,
				WinnerID: "bob",
				Complete: true,
				Scores: []models.RoundScore{
					{RoomID: "room-1", UserID: "alice", Score: -30},
					{RoomID: "room-1", UserID: "bob", Score: 30},
				},
			},
			{RoomID: "room-1", Number: 2},
		},
	}

	room := toAggregate(row)

	assert.Equal(t, "room-1", room.ID)
	assert.Equal(t, game.StatusPlaying, room.Status)
	require.Len(t, room.Members, 2)
	assert.True(t, room.Members[0].IsHost)
	assert.Equal(t, -30, room.Members[0].TotalScore)

	require.Len(t, room.Rounds, 2)
	assert.Equal(t, map[string]int{"alice": -30, "bob": 30}, room.Rounds[0].Scores)
	assert.True(t, room.Rounds[0].Complete)
	assert.False(t, room.Rounds[1].Complete)
	assert.NotNil(t, room.Rounds[1].Scores, "open round carries an empty, usable score map")

	// The rebuilt aggregate is live: the open round accepts submissions.
	result, err := room.SubmitRound("alice", false, 10)
	require.NoError(t, err)
	assert.False(t, result.Opened, "round 2 already existed")
	assert.Equal(t, 2, result.Round.Number)
}

func TestLastRoundHelpers(t *testing.T) {
	room := game.NewRoom("room-1", "100001", game.Player{UserID: "alice"}, time.Now())

	assert.Nil(t, lastRoundOf(room))
	assert.Nil(t, openRoundOf(room))

	room.Rounds = append(room.Rounds, game.Round{Number: 1, Complete: true, Scores: map[string]int{}})
	assert.NotNil(t, lastRoundOf(room))
	assert.Nil(t, openRoundOf(room), "a complete round is not open")

	room.Rounds = append(room.Rounds, game.Round{Number: 2, Scores: map[string]int{}})
	require.NotNil(t, openRoundOf(room))
	assert.Equal(t, 2, openRoundOf(room).Number)
}
