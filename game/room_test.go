package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

func player(id string) Player {
	return Player{UserID: id, Nickname: "player " + id}
}

func testRoom(t *testing.T, memberIDs ...string) *Room {
	t.Helper()
	require.NotEmpty(t, memberIDs)
	room := NewRoom("room-1", "100001", player(memberIDs[0]), testTime)
	for i, id := range memberIDs[1:] {
		require.NoError(t, room.Join(player(id), testTime.Add(time.Duration(i+1)*time.Minute)))
	}
	return room
}

func playingRoom(t *testing.T, memberIDs ...string) *Room {
	t.Helper()
	room := testRoom(t, memberIDs...)
	require.NoError(t, room.Start(memberIDs[0]))
	return room
}

func totalOf(t *testing.T, room *Room, userID string) int {
	t.Helper()
	member, ok := room.Member(userID)
	require.True(t, ok, "member %s not found", userID)
	return member.TotalScore
}

func TestNewRoom_HostIsOnlyMember(t *testing.T) {
	room := NewRoom("room-1", "100001", player("alice"), testTime)

	assert.Equal(t, StatusWaiting, room.Status)
	assert.Equal(t, "alice", room.HostID)
	require.Len(t, room.Members, 1)
	assert.True(t, room.Members[0].IsHost)
	assert.Zero(t, room.Members[0].TotalScore)
	assert.Empty(t, room.Rounds)
}

func TestJoin_AddsMemberWithZeroTotal(t *testing.T) {
	room := testRoom(t, "alice")

	err := room.Join(Player{UserID: "bob", TotalScore: 999, IsHost: true}, testTime)

	require.NoError(t, err)
	require.Len(t, room.Members, 2)
	assert.Zero(t, room.Members[1].TotalScore, "joiner total must reset to zero")
	assert.False(t, room.Members[1].IsHost, "joiner never arrives as host")
}

func TestJoin_DuplicateMemberRejected(t *testing.T) {
	room := testRoom(t, "alice", "bob")

	err := room.Join(player("bob"), testTime)

	assert.ErrorIs(t, err, ErrAlreadyMember)
	assert.Len(t, room.Members, 2)
}

func TestJoin_AllowedWhilePlaying(t *testing.T) {
	room := playingRoom(t, "alice", "bob")

	err := room.Join(player("carol"), testTime)

	require.NoError(t, err)
	assert.Len(t, room.Members, 3)
}

func TestJoin_FinishedRoomRejected(t *testing.T) {
	room := playingRoom(t, "alice", "bob")
	_, err := room.Finish("alice")
	require.NoError(t, err)

	err = room.Join(player("carol"), testTime)

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStart_RequiresHost(t *testing.T) {
	room := testRoom(t, "alice", "bob")

	err := room.Start("bob")

	assert.ErrorIs(t, err, ErrNotHost)
	assert.Equal(t, StatusWaiting, room.Status)
}

func TestStart_RequiresTwoMembers(t *testing.T) {
	room := testRoom(t, "alice")

	err := room.Start("alice")

	assert.ErrorIs(t, err, ErrInsufficientPlayers)
}

func TestStart_UnknownCaller(t *testing.T) {
	room := testRoom(t, "alice", "bob")

	err := room.Start("mallory")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStart_OnlyFromWaiting(t *testing.T) {
	room := playingRoom(t, "alice", "bob")

	err := room.Start("alice")

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSubmitRound_TwoPlayers(t *testing.T) {
	room := playingRoom(t, "alice", "bob")

	// Alice reports a 50 point loss; round stays open waiting on Bob.
	result, err := room.SubmitRound("alice", false, 50)
	require.NoError(t, err)
	assert.True(t, result.Opened)
	assert.False(t, result.Completed)
	assert.Zero(t, totalOf(t, room, "alice"), "partial round must not touch totals")

	// Bob claims the win; the round closes and his score balances Alice's.
	result, err = room.SubmitRound("bob", true, 0)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, map[string]int{"alice": -50, "bob": 50}, result.Round.Scores)
	assert.Equal(t, "bob", result.Round.WinnerID)
	assert.Equal(t, -50, totalOf(t, room, "alice"))
	assert.Equal(t, 50, totalOf(t, room, "bob"))
}

func TestSubmitRound_ThreePlayers(t *testing.T) {
	room := playingRoom(t, "alice", "bob", "carol")

	_, err := room.SubmitRound("alice", false, 30)
	require.NoError(t, err)
	_, err = room.SubmitRound("bob", false, 20)
	require.NoError(t, err)
	result, err := room.SubmitRound("carol", true, 0)
	require.NoError(t, err)

	require.True(t, result.Completed)
	assert.Equal(t, map[string]int{"alice": -30, "bob": -20, "carol": 50}, result.Round.Scores)
	assert.Zero(t, result.Round.Sum(), "completed round must be zero-sum")
	assert.Equal(t, 50, totalOf(t, room, "carol"))
}

func TestSubmitRound_WinnerFirstThenLosers(t *testing.T) {
	room := playingRoom(t, "alice", "bob", "carol")

	_, err := room.SubmitRound("carol", true, 0)
	require.NoError(t, err)
	_, err = room.SubmitRound("alice", false, 10)
	require.NoError(t, err)
	result, err := room.SubmitRound("bob", false, 15)
	require.NoError(t, err)

	require.True(t, result.Completed)
	assert.Equal(t, 25, result.Round.Scores["carol"])
}

func TestSubmitRound_LoserScoreMustBePositive(t *testing.T) {
	room := playingRoom(t, "alice", "bob")

	for _, score := range []int{0, -10} {
		_, err := room.SubmitRound("alice", false, score)
		assert.ErrorIs(t, err, ErrInvalidScore)
	}
	assert.Empty(t, room.Rounds, "rejected submission must not leave a round behind")
}

func TestSubmitRound_WinnerConflict(t *testing.T) {
	room := playingRoom(t, "alice", "bob", "carol")

	_, err := room.SubmitRound("alice", true, 0)
	require.NoError(t, err)

	_, err = room.SubmitRound("bob", true, 0)
	assert.ErrorIs(t, err, ErrWinnerConflict)

	// The same member may restate their own claim.
	_, err = room.SubmitRound("alice", true, 0)
	assert.NoError(t, err)
}

func TestSubmitRound_ResubmitOverwrites(t *testing.T) {
	room := playingRoom(t, "alice", "bob", "carol")

	_, err := room.SubmitRound("alice", false, 50)
	require.NoError(t, err)
	_, err = room.SubmitRound("alice", false, 30)
	require.NoError(t, err)

	_, err = room.SubmitRound("bob", false, 20)
	require.NoError(t, err)
	result, err := room.SubmitRound("carol", true, 0)
	require.NoError(t, err)

	require.True(t, result.Completed)
	assert.Equal(t, -30, result.Round.Scores["alice"], "retry must overwrite, not accumulate")
	assert.Equal(t, 50, result.Round.Scores["carol"])
}

func TestSubmitRound_OpensNewRoundAfterCompletion(t *testing.T) {
	room := playingRoom(t, "alice", "bob")
	_, err := room.SubmitRound("alice", false, 10)
	require.NoError(t, err)
	_, err = room.SubmitRound("bob", true, 0)
	require.NoError(t, err)

	result, err := room.SubmitRound("alice", false, 5)

	require.NoError(t, err)
	assert.True(t, result.Opened)
	assert.Equal(t, 2, result.Round.Number)
	require.Len(t, room.Rounds, 2)
}

func TestSubmitRound_NoWinnerClaimKeepsRoundOpen(t *testing.T) {
	room := playingRoom(t, "alice", "bob")

	_, err := room.SubmitRound("alice", false, 10)
	require.NoError(t, err)
	result, err := room.SubmitRound("bob", false, 20)
	require.NoError(t, err)

	assert.False(t, result.Completed, "no winner identified, nothing to balance against")
	assert.Zero(t, totalOf(t, room, "alice"))
}

func TestSubmitRound_RequiresPlayingStatus(t *testing.T) {
	room := testRoom(t, "alice", "bob")

	_, err := room.SubmitRound("alice", false, 10)

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSubmitRound_RequiresMembership(t *testing.T) {
	room := playingRoom(t, "alice", "bob")

	_, err := room.SubmitRound("mallory", false, 10)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUndoLastRound_RestoresPriorState(t *testing.T) {
	room := playingRoom(t, "alice", "bob", "carol")
	_, err := room.SubmitRound("alice", false, 30)
	require.NoError(t, err)
	_, err = room.SubmitRound("bob", false, 20)
	require.NoError(t, err)
	_, err = room.SubmitRound("carol", true, 0)
	require.NoError(t, err)

	result, err := room.UndoLastRound("alice")

	require.NoError(t, err)
	assert.True(t, result.Reversed)
	assert.Empty(t, room.Rounds)
	for _, id := range []string{"alice", "bob", "carol"} {
		assert.Zero(t, totalOf(t, room, id))
	}
}

func TestUndoLastRound_DiscardsOpenRoundWithoutTouchingTotals(t *testing.T) {
	room := playingRoom(t, "alice", "bob")
	_, err := room.SubmitRound("alice", false, 10)
	require.NoError(t, err)
	_, err = room.SubmitRound("bob", true, 0)
	require.NoError(t, err)
	_, err = room.SubmitRound("alice", false, 99) // opens round 2
	require.NoError(t, err)

	result, err := room.UndoLastRound("alice")

	require.NoError(t, err)
	assert.False(t, result.Reversed)
	require.Len(t, room.Rounds, 1)
	assert.Equal(t, -10, totalOf(t, room, "alice"), "round 1 fold must survive discarding round 2")

	// A second undo reverses the completed round.
	result, err = room.UndoLastRound("alice")
	require.NoError(t, err)
	assert.True(t, result.Reversed)
	assert.Zero(t, totalOf(t, room, "alice"))
}

func TestUndoLastRound_RequiresHost(t *testing.T) {
	room := playingRoom(t, "alice", "bob")
	_, err := room.SubmitRound("alice", false, 10)
	require.NoError(t, err)
	_, err = room.SubmitRound("bob", true, 0)
	require.NoError(t, err)

	_, err = room.UndoLastRound("bob")

	assert.ErrorIs(t, err, ErrNotHost)
}

func TestUndoLastRound_EmptyHistory(t *testing.T) {
	room := playingRoom(t, "alice", "bob")

	_, err := room.UndoLastRound("alice")

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestFinish_IsIdempotent(t *testing.T) {
	room := playingRoom(t, "alice", "bob")

	changed, err := room.Finish("alice")
	require.NoError(t, err)
	assert.True(t, changed)

	before := *room
	changed, err = room.Finish("alice")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, before.Status, room.Status)
	assert.Equal(t, before.Members, room.Members)
}

func TestFinish_PreservesButNeverFoldsPartialRound(t *testing.T) {
	room := playingRoom(t, "alice", "bob")
	_, err := room.SubmitRound("alice", false, 40)
	require.NoError(t, err)

	_, err = room.Finish("alice")

	require.NoError(t, err)
	require.Len(t, room.Rounds, 1)
	assert.False(t, room.Rounds[0].Complete)
	assert.Zero(t, totalOf(t, room, "alice"), "partial round is discarded from totals on finish")
}

func TestFinish_RequiresHost(t *testing.T) {
	room := playingRoom(t, "alice", "bob")

	_, err := room.Finish("bob")

	assert.ErrorIs(t, err, ErrNotHost)
}

func TestFinish_NotFromWaiting(t *testing.T) {
	room := testRoom(t, "alice", "bob")

	_, err := room.Finish("alice")

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLeave_RemovesMember(t *testing.T) {
	room := playingRoom(t, "alice", "bob", "carol")

	result, err := room.Leave("bob")

	require.NoError(t, err)
	assert.False(t, result.WasHost)
	assert.Len(t, room.Members, 2)
	_, ok := room.Member("bob")
	assert.False(t, ok)
}

func TestLeave_HostRoleNotReassigned(t *testing.T) {
	room := playingRoom(t, "alice", "bob", "carol")

	result, err := room.Leave("alice")

	require.NoError(t, err)
	assert.True(t, result.WasHost)
	// Host-only operations now fail for everyone left in the room.
	_, err = room.Finish("bob")
	assert.ErrorIs(t, err, ErrNotHost)
}

func TestLeave_CompletesOpenRoundForRemainingMembers(t *testing.T) {
	room := playingRoom(t, "alice", "bob", "carol")
	_, err := room.SubmitRound("alice", false, 30)
	require.NoError(t, err)
	_, err = room.SubmitRound("carol", true, 0)
	require.NoError(t, err)

	// Bob was the only missing entry; his departure closes the round.
	result, err := room.Leave("bob")

	require.NoError(t, err)
	assert.True(t, result.RoundCompleted)
	require.Len(t, room.Rounds, 1)
	assert.True(t, room.Rounds[0].Complete)
	assert.Equal(t, 30, totalOf(t, room, "carol"))
	assert.Zero(t, room.Rounds[0].Sum())
}

func TestLeave_WinnerLeavingClearsClaim(t *testing.T) {
	room := playingRoom(t, "alice", "bob", "carol")
	_, err := room.SubmitRound("carol", true, 0)
	require.NoError(t, err)

	_, err = room.Leave("carol")

	require.NoError(t, err)
	require.Len(t, room.Rounds, 1)
	assert.Empty(t, room.Rounds[0].WinnerID)
	assert.False(t, room.Rounds[0].Complete)
}

func TestLeave_FinishedRoomRejected(t *testing.T) {
	room := playingRoom(t, "alice", "bob")
	_, err := room.Finish("alice")
	require.NoError(t, err)

	_, err = room.Leave("bob")

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLeave_UnknownMember(t *testing.T) {
	room := playingRoom(t, "alice", "bob")

	_, err := room.Leave("mallory")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTotals_ConservedAcrossRounds(t *testing.T) {
	room := playingRoom(t, "alice", "bob", "carol")

	rounds := []struct {
		loserScores map[string]int
		winner      string
	}{
		{map[string]int{"alice": 30, "bob": 20}, "carol"},
		{map[string]int{"bob": 5, "carol": 45}, "alice"},
		{map[string]int{"alice": 100, "carol": 1}, "bob"},
	}
	for _, rd := range rounds {
		for loser, score := range rd.loserScores {
			_, err := room.SubmitRound(loser, false, score)
			require.NoError(t, err)
		}
		result, err := room.SubmitRound(rd.winner, true, 0)
		require.NoError(t, err)
		require.True(t, result.Completed)
		assert.Zero(t, result.Round.Sum())
	}

	sum := 0
	for _, m := range room.Members {
		sum += m.TotalScore
	}
	assert.Zero(t, sum, "totals across members must always cancel out")
	assert.Equal(t, 3, room.CompletedRounds())
}
