package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"pokerroom/game"
	"pokerroom/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// RoomCodeLength is the fixed width of numeric join codes.
const RoomCodeLength = 6

// RoomService is the registry and entry point for every room operation.
// Postgres rows are authoritative; Redis holds a JSON snapshot of each live
// room for cheap polling reads. Every mutating operation takes the room's
// lock, reloads state from the database, applies the pure game operation and
// persists the outcome as one atomic step.
type RoomService struct {
	db          *gorm.DB
	redis       *redis.Client
	snapshotTTL time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per room id
}

func NewRoomService(db *gorm.DB, redisClient *redis.Client, snapshotTTL time.Duration) *RoomService {
	return &RoomService{
		db:          db,
		redis:       redisClient,
		snapshotTTL: snapshotTTL,
		locks:       make(map[string]*sync.Mutex),
	}
}

type SubmitRoundRequest struct {
	IsWinner bool `json:"is_winner"`
	Score    int  `json:"score"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"room_code" binding:"required"`
}

// CreateRoom opens a new room in waiting status with the given user as host.
func (s *RoomService) CreateRoom(host *models.User) (*game.Room, error) {
	code, err := s.generateRoomCode()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	room := models.Room{
		Code:   code,
		HostID: host.ID,
		Status: string(game.StatusWaiting),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		hostPlayer := models.Player{
			RoomID:   room.ID,
			UserID:   host.ID,
			Nickname: host.Nickname,
			Avatar:   host.Avatar,
			IsHost:   true,
			JoinedAt: now,
		}
		return tx.Create(&hostPlayer).Error
	})
	if err != nil {
		return nil, err
	}

	snapshot := game.NewRoom(room.ID, room.Code, game.Player{
		UserID:   host.ID,
		Nickname: host.Nickname,
		Avatar:   host.Avatar,
	}, now)
	snapshot.CreatedAt = room.CreatedAt
	s.storeSnapshot(snapshot)
	return snapshot, nil
}

// JoinRoom adds the user to the room with the given code. If the user is
// already a member the current room state is returned with alreadyMember set,
// so callers can treat a repeated join as a redirect instead of a failure.
func (s *RoomService) JoinRoom(user *models.User, code string) (snapshot *game.Room, alreadyMember bool, err error) {
	roomID, err := s.resolveCode(code)
	if err != nil {
		return nil, false, err
	}

	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	joinErr := room.Join(game.Player{
		UserID:   user.ID,
		Nickname: user.Nickname,
		Avatar:   user.Avatar,
	}, now)
	if errors.Is(joinErr, game.ErrAlreadyMember) {
		return room, true, nil
	}
	if joinErr != nil {
		return nil, false, joinErr
	}

	player := models.Player{
		RoomID:   roomID,
		UserID:   user.ID,
		Nickname: user.Nickname,
		Avatar:   user.Avatar,
		JoinedAt: now,
	}
	if err := s.db.Create(&player).Error; err != nil {
		return nil, false, err
	}

	s.storeSnapshot(room)
	return room, false, nil
}

// StartRoom moves a waiting room into play. Host only, two members minimum.
func (s *RoomService) StartRoom(roomID, callerID string) (*game.Room, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return nil, err
	}
	if err := room.Start(callerID); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.Model(&models.Room{}).Where("id = ?", roomID).
		Updates(map[string]interface{}{"status": string(game.StatusPlaying), "started_at": now}).Error; err != nil {
		return nil, err
	}

	s.storeSnapshot(room)
	return room, nil
}

// SubmitRound records the caller's result for the open round. Returns
// immediately with the (possibly still partial) room state; when the
// submission completes the round, totals are folded and persisted.
func (s *RoomService) SubmitRound(roomID, callerID string, req *SubmitRoundRequest) (*game.Room, *game.SubmitResult, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return nil, nil, err
	}
	result, err := room.SubmitRound(callerID, req.IsWinner, req.Score)
	if err != nil {
		return nil, nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.saveRound(tx, roomID, &result.Round); err != nil {
			return err
		}
		if result.Completed {
			return s.savePlayerTotals(tx, room)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.storeSnapshot(room)
	return room, result, nil
}

// UndoLastRound removes the latest round and, if it had been folded, reverses
// its scores out of every member's total. Host only.
func (s *RoomService) UndoLastRound(roomID, callerID string) (*game.Room, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return nil, err
	}
	result, err := room.UndoLastRound(callerID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.deleteRound(tx, roomID, result.Round.Number); err != nil {
			return err
		}
		if result.Reversed {
			return s.savePlayerTotals(tx, room)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.storeSnapshot(room)
	return room, nil
}

// FinishRoom closes the room and freezes totals. Finishing a room that is
// already finished is a no-op and returns the same snapshot.
func (s *RoomService) FinishRoom(roomID, callerID string) (*game.Room, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return nil, err
	}
	changed, err := room.Finish(callerID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return room, nil
	}

	now := time.Now()
	if err := s.db.Model(&models.Room{}).Where("id = ?", roomID).
		Updates(map[string]interface{}{"status": string(game.StatusFinished), "finished_at": now}).Error; err != nil {
		return nil, err
	}

	s.storeSnapshot(room)
	return room, nil
}

// LeaveRoom removes a member from a room that has not finished. The host role
// is never reassigned. Dropping the leaver's partial entry can complete the
// open round for the remaining members.
func (s *RoomService) LeaveRoom(roomID, userID string) error {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return err
	}
	result, err := room.Leave(userID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ? AND user_id = ?", roomID, userID).
			Delete(&models.Player{}).Error; err != nil {
			return err
		}
		// The leaver's partial entry, if any, comes off the latest round.
		if rd := lastRoundOf(room); rd != nil && (openRoundOf(room) != nil || result.RoundCompleted) {
			if err := s.deleteRoundEntry(tx, roomID, rd.Number, userID); err != nil {
				return err
			}
			if err := s.saveRound(tx, roomID, rd); err != nil {
				return err
			}
		}
		if result.RoundCompleted {
			return s.savePlayerTotals(tx, room)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if result.WasHost {
		log.Printf("Host %s left room %s; host role is not reassigned", userID, roomID)
	}
	s.storeSnapshot(room)
	return nil
}

// GetRoom returns the current snapshot by room id, trying the Redis cache
// before rebuilding from the database.
func (s *RoomService) GetRoom(roomID string) (*game.Room, error) {
	if snapshot := s.getSnapshot(roomID); snapshot != nil {
		return snapshot, nil
	}

	room, err := s.loadRoom(roomID)
	if err != nil {
		return nil, err
	}
	s.storeSnapshot(room)
	return room, nil
}

// GetRoomByCode resolves a join code to its active room, falling back to the
// most recent finished room with that code.
func (s *RoomService) GetRoomByCode(code string) (*game.Room, error) {
	roomID, err := s.resolveCode(code)
	if err != nil {
		return nil, err
	}
	return s.GetRoom(roomID)
}

// Settlement derives the final ranking of a finished room.
func (s *RoomService) Settlement(roomID string) (*game.Settlement, error) {
	room, err := s.GetRoom(roomID)
	if err != nil {
		return nil, err
	}
	return room.Settle()
}

// RoundHistory returns the room's rounds in play order.
func (s *RoomService) RoundHistory(roomID string) ([]game.Round, error) {
	room, err := s.GetRoom(roomID)
	if err != nil {
		return nil, err
	}
	return room.Rounds, nil
}

// IsMember reports whether the user belongs to the room. Used by the
// websocket route to gate connections.
func (s *RoomService) IsMember(roomID, userID string) bool {
	room, err := s.GetRoom(roomID)
	if err != nil {
		return false
	}
	_, ok := room.Member(userID)
	return ok
}

// generateRoomCode draws fixed-length numeric codes until one is free among
// rooms that have not finished. Finished rooms may keep a reused code.
func (s *RoomService) generateRoomCode() (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		n, err := rand.Int(rand.Reader, big.NewInt(900000))
		if err != nil {
			return "", err
		}
		code := fmt.Sprintf("%06d", n.Int64()+100000)

		var count int64
		if err := s.db.Model(&models.Room{}).
			Where("code = ? AND status <> ?", code, string(game.StatusFinished)).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("failed to generate a unique room code")
}

// resolveCode maps a join code to a room id, preferring the active room.
func (s *RoomService) resolveCode(code string) (string, error) {
	var room models.Room
	err := s.db.Select("id").
		Where("code = ? AND status <> ?", code, string(game.StatusFinished)).
		Order("created_at DESC").
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.Select("id").Where("code = ?", code).
			Order("created_at DESC").
			First(&room).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("room code %s: %w", code, game.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return room.ID, nil
}

func (s *RoomService) roomLock(roomID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[roomID] = lock
	}
	return lock
}

// loadRoom rebuilds the aggregate from its database rows.
func (s *RoomService) loadRoom(roomID string) (*game.Room, error) {
	var room models.Room
	err := s.db.Where("id = ?", roomID).
		Preload("Players", func(db *gorm.DB) *gorm.DB {
			return db.Order("players.joined_at, players.id")
		}).
		Preload("Rounds", func(db *gorm.DB) *gorm.DB {
			return db.Order("rounds.number")
		}).
		Preload("Rounds.Scores").
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("room %s: %w", roomID, game.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return toAggregate(&room), nil
}

// saveRound upserts the round row and every submitted entry.
func (s *RoomService) saveRound(tx *gorm.DB, roomID string, rd *game.Round) error {
	var row models.Round
	err := tx.Where("room_id = ? AND number = ?", roomID, rd.Number).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.Round{RoomID: roomID, Number: rd.Number}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if err := tx.Model(&models.Round{}).Where("id = ?", row.ID).
		Updates(map[string]interface{}{"winner_id": rd.WinnerID, "complete": rd.Complete}).Error; err != nil {
		return err
	}

	for userID, score := range rd.Scores {
		var entry models.RoundScore
		err := tx.Where("round_id = ? AND user_id = ?", row.ID, userID).First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			entry = models.RoundScore{RoundID: row.ID, RoomID: roomID, UserID: userID, Score: score}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		if entry.Score != score {
			if err := tx.Model(&models.RoundScore{}).Where("id = ?", entry.ID).
				Update("score", score).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *RoomService) deleteRoundEntry(tx *gorm.DB, roomID string, number int, userID string) error {
	var row models.Round
	err := tx.Where("room_id = ? AND number = ?", roomID, number).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return tx.Where("round_id = ? AND user_id = ?", row.ID, userID).
		Delete(&models.RoundScore{}).Error
}

func (s *RoomService) deleteRound(tx *gorm.DB, roomID string, number int) error {
	var row models.Round
	err := tx.Where("room_id = ? AND number = ?", roomID, number).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := tx.Where("round_id = ?", row.ID).Delete(&models.RoundScore{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Round{}, row.ID).Error
}

func (s *RoomService) savePlayerTotals(tx *gorm.DB, room *game.Room) error {
	for _, member := range room.Members {
		if err := tx.Model(&models.Player{}).
			Where("room_id = ? AND user_id = ?", room.ID, member.UserID).
			Update("total_score", member.TotalScore).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *RoomService) storeSnapshot(room *game.Room) {
	data, err := json.Marshal(room)
	if err != nil {
		log.Printf("Failed to marshal snapshot for room %s: %v", room.ID, err)
		return
	}
	if err := s.redis.Set(context.Background(), "room:"+room.ID, data, s.snapshotTTL).Err(); err != nil {
		log.Printf("Failed to store snapshot for room %s in Redis: %v", room.ID, err)
	}
}

func (s *RoomService) getSnapshot(roomID string) *game.Room {
	data, err := s.redis.Get(context.Background(), "room:"+roomID).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Redis error getting snapshot for room %s: %v", roomID, err)
		}
		return nil
	}
	var room game.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		log.Printf("Failed to unmarshal snapshot for room %s: %v", roomID, err)
		return nil
	}
	return &room
}

func toAggregate(row *models.Room) *game.Room {
	room := &game.Room{
		ID:        row.ID,
		Code:      row.Code,
		HostID:    row.HostID,
		Status:    game.Status(row.Status),
		Members:   make([]game.Player, 0, len(row.Players)),
		Rounds:    make([]game.Round, 0, len(row.Rounds)),
		CreatedAt: row.CreatedAt,
	}
	for _, p := range row.Players {
		room.Members = append(room.Members, game.Player{
			UserID:     p.UserID,
			Nickname:   p.Nickname,
			Avatar:     p.Avatar,
			TotalScore: p.TotalScore,
			IsHost:     p.IsHost,
			JoinedAt:   p.JoinedAt,
		})
	}
	for _, rd := range row.Rounds {
		scores := make(map[string]int, len(rd.Scores))
		for _, entry := range rd.Scores {
			scores[entry.UserID] = entry.Score
		}
		room.Rounds = append(room.Rounds, game.Round{
			Number:   rd.Number,
			Scores:   scores,
			WinnerID: rd.WinnerID,
			Complete: rd.Complete,
		})
	}
	return room
}

func openRoundOf(room *game.Room) *game.Round {
	rd := lastRoundOf(room)
	if rd == nil || rd.Complete {
		return nil
	}
	return rd
}

func lastRoundOf(room *game.Room) *game.Round {
	if len(room.Rounds) == 0 {
		return nil
	}
	return &room.Rounds[len(room.Rounds)-1]
}
