// internal/feed/redis.go
//
// Redis-backed feed publisher and game history.
//
// Each commit is PUBLISHed on a per-game channel for cross-process
// subscribers and RPUSHed onto a capped per-game history list for the
// audit trail. Both are best-effort: a Redis outage degrades the feed,
// never a commit.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/adidanco/scambodia/internal/engine"
)

const (
	// historyMax caps the per-game history list length.
	historyMax = 4096
	// publishTimeout bounds each Redis round trip.
	publishTimeout = 2 * time.Second
)

// ChannelFor returns the pub/sub channel carrying a game's snapshots.
func ChannelFor(gameID uuid.UUID) string {
	return fmt.Sprintf("scambodia:game:%s", gameID)
}

// historyKeyFor returns the list key holding a game's version history.
func historyKeyFor(gameID uuid.UUID) string {
	return fmt.Sprintf("scambodia:history:%s", gameID)
}

// historyRecord is one appended history entry.
type historyRecord struct {
	GameID    uuid.UUID  `json:"gameId"`
	Version   int64      `json:"version"`
	Status    engine.GameStatus `json:"status"`
	Round     int        `json:"round"`
	Timestamp int64      `json:"timestamp"`
}

// RedisPublisher pushes committed snapshots to Redis.
type RedisPublisher struct {
	rdb *redis.Client
	log *logrus.Logger
}

// NewRedisPublisher wraps an existing Redis client.
func NewRedisPublisher(rdb *redis.Client, log *logrus.Logger) *RedisPublisher {
	if log == nil {
		log = logrus.New()
	}
	return &RedisPublisher{rdb: rdb, log: log}
}

// Publish sends the snapshot on the game channel and appends a history
// record. Errors are logged, never propagated to the commit path.
func (p *RedisPublisher) Publish(ctx context.Context, snap engine.Snapshot) {
	payload, err := json.Marshal(snap.State)
	if err != nil {
		p.log.WithError(err).Error("marshal snapshot for redis feed")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	gameID := snap.State.GameID
	if err := p.rdb.Publish(ctx, ChannelFor(gameID), payload).Err(); err != nil {
		p.log.WithFields(logrus.Fields{
			"game_id": gameID, "version": snap.Version,
		}).WithError(err).Warn("redis feed publish failed")
	}

	rec := historyRecord{
		GameID:    gameID,
		Version:   snap.Version,
		Status:    snap.State.Status,
		Round:     snap.State.CurrentRoundNumber,
		Timestamp: time.Now().UnixMilli(),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		p.log.WithError(err).Error("marshal history record")
		return
	}
	pipe := p.rdb.Pipeline()
	pipe.RPush(ctx, historyKeyFor(gameID), raw)
	pipe.LTrim(ctx, historyKeyFor(gameID), -historyMax, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		p.log.WithFields(logrus.Fields{
			"game_id": gameID, "version": snap.Version,
		}).WithError(err).Warn("redis history append failed")
	}
}
