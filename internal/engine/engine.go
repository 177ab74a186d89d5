// Package engine implements the authoritative Scambodia rules engine.
//
// The engine is stateless between invocations: every action request
// loads the current game document, validates against it, computes the
// new state and commits it atomically through the Store contract.
// Optimistic-concurrency losers retry the whole cycle from a fresh read.
package engine

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrVersionConflict is returned by Store.CommitIfUnchanged when the
// document changed since it was read. The engine retries a bounded
// number of times before surfacing it.
var ErrVersionConflict = errors.New("version conflict")

// Store is the transactional document-store contract. The engine
// assumes nothing about the backing store beyond it.
type Store interface {
	// Create persists a new document and returns its initial version.
	Create(ctx context.Context, g *GameState) (int64, error)
	// Load returns an isolated copy of the document and its version.
	Load(ctx context.Context, gameID uuid.UUID) (*GameState, int64, error)
	// CommitIfUnchanged writes g only if the stored version still equals
	// expected, returning the new version or ErrVersionConflict.
	CommitIfUnchanged(ctx context.Context, gameID uuid.UUID, expected int64, g *GameState) (int64, error)
}

// Snapshot is one committed document version, as published to the feed.
type Snapshot struct {
	State   *GameState
	Version int64
}

// Publisher pushes committed snapshots to the realtime feed, in commit
// order per game. Publication is best-effort and never blocks a commit.
type Publisher interface {
	Publish(ctx context.Context, snap Snapshot)
}

// PayoutEvent is the at-most-once boundary call to the ledger service.
type PayoutEvent struct {
	GameID   uuid.UUID `json:"gameId"`
	WinnerID uuid.UUID `json:"winnerId,omitempty"`
	IsDraw   bool      `json:"isDraw,omitempty"`
	Amount   int64     `json:"amount"`
}

// PayoutService credits the pot. The engine only guarantees the event
// fires once per game; retrying a failed credit is the ledger's job.
type PayoutService interface {
	Process(ctx context.Context, ev PayoutEvent) error
}

// Config tunes the engine. Zero values pick sane defaults.
type Config struct {
	// MaxRetries bounds the validate-then-write retry cycle on version
	// conflicts. Default 5.
	MaxRetries int
	// Seed provides deterministic shuffles in tests. Default: wall clock.
	Seed func() int64
}

// Engine validates and executes action requests against game documents.
type Engine struct {
	store   Store
	feed    Publisher
	payouts PayoutService
	log     *logrus.Logger

	maxRetries int
	seed       func() int64
}

// New wires an Engine to its collaborators.
func New(store Store, feed Publisher, payouts PayoutService, log *logrus.Logger, cfg Config) *Engine {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.Seed == nil {
		cfg.Seed = func() int64 { return time.Now().UnixNano() }
	}
	if log == nil {
		log = logrus.New()
	}
	return &Engine{
		store:      store,
		feed:       feed,
		payouts:    payouts,
		log:        log,
		maxRetries: cfg.MaxRetries,
		seed:       cfg.Seed,
	}
}

// CreateGame forms a new match with the host in seat 0. The document
// stays Waiting until every seat fills.
func (e *Engine) CreateGame(ctx context.Context, host PlayerInfo, seatCount, totalRounds int, wagerPerPlayer int64) (*GameState, int64, error) {
	if seatCount < 2 || seatCount > 4 {
		return nil, 0, validationf("seat count %d out of range (2–4)", seatCount)
	}
	if totalRounds != 1 && totalRounds != 3 && totalRounds != 5 {
		return nil, 0, validationf("total rounds must be 1, 3 or 5")
	}
	if wagerPerPlayer < 0 {
		return nil, 0, validationf("wager cannot be negative")
	}

	host.Seat = 0
	g := &GameState{
		GameID:           uuid.New(),
		Status:           StatusWaiting,
		Players:          []PlayerInfo{host},
		SeatCount:        seatCount,
		TotalRounds:      totalRounds,
		WagerPerPlayer:   wagerPerPlayer,
		Rounds:           make(map[int]*RoundState),
		CumulativeScores: map[uuid.UUID]int{host.UserID: 0},
		ScambodiaCalls:   map[uuid.UUID]int{host.UserID: 0},
	}

	version, err := e.store.Create(ctx, g)
	if err != nil {
		return nil, 0, err
	}
	e.log.WithFields(logrus.Fields{
		"game_id": g.GameID, "host": host.UserID, "seats": seatCount, "rounds": totalRounds,
	}).Info("game created")
	e.publish(ctx, g, version)
	return g, version, nil
}

// JoinGame seats a player in a Waiting game. Filling the last seat
// moves the game to Playing and deals round one in the same commit.
// Joining a game one is already seated in is a no-op success.
func (e *Engine) JoinGame(ctx context.Context, gameID uuid.UUID, player PlayerInfo) (*GameState, int64, error) {
	var (
		out     *GameState
		version int64
	)
	err := e.transact(ctx, gameID, func(g *GameState, version int64, rng *rand.Rand) (bool, error) {
		if g.isSeated(player.UserID) {
			out = g
			return false, nil
		}
		if g.Status != StatusWaiting {
			return false, validationf("game is not accepting players")
		}
		player.Seat = len(g.Players)
		g.Players = append(g.Players, player)
		g.CumulativeScores[player.UserID] = 0
		g.ScambodiaCalls[player.UserID] = 0
		if len(g.Players) == g.SeatCount {
			g.Status = StatusPlaying
			g.startRound(1, rng)
		}
		out = g
		return true, nil
	}, &version)
	if err != nil {
		return nil, 0, err
	}
	e.log.WithFields(logrus.Fields{
		"game_id": gameID, "player_id": player.UserID, "status": out.Status,
	}).Info("player joined")
	return out, version, nil
}

// SubmitAction validates and applies one action request. Duplicate
// idempotency keys and requests addressed to superseded rounds/phases
// return Applied=false with no mutation.
func (e *Engine) SubmitAction(ctx context.Context, req ActionRequest) (ActionResult, error) {
	var (
		result    ActionResult
		payout    *PayoutEvent
		committed int64
	)
	err := e.transact(ctx, req.GameID, func(g *GameState, version int64, rng *rand.Rand) (bool, error) {
		payout = nil
		if req.IdempotencyKey != "" {
			if prev, ok := g.Applied[req.IdempotencyKey]; ok && prev.Type == req.Type {
				result = ActionResult{Applied: false, Version: prev.Version}
				return false, nil
			}
		}

		wasFinished := g.Status == StatusFinished

		applied, err := g.apply(req, rng)
		if err != nil {
			return false, err
		}
		if !applied {
			result = ActionResult{Applied: false}
			return false, nil
		}

		if g.Status == StatusFinished && !wasFinished {
			ev := PayoutEvent{GameID: g.GameID, WinnerID: g.GameWinnerID, IsDraw: g.IsDraw, Amount: g.TotalPot()}
			payout = &ev
		}
		g.recordApplied(req.IdempotencyKey, req.Type, version+1)
		result = ActionResult{Applied: true}
		return true, nil
	}, &committed)
	if err != nil {
		if errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) {
			e.log.WithFields(logrus.Fields{
				"game_id": req.GameID, "player_id": req.PlayerID, "action": req.Type,
			}).WithError(err).Debug("action rejected")
		}
		return ActionResult{}, err
	}
	// An idempotent replay reports the version its original commit
	// produced, not the current head. Everything else reports the
	// version transact observed or wrote.
	if result.Version == 0 {
		result.Version = committed
	}

	e.log.WithFields(logrus.Fields{
		"game_id": req.GameID, "player_id": req.PlayerID, "action": req.Type,
		"applied": result.Applied, "version": result.Version,
	}).Info("action processed")

	if payout != nil {
		e.emitPayout(ctx, *payout)
	}
	return result, nil
}

// GetView returns the document redacted for one seated player.
func (e *Engine) GetView(ctx context.Context, gameID, viewerID uuid.UUID) (*PlayerView, int64, error) {
	g, version, err := e.store.Load(ctx, gameID)
	if err != nil {
		return nil, 0, err
	}
	if !g.isSeated(viewerID) {
		return nil, 0, notFoundf("player %s is not seated in game %s", viewerID, gameID)
	}
	view := g.ViewFor(viewerID)
	view.Version = version
	return view, version, nil
}

// transact runs the optimistic read-modify-write cycle: load a fresh
// copy, mutate, commit if unchanged, retry on conflict. The mutation
// callback must be re-derivable from the loaded document alone.
func (e *Engine) transact(ctx context.Context, gameID uuid.UUID, mutate func(*GameState, int64, *rand.Rand) (bool, error), committedVersion *int64) error {
	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		g, version, err := e.store.Load(ctx, gameID)
		if err != nil {
			return err
		}

		rng := rand.New(rand.NewSource(e.seed()))
		changed, err := mutate(g, version, rng)
		if err != nil {
			return err
		}
		if !changed {
			*committedVersion = version
			return nil
		}

		newVersion, err := e.store.CommitIfUnchanged(ctx, gameID, version, g)
		if err == nil {
			*committedVersion = newVersion
			e.publish(ctx, g, newVersion)
			return nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return err
		}
		lastErr = err
		e.log.WithFields(logrus.Fields{
			"game_id": gameID, "attempt": attempt + 1,
		}).Debug("commit conflict, retrying")
	}
	return lastErr
}

// publish pushes a committed snapshot to the realtime feed.
func (e *Engine) publish(ctx context.Context, g *GameState, version int64) {
	if e.feed == nil {
		return
	}
	e.feed.Publish(ctx, Snapshot{State: g, Version: version})
}

// emitPayout fires the at-most-once payout boundary call. The gate
// already flipped inside the committed document; a ledger failure here
// is logged for the ledger side to retry and never re-debited by us.
func (e *Engine) emitPayout(ctx context.Context, ev PayoutEvent) {
	if e.payouts == nil {
		return
	}
	if err := e.payouts.Process(ctx, ev); err != nil {
		e.log.WithFields(logrus.Fields{
			"game_id": ev.GameID, "winner_id": ev.WinnerID, "amount": ev.Amount,
		}).WithError(err).Error("payout boundary call failed")
		return
	}
	e.log.WithFields(logrus.Fields{
		"game_id": ev.GameID, "winner_id": ev.WinnerID, "amount": ev.Amount, "draw": ev.IsDraw,
	}).Info("payout event emitted")
}
