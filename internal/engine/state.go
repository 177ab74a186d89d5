// internal/engine/state.go
//
// The authoritative game document.
//
// GameState is the single shared mutable resource of the engine. It is
// loaded, mutated and committed as one unit through the document store;
// nothing in this package keeps state between invocations.
package engine

import (
	"github.com/google/uuid"
)

// HandSize is the fixed number of hand slots per player. Slots are
// nulled in place when a card is matched away; the hand never shrinks
// structurally.
const HandSize = 4

// Hand is a fixed 4-slot card row. A nil slot means the position was
// permanently matched away.
type Hand [HandSize]*Card

// Score sums the values of the remaining (non-nil) cards.
func (h *Hand) Score() int {
	total := 0
	for _, c := range h {
		if c != nil {
			total += c.Value
		}
	}
	return total
}

// GameStatus is the lifecycle state of a game document.
type GameStatus string

const (
	StatusWaiting   GameStatus = "waiting"
	StatusPlaying   GameStatus = "playing"
	StatusFinished  GameStatus = "finished"
	StatusCancelled GameStatus = "cancelled"
)

// Phase is the per-round state machine position.
type Phase string

const (
	PhaseSetup     Phase = "setup"
	PhasePlaying   Phase = "playing"
	PhaseFinalTurn Phase = "final_turn"
	PhaseScoring   Phase = "scoring"
	PhaseComplete  Phase = "complete"
)

// PlayerInfo identifies one seated player. Seat order is turn order.
type PlayerInfo struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	Seat     int       `json:"seat"`
}

// RevealSource records why a card position became visible to a player.
type RevealSource string

const (
	RevealSetupPeek RevealSource = "setup_peek"
	RevealPowerPeek RevealSource = "power_peek"
	RevealSeenSwap  RevealSource = "seen_swap"
)

// Reveal grants ViewerID sight of OwnerID's card at Position. Entries
// are time-bounded: setup peeks are purged when the round leaves Setup,
// power peeks when the viewer's next turn starts.
type Reveal struct {
	ViewerID        uuid.UUID    `json:"viewerId"`
	OwnerID         uuid.UUID    `json:"ownerId"`
	Position        int          `json:"position"`
	Source          RevealSource `json:"source"`
	ExpiresOnTurnOf uuid.UUID    `json:"expiresOnTurnOf,omitempty"`
}

// PowerStage tracks progress through the special-power sub-machine.
type PowerStage string

const (
	// PowerStagePendingDecision: a power card was discarded off the
	// deck draw; the player chooses to redeem or skip.
	PowerStagePendingDecision PowerStage = "pending_decision"
	// PowerStageSelectingTarget: the player must supply the target(s)
	// required by the power type.
	PowerStageSelectingTarget PowerStage = "selecting_target"
	// PowerStageAwaitingSwapConfirm: seen swap only; the opponent card
	// was revealed, the player decides whether to commit the swap.
	PowerStageAwaitingSwapConfirm PowerStage = "awaiting_swap_confirm"
)

// PowerState is the sub-state of an unresolved special power. While it
// is non-nil the owning player holds control regardless of the turn
// cursor, and no other action of theirs is accepted.
type PowerState struct {
	Type        PowerType  `json:"type"`
	PlayerID    uuid.UUID  `json:"playerId"`
	Stage       PowerStage `json:"stage"`
	Card        Card       `json:"card"`
	OwnPosition *int       `json:"ownPosition,omitempty"`
	OpponentID  *uuid.UUID `json:"opponentId,omitempty"`
	OpponentPos *int       `json:"opponentPos,omitempty"`
}

// RoundState holds one deal-to-scoring cycle.
type RoundState struct {
	Number              int                    `json:"number"`
	Phase               Phase                  `json:"phase"`
	DealerSeat          int                    `json:"dealerSeat"`
	CurrentTurnPlayerID uuid.UUID              `json:"currentTurnPlayerId,omitempty"`
	Hands               map[uuid.UUID]*Hand    `json:"hands"`
	Reveals             []Reveal               `json:"reveals,omitempty"`
	PeekAcked           map[uuid.UUID]bool     `json:"peekAcked,omitempty"`
	DrawPile            []Card                 `json:"drawPile"`
	DiscardPile         []Card                 `json:"discardPile"`
	DrawnCard           *Card                  `json:"drawnCard,omitempty"`
	DrawnCardOwnerID    uuid.UUID              `json:"drawnCardOwnerId,omitempty"`
	DrawnFromDeck       bool                   `json:"drawnFromDeck,omitempty"`
	Power               *PowerState            `json:"power,omitempty"`
	DeclaredBy          uuid.UUID              `json:"declaredBy,omitempty"`
	FinalTurnsLeft      int                    `json:"finalTurnsLeft,omitempty"`
	Scores              map[uuid.UUID]int      `json:"scores,omitempty"`
	ScambodiaCorrect    *bool                  `json:"scambodiaCorrect,omitempty"`
}

// hasOutstandingDraw reports whether playerID drew a card this turn that
// still awaits an exchange/discard/match.
func (r *RoundState) hasOutstandingDraw(playerID uuid.UUID) bool {
	return r.DrawnCard != nil && r.DrawnCardOwnerID == playerID
}

// discardTop returns the top discard card, or nil when the pile is empty.
func (r *RoundState) discardTop() *Card {
	if len(r.DiscardPile) == 0 {
		return nil
	}
	return &r.DiscardPile[len(r.DiscardPile)-1]
}

// AppliedAction is one entry of the idempotency ledger kept inside the
// document: replaying the same key returns the recorded version instead
// of mutating again.
type AppliedAction struct {
	Type    ActionType `json:"type"`
	Version int64      `json:"version"`
}

// maxAppliedActions bounds the idempotency ledger; oldest entries are
// evicted once clients can no longer plausibly retry them.
const maxAppliedActions = 256

// GameState is the persisted game document, keyed by GameID.
type GameState struct {
	GameID             uuid.UUID             `json:"gameId"`
	Status             GameStatus            `json:"status"`
	Players            []PlayerInfo          `json:"players"`
	SeatCount          int                   `json:"seatCount"`
	CurrentRoundNumber int                   `json:"currentRoundNumber"`
	TotalRounds        int                   `json:"totalRounds"`
	WagerPerPlayer     int64                 `json:"wagerPerPlayer"`
	Rounds             map[int]*RoundState   `json:"rounds"`
	CumulativeScores   map[uuid.UUID]int     `json:"cumulativeScores"`
	ScambodiaCalls     map[uuid.UUID]int     `json:"scambodiaCalls"`
	GameWinnerID       uuid.UUID             `json:"gameWinnerId,omitempty"`
	IsDraw             bool                  `json:"isDraw,omitempty"`
	PayoutProcessed    bool                  `json:"payoutProcessed"`
	Applied            map[string]AppliedAction `json:"applied,omitempty"`
}

// CurrentRound returns the round the game is currently in, or nil
// before the first deal.
func (g *GameState) CurrentRound() *RoundState {
	return g.Rounds[g.CurrentRoundNumber]
}

// playerBySeat returns the player seated at seat, wrapping around.
func (g *GameState) playerBySeat(seat int) PlayerInfo {
	return g.Players[((seat%len(g.Players))+len(g.Players))%len(g.Players)]
}

// seatOf returns the seat of playerID, or -1 when not seated.
func (g *GameState) seatOf(playerID uuid.UUID) int {
	for _, p := range g.Players {
		if p.UserID == playerID {
			return p.Seat
		}
	}
	return -1
}

// isSeated reports whether playerID holds a seat in this game.
func (g *GameState) isSeated(playerID uuid.UUID) bool {
	return g.seatOf(playerID) >= 0
}

// recordApplied notes an idempotency key as applied at version, evicting
// the oldest entries when the ledger is full.
func (g *GameState) recordApplied(key string, typ ActionType, version int64) {
	if key == "" {
		return
	}
	if g.Applied == nil {
		g.Applied = make(map[string]AppliedAction)
	}
	g.Applied[key] = AppliedAction{Type: typ, Version: version}
	for len(g.Applied) > maxAppliedActions {
		oldestKey := ""
		oldestVersion := int64(0)
		for k, v := range g.Applied {
			if oldestKey == "" || v.Version < oldestVersion {
				oldestKey, oldestVersion = k, v.Version
			}
		}
		delete(g.Applied, oldestKey)
	}
}

// CardCensus returns the multiset of all cards across the current
// round's draw pile, discard pile, hands and outstanding drawn card.
// A legal round always contains exactly the standard 52-card deck.
func (r *RoundState) CardCensus() map[Card]int {
	census := make(map[Card]int, DeckSize)
	for _, c := range r.DrawPile {
		census[Card{Suit: c.Suit, Rank: c.Rank, Value: c.Value}]++
	}
	for _, c := range r.DiscardPile {
		census[Card{Suit: c.Suit, Rank: c.Rank, Value: c.Value}]++
	}
	for _, hand := range r.Hands {
		for _, c := range hand {
			if c != nil {
				census[*c]++
			}
		}
	}
	if r.DrawnCard != nil {
		census[*r.DrawnCard]++
	}
	return census
}
