// internal/engine/actions.go
//
// Action request routing, validation and
// execution against a loaded game document.
//
// Every executor path either advances the turn or hands control to the
// power sub-machine, never both. All validation is derived from the
// document alone so a retried request revalidates from scratch.
package engine

import (
	"math/rand"

	"github.com/google/uuid"
)

// ActionType enumerates every player intent the engine accepts.
type ActionType string

const (
	ActionDrawFromDeck     ActionType = "draw_from_deck"
	ActionDrawFromDiscard  ActionType = "draw_from_discard"
	ActionExchangeCard     ActionType = "exchange_card"
	ActionDiscardDrawn     ActionType = "discard_drawn"
	ActionAttemptMatch     ActionType = "attempt_match"
	ActionDeclareScambodia ActionType = "declare_scambodia"
	ActionPeekComplete     ActionType = "peek_complete"
	ActionInitiatePower    ActionType = "initiate_power"
	ActionResolvePower     ActionType = "resolve_power"
	ActionSkipPower        ActionType = "skip_power"
)

// ActionRequest is one player intent against one game document. The
// PlayerID comes from the identity boundary, never from the client
// payload. IdempotencyKey makes blind client retries safe.
type ActionRequest struct {
	GameID         uuid.UUID  `json:"gameId"`
	PlayerID       uuid.UUID  `json:"playerId"`
	Type           ActionType `json:"type"`
	Position       *int       `json:"position,omitempty"`
	OpponentID     *uuid.UUID `json:"opponentId,omitempty"`
	OpponentPos    *int       `json:"opponentPos,omitempty"`
	ConfirmSwap    *bool      `json:"confirmSwap,omitempty"`
	RoundNumber    int        `json:"roundNumber,omitempty"`
	IdempotencyKey string     `json:"idempotencyKey,omitempty"`
}

// ActionResult reports the outcome of a committed (or no-op) action.
type ActionResult struct {
	Applied bool  `json:"applied"` // false ⇒ already applied / superseded, success-no-op
	Version int64 `json:"version"`
}

// apply validates and executes req against the document. It returns
// (true, nil) when state was mutated, (false, nil) for a safe no-op,
// and (false, err) when the request is rejected without mutation.
func (g *GameState) apply(req ActionRequest, rng *rand.Rand) (bool, error) {
	if !g.isSeated(req.PlayerID) {
		return false, notFoundf("player %s is not seated in game %s", req.PlayerID, g.GameID)
	}

	switch g.Status {
	case StatusFinished, StatusCancelled:
		// The game has advanced past every round; duplicate or late
		// requests are treated as already applied.
		return false, nil
	case StatusWaiting:
		return false, validationf("game has not started")
	}

	if req.Type == ActionPeekComplete {
		return g.applyPeekComplete(req)
	}

	r := g.CurrentRound()
	if r == nil {
		return false, validationf("no active round")
	}

	switch req.Type {
	case ActionDrawFromDeck:
		return g.applyDrawFromDeck(r, req.PlayerID, rng)
	case ActionDrawFromDiscard:
		return g.applyDrawFromDiscard(r, req.PlayerID)
	case ActionExchangeCard:
		return g.applyExchange(r, req, rng)
	case ActionDiscardDrawn:
		return g.applyDiscardDrawn(r, req.PlayerID, rng)
	case ActionAttemptMatch:
		return g.applyAttemptMatch(r, req, rng)
	case ActionDeclareScambodia:
		return g.applyDeclare(r, req.PlayerID)
	case ActionInitiatePower:
		return g.applyInitiatePower(r, req.PlayerID)
	case ActionResolvePower:
		return g.applyResolvePower(r, req, rng)
	case ActionSkipPower:
		return g.applySkipPower(r, req.PlayerID, rng)
	default:
		return false, validationf("unknown action type %q", req.Type)
	}
}

// requireTurn checks the common preconditions of a turn-opening action:
// an active turn phase, the cursor on this player, and no power holding
// control.
func (r *RoundState) requireTurn(playerID uuid.UUID) error {
	if r.Phase != PhasePlaying && r.Phase != PhaseFinalTurn {
		return validationf("round is in %s phase", r.Phase)
	}
	if r.CurrentTurnPlayerID != playerID {
		return validationf("not your turn")
	}
	if r.Power != nil {
		return validationf("a special power is awaiting resolution")
	}
	return nil
}

// applyDrawFromDeck pops the top of the draw pile into the acting
// player's hand-held slot, reshuffling the discard pile (minus its top
// card) first when the draw pile is empty.
func (g *GameState) applyDrawFromDeck(r *RoundState, playerID uuid.UUID, rng *rand.Rand) (bool, error) {
	if err := r.requireTurn(playerID); err != nil {
		return false, err
	}
	if r.hasOutstandingDraw(playerID) {
		return false, validationf("you already drew a card this turn")
	}

	if len(r.DrawPile) == 0 {
		if len(r.DiscardPile) <= 1 {
			return false, validationf("draw pile is exhausted and the discard pile cannot be reshuffled")
		}
		top := r.DiscardPile[len(r.DiscardPile)-1]
		rest := append([]Card(nil), r.DiscardPile[:len(r.DiscardPile)-1]...)
		rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		r.DrawPile = rest
		r.DiscardPile = []Card{top}
	}

	card := r.DrawPile[len(r.DrawPile)-1]
	r.DrawPile = r.DrawPile[:len(r.DrawPile)-1]
	r.DrawnCard = &card
	r.DrawnCardOwnerID = playerID
	r.DrawnFromDeck = true
	return true, nil
}

// applyDrawFromDiscard takes the top discard card in hand. The card is
// public, never redeems a power, and must be exchanged into the hand.
func (g *GameState) applyDrawFromDiscard(r *RoundState, playerID uuid.UUID) (bool, error) {
	if err := r.requireTurn(playerID); err != nil {
		return false, err
	}
	if r.hasOutstandingDraw(playerID) {
		return false, validationf("you already drew a card this turn")
	}
	if len(r.DiscardPile) == 0 {
		return false, validationf("discard pile is empty")
	}

	card := r.DiscardPile[len(r.DiscardPile)-1]
	r.DiscardPile = r.DiscardPile[:len(r.DiscardPile)-1]
	r.DrawnCard = &card
	r.DrawnCardOwnerID = playerID
	r.DrawnFromDeck = false
	return true, nil
}

// applyExchange swaps the drawn card into hand[position]; the displaced
// card goes to the discard pile top. A power rank pushed out this way is
// not redeemable.
func (g *GameState) applyExchange(r *RoundState, req ActionRequest, rng *rand.Rand) (bool, error) {
	playerID := req.PlayerID
	if !r.hasOutstandingDraw(playerID) {
		return false, validationf("no card drawn yet")
	}
	if r.Power != nil {
		return false, validationf("a special power is awaiting resolution")
	}
	pos, err := handPosition(req.Position)
	if err != nil {
		return false, err
	}
	hand := r.Hands[playerID]
	if hand[pos] == nil {
		return false, validationf("hand position %d was matched away", pos)
	}

	displaced := *hand[pos]
	incoming := *r.DrawnCard
	hand[pos] = &incoming
	r.dropRevealsAt(playerID, pos)
	r.DiscardPile = append(r.DiscardPile, displaced)
	r.DrawnCard = nil
	r.DrawnCardOwnerID = uuid.Nil
	g.advanceTurn(r, rng)
	return true, nil
}

// applyDiscardDrawn moves the drawn card straight to the discard pile.
// A power card drawn from the deck opens the power decision instead of
// advancing the turn.
func (g *GameState) applyDiscardDrawn(r *RoundState, playerID uuid.UUID, rng *rand.Rand) (bool, error) {
	if !r.hasOutstandingDraw(playerID) {
		return false, validationf("no card drawn yet")
	}
	if !r.DrawnFromDeck {
		return false, validationf("a card taken from the discard pile must be exchanged into your hand")
	}

	card := *r.DrawnCard
	r.DiscardPile = append(r.DiscardPile, card)
	r.DrawnCard = nil
	r.DrawnCardOwnerID = uuid.Nil

	if card.HasPower() {
		r.Power = &PowerState{
			Type:     card.Power(),
			PlayerID: playerID,
			Stage:    PowerStagePendingDecision,
			Card:     card,
		}
		return true, nil
	}
	g.advanceTurn(r, rng)
	return true, nil
}

// applyAttemptMatch compares hand[position] against the drawn card. On a
// rank match both cards go to the discard pile and the slot is nulled
// for the rest of the round. On a mismatch the drawn card is forced into
// the slot and the old occupant is discarded (the swap penalty).
func (g *GameState) applyAttemptMatch(r *RoundState, req ActionRequest, rng *rand.Rand) (bool, error) {
	playerID := req.PlayerID
	if !r.hasOutstandingDraw(playerID) {
		return false, validationf("no card drawn yet")
	}
	if !r.DrawnFromDeck {
		return false, validationf("cannot attempt a match with a discard-pile card")
	}
	pos, err := handPosition(req.Position)
	if err != nil {
		return false, err
	}
	hand := r.Hands[playerID]
	if hand[pos] == nil {
		return false, validationf("hand position %d was matched away", pos)
	}

	drawn := *r.DrawnCard
	occupant := *hand[pos]
	if occupant.Rank == drawn.Rank {
		// Both cards leave play onto the discard pile; the slot stays
		// empty for the rest of the round.
		r.DiscardPile = append(r.DiscardPile, drawn, occupant)
		hand[pos] = nil
	} else {
		hand[pos] = &drawn
		r.DiscardPile = append(r.DiscardPile, occupant)
	}
	r.dropRevealsAt(playerID, pos)
	r.DrawnCard = nil
	r.DrawnCardOwnerID = uuid.Nil
	g.advanceTurn(r, rng)
	return true, nil
}

// applyDeclare records the round's single Scambodia declaration and
// freezes the remaining turn order: every other player gets exactly one
// more turn.
func (g *GameState) applyDeclare(r *RoundState, playerID uuid.UUID) (bool, error) {
	if r.Phase != PhasePlaying {
		if r.Phase == PhaseFinalTurn {
			return false, validationf("Scambodia has already been declared this round")
		}
		return false, validationf("round is in %s phase", r.Phase)
	}
	if r.CurrentTurnPlayerID != playerID {
		return false, validationf("not your turn")
	}
	if r.Power != nil {
		return false, validationf("a special power is awaiting resolution")
	}
	if r.hasOutstandingDraw(playerID) {
		return false, validationf("resolve your drawn card before declaring")
	}
	if r.DeclaredBy != uuid.Nil {
		return false, validationf("Scambodia has already been declared this round")
	}

	r.DeclaredBy = playerID
	r.Phase = PhaseFinalTurn
	r.FinalTurnsLeft = len(g.Players) - 1
	next := g.playerBySeat(g.seatOf(playerID) + 1)
	r.CurrentTurnPlayerID = next.UserID
	r.purgeRevealsOnTurnStart(next.UserID)
	return true, nil
}

// handPosition validates an own-hand slot index.
func handPosition(pos *int) (int, error) {
	if pos == nil {
		return 0, validationf("hand position is required")
	}
	if *pos < 0 || *pos >= HandSize {
		return 0, validationf("hand position %d out of range", *pos)
	}
	return *pos, nil
}
