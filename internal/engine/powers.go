// internal/engine/powers.go
//
// The special-power resolution sub-machine.
//
// NoPower → PendingDecision → SelectingTarget → resolved/Skipped, with
// Seen_Swap inserting an AwaitingSwapConfirm step between the reveal and
// the optional commit.
package engine

import (
	"math/rand"

	"github.com/google/uuid"
)

// requirePower checks that playerID owns the unresolved power.
func (r *RoundState) requirePower(playerID uuid.UUID) (*PowerState, error) {
	if r.Power == nil {
		return nil, validationf("no special power is pending")
	}
	if r.Power.PlayerID != playerID {
		return nil, validationf("the pending power belongs to another player")
	}
	return r.Power, nil
}

// applyInitiatePower moves a pending power decision into target
// selection once the player chooses to redeem.
func (g *GameState) applyInitiatePower(r *RoundState, playerID uuid.UUID) (bool, error) {
	p, err := r.requirePower(playerID)
	if err != nil {
		return false, err
	}
	if p.Stage != PowerStagePendingDecision {
		return false, validationf("power is already being resolved")
	}
	p.Stage = PowerStageSelectingTarget
	return true, nil
}

// applySkipPower abandons the power at any stage. Skipping a Seen_Swap
// after the reveal declines the swap; the reveal grant stands until its
// window closes.
func (g *GameState) applySkipPower(r *RoundState, playerID uuid.UUID, rng *rand.Rand) (bool, error) {
	if _, err := r.requirePower(playerID); err != nil {
		return false, err
	}
	r.Power = nil
	g.advanceTurn(r, rng)
	return true, nil
}

// applyResolvePower supplies the target(s) a power requires and applies
// its effect. Resolution is rejected until every required target is
// present and valid; targets referencing a nulled (matched-away) slot
// are rejected outright.
func (g *GameState) applyResolvePower(r *RoundState, req ActionRequest, rng *rand.Rand) (bool, error) {
	p, err := r.requirePower(req.PlayerID)
	if err != nil {
		return false, err
	}

	switch p.Stage {
	case PowerStagePendingDecision:
		return false, validationf("power must be initiated or skipped first")

	case PowerStageAwaitingSwapConfirm:
		if req.ConfirmSwap == nil {
			return false, validationf("seen swap awaits a confirm or decline")
		}
		if *req.ConfirmSwap {
			g.swapHandCards(r, p.PlayerID, *p.OwnPosition, *p.OpponentID, *p.OpponentPos)
		}
		r.Power = nil
		g.advanceTurn(r, rng)
		return true, nil

	case PowerStageSelectingTarget:
		// Merge freshly supplied targets into the power state, then fall
		// through to the per-type requirement checks below.
		if req.Position != nil {
			p.OwnPosition = req.Position
		}
		if req.OpponentID != nil {
			p.OpponentID = req.OpponentID
		}
		if req.OpponentPos != nil {
			p.OpponentPos = req.OpponentPos
		}
	default:
		return false, validationf("power is in an unknown stage %q", p.Stage)
	}

	needsOwn := p.Type == PowerPeekOwn || p.Type == PowerBlindSwap || p.Type == PowerSeenSwap
	needsOpponent := p.Type == PowerPeekOpponent || p.Type == PowerBlindSwap || p.Type == PowerSeenSwap

	if needsOwn {
		if err := g.validateOwnTarget(r, p.PlayerID, p.OwnPosition); err != nil {
			return false, err
		}
	}
	if needsOpponent {
		if err := g.validateOpponentTarget(r, p.PlayerID, p.OpponentID, p.OpponentPos); err != nil {
			return false, err
		}
	}

	switch p.Type {
	case PowerPeekOwn:
		r.Reveals = append(r.Reveals, Reveal{
			ViewerID:        p.PlayerID,
			OwnerID:         p.PlayerID,
			Position:        *p.OwnPosition,
			Source:          RevealPowerPeek,
			ExpiresOnTurnOf: p.PlayerID,
		})
		r.Power = nil
		g.advanceTurn(r, rng)

	case PowerPeekOpponent:
		r.Reveals = append(r.Reveals, Reveal{
			ViewerID:        p.PlayerID,
			OwnerID:         *p.OpponentID,
			Position:        *p.OpponentPos,
			Source:          RevealPowerPeek,
			ExpiresOnTurnOf: p.PlayerID,
		})
		r.Power = nil
		g.advanceTurn(r, rng)

	case PowerBlindSwap:
		// Neither party sees either card.
		g.swapHandCards(r, p.PlayerID, *p.OwnPosition, *p.OpponentID, *p.OpponentPos)
		r.Power = nil
		g.advanceTurn(r, rng)

	case PowerSeenSwap:
		// Reveal the opponent's card to the actor first; the swap
		// commits (or not) on the follow-up confirm.
		r.Reveals = append(r.Reveals, Reveal{
			ViewerID:        p.PlayerID,
			OwnerID:         *p.OpponentID,
			Position:        *p.OpponentPos,
			Source:          RevealSeenSwap,
			ExpiresOnTurnOf: p.PlayerID,
		})
		p.Stage = PowerStageAwaitingSwapConfirm

	default:
		return false, validationf("card %s grants no power", p.Card)
	}
	return true, nil
}

// validateOwnTarget checks a required own-hand target.
func (g *GameState) validateOwnTarget(r *RoundState, playerID uuid.UUID, pos *int) error {
	if pos == nil {
		return validationf("%s requires one of your own card positions", r.Power.Type)
	}
	if *pos < 0 || *pos >= HandSize {
		return validationf("hand position %d out of range", *pos)
	}
	if r.Hands[playerID][*pos] == nil {
		return validationf("hand position %d was matched away", *pos)
	}
	return nil
}

// validateOpponentTarget checks a required opponent target.
func (g *GameState) validateOpponentTarget(r *RoundState, playerID uuid.UUID, oppID *uuid.UUID, pos *int) error {
	if oppID == nil || pos == nil {
		return validationf("%s requires an opponent and card position", r.Power.Type)
	}
	if *oppID == playerID {
		return validationf("target opponent must be another player")
	}
	if !g.isSeated(*oppID) {
		return notFoundf("target player %s is not seated in game %s", *oppID, g.GameID)
	}
	if *pos < 0 || *pos >= HandSize {
		return validationf("opponent position %d out of range", *pos)
	}
	if r.Hands[*oppID][*pos] == nil {
		return validationf("opponent position %d was matched away", *pos)
	}
	return nil
}

// swapHandCards exchanges two hand slots between players. Grants on
// either slot die with the swap: the sighted cards moved.
func (g *GameState) swapHandCards(r *RoundState, ownID uuid.UUID, ownPos int, oppID uuid.UUID, oppPos int) {
	own, opp := r.Hands[ownID], r.Hands[oppID]
	own[ownPos], opp[oppPos] = opp[oppPos], own[ownPos]
	r.dropRevealsAt(ownID, ownPos)
	r.dropRevealsAt(oppID, oppPos)
}
