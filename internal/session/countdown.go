package session

import (
	"fmt"
	"math"
)

// handleCountdownTick advances the join countdown one checkpoint at a time.
// Stages run stageWaitMin (poll until the minimum is met), then the long
// announcements (CountdownFrom down to 10 by tens), then the per-second
// finale, then stage 0, the final eligibility check before the first round.
// Every checkpoint re-validates that the session is still active, still
// waiting, and still above the minimum; a stale generation means the
// session was reset out from under the countdown and the tick dies quietly.
func (s *Session) handleCountdownTick(msg countdownTick) {
	if msg.gen != s.gen || !s.active || s.phase != PhaseWaiting {
		return
	}

	count := s.players.RemainingCount()
	if s.minPlayers > 0 && count < s.minPlayers {
		if msg.stage != stageWaitMin {
			// The countdown proper already started; losing the quorum
			// now cancels the game.
			s.announce("❌ Countdown stopped - not enough players")
			s.resetSession()
			return
		}
		s.announce(fmt.Sprintf("⏳ Waiting for players (%d/%d)", count, s.minPlayers))
		s.countdownTimer = s.schedule(s.timing.WaitPoll, countdownTick{gen: s.gen, stage: stageWaitMin})
		return
	}

	switch {
	case msg.stage == stageWaitMin:
		s.announce("⏳ Game starts in 1 minute! 🎮")
		s.countdownTimer = s.schedule(s.timing.CountdownStep, countdownTick{gen: s.gen, stage: s.timing.CountdownFrom})

	case msg.stage > s.timing.FinalFrom:
		s.announce(fmt.Sprintf("⏳ Game starts in %d seconds...", msg.stage))
		next := msg.stage - 10
		if next > s.timing.FinalFrom {
			s.countdownTimer = s.schedule(s.timing.CountdownStep, countdownTick{gen: s.gen, stage: next})
		} else {
			s.countdownTimer = s.schedule(s.timing.CountdownStep, countdownTick{gen: s.gen, stage: s.timing.FinalFrom})
		}

	case msg.stage >= 1:
		s.announce(fmt.Sprintf("⏳ %d", msg.stage))
		s.countdownTimer = s.schedule(s.timing.FinalStep, countdownTick{gen: s.gen, stage: msg.stage - 1})

	default: // stage 0: last check, then the first round
		if count == 0 {
			s.announce("Not enough players. Game cancelled.")
			s.resetSession()
			return
		}
		s.countdownTimer = 0
		s.beginRound()
	}
}

// handlePositionPoll nudges waiting players back onto their assigned
// blocks. Enforcement is waiting-phase only; during live rounds players
// move freely and the bot teleports them only for game reasons. The first
// round bumps the generation, which retires the poll.
func (s *Session) handlePositionPoll(msg positionPoll) {
	if msg.gen != s.gen || !s.active || s.phase != PhaseWaiting {
		return
	}
	defer func() {
		s.positionTimer = s.schedule(s.timing.PositionPoll, positionPoll{gen: s.gen})
	}()

	list, err := s.room.Present(s.ctx)
	if err != nil {
		return
	}
	for _, pr := range list {
		if !s.players.Contains(pr.Player) {
			continue
		}
		slot, ok := s.players.Slot(pr.Player)
		if !ok {
			continue
		}
		want, ok := s.layout.SlotPosition(slot)
		if !ok {
			continue
		}
		// Drift is measured in the ground plane; small shuffles stay put.
		if math.Hypot(pr.Position.X-want.X, pr.Position.Y-want.Y) > 0.5 {
			s.teleport(pr.Player, want)
		}
	}
}
