package session

import (
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/titomostafa/guessface-bot/internal/danger"
	"github.com/titomostafa/guessface-bot/internal/ledger"
	"github.com/titomostafa/guessface-bot/internal/roster"
	"github.com/titomostafa/guessface-bot/internal/words"
)

func (s *Session) handleJoin(player string) error {
	phaseLocked := s.active && s.phase != PhaseWaiting
	slot, err := s.players.Join(player, s.ending, phaseLocked)
	if err != nil {
		return err
	}

	if !s.active {
		// First join starts a fresh session in the waiting phase. The
		// countdown tick owns the "starts in 1 minute" announcement.
		s.active = true
		s.ending = false
		s.phase = PhaseWaiting
		s.gen++
		s.announce(fmt.Sprintf("%s Joined! 🎮", player))
		s.seatPlayer(player, slot)
		s.positionTimer = s.schedule(s.timing.PositionPoll, positionPoll{gen: s.gen})
		s.handleCountdownTick(countdownTick{gen: s.gen, stage: stageWaitMin})
		return nil
	}

	s.announce(fmt.Sprintf("%s Joined the game! ⏳ Game starts in 1 minute! 🎮", player))
	s.seatPlayer(player, slot)
	return nil
}

func (s *Session) seatPlayer(player string, slot int) {
	if pos, ok := s.layout.SlotPosition(slot); ok {
		s.teleport(player, pos)
	}
}

func (s *Session) handleLeave(player string) error {
	wasChooser := player == s.chooser
	phase := s.phase

	excluded, err := s.players.Leave(player, phase == PhaseWaiting)
	if err != nil {
		return err
	}

	if phase == PhaseWaiting {
		s.announce(fmt.Sprintf("%s left the game. You can rejoin before the game starts! 👋", player))
	} else if excluded {
		s.announce(fmt.Sprintf("%s left the game. Cannot rejoin once game has started! 👋", player))
		if wasChooser && phase == PhaseChoosing {
			s.replaceChooser(player)
		}
	}

	if pos, ok := s.layout.SpawnPosition(); ok {
		s.teleport(player, pos)
	}

	s.checkEndAfterElimination(phase)
	return nil
}

func (s *Session) handleKick(player string) error {
	if !s.players.Contains(player) {
		return ErrPlayerNotFound
	}
	wasChooser := player == s.chooser
	phase := s.phase

	s.players.Exclude(player)
	s.announce(fmt.Sprintf("👢 %s has been kicked from the game!", player))
	if pos, ok := s.layout.ExitPosition(); ok {
		s.teleport(player, pos)
	}

	if wasChooser && phase == PhaseChoosing {
		s.replaceChooser(player)
	}
	s.checkEndAfterElimination(phase)
	return nil
}

// replaceChooser handles the chooser vanishing mid-choosing: the decision
// timeout is cancelled, the word and chooser cleared, and round selection
// restarts after a short delay. Leave-triggered replacement always wins
// over the timeout, which becomes a stale no-op once the handle is gone.
func (s *Session) replaceChooser(old string) {
	s.announce(fmt.Sprintf("⚠️ Chooser @%s has left! Selecting a replacement...", old))
	s.sched.Cancel(s.chooserTimer)
	s.chooserTimer = 0
	s.secretWord = ""
	s.chooser = ""
	s.pendingTimer = s.schedule(s.timing.RestartDelay, roundStart{gen: s.gen})
}

// checkEndAfterElimination ends the game immediately when an elimination
// during a post-waiting phase leaves one player (winner) or none (abort).
func (s *Session) checkEndAfterElimination(phase Phase) {
	if !s.active || phase == PhaseWaiting || phase == PhaseNone {
		return
	}
	switch s.players.RemainingCount() {
	case 1:
		s.declareWinner(s.players.Remaining()[0])
	case 0:
		s.announce("🏁 No players left in the game. Ending...")
		s.resetSession()
	}
}

func (s *Session) handleRoundStart(msg roundStart) {
	if msg.gen != s.gen || !s.active {
		return
	}
	s.beginRound()
}

// beginRound runs chooser selection and opens the choosing phase. It bumps
// the round generation, so every timer scheduled before this point is dead.
func (s *Session) beginRound() {
	s.gen++
	s.round++
	s.ending = false

	// Everyone back on their blocks before the next round.
	for _, p := range s.players.Remaining() {
		if p == s.chooser {
			continue
		}
		if slot, ok := s.players.Slot(p); ok {
			s.seatPlayer(p, slot)
		}
	}

	firstRound := s.chooser == ""
	if s.chooser == "" || !s.players.Contains(s.chooser) {
		replaced := !firstRound
		candidates := s.players.Remaining()
		if len(candidates) == 0 {
			s.announce("❌ No players available!")
			s.resetSession()
			return
		}
		s.chooser = candidates[s.rng.Intn(len(candidates))]
		if replaced {
			s.announce(fmt.Sprintf("🔄 Previous chooser eliminated! New chooser selected: @%s", s.chooser))
		} else {
			s.announce("📋 Game Rules:\n\n1️⃣ Chooser whispers a secret word\n2️⃣ Other players discuss and guess\n3️⃣ Guessers get pulled to the danger zone\n4️⃣ Game continues until 1 player remains 🏆")
		}
	}

	s.phase = PhaseChoosing
	s.secretWord = ""
	s.revealed = make(map[rune]bool)
	s.votes.Reset()
	s.dangerMembers = nil
	s.dangerSlots = nil

	// Atomic handle replacement: at most one decision timeout is ever
	// outstanding.
	s.sched.Cancel(s.chooserTimer)
	s.chooserTimer = s.schedule(s.timing.ChooserTimeout, chooserTimeout{gen: s.gen, chooser: s.chooser})

	s.announce(fmt.Sprintf("🎯 Round #%d\n@%s Choose a word! (⏰ %d seconds)", s.round, s.chooser, int(s.timing.ChooserTimeout.Seconds())))
	if pos, ok := s.layout.ChooserPosition(); ok {
		s.teleport(s.chooser, pos)
	}
}

func (s *Session) handleChooserTimeout(msg chooserTimeout) {
	if msg.gen != s.gen {
		return
	}
	if s.phase != PhaseChoosing || s.chooser != msg.chooser || s.secretWord != "" {
		return
	}
	s.chooserTimer = 0
	s.announce(fmt.Sprintf("⏰ %s didn't choose in time! Eliminated and selecting new chooser...", msg.chooser))
	s.players.Exclude(msg.chooser)
	s.chooser = ""

	switch remaining := s.players.Remaining(); len(remaining) {
	case 0:
		s.announce("❌ No players available! Game ended!")
		s.resetSession()
	case 1:
		s.declareWinner(remaining[0])
	default:
		s.pendingTimer = s.schedule(s.timing.RestartDelay, roundStart{gen: s.gen})
	}
}

func (s *Session) handleSubmitWord(player, word string) error {
	if !s.active || s.phase != PhaseChoosing {
		return ledger.ErrWrongPhase
	}
	if player != s.chooser {
		return ErrNotChooser
	}
	if !words.Valid(word) {
		return ledger.ErrInvalidWord
	}

	// Cancel the decision timeout exactly once; the zero handle makes a
	// repeat cancel a no-op.
	s.sched.Cancel(s.chooserTimer)
	s.chooserTimer = 0

	s.secretWord = words.Normalize(word)
	s.announce("✅ Word accepted! 🤫")
	s.log.Info("secret word chosen", zap.String("chooser", player))

	s.phase = PhaseDiscussion
	s.votes.Reset()
	s.votePollTimer = s.schedule(s.timing.VotePoll, votePoll{gen: s.gen})
	return nil
}

func (s *Session) handleVote(player, word string) error {
	if s.players.Excluded(player) {
		return roster.ErrExcluded
	}
	if player == s.chooser {
		return ErrChooserCannotVote
	}
	if s.votes.HasVoted(player) {
		return ledger.ErrAlreadyVoted
	}
	if !s.active || (s.phase != PhaseDiscussion && s.phase != PhaseVoting) {
		return ledger.ErrWrongPhase
	}
	if !s.players.Contains(player) {
		return ledger.ErrNotEligible
	}
	if err := s.votes.Cast(player, word); err != nil {
		return err
	}
	s.announce(fmt.Sprintf("✅ %s voted for %s", player, strings.ToUpper(words.Normalize(word))))
	return nil
}

func (s *Session) handleHint(player string) error {
	if s.players.Excluded(player) {
		return roster.ErrExcluded
	}
	if !s.active || s.phase != PhaseDiscussion {
		return ErrNoActiveGame
	}
	if s.secretWord == "" {
		return ErrNoActiveGame
	}

	var unrevealed []rune
	for _, r := range s.secretWord {
		if unicode.IsLetter(r) && !s.revealed[r] {
			unrevealed = append(unrevealed, r)
		}
	}
	if len(unrevealed) == 0 {
		return ErrAllLettersRevealed
	}

	pick := unrevealed[s.rng.Intn(len(unrevealed))]
	s.revealed[pick] = true
	s.announce("💡 Hint: " + s.wordDisplay())
	return nil
}

// wordDisplay masks the secret word: revealed letters and non-letters show,
// everything else is an underscore.
func (s *Session) wordDisplay() string {
	var b strings.Builder
	for i, r := range s.secretWord {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch {
		case s.revealed[r], !unicode.IsLetter(r):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// handleVotePoll is the discussion completion check. Eligibility is
// recomputed against live room presence every poll: a voter who physically
// left but whose leave event has not arrived yet must not block the round.
func (s *Session) handleVotePoll(msg votePoll) {
	if msg.gen != s.gen || s.phase != PhaseDiscussion {
		return
	}

	voters := s.players.Voters(s.chooser)
	if len(voters) == 0 {
		s.announce("⚠️ No active game players left to vote. Moving on...")
		s.resolveDanger()
		return
	}
	if s.votes.AllVoted(voters) {
		s.announce("✅ Everyone voted! Off to the danger zone...")
		s.resolveDanger()
		return
	}

	if present := s.present(); present != nil {
		inRoom := voters[:0:0]
		for _, v := range voters {
			if present[v] {
				inRoom = append(inRoom, v)
			}
		}
		if len(inRoom) == 0 {
			s.announce("⚠️ No active game players left to vote. Moving on...")
			s.resolveDanger()
			return
		}
		if s.votes.AllVoted(inRoom) {
			s.announce("✅ Everyone still in the room voted! Off to the danger zone...")
			s.resolveDanger()
			return
		}
	}

	s.votePollTimer = s.schedule(s.timing.VotePoll, votePoll{gen: s.gen})
}

// resolveDanger computes the pull at the moment discussion ends.
func (s *Session) resolveDanger() {
	s.phase = PhaseVoting
	s.votePollTimer = 0

	if s.secretWord == "" {
		s.announce("❌ No secret word set! Round ended.")
		s.resetSession()
		return
	}

	capacity := words.Capacity(s.secretWord)
	eligible := s.players.Eligible(s.chooser)
	correct := s.votes.VotersFor(s.secretWord, eligible)
	pulled := danger.Select(correct, capacity, s.rng)

	if len(pulled) == 0 {
		s.announce(fmt.Sprintf("🎲 TIME'S UP! The secret word was %s!", strings.ToUpper(s.secretWord)))
		s.announce("ℹ️ No one guessed the secret word correctly.")
		s.scoreRound()
		return
	}

	s.dangerMembers = pulled
	s.dangerSlots = make(map[string]int, len(pulled))
	for _, p := range pulled {
		if slot, ok := s.players.Slot(p); ok {
			s.dangerSlots[p] = slot
		}
	}

	s.announce(fmt.Sprintf("🎲 Pulling %d players based on the city choice (Limit: %d)! 🎲", len(pulled), capacity))
	s.announce("⚠️ Selected: " + strings.Join(pulled, ", ") + "!")
	for i, p := range pulled {
		if pos, ok := s.layout.DangerPosition(i); ok {
			s.teleport(p, pos)
		}
	}
	s.announce(fmt.Sprintf("📍 All %d players are in the danger zone!", len(pulled)))

	s.pendingTimer = s.schedule(s.timing.DangerPause, dangerScore{gen: s.gen})
}

func (s *Session) handleDangerScore(msg dangerScore) {
	if msg.gen != s.gen || s.phase != PhaseVoting {
		return
	}
	s.scoreRound()
}

// scoreRound settles the round: danger members are restored or eliminated,
// everyone's stats are written, and the session continues, crowns a winner,
// or winds down.
func (s *Session) scoreRound() {
	s.ending = true
	secret := s.secretWord

	inDanger := make(map[string]bool, len(s.dangerMembers))
	for _, p := range s.dangerMembers {
		inDanger[p] = true
	}

	// Walk the roster rather than the vote map so the results announcement
	// lists winners in a stable (join) order.
	var correctVoters []string
	for _, p := range s.players.Remaining() {
		if inDanger[p] {
			continue
		}
		if vote, ok := s.votes.Vote(p); ok && vote == secret {
			correctVoters = append(correctVoters, p)
			s.recordWin(p)
		}
	}

	for _, p := range s.dangerMembers {
		vote, voted := s.votes.Vote(p)
		if voted && vote == secret {
			s.announce(fmt.Sprintf("✅ %s CORRECT!", p))
			correctVoters = append(correctVoters, p)
			s.recordWin(p)
			// Restore to the block held before the pull.
			if slot, ok := s.dangerSlots[p]; ok {
				s.seatPlayer(p, slot)
			}
		} else {
			s.announce(fmt.Sprintf("❌ %s WRONG! Moving to exit...", p))
			s.recordLoss(p)
			s.players.Exclude(p)
			if pos, ok := s.layout.ExitPosition(); ok {
				s.teleport(p, pos)
			}
		}
	}

	// Anyone who never voted, chooser aside, sat the round out: a loss.
	for _, p := range s.players.Remaining() {
		if p == s.chooser || s.votes.HasVoted(p) {
			continue
		}
		s.recordLoss(p)
	}

	if len(correctVoters) > 0 {
		s.announce(fmt.Sprintf("🎉 Correct! The word was: %s\n✅ Players who guessed correctly: %s",
			secret, strings.Join(correctVoters, ", ")))
	}

	remaining := s.players.Remaining()
	s.announce(fmt.Sprintf("📊 Remaining players: %d (%s)", len(remaining), strings.Join(remaining, ", ")))

	switch len(remaining) {
	case 1:
		s.declareWinner(remaining[0])
	case 0:
		s.resetSession()
	default:
		s.announce("⏸️ Next round starting...")
		s.secretWord = ""
		s.revealed = make(map[rune]bool)
		s.votes.Reset()
		s.dangerMembers = nil
		s.dangerSlots = nil
		s.pendingTimer = s.schedule(s.timing.RestartDelay, roundStart{gen: s.gen})
	}
}

func (s *Session) declareWinner(winner string) {
	s.announce("🏆🏆🏆 Game Over!")
	if winner == s.chooser {
		s.announce(fmt.Sprintf("👑 The Chooser %s has defeated everyone! 👑", winner))
	} else {
		s.announce(fmt.Sprintf("👑 Final Winner: %s! 👑", winner))
	}

	if pos, ok := s.layout.SpawnPosition(); ok {
		s.teleport(winner, pos)
	}
	if err := s.stats.RecordChampion(winner); err != nil {
		s.log.Warn("recording champion failed", zap.String("player", winner), zap.Error(err))
	}
	if s.prizeActive && s.prizeAmount > 0 {
		s.payPrize(winner, s.prizeAmount)
	}

	s.resetSession()
	s.announce("🎮 New game? Type !join to start!")
}

// tipTiers are the transfer denominations the platform accepts, largest
// first for greedy decomposition.
var tipTiers = []int{10000, 5000, 1000, 500, 100, 50, 10, 5, 1}

func (s *Session) payPrize(winner string, amount int) {
	remaining := amount
	for _, tier := range tipTiers {
		for remaining >= tier {
			if err := s.room.Tip(s.ctx, winner, tier); err != nil {
				s.log.Warn("prize tip failed", zap.String("player", winner), zap.Int("tier", tier), zap.Error(err))
				s.announce(fmt.Sprintf("❌ Error sending gold to @%s. Check the bot's gold balance.", winner))
				return
			}
			remaining -= tier
		}
	}
	s.announce(fmt.Sprintf("🎁 Congratulations @%s! Prize of %d gold sent! 💰🏆", winner, amount))
}

func (s *Session) recordWin(player string) {
	if err := s.stats.RecordWin(player); err != nil {
		s.log.Warn("recording win failed", zap.String("player", player), zap.Error(err))
	}
}

func (s *Session) recordLoss(player string) {
	if err := s.stats.RecordLoss(player); err != nil {
		s.log.Warn("recording loss failed", zap.String("player", player), zap.Error(err))
	}
}

// resetSession returns to the inactive state between games. Bumping the
// generation invalidates every outstanding timer even if a cancel slipped.
func (s *Session) resetSession() {
	s.gen++
	s.sched.Cancel(s.chooserTimer)
	s.sched.Cancel(s.countdownTimer)
	s.sched.Cancel(s.votePollTimer)
	s.sched.Cancel(s.positionTimer)
	s.sched.Cancel(s.pendingTimer)
	s.chooserTimer = 0
	s.countdownTimer = 0
	s.votePollTimer = 0
	s.positionTimer = 0
	s.pendingTimer = 0

	s.active = false
	s.ending = false
	s.phase = PhaseNone
	s.round = 0
	s.chooser = ""
	s.secretWord = ""
	s.revealed = make(map[rune]bool)
	s.votes.Reset()
	s.dangerMembers = nil
	s.dangerSlots = nil
	s.players.Reset()
}

func (s *Session) handleChangeChooser(name string) error {
	if !s.active {
		return ErrNoActiveGame
	}
	found := ""
	for _, p := range s.players.Remaining() {
		if strings.EqualFold(p, name) {
			found = p
			break
		}
	}
	if found == "" {
		return ErrPlayerNotFound
	}

	old := s.chooser
	s.chooser = found
	s.secretWord = ""
	s.votes.Reset()

	if s.phase == PhaseChoosing {
		s.sched.Cancel(s.chooserTimer)
		s.chooserTimer = s.schedule(s.timing.ChooserTimeout, chooserTimeout{gen: s.gen, chooser: found})
		if pos, ok := s.layout.ChooserPosition(); ok {
			s.teleport(found, pos)
		}
	}

	if old != "" {
		s.announce(fmt.Sprintf("🔄 Chooser changed from @%s to @%s!", old, found))
	} else {
		s.announce(fmt.Sprintf("🔄 New chooser selected: @%s", found))
	}
	return nil
}

func (s *Session) handleForceEnd() error {
	s.announce("🏁 Game ended! Moving all players to spawn...")
	if pos, ok := s.layout.SpawnPosition(); ok {
		if list, err := s.room.Present(s.ctx); err == nil {
			for _, p := range list {
				s.teleport(p.Player, pos)
			}
		}
	}
	s.players.UnfreezeAll()
	s.resetSession()
	return nil
}

var validPrizeTiers = map[int]bool{1: true, 5: true, 10: true, 50: true, 100: true, 500: true, 1000: true}

func (s *Session) handleSetPrizeAmount(amount int) error {
	if !validPrizeTiers[amount] {
		return ErrInvalidPrizeAmount
	}
	s.prizeAmount = amount
	s.announce(fmt.Sprintf("💰 Prize amount set to: %d gold", amount))
	return nil
}
