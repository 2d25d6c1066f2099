// Package bot bridges platform room events to the session: it parses
// commands, gates the operator-only ones, forwards intents to the session
// inbox, and whispers rejections back to the acting player.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/titomostafa/guessface-bot/internal/commands"
	"github.com/titomostafa/guessface-bot/internal/ledger"
	"github.com/titomostafa/guessface-bot/internal/platform"
	"github.com/titomostafa/guessface-bot/internal/roster"
	"github.com/titomostafa/guessface-bot/internal/session"
	"github.com/titomostafa/guessface-bot/internal/stats"
)

type Bot struct {
	session *session.Session
	room    platform.Room
	stats   stats.Recorder
	log     *zap.Logger
	owners  map[string]bool
}

func New(s *session.Session, room platform.Room, rec stats.Recorder, owners []string, log *zap.Logger) *Bot {
	om := make(map[string]bool, len(owners))
	for _, o := range owners {
		om[strings.ToLower(o)] = true
	}
	if rec == nil {
		rec = stats.Noop{}
	}
	return &Bot{session: s, room: room, stats: rec, log: log, owners: om}
}

func (b *Bot) isOwner(player string) bool {
	return b.owners[strings.ToLower(player)]
}

// Handler callbacks run on the platform client's read loop; dispatch on a
// goroutine so a busy session never stalls the connection.

func (b *Bot) OnPlayerJoined(player string) {
	b.log.Info("player entered room", zap.String("player", player))
}

func (b *Bot) OnPlayerLeft(player string) {
	go func() {
		// A room exit counts as leaving the game; not being in the game
		// is the common case and not an error.
		if err := b.ask(session.Leave{Player: player}); err != nil && !errors.Is(err, roster.ErrNotInGame) {
			b.log.Warn("leave on room exit failed", zap.String("player", player), zap.Error(err))
		}
	}()
}

func (b *Bot) OnPublicMessage(player, text string) {
	intent, ok := commands.ParseChat(text)
	if !ok {
		return
	}
	go b.dispatchChat(player, intent)
}

func (b *Bot) OnPrivateMessage(player, text string) {
	intent, ok := commands.ParseWhisper(text)
	if !ok {
		return
	}
	go b.dispatchWhisper(player, intent)
}

func (b *Bot) dispatchChat(player string, intent commands.Intent) {
	switch it := intent.(type) {
	case commands.Join:
		b.replyErr(player, b.ask(session.Join{Player: player}))
	case commands.Leave:
		b.replyErr(player, b.ask(session.Leave{Player: player}))
	case commands.Hint:
		b.replyErr(player, b.ask(session.Hint{Player: player}))
	case commands.Vote:
		b.replyErr(player, b.ask(session.Vote{Player: player, Word: it.Word}))
	case commands.Stats:
		b.whisperStats(player)
	case commands.Ranklist:
		b.whisperRanklist(player)
	case commands.Help:
		b.whisper(player, helpText)

	case commands.ForceEnd:
		if !b.requireOwner(player) {
			return
		}
		b.replyErr(player, b.ask(session.ForceEnd{}))
	case commands.ChangeChooser:
		if !b.requireOwner(player) {
			return
		}
		b.replyErr(player, b.ask(session.ChangeChooser{Player: it.Player}))
	case commands.Kick:
		if !b.requireOwner(player) {
			return
		}
		b.replyErr(player, b.ask(session.Kick{Player: it.Player}))
	case commands.Freeze:
		if !b.requireOwner(player) {
			return
		}
		b.send(session.Freeze{Player: it.Player})
	case commands.Unfreeze:
		if !b.requireOwner(player) {
			return
		}
		b.send(session.Unfreeze{Player: it.Player})
	case commands.PrizeOn:
		if !b.requireOwner(player) {
			return
		}
		b.send(session.SetPrizeActive{Active: true})
	case commands.PrizeOff:
		if !b.requireOwner(player) {
			return
		}
		b.send(session.SetPrizeActive{Active: false})
	case commands.PrizeAmount:
		if !b.requireOwner(player) {
			return
		}
		b.replyErr(player, b.ask(session.SetPrizeAmount{Amount: it.Amount}))
	case commands.MinPlayers:
		if !b.requireOwner(player) {
			return
		}
		b.send(session.SetMinPlayers{N: it.N})
	case commands.ResetSettings:
		if !b.requireOwner(player) {
			return
		}
		b.send(session.ResetSettings{})
	}
}

func (b *Bot) dispatchWhisper(player string, intent commands.Intent) {
	switch it := intent.(type) {
	case commands.Stats:
		b.whisperStats(player)
	case commands.Help:
		b.whisper(player, helpText)
	case commands.Vote:
		b.replyErr(player, b.ask(session.Vote{Player: player, Word: it.Word}))
	case commands.Word:
		// A bare city name is the chooser's secret during choosing;
		// otherwise treat it as a vote.
		err := b.ask(session.SubmitWord{Player: player, Word: it.Word})
		if errors.Is(err, session.ErrNotChooser) || errors.Is(err, ledger.ErrWrongPhase) {
			err = b.ask(session.Vote{Player: player, Word: it.Word})
		}
		b.replyErr(player, err)
	}
}

func (b *Bot) requireOwner(player string) bool {
	if b.isOwner(player) {
		return true
	}
	b.whisper(player, "⛔ This command is for the owner only.")
	return false
}

// ask sends a command and waits for the session's verdict.
func (b *Bot) ask(msg session.Msg) error {
	reply := make(chan error, 1)
	switch m := msg.(type) {
	case session.Join:
		m.Reply = reply
		msg = m
	case session.Leave:
		m.Reply = reply
		msg = m
	case session.SubmitWord:
		m.Reply = reply
		msg = m
	case session.Vote:
		m.Reply = reply
		msg = m
	case session.Hint:
		m.Reply = reply
		msg = m
	case session.ForceEnd:
		m.Reply = reply
		msg = m
	case session.ChangeChooser:
		m.Reply = reply
		msg = m
	case session.Kick:
		m.Reply = reply
		msg = m
	case session.SetPrizeAmount:
		m.Reply = reply
		msg = m
	default:
		b.session.Inbox() <- msg
		return nil
	}
	b.session.Inbox() <- msg
	return <-reply
}

func (b *Bot) send(msg session.Msg) {
	b.session.Inbox() <- msg
}

// replyErr maps a rejection to a private message for the acting player.
// Rejections are local: nobody else in the room hears about them.
func (b *Bot) replyErr(player string, err error) {
	if err == nil {
		return
	}
	b.whisper(player, rejectionText(err))
}

func rejectionText(err error) string {
	switch {
	case errors.Is(err, roster.ErrEnding):
		return "❌ Game is ending. Try again in a moment!"
	case errors.Is(err, roster.ErrExcluded):
		return "❌ You have been eliminated from the game!"
	case errors.Is(err, roster.ErrPhaseLocked):
		return "❌ Cannot join now - game has already started!"
	case errors.Is(err, roster.ErrNotInGame):
		return "❌ You are not in the game!"
	case errors.Is(err, ledger.ErrAlreadyVoted):
		return "You already voted! 🗳️"
	case errors.Is(err, ledger.ErrInvalidWord):
		return "Invalid word! Allowed: BERLIN, REYKJAVIK, NEW YORK, LONDON, MOSCOW, PARIS"
	case errors.Is(err, ledger.ErrNotEligible):
		return "❌ You are not in the game!"
	case errors.Is(err, ledger.ErrWrongPhase):
		return "There is no active game right now!"
	case errors.Is(err, session.ErrNotChooser):
		return "Only the chooser picks the word! 🚫"
	case errors.Is(err, session.ErrChooserCannotVote):
		return "You can't vote - you chose the word! 🚫"
	case errors.Is(err, session.ErrNoActiveGame):
		return "There is no active game right now!"
	case errors.Is(err, session.ErrPlayerNotFound):
		return "❌ Player not found in game!"
	case errors.Is(err, session.ErrInvalidPrizeAmount):
		return "❌ Invalid prize amount! Valid tiers: 1, 5, 10, 50, 100, 500, 1000"
	case errors.Is(err, session.ErrAllLettersRevealed):
		return "All letters have been revealed!"
	default:
		return "❌ " + err.Error()
	}
}

const helpText = "📋 Commands:\n" +
	"• !join / !leave - Enter or quit the game\n" +
	"• !vote [city] or whisper a city name - Vote\n" +
	"• !hint - Reveal one letter of the word\n" +
	"• !stats - Your wins/losses\n" +
	"• !ranklist - Top 5 players\n" +
	"👑 Owner: !end, kick @user, freeze/unfreeze @user,\n" +
	"!change chooser @user, !prizeon/!prizeoff, !prizeamount [n],\n" +
	"!minplayers [n], !reset"

func (b *Bot) whisperRanklist(player string) {
	top, err := b.stats.Top(5)
	if err != nil {
		b.log.Warn("ranklist lookup failed", zap.Error(err))
		return
	}
	var sb strings.Builder
	sb.WriteString("🏆 Top 5 Players:\n")
	for i, ps := range top {
		fmt.Fprintf(&sb, "%d. %s: %d wins\n", i+1, ps.Username, ps.GamesWon)
	}
	b.whisper(player, sb.String())
}

func (b *Bot) whisperStats(player string) {
	ps, err := b.stats.Get(player)
	if err != nil {
		b.log.Warn("stats lookup failed", zap.String("player", player), zap.Error(err))
		return
	}
	b.whisper(player, fmt.Sprintf("📊 Your stats:\nGames played: %d\nWon: %d\nLost: %d",
		ps.GamesPlayed, ps.GamesWon, ps.GamesLost))
}

func (b *Bot) whisper(player, text string) {
	if err := b.room.Whisper(context.Background(), player, text); err != nil {
		b.log.Warn("whisper failed", zap.String("player", player), zap.Error(err))
	}
}
