// Package commands turns raw chat and whisper text into typed intents.
// Authorization and game rules live elsewhere; this package only parses.
package commands

import (
	"strconv"
	"strings"

	"github.com/titomostafa/guessface-bot/internal/words"
)

type Intent interface{ isIntent() }

type Join struct{}
type Leave struct{}
type Hint struct{}
type Stats struct{}
type Ranklist struct{}
type Help struct{}
type ForceEnd struct{}
type PrizeOn struct{}
type PrizeOff struct{}
type ResetSettings struct{}

// Vote is an explicit "!vote <word>" or a bare vocabulary word.
type Vote struct{ Word string }

// Word is a bare vocabulary word whispered to the bot; depending on phase
// and sender it is the chooser's secret word or a vote.
type Word struct{ Word string }

type ChangeChooser struct{ Player string }
type Kick struct{ Player string }
type Freeze struct{ Player string }
type Unfreeze struct{ Player string }
type PrizeAmount struct{ Amount int }
type MinPlayers struct{ N int }

func (Join) isIntent()          {}
func (Leave) isIntent()         {}
func (Hint) isIntent()          {}
func (Stats) isIntent()         {}
func (Ranklist) isIntent()      {}
func (Help) isIntent()          {}
func (ForceEnd) isIntent()      {}
func (PrizeOn) isIntent()       {}
func (PrizeOff) isIntent()      {}
func (ResetSettings) isIntent() {}
func (Vote) isIntent()          {}
func (Word) isIntent()          {}
func (ChangeChooser) isIntent() {}
func (Kick) isIntent()          {}
func (Freeze) isIntent()        {}
func (Unfreeze) isIntent()      {}
func (PrizeAmount) isIntent()   {}
func (MinPlayers) isIntent()    {}

// ParseChat parses a public room message. ok is false for ordinary table
// talk the bot should ignore.
func ParseChat(text string) (Intent, bool) {
	msg := strings.ToLower(strings.TrimSpace(text))
	switch {
	case msg == "!join":
		return Join{}, true
	case msg == "!leave":
		return Leave{}, true
	case msg == "!hint":
		return Hint{}, true
	case msg == "!stats":
		return Stats{}, true
	case msg == "!ranklist":
		return Ranklist{}, true
	case msg == "!help" || msg == "!commands":
		return Help{}, true
	case msg == "!end":
		return ForceEnd{}, true
	case msg == "!prizeon":
		return PrizeOn{}, true
	case msg == "!prizeoff":
		return PrizeOff{}, true
	case msg == "!reset":
		return ResetSettings{}, true
	case strings.HasPrefix(msg, "!vote "):
		word := strings.TrimSpace(msg[len("!vote "):])
		if word == "" {
			return nil, false
		}
		return Vote{Word: word}, true
	case strings.HasPrefix(msg, "!change chooser "):
		return ChangeChooser{Player: target(text, "!change chooser ")}, true
	case strings.HasPrefix(msg, "kick "):
		return Kick{Player: target(text, "kick ")}, true
	case strings.HasPrefix(msg, "freeze "):
		return Freeze{Player: target(text, "freeze ")}, true
	case strings.HasPrefix(msg, "unfreeze "):
		return Unfreeze{Player: target(text, "unfreeze ")}, true
	case strings.HasPrefix(msg, "!prizeamount "):
		n, err := strconv.Atoi(strings.TrimSpace(msg[len("!prizeamount "):]))
		if err != nil {
			return nil, false
		}
		return PrizeAmount{Amount: n}, true
	case strings.HasPrefix(msg, "!minplayers "):
		n, err := strconv.Atoi(strings.TrimSpace(msg[len("!minplayers "):]))
		if err != nil || n < 0 {
			return nil, false
		}
		return MinPlayers{N: n}, true
	}
	return nil, false
}

// ParseWhisper parses a private message. A bare vocabulary word is a Word
// intent; the session decides whether it is the chooser's secret or a vote.
func ParseWhisper(text string) (Intent, bool) {
	msg := strings.ToLower(strings.TrimSpace(text))
	switch {
	case msg == "!stats" || msg == "stats":
		return Stats{}, true
	case msg == "!help" || msg == "!commands":
		return Help{}, true
	case strings.HasPrefix(msg, "!vote "):
		word := strings.TrimSpace(msg[len("!vote "):])
		if word == "" {
			return nil, false
		}
		return Vote{Word: word}, true
	case words.Valid(msg):
		return Word{Word: words.Normalize(msg)}, true
	}
	return nil, false
}

// target slices the argument out of the original (case-preserved) text so
// usernames keep their casing; prefix matching happened on the lowered copy.
func target(text, prefix string) string {
	t := strings.TrimSpace(text)
	t = strings.TrimSpace(t[len(prefix):])
	return strings.TrimPrefix(t, "@")
}
