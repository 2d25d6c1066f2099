package session

// Msg is anything the session loop accepts on its inbox. External commands
// carry an optional Reply channel; internal timer messages carry the round
// generation they were scheduled under so stale fires are dropped.
type Msg interface{ isSessionMsg() }

// Join admits a player to the game (starting a session if none is active).
type Join struct {
	Player string
	Reply  chan error
}

// Leave removes a player. Past the waiting phase this eliminates them.
type Leave struct {
	Player string
	Reply  chan error
}

// SubmitWord is the chooser's private word choice.
type SubmitWord struct {
	Player string
	Word   string
	Reply  chan error
}

// Vote casts a player's vote for a word.
type Vote struct {
	Player string
	Word   string
	Reply  chan error
}

// Hint reveals one letter of the secret word.
type Hint struct {
	Player string
	Reply  chan error
}

// ForceEnd tears the session down and sends everyone to spawn.
type ForceEnd struct {
	Reply chan error
}

// ChangeChooser reassigns the chooser role.
type ChangeChooser struct {
	Player string
	Reply  chan error
}

// Kick eliminates a player by operator decree.
type Kick struct {
	Player string
	Reply  chan error
}

// Freeze shields a player from danger-zone pulls; Unfreeze reverts it.
type Freeze struct{ Player string }
type Unfreeze struct{ Player string }

// SetPrizeActive toggles the winner payout.
type SetPrizeActive struct{ Active bool }

// SetPrizeAmount sets the payout; the amount must be a valid tip tier.
type SetPrizeAmount struct {
	Amount int
	Reply  chan error
}

// SetMinPlayers sets the minimum players required to start (0 = none).
type SetMinPlayers struct{ N int }

// ResetSettings clears min players and disables the prize.
type ResetSettings struct{}

// GetState reflects internal state without data races; test-only.
type GetState struct{ Reply chan View }

// Shutdown stops the loop and all timers.
type Shutdown struct{}

func (Join) isSessionMsg()           {}
func (Leave) isSessionMsg()          {}
func (SubmitWord) isSessionMsg()     {}
func (Vote) isSessionMsg()           {}
func (Hint) isSessionMsg()           {}
func (ForceEnd) isSessionMsg()       {}
func (ChangeChooser) isSessionMsg()  {}
func (Kick) isSessionMsg()           {}
func (Freeze) isSessionMsg()         {}
func (Unfreeze) isSessionMsg()       {}
func (SetPrizeActive) isSessionMsg() {}
func (SetPrizeAmount) isSessionMsg() {}
func (SetMinPlayers) isSessionMsg()  {}
func (ResetSettings) isSessionMsg()  {}
func (GetState) isSessionMsg()       {}
func (Shutdown) isSessionMsg()       {}

// Internal timer messages. Each validates its generation against the
// session's current one before acting, so a cancelled or superseded timer
// firing late is a no-op.

type countdownTick struct {
	gen   uint64
	stage int
}

type chooserTimeout struct {
	gen     uint64
	chooser string
}

type votePoll struct{ gen uint64 }

type positionPoll struct{ gen uint64 }

type roundStart struct{ gen uint64 }

type dangerScore struct{ gen uint64 }

func (countdownTick) isSessionMsg()  {}
func (chooserTimeout) isSessionMsg() {}
func (votePoll) isSessionMsg()       {}
func (positionPoll) isSessionMsg()   {}
func (roundStart) isSessionMsg()     {}
func (dangerScore) isSessionMsg()    {}
