// Package session runs the round state machine for one room.
//
// All session state is owned by a single goroutine. Player actions and
// timer fires alike arrive as typed messages on the inbox channel, so the
// two sources of concurrency (external events, background timers) are
// serialized by construction. Background timers never mutate state; they
// enqueue a message that the loop re-validates against the current phase
// and round generation before acting on.
package session

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/titomostafa/guessface-bot/internal/layout"
	"github.com/titomostafa/guessface-bot/internal/ledger"
	"github.com/titomostafa/guessface-bot/internal/platform"
	"github.com/titomostafa/guessface-bot/internal/roster"
	"github.com/titomostafa/guessface-bot/internal/sched"
	"github.com/titomostafa/guessface-bot/internal/stats"
)

// Phase is the session's current stage. None doubles as the initial and
// terminal state between games.
type Phase string

const (
	PhaseNone       Phase = ""
	PhaseWaiting    Phase = "waiting"
	PhaseChoosing   Phase = "choosing"
	PhaseDiscussion Phase = "discussion"
	PhaseVoting     Phase = "voting"
)

// stage markers for the join countdown.
const stageWaitMin = -1

// Timings collects every delay the session schedules. Tests compress them.
type Timings struct {
	// WaitPoll is the re-check interval while below MinPlayers.
	WaitPoll time.Duration
	// CountdownStep separates the long countdown announcements (50s down
	// to 10s in the default configuration).
	CountdownStep time.Duration
	// CountdownFrom is the first long-countdown announcement in seconds.
	CountdownFrom int
	// FinalFrom is the first per-second announcement.
	FinalFrom int
	// FinalStep separates the per-second announcements.
	FinalStep time.Duration
	// ChooserTimeout is how long the chooser has to pick a word.
	ChooserTimeout time.Duration
	// VotePoll is the discussion completion re-check interval.
	VotePoll time.Duration
	// PositionPoll is how often waiting players are nudged back onto
	// their blocks.
	PositionPoll time.Duration
	// RestartDelay precedes a round restart (next round, replacement
	// chooser).
	RestartDelay time.Duration
	// DangerPause is how long pulled players stand in the danger zone
	// before their votes are scored.
	DangerPause time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		WaitPoll:       10 * time.Second,
		CountdownStep:  10 * time.Second,
		CountdownFrom:  50,
		FinalFrom:      9,
		FinalStep:      time.Second,
		ChooserTimeout: 60 * time.Second,
		VotePoll:       2 * time.Second,
		PositionPoll:   time.Second,
		RestartDelay:   2 * time.Second,
		DangerPause:    8 * time.Second,
	}
}

// Config wires the session's collaborators and policy knobs.
type Config struct {
	Room    platform.Room
	Layout  *layout.Layout
	Stats   stats.Recorder
	Log     *zap.Logger
	Timings Timings
	// MinPlayers is the initial minimum-player requirement.
	MinPlayers int
	// Rand drives chooser selection, danger draws, and hint letters.
	// Defaults to a time-seeded source.
	Rand *rand.Rand
}

// Session is the singleton round engine for one room.
type Session struct {
	inbox  chan Msg
	room   platform.Room
	layout *layout.Layout
	stats  stats.Recorder
	log    *zap.Logger
	timing Timings
	sched  *sched.Scheduler
	rng    *rand.Rand
	ctx    context.Context
	cancel context.CancelFunc

	phase       Phase
	round       int
	active      bool
	ending      bool
	minPlayers  int
	prizeActive bool
	prizeAmount int

	players *roster.Roster
	votes   *ledger.Ledger

	chooser    string
	secretWord string
	revealed   map[rune]bool

	dangerMembers []string
	dangerSlots   map[string]int

	// gen is bumped whenever outstanding timers become invalid (round
	// start, session reset). Timer messages carrying an older gen are
	// dropped by the loop.
	gen            uint64
	chooserTimer   sched.Handle
	countdownTimer sched.Handle
	votePollTimer  sched.Handle
	positionTimer  sched.Handle
	pendingTimer   sched.Handle
}

// New starts a session loop. Shut it down with the Shutdown message or by
// cancelling the parent context.
func New(parent context.Context, cfg Config) *Session {
	ctx, cancel := context.WithCancel(parent)
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.Noop{}
	}
	if cfg.Layout == nil {
		cfg.Layout = &layout.Layout{}
	}
	s := &Session{
		inbox:      make(chan Msg, 64),
		room:       cfg.Room,
		layout:     cfg.Layout,
		stats:      cfg.Stats,
		log:        cfg.Log,
		timing:     cfg.Timings,
		sched:      sched.New(),
		rng:        rng,
		ctx:        ctx,
		cancel:     cancel,
		minPlayers: cfg.MinPlayers,
		players:    roster.New(),
		votes:      ledger.New(),
		revealed:   make(map[rune]bool),
	}
	go s.loop()
	return s
}

// Inbox is where commands and events are delivered.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.sched.Stop()
			return
		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				reply(msg.Reply, s.handleJoin(msg.Player))
			case Leave:
				reply(msg.Reply, s.handleLeave(msg.Player))
			case SubmitWord:
				reply(msg.Reply, s.handleSubmitWord(msg.Player, msg.Word))
			case Vote:
				reply(msg.Reply, s.handleVote(msg.Player, msg.Word))
			case Hint:
				reply(msg.Reply, s.handleHint(msg.Player))
			case ForceEnd:
				reply(msg.Reply, s.handleForceEnd())
			case ChangeChooser:
				reply(msg.Reply, s.handleChangeChooser(msg.Player))
			case Kick:
				reply(msg.Reply, s.handleKick(msg.Player))
			case Freeze:
				s.players.Freeze(msg.Player)
				s.announce("❄️ " + msg.Player + " is now FROZEN (stays on block, no danger zone)")
			case Unfreeze:
				s.players.Unfreeze(msg.Player)
				s.announce("🔥 " + msg.Player + " is now UNFROZEN (can go to danger zone)")
			case SetPrizeActive:
				s.prizeActive = msg.Active
				if msg.Active {
					s.announce("✅ Prize system enabled!")
				} else {
					s.announce("❌ Prize system disabled!")
				}
			case SetPrizeAmount:
				reply(msg.Reply, s.handleSetPrizeAmount(msg.Amount))
			case SetMinPlayers:
				s.minPlayers = msg.N
			case ResetSettings:
				s.minPlayers = 0
				s.prizeActive = false
				s.announce("✅ Game settings reset! No minimum players, prize OFF.")
			case GetState:
				msg.Reply <- s.view()
			case Shutdown:
				s.sched.Stop()
				s.cancel()
				return

			case countdownTick:
				s.handleCountdownTick(msg)
			case chooserTimeout:
				s.handleChooserTimeout(msg)
			case votePoll:
				s.handleVotePoll(msg)
			case positionPoll:
				s.handlePositionPoll(msg)
			case roundStart:
				s.handleRoundStart(msg)
			case dangerScore:
				s.handleDangerScore(msg)
			}
		}
	}
}

func reply(ch chan error, err error) {
	if ch != nil {
		ch <- err
	}
}

// View is a race-free copy of session state for tests and the HTTP layer.
type View struct {
	Phase         Phase
	Round         int
	Active        bool
	Ending        bool
	Players       []string
	Chooser       string
	SecretWord    string
	WordDisplay   string
	DangerMembers []string
	VoteCount     int
	MinPlayers    int
	PrizeActive   bool
	PrizeAmount   int
}

func (s *Session) view() View {
	return View{
		Phase:         s.phase,
		Round:         s.round,
		Active:        s.active,
		Ending:        s.ending,
		Players:       s.players.Remaining(),
		Chooser:       s.chooser,
		SecretWord:    s.secretWord,
		WordDisplay:   s.wordDisplay(),
		DangerMembers: append([]string(nil), s.dangerMembers...),
		VoteCount:     s.votes.Len(),
		MinPlayers:    s.minPlayers,
		PrizeActive:   s.prizeActive,
		PrizeAmount:   s.prizeAmount,
	}
}

// Best-effort outbound effects. A failure here never rolls back a state
// transition; the player may simply have left.

func (s *Session) announce(text string) {
	if err := s.room.Announce(s.ctx, text); err != nil {
		s.log.Warn("announce failed", zap.Error(err))
	}
}

func (s *Session) whisper(player, text string) {
	if err := s.room.Whisper(s.ctx, player, text); err != nil {
		s.log.Warn("whisper failed", zap.String("player", player), zap.Error(err))
	}
}

func (s *Session) teleport(player string, pos platform.Position) {
	if err := s.room.Teleport(s.ctx, player, pos); err != nil {
		s.log.Warn("teleport failed", zap.String("player", player), zap.Error(err))
	}
}

// present returns usernames currently in the room, or nil on error (the
// caller then treats presence as unknown and keeps waiting).
func (s *Session) present() map[string]bool {
	list, err := s.room.Present(s.ctx)
	if err != nil {
		s.log.Warn("presence lookup failed", zap.Error(err))
		return nil
	}
	out := make(map[string]bool, len(list))
	for _, p := range list {
		out[p.Player] = true
	}
	return out
}

// schedule arms a timer that feeds msg back into the loop.
func (s *Session) schedule(d time.Duration, msg Msg) sched.Handle {
	return s.sched.After(d, func() {
		select {
		case s.inbox <- msg:
		case <-s.ctx.Done():
		}
	})
}
