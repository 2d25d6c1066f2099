package bot

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/titomostafa/guessface-bot/internal/ledger"
	"github.com/titomostafa/guessface-bot/internal/platform"
	"github.com/titomostafa/guessface-bot/internal/roster"
	"github.com/titomostafa/guessface-bot/internal/session"
	"github.com/titomostafa/guessface-bot/internal/stats"
)

type fakeRoom struct {
	mu       sync.Mutex
	whispers map[string][]string
}

func newFakeRoom() *fakeRoom { return &fakeRoom{whispers: make(map[string][]string)} }

func (f *fakeRoom) Announce(context.Context, string) error { return nil }

func (f *fakeRoom) Whisper(_ context.Context, player, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.whispers[player] = append(f.whispers[player], text)
	return nil
}

func (f *fakeRoom) Teleport(context.Context, string, platform.Position) error { return nil }

func (f *fakeRoom) Present(context.Context) ([]platform.Presence, error) {
	return nil, errors.New("presence unavailable")
}

func (f *fakeRoom) Tip(context.Context, string, int) error { return nil }

// whisperedWithin polls for a whisper to player containing substr; the bot
// dispatches commands on goroutines, so outcomes land asynchronously.
func (f *fakeRoom) whisperedWithin(t *testing.T, player, substr string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		for _, w := range f.whispers[player] {
			if strings.Contains(w, substr) {
				f.mu.Unlock()
				return w
			}
		}
		f.mu.Unlock()
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("no whisper to %s containing %q", player, substr)
	return "" // unreachable
}

type fakeStats struct{ top []stats.PlayerStats }

func (f *fakeStats) RecordWin(string) error      { return nil }
func (f *fakeStats) RecordLoss(string) error     { return nil }
func (f *fakeStats) RecordChampion(string) error { return nil }
func (f *fakeStats) Get(p string) (stats.PlayerStats, error) {
	return stats.PlayerStats{Username: p, GamesPlayed: 4, GamesWon: 3, GamesLost: 1}, nil
}
func (f *fakeStats) Top(n int) ([]stats.PlayerStats, error) {
	if n < len(f.top) {
		return f.top[:n], nil
	}
	return f.top, nil
}

// firstSource rigs every draw to index 0, making the chooser the first
// joiner.
type firstSource struct{}

func (firstSource) Int63() int64 { return 0 }
func (firstSource) Seed(int64)   {}

func testTimings() session.Timings {
	return session.Timings{
		WaitPoll:       5 * time.Millisecond,
		CountdownStep:  5 * time.Millisecond,
		CountdownFrom:  10,
		FinalFrom:      1,
		FinalStep:      2 * time.Millisecond,
		ChooserTimeout: time.Second,
		VotePoll:       5 * time.Millisecond,
		PositionPoll:   5 * time.Millisecond,
		RestartDelay:   5 * time.Millisecond,
		DangerPause:    5 * time.Millisecond,
	}
}

func newTestBot(t *testing.T, room *fakeRoom, rec stats.Recorder, owners []string) (*Bot, *session.Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s := session.New(ctx, session.Config{
		Room:    room,
		Stats:   rec,
		Log:     zap.NewNop(),
		Timings: testTimings(),
		Rand:    rand.New(firstSource{}),
	})
	t.Cleanup(func() {
		s.Inbox() <- session.Shutdown{}
		cancel()
	})
	return New(s, room, rec, owners, zap.NewNop()), s
}

func getView(t *testing.T, s *session.Session) session.View {
	t.Helper()
	reply := make(chan session.View, 1)
	s.Inbox() <- session.GetState{Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for view")
		return session.View{} // unreachable
	}
}

func waitView(t *testing.T, s *session.Session, cond func(session.View) bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond(getView(t, s)) {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRejectionText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{roster.ErrEnding, "Game is ending"},
		{roster.ErrExcluded, "eliminated"},
		{roster.ErrPhaseLocked, "already started"},
		{roster.ErrNotInGame, "not in the game"},
		{ledger.ErrAlreadyVoted, "already voted"},
		{ledger.ErrInvalidWord, "BERLIN, REYKJAVIK"},
		{ledger.ErrNotEligible, "not in the game"},
		{ledger.ErrWrongPhase, "no active game"},
		{session.ErrNotChooser, "chooser picks the word"},
		{session.ErrChooserCannotVote, "you chose the word"},
		{session.ErrNoActiveGame, "no active game"},
		{session.ErrPlayerNotFound, "not found"},
		{session.ErrInvalidPrizeAmount, "1, 5, 10, 50, 100, 500, 1000"},
		{session.ErrAllLettersRevealed, "revealed"},
		{errors.New("socket torn"), "socket torn"},
	}
	for _, tt := range tests {
		assert.Contains(t, rejectionText(tt.err), tt.want, "error %v", tt.err)
	}
}

func TestWhisperedCityIsSecretForChooserAndVoteForOthers(t *testing.T) {
	room := newFakeRoom()
	b, s := newTestBot(t, room, &fakeStats{}, nil)

	// seat alice before bob so the rigged rand picks her as chooser
	b.OnPublicMessage("alice", "!join")
	waitView(t, s, func(v session.View) bool { return len(v.Players) == 1 }, "first join")
	b.OnPublicMessage("bob", "!join")
	waitView(t, s, func(v session.View) bool { return v.Phase == session.PhaseChoosing }, "choosing")

	v := getView(t, s)
	require.Equal(t, "alice", v.Chooser)

	// the chooser's whispered city becomes the secret word
	b.OnPrivateMessage("alice", "paris")
	waitView(t, s, func(v session.View) bool { return v.Phase == session.PhaseDiscussion }, "discussion")

	// anyone else's whispered city falls through to a vote
	b.OnPrivateMessage("bob", "berlin")
	waitView(t, s, func(v session.View) bool { return v.VoteCount == 1 }, "vote recorded")
}

func TestRejectionIsWhisperedBack(t *testing.T) {
	room := newFakeRoom()
	b, s := newTestBot(t, room, &fakeStats{}, nil)

	b.OnPublicMessage("alice", "!join")
	b.OnPublicMessage("bob", "!join")
	waitView(t, s, func(v session.View) bool { return v.Phase == session.PhaseChoosing }, "choosing")

	b.OnPublicMessage("carol", "!join")
	room.whisperedWithin(t, "carol", "already started")
}

func TestOwnerOnlyCommands(t *testing.T) {
	room := newFakeRoom()
	b, s := newTestBot(t, room, &fakeStats{}, []string{"Boss"})

	b.OnPublicMessage("alice", "!join")
	b.OnPublicMessage("bob", "!join")
	waitView(t, s, func(v session.View) bool { return v.Active }, "active game")

	b.OnPublicMessage("mallory", "!end")
	room.whisperedWithin(t, "mallory", "owner only")
	assert.True(t, getView(t, s).Active, "non-owner must not end the game")

	// owner match is case-insensitive
	b.OnPublicMessage("boss", "!end")
	waitView(t, s, func(v session.View) bool { return !v.Active }, "game ended by owner")
}

func TestStatsAndRanklistWhispers(t *testing.T) {
	room := newFakeRoom()
	rec := &fakeStats{top: []stats.PlayerStats{
		{Username: "alice", GamesWon: 9},
		{Username: "bob", GamesWon: 4},
	}}
	b, _ := newTestBot(t, room, rec, nil)

	b.OnPrivateMessage("alice", "stats")
	got := room.whisperedWithin(t, "alice", "Your stats")
	assert.Contains(t, got, "Games played: 4")
	assert.Contains(t, got, "Won: 3")

	b.OnPublicMessage("bob", "!ranklist")
	got = room.whisperedWithin(t, "bob", "Top 5 Players")
	assert.Contains(t, got, "1. alice: 9 wins")
	assert.Contains(t, got, "2. bob: 4 wins")
}

func TestHelpListsCommands(t *testing.T) {
	room := newFakeRoom()
	b, _ := newTestBot(t, room, &fakeStats{}, nil)

	b.OnPublicMessage("alice", "!help")
	got := room.whisperedWithin(t, "alice", "Commands")
	assert.Contains(t, got, "!join")
	assert.Contains(t, got, "!ranklist")
}
