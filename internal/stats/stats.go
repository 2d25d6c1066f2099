// Package stats persists per-player game counters.
package stats

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlayerStats is one player's lifetime record in this room.
type PlayerStats struct {
	Username    string `gorm:"primaryKey"`
	GamesPlayed int
	GamesWon    int
	GamesLost   int
}

// Recorder is what the session writes through after each round resolution.
// Implementations must be safe for concurrent use.
type Recorder interface {
	RecordWin(username string) error
	RecordLoss(username string) error
	// RecordChampion marks the session winner without counting a played
	// round; round outcomes were already recorded as they resolved.
	RecordChampion(username string) error
	Get(username string) (PlayerStats, error)
	// Top returns up to n players ordered by games won, most first.
	Top(n int) ([]PlayerStats, error)
}

// Store is the postgres-backed Recorder.
type Store struct {
	db *gorm.DB
}

// Open connects and migrates the stats table.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}
	if err := db.AutoMigrate(&PlayerStats{}); err != nil {
		return nil, fmt.Errorf("migrate stats: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) RecordWin(username string) error {
	return s.bump(username, 1, 0)
}

func (s *Store) RecordLoss(username string) error {
	return s.bump(username, 0, 1)
}

func (s *Store) RecordChampion(username string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "username"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"games_won": gorm.Expr("player_stats.games_won + 1"),
		}),
	}).Create(&PlayerStats{Username: username, GamesWon: 1}).Error
}

func (s *Store) bump(username string, won, lost int) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "username"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"games_played": gorm.Expr("player_stats.games_played + 1"),
			"games_won":    gorm.Expr("player_stats.games_won + ?", won),
			"games_lost":   gorm.Expr("player_stats.games_lost + ?", lost),
		}),
	}).Create(&PlayerStats{
		Username:    username,
		GamesPlayed: 1,
		GamesWon:    won,
		GamesLost:   lost,
	}).Error
}

func (s *Store) Get(username string) (PlayerStats, error) {
	var ps PlayerStats
	err := s.db.First(&ps, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PlayerStats{Username: username}, nil
	}
	return ps, err
}

func (s *Store) Top(n int) ([]PlayerStats, error) {
	var out []PlayerStats
	err := s.db.Order("games_won desc").Limit(n).Find(&out).Error
	return out, err
}

// Noop discards all writes; used when no database is configured.
type Noop struct{}

func (Noop) RecordWin(string) error      { return nil }
func (Noop) RecordLoss(string) error     { return nil }
func (Noop) RecordChampion(string) error { return nil }
func (Noop) Get(username string) (PlayerStats, error) {
	return PlayerStats{Username: username}, nil
}
func (Noop) Top(int) ([]PlayerStats, error) { return nil, nil }
