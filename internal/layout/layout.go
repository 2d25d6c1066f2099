// Package layout holds the room geometry the game plays on: the rows of
// player blocks and the named zones. The session reads it to resolve a slot
// index or a danger-zone seat to a world position; round logic never
// mutates it.
package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/titomostafa/guessface-bot/internal/platform"
)

// Row is a fixed-size run of player blocks.
type Row struct {
	Blocks []platform.Position `json:"blocks"`
}

// Layout is the full room configuration. Zones may be unset in a fresh
// room; callers must handle the ok=false case.
type Layout struct {
	Rows       []Row              `json:"rows"`
	DangerRows []Row              `json:"danger_rows"`
	Chooser    *platform.Position `json:"chooser_pos"`
	Spawn      *platform.Position `json:"spawn_pos"`
	Exit       *platform.Position `json:"exit_pos"`
}

// SlotPosition resolves a player slot index to its block, walking the rows
// in order.
func (l *Layout) SlotPosition(slot int) (platform.Position, bool) {
	return rowPosition(l.Rows, slot)
}

// DangerPosition resolves the i-th danger-zone seat.
func (l *Layout) DangerPosition(i int) (platform.Position, bool) {
	return rowPosition(l.DangerRows, i)
}

func rowPosition(rows []Row, idx int) (platform.Position, bool) {
	if idx < 0 {
		return platform.Position{}, false
	}
	seen := 0
	for _, row := range rows {
		if idx < seen+len(row.Blocks) {
			return row.Blocks[idx-seen], true
		}
		seen += len(row.Blocks)
	}
	return platform.Position{}, false
}

// Capacity is the total number of player blocks.
func (l *Layout) Capacity() int {
	n := 0
	for _, row := range l.Rows {
		n += len(row.Blocks)
	}
	return n
}

// ChooserPosition returns the chooser zone if configured.
func (l *Layout) ChooserPosition() (platform.Position, bool) {
	return zone(l.Chooser)
}

func (l *Layout) SpawnPosition() (platform.Position, bool) { return zone(l.Spawn) }
func (l *Layout) ExitPosition() (platform.Position, bool)  { return zone(l.Exit) }

func zone(p *platform.Position) (platform.Position, bool) {
	if p == nil {
		return platform.Position{}, false
	}
	return *p, true
}

// legacyFile is the on-disk shape the original room configs used: rows
// keyed by stringified index instead of an array.
type legacyFile struct {
	Rows       map[string]Row     `json:"rows"`
	DangerRows map[string]Row     `json:"danger_rows"`
	Chooser    *platform.Position `json:"chooser_pos"`
	Spawn      *platform.Position `json:"spawn_pos"`
	Exit       *platform.Position `json:"exit_pos"`
}

// Load reads a layout file. A missing file yields an empty layout rather
// than an error so a fresh room starts without any setup.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Layout{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}

	var l Layout
	if err := json.Unmarshal(data, &l); err == nil && len(l.Rows) > 0 {
		return &l, nil
	}

	var legacy legacyFile
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", path, err)
	}
	return &Layout{
		Rows:       orderedRows(legacy.Rows),
		DangerRows: orderedRows(legacy.DangerRows),
		Chooser:    legacy.Chooser,
		Spawn:      legacy.Spawn,
		Exit:       legacy.Exit,
	}, nil
}

func orderedRows(m map[string]Row) []Row {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Row keys are stringified indexes; sort them numerically so row 10
	// lands after row 9.
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})
	out := make([]Row, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// Save writes the layout in the current array form.
func (l *Layout) Save(path string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
