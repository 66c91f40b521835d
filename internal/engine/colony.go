// Colony holds the live population and every structural change to it.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/talgya/cromulant/internal/ants"
	"github.com/talgya/cromulant/internal/entropy"
	"github.com/talgya/cromulant/internal/words"
)

// Saver persists the full population after a mutation.
type Saver interface {
	SaveAnts(ctx context.Context, population []*ants.Ant) error
}

// Notifier receives every change for presentation.
type Notifier interface {
	AntUpdated(u Update)
	PopulationChanged(count int, top *ants.Ant)
}

// Update describes one applied event. Ant is a copy taken when the event
// was applied.
type Update struct {
	Ant    *ants.Ant
	Method ants.Method
	Detail string // Extra context, e.g. the parents of a merge
	Time   time.Time
}

// Colony is the population store. It is not safe for concurrent use: all
// calls go through the engine goroutine (see Engine.Do).
type Colony struct {
	// Now is the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time

	ants    []*ants.Ant
	maxAnts int
	names   *words.Generator
	src     entropy.Source
	saver   Saver
	notify  Notifier
}

// NewColony creates an empty colony bounded by maxAnts. saver and notify
// may be nil.
func NewColony(maxAnts int, names *words.Generator, src entropy.Source, saver Saver, notify Notifier) *Colony {
	return &Colony{
		Now:     time.Now,
		maxAnts: maxAnts,
		names:   names,
		src:     src,
		saver:   saver,
		notify:  notify,
	}
}

// Load replaces the population with stored ants. Duplicate names and
// anything beyond the maximum are dropped; the number kept is returned.
func (c *Colony) Load(stored []*ants.Ant) int {
	c.ants = c.ants[:0]
	seen := make(map[string]bool, len(stored))
	for _, a := range stored {
		if a == nil || a.Name == "" {
			continue
		}
		if seen[a.Name] {
			slog.Warn("dropping stored ant", "name", a.Name, "reason", "duplicate name")
			continue
		}
		if len(c.ants) >= c.maxAnts {
			slog.Warn("dropping stored ant", "name", a.Name, "reason", "population above max", "max", c.maxAnts)
			continue
		}
		if a.Updated < a.Created {
			a.Updated = a.Created
		}
		if a.Color == (ants.RGB{}) {
			a.Color = ants.ColorFor(a.Name)
		}
		seen[a.Name] = true
		c.ants = append(c.ants, a)
	}
	return len(c.ants)
}

// Len is the live population size.
func (c *Colony) Len() int { return len(c.ants) }

// Max is the population bound.
func (c *Colony) Max() int { return c.maxAnts }

// Ants returns copies of every live ant.
func (c *Colony) Ants() []*ants.Ant {
	out := make([]*ants.Ant, len(c.ants))
	for i, a := range c.ants {
		out[i] = a.Clone()
	}
	return out
}

// Names lists every live name.
func (c *Colony) Names() []string {
	out := make([]string, len(c.ants))
	for i, a := range c.ants {
		out[i] = a.Name
	}
	return out
}

func (c *Colony) nameSet() map[string]bool {
	set := make(map[string]bool, len(c.ants))
	for _, a := range c.ants {
		set[a.Name] = true
	}
	return set
}

// Find returns the live ant with the exact name, or nil. The result is the
// stored ant itself, not a copy.
func (c *Colony) Find(name string) *ants.Ant {
	for _, a := range c.ants {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func (c *Colony) indexOf(a *ants.Ant) int {
	if a == nil {
		return -1
	}
	for i, live := range c.ants {
		if live == a {
			return i
		}
	}
	return -1
}

// Random returns a uniformly chosen live ant, or nil.
func (c *Colony) Random() *ants.Ant {
	a, _ := entropy.Pick(c.src, c.ants)
	return a
}

// Other returns a random live ant that is not a, or nil.
func (c *Colony) Other(a *ants.Ant) *ants.Ant {
	others := make([]*ants.Ant, 0, len(c.ants))
	for _, live := range c.ants {
		if live != a {
			others = append(others, live)
		}
	}
	o, _ := entropy.Pick(c.src, others)
	return o
}

// Lazy returns the least recently updated ant, or nil. Ties go to the
// earlier position in the population.
func (c *Colony) Lazy() *ants.Ant {
	var lazy *ants.Ant
	for _, a := range c.ants {
		if lazy == nil || a.Updated < lazy.Updated {
			lazy = a
		}
	}
	return lazy
}

// MostTriumphant returns the ant with the most triumphs, oldest first on
// ties, or nil when empty.
func (c *Colony) MostTriumphant() *ants.Ant {
	var best *ants.Ant
	for _, a := range c.ants {
		if best == nil || a.Triumph > best.Triumph || (a.Triumph == best.Triumph && a.Older(best)) {
			best = a
		}
	}
	return best
}

// TopByScore returns the best scoring ant and its score, oldest first on
// ties. ok is false when the colony is empty.
func (c *Colony) TopByScore() (top *ants.Ant, score int, ok bool) {
	for _, a := range c.ants {
		s := a.Score()
		if top == nil || s > score || (s == score && a.Older(top)) {
			top, score = a, s
		}
	}
	return top, score, top != nil
}

// Leaderboard returns copies of the top n ants by score (n <= 0 means all).
func (c *Colony) Leaderboard(n int) []*ants.Ant {
	board := c.Ants()
	sort.SliceStable(board, func(i, j int) bool {
		si, sj := board[i].Score(), board[j].Score()
		if si != sj {
			return si > sj
		}
		return board[i].Older(board[j])
	})
	if n > 0 && n < len(board) {
		board = board[:n]
	}
	return board
}

// Save persists the current population.
func (c *Colony) Save(ctx context.Context) error {
	if c.saver == nil {
		return nil
	}
	if err := c.saver.SaveAnts(ctx, c.ants); err != nil {
		slog.Error("failed to save ants", "population", len(c.ants), "error", err)
		return fmt.Errorf("save ants: %w", err)
	}
	return nil
}

func (c *Colony) emit(a *ants.Ant, method ants.Method, detail string) {
	if c.notify == nil {
		return
	}
	c.notify.AntUpdated(Update{
		Ant:    a.Clone(),
		Method: method,
		Detail: detail,
		Time:   c.Now(),
	})
}

func (c *Colony) populationChanged() {
	if c.notify == nil {
		return
	}
	top, _, ok := c.TopByScore()
	if ok {
		top = top.Clone()
	}
	c.notify.PopulationChanged(len(c.ants), top)
}
