package engine

import (
	"context"
	"log/slog"

	"github.com/talgya/cromulant/internal/ants"
	"github.com/talgya/cromulant/internal/config"
	"github.com/talgya/cromulant/internal/entropy"
	"github.com/talgya/cromulant/internal/settings"
	"github.com/talgya/cromulant/internal/words"
)

// TickResult reports what one tick did.
type TickResult struct {
	Ant      *ants.Ant // Copy of the ant that acted; nil when Skipped or merged
	Merged   *ants.Ant // Copy of the merge child
	Category Category
	Fallback bool // A merge was drawn but failed, words were applied instead
	Skipped  bool // Nothing to do: empty colony or every category disabled
}

// Scheduler picks one ant and one event per tick.
type Scheduler struct {
	colony   *Colony
	settings *settings.Settings
	weights  config.WeightConfig
	think    config.ThinkConfig
	goal     int
	names    *words.Generator
	src      entropy.Source

	charge int
	last   *ants.Ant
}

// NewScheduler wires a scheduler to the colony. st is read on every tick so
// toggles take effect immediately.
func NewScheduler(c *Colony, st *settings.Settings, cfg *config.Config, names *words.Generator, src entropy.Source) *Scheduler {
	return &Scheduler{
		colony:   c,
		settings: st,
		weights:  cfg.Weights,
		think:    cfg.Think,
		goal:     cfg.Colony.MergeGoal,
		names:    names,
		src:      src,
	}
}

// Charge is the merge pity counter.
func (s *Scheduler) Charge() int { return s.charge }

// Options lists the categories drawable right now, in draw order.
func (s *Scheduler) Options() []Option {
	st, w := s.settings, s.weights
	var opts []Option
	add := func(on bool, c Category, weight float64) {
		if on {
			opts = append(opts, Option{Category: c, Weight: weight})
		}
	}
	add(st.Triumph, CategoryTriumph, w.Triumph)
	add(st.Hit, CategoryHit, w.Hit)
	add(st.Travel, CategoryTravel, w.Travel)
	add(st.Think, CategoryThink, w.Think)
	add(st.Words, CategoryWords, w.Words)

	if st.Merge && (s.charge >= s.goal || len(opts) == 0) {
		opts = append([]Option{{Category: CategoryMerge, Weight: w.Merge, Pity: true}}, opts...)
	}
	return opts
}

// Tick applies one event. An empty colony, or one with every category
// disabled, is a no-op: nothing is saved or announced.
func (s *Scheduler) Tick(ctx context.Context) (TickResult, error) {
	c := s.colony
	ant := s.pickAnt()
	if ant == nil || !s.anyEnabled() {
		return TickResult{Skipped: true}, nil
	}
	if s.charge < s.goal {
		s.charge++
	}

	opts := s.Options()
	weights := make([]float64, len(opts))
	for i, o := range opts {
		weights[i] = o.Weight
	}
	res := TickResult{Category: opts[entropy.WeightedIndex(s.src, weights)].Category}

	now := c.Now()
	switch res.Category {
	case CategoryMerge:
		child, err := c.Merge(ctx, nil, nil)
		if child != nil {
			s.charge = 0
			res.Merged = child.Clone()
			return res, err
		}
		res.Category = CategoryWords
		res.Fallback = true
		ant.Status = s.names.RandomSentence()
	case CategoryTriumph:
		ant.Triumph++
		ant.Status = ""
	case CategoryHit:
		ant.Hits++
		ant.Status = ""
	case CategoryTravel:
		ant.Status = s.names.Location()
	case CategoryThink:
		ant.Status = s.thought(ant)
	case CategoryWords:
		ant.Status = s.names.RandomSentence()
	}

	ant.Touch(now)
	ant.Method = res.Category.Method()
	s.last = ant
	err := c.Save(ctx)
	c.emit(ant, ant.Method, "")
	c.populationChanged()
	res.Ant = ant.Clone()

	if s.settings.Verbose {
		slog.Info("tick", "ant", ant.Name, "category", res.Category, "charge", s.charge)
	}
	return res, err
}

// anyEnabled reports whether any category, merge included, can be drawn.
// Merge alone is always drawable, so this decides whether a tick is a no-op.
func (s *Scheduler) anyEnabled() bool {
	st := s.settings
	return st.Triumph || st.Hit || st.Travel || st.Think || st.Words || st.Merge
}

// pickAnt draws an ant weighted by how long it has been idle. The ant that
// acted last tick sits out unless it is alone.
func (s *Scheduler) pickAnt() *ants.Ant {
	pool := s.colony.ants
	if len(pool) == 0 {
		return nil
	}
	if len(pool) > 1 && s.last != nil {
		rest := make([]*ants.Ant, 0, len(pool))
		for _, a := range pool {
			if a != s.last {
				rest = append(rest, a)
			}
		}
		pool = rest
	}

	now := s.colony.Now()
	weights := make([]float64, len(pool))
	for i, a := range pool {
		weights[i] = a.Idle(now).Seconds()
	}
	return pool[entropy.WeightedIndex(s.src, weights)]
}

// thought is what a thinking ant thinks about: a fellow ant, glyphs or a
// word. Other ants only qualify when there is one.
func (s *Scheduler) thought(ant *ants.Ant) string {
	other := s.colony.Other(ant)
	weights := []float64{s.think.OtherAnt, s.think.Glyphs, s.think.Word}
	if other == nil {
		weights[0] = 0
	}
	switch entropy.WeightedIndex(s.src, weights) {
	case 0:
		if other != nil {
			return other.Name
		}
	case 1:
		return s.names.Glyphs(s.think.GlyphCount)
	}
	return s.names.RandomWord()
}
