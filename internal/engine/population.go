// Population changes: hatching, termination and merging.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talgya/cromulant/internal/ants"
	"github.com/talgya/cromulant/internal/words"
)

// minFragments is how many name parts each merge parent contributes.
const minFragments = 2

// Hatch adds up to count new ants with unique names, clamped to the
// population bound. It returns the ants actually hatched. The population
// is saved once for the whole batch; a save error is returned alongside
// the hatched ants, which stay live.
func (c *Colony) Hatch(ctx context.Context, count int) ([]*ants.Ant, error) {
	if room := c.maxAnts - len(c.ants); count > room {
		count = room
	}
	if count <= 0 {
		slog.Debug("hatch refused", "population", len(c.ants), "max", c.maxAnts)
		return nil, nil
	}

	used := c.nameSet()
	born := make([]*ants.Ant, 0, count)
	for i := 0; i < count; i++ {
		born = append(born, c.spawn(used))
	}

	err := c.Save(ctx)
	for _, a := range born {
		c.emit(a, ants.MethodHatched, "")
	}
	c.populationChanged()
	slog.Debug("ants hatched", "count", len(born), "population", len(c.ants))
	return born, err
}

// spawn appends one newborn whose name is not in used, and records it there.
func (c *Colony) spawn(used map[string]bool) *ants.Ant {
	name := c.names.RandomName(used)
	used[name] = true
	a := ants.New(name, c.Now())
	a.Method = ants.MethodHatched
	c.ants = append(c.ants, a)
	return a
}

// Terminate removes a live ant. It reports false, without saving or
// notifying, when a is not part of the colony.
func (c *Colony) Terminate(ctx context.Context, a *ants.Ant) (bool, error) {
	i := c.indexOf(a)
	if i < 0 || a.Method == ants.MethodTerminated {
		return false, nil
	}
	c.remove(i)
	err := c.Save(ctx)
	c.populationChanged()
	return true, err
}

// TerminateRandom removes a uniformly chosen ant, returning it, or nil when
// the colony is empty.
func (c *Colony) TerminateRandom(ctx context.Context) (*ants.Ant, error) {
	a := c.Random()
	if a == nil {
		return nil, nil
	}
	_, err := c.Terminate(ctx, a)
	return a.Clone(), err
}

// remove tags the ant at i as terminated, announces it and drops it.
func (c *Colony) remove(i int) {
	a := c.ants[i]
	a.Method = ants.MethodTerminated
	a.Touch(c.Now())
	c.emit(a, ants.MethodTerminated, "")
	c.ants = append(c.ants[:i], c.ants[i+1:]...)
}

// Merge fuses two distinct live ants into a new one. Nil parents are
// picked at random. The child's name pairs one part of each parent name
// and must be new; the child inherits the summed triumphs and hits. One
// replacement ant is hatched unless the colony is full. A nil child with a
// nil error means the merge was not possible and nothing changed.
func (c *Colony) Merge(ctx context.Context, a, b *ants.Ant) (*ants.Ant, error) {
	if len(c.ants) < 2 {
		return nil, nil
	}
	if a == nil {
		a = c.Random()
	}
	if b == nil {
		b = c.Other(a)
	}
	if a == b || c.indexOf(a) < 0 || c.indexOf(b) < 0 {
		return nil, nil
	}

	name, ok := c.mergedName(a, b)
	if !ok {
		slog.Debug("merge found no free name", "a", a.Name, "b", b.Name)
		return nil, nil
	}

	child := ants.New(name, c.Now())
	child.Method = ants.MethodMerge
	child.Triumph = a.Triumph + b.Triumph
	child.Hits = a.Hits + b.Hits

	c.remove(c.indexOf(a))
	c.remove(c.indexOf(b))
	c.ants = append(c.ants, child)
	c.emit(child, ants.MethodMerge, fmt.Sprintf("%s + %s", a.Name, b.Name))

	if len(c.ants) < c.maxAnts {
		c.emit(c.spawn(c.nameSet()), ants.MethodHatched, "")
	}

	err := c.Save(ctx)
	c.populationChanged()
	slog.Debug("ants merged", "a", a.Name, "b", b.Name, "child", child.Name)
	return child, err
}

// mergedName tries every "left right" pairing of the parents' name parts
// in random order and returns the first that is free.
func (c *Colony) mergedName(a, b *ants.Ant) (string, bool) {
	left, right := c.fragments(a.Name), c.fragments(b.Name)
	candidates := make([]string, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			candidates = append(candidates, l+" "+r)
		}
	}
	c.src.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	used := c.nameSet()
	for _, name := range candidates {
		if name == a.Name || name == b.Name || used[name] || c.names.Reserved(name) {
			continue
		}
		return name, true
	}
	return "", false
}

// fragments splits a name into its meaningful parts, topped up with random
// words so there are always at least minFragments.
func (c *Colony) fragments(name string) []string {
	parts := words.StripFiller(words.SplitName(name))
	if missing := minFragments - len(parts); missing > 0 {
		for _, w := range c.names.RandomWords(missing) {
			parts = append(parts, words.Capitalize(w))
		}
	}
	return parts
}
