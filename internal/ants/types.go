// Package ants provides the ant data model shared by the colony, the
// persistence layer and the feed.
package ants

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Method tags the kind of event most recently applied to an ant.
type Method string

const (
	MethodNone       Method = ""
	MethodHatched    Method = "hatched"
	MethodTerminated Method = "terminated"
	MethodTriumph    Method = "triumph"
	MethodHit        Method = "hit"
	MethodTravel     Method = "travel"
	MethodThink      Method = "think"
	MethodWords      Method = "words"
	MethodMerge      Method = "merge"
)

// Valid reports whether m is a known tag.
func (m Method) Valid() bool {
	switch m {
	case MethodNone, MethodHatched, MethodTerminated, MethodTriumph, MethodHit,
		MethodTravel, MethodThink, MethodWords, MethodMerge:
		return true
	}
	return false
}

// Ant is one member of the colony.
type Ant struct {
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Created int64  `json:"created" db:"created"` // Unix seconds, never changes
	Updated int64  `json:"updated" db:"updated"` // Unix seconds, never decreases
	Status  string `json:"status" db:"status"`
	Method  Method `json:"method" db:"method"`
	Triumph int    `json:"triumph" db:"triumph"`
	Hits    int    `json:"hits" db:"hits"`
	Color   RGB    `json:"color" db:"-"`
}

// New creates an ant born at now.
func New(name string, now time.Time) *Ant {
	ts := now.Unix()
	return &Ant{
		ID:      uuid.NewString(),
		Name:    name,
		Created: ts,
		Updated: ts,
		Color:   ColorFor(name),
	}
}

// Score is triumphs minus hits.
func (a *Ant) Score() int {
	return a.Triumph - a.Hits
}

// Touch moves Updated to now. Updated never goes backwards.
func (a *Ant) Touch(now time.Time) {
	if ts := now.Unix(); ts > a.Updated {
		a.Updated = ts
	}
}

// Idle is how long the ant has gone without an update.
func (a *Ant) Idle(now time.Time) time.Duration {
	d := now.Sub(time.Unix(a.Updated, 0))
	if d < 0 {
		return 0
	}
	return d
}

// Age describes when the ant hatched, e.g. "3 minutes ago".
func (a *Ant) Age(now time.Time) string {
	return humanize.RelTime(time.Unix(a.Created, 0), now, "ago", "from now")
}

// LastSeen describes the last update, e.g. "10 seconds ago".
func (a *Ant) LastSeen(now time.Time) string {
	return humanize.RelTime(time.Unix(a.Updated, 0), now, "ago", "from now")
}

// Clone returns a copy safe to hand to other goroutines.
func (a *Ant) Clone() *Ant {
	c := *a
	return &c
}

// Older reports whether a hatched before b. Used as the tie-break in
// leaderboards: the older ant wins.
func (a *Ant) Older(b *Ant) bool {
	return a.Created < b.Created
}
