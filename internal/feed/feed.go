// Package feed turns colony updates into a bounded, filterable stream of
// entries for the API and its live subscribers.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/talgya/cromulant/internal/ants"
	"github.com/talgya/cromulant/internal/config"
	"github.com/talgya/cromulant/internal/engine"
)

// subBuffer is the per-subscriber backlog before entries are dropped.
const subBuffer = 64

// Entry is one line of the feed.
type Entry struct {
	ID      int64       `json:"id" csv:"id" db:"id"`
	Time    int64       `json:"time" csv:"time" db:"time"` // Unix seconds
	AntID   string      `json:"ant_id" csv:"ant_id" db:"ant_id"`
	Ant     string      `json:"ant" csv:"ant" db:"ant"`
	Method  ants.Method `json:"method" csv:"method" db:"method"`
	Message string      `json:"message" csv:"message" db:"message"`
	Icon    string      `json:"icon,omitempty" csv:"icon" db:"icon"`
	Score   int         `json:"score" csv:"score" db:"score"`
	Color   string      `json:"color" csv:"color" db:"color"`
}

// Log persists entries across restarts.
type Log interface {
	AppendEntries(ctx context.Context, entries []Entry) error
	RecentEntries(ctx context.Context, limit int) ([]Entry, error)
}

// Feed implements engine.Notifier.
type Feed struct {
	cfg config.FeedConfig
	log Log // optional

	// Verbose reports whether every entry is logged at Info.
	Verbose func() bool

	mu      sync.RWMutex
	entries []Entry // oldest first, at most cfg.MaxUpdates
	nextID  int64
	count   int
	top     *ants.Ant
	subs    map[int]chan Entry
	nextSub int
	pending []Entry // not yet persisted

	flushMu sync.Mutex
}

var _ engine.Notifier = (*Feed)(nil)

// New creates an empty feed. log may be nil.
func New(cfg config.FeedConfig, log Log) *Feed {
	return &Feed{
		cfg:  cfg,
		log:  log,
		subs: make(map[int]chan Entry),
	}
}

// Restore preloads the most recent persisted entries.
func (f *Feed) Restore(ctx context.Context) error {
	if f.log == nil {
		return nil
	}
	entries, err := f.log.RecentEntries(ctx, f.cfg.MaxUpdates)
	if err != nil {
		return fmt.Errorf("restore feed: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append([]Entry(nil), entries...)
	for _, e := range entries {
		if e.ID >= f.nextID {
			f.nextID = e.ID
		}
	}
	return nil
}

// AntUpdated records one colony update.
func (f *Feed) AntUpdated(u engine.Update) {
	msg, icon := Message(f.cfg, u)
	f.mu.Lock()
	f.nextID++
	e := Entry{
		ID:      f.nextID,
		Time:    u.Time.Unix(),
		AntID:   u.Ant.ID,
		Ant:     u.Ant.Name,
		Method:  u.Method,
		Message: msg,
		Icon:    icon,
		Score:   u.Ant.Score(),
		Color:   u.Ant.Color.Hex(),
	}
	f.entries = append(f.entries, e)
	if f.log != nil {
		f.pending = append(f.pending, e)
	}
	if over := len(f.entries) - f.cfg.MaxUpdates; over > 0 {
		f.entries = append(f.entries[:0:0], f.entries[over:]...)
	}
	for _, ch := range f.subs {
		select {
		case ch <- e:
		default:
		}
	}
	f.mu.Unlock()

	if f.Verbose != nil && f.Verbose() {
		slog.Info("update", "ant", e.Ant, "method", e.Method, "message", e.Message)
	} else {
		slog.Debug("update", "ant", e.Ant, "method", e.Method, "message", e.Message)
	}
}

// PopulationChanged records the population size and leader. It closes
// every colony operation, so the operation's entries are persisted here.
func (f *Feed) PopulationChanged(count int, top *ants.Ant) {
	f.mu.Lock()
	f.count, f.top = count, top
	f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.Flush(ctx); err != nil {
		slog.Error("failed to persist feed entries", "error", err)
	}
}

// Flush writes pending entries to the log in one batch. Entries that fail
// to persist are dropped from the batch; they stay in memory.
func (f *Feed) Flush(ctx context.Context) error {
	if f.log == nil {
		return nil
	}
	f.flushMu.Lock()
	defer f.flushMu.Unlock()

	f.mu.Lock()
	batch := f.pending
	f.pending = nil
	f.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}
	if err := f.log.AppendEntries(ctx, batch); err != nil {
		return fmt.Errorf("append %d entries from %d: %w", len(batch), batch[0].ID, err)
	}
	return nil
}

// Population returns the last reported size and leader (nil when empty).
func (f *Feed) Population() (int, *ants.Ant) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.count, f.top
}

// Len is the number of retained entries.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// Recent returns up to limit entries, oldest first, optionally filtered by
// a case-insensitive substring of the ant name or message. limit <= 0
// means everything retained.
func (f *Feed) Recent(limit int, filter string) []Entry {
	filter = strings.ToLower(strings.TrimSpace(filter))
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Entry, 0, len(f.entries))
	for _, e := range f.entries {
		if filter == "" || e.Matches(filter) {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Matches reports whether the lowercase filter occurs in the ant name or
// the message.
func (e Entry) Matches(filter string) bool {
	return strings.Contains(strings.ToLower(e.Ant), filter) ||
		strings.Contains(strings.ToLower(e.Message), filter)
}

// Subscribe registers a live listener. Slow listeners miss entries rather
// than block the colony.
func (f *Feed) Subscribe() (int, <-chan Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSub++
	ch := make(chan Entry, subBuffer)
	f.subs[f.nextSub] = ch
	return f.nextSub, ch
}

// Unsubscribe removes a listener and closes its channel.
func (f *Feed) Unsubscribe(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(ch)
	}
}

// WriteCSV writes entries as CSV with a header row.
func WriteCSV(w io.Writer, entries []Entry) error {
	if err := gocsv.Marshal(&entries, w); err != nil {
		return fmt.Errorf("write feed csv: %w", err)
	}
	return nil
}
