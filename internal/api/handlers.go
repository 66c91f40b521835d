package api

import (
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/talgya/cromulant/internal/ants"
	"github.com/talgya/cromulant/internal/engine"
	"github.com/talgya/cromulant/internal/feed"
	"github.com/talgya/cromulant/internal/settings"
)

// antView is an ant plus the derived fields clients display.
type antView struct {
	*ants.Ant
	Score    int    `json:"score"`
	Age      string `json:"age"`
	LastSeen string `json:"last_seen"`
	Hex      string `json:"hex"`
}

func viewOf(a *ants.Ant, now time.Time) antView {
	return antView{
		Ant:      a,
		Score:    a.Score(),
		Age:      a.Age(now),
		LastSeen: a.LastSeen(now),
		Hex:      a.Color.Hex(),
	}
}

func viewsOf(list []*ants.Ant, now time.Time) []antView {
	out := make([]antView, len(list))
	for i, a := range list {
		out[i] = viewOf(a, now)
	}
	return out
}

// queryInt reads a positive integer parameter, falling back to def when
// it is missing or out of (0, max].
func queryInt(r *http.Request, key string, def, max int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= max {
			return n
		}
	}
	return def
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var (
		population int
		top        *ants.Ant
		topScore   int
		charge     int
		options    []engine.Option
		now        time.Time
	)
	ok := s.do(w, r, func() {
		population = s.Colony.Len()
		if t, score, found := s.Colony.TopByScore(); found {
			top, topScore = t.Clone(), score
		}
		charge = s.Sched.Charge()
		options = s.Sched.Options()
		now = s.Colony.Now()
	})
	if !ok {
		return
	}

	status := map[string]any{
		"name":         "Cromulant",
		"tick":         s.Eng.Tick(),
		"speed":        s.Eng.Speed(),
		"running":      s.Eng.Running(),
		"population":   population,
		"max_ants":     s.Config.Colony.MaxAnts,
		"merge_charge": charge,
		"merge_goal":   s.Config.Colony.MergeGoal,
		"options":      options,
		"feed_entries": s.Feed.Len(),
		"backend":      s.Config.Storage.Backend,
	}
	if top != nil {
		status["top"] = viewOf(top, now)
		status["top_score"] = topScore
	}
	writeJSON(w, status)
}

func (s *Server) handleAnts(w http.ResponseWriter, r *http.Request) {
	var list []*ants.Ant
	var now time.Time
	if !s.do(w, r, func() { list, now = s.Colony.Ants(), s.Colony.Now() }) {
		return
	}

	switch r.URL.Query().Get("sort") {
	case "score":
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Score() != list[j].Score() {
				return list[i].Score() > list[j].Score()
			}
			return list[i].Older(list[j])
		})
	case "age":
		sort.SliceStable(list, func(i, j int) bool { return list[i].Older(list[j]) })
	case "name":
		sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	case "recent":
		sort.SliceStable(list, func(i, j int) bool { return list[i].Updated > list[j].Updated })
	}

	if limit := queryInt(r, "limit", 0, 10000); limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	writeJSON(w, viewsOf(list, now))
}

func (s *Server) handleAnt(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var found *ants.Ant
	var now time.Time
	ok := s.do(w, r, func() {
		if a := s.Colony.Find(name); a != nil {
			found = a.Clone()
		}
		now = s.Colony.Now()
	})
	if !ok {
		return
	}
	if found == nil {
		http.Error(w, "ant not found", http.StatusNotFound)
		return
	}
	writeJSON(w, viewOf(found, now))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10, 1000)
	var board, all []*ants.Ant
	var now time.Time
	ok := s.do(w, r, func() {
		board = s.Colony.Leaderboard(limit)
		all = s.Colony.Ants()
		now = s.Colony.Now()
	})
	if !ok {
		return
	}

	scores := make([]float64, len(all))
	for i, a := range all {
		scores[i] = float64(a.Score())
	}
	result := map[string]any{
		"ants":       viewsOf(board, now),
		"population": len(all),
	}
	if len(scores) > 0 {
		mean, std := stat.MeanStdDev(scores, nil)
		if len(scores) < 2 {
			std = 0
		}
		result["mean_score"] = mean
		result["std_dev"] = std
	}
	writeJSON(w, result)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, s.Config.Feed.MaxUpdates)
	writeJSON(w, s.Feed.Recent(limit, r.URL.Query().Get("filter")))
}

func (s *Server) handleFeedCSV(w http.ResponseWriter, r *http.Request) {
	entries := s.Feed.Recent(0, r.URL.Query().Get("filter"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="feed.csv"`)
	if err := feed.WriteCSV(w, entries); err != nil {
		slog.Error("feed csv export failed", "error", err)
	}
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var st settings.Settings
	if !s.do(w, r, func() { st = *s.Settings }) {
		return
	}
	writeJSON(w, st)
}
