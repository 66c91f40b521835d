package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/talgya/cromulant/internal/ants"
	"github.com/talgya/cromulant/internal/settings"
)

// maxHatch caps a single hatch request.
const maxHatch = 100

// decode reads an optional JSON body. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handleHatch(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Count int `json:"count"`
	}{Count: 1}
	if !decode(w, r, &req) {
		return
	}
	if req.Count <= 0 || req.Count > maxHatch {
		http.Error(w, "count must be 1-"+strconv.Itoa(maxHatch), http.StatusBadRequest)
		return
	}

	var born []*ants.Ant
	var err error
	var population int
	ok := s.do(w, r, func() {
		born, err = s.Colony.Hatch(r.Context(), req.Count)
		population = s.Colony.Len()
	})
	if !ok {
		return
	}
	if err != nil {
		slog.Error("hatch save failed", "error", err)
	}

	names := make([]string, len(born))
	for i, a := range born {
		names[i] = a.Name
	}
	writeJSON(w, map[string]any{
		"success":    len(born) > 0,
		"hatched":    names,
		"population": population,
		"saved":      err == nil,
	})
}

func (s *Server) handleTerminate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}

	var gone *ants.Ant
	var err error
	var population int
	ok := s.do(w, r, func() {
		if req.Name == "" {
			gone, err = s.Colony.TerminateRandom(r.Context())
		} else if a := s.Colony.Find(req.Name); a != nil {
			var removed bool
			if removed, err = s.Colony.Terminate(r.Context(), a); removed {
				gone = a.Clone()
			}
		}
		population = s.Colony.Len()
	})
	if !ok {
		return
	}
	if gone == nil {
		http.Error(w, "ant not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("terminate save failed", "error", err)
	}
	writeJSON(w, map[string]any{
		"success":    true,
		"terminated": gone.Name,
		"population": population,
		"saved":      err == nil,
	})
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		A string `json:"a"`
		B string `json:"b"`
	}
	if !decode(w, r, &req) {
		return
	}

	var child *ants.Ant
	var err error
	var now time.Time
	missing := false
	ok := s.do(w, r, func() {
		now = s.Colony.Now()
		var a, b *ants.Ant
		if req.A != "" {
			a = s.Colony.Find(req.A)
			missing = a == nil
		}
		if req.B != "" {
			b = s.Colony.Find(req.B)
			missing = missing || b == nil
		}
		if missing {
			return
		}
		if child, err = s.Colony.Merge(r.Context(), a, b); child != nil {
			child = child.Clone()
		}
	})
	if !ok {
		return
	}
	if missing {
		http.Error(w, "ant not found", http.StatusNotFound)
		return
	}
	if child == nil {
		http.Error(w, "merge not possible", http.StatusConflict)
		return
	}
	if err != nil {
		slog.Error("merge save failed", "error", err)
	}
	writeJSON(w, map[string]any{
		"success": true,
		"child":   viewOf(child, now),
		"saved":   err == nil,
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed string `json:"speed"`
	}
	if !decode(w, r, &req) {
		return
	}
	speed, err := settings.ParseSpeed(req.Speed)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var st settings.Settings
	if !s.do(w, r, func() {
		s.Settings.Speed = speed
		st = *s.Settings
	}) {
		return
	}
	s.Eng.SetSpeed(speed)
	s.saveSettings(r.Context(), st)
	writeJSON(w, map[string]any{"speed": speed})
}

// handleUpdateSettings accepts {"toggle": key}, {"all": "enable"|"disable"}
// or {"values": {key: value}}, applied in that order.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Toggle string            `json:"toggle"`
		All    string            `json:"all"`
		Values map[string]string `json:"values"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.All != "" && req.All != "enable" && req.All != "disable" {
		http.Error(w, `all must be "enable" or "disable"`, http.StatusBadRequest)
		return
	}

	var st settings.Settings
	var applyErr error
	ok := s.do(w, r, func() {
		next := *s.Settings
		if req.Toggle != "" {
			if _, applyErr = next.Toggle(req.Toggle); applyErr != nil {
				return
			}
		}
		switch req.All {
		case "enable":
			next.EnableAll()
		case "disable":
			next.DisableAll()
		}
		if applyErr = next.Apply(req.Values); applyErr != nil {
			return
		}
		*s.Settings = next
		st = next
	})
	if !ok {
		return
	}
	if applyErr != nil {
		http.Error(w, applyErr.Error(), http.StatusBadRequest)
		return
	}
	if st.Speed != s.Eng.Speed() {
		s.Eng.SetSpeed(st.Speed)
	}
	s.saveSettings(r.Context(), st)
	writeJSON(w, st)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "storage not available", http.StatusServiceUnavailable)
		return
	}

	var err error
	var st settings.Settings
	if !s.do(w, r, func() {
		err = s.Colony.Save(r.Context())
		st = *s.Settings
	}) {
		return
	}
	if err == nil {
		err = s.Store.SaveSettings(r.Context(), st)
	}
	if err == nil {
		err = s.Store.SaveMeta(r.Context(), "last_tick", strconv.FormatUint(s.Eng.Tick(), 10))
	}
	if err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"tick":    s.Eng.Tick(),
		"message": "snapshot saved",
	})
}

func (s *Server) saveSettings(ctx context.Context, st settings.Settings) {
	if s.Store == nil {
		return
	}
	if err := s.Store.SaveSettings(ctx, st); err != nil {
		slog.Error("failed to save settings", "error", err)
	}
}
