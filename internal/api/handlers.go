package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/talgya/gridcity/internal/economy"
	"github.com/talgya/gridcity/internal/engine"
	"github.com/talgya/gridcity/internal/persistence"
	"github.com/talgya/gridcity/internal/world"
)

type cellRequest struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Kind string `json:"kind"`
}

// actionResponse answers every mutating city request.
type actionResponse struct {
	Message      string                     `json:"message"`
	Achievements []engine.AchievementRecord `json:"new_achievements,omitempty"`
	City         cityView                   `json:"city"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"name":     "gridcity",
		"cities":   s.Sessions.Len(),
		"grid":     world.GridSize,
		"saves_db": s.DB != nil,
	}
	if s.Clock != nil {
		status["clock"] = map[string]any{
			"interval": s.Clock.Interval.String(),
			"ticks":    s.Clock.Ticks(),
			"running":  s.Clock.Running(),
		}
	}
	writeJSON(w, status)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, catalogView())
}

func (s *Server) handleListCities(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Year       int    `json:"year"`
		Population int    `json:"population"`
		Money      string `json:"money_display"`
	}
	out := []entry{}
	for _, id := range s.Sessions.IDs() {
		s.Sessions.With(id, func(c *engine.City) error {
			out = append(out, entry{
				ID:         c.ID,
				Name:       c.Name,
				Year:       c.Year,
				Population: c.Population,
				Money:      economy.FormatMoney(c.Ledger.Money),
			})
			return nil
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleCreateCity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	id := s.Sessions.Create(req.Name)
	slog.Info("city created", "city", id, "name", req.Name)
	s.Sessions.With(id, func(c *engine.City) error {
		writeJSONStatus(w, http.StatusCreated, newCityView(c))
		return nil
	})
}

func (s *Server) handleCloseCity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cityID")
	if !s.Sessions.Delete(id) {
		writeError(w, http.StatusNotFound, "no_city", fmt.Sprintf("city %s not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCity(w http.ResponseWriter, r *http.Request) {
	s.withCity(w, r, func(c *engine.City) {
		writeJSON(w, newCityView(c))
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.withCity(w, r, func(c *engine.City) {
		writeJSON(w, c.Stats())
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.withCity(w, r, func(c *engine.City) {
		writeJSON(w, c.Snapshot())
	})
}

func (s *Server) handleCellInfo(w http.ResponseWriter, r *http.Request) {
	row, err1 := strconv.Atoi(chi.URLParam(r, "row"))
	col, err2 := strconv.Atoi(chi.URLParam(r, "col"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "invalid_position", "row and col must be integers")
		return
	}
	s.withCity(w, r, func(c *engine.City) {
		info, ok := c.CellInfo(world.Pos(row, col))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_position", "invalid position")
			return
		}
		writeJSON(w, info)
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.withCity(w, r, func(c *engine.City) {
		writeJSON(w, map[string]any{
			"live_events": append([]engine.LiveEvent{}, c.LiveEvents...),
			"history":     append([]engine.EventRecord{}, c.EventHistory...),
		})
	})
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	catalog := engine.Achievements()
	n := len(catalog)
	if q := r.URL.Query().Get("n"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "n must be a non-negative integer")
			return
		}
		n = v
	}
	s.withCity(w, r, func(c *engine.City) {
		writeJSON(w, map[string]any{
			"catalog": catalog,
			"recent":  c.RecentAchievements(n),
		})
	})
}

// placement runs op and answers with either the new city state or the
// reason the action was rejected.
func (s *Server) placement(w http.ResponseWriter, r *http.Request, op func(c *engine.City, req cellRequest, kind world.Occupant) (string, float64, error), needKind bool) {
	var req cellRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var kind world.Occupant
	if needKind {
		var ok bool
		if kind, ok = parseKind(req.Kind); !ok {
			writeError(w, http.StatusBadRequest, "unknown_kind", fmt.Sprintf("unknown kind %q", req.Kind))
			return
		}
	}
	s.withCity(w, r, func(c *engine.City) {
		before := len(c.AchievementHistory)
		msg, cost, err := op(c, req, kind)
		if err != nil {
			slog.Warn("action rejected", "city", c.ID, "path", r.URL.Path, "row", req.Row, "col", req.Col, "error", err)
			writePlacementError(w, err, cost, c.Ledger.Money)
			return
		}
		s.publishState(c)
		writeJSON(w, actionResponse{
			Message:      msg,
			Achievements: append([]engine.AchievementRecord{}, c.AchievementHistory[before:]...),
			City:         newCityView(c),
		})
	})
}

func writePlacementError(w http.ResponseWriter, err error, cost, money float64) {
	switch {
	case errors.Is(err, engine.ErrInvalidPosition):
		writeError(w, http.StatusBadRequest, "invalid_position", err.Error())
	case errors.Is(err, engine.ErrUnknownKind):
		writeError(w, http.StatusBadRequest, "unknown_kind", err.Error())
	case errors.Is(err, engine.ErrOccupied):
		writeError(w, http.StatusConflict, "occupied", "cell may already be occupied")
	case errors.Is(err, engine.ErrEmptyCell):
		writeError(w, http.StatusConflict, "already_empty", "cell is already empty")
	case errors.Is(err, engine.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, "insufficient_funds", fundsMessage(cost, money))
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func (s *Server) handleZone(w http.ResponseWriter, r *http.Request) {
	s.placement(w, r, func(c *engine.City, req cellRequest, kind world.Occupant) (string, float64, error) {
		cost := economy.Cost(kind)
		if err := c.Zone(world.Pos(req.Row, req.Col), kind); err != nil {
			return "", cost, err
		}
		return fmt.Sprintf("zoned cell (%d, %d) as %s for %s", req.Row, req.Col, kind.Name(), economy.FormatMoney(cost)), cost, nil
	}, true)
}

func (s *Server) handleZoneBlock(w http.ResponseWriter, r *http.Request) {
	s.placement(w, r, func(c *engine.City, req cellRequest, kind world.Occupant) (string, float64, error) {
		cost := economy.Cost(kind) * 4
		if err := c.ZoneBlock(world.Pos(req.Row, req.Col), kind); err != nil {
			return "", cost, err
		}
		return fmt.Sprintf("zoned 2x2 block at (%d, %d) as %s for %s", req.Row, req.Col, kind.Name(), economy.FormatMoney(cost)), cost, nil
	}, true)
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	s.placement(w, r, func(c *engine.City, req cellRequest, kind world.Occupant) (string, float64, error) {
		cost := economy.Cost(kind)
		if err := c.Build(world.Pos(req.Row, req.Col), kind); err != nil {
			return "", cost, err
		}
		return fmt.Sprintf("built %s at (%d, %d) for %s", kind.Name(), req.Row, req.Col, economy.FormatMoney(cost)), cost, nil
	}, true)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.placement(w, r, func(c *engine.City, req cellRequest, _ world.Occupant) (string, float64, error) {
		if err := c.Clear(world.Pos(req.Row, req.Col)); err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("cleared cell (%d, %d)", req.Row, req.Col), 0, nil
	}, false)
}

func (s *Server) handleTriggerDisaster(w http.ResponseWriter, r *http.Request) {
	s.placement(w, r, func(c *engine.City, req cellRequest, _ world.Occupant) (string, float64, error) {
		kind := engine.DisasterKind(req.Kind)
		if kind == "" {
			kind = engine.DisasterFire
		}
		if err := c.TriggerDisaster(kind, world.Pos(req.Row, req.Col)); err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("disaster triggered: %s at (%d, %d)", kind, req.Row, req.Col), 0, nil
	}, false)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	s.withCity(w, r, func(c *engine.City) {
		rep := c.Advance()
		s.publishReport(rep)
		writeJSON(w, map[string]any{
			"message": fmt.Sprintf("advanced to year %d", rep.Year),
			"report":  rep,
			"city":    newCityView(c),
		})
	})
}

func (s *Server) handleUpdateSystems(w http.ResponseWriter, r *http.Request) {
	s.withCity(w, r, func(c *engine.City) {
		c.Step()
		s.publishState(c)
		writeJSON(w, actionResponse{Message: "city systems updated", City: newCityView(c)})
	})
}

func (s *Server) handleTriggerEvent(w http.ResponseWriter, r *http.Request) {
	s.withCity(w, r, func(c *engine.City) {
		ev := c.TriggerRandomEvent()
		s.publishState(c)
		writeJSON(w, map[string]any{
			"message": fmt.Sprintf("event: %s - %s", ev.Name, ev.Description),
			"event":   ev,
			"city":    newCityView(c),
		})
	})
}

func (s *Server) handleTax(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rate *float64 `json:"rate"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Rate == nil {
		writeError(w, http.StatusBadRequest, "missing_rate", "rate required")
		return
	}
	s.withCity(w, r, func(c *engine.City) {
		c.SetTaxRate(*req.Rate)
		writeJSON(w, actionResponse{
			Message: fmt.Sprintf("tax rate set to %.1f%%", c.Ledger.TaxRate*100),
			City:    newCityView(c),
		})
	})
}

// handleReset replaces the session's city with a fresh one under a new ID.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cityID")
	var name string
	err := s.Sessions.With(id, func(c *engine.City) error {
		name = c.Name
		return nil
	})
	if errors.Is(err, ErrNoSession) {
		writeError(w, http.StatusNotFound, "no_city", fmt.Sprintf("city %s not found", id))
		return
	}
	s.Sessions.Delete(id)
	newID := s.Sessions.Create(name)
	slog.Info("city reset", "old", id, "city", newID)
	s.Sessions.With(newID, func(c *engine.City) error {
		writeJSON(w, actionResponse{Message: "city has been reset", City: newCityView(c)})
		return nil
	})
}

// handleSave writes the city to its database slot and, when a save directory
// is configured, to a compressed save file.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil && s.SaveDir == "" {
		writeError(w, http.StatusServiceUnavailable, "saves_disabled", "saving is not configured")
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.withCity(w, r, func(c *engine.City) {
		if req.Name != "" {
			c.Name = req.Name
		}
		resp := map[string]any{}
		if s.DB != nil {
			info, err := s.DB.SaveCity(r.Context(), c)
			if err != nil {
				slog.Error("save failed", "city", c.ID, "error", err)
				writeError(w, http.StatusInternalServerError, "save_failed", "save failed")
				return
			}
			resp["save"] = info
		}
		if s.SaveDir != "" {
			path := persistence.SaveFilePath(s.SaveDir, c.Name)
			if err := persistence.WriteSaveFile(path, c); err != nil {
				slog.Error("save file failed", "city", c.ID, "path", path, "error", err)
				writeError(w, http.StatusInternalServerError, "save_failed", "save failed")
				return
			}
			resp["file"] = path
		}
		resp["message"] = fmt.Sprintf("city saved as %q", c.Name)
		writeJSON(w, resp)
	})
}

func (s *Server) handleListSaves(w http.ResponseWriter, r *http.Request) {
	type fileSave struct {
		persistence.SaveHeader
		File string `json:"file"`
	}
	resp := map[string]any{
		"saves": []persistence.SaveInfo{},
		"files": []fileSave{},
	}
	if s.DB != nil {
		saves, err := s.DB.ListSaves(r.Context())
		if err != nil {
			slog.Error("list saves failed", "error", err)
			writeError(w, http.StatusInternalServerError, "list_failed", "could not list saves")
			return
		}
		if saves != nil {
			resp["saves"] = saves
		}
	}
	if s.SaveDir != "" {
		headers, paths, err := persistence.ListSaveFiles(s.SaveDir)
		if err != nil {
			slog.Error("list save files failed", "dir", s.SaveDir, "error", err)
		}
		files := make([]fileSave, 0, len(headers))
		for i, h := range headers {
			files = append(files, fileSave{SaveHeader: h, File: paths[i]})
		}
		resp["files"] = files
	}
	writeJSON(w, resp)
}

// handleLoadSave restores a database save slot into a live session under
// the saved city ID.
func (s *Server) handleLoadSave(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "saves_disabled", "database saves are not configured")
		return
	}
	id := chi.URLParam(r, "saveID")
	c, err := s.DB.LoadCity(r.Context(), id)
	if errors.Is(err, persistence.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no_save", fmt.Sprintf("save %s not found", id))
		return
	}
	if err != nil {
		slog.Error("load failed", "save", id, "error", err)
		writeError(w, http.StatusUnprocessableEntity, "load_failed", err.Error())
		return
	}
	s.installLoaded(r.Context(), w, c)
}

func (s *Server) handleLoadSaveFile(w http.ResponseWriter, r *http.Request) {
	if s.SaveDir == "" {
		writeError(w, http.StatusServiceUnavailable, "saves_disabled", "save files are not configured")
		return
	}
	name := chi.URLParam(r, "name")
	_, rec, err := persistence.ReadSaveFile(persistence.SaveFilePath(s.SaveDir, name))
	if err != nil {
		slog.Warn("load save file failed", "name", name, "error", err)
		writeError(w, http.StatusNotFound, "no_save", fmt.Sprintf("save file %q could not be loaded", name))
		return
	}
	s.installLoaded(r.Context(), w, engine.Restore(rec))
}

func (s *Server) installLoaded(ctx context.Context, w http.ResponseWriter, c *engine.City) {
	s.Sessions.Put(c)
	if s.DB != nil {
		if err := s.DB.SaveMeta(ctx, "last_loaded", c.ID); err != nil {
			slog.Warn("record last loaded city", "error", err)
		}
	}
	slog.Info("city loaded", "city", c.ID, "name", c.Name, "year", c.Year)
	s.Sessions.With(c.ID, func(c *engine.City) error {
		writeJSON(w, actionResponse{
			Message: fmt.Sprintf("city %q loaded", c.Name),
			City:    newCityView(c),
		})
		return nil
	})
}

func (s *Server) handleSavedEvents(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "saves_disabled", "database saves are not configured")
		return
	}
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if v, err := strconv.Atoi(q); err == nil && v > 0 {
			limit = v
		}
	}
	events, err := s.DB.RecentEvents(r.Context(), chi.URLParam(r, "saveID"), limit)
	if err != nil {
		slog.Error("saved events query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query_failed", "could not read events")
		return
	}
	if events == nil {
		events = []persistence.EventRow{}
	}
	writeJSON(w, events)
}

func (s *Server) handleDeleteSave(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "saves_disabled", "database saves are not configured")
		return
	}
	id := chi.URLParam(r, "saveID")
	err := s.DB.DeleteSave(r.Context(), id)
	if errors.Is(err, persistence.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no_save", fmt.Sprintf("save %s not found", id))
		return
	}
	if err != nil {
		slog.Error("delete save failed", "save", id, "error", err)
		writeError(w, http.StatusInternalServerError, "delete_failed", "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleIntervention applies an operator action: grant money, boost income,
// or pause/resume the auto-advance clock.
func (s *Server) handleIntervention(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type       string  `json:"type"`
		City       string  `json:"city"`
		Reason     string  `json:"reason,omitempty"`
		Amount     float64 `json:"amount,omitempty"`
		Multiplier float64 `json:"multiplier,omitempty"`
		Years      int     `json:"years,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	switch req.Type {
	case "pause", "resume":
		if s.Clock == nil {
			writeError(w, http.StatusConflict, "no_clock", "auto-advance is not enabled")
			return
		}
		if req.Type == "pause" {
			s.Clock.Pause()
		} else {
			s.Clock.Resume()
		}
		slog.Info("clock intervention", "action", req.Type)
		writeJSON(w, map[string]any{"success": true, "details": "clock " + req.Type + "d"})

	case "grant", "boost":
		var rec engine.EventRecord
		var opErr error
		err := s.Sessions.With(req.City, func(c *engine.City) error {
			if req.Type == "grant" {
				rec = c.GrantFunds(req.Amount, req.Reason)
			} else {
				rec, opErr = c.BoostIncome(req.Reason, req.Multiplier, req.Years)
			}
			if opErr == nil {
				s.publishState(c)
			}
			return nil
		})
		if errors.Is(err, ErrNoSession) {
			writeError(w, http.StatusNotFound, "no_city", fmt.Sprintf("city %s not found", req.City))
			return
		}
		if opErr != nil {
			writeError(w, http.StatusBadRequest, "invalid_intervention", opErr.Error())
			return
		}
		writeJSON(w, map[string]any{"success": true, "event": rec})

	default:
		writeError(w, http.StatusBadRequest, "unknown_type", fmt.Sprintf("unknown intervention type %q", req.Type))
	}
}
