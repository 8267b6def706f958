// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily challenge. Everyone playing on the same UTC day
// gets the same seed, so the same letter bag.
//   - GET  /daily/today       -> today's date and whether the caller already has a score
//   - POST /daily/new         -> shorthand for POST /game/new {"mode":"daily"}
//   - GET  /daily/leaderboard -> best scores for today (or ?date=YYYY-MM-DD)
//
// Replays are allowed; the board keeps each player's best score of the day.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/hexgem/internal/daily"
)

func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.Get("/today", s.handleDailyToday)
		r.Post("/new", s.handleDailyNew)
		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

type todayRes struct {
	Date      string `json:"date"`
	Played    bool   `json:"played"`
	Rank      int    `json:"rank,omitempty"`
	Players   int    `json:"players"`
	ResetInMs int64  `json:"resetInMs"`
}

func (s *Server) handleDailyToday(w http.ResponseWriter, r *http.Request) {
	now := s.now().UTC()
	date := daily.DateKey(now)
	uid := s.ensureAnonID(w, r)
	if me := userFrom(r.Context()); me != nil {
		uid = me.ID
	}
	out := todayRes{Date: date}
	played, err := s.daily.AlreadyPlayed(r.Context(), uid, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	out.Played = played
	if played {
		out.Rank, _ = s.daily.Rank(r.Context(), date, uid)
	}
	out.Players, _ = s.daily.Count(r.Context(), date)
	tomorrow := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	out.ResetInMs = tomorrow.Sub(now).Milliseconds()
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handleDailyNew(w http.ResponseWriter, r *http.Request) {
	s.startGame(w, r, modeDaily)
}

type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := q.Get("date")
	if date == "" {
		date = daily.DateKey(s.now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "bad_date")
		return
	}
	limit := 20
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, http.StatusBadRequest, "bad_limit")
			return
		}
		limit = n
	}
	rows, err := s.daily.TopScores(r.Context(), date, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
