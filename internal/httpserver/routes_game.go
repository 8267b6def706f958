// internal/httpserver/routes_game.go
//
// Live game endpoints. Each game is a room.Room running its own frame loop;
// handlers hand work to the loop with Room.Do and never touch the session directly.
//
//   POST /game/new             -> {gameId, mode, date, seed}
//   GET  /game/{id}/state      -> Snapshot
//   POST /game/{id}/command    -> {ok, tileId, result, stats}
//   POST /game/{id}/finish     -> {score, level, topWord, rank, totalPlayers}

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hexgem/internal/daily"
	"github.com/robalobadob/hexgem/internal/game"
	"github.com/robalobadob/hexgem/internal/physics"
	"github.com/robalobadob/hexgem/internal/room"
	"github.com/robalobadob/hexgem/internal/store"
)

const (
	modeFree  = "free"
	modeDaily = "daily"
)

func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Get("/game/{id}/state", s.handleState)
	r.Post("/game/{id}/command", s.handleCommand)
	r.Post("/game/{id}/finish", s.handleFinish)
}

type newGameReq struct {
	Mode string `json:"mode"`
}

type newGameRes struct {
	GameID string `json:"gameId"`
	Mode   string `json:"mode"`
	Date   string `json:"date,omitempty"`
	Seed   uint64 `json:"seed"`
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Mode == "" {
		req.Mode = modeFree
	}
	if req.Mode != modeFree && req.Mode != modeDaily {
		writeError(w, http.StatusBadRequest, "bad_mode")
		return
	}
	s.startGame(w, r, req.Mode)
}

// startGame builds a physics world, session and room, starts it and registers it.
func (s *Server) startGame(w http.ResponseWriter, r *http.Request, mode string) {
	now := s.now()
	e := &store.Entry{Mode: mode, StartedAt: now}
	if mode == modeDaily {
		e.Date = daily.DateKey(now)
		e.Seed = daily.SeedForKey(e.Date, s.salt)
	}
	if me := userFrom(r.Context()); me != nil {
		e.OwnerID = me.ID
	} else {
		e.OwnerID = s.ensureAnonID(w, r)
	}

	id := genID()
	lg := log.With().Str("gameId", id).Str("mode", mode).Logger()
	world := physics.New(s.tuning)
	sess := game.NewSession(game.Options{
		Tuning:     s.tuning,
		Physics:    world,
		Dictionary: s.dict,
		Logger:     &lg,
		Seed:       e.Seed,
	})
	e.Seed = sess.Seed()
	e.Room = room.New(room.Config{ID: id, Session: sess, World: world, Logger: &lg})
	e.Room.Start()

	if err := s.store.Put(r.Context(), e); err != nil {
		e.Room.Stop()
		lg.Error().Err(err).Msg("save game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	_ = json.NewEncoder(w).Encode(newGameRes{GameID: id, Mode: e.Mode, Date: e.Date, Seed: e.Seed})
}

// lookup resolves {id} or writes a 404.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*store.Entry, bool) {
	e, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	return e, true
}

// writeRoomError maps room errors onto status codes.
func writeRoomError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, room.ErrClosed):
		writeError(w, http.StatusConflict, "game_closed")
	case errors.Is(err, room.ErrBusy):
		writeError(w, http.StatusServiceUnavailable, "busy")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "timeout")
	default:
		writeError(w, http.StatusInternalServerError, "internal")
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var snap game.Snapshot
	if err := e.Room.Do(r.Context(), func(g *game.Session) { snap = g.Snapshot(g.Now()) }); err != nil {
		writeRoomError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(snap)
}

// command is one player input, shared by HTTP and the websocket stream.
type command struct {
	Type   string      `json:"type"` // tap | select | back | clear | submit
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	TileID game.TileID `json:"tileId"`
}

type commandRes struct {
	OK     bool         `json:"ok"`
	TileID game.TileID  `json:"tileId,omitempty"`
	Word   string       `json:"word"`
	Result *game.Result `json:"result,omitempty"`
	Stats  game.Stats   `json:"stats"`
}

var errUnknownCommand = errors.New("unknown command")

// applyCommand runs one input against the session. It must be called on the room loop.
func applyCommand(g *game.Session, c command) (commandRes, error) {
	var res commandRes
	switch strings.ToLower(c.Type) {
	case "tap":
		id, hit := g.HitTest(game.Vec{X: c.X, Y: c.Y})
		if !hit {
			break
		}
		res.TileID = id
		chain := g.Chain()
		switch {
		case len(chain) >= 2 && chain[len(chain)-2] == id:
			_, res.OK = g.DeselectLast()
		default:
			res.OK = g.Select(id)
		}
	case "select":
		res.TileID = c.TileID
		res.OK = g.Select(c.TileID)
	case "back":
		res.TileID, res.OK = g.DeselectLast()
	case "clear":
		g.ClearSelection()
		res.OK = true
	case "submit":
		out := g.Submit()
		res.OK = out.Accepted
		res.Result = &out
	default:
		return res, errUnknownCommand
	}
	res.Word = g.Word()
	res.Stats = g.Stats()
	return res, nil
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var c command
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var (
		res    commandRes
		cmdErr error
	)
	if err := e.Room.Do(r.Context(), func(g *game.Session) { res, cmdErr = applyCommand(g, c) }); err != nil {
		writeRoomError(w, err)
		return
	}
	if cmdErr != nil {
		writeError(w, http.StatusBadRequest, cmdErr.Error())
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

type finishReq struct {
	Username string `json:"username"` // display name for guests on the daily board
}

type finishRes struct {
	Score        int    `json:"score"`
	Level        int    `json:"level"`
	Words        int    `json:"words"`
	TopWord      string `json:"topWord"`
	Mode         string `json:"mode"`
	Rank         int    `json:"rank,omitempty"`
	TotalPlayers int    `json:"totalPlayers,omitempty"`
}

// handleFinish ends the run, stops its room, records it and, in daily mode,
// submits it to the day's leaderboard.
func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	var req finishReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var st game.Stats
	if err := e.Room.Do(r.Context(), func(g *game.Session) {
		g.End()
		st = g.Stats()
	}); err != nil {
		writeRoomError(w, err)
		return
	}
	// Only the caller that removes the room records the run.
	if err := s.store.Remove(r.Context(), e.Room.ID()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusConflict, "game_closed")
			return
		}
		log.Error().Err(err).Str("gameId", e.Room.ID()).Msg("remove room")
		writeError(w, http.StatusInternalServerError, "store_error")
		return
	}

	me := userFrom(r.Context())
	ctx := r.Context()
	s.recordRun(ctx, e, me, st)

	out := finishRes{Score: st.Score, Level: st.Level, Words: st.WordsFound, TopWord: st.TopWord, Mode: e.Mode}
	if e.Mode == modeDaily {
		sc := daily.Score{UserID: e.OwnerID, Date: e.Date, Score: st.Score, TopWord: st.TopWord}
		switch {
		case me != nil:
			sc.Username = me.Username
		case strings.TrimSpace(req.Username) != "":
			sc.Username = strings.TrimSpace(req.Username)
		default:
			sc.Username = "Guest-" + e.OwnerID[:min(6, len(e.OwnerID))]
		}
		if _, err := s.daily.SubmitScore(ctx, sc); err != nil {
			log.Error().Err(err).Str("date", e.Date).Msg("submit daily score")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		out.Rank, _ = s.daily.Rank(ctx, e.Date, sc.UserID)
		out.TotalPlayers, _ = s.daily.Count(ctx, e.Date)
	}
	_ = json.NewEncoder(w).Encode(out)
}

// recordRun stores a finished run (best effort) and folds it into the
// player's totals when signed in.
func (s *Server) recordRun(ctx context.Context, e *store.Entry, me *authUser, st game.Stats) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("begin run tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	var userID, anonID any
	if me != nil {
		userID = me.ID
	} else {
		anonID = e.OwnerID
	}
	var date any
	if e.Date != "" {
		date = e.Date
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (user_id, anonymous_id, mode, date, started_at, finished_at, score, level, words, top_word)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		userID, anonID, e.Mode, date,
		e.StartedAt.UTC().Format(time.RFC3339), s.now().UTC().Format(time.RFC3339),
		st.Score, st.Level, st.WordsFound, st.TopWord); err != nil {
		log.Warn().Err(err).Msg("insert run")
		return
	}
	if me != nil {
		if err := bumpStats(ctx, tx, me.ID, st.Score, st.WordsFound); err != nil {
			log.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Msg("commit run")
	}
}
