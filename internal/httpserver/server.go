// internal/httpserver/server.go
//
// HTTP server wiring for the Hex Gem backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Game endpoints (optional auth): /game/new, /game/{id}/state|command|finish|ws.
//   - Daily leaderboard: mounted under /daily.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /runs/mine.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Every live game is a room.Room; handlers only reach the session through Room.Do.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/robalobadob/hexgem/internal/config"
	"github.com/robalobadob/hexgem/internal/daily"
	"github.com/robalobadob/hexgem/internal/store"
	"github.com/robalobadob/hexgem/internal/words"
)

// Server bundles router, live room registry, dictionary and DB handle.
type Server struct {
	r      *chi.Mux
	store  *store.Memory
	db     *sql.DB
	dict   *words.Dictionary
	tuning config.Tuning
	daily  *daily.Store
	salt   string
	now    func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(st *store.Memory, db *sql.DB, dict *words.Dictionary, tun config.Tuning) *Server {
	s := &Server{
		r:      chi.NewRouter(),
		store:  st,
		db:     db,
		dict:   dict,
		tuning: tun,
		daily:  daily.NewStore(db),
		salt:   daily.SaltFromEnv(),
		now:    time.Now,
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(corsFromEnv)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"hexgem-go","endpoints":["/health","POST /game/new","/game/{id}/*","/daily/leaderboard","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"loaded": s.dict.Loaded(),
				"words":  s.dict.Size(),
				"rooms":  s.store.Len(),
			})
		})

		s.mountGame(r.With(s.withOptionalAuth()))
		s.mountDaily(r.With(s.withOptionalAuth()))
		s.mountAuthRoutes(r)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	// The websocket stream outlives any request timeout.
	s.r.With(s.withOptionalAuth()).Get("/game/{id}/ws", s.handleStream)

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// clientOrigin is the single origin allowed to call us with credentials.
func clientOrigin() string {
	return getEnv("CLIENT_ORIGIN", "http://localhost:5173")
}

// corsFromEnv enables credentialed CORS for CLIENT_ORIGIN.
func corsFromEnv(next http.Handler) http.Handler {
	origin := clientOrigin()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeError writes a JSON error body with status code.
func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
