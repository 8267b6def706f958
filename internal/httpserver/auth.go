package httpserver

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var errUsernameTaken = errors.New("username taken")

// credentials is the signup/login payload.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authUser is placed into request context by the auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxUserKey struct{}

// userFrom returns the signed-in player, or nil for guests.
func userFrom(ctx context.Context) *authUser {
	u, _ := ctx.Value(ctxUserKey{}).(*authUser)
	return u
}

// sessionClaims is the JWT body.
type sessionClaims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func jwtSecret() []byte { return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")) }

func cookieName() string { return getEnv("COOKIE_NAME", "hexgem_token") }

const anonCookieName = "hexgem_anon"

// mountAuthRoutes registers /auth/*, /stats/me and /runs/mine.
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth())
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(userFrom(r.Context()))
		})
		r.Get("/stats/me", s.handleMyStats)
		r.Get("/runs/mine", s.handleMyRuns)
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.createUser(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, errUsernameTaken):
		writeError(w, http.StatusConflict, "Username taken")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.issueSession(w, u) {
		return
	}
	s.claimAnonRuns(r.Context(), s.ensureAnonID(w, r), u.ID)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.findUser(r.Context(), "lower(username)=lower(?)", strings.TrimSpace(body.Username))
	if err != nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(body.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if !s.issueSession(w, u) {
		return
	}
	s.claimAnonRuns(r.Context(), s.ensureAnonID(w, r), u.ID)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeCookie(w, cookieName(), "", time.Time{})
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	u, err := s.findUser(r.Context(), "id=?", userFrom(r.Context()).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "not_found")
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":         u.ID,
		"runsPlayed": u.RunsPlayed,
		"bestScore":  u.BestScore,
		"wordsFound": u.WordsFound,
	})
}

// runRow is one finished run in /runs/mine.
type runRow struct {
	ID         int64  `json:"id"`
	Mode       string `json:"mode"`
	Date       string `json:"date,omitempty"`
	Score      int    `json:"score"`
	Level      int    `json:"level"`
	Words      int    `json:"words"`
	TopWord    string `json:"topWord"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt"`
}

func (s *Server) handleMyRuns(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.QueryContext(r.Context(),
		`SELECT id, mode, COALESCE(date,''), score, level, words, top_word, started_at, finished_at
		 FROM runs WHERE user_id=? ORDER BY finished_at DESC, id DESC LIMIT 50`,
		userFrom(r.Context()).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	defer rows.Close()

	out := []runRow{}
	for rows.Next() {
		var rr runRow
		if err := rows.Scan(&rr.ID, &rr.Mode, &rr.Date, &rr.Score, &rr.Level, &rr.Words,
			&rr.TopWord, &rr.StartedAt, &rr.FinishedAt); err != nil {
			log.Warn().Err(err).Msg("scan run row")
			continue
		}
		out = append(out, rr)
	}
	_ = json.NewEncoder(w).Encode(out)
}

// --------------------------- middleware ------------------------------------

// parseToken validates a session token and returns its player.
func (s *Server) parseToken(ctx context.Context, raw string) (*authUser, error) {
	var c sessionClaims
	tok, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) { return jwtSecret(), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if c.ID == "" || c.Username == "" {
		return nil, errors.New("invalid token")
	}
	// The account must still exist.
	if _, err := s.findUser(ctx, "id=?", c.ID); err != nil {
		return nil, err
	}
	return &authUser{ID: c.ID, Username: c.Username}, nil
}

// withOptionalAuth attaches the player when a valid token is present. It never 401s.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := bearerOrCookie(r); raw != "" {
				if u, err := s.parseToken(r.Context(), raw); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth rejects requests without a valid token.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerOrCookie(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			u, err := s.parseToken(r.Context(), raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u)))
		})
	}
}

// bearerOrCookie extracts a token from the Authorization header or the auth cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(cookieName()); err == nil {
		return c.Value
	}
	return ""
}

// ensureAnonID returns the guest id cookie, setting one if needed.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := genID()
	writeCookie(w, anonCookieName, id, time.Now().Add(180*24*time.Hour))
	return id
}

// claimAnonRuns moves a guest's finished runs onto their new account.
func (s *Server) claimAnonRuns(ctx context.Context, anonID, userID string) {
	if anonID == "" || userID == "" {
		return
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE runs SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID); err != nil {
		log.Warn().Err(err).Msg("claim anon runs")
	}
}

// ------------------------------ JWT & cookies ------------------------------

// issueSession signs a token for u and sets the auth cookie.
func (s *Server) issueSession(w http.ResponseWriter, u *userRow) bool {
	days := 14
	if n, err := strconv.Atoi(getEnv("JWT_EXPIRES_DAYS", "")); err == nil && n > 0 {
		days = n
	}
	now := time.Now()
	exp := now.Add(time.Duration(days) * 24 * time.Hour)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		ID:       u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}).SignedString(jwtSecret())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	writeCookie(w, cookieName(), tok, exp)
	return true
}

// writeCookie sets an HttpOnly cookie. A zero exp deletes it.
func writeCookie(w http.ResponseWriter, name, value string, exp time.Time) {
	secure := getEnv("NODE_ENV", "") == "production"
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		// Cross-site clients need None, which browsers only accept with Secure.
		c.SameSite = http.SameSiteNoneMode
	}
	if exp.IsZero() {
		c.MaxAge = -1
	} else {
		c.Expires = exp
	}
	http.SetCookie(w, c)
}

// ------------------------------ users ---------------------------------------

// userRow matches the users table.
type userRow struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    string
	RunsPlayed   int
	BestScore    int
	WordsFound   int
}

func (s *Server) createUser(ctx context.Context, username, pw string) (*userRow, error) {
	username = strings.TrimSpace(username)
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}
	if _, err := s.findUser(ctx, "lower(username)=lower(?)", username); err == nil {
		return nil, errUsernameTaken
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &userRow{
		ID:           genID(),
		Username:     username,
		PasswordHash: string(h),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// findUser loads one user matching where.
func (s *Server) findUser(ctx context.Context, where string, arg any) (*userRow, error) {
	var u userRow
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, runs_played, best_score, words_found
		 FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.RunsPlayed, &u.BestScore, &u.WordsFound)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8-100 chars")
	}
	return nil
}

// genID returns a 22-char URL-safe random id.
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// bumpStats folds a finished run into the player's totals.
func bumpStats(ctx context.Context, tx *sql.Tx, userID string, score, words int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE users SET runs_played = runs_played + 1,
		                  best_score = MAX(best_score, ?),
		                  words_found = words_found + ?
		 WHERE id=?`, score, words, userID)
	return err
}
