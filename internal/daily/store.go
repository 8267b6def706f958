package daily

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Score is one player's result for a day.
type Score struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Date     string `json:"date"`
	Score    int    `json:"score"`
	TopWord  string `json:"topWord"`
}

// LBRow is a leaderboard line.
type LBRow struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	TopWord  string `json:"topWord"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store { return &Store{db: db, now: time.Now} }

// SubmitScore records a result, keeping only the best score per user and day.
// It reports whether the stored score changed. An improvement moves the
// player's tie-break time to now.
func (s *Store) SubmitScore(ctx context.Context, sc Score) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_scores(user_id, username, date, score, top_word, best_at)
		 VALUES(?,?,?,?,?,?)
		 ON CONFLICT(user_id, date) DO UPDATE SET
		   score=excluded.score, top_word=excluded.top_word, username=excluded.username,
		   best_at=excluded.best_at
		 WHERE excluded.score > daily_scores.score`,
		sc.UserID, sc.Username, sc.Date, sc.Score, sc.TopWord, s.now().UnixMilli(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// AlreadyPlayed reports whether userID has a score for date.
func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_scores WHERE user_id=? AND date=?",
		userID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// TopScores returns the best scores of a day. Whoever reached a score first
// wins the tie.
func (s *Store) TopScores(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, score, top_word
		 FROM daily_scores
		 WHERE date=?
		 ORDER BY score DESC, best_at ASC, id ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LBRow, 0, limit)
	for rows.Next() {
		r := LBRow{Rank: len(out) + 1}
		if err := rows.Scan(&r.Username, &r.Score, &r.TopWord); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Rank returns the 1-based position of userID on date, or 0 if they have
// no score that day.
func (s *Store) Rank(ctx context.Context, date, userID string) (int, error) {
	var id, bestAt int64
	var score int
	err := s.db.QueryRowContext(ctx,
		"SELECT id, score, best_at FROM daily_scores WHERE user_id=? AND date=?", userID, date,
	).Scan(&id, &score, &bestAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var ahead int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM daily_scores
		 WHERE date=? AND (score > ?
		   OR (score = ? AND (best_at < ? OR (best_at = ? AND id < ?))))`,
		date, score, score, bestAt, bestAt, id,
	).Scan(&ahead)
	return ahead + 1, err
}

// Count returns how many players have a score for date.
func (s *Store) Count(ctx context.Context, date string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM daily_scores WHERE date=?", date).Scan(&n)
	return n, err
}
