package httpserver

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	_ "github.com/mattn/go-sqlite3"

	"github.com/robalobadob/hexgem/assets"
	"github.com/robalobadob/hexgem/internal/config"
	"github.com/robalobadob/hexgem/internal/daily"
	"github.com/robalobadob/hexgem/internal/game"
	"github.com/robalobadob/hexgem/internal/physics"
	"github.com/robalobadob/hexgem/internal/store"
	"github.com/robalobadob/hexgem/internal/words"
)

type testEnv struct {
	srv    *httptest.Server
	client *http.Client
	mem    *store.Memory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	scripts, err := fs.Glob(assets.FS, "sql/*.sql")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range scripts {
		schema, err := assets.FS.ReadFile(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := db.Exec(string(schema)); err != nil {
			t.Fatalf("apply %s: %v", name, err)
		}
	}

	mem := store.NewMemoryStore()
	t.Cleanup(mem.Close)
	s := New(mem, db, words.FromWords([]string{"CAT", "TEA"}), config.Default())
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	jar, _ := cookiejar.New(nil)
	return &testEnv{srv: ts, client: &http.Client{Jar: jar, Timeout: 5 * time.Second}, mem: mem}
}

// call sends body as JSON and decodes the response into out (if non-nil).
func (e *testEnv) call(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (e *testEnv) newGame(t *testing.T, mode string) newGameRes {
	t.Helper()
	var res newGameRes
	if code := e.call(t, http.MethodPost, "/game/new", map[string]string{"mode": mode}, &res); code != http.StatusOK {
		t.Fatalf("new game: status %d", code)
	}
	if res.GameID == "" {
		t.Fatal("expected a game id")
	}
	return res
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	var out map[string]bool
	if code := e.call(t, http.MethodGet, "/health", nil, &out); code != http.StatusOK || !out["ok"] {
		t.Fatalf("health: %d %v", code, out)
	}
	if code := e.call(t, http.MethodGet, "/nope", nil, nil); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestGameLifecycle(t *testing.T) {
	e := newTestEnv(t)
	g := e.newGame(t, "")
	if g.Mode != modeFree || g.Date != "" || g.Seed == 0 {
		t.Fatalf("unexpected new game response %+v", g)
	}
	if e.mem.Len() != 1 {
		t.Fatalf("expected 1 live room, got %d", e.mem.Len())
	}

	var snap game.Snapshot
	if code := e.call(t, http.MethodGet, "/game/"+g.GameID+"/state", nil, &snap); code != http.StatusOK {
		t.Fatalf("state: %d", code)
	}
	if snap.Width != 360 || snap.Radius != 42 || !snap.Stats.Running {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	var res commandRes
	if code := e.call(t, http.MethodPost, "/game/"+g.GameID+"/command", command{Type: "submit"}, &res); code != http.StatusOK {
		t.Fatalf("command: %d", code)
	}
	if res.OK || res.Result == nil || res.Result.Reason != game.ReasonEmpty {
		t.Errorf("expected empty submit, got %+v", res)
	}
	if code := e.call(t, http.MethodPost, "/game/"+g.GameID+"/command", command{Type: "dance"}, nil); code != http.StatusBadRequest {
		t.Errorf("unknown command: expected 400, got %d", code)
	}

	var fin finishRes
	if code := e.call(t, http.MethodPost, "/game/"+g.GameID+"/finish", nil, &fin); code != http.StatusOK {
		t.Fatalf("finish: %d", code)
	}
	if fin.Score != 0 || fin.Level != 1 || fin.Mode != modeFree || fin.Rank != 0 {
		t.Errorf("unexpected finish %+v", fin)
	}
	if e.mem.Len() != 0 {
		t.Errorf("finished room should be removed")
	}
	if code := e.call(t, http.MethodGet, "/game/"+g.GameID+"/state", nil, nil); code != http.StatusNotFound {
		t.Errorf("expected 404 after finish, got %d", code)
	}
}

func TestBadRequests(t *testing.T) {
	e := newTestEnv(t)
	if code := e.call(t, http.MethodPost, "/game/new", map[string]string{"mode": "ranked"}, nil); code != http.StatusBadRequest {
		t.Errorf("bad mode: expected 400, got %d", code)
	}
	if code := e.call(t, http.MethodGet, "/daily/leaderboard?date=yesterday", nil, nil); code != http.StatusBadRequest {
		t.Errorf("bad date: expected 400, got %d", code)
	}
	if code := e.call(t, http.MethodGet, "/daily/leaderboard?limit=0", nil, nil); code != http.StatusBadRequest {
		t.Errorf("bad limit: expected 400, got %d", code)
	}
	if code := e.call(t, http.MethodPost, "/game/missing/command", command{Type: "clear"}, nil); code != http.StatusNotFound {
		t.Errorf("missing game: expected 404, got %d", code)
	}
}

func TestDailyFlow(t *testing.T) {
	e := newTestEnv(t)
	a := e.newGame(t, modeDaily)
	today := daily.DateKey(time.Now())
	if a.Date != today {
		t.Errorf("expected date %s, got %s", today, a.Date)
	}
	if want := daily.SeedForKey(today, "local_dev_salt"); a.Seed != want {
		t.Errorf("expected seed %d, got %d", want, a.Seed)
	}
	var b newGameRes
	if code := e.call(t, http.MethodPost, "/daily/new", nil, &b); code != http.StatusOK {
		t.Fatalf("daily new: %d", code)
	}
	if b.Seed != a.Seed || b.GameID == a.GameID {
		t.Errorf("daily games should share a seed but not an id: %+v %+v", a, b)
	}

	var before todayRes
	e.call(t, http.MethodGet, "/daily/today", nil, &before)
	if before.Played || before.Date != today {
		t.Errorf("unexpected today before finishing: %+v", before)
	}

	var fin finishRes
	if code := e.call(t, http.MethodPost, "/game/"+a.GameID+"/finish", finishReq{Username: "ann"}, &fin); code != http.StatusOK {
		t.Fatalf("finish: %d", code)
	}
	if fin.Rank != 1 || fin.TotalPlayers != 1 {
		t.Errorf("expected rank 1 of 1, got %+v", fin)
	}

	var lb lbRes
	e.call(t, http.MethodGet, "/daily/leaderboard", nil, &lb)
	if lb.Date != today || len(lb.Top) != 1 || lb.Top[0].Username != "ann" {
		t.Errorf("unexpected leaderboard %+v", lb)
	}

	var after todayRes
	e.call(t, http.MethodGet, "/daily/today", nil, &after)
	if !after.Played || after.Rank != 1 || after.Players != 1 {
		t.Errorf("unexpected today after finishing: %+v", after)
	}
}

func TestAuthAndRuns(t *testing.T) {
	e := newTestEnv(t)

	// A guest run is claimed on signup.
	guest := e.newGame(t, modeFree)
	e.call(t, http.MethodPost, "/game/"+guest.GameID+"/finish", nil, nil)

	if code := e.call(t, http.MethodGet, "/auth/me", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before signup, got %d", code)
	}
	creds := credentials{Username: "player_one", Password: "correct horse"}
	if code := e.call(t, http.MethodPost, "/auth/signup", creds, nil); code != http.StatusOK {
		t.Fatalf("signup: %d", code)
	}
	if code := e.call(t, http.MethodPost, "/auth/signup", creds, nil); code != http.StatusConflict {
		t.Errorf("duplicate signup: expected 409, got %d", code)
	}

	var me authUser
	if code := e.call(t, http.MethodGet, "/auth/me", nil, &me); code != http.StatusOK || me.Username != "player_one" {
		t.Fatalf("me: %d %+v", code, me)
	}

	g := e.newGame(t, modeFree)
	e.call(t, http.MethodPost, "/game/"+g.GameID+"/finish", nil, nil)

	var stats map[string]any
	e.call(t, http.MethodGet, "/stats/me", nil, &stats)
	if stats["runsPlayed"] != float64(1) {
		t.Errorf("expected 1 run played, got %v", stats["runsPlayed"])
	}

	var runs []runRow
	e.call(t, http.MethodGet, "/runs/mine", nil, &runs)
	if len(runs) != 2 {
		t.Fatalf("expected guest run claimed plus one new run, got %d", len(runs))
	}

	e.call(t, http.MethodPost, "/auth/logout", nil, nil)
	if code := e.call(t, http.MethodGet, "/stats/me", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", code)
	}
	bad := credentials{Username: "player_one", Password: "wrong password"}
	if code := e.call(t, http.MethodPost, "/auth/login", bad, nil); code != http.StatusUnauthorized {
		t.Errorf("bad login: expected 401, got %d", code)
	}
	if code := e.call(t, http.MethodPost, "/auth/login", creds, nil); code != http.StatusOK {
		t.Errorf("login: expected 200, got %d", code)
	}
}

func TestConcurrentFinishRecordsOnce(t *testing.T) {
	e := newTestEnv(t)
	creds := credentials{Username: "racer", Password: "correct horse"}
	if code := e.call(t, http.MethodPost, "/auth/signup", creds, nil); code != http.StatusOK {
		t.Fatalf("signup: %d", code)
	}
	g := e.newGame(t, modeFree)

	const n = 8
	codes := make(chan int, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, e.srv.URL+"/game/"+g.GameID+"/finish", nil)
			resp, err := e.client.Do(req)
			if err != nil {
				codes <- 0
				return
			}
			resp.Body.Close()
			codes <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(codes)

	ok := 0
	for code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusConflict, http.StatusNotFound:
		default:
			t.Errorf("unexpected finish status %d", code)
		}
	}
	if ok != 1 {
		t.Errorf("expected exactly one successful finish, got %d", ok)
	}

	var stats map[string]any
	e.call(t, http.MethodGet, "/stats/me", nil, &stats)
	if stats["runsPlayed"] != float64(1) {
		t.Errorf("expected 1 run played, got %v", stats["runsPlayed"])
	}
	var runs []runRow
	e.call(t, http.MethodGet, "/runs/mine", nil, &runs)
	if len(runs) != 1 {
		t.Errorf("expected 1 recorded run, got %d", len(runs))
	}
}

func TestStreamJSON(t *testing.T) {
	e := newTestEnv(t)
	g := e.newGame(t, modeFree)

	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/game/" + g.GameID + "/ws?format=json"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read: %v", err)
	}
	if f.Type != "snapshot" || f.Snapshot == nil {
		t.Fatalf("expected a snapshot frame, got %+v", f)
	}

	if err := conn.WriteJSON(command{Type: "clear"}); err != nil {
		t.Fatal(err)
	}
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("no result frame: %v", err)
		}
		if f.Type == "result" {
			if f.Result == nil || !f.Result.OK {
				t.Errorf("unexpected result %+v", f.Result)
			}
			return
		}
	}
}

func TestEncodeFrameBinary(t *testing.T) {
	snap := game.Snapshot{Revision: 7, Word: "CAT"}
	data, kind, err := encodeFrame(frame{Type: "snapshot", Snapshot: &snap}, true)
	if err != nil {
		t.Fatal(err)
	}
	if kind != websocket.BinaryMessage || len(data) == 0 {
		t.Fatalf("expected binary frame, got kind %d", kind)
	}
	// Field names follow the json tags.
	if !bytes.Contains(data, []byte("revision")) || !bytes.Contains(data, []byte("CAT")) {
		t.Errorf("msgpack frame missing json field names: %q", data)
	}
}

func TestApplyCommand(t *testing.T) {
	clock := game.NewManualClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	tun := config.Default()
	tun.BombChance, tun.Multiply2xChance, tun.Multiply3xChance = 0, 0, 0
	tun.MinWordLength = 3
	world := physics.New(tun)
	g := game.NewSession(game.Options{Tuning: tun, Physics: world, Clock: clock, Seed: 1})
	g.Start()
	g.Tick(clock.Advance(tun.SpawnInterval))
	tiles := g.Tiles()
	if len(tiles) != 1 {
		t.Fatalf("expected one spawned tile, got %d", len(tiles))
	}
	p := tiles[0].Position()

	res, err := applyCommand(g, command{Type: "tap", X: p.X, Y: p.Y})
	if err != nil || !res.OK || res.TileID != tiles[0].ID || res.Word != tiles[0].Letter() {
		t.Fatalf("tap: %+v %v", res, err)
	}
	res, _ = applyCommand(g, command{Type: "submit"})
	if res.OK || res.Result.Reason != game.ReasonTooShort {
		t.Errorf("expected too_short, got %+v", res.Result)
	}
	if res.Word != "" {
		t.Errorf("rejected word should clear the chain")
	}
	res, _ = applyCommand(g, command{Type: "back"})
	if res.OK {
		t.Errorf("back on an empty chain should fail")
	}
	res, _ = applyCommand(g, command{Type: "tap", X: -500, Y: -500})
	if res.OK || res.TileID != 0 {
		t.Errorf("tap on empty space should miss, got %+v", res)
	}
	if _, err := applyCommand(g, command{Type: "jump"}); err != errUnknownCommand {
		t.Errorf("expected errUnknownCommand, got %v", err)
	}
}
