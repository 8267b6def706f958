// internal/httpserver/ws.go
//
// GET /game/{id}/ws streams a live game over a websocket.
//
//   - Server -> client: one frame per room tick ({"type":"snapshot"}) plus a
//     {"type":"result"} frame for every command. Frames are msgpack binary by
//     default, or JSON text with ?format=json.
//   - Client -> server: command objects, in either encoding.
//
// Writes are serialized per connection; a slow client only ever sees the newest snapshot.

package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/robalobadob/hexgem/internal/game"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxCommandSize = 1 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		o := r.Header.Get("Origin")
		return o == "" || o == clientOrigin()
	},
}

// frame is the envelope for every server message.
type frame struct {
	Type     string         `json:"type"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
	Result   *commandRes    `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// streamConn wraps a websocket with a write lock and the chosen codec.
type streamConn struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	binary bool
}

func (c *streamConn) send(f frame) error {
	data, kind, err := encodeFrame(f, c.binary)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(kind, data)
}

func (c *streamConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// encodeFrame marshals f as msgpack (binary) or JSON (text), reusing the json tags.
func encodeFrame(f frame, binary bool) ([]byte, int, error) {
	if !binary {
		data, err := json.Marshal(f)
		return data, websocket.TextMessage, err
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(f); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), websocket.BinaryMessage, nil
}

// decodeCommand reads a command in whichever encoding the client sent.
func decodeCommand(kind int, data []byte) (command, error) {
	var c command
	if kind == websocket.BinaryMessage {
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.SetCustomStructTag("json")
		return c, dec.Decode(&c)
	}
	return c, json.Unmarshal(data, &c)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	e, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer ws.Close()

	c := &streamConn{conn: ws, binary: r.URL.Query().Get("format") != "json"}
	lg := log.With().Str("gameId", e.Room.ID()).Str("remote", r.RemoteAddr).Logger()
	lg.Info().Bool("binary", c.binary).Msg("stream opened")

	snaps, cancel := e.Room.Subscribe()
	defer cancel()

	results := make(chan commandRes, 8)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		ws.SetReadLimit(maxCommandSize)
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error { return ws.SetReadDeadline(time.Now().Add(pongWait)) })
		for {
			kind, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			cmd, err := decodeCommand(kind, data)
			if err != nil {
				_ = c.send(frame{Type: "error", Error: "bad_command"})
				continue
			}
			err = e.Room.Post(func(g *game.Session) {
				res, err := applyCommand(g, cmd)
				if err != nil {
					res = commandRes{Word: g.Word(), Stats: g.Stats()}
				}
				select {
				case results <- res:
				default:
				}
			})
			if err != nil {
				_ = c.send(frame{Type: "error", Error: err.Error()})
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case snap, ok := <-snaps:
			if !ok {
				_ = c.send(frame{Type: "closed"})
				return
			}
			e.Room.Touch()
			if err := c.send(frame{Type: "snapshot", Snapshot: &snap}); err != nil {
				lg.Debug().Err(err).Msg("stream write")
				return
			}
		case res := <-results:
			if err := c.send(frame{Type: "result", Result: &res}); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		case <-readerDone:
			lg.Info().Msg("stream closed")
			return
		}
	}
}
