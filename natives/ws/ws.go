// Package ws wires gorilla/websocket in as a natives module: a much
// smaller surface than a full connection-hub server needs, scoped to
// what a script actually wants to do — connect to a peer, send a
// frame, and broadcast to everyone that joined a named room.
package ws

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/asteria-lang/asteria/internal/function"
	"github.com/asteria-lang/asteria/internal/global"
	"github.com/asteria-lang/asteria/internal/value"
)

var dialer = websocket.DefaultDialer

// room groups connections under a name so ws_broadcast can reach all
// of them at once.
type room struct {
	mu    sync.Mutex
	conns []*websocket.Conn
}

// registry maps room names to rooms: join-by-name, broadcast-by-name.
type registry struct {
	mu    sync.Mutex
	rooms map[string]*room
}

func newRegistry() *registry { return &registry{rooms: make(map[string]*room)} }

func (r *registry) join(name string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[name]
	if !ok {
		rm = &room{}
		r.rooms[name] = rm
	}
	rm.mu.Lock()
	rm.conns = append(rm.conns, conn)
	rm.mu.Unlock()
}

func (r *registry) broadcast(name string, payload []byte) (int, error) {
	r.mu.Lock()
	rm, ok := r.rooms[name]
	r.mu.Unlock()
	if !ok {
		return 0, nil
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	sent := 0
	var firstErr error
	for _, c := range rm.conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sent++
	}
	return sent, firstErr
}

// Handle wraps a single connection plus the shared room registry it can
// join, as a callable value.
type Handle struct {
	conn *websocket.Conn
	reg  *registry
}

func (h *Handle) Describe() string                              { return "ws.Handle" }
func (h *Handle) EnumerateVariables(visit func(*value.Variable) bool) {}

func (h *Handle) Invoke(receiver *value.Reference, args []value.Reference) (value.Reference, error) {
	if len(args) == 0 {
		return value.Reference{}, fmt.Errorf("ws handle requires a verb argument")
	}
	verbVal, err := args[0].Read()
	if err != nil {
		return value.Reference{}, err
	}
	verb, _ := verbVal.AsString()
	switch verb {
	case "send":
		msg, err := stringArg(args, 1)
		if err != nil {
			return value.Reference{}, err
		}
		if err := h.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return value.Reference{}, fmt.Errorf("ws_send: %w", err)
		}
		return value.NewTemporary(value.FromBool(true)), nil

	case "join":
		roomName, err := stringArg(args, 1)
		if err != nil {
			return value.Reference{}, err
		}
		h.reg.join(roomName, h.conn)
		return value.NewTemporary(value.FromBool(true)), nil

	case "broadcast":
		roomName, err := stringArg(args, 1)
		if err != nil {
			return value.Reference{}, err
		}
		msg, err := stringArg(args, 2)
		if err != nil {
			return value.Reference{}, err
		}
		sent, err := h.reg.broadcast(roomName, []byte(msg))
		if err != nil {
			return value.Reference{}, fmt.Errorf("ws_broadcast: %w", err)
		}
		return value.NewTemporary(value.FromInt(int64(sent))), nil

	case "close":
		return value.NewTemporary(value.FromBool(h.conn.Close() == nil)), nil

	default:
		return value.Reference{}, fmt.Errorf("unknown ws verb %q", verb)
	}
}

func stringArg(args []value.Reference, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d", i)
	}
	v, err := args[i].Read()
	if err != nil {
		return "", err
	}
	s, ok := v.AsString()
	if !ok {
		return "", fmt.Errorf("argument %d must be a string, got %s", i, v.Kind())
	}
	return s, nil
}

// Register wires `ws_open(url)` into g's root scope; send/join/broadcast
// are reached through the returned handle, sharing one room registry
// across every connection opened in this process.
func Register(g *global.Context) {
	reg := newRegistry()
	g.Define("ws_open", value.FromFunction(function.NewNative("ws_open", func(receiver *value.Reference, args []value.Reference) (value.Reference, error) {
		url, err := stringArg(args, 0)
		if err != nil {
			return value.Reference{}, err
		}
		conn, _, err := dialer.Dial(url, nil)
		if err != nil {
			return value.Reference{}, fmt.Errorf("ws_open: %w", err)
		}
		return value.NewTemporary(value.FromFunction(&Handle{conn: conn, reg: reg})), nil
	})))
}
