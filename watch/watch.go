// Package watch implements the koffetch CLI's --watch debugging surface: a
// tiny local HTTP server that upgrades to a WebSocket and broadcasts
// newly-seen entries as they stream in, so a browser tab can tail a long
// fetch live. Grounded on github.com/aofei/air's websocket.go, which wraps
// *gorilla/websocket.Conn with typed Write* helpers; watch.Hub generalizes
// that single-peer wrapper into a broadcast-to-many-peers registry.
package watch

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// peer is one connected WebSocket client, the same TextHandler/ErrorHandler
// shape as air.WebSocket, trimmed to what a write-only broadcast needs.
type peer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (p *peer) writeJSON(v interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteJSON(v)
}

// Hub accepts WebSocket connections at /ws and broadcasts every value passed
// to Publish to all currently connected peers.
type Hub struct {
	mu    sync.Mutex
	peers map[*peer]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{peers: make(map[*peer]struct{})}
}

// ServeHTTP upgrades the connection and registers it as a peer until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	p := &peer{conn: conn}

	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.peers, p)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish broadcasts v, JSON-encoded, to every connected peer. Peers that
// error out (closed connection) are dropped silently; Publish never blocks
// on a slow or dead peer for more than one write.
func (h *Hub) Publish(v interface{}) {
	h.mu.Lock()
	peers := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	for _, p := range peers {
		if err := p.writeJSON(v); err != nil {
			h.mu.Lock()
			delete(h.peers, p)
			h.mu.Unlock()
		}
	}
}

// ListenAndServe starts the watch HTTP server at addr, serving the hub at
// /ws. It runs until the process exits or the listener errors; callers
// typically launch it in a goroutine.
func (h *Hub) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(watchPage))
	})

	log.Printf("koffetch watch listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

const watchPage = `<!doctype html>
<html><head><title>koffetch watch</title></head>
<body>
<pre id="log"></pre>
<script>
  const log = document.getElementById("log");
  const ws = new WebSocket("ws://" + location.host + "/ws");
  ws.onmessage = (ev) => { log.textContent += ev.data + "\n"; };
</script>
</body></html>`
