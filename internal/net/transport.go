package net

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// viewer is a connected read-only client.
type viewer struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans drawing frames out to every connected viewer. Slow viewers only
// ever see the newest frame.
type Hub struct {
	mu      sync.Mutex
	viewers map[string]*viewer
	latest  []byte
	closed  bool

	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		viewers: make(map[string]*viewer),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: logger,
	}
}

// Publish stores frame as the latest PNG and queues it for every viewer.
func (h *Hub) Publish(frame []byte) {
	f := make([]byte, len(frame))
	copy(f, frame)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.latest = f
	for _, v := range h.viewers {
		offer(v.send, f)
	}
}

// offer replaces any queued frame with f.
func offer(ch chan []byte, f []byte) {
	select {
	case ch <- f:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- f:
	default:
	}
}

// Latest returns the last published frame, or nil.
func (h *Hub) Latest() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// Handler serves the viewer page at /, the websocket stream at /ws and the
// latest frame at /frame.png.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.serveWS)
	mux.HandleFunc("/frame.png", h.serveFrame)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(viewerPage))
	})
	return mux
}

func (h *Hub) serveFrame(w http.ResponseWriter, r *http.Request) {
	frame := h.Latest()
	if frame == nil {
		http.Error(w, "no frame yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(frame)
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	v := &viewer{id: uuid.NewString(), conn: conn, send: make(chan []byte, 1)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.viewers[v.id] = v
	if h.latest != nil {
		v.send <- h.latest
	}
	h.mu.Unlock()
	h.log.Info("viewer connected", "viewer", v.id, "remote", r.RemoteAddr)

	go h.writeLoop(v)
	// Viewers never send anything meaningful; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(v)
}

func (h *Hub) writeLoop(v *viewer) {
	for f := range v.send {
		_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := v.conn.WriteMessage(websocket.BinaryMessage, f); err != nil {
			h.log.Debug("viewer write failed", "viewer", v.id, "error", err)
			h.drop(v)
			return
		}
	}
}

// drop unregisters v and closes its connection. Safe to call twice.
func (h *Hub) drop(v *viewer) {
	h.mu.Lock()
	if _, ok := h.viewers[v.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.viewers, v.id)
	close(v.send)
	h.mu.Unlock()

	_ = v.conn.Close()
	h.log.Info("viewer disconnected", "viewer", v.id)
}

// Close disconnects every viewer and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	viewers := make([]*viewer, 0, len(h.viewers))
	for _, v := range h.viewers {
		viewers = append(viewers, v)
	}
	h.mu.Unlock()

	for _, v := range viewers {
		h.drop(v)
	}
}

// Feed publishes a frame from render after each notification, at most once
// per interval, until ctx is done. Notifications arriving in between are
// folded into the next frame.
func (h *Hub) Feed(ctx context.Context, notify <-chan struct{}, interval time.Duration, render func() ([]byte, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	dirty := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-notify:
			dirty = true
		case <-ticker.C:
			if !dirty {
				continue
			}
			dirty = false
			frame, err := render()
			if err != nil {
				h.log.Debug("frame render failed", "error", err)
				continue
			}
			h.Publish(frame)
		}
	}
}

// Notify signals ch without blocking.
func Notify(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// ListenAndServe serves the hub on port until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
		h.Close()
	}()

	h.log.Info("live view listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("live view on port %d: %w", port, err)
	}
	return nil
}

const viewerPage = `<!doctype html>
<html>
<head><title>LocalSketch</title></head>
<body style="margin:0;background:#eee">
<img id="frame" src="/frame.png" alt="waiting for drawing">
<script>
const img = document.getElementById("frame");
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.binaryType = "blob";
ws.onmessage = (e) => {
  const old = img.src;
  img.src = URL.createObjectURL(e.data);
  if (old.startsWith("blob:")) URL.revokeObjectURL(old);
};
</script>
</body>
</html>
`
