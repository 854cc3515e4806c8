package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/netdevopsbr/proxbox/internal/service"
)

// Commands understood by the websocket control channel.
const (
	CommandSyncNodes           = "Sync Nodes"
	CommandSyncVirtualMachines = "Sync Virtual Machines"
	CommandFullUpdateSync      = "Full Update Sync"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The plugin UI connects from the NetBox origin, which is not ours.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsReporter streams progress events over one websocket connection.
// Gorilla connections allow a single concurrent writer, so every write
// goes through the mutex.
type wsReporter struct {
	mu   sync.Mutex
	conn *websocket.Conn
	log  *zap.SugaredLogger
}

func (r *wsReporter) Report(event service.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conn.WriteJSON(event); err != nil {
		r.log.Warnf("failed to push progress event: %v", err)
	}
}

func (r *wsReporter) error(message string) {
	r.Report(service.Event{Object: "error", Type: "error", Data: message})
}

// closeGracefully announces a normal closure before dropping the
// connection, so well-behaved clients do not report an abnormal close.
func closeGracefully(conn *websocket.Conn) {
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
	_ = conn.Close()
}

// WebSocket serves the sync control channel. Commands run one at a
// time per connection; an unknown command reports an error and leaves
// the connection open.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer closeGracefully(conn)

	reporter := &wsReporter{conn: conn, log: h.log}
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("websocket closed by peer")
			} else {
				h.log.Warnf("websocket read failed: %v", err)
			}
			return
		}

		command := string(message)
		h.log.Infof("websocket command received: %s", command)

		switch command {
		case CommandSyncNodes, CommandSyncVirtualMachines, CommandFullUpdateSync:
		default:
			reporter.error("unknown command: " + command)
			continue
		}

		svc, err := h.syncService(r.Context())
		if err != nil {
			reporter.error(err.Error())
			continue
		}

		switch command {
		case CommandSyncNodes:
			_, err = svc.SyncDevices(r.Context(), reporter, "")
		case CommandSyncVirtualMachines:
			_, err = svc.SyncVirtualMachines(r.Context(), reporter)
		case CommandFullUpdateSync:
			err = svc.SyncAll(r.Context(), reporter)
		}
		if err != nil {
			reporter.error(err.Error())
		}
	}
}

// WebSocketVirtualMachines starts a virtual machine sync as soon as the
// client connects and streams its progress, then closes.
func (h *Handler) WebSocketVirtualMachines(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer closeGracefully(conn)

	reporter := &wsReporter{conn: conn, log: h.log}
	svc, err := h.syncService(r.Context())
	if err != nil {
		reporter.error(err.Error())
		return
	}
	if _, err := svc.SyncVirtualMachines(r.Context(), reporter); err != nil {
		reporter.error(err.Error())
	}
}
