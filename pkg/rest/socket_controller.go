package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/inbucket/sanitizer/pkg/msghub"
	"github.com/inbucket/sanitizer/pkg/rest/model"
	"github.com/inbucket/sanitizer/pkg/server/web"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// options for gorilla connection upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// reportListener handles change reports from the msghub
type reportListener struct {
	hub         *msghub.Hub                    // Global report hub.
	c           chan *model.JSONMonitorEventV1 // Queue of incoming events.
	removalsMin int                            // Minimum removal count to forward, 0 == all.
}

// newReportListener creates a listener and registers it.  Reports with fewer than removalsMin
// removals are not sent to the WebSocket.
func newReportListener(hub *msghub.Hub, removalsMin int) *reportListener {
	rl := &reportListener{
		hub:         hub,
		c:           make(chan *model.JSONMonitorEventV1, 100),
		removalsMin: removalsMin,
	}
	hub.AddListener(rl)
	return rl
}

// Receive handles an incoming report.
func (rl *reportListener) Receive(entry msghub.Entry) error {
	if entry.Report.Removals() < rl.removalsMin {
		return nil
	}

	// Enqueue for websocket.
	rl.c <- entryToEvent(entry)

	return nil
}

// WSReader makes sure the websocket client is still connected, discards any messages from client
func (rl *reportListener) WSReader(conn *websocket.Conn) {
	slog := log.With().Str("module", "rest").Str("proto", "WebSocket").
		Str("remote", conn.RemoteAddr().String()).Logger()
	defer rl.Close()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Warn().Err(err).Msg("Failed to setup read deadline")
	}
	conn.SetPongHandler(func(string) error {
		slog.Debug().Msg("Got pong")
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			slog.Warn().Err(err).Msg("Failed to set read deadline in pong")
		}
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				// Unexpected close code
				slog.Warn().Err(err).Msg("Socket error")
			} else {
				slog.Debug().Msg("Closing socket")
			}
			break
		}
	}
}

// WSWriter makes sure the websocket client is still connected
func (rl *reportListener) WSWriter(conn *websocket.Conn) {
	slog := log.With().Str("module", "rest").Str("proto", "WebSocket").
		Str("remote", conn.RemoteAddr().String()).Logger()

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		rl.Close()
	}()

	// Handle reports from hub until reportListener is closed
	for {
		select {
		case event, ok := <-rl.c:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				slog.Warn().Err(err).Msg("Failed to set write deadline for report")
			}
			if !ok {
				// reportListener closed, exit
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if conn.WriteJSON(event) != nil {
				// Write failed
				return
			}
		case <-ticker.C:
			// Send ping
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				slog.Warn().Err(err).Msg("Failed to set write deadline for ping")
			}
			if conn.WriteMessage(websocket.PingMessage, []byte{}) != nil {
				// Write error
				return
			}
			slog.Debug().Msg("Sent ping")
		}
	}
}

// Close removes the listener registration
func (rl *reportListener) Close() {
	select {
	case <-rl.c:
		// Already closed
	default:
		rl.hub.RemoveListener(rl)
		close(rl.c)
	}
}

// MonitorReportsV1 is a web handler which upgrades the connection to a websocket and notifies
// the client of change reports, after replaying the remembered history.  The optional `removals`
// query parameter suppresses reports with fewer removals.
func MonitorReportsV1(
	w http.ResponseWriter, req *http.Request, ctx *web.Context) (err error) {
	if !ctx.WebConfig.MonitorVisible {
		return web.ClientError(http.StatusNotFound, errors.New("monitor disabled"))
	}
	removalsMin, err := intParam(req, "removals")
	if err != nil {
		return web.ClientError(http.StatusBadRequest, err)
	}

	// Upgrade to Websocket.
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return err
	}
	web.ExpWebSocketConnectsCurrent.Add(1)
	defer func() {
		_ = conn.Close()
		web.ExpWebSocketConnectsCurrent.Add(-1)
	}()
	log.Debug().Str("module", "rest").Str("proto", "WebSocket").
		Str("remote", conn.RemoteAddr().String()).Msg("Upgraded to WebSocket")
	// Create, register listener; then interact with conn.
	rl := newReportListener(ctx.MsgHub, removalsMin)
	go rl.WSWriter(conn)
	rl.WSReader(conn)
	return nil
}

func entryToEvent(e msghub.Entry) *model.JSONMonitorEventV1 {
	report := e.Report
	return &model.JSONMonitorEventV1{
		Variant: "report",
		Seq:     e.Seq,
		Time:    e.Time,
		Report:  &report,
	}
}
