// Package msghub keeps a short history of sanitizer change reports and relays new reports to
// monitor listeners.
package msghub

import (
	"container/ring"
	"context"
	"expvar"
	"time"

	"github.com/inbucket/sanitizer/pkg/extension"
	"github.com/inbucket/sanitizer/pkg/extension/event"
	"github.com/inbucket/sanitizer/pkg/metric"
)

// Length of msghub operation queue
const opChanLen = 100

var (
	expReportsTotal  = new(expvar.Int)
	expRemovalsTotal = new(expvar.Int)

	// History of the totals, one sample per minute
	expReportsHist  = metric.NewHistory(expReportsTotal, 61)
	expRemovalsHist = metric.NewHistory(expRemovalsTotal, 61)
)

func init() {
	m := expvar.NewMap("reports")
	m.Set("ReportsTotal", expReportsTotal)
	m.Set("RemovalsTotal", expRemovalsTotal)
	m.Set("ReportsHist", expReportsHist.Var())
	m.Set("RemovalsHist", expRemovalsHist.Var())

	metric.AddTickerFunc(func() {
		expReportsHist.Sample()
		expRemovalsHist.Sample()
	})
}

// Entry is a change report as recorded by the hub.
type Entry struct {
	Seq    uint64             `json:"seq"`
	Time   time.Time          `json:"time"`
	Report event.ChangeReport `json:"report"`
}

// Listener receives the contents of the history buffer, followed by new entries.
type Listener interface {
	Receive(entry Entry) error
}

// Hub relays change reports on to its listeners
type Hub struct {
	// history buffer, points next Entry to write.  Proceeding non-nil entry is oldest Entry
	history     *ring.Ring
	listeners   map[Listener]struct{} // listeners interested in new reports
	opChan      chan func(h *Hub)     // operations queued for this actor
	seq         uint64                // sequence number of the last entry
	changedOnly bool
}

// Option configures a Hub.
type Option func(*Hub)

// ChangedOnly makes the hub ignore reports that hold no changes.
func ChangedOnly() Option {
	return func(h *Hub) {
		h.changedOnly = true
	}
}

// New constructs a new Hub which will cache historyLen reports in memory for playback to future
// listeners.  Reports are received from the AfterSanitized event.  Start must be called to process
// them.
func New(historyLen int, extHost *extension.Host, opts ...Option) *Hub {
	hub := &Hub{
		history:   ring.New(historyLen),
		listeners: make(map[Listener]struct{}),
		opChan:    make(chan func(h *Hub), opChanLen),
	}
	for _, opt := range opts {
		opt(hub)
	}

	extHost.Events.AfterSanitized.AddListener("msghub", hub.Dispatch)

	return hub
}

// Start Hub processing loop.
func (hub *Hub) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// Shutdown
			close(hub.opChan)
			return
		case op := <-hub.opChan:
			op(hub)
		}
	}
}

// Dispatch queues a report for broadcast by the hub.  The report will be placed into the history
// buffer and then relayed to all registered listeners.
func (hub *Hub) Dispatch(report event.ChangeReport) {
	if hub.changedOnly && !report.Changed() {
		return
	}
	now := time.Now()
	hub.opChan <- func(h *Hub) {
		h.seq++
		entry := Entry{Seq: h.seq, Time: now, Report: report}
		expReportsTotal.Add(1)
		expRemovalsTotal.Add(int64(report.Removals()))

		if h.history != nil {
			h.history.Value = entry
			h.history = h.history.Next()
		}

		// Deliver entry to all listeners, removing listeners if they return an error
		for l := range h.listeners {
			if err := l.Receive(entry); err != nil {
				delete(h.listeners, l)
			}
		}
	}
}

// AddListener registers a listener to receive broadcasted reports, after replaying history.
func (hub *Hub) AddListener(l Listener) {
	hub.opChan <- func(h *Hub) {
		// Playback log
		failed := false
		h.history.Do(func(v any) {
			if v != nil && !failed {
				failed = l.Receive(v.(Entry)) != nil
			}
		})

		if !failed {
			h.listeners[l] = struct{}{}
		}
	}
}

// RemoveListener deletes a listener registration, it will cease to receive reports.
func (hub *Hub) RemoveListener(l Listener) {
	hub.opChan <- func(h *Hub) {
		delete(h.listeners, l)
	}
}

// History returns the buffered entries, oldest first.
func (hub *Hub) History() []Entry {
	result := make(chan []Entry)
	hub.opChan <- func(h *Hub) {
		var entries []Entry
		h.history.Do(func(v any) {
			if v != nil {
				entries = append(entries, v.(Entry))
			}
		})
		result <- entries
	}
	return <-result
}

// Clear empties the history buffer.
func (hub *Hub) Clear() {
	hub.opChan <- func(h *Hub) {
		for i := 0; i < h.history.Len(); i++ {
			h.history.Value = nil
			h.history = h.history.Next()
		}
	}
}

// Sync blocks until the msghub has processed its queue up to this point, useful
// for unit tests.
func (hub *Hub) Sync() {
	done := make(chan struct{})
	hub.opChan <- func(h *Hub) {
		close(done)
	}
	<-done
}
