// Package metric samples expvar counters over time for the status endpoint.
package metric

import (
	"container/list"
	"expvar"
	"strings"
	"sync"
	"time"
)

// TickerFunc is the function signature accepted by AddTickerFunc, will be called once per minute.
type TickerFunc func()

var tickerFuncChan = make(chan TickerFunc)

func init() {
	go metricsTicker()
}

// AddTickerFunc adds a new function callback to the list of metrics TickerFuncs that get
// called each minute.
func AddTickerFunc(f TickerFunc) {
	tickerFuncChan <- f
}

// History remembers the most recent samples of an expvar, published as a comma separated
// string.  An hour of per minute samples needs 61 entries, as consumers chart the deltas.
type History struct {
	mu      sync.Mutex
	src     expvar.Var
	max     int
	samples *list.List
	joined  expvar.String
}

// NewHistory creates a History holding up to max samples of src.
func NewHistory(src expvar.Var, max int) *History {
	return &History{src: src, max: max, samples: list.New()}
}

// Sample records the current value of the source var, dropping the oldest sample when full.
func (h *History) Sample() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples.PushBack(h.src.String())
	if h.samples.Len() > h.max {
		h.samples.Remove(h.samples.Front())
	}
	h.joined.Set(joinStringList(h.samples))
}

// Var returns the published form of the history.
func (h *History) Var() expvar.Var {
	return &h.joined
}

// metricsTicker calls the current list of TickerFuncs once per minute.
func metricsTicker() {
	funcs := make([]TickerFunc, 0)
	ticker := time.NewTicker(time.Minute)

	for {
		select {
		case <-ticker.C:
			for _, f := range funcs {
				f()
			}
		case f := <-tickerFuncChan:
			funcs = append(funcs, f)
		}
	}
}

// joinStringList joins a List containing strings by commas.
func joinStringList(listOfStrings *list.List) string {
	if listOfStrings.Len() == 0 {
		return ""
	}
	s := make([]string, 0, listOfStrings.Len())
	for e := listOfStrings.Front(); e != nil; e = e.Next() {
		s = append(s, e.Value.(string))
	}
	return strings.Join(s, ",")
}
