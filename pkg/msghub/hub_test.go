package msghub

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/inbucket/sanitizer/pkg/extension"
	"github.com/inbucket/sanitizer/pkg/extension/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testListener implements the Listener interface, mock for unit tests
type testListener struct {
	entries    []Entry // received entries
	wantEvents int     // how many events this listener wants to receive
	errorAfter int     // when != 0, event count until Receive() begins returning error
	gotEvents  int

	done     chan struct{} // closed once we have received wantEvents
	overflow chan struct{} // closed if we receive wantEvents+1
}

func newTestListener(want int) *testListener {
	l := &testListener{
		entries:    make([]Entry, 0, want*2),
		wantEvents: want,
		done:       make(chan struct{}),
		overflow:   make(chan struct{}),
	}
	if want == 0 {
		close(l.done)
	}
	return l
}

// Receive an Entry, store it in the entries slice, close applicable channels, and return an error
// if instructed
func (l *testListener) Receive(entry Entry) error {
	l.gotEvents++
	l.entries = append(l.entries, entry)
	if l.gotEvents == l.wantEvents {
		close(l.done)
	}
	if l.gotEvents == l.wantEvents+1 {
		close(l.overflow)
	}
	if l.errorAfter > 0 && l.gotEvents > l.errorAfter {
		return errors.New("too many reports")
	}
	return nil
}

// String formats the got vs wanted entry counts
func (l *testListener) String() string {
	return fmt.Sprintf("got %v entries, wanted %v", len(l.entries), l.wantEvents)
}

func waitDone(t *testing.T, l *testListener) {
	t.Helper()
	select {
	case <-l.done:
	case <-time.After(time.Second):
		t.Fatal("Timeout:", l)
	}
}

func TestHubNew(t *testing.T) {
	extHost := extension.NewHost()
	hub := New(5, extHost)
	if hub == nil {
		t.Fatal("New() == nil, expected a new Hub")
	}
	assert.True(t, extHost.Events.AfterSanitized.HasListeners())
}

func TestHubZeroLen(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := New(0, extension.NewHost())
	go hub.Start(ctx)
	r := event.ChangeReport{}
	for i := 0; i < 100; i++ {
		hub.Dispatch(r)
	}
	assert.Empty(t, hub.History())
}

func TestHubZeroListeners(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := New(5, extension.NewHost())
	go hub.Start(ctx)
	r := event.ChangeReport{}
	for i := 0; i < 100; i++ {
		hub.Dispatch(r)
	}
	// Ensures Hub doesn't panic
	hub.Sync()
}

func TestHubOneListener(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := New(5, extension.NewHost())
	go hub.Start(ctx)
	l := newTestListener(1)

	hub.AddListener(l)
	hub.Dispatch(event.ChangeReport{RemovedComments: 2})

	waitDone(t, l)
	assert.Equal(t, uint64(1), l.entries[0].Seq)
	assert.Equal(t, 2, l.entries[0].Report.RemovedComments)
	assert.False(t, l.entries[0].Time.IsZero())
}

func TestHubRemoveListener(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := New(5, extension.NewHost())
	go hub.Start(ctx)
	r := event.ChangeReport{}
	l := newTestListener(1)

	hub.AddListener(l)
	hub.Dispatch(r)
	hub.RemoveListener(l)
	hub.Dispatch(r)
	hub.Sync()

	select {
	case <-l.overflow:
		t.Error(l)
	case <-time.After(50 * time.Millisecond):
		// Expected result, no overflow
	}
}

func TestHubRemoveListenerOnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := New(5, extension.NewHost())
	go hub.Start(ctx)
	r := event.ChangeReport{}

	// error after 1 means listener should receive 2 reports before being removed
	l := newTestListener(2)
	l.errorAfter = 1

	hub.AddListener(l)
	hub.Dispatch(r)
	hub.Dispatch(r)
	hub.Dispatch(r)
	hub.Dispatch(r)
	hub.Sync()

	select {
	case <-l.overflow:
		t.Error(l)
	case <-time.After(50 * time.Millisecond):
		// Expected result, no overflow
	}
}

func TestHubHistoryReplay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := New(100, extension.NewHost())
	go hub.Start(ctx)
	l1 := newTestListener(3)
	hub.AddListener(l1)

	reports := make([]event.ChangeReport, 3)
	for i := 0; i < len(reports); i++ {
		reports[i] = event.ChangeReport{BaseURL: fmt.Sprintf("http://example.com/%v", i)}
		hub.Dispatch(reports[i])
	}
	waitDone(t, l1)

	// Add a new listener
	l2 := newTestListener(3)
	hub.AddListener(l2)
	waitDone(t, l2)

	for i := 0; i < len(reports); i++ {
		assert.Equal(t, reports[i].BaseURL, l2.entries[i].Report.BaseURL)
		assert.Equal(t, uint64(i+1), l2.entries[i].Seq)
	}
}

func TestHubHistoryReplayWrap(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := New(5, extension.NewHost())
	go hub.Start(ctx)
	l1 := newTestListener(20)
	hub.AddListener(l1)

	// Broadcast more reports than the hub can hold
	reports := make([]event.ChangeReport, 20)
	for i := 0; i < len(reports); i++ {
		reports[i] = event.ChangeReport{BaseURL: fmt.Sprintf("http://example.com/%v", i)}
		hub.Dispatch(reports[i])
	}
	waitDone(t, l1)

	l2 := newTestListener(5)
	hub.AddListener(l2)
	waitDone(t, l2)

	for i := 0; i < 5; i++ {
		assert.Equal(t, reports[i+15].BaseURL, l2.entries[i].Report.BaseURL)
	}
	require.Equal(t, 5, hub.history.Len())
}

func TestHubHistory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := New(3, extension.NewHost())
	go hub.Start(ctx)

	for i := 0; i < 4; i++ {
		hub.Dispatch(event.ChangeReport{RemovedComments: i})
	}

	got := hub.History()
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Report.RemovedComments)
	assert.Equal(t, 3, got[2].Report.RemovedComments)
	assert.Equal(t, uint64(4), got[2].Seq)
}

func TestHubClear(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := New(5, extension.NewHost())
	go hub.Start(ctx)

	for i := 0; i < 7; i++ {
		hub.Dispatch(event.ChangeReport{})
	}
	hub.Clear()
	assert.Empty(t, hub.History())

	// Buffer must not shrink.
	hub.Dispatch(event.ChangeReport{RemovedComments: 1})
	got := hub.History()
	require.Len(t, got, 1)
	assert.Equal(t, uint64(8), got[0].Seq)
	assert.Equal(t, 5, hub.history.Len())
}

func TestHubChangedOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := New(5, extension.NewHost(), ChangedOnly())
	go hub.Start(ctx)

	hub.Dispatch(event.ChangeReport{BaseURL: "http://example.com/"})
	hub.Dispatch(event.ChangeReport{RemovedTags: []event.TagChange{
		{Tag: "script", Reason: event.NotAllowedTag},
	}})

	got := hub.History()
	require.Len(t, got, 1)
	assert.Equal(t, "script", got[0].Report.RemovedTags[0].Tag)
}

func TestHubAfterSanitizedEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	extHost := extension.NewHost()
	hub := New(5, extHost)
	go hub.Start(ctx)
	l := newTestListener(1)
	hub.AddListener(l)

	extHost.Events.AfterSanitized.Emit(&event.ChangeReport{RemovedComments: 1})

	waitDone(t, l)
	assert.Equal(t, 1, l.entries[0].Report.RemovedComments)
}

func TestHubContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := New(5, extension.NewHost())
	go hub.Start(ctx)
	l := newTestListener(1)

	hub.AddListener(l)
	hub.Dispatch(event.ChangeReport{})
	hub.Sync()
	cancel()

	select {
	case <-l.overflow:
		t.Error(l)
	case <-time.After(50 * time.Millisecond):
		// Expected result, no overflow
	}
}
