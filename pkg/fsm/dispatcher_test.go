package fsm

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherKeepsPerUserOrder(t *testing.T) {
	var (
		mu  sync.Mutex
		got = map[int64][]string{}
	)
	d := NewDispatcher(func(_ context.Context, ev Event) {
		if ev.Text == "0" {
			time.Sleep(20 * time.Millisecond)
		}
		mu.Lock()
		got[ev.UserID] = append(got[ev.UserID], ev.Text)
		mu.Unlock()
	})

	var want []string
	for i := 0; i < 20; i++ {
		text := strconv.Itoa(i)
		want = append(want, text)
		d.Dispatch(context.Background(), Event{Kind: KindText, UserID: 1, ChatID: 1, Text: text})
		d.Dispatch(context.Background(), Event{Kind: KindText, UserID: 2, ChatID: 2, Text: text})
	}
	d.Wait()

	assert.Equal(t, want, got[1])
	assert.Equal(t, want, got[2])
}

func TestDispatcherRunsUsersInParallel(t *testing.T) {
	release := make(chan struct{})
	done := make(chan int64, 2)
	d := NewDispatcher(func(_ context.Context, ev Event) {
		if ev.UserID == 1 {
			<-release
		}
		done <- ev.UserID
	})

	d.Dispatch(context.Background(), Event{Kind: KindText, UserID: 1, ChatID: 1})
	d.Dispatch(context.Background(), Event{Kind: KindText, UserID: 2, ChatID: 2})

	select {
	case id := <-done:
		assert.Equal(t, int64(2), id)
	case <-time.After(time.Second):
		require.FailNow(t, "user 2 was blocked behind user 1")
	}
	close(release)
	d.Wait()
	assert.Equal(t, int64(1), <-done)
}

func TestDispatcherSurvivesIdleQueue(t *testing.T) {
	var n int
	var mu sync.Mutex
	d := NewDispatcher(func(context.Context, Event) {
		mu.Lock()
		n++
		mu.Unlock()
	})

	d.Dispatch(context.Background(), Event{Kind: KindText, UserID: 5, ChatID: 5})
	d.Wait()
	d.Dispatch(context.Background(), Event{Kind: KindText, UserID: 5, ChatID: 5})
	d.Wait()

	assert.Equal(t, 2, n)
}
