package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsPostedCallbacksInOrder(t *testing.T) {
	l := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 1; i <= 3; i++ {
		i := i
		l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestLoop_AfterFuncRunsOnLoop(t *testing.T) {
	l := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	fired := make(chan struct{})
	l.AfterFunc(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for timer")
	}
}

func TestLoop_StoppedTimerDoesNotRun(t *testing.T) {
	l := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	ran := make(chan struct{}, 1)
	timer := l.AfterFunc(20*time.Millisecond, func() { ran <- struct{}{} })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second Stop should report nothing was stopped")

	select {
	case <-ran:
		t.Fatal("stopped timer ran")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestLoop_RecoversFromPanic(t *testing.T) {
	l := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	l.Post(func() { panic("boom") })
	done := make(chan struct{})
	l.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop stopped after panic")
	}
}

func TestLoop_PostAfterShutdownIsDropped(t *testing.T) {
	l := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	cancel()
	<-l.Done()

	// Fill the queue, then one more must not block.
	l.Post(func() {})
	l.Post(func() {})
}

func TestManual_PendingAndFire(t *testing.T) {
	m := NewManual()
	var order []string

	slow := m.AfterFunc(30*time.Second, func() { order = append(order, "slow") })
	m.AfterFunc(time.Second, func() { order = append(order, "fast") })

	pending := m.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, time.Second, pending[0].Delay)

	assert.True(t, slow.Stop())
	assert.True(t, m.FireNext())
	assert.False(t, m.FireNext())
	assert.Equal(t, []string{"fast"}, order)
}
