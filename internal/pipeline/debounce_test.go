package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealwatch/internal/model"
)

func TestDebounceCoalescesBursts(t *testing.T) {
	in := make(chan model.FileEvent, 10)
	out := Debounce(in, 40*time.Millisecond)

	for i := 0; i < 5; i++ {
		in <- model.FileEvent{Type: model.EventCreate, Path: "/w/a.txt", Timestamp: time.Now()}
	}
	in <- model.FileEvent{Type: model.EventCreate, Path: "/w/b.txt", Timestamp: time.Now()}
	close(in)

	paths := map[string]int{}
	for event := range out {
		paths[event.Path]++
	}

	assert.Equal(t, 1, paths["/w/a.txt"])
	assert.Equal(t, 1, paths["/w/b.txt"])
}

func TestDebounceFlushesPendingOnClose(t *testing.T) {
	in := make(chan model.FileEvent, 1)
	out := Debounce(in, time.Hour)

	in <- model.FileEvent{Type: model.EventCreate, Path: "/w/a.txt", Timestamp: time.Now()}
	close(in)

	select {
	case event, ok := <-out:
		require.True(t, ok)
		assert.Equal(t, "/w/a.txt", event.Path)
	case <-time.After(time.Second):
		t.Fatal("pending event was not flushed on close")
	}
}
