package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlerStableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stable.txt")
	require.NoError(t, os.WriteFile(path, []byte("done"), 0644))

	s := &Settler{Interval: 10 * time.Millisecond, Window: 30 * time.Millisecond}

	settled, err := s.Wait(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, settled)
}

func TestSettlerWaitsForWriterToFinish(t *testing.T) {
	path := filepath.Join(t.TempDir(), "growing.txt")
	require.NoError(t, os.WriteFile(path, []byte("part"), 0644))

	writesDone := make(chan struct{})
	go func() {
		defer close(writesDone)
		for i := 0; i < 5; i++ {
			time.Sleep(30 * time.Millisecond)
			f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				return
			}
			_, _ = f.WriteString("more data")
			_ = f.Close()
		}
	}()

	s := &Settler{Interval: 10 * time.Millisecond, Window: 60 * time.Millisecond}

	settled, err := s.Wait(context.Background(), path)
	require.NoError(t, err)
	require.True(t, settled)

	select {
	case <-writesDone:
	default:
		t.Fatal("file reported settled while writes were still in progress")
	}
}

func TestSettlerVanishedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghost.txt")

	s := &Settler{Interval: 10 * time.Millisecond, Window: 30 * time.Millisecond}

	settled, err := s.Wait(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, settled)
}

func TestSettlerContextCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Settler{Interval: 10 * time.Millisecond, Window: time.Hour}

	_, err := s.Wait(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}
