package pipeline

import (
	"context"
	"os"
	"time"
)

// Settler decides when a newly observed file has finished being written:
// size and mtime must hold still for a full quiet window before the file is
// safe to read. Reading earlier would seal a truncated payload.
type Settler struct {
	Interval time.Duration
	Window   time.Duration
}

// Wait polls path until it settles. It returns (true, nil) once the file has
// been stable for the quiet window, (false, nil) if the file vanished before
// settling (transient editor droppings take this path), and (false, err) only
// on context cancellation.
func (s *Settler) Wait(ctx context.Context, path string) (bool, error) {
	var (
		lastSize    int64 = -1
		lastMod     time.Time
		stableSince time.Time
	)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			// Transient stat failures count as instability.
			lastSize = -1
		} else if info.Size() == lastSize && info.ModTime().Equal(lastMod) {
			if stableSince.IsZero() {
				stableSince = time.Now()
			}
			if time.Since(stableSince) >= s.Window {
				return true, nil
			}
		} else {
			lastSize = info.Size()
			lastMod = info.ModTime()
			stableSince = time.Time{}
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}
