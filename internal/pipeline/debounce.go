package pipeline

import (
	"time"

	"sealwatch/internal/model"
)

// Debounce coalesces bursts of events for the same path, forwarding only the
// latest one once the path has been quiet for delay. Pending events are
// flushed when the input channel closes.
func Debounce(inCh <-chan model.FileEvent, delay time.Duration) <-chan model.FileEvent {
	outCh := make(chan model.FileEvent, cap(inCh))

	go func() {
		defer close(outCh)

		pending := make(map[string]model.FileEvent)
		due := make(map[string]time.Time)

		tick := delay / 4
		if tick < 10*time.Millisecond {
			tick = 10 * time.Millisecond
		}
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-inCh:
				if !ok {
					for _, e := range pending {
						outCh <- e
					}
					return
				}

				pending[event.Path] = event
				due[event.Path] = time.Now().Add(delay)

			case now := <-ticker.C:
				for path, deadline := range due {
					if now.Before(deadline) {
						continue
					}

					outCh <- pending[path]
					delete(pending, path)
					delete(due, path)
				}
			}
		}
	}()

	return outCh
}
