package daemon

import (
	"sync"
	"time"

	"sealwatch/internal/model"
)

// State tracks what the running watch has done. In-memory only: there is no
// processed-file ledger, which is why delivery is at-most-once per run rather
// than exactly-once ever.
type State struct {
	mu           sync.RWMutex
	watchDir     string
	sinkName     string
	remote       bool
	startedAt    time.Time
	sealed       int
	failed       int
	lastDelivery *time.Time
	lastError    string
}

type Snapshot struct {
	WatchDir     string     `json:"watch_dir"`
	Sink         string     `json:"sink"`
	Remote       bool       `json:"remote"`
	StartedAt    time.Time  `json:"started_at"`
	Sealed       int        `json:"sealed"`
	Failed       int        `json:"failed"`
	LastDelivery *time.Time `json:"last_delivery,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

func NewState(watchDir, sinkName string, remote bool) *State {
	return &State{
		watchDir:  watchDir,
		sinkName:  sinkName,
		remote:    remote,
		startedAt: time.Now(),
	}
}

func (s *State) Record(result model.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if result.Err != nil {
		s.failed++
		s.lastError = string(result.Stage) + ": " + result.Err.Error()
		return
	}

	s.sealed++
	now := time.Now()
	s.lastDelivery = &now
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		WatchDir:     s.watchDir,
		Sink:         s.sinkName,
		Remote:       s.remote,
		StartedAt:    s.startedAt,
		Sealed:       s.sealed,
		Failed:       s.failed,
		LastDelivery: s.lastDelivery,
		LastError:    s.lastError,
	}
}
