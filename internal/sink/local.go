package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"sealwatch/internal/crypt"
	"sealwatch/internal/logger"
	"sealwatch/internal/util"
)

// Local stores sealed artifacts in a destination directory. A name collision
// gets a numeric counter before the suffix instead of overwriting; silently
// replacing an earlier artifact would destroy it.
type Local struct {
	mu      sync.Mutex
	destDir string
}

func NewLocal(destDir string) (*Local, error) {
	absDir, err := filepath.Abs(destDir)
	if err != nil {
		return nil, fmt.Errorf("invalid destination path: %w", err)
	}

	return &Local{destDir: absDir}, nil
}

func (s *Local) Name() string {
	return "local:" + s.destDir
}

func (s *Local) Remote() bool {
	return false
}

func (s *Local) Connect(_ context.Context) error {
	info, err := os.Stat(s.destDir)
	if err != nil {
		return fmt.Errorf("destination directory not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("destination is not a directory: %s", s.destDir)
	}

	return nil
}

func (s *Local) Store(_ context.Context, name string, data []byte) (string, error) {
	// Collision probing and the write happen under one lock so two workers
	// cannot claim the same destination name.
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := filepath.Join(s.destDir, name)
	if _, err := os.Stat(dst); err == nil {
		dst = s.nextFreePath(name)
		logger.Log.Warn("destination name taken, using alternative",
			zap.String("path", dst))
	}

	if err := util.AtomicWriteBytes(dst, data); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", name, err)
	}

	return dst, nil
}

func (s *Local) nextFreePath(name string) string {
	stem := strings.TrimSuffix(name, crypt.Suffix)
	for counter := 1; ; counter++ {
		candidate := filepath.Join(s.destDir, fmt.Sprintf("%s.%d%s", stem, counter, crypt.Suffix))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
