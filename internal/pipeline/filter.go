package pipeline

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"sealwatch/internal/crypt"
	"sealwatch/internal/logger"
	"sealwatch/internal/model"
)

// Filter drops events whose extension is not in the allow-list. An empty list
// admits everything. Sealed artifacts are always dropped so staged ciphertext
// written next to an original can never feed back into the pipeline.
func Filter(inCh <-chan model.FileEvent, extensions []string) <-chan model.FileEvent {
	outCh := make(chan model.FileEvent, cap(inCh))

	go func() {
		defer close(outCh)

		for event := range inCh {
			if !accepted(event.Path, extensions) {
				logger.Log.Debug("ignoring file",
					zap.String("path", event.Path))
				continue
			}
			outCh <- event
		}
	}()

	return outCh
}

func accepted(path string, extensions []string) bool {
	if strings.HasSuffix(path, crypt.Suffix) {
		return false
	}

	if len(extensions) == 0 {
		return true
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range extensions {
		if ext == allowed {
			return true
		}
	}

	return false
}
