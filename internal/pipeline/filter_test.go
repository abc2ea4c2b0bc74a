package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sealwatch/internal/crypt"
	"sealwatch/internal/model"
)

func collect(ch <-chan model.FileEvent) []string {
	var paths []string
	for event := range ch {
		paths = append(paths, event.Path)
	}

	return paths
}

func send(paths ...string) <-chan model.FileEvent {
	ch := make(chan model.FileEvent, len(paths))
	for _, path := range paths {
		ch <- model.FileEvent{Type: model.EventCreate, Path: path, Timestamp: time.Now()}
	}
	close(ch)

	return ch
}

func TestFilterAllowList(t *testing.T) {
	out := Filter(send("/w/a.txt", "/w/b.pdf", "/w/c.jpg"), []string{".txt", ".pdf"})

	assert.Equal(t, []string{"/w/a.txt", "/w/b.pdf"}, collect(out))
}

func TestFilterEmptyListAdmitsEverything(t *testing.T) {
	out := Filter(send("/w/a.txt", "/w/b"), nil)

	assert.Equal(t, []string{"/w/a.txt", "/w/b"}, collect(out))
}

func TestFilterCaseInsensitiveExtension(t *testing.T) {
	out := Filter(send("/w/REPORT.TXT"), []string{".txt"})

	assert.Len(t, collect(out), 1)
}

func TestFilterAlwaysDropsSealedArtifacts(t *testing.T) {
	out := Filter(send("/w/a.txt"+crypt.Suffix, "/w/b.txt"), nil)

	assert.Equal(t, []string{"/w/b.txt"}, collect(out))
}
