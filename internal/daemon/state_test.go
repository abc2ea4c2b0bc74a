package daemon

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"sealwatch/internal/model"
)

func TestStateRecordsDeliveries(t *testing.T) {
	state := NewState("/watch", "local:/dest", false)

	state.Record(model.Result{Location: "/dest/a.sealed"})
	state.Record(model.Result{Location: "/dest/b.sealed"})

	snap := state.Snapshot()
	assert.Equal(t, 2, snap.Sealed)
	assert.Equal(t, 0, snap.Failed)
	assert.NotNil(t, snap.LastDelivery)
	assert.Empty(t, snap.LastError)
}

func TestStateRecordsFailures(t *testing.T) {
	state := NewState("/watch", "fake", true)

	state.Record(model.Result{
		Stage: model.StageDeliver,
		Err:   errors.New("quota exceeded"),
	})

	snap := state.Snapshot()
	assert.Equal(t, 0, snap.Sealed)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, "deliver: quota exceeded", snap.LastError)
	assert.Nil(t, snap.LastDelivery)
}

func TestSnapshotCarriesIdentity(t *testing.T) {
	state := NewState("/watch", "dropbox:/sealed", true)

	snap := state.Snapshot()
	assert.Equal(t, "/watch", snap.WatchDir)
	assert.Equal(t, "dropbox:/sealed", snap.Sink)
	assert.True(t, snap.Remote)
	assert.False(t, snap.StartedAt.IsZero())
}
