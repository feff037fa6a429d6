package testutils

import (
	"encoding/json"

	"github.com/bradleyjkemp/cupaloy"
)

// Snapshotter compares test output against files kept under a snapshot directory.
// Set UPDATE_SNAPSHOTS=1 to rewrite them.
type Snapshotter struct {
	config *cupaloy.Config
}

func NewSnapshotter(subdirectory string) *Snapshotter {
	return &Snapshotter{
		config: cupaloy.New(cupaloy.SnapshotSubdirectory(subdirectory)),
	}
}

func (s Snapshotter) SnapshotT(t cupaloy.TestingT, i ...interface{}) {
	s.config.SnapshotT(t, i...)
}

// SnapshotTJson snapshots i as indented JSON.
func (s Snapshotter) SnapshotTJson(t cupaloy.TestingT, i interface{}) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	s.config.SnapshotT(t, string(data))
}
