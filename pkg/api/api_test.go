package api_test

import (
	"testing"
	"time"

	"github.com/spiceai/plasmagym/pkg/api"
	"github.com/spiceai/plasmagym/pkg/environment"
	"github.com/spiceai/plasmagym/pkg/flights"
	"github.com/spiceai/plasmagym/pkg/testutils"
	"github.com/stretchr/testify/assert"
)

var snapshotter = testutils.NewSnapshotter("../../test/assets/snapshots/api")

func TestApi(t *testing.T) {
	t.Run("NewEpisode() -- Should flatten times and errors", testNewEpisode())
	t.Run("NewFlight() -- Should include every episode", testNewFlight())
	t.Run("NewEnvironment() -- Should describe a registered environment", testNewEnvironment())
}

func testNewEpisode() func(*testing.T) {
	return func(t *testing.T) {
		start := time.Date(2021, 10, 1, 12, 0, 0, 0, time.UTC)
		ep := api.NewEpisode(&flights.Episode{
			EpisodeId:    3,
			Start:        start,
			End:          start.Add(90 * time.Second),
			Score:        4.25,
			Steps:        150,
			Terminated:   true,
			VideoPath:    "/videos/plasma_simulation-episode-3.mp4",
			Error:        "render_failed",
			ErrorMessage: "no frame",
		})

		snapshotter.SnapshotTJson(t, ep)
	}
}

func testNewFlight() func(*testing.T) {
	return func(t *testing.T) {
		f := flights.NewFlight("gymtorax/IterHybrid-v0", 2)
		f.RecordEpisode(&flights.Episode{EpisodeId: 0, Score: 1})

		flight := api.NewFlight(f)
		assert.Equal(t, f.Id(), flight.Id)
		assert.Equal(t, "gymtorax/IterHybrid-v0", flight.Environment)
		assert.False(t, flight.Complete)
		assert.Zero(t, flight.End)
		assert.Len(t, flight.Episodes, 1)

		f.RecordEpisode(&flights.Episode{EpisodeId: 1, Score: 2})
		<-*f.WaitForDoneChan()

		flight = api.NewFlight(f)
		assert.True(t, flight.Complete)
		assert.NotZero(t, flight.End)
		assert.Len(t, flight.Episodes, 2)
	}
}

func testNewEnvironment() func(*testing.T) {
	return func(t *testing.T) {
		env := api.NewEnvironment(&environment.Spec{
			Id:              "gymtorax/IterHybrid-v0",
			MaxEpisodeSteps: 200,
			Metadata: environment.Metadata{
				RenderModes: []environment.RenderMode{environment.RenderRGBArray},
				RenderFPS:   10,
			},
		})

		snapshotter.SnapshotTJson(t, env)
	}
}
