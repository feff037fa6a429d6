// Package flights keeps track of runs ("flights") of episodes against an environment.
package flights

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Flight struct {
	id    string
	envId string

	start time.Time
	end   time.Time

	episodesMutex sync.RWMutex
	episodes      []*Episode
	expected      int

	isDone chan bool
	err    error
}

func NewFlight(envId string, episodes int) *Flight {
	if episodes < 1 {
		episodes = 1
	}
	return &Flight{
		id:       uuid.NewString(),
		envId:    envId,
		start:    time.Now(),
		episodes: make([]*Episode, 0, episodes),
		expected: episodes,
		isDone:   make(chan bool, 1),
	}
}

func (f *Flight) Id() string {
	return f.id
}

func (f *Flight) EnvId() string {
	return f.envId
}

func (f *Flight) WaitForDoneChan() *chan bool {
	return &f.isDone
}

// RecordEpisode appends e and completes the flight once the expected number of
// episodes is reached or e carries an error.
func (f *Flight) RecordEpisode(e *Episode) {
	f.episodesMutex.Lock()
	defer f.episodesMutex.Unlock()

	if !f.end.IsZero() {
		return
	}

	f.episodes = append(f.episodes, e)

	if len(f.episodes) >= f.expected || e.Error != "" {
		var err error
		if e.Error != "" {
			err = fmt.Errorf("%s: %s", e.Error, e.ErrorMessage)
		}
		f.complete(err)
	}
}

// Abort completes an unfinished flight with err.
func (f *Flight) Abort(err error) {
	f.episodesMutex.Lock()
	defer f.episodesMutex.Unlock()

	if f.end.IsZero() {
		f.complete(err)
	}
}

func (f *Flight) Episodes() []*Episode {
	f.episodesMutex.RLock()
	defer f.episodesMutex.RUnlock()

	return append([]*Episode(nil), f.episodes...)
}

func (f *Flight) GetEpisode(episodeId uint64) *Episode {
	for _, e := range f.Episodes() {
		if e.EpisodeId == episodeId {
			return e
		}
	}

	return nil
}

func (f *Flight) ExpectedEpisodes() int {
	return f.expected
}

func (f *Flight) Start() time.Time {
	return f.start
}

func (f *Flight) End() time.Time {
	f.episodesMutex.RLock()
	defer f.episodesMutex.RUnlock()

	return f.end
}

func (f *Flight) IsComplete() bool {
	return !f.End().IsZero()
}

func (f *Flight) Err() error {
	f.episodesMutex.RLock()
	defer f.episodesMutex.RUnlock()

	return f.err
}

func (f *Flight) Duration() time.Duration {
	if end := f.End(); !end.IsZero() {
		return end.Sub(f.start)
	}

	return time.Since(f.start)
}

// TotalScore sums the score of every recorded episode.
func (f *Flight) TotalScore() float64 {
	total := 0.0
	for _, e := range f.Episodes() {
		total += e.Score
	}
	return total
}

// complete must be called with episodesMutex held.
func (f *Flight) complete(err error) {
	f.end = time.Now()
	f.err = err
	f.isDone <- true
}
