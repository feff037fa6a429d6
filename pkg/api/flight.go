package api

import (
	"github.com/spiceai/plasmagym/pkg/flights"
)

type Flight struct {
	Id               string     `json:"id"`
	Environment      string     `json:"environment"`
	Start            int64      `json:"start"`
	End              int64      `json:"end,omitempty"`
	ExpectedEpisodes int        `json:"expected_episodes"`
	Complete         bool       `json:"complete"`
	Error            string     `json:"error,omitempty"`
	Episodes         []*Episode `json:"episodes"`
}

func NewFlight(f *flights.Flight) *Flight {
	episodes := make([]*Episode, 0)
	for _, ep := range f.Episodes() {
		episode := NewEpisode(ep)
		episodes = append(episodes, episode)
	}

	flight := &Flight{
		Id:               f.Id(),
		Environment:      f.EnvId(),
		Start:            f.Start().Unix(),
		ExpectedEpisodes: f.ExpectedEpisodes(),
		Complete:         f.IsComplete(),
		Episodes:         episodes,
	}
	if f.IsComplete() {
		flight.End = f.End().Unix()
	}
	if err := f.Err(); err != nil {
		flight.Error = err.Error()
	}
	return flight
}
