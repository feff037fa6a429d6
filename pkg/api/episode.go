package api

import (
	"github.com/spiceai/plasmagym/pkg/flights"
)

type Episode struct {
	Episode    uint64  `json:"episode"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Score      float64 `json:"score"`
	Steps      uint64  `json:"steps"`
	Terminated bool    `json:"terminated"`
	Truncated  bool    `json:"truncated"`
	Video      string  `json:"video,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func NewEpisode(ep *flights.Episode) *Episode {
	e := &Episode{
		Episode:    ep.EpisodeId,
		Start:      ep.Start.Unix(),
		End:        ep.End.Unix(),
		Score:      ep.Score,
		Steps:      ep.Steps,
		Terminated: ep.Terminated,
		Truncated:  ep.Truncated,
		Video:      ep.VideoPath,
	}
	if ep.Error != "" {
		e.Error = ep.Error + ": " + ep.ErrorMessage
	}
	return e
}
