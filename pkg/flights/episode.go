package flights

import "time"

type Episode struct {
	EpisodeId    uint64    `csv:"episode" json:"episode"`
	Start        time.Time `csv:"start" json:"start"`
	End          time.Time `csv:"end" json:"end"`
	Score        float64   `csv:"score" json:"score"`
	Steps        uint64    `csv:"steps" json:"steps"`
	Terminated   bool      `csv:"terminated" json:"terminated"`
	Truncated    bool      `csv:"truncated" json:"truncated"`
	VideoPath    string    `csv:"video" json:"video,omitempty"`
	Error        string    `csv:"error" json:"error,omitempty"`
	ErrorMessage string    `csv:"error_message" json:"error_message,omitempty"`
}

func (e *Episode) Duration() time.Duration {
	return e.End.Sub(e.Start)
}
