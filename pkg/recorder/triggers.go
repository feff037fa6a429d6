package recorder

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EpisodeTrigger decides whether the episode with the given zero-based id is recorded.
type EpisodeTrigger func(episodeId int) bool

// StepTrigger decides whether recording starts at the given global step id.
type StepTrigger func(stepId int) bool

func Always(int) bool {
	return true
}

func Never(int) bool {
	return false
}

// CappedCubic fires on perfect cubes (0, 1, 8, 27, ...) below 1000 and on
// every 1000th episode after that.
func CappedCubic(episodeId int) bool {
	if episodeId < 1000 {
		root := int(math.Round(math.Cbrt(float64(episodeId))))
		return root*root*root == episodeId
	}
	return episodeId%1000 == 0
}

// Every fires on every n-th episode starting with the first.
func Every(n int) EpisodeTrigger {
	return func(episodeId int) bool {
		return episodeId%n == 0
	}
}

// ParseTrigger parses "always", "never", "cubic" or "every:N".
func ParseTrigger(s string) (EpisodeTrigger, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "always":
		return Always, nil
	case "never":
		return Never, nil
	case "cubic":
		return CappedCubic, nil
	}

	if strings.HasPrefix(s, "every:") {
		n, err := strconv.Atoi(strings.TrimPrefix(s, "every:"))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid trigger '%s': expected every:N with N > 0", s)
		}
		return Every(n), nil
	}

	return nil, fmt.Errorf("invalid trigger '%s': expected always, never, cubic or every:N", s)
}
