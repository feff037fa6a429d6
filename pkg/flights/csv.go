package flights

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

func WriteEpisodesCsv(w io.Writer, episodes []*Episode) error {
	return gocsv.Marshal(episodes, w)
}

func ReadEpisodesCsv(r io.Reader) ([]*Episode, error) {
	episodes := []*Episode{}
	if err := gocsv.Unmarshal(r, &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}

// SaveEpisodesCsv writes the flight's episodes to path, replacing any existing file.
func (f *Flight) SaveEpisodesCsv(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create episode stats file '%s': %w", path, err)
	}
	defer file.Close()

	if err := WriteEpisodesCsv(file, f.Episodes()); err != nil {
		return fmt.Errorf("failed to write episode stats to '%s': %w", path, err)
	}
	return file.Close()
}
