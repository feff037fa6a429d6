package flights

import (
	"sort"
	"sync"
)

// Store holds the flights of the current process.
type Store struct {
	mutex   sync.RWMutex
	flights map[string]*Flight
}

func NewStore() *Store {
	return &Store{
		flights: make(map[string]*Flight),
	}
}

func (s *Store) Add(f *Flight) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.flights[f.Id()] = f
}

func (s *Store) Get(id string) *Flight {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.flights[id]
}

// List returns all flights ordered by start time.
func (s *Store) List() []*Flight {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	list := make([]*Flight, 0, len(s.flights))
	for _, f := range s.flights {
		list = append(list, f)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Start().Before(list[j].Start())
	})
	return list
}
