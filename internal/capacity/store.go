package capacity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/afero"

	"github.com/wisselwerking/indeler/internal/models"
	"github.com/wisselwerking/indeler/internal/tabular"
)

// ErrUnknownCapacity is returned for a choice whose capacity has not been entered yet.
var ErrUnknownCapacity = errors.New("capacity unknown")

// Resolver supplies a capacity the store does not know, typically by asking the operator.
type Resolver interface {
	ResolveCapacity(ctx context.Context, label string) (int, error)
}

type Store struct {
	fs       afero.Fs
	path     string
	columns  [2]string
	surprise string
	values   map[string]int
	unknown  map[string]struct{}
}

// New returns an empty store persisted to path.
func New(fs afero.Fs, path, choiceColumn, valueColumn, surprise string) *Store {
	return &Store{
		fs:       fs,
		path:     path,
		columns:  [2]string{choiceColumn, valueColumn},
		surprise: surprise,
		values:   map[string]int{},
		unknown:  map[string]struct{}{},
	}
}

// Load reads the capacity file if it exists. Blank or malformed values are kept as unknown.
func (s *Store) Load() error {
	if _, err := s.fs.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	table, err := tabular.Read(s.fs, s.path, tabular.UTF8)
	if err != nil {
		return fmt.Errorf("read capacities %s: %w", s.path, err)
	}
	for _, row := range table.Rows {
		label := row.Get(s.columns[0])
		if label == "" {
			continue
		}
		n, err := strconv.Atoi(row.Get(s.columns[1]))
		if err != nil || n < 0 {
			s.unknown[label] = struct{}{}
			delete(s.values, label)
			continue
		}
		s.Set(label, n)
	}
	return nil
}

// Get returns the cached capacity. The surprise pseudo-choice is unbounded and never stored.
func (s *Store) Get(label string) (int, error) {
	if label == s.surprise {
		return models.Unbounded, nil
	}
	n, ok := s.values[label]
	if !ok {
		return 0, fmt.Errorf("%s: %w", label, ErrUnknownCapacity)
	}
	return n, nil
}

// Resolve is Get falling back to the resolver; the resolved value is cached for the run.
func (s *Store) Resolve(ctx context.Context, label string, resolver Resolver) (int, error) {
	n, err := s.Get(label)
	if !errors.Is(err, ErrUnknownCapacity) {
		return n, err
	}
	if resolver == nil {
		return 0, err
	}
	n, err = resolver.ResolveCapacity(ctx, label)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative capacity %d for %s", n, label)
	}
	s.Set(label, n)
	return n, nil
}

func (s *Store) Set(label string, n int) {
	if label == s.surprise {
		return
	}
	s.values[label] = n
	delete(s.unknown, label)
}

// Labels lists every label the store has seen, known or not, sorted.
func (s *Store) Labels() []string {
	out := make([]string, 0, len(s.values)+len(s.unknown))
	for label := range s.values {
		out = append(out, label)
	}
	for label := range s.unknown {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// Save rewrites the capacity file with the full mapping. Unknown capacities are written blank.
func (s *Store) Save() error {
	rows := make([][]string, 0, len(s.values)+len(s.unknown))
	for _, label := range s.Labels() {
		value := ""
		if n, ok := s.values[label]; ok {
			value = strconv.Itoa(n)
		}
		rows = append(rows, []string{label, value})
	}
	if err := tabular.Write(s.fs, s.path, s.columns[:], rows); err != nil {
		return fmt.Errorf("write capacities %s: %w", s.path, err)
	}
	return nil
}
