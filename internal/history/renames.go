package history

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/wisselwerking/indeler/internal/tabular"
	"github.com/wisselwerking/indeler/internal/utils"
)

// Renames maps department and choice names used in earlier years to their current name.
type Renames struct {
	names map[string]string
}

// NewRenames builds a table from old/new pairs; later pairs win, as in the file.
func NewRenames(pairs ...[2]string) *Renames {
	r := &Renames{names: map[string]string{}}
	for _, p := range pairs {
		r.add(p[0], p[1])
	}
	r.collapse()
	return r
}

// LoadRenames reads an old;new table. A missing file yields an empty table.
func LoadRenames(fs afero.Fs, path string) (*Renames, error) {
	r := &Renames{names: map[string]string{}}
	if _, err := fs.Stat(path); errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	table, err := tabular.Read(fs, path, tabular.UTF8)
	if err != nil {
		return nil, fmt.Errorf("read renames %s: %w", path, err)
	}
	for _, row := range table.Rows {
		r.add(row.Get("old"), row.Get("new"))
	}
	r.collapse()
	return r, nil
}

func (r *Renames) add(old, canonical string) {
	old = utils.NormalizeLabel(old)
	canonical = utils.NormalizeLabel(canonical)
	if old == "" || canonical == "" {
		return
	}
	r.names[strings.ToLower(old)] = canonical
	r.names[strings.ToLower(canonical)] = canonical
}

// collapse follows chains such as a->b, b->c so that every name resolves in one lookup
// and every canonical name maps to itself.
func (r *Renames) collapse() {
	for key, name := range r.names {
		seen := map[string]bool{key: true}
		for {
			next, ok := r.names[strings.ToLower(name)]
			if !ok || next == name || seen[strings.ToLower(name)] {
				break
			}
			seen[strings.ToLower(name)] = true
			name = next
		}
		r.names[key] = name
	}
}

// Rename returns the canonical spelling of a department or choice name.
func (r *Renames) Rename(name string) string {
	name = utils.NormalizeLabel(name)
	if r == nil {
		return name
	}
	if canonical, ok := r.names[strings.ToLower(name)]; ok {
		return canonical
	}
	return name
}

func (r *Renames) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}
