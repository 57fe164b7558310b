// Package history reads the assignment files of previous cycles so the operator can
// see who participated before and where they went.
package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/wisselwerking/indeler/internal/models"
	"github.com/wisselwerking/indeler/internal/tabular"
	"github.com/wisselwerking/indeler/internal/utils"
)

var yearPattern = regexp.MustCompile(`\d{4}`)

type Options struct {
	CyclePrefix      string
	ArchivePrefix    string
	FileName         string
	EmailColumn      string
	DepartmentColumn string
	AssignedColumn   string
}

type Reader struct {
	FS      afero.Fs
	Renames *Renames
	Options Options
	Logger  zerolog.Logger
}

// Read walks root for cycle directories (one assignment file each) and archive
// directories (recursed). Cycle directories without an assignment file are skipped.
func (r *Reader) Read(ctx context.Context, root string) (*Collection, error) {
	var records []models.HistoryRecord
	if err := r.walk(ctx, root, &records); err != nil {
		return nil, err
	}
	return NewCollection(records), nil
}

func (r *Reader) walk(ctx context.Context, dir string, records *[]models.HistoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := afero.ReadDir(r.FS, dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}
	cycle := strings.ToLower(r.Options.CyclePrefix)
	archive := strings.ToLower(r.Options.ArchivePrefix)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		path := filepath.Join(dir, entry.Name())
		switch {
		case strings.HasPrefix(name, cycle):
			year, err := r.readCycle(entry.Name(), filepath.Join(path, r.Options.FileName))
			if err != nil {
				return err
			}
			*records = append(*records, year...)
		case strings.HasPrefix(name, archive):
			if err := r.walk(ctx, path, records); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Reader) readCycle(dir, path string) ([]models.HistoryRecord, error) {
	if _, err := r.FS.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.Logger.Warn().Str("dir", dir).Msg("no assignment file, cycle skipped")
		return nil, nil
	}
	table, err := tabular.Read(r.FS, path, tabular.UTF8)
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", path, err)
	}

	years := ParseYears(dir)
	out := make([]models.HistoryRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		out = append(out, models.HistoryRecord{
			Email:      utils.NormalizeEmail(row.Get(r.Options.EmailColumn)),
			Years:      years,
			Department: r.Renames.Rename(row.Get(r.Options.DepartmentColumn)),
			Assigned:   r.Renames.Rename(row.Get(r.Options.AssignedColumn)),
		})
	}
	r.Logger.Debug().Str("dir", dir).Int("records", len(out)).Msg("cycle read")
	return out, nil
}

// ParseYears extracts every four digit number from a cycle directory name, in order.
func ParseYears(name string) []int {
	var years []int
	for _, m := range yearPattern.FindAllString(name, -1) {
		y, _ := strconv.Atoi(m)
		years = append(years, y)
	}
	return years
}

type Collection struct {
	Records []models.HistoryRecord
	byEmail map[string][]int
}

func NewCollection(records []models.HistoryRecord) *Collection {
	c := &Collection{Records: records, byEmail: map[string][]int{}}
	for i, rec := range records {
		key := utils.NormalizeEmail(rec.Email)
		c.byEmail[key] = append(c.byEmail[key], i)
	}
	return c
}

// ByEmail returns all records of one participant, oldest cycle first.
func (c *Collection) ByEmail(email string) []models.HistoryRecord {
	idx := c.byEmail[utils.NormalizeEmail(email)]
	out := make([]models.HistoryRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.Records[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return firstYear(out[i]) < firstYear(out[j])
	})
	return out
}

// AssignedLabels is the sorted set of choices ever assigned.
func (c *Collection) AssignedLabels() []string {
	return distinct(c.Records, func(r models.HistoryRecord) string { return r.Assigned })
}

// Departments is the sorted set of departments participants came from.
func (c *Collection) Departments() []string {
	return distinct(c.Records, func(r models.HistoryRecord) string { return r.Department })
}

type Count struct {
	Label string `yaml:"label"`
	Count int    `yaml:"count"`
}

// AggregateCounts counts how often each choice was assigned over all previous cycles.
func (c *Collection) AggregateCounts() []Count {
	counts := map[string]int{}
	for _, r := range c.Records {
		counts[r.Assigned]++
	}
	out := make([]Count, 0, len(counts))
	for label, n := range counts {
		out = append(out, Count{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func distinct(records []models.HistoryRecord, key func(models.HistoryRecord) string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func firstYear(r models.HistoryRecord) int {
	if len(r.Years) == 0 {
		return 0
	}
	return r.Years[0]
}
