package history

import (
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/afero"

	"github.com/wisselwerking/indeler/internal/models"
	"github.com/wisselwerking/indeler/internal/tabular"
)

// CycleTurnover counts, for one cycle, participants seen in any earlier cycle (Returning),
// participants absent from the directly preceding cycle (New) and first-timers (FirstTime).
type CycleTurnover struct {
	Years     string
	Returning int
	New       int
	FirstTime int
}

type Stats struct {
	// Rows holds one anonymised line per record: participant id, nth participation, years,
	// department, assigned choice. Sorted by cycle.
	Rows      []StatsRow
	Turnover  []CycleTurnover
	Histogram map[int]int
}

type StatsRow struct {
	ID         int
	Nth        int
	Years      string
	Department string
	Assigned   string
}

// ComputeStats anonymises the collection and summarises participation over the years.
func (c *Collection) ComputeStats() Stats {
	records := make([]models.HistoryRecord, len(c.Records))
	copy(records, c.Records)
	sort.SliceStable(records, func(i, j int) bool { return firstYear(records[i]) < firstYear(records[j]) })

	ids := map[string]int{}
	participations := map[int]int{}
	stats := Stats{Histogram: map[int]int{}}

	var cycles []string
	perCycle := map[string][]int{}
	for _, rec := range records {
		id, ok := ids[rec.Email]
		if !ok {
			id = len(ids) + 1
			ids[rec.Email] = id
		}
		participations[id]++
		years := rec.YearRange()
		stats.Rows = append(stats.Rows, StatsRow{
			ID:         id,
			Nth:        participations[id],
			Years:      years,
			Department: rec.Department,
			Assigned:   rec.Assigned,
		})
		if _, ok := perCycle[years]; !ok {
			cycles = append(cycles, years)
		}
		perCycle[years] = append(perCycle[years], id)
	}

	everSeen := map[int]bool{}
	previous := map[int]bool{}
	for _, years := range cycles {
		turnover := CycleTurnover{Years: years}
		current := map[int]bool{}
		for _, id := range perCycle[years] {
			if everSeen[id] {
				turnover.Returning++
			} else {
				turnover.FirstTime++
			}
			if !previous[id] {
				turnover.New++
			}
			current[id] = true
		}
		for id := range current {
			everSeen[id] = true
		}
		previous = current
		stats.Turnover = append(stats.Turnover, turnover)
	}

	for _, n := range participations {
		stats.Histogram[n]++
	}
	return stats
}

// WriteStats exports history.csv, history_new_participants.csv and history_histogram.csv to dir.
func WriteStats(fs afero.Fs, dir string, stats Stats, departmentColumn, assignedColumn string) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	rows := make([][]string, 0, len(stats.Rows))
	for _, r := range stats.Rows {
		rows = append(rows, []string{
			strconv.Itoa(r.ID),
			"1", // one line per participation keeps pivot tables simple
			strconv.Itoa(r.Nth),
			r.Years,
			r.Department,
			r.Assigned,
		})
	}
	header := []string{"id", "count", "nth", "years", departmentColumn, assignedColumn}
	if err := tabular.Write(fs, filepath.Join(dir, "history.csv"), header, rows); err != nil {
		return err
	}

	rows = rows[:0]
	for _, t := range stats.Turnover {
		rows = append(rows, []string{t.Years, strconv.Itoa(t.Returning), strconv.Itoa(t.New), strconv.Itoa(t.FirstTime)})
	}
	header = []string{"years", "old", "new", "completely_new"}
	if err := tabular.Write(fs, filepath.Join(dir, "history_new_participants.csv"), header, rows); err != nil {
		return err
	}

	times := make([]int, 0, len(stats.Histogram))
	for n := range stats.Histogram {
		times = append(times, n)
	}
	sort.Ints(times)
	rows = rows[:0]
	for _, n := range times {
		rows = append(rows, []string{strconv.Itoa(n), strconv.Itoa(stats.Histogram[n])})
	}
	return tabular.Write(fs, filepath.Join(dir, "history_histogram.csv"), []string{"times", "count"}, rows)
}
