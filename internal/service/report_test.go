package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wisselwerking/indeler/internal/history"
	"github.com/wisselwerking/indeler/internal/models"
)

func TestBuildReport(t *testing.T) {
	a := allocate(t, []models.Enrollment{
		enrollment("e1", "A"),
		enrollment("e2", "A"),
		enrollment("e3", "A"),
		enrollment("e4", surprise),
		enrollment("e5", none),
	}, map[string]int{"A": 2, "Leeg": 4}, nil)
	hist := history.NewCollection([]models.HistoryRecord{
		{Email: "old@x.nl", Years: []int{2020, 2021}, Assigned: "A"},
		{Email: "old@x.nl", Years: []int{2021, 2022}, Assigned: "A"},
	})

	r := BuildReport(a, hist)

	assert.Equal(t, []ChoiceCount{
		{Label: "A", Count: 2, Capacity: 2, Demand: 3},
		{Label: "Leeg", Count: 0, Capacity: 4, Demand: 0},
	}, r.Counts)
	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 5, r.Enrollments)
	assert.Equal(t, []string{"Leeg"}, r.Empty)
	assert.Equal(t, []string{"A"}, r.Full)
	assert.Equal(t, []string{"A"}, r.OverSubscribed)
	assert.Equal(t, []string{"e3", "e5"}, r.Unassigned)
	assert.Equal(t, []history.Count{{Label: "A", Count: 2}}, r.History)
}

func TestReportPrint(t *testing.T) {
	r := Report{
		Counts: []ChoiceCount{
			{Label: "A", Count: 2, Capacity: 2, Demand: 3},
			{Label: "Leeg", Count: 0, Capacity: 4},
		},
		Total:      2,
		Empty:      []string{"Leeg"},
		Unassigned: []string{"e3@x.nl"},
	}

	var buf bytes.Buffer
	r.Print(&buf, true)
	out := buf.String()
	assert.Contains(t, out, "ENROLLMENTS PER CHOICE:")
	assert.Regexp(t, `A\s+2/2\s+over-subscribed`, out)
	assert.Regexp(t, `TOTAL\s+2`, out)
	assert.Contains(t, out, "NOBODY ENROLLED:\nLeeg\n")
	assert.Contains(t, out, "UNASSIGNED: 1\ne3@x.nl\n")

	buf.Reset()
	r.Print(&buf, false)
	assert.NotContains(t, buf.String(), "e3@x.nl")
}
