// Package importer reads the enrollment form export.
package importer

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/wisselwerking/indeler/internal/config"
	"github.com/wisselwerking/indeler/internal/models"
	"github.com/wisselwerking/indeler/internal/tabular"
	"github.com/wisselwerking/indeler/internal/utils"
)

type Summary struct {
	Parsed     int `yaml:"parsed"`
	Test       int `yaml:"test"`
	Duplicates int `yaml:"duplicates"`
	Accepted   int `yaml:"accepted"`
}

type Result struct {
	// Header is the form's column order, kept for the output table.
	Header      []string
	Enrollments []models.Enrollment
	Summary     Summary
}

type Importer struct {
	FS        afero.Fs
	Encoding  string
	Columns   config.Columns
	Sentinels config.Sentinels
	Logger    zerolog.Logger
}

// Read loads the enrollment file and returns the enrollments oldest first.
// The form lists the most recent submission on top, so rows are reversed. Test
// submissions are dropped; of several rows with the same e-mail only the oldest is kept.
func (im *Importer) Read(path string) (Result, error) {
	enc, err := tabular.Encoding(im.Encoding)
	if err != nil {
		return Result{}, err
	}
	table, err := tabular.Read(im.FS, path, enc)
	if err != nil {
		return Result{}, fmt.Errorf("read enrollments %s: %w", path, err)
	}
	for _, col := range append([]string{im.Columns.Email}, im.Columns.Choices...) {
		if !table.Has(col) {
			return Result{}, fmt.Errorf("enrollments %s: missing column %q", path, col)
		}
	}

	res := Result{Header: table.Header}
	res.Summary.Parsed = len(table.Rows)
	seen := map[string]int{}

	for i := len(table.Rows) - 1; i >= 0; i-- {
		row := table.Rows[i]
		line := i + 2

		if im.Sentinels.TestSource != "" && strings.EqualFold(row.Get(im.Columns.Source), im.Sentinels.TestSource) {
			res.Summary.Test++
			continue
		}

		e := im.enrollment(row)
		if first, dup := seen[e.Email]; dup {
			res.Summary.Duplicates++
			im.Logger.Warn().
				Str("email", e.Email).
				Int("line", line).
				Int("kept_line", first).
				Msg("duplicate enrollment dropped")
			continue
		}
		seen[e.Email] = line
		res.Enrollments = append(res.Enrollments, e)
	}
	res.Summary.Accepted = len(res.Enrollments)
	return res, nil
}

func (im *Importer) enrollment(row tabular.Row) models.Enrollment {
	e := models.Enrollment{
		Email:      utils.NormalizeEmail(row.Get(im.Columns.Email)),
		FirstName:  row.Get(im.Columns.FirstName),
		LastName:   row.Get(im.Columns.LastName),
		Department: row.Get(im.Columns.Department),
		Fields:     row.Map(),
	}
	if im.Columns.Phone != "" {
		e.Phone = row.Get(im.Columns.Phone)
	}
	for rank, col := range im.Columns.Choices {
		if rank >= models.Ranks {
			break
		}
		e.Choices[rank] = choiceLabel(row.Get(col), im.Sentinels.NoChoice)
	}
	return e
}

// choiceLabel trims the label first and only then compares it with the no-choice token.
func choiceLabel(raw, noChoice string) string {
	label := strings.TrimSpace(raw)
	if label == strings.TrimSpace(noChoice) {
		return noChoice
	}
	return label
}
