// Package output writes the results of a cycle: the assignment table, one letter per
// choice for its organizer and a machine readable summary.
package output

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/wisselwerking/indeler/internal/models"
	"github.com/wisselwerking/indeler/internal/tabular"
	"github.com/wisselwerking/indeler/internal/utils"
)

const letterExt = ".txt"

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

type Writer struct {
	FS             afero.Fs
	AssignedColumn string
	MessageColumn  string
	Logger         zerolog.Logger
}

type notification struct {
	FirstName string
	LastName  string
	Choice    string
	Assigned  bool
}

type participant struct {
	Name       string
	Email      string
	Department string
	Phone      string
}

type letter struct {
	Choice       string
	Participants []participant
}

// Notification renders the message for one participant.
func Notification(a models.Assignment) (string, error) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "notification.tmpl", notification{
		FirstName: a.Enrollment.FirstName,
		LastName:  a.Enrollment.LastName,
		Choice:    a.Choice,
		Assigned:  a.Assigned,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// WriteAssignments writes every enrollment with its assigned choice and notification in
// front of the original form columns.
func (w *Writer) WriteAssignments(path string, header []string, assignments []models.Assignment) error {
	columns := []string{w.AssignedColumn, w.MessageColumn}
	for _, h := range header {
		if utils.NormalizeHeader(h) == utils.NormalizeHeader(w.AssignedColumn) ||
			utils.NormalizeHeader(h) == utils.NormalizeHeader(w.MessageColumn) {
			continue
		}
		columns = append(columns, h)
	}

	rows := make([][]string, 0, len(assignments))
	for _, a := range assignments {
		message, err := Notification(a)
		if err != nil {
			return fmt.Errorf("notification for %s: %w", a.Enrollment.Email, err)
		}
		row := []string{a.Choice, message}
		for _, col := range columns[2:] {
			row = append(row, a.Enrollment.Fields[col])
		}
		rows = append(rows, row)
	}
	if err := tabular.Write(w.FS, path, columns, rows); err != nil {
		return fmt.Errorf("write assignments %s: %w", path, err)
	}
	w.Logger.Info().Str("path", path).Int("rows", len(rows)).Msg("assignments written")
	return nil
}

// WriteLetters writes one letter per choice into dir and removes letters of choices
// that no longer exist.
func (w *Writer) WriteLetters(dir string, choices []string, assignments []models.Assignment) error {
	if err := w.FS.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	byChoice := map[string][]participant{}
	for _, a := range assignments {
		if !a.Assigned {
			continue
		}
		e := a.Enrollment
		byChoice[a.Choice] = append(byChoice[a.Choice], participant{
			Name:       e.Name(),
			Email:      e.Email,
			Department: e.Department,
			Phone:      e.Phone,
		})
	}

	current := map[string]bool{}
	for _, choice := range choices {
		name := utils.FileName(choice) + letterExt
		current[name] = true

		var buf bytes.Buffer
		if err := templates.ExecuteTemplate(&buf, "letter.tmpl", letter{Choice: choice, Participants: byChoice[choice]}); err != nil {
			return fmt.Errorf("letter for %s: %w", choice, err)
		}
		if err := afero.WriteFile(w.FS, filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
			return err
		}
	}
	return w.removeStale(dir, current)
}

func (w *Writer) removeStale(dir string, current map[string]bool) error {
	entries, err := afero.ReadDir(w.FS, dir)
	if err != nil {
		return err
	}
	var errs error
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != letterExt || current[entry.Name()] {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := w.FS.Remove(path); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		w.Logger.Info().Str("path", path).Msg("stale letter removed")
	}
	return errs
}

// WriteSummary stores v as YAML.
func (w *Writer) WriteSummary(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return afero.WriteFile(w.FS, path, data, 0o644)
}
