package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/wisselwerking/indeler/internal/capacity"
	"github.com/wisselwerking/indeler/internal/config"
	"github.com/wisselwerking/indeler/internal/history"
	"github.com/wisselwerking/indeler/internal/importer"
	"github.com/wisselwerking/indeler/internal/models"
	"github.com/wisselwerking/indeler/internal/operator"
	"github.com/wisselwerking/indeler/internal/output"
	"github.com/wisselwerking/indeler/internal/utils"
)

type ProcessingService struct {
	FS       afero.Fs
	Config   config.Config
	Operator operator.Operator
	Logger   zerolog.Logger
	RunID    string
}

type RunSummary struct {
	RunID      string           `yaml:"run_id"`
	InputHash  string           `yaml:"input_hash"`
	StartedAt  time.Time        `yaml:"started_at"`
	FinishedAt time.Time        `yaml:"finished_at"`
	Import     importer.Summary `yaml:"import"`
	Passes     int              `yaml:"passes"`
	Surprises  int              `yaml:"surprises"`
	Report     Report           `yaml:"report"`
}

func (s *ProcessingService) sentinels() models.Sentinels {
	return models.Sentinels{
		NoChoice:   s.Config.Sentinels.NoChoice,
		Surprise:   s.Config.Sentinels.Surprise,
		Unassigned: s.Config.Sentinels.Unassigned,
	}
}

// Run processes one enrollment cycle. Capacities entered by the operator are saved
// whatever the outcome, including an abort.
func (s *ProcessingService) Run(ctx context.Context, enrollmentPath, historyRoot string) (summary RunSummary, err error) {
	cfg := s.Config
	summary = RunSummary{RunID: s.RunID, StartedAt: time.Now().UTC()}

	renames, err := history.LoadRenames(s.FS, cfg.RenamesFile)
	if err != nil {
		return summary, err
	}
	s.Logger.Debug().Int("names", renames.Len()).Msg("renames loaded")

	reader := &history.Reader{
		FS:      s.FS,
		Renames: renames,
		Logger:  s.Logger,
		Options: history.Options{
			CyclePrefix:      cfg.CyclePrefix,
			ArchivePrefix:    cfg.ArchivePrefix,
			FileName:         cfg.HistoryFile,
			EmailColumn:      cfg.Columns.Email,
			DepartmentColumn: cfg.Columns.Department,
			AssignedColumn:   cfg.Columns.Assigned,
		},
	}
	hist, err := reader.Read(ctx, historyRoot)
	if err != nil {
		return summary, err
	}
	s.Logger.Info().Int("records", len(hist.Records)).Msg("history loaded")

	im := &importer.Importer{
		FS:        s.FS,
		Encoding:  cfg.EnrollmentEncoding,
		Columns:   cfg.Columns,
		Sentinels: cfg.Sentinels,
		Logger:    s.Logger,
	}
	enrollments, err := im.Read(enrollmentPath)
	if err != nil {
		return summary, err
	}
	summary.Import = enrollments.Summary
	if data, err := afero.ReadFile(s.FS, enrollmentPath); err == nil {
		summary.InputHash = utils.Fingerprint(data)
	}
	s.Logger.Info().
		Int("parsed", enrollments.Summary.Parsed).
		Int("test", enrollments.Summary.Test).
		Int("duplicates", enrollments.Summary.Duplicates).
		Int("accepted", enrollments.Summary.Accepted).
		Msg("enrollments loaded")

	capacities := capacity.New(s.FS, cfg.CapacityFile, cfg.Columns.CapacityChoice, cfg.Columns.CapacityValue, cfg.Sentinels.Surprise)
	if err := capacities.Load(); err != nil {
		return summary, err
	}
	defer func() {
		if saveErr := capacities.Save(); saveErr != nil {
			err = multierr.Append(err, saveErr)
			return
		}
		s.Logger.Debug().Str("path", cfg.CapacityFile).Msg("capacities saved")
	}()

	alloc, err := NewAllocation(ctx, enrollments.Enrollments, capacities, operator.CapacityResolver{Operator: s.Operator}, s.sentinels())
	if err != nil {
		return summary, err
	}
	if err := alloc.Run(ctx); err != nil {
		return summary, err
	}
	summary.Passes = alloc.Passes()
	s.Logger.Info().
		Int("passes", alloc.Passes()).
		Int("pending", alloc.Pending()).
		Msg("allocation complete")

	reassigner := &Reassigner{Operator: s.Operator, History: hist, Logger: s.Logger}
	summary.Surprises, err = reassigner.Run(ctx, alloc)
	if err != nil {
		return summary, err
	}

	summary.Report = BuildReport(alloc, hist)
	summary.Report.Print(s.Operator.Out(), true)

	if err := s.writeOutputs(alloc, enrollments.Header, hist); err != nil {
		return summary, err
	}
	summary.FinishedAt = time.Now().UTC()
	if cfg.SummaryFile != "" {
		w := &output.Writer{FS: s.FS, Logger: s.Logger}
		if err := w.WriteSummary(cfg.SummaryFile, summary); err != nil {
			return summary, fmt.Errorf("write summary %s: %w", cfg.SummaryFile, err)
		}
	}
	return summary, nil
}

func (s *ProcessingService) writeOutputs(alloc *Allocation, header []string, hist *history.Collection) error {
	cfg := s.Config
	w := &output.Writer{
		FS:             s.FS,
		AssignedColumn: cfg.Columns.Assigned,
		MessageColumn:  cfg.Columns.Message,
		Logger:         s.Logger,
	}
	assignments := alloc.Assignments()
	if err := w.WriteAssignments(cfg.OutputFile, header, assignments); err != nil {
		return err
	}

	var letters []string
	for _, label := range alloc.Choices() {
		if !alloc.Sentinels.IsReserved(label) {
			letters = append(letters, label)
		}
	}
	if err := w.WriteLetters(cfg.LettersDir, letters, assignments); err != nil {
		return fmt.Errorf("write letters: %w", err)
	}

	if cfg.HistoryExportDir != "" {
		if err := history.WriteStats(s.FS, cfg.HistoryExportDir, hist.ComputeStats(), cfg.Columns.Department, cfg.Columns.Assigned); err != nil {
			return fmt.Errorf("export history: %w", err)
		}
	}
	return nil
}
