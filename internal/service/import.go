package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prabhucts/pmo/internal/repository"
	"github.com/prabhucts/pmo/internal/tabular"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ImportKind string

const (
	ImportEpics       ImportKind = "epics"
	ImportFeatures    ImportKind = "features"
	ImportUserStories ImportKind = "user_stories"
	ImportDefects     ImportKind = "defects"
	ImportTimesheet   ImportKind = "clarity_timesheet"
	ImportActuals     ImportKind = "clarity_actuals"
)

// Export column names.
const (
	colFormattedID   = "Formatted ID"
	colName          = "Name"
	colState         = "State"
	colScheduleState = "Schedule State"
	colOwner         = "Owner"
	colParent        = "Parent"
	colRelease       = "Release"
	colProject       = "Project"
	colIteration     = "Iteration"
	colPlanEstimate  = "Plan Estimate"
	colFeature       = "Feature"
	colUserStory     = "User Story"
	colTeam          = "Team"
	colResource      = "Resource Name (in Clarity)"
	colNetworkID     = "Network ID or email Location"
	colLocation      = "Location"
	colInitiative    = "Initiative (Use Dropdown of Current ITPRs)"
)

type ImportResult struct {
	Success       bool
	RowsProcessed int
	RowsSkipped   int
	FileType      ImportKind
	Error         string
}

type ImportService interface {
	// ImportFile reads a CSV export and reconciles it into the store.
	ImportFile(ctx context.Context, kind ImportKind, path string) (*ImportResult, error)
	// Import reconciles an already parsed table. Missing required columns
	// fail the batch before anything is written; malformed rows are skipped;
	// a storage failure rolls the whole batch back.
	Import(ctx context.Context, kind ImportKind, t *tabular.Table) (*ImportResult, error)
}

type importService struct {
	repo      *repository.Repository
	log       *zap.Logger
	importers map[ImportKind]importer
}

type importer struct {
	required []string
	row      func(b *batch, ctx context.Context, rec tabular.Record) error
	relink   func(ctx context.Context, repo *repository.Repository) error
}

func NewImportService(repo *repository.Repository, log *zap.Logger) ImportService {
	return &importService{
		repo: repo,
		log:  log,
		importers: map[ImportKind]importer{
			ImportEpics: {
				required: []string{colFormattedID, colName},
				row:      (*batch).epicRow,
				relink:   relinkAfterEpics,
			},
			ImportFeatures: {
				required: []string{colFormattedID, colName},
				row:      (*batch).featureRow,
				relink:   relinkAfterFeatures,
			},
			ImportUserStories: {
				required: []string{colFormattedID, colName, colProject, colPlanEstimate},
				row:      (*batch).storyRow,
				relink:   relinkAfterStories,
			},
			ImportDefects: {
				required: []string{colFormattedID, colName},
				row:      (*batch).defectRow,
			},
			ImportTimesheet: {
				required: []string{colTeam, colResource},
				row:      (*batch).allocationRow,
			},
			ImportActuals: {
				required: []string{colTeam, colResource},
				row:      (*batch).actualsRow,
			},
		},
	}
}

func ParseImportKind(s string) (ImportKind, bool) {
	switch k := ImportKind(s); k {
	case ImportEpics, ImportFeatures, ImportUserStories, ImportDefects, ImportTimesheet, ImportActuals:
		return k, true
	}
	return "", false
}

func (s *importService) ImportFile(ctx context.Context, kind ImportKind, path string) (*ImportResult, error) {
	if _, ok := s.importers[kind]; !ok {
		err := NewErr(ErrorCodeInvalidRequest, fmt.Sprintf("unknown file type %q", kind))
		return &ImportResult{FileType: kind, Error: err.Msg}, err
	}

	t, err := tabular.ReadCSVFile(path)
	if err != nil {
		s.log.Warn("unreadable import file", zap.String("file_type", string(kind)), zap.Error(err))
		serr := NewErr(ErrorCodeInvalidFile, err.Error())
		return &ImportResult{FileType: kind, Error: serr.Msg}, serr
	}

	return s.Import(ctx, kind, t)
}

func (s *importService) Import(ctx context.Context, kind ImportKind, t *tabular.Table) (*ImportResult, error) {
	res := &ImportResult{FileType: kind}

	imp, ok := s.importers[kind]
	if !ok {
		err := NewErr(ErrorCodeInvalidRequest, fmt.Sprintf("unknown file type %q", kind))
		res.Error = err.Msg
		return res, err
	}

	if missing := t.MissingColumns(imp.required...); len(missing) > 0 {
		err := missingColumnsErr(missing)
		s.log.Warn("import rejected", zap.String("file_type", string(kind)), zap.Strings("missing", missing))
		res.Error = err.Msg
		return res, err
	}

	var processed, skipped int
	err := s.repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b := &batch{repo: repository.New(tx), weeks: weekColumns(t)}

		for _, rec := range t.Records {
			err := imp.row(b, ctx, rec)
			var rerr *rowError
			if errors.As(err, &rerr) {
				skipped++
				s.log.Warn("skipping row",
					zap.String("file_type", string(kind)),
					zap.Int("line", rec.Line),
					zap.Error(rerr),
				)
				continue
			}
			if err != nil {
				return fmt.Errorf("line %d: %w", rec.Line, err)
			}
			processed++
		}

		if imp.relink != nil {
			if err := imp.relink(ctx, b.repo); err != nil {
				return fmt.Errorf("relink: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("import failed, batch rolled back", zap.String("file_type", string(kind)), zap.Error(err))
		res.Error = err.Error()
		return res, err
	}

	res.Success = true
	res.RowsProcessed = processed
	res.RowsSkipped = skipped
	s.log.Info("import completed",
		zap.String("file_type", string(kind)),
		zap.Int("rows_processed", processed),
		zap.Int("rows_skipped", skipped),
	)
	return res, nil
}

// rowError marks a problem confined to one input row.
type rowError struct {
	msg string
}

func (e *rowError) Error() string { return e.msg }

func rowErrf(format string, args ...any) error {
	return &rowError{msg: fmt.Sprintf(format, args...)}
}

type weekColumn struct {
	column string
	week   time.Time
}

func weekColumns(t *tabular.Table) []weekColumn {
	cols := t.DateColumns()
	out := make([]weekColumn, 0, len(cols))
	for c, d := range cols {
		out = append(out, weekColumn{column: c, week: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].week.Before(out[j].week) })
	return out
}

// batch carries per-import state. repo is bound to the import transaction.
type batch struct {
	repo  *repository.Repository
	weeks []weekColumn
}

func required(rec tabular.Record, col string) (string, error) {
	v, ok := rec.Get(col)
	if !ok {
		return "", rowErrf("%s is empty", col)
	}
	return v, nil
}

// estimate parses an optional non-negative number; absent means 0.
func estimate(rec tabular.Record, col string) (float64, error) {
	raw, ok := rec.Get(col)
	if !ok {
		return 0, nil
	}
	return parseHours(col, raw)
}

func parseHours(col, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, rowErrf("%s: %q is not a number", col, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, rowErrf("%s: %q is not a finite number", col, raw)
	}
	if v < 0 {
		return 0, rowErrf("%s: %q is negative", col, raw)
	}
	return v, nil
}

// Epics never need a project relink: epicRow creates the project before it
// stores the ITPR code.
func relinkAfterEpics(ctx context.Context, repo *repository.Repository) error {
	_, err := repo.Features.RelinkEpics(ctx)
	return err
}

func relinkAfterFeatures(ctx context.Context, repo *repository.Repository) error {
	_, err := repo.Stories.RelinkFeatures(ctx)
	return err
}

func relinkAfterStories(ctx context.Context, repo *repository.Repository) error {
	_, err := repo.Defects.RelinkStories(ctx)
	return err
}
