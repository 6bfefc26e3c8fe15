package service

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/prabhucts/pmo/internal/repository"
	"go.uber.org/zap"
)

type SeedResult struct {
	Seeded  bool
	Reason  string
	Results map[ImportKind]*ImportResult
}

// Seed loads the bundled templates into an empty store. A store that already
// has projects is left alone.
func Seed(ctx context.Context, repo *repository.Repository, imports ImportService, dir string, log *zap.Logger) (*SeedResult, error) {
	n, err := repo.Projects.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		log.Info("database already contains data, skipping seed", zap.Int64("projects", n))
		return &SeedResult{Reason: "database already contains data"}, nil
	}

	res := &SeedResult{Seeded: true, Results: map[ImportKind]*ImportResult{}}
	for _, t := range templateCatalog {
		path := filepath.Join(dir, t.Filename)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			log.Debug("seed template missing", zap.String("file", path))
			continue
		}

		r, err := imports.ImportFile(ctx, t.Kind, path)
		if err != nil {
			return res, err
		}
		res.Results[t.Kind] = r
		log.Info("seeded", zap.String("template", t.ID), zap.Int("rows_processed", r.RowsProcessed))
	}
	return res, nil
}
