package service

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

type Template struct {
	ID          string
	Filename    string
	Kind        ImportKind
	Description string
	Size        int64
}

// templateCatalog is ordered for seeding: parents before children.
var templateCatalog = []Template{
	{ID: "rally_epics", Filename: "rally_epics.csv", Kind: ImportEpics, Description: "Rally Epics template with project mapping (ITPR)"},
	{ID: "rally_features", Filename: "rally_features.csv", Kind: ImportFeatures, Description: "Rally Features template linked to Epics"},
	{ID: "rally_userstories", Filename: "rally_userstories.csv", Kind: ImportUserStories, Description: "Rally User Stories with story points and sprint assignments"},
	{ID: "rally_defects", Filename: "rally_defects.csv", Kind: ImportDefects, Description: "Rally Defects with estimates and feature references"},
	{ID: "clarity_timesheet", Filename: "clarity_timesheet.csv", Kind: ImportTimesheet, Description: "Clarity timesheet data with team allocations by week"},
}

type TemplateService interface {
	// List returns the catalog entries whose file exists.
	List(ctx context.Context) ([]Template, error)
	// Path returns the file backing a template id.
	Path(ctx context.Context, id string) (*Template, string, error)
}

type templateService struct {
	dir string
	log *zap.Logger
}

func NewTemplateService(dir string, log *zap.Logger) TemplateService {
	return &templateService{dir: dir, log: log}
}

func (s *templateService) List(ctx context.Context) ([]Template, error) {
	out := make([]Template, 0, len(templateCatalog))
	for _, t := range templateCatalog {
		info, err := os.Stat(filepath.Join(s.dir, t.Filename))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		t.Size = info.Size()
		out = append(out, t)
	}
	return out, nil
}

func (s *templateService) Path(ctx context.Context, id string) (*Template, string, error) {
	for _, t := range templateCatalog {
		if t.ID != id {
			continue
		}
		path := filepath.Join(s.dir, t.Filename)
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, "", NewErr(ErrorCodeNotFound, "template file not found")
			}
			return nil, "", err
		}
		t.Size = info.Size()
		return &t, path, nil
	}
	return nil, "", NewErr(ErrorCodeNotFound, "template not found")
}
