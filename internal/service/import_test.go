package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prabhucts/pmo/internal/models"
	"github.com/prabhucts/pmo/internal/repository"
	"github.com/prabhucts/pmo/internal/service"
	"github.com/prabhucts/pmo/internal/tabular"
	"github.com/prabhucts/pmo/internal/testhelpers"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newImportService(t *testing.T) (*gorm.DB, service.ImportService) {
	t.Helper()

	db := testhelpers.SetupTestDB(t)
	return db, service.NewImportService(repository.New(db), zap.NewNop())
}

func mustImport(t *testing.T, svc service.ImportService, kind service.ImportKind, csv string) *service.ImportResult {
	t.Helper()

	tbl, err := tabular.ReadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	res, err := svc.Import(context.Background(), kind, tbl)
	if err != nil {
		t.Fatalf("Import(%s) failed: %v", kind, err)
	}
	if !res.Success {
		t.Fatalf("Import(%s) reported failure: %s", kind, res.Error)
	}
	return res
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()

	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

func TestImportService_EpicsCreateProjects(t *testing.T) {
	db, svc := newImportService(t)

	res := mustImport(t, svc, service.ImportEpics,
		"Formatted ID,Name,State,Owner,Parent\n"+
			"E1,Checkout,Developing,Ann,\"ITPR100 - Alpha (Theme T7)\"\n"+
			"E2,Loose ends,,,\n")

	if res.RowsProcessed != 2 || res.RowsSkipped != 0 {
		t.Fatalf("expected 2 processed / 0 skipped, got %d / %d", res.RowsProcessed, res.RowsSkipped)
	}
	if res.FileType != service.ImportEpics {
		t.Errorf("expected file type epics, got %s", res.FileType)
	}

	var projects []models.Project
	if err := db.Find(&projects).Error; err != nil {
		t.Fatalf("load projects: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}
	p := projects[0]
	if p.ITPRCode != "ITPR100" || p.Name != "ITPR100 - Alpha (Theme T7)" || p.Theme != "T7" {
		t.Errorf("unexpected project %+v", p)
	}
	if p.Status != models.ProjectStatusActive {
		t.Errorf("expected Active project, got %q", p.Status)
	}

	var e1, e2 models.Epic
	db.Where("formatted_id = ?", "E1").First(&e1)
	db.Where("formatted_id = ?", "E2").First(&e2)
	if e1.ProjectID == nil || *e1.ProjectID != p.ID {
		t.Errorf("expected E1 linked to project %d, got %v", p.ID, e1.ProjectID)
	}
	if e1.State != "Developing" || e1.Owner != "Ann" {
		t.Errorf("unexpected E1 fields %+v", e1)
	}
	if e2.ProjectID != nil {
		t.Errorf("expected E2 without project, got %d", *e2.ProjectID)
	}

	mustImport(t, svc, service.ImportEpics,
		"Formatted ID,Name,Parent\n"+
			"E3,No code,\"Misc backlog\"\n")

	var dangling int64
	if err := db.Model(&models.Epic{}).Where("project_ref <> '' AND project_id IS NULL").Count(&dangling).Error; err != nil {
		t.Fatalf("count dangling epics: %v", err)
	}
	if dangling != 0 {
		t.Errorf("expected every stored project ref to be linked, got %d dangling", dangling)
	}
}

func TestImportService_EpicThemeExtracted(t *testing.T) {
	db, svc := newImportService(t)

	mustImport(t, svc, service.ImportEpics,
		"Formatted ID,Name,Parent\n"+
			"E1,Core,ITPR200 Theme T4426: Core Services\n")

	var p models.Project
	if err := db.Where("itpr_code = ?", "ITPR200").First(&p).Error; err != nil {
		t.Fatalf("project not created: %v", err)
	}
	if p.Theme != "T4426" {
		t.Errorf("expected theme T4426, got %q", p.Theme)
	}
}

func TestImportService_ReimportUpdatesInPlace(t *testing.T) {
	db, svc := newImportService(t)

	mustImport(t, svc, service.ImportFeatures,
		"Formatted ID,Name,Owner,Release\n"+
			"F1,Login,Ann,R1\n"+
			"F2,Logout,Bob,R1\n")
	mustImport(t, svc, service.ImportFeatures,
		"Formatted ID,Name,Owner,Release\n"+
			"F1,Login v2,Cid,R2\n")

	if n := count(t, db, &models.Feature{}); n != 2 {
		t.Fatalf("expected 2 features after re-import, got %d", n)
	}

	var f models.Feature
	db.Where("formatted_id = ?", "F1").First(&f)
	if f.Name != "Login v2" || f.Owner != "Cid" || f.Release != "R2" {
		t.Errorf("expected latest values on F1, got %+v", f)
	}
}

func TestImportService_MissingColumns(t *testing.T) {
	db, svc := newImportService(t)

	tbl, _ := tabular.ReadCSV(strings.NewReader("Formatted ID,Name\nUS1,Login\n"))
	res, err := svc.Import(context.Background(), service.ImportUserStories, tbl)

	var serr *service.Error
	if !errors.As(err, &serr) || serr.Code != service.ErrorCodeMissingColumns {
		t.Fatalf("expected MISSING_COLUMNS, got %v", err)
	}
	if serr.Msg != "Missing columns: Project, Plan Estimate" {
		t.Errorf("unexpected message %q", serr.Msg)
	}
	if res.Success || res.RowsProcessed != 0 {
		t.Errorf("expected failed result with no rows, got %+v", res)
	}
	if n := count(t, db, &models.UserStory{}); n != 0 {
		t.Errorf("expected no stories written, got %d", n)
	}
}

func TestImportService_BadRowIsSkipped(t *testing.T) {
	db, svc := newImportService(t)

	res := mustImport(t, svc, service.ImportUserStories,
		"Formatted ID,Name,Project,Plan Estimate,Iteration,Schedule State\n"+
			"US1,Login,Payments,5,2025.S1,Accepted\n"+
			"US2,Broken,Payments,abc,2025.S1,Defined\n"+
			"US3,Logout,Payments,,2025.S2,Defined\n"+
			",No id,Payments,1,,\n"+
			"US4,Negative,Payments,-2,,\n"+
			"US5,Not a number,Payments,NaN,,\n"+
			"US6,Unbounded,Payments,Inf,,\n"+
			"US7,Unbounded,Payments,-Infinity,,\n")

	if res.RowsProcessed != 2 || res.RowsSkipped != 6 {
		t.Fatalf("expected 2 processed / 6 skipped, got %d / %d", res.RowsProcessed, res.RowsSkipped)
	}

	var us3 models.UserStory
	if err := db.Where("formatted_id = ?", "US3").First(&us3).Error; err != nil {
		t.Fatalf("US3 missing: %v", err)
	}
	if us3.PlanEstimate != 0 {
		t.Errorf("expected blank estimate to be 0, got %v", us3.PlanEstimate)
	}

	var us1 models.UserStory
	db.Where("formatted_id = ?", "US1").First(&us1)
	if us1.Team != "Payments" || us1.State != models.StoryStateAccepted || us1.PlanEstimate != 5 {
		t.Errorf("unexpected US1 %+v", us1)
	}

	if n := count(t, db, &models.UserStory{}); n != 2 {
		t.Errorf("expected 2 stories, got %d", n)
	}
}

func TestImportService_RelinksOrphansWhenParentArrives(t *testing.T) {
	db, svc := newImportService(t)

	mustImport(t, svc, service.ImportUserStories,
		"Formatted ID,Name,Project,Plan Estimate,Feature\n"+
			"US1,Login,Payments,3,\"F1: Sign in\"\n")
	mustImport(t, svc, service.ImportFeatures,
		"Formatted ID,Name,Parent\n"+
			"F1,Sign in,\"Epic E1: Accounts\"\n")

	var story models.UserStory
	db.Where("formatted_id = ?", "US1").First(&story)
	var feature models.Feature
	db.Where("formatted_id = ?", "F1").First(&feature)

	if story.FeatureID == nil || *story.FeatureID != feature.ID {
		t.Fatalf("expected US1 relinked to F1, got %v", story.FeatureID)
	}
	if feature.EpicID != nil {
		t.Fatalf("expected F1 orphaned until E1 arrives")
	}

	mustImport(t, svc, service.ImportEpics,
		"Formatted ID,Name,Parent\n"+
			"E1,Accounts,ITPR9 - Identity\n")

	db.Where("formatted_id = ?", "F1").First(&feature)
	if feature.EpicID == nil {
		t.Fatalf("expected F1 relinked to E1")
	}
}

func TestImportService_Defects(t *testing.T) {
	db, svc := newImportService(t)

	mustImport(t, svc, service.ImportUserStories,
		"Formatted ID,Name,Project,Plan Estimate\n"+
			"US1,Login,Payments,3\n")
	res := mustImport(t, svc, service.ImportDefects,
		"Formatted ID,Name,Project,Plan Estimate,Feature,User Story,State\n"+
			"DE1,Crash,Payments,2,\"F7: Checkout\",\"US1: Login\",Open\n"+
			"DE2,Typo,Payments,1,,US404,Open\n")

	if res.RowsProcessed != 2 {
		t.Fatalf("expected 2 defects processed, got %d", res.RowsProcessed)
	}

	var de1 models.Defect
	db.Where("formatted_id = ?", "DE1").First(&de1)
	if de1.FeatureFormattedID != "F7" {
		t.Errorf("expected feature code F7, got %q", de1.FeatureFormattedID)
	}
	if de1.UserStoryID == nil {
		t.Errorf("expected DE1 linked to US1")
	}

	var de2 models.Defect
	db.Where("formatted_id = ?", "DE2").First(&de2)
	if de2.UserStoryID != nil || de2.UserStoryRef != "US404" {
		t.Errorf("unexpected DE2 link %+v", de2)
	}

	mustImport(t, svc, service.ImportUserStories,
		"Formatted ID,Name,Project,Plan Estimate\n"+
			"US404,Late story,Payments,1\n")
	db.Where("formatted_id = ?", "DE2").First(&de2)
	if de2.UserStoryID == nil {
		t.Errorf("expected DE2 relinked once US404 was imported")
	}
}

const timesheetCSV = "Team,Resource Name (in Clarity),Network ID or email Location,Location,Initiative (Use Dropdown of Current ITPRs),2025-03-03,2025-03-10\n" +
	"Payments,Ann Lee,ann@company.com,Remote,ITPR100 - Alpha,30,32\n" +
	"Payments,Bob Ray,,Onsite,ITPR100 - Alpha,40,\n" +
	"Core,Cid Moe,cid@company.com,,,8,8\n"

func TestImportService_TimesheetTwiceDoesNotDuplicate(t *testing.T) {
	db, svc := newImportService(t)

	first := mustImport(t, svc, service.ImportTimesheet, timesheetCSV)
	if first.RowsProcessed != 3 {
		t.Fatalf("expected 3 rows processed, got %d", first.RowsProcessed)
	}
	mustImport(t, svc, service.ImportTimesheet, strings.Replace(timesheetCSV, "ITPR100 - Alpha,30,32", "ITPR100 - Alpha,30,36", 1))

	if n := count(t, db, &models.TeamAllocation{}); n != 3 {
		t.Fatalf("expected 3 allocations, got %d", n)
	}
	if n := count(t, db, &models.Team{}); n != 2 {
		t.Errorf("expected 2 teams, got %d", n)
	}
	if n := count(t, db, &models.TeamMember{}); n != 3 {
		t.Errorf("expected 3 members, got %d", n)
	}
	if n := count(t, db, &models.Project{}); n != 1 {
		t.Errorf("expected 1 project, got %d", n)
	}

	var ann models.TeamMember
	db.Where("email = ?", "ann@company.com").First(&ann)
	if !ann.IsActive || ann.AllocationPercentage != 100 || ann.Location != "Remote" {
		t.Errorf("unexpected member defaults %+v", ann)
	}

	var bob models.TeamMember
	if err := db.Where("email = ?", "bob_ray@company.com").First(&bob).Error; err != nil {
		t.Errorf("expected derived email for Bob: %v", err)
	}

	var alloc models.TeamAllocation
	err := db.Where("team_member_id = ? AND week_start_date = ?", ann.ID, testhelpers.Date(2025, 3, 10)).First(&alloc).Error
	if err != nil {
		t.Fatalf("allocation missing: %v", err)
	}
	if alloc.AllocatedHours != 36 {
		t.Errorf("expected latest hours 36, got %v", alloc.AllocatedHours)
	}
}

func TestImportService_Actuals(t *testing.T) {
	db, svc := newImportService(t)

	mustImport(t, svc, service.ImportActuals, timesheetCSV)
	mustImport(t, svc, service.ImportActuals, timesheetCSV)

	if n := count(t, db, &models.TimeEntry{}); n != 3 {
		t.Fatalf("expected 3 time entries, got %d", n)
	}
	if n := count(t, db, &models.TeamAllocation{}); n != 0 {
		t.Errorf("actuals must not write allocations, got %d", n)
	}

	var total float64
	db.Model(&models.TimeEntry{}).Select("SUM(actual_hours)").Scan(&total)
	if total != 102 {
		t.Errorf("expected 102 actual hours, got %v", total)
	}
}

func TestImportService_BadHoursSkipRowWithoutPartialWrites(t *testing.T) {
	db, svc := newImportService(t)

	res := mustImport(t, svc, service.ImportTimesheet,
		"Team,Resource Name (in Clarity),Initiative (Use Dropdown of Current ITPRs),2025-03-03,2025-03-10\n"+
			"Payments,Ann Lee,ITPR1 - A,10,lots\n")

	if res.RowsSkipped != 1 || res.RowsProcessed != 0 {
		t.Fatalf("expected the row to be skipped, got %+v", res)
	}
	if n := count(t, db, &models.Team{}); n != 0 {
		t.Errorf("expected no team written for skipped row, got %d", n)
	}
	if n := count(t, db, &models.TeamAllocation{}); n != 0 {
		t.Errorf("expected no allocations, got %d", n)
	}
}

func TestImportService_StorageFailureRollsBack(t *testing.T) {
	db, svc := newImportService(t)

	if err := db.Migrator().DropTable(&models.TeamAllocation{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	tbl, _ := tabular.ReadCSV(strings.NewReader(timesheetCSV))
	res, err := svc.Import(context.Background(), service.ImportTimesheet, tbl)
	if err == nil {
		t.Fatal("expected storage error")
	}
	if res.Success || res.RowsProcessed != 0 || res.Error == "" {
		t.Errorf("expected failed result without counters, got %+v", res)
	}
	if n := count(t, db, &models.Team{}); n != 0 {
		t.Errorf("expected teams rolled back, got %d", n)
	}
	if n := count(t, db, &models.TeamMember{}); n != 0 {
		t.Errorf("expected members rolled back, got %d", n)
	}
}

func TestImportService_ImportFile(t *testing.T) {
	_, svc := newImportService(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "epics.csv")
	if err := os.WriteFile(path, []byte("Formatted ID,Name\nE1,Alpha\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := svc.ImportFile(ctx, service.ImportEpics, path)
	if err != nil || !res.Success || res.RowsProcessed != 1 {
		t.Fatalf("unexpected result %+v, err %v", res, err)
	}

	_, err = svc.ImportFile(ctx, service.ImportEpics, filepath.Join(t.TempDir(), "missing.csv"))
	var serr *service.Error
	if !errors.As(err, &serr) || serr.Code != service.ErrorCodeInvalidFile {
		t.Errorf("expected INVALID_FILE, got %v", err)
	}

	_, err = svc.ImportFile(ctx, service.ImportKind("spreadsheets"), path)
	if !errors.As(err, &serr) || serr.Code != service.ErrorCodeInvalidRequest {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestParseImportKind(t *testing.T) {
	if k, ok := service.ParseImportKind("clarity_actuals"); !ok || k != service.ImportActuals {
		t.Errorf("expected clarity_actuals to parse, got %q %v", k, ok)
	}
	if _, ok := service.ParseImportKind("xlsx"); ok {
		t.Error("expected unknown kind to be rejected")
	}
}
