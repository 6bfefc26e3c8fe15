package testhelpers

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prabhucts/pmo/internal/database"
	"github.com/prabhucts/pmo/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an in-memory SQLite database private to the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:    false,
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.AutoMigrate(db, zap.NewNop()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// Date returns UTC midnight for the given calendar day.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func CreateTestProject(t *testing.T, db *gorm.DB, code, name string) *models.Project {
	t.Helper()

	p := &models.Project{ITPRCode: code, Name: name, Status: models.ProjectStatusActive}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return p
}

// CreateTestTeam creates a team with count active members, each at the given
// allocation percentage.
func CreateTestTeam(t *testing.T, db *gorm.DB, teamName string, count int, allocation float64) (*models.Team, []models.TeamMember) {
	t.Helper()

	team := &models.Team{Name: teamName}
	if err := db.Create(team).Error; err != nil {
		t.Fatalf("failed to create test team: %v", err)
	}

	members := make([]models.TeamMember, count)
	for i := 0; i < count; i++ {
		suffix := string(rune('a' + i))
		members[i] = models.TeamMember{
			Name:                 teamName + " Member " + strings.ToUpper(suffix),
			Email:                strings.ToLower(teamName) + "-" + suffix + "@company.com",
			TeamID:               &team.ID,
			AllocationPercentage: allocation,
			IsActive:             true,
		}
		if err := db.Create(&members[i]).Error; err != nil {
			t.Fatalf("failed to create test member: %v", err)
		}
	}

	return team, members
}

// CreateTestHierarchy creates epic -> feature under the project and returns
// the feature.
func CreateTestHierarchy(t *testing.T, db *gorm.DB, project *models.Project, epicID, featureID string) *models.Feature {
	t.Helper()

	epic := &models.Epic{FormattedID: epicID, Name: "Epic " + epicID, ProjectID: &project.ID, ProjectRef: project.ITPRCode}
	if err := db.Create(epic).Error; err != nil {
		t.Fatalf("failed to create test epic: %v", err)
	}
	feature := &models.Feature{FormattedID: featureID, Name: "Feature " + featureID, EpicID: &epic.ID, EpicRef: epicID}
	if err := db.Create(feature).Error; err != nil {
		t.Fatalf("failed to create test feature: %v", err)
	}
	return feature
}

func CreateTestStory(t *testing.T, db *gorm.DB, s models.UserStory) *models.UserStory {
	t.Helper()

	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("failed to create test story: %v", err)
	}
	return &s
}
