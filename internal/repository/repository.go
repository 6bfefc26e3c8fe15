package repository

import "gorm.io/gorm"

type Repository struct {
	DB          *gorm.DB
	Projects    ProjectsRepo
	Epics       EpicsRepo
	Features    FeaturesRepo
	Stories     StoriesRepo
	Defects     DefectsRepo
	Teams       TeamsRepo
	Members     MembersRepo
	Allocations AllocationsRepo
	TimeEntries TimeEntriesRepo
	Sprints     SprintsRepo
	Rules       RulesRepo
	Insights    InsightsRepo
	Chat        ChatRepo
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:          db,
		Projects:    NewProjectsRepo(db),
		Epics:       NewEpicsRepo(db),
		Features:    NewFeaturesRepo(db),
		Stories:     NewStoriesRepo(db),
		Defects:     NewDefectsRepo(db),
		Teams:       NewTeamsRepo(db),
		Members:     NewMembersRepo(db),
		Allocations: NewAllocationsRepo(db),
		TimeEntries: NewTimeEntriesRepo(db),
		Sprints:     NewSprintsRepo(db),
		Rules:       NewRulesRepo(db),
		Insights:    NewInsightsRepo(db),
		Chat:        NewChatRepo(db),
	}
}

// New builds the repository set on db. Pass a transaction handle to scope
// every repo to that transaction.
func New(db *gorm.DB) *Repository {
	return buildRepository(db)
}

// findOne returns (nil, nil) when nothing matches, so natural-key lookups
// can tell "absent" from a storage failure without gorm.ErrRecordNotFound.
func findOne[T any](db *gorm.DB, query string, args ...any) (*T, error) {
	var out T
	res := db.Where(query, args...).Limit(1).Find(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &out, nil
}

// Page bounds a list query. Zero Limit means no limit.
type Page struct {
	Offset int
	Limit  int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Offset > 0 {
		db = db.Offset(p.Offset)
	}
	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	return db
}
