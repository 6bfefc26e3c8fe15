package service

import (
	"context"
	"strings"
	"time"

	"github.com/prabhucts/pmo/internal/extract"
	"github.com/prabhucts/pmo/internal/models"
	"github.com/prabhucts/pmo/internal/tabular"
)

// epicRow upserts an epic and creates the project named by its Parent label
// when the ITPR code is new.
func (b *batch) epicRow(ctx context.Context, rec tabular.Record) error {
	id, err := required(rec, colFormattedID)
	if err != nil {
		return err
	}
	name, err := required(rec, colName)
	if err != nil {
		return err
	}

	var (
		projectID *uint
		ref       string
	)
	if parent, ok := rec.Get(colParent); ok {
		if code := extract.ITPRCode(parent); code != "" {
			project, err := b.projectByCode(ctx, code, parent, extract.Theme(parent))
			if err != nil {
				return err
			}
			projectID, ref = &project.ID, code
		}
	}

	epic, err := b.repo.Epics.FindByFormattedID(ctx, id)
	if err != nil {
		return err
	}
	if epic == nil {
		epic = &models.Epic{FormattedID: id}
	}
	epic.Name = name
	epic.State = rec.Value(colState)
	epic.Owner = rec.Value(colOwner)
	epic.ProjectID = projectID
	epic.ProjectRef = ref

	return b.repo.Epics.Save(ctx, epic)
}

func (b *batch) featureRow(ctx context.Context, rec tabular.Record) error {
	id, err := required(rec, colFormattedID)
	if err != nil {
		return err
	}
	name, err := required(rec, colName)
	if err != nil {
		return err
	}

	var (
		epicID *uint
		ref    string
	)
	if parent, ok := rec.Get(colParent); ok {
		ref = extract.FormattedID(parent)
		epic, err := b.repo.Epics.FindByFormattedID(ctx, ref)
		if err != nil {
			return err
		}
		if epic != nil {
			epicID = &epic.ID
		}
	}

	feature, err := b.repo.Features.FindByFormattedID(ctx, id)
	if err != nil {
		return err
	}
	if feature == nil {
		feature = &models.Feature{FormattedID: id}
	}
	feature.Name = name
	feature.Owner = rec.Value(colOwner)
	feature.Release = rec.Value(colRelease)
	feature.State = rec.Value(colState)
	feature.EpicID = epicID
	feature.EpicRef = ref

	return b.repo.Features.Save(ctx, feature)
}

// storyRow upserts a user story. The export's Project column names the
// delivery team.
func (b *batch) storyRow(ctx context.Context, rec tabular.Record) error {
	id, err := required(rec, colFormattedID)
	if err != nil {
		return err
	}
	name, err := required(rec, colName)
	if err != nil {
		return err
	}
	points, err := estimate(rec, colPlanEstimate)
	if err != nil {
		return err
	}

	var (
		featureID *uint
		ref       string
	)
	if label, ok := rec.Get(colFeature); ok {
		ref = extract.FormattedID(label)
		feature, err := b.repo.Features.FindByFormattedID(ctx, ref)
		if err != nil {
			return err
		}
		if feature != nil {
			featureID = &feature.ID
		}
	}

	story, err := b.repo.Stories.FindByFormattedID(ctx, id)
	if err != nil {
		return err
	}
	if story == nil {
		story = &models.UserStory{FormattedID: id}
	}
	story.Name = name
	story.Owner = rec.Value(colOwner)
	story.Team = rec.Value(colProject)
	story.Release = rec.Value(colRelease)
	story.Iteration = rec.Value(colIteration)
	story.PlanEstimate = points
	story.State, _ = rec.First(colScheduleState, colState)
	story.FeatureID = featureID
	story.FeatureRef = ref

	return b.repo.Stories.Save(ctx, story)
}

// defectRow upserts a defect. Its feature is kept as a code only.
func (b *batch) defectRow(ctx context.Context, rec tabular.Record) error {
	id, err := required(rec, colFormattedID)
	if err != nil {
		return err
	}
	name, err := required(rec, colName)
	if err != nil {
		return err
	}
	points, err := estimate(rec, colPlanEstimate)
	if err != nil {
		return err
	}

	var featureCode string
	if label, ok := rec.Get(colFeature); ok {
		featureCode = extract.FormattedID(label)
	}

	var (
		storyID *uint
		ref     string
	)
	if label, ok := rec.Get(colUserStory); ok {
		ref = extract.StoryID(label)
		story, err := b.repo.Stories.FindByFormattedID(ctx, ref)
		if err != nil {
			return err
		}
		if story != nil {
			storyID = &story.ID
		}
	}

	defect, err := b.repo.Defects.FindByFormattedID(ctx, id)
	if err != nil {
		return err
	}
	if defect == nil {
		defect = &models.Defect{FormattedID: &id}
	}
	defect.Name = name
	defect.Team = rec.Value(colProject)
	defect.Iteration = rec.Value(colIteration)
	defect.PlanEstimate = points
	defect.State, _ = rec.First(colScheduleState, colState)
	defect.FeatureFormattedID = featureCode
	defect.UserStoryID = storyID
	defect.UserStoryRef = ref

	return b.repo.Defects.Save(ctx, defect)
}

type weekHours struct {
	week  time.Time
	hours float64
}

// clarityRow resolves the team, member and project of a Clarity row, creating
// them on first sighting, and hands every filled week cell to write.
func (b *batch) clarityRow(ctx context.Context, rec tabular.Record, write func(team *models.Team, member *models.TeamMember, project *models.Project, wh weekHours) error) error {
	teamName, err := required(rec, colTeam)
	if err != nil {
		return err
	}
	memberName, err := required(rec, colResource)
	if err != nil {
		return err
	}

	cells := make([]weekHours, 0, len(b.weeks))
	for _, wc := range b.weeks {
		raw, ok := rec.Get(wc.column)
		if !ok {
			continue
		}
		h, err := parseHours(wc.column, raw)
		if err != nil {
			return err
		}
		cells = append(cells, weekHours{week: wc.week, hours: h})
	}

	team, err := b.teamByName(ctx, teamName)
	if err != nil {
		return err
	}
	member, err := b.memberFor(ctx, team, memberName, rec)
	if err != nil {
		return err
	}

	initiative, ok := rec.Get(colInitiative)
	if !ok {
		return nil
	}
	code := extract.ITPRCode(initiative)
	if code == "" {
		return nil
	}
	project, err := b.projectByCode(ctx, code, initiative, "")
	if err != nil {
		return err
	}

	for _, wh := range cells {
		if err := write(team, member, project, wh); err != nil {
			return err
		}
	}
	return nil
}

func (b *batch) allocationRow(ctx context.Context, rec tabular.Record) error {
	return b.clarityRow(ctx, rec, func(team *models.Team, member *models.TeamMember, project *models.Project, wh weekHours) error {
		return b.repo.Allocations.Upsert(ctx, &models.TeamAllocation{
			TeamID:         team.ID,
			ProjectID:      project.ID,
			TeamMemberID:   member.ID,
			WeekStartDate:  wh.week,
			AllocatedHours: wh.hours,
		})
	})
}

func (b *batch) actualsRow(ctx context.Context, rec tabular.Record) error {
	return b.clarityRow(ctx, rec, func(_ *models.Team, member *models.TeamMember, project *models.Project, wh weekHours) error {
		return b.repo.TimeEntries.Upsert(ctx, &models.TimeEntry{
			TeamMemberID:  member.ID,
			ProjectID:     project.ID,
			WeekStartDate: wh.week,
			ActualHours:   wh.hours,
		})
	})
}

func (b *batch) projectByCode(ctx context.Context, code, label, theme string) (*models.Project, error) {
	project, err := b.repo.Projects.FindByCode(ctx, code)
	if err != nil || project != nil {
		return project, err
	}
	project = &models.Project{
		ITPRCode: code,
		Name:     label,
		Theme:    theme,
		Status:   models.ProjectStatusActive,
	}
	if err := b.repo.Projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (b *batch) teamByName(ctx context.Context, name string) (*models.Team, error) {
	team, err := b.repo.Teams.FindByName(ctx, name)
	if err != nil || team != nil {
		return team, err
	}
	team = &models.Team{Name: name}
	if err := b.repo.Teams.Create(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// memberFor finds a member by email, falling back to an address derived
// from the display name when the export has none.
func (b *batch) memberFor(ctx context.Context, team *models.Team, name string, rec tabular.Record) (*models.TeamMember, error) {
	networkID := rec.Value(colNetworkID)
	email := networkID
	if email == "" {
		email = strings.ToLower(strings.ReplaceAll(name, " ", "_")) + "@company.com"
	}

	member, err := b.repo.Members.FindByEmail(ctx, email)
	if err != nil || member != nil {
		return member, err
	}
	member = &models.TeamMember{
		Name:                 name,
		Email:                email,
		NetworkID:            networkID,
		Location:             rec.Value(colLocation),
		TeamID:               &team.ID,
		AllocationPercentage: 100,
		IsActive:             true,
	}
	if err := b.repo.Members.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}
