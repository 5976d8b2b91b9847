package store

import (
	"context"
	"strings"
	"unicode/utf8"

	"teamtasks-backend/internal/apperr"
	"teamtasks-backend/internal/model"
)

const maxTeamNameLen = 100

// CreateTeam creates a team whose members are memberIDs plus the creator.
func (s *gormStore) CreateTeam(ctx context.Context, name string, creatorID int64, memberIDs []int64) (model.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxTeamNameLen {
		return model.Team{}, apperr.Validation("team name must be 1-%d characters", maxTeamNameLen)
	}

	ids := uniqueIDs(append([]int64{creatorID}, memberIDs...))
	var members []*model.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&members).Error; err != nil {
		return model.Team{}, err
	}
	if len(members) != len(ids) {
		return model.Team{}, apperr.Validation("one or more member ids do not exist")
	}

	team := model.Team{Name: name, Members: members}
	if err := s.db.WithContext(ctx).Create(&team).Error; err != nil {
		return model.Team{}, err
	}
	return team, nil
}

func (s *gormStore) ListTeamsForUser(ctx context.Context, userID int64) ([]model.Team, error) {
	var teams []model.Team
	err := s.db.WithContext(ctx).
		Joins("JOIN team_members tm ON tm.team_id = teams.id").
		Where("tm.user_id = ?", userID).
		Preload("Members").
		Order("teams.id").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

// IsTeamMember is the single membership predicate used by the HTTP layer and
// the mention producer.
func (s *gormStore) IsTeamMember(ctx context.Context, userID, teamID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Table("team_members").
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
