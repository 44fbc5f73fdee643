package repositories

import (
	"context"

	"taskhive/internal/models"

	"github.com/google/uuid"
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Team, error)

	AddMember(ctx context.Context, member *models.TeamMember) error
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]*models.TeamMember, error)
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
}

type teamRepo struct {
	db DB
}

func NewTeamRepository(db DB) TeamRepository {
	return &teamRepo{db: db}
}

func (r *teamRepo) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (id, owner_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, team.ID, team.OwnerID, team.Name, team.Description)
	return err
}

func (r *teamRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	team := &models.Team{}
	query := `
		SELECT id, owner_id, name, description, created_at, updated_at
		FROM teams
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&team.ID, &team.OwnerID, &team.Name, &team.Description, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (r *teamRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	return err
}

func (r *teamRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Team, error) {
	query := `
		SELECT id, owner_id, name, description, created_at, updated_at
		FROM teams
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		team := &models.Team{}
		if err := rows.Scan(&team.ID, &team.OwnerID, &team.Name, &team.Description, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *teamRepo) AddMember(ctx context.Context, member *models.TeamMember) error {
	query := `
		INSERT INTO team_members (id, team_id, user_id, role, invited_by, joined_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (team_id, user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, member.ID, member.TeamID, member.UserID, member.Role, member.InvitedBy)
	return err
}

func (r *teamRepo) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	return err
}

func (r *teamRepo) ListMembers(ctx context.Context, teamID uuid.UUID) ([]*models.TeamMember, error) {
	query := `
		SELECT id, team_id, user_id, role, invited_by, joined_at
		FROM team_members
		WHERE team_id = $1
		ORDER BY joined_at ASC
	`
	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.TeamMember
	for rows.Next() {
		member := &models.TeamMember{}
		if err := rows.Scan(&member.ID, &member.TeamID, &member.UserID, &member.Role, &member.InvitedBy, &member.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *teamRepo) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`
	if err := r.db.QueryRow(ctx, query, teamID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
