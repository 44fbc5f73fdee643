package services

import (
	"context"
	"fmt"
	"log"

	"taskhive/internal/models"
	"taskhive/internal/repositories"

	"github.com/google/uuid"
)

type TeamService interface {
	Create(ctx context.Context, ownerID uuid.UUID, team *models.Team) (*models.Team, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Team, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Team, error)

	InviteMember(ctx context.Context, inviterID, teamID, userID uuid.UUID, role string) (*models.TeamMember, error)
	RemoveMember(ctx context.Context, requesterID, teamID, userID uuid.UUID) error
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]*models.TeamMember, error)
}

type teamService struct {
	teamRepo         repositories.TeamRepository
	notificationRepo repositories.NotificationRepository
	usageSvc         UsageService
}

func NewTeamService(teamRepo repositories.TeamRepository, notificationRepo repositories.NotificationRepository, usageSvc UsageService) TeamService {
	return &teamService{teamRepo: teamRepo, notificationRepo: notificationRepo, usageSvc: usageSvc}
}

func (s *teamService) Create(ctx context.Context, ownerID uuid.UUID, team *models.Team) (*models.Team, error) {
	decision, err := s.usageSvc.ConsumeCapacity(ctx, ownerID, OpCreateTeam, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve team capacity: %w", err)
	}
	if !decision.Allowed {
		return nil, &LimitReachedError{Decision: decision}
	}

	team.ID = uuid.New()
	team.OwnerID = ownerID
	if err := s.teamRepo.Create(ctx, team); err != nil {
		release := -1.0
		s.usageSvc.TrackUsage(ctx, UsageData{
			UserID:     ownerID,
			EntityType: "teams",
			ActionType: "deleteTeam",
			DeltaValue: &release,
		})
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	// The owner is always a member
	owner := &models.TeamMember{
		ID:        uuid.New(),
		TeamID:    team.ID,
		UserID:    ownerID,
		Role:      models.MemberRoleOwner,
		InvitedBy: ownerID,
	}
	if err := s.teamRepo.AddMember(ctx, owner); err != nil {
		log.Printf("WARN: team: owner membership insert failed for team %s: %v", team.ID, err)
	}
	return team, nil
}

func (s *teamService) Get(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	return team, nil
}

func (s *teamService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load team: %w", err)
	}
	if team.OwnerID != ownerID {
		return fmt.Errorf("team does not belong to user")
	}

	if err := s.teamRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	release := -1.0
	s.usageSvc.TrackUsage(ctx, UsageData{
		UserID:     ownerID,
		EntityType: "teams",
		ActionType: "deleteTeam",
		DeltaValue: &release,
	})
	return nil
}

func (s *teamService) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Team, error) {
	return s.teamRepo.ListByOwner(ctx, ownerID, limit, offset)
}

// InviteMember adds a user to a team. Member capacity is accounted against
// the inviter, who owns the plan the team runs on.
func (s *teamService) InviteMember(ctx context.Context, inviterID, teamID, userID uuid.UUID, role string) (*models.TeamMember, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team.OwnerID != inviterID {
		isMember, err := s.teamRepo.IsMember(ctx, teamID, inviterID)
		if err != nil {
			return nil, fmt.Errorf("failed to check membership: %w", err)
		}
		if !isMember {
			return nil, fmt.Errorf("inviter is not a member of the team")
		}
	}

	already, err := s.teamRepo.IsMember(ctx, teamID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if already {
		return nil, fmt.Errorf("user is already a member")
	}

	decision, err := s.usageSvc.ConsumeCapacity(ctx, team.OwnerID, OpInviteMember, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve member capacity: %w", err)
	}
	if !decision.Allowed {
		return nil, &LimitReachedError{Decision: decision}
	}

	if role == "" {
		role = models.MemberRoleMember
	}
	member := &models.TeamMember{
		ID:        uuid.New(),
		TeamID:    teamID,
		UserID:    userID,
		Role:      role,
		InvitedBy: inviterID,
	}
	if err := s.teamRepo.AddMember(ctx, member); err != nil {
		release := -1.0
		s.usageSvc.TrackUsage(ctx, UsageData{
			UserID:     team.OwnerID,
			EntityType: "members",
			ActionType: "removeMember",
			DeltaValue: &release,
		})
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.notifyInvited(ctx, userID, team.Name)
	return member, nil
}

func (s *teamService) RemoveMember(ctx context.Context, requesterID, teamID, userID uuid.UUID) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to load team: %w", err)
	}
	if team.OwnerID != requesterID && requesterID != userID {
		return fmt.Errorf("only the team owner can remove other members")
	}
	if userID == team.OwnerID {
		return fmt.Errorf("the team owner cannot be removed")
	}

	if err := s.teamRepo.RemoveMember(ctx, teamID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	release := -1.0
	s.usageSvc.TrackUsage(ctx, UsageData{
		UserID:     team.OwnerID,
		EntityType: "members",
		ActionType: "removeMember",
		DeltaValue: &release,
	})
	return nil
}

func (s *teamService) ListMembers(ctx context.Context, teamID uuid.UUID) ([]*models.TeamMember, error) {
	return s.teamRepo.ListMembers(ctx, teamID)
}

func (s *teamService) notifyInvited(ctx context.Context, userID uuid.UUID, teamName string) {
	if s.notificationRepo == nil {
		return
	}
	notification := &models.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Type:    models.NotificationMemberInvited,
		Title:   "Added to a team",
		Message: fmt.Sprintf("You have been added to the team %q.", teamName),
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		log.Printf("WARN: team: invite notification failed for user %s: %v", userID, err)
	}
}
