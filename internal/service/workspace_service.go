package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ulot2/postflow/internal/models"
	"github.com/ulot2/postflow/internal/repository"
)

type WorkspaceService interface {
	Create(ctx context.Context, userID int64, name, description, wsType string) (int64, error)
	List(ctx context.Context, userID int64) ([]*models.Workspace, error)
	Remove(ctx context.Context, userID, workspaceID int64) error
}

type workspaceService struct {
	ws repository.WorkspaceRepository
}

func NewWorkspaceService(ws repository.WorkspaceRepository) WorkspaceService {
	return &workspaceService{ws: ws}
}

func (s *workspaceService) Create(ctx context.Context, userID int64, name, description, wsType string) (int64, error) {
	if userID == 0 {
		err := errors.New("User is not valid")
		slog.Info(err.Error())
		return 0, err
	}
	if name == "" {
		err := errors.New("workspace name cannot be empty")
		slog.Info(err.Error())
		return 0, err
	}
	if wsType != models.WorkspaceTypePersonal && wsType != models.WorkspaceTypeCompany {
		err := fmt.Errorf("invalid workspace type: %s", wsType)
		slog.Info(err.Error())
		return 0, err
	}

	workspace := models.Workspace{
		UserID:      userID,
		Name:        name,
		Description: description,
		Type:        wsType,
	}

	id, err := s.ws.Create(ctx, &workspace)
	if err != nil {
		return 0, fmt.Errorf("Error creating workspace")
	}

	return id, nil
}

func (s *workspaceService) List(ctx context.Context, userID int64) ([]*models.Workspace, error) {
	if userID == 0 {
		err := errors.New("User is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	workspaces, err := s.ws.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting workspaces")
	}

	return workspaces, nil
}

func (s *workspaceService) Remove(ctx context.Context, userID, workspaceID int64) error {
	if userID == 0 {
		err := errors.New("User is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.ws.CheckByUserID(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("Workspace doesn't exist")
		slog.Info(err.Error())
		return err
	}

	if err := s.ws.Remove(ctx, workspaceID); err != nil {
		return fmt.Errorf("Error removing workspace")
	}

	return nil
}
