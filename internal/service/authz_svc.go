package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tgo/sage/internal/model"
	"github.com/tgo/sage/internal/pkg/errs"
	"github.com/tgo/sage/internal/repository"
)

// OwnershipGuard is the single authorization check every pipeline entry
// point runs before touching project-scoped data. A project is owned iff
// a row matches both the project id and the owner user id.
type OwnershipGuard struct {
	projectRepo *repository.ProjectRepository
}

func NewOwnershipGuard(projectRepo *repository.ProjectRepository) *OwnershipGuard {
	return &OwnershipGuard{projectRepo: projectRepo}
}

// Require returns the project when userID owns it. A missing project is
// NotFound; an existing project with a different owner is Forbidden.
func (g *OwnershipGuard) Require(ctx context.Context, projectID, userID uuid.UUID) (*model.Project, error) {
	project, err := g.projectRepo.FindByID(ctx, projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("project not found")
	}
	if err != nil {
		return nil, err
	}
	if project.UserID != userID {
		return nil, errs.Forbidden("you do not have access to this project")
	}
	return project, nil
}

// RequireTx is the transaction-scoped variant used inside cascading
// deletes.
func (g *OwnershipGuard) RequireTx(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID) (*model.Project, error) {
	return (&OwnershipGuard{projectRepo: g.projectRepo.WithTx(tx)}).Require(ctx, projectID, userID)
}

// Verify is the non-throwing variant.
func (g *OwnershipGuard) Verify(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	project, err := g.projectRepo.FindOwned(ctx, projectID, userID)
	if err != nil {
		return false, err
	}
	return project != nil, nil
}
