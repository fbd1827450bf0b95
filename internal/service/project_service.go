package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/weshare-leasing/internal/i18n"
	"github.com/nurpe/weshare-leasing/internal/model"
	"github.com/nurpe/weshare-leasing/internal/notify"
	"github.com/nurpe/weshare-leasing/internal/repository"
)

type ProjectService struct {
	db         *gorm.DB
	projects   *repository.ProjectRepository
	contracts  *repository.ContractRepository
	users      *repository.UserRepository
	notifier   Notifier
	translator *i18n.Translator
	log        zerolog.Logger
}

func NewProjectService(
	db *gorm.DB,
	projects *repository.ProjectRepository,
	contracts *repository.ContractRepository,
	users *repository.UserRepository,
	notifier Notifier,
	translator *i18n.Translator,
	log zerolog.Logger,
) *ProjectService {
	return &ProjectService{
		db:         db,
		projects:   projects,
		contracts:  contracts,
		users:      users,
		notifier:   notifier,
		translator: translator,
		log:        log,
	}
}

type AssignInvestorInput struct {
	Principal  model.Principal
	ProjectID  int64
	InvestorID *int64
}

type AssignInvestorResult struct {
	Project            *model.Project   `json:"project"`
	CancelledContracts []model.Contract `json:"cancelled_contracts"`
}

func (s *ProjectService) Get(ctx context.Context, principal model.Principal, id int64) (*model.Project, error) {
	project, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "project")
	}
	if principal.IsPrivileged() ||
		(principal.IsInvestor() && sameID(project.InvestorID, principal.UserID)) ||
		(principal.IsOfftaker() && sameID(project.OfftakerID, principal.UserID)) {
		return project, nil
	}
	return nil, ErrPermissionDenied
}

// AssignInvestor replaces the project's investor. Open contracts with the
// outgoing investor are cancelled in the same transaction as the project
// update; an approved one blocks the change until it is cancelled.
func (s *ProjectService) AssignInvestor(ctx context.Context, input AssignInvestorInput) (*AssignInvestorResult, error) {
	if !input.Principal.IsPrivileged() {
		return nil, ErrPermissionDenied
	}
	newID := firstID(input.InvestorID)
	if newID != nil {
		if err := expectRole(ctx, s.users, *newID, model.RoleInvestor); err != nil {
			return nil, err
		}
	}

	project, err := s.projects.Get(ctx, input.ProjectID)
	if err != nil {
		return nil, notFound(err, "project")
	}
	previousID := firstID(project.InvestorID)
	if equalIDs(previousID, newID) {
		return &AssignInvestorResult{Project: project}, nil
	}

	reason := s.translator.T(s.translator.Default(), "contract.reassignment_reason", nil)
	var cancelled []model.Contract

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contracts := s.contracts.WithTx(tx)
		if previousID != nil {
			open, err := contracts.ListNotCancelled(ctx, project.ID, *previousID)
			if err != nil {
				return err
			}
			for _, c := range open {
				if c.Status == model.ContractStatusApproved {
					return fmt.Errorf("%w: contract %d with the current investor is approved; cancel it first", ErrConflict, c.ID)
				}
			}
			for _, c := range open {
				if err := contracts.UpdateStatus(ctx, c.ID, model.ContractStatusCancelled, &reason, c.SignedDocumentKey, input.Principal.UserID); err != nil {
					return err
				}
				c.Status = model.ContractStatusCancelled
				c.RejectReason = &reason
				cancelled = append(cancelled, c)
			}
		}
		changed, err := s.projects.WithTx(tx).SetInvestor(ctx, project.ID, newID)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: project", ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	project.InvestorID = newID
	s.announceInvestorChange(ctx, project, previousID, newID, cancelled, input.Principal.UserID)
	return &AssignInvestorResult{Project: project, CancelledContracts: cancelled}, nil
}

func (s *ProjectService) AssignOfftaker(ctx context.Context, principal model.Principal, projectID int64, offtakerID *int64) (*model.Project, error) {
	if !principal.IsPrivileged() {
		return nil, ErrPermissionDenied
	}
	newID := firstID(offtakerID)
	if newID != nil {
		if err := expectRole(ctx, s.users, *newID, model.RoleOfftaker); err != nil {
			return nil, err
		}
	}
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, notFound(err, "project")
	}
	if equalIDs(firstID(project.OfftakerID), newID) {
		return project, nil
	}
	if _, err := s.projects.SetOfftaker(ctx, project.ID, newID); err != nil {
		return nil, err
	}
	project.OfftakerID = newID

	if newID != nil {
		err := s.notifier.DeliverTo(ctx, *newID, notify.Delivery{
			Key:      "project.offtaker.assigned",
			Vars:     map[string]any{"project": project.Name},
			Meta:     projectMeta(project.ID, principal.UserID),
			Template: "project_offtaker_assigned",
		})
		bestEffort(s.log, err, "project_offtaker_assigned", project.ID)
	}
	return project, nil
}

func (s *ProjectService) announceInvestorChange(ctx context.Context, project *model.Project, previousID, newID *int64, cancelled []model.Contract, actorID int64) {
	meta := projectMeta(project.ID, actorID)

	if previousID != nil {
		if len(cancelled) > 0 {
			for _, c := range cancelled {
				contractMeta := notify.Meta{
					ModuleType: model.ModuleContract,
					ModuleID:   c.ID,
					ActionURL:  fmt.Sprintf("/contracts/%d", c.ID),
					CreatedBy:  actorID,
				}
				err := s.notifier.DeliverTo(ctx, *previousID, notify.Delivery{
					Key:      "project.investor.contract_cancelled",
					Vars:     map[string]any{"project": project.Name, "title": c.Title},
					Meta:     contractMeta,
					Template: "contract_cancelled_investor",
				})
				bestEffort(s.log, err, "reassignment_contract_cancelled", c.ID)
			}
		} else {
			err := s.notifier.DeliverTo(ctx, *previousID, notify.Delivery{
				Key:      "project.investor.removed",
				Vars:     map[string]any{"project": project.Name},
				Meta:     meta,
				Template: "project_investor_removed",
			})
			bestEffort(s.log, err, "project_investor_removed", project.ID)
		}
	}

	if newID != nil {
		err := s.notifier.DeliverTo(ctx, *newID, notify.Delivery{
			Key:      "project.investor.assigned",
			Vars:     map[string]any{"project": project.Name},
			Meta:     meta,
			Template: "project_investor_assigned",
		})
		bestEffort(s.log, err, "project_investor_assigned", project.ID)
	}
}

func projectMeta(projectID, actorID int64) notify.Meta {
	return notify.Meta{
		ModuleType: model.ModuleProject,
		ModuleID:   projectID,
		ActionURL:  fmt.Sprintf("/projects/%d", projectID),
		CreatedBy:  actorID,
	}
}

func sameID(id *int64, userID int64) bool {
	return id != nil && *id == userID
}

func equalIDs(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
