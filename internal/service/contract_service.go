package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/weshare-leasing/internal/model"
	"github.com/nurpe/weshare-leasing/internal/notify"
	"github.com/nurpe/weshare-leasing/internal/repository"
	"github.com/nurpe/weshare-leasing/internal/storage"
)

type ContractService struct {
	contracts *repository.ContractRepository
	projects  *repository.ProjectRepository
	users     *repository.UserRepository
	docs      Documents
	notifier  Notifier
	log       zerolog.Logger
}

func NewContractService(
	contracts *repository.ContractRepository,
	projects *repository.ProjectRepository,
	users *repository.UserRepository,
	docs Documents,
	notifier Notifier,
	log zerolog.Logger,
) *ContractService {
	return &ContractService{
		contracts: contracts,
		projects:  projects,
		users:     users,
		docs:      docs,
		notifier:  notifier,
		log:       log,
	}
}

type CreateContractInput struct {
	Principal    model.Principal
	ProjectID    int64
	OfftakerID   *int64
	InvestorID   *int64
	Title        string
	Description  string
	ContractDate *time.Time
	// Document wins over DocumentKey when both are present.
	Document    *storage.Upload
	DocumentKey string
}

type UpdateContractInput struct {
	Principal    model.Principal
	ID           int64
	Title        *string
	Description  *string
	OfftakerID   *int64
	InvestorID   *int64
	ContractDate *time.Time
	Document     *storage.Upload
	DocumentKey  *string
}

type SetContractStatusInput struct {
	Principal      model.Principal
	ID             int64
	Status         model.ContractStatus
	Reason         string
	SignedDocument *storage.Upload
}

var contractTransitions = map[model.ContractStatus][]model.ContractStatus{
	model.ContractStatusPending:  {model.ContractStatusApproved, model.ContractStatusRejected, model.ContractStatusCancelled},
	model.ContractStatusRejected: {model.ContractStatusApproved, model.ContractStatusCancelled},
	model.ContractStatusApproved: {model.ContractStatusApproved, model.ContractStatusCancelled},
}

func (s *ContractService) Create(ctx context.Context, input CreateContractInput) (*model.Contract, error) {
	if !input.Principal.IsPrivileged() {
		return nil, ErrPermissionDenied
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	if input.ProjectID <= 0 {
		return nil, invalid("project_id is required")
	}

	project, err := s.projects.Get(ctx, input.ProjectID)
	if err != nil {
		return nil, notFound(err, "project")
	}

	contract := &model.Contract{
		ProjectID:    project.ID,
		OfftakerID:   firstID(input.OfftakerID, project.OfftakerID),
		InvestorID:   firstID(input.InvestorID, project.InvestorID),
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		DocumentKey:  strings.TrimSpace(input.DocumentKey),
		ContractDate: input.ContractDate,
		Status:       model.ContractStatusPending,
		CreatedBy:    input.Principal.UserID,
		UpdatedBy:    input.Principal.UserID,
	}
	if err := s.checkParties(ctx, contract.OfftakerID, contract.InvestorID); err != nil {
		return nil, err
	}

	uploaded, err := storeDocument(ctx, s.docs, input.Document, storage.FolderContracts, "", entityMeta("contract", 0))
	if err != nil {
		return nil, err
	}
	if uploaded != "" {
		contract.DocumentKey = uploaded
	}

	if err := s.contracts.Create(ctx, contract); err != nil {
		s.docs.DeleteQuietly(ctx, uploaded, "contract insert failed")
		return nil, err
	}

	s.fanOut(ctx, contract, project, "created", input.Principal.UserID, contract.DocumentKey)
	return contract, nil
}

// Update edits the non-status fields. A new document replaces the old one,
// which is removed once the row points at the new key.
func (s *ContractService) Update(ctx context.Context, input UpdateContractInput) (*model.Contract, error) {
	if !input.Principal.IsPrivileged() {
		return nil, ErrPermissionDenied
	}
	contract, err := s.contracts.Get(ctx, input.ID)
	if err != nil {
		return nil, notFound(err, "contract")
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, invalid("title cannot be empty")
		}
		contract.Title = title
	}
	if input.Description != nil {
		contract.Description = strings.TrimSpace(*input.Description)
	}
	if input.OfftakerID != nil {
		contract.OfftakerID = input.OfftakerID
	}
	if input.InvestorID != nil {
		contract.InvestorID = input.InvestorID
	}
	if input.ContractDate != nil {
		contract.ContractDate = input.ContractDate
	}
	if err := s.checkParties(ctx, contract.OfftakerID, contract.InvestorID); err != nil {
		return nil, err
	}

	previousKey := contract.DocumentKey
	uploaded, err := storeDocument(ctx, s.docs, input.Document, storage.FolderContracts, previousKey, entityMeta("contract", contract.ID))
	if err != nil {
		return nil, err
	}
	switch {
	case uploaded != "":
		contract.DocumentKey = uploaded
	case input.DocumentKey != nil:
		contract.DocumentKey = strings.TrimSpace(*input.DocumentKey)
	}
	contract.UpdatedBy = input.Principal.UserID

	if err := s.contracts.UpdateDetails(ctx, contract); err != nil {
		s.docs.DeleteQuietly(ctx, uploaded, "contract update failed")
		return nil, err
	}
	if uploaded != "" && previousKey != "" && previousKey != uploaded {
		s.docs.DeleteQuietly(ctx, previousKey, "contract document replaced")
	}
	return s.contracts.Get(ctx, contract.ID)
}

// SetStatus moves the contract through its lifecycle. The status write and
// the signed document are the unit of success; notifications follow.
func (s *ContractService) SetStatus(ctx context.Context, input SetContractStatusInput) (*model.Contract, error) {
	if !input.Principal.IsPrivileged() {
		return nil, ErrPermissionDenied
	}
	if !input.Status.Valid() || input.Status == model.ContractStatusPending {
		return nil, invalid("status must be 1 (approved), 2 (rejected) or 3 (cancelled)")
	}
	reason := strings.TrimSpace(input.Reason)
	if input.Status == model.ContractStatusRejected && reason == "" {
		return nil, invalid("reason is required when rejecting a contract")
	}

	contract, err := s.contracts.Get(ctx, input.ID)
	if err != nil {
		return nil, notFound(err, "contract")
	}
	if !canTransition(contract.Status, input.Status) {
		return nil, fmt.Errorf("%w: contract is %s and cannot become %s", ErrConflict, contract.Status, input.Status)
	}
	if contract.Status == model.ContractStatusApproved && input.Status == model.ContractStatusApproved && input.SignedDocument.Empty() {
		return nil, invalid("contract is already approved; re-approval needs a new signed document")
	}
	project, err := s.projects.Get(ctx, contract.ProjectID)
	if err != nil {
		return nil, notFound(err, "project")
	}

	previousSigned := contract.SignedDocumentKey
	signedKey := previousSigned
	var uploaded string
	if input.Status == model.ContractStatusApproved {
		uploaded, err = storeDocument(ctx, s.docs, input.SignedDocument, storage.FolderSignedContracts, previousSigned, entityMeta("contract", contract.ID))
		if err != nil {
			return nil, err
		}
		if uploaded != "" {
			signedKey = uploaded
		}
	}

	var rejectReason *string
	if input.Status.CarriesReason() && reason != "" {
		rejectReason = &reason
	}

	if err := s.contracts.UpdateStatus(ctx, contract.ID, input.Status, rejectReason, signedKey, input.Principal.UserID); err != nil {
		s.docs.DeleteQuietly(ctx, uploaded, "contract status update failed")
		return nil, err
	}
	if uploaded != "" && previousSigned != "" && previousSigned != uploaded {
		s.docs.DeleteQuietly(ctx, previousSigned, "signed contract replaced")
	}

	updated, err := s.contracts.Get(ctx, contract.ID)
	if err != nil {
		return nil, err
	}

	switch input.Status {
	case model.ContractStatusApproved:
		s.fanOut(ctx, updated, project, "approved", input.Principal.UserID, updated.SignedDocumentKey)
	case model.ContractStatusRejected:
		s.fanOut(ctx, updated, project, "rejected", input.Principal.UserID, "")
	case model.ContractStatusCancelled:
		s.fanOut(ctx, updated, project, "cancelled", input.Principal.UserID, "")
	}
	return updated, nil
}

func (s *ContractService) Get(ctx context.Context, principal model.Principal, id int64) (*model.Contract, error) {
	contract, err := s.contracts.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "contract")
	}
	if !canSeeContract(principal, contract) {
		return nil, ErrPermissionDenied
	}
	return contract, nil
}

func (s *ContractService) ListByProject(ctx context.Context, principal model.Principal, projectID int64) ([]model.Contract, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, notFound(err, "project")
	}
	contracts, err := s.contracts.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if principal.IsPrivileged() {
		return contracts, nil
	}
	visible := make([]model.Contract, 0, len(contracts))
	for _, c := range contracts {
		if canSeeContract(principal, &c) {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// fanOut notifies the offtaker and the investor independently, then echoes
// to admins. Approval emails go to admins too; other admin echoes are
// in-app only.
func (s *ContractService) fanOut(ctx context.Context, contract *model.Contract, project *model.Project, event string, actorID int64, documentKey string) {
	vars := map[string]any{
		"title":   contract.Title,
		"project": project.Name,
		"reason":  reasonText(contract.RejectReason),
		"status":  contract.Status.String(),
	}
	meta := notify.Meta{
		ModuleType: model.ModuleContract,
		ModuleID:   contract.ID,
		ActionURL:  fmt.Sprintf("/contracts/%d", contract.ID),
		CreatedBy:  actorID,
	}
	attachments := attachKey(documentKey, contract.Title+".pdf")

	if contract.OfftakerID != nil {
		err := s.notifier.DeliverTo(ctx, *contract.OfftakerID, notify.Delivery{
			Key:         "contract." + event + ".offtaker",
			Vars:        vars,
			Meta:        meta,
			Template:    "contract_" + event + "_offtaker",
			Attachments: attachments,
		})
		bestEffort(s.log, err, "contract_"+event+"_offtaker", contract.ID)
	}
	if contract.InvestorID != nil {
		err := s.notifier.DeliverTo(ctx, *contract.InvestorID, notify.Delivery{
			Key:         "contract." + event + ".investor",
			Vars:        vars,
			Meta:        meta,
			Template:    "contract_" + event + "_investor",
			Attachments: attachments,
		})
		bestEffort(s.log, err, "contract_"+event+"_investor", contract.ID)
	}

	admin := notify.Delivery{Key: "contract." + event + ".admin", Vars: vars, Meta: meta}
	if event == "approved" {
		admin.Template = "contract_approved_admin"
		admin.Attachments = attachments
	}
	bestEffort(s.log, s.notifier.DeliverToAdmins(ctx, admin), "contract_"+event+"_admin", contract.ID)
}

func (s *ContractService) checkParties(ctx context.Context, offtakerID, investorID *int64) error {
	if offtakerID != nil {
		if err := expectRole(ctx, s.users, *offtakerID, model.RoleOfftaker); err != nil {
			return err
		}
	}
	if investorID != nil {
		if err := expectRole(ctx, s.users, *investorID, model.RoleInvestor); err != nil {
			return err
		}
	}
	return nil
}

func canTransition(from, to model.ContractStatus) bool {
	for _, allowed := range contractTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func canSeeContract(principal model.Principal, c *model.Contract) bool {
	if principal.IsPrivileged() {
		return true
	}
	if !principal.IsOfftaker() && !principal.IsInvestor() {
		return false
	}
	return slices.Contains(c.Parties(), principal.UserID)
}

func reasonText(reason *string) string {
	if reason == nil || *reason == "" {
		return "-"
	}
	return *reason
}

func firstID(ids ...*int64) *int64 {
	for _, id := range ids {
		if id != nil && *id > 0 {
			v := *id
			return &v
		}
	}
	return nil
}

func expectRole(ctx context.Context, users *repository.UserRepository, id int64, role model.Role) error {
	user, err := users.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalid("user %d does not exist", id)
	}
	if err != nil {
		return err
	}
	if user.Role != role {
		return invalid("user %d is not an %s", id, role)
	}
	return nil
}
