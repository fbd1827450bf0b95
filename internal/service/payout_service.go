package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/weshare-leasing/internal/model"
	"github.com/nurpe/weshare-leasing/internal/notify"
	"github.com/nurpe/weshare-leasing/internal/repository"
	"github.com/nurpe/weshare-leasing/internal/sequence"
	"github.com/nurpe/weshare-leasing/internal/storage"
)

type StatementGenerator interface {
	Generate(statement model.PayoutStatement) ([]byte, error)
}

type PayoutService struct {
	db       *gorm.DB
	payouts  *repository.PayoutRepository
	invoices *repository.InvoiceRepository
	projects *repository.ProjectRepository
	users    *repository.UserRepository
	numbers  *sequence.Allocator
	scheme   sequence.Scheme
	excel    StatementGenerator
	docs     Documents
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewPayoutService(
	db *gorm.DB,
	payouts *repository.PayoutRepository,
	invoices *repository.InvoiceRepository,
	projects *repository.ProjectRepository,
	users *repository.UserRepository,
	numbers *sequence.Allocator,
	payoutPrefix string,
	excel StatementGenerator,
	docs Documents,
	notifier Notifier,
	log zerolog.Logger,
) *PayoutService {
	return &PayoutService{
		db:       db,
		payouts:  payouts,
		invoices: invoices,
		projects: projects,
		users:    users,
		numbers:  numbers,
		scheme:   sequence.Scheme{Name: "payout", Prefix: payoutPrefix, Yearly: true},
		excel:    excel,
		docs:     docs,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

type CreatePayoutInput struct {
	Principal model.Principal
	InvoiceID int64
	// ProjectID defaults to the invoice's project and must match it.
	ProjectID     int64
	TransactionID string
	Document      *storage.Upload
	DocumentKey   string
}

type UpdatePayoutInput struct {
	Principal     model.Principal
	ID            int64
	TransactionID *string
	Document      *storage.Upload
	MarkPaid      bool
	PayoutDate    *time.Time
}

type PayoutFilter struct {
	InvestorID *int64
	ProjectID  *int64
	Status     *model.PayoutStatus
	Year       int
}

// Create issues the single payout for an invoice, project and investor.
// Invoice total and project percentage are copied so later edits to either
// leave the payout untouched.
func (s *PayoutService) Create(ctx context.Context, input CreatePayoutInput) (*model.Payout, error) {
	if !input.Principal.IsPrivileged() {
		return nil, ErrPermissionDenied
	}
	if input.InvoiceID <= 0 {
		return nil, invalid("invoice_id is required")
	}

	invoice, err := s.invoices.Get(ctx, input.InvoiceID)
	if err != nil {
		return nil, notFound(err, "invoice")
	}
	if invoice.Status != model.InvoiceStatusPaid {
		return nil, invalid("invoice %s is not approved", invoice.Number())
	}
	if input.ProjectID != 0 && input.ProjectID != invoice.ProjectID {
		return nil, invalid("project_id does not match the invoice")
	}

	project, err := s.projects.Get(ctx, invoice.ProjectID)
	if err != nil {
		return nil, notFound(err, "project")
	}
	if project.InvestorID == nil {
		return nil, invalid("project %q has no investor assigned", project.Name)
	}
	if !project.InvestorProfitPercent.IsPositive() {
		return nil, invalid("project %q has no investor profit percentage", project.Name)
	}
	investorID := *project.InvestorID

	exists, err := s.payouts.ExistsForTriple(ctx, invoice.ID, project.ID, investorID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: a payout already exists for invoice %s", ErrConflict, invoice.Number())
	}

	uploaded, err := storeDocument(ctx, s.docs, input.Document, storage.FolderPayouts, "", entityMeta("invoice", invoice.ID))
	if err != nil {
		return nil, err
	}

	payout := &model.Payout{
		InvoiceID:       invoice.ID,
		ProjectID:       project.ID,
		InvestorID:      investorID,
		InvoiceAmount:   invoice.TotalAmount,
		InvestorPercent: project.InvestorProfitPercent,
		PayoutAmount:    model.ComputePayoutAmount(invoice.TotalAmount, project.InvestorProfitPercent),
		DocumentKey:     strings.TrimSpace(input.DocumentKey),
		TransactionID:   strings.TrimSpace(input.TransactionID),
		Status:          model.PayoutStatusPending,
		CreatedBy:       input.Principal.UserID,
	}
	if uploaded != "" {
		payout.DocumentKey = uploaded
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prefix, number, err := s.numbers.Allocate(ctx, tx, s.scheme, now)
		if err != nil {
			return err
		}
		payout.PayoutPrefix = prefix
		payout.PayoutNumber = number
		return s.payouts.WithTx(tx).Create(ctx, payout)
	})
	if err != nil {
		s.docs.DeleteQuietly(ctx, uploaded, "payout insert failed")
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: a payout already exists for invoice %s", ErrConflict, invoice.Number())
		}
		return nil, err
	}

	s.announce(ctx, "payout.created.investor", "payout_created", payout, project, input.Principal.UserID)
	return payout, nil
}

// Update may replace the document, set the transaction id and mark the
// payout paid. Only the first transition to paid notifies the investor.
func (s *PayoutService) Update(ctx context.Context, input UpdatePayoutInput) (*model.Payout, error) {
	if !input.Principal.IsPrivileged() {
		return nil, ErrPermissionDenied
	}
	payout, err := s.payouts.Get(ctx, input.ID)
	if err != nil {
		return nil, notFound(err, "payout")
	}

	previousKey := payout.DocumentKey
	uploaded, err := storeDocument(ctx, s.docs, input.Document, storage.FolderPayouts, previousKey, entityMeta("payout", payout.ID))
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if uploaded != "" {
		fields["document_key"] = uploaded
	}
	if input.TransactionID != nil {
		fields["transaction_id"] = strings.TrimSpace(*input.TransactionID)
	}
	becamePaid := input.MarkPaid && payout.Status != model.PayoutStatusPaid
	if becamePaid {
		paidOn := s.now()
		if input.PayoutDate != nil {
			paidOn = *input.PayoutDate
		}
		fields["status"] = model.PayoutStatusPaid
		fields["payout_date"] = paidOn
	}

	if len(fields) > 0 {
		if err := s.payouts.Update(ctx, payout.ID, fields); err != nil {
			s.docs.DeleteQuietly(ctx, uploaded, "payout update failed")
			return nil, err
		}
	}
	if uploaded != "" && previousKey != "" && previousKey != uploaded {
		s.docs.DeleteQuietly(ctx, previousKey, "payout document replaced")
	}

	updated, err := s.payouts.Get(ctx, payout.ID)
	if err != nil {
		return nil, err
	}
	if becamePaid {
		project, err := s.projects.Get(ctx, updated.ProjectID)
		if err != nil {
			bestEffort(s.log, err, "payout_paid", updated.ID)
		} else {
			s.announce(ctx, "payout.paid.investor", "payout_paid", updated, project, input.Principal.UserID)
		}
	}
	return updated, nil
}

// Delete removes the document first; a failed blob delete is logged and the
// record is removed anyway.
func (s *PayoutService) Delete(ctx context.Context, principal model.Principal, id int64) error {
	if !principal.IsPrivileged() {
		return ErrPermissionDenied
	}
	payout, err := s.payouts.Get(ctx, id)
	if err != nil {
		return notFound(err, "payout")
	}
	s.docs.DeleteQuietly(ctx, payout.DocumentKey, "payout deleted")
	return notFound(s.payouts.Delete(ctx, id), "payout")
}

func (s *PayoutService) Get(ctx context.Context, principal model.Principal, id int64) (*model.Payout, error) {
	payout, err := s.payouts.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "payout")
	}
	if !principal.IsPrivileged() && !(principal.IsInvestor() && payout.InvestorID == principal.UserID) {
		return nil, ErrPermissionDenied
	}
	return payout, nil
}

func (s *PayoutService) List(ctx context.Context, principal model.Principal, filter PayoutFilter) ([]model.Payout, error) {
	switch {
	case principal.IsPrivileged():
	case principal.IsInvestor():
		own := principal.UserID
		filter.InvestorID = &own
	default:
		return nil, ErrPermissionDenied
	}

	repoFilter := repository.PayoutFilter{
		InvestorID: filter.InvestorID,
		ProjectID:  filter.ProjectID,
		Status:     filter.Status,
	}
	if filter.Year > 0 {
		from, to := yearBounds(filter.Year)
		repoFilter.From, repoFilter.To = &from, &to
	}
	return s.payouts.List(ctx, repoFilter)
}

// ExportStatement builds the investor's XLSX statement for a year.
func (s *PayoutService) ExportStatement(ctx context.Context, principal model.Principal, investorID int64, year int) ([]byte, string, error) {
	if principal.IsInvestor() {
		investorID = principal.UserID
	} else if !principal.IsPrivileged() {
		return nil, "", ErrPermissionDenied
	}
	if investorID <= 0 {
		return nil, "", invalid("investor_id is required")
	}
	if year <= 0 {
		year = s.now().Year()
	}

	investor, err := s.users.Get(ctx, investorID)
	if err != nil {
		return nil, "", notFound(err, "investor")
	}
	payouts, err := s.List(ctx, principal, PayoutFilter{InvestorID: &investorID, Year: year})
	if err != nil {
		return nil, "", err
	}

	names := make(map[int64]string)
	for _, p := range payouts {
		if _, ok := names[p.ProjectID]; ok {
			continue
		}
		if project, err := s.projects.Get(ctx, p.ProjectID); err == nil {
			names[p.ProjectID] = project.Name
		}
	}

	content, err := s.excel.Generate(model.PayoutStatement{
		InvestorName: investor.Name,
		Year:         year,
		Payouts:      payouts,
		ProjectNames: names,
	})
	if err != nil {
		return nil, "", err
	}
	return content, fmt.Sprintf("payouts_%d_%d.xlsx", investorID, year), nil
}

func (s *PayoutService) announce(ctx context.Context, key, template string, payout *model.Payout, project *model.Project, actorID int64) {
	err := s.notifier.DeliverTo(ctx, payout.InvestorID, notify.Delivery{
		Key: key,
		Vars: map[string]any{
			"number":  payout.Number(),
			"amount":  payout.PayoutAmount.StringFixed(2),
			"project": project.Name,
			"percent": payout.InvestorPercent.StringFixed(2),
		},
		Meta: notify.Meta{
			ModuleType: model.ModulePayout,
			ModuleID:   payout.ID,
			ActionURL:  fmt.Sprintf("/payouts/%d", payout.ID),
			CreatedBy:  actorID,
		},
		Template:    template,
		Attachments: attachKey(payout.DocumentKey, payout.Number()+".pdf"),
	})
	bestEffort(s.log, err, template, payout.ID)
}

func yearBounds(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}
