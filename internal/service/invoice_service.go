package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/weshare-leasing/internal/config"
	"github.com/nurpe/weshare-leasing/internal/model"
	"github.com/nurpe/weshare-leasing/internal/notify"
	"github.com/nurpe/weshare-leasing/internal/repository"
	"github.com/nurpe/weshare-leasing/internal/sequence"
)

type PDFGenerator interface {
	Generate(doc model.InvoiceDocument) ([]byte, error)
}

type InvoiceService struct {
	db       *gorm.DB
	invoices *repository.InvoiceRepository
	projects *repository.ProjectRepository
	users    *repository.UserRepository
	numbers  *sequence.Allocator
	scheme   sequence.Scheme
	pdf      PDFGenerator
	notifier Notifier
	site     config.SiteConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewInvoiceService(
	db *gorm.DB,
	invoices *repository.InvoiceRepository,
	projects *repository.ProjectRepository,
	users *repository.UserRepository,
	numbers *sequence.Allocator,
	invoicePrefix string,
	pdf PDFGenerator,
	notifier Notifier,
	site config.SiteConfig,
	log zerolog.Logger,
) *InvoiceService {
	return &InvoiceService{
		db:       db,
		invoices: invoices,
		projects: projects,
		users:    users,
		numbers:  numbers,
		scheme:   sequence.Scheme{Name: "invoice", Prefix: invoicePrefix},
		pdf:      pdf,
		notifier: notifier,
		site:     site,
		log:      log,
		now:      time.Now,
	}
}

type InvoiceItemInput struct {
	Item  string
	Unit  int
	Price decimal.Decimal
}

// InvoiceInput carries the header and items. Amount, TaxAmount and
// TotalAmount override the item-derived totals when set.
type InvoiceInput struct {
	ProjectID   int64
	OfftakerID  int64
	Status      *model.InvoiceStatus
	Amount      *decimal.Decimal
	TaxAmount   *decimal.Decimal
	TotalAmount *decimal.Decimal
	InvoiceDate *time.Time
	DueDate     *time.Time
	Notes       string
	Items       []InvoiceItemInput
}

type InvoiceFilter struct {
	ProjectID  *int64
	OfftakerID *int64
	Status     *model.InvoiceStatus
	Limit      int
	Offset     int
}

type InvoiceList struct {
	Items []model.Invoice `json:"items"`
	Total int64           `json:"total"`
}

func (s *InvoiceService) Create(ctx context.Context, principal model.Principal, input InvoiceInput) (*model.Invoice, error) {
	if !principal.IsPrivileged() {
		return nil, ErrPermissionDenied
	}
	invoice, project, err := s.build(ctx, input)
	if err != nil {
		return nil, err
	}
	invoice.CreatedBy = principal.UserID

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prefix, number, err := s.numbers.Allocate(ctx, tx, s.scheme, now)
		if err != nil {
			return err
		}
		invoice.InvoicePrefix = prefix
		invoice.InvoiceNumber = number
		return s.invoices.WithTx(tx).Create(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.announceCreated(ctx, invoice, project, principal.UserID)
	return invoice, nil
}

// Update rewrites the header and replaces every line item in one transaction.
func (s *InvoiceService) Update(ctx context.Context, principal model.Principal, id int64, input InvoiceInput) (*model.Invoice, error) {
	if !principal.IsPrivileged() {
		return nil, ErrPermissionDenied
	}
	existing, err := s.invoices.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "invoice")
	}
	invoice, _, err := s.build(ctx, input)
	if err != nil {
		return nil, err
	}
	invoice.ID = existing.ID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.invoices.WithTx(tx)
		if err := repo.UpdateHeader(ctx, invoice); err != nil {
			return err
		}
		return repo.ReplaceItems(ctx, invoice.ID, invoice.Items)
	})
	if err != nil {
		return nil, err
	}
	return s.invoices.Get(ctx, id)
}

func (s *InvoiceService) Get(ctx context.Context, principal model.Principal, id int64) (*model.Invoice, error) {
	invoice, err := s.invoices.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "invoice")
	}
	if !canSeeInvoice(principal, invoice) {
		return nil, ErrPermissionDenied
	}
	return invoice, nil
}

func (s *InvoiceService) List(ctx context.Context, principal model.Principal, filter InvoiceFilter) (*InvoiceList, error) {
	switch {
	case principal.IsPrivileged():
	case principal.IsOfftaker():
		own := principal.UserID
		filter.OfftakerID = &own
	default:
		return nil, ErrPermissionDenied
	}
	items, total, err := s.invoices.List(ctx, repository.InvoiceFilter{
		ProjectID:  filter.ProjectID,
		OfftakerID: filter.OfftakerID,
		Status:     filter.Status,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &InvoiceList{Items: items, Total: total}, nil
}

func (s *InvoiceService) Delete(ctx context.Context, principal model.Principal, id int64) error {
	if !principal.IsPrivileged() {
		return ErrPermissionDenied
	}
	return notFound(s.invoices.SoftDelete(ctx, id), "invoice")
}

// RenderPDF returns the printable invoice and a file name for it.
func (s *InvoiceService) RenderPDF(ctx context.Context, principal model.Principal, id int64) ([]byte, string, error) {
	invoice, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, "", err
	}
	content, err := s.renderPDF(ctx, invoice)
	if err != nil {
		return nil, "", err
	}
	return content, invoice.Number() + ".pdf", nil
}

// NextNumber previews the number the next invoice would get.
func (s *InvoiceService) NextNumber(ctx context.Context) (string, error) {
	now := s.now()
	number, err := s.numbers.Peek(ctx, s.scheme.Scope(now))
	if err != nil {
		return "", err
	}
	return s.scheme.DisplayPrefix(now) + number, nil
}

func (s *InvoiceService) renderPDF(ctx context.Context, invoice *model.Invoice) ([]byte, error) {
	doc := model.InvoiceDocument{
		Invoice:      *invoice,
		CompanyName:  s.site.CompanyName,
		SupportEmail: s.site.SupportEmail,
	}
	if project, err := s.projects.Get(ctx, invoice.ProjectID); err == nil {
		doc.ProjectName = project.Name
	}
	if offtaker, err := s.users.Get(ctx, invoice.OfftakerID); err == nil {
		doc.OfftakerName = offtaker.Name
		doc.OfftakerMail = offtaker.Email
	}
	return s.pdf.Generate(doc)
}

// build validates the input and derives the totals. Item totals are always
// unit * price; sub defaults to their sum and total to sub + tax.
func (s *InvoiceService) build(ctx context.Context, input InvoiceInput) (*model.Invoice, *model.Project, error) {
	if input.ProjectID <= 0 {
		return nil, nil, invalid("project_id is required")
	}
	if input.OfftakerID <= 0 {
		return nil, nil, invalid("offtaker_id is required")
	}
	if input.Status == nil {
		return nil, nil, invalid("status is required")
	}
	if *input.Status != model.InvoiceStatusDraft && *input.Status != model.InvoiceStatusPaid {
		return nil, nil, invalid("status must be 0 (draft) or 1 (paid)")
	}
	if input.DueDate != nil && input.InvoiceDate != nil && input.DueDate.Before(*input.InvoiceDate) {
		return nil, nil, invalid("due_date must not be before invoice_date")
	}

	project, err := s.projects.Get(ctx, input.ProjectID)
	if err != nil {
		return nil, nil, notFound(err, "project")
	}
	if err := expectRole(ctx, s.users, input.OfftakerID, model.RoleOfftaker); err != nil {
		return nil, nil, err
	}

	items := make([]model.InvoiceItem, 0, len(input.Items))
	sum := decimal.Zero
	for i, in := range input.Items {
		name := strings.TrimSpace(in.Item)
		if name == "" {
			return nil, nil, invalid("items[%d].item is required", i)
		}
		if in.Unit <= 0 {
			return nil, nil, invalid("items[%d].unit must be positive", i)
		}
		if in.Price.IsNegative() {
			return nil, nil, invalid("items[%d].price must not be negative", i)
		}
		total := in.Price.Mul(decimal.NewFromInt(int64(in.Unit))).Round(2)
		sum = sum.Add(total)
		items = append(items, model.InvoiceItem{Item: name, Unit: in.Unit, Price: in.Price, Total: total})
	}

	sub := sum
	if input.Amount != nil {
		sub = *input.Amount
	}
	tax := decimal.Zero
	if input.TaxAmount != nil {
		tax = *input.TaxAmount
	}
	total := sub.Add(tax)
	if input.TotalAmount != nil {
		total = *input.TotalAmount
	}
	for name, v := range map[string]decimal.Decimal{"amount": sub, "tax_amount": tax, "total_amount": total} {
		if v.IsNegative() {
			return nil, nil, invalid("%s must not be negative", name)
		}
	}

	return &model.Invoice{
		ProjectID:   project.ID,
		OfftakerID:  input.OfftakerID,
		SubAmount:   sub.Round(2),
		TaxAmount:   tax.Round(2),
		TotalAmount: total.Round(2),
		Status:      *input.Status,
		InvoiceDate: input.InvoiceDate,
		DueDate:     input.DueDate,
		Notes:       strings.TrimSpace(input.Notes),
		Items:       items,
	}, project, nil
}

func (s *InvoiceService) announceCreated(ctx context.Context, invoice *model.Invoice, project *model.Project, actorID int64) {
	var attachments []notify.Attachment
	if content, err := s.renderPDF(ctx, invoice); err == nil {
		attachments = []notify.Attachment{{Filename: invoice.Number() + ".pdf", Content: content}}
	} else {
		s.log.Warn().Err(err).Int64("invoice_id", invoice.ID).Msg("invoice pdf unavailable for email")
	}

	err := s.notifier.DeliverTo(ctx, invoice.OfftakerID, notify.Delivery{
		Key: "invoice.created.offtaker",
		Vars: map[string]any{
			"number":     invoice.Number(),
			"project":    project.Name,
			"amount":     invoice.TotalAmount.StringFixed(2),
			"sub_amount": invoice.SubAmount.StringFixed(2),
			"tax_amount": invoice.TaxAmount.StringFixed(2),
			"due_date":   formatDay(invoice.DueDate),
		},
		Meta: notify.Meta{
			ModuleType: model.ModuleInvoice,
			ModuleID:   invoice.ID,
			ActionURL:  fmt.Sprintf("/invoices/%d", invoice.ID),
			CreatedBy:  actorID,
		},
		Template:    "invoice_created",
		Attachments: attachments,
	})
	bestEffort(s.log, err, "invoice_created", invoice.ID)
}

func canSeeInvoice(principal model.Principal, invoice *model.Invoice) bool {
	return principal.IsPrivileged() || (principal.IsOfftaker() && invoice.OfftakerID == principal.UserID)
}

func formatDay(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
