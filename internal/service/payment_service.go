package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/weshare-leasing/internal/model"
	"github.com/nurpe/weshare-leasing/internal/notify"
	"github.com/nurpe/weshare-leasing/internal/repository"
	"github.com/nurpe/weshare-leasing/internal/storage"
)

type PaymentService struct {
	db       *gorm.DB
	payments *repository.PaymentRepository
	invoices *repository.InvoiceRepository
	invoice  *InvoiceService
	docs     Documents
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewPaymentService(
	db *gorm.DB,
	payments *repository.PaymentRepository,
	invoices *repository.InvoiceRepository,
	invoiceService *InvoiceService,
	docs Documents,
	notifier Notifier,
	log zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		db:       db,
		payments: payments,
		invoices: invoices,
		invoice:  invoiceService,
		docs:     docs,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

type CreatePaymentInput struct {
	Principal model.Principal
	InvoiceID int64
	// Amount defaults to the invoice total.
	Amount        *decimal.Decimal
	Screenshot    *storage.Upload
	ScreenshotKey string
}

// Create records a payment against an invoice. A privileged creator records
// it as already paid and promotes the invoice; anyone else leaves it pending
// for an admin to confirm.
func (s *PaymentService) Create(ctx context.Context, input CreatePaymentInput) (*model.Payment, error) {
	if input.InvoiceID <= 0 {
		return nil, invalid("invoice_id is required")
	}
	invoice, err := s.invoices.Get(ctx, input.InvoiceID)
	if err != nil {
		return nil, notFound(err, "invoice")
	}
	privileged := input.Principal.IsPrivileged()
	if !privileged && !(input.Principal.IsOfftaker() && invoice.OfftakerID == input.Principal.UserID) {
		return nil, ErrPermissionDenied
	}

	amount := invoice.TotalAmount
	if input.Amount != nil {
		amount = *input.Amount
	}
	if !amount.IsPositive() {
		return nil, invalid("amount must be positive")
	}

	uploaded, err := storeDocument(ctx, s.docs, input.Screenshot, storage.FolderPayments, "", entityMeta("invoice", invoice.ID))
	if err != nil {
		return nil, err
	}

	payment := &model.Payment{
		InvoiceID:     invoice.ID,
		OfftakerID:    invoice.OfftakerID,
		Amount:        amount.Round(2),
		Status:        model.PaymentStatusPending,
		ScreenshotKey: strings.TrimSpace(input.ScreenshotKey),
		CreatedBy:     input.Principal.UserID,
	}
	if uploaded != "" {
		payment.ScreenshotKey = uploaded
	}
	if privileged {
		paidAt := s.now()
		payment.Status = model.PaymentStatusPaid
		payment.PaidAt = &paidAt
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.payments.WithTx(tx).Create(ctx, payment); err != nil {
			return err
		}
		if privileged {
			return s.invoices.WithTx(tx).SetStatus(ctx, invoice.ID, model.InvoiceStatusPaid)
		}
		return nil
	})
	if err != nil {
		s.docs.DeleteQuietly(ctx, uploaded, "payment insert failed")
		return nil, err
	}

	if privileged {
		invoice.Status = model.InvoiceStatusPaid
		s.announceToAdmins(ctx, "payment.recorded.admin", "payment_recorded_admin", payment, invoice, input.Principal.UserID, false)
	} else {
		s.announceToAdmins(ctx, "payment.created.admin", "payment_submitted_admin", payment, invoice, input.Principal.UserID, true)
	}
	return payment, nil
}

// MarkPaid confirms a payment and its invoice. Repeating it changes nothing
// and sends nothing.
func (s *PaymentService) MarkPaid(ctx context.Context, principal model.Principal, id int64) (*model.Payment, error) {
	if !principal.IsPrivileged() {
		return nil, ErrPermissionDenied
	}

	var changed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payments := s.payments.WithTx(tx)
		payment, err := payments.Get(ctx, id)
		if err != nil {
			return notFound(err, "payment")
		}
		invoices := s.invoices.WithTx(tx)
		if _, err := invoices.Get(ctx, payment.InvoiceID); err != nil {
			return notFound(err, "invoice")
		}
		changed, err = payments.MarkPaid(ctx, id, s.now())
		if err != nil {
			return err
		}
		return invoices.SetStatus(ctx, payment.InvoiceID, model.InvoiceStatusPaid)
	})
	if err != nil {
		return nil, err
	}

	payment, err := s.payments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if changed {
		s.announcePaid(ctx, payment, principal.UserID)
	}
	return payment, nil
}

func (s *PaymentService) Get(ctx context.Context, principal model.Principal, id int64) (*model.Payment, error) {
	payment, err := s.payments.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "payment")
	}
	if !principal.IsPrivileged() && !(principal.IsOfftaker() && payment.OfftakerID == principal.UserID) {
		return nil, ErrPermissionDenied
	}
	return payment, nil
}

func (s *PaymentService) ListByInvoice(ctx context.Context, principal model.Principal, invoiceID int64) ([]model.Payment, error) {
	invoice, err := s.invoices.Get(ctx, invoiceID)
	if err != nil {
		return nil, notFound(err, "invoice")
	}
	if !canSeeInvoice(principal, invoice) {
		return nil, ErrPermissionDenied
	}
	return s.payments.ListByInvoice(ctx, invoiceID)
}

func (s *PaymentService) announceToAdmins(ctx context.Context, key, template string, payment *model.Payment, invoice *model.Invoice, actorID int64, withProof bool) {
	del := notify.Delivery{
		Key:      key,
		Vars:     paymentVars(payment, invoice),
		Meta:     paymentMeta(payment, actorID),
		Template: template,
	}
	if withProof {
		del.Attachments = append(attachKey(payment.ScreenshotKey, ""), s.invoiceAttachment(ctx, invoice)...)
	}
	bestEffort(s.log, s.notifier.DeliverToAdmins(ctx, del), template, payment.ID)
}

func (s *PaymentService) announcePaid(ctx context.Context, payment *model.Payment, actorID int64) {
	invoice, err := s.invoices.Get(ctx, payment.InvoiceID)
	if err != nil {
		bestEffort(s.log, err, "payment_paid_offtaker", payment.ID)
		return
	}
	err = s.notifier.DeliverTo(ctx, payment.OfftakerID, notify.Delivery{
		Key:         "payment.paid.offtaker",
		Vars:        paymentVars(payment, invoice),
		Meta:        paymentMeta(payment, actorID),
		Template:    "payment_paid_offtaker",
		Attachments: s.invoiceAttachment(ctx, invoice),
	})
	bestEffort(s.log, err, "payment_paid_offtaker", payment.ID)
}

func (s *PaymentService) invoiceAttachment(ctx context.Context, invoice *model.Invoice) []notify.Attachment {
	content, err := s.invoice.renderPDF(ctx, invoice)
	if err != nil {
		s.log.Warn().Err(err).Int64("invoice_id", invoice.ID).Msg("invoice pdf unavailable for email")
		return nil
	}
	return []notify.Attachment{{Filename: invoice.Number() + ".pdf", Content: content}}
}

func paymentVars(payment *model.Payment, invoice *model.Invoice) map[string]any {
	return map[string]any{
		"number": invoice.Number(),
		"amount": payment.Amount.StringFixed(2),
		"total":  invoice.TotalAmount.StringFixed(2),
	}
}

func paymentMeta(payment *model.Payment, actorID int64) notify.Meta {
	return notify.Meta{
		ModuleType: model.ModulePayment,
		ModuleID:   payment.ID,
		ActionURL:  fmt.Sprintf("/invoices/%d", payment.InvoiceID),
		CreatedBy:  actorID,
	}
}
