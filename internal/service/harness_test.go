package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/weshare-leasing/internal/config"
	"github.com/nurpe/weshare-leasing/internal/excel"
	"github.com/nurpe/weshare-leasing/internal/i18n"
	"github.com/nurpe/weshare-leasing/internal/model"
	"github.com/nurpe/weshare-leasing/internal/notify"
	"github.com/nurpe/weshare-leasing/internal/pdf"
	"github.com/nurpe/weshare-leasing/internal/repository"
	"github.com/nurpe/weshare-leasing/internal/sequence"
	"github.com/nurpe/weshare-leasing/internal/storage"
	"github.com/nurpe/weshare-leasing/internal/testutil"
	"github.com/nurpe/weshare-leasing/internal/testutil/mailtest"
)

type harness struct {
	t         *testing.T
	db        *gorm.DB
	blobs     *testutil.MemoryStore
	docs      *storage.Manager
	sender    *mailtest.RecordingSender
	scheduler *mailtest.InlineScheduler

	contracts     *ContractService
	projects      *ProjectService
	invoices      *InvoiceService
	payments      *PaymentService
	payouts       *PayoutService
	notifications *NotificationService

	admin     model.User
	offtaker  model.User
	investor  model.User
	investor2 model.User
	project   model.Project
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.OpenSQLite(t)
	log := zerolog.Nop()

	tr, err := i18n.New("en")
	require.NoError(t, err)

	blobs := testutil.NewMemoryStore()
	docs := storage.NewManager(blobs, nil, false, time.Hour, log)
	sender := &mailtest.RecordingSender{}
	scheduler := &mailtest.InlineScheduler{}

	users := repository.NewUserRepository(db)
	projects := repository.NewProjectRepository(db)
	contracts := repository.NewContractRepository(db)
	invoices := repository.NewInvoiceRepository(db)
	payments := repository.NewPaymentRepository(db)
	payouts := repository.NewPayoutRepository(db)
	notifications := repository.NewNotificationRepository(db)

	dispatcher := notify.NewDispatcher(notify.Deps{
		Notifications: notifications,
		Users:         users,
		Translator:    tr,
		Renderer:      mailtest.StaticRenderer{},
		Sender:        sender,
		Scheduler:     scheduler,
		Blobs:         docs,
		Log:           log,
	})
	numbers := sequence.NewAllocator(db, 4)
	site := config.SiteConfig{CompanyName: "WeShare", SupportEmail: "help@weshare.test"}

	invoiceService := NewInvoiceService(db, invoices, projects, users, numbers, "INV-", pdf.NewGenerator(), dispatcher, site, log)

	h := &harness{
		t:             t,
		db:            db,
		blobs:         blobs,
		docs:          docs,
		sender:        sender,
		scheduler:     scheduler,
		contracts:     NewContractService(contracts, projects, users, docs, dispatcher, log),
		projects:      NewProjectService(db, projects, contracts, users, dispatcher, tr, log),
		invoices:      invoiceService,
		payments:      NewPaymentService(db, payments, invoices, invoiceService, docs, dispatcher, log),
		payouts:       NewPayoutService(db, payouts, invoices, projects, users, numbers, "PO-", excel.NewGenerator(), docs, dispatcher, log),
		notifications: NewNotificationService(notifications, log),
	}

	h.admin = h.user("Ada Admin", "admin@weshare.test", model.RoleAdmin)
	h.offtaker = h.user("Omar Offtaker", "omar@example.test", model.RoleOfftaker)
	h.investor = h.user("Ines Investor", "ines@example.test", model.RoleInvestor)
	h.investor2 = h.user("Ivan Investor", "ivan@example.test", model.RoleInvestor)

	h.project = model.Project{
		Name:                  "Solar A",
		SizeKW:                decimal.NewFromInt(500),
		LeaseTermMonths:       120,
		InvestorProfitPercent: decimal.RequireFromString("12.5"),
		WeshareProfitPercent:  decimal.RequireFromString("7.5"),
		InvestorID:            &h.investor.ID,
		OfftakerID:            &h.offtaker.ID,
	}
	require.NoError(t, projects.Create(h.ctx(), &h.project))
	return h
}

func (h *harness) user(name, email string, role model.Role) model.User {
	h.t.Helper()
	u := model.User{Name: name, Email: email, Role: role, Language: "en"}
	require.NoError(h.t, h.db.Create(&u).Error)
	return u
}

func (h *harness) as(u model.User) model.Principal {
	return model.Principal{UserID: u.ID, Role: u.Role, Language: u.Language}
}

func (h *harness) notificationsFor(u model.User) []model.Notification {
	h.t.Helper()
	var items []model.Notification
	require.NoError(h.t, h.db.Where("user_id = ?", u.ID).Order("id").Find(&items).Error)
	return items
}

func (h *harness) count(table any) int64 {
	h.t.Helper()
	var n int64
	require.NoError(h.t, h.db.Model(table).Count(&n).Error)
	return n
}

func (h *harness) ctx() context.Context {
	return context.Background()
}

func (h *harness) paidInvoice(total string) *model.Invoice {
	h.t.Helper()
	status := model.InvoiceStatusPaid
	amount := decimal.RequireFromString(total)
	inv, err := h.invoices.Create(h.ctx(), h.as(h.admin), InvoiceInput{
		ProjectID:  h.project.ID,
		OfftakerID: h.offtaker.ID,
		Status:     &status,
		Amount:     &amount,
	})
	require.NoError(h.t, err)
	return inv
}

func pdfUpload(name string) *storage.Upload {
	return &storage.Upload{Name: name, ContentType: "application/pdf", Data: []byte("%PDF-1.4 " + name)}
}

func pngUpload(name string) *storage.Upload {
	return &storage.Upload{Name: name, ContentType: "image/png", Data: []byte("png " + name)}
}
