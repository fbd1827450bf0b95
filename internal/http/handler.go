package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nurpe/weshare-leasing/internal/service"
)

// DocumentLinks turns stored blob keys into links a client can open.
type DocumentLinks interface {
	SignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	OrphanCount() int64
}

type MailStats interface {
	Dropped() int64
	Failed() int64
}

type Services struct {
	Contracts     *service.ContractService
	Projects      *service.ProjectService
	Invoices      *service.InvoiceService
	Payments      *service.PaymentService
	Payouts       *service.PayoutService
	Notifications *service.NotificationService
}

type Handler struct {
	svc   Services
	links DocumentLinks
	mail  MailStats
	log   zerolog.Logger
}

func NewHandler(svc Services, links DocumentLinks, mail MailStats, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, links: links, mail: mail, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/health", h.health)

	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/contracts", h.createContract)
	protected.GET("/contracts/:id", h.getContract)
	protected.PUT("/contracts/:id", h.updateContract)
	protected.PATCH("/contracts/:id/status", h.setContractStatus)

	protected.GET("/projects/:id", h.getProject)
	protected.GET("/projects/:id/contracts", h.listProjectContracts)
	protected.PUT("/projects/:id/investor", h.assignInvestor)
	protected.PUT("/projects/:id/offtaker", h.assignOfftaker)

	protected.POST("/invoices", h.createInvoice)
	protected.GET("/invoices", h.listInvoices)
	protected.GET("/invoices/next-number", h.nextInvoiceNumber)
	protected.GET("/invoices/:id", h.getInvoice)
	protected.GET("/invoices/:id/pdf", h.invoicePDF)
	protected.PUT("/invoices/:id", h.updateInvoice)
	protected.DELETE("/invoices/:id", h.deleteInvoice)
	protected.GET("/invoices/:id/payments", h.listInvoicePayments)

	protected.POST("/payments", h.createPayment)
	protected.GET("/payments/:id", h.getPayment)
	protected.POST("/payments/:id/mark-paid", h.markPaymentPaid)

	protected.POST("/payouts", h.createPayout)
	protected.GET("/payouts", h.listPayouts)
	protected.GET("/payouts/export", h.exportPayouts)
	protected.GET("/payouts/:id", h.getPayout)
	protected.PUT("/payouts/:id", h.updatePayout)
	protected.DELETE("/payouts/:id", h.deletePayout)

	protected.GET("/notifications", h.listNotifications)
	protected.GET("/notifications/unread-count", h.unreadNotifications)
	protected.POST("/notifications/read-all", h.readAllNotifications)
	protected.POST("/notifications/:id/read", h.readNotification)
	protected.DELETE("/notifications/:id", h.deleteNotification)
}

func (h *Handler) health(c *gin.Context) {
	body := gin.H{
		"status":         "ok",
		"orphaned_blobs": h.links.OrphanCount(),
	}
	if h.mail != nil {
		body["mail_dropped"] = h.mail.Dropped()
		body["mail_failed"] = h.mail.Failed()
	}
	respond(c, http.StatusOK, body)
}

// link signs a stored key; a key that cannot be signed yields no link
// rather than failing the read.
func (h *Handler) link(ctx context.Context, key string) string {
	if key == "" {
		return ""
	}
	url, err := h.links.SignURL(ctx, key, 0)
	if err != nil {
		h.log.Warn().Err(err).Str("key", key).Msg("sign document url failed")
		return ""
	}
	return url
}
