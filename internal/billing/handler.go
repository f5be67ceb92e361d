package billing

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/eventmate/backend/config"
	"github.com/eventmate/backend/internal/middleware"
	"github.com/eventmate/backend/internal/models"
	"github.com/eventmate/backend/pkg/response"
)

// CheckoutRequest is the body for POST /billing/checkout.
type CheckoutRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// Handler handles subscription checkout and Stripe webhooks.
type Handler struct {
	repo   *Repository
	cfg    config.StripeConfig
	logger *zap.Logger
}

// NewHandler creates a billing handler and sets the global Stripe key.
func NewHandler(repo *Repository, cfg config.StripeConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	stripe.Key = cfg.SecretKey
	return &Handler{repo: repo, cfg: cfg, logger: logger}
}

func currentUser(c *gin.Context) uuid.UUID {
	return c.MustGet(middleware.ContextUserID).(uuid.UUID)
}

func (h *Handler) priceForPlan(plan string) string {
	switch plan {
	case models.PlanMonthly:
		return h.cfg.PriceMonthly
	case models.PlanYearly:
		return h.cfg.PriceYearly
	}
	return ""
}

// Checkout handles POST /billing/checkout: creates a Stripe Checkout session
// and records an incomplete subscription pointing at it.
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "plan required")
		return
	}
	price := h.priceForPlan(req.Plan)
	if price == "" {
		response.BadRequest(c, "unknown plan")
		return
	}
	userID := currentUser(c)

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(price), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(h.cfg.SuccessURL),
		CancelURL:         stripe.String(h.cfg.CancelURL),
		ClientReferenceID: stripe.String(userID.String()),
	}
	sess, err := session.New(params)
	if err != nil {
		h.logger.Error("stripe checkout session failed", zap.Error(err))
		response.Internal(c, "failed to start checkout")
		return
	}

	sub := &models.Subscription{
		UserID:          userID,
		StripeSessionID: sess.ID,
		Plan:            req.Plan,
	}
	if err := h.repo.Create(c.Request.Context(), sub); err != nil {
		h.logger.Error("record subscription failed", zap.Error(err), zap.String("session_id", sess.ID))
		response.Internal(c, "failed to start checkout")
		return
	}
	response.OK(c, gin.H{"checkout_url": sess.URL, "session_id": sess.ID})
}

// GetSubscription handles GET /billing/subscription.
func (h *Handler) GetSubscription(c *gin.Context) {
	sub, err := h.repo.GetLatestByUser(c.Request.Context(), currentUser(c))
	if err != nil {
		response.Internal(c, "failed to load subscription")
		return
	}
	if sub == nil {
		response.OK(c, gin.H{"subscribed": false})
		return
	}
	response.OK(c, gin.H{"subscribed": sub.IsActive(), "subscription": sub})
}

// Webhook handles POST /webhooks/stripe. Signature verification rejects
// anything Stripe did not sign.
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 65536))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.cfg.WebhookSecret)
	if err != nil {
		h.logger.Warn("stripe webhook signature rejected", zap.Error(err))
		c.Status(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		stripeSubID := ""
		if sess.Subscription != nil {
			stripeSubID = sess.Subscription.ID
		}
		if err := h.repo.ActivateBySession(c.Request.Context(), sess.ID, stripeSubID); err != nil {
			h.logger.Error("activate subscription failed", zap.Error(err), zap.String("session_id", sess.ID))
			c.Status(http.StatusInternalServerError)
			return
		}
		h.logger.Info("subscription activated", zap.String("session_id", sess.ID))
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		if err := h.repo.CancelByStripeID(c.Request.Context(), sub.ID); err != nil {
			h.logger.Error("cancel subscription failed", zap.Error(err), zap.String("stripe_subscription_id", sub.ID))
			c.Status(http.StatusInternalServerError)
			return
		}
		h.logger.Info("subscription canceled", zap.String("stripe_subscription_id", sub.ID))
	default:
		// other event types are acknowledged and ignored
	}
	c.Status(http.StatusOK)
}
