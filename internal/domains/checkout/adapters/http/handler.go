package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	checkouthttpmapper "github.com/Apurer/headshot-checkout/internal/domains/checkout/adapters/http/mapper"
	checkouttypes "github.com/Apurer/headshot-checkout/internal/domains/checkout/application/types"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
	apierrors "github.com/Apurer/headshot-checkout/internal/shared/errors"
)

// BasePath prefixes every checkout route.
const BasePath = "/v1/checkout"

// Handler wires HTTP transport with the checkout service.
type Handler struct {
	service   ports.Service
	responder *apierrors.Responder
}

// NewHandler creates a Handler backed by the provided service.
func NewHandler(service ports.Service) *Handler {
	return &Handler{
		service:   service,
		responder: apierrors.NewResponder("", checkoutProblem),
	}
}

// Register mounts the session routes on r.
func (h *Handler) Register(r gin.IRouter) {
	sessions := r.Group(BasePath + "/sessions")
	sessions.POST("", h.StartSession)
	sessions.GET("/:sessionId", h.GetSession)
	sessions.DELETE("/:sessionId", h.CloseSession)
	sessions.PUT("/:sessionId/quantity", h.SelectQuantity)
	sessions.PUT("/:sessionId/order", h.SetOrderDetails)
	sessions.PATCH("/:sessionId/fields", h.SetField)
	sessions.POST("/:sessionId/advance", h.Advance)
	sessions.POST("/:sessionId/retreat", h.Retreat)
	sessions.PUT("/:sessionId/step", h.JumpTo)
	sessions.POST("/:sessionId/reset", h.Reset)
	sessions.POST("/:sessionId/payment", h.Pay)
	sessions.POST("/:sessionId/payment/checkout", h.CheckoutStarted)
	sessions.POST("/:sessionId/payment/confirmation", h.PaymentSucceeded)
	sessions.POST("/:sessionId/payment/failure", h.PaymentFailed)
}

// NewRouter builds the gin engine with the checkout routes and a health probe.
func NewRouter(handler *Handler, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	handler.Register(router)
	return router
}

// Post /v1/checkout/sessions
// Start a checkout session for a production
func (h *Handler) StartSession(c *gin.Context) {
	var payload checkouthttpmapper.StartSessionRequest
	if !h.bind(c, &payload) {
		return
	}
	view, err := h.service.StartSession(c.Request.Context(), checkouthttpmapper.ToStartInput(payload))
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkouthttpmapper.FromSessionView(view))
}

// Get /v1/checkout/sessions/:sessionId
// Render the current step
func (h *Handler) GetSession(c *gin.Context) {
	h.respond(c, func(id string) (*checkouttypes.SessionView, error) {
		return h.service.GetSession(c.Request.Context(), id)
	})
}

// Delete /v1/checkout/sessions/:sessionId
// Close the session and discard unpaid drafts
func (h *Handler) CloseSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.service.CloseSession(c.Request.Context(), id); err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Put /v1/checkout/sessions/:sessionId/quantity
func (h *Handler) SelectQuantity(c *gin.Context) {
	var payload checkouthttpmapper.SelectQuantityRequest
	if !h.bind(c, &payload) {
		return
	}
	h.respond(c, func(id string) (*checkouttypes.SessionView, error) {
		return h.service.SelectQuantity(c.Request.Context(), id, payload.QuantityID)
	})
}

// Put /v1/checkout/sessions/:sessionId/order
func (h *Handler) SetOrderDetails(c *gin.Context) {
	var payload checkouthttpmapper.OrderDetailsRequest
	if !h.bind(c, &payload) {
		return
	}
	h.respond(c, func(id string) (*checkouttypes.SessionView, error) {
		return h.service.SetOrderDetails(c.Request.Context(), id, domain.OrderDetails(payload.OrderDetails))
	})
}

// Patch /v1/checkout/sessions/:sessionId/fields
func (h *Handler) SetField(c *gin.Context) {
	var payload checkouthttpmapper.SetFieldRequest
	if !h.bind(c, &payload) {
		return
	}
	h.respond(c, func(id string) (*checkouttypes.SessionView, error) {
		return h.service.SetField(c.Request.Context(), id, checkouttypes.SetFieldInput{Name: payload.Name, Value: payload.Value})
	})
}

// Post /v1/checkout/sessions/:sessionId/advance
func (h *Handler) Advance(c *gin.Context) {
	h.respond(c, func(id string) (*checkouttypes.SessionView, error) {
		return h.service.Advance(c.Request.Context(), id)
	})
}

// Post /v1/checkout/sessions/:sessionId/retreat
func (h *Handler) Retreat(c *gin.Context) {
	h.respond(c, func(id string) (*checkouttypes.SessionView, error) {
		return h.service.Retreat(c.Request.Context(), id)
	})
}

// Put /v1/checkout/sessions/:sessionId/step
// Return to a step already visited from the stepper
func (h *Handler) JumpTo(c *gin.Context) {
	var payload checkouthttpmapper.JumpToRequest
	if !h.bind(c, &payload) {
		return
	}
	h.respond(c, func(id string) (*checkouttypes.SessionView, error) {
		return h.service.JumpTo(c.Request.Context(), id, domain.Step(*payload.Step))
	})
}

// Post /v1/checkout/sessions/:sessionId/reset
func (h *Handler) Reset(c *gin.Context) {
	h.respond(c, func(id string) (*checkouttypes.SessionView, error) {
		return h.service.Reset(c.Request.Context(), id)
	})
}

// Post /v1/checkout/sessions/:sessionId/payment
// Tokenize the card source and charge the draft
func (h *Handler) Pay(c *gin.Context) {
	var payload checkouthttpmapper.PayRequest
	if !h.bind(c, &payload) {
		return
	}
	h.respond(c, func(id string) (*checkouttypes.SessionView, error) {
		return h.service.Pay(c.Request.Context(), id, checkouttypes.PayInput{Source: payload.Source})
	})
}

// Post /v1/checkout/sessions/:sessionId/payment/checkout
func (h *Handler) CheckoutStarted(c *gin.Context) {
	var payload checkouthttpmapper.CheckoutStartedRequest
	if !h.bind(c, &payload) {
		return
	}
	h.respond(c, func(id string) (*checkouttypes.SessionView, error) {
		return h.service.CheckoutStarted(c.Request.Context(), id, domain.PaymentToken{ID: payload.Token})
	})
}

// Post /v1/checkout/sessions/:sessionId/payment/confirmation
func (h *Handler) PaymentSucceeded(c *gin.Context) {
	var payload checkouthttpmapper.PaymentConfirmationRequest
	if !h.bind(c, &payload) {
		return
	}
	h.respond(c, func(id string) (*checkouttypes.SessionView, error) {
		return h.service.PaymentSucceeded(c.Request.Context(), id, checkouthttpmapper.ToPaymentConfirmation(payload))
	})
}

// Post /v1/checkout/sessions/:sessionId/payment/failure
func (h *Handler) PaymentFailed(c *gin.Context) {
	var payload checkouthttpmapper.PaymentFailureRequest
	if !h.bind(c, &payload) {
		return
	}
	h.respond(c, func(id string) (*checkouttypes.SessionView, error) {
		return h.service.PaymentFailed(c.Request.Context(), id, checkouttypes.PaymentFailedInput{Reason: payload.Reason})
	})
}

func (h *Handler) respond(c *gin.Context, call func(id string) (*checkouttypes.SessionView, error)) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := call(id)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkouthttpmapper.FromSessionView(view))
}

func (h *Handler) bind(c *gin.Context, payload any) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		h.responder.BadRequest(c, err.Error())
		return false
	}
	return true
}

func (h *Handler) sessionID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("sessionId"))
	if id == "" {
		h.responder.BadRequest(c, "sessionId is required")
		return "", false
	}
	return id, true
}
