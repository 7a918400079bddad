package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/service"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/workflow"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/pkg/response"
)

// ValidationHandler exposes the public, unauthenticated endpoints behind the
// validation links sent to clients.
type ValidationHandler struct {
	validationService service.ValidationService
}

func NewValidationHandler(validationService service.ValidationService) *ValidationHandler {
	return &ValidationHandler{validationService: validationService}
}

func (h *ValidationHandler) RegisterRoutes(router *gin.RouterGroup) {
	validation := router.Group("/api/validation")
	{
		validation.GET("/:id", h.Resolve)
		validation.POST("/:id/navigate/:step", h.Navigate)
		validation.POST("/:id/signature", h.Sign)
		validation.POST("/:id/checkout", h.CreateCheckout)
		validation.POST("/:id/bank-transfer", h.AcknowledgeBankTransfer)
	}
}

func parseValidationQuery(c *gin.Context) service.ValidationQuery {
	return service.ValidationQuery{
		Type:        c.Query("type"),
		WithPayment: c.Query("withPayment") == "true",
		Payment:     c.Query("payment"),
		SessionID:   c.Query("session_id"),
	}
}

// Resolve returns the document and the step to display, reconciling a
// returning checkout redirect when the URL carries one
// @Summary      Resolve validation step
// @Description  Loads a shared document and computes the current workflow step from its state and the URL parameters
// @Tags         validation
// @Produce      json
// @Param        id           path      string  true   "Document ID"
// @Param        type         query     string  false  "Document type (quote or billing, default quote)"
// @Param        withPayment  query     bool    false  "Enable the payment step for quotes"
// @Param        payment      query     string  false  "Redirect return marker (success or cancelled)"
// @Param        session_id   query     string  false  "Checkout session id echoed by the processor"
// @Success      200  {object}  response.Response{data=service.ValidationView}
// @Failure      404  {object}  response.Response
// @Failure      410  {object}  response.Response
// @Router       /api/validation/{id} [get]
func (h *ValidationHandler) Resolve(c *gin.Context) {
	view, err := h.validationService.Resolve(c.Request.Context(), c.Param("id"), parseValidationQuery(c))
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, view))
}

// Navigate jumps back to an already-completed step
// @Summary      Navigate backward
// @Description  Moves the stepper back to a completed step; rejected from the confirmation step
// @Tags         validation
// @Produce      json
// @Param        id    path      string  true  "Document ID"
// @Param        step  path      string  true  "Target step key"
// @Success      200   {object}  response.Response{data=service.ValidationView}
// @Failure      400   {object}  response.Response
// @Router       /api/validation/{id}/navigate/{step} [post]
func (h *ValidationHandler) Navigate(c *gin.Context) {
	view, err := h.validationService.Navigate(c.Request.Context(), c.Param("id"), parseValidationQuery(c), c.Param("step"))
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, view))
}

// Sign records the client signature on a quote
// @Summary      Sign a quote
// @Description  Validates the signer identity, transitions the quote to accepted and advances the stepper
// @Tags         validation
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Document ID"
// @Param        payload  body      service.SignatureRequest  true  "Signer identity"
// @Success      200      {object}  response.Response{data=service.ValidationView}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/validation/{id}/signature [post]
func (h *ValidationHandler) Sign(c *gin.Context) {
	var req service.SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	view, err := h.validationService.Sign(c.Request.Context(), c.Param("id"), parseValidationQuery(c), req)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, view))
}

// CreateCheckout creates a hosted checkout session
// @Summary      Create checkout session
// @Description  Creates a hosted payment session and returns the redirect URL
// @Tags         validation
// @Produce      json
// @Param        id  path      string  true  "Document ID"
// @Success      200  {object}  response.Response{data=service.CheckoutResponse}
// @Failure      400  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Router       /api/validation/{id}/checkout [post]
func (h *ValidationHandler) CreateCheckout(c *gin.Context) {
	resp, err := h.validationService.CreateCheckout(c.Request.Context(), c.Param("id"), parseValidationQuery(c))
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, resp))
}

// AcknowledgeBankTransfer records the client's choice to pay by bank transfer
// @Summary      Acknowledge bank transfer
// @Description  Notifies the parties and advances to confirmation without marking the document paid
// @Tags         validation
// @Produce      json
// @Param        id  path      string  true  "Document ID"
// @Success      200  {object}  response.Response{data=service.ValidationView}
// @Failure      400  {object}  response.Response
// @Router       /api/validation/{id}/bank-transfer [post]
func (h *ValidationHandler) AcknowledgeBankTransfer(c *gin.Context) {
	view, err := h.validationService.AcknowledgeBankTransfer(c.Request.Context(), c.Param("id"), parseValidationQuery(c))
	if err != nil {
		writeWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, view))
}

// writeWorkflowError maps the workflow error taxonomy to HTTP statuses. A
// reconciliation gap gets a distinct payload so the client never shows a
// paying customer a generic failure.
func writeWorkflowError(c *gin.Context, err error) {
	var (
		validationErr     *workflow.ValidationError
		serviceErr        *workflow.ServiceError
		reconciliationErr *workflow.ReconciliationError
	)

	switch {
	case errors.Is(err, workflow.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Document not found"))
	case errors.Is(err, workflow.ErrExpired):
		c.JSON(http.StatusGone, response.Error(http.StatusGone, "Document has expired, please contact the issuer"))
	case errors.Is(err, workflow.ErrConflict):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, "Document was updated by another session, please reload"))
	case errors.As(err, &reconciliationErr):
		c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway,
			"Payment received, confirmation pending. Please contact support"))
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, validationErr.Error()))
	case errors.As(err, &serviceErr):
		c.JSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable,
			"Service temporarily unavailable, please retry"))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}
