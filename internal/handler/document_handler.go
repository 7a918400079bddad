package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/middleware"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/service"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/pkg/pagination"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/pkg/response"
)

type DocumentHandler struct {
	documentService service.DocumentService
}

func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

func (h *DocumentHandler) RegisterRoutes(router *gin.RouterGroup) {
	documents := router.Group("/api/documents", middleware.RequireAuth())
	{
		documents.POST("", h.CreateDocument)
		documents.GET("", h.ListDocuments)
		documents.GET("/:id", h.GetDocument)
		documents.PUT("/:id", h.UpdateDocument)
		documents.DELETE("/:id", h.DeleteDocument)
		documents.POST("/:id/send", h.SendDocument)
		documents.POST("/:id/convert", h.ConvertQuote)
		documents.GET("/:id/payment-qr", h.PaymentQR)
	}
}

func ownerID(c *gin.Context) string {
	userID, _ := c.Get("userID")
	id, _ := userID.(string)
	return id
}

// CreateDocument creates a new quote or billing invoice
// @Summary      Create document
// @Description  Creates a new quote or billing invoice owned by the authenticated user
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateDocumentRequest  true  "Create Document Payload"
// @Success      201      {object}  response.Response{data=service.DocumentView}
// @Failure      400      {object}  response.Response
// @Router       /api/documents [post]
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	var req service.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.documentService.Create(c.Request.Context(), ownerID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// ListDocuments returns a paginated list of the owner's documents
// @Summary      List documents
// @Description  Retrieves a paginated list of documents, optionally filtered by type and status
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        type    query     string  false  "Filter by document type (quote, billing)"
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/documents [get]
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	params := pagination.Parse(c)

	docs, total, err := h.documentService.List(c.Request.Context(), ownerID(c), service.DocumentFilter{
		DocumentType: c.Query("type"),
		Status:       c.Query("status"),
		Page:         params.Page,
		Limit:        params.Limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"documents": docs,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// GetDocument returns one document by id
// @Summary      Get document
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id    path      string  true   "Document ID"
// @Param        type  query     string  false  "Document type (quote or billing, default quote)"
// @Success      200   {object}  response.Response{data=service.DocumentView}
// @Failure      404   {object}  response.Response
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	doc, err := h.documentService.Get(c.Request.Context(), ownerID(c), c.Param("id"), c.Query("type"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// UpdateDocument edits a document that is not yet signed or paid
// @Summary      Update document
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true   "Document ID"
// @Param        type     query     string                         false  "Document type"
// @Param        payload  body      service.UpdateDocumentRequest  true   "Update Document Payload"
// @Success      200      {object}  response.Response{data=service.DocumentView}
// @Failure      400      {object}  response.Response
// @Router       /api/documents/{id} [put]
func (h *DocumentHandler) UpdateDocument(c *gin.Context) {
	var req service.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.documentService.Update(c.Request.Context(), ownerID(c), c.Param("id"), c.Query("type"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// DeleteDocument removes an unpaid document
// @Summary      Delete document
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id    path      string  true   "Document ID"
// @Param        type  query     string  false  "Document type"
// @Success      200   {object}  response.Response
// @Failure      400   {object}  response.Response
// @Router       /api/documents/{id} [delete]
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	if err := h.documentService.Delete(c.Request.Context(), ownerID(c), c.Param("id"), c.Query("type")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nil))
}

// SendDocument emails the validation link to the client
// @Summary      Send document to client
// @Description  Emails the client a validation link; a draft quote moves to sent
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id           path      string  true   "Document ID"
// @Param        type         query     string  false  "Document type"
// @Param        withPayment  query     bool    false  "Enable the payment step for quotes"
// @Success      200          {object}  response.Response{data=service.DocumentView}
// @Failure      400          {object}  response.Response
// @Router       /api/documents/{id}/send [post]
func (h *DocumentHandler) SendDocument(c *gin.Context) {
	doc, err := h.documentService.Send(c.Request.Context(), ownerID(c), c.Param("id"), c.Query("type"),
		c.Query("withPayment") == "true")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// ConvertQuote converts an accepted quote into a billing invoice
// @Summary      Convert quote to invoice
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Quote ID"
// @Success      201  {object}  response.Response{data=service.DocumentView}
// @Failure      400  {object}  response.Response
// @Router       /api/documents/{id}/convert [post]
func (h *DocumentHandler) ConvertQuote(c *gin.Context) {
	invoice, err := h.documentService.ConvertQuote(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// PaymentQR renders the payment QR code for the document
// @Summary      Payment QR code
// @Description  Swiss QR-bill for CHF documents, SEPA EPC QR for EUR documents
// @Tags         documents
// @Security     BearerAuth
// @Produce      image/png
// @Param        id    path      string  true   "Document ID"
// @Param        type  query     string  false  "Document type"
// @Success      200   {file}    binary
// @Failure      400   {object}  response.Response
// @Router       /api/documents/{id}/payment-qr [get]
func (h *DocumentHandler) PaymentQR(c *gin.Context) {
	png, err := h.documentService.PaymentQR(c.Request.Context(), ownerID(c), c.Param("id"), c.Query("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
