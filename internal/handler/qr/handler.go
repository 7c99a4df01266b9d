package qr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/postoppal-api/internal/handler"
	"github.com/jwalitptl/postoppal-api/internal/middleware"
	"github.com/jwalitptl/postoppal-api/internal/model"
	qrservice "github.com/jwalitptl/postoppal-api/internal/service/qr"
	"github.com/jwalitptl/postoppal-api/pkg/auth"
	apperrors "github.com/jwalitptl/postoppal-api/pkg/errors"
	"github.com/jwalitptl/postoppal-api/pkg/qrcodec"
)

type Handler struct {
	service qrservice.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service qrservice.Service, authMW *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service: service,
		auth:    authMW,
	}
}

// RegisterRoutes mounts the QR routes on an authenticated group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	anyone := h.auth.RequireRoles(auth.RoleAdmin, auth.RoleDoctor, auth.RolePatient)
	staff := h.auth.RequireRoles(auth.RoleAdmin, auth.RoleDoctor)
	noStore := middleware.Cache(middleware.NoStoreCacheConfig())

	qr := r.Group("/qr")
	{
		qr.GET("/patients/:id", anyone, noStore, h.GetPatientQR)
		qr.GET("/patients/:id/download", anyone, noStore, h.DownloadPatientQR)
		qr.POST("/patients/:id/share", anyone, h.SharePatientQR)
		qr.GET("/facilities/:id", staff, middleware.Cache(middleware.DefaultCacheConfig()), h.GetFacilityQR)

		qr.POST("/encode", staff, h.Encode)
		qr.POST("/batch", staff, h.Batch)
		qr.POST("/printable", staff, h.Printable)
		qr.POST("/print", staff, h.Print)

		qr.POST("/scan", staff, h.Scan)
		qr.GET("/scans", h.auth.RequireRoles(auth.RoleAdmin), noStore, h.ListScans)
		qr.POST("/validate", anyone, h.Validate)
	}
}

func (h *Handler) GetPatientQR(c *gin.Context) {
	var query model.PatientQRQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	patientID := c.Param("id")
	if err := authorizePatient(c, patientID); err != nil {
		_ = c.Error(err)
		return
	}

	qr, err := h.service.PatientQR(c.Request.Context(), patientID, qrcodec.Kind(query.Kind))
	if err != nil {
		_ = c.Error(err)
		return
	}

	handler.RespondWithSuccess(c, model.QRCodeResponse{Token: qr.Token, DataURL: qr.DataURL})
}

func (h *Handler) DownloadPatientQR(c *gin.Context) {
	patientID := c.Param("id")
	if err := authorizePatient(c, patientID); err != nil {
		_ = c.Error(err)
		return
	}

	qr, err := h.service.PatientQR(c.Request.Context(), patientID, "")
	if err != nil {
		_ = c.Error(err)
		return
	}

	filename := fmt.Sprintf("patient-%s.png", patientID)
	if err := qrcodec.DownloadImage(c.Writer, qr.DataURL, filename); err != nil {
		_ = c.Error(apperrors.Internal(err))
	}
}

func (h *Handler) SharePatientQR(c *gin.Context) {
	var req model.ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	patientID := c.Param("id")
	if err := authorizePatient(c, patientID); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.service.ShareByEmail(c.Request.Context(), patientID, req.Email); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, &handler.Response{Status: "success", Message: "QR code sent"})
}

func (h *Handler) GetFacilityQR(c *gin.Context) {
	qr, err := h.service.FacilityQR(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	handler.RespondWithSuccess(c, model.QRCodeResponse{Token: qr.Token, DataURL: qr.DataURL})
}

func (h *Handler) Encode(c *gin.Context) {
	var req model.EncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	payload, err := payloadOf(req.Data)
	if err != nil {
		_ = c.Error(err)
		return
	}

	dataURL, err := h.service.Encode(c.Request.Context(), payload, req.Size, req.AutoSize)
	if err != nil {
		_ = c.Error(err)
		return
	}

	handler.RespondWithSuccess(c, model.EncodeResponse{DataURL: dataURL})
}

func (h *Handler) Batch(c *gin.Context) {
	var req model.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	items := make([]qrcodec.BatchItem, len(req.Items))
	for i, item := range req.Items {
		payload, err := payloadOf(item.Data)
		if err != nil {
			_ = c.Error(err)
			return
		}
		items[i] = qrcodec.BatchItem{Data: payload, Label: item.Label}
	}

	results, err := h.service.Batch(c.Request.Context(), items)
	if err != nil {
		_ = c.Error(err)
		return
	}

	handler.RespondWithSuccess(c, results)
}

func (h *Handler) Printable(c *gin.Context) {
	var req model.PrintableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	payload, err := payloadOf(req.Data)
	if err != nil {
		_ = c.Error(err)
		return
	}

	includeCaption := req.IncludeCaption == nil || *req.IncludeCaption
	doc, err := h.service.Printable(c.Request.Context(), payload, includeCaption)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

// Print queues the document and returns immediately; print failures are
// only logged.
func (h *Handler) Print(c *gin.Context) {
	var req model.PrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	payload, err := payloadOf(req.Data)
	if err != nil {
		_ = c.Error(err)
		return
	}

	go h.service.Print(context.WithoutCancel(c.Request.Context()), payload)

	c.JSON(http.StatusAccepted, &handler.Response{Status: "success", Message: "print requested"})
}

func (h *Handler) Scan(c *gin.Context) {
	var req model.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	outcome, err := h.service.Scan(c.Request.Context(), middleware.CurrentSubject(c), req.Raw)
	if err != nil {
		_ = c.Error(err)
		return
	}

	handler.RespondWithSuccess(c, model.ScanResponse{
		EventID:    outcome.EventID.String(),
		Result:     outcome.Result,
		Validation: outcome.Validation,
	})
}

func (h *Handler) ListScans(c *gin.Context) {
	var filters model.ScanEventFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	events, err := h.service.ListScans(c.Request.Context(), &filters)
	if err != nil {
		_ = c.Error(err)
		return
	}

	handler.RespondWithSuccess(c, events)
}

func (h *Handler) Validate(c *gin.Context) {
	var req model.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	handler.RespondWithSuccess(c, h.service.Validate(req.Token))
}

// authorizePatient limits patients to their own QR code.
func authorizePatient(c *gin.Context, patientID string) error {
	role, _ := middleware.CurrentRole(c)
	if role == auth.RolePatient && middleware.CurrentSubject(c) != patientID {
		return apperrors.Forbidden("patients may only access their own QR code")
	}
	return nil
}

// payloadOf turns request data into an encoder payload. JSON strings are
// encoded as plain text; any other JSON value is compacted and encoded as-is.
func payloadOf(data json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, apperrors.BadRequest("data is required", nil)
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, apperrors.BadRequest("data is not valid JSON", err)
		}
		return s, nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, apperrors.BadRequest("data is not valid JSON", err)
	}
	return json.RawMessage(buf.Bytes()), nil
}
