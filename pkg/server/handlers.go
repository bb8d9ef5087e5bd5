package server

import (
	"archive/zip"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ejb-verifier/pkg/deployer"
	"ejb-verifier/pkg/metadata"
	"ejb-verifier/pkg/report"
	"ejb-verifier/pkg/report/store"
	"ejb-verifier/pkg/verifier/core"
)

// maxListLimit 列表接口单次返回上限
const maxListLimit = 200

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// VerificationResponse 一次验证的结果
type VerificationResponse struct {
	Passed bool           `json:"passed"`
	Report *report.Report `json:"report"`
}

// SectionResponse 规范章节
type SectionResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: message})
}

type handler struct {
	verifier  Verifier
	reports   Reports
	maxUpload int64
	log       *zap.Logger
}

// HandleVerify POST /v1/verifications，multipart 字段 archive
func (h *handler) HandleVerify(c *gin.Context) {
	if h.verifier == nil {
		writeError(c, http.StatusServiceUnavailable, "VERIFIER_UNAVAILABLE", "verifier not configured")
		return
	}
	fh, err := c.FormFile("archive")
	if err != nil {
		writeError(c, http.StatusBadRequest, "MISSING_ARCHIVE", "multipart field 'archive' is required")
		return
	}
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		writeError(c, http.StatusRequestEntityTooLarge, "ARCHIVE_TOO_LARGE", "archive exceeds upload limit")
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_ARCHIVE", "cannot read upload")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_ARCHIVE", "cannot read upload")
		return
	}

	r, err := h.verifier.VerifyBytes(c.Request.Context(), fh.Filename, data)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, VerificationResponse{Passed: r.Passed(), Report: r})
	case errors.Is(err, zip.ErrFormat):
		writeError(c, http.StatusUnprocessableEntity, "INVALID_ARCHIVE", "archive is not a jar file")
	case errors.Is(err, deployer.ErrNoDescriptor):
		writeError(c, http.StatusUnprocessableEntity, "MISSING_DESCRIPTOR", err.Error())
	case errors.Is(err, metadata.ErrInvalidDescriptor):
		writeError(c, http.StatusUnprocessableEntity, "INVALID_DESCRIPTOR", err.Error())
	default:
		h.log.Error("verification failed", zap.String("archive", fh.Filename), zap.Error(err))
		writeError(c, http.StatusInternalServerError, "INTERNAL", "verification failed")
	}
}

// HandleGet GET /v1/verifications/:id
func (h *handler) HandleGet(c *gin.Context) {
	if h.reports == nil {
		writeError(c, http.StatusNotImplemented, "STORE_DISABLED", "report store not configured")
		return
	}
	r, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "report not found")
		return
	}
	if err != nil {
		h.log.Error("load report failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "INTERNAL", "load report failed")
		return
	}
	c.JSON(http.StatusOK, VerificationResponse{Passed: r.Passed(), Report: r})
}

// HandleList GET /v1/verifications?archive=&limit=
func (h *handler) HandleList(c *gin.Context) {
	if h.reports == nil {
		writeError(c, http.StatusNotImplemented, "STORE_DISABLED", "report store not configured")
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	reports, err := h.reports.List(c.Request.Context(), c.Query("archive"), limit)
	if err != nil {
		h.log.Error("list reports failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "INTERNAL", "list reports failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// HandleSection GET /v1/sections/:id
func (h *handler) HandleSection(c *gin.Context) {
	id := c.Param("id")
	msg, err := core.LookupSection(id)
	if err != nil {
		writeError(c, http.StatusNotFound, "UNKNOWN_SECTION", err.Error())
		return
	}
	c.JSON(http.StatusOK, SectionResponse{ID: id, Message: msg})
}
