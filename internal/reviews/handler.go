package reviews

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resume-reviewer/internal/shared/server/middleware"
	"resume-reviewer/internal/shared/server/respond"
	"resume-reviewer/internal/shared/telemetry"
)

// multipartSlack covers form boundaries and headers around the file part.
const multipartSlack = 64 << 10

// Handler wires HTTP handlers to the review service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches review routes. submitGuards run before the upload
// handler only, e.g. a rate limit.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, submitGuards ...gin.HandlerFunc) {
	submit := append(append([]gin.HandlerFunc{}, submitGuards...), h.submit)
	rg.POST("/reviews", submit...)
	rg.GET("/reviews", h.list)
	rg.GET("/reviews/latest", h.latest)
	rg.GET("/reviews/:id", h.get)
	rg.GET("/reviews/:id/payload", h.payload)
}

func (h *Handler) submit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.maxBytes()+multipartSlack)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", MsgTooLarge, nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", MsgSelectFile, nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", MsgSelectFile, nil)
		return
	}
	defer file.Close()

	review, err := h.Svc.Submit(c.Request.Context(), SubmitInput{
		UserID:      middleware.UserIDFromContext(c),
		SessionID:   middleware.SessionIDFromContext(c),
		RequestID:   middleware.RequestIDFromContext(c),
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Body:        file,
	})
	if review.ID != "" {
		c.Set(middleware.ReviewIDKey, review.ID)
	}
	if err != nil {
		h.submitError(c, review, err)
		return
	}
	respond.Created(c, toResponse(review))
}

func (h *Handler) submitError(c *gin.Context, review Review, err error) {
	var details any
	if review.ID != "" {
		details = gin.H{"reviewId": review.ID}
	}
	switch {
	case errors.Is(err, ErrSessionExpired):
		respond.Error(c, http.StatusUnauthorized, "session_expired", MsgSessionExpired, details)
	case errors.Is(err, ErrNoSession):
		respond.Error(c, http.StatusUnauthorized, "no_session", MsgNoToken, nil)
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", MsgTooLarge, nil)
	case errors.Is(err, ErrNotPDF):
		respond.Error(c, http.StatusBadRequest, "validation_error", MsgNotPDF, nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", MsgSelectFile, nil)
	case errors.Is(err, ErrUploadFailed):
		respond.Error(c, http.StatusBadGateway, "upload_failed", MsgUploadFailed, details)
	case errors.Is(err, ErrReviewFailed):
		respond.Error(c, http.StatusBadGateway, "review_failed", MsgReviewFailed, details)
	case errors.Is(err, ErrInvalidFormat):
		respond.Error(c, http.StatusUnprocessableEntity, "invalid_review_format", MsgInvalidFormat, details)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", MsgUnexpected, details)
	}
}

func (h *Handler) list(c *gin.Context) {
	limit := queryInt(c, "limit", defaultListLimit)
	offset := queryInt(c, "offset", 0)
	limit, offset = clampPage(limit, offset)

	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to list reviews", nil)
		return
	}
	out := make([]ReviewResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toResponse(item))
	}
	respond.OK(c, ListResponse{Items: out, Limit: limit, Offset: offset})
}

func (h *Handler) latest(c *gin.Context) {
	review, err := h.Svc.Latest(c.Request.Context(), middleware.UserIDFromContext(c))
	h.writeReview(c, review, err)
}

func (h *Handler) get(c *gin.Context) {
	review, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	h.writeReview(c, review, err)
}

func (h *Handler) writeReview(c *gin.Context, review Review, err error) {
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "review not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to load review", nil)
		return
	}
	c.Set(middleware.ReviewIDKey, review.ID)
	respond.OK(c, toResponse(review))
}

func (h *Handler) payload(c *gin.Context) {
	rc, err := h.Svc.Payload(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "payload not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to load payload", nil)
		return
	}
	defer rc.Close()

	c.Set(middleware.ReviewIDKey, c.Param("id"))
	c.Status(http.StatusOK)
	c.Header("Content-Type", "application/json")
	if _, err := io.Copy(c.Writer, rc); err != nil {
		telemetry.Warn("review.payload.copy_failed", map[string]any{"review_id": c.Param("id"), "error": err.Error()})
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
