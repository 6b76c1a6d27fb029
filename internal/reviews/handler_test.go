package reviews

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resume-reviewer/internal/shared/server/middleware"
	"resume-reviewer/internal/upstream"
)

func newReviewRouter(t *testing.T, env *testEnv, guards ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", c.GetHeader("X-Test-User"))
		c.Set("sessionId", c.GetHeader("X-Test-Session"))
		c.Next()
	})
	NewHandler(env.svc).RegisterRoutes(r.Group("/api/v1"), guards...)
	return r
}

func multipartBody(t *testing.T, field, fileName string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, fileName)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, w.FormDataContentType()
}

func postResume(r http.Handler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Test-User", "alice")
	req.Header.Set("X-Test-Session", "sid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) (string, string, map[string]any) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body.Error.Code, body.Error.Message, body.Error.Details
}

func TestSubmitHandlerCreatesReview(t *testing.T) {
	env := newTestEnv(t)
	r := newReviewRouter(t, env)

	body, ct := multipartBody(t, "file", "resume.pdf", resumePDF())
	w := postResume(r, body, ct)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Result struct {
			Score         any      `json:"score"`
			StrongPoints  []string `json:"strongPoints"`
			SuitableRoles []string `json:"suitableRoles"`
		} `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == "" || resp.Status != StatusCompleted {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Result.Score != float64(78) {
		t.Fatalf("expected numeric score 78, got %v", resp.Result.Score)
	}
	if len(resp.Result.SuitableRoles) != 1 || resp.Result.SuitableRoles[0] != "Backend Engineer" {
		t.Fatalf("unexpected roles %v", resp.Result.SuitableRoles)
	}
}

func TestSubmitHandlerErrors(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(env *testEnv)
		field      string
		fileName   string
		data       []byte
		wantStatus int
		wantCode   string
		wantMsg    string
		wantReview bool
	}{
		{
			name:       "missing file field",
			field:      "document",
			fileName:   "resume.pdf",
			data:       resumePDF(),
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_error",
			wantMsg:    MsgSelectFile,
		},
		{
			name:       "not a pdf",
			field:      "file",
			fileName:   "resume.txt",
			data:       []byte("plain text"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_error",
			wantMsg:    MsgNotPDF,
		},
		{
			name:       "too large",
			setup:      func(env *testEnv) { env.svc.MaxBytes = 32 },
			field:      "file",
			fileName:   "resume.pdf",
			data:       resumePDF(),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "file_too_large",
			wantMsg:    MsgTooLarge,
		},
		{
			name:       "no session",
			setup:      func(env *testEnv) { delete(env.sessions.sessions, "sid-1") },
			field:      "file",
			fileName:   "resume.pdf",
			data:       resumePDF(),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "no_session",
			wantMsg:    MsgNoToken,
		},
		{
			name: "upload failed",
			setup: func(env *testEnv) {
				env.upstream.uploadErr = &upstream.StatusError{Op: "upload", Status: 500}
			},
			field:      "file",
			fileName:   "resume.pdf",
			data:       resumePDF(),
			wantStatus: http.StatusBadGateway,
			wantCode:   "upload_failed",
			wantMsg:    MsgUploadFailed,
			wantReview: true,
		},
		{
			name: "review failed",
			setup: func(env *testEnv) {
				env.upstream.reviewErr = &upstream.StatusError{Op: "review", Status: 503}
			},
			field:      "file",
			fileName:   "resume.pdf",
			data:       resumePDF(),
			wantStatus: http.StatusBadGateway,
			wantCode:   "review_failed",
			wantMsg:    MsgReviewFailed,
			wantReview: true,
		},
		{
			name:       "invalid review format",
			setup:      func(env *testEnv) { env.upstream.payload = []byte(`{}`) },
			field:      "file",
			fileName:   "resume.pdf",
			data:       resumePDF(),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "invalid_review_format",
			wantMsg:    MsgInvalidFormat,
			wantReview: true,
		},
		{
			name: "upstream rejected token",
			setup: func(env *testEnv) {
				env.upstream.uploadErr = &upstream.StatusError{Op: "upload", Status: 401}
			},
			field:      "file",
			fileName:   "resume.pdf",
			data:       resumePDF(),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "session_expired",
			wantMsg:    MsgSessionExpired,
			wantReview: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.setup != nil {
				tt.setup(env)
			}
			r := newReviewRouter(t, env)

			body, ct := multipartBody(t, tt.field, tt.fileName, tt.data)
			w := postResume(r, body, ct)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			code, msg, details := decodeError(t, w)
			if code != tt.wantCode || msg != tt.wantMsg {
				t.Fatalf("unexpected error %q %q", code, msg)
			}
			if id, _ := details["reviewId"].(string); tt.wantReview && id == "" {
				t.Fatalf("expected reviewId in details, got %v", details)
			}
		})
	}
}

func TestSubmitHandlerRunsGuards(t *testing.T) {
	env := newTestEnv(t)
	limiter := middleware.NewRateLimiter(func() time.Time { return time.Unix(0, 0) })
	r := newReviewRouter(t, env, middleware.RateLimit("reviews.submit", middleware.RateLimitRule{Rate: 1, Burst: 1}, limiter))

	body, ct := multipartBody(t, "file", "resume.pdf", resumePDF())
	if w := postResume(r, body, ct); w.Code != http.StatusCreated {
		t.Fatalf("expected first submit to pass, got %d", w.Code)
	}
	body, ct = multipartBody(t, "file", "resume.pdf", resumePDF())
	w := postResume(r, body, ct)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if len(env.upstream.calls) != 2 {
		t.Fatalf("expected only the first submit upstream, got %v", env.upstream.calls)
	}
}

func TestGetListLatestHandlers(t *testing.T) {
	env := newTestEnv(t)
	r := newReviewRouter(t, env)

	body, ct := multipartBody(t, "file", "first.pdf", resumePDF())
	first := postResume(r, body, ct)
	body, ct = multipartBody(t, "file", "second.pdf", resumePDF())
	second := postResume(r, body, ct)
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("setup submits failed: %d %d", first.Code, second.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(second.Body.Bytes(), &created)

	get := func(path, user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Test-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/api/v1/reviews/latest", "alice")
	if w.Code != http.StatusOK {
		t.Fatalf("latest: expected 200, got %d", w.Code)
	}
	var latest struct {
		ID       string `json:"id"`
		FileName string `json:"fileName"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &latest)
	if latest.ID != created.ID || latest.FileName != "second.pdf" {
		t.Fatalf("unexpected latest %+v", latest)
	}

	w = get("/api/v1/reviews?limit=1", "alice")
	var page ListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(page.Items) != 1 || page.Limit != 1 || page.Items[0].ID != created.ID {
		t.Fatalf("unexpected page %+v", page)
	}

	if w := get("/api/v1/reviews/"+created.ID, "alice"); w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	if w := get("/api/v1/reviews/"+created.ID, "bob"); w.Code != http.StatusNotFound {
		t.Fatalf("get other user: expected 404, got %d", w.Code)
	}
	if w := get("/api/v1/reviews/latest", "bob"); w.Code != http.StatusNotFound {
		t.Fatalf("latest for user without reviews: expected 404, got %d", w.Code)
	}

	w = get("/api/v1/reviews/"+created.ID+"/payload", "alice")
	if w.Code != http.StatusOK || w.Body.String() != sampleReview {
		t.Fatalf("payload: unexpected %d %q", w.Code, w.Body.String())
	}
}
