package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second, HTTPClient: srv.Client()})
}

func TestLoginSendsPasswordGrant(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != loginPath || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "S3cret!pw" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"tok-123","token_type":"bearer"}`)
	})

	tok, err := client.Login(context.Background(), "alice", "S3cret!pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok.AccessToken != "tok-123" {
		t.Fatalf("unexpected token %+v", tok)
	}
}

func TestLoginWithoutTokenFails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"message":"ok"}`)
	})

	if _, err := client.Login(context.Background(), "alice", "pw"); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestLoginRejectedCarriesMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"Incorrect username or password"}`)
	})

	_, err := client.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("expected ErrLoginFailed, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if se.Status != http.StatusUnauthorized || se.Message != "Incorrect username or password" {
		t.Fatalf("unexpected status error %+v", se)
	}
}

func TestSignupPostsJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != signupPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body["email"] != "a@example.com" || body["user_name"] != "alice" || body["password"] != "S3cret!pw" {
			t.Errorf("unexpected body %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"message":"created"}`)
	})

	err := client.Signup(context.Background(), SignupRequest{Email: "a@example.com", Password: "S3cret!pw", UserName: "alice"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
}

func TestSignupErrorMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"message":"User already exists"}`)
	})

	err := client.Signup(context.Background(), SignupRequest{Email: "a@example.com"})
	var se *StatusError
	if !errors.As(err, &se) || se.Message != "User already exists" {
		t.Fatalf("expected upstream message, got %v", err)
	}
	if !errors.Is(err, ErrSignupFailed) {
		t.Fatalf("expected ErrSignupFailed, got %v", err)
	}
}

func TestReviewResumeSendsMultipartWithBearer(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake")
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != reviewPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("unexpected auth header %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != string(pdf) || header.Filename != "cv.pdf" {
			t.Errorf("unexpected file %q %q", header.Filename, data)
		}
		if ct := header.Header.Get("Content-Type"); ct != pdfContentType {
			t.Errorf("unexpected part content type %q", ct)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"Resume Score":"80/100"}]`)
	})

	raw, err := client.ReviewResume(context.Background(), "tok-123", "cv.pdf", pdf)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if string(raw) != `[{"Resume Score":"80/100"}]` {
		t.Fatalf("unexpected body %s", raw)
	}
}

func TestUploadAndReviewFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		call     func(*Client) error
		sentinel error
		unauth   bool
	}{
		{
			name:     "upload server error",
			status:   http.StatusInternalServerError,
			call:     func(c *Client) error { return c.UploadResume(context.Background(), "t", "cv.pdf", []byte("%PDF")) },
			sentinel: ErrUploadFailed,
		},
		{
			name:   "review unauthorized",
			status: http.StatusUnauthorized,
			call: func(c *Client) error {
				_, err := c.ReviewResume(context.Background(), "t", "cv.pdf", []byte("%PDF"))
				return err
			},
			sentinel: ErrReviewFailed,
			unauth:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, `{"detail":"nope"}`)
			})
			err := tt.call(client)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("expected %v, got %v", tt.sentinel, err)
			}
			if errors.Is(err, ErrUnauthorized) != tt.unauth {
				t.Fatalf("unexpected ErrUnauthorized match for %v", err)
			}
		})
	}
}

func TestPostFileRejectsEmptyDocument(t *testing.T) {
	client := New(Config{BaseURL: "http://127.0.0.1:0"})
	if err := client.UploadResume(context.Background(), "t", "cv.pdf", nil); !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
}

func TestMessageFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		body string
		want string
	}{
		{body: `{"message":"bad"}`, want: "bad"},
		{body: `{"detail":"nope"}`, want: "nope"},
		{body: `{"detail":[{"msg":"field required"}]}`, want: "field required"},
		{body: `{"other":1}`, want: ""},
		{body: `upstream exploded`, want: "upstream exploded"},
	}
	for _, tt := range tests {
		if got := messageFrom([]byte(tt.body)); got != tt.want {
			t.Fatalf("messageFrom(%s) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestMessageFromKeepsRunesWhole(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("a", 199) + "é server error"
	got := messageFrom([]byte(body))
	if !utf8.ValidString(got) {
		t.Fatalf("truncated message is not valid UTF-8: %q", got)
	}
	if got != strings.Repeat("a", 199) {
		t.Fatalf("expected cut before the split rune, got %q", got)
	}
	if short := truncate("résumé", 2); short != "r" {
		t.Fatalf("truncate(résumé, 2) = %q, want %q", short, "r")
	}
}
