// Package upstream talks to the resume review service that owns accounts
// and produces the review text.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

const (
	loginPath  = "/authentication/login"
	signupPath = "/authentication/signup"
	uploadPath = "/resume/resume_upload"
	reviewPath = "/resume/resume_review"

	pdfContentType = "application/pdf"
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the review service.
type Client struct {
	http  *http.Client
	rest  *resty.Client
	oauth oauth2.Config
}

// Token is an access token issued by the review service.
type Token struct {
	AccessToken string
	TokenType   string
	Expiry      time.Time
}

// SignupRequest is the account payload accepted by the service.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserName string `json:"user_name"`
}

// New builds a Client for cfg.BaseURL.
func New(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	rest := resty.NewWithClient(httpClient).
		SetBaseURL(base).
		SetHeader("Accept", "application/json").
		SetDisableWarn(true)
	if cfg.Timeout > 0 {
		rest.SetTimeout(cfg.Timeout)
	}

	return &Client{
		http: httpClient,
		rest: rest,
		oauth: oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  base + loginPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// Login exchanges a username and password for an access token using a
// form-encoded password grant.
func (c *Client) Login(ctx context.Context, username, password string) (Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	tok, err := c.oauth.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return Token{}, &StatusError{Op: opLogin, Status: re.Response.StatusCode, Message: messageFrom(re.Body)}
		}
		if strings.Contains(err.Error(), "missing access_token") {
			return Token{}, ErrNoToken
		}
		return Token{}, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if tok.AccessToken == "" {
		return Token{}, ErrNoToken
	}
	return Token{AccessToken: tok.AccessToken, TokenType: tok.TokenType, Expiry: tok.Expiry}, nil
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(req).
		Post(signupPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignupFailed, err)
	}
	if resp.IsError() {
		return &StatusError{Op: opSignup, Status: resp.StatusCode(), Message: messageFrom(resp.Body())}
	}
	return nil
}

// UploadResume stores the PDF with the service ahead of a review.
func (c *Client) UploadResume(ctx context.Context, token, fileName string, data []byte) error {
	_, err := c.postFile(ctx, opUpload, uploadPath, token, fileName, data)
	return err
}

// ReviewResume asks the service to review the PDF and returns the raw
// response body for the feedback parser.
func (c *Client) ReviewResume(ctx context.Context, token, fileName string, data []byte) ([]byte, error) {
	return c.postFile(ctx, opReview, reviewPath, token, fileName, data)
}

func (c *Client) postFile(ctx context.Context, op, path, token, fileName string, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %v", opError(op), errEmptyDocument)
	}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetMultipartField("file", fileName, pdfContentType, bytes.NewReader(data)).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", opError(op), err)
	}
	if resp.IsError() {
		return nil, &StatusError{Op: op, Status: resp.StatusCode(), Message: messageFrom(resp.Body())}
	}
	return resp.Body(), nil
}
