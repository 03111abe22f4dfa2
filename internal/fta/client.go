package fta

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"regexp"
	"time"

	"github.com/gulfbooks/einvoice/internal/ubl"
)

// maxResponseBytes caps how much of a provider response is read into memory.
const maxResponseBytes = 4 << 20

// HTTPDoer is the subset of *http.Client the client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the connection and resilience settings for a Client.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string

	RequestsPerMinute int
	MaxAttempts       int
	InitialBackoff    time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
	TokenExpiryMargin time.Duration
	Timeout           time.Duration
}

// Client talks to the tax authority's e-invoicing API. One instance is safe
// for concurrent use; the token cache and rate window serialize access
// internally.
type Client struct {
	cfg     Config
	http    HTTPDoer
	log     *slog.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	tokens  *tokenSource
	limiter *rateWindow
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h HTTPDoer) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithClock replaces the wall clock. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithSleep replaces the blocking wait used by the rate limiter and the retry
// backoff. Used in tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// NewClient builds a Client from cfg, applying defaults for unset resilience
// settings.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Scope == "" {
		cfg.Scope = "einvoicing"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.BackoffMultiplier <= 1 {
		cfg.BackoffMultiplier = 2.0
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 8 * time.Second
	}
	if cfg.TokenExpiryMargin <= 0 {
		cfg.TokenExpiryMargin = time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     slog.Default(),
		now:     time.Now,
		sleep:   sleepContext,
		tokens:  &tokenSource{},
		limiter: &rateWindow{limit: cfg.RequestsPerMinute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SubmitInvoice sends a serialized document to the authority. With
// opts.ValidateOnly the document is checked but not stored or cleared. The
// result carries the invoice number extracted from the document even when the
// authority rejects it.
func (c *Client) SubmitInvoice(ctx context.Context, doc *ubl.Document, opts SubmitOptions) (*SubmissionResult, error) {
	if doc == nil {
		return nil, fmt.Errorf("submit invoice: document is required")
	}

	invoiceNumber := doc.InvoiceNumber
	if invoiceNumber == "" {
		invoiceNumber = extractInvoiceNumber(doc.XML)
	}

	language := opts.Language
	if language == "" {
		language = "en"
	}

	endpoint := c.cfg.BaseURL + "/invoices/submit"
	operation := "submit_invoice"
	if opts.ValidateOnly {
		endpoint = c.cfg.BaseURL + "/invoices/validate"
		operation = "validate_invoice"
	}

	payload := submitRequest{
		InvoiceXML:        base64.StdEncoding.EncodeToString(doc.XML),
		Hash:              doc.Hash,
		ClearanceRequired: opts.ClearanceRequired,
		NotifyCustomer:    opts.NotifyCustomer,
		Language:          language,
	}

	var resp submitResponse
	if err := c.doJSON(ctx, operation, http.MethodPost, endpoint, payload, &resp); err != nil {
		return nil, err
	}

	result := &SubmissionResult{
		Success:         resp.Success,
		SubmissionID:    resp.SubmissionID,
		InvoiceNumber:   invoiceNumber,
		Status:          resp.Status,
		ClearanceStatus: resp.Data.ClearanceStatus,
		Errors:          resp.Errors,
		Warnings:        resp.Warnings,
		SubmittedAt:     c.now().UTC(),
	}

	c.log.Info("invoice submitted",
		"operation", operation,
		"invoice_number", invoiceNumber,
		"submission_id", result.SubmissionID,
		"success", result.Success)

	return result, nil
}

// GetInvoiceStatus fetches the processing state of a prior submission.
func (c *Client) GetInvoiceStatus(ctx context.Context, submissionID string) (*InvoiceStatus, error) {
	if submissionID == "" {
		return nil, fmt.Errorf("get invoice status: submission id is required")
	}

	var resp statusResponse
	url := c.cfg.BaseURL + "/invoices/" + submissionID + "/status"
	if err := c.doJSON(ctx, "get_invoice_status", http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}

	return &InvoiceStatus{
		SubmissionID:    submissionID,
		InvoiceNumber:   resp.InvoiceNumber,
		Status:          resp.Status,
		ClearanceStatus: resp.ClearanceStatus,
		SubmittedAt:     resp.SubmittedAt,
		ProcessedAt:     resp.ProcessedAt,
		Errors:          resp.Errors,
		Warnings:        resp.Warnings,
	}, nil
}

// CancelInvoice asks the authority to cancel a prior submission.
func (c *Client) CancelInvoice(ctx context.Context, submissionID, reason string) error {
	if submissionID == "" {
		return fmt.Errorf("cancel invoice: submission id is required")
	}
	if reason == "" {
		return fmt.Errorf("cancel invoice: reason is required")
	}

	var resp cancelResponse
	url := c.cfg.BaseURL + "/invoices/cancel"
	payload := cancelRequest{SubmissionID: submissionID, Reason: reason}
	if err := c.doJSON(ctx, "cancel_invoice", http.MethodPost, url, payload, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &APIError{
			Operation: "cancel_invoice",
			Category:  CategoryRejected,
			Message:   "authority declined the cancellation",
		}
	}

	c.log.Info("invoice cancelled", "submission_id", submissionID)
	return nil
}

// ValidateTRN checks a TRN against the authority's registration registry.
func (c *Client) ValidateTRN(ctx context.Context, trn string) (*TRNValidationResult, error) {
	if trn == "" {
		return nil, fmt.Errorf("validate trn: trn is required")
	}

	var resp trnValidationResponse
	url := c.cfg.BaseURL + "/trn/validate"
	if err := c.doJSON(ctx, "validate_trn", http.MethodPost, url, trnValidationRequest{TRN: trn}, &resp); err != nil {
		return nil, err
	}

	return &TRNValidationResult{
		TRN:              trn,
		Registered:       resp.Registered,
		CompanyName:      resp.CompanyName,
		RegistrationDate: resp.RegistrationDate,
		Status:           resp.Status,
	}, nil
}

// doJSON runs one authenticated, rate-limited, retried round trip and decodes
// the successful response body into out. Network failures, 5xx and 429 are
// retried with exponential backoff up to the configured attempt budget; any
// other non-2xx status is surfaced immediately as a typed APIError.
func (c *Client) doJSON(ctx context.Context, operation, method, url string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", operation, err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt - 1)
			c.log.Debug("retrying after failure",
				"operation", operation, "attempt", attempt+1, "delay", delay, "error", lastErr)
			if err := c.sleep(ctx, delay); err != nil {
				return lastErr
			}
		}

		if err := c.wait(ctx); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		token, err := c.token(ctx)
		if err != nil {
			return err
		}

		retry, err := c.roundTrip(ctx, operation, method, url, token, body, out)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}

	return lastErr
}

// roundTrip performs a single HTTP exchange. The bool result reports whether
// the failure is retryable.
func (c *Client) roundTrip(ctx context.Context, operation, method, url, token string, body []byte, out any) (bool, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return false, fmt.Errorf("%s: building request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, &APIError{Operation: operation, Category: CategoryTransient,
				Message: "request cancelled", Err: ctx.Err()}
		}
		return true, &APIError{Operation: operation, Category: CategoryTransient,
			Message: "network request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return true, &APIError{Operation: operation, Category: CategoryTransient,
			StatusCode: resp.StatusCode, Message: "reading response failed", Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return false, nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return false, &APIError{Operation: operation, Category: CategoryRejected,
				StatusCode: resp.StatusCode, Message: "malformed response body", Err: err}
		}
		return false, nil
	}

	apiErr := parseAPIError(operation, resp.StatusCode, raw)
	switch apiErr.Category {
	case CategoryAuth:
		// The token was rejected; drop it so the next call re-authenticates.
		c.clearToken()
		return false, apiErr
	case CategoryTransient, CategoryRateLimited:
		return true, apiErr
	default:
		return false, apiErr
	}
}

// parseAPIError maps a non-2xx provider response to a typed failure,
// preserving the original error code, message and detail list.
func parseAPIError(operation string, status int, raw []byte) *APIError {
	apiErr := &APIError{
		Operation:  operation,
		Category:   categoryForStatus(status),
		StatusCode: status,
	}

	var parsed errorResponse
	if err := json.Unmarshal(raw, &parsed); err == nil {
		apiErr.Code = parsed.Code
		apiErr.Message = parsed.Message
		if apiErr.Message == "" {
			apiErr.Message = parsed.Error
		}
		apiErr.Details = parsed.Errors
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}

	return apiErr
}

// backoff returns the delay before retry number attempt (zero-based),
// exponentially increasing and capped at the configured maximum.
func (c *Client) backoff(attempt int) time.Duration {
	d := time.Duration(float64(c.cfg.InitialBackoff) * math.Pow(c.cfg.BackoffMultiplier, float64(attempt)))
	if d > c.cfg.MaxBackoff {
		d = c.cfg.MaxBackoff
	}
	return d
}

var invoiceIDPattern = regexp.MustCompile(`<cbc:ID>([^<]+)</cbc:ID>`)

// extractInvoiceNumber pulls the document-level cbc:ID out of serialized XML.
// The first cbc:ID in a UBL document is the invoice number.
func extractInvoiceNumber(xml []byte) string {
	m := invoiceIDPattern.FindSubmatch(xml)
	if m == nil {
		return ""
	}
	return string(m[1])
}
