// Package client is a typed HTTP client for the inquiry API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNoSession is returned when no access token is available.
var ErrNoSession = errors.New("No access token found")

// TokenSource supplies the bearer token of the current session.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource backed by a fixed token.
type StaticToken string

// Token returns the token, or ErrNoSession when it is empty.
func (t StaticToken) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return "", ErrNoSession
	}
	return string(t), nil
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == http.StatusUnauthorized {
		return "Unauthorized - invalid or expired token"
	}
	if e.Message == "" {
		return fmt.Sprintf("request failed: %s", http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("request failed: %d %s", e.StatusCode, e.Message)
}

// Inquiry is a full inquiry record as returned by GET /inquiries/{id}.
type Inquiry struct {
	ID                     string    `json:"id"`
	CreatedAt              time.Time `json:"created_at"`
	FullName               string    `json:"full_name"`
	PhoneNumber            string    `json:"phone_number"`
	DateOfBirth            time.Time `json:"date_of_birth"`
	Age                    int       `json:"age"`
	Gender                 *string   `json:"gender"`
	Email                  *string   `json:"email"`
	Reference              *string   `json:"reference"`
	CurrentAddress         *string   `json:"current_address"`
	PermanentAddress       *string   `json:"permanent_address"`
	CourseSelection        *string   `json:"course_selection"`
	CourseDuration         *string   `json:"course_duration"`
	UserAvailability       *string   `json:"user_availability"`
	JobGuarantee           *string   `json:"job_guarentee"`
	JobAssistance          *string   `json:"job_assistance"`
	JobLocation            *string   `json:"job_location"`
	ExpectedPackage        *string   `json:"expected_package"`
	FutureGoal             *string   `json:"future_goal"`
	CareerTransitionReason *string   `json:"career_transition_reason"`
	RecentEducation        *string   `json:"recent_education"`
	PassingYear            *string   `json:"passing_year"`
	Cgpa                   *string   `json:"cgpa"`
}

// Summary is one row of a list page.
type Summary struct {
	ID          string    `json:"id"`
	FullName    string    `json:"full_name"`
	PhoneNumber string    `json:"phone_number"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Gender      *string   `json:"gender"`
	Email       *string   `json:"email"`
	Reference   *string   `json:"reference"`
	CreatedAt   time.Time `json:"created_at"`
	Age         int       `json:"age"`
}

// Page is a list response.
type Page struct {
	Data       []Summary `json:"data"`
	Pagination struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		TotalPages int64 `json:"totalPages"`
	} `json:"pagination"`
}

// MonthTotal is one dashboard bucket.
type MonthTotal struct {
	Month string `json:"month"`
	Total int    `json:"total"`
}

// ImportReport is the result of a CSV import.
type ImportReport struct {
	Imported int `json:"imported"`
	Failed   []struct {
		Row   int    `json:"row"`
		Error string `json:"error"`
	} `json:"failed"`
}

// Client calls the inquiry API on behalf of a signed-in user.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

// New creates a client for the API at baseURL.
func New(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
	}
}

// List fetches one page. Zero page or limit leaves the server default.
func (c *Client) List(ctx context.Context, page, limit int) (*Page, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/inquiries"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out Page
	if err := c.do(ctx, http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one inquiry.
func (c *Client) Get(ctx context.Context, id string) (*Inquiry, error) {
	var out Inquiry
	if err := c.do(ctx, http.MethodGet, "/inquiries/"+url.PathEscape(id), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create submits a new inquiry.
func (c *Client) Create(ctx context.Context, fields map[string]any) error {
	return c.sendJSON(ctx, http.MethodPost, "/inquiries", fields)
}

// Patch sends fields as a partial update.
func (c *Client) Patch(ctx context.Context, id string, fields map[string]any) error {
	return c.sendJSON(ctx, http.MethodPatch, "/inquiries/"+url.PathEscape(id), fields)
}

// PatchChanged diffs form against original and patches only what changed.
// It makes no request when nothing changed or a numeric field is invalid.
func (c *Client) PatchChanged(ctx context.Context, original *Inquiry, form map[string]string) (map[string]any, error) {
	changes, err := Diff(FormValues(original), form)
	if err != nil {
		return nil, err
	}
	if err := c.Patch(ctx, original.ID, changes); err != nil {
		return nil, err
	}
	return changes, nil
}

// Delete removes an inquiry.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/inquiries/"+url.PathEscape(id), nil, "", nil)
}

// EntriesByMonth fetches the twelve dashboard buckets of the current year.
func (c *Client) EntriesByMonth(ctx context.Context) ([]MonthTotal, error) {
	var out struct {
		Success bool         `json:"success"`
		Data    []MonthTotal `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/dashboard/entries-by-month", nil, "", &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Import uploads a CSV export of form responses.
func (c *Client) Import(ctx context.Context, csv io.Reader) (*ImportReport, error) {
	var out ImportReport
	if err := c.do(ctx, http.MethodPost, "/inquiries/import", csv, "text/csv", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, fields map[string]any) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(body), "application/json", nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if body == nil {
		body = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &body)

	msg := body.Error
	if msg == "" {
		msg = body.Message
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
