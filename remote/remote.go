// Package remote talks to the catalog REST backend: it reads product types
// and records and persists submitted records.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/shopworks/attrkit/multilingual"
	"github.com/shopworks/attrkit/schema"
	"github.com/shopworks/attrkit/wire"
)

// DefaultTimeout applies when Options.Timeout is zero.
const DefaultTimeout = 20 * time.Second

// ErrRecordNotFound is returned when the backend has no record with the
// requested id.
var ErrRecordNotFound = errors.New("record not found")

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Debug   bool
}

// Client implements the product type source, the record source and the
// persistence sink over HTTP.
type Client struct {
	http *resty.Client
}

// New creates a client for the backend at opts.BaseURL.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(timeout).
		SetDebug(opts.Debug).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "attrkit/1.0")
	if opts.Token != "" {
		c.SetAuthToken(opts.Token)
	}
	return &Client{http: c}
}

// APIError is a non-success answer from the backend. Message is the
// backend's own explanation when it sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// errorBody is the error document the backend sends.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func apiError(resp *resty.Response) *APIError {
	e := &APIError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		e.Message = body.Message
		if e.Message == "" {
			e.Message = body.Error
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(resp.String())
	}
	return e
}

// ProductType fetches a product type definition.
func (c *Client) ProductType(ctx context.Context, id string) (*schema.ProductType, error) {
	var pt schema.ProductType
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&pt).
		SetError(&errorBody{}).
		Get("/product-types/{id}")
	if err != nil {
		return nil, fmt.Errorf("fetching product type %q: %w", id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", schema.ErrProductTypeNotFound, id)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching product type %q: %w", id, apiError(resp))
	}
	if pt.ID == "" {
		pt.ID = id
	}
	return &pt, nil
}

// Record fetches a stored record. Malformed values in the record are left
// unset and logged.
func (c *Client) Record(ctx context.Context, id string) (multilingual.NormalizedRecord, error) {
	raw, err := c.RawRecord(ctx, id)
	if err != nil {
		return multilingual.NormalizedRecord{}, err
	}
	rec, issues := wire.FromStruct(raw)
	for _, issue := range issues {
		slog.Warn("malformed value in record", "record", id, "field", issue.Field, "err", issue.Message)
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return rec, nil
}

// RawRecord fetches a stored record in its wire form, as the backend sent
// it.
func (c *Client) RawRecord(ctx context.Context, id string) (*structpb.Struct, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetError(&errorBody{}).
		Get("/products/{id}")
	if err != nil {
		return nil, fmt.Errorf("fetching record %q: %w", id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching record %q: %w", id, apiError(resp))
	}
	raw, err := wire.Parse(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("decoding record %q: %w", id, err)
	}
	return raw, nil
}

// submitResult is the backend's answer to a submission.
type submitResult struct {
	ID string `json:"id"`
}

// Submit persists a record: a record without id is created, one with an id
// is replaced. The id of the stored record is returned.
func (c *Client) Submit(ctx context.Context, rec multilingual.NormalizedRecord) (string, error) {
	body, err := wire.Marshal(rec)
	if err != nil {
		return "", err
	}

	var result submitResult
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&result).
		SetError(&errorBody{})

	var resp *resty.Response
	if rec.ID == "" {
		resp, err = req.Post("/products")
	} else {
		resp, err = req.SetPathParam("id", rec.ID).Put("/products/{id}")
	}
	if err != nil {
		return "", fmt.Errorf("submitting record: %w", err)
	}
	if resp.IsError() {
		return "", apiError(resp)
	}

	if result.ID == "" {
		result.ID = rec.ID
	}
	if result.ID == "" {
		return "", errors.New("submitting record: backend returned no id")
	}
	return result.ID, nil
}
