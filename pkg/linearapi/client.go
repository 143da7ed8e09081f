// Package linearapi provides a hand-written client for Linear's GraphQL API.
//
// Linear exposes a single POST endpoint; queries and mutations differ only in
// the document text, so the client is one Dispatch method plus coercion
// helpers for the loosely typed responses.
package linearapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultEndpoint = "https://api.linear.app/graphql"

// Client is a Linear GraphQL API client bound to a single access token.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the production Linear endpoint.
func NewClient(token string) *Client {
	return NewClientWithEndpoint(defaultEndpoint, token)
}

// NewClientWithEndpoint creates a client against a custom endpoint.
// Used by tests and by self-hosted deployments.
func NewClientWithEndpoint(endpoint, token string) *Client {
	return &Client{
		endpoint:   endpoint,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Result is the uniform outcome of a Dispatch call.
//
// Exactly one of the four outcomes applies:
//   - transport failure:        Success=false, Error from the transport
//   - GraphQL errors in body:   Success=false, Error from the first error
//   - well-formed response:     Success=true, Data = body's "data" value
//   - non-object 2xx body:      Success=true, Data = the raw body
type Result struct {
	Success bool
	Data    any
	Error   string
}

type dispatchOptions struct {
	signedURLTTL int
}

// DispatchOption customizes a single Dispatch call.
type DispatchOption func(*dispatchOptions)

// WithSignedURLTTL asks Linear to sign file URLs in the response with the
// given lifetime in seconds (the public-file-urls-expire-in header).
func WithSignedURLTTL(seconds int) DispatchOption {
	return func(o *dispatchOptions) {
		o.signedURLTTL = seconds
	}
}

// Dispatch executes a GraphQL document against the Linear API and classifies
// the outcome into a Result. It never returns an error: failures are carried
// in Result.Error so callers can surface the text as tool output.
func (c *Client) Dispatch(ctx context.Context, query string, variables map[string]any, opts ...DispatchOption) Result {
	var o dispatchOptions
	for _, opt := range opts {
		opt(&o)
	}

	tracer := otel.Tracer("linearapi")
	ctx, span := tracer.Start(ctx, "linear.graphql", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	payload := map[string]any{"query": query}
	if len(variables) > 0 {
		payload["variables"] = variables
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return failure("Request failed: " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return failure("Request failed: " + err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if o.signedURLTTL > 0 {
		req.Header.Set("public-file-urls-expire-in", strconv.Itoa(o.signedURLTTL))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetAttributes(attribute.Bool("linear.transport_error", true))
		return failure(transportMessage(err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(transportMessage(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failure("Request failed: status " + strconv.Itoa(resp.StatusCode))
	}

	return classify(raw)
}

// classify applies the HTTP-200-with-errors GraphQL convention to a 2xx body.
func classify(raw []byte) Result {
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		// Not JSON at all. Hand the raw text to the caller.
		return Result{Success: true, Data: string(raw)}
	}

	obj, ok := body.(map[string]any)
	if !ok {
		return Result{Success: true, Data: body}
	}

	if errs, ok := obj["errors"].([]any); ok && len(errs) > 0 {
		return failure(firstErrorMessage(errs))
	}

	return Result{Success: true, Data: obj["data"]}
}

// firstErrorMessage surfaces only the first entry of a GraphQL errors list.
func firstErrorMessage(errs []any) string {
	if m, ok := errs[0].(map[string]any); ok {
		if msg, has := m["message"]; has && msg != nil {
			return Str(msg, "GraphQL error")
		}
	}
	return "GraphQL error"
}

func transportMessage(err error) string {
	if err == nil || err.Error() == "" {
		return "Request failed"
	}
	return err.Error()
}

func failure(msg string) Result {
	if msg == "" {
		msg = "Request failed"
	}
	return Result{Success: false, Error: msg}
}
