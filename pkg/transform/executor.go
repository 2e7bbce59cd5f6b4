package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/d4l-data4life/go-svc/pkg/logging"

	"github.com/lazaroMB/mcp-to-api/pkg/models"
)

// Executor performs the downstream HTTP call described by a DownstreamAPI
// template. Every call runs under a bounded timeout; a timeout is reported
// as a transport failure, never as a hung request.
type Executor struct {
	client  *http.Client
	timeout time.Duration
}

// NewExecutor creates an executor with the given per-call timeout
func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Result is the outcome of a downstream call
type Result struct {
	Status      int
	Body        []byte
	ContentType string
	Duration    time.Duration
}

// Succeeded reports whether the downstream returned a 2xx status
func (r *Result) Succeeded() bool {
	return r.Status >= 200 && r.Status < 300
}

// Execute builds and sends the HTTP request for the given payload.
// URL path placeholders of the form {field} are substituted from the
// payload and consumed; remaining payload fields travel as query
// parameters for GET and as a JSON body otherwise.
func (e *Executor) Execute(ctx context.Context, api *models.DownstreamAPI, payload map[string]interface{}) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	remaining := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		remaining[k] = v
	}

	target := api.URL
	for k, v := range payload {
		placeholder := "{" + k + "}"
		if strings.Contains(target, placeholder) {
			target = strings.ReplaceAll(target, placeholder, url.PathEscape(stringify(v)))
			delete(remaining, k)
		}
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid downstream url %q", api.URL)
	}

	method := strings.ToUpper(api.Method)
	if method == "" {
		method = http.MethodGet
	}

	query := parsed.Query()
	for k, v := range api.URLParamMap() {
		query.Set(k, templateString(v, payload))
	}

	var body io.Reader
	if method == http.MethodGet || method == http.MethodDelete {
		for k, v := range remaining {
			query.Set(k, stringify(v))
		}
	} else {
		encoded, err := json.Marshal(remaining)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode downstream payload")
		}
		body = bytes.NewReader(encoded)
	}
	parsed.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, parsed.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create downstream request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range api.HeaderMap() {
		req.Header.Set(k, templateString(v, payload))
	}
	for k, v := range api.CookieMap() {
		req.AddCookie(&http.Cookie{Name: k, Value: templateString(v, payload)})
	}

	logging.LogDebugf("Calling downstream API %s: %s %s", api.Name, method, parsed.Redacted())

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "downstream call to %s failed", api.Name)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read downstream response")
	}

	return &Result{
		Status:      resp.StatusCode,
		Body:        raw,
		ContentType: resp.Header.Get("Content-Type"),
		Duration:    time.Since(start),
	}, nil
}

// templateString substitutes {field} placeholders from the payload
func templateString(s string, payload map[string]interface{}) string {
	if !strings.Contains(s, "{") {
		return s
	}
	for k, v := range payload {
		s = strings.ReplaceAll(s, "{"+k+"}", stringify(v))
	}
	return s
}

// stringify renders a payload value for use in URLs and headers. Integral
// floats (the default JSON number decoding) print without an exponent or
// trailing zeros.
func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
