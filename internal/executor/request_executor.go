package executor

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"

	"benchkit/stage-engine/pkg/types"
)

// clientKey identifies one shared fasthttp client. Clients are keyed by
// every setting baked into the client itself, so tasks with different
// connect timeouts never share a dialer.
type clientKey struct {
	verify  bool
	connect time.Duration
}

var (
	requestClientsMu sync.Mutex
	requestClients   = make(map[clientKey]*fasthttp.Client)
)

// RequestExecutor handles request tasks using fasthttp.
type RequestExecutor struct {
	notifier Notifier
}

// NewRequestExecutor creates a new request executor.
func NewRequestExecutor(notifier Notifier) *RequestExecutor {
	return &RequestExecutor{notifier: notifier}
}

// Modes implements Executor.
func (e *RequestExecutor) Modes() []types.TaskMode {
	return []types.TaskMode{types.ModeHTTPRequest}
}

// Execute builds the request from the normalized parameters, sends it and
// classifies the outcome against the task's success-code ranges.
func (e *RequestExecutor) Execute(ctx context.Context, task *types.Task) *types.TaskResult {
	result := types.NewTaskResult(task.Label())
	defer result.Finish()

	spec := task.Request

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(spec.Method)
	req.SetRequestURI(spec.URL)
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}
	if spec.Method == fasthttp.MethodPost {
		// Content type applies to the request body only.
		req.Header.SetContentType(spec.ContentType)
		req.SetBodyString(spec.Data)
	}

	client := e.client(spec)
	deadline := time.Now().Add(spec.RequestTimeout)

	if err := client.DoDeadline(req, resp, deadline); err != nil {
		reqErr := classifyRequestError(task.Label(), err, spec.RequestTimeout)
		result.Fail(-1, reqErr.Error())
		return result
	}

	code := resp.StatusCode()
	result.Code = code
	body := string(resp.Body())

	if types.InRanges(spec.SuccessCodes, code) {
		result.Message = fmt.Sprintf("request to %s returned %d", spec.URL, code)
	} else {
		result.Fail(code, fmt.Sprintf("request to %s returned %d, outside success codes", spec.URL, code))
	}

	if task.Notify && e.notifier != nil {
		message := result.Message
		if body != "" {
			message = fmt.Sprintf("%s; body: %s", message, body)
		}
		e.notifier.Notify(message)
	}

	return result
}

// client returns the shared fasthttp client matching the request's TLS
// verify setting and connect timeout.
func (e *RequestExecutor) client(spec *types.Request) *fasthttp.Client {
	key := clientKey{verify: spec.Verify, connect: spec.ConnectTimeout}

	requestClientsMu.Lock()
	defer requestClientsMu.Unlock()

	if client, ok := requestClients[key]; ok {
		return client
	}

	connectTimeout := spec.ConnectTimeout
	client := &fasthttp.Client{
		MaxConnsPerHost:     128,
		MaxIdleConnDuration: 90 * time.Second,
		TLSConfig:           &tls.Config{InsecureSkipVerify: !spec.Verify},
		Dial: func(addr string) (net.Conn, error) {
			return fasthttp.DialTimeout(addr, connectTimeout)
		},
	}
	requestClients[key] = client
	return client
}

// classifyRequestError maps transport failures onto the request error
// taxonomy: connection errors, timeouts, and generic request errors.
func classifyRequestError(task string, err error, timeout time.Duration) *TaskError {
	switch {
	case errors.Is(err, fasthttp.ErrTimeout), errors.Is(err, fasthttp.ErrDialTimeout):
		return NewRequestError(task, fmt.Sprintf("request timed out after %v", timeout), err)
	case isConnectionError(err):
		return NewRequestError(task, "connection failed", err)
	default:
		return NewRequestError(task, "request failed", err)
	}
}

// isConnectionError reports whether the error is a transport-level
// connection failure.
func isConnectionError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "no such host")
}
