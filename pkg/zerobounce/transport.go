package zerobounce

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/zerobounce/zerobounce-cli/internal/debug"
)

// Transport sends a request and returns whatever HTTP status the server gave.
// Implementations fail only when no status could be obtained.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Send calls f(ctx, req).
func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPTransport is the default Transport, backed by net/http.
type HTTPTransport struct {
	HTTP      *http.Client
	UserAgent string
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a transport with TLS 1.2+ and no client-level timeout;
// per-request timeouts come from the Request descriptor.
func NewHTTPTransport(userAgent string) *HTTPTransport {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12

	return &HTTPTransport{
		HTTP:      &http.Client{Transport: transport},
		UserAgent: userAgent,
	}
}

// Send performs the request. Any HTTP status, including 4xx and 5xx, is
// returned as a Response; interpretation happens in the client.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	var (
		body        io.Reader
		contentType string
		err         error
	)
	if req.UploadPath != "" {
		var buf *bytes.Buffer
		buf, contentType, err = buildUploadBody(req)
		if err != nil {
			return nil, err
		}
		body = buf
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	method := req.Method
	if req.UploadPath != "" {
		method = http.MethodPost
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL(), body)
	if err != nil {
		return nil, &TransportError{Op: "build request", URL: req.Endpoint(), Err: err}
	}
	if t.UserAgent != "" {
		httpReq.Header.Set("User-Agent", t.UserAgent)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	client := t.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		// *url.Error repeats the full URL, api_key included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		if debug.IsEnabled(ctx) {
			slog.Debug("request failed", "method", method, "endpoint", req.Endpoint(), "error", err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TransportError{Op: method, URL: req.Endpoint(), Err: fmt.Errorf("timeout after %s: %w", req.Timeout, err)}
		}
		return nil, &TransportError{Op: method, URL: req.Endpoint(), Err: fmt.Errorf("server not responding: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: method, URL: req.Endpoint(), Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if debug.IsEnabled(ctx) {
		slog.Debug("request complete", "method", method, "endpoint", req.Endpoint(), "status", resp.StatusCode, "bytes", len(respBody), "duration", time.Since(start))
	}

	return NewResponse(resp.StatusCode, respBody), nil
}

// buildUploadBody checks the upload file before any network activity and
// builds the multipart body: the "file" part followed by every parameter field.
func buildUploadBody(req *Request) (*bytes.Buffer, string, error) {
	path, err := filepath.Abs(req.UploadPath)
	if err != nil {
		path = req.UploadPath
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		if err == nil {
			err = errors.New("not a regular file")
		}
		return nil, "", &TransportError{Op: "read upload", URL: req.UploadPath, Err: fmt.Errorf("can't read the input file: %w", err)}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", &TransportError{Op: "read upload", URL: req.UploadPath, Err: fmt.Errorf("can't read the input file: %w", err)}
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filepath.Base(path))))
	header.Set("Content-Type", uploadContentType(path, content))
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", &TransportError{Op: "build upload", URL: req.UploadPath, Err: err}
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", &TransportError{Op: "build upload", URL: req.UploadPath, Err: err}
	}

	fields := req.Params.FieldMap()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := writer.WriteField(key, fields[key]); err != nil {
			return nil, "", &TransportError{Op: "build upload", URL: req.UploadPath, Err: fmt.Errorf("failed to write field %s: %w", key, err)}
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", &TransportError{Op: "build upload", URL: req.UploadPath, Err: err}
	}
	return body, writer.FormDataContentType(), nil
}

// uploadContentType sniffs the MIME type, forcing text/csv for .csv files.
func uploadContentType(path string, content []byte) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return "text/csv"
	}
	mtype := mimetype.Detect(content).String()
	if i := strings.IndexByte(mtype, ';'); i >= 0 {
		mtype = mtype[:i]
	}
	return mtype
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
