package zerobounce

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"strings"
	"time"
)

// Request describes a single API call. It is built once per call and never mutated.
type Request struct {
	Method     string
	BaseURL    string
	Path       string
	Params     *ParamSet
	Timeout    time.Duration
	UploadPath string // local file sent as multipart "file", empty when not uploading
}

// NewRequest builds a request descriptor. A leading slash on path is dropped.
func NewRequest(method, baseURL, path string, params *ParamSet, timeout time.Duration, uploadPath string) *Request {
	if params == nil {
		params = NewParamSet()
	}
	return &Request{
		Method:     strings.ToUpper(method),
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		Path:       strings.TrimPrefix(path, "/"),
		Params:     params,
		Timeout:    timeout,
		UploadPath: uploadPath,
	}
}

// Endpoint returns the URL without a query string.
func (r *Request) Endpoint() string {
	return r.BaseURL + "/" + r.Path
}

// URL returns the full request URL. Uploads carry their parameters in the
// multipart body, so no query string is attached for them.
func (r *Request) URL() string {
	endpoint := r.Endpoint()
	if r.UploadPath != "" {
		return endpoint
	}
	if qs := r.Params.QueryString(); qs != "" {
		return endpoint + "?" + qs
	}
	return endpoint
}

type fingerprintUpload struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

type fingerprintBody struct {
	Method  string             `json:"method"`
	BaseURL string             `json:"base_url"`
	Path    string             `json:"path"`
	Params  [][2]any           `json:"params"`
	Timeout int64              `json:"timeout_ms"`
	Upload  *fingerprintUpload `json:"upload,omitempty"`
}

// Fingerprint returns a stable SHA-256 hex digest of the request's semantic content.
// Uploaded files contribute their path and size, never their bytes.
func (r *Request) Fingerprint() string {
	body := fingerprintBody{
		Method:  r.Method,
		BaseURL: r.BaseURL,
		Path:    r.Path,
		Params:  r.Params.pairs(),
		Timeout: r.Timeout.Milliseconds(),
	}
	if r.UploadPath != "" {
		size := int64(-1)
		if info, err := os.Stat(r.UploadPath); err == nil {
			size = info.Size()
		}
		body.Upload = &fingerprintUpload{Path: r.UploadPath, Size: size}
	}

	// Marshal cannot fail: every value is a string, int, bool or nil.
	data, _ := json.Marshal(body)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
