package zerobounce

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// routeServer serves fixed handlers per path and counts hits per path.
type routeServer struct {
	*httptest.Server
	mu   sync.Mutex
	hits map[string]int
}

func newRouteServer(t *testing.T, routes map[string]http.HandlerFunc) *routeServer {
	t.Helper()
	rs := &routeServer{hits: map[string]int{}}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.hits[r.URL.Path]++
		rs.mu.Unlock()
		handler, ok := routes[r.URL.Path]
		if !ok {
			t.Errorf("Unexpected request to %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *routeServer) count(path string) int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.hits[path]
}

func (rs *routeServer) client(opts ...Option) *Client {
	opts = append([]Option{WithAPIBaseURL(rs.URL), WithBulkAPIBaseURL(rs.URL)}, opts...)
	return New("test-key", opts...)
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

const completeStatus = `{
	"success": true,
	"file_id": "aaaaaaaa-zzzz-xxxx-yyyy-5003727fffff",
	"file_name": "emails.csv",
	"upload_date": "2/13/2023 4:20:39 PM",
	"file_status": "Complete",
	"complete_percentage": "100%",
	"return_url": "https://example.com/done"
}`

func TestGetCredits(t *testing.T) {
	rs := newRouteServer(t, map[string]http.HandlerFunc{
		"/v2/getcredits": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("Expected GET, got %s", r.Method)
			}
			if r.URL.Query().Get("api_key") != "test-key" {
				t.Errorf("Expected api_key query param, got %q", r.URL.RawQuery)
			}
			jsonHandler(http.StatusOK, `{"Credits":"2375323"}`)(w, r)
		},
	})

	credits, err := rs.client().GetCredits(context.Background())
	if err != nil {
		t.Fatalf("GetCredits error: %v", err)
	}
	if credits != 2375323 {
		t.Errorf("Expected 2375323 credits, got %d", credits)
	}
}

func TestGetCreditsErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"invalid key", `{"Credits":"-1"}`, "invalid API key"},
		{"error field", `{"error":"Invalid API key"}`, "Invalid API key"},
		{"missing field", `{}`, "credits missing from response"},
		{"not json", `<html>`, "credits missing from response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := newRouteServer(t, map[string]http.HandlerFunc{
				"/v2/getcredits": jsonHandler(http.StatusOK, tt.body),
			})
			_, err := rs.client().GetCredits(context.Background())
			if !IsProtocolError(err) {
				t.Fatalf("Expected ProtocolError, got %v", err)
			}
			if err.Error() != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, err.Error())
			}
		})
	}
}

func TestValidateToxic(t *testing.T) {
	rs := newRouteServer(t, map[string]http.HandlerFunc{
		"/v2/validate": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("email") != "toxic@example.com" {
				t.Errorf("Expected email param, got %q", q.Get("email"))
			}
			if q.Get("ip_address") != "99.110.204.1" {
				t.Errorf("Expected ip_address param, got %q", q.Get("ip_address"))
			}
			jsonHandler(http.StatusOK, `{
				"address": "toxic@example.com",
				"status": "do_not_mail",
				"sub_status": "toxic",
				"free_email": false,
				"did_you_mean": null,
				"account": "toxic",
				"domain": "example.com",
				"domain_age_days": "9692",
				"smtp_provider": "example",
				"mx_found": "true",
				"mx_record": "mx.example.com",
				"firstname": "zero",
				"lastname": "bounce",
				"gender": "male",
				"country": null,
				"region": null,
				"city": null,
				"zipcode": null,
				"processed_at": "2020-09-17 17:43:11.829"
			}`)(w, r)
		},
	})

	email, err := rs.client().Validate(context.Background(), "toxic@example.com", "99.110.204.1")
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !email.IsDoNotMail() || !email.IsToxic() {
		t.Errorf("Expected do_not_mail/toxic, got %s/%s", email.Status, email.SubStatus)
	}
	if email.IsValid() || email.IsDisposable() {
		t.Error("Unexpected predicate match")
	}
	if email.DomainAgeDays != 9692 {
		t.Errorf("Expected domain age 9692, got %d", email.DomainAgeDays)
	}
	if !email.MXFound {
		t.Error("Expected mx_found to decode from string")
	}
	if email.HasAnyIPInfo() {
		t.Error("Expected no IP info with null geo fields")
	}
	want := time.Date(2020, 9, 17, 17, 43, 11, 829000000, time.UTC)
	if !email.ProcessedTime().Equal(want) {
		t.Errorf("Expected processed time %v, got %v", want, email.ProcessedTime())
	}
}

func TestValidateErrorField(t *testing.T) {
	rs := newRouteServer(t, map[string]http.HandlerFunc{
		"/v2/validate": jsonHandler(http.StatusOK, `{"error":"Invalid API Key or your account ran out of credits"}`),
	})

	_, err := rs.client().Validate(context.Background(), "user@example.com", "")
	if !IsProtocolError(err) {
		t.Fatalf("Expected ProtocolError, got %v", err)
	}
	if !strings.Contains(err.Error(), "ran out of credits") {
		t.Errorf("Expected service message, got %q", err.Error())
	}
}

func TestGetUsage(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 30, 0, 0, time.UTC)
	rs := newRouteServer(t, map[string]http.HandlerFunc{
		"/v2/getapiusage": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("start_date") != "2019-01-01" || q.Get("end_date") != "2026-10-17" {
				t.Errorf("Unexpected dates: %s", r.URL.RawQuery)
			}
			jsonHandler(http.StatusOK, `{
				"total": 3,
				"status_valid": "1",
				"status_invalid": 2,
				"sub_status_toxic": null,
				"sub_status_mailbox_not_found": 2,
				"start_date": "1/1/2019",
				"end_date": "10/17/2026"
			}`)(w, r)
		},
	})

	client := rs.client(WithNow(func() time.Time { return now }))
	usage, err := client.GetUsage(context.Background(), "2019-01-01", "now")
	if err != nil {
		t.Fatalf("GetUsage error: %v", err)
	}
	if usage.Total != 3 || usage.StatusValid != 1 || usage.StatusInvalid != 2 || usage.SubStatusMailboxNotFound != 2 {
		t.Errorf("Unexpected counters: %+v", usage)
	}
	if usage.SubStatusToxic != 0 {
		t.Errorf("Expected null counter to default to 0, got %d", usage.SubStatusToxic)
	}

	qs := client.Last().Request.Params.QueryString()
	if !strings.Contains(qs, "start_date=2019-01-01") || !strings.Contains(qs, "end_date=2026-10-17") {
		t.Errorf("Unexpected serialized params %q", qs)
	}
}

func TestBulkFileStatus(t *testing.T) {
	rs := newRouteServer(t, map[string]http.HandlerFunc{
		"/v2/filestatus": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("file_id") != "aaaaaaaa-zzzz-xxxx-yyyy-5003727fffff" {
				t.Errorf("Unexpected file_id %q", r.URL.Query().Get("file_id"))
			}
			jsonHandler(http.StatusOK, completeStatus)(w, r)
		},
	})

	file, err := rs.client().BulkFileStatus(context.Background(), "aaaaaaaa-zzzz-xxxx-yyyy-5003727fffff", JobValidation)
	if err != nil {
		t.Fatalf("BulkFileStatus error: %v", err)
	}
	if !file.IsComplete() || file.Percent != 100 {
		t.Errorf("Expected complete at 100%%, got %s at %d", file.Status, file.Percent)
	}
	if !file.UploadedAt.Equal(time.Date(2023, 2, 13, 16, 20, 39, 0, time.UTC)) {
		t.Errorf("Unexpected upload time %v", file.UploadedAt)
	}
	if file.ReturnURL != "https://example.com/done" {
		t.Errorf("Unexpected return url %q", file.ReturnURL)
	}
}

func TestBulkFileStatusFailure(t *testing.T) {
	rs := newRouteServer(t, map[string]http.HandlerFunc{
		"/v2/scoring/filestatus": jsonHandler(http.StatusOK, `{"success":false,"message":"File not found"}`),
	})

	_, err := rs.client().BulkFileStatus(context.Background(), "missing", JobScoring)
	if !IsProtocolError(err) {
		t.Fatalf("Expected ProtocolError, got %v", err)
	}
	if err.Error() != "File not found" {
		t.Errorf("Expected message %q, got %q", "File not found", err.Error())
	}
}

func writeUpload(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emails.csv")
	if err := os.WriteFile(path, []byte("email,name\nuser@example.com,User\n"), 0o600); err != nil {
		t.Fatalf("write upload: %v", err)
	}
	return path
}

const sendAccepted = `{"success":true,"message":"File Accepted","file_name":"emails.csv","file_id":"aaaaaaaa-zzzz-xxxx-yyyy-5003727fffff"}`

func TestBulkSendFile(t *testing.T) {
	rs := newRouteServer(t, map[string]http.HandlerFunc{
		"/v2/sendfile": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("Expected POST, got %s", r.Method)
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			for field, want := range map[string]string{
				"api_key":              "test-key",
				"email_address_column": "1",
				"has_header_row":       "1",
				"return_url":           "https://example.com/done",
			} {
				if got := r.FormValue(field); got != want {
					t.Errorf("Expected %s=%q, got %q", field, want, got)
				}
			}
			file, header, err := r.FormFile("file")
			if err != nil {
				t.Errorf("form file: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = file.Close()
			if header.Filename != "emails.csv" || header.Header.Get("Content-Type") != "text/csv" {
				t.Errorf("Unexpected file part %q (%s)", header.Filename, header.Header.Get("Content-Type"))
			}
			jsonHandler(http.StatusOK, sendAccepted)(w, r)
		},
		"/v2/filestatus": jsonHandler(http.StatusOK, strings.Replace(completeStatus, "Complete", "Queued", 1)),
	})

	file, err := rs.client().BulkSendFile(context.Background(), writeUpload(t), JobValidation, BulkSendFileParams{
		EmailAddressColumn: Int(1),
		HasHeaderRow:       Bool(true),
		ReturnURL:          String("https://example.com/done"),
	})
	if err != nil {
		t.Fatalf("BulkSendFile error: %v", err)
	}
	if !file.IsQueued() {
		t.Errorf("Expected metadata from the status call, got status %q", file.Status)
	}
	if rs.count("/v2/filestatus") != 1 {
		t.Errorf("Expected one follow-up status call, got %d", rs.count("/v2/filestatus"))
	}
}

func TestBulkSendFileToleratesStatusFailure(t *testing.T) {
	rs := newRouteServer(t, map[string]http.HandlerFunc{
		"/v2/scoring/sendfile":   jsonHandler(http.StatusOK, sendAccepted),
		"/v2/scoring/filestatus": jsonHandler(http.StatusServiceUnavailable, "Service Unavailable"),
	})

	file, err := rs.client().BulkSendFile(context.Background(), writeUpload(t), JobScoring, BulkSendFileParams{
		EmailAddressColumn: Int(1),
	})
	if err != nil {
		t.Fatalf("Expected upload success to survive status failure, got %v", err)
	}
	if file.FileID != "aaaaaaaa-zzzz-xxxx-yyyy-5003727fffff" || file.FileName != "emails.csv" {
		t.Errorf("Expected upload metadata, got %+v", file)
	}
}

func TestBulkSendFilePropagatesCacheErrorFromStatus(t *testing.T) {
	rs := newRouteServer(t, map[string]http.HandlerFunc{
		"/v2/sendfile":   jsonHandler(http.StatusOK, sendAccepted),
		"/v2/filestatus": jsonHandler(http.StatusOK, completeStatus),
	})
	cache := newMapCache()
	cache.getErr = func(n int) error {
		if n > 1 {
			return os.ErrDeadlineExceeded
		}
		return nil
	}

	_, err := rs.client(WithCache(cache, 0, "")).BulkSendFile(context.Background(), writeUpload(t), JobValidation, BulkSendFileParams{
		EmailAddressColumn: Int(1),
	})
	if !IsCacheError(err) {
		t.Fatalf("Expected CacheError, got %v", err)
	}
}

func TestBulkSendFileUploadRejected(t *testing.T) {
	rs := newRouteServer(t, map[string]http.HandlerFunc{
		"/v2/sendfile": jsonHandler(http.StatusBadRequest, `{"success":false,"message":["Missing parameter","email_address_column"]}`),
	})

	_, err := rs.client().BulkSendFile(context.Background(), writeUpload(t), JobValidation, BulkSendFileParams{
		EmailAddressColumn: Int(1),
	})
	if !IsProtocolError(err) {
		t.Fatalf("Expected ProtocolError, got %v", err)
	}
	if err.Error() != "Missing parameter. email_address_column" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestBulkSendFileUnreadable(t *testing.T) {
	rs := newRouteServer(t, map[string]http.HandlerFunc{})

	_, err := rs.client().BulkSendFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), JobValidation, BulkSendFileParams{
		EmailAddressColumn: Int(1),
	})
	if !IsTransportError(err) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if rs.count("/v2/sendfile") != 0 {
		t.Error("Expected no request for an unreadable file")
	}
}

func TestBulkGetFileIncomplete(t *testing.T) {
	rs := newRouteServer(t, map[string]http.HandlerFunc{
		"/v2/filestatus": jsonHandler(http.StatusOK, strings.Replace(completeStatus, "Complete", "Processing", 1)),
		"/v2/getfile":    jsonHandler(http.StatusOK, "email\n"),
	})

	_, err := rs.client().BulkGetFile(context.Background(), "file-1", JobValidation)
	if !IsProtocolError(err) {
		t.Fatalf("Expected ProtocolError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Processing") {
		t.Errorf("Expected status in message, got %q", err.Error())
	}
	if rs.count("/v2/getfile") != 0 {
		t.Errorf("Expected no getfile call, got %d", rs.count("/v2/getfile"))
	}
}

func TestBulkGetFile(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"csv content", "email,status\nuser@example.com,valid\n", ""},
		{"json error", `{"success":false,"message":"File not found"}`, "File not found"},
		{"json without message", `{"success":false}`, "Unknown error while receiving file"},
		{"empty", "", "Result file is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := newRouteServer(t, map[string]http.HandlerFunc{
				"/v2/filestatus": jsonHandler(http.StatusOK, completeStatus),
				"/v2/getfile":    jsonHandler(http.StatusOK, tt.body),
			})

			content, err := rs.client().BulkGetFile(context.Background(), "file-1", JobValidation)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("BulkGetFile error: %v", err)
				}
				if string(content) != tt.body {
					t.Errorf("Unexpected content %q", content)
				}
				return
			}
			if !IsProtocolError(err) {
				t.Fatalf("Expected ProtocolError, got %v", err)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("Expected %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestBulkGetFileToDirSink(t *testing.T) {
	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	f, err := zw.Create("results.csv")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	_, _ = f.Write([]byte("email,status\n"))
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	rs := newRouteServer(t, map[string]http.HandlerFunc{
		"/v2/scoring/filestatus": jsonHandler(http.StatusOK, completeStatus),
		"/v2/scoring/getfile": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(archive.Bytes())
		},
	})

	sink := &DirSink{Dir: t.TempDir()}
	content, err := rs.client().BulkGetFileTo(context.Background(), "file-1", JobScoring, "my results!", sink)
	if err != nil {
		t.Fatalf("BulkGetFileTo error: %v", err)
	}
	if !bytes.Equal(content, archive.Bytes()) {
		t.Error("Expected archive content to be returned")
	}
	if filepath.Base(sink.Written) != "myresults.zip" {
		t.Errorf("Expected myresults.zip, got %s", sink.Written)
	}
	written, err := os.ReadFile(sink.Written)
	if err != nil || !bytes.Equal(written, archive.Bytes()) {
		t.Errorf("Expected written archive, err=%v", err)
	}
}

func TestBulkDeleteFile(t *testing.T) {
	rs := newRouteServer(t, map[string]http.HandlerFunc{
		"/v2/deletefile":         jsonHandler(http.StatusOK, `{"success":true,"message":"File Deleted","file_name":"emails.csv","file_id":"file-1"}`),
		"/v2/scoring/deletefile": jsonHandler(http.StatusOK, `{"success":"False","message":["File cannot be deleted","Try again later"]}`),
	})
	client := rs.client()

	ok, err := client.BulkDeleteFile(context.Background(), "file-1", JobValidation)
	if err != nil || !ok {
		t.Fatalf("Expected delete success, got %v, %v", ok, err)
	}

	ok, err = client.BulkDeleteFile(context.Background(), "file-1", JobScoring)
	if ok || !IsProtocolError(err) {
		t.Fatalf("Expected ProtocolError, got %v, %v", ok, err)
	}
	if err.Error() != "File cannot be deleted. Try again later" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestFacadeReusesClientPerKey(t *testing.T) {
	a := Shared("facade-key-a")
	b := Shared("facade-key-a")
	c := Shared("facade-key-b")

	if a != b {
		t.Error("Expected the same client for the same key")
	}
	if a == c {
		t.Error("Expected different clients for different keys")
	}
}
