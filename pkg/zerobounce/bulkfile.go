package zerobounce

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// JobType selects the bulk API sub-path.
type JobType string

const (
	JobValidation JobType = "validation"
	JobScoring    JobType = "scoring"
)

// ParseJobType accepts "validation"/"validate" and "scoring"/"score".
// An empty string selects validation.
func ParseJobType(s string) (JobType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "validation", "validate":
		return JobValidation, nil
	case "scoring", "score":
		return JobScoring, nil
	default:
		return "", &ParameterError{Field: "type", Reason: fmt.Sprintf("unknown job type %q", s)}
	}
}

// path prefixes endpoint with the scoring sub-path when needed.
func (j JobType) path(endpoint string) string {
	if j == JobScoring {
		return "scoring/" + endpoint
	}
	return endpoint
}

func (j JobType) String() string {
	if j == "" {
		return string(JobValidation)
	}
	return string(j)
}

// Bulk file processing states, as reported by the service.
const (
	FileStatusQueued     = "Queued"
	FileStatusProcessing = "Processing"
	FileStatusComplete   = "Complete"
)

// BulkFile describes an uploaded validation or scoring job.
type BulkFile struct {
	FileID             string    `json:"file_id"`
	FileName           string    `json:"file_name"`
	UploadDate         string    `json:"upload_date"`
	UploadedAt         time.Time `json:"uploaded_at,omitzero"`
	Status             string    `json:"file_status"`
	CompletePercentage string    `json:"complete_percentage"`
	Percent            int       `json:"percent"`
	ReturnURL          string    `json:"return_url,omitempty"`
}

func (f *BulkFile) IsQueued() bool     { return strings.EqualFold(f.Status, FileStatusQueued) }
func (f *BulkFile) IsProcessing() bool { return strings.EqualFold(f.Status, FileStatusProcessing) }
func (f *BulkFile) IsComplete() bool   { return strings.EqualFold(f.Status, FileStatusComplete) }

type bulkFilePayload struct {
	Success            FlexBool   `json:"success"`
	FileID             FlexString `json:"file_id"`
	FileName           FlexString `json:"file_name"`
	UploadDate         FlexString `json:"upload_date"`
	FileStatus         FlexString `json:"file_status"`
	CompletePercentage FlexString `json:"complete_percentage"`
	ReturnURL          FlexString `json:"return_url"`
}

// Upload dates look like "12/12/2019 8:40:05 PM"; newer responses use ISO form.
var uploadDateLayouts = []string{
	"1/2/2006 3:04:05 PM",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseUploadDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range uploadDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parsePercent turns "42%" or "42.5" into 42.
func parsePercent(raw string) int {
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

func (p bulkFilePayload) toBulkFile() *BulkFile {
	f := &BulkFile{
		FileID:             string(p.FileID),
		FileName:           string(p.FileName),
		UploadDate:         string(p.UploadDate),
		Status:             string(p.FileStatus),
		CompletePercentage: string(p.CompletePercentage),
		ReturnURL:          string(p.ReturnURL),
	}
	f.UploadedAt = parseUploadDate(f.UploadDate)
	f.Percent = parsePercent(f.CompletePercentage)
	return f
}
