package zerobounce

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zerobounce/zerobounce-cli/internal/debug"
)

// BulkSendFile uploads a CSV/TXT list for asynchronous processing.
// params.EmailAddressColumn is required. After a successful upload the file
// status is fetched for authoritative metadata; if that follow-up fails with a
// transport or protocol error, the metadata from the upload response is
// returned instead.
func (c *Client) BulkSendFile(ctx context.Context, path string, jobType JobType, params BulkSendFileParams) (*BulkFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, requiredParam("file")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	ps := params.paramSet()
	if err := ps.RequireFields("email_address_column"); err != nil {
		return nil, err
	}

	endpoint := jobType.path("sendfile")
	resp, err := c.call(ctx, http.MethodPost, c.bulkAPIBaseURL(), endpoint, ps, path)
	if err != nil {
		return nil, err
	}

	payload, err := bulkSuccess(endpoint, resp, "Unknown error while uploading the file")
	if err != nil {
		return nil, err
	}
	uploaded := payload.toBulkFile()

	status, err := c.BulkFileStatus(ctx, uploaded.FileID, jobType)
	if err != nil {
		if IsTransportError(err) || IsProtocolError(err) {
			if debug.IsEnabled(ctx) {
				slog.Debug("status after upload failed, using upload metadata", "file_id", uploaded.FileID, "error", err)
			}
			return uploaded, nil
		}
		return nil, err
	}
	if status.ReturnURL == "" {
		status.ReturnURL = uploaded.ReturnURL
	}
	return status, nil
}

// BulkFileStatus returns the processing state of an uploaded file.
func (c *Client) BulkFileStatus(ctx context.Context, fileID string, jobType JobType) (*BulkFile, error) {
	params := fileParams(fileID)
	if err := params.RequireFields("file_id"); err != nil {
		return nil, err
	}

	endpoint := jobType.path("filestatus")
	resp, err := c.call(ctx, http.MethodGet, c.bulkAPIBaseURL(), endpoint, params, "")
	if err != nil {
		return nil, err
	}

	payload, err := bulkSuccess(endpoint, resp, "Unknown error while retrieving file info")
	if err != nil {
		return nil, err
	}
	file := payload.toBulkFile()
	if file.FileID == "" {
		file.FileID = fileID
	}
	return file, nil
}

// BulkGetFile downloads the result file of a completed job. The status is
// checked first and no download is attempted until it is Complete.
func (c *Client) BulkGetFile(ctx context.Context, fileID string, jobType JobType) ([]byte, error) {
	status, err := c.BulkFileStatus(ctx, fileID, jobType)
	if err != nil {
		return nil, err
	}
	statusEndpoint := jobType.path("filestatus")
	if !status.IsComplete() {
		return nil, &ProtocolError{Endpoint: statusEndpoint, Message: "Result file is incomplete. " + status.Status}
	}

	endpoint := jobType.path("getfile")
	resp, err := c.call(ctx, http.MethodGet, c.bulkAPIBaseURL(), endpoint, fileParams(fileID), "")
	if err != nil {
		return nil, err
	}

	if obj, ok := resp.PayloadObject(); ok {
		msg := messageFromPayload(obj)
		if msg == "" {
			msg = "Unknown error while receiving file"
		}
		return nil, protocolError(endpoint, resp, msg)
	}
	if len(resp.Body) == 0 {
		return nil, protocolError(endpoint, resp, "Result file is empty")
	}
	return resp.Body, nil
}

// BulkGetFileTo downloads the result file and, when name is not empty,
// delivers it to sink as "<name>.csv" or "<name>.zip" depending on its content.
func (c *Client) BulkGetFileTo(ctx context.Context, fileID string, jobType JobType, name string, sink FileSink) ([]byte, error) {
	content, err := c.BulkGetFile(ctx, fileID, jobType)
	if err != nil {
		return nil, err
	}
	if sink == nil || strings.TrimSpace(name) == "" {
		return content, nil
	}

	ext, contentType := DetectResultType(content)
	fileName := SanitizeFileName(name) + "." + ext
	if err := sink.WriteResultFile(fileName, contentType, content); err != nil {
		return content, fmt.Errorf("deliver result file %s: %w", fileName, err)
	}
	return content, nil
}

// BulkDeleteFile removes an uploaded file and its results.
func (c *Client) BulkDeleteFile(ctx context.Context, fileID string, jobType JobType) (bool, error) {
	params := fileParams(fileID)
	if err := params.RequireFields("file_id"); err != nil {
		return false, err
	}

	endpoint := jobType.path("deletefile")
	resp, err := c.call(ctx, http.MethodGet, c.bulkAPIBaseURL(), endpoint, params, "")
	if err != nil {
		return false, err
	}

	if _, err := bulkSuccess(endpoint, resp, "Unknown error while deleting file"); err != nil {
		return false, err
	}
	return true, nil
}

// bulkSuccess requires a JSON object with a truthy "success" flag and decodes
// it. The payload's message, when present, becomes the error detail.
func bulkSuccess(endpoint string, resp *Response, fallback string) (*bulkFilePayload, error) {
	obj, ok := resp.PayloadObject()
	if !ok {
		return nil, protocolError(endpoint, resp, fallback)
	}
	if !truthy(obj["success"]) {
		msg := messageFromPayload(obj)
		if msg == "" {
			msg = fallback
		}
		return nil, protocolError(endpoint, resp, msg)
	}

	var payload bulkFilePayload
	if !resp.Decode(&payload) {
		return nil, protocolError(endpoint, resp, fallback)
	}
	return &payload, nil
}
