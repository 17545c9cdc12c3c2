package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usageResponse = `{
	"total": 3,
	"status_valid": 1,
	"status_invalid": 2,
	"status_catch_all": 0,
	"sub_status_mailbox_not_found": "2",
	"start_date": "4/1/2018",
	"end_date": "4/23/2018"
}`

func TestUsageCommand(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/v2/getapiusage", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("start_date") != "2018-04-01" || q.Get("end_date") != "2018-04-23" {
				t.Errorf("dates = %q..%q", q.Get("start_date"), q.Get("end_date"))
			}
			jsonResponse(200, usageResponse)(w, r)
		})
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"usage", "--from", "2018-04-01", "--to", "04/23/2018"}))
	})

	assert.Contains(t, output, "4/1/2018 to 4/23/2018")
	assert.Contains(t, output, "COUNTER")
	assert.Contains(t, output, "mailbox_not_found")
	assert.NotContains(t, output, "catch-all")
}

func TestUsageCommand_JSONWithAliases(t *testing.T) {
	setupTestEnvWithHandler(t, newRouteHandler().On("GET", "/v2/getapiusage", jsonResponse(200, usageResponse)))

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"usage", "--start", "2018-04-01", "--end", "2018-04-23", "-j"}))
	})

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.EqualValues(t, 3, got["total"])
	assert.EqualValues(t, 2, got["sub_status_mailbox_not_found"])
	assert.Equal(t, "4/1/2018", got["start_date"])
}

func TestUsageCommand_MissingStart(t *testing.T) {
	handler := newRouteHandler().On("GET", "/v2/getapiusage", jsonResponse(200, usageResponse))
	setupTestEnvWithHandler(t, handler)

	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"usage"})
	})
	require.Error(t, err)
	assert.Equal(t, exitUsage, ExitCode(err))
	assert.Contains(t, stderr, "start_date")
	assert.Zero(t, handler.count("GET", "/v2/getapiusage"))
}
