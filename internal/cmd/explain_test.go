package cmd

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerobounce/zerobounce-cli/pkg/zerobounce"
)

func TestExplainCommand_FuzzyName(t *testing.T) {
	isolateEnv(t)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"explain", "catch all", "-o", "json"}))
	})

	var got statusExplanation
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, zerobounce.StatusCatchAll, got.Name)
	assert.Equal(t, kindStatus, got.Kind)
	assert.Equal(t, zerobounce.StatusDescriptions[zerobounce.StatusCatchAll], got.Description)
}

func TestExplainCommand_SubStatusText(t *testing.T) {
	isolateEnv(t)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"explain", "Mailbox Not Found"}))
	})
	assert.Contains(t, output, "mailbox_not_found")
	assert.Contains(t, output, kindSubStatus)
}

func TestExplainCommand_ListAll(t *testing.T) {
	isolateEnv(t)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"explain", "-o", "jsonl"}))
	})

	lines := strings.Split(strings.TrimSpace(output), "\n")
	assert.Len(t, lines, len(zerobounce.StatusDescriptions)+len(zerobounce.SubStatusDescriptions))

	var first statusExplanation
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, kindStatus, first.Kind)
	assert.Equal(t, zerobounce.StatusAbuse, first.Name)
}

func TestExplainCommand_NoMatch(t *testing.T) {
	isolateEnv(t)

	err := Execute(context.Background(), []string{"explain", "qqqqqq"})
	require.Error(t, err)
	assert.Equal(t, exitUsage, ExitCode(err))
}

func TestAllExplanationsUniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range allExplanations() {
		assert.False(t, seen[e.Name], "duplicate name %s", e.Name)
		seen[e.Name] = true
		assert.NotEmpty(t, e.Description, e.Name)
	}
}
