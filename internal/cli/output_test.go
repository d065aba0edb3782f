package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_StatusText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success(StatusResult{QueuePath: "kasir-queue.db", Pending: 3, Driver: "pgx"}))

	assert.Equal(t, "Queue:   kasir-queue.db\nPending: 3\nRemote:  offline (pgx)\n", buf.String())
}

func TestOutputFormatter_StatusJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(StatusResult{QueuePath: "kasir-queue.db", Pending: 3, Online: true, Driver: "pgx"}))

	assert.JSONEq(t, `{
		"status": "ok",
		"data": {"queue_path": "kasir-queue.db", "pending": 3, "online": true, "driver": "pgx"}
	}`, buf.String())
}

func TestOutputFormatter_EmptyQueueJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(QueueList{}))

	assert.JSONEq(t, `{"status": "ok", "data": []}`, buf.String())
}

func TestOutputFormatter_QueueListText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	list := QueueList{
		{
			LocalID: 1, ClientRef: "offline_1714554000000_42", Cashier: "cashier-1",
			Total: decimal.NewFromInt(28600), Items: 1,
			QueuedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		},
		{LocalID: 2, Error: "decode payload: unexpected end of JSON input"},
	}
	require.NoError(t, f.Success(list))

	assert.Equal(t,
		"1  offline_1714554000000_42  cashier-1  1 item(s)  28600.00  2024-05-01T09:00:00Z\n"+
			"2  ✗ unreadable: decode payload: unexpected end of JSON input\n",
		buf.String())
}

func TestOutputFormatter_SyncPartialJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}
	result := SyncResult{Attempted: 3, Synced: 2, Failed: 1, Remaining: 1, Errors: []string{"post k: injected failure"}}

	err := f.Error("E_SYNC_PARTIAL", "some queued sales failed to sync", result)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   SyncResult `json:"data"`
		Error  CLIError   `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, result, resp.Data)
	assert.Equal(t, CLIError{Code: "E_SYNC_PARTIAL", Message: "some queued sales failed to sync"}, resp.Error)
}

func TestOutputFormatter_SyncPartialText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}
	result := SyncResult{Attempted: 3, Synced: 2, Failed: 1, Remaining: 1, Errors: []string{"post k: injected failure"}}

	err := f.Error("E_SYNC_PARTIAL", "some queued sales failed to sync", result)

	require.Error(t, err)
	assert.Equal(t, "some queued sales failed to sync", err.Error())
	assert.Equal(t,
		"Synced 2 of 3 queued sale(s)\n  ✗ post k: injected failure\n✗ 1 sale(s) still queued\n",
		buf.String())
}

func TestOutputFormatter_PlainValue(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success("kasir ready"))

	assert.Equal(t, "kasir ready\n", buf.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
			f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: tt.verbose}

			f.VerboseLog("Remote %s reachable: %v", "pgx", false)

			assert.Empty(t, out.String(), "JSON output stays clean")
			if tt.wantLog {
				assert.Equal(t, "Remote pgx reachable: false\n", errOut.String())
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestExitError(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:1: connection refused")
	err := WrapExitError(ExitFailure, "remote unreachable", cause)

	assert.Equal(t, "remote unreachable: dial tcp 127.0.0.1:1: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "remote.dsn is not configured")))
	assert.Equal(t, ExitFailure, GetExitCode(cause), "plain errors exit 1")
}
