package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueRequestBind(t *testing.T) {
	req := IssueRequest{Name: "  Ana ", Surname: "Diaz", NationalId: "111"}
	require.NoError(t, req.Bind(nil))
	assert.Equal(t, "Ana", req.Name)

	req = IssueRequest{Name: "Ana", Surname: "   ", NationalId: "111"}
	err := req.Bind(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "surname")
}

func TestStatusRequestDecode(t *testing.T) {
	var req StatusRequest
	require.NoError(t, json.Unmarshal([]byte(`{"status":"registered"}`), &req))
	require.NoError(t, req.Bind(nil))
	assert.Equal(t, StatusRegistered, req.Status)

	req = StatusRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"pending entry"}`), &req))
	assert.Equal(t, StatusPending, req.Status)

	req = StatusRequest{}
	assert.Error(t, json.Unmarshal([]byte(`{"status":"gone"}`), &req))

	req = StatusRequest{}
	assert.Error(t, req.Bind(nil))
}

func TestScanRequestBind(t *testing.T) {
	req := ScanRequest{EntryId: 5}
	require.NoError(t, req.Bind(nil))
	assert.Equal(t, int64(5), req.EntryId)

	req = ScanRequest{Code: "17-30111222"}
	require.NoError(t, req.Bind(nil))
	assert.Equal(t, int64(17), req.EntryId)

	req = ScanRequest{}
	assert.Error(t, req.Bind(nil))

	req = ScanRequest{Code: "nonsense"}
	assert.Error(t, req.Bind(nil))
}
