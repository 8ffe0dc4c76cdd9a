package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"factoryqa-data/internal/auth"
)

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) Result[json.RawMessage] {
	t.Helper()
	var result Result[json.RawMessage]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestResolvePin_Success(t *testing.T) {
	h := NewAuthHandler(auth.NewRegistry(), zap.NewNop())

	rec := postJSON(t, h, "/qa/api/v1/auth/resolve", map[string]string{"pin": "1204"})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)
	assert.Equal(t, ResultSuccess, result.Code)

	var payload struct {
		Signatory *auth.Signatory `json:"signatory"`
	}
	require.NoError(t, json.Unmarshal(result.Result, &payload))
	require.NotNil(t, payload.Signatory)
	assert.Equal(t, "Jonathan Tagasa", payload.Signatory.Name)
	assert.Equal(t, "Shift Leader", payload.Signatory.Role)
}

func TestResolvePin_Invalid(t *testing.T) {
	h := NewAuthHandler(auth.NewRegistry(), zap.NewNop())

	rec := postJSON(t, h, "/qa/api/v1/auth/resolve", map[string]string{"pin": "0000"})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)
	assert.Equal(t, ResultError, result.Code)
	assert.Equal(t, "Invalid PIN. Please try again.", result.Message)
}

func TestResolvePin_MethodNotAllowed(t *testing.T) {
	h := NewAuthHandler(auth.NewRegistry(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/qa/api/v1/auth/resolve", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListSignatories(t *testing.T) {
	h := NewAuthHandler(auth.NewRegistry(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/qa/api/v1/auth/signatories", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)
	var signatories []auth.Signatory
	require.NoError(t, json.Unmarshal(result.Result, &signatories))
	assert.Len(t, signatories, 5)
}

func TestPINGate_Authorize(t *testing.T) {
	gate := NewPINGate(auth.NewRegistry())

	newRequest := func(pin string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/qa/api/v1/seed/import", nil)
		if pin != "" {
			req.Header.Set(PinHeader, pin)
		}
		return req
	}

	// 缺 PIN
	_, message, ok := gate.Authorize(newRequest(""), nil)
	assert.False(t, ok)
	assert.Equal(t, "A 4-digit PIN is required to authorize this action.", message)

	// 未知 PIN
	_, message, ok = gate.Authorize(newRequest("9999"), nil)
	assert.False(t, ok)
	assert.Equal(t, "Invalid PIN. Please try again.", message)

	// 任意角色放行
	signatory, _, ok := gate.Authorize(newRequest("4521"), nil)
	require.True(t, ok)
	assert.Equal(t, "Zeus Guillergan", signatory.Name)

	// 角色白名单拒绝
	_, message, ok = gate.Authorize(newRequest("4521"), storeReplaceRoles)
	assert.False(t, ok)
	assert.Equal(t, "Only Factory Manager or Production Manager may authorize this action.", message)

	// 角色白名单放行
	signatory, _, ok = gate.Authorize(newRequest("3387"), storeReplaceRoles)
	require.True(t, ok)
	assert.Equal(t, "Factory Manager", signatory.Role)
}

func TestFormatRoles(t *testing.T) {
	assert.Equal(t, "a registered signatory", formatRoles(nil))
	assert.Equal(t, "Shift Leader", formatRoles([]string{"Shift Leader"}))
	assert.Equal(t, "Shift Leader or Production Manager",
		formatRoles([]string{"Shift Leader", "Production Manager"}))
	assert.Equal(t, "A, B or C", formatRoles([]string{"A", "B", "C"}))
}
