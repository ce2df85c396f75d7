package httpframe

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/edgemcp/pkg/mcpstatus"
)

type fakeInvoker struct {
	gotEnvelope, gotMethod, gotToken string
	result                           mcpstatus.ToolResult
}

func (f *fakeInvoker) Invoke(_ context.Context, envelopeJSON, authMethod, authToken string) (mcpstatus.ToolResult, error) {
	f.gotEnvelope, f.gotMethod, f.gotToken = envelopeJSON, authMethod, authToken
	return f.result, nil
}

func TestInvokeHandler_DispatchesBodyAndBearerToken(t *testing.T) {
	fake := &fakeInvoker{result: mcpstatus.Ok(`{"ok":true}`)}
	handler := invokeHandler(fake)

	req := httptest.NewRequest(http.MethodPost, "/invoke", bytes.NewBufferString(`{"tool":"echo","params":{}}`))
	req.Header.Set("Authorization", "Bearer abc123")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"tool":"echo","params":{}}`, fake.gotEnvelope)
	assert.Equal(t, "jwt", fake.gotMethod)
	assert.Equal(t, "abc123", fake.gotToken)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
}

func TestServer_ListenAndShutdown(t *testing.T) {
	fake := &fakeInvoker{result: mcpstatus.Ok(`{}`)}
	srv := New("127.0.0.1:0", fake)

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe() }()

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, <-done)
}
