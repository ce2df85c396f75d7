package mcpstatus

import (
	"encoding/json"
	"testing"
)

func TestWireValues(t *testing.T) {
	t.Parallel()
	cases := map[Status]int{
		Success: 0, Error: 1, InvalidParams: 2, NotFound: 3,
		ExecutionError: 4, PermissionDenied: 5, Timeout: 6, NotImplemented: 7,
	}
	for status, want := range cases {
		if int(status) != want {
			t.Errorf("%s = %d, want %d", status, int(status), want)
		}
	}
}

func TestErrorResult(t *testing.T) {
	t.Parallel()
	r := ErrorResult(NotFound, `tool "foo" not registered`)
	if r.Status != NotFound {
		t.Fatalf("Status = %v, want NotFound", r.Status)
	}
	var body struct {
		Error   bool   `json:"error"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(r.ResultJSON), &body); err != nil {
		t.Fatalf("ResultJSON did not parse: %v", err)
	}
	if !body.Error || body.Code != int(NotFound) || body.Message != `tool "foo" not registered` {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestOk(t *testing.T) {
	t.Parallel()
	r := Ok(`{"v":42}`)
	if r.Status != Success {
		t.Errorf("Status = %v, want Success", r.Status)
	}
	if r.ResultJSON != `{"v":42}` {
		t.Errorf("ResultJSON = %q", r.ResultJSON)
	}
}
