package ipc

import (
	"encoding/json"
	"testing"
)

func TestParseRequestRejectsGarbage(t *testing.T) {
	if _, err := ParseRequest([]byte("not json\n")); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestParseRequestRejectsMissingCommand(t *testing.T) {
	if _, err := ParseRequest([]byte(`{"window_id":1}`)); err == nil {
		t.Fatal("expected an error for a request without a command")
	}
}

func TestParseRequestKeepsRawPayload(t *testing.T) {
	req, err := ParseRequest([]byte(`{"command":"SELECT_VIEW","payload":{"id":3}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var p SelectViewPayload
	if err := json.Unmarshal(req.Payload, &p); err != nil {
		t.Fatalf("payload unmarshal: %v", err)
	}
	if p.ID != 3 {
		t.Fatalf("expected payload ID 3, got %d", p.ID)
	}
}

func TestErrorResponseShape(t *testing.T) {
	resp := NewErrorResponse("boom")
	data, err := resp.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Response
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Status != "ERROR" || decoded.Error != "boom" {
		t.Fatalf("unexpected response %+v", decoded)
	}
}

func TestOKResponseCarriesData(t *testing.T) {
	resp, err := NewOKResponse(CreatedData{ID: 5})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var data CreatedData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("data unmarshal: %v", err)
	}
	if data.ID != 5 {
		t.Fatalf("expected ID 5, got %d", data.ID)
	}
}
