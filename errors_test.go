package sdk

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		Status:     http.StatusText(status),
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestDecodeAPIErrorUnwrapsEnvelopes(t *testing.T) {
	cases := []struct {
		name        string
		status      int
		body        string
		wantKind    ErrorKind
		wantMessage string
	}{
		{"top-level message", http.StatusForbidden, `{"message":"access denied"}`, KindPermissionDenied, "access denied"},
		{"error alias", http.StatusNotFound, `{"error":"no such account"}`, KindResourceNotFound, "no such account"},
		{"data envelope wins", http.StatusBadRequest, `{"message":"outer","data":{"message":"inner"}}`, KindClientError, "inner"},
		{"empty body", http.StatusInternalServerError, ``, KindServerError, ""},
		{"non-json body", http.StatusBadGateway, `upstream exploded`, KindServerError, ""},
	}
	for _, tc := range cases {
		err := decodeAPIError(fakeResponse(tc.status, tc.body))
		apiErr, ok := err.(APIError)
		if !ok {
			t.Fatalf("%s: expected APIError, got %T", tc.name, err)
		}
		if apiErr.Kind != tc.wantKind {
			t.Fatalf("%s: expected kind %s, got %s", tc.name, tc.wantKind, apiErr.Kind)
		}
		if tc.wantMessage != "" && apiErr.Message != tc.wantMessage {
			t.Fatalf("%s: expected message %q, got %q", tc.name, tc.wantMessage, apiErr.Message)
		}
		if apiErr.Status != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.status, apiErr.Status)
		}
	}
}

func TestKindHelpers(t *testing.T) {
	if !IsSessionExpired(APIError{Status: 401, Kind: KindSessionExpired}) {
		t.Fatalf("expected session expired")
	}
	if !IsNetworkUnavailable(TransportError{Kind: KindNetworkUnavailable, Message: "down"}) {
		t.Fatalf("expected network unavailable")
	}
	if IsServerError(APIError{Status: 404, Kind: KindResourceNotFound}) {
		t.Fatalf("404 misclassified as server error")
	}
	if KindOf(io.EOF) != "" {
		t.Fatalf("untyped error should have no kind")
	}
}
