package extract

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"salebook/internal"
	"salebook/internal/config"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testClient(fn roundTripFunc) *Client {
	cfg := config.Config{
		ExtractAPIBaseURL: "https://extract.test/api/v1",
		ExtractAPIToken:   "token-123",
		ExtractRateRPS:    1000,
		ExtractTimeoutMs:  5000,
	}
	c := NewClient(cfg)
	c.httpClient = &http.Client{Transport: fn}
	return c
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestExtractDecodesLooseNumbers(t *testing.T) {
	payload := `{
		"success": true,
		"data": {
			"detectedLanguage": "vi",
			"rawText": "bán cho chị Lan 5 lốc tiger",
			"intent": "create_order",
			"customerNameText": " chị Lan ",
			"lines": [
				{"itemNameText": "tiger", "quantity": 5, "unitNameText": "lốc", "unitPrice": "58.000", "vatPercent": null}
			]
		}
	}`

	var gotAuth string
	client := testClient(func(req *http.Request) (*http.Response, error) {
		gotAuth = req.Header.Get("Authorization")
		return jsonResponse(200, payload), nil
	})

	doc, err := client.Extract(context.Background(), []byte("audio"), "audio/m4a", internal.IntentCreateOrder)
	if err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer token-123" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if doc.Intent != internal.IntentCreateOrder {
		t.Fatalf("intent = %s", doc.Intent)
	}
	if doc.CustomerNameText == nil || *doc.CustomerNameText != "chị Lan" {
		t.Fatalf("customer = %v", doc.CustomerNameText)
	}
	line := doc.Lines[0]
	if line.Quantity == nil || *line.Quantity != 5 {
		t.Fatalf("quantity = %v", line.Quantity)
	}
	if line.UnitPrice == nil || *line.UnitPrice != 58000 {
		t.Fatalf("string price should decode with locale separators, got %v", line.UnitPrice)
	}
	if line.VatPercent != nil {
		t.Fatalf("null vat should stay nil, got %v", *line.VatPercent)
	}
}

func TestExtractUnknownIntentDegradesToUnclear(t *testing.T) {
	payload := `{"success": true, "data": {"intent": "buy_a_boat", "rawText": "..." }}`
	client := testClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, payload), nil
	})

	doc, err := client.Extract(context.Background(), []byte("audio"), "audio/m4a", "")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Intent != internal.IntentUnclear {
		t.Fatalf("intent = %s", doc.Intent)
	}
}

func TestExtractRetriesOnServerError(t *testing.T) {
	calls := 0
	payload := `{"success": true, "data": {"intent": "create_order"}}`
	client := testClient(func(req *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return jsonResponse(500, `{"success": false}`), nil
		}
		return jsonResponse(200, payload), nil
	})

	doc, err := client.Extract(context.Background(), []byte("audio"), "audio/m4a", "")
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d", calls)
	}
	if doc.Intent != internal.IntentCreateOrder {
		t.Fatalf("intent = %s", doc.Intent)
	}
}

func TestExtractDoesNotRetryClientError(t *testing.T) {
	calls := 0
	client := testClient(func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(400, `{"success": false, "errors": "bad media"}`), nil
	})

	if _, err := client.Extract(context.Background(), []byte("audio"), "audio/m4a", ""); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("client errors must not be retried, calls = %d", calls)
	}
}

func TestExtractUnsuccessfulEnvelope(t *testing.T) {
	client := testClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"success": false, "errors": {"media": "unreadable"}}`), nil
	})
	if _, err := client.Extract(context.Background(), []byte("audio"), "audio/m4a", ""); err == nil {
		t.Fatal("expected error for unsuccessful envelope")
	}
}

func TestExtractRequiresToken(t *testing.T) {
	client := NewClient(config.Config{ExtractAPIBaseURL: "https://extract.test"})
	if _, err := client.Extract(context.Background(), []byte("audio"), "audio/m4a", ""); err == nil {
		t.Fatal("expected error without token")
	}
}

func TestLooseNumberUnparseableStringStaysNil(t *testing.T) {
	var line looseLine
	if err := json.Unmarshal([]byte(`{"itemNameText": "tiger", "quantity": "vài"}`), &line); err != nil {
		t.Fatal(err)
	}
	if line.Quantity.value != nil {
		t.Fatalf("quantity = %v", *line.Quantity.value)
	}
}
