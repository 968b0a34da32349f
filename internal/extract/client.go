// Package extract talks to the upstream extraction model. The model itself is
// a black box: media goes in, a candidate document per the fixed schema comes
// out. Numbers in the response are decoded leniently because the model emits
// them as strings with locale separators often enough.
package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"salebook/internal"
	"salebook/internal/config"
	"salebook/internal/util"
)

type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

type extractRequest struct {
	Media      string `json:"media"`
	MediaType  string `json:"mediaType"`
	IntentHint string `json:"intentHint,omitempty"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.ExtractTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.ExtractRateRPS),
	}
}

// Extract submits one media payload and returns the decoded candidate
// document. An unrecognized intent value degrades to IntentUnclear.
func (c *Client) Extract(ctx context.Context, media []byte, mediaType string, intentHint internal.Intent) (internal.CandidateDocument, error) {
	if strings.TrimSpace(c.cfg.ExtractAPIToken) == "" {
		return internal.CandidateDocument{}, errors.New("missing EXTRACT_API_TOKEN")
	}

	reqBody, err := json.Marshal(extractRequest{
		Media:      base64.StdEncoding.EncodeToString(media),
		MediaType:  mediaType,
		IntentHint: string(intentHint),
	})
	if err != nil {
		return internal.CandidateDocument{}, err
	}

	data, err := c.postJSON(ctx, "extract", reqBody)
	if err != nil {
		return internal.CandidateDocument{}, err
	}

	var loose looseDocument
	if err := json.Unmarshal(data, &loose); err != nil {
		return internal.CandidateDocument{}, fmt.Errorf("decode candidate document: %w", err)
	}
	return loose.toDocument(), nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	u := strings.TrimRight(c.cfg.ExtractAPIBaseURL, "/") + "/" + endpoint

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		c.limiter.WaitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.ExtractAPIToken)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("extract status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("extract api error: status=%d body=%s", resp.StatusCode, string(respBody))
		}

		var apiResp apiResponse
		if err := json.Unmarshal(respBody, &apiResp); err != nil {
			return nil, err
		}
		if !apiResp.Success {
			return nil, fmt.Errorf("extract api unsuccessful: %s", string(apiResp.Errors))
		}
		return apiResp.Data, nil
	}

	if lastErr == nil {
		lastErr = errors.New("extract request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// looseNumber accepts a JSON number, a numeric string ("58.000", "1,5"), or
// null. Unparseable strings decode to nil rather than failing the document.
type looseNumber struct {
	value *float64
}

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "null" {
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if parsed, ok := util.ParseLooseNumber(s); ok {
			n.value = &parsed
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	n.value = &f
	return nil
}

type looseLine struct {
	ItemNameText string      `json:"itemNameText"`
	Quantity     looseNumber `json:"quantity"`
	UnitNameText *string     `json:"unitNameText"`
	UnitPrice    looseNumber `json:"unitPrice"`
	VatPercent   looseNumber `json:"vatPercent"`
}

type looseUnit struct {
	Name             string      `json:"name"`
	ConversionFactor looseNumber `json:"conversionFactor"`
	Price            looseNumber `json:"price"`
	VatPercent       looseNumber `json:"vatPercent"`
}

type looseProduct struct {
	Name         string                        `json:"name"`
	BrandText    *string                       `json:"brandText"`
	CatalogTexts []string                      `json:"catalogTexts"`
	Attributes   []internal.CandidateAttribute `json:"attributes"`
	Units        []looseUnit                   `json:"units"`
}

type looseDocument struct {
	DetectedLanguage string        `json:"detectedLanguage"`
	RawText          string        `json:"rawText"`
	Intent           string        `json:"intent"`
	CustomerNameText *string       `json:"customerNameText"`
	SupplierNameText *string       `json:"supplierNameText"`
	Lines            []looseLine   `json:"lines"`
	Product          *looseProduct `json:"product"`
}

func (d looseDocument) toDocument() internal.CandidateDocument {
	doc := internal.CandidateDocument{
		DetectedLanguage: d.DetectedLanguage,
		RawText:          d.RawText,
		Intent:           parseIntent(d.Intent),
		CustomerNameText: trimPtr(d.CustomerNameText),
		SupplierNameText: trimPtr(d.SupplierNameText),
	}

	for _, line := range d.Lines {
		doc.Lines = append(doc.Lines, internal.CandidateLine{
			ItemNameText: strings.TrimSpace(line.ItemNameText),
			Quantity:     line.Quantity.value,
			UnitNameText: trimPtr(line.UnitNameText),
			UnitPrice:    line.UnitPrice.value,
			VatPercent:   line.VatPercent.value,
		})
	}

	if d.Product != nil {
		product := internal.CandidateProduct{
			Name:         strings.TrimSpace(d.Product.Name),
			BrandText:    trimPtr(d.Product.BrandText),
			CatalogTexts: d.Product.CatalogTexts,
			Attributes:   d.Product.Attributes,
		}
		for _, u := range d.Product.Units {
			product.Units = append(product.Units, internal.CandidateUnit{
				Name:             strings.TrimSpace(u.Name),
				ConversionFactor: u.ConversionFactor.value,
				Price:            u.Price.value,
				VatPercent:       u.VatPercent.value,
			})
		}
		doc.Product = &product
	}

	return doc
}

func parseIntent(raw string) internal.Intent {
	switch internal.Intent(strings.TrimSpace(raw)) {
	case internal.IntentCreateOrder:
		return internal.IntentCreateOrder
	case internal.IntentCreateProduct:
		return internal.IntentCreateProduct
	case internal.IntentCreateImportSlip:
		return internal.IntentCreateImportSlip
	default:
		return internal.IntentUnclear
	}
}

func trimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return util.StringPtr(trimmed)
}
