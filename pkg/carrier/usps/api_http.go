package usps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/parcelgate/shipping/pkg/carrier/auth"
)

const (
	liveBaseURL    = "https://apis.usps.com"
	sandboxBaseURL = "https://apis-tem.usps.com"
)

// noRatesFragment appears in the USPS error message when no mail class
// serves the requested parameters.
const noRatesFragment = "No valid rates for these parameters"

// HTTPAPIClient is the production APIClient for the USPS shipping options
// API. Tokens come from the OAuth2 client-credentials grant and are cached
// until expiry.
type HTTPAPIClient struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	tokens     *auth.TokenSource
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL     string // empty selects live/sandbox from credentials
	Credentials Credentials
	Timeout     time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Credentials.Sandbox {
			baseURL = sandboxBaseURL
		} else {
			baseURL = liveBaseURL
		}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	c := &HTTPAPIClient{
		baseURL: baseURL,
		creds:   cfg.Credentials,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	c.tokens = auth.NewTokenSource(c.exchangeToken)
	return c
}

// exchangeToken performs the client-credentials grant.
func (c *HTTPAPIClient) exchangeToken(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth2/v3/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("usps token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, &APIError{
			StatusCode: resp.StatusCode,
			Message:    "unable to obtain USPS access token",
		}
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, fmt.Errorf("decoding token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", 0, &APIError{
			StatusCode: http.StatusUnauthorized,
			Message:    "empty USPS access token",
		}
	}
	return body.AccessToken, time.Duration(body.ExpiresIn) * time.Second, nil
}

// optionsRequest mirrors the USPS shipping options search body.
type optionsRequest struct {
	PricingOptions               []pricingOption    `json:"pricingOptions"`
	OriginZIPCode                string             `json:"originZIPCode"`
	DestinationZIPCode           string             `json:"destinationZIPCode,omitempty"`
	DestinationCountryCode       string             `json:"destinationCountryCode,omitempty"`
	ForeignPostalCode            string             `json:"foreignPostalCode,omitempty"`
	DestinationEntryFacilityType string             `json:"destinationEntryFacilityType"`
	PackageDescription           packageDescription `json:"packageDescription"`
}

type pricingOption struct {
	PriceType string `json:"priceType"`
}

type packageDescription struct {
	Weight     float64 `json:"weight"`
	WeightUnit string  `json:"weightUnit"`
	Length     float64 `json:"length"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	MailClass  string  `json:"mailClass"`
}

type optionsResponse struct {
	PricingOptions []struct {
		ShippingOptions []struct {
			RateOptions []struct {
				Rates []struct {
					MailClass     string  `json:"mailClass"`
					RateIndicator string  `json:"rateIndicator"`
					ProductName   string  `json:"productName"`
					Price         float64 `json:"price"`
				} `json:"rates"`
			} `json:"rateOptions"`
		} `json:"shippingOptions"`
	} `json:"pricingOptions"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GetRates fetches rate quotes for one package.
func (c *HTTPAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	body := optionsRequest{
		PricingOptions:               []pricingOption{{PriceType: "RETAIL"}},
		OriginZIPCode:                req.OriginZIP,
		DestinationEntryFacilityType: "NONE",
		PackageDescription: packageDescription{
			Weight:     req.Weight,
			WeightUnit: "POUND",
			Length:     req.Length,
			Width:      req.Width,
			Height:     req.Height,
			MailClass:  "ALL_OUTBOUND",
		},
	}
	if req.International {
		body.DestinationCountryCode = req.DestCountry
		body.ForeignPostalCode = req.DestZIP
		body.PackageDescription.MailClass = "ALL"
	} else {
		body.DestinationZIPCode = req.DestZIP
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/shipments/v3/options/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("usps request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var parsed optionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	result := &RatesResponse{}
	for _, po := range parsed.PricingOptions {
		for _, so := range po.ShippingOptions {
			for _, ro := range so.RateOptions {
				for _, r := range ro.Rates {
					if r.ProductName == "" {
						continue
					}
					result.Quotes = append(result.Quotes, Quote{
						ServiceCode: r.MailClass + "-" + r.RateIndicator,
						ServiceName: r.ProductName,
						TotalCharge: r.Price,
						MailClass:   r.MailClass,
						Indicator:   r.RateIndicator,
					})
				}
			}
		}
	}
	return result, nil
}

func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: "invalid shipment parameters"}

	var parsed errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Message = parsed.Error.Message
	}
	return apiErr
}
