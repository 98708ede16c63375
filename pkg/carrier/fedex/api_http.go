package fedex

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
	liveBaseURL    = "https://apis.fedex.com"
	sandboxBaseURL = "https://apis-sandbox.fedex.com"
)

// HTTPAPIClient is the production APIClient for the FedEx JSON API. It
// owns the adapter-local token cache: credentials are exchanged for a
// bearer token at /oauth/token and the token is reused until it expires.
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

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("fedex token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, &APIError{
			StatusCode: resp.StatusCode,
			Code:       "TOKEN.EXCHANGE.FAILED",
			Message:    "unable to obtain FedEx access token",
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
			Code:       "TOKEN.EXCHANGE.FAILED",
			Message:    "empty FedEx access token",
		}
	}
	return body.AccessToken, time.Duration(body.ExpiresIn) * time.Second, nil
}

// rateRequest mirrors the FedEx rate quote JSON body.
type rateRequest struct {
	AccountNumber accountNumber `json:"accountNumber"`
	RequestedShipment requestedShipment `json:"requestedShipment"`
}

type accountNumber struct {
	Value string `json:"value"`
}

type requestedShipment struct {
	Shipper       shipmentParty      `json:"shipper"`
	Recipient     shipmentParty      `json:"recipient"`
	PickupType    string             `json:"pickupType"`
	ServiceType   string             `json:"serviceType,omitempty"`
	RateTypes     []string           `json:"rateRequestType"`
	Packages      []requestedPackage `json:"requestedPackageLineItems"`
}

type shipmentParty struct {
	Address jsonAddress `json:"address"`
	Contact *jsonContact `json:"contact,omitempty"`
}

type jsonAddress struct {
	StreetLines         []string `json:"streetLines,omitempty"`
	City                string   `json:"city,omitempty"`
	StateOrProvinceCode string   `json:"stateOrProvinceCode,omitempty"`
	PostalCode          string   `json:"postalCode"`
	CountryCode         string   `json:"countryCode"`
}

type jsonContact struct {
	PersonName  string `json:"personName,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type requestedPackage struct {
	Weight     jsonWeight     `json:"weight"`
	Dimensions *jsonDimension `json:"dimensions,omitempty"`
}

type jsonWeight struct {
	Units string  `json:"units"`
	Value float64 `json:"value"`
}

type jsonDimension struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Units  string  `json:"units"`
}

type rateResponse struct {
	Output struct {
		RateReplyDetails []struct {
			ServiceType string `json:"serviceType"`
			ServiceName string `json:"serviceName"`
			Commit      struct {
				TransitDays struct {
					MinimumTransitTime string `json:"minimumTransitTime"`
				} `json:"transitDays"`
			} `json:"commit"`
			RatedShipmentDetails []struct {
				TotalNetCharge float64 `json:"totalNetCharge"`
				Currency       string  `json:"currency"`
			} `json:"ratedShipmentDetails"`
		} `json:"rateReplyDetails"`
	} `json:"output"`
}

type shipRequest struct {
	AccountNumber     accountNumber `json:"accountNumber"`
	LabelResponseOpts string        `json:"labelResponseOptions"`
	RequestedShipment struct {
		Shipper       shipmentParty      `json:"shipper"`
		Recipients    []shipmentParty    `json:"recipients"`
		ServiceType   string             `json:"serviceType"`
		PackagingType string             `json:"packagingType"`
		PickupType    string             `json:"pickupType"`
		LabelSpec     labelSpec          `json:"labelSpecification"`
		Packages      []requestedPackage `json:"requestedPackageLineItems"`
		CustomsClearanceDetail *customsDetail `json:"customsClearanceDetail,omitempty"`
	} `json:"requestedShipment"`
}

type labelSpec struct {
	ImageType string `json:"imageType"`
	StockType string `json:"labelStockType"`
}

type customsDetail struct {
	TotalCustomsValue struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"totalCustomsValue"`
}

type shipResponse struct {
	Output struct {
		TransactionShipments []struct {
			MasterTrackingNumber string `json:"masterTrackingNumber"`
			PieceResponses       []struct {
				TrackingNumber string `json:"trackingNumber"`
				PackageDocuments []struct {
					EncodedLabel string `json:"encodedLabel"`
					DocType      string `json:"docType"`
				} `json:"packageDocuments"`
			} `json:"pieceResponses"`
		} `json:"transactionShipments"`
	} `json:"output"`
}

type errorResponse struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// GetRates fetches rate quotes for one package.
func (c *HTTPAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	body := rateRequest{
		AccountNumber: accountNumber{Value: req.AccountNumber},
		RequestedShipment: requestedShipment{
			Shipper: shipmentParty{Address: jsonAddress{
				PostalCode:  req.OriginPostal,
				CountryCode: req.OriginCountry,
			}},
			Recipient: shipmentParty{Address: jsonAddress{
				PostalCode:  req.DestPostal,
				CountryCode: req.DestCountry,
			}},
			PickupType:  "DROPOFF_AT_FEDEX_LOCATION",
			ServiceType: req.ServiceCode,
			RateTypes:   []string{"ACCOUNT"},
			Packages: []requestedPackage{{
				Weight: jsonWeight{Units: "LB", Value: req.Weight},
				Dimensions: &jsonDimension{
					Length: req.Length,
					Width:  req.Width,
					Height: req.Height,
					Units:  "IN",
				},
			}},
		},
	}

	var parsed rateResponse
	if err := c.doJSON(ctx, "/rate/v1/rates/quotes", body, &parsed); err != nil {
		return nil, err
	}

	result := &RatesResponse{}
	for _, d := range parsed.Output.RateReplyDetails {
		if len(d.RatedShipmentDetails) == 0 {
			continue
		}
		result.Quotes = append(result.Quotes, Quote{
			ServiceCode: d.ServiceType,
			ServiceName: d.ServiceName,
			TotalCharge: d.RatedShipmentDetails[0].TotalNetCharge,
			Currency:    d.RatedShipmentDetails[0].Currency,
		})
	}
	return result, nil
}

// CreateShipment purchases a label for one package.
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	body := shipRequest{
		AccountNumber:     accountNumber{Value: req.AccountNumber},
		LabelResponseOpts: "LABEL",
	}
	body.RequestedShipment.Shipper = partyToJSON(req.Shipper)
	body.RequestedShipment.Recipients = []shipmentParty{partyToJSON(req.Recipient)}
	body.RequestedShipment.ServiceType = req.ServiceCode
	body.RequestedShipment.PackagingType = "YOUR_PACKAGING"
	body.RequestedShipment.PickupType = "DROPOFF_AT_FEDEX_LOCATION"
	body.RequestedShipment.LabelSpec = labelSpec{ImageType: "PDF", StockType: "PAPER_85X11_TOP_HALF_LABEL"}
	body.RequestedShipment.Packages = []requestedPackage{{
		Weight: jsonWeight{Units: "LB", Value: req.Weight},
		Dimensions: &jsonDimension{
			Length: req.Length,
			Width:  req.Width,
			Height: req.Height,
			Units:  "IN",
		},
	}}
	if req.CustomsValue != "" {
		cd := &customsDetail{}
		cd.TotalCustomsValue.Amount = req.CustomsValue
		cd.TotalCustomsValue.Currency = req.CustomsCurrency
		body.RequestedShipment.CustomsClearanceDetail = cd
	}

	var parsed shipResponse
	if err := c.doJSON(ctx, "/ship/v1/shipments", body, &parsed); err != nil {
		return nil, err
	}

	if len(parsed.Output.TransactionShipments) == 0 {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Code:       "SHIPMENT.EMPTY",
			Message:    "FedEx returned no shipment",
		}
	}

	shipment := parsed.Output.TransactionShipments[0]
	resp := &ShipmentResponse{
		TrackingNumber: shipment.MasterTrackingNumber,
		LabelFormat:    "pdf",
	}
	if len(shipment.PieceResponses) > 0 {
		piece := shipment.PieceResponses[0]
		if piece.TrackingNumber != "" {
			resp.TrackingNumber = piece.TrackingNumber
		}
		if len(piece.PackageDocuments) > 0 {
			resp.LabelData = piece.PackageDocuments[0].EncodedLabel
		}
	}
	return resp, nil
}

func partyToJSON(p Party) shipmentParty {
	lines := []string{p.Line1}
	if p.Line2 != "" {
		lines = append(lines, p.Line2)
	}
	return shipmentParty{
		Address: jsonAddress{
			StreetLines:         lines,
			City:                p.City,
			StateOrProvinceCode: p.StateCode,
			PostalCode:          p.PostalCode,
			CountryCode:         p.CountryCode,
		},
		Contact: &jsonContact{
			PersonName:  p.Name,
			CompanyName: p.Company,
			PhoneNumber: p.Phone,
		},
	}
}

// doJSON runs one bearer-authenticated JSON round trip.
func (c *HTTPAPIClient) doJSON(ctx context.Context, path string, reqBody, respBody any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fedex request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Token may have been revoked server-side; drop it so the next
		// call re-exchanges.
		c.tokens.Invalidate()
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.parseError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var parsed errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil && len(parsed.Errors) > 0 {
		apiErr.Code = parsed.Errors[0].Code
		apiErr.Message = parsed.Errors[0].Message
	} else {
		apiErr.Code = http.StatusText(resp.StatusCode)
		apiErr.Message = "unexpected response from FedEx"
	}
	return apiErr
}
