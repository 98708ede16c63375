package canadapost

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"time"
)

const (
	liveBaseURL    = "https://soa-gw.canadapost.ca"
	sandboxBaseURL = "https://ct.soa-gw.canadapost.ca"
)

// HTTPAPIClient is the production APIClient speaking the Canada Post
// HTTP/XML protocol with basic auth.
type HTTPAPIClient struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
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

	return &HTTPAPIClient{
		baseURL: baseURL,
		creds:   cfg.Credentials,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// mailingScenario is the XML body for rate requests.
type mailingScenario struct {
	XMLName          xml.Name              `xml:"mailing-scenario"`
	Xmlns            string                `xml:"xmlns,attr"`
	CustomerNumber   string                `xml:"customer-number,omitempty"`
	ParcelCharacter  parcelCharacteristics `xml:"parcel-characteristics"`
	OriginPostalCode string                `xml:"origin-postal-code"`
	Destination      xmlDestination        `xml:"destination"`
}

type parcelCharacteristics struct {
	Weight     float64        `xml:"weight"`
	Dimensions *xmlDimensions `xml:"dimensions,omitempty"`
}

type xmlDimensions struct {
	Length float64 `xml:"length"`
	Width  float64 `xml:"width"`
	Height float64 `xml:"height"`
}

type xmlDestination struct {
	Domestic      *xmlDomestic      `xml:"domestic,omitempty"`
	UnitedStates  *xmlUnitedStates  `xml:"united-states,omitempty"`
	International *xmlInternational `xml:"international,omitempty"`
}

type xmlDomestic struct {
	PostalCode string `xml:"postal-code"`
}

type xmlUnitedStates struct {
	ZipCode string `xml:"zip-code"`
}

type xmlInternational struct {
	CountryCode string `xml:"country-code"`
}

// priceQuotes is the XML response for rates.
type priceQuotes struct {
	XMLName    xml.Name     `xml:"price-quotes"`
	PriceQuote []priceQuote `xml:"price-quote"`
}

type priceQuote struct {
	ServiceCode     string          `xml:"service-code"`
	ServiceLink     serviceLink     `xml:"service-link"`
	PriceDetails    priceDetails    `xml:"price-details"`
	ServiceStandard serviceStandard `xml:"service-standard"`
}

type serviceLink struct {
	ServiceName string `xml:"service-name"`
}

type priceDetails struct {
	Due float64 `xml:"due"`
}

type serviceStandard struct {
	GuaranteedDelivery   bool   `xml:"guaranteed-delivery"`
	ExpectedTransitTime  int    `xml:"expected-transit-time"`
	ExpectedDeliveryDate string `xml:"expected-delivery-date"`
}

// shipmentInfo is the XML body for shipment requests.
type shipmentInfo struct {
	XMLName      xml.Name     `xml:"shipment"`
	Xmlns        string       `xml:"xmlns,attr"`
	DeliverySpec deliverySpec `xml:"delivery-spec"`
}

type deliverySpec struct {
	ServiceCode     string                `xml:"service-code"`
	Sender          xmlParty              `xml:"sender"`
	Destination     xmlParty              `xml:"destination"`
	ParcelCharacter parcelCharacteristics `xml:"parcel-characteristics"`
	Preferences     printPreferences      `xml:"print-preferences"`
	Customs         *xmlCustoms           `xml:"customs,omitempty"`
}

type xmlParty struct {
	Name           string            `xml:"name"`
	Company        string            `xml:"company,omitempty"`
	ContactPhone   string            `xml:"contact-phone,omitempty"`
	AddressDetails xmlAddressDetails `xml:"address-details"`
}

type xmlAddressDetails struct {
	AddressLine1  string `xml:"address-line-1"`
	AddressLine2  string `xml:"address-line-2,omitempty"`
	City          string `xml:"city"`
	ProvState     string `xml:"prov-state"`
	PostalZipCode string `xml:"postal-zip-code"`
	CountryCode   string `xml:"country-code"`
}

type printPreferences struct {
	OutputFormat string `xml:"output-format"`
	Encoding     string `xml:"encoding"`
}

type xmlCustoms struct {
	Currency      string `xml:"currency"`
	ConversionFee string `xml:"conversion-from-cad,omitempty"`
	Amount        string `xml:"amount"`
}

// shipmentInfoResponse is the XML response for shipment creation.
type shipmentInfoResponse struct {
	XMLName        xml.Name `xml:"shipment-info"`
	ShipmentID     string   `xml:"shipment-id"`
	ShipmentStatus string   `xml:"shipment-status"`
	TrackingPIN    string   `xml:"tracking-pin"`
	LabelData      string   `xml:"label-data"`
}

// messages is the XML error response structure.
type messages struct {
	XMLName xml.Name  `xml:"messages"`
	Message []message `xml:"message"`
}

type message struct {
	Code        string `xml:"code"`
	Description string `xml:"description"`
}

// GetRates fetches shipping rates for one parcel.
func (c *HTTPAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	scenario := mailingScenario{
		Xmlns:            "http://www.canadapost.ca/ws/ship/rate-v4",
		CustomerNumber:   req.CustomerNumber,
		OriginPostalCode: req.OriginPostal,
		ParcelCharacter: parcelCharacteristics{
			Weight: req.Weight,
		},
	}

	if req.Dimensions.Length > 0 {
		scenario.ParcelCharacter.Dimensions = &xmlDimensions{
			Length: req.Dimensions.Length,
			Width:  req.Dimensions.Width,
			Height: req.Dimensions.Height,
		}
	}

	switch {
	case req.Destination.Domestic != nil:
		scenario.Destination.Domestic = &xmlDomestic{
			PostalCode: req.Destination.Domestic.PostalCode,
		}
	case req.Destination.International != nil && req.Destination.International.CountryCode == "US":
		scenario.Destination.UnitedStates = &xmlUnitedStates{
			ZipCode: req.Destination.International.PostalCode,
		}
	case req.Destination.International != nil:
		scenario.Destination.International = &xmlInternational{
			CountryCode: req.Destination.International.CountryCode,
		}
	}

	body, err := xml.Marshal(scenario)
	if err != nil {
		return nil, fmt.Errorf("marshaling rate request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/rs/ship/price", "application/vnd.cpc.ship.rate-v4+xml", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var quotes priceQuotes
	if err := xml.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return nil, fmt.Errorf("decoding rate response: %w", err)
	}

	result := &RatesResponse{Quotes: make([]Quote, len(quotes.PriceQuote))}
	for i, q := range quotes.PriceQuote {
		result.Quotes[i] = Quote{
			ServiceCode:        q.ServiceCode,
			ServiceName:        q.ServiceLink.ServiceName,
			TotalPrice:         q.PriceDetails.Due,
			ExpectedTransit:    q.ServiceStandard.ExpectedTransitTime,
			ExpectedDelivery:   q.ServiceStandard.ExpectedDeliveryDate,
			GuaranteedDelivery: q.ServiceStandard.GuaranteedDelivery,
		}
	}
	return result, nil
}

// CreateShipment purchases a label for one parcel.
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	info := shipmentInfo{
		Xmlns: "http://www.canadapost.ca/ws/shipment-v8",
		DeliverySpec: deliverySpec{
			ServiceCode: req.ServiceCode,
			Sender:      partyToXML(req.Sender),
			Destination: partyToXML(req.Destination),
			ParcelCharacter: parcelCharacteristics{
				Weight: req.Weight,
				Dimensions: &xmlDimensions{
					Length: req.Dimensions.Length,
					Width:  req.Dimensions.Width,
					Height: req.Dimensions.Height,
				},
			},
			Preferences: printPreferences{OutputFormat: "8.5x11", Encoding: "PDF"},
		},
	}
	if req.CustomsAmount != "" {
		info.DeliverySpec.Customs = &xmlCustoms{
			Currency: req.CustomsCurrency,
			Amount:   req.CustomsAmount,
		}
	}

	body, err := xml.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("marshaling shipment request: %w", err)
	}

	path := fmt.Sprintf("/rs/%s/%s/shipment", req.CustomerNumber, req.CustomerNumber)
	resp, err := c.doRequest(ctx, http.MethodPost, path, "application/vnd.cpc.shipment-v8+xml", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	var created shipmentInfoResponse
	if err := xml.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decoding shipment response: %w", err)
	}

	return &ShipmentResponse{
		ShipmentID:  created.ShipmentID,
		TrackingPIN: created.TrackingPIN,
		LabelData:   created.LabelData,
		LabelFormat: "pdf",
	}, nil
}

func partyToXML(p Party) xmlParty {
	return xmlParty{
		Name:         p.Name,
		Company:      p.Company,
		ContactPhone: p.Phone,
		AddressDetails: xmlAddressDetails{
			AddressLine1:  p.AddressLine1,
			AddressLine2:  p.AddressLine2,
			City:          p.City,
			ProvState:     p.Province,
			PostalZipCode: p.PostalCode,
			CountryCode:   p.CountryCode,
		},
	}
}

func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path, contentType string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.creds.Username, c.creds.Password)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("canadapost request failed: %w", err)
	}
	return resp, nil
}

// parseError converts a non-2xx response body into an APIError.
func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var msgs messages
	if err := xml.NewDecoder(resp.Body).Decode(&msgs); err == nil && len(msgs.Message) > 0 {
		apiErr.Code = msgs.Message[0].Code
		apiErr.Description = msgs.Message[0].Description
	} else {
		apiErr.Code = http.StatusText(resp.StatusCode)
		apiErr.Description = "unexpected response from Canada Post"
	}
	return apiErr
}
