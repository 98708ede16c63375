package purolator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"text/template"
	"time"
)

const (
	liveBaseURL    = "https://webservices.purolator.com"
	sandboxBaseURL = "https://devwebservices.purolator.com"

	estimatingPath = "/EWS/V2/Estimating/EstimatingService.asmx"
	shippingPath   = "/EWS/V2/Shipping/ShippingService.asmx"
	documentsPath  = "/EWS/V2/ShippingDocuments/ShippingDocumentsService.asmx"
)

// SOAPAPIClient is the production APIClient for the Purolator E-Ship SOAP
// services. Requests are signed with basic auth; the user token travels in
// the RequestContext header.
type SOAPAPIClient struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
}

// SOAPAPIClientConfig holds configuration for the SOAP client.
type SOAPAPIClientConfig struct {
	BaseURL     string // empty selects live/sandbox from credentials
	Credentials Credentials
	Timeout     time.Duration
}

// NewSOAPAPIClient creates a new SOAP-based API client for production use.
func NewSOAPAPIClient(cfg SOAPAPIClientConfig) *SOAPAPIClient {
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

	return &SOAPAPIClient{
		baseURL: baseURL,
		creds:   cfg.Credentials,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

const soapEnvelopeTemplate = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:v2="http://purolator.com/pws/datatypes/v2">
  <soap:Header>
    <v2:RequestContext>
      <v2:Version>2.0</v2:Version>
      <v2:Language>en</v2:Language>
      <v2:GroupID>xxx</v2:GroupID>
      <v2:RequestReference>{{.RequestRef}}</v2:RequestReference>
      <v2:UserToken>{{.UserToken}}</v2:UserToken>
    </v2:RequestContext>
  </soap:Header>
  <soap:Body>
    {{.Body}}
  </soap:Body>
</soap:Envelope>`

const ratesBodyTemplate = `<v2:GetFullEstimateRequest>
      <v2:Shipment>
        <v2:SenderInformation>
          <v2:Address>
            <v2:Name>{{.SenderName}}</v2:Name>
            <v2:StreetName>{{.SenderStreet}}</v2:StreetName>
            <v2:City>{{.SenderCity}}</v2:City>
            <v2:Province>{{.SenderProvince}}</v2:Province>
            <v2:Country>{{.SenderCountry}}</v2:Country>
            <v2:PostalCode>{{.SenderPostal}}</v2:PostalCode>
          </v2:Address>
        </v2:SenderInformation>
        <v2:ReceiverInformation>
          <v2:Address>
            <v2:Name>{{.ReceiverName}}</v2:Name>
            <v2:StreetName>{{.ReceiverStreet}}</v2:StreetName>
            <v2:City>{{.ReceiverCity}}</v2:City>
            <v2:Province>{{.ReceiverProvince}}</v2:Province>
            <v2:Country>{{.ReceiverCountry}}</v2:Country>
            <v2:PostalCode>{{.ReceiverPostal}}</v2:PostalCode>
          </v2:Address>
        </v2:ReceiverInformation>
        <v2:ShipmentDate>{{.ShipmentDate}}</v2:ShipmentDate>
        <v2:PackageInformation>
          <v2:ServiceID>{{.ServiceID}}</v2:ServiceID>
          <v2:TotalWeight>
            <v2:Value>{{.TotalWeight}}</v2:Value>
            <v2:WeightUnit>{{.WeightUnit}}</v2:WeightUnit>
          </v2:TotalWeight>
          <v2:TotalPieces>{{len .Pieces}}</v2:TotalPieces>
          <v2:PiecesInformation>
            {{range .Pieces}}<v2:Piece>
              <v2:Weight><v2:Value>{{.Weight}}</v2:Value><v2:WeightUnit>{{.WeightUnit}}</v2:WeightUnit></v2:Weight>
              <v2:Length><v2:Value>{{.Length}}</v2:Value><v2:DimensionUnit>{{.DimensionUnit}}</v2:DimensionUnit></v2:Length>
              <v2:Width><v2:Value>{{.Width}}</v2:Value><v2:DimensionUnit>{{.DimensionUnit}}</v2:DimensionUnit></v2:Width>
              <v2:Height><v2:Value>{{.Height}}</v2:Value><v2:DimensionUnit>{{.DimensionUnit}}</v2:DimensionUnit></v2:Height>
            </v2:Piece>
            {{end}}</v2:PiecesInformation>
        </v2:PackageInformation>
        <v2:PaymentInformation>
          <v2:PaymentType>Sender</v2:PaymentType>
          <v2:BillingAccountNumber>{{.BillingAccount}}</v2:BillingAccountNumber>
          <v2:RegisteredAccountNumber>{{.RegisteredAccount}}</v2:RegisteredAccountNumber>
        </v2:PaymentInformation>
        <v2:PickupInformation>
          <v2:PickupType>DropOff</v2:PickupType>
        </v2:PickupInformation>
      </v2:Shipment>
      <v2:ShowAlternativeServicesIndicator>true</v2:ShowAlternativeServicesIndicator>
    </v2:GetFullEstimateRequest>`

const shipmentBodyTemplate = `<v2:CreateShipmentRequest>
      <v2:Shipment>
        <v2:SenderInformation>
          <v2:Address>
            <v2:Name>{{.Sender.Name}}</v2:Name>
            <v2:Company>{{.Sender.Company}}</v2:Company>
            <v2:StreetName>{{.Sender.StreetName}}</v2:StreetName>
            <v2:City>{{.Sender.City}}</v2:City>
            <v2:Province>{{.Sender.Province}}</v2:Province>
            <v2:Country>{{.Sender.Country}}</v2:Country>
            <v2:PostalCode>{{.Sender.PostalCode}}</v2:PostalCode>
            <v2:PhoneNumber><v2:Phone>{{.Sender.Phone}}</v2:Phone></v2:PhoneNumber>
          </v2:Address>
        </v2:SenderInformation>
        <v2:ReceiverInformation>
          <v2:Address>
            <v2:Name>{{.Receiver.Name}}</v2:Name>
            <v2:Company>{{.Receiver.Company}}</v2:Company>
            <v2:StreetName>{{.Receiver.StreetName}}</v2:StreetName>
            <v2:City>{{.Receiver.City}}</v2:City>
            <v2:Province>{{.Receiver.Province}}</v2:Province>
            <v2:Country>{{.Receiver.Country}}</v2:Country>
            <v2:PostalCode>{{.Receiver.PostalCode}}</v2:PostalCode>
            <v2:PhoneNumber><v2:Phone>{{.Receiver.Phone}}</v2:Phone></v2:PhoneNumber>
          </v2:Address>
        </v2:ReceiverInformation>
        <v2:ShipmentDate>{{.ShipmentDate}}</v2:ShipmentDate>
        <v2:PackageInformation>
          <v2:ServiceID>{{.ServiceCode}}</v2:ServiceID>
          <v2:TotalWeight>
            <v2:Value>{{.Piece.Weight}}</v2:Value>
            <v2:WeightUnit>{{.Piece.WeightUnit}}</v2:WeightUnit>
          </v2:TotalWeight>
          <v2:TotalPieces>1</v2:TotalPieces>
          <v2:PiecesInformation>
            <v2:Piece>
              <v2:Weight><v2:Value>{{.Piece.Weight}}</v2:Value><v2:WeightUnit>{{.Piece.WeightUnit}}</v2:WeightUnit></v2:Weight>
              <v2:Length><v2:Value>{{.Piece.Length}}</v2:Value><v2:DimensionUnit>{{.Piece.DimensionUnit}}</v2:DimensionUnit></v2:Length>
              <v2:Width><v2:Value>{{.Piece.Width}}</v2:Value><v2:DimensionUnit>{{.Piece.DimensionUnit}}</v2:DimensionUnit></v2:Width>
              <v2:Height><v2:Value>{{.Piece.Height}}</v2:Value><v2:DimensionUnit>{{.Piece.DimensionUnit}}</v2:DimensionUnit></v2:Height>
            </v2:Piece>
          </v2:PiecesInformation>
        </v2:PackageInformation>
        <v2:PaymentInformation>
          <v2:PaymentType>Sender</v2:PaymentType>
          <v2:BillingAccountNumber>{{.BillingAccount}}</v2:BillingAccountNumber>
          <v2:RegisteredAccountNumber>{{.RegisteredAccount}}</v2:RegisteredAccountNumber>
        </v2:PaymentInformation>
        <v2:PickupInformation>
          <v2:PickupType>DropOff</v2:PickupType>
        </v2:PickupInformation>
      </v2:Shipment>
      <v2:PrinterType>Regular</v2:PrinterType>
    </v2:CreateShipmentRequest>`

const documentsBodyTemplate = `<v2:GetDocumentsRequest>
      <v2:DocumentCriterium>
        <v2:DocumentCriteria>
          <v2:PIN><v2:Value>{{.PIN}}</v2:Value></v2:PIN>
        </v2:DocumentCriteria>
      </v2:DocumentCriterium>
      <v2:OutputType>PDF</v2:OutputType>
      <v2:Synchronous>true</v2:Synchronous>
    </v2:GetDocumentsRequest>`

// GetRates fetches estimates from the EstimatingService.
func (c *SOAPAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	data := struct {
		*RatesRequest
		ShipmentDate      string
		BillingAccount    string
		RegisteredAccount string
	}{
		RatesRequest:      req,
		ShipmentDate:      time.Now().Format("2006-01-02"),
		BillingAccount:    c.creds.BillingAccount,
		RegisteredAccount: c.creds.RegisteredAccount,
	}

	body, err := c.buildEnvelope(ratesBodyTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	env, err := c.doSOAP(ctx, estimatingPath, "GetFullEstimate", body)
	if err != nil {
		return nil, err
	}
	if env.Body.GetFullEstimateResponse == nil {
		return nil, &APIError{Code: "PARSE_ERROR", Description: "no estimate in response"}
	}

	resp := env.Body.GetFullEstimateResponse
	if err := c.responseError(resp.ResponseInformation); err != nil {
		return nil, err
	}

	result := &RatesResponse{}
	for _, est := range resp.ShipmentEstimates.ShipmentEstimate {
		result.Quotes = append(result.Quotes, Quote{
			ServiceCode:          est.ServiceID,
			TotalPrice:           parseFloat(est.TotalPrice),
			ExpectedDeliveryDate: est.ExpectedDeliveryDate,
			TransitDays:          est.EstimatedTransitDays,
		})
	}
	return result, nil
}

// CreateShipment purchases a label for one piece and fetches the PDF from
// the documents service.
func (c *SOAPAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	data := struct {
		*ShipmentRequest
		ShipmentDate      string
		BillingAccount    string
		RegisteredAccount string
	}{
		ShipmentRequest:   req,
		ShipmentDate:      time.Now().Format("2006-01-02"),
		BillingAccount:    c.creds.BillingAccount,
		RegisteredAccount: c.creds.RegisteredAccount,
	}

	body, err := c.buildEnvelope(shipmentBodyTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	env, err := c.doSOAP(ctx, shippingPath, "CreateShipment", body)
	if err != nil {
		return nil, err
	}
	if env.Body.CreateShipmentResponse == nil {
		return nil, &APIError{Code: "PARSE_ERROR", Description: "no shipment in response"}
	}

	resp := env.Body.CreateShipmentResponse
	if err := c.responseError(resp.ResponseInformation); err != nil {
		return nil, err
	}

	pin := resp.ShipmentPIN.Value
	if pin == "" && len(resp.PiecePINs.PIN) > 0 {
		pin = resp.PiecePINs.PIN[0].Value
	}
	if pin == "" {
		return nil, &APIError{Code: "PARSE_ERROR", Description: "no PIN in shipment response"}
	}

	label, err := c.getLabel(ctx, pin)
	if err != nil {
		return nil, err
	}
	return &ShipmentResponse{PIN: pin, LabelData: label, LabelFormat: "pdf"}, nil
}

// getLabel retrieves the label document for a shipment PIN.
func (c *SOAPAPIClient) getLabel(ctx context.Context, pin string) (string, error) {
	body, err := c.buildEnvelope(documentsBodyTemplate, struct{ PIN string }{PIN: pin})
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	env, err := c.doSOAP(ctx, documentsPath, "GetDocuments", body)
	if err != nil {
		return "", err
	}
	if env.Body.GetDocumentsResponse == nil {
		return "", &APIError{Code: "PARSE_ERROR", Description: "no documents in response"}
	}

	resp := env.Body.GetDocumentsResponse
	if err := c.responseError(resp.ResponseInformation); err != nil {
		return "", err
	}

	for _, doc := range resp.Documents.Document {
		for _, detail := range doc.DocumentDetails {
			if detail.Data != "" {
				return detail.Data, nil
			}
			if detail.URL != "" {
				return c.downloadLabel(ctx, detail.URL)
			}
		}
	}
	return "", &APIError{Code: "LABEL_NOT_FOUND", Description: "no label document in response"}
}

// downloadLabel fetches a label by URL and returns it base64 encoded.
func (c *SOAPAPIClient) downloadLabel(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating label request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading label: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Code: "LABEL_NOT_FOUND", Description: "label download failed"}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading label: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func (c *SOAPAPIClient) buildEnvelope(bodyTemplate string, data any) ([]byte, error) {
	bodyTmpl, err := template.New("body").Parse(bodyTemplate)
	if err != nil {
		return nil, err
	}
	var bodyBuf bytes.Buffer
	if err := bodyTmpl.Execute(&bodyBuf, data); err != nil {
		return nil, err
	}

	envTmpl, err := template.New("envelope").Parse(soapEnvelopeTemplate)
	if err != nil {
		return nil, err
	}
	var envBuf bytes.Buffer
	err = envTmpl.Execute(&envBuf, struct {
		RequestRef string
		UserToken  string
		Body       string
	}{
		RequestRef: fmt.Sprintf("req-%d", time.Now().UnixNano()),
		UserToken:  c.creds.UserToken,
		Body:       bodyBuf.String(),
	})
	if err != nil {
		return nil, err
	}
	return envBuf.Bytes(), nil
}

func (c *SOAPAPIClient) doSOAP(ctx context.Context, path, action string, body []byte) (*soapEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	basic := base64.StdEncoding.EncodeToString([]byte(c.creds.Key + ":" + c.creds.Password))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://purolator.com/pws/service/v2/"+action)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("purolator request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &APIError{StatusCode: resp.StatusCode, Code: "UNAUTHORIZED", Description: "unauthorized"}
	}

	var env soapEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{StatusCode: resp.StatusCode, Code: "HTTP_" + strconv.Itoa(resp.StatusCode), Description: "unexpected response from Purolator"}
		}
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if env.Body.Fault != nil {
		return nil, &APIError{
			StatusCode:  resp.StatusCode,
			Code:        env.Body.Fault.Code,
			Description: env.Body.Fault.String,
		}
	}
	return &env, nil
}

// responseError lifts an application-level error from the response header.
func (c *SOAPAPIClient) responseError(info responseInfo) error {
	if len(info.Errors) == 0 {
		return nil
	}
	e := info.Errors[0]
	return &APIError{Code: e.Code, Description: e.Description}
}

type soapEnvelope struct {
	XMLName xml.Name   `xml:"Envelope"`
	Body    soapBody   `xml:"Body"`
}

type soapBody struct {
	Fault                   *soapFault               `xml:"Fault,omitempty"`
	GetFullEstimateResponse *getFullEstimateResponse `xml:"GetFullEstimateResponse,omitempty"`
	CreateShipmentResponse  *createShipmentResponse  `xml:"CreateShipmentResponse,omitempty"`
	GetDocumentsResponse    *getDocumentsResponse    `xml:"GetDocumentsResponse,omitempty"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

type responseInfo struct {
	Errors []responseError `xml:"Errors>Error"`
}

type responseError struct {
	Code        string `xml:"Code"`
	Description string `xml:"Description"`
}

type getFullEstimateResponse struct {
	ResponseInformation responseInfo      `xml:"ResponseInformation"`
	ShipmentEstimates   shipmentEstimates `xml:"ShipmentEstimates"`
}

type shipmentEstimates struct {
	ShipmentEstimate []shipmentEstimate `xml:"ShipmentEstimate"`
}

type shipmentEstimate struct {
	ServiceID            string `xml:"ServiceID"`
	ExpectedDeliveryDate string `xml:"ExpectedDeliveryDate"`
	EstimatedTransitDays int    `xml:"EstimatedTransitDays"`
	TotalPrice           string `xml:"TotalPrice"`
}

type createShipmentResponse struct {
	ResponseInformation responseInfo `xml:"ResponseInformation"`
	ShipmentPIN         soapPIN      `xml:"ShipmentPIN"`
	PiecePINs           piecePINs    `xml:"PiecePINs"`
}

type soapPIN struct {
	Value string `xml:"Value"`
}

type piecePINs struct {
	PIN []soapPIN `xml:"PIN"`
}

type getDocumentsResponse struct {
	ResponseInformation responseInfo  `xml:"ResponseInformation"`
	Documents           soapDocuments `xml:"Documents"`
}

type soapDocuments struct {
	Document []soapDocument `xml:"Document"`
}

type soapDocument struct {
	PIN             soapPIN          `xml:"PIN"`
	DocumentDetails []documentDetail `xml:"DocumentDetails>DocumentDetail"`
}

type documentDetail struct {
	DocumentType string `xml:"DocumentType"`
	URL          string `xml:"URL"`
	Data         string `xml:"Data"` // base64
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

var _ APIClient = (*SOAPAPIClient)(nil)
