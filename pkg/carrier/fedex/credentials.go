package fedex

// Credentials holds the FedEx OAuth client credentials. They are exchanged
// for a short-lived bearer token; the token cache lives on the API client,
// one per adapter instance.
type Credentials struct {
	ClientID      string
	ClientSecret  string
	AccountNumber string
	Sandbox       bool
}

// CredentialKeys returns the ordered configuration keys the credentials
// are built from.
func CredentialKeys() []string {
	return []string{
		"FEDEX_CLIENT_ID",
		"FEDEX_CLIENT_SECRET",
		"FEDEX_ACCOUNT_NUMBER",
		"FEDEX_SANDBOX",
	}
}
