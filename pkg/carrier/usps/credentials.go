package usps

// Credentials holds the USPS OAuth client credentials. Like FedEx, USPS
// issues short-lived bearer tokens from a client-credentials grant.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Sandbox      bool
}

// CredentialKeys returns the ordered configuration keys the credentials
// are built from.
func CredentialKeys() []string {
	return []string{
		"USPS_CLIENT_ID",
		"USPS_CLIENT_SECRET",
		"USPS_SANDBOX",
	}
}
