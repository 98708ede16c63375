package canadapost

// Credentials holds the Canada Post API secrets. Credentials are sent with
// every call (basic auth); no token exchange is involved.
type Credentials struct {
	CustomerNumber string
	Username       string
	Password       string
	Sandbox        bool
}

// CredentialKeys returns the ordered configuration keys the credentials
// are built from.
func CredentialKeys() []string {
	return []string{
		"CANADAPOST_CUSTOMER_NUMBER",
		"CANADAPOST_USERNAME",
		"CANADAPOST_PASSWORD",
		"CANADAPOST_SANDBOX",
	}
}
