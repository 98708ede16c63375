package purolator

// Credentials holds the Purolator E-Ship web service credentials. The key
// and password sign requests with basic auth; the user token rides in the
// SOAP request context header.
type Credentials struct {
	Key               string
	Password          string
	BillingAccount    string
	RegisteredAccount string
	UserToken         string
	Sandbox           bool
}

// CredentialKeys returns the ordered configuration keys the credentials
// are built from.
func CredentialKeys() []string {
	return []string{
		"PUROLATOR_KEY",
		"PUROLATOR_PASSWORD",
		"PUROLATOR_BILLING_ACCOUNT",
		"PUROLATOR_REGISTERED_ACCOUNT",
		"PUROLATOR_USER_TOKEN",
		"PUROLATOR_SANDBOX",
	}
}
