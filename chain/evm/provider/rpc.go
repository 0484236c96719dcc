package provider

// URLSchemePreference selects which endpoint of an RPC is dialled.
type URLSchemePreference string

const (
	URLSchemePreferenceHTTP URLSchemePreference = "http"
	URLSchemePreferenceWS   URLSchemePreference = "ws"
)

// RPC describes a single node endpoint of a network.
type RPC struct {
	Name               string
	HTTPURL            string
	WSURL              string
	PreferredURLScheme URLSchemePreference
}

// PreferredEndpoint returns the correct endpoint based on the preferred URL scheme. By default, it
// returns the HTTP URL.
func (r RPC) PreferredEndpoint() string {
	if r.PreferredURLScheme == URLSchemePreferenceWS && r.WSURL != "" {
		return r.WSURL
	}

	return r.HTTPURL
}
