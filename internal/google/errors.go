package google

// ConfigurationError reports missing OAuth client credentials or a missing
// token for an account.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "google configuration error: " + e.Reason
}
