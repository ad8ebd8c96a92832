package request

// CreateAccountRequest represents the request body for creating an account
type CreateAccountRequest struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Datasource string `json:"datasource"`
	ExternalID string `json:"externalId"`
	Currency   string `json:"currency"`
}

type UpdateAccountRequest struct {
	Name       *string `json:"name,omitempty"`
	Type       *string `json:"type,omitempty"`
	Datasource *string `json:"datasource,omitempty"`
	ExternalID *string `json:"externalId,omitempty"`
	Currency   *string `json:"currency,omitempty"`
}
