package model

import "time"

// Account types.
const (
	AccountTypeExchange = "exchange"
	AccountTypeWallet   = "wallet"
	AccountTypeBank     = "bank"
	AccountTypeBroker   = "broker"
	AccountTypeOther    = "other"
)

// ValidAccountTypes lists the accepted account types.
var ValidAccountTypes = map[string]bool{
	AccountTypeExchange: true,
	AccountTypeWallet:   true,
	AccountTypeBank:     true,
	AccountTypeBroker:   true,
	AccountTypeOther:    true,
}

// Account groups ledger entries by where the assets are held.
type Account struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Datasource string    `json:"datasource,omitempty"`
	ExternalID string    `json:"externalId,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
