package model

// VersionInfo contains version information for the application.
type VersionInfo struct {
	AppVersion string `json:"appVersion"`
	DbVersion  int64  `json:"dbVersion"`
}

// Stats counts the stored records. AccountID is set when the counts are
// scoped to one account.
type Stats struct {
	AccountID    *int64 `json:"accountId,omitempty"`
	Accounts     int    `json:"accounts"`
	Transactions int    `json:"transactions"`
	Assets       int    `json:"assets"`
	PricePoints  int    `json:"pricePoints"`
}
