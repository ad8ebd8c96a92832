package request

// SyncHistoryRequest is the body of POST /api/price/history.
type SyncHistoryRequest struct {
	Asset     string   `json:"asset"`
	Quote     string   `json:"quote"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Interval  string   `json:"interval"`
	Providers []string `json:"providers"`
}
