// Package auction retrieves running auctions from the CarOnSale buyer API
// and summarizes them.
//
// Gateway authenticates once per process and walks the paginated buyer
// listing. Aggregator reduces the resulting auctions to a Summary.
package auction

// Credentials identify an authenticated buyer session.
type Credentials struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// complete reports whether both fields are present.
func (c Credentials) complete() bool {
	return c.Token != "" && c.UserID != ""
}

// Auction is one running auction as returned by the buyer listing.
// Absent or null numeric fields decode to zero.
type Auction struct {
	ID                     int64   `json:"id"`
	Label                  string  `json:"label"`
	MinimumRequiredAsk     float64 `json:"minimumRequiredAsk"`
	CurrentHighestBidValue float64 `json:"currentHighestBidValue"`
	NumBids                float64 `json:"numBids"`
}

// Page is one slice of the buyer listing.
type Page struct {
	Items []Auction `json:"items"`
	Page  int       `json:"page"`
	Total int       `json:"total"`
}

// Summary holds the figures reported for one monitoring cycle.
type Summary struct {
	NumberOfAuctions                   int     `json:"numberOfAuctions"`
	AverageNumberOfBids                float64 `json:"averageNumberOfBids"`
	AveragePercentageOfAuctionProgress float64 `json:"averagePercentageOfAuctionProgress"`
}
