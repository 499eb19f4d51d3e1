package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Transfer categories as reported by the webhook provider. Anything
// unrecognized collapses to CategoryOther so downstream code never branches
// on a raw string it has not seen.
const (
	CategoryNative   = "external"
	CategoryToken    = "token"
	CategoryInternal = "internal"
	CategoryOther    = "other"
)

var knownCategories = map[string]struct{}{
	CategoryNative:   {},
	CategoryToken:    {},
	CategoryInternal: {},
}

// WebhookPayload is the push notification envelope.
type WebhookPayload struct {
	WebhookID string `json:"webhookId"`
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	Type      string `json:"type"`
	Event     Event  `json:"event"`
}

type Event struct {
	Network  string     `json:"network"`
	Activity []Transfer `json:"activity"`
}

// Transfer is one observed asset movement, either supplied by the webhook or
// synthesized from a decoded receipt log. Built fresh per notification and
// discarded after one classification pass.
type Transfer struct {
	Category     string           `json:"category"`
	FromAddress  string           `json:"fromAddress"`
	ToAddress    string           `json:"toAddress"`
	Asset        string           `json:"asset"` // display symbol, optional
	Value        *decimal.Decimal `json:"value"` // informational only
	Hash         string           `json:"hash"`
	TokenAddress string           `json:"tokenAddress"`
	RawContract  RawContract      `json:"rawContract"`
}

type RawContract struct {
	Address  string `json:"address"`
	RawValue string `json:"rawValue"`
	Decimals int    `json:"decimals"`
}

// IsToken reports whether the record is a fungible-token movement. Only these
// participate in swap classification.
func (t Transfer) IsToken() bool {
	return t.Category == CategoryToken
}

// NormalizedCategory maps unknown category strings to CategoryOther.
func (t Transfer) NormalizedCategory() string {
	if _, ok := knownCategories[t.Category]; ok {
		return t.Category
	}
	return CategoryOther
}

// ContractAddress returns the lower-cased canonical asset identity. The raw
// contract address wins over the flat tokenAddress field when both are set.
func (t Transfer) ContractAddress() string {
	if t.RawContract.Address != "" {
		return strings.ToLower(t.RawContract.Address)
	}
	return strings.ToLower(t.TokenAddress)
}

// SwapInfo is a classified transaction believed to be a genuine single-asset
// exchange, eligible for replication. TokenInAddress is what gets copy-bought.
type SwapInfo struct {
	TokenIn         string
	TokenOut        string
	TokenInAddress  string
	TokenOutAddress string
	AmountIn        *decimal.Decimal
	AmountOut       *decimal.Decimal
}
