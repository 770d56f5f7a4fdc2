package models

import "github.com/shopspring/decimal"

// ChannelRecord is one channel-reported figure.
type ChannelRecord struct {
	Code     string          `json:"code"`
	Reported decimal.Decimal `json:"reported"`
}
