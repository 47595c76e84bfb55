package models

import "github.com/shopspring/decimal"

// Категории активов. AssetAll даёт доступ ко всем группам.
const (
	AssetCrypto = "crypto"
	AssetStocks = "stocks"
	AssetForex  = "forex"
	AssetGold   = "gold"
	AssetAll    = "all"
)

// Package тариф подписки.
type Package struct {
	ID           int
	Name         string
	Price        decimal.Decimal
	DurationDays int
	Assets       string
}

// PaymentMethod способ оплаты, который показывается пользователю.
type PaymentMethod struct {
	ID      int    `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Details string `json:"details"`
}
