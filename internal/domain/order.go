// Package domain defines the core entities of the fusionscan resolver
// toolkit: cross-chain swap-auction orders, market quotes, scored
// opportunities, and the interfaces that stores, caches, and buses implement.
package domain

import (
	"math/big"
)

// OrderStatus is the lifecycle state of a cross-chain auction order as
// reported by the order book. Only pending orders are eligible for scoring.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunding OrderStatus = "refunding"
	OrderStatusUnknown   OrderStatus = "unknown"
)

// Order is an immutable snapshot of an open cross-chain Dutch-auction swap
// order. Amounts are arbitrary-precision integers in the asset's smallest
// unit; they routinely exceed 2^53 and must never pass through float64.
type Order struct {
	OrderHash            string
	SrcChainID           int64
	DstChainID           int64
	MakerAsset           string // 20-byte hex address, normalized lowercase
	TakerAsset           string
	MakingAmount         *big.Int
	TakingAmount         *big.Int
	RemainingMakerAmount *big.Int
	AuctionStartDate     int64 // unix milliseconds
	AuctionEndDate       int64 // unix milliseconds
}

// OrderStatusInfo is the mutable-over-time view of an order fetched at scan
// time. It is intentionally not cached; LastUpdated surfaces the staleness
// the design accepts.
type OrderStatusInfo struct {
	OrderHash   string
	Status      OrderStatus
	LastUpdated int64 // unix milliseconds, 0 when the API omits it
}
