package core

import "time"

type OrderParams struct {
	Port           int
	RequestTimeout time.Duration
	VerifyTotal    bool
}

const (
	MinItems = 1
	MaxItems = 50

	MinItemQuantity = 1
	MaxItemQuantity = 100

	MaxTrackingCodeLen = 32
	MaxSessionIDLen    = 128
	MaxNoteLen         = 500

	MaxFoodNameLen        = 100
	MaxFoodDescriptionLen = 500

	// Money columns are NUMERIC(_, 2).
	MaxPriceDecimals = 2

	DefaultPageLimit = 20
	MaxPageLimit     = 100

	// CheckoutAttempts bounds tracking code regeneration on collisions.
	CheckoutAttempts = 3

	DefaultChangedBy = "order-service"

	PublishTimeout = 5 * time.Second
)
