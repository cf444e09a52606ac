package domain

import "time"

// SessionToken is a signed token plus its absolute expiration. It is built
// fresh per login and never persisted.
type SessionToken struct {
	Token      string    `json:"token"`
	Expiration time.Time `json:"expiration"`
}

// OrphanRecord describes a registration whose compensation failed, leaving
// state behind that an operator has to reconcile.
type OrphanRecord struct {
	UserID            int64     `json:"user_id"`
	Email             string    `json:"email"`
	Step              string    `json:"step"`
	Cause             string    `json:"cause"`
	CompensationError string    `json:"compensation_error"`
	OccurredAt        time.Time `json:"occurred_at"`
}
