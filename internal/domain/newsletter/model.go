package newsletter

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber lifecycle: pending until the confirmation link is followed,
// then confirmed, then unsubscribed. An unsubscribed address may
// re-subscribe, which re-enters pending with a fresh token.
const (
	StatusPending      = "pending"
	StatusConfirmed    = "confirmed"
	StatusUnsubscribed = "unsubscribed"
)

type Subscriber struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	Status         string     `db:"status" json:"status"`
	ConfirmToken   string     `db:"confirm_token" json:"-"`
	SubscribedAt   time.Time  `db:"subscribed_at" json:"subscribed_at"`
	ConfirmedAt    *time.Time `db:"confirmed_at" json:"confirmed_at,omitempty"`
	UnsubscribedAt *time.Time `db:"unsubscribed_at" json:"unsubscribed_at,omitempty"`
}
