package entity

import (
	"time"
)

// Deal is an escrow transaction that documents attach to. Deals are created
// and managed by an external service; this service only reads them.
type Deal struct {
	ID           string    `json:"id" firestore:"id"`
	Participants []string  `json:"participants" firestore:"participants"`
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt"`
}

// HasParticipant reports whether uid is a member of the deal. This is the
// whole authorization predicate for document access.
func (d *Deal) HasParticipant(uid string) bool {
	for _, p := range d.Participants {
		if p == uid {
			return true
		}
	}
	return false
}
