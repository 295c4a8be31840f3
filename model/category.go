package model

import "time"

// Category labels expenses. OwnerID == nil marks a global category
// visible to every user; otherwise it is visible to its owner only.
type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	OwnerID   *int      `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// VisibleTo reports whether the category may be referenced by the given user.
func (c *Category) VisibleTo(userID int) bool {
	return c.OwnerID == nil || *c.OwnerID == userID
}
