// Package entity contains the core business objects of the project.
package entity

import "time"

// Cluster represents a named group of members sharing one cart. The owner is
// always present in Members and is the only member allowed to check out.
type Cluster struct {
	ID         string     `json:"id" bson:"_id,omitempty"`            // Document id, also used in invite deep links.
	Name       string     `json:"name" bson:"name"`                   // Display name chosen by the owner.
	OwnerPhone string     `json:"owner_phone" bson:"owner_phone"`     // Phone of the creating member.
	MaxPeople  int        `json:"max_people" bson:"max_people"`       // Hard capacity including the owner.
	Members    []string   `json:"members" bson:"members"`             // Member phone numbers, owner included.
	Items      []LineItem `json:"items" bson:"items"`                 // The shared cart.
	IsActive   bool       `json:"is_active" bson:"is_active"`         // Soft-delete flag.
	Version    int64      `json:"version" bson:"version"`             // Optimistic concurrency token for item edits.
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
}

// IsFull reports whether the cluster has reached its member cap.
func (c *Cluster) IsFull() bool {
	return len(c.Members) >= c.MaxPeople
}

// HasMember reports whether the phone is already a member.
func (c *Cluster) HasMember(phone string) bool {
	for _, m := range c.Members {
		if m == phone {
			return true
		}
	}

	return false
}

// IsOwner reports whether the phone belongs to the cluster owner.
func (c *Cluster) IsOwner(phone string) bool {
	return c.OwnerPhone == phone
}
