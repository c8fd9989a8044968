package models

import (
	"time"
)

// MembershipKind selects one of the "user marked recipe" relations.
type MembershipKind string

const (
	Favorites    MembershipKind = "favorites"
	ShoppingCart MembershipKind = "shopping_cart"
)

// MembershipKinds lists every relation backed by the Membership row shape.
var MembershipKinds = []MembershipKind{Favorites, ShoppingCart}

// Table returns the table holding rows of this kind.
func (k MembershipKind) Table() string {
	switch k {
	case Favorites:
		return "favorites"
	case ShoppingCart:
		return "shopping_carts"
	default:
		panic("unknown membership kind: " + string(k))
	}
}

// Label is the human readable name of the collection.
func (k MembershipKind) Label() string {
	if k == ShoppingCart {
		return "shopping cart"
	}
	return "favorites"
}

// Membership is one (user, recipe) pair. The same struct backs every MembershipKind table;
// the composite unique index is created per table by the migrations.
type Membership struct {
	ID        uint      `gorm:"primarykey"`
	UserID    uint      `gorm:"not null"`
	RecipeID  uint      `gorm:"not null"`
	CreatedAt time.Time
}
