package domain

// Item is a purchasable catalog entry. Items are seeded by migration and
// immutable at runtime; price is in major currency units (rubles).
type Item struct {
	ID    int64
	Name  string
	Price float64
}
