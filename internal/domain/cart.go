package domain

// CartLine is one (item, quantity) record for a user. At most one line
// exists per (user_id, item_id); quantity is always >= 1.
type CartLine struct {
	UserID   int64  `json:"user_id"`
	ItemID   int64  `json:"item_id"`
	ItemName string `json:"item_name"`
	Quantity int32  `json:"quantity"`
}
