package domain

// LabeledPrice is one invoice line the messaging platform renders,
// amount in minor currency units.
type LabeledPrice struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// Invoice is the outbound payment request handed to the messaging
// collaborator. Payload carries the order token opaquely.
type Invoice struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Payload     string         `json:"payload"`
	Currency    string         `json:"currency"`
	Prices      []LabeledPrice `json:"prices"`
}
