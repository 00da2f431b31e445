package models

import "time"

// Transaction is a money movement detected in a journal entry. Currency
// conversion happens outside this system; amounts are stored as written.
type Transaction struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"userId" json:"user_id"`
	EntryID   string    `bson:"entryId" json:"entry_id"`
	Amount    float64   `bson:"amount" json:"amount"`
	Currency  string    `bson:"currency" json:"currency"`
	Memo      string    `bson:"memo,omitempty" json:"memo,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
}
