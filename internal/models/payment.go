package models

import "time"

type Payment struct {
	ID            string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	ContestID     string    `gorm:"size:36;not null;index:idx_payment_contest_email" bson:"contestId" json:"contestId"`
	Email         string    `gorm:"size:255;not null;index:idx_payment_contest_email" bson:"email" json:"email"`
	Amount        float64   `gorm:"not null" bson:"amount" json:"amount"`
	Currency      string    `gorm:"size:10" bson:"currency" json:"currency"`
	TransactionID string    `gorm:"size:255;uniqueIndex;not null" bson:"transactionId" json:"transactionId"`
	SessionID     string    `gorm:"size:255" bson:"sessionId" json:"sessionId"`
	Status        string    `gorm:"size:20;not null" bson:"status" json:"status"`
	PaidAt        time.Time `bson:"paidAt" json:"paidAt"`
}

const PaymentStatusPaid = "paid"
