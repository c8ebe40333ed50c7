// internal/model/communication_log.go
package model

import "time"

const (
	LogStatusSent    = "sent"
	LogStatusFailed  = "failed"
	LogStatusPending = "pending"
)

// CommunicationLog records one delivery attempt to one recipient. Customer
// name and email are copied at send time.
type CommunicationLog struct {
	ID            string    `json:"id"`
	CampaignID    string    `json:"campaignId"`
	CustomerID    string    `json:"customerId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	Message       string    `json:"message"`
	Status        string    `json:"status"` // sent, failed, pending
	SentAt        time.Time `json:"sentAt"`
	CreatedAt     time.Time `json:"createdAt"`
}
