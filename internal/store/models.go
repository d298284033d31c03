package store

import (
	"fmt"
	"strings"
	"time"
)

// InquiryStatus is the lifecycle state of a support inquiry.
type InquiryStatus string

const (
	StatusNew      InquiryStatus = "NEW"
	StatusResolved InquiryStatus = "RESOLVED"
	StatusOnHold   InquiryStatus = "ONHOLD"
)

// ParseInquiryStatus parses a status column value case-insensitively.
func ParseInquiryStatus(s string) (InquiryStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NEW":
		return StatusNew, nil
	case "RESOLVED":
		return StatusResolved, nil
	case "ONHOLD", "ON_HOLD":
		return StatusOnHold, nil
	default:
		return "", fmt.Errorf("unknown inquiry status %q", s)
	}
}

type Inquiry struct {
	ID          int           `json:"id"`
	UserID      string        `json:"user_id"`
	Description string        `json:"description"`
	Status      InquiryStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// InquiryUpdate is one write-back entry for UpdateByID, keyed by inquiry id.
type InquiryUpdate struct {
	Status          InquiryStatus
	ResponseMessage string
}

// MailStatus is the delivery state of a message in a user's mailbox log.
// Values match the mail_state column of mailbox_logs.
type MailStatus int

const (
	MailPending  MailStatus = 0
	MailReceived MailStatus = 1
	MailExpired  MailStatus = 2
)

func (m MailStatus) String() string {
	switch m {
	case MailPending:
		return "PENDING"
	case MailReceived:
		return "RECEIVED"
	case MailExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// UserNumber maps an external user identifier to the internal numeric id
// used by the mailbox log.
type UserNumber struct {
	ID     int64  `json:"id"`
	UserID string `json:"user_id"`
}
