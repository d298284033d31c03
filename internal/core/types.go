package core

import "playforge.com/cs-triage/internal/store"

// Reserved category ids. BeginnerReward is the only category whose
// resolution needs a live lookup; Fallback is assigned whenever
// classification cannot be completed.
const (
	CategoryBeginnerReward = 1
	CategoryFallback       = 99
)

// BeginnerRewardMessageID is the well-known mailbox message id of the
// new-user tutorial reward.
const BeginnerRewardMessageID = 1

// ClassificationResult is the classify-stage output for one inquiry.
// InquiryID, UserID and InquiryDescription are copied from the source
// inquiry, never produced by the classifier.
type ClassificationResult struct {
	InquiryID          int      `json:"inquiry_id"`
	UserID             string   `json:"user_id"`
	InquiryDescription string   `json:"inquiry_description"`
	CategoryID         int      `json:"category_id"`
	CategoryName       string   `json:"category_name"`
	Confidence         float64  `json:"confidence"`
	Reason             string   `json:"reason"`
	Keywords           []string `json:"keywords"`
}

// CategoryActionResponse is the resolve-stage output for one inquiry.
// MailStatus is populated only on the reward-status path; Success is false
// only when no definitive outcome could be determined (missing identity,
// lookup failure, unknown category).
type CategoryActionResponse struct {
	InquiryID    int               `json:"inquiry_id"`
	UserID       string            `json:"user_id"`
	UserNumberID int64             `json:"user_number_id,omitempty"`
	Success      bool              `json:"success"`
	Message      string            `json:"message"`
	MailStatus   *store.MailStatus `json:"mail_status,omitempty"`
}
