package core

import (
	"context"
	"errors"
	"fmt"
	"log"

	"playforge.com/cs-triage/internal/rules"
	"playforge.com/cs-triage/internal/store"
)

// Lookups is the read-only boundary to the user identity and mailbox
// delivery logs.
type Lookups interface {
	ResolveUserNumber(ctx context.Context, userID string) (*store.UserNumber, error)
	MailState(ctx context.Context, userNumberID int64, messageID int) (store.MailStatus, error)
}

// RewardStatusResolver resolves beginner-reward inquiries by
// cross-referencing the lookup tables. Success means a definitive delivery
// status was determined, whatever that status is; only a missing identity
// or a lookup-layer failure is reported as failure.
type RewardStatusResolver struct {
	lookups Lookups
}

func NewRewardStatusResolver(lookups Lookups) *RewardStatusResolver {
	return &RewardStatusResolver{lookups: lookups}
}

func (r *RewardStatusResolver) Resolve(ctx context.Context, result ClassificationResult) CategoryActionResponse {
	resp := CategoryActionResponse{
		InquiryID: result.InquiryID,
		UserID:    result.UserID,
	}

	userNumber, err := r.lookups.ResolveUserNumber(ctx, result.UserID)
	if errors.Is(err, store.ErrNotFound) {
		resp.Success = false
		resp.Message = "ERROR: user identity not found; manual follow-up by the operations team is required."
		log.Printf("[reward status] inquiry %d, user %s: no identity entry", result.InquiryID, result.UserID)
		return resp
	}
	if err != nil {
		resp.Success = false
		resp.Message = fmt.Sprintf("ERROR: user identity lookup failed: %v", err)
		log.Printf("[reward status] inquiry %d: identity lookup error: %v", result.InquiryID, err)
		return resp
	}
	resp.UserNumberID = userNumber.ID

	state, err := r.lookups.MailState(ctx, userNumber.ID, BeginnerRewardMessageID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		resp.Success = true
		resp.Message = "No mailbox log found: verify the reward was ever sent."
	case err != nil:
		resp.Success = false
		resp.Message = fmt.Sprintf("ERROR: failed to check mail status: %v", err)
		log.Printf("[reward status] inquiry %d: mailbox lookup error: %v", result.InquiryID, err)
		return resp
	default:
		resp.MailStatus = &state
		resp.Success = true
		switch state {
		case store.MailReceived:
			resp.Message = "A delivery log exists: the reward has already been received."
		case store.MailExpired:
			resp.Message = "An expiry log exists: the reward was removed when the mailbox expired."
		case store.MailPending:
			resp.Message = "The reward is waiting in the mailbox: please advise the user to check it."
		default:
			resp.Success = false
			resp.Message = fmt.Sprintf("ERROR: unknown mail state %d", state)
		}
	}

	log.Printf("[reward status] inquiry %d, user %s resolved (state: %v)", result.InquiryID, result.UserID, resp.MailStatus)
	return resp
}

// RuleLookupResolver answers every non-reward category from the immutable
// rule table loaded at startup. It performs no I/O and cannot fail
// transiently.
type RuleLookupResolver struct {
	ruleSet *rules.RuleSet
}

func NewRuleLookupResolver(ruleSet *rules.RuleSet) *RuleLookupResolver {
	return &RuleLookupResolver{ruleSet: ruleSet}
}

func (r *RuleLookupResolver) Resolve(result ClassificationResult) CategoryActionResponse {
	resp := CategoryActionResponse{
		InquiryID: result.InquiryID,
		UserID:    result.UserID,
	}

	summary, ok := r.ruleSet.HandlingSummary(result.CategoryID)
	if !ok {
		resp.Success = false
		resp.Message = fmt.Sprintf("No handling summary found for category id %d.", result.CategoryID)
		log.Printf("[rule lookup] inquiry %d: no handling summary for category %d", result.InquiryID, result.CategoryID)
		return resp
	}

	resp.Success = true
	resp.Message = summary
	log.Printf("[rule lookup] inquiry %d resolved with category %d", result.InquiryID, result.CategoryID)
	return resp
}
