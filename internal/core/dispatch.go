package core

// ResolverKind selects which resolution strategy handles a classified
// inquiry.
type ResolverKind int

const (
	// ResolverRewardStatus cross-references the user identity and mailbox
	// delivery logs.
	ResolverRewardStatus ResolverKind = iota
	// ResolverRuleLookup answers from the static category rule table.
	ResolverRuleLookup
)

func (k ResolverKind) String() string {
	switch k {
	case ResolverRewardStatus:
		return "reward-status"
	case ResolverRuleLookup:
		return "rule-lookup"
	default:
		return "unknown"
	}
}

// Dispatch picks the resolution strategy for a classification result. The
// beginner-reward category is the only one needing live lookups; every
// other id, the fallback sentinel included, goes to the rule lookup.
func Dispatch(result ClassificationResult) ResolverKind {
	if result.CategoryID == CategoryBeginnerReward {
		return ResolverRewardStatus
	}
	return ResolverRuleLookup
}
