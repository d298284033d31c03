package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchRoutesRewardSentinelToRewardStatus(t *testing.T) {
	result := ClassificationResult{CategoryID: CategoryBeginnerReward}
	assert.Equal(t, ResolverRewardStatus, Dispatch(result))
}

func TestDispatchRoutesEverythingElseToRuleLookup(t *testing.T) {
	for _, id := range []int{0, 2, 3, 6, 8, 42, CategoryFallback, -1} {
		result := ClassificationResult{CategoryID: id}
		assert.Equal(t, ResolverRuleLookup, Dispatch(result), "category id %d", id)
	}
}

func TestResolverKindString(t *testing.T) {
	assert.Equal(t, "reward-status", ResolverRewardStatus.String())
	assert.Equal(t, "rule-lookup", ResolverRuleLookup.String())
}
