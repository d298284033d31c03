package rules

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
)

// CategoryRule is one record of the static category rule reference file.
type CategoryRule struct {
	ID              int    `json:"id"`
	NameLocal       string `json:"name_local"`
	NameEn          string `json:"name_en"`
	Description     string `json:"description"`
	HandlingSummary string `json:"handling_summary"`
}

// RuleSet is the immutable category rule table, loaded once at startup and
// keyed by category id.
type RuleSet struct {
	byID map[int]CategoryRule
}

// New builds a RuleSet from in-memory rules.
func New(items []CategoryRule) *RuleSet {
	byID := make(map[int]CategoryRule, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return &RuleSet{byID: byID}
}

// Load reads the rule file. A missing file is not fatal: the table is
// simply empty and every lookup reports not found.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Warning: category rule file not found at %s, rule table will be empty", path)
			return &RuleSet{byID: map[int]CategoryRule{}}, nil
		}
		return nil, fmt.Errorf("failed to read category rule file: %w", err)
	}

	var items []CategoryRule
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse category rule file: %w", err)
	}

	byID := make(map[int]CategoryRule, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	log.Printf("Loaded %d category rules from %s", len(byID), path)
	return &RuleSet{byID: byID}, nil
}

// Get returns the rule for a category id.
func (r *RuleSet) Get(id int) (CategoryRule, bool) {
	rule, ok := r.byID[id]
	return rule, ok
}

// HandlingSummary returns the canned handling text for a category id.
func (r *RuleSet) HandlingSummary(id int) (string, bool) {
	rule, ok := r.byID[id]
	return rule.HandlingSummary, ok
}

// All returns every rule ordered by id, for prompt context construction.
func (r *RuleSet) All() []CategoryRule {
	all := make([]CategoryRule, 0, len(r.byID))
	for _, rule := range r.byID {
		all = append(all, rule)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// Len reports how many rules are loaded.
func (r *RuleSet) Len() int {
	return len(r.byID)
}
