package givehub

import (
	"sort"
	"strings"
)

// SortKey selects the ordering applied by Apply.
type SortKey string

const (
	SortNewest     SortKey = "newest"
	SortEndingSoon SortKey = "endingSoon"
	SortMostFunded SortKey = "mostFunded"
	SortMostDonors SortKey = "mostDonors"
	SortProgress   SortKey = "progress"
)

// FilterAll is the sentinel that disables the category or status
// filter.
const FilterAll = "all"

// Criteria is the full set of client-side filter and sort settings for
// a campaign view.
type Criteria struct {
	// Search is matched case-insensitively as a substring against
	// title, description, category, location, and each tag.
	Search string

	// Category keeps only exact category matches. Empty or "all"
	// disables the filter.
	Category string

	// Status keeps only case-insensitive status matches. Empty or
	// "all" disables the filter.
	Status string

	// FeaturedOnly keeps only featured campaigns when set.
	FeaturedOnly bool

	// SortBy orders the result. An empty or unknown key keeps the
	// input order.
	SortBy SortKey
}

// Apply filters and sorts the given campaigns according to the
// criteria. It is pure: the input slice is never mutated and a fresh
// slice is always returned. The sort is stable, so equal-ranked
// campaigns keep their relative input order. Either the store's cached
// list or any externally supplied list can be passed.
func Apply(campaigns []Campaign, criteria Criteria) []Campaign {
	result := make([]Campaign, 0, len(campaigns))
	for _, c := range campaigns {
		if criteria.matches(c) {
			result = append(result, c)
		}
	}

	sortCampaigns(result, criteria.SortBy)

	return result
}

func (cr Criteria) matches(c Campaign) bool {
	if q := strings.ToLower(strings.TrimSpace(cr.Search)); q != "" && !matchesSearch(c, q) {
		return false
	}

	if cr.Category != "" && cr.Category != FilterAll && c.Category != cr.Category {
		return false
	}

	if cr.Status != "" && cr.Status != FilterAll && !strings.EqualFold(c.Status, cr.Status) {
		return false
	}

	if cr.FeaturedOnly && !c.IsFeatured {
		return false
	}

	return true
}

func matchesSearch(c Campaign, query string) bool {
	for _, field := range []string{c.Title, c.Description, c.Category, c.Location} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}

	for _, tag := range c.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}

	return false
}

func sortCampaigns(campaigns []Campaign, key SortKey) {
	switch key {
	case SortNewest:
		sort.SliceStable(campaigns, func(i, j int) bool {
			return campaigns[i].CreatedAt.After(campaigns[j].CreatedAt)
		})
	case SortEndingSoon:
		// Campaigns without a deadline sort after every campaign that
		// has one.
		sort.SliceStable(campaigns, func(i, j int) bool {
			di, dj := campaigns[i].Deadline, campaigns[j].Deadline
			switch {
			case di == nil:
				return false
			case dj == nil:
				return true
			default:
				return di.Before(*dj)
			}
		})
	case SortMostFunded:
		sort.SliceStable(campaigns, func(i, j int) bool {
			return campaigns[i].CollectedAmount > campaigns[j].CollectedAmount
		})
	case SortMostDonors:
		sort.SliceStable(campaigns, func(i, j int) bool {
			return campaigns[i].DonationCount > campaigns[j].DonationCount
		})
	case SortProgress:
		sort.SliceStable(campaigns, func(i, j int) bool {
			return progressRatio(campaigns[i]) > progressRatio(campaigns[j])
		})
	}
}

func progressRatio(c Campaign) float64 {
	if c.TargetAmount <= 0 {
		return 0
	}
	return float64(c.CollectedAmount) / float64(c.TargetAmount)
}
