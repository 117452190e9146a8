// Package match finds reported items that likely describe the same physical
// object. Scoring is currently binary: an exact image-fingerprint match scores
// 100, everything else 0. The score is exposed as a 0-100 percentage so a
// graded perceptual algorithm can replace it without changing the contract.
package match

import (
	"sort"

	"github.com/campusfind/campusfind/internal/models"
)

// MaxResults bounds the number of matches returned. The similarity list is
// shown inline on the report confirmation, so a handful is enough.
const MaxResults = 5

// Result is a candidate item paired with its similarity score.
type Result struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Image      string `json:"image,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
	Status     string `json:"status"`
	Type       string `json:"type"`
	Similarity int    `json:"similarity"`
}

// FindSimilar returns candidates that match target's image fingerprint,
// ordered by score descending then most recent first, capped at MaxResults.
//
// Only candidates of the opposite type are considered: a lost report should
// surface found items and vice versa. Same-type duplicates are not useful to
// the person looking at the match list.
func FindSimilar(target *models.Item, candidates []*models.Item) []Result {
	if target == nil || target.ImageFingerprint == "" {
		return nil
	}

	var matched []*models.Item
	for _, c := range candidates {
		if c.ID == target.ID {
			continue
		}
		if c.Type == target.Type {
			continue
		}
		if c.ImageFingerprint == "" || c.ImageFingerprint != target.ImageFingerprint {
			continue
		}
		matched = append(matched, c)
	}

	// All scores are currently equal, so ordering reduces to recency.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if len(matched) > MaxResults {
		matched = matched[:MaxResults]
	}

	results := make([]Result, 0, len(matched))
	for _, m := range matched {
		results = append(results, Result{
			ID:         m.ID,
			Title:      m.Title,
			Image:      m.Image,
			ImageURL:   m.ImageURL,
			Status:     m.Status,
			Type:       m.Type,
			Similarity: 100,
		})
	}
	return results
}
