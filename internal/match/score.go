package match

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/erazemk/najdeno/internal/model"
)

// Score weights.
const (
	categoryPoints    = 40
	tokenPoints       = 10
	maxTextPoints     = 30
	locationPoints    = 20
	colorPoints       = 10
	minTokenRuneCount = 4
)

// Threshold is the lowest score shown to an administrator.
const Threshold = 30

// MaxCandidates is how many candidates are returned per lost item.
const MaxCandidates = 5

// Score rates how well a found report fits a lost report, from 0 to 100.
// The location criterion is directional: the lost location must contain the
// found location.
func Score(lost, found *model.Item) int {
	score := 0

	if c := normalize(lost.Category); c != "" && c == normalize(found.Category) {
		score += categoryPoints
	}

	score += textScore(lost, found)

	lostLoc, foundLoc := normalize(lost.Location), normalize(found.Location)
	if lostLoc != "" && foundLoc != "" && strings.Contains(lostLoc, foundLoc) {
		score += locationPoints
	}

	if c := normalize(lost.Color); c != "" && c == normalize(found.Color) {
		score += colorPoints
	}

	return score
}

// textScore awards points for every word of the lost report (longer than
// three characters) that occurs anywhere in the found report's text.
func textScore(lost, found *model.Item) int {
	lostText := strings.ToLower(lost.Name + " " + lost.Description)
	foundText := strings.ToLower(found.Name + " " + found.Description)
	if strings.TrimSpace(lostText) == "" || strings.TrimSpace(foundText) == "" {
		return 0
	}

	matches := 0
	for _, word := range strings.Fields(lostText) {
		if utf8.RuneCountInString(word) < minTokenRuneCount {
			continue
		}
		if strings.Contains(foundText, word) {
			matches++
		}
	}
	return min(maxTextPoints, matches*tokenPoints)
}

// Rank scores every found item against lost and returns at most
// MaxCandidates with a score of at least Threshold, best first. Equal scores
// keep the order of founds. Candidates are flagged when the pair was
// rejected or is the current approved match.
func Rank(lost *model.Item, founds []model.Item) []model.Candidate {
	var out []model.Candidate
	for i := range founds {
		found := &founds[i]
		s := Score(lost, found)
		if s < Threshold {
			continue
		}
		out = append(out, model.Candidate{
			Item:     *found,
			Score:    s,
			Rejected: lost.HasRejected(found.ID),
			Approved: lost.IsMatchedWith(found.ID),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if len(out) > MaxCandidates {
		out = out[:MaxCandidates]
	}
	if out == nil {
		out = []model.Candidate{}
	}
	return out
}

// normalize lowercases s and collapses runs of whitespace.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
