// Package tally validates votes and aggregates them into ranked results.
//
// Counting is approval-style: a vote naming k candidates adds one to each of
// them. Results are a pure function of the vote set.
package tally

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/orgvote/internal/common"
)

// Vote is one member's current choice on a ballot.
type Vote struct {
	ID           string
	BallotID     string
	UserID       string
	CandidateIDs []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BallotSpec is the part of a ballot a vote is checked against.
type BallotSpec struct {
	CandidateIDs           []string
	MaxCandidateIDsPerVote int
	VotingEndsAt           time.Time
}

// Result is one candidate's line in the tally.
type Result struct {
	CandidateID string `json:"candidate_id"`
	VoteCount   int    `json:"vote_count"`
	// Rank is the number of candidates with strictly more votes.
	Rank int `json:"rank"`
}

// ValidateVote checks choices against spec at now and returns nil or
// common.ValidationErrors.
func ValidateVote(spec BallotSpec, choices []string, now time.Time) error {
	var errs common.ValidationErrors

	onBallot := make(map[string]struct{}, len(spec.CandidateIDs))
	for _, id := range spec.CandidateIDs {
		onBallot[id] = struct{}{}
	}

	seen := make(map[string]int, len(choices))
	for _, id := range choices {
		seen[id]++
		if seen[id] == 2 {
			errs.Add("candidate_ids", common.ErrDuplicateCandidate, id)
		}
		if _, ok := onBallot[id]; !ok && seen[id] == 1 {
			errs.Add("candidate_ids", common.ErrCandidateNotOnBallot, id)
		}
	}

	if len(choices) > spec.MaxCandidateIDsPerVote {
		errs.Add("candidate_ids", common.ErrChoiceCapExceeded,
			fmt.Sprintf("%d chosen, max %d", len(choices), spec.MaxCandidateIDsPerVote))
	}

	if err := CheckOpen(spec, now); err != nil {
		errs.Add("base", err, "")
	}

	return errs.Err()
}

// CheckOpen returns common.ErrVotingClosed once now reaches the end of
// voting. It is the rule re-run at commit time.
func CheckOpen(spec BallotSpec, now time.Time) error {
	if !now.Before(spec.VotingEndsAt) {
		return common.ErrVotingClosed
	}
	return nil
}

// Results counts votes for every candidate, including those nobody chose,
// and returns them by count descending then candidate id descending.
// Choices naming ids outside candidateIDs are ignored.
func Results(candidateIDs []string, votes []Vote) []Result {
	counts := make(map[string]int, len(candidateIDs))
	for _, id := range candidateIDs {
		counts[id] = 0
	}
	for _, v := range votes {
		for _, id := range v.CandidateIDs {
			if _, ok := counts[id]; ok {
				counts[id]++
			}
		}
	}

	out := make([]Result, 0, len(counts))
	for id, n := range counts {
		out = append(out, Result{CandidateID: id, VoteCount: n})
	}
	slices.SortFunc(out, func(a, b Result) int {
		if a.VoteCount != b.VoteCount {
			return b.VoteCount - a.VoteCount
		}
		return strings.Compare(b.CandidateID, a.CandidateID)
	})

	for i := range out {
		if i > 0 && out[i].VoteCount == out[i-1].VoteCount {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i
	}
	return out
}

// IsWinner reports whether candidateID ranks inside the first maxWinners
// places. Ties at the boundary all win.
func IsWinner(results []Result, candidateID string, maxWinners int) bool {
	if candidateID == "" {
		return false
	}
	for _, r := range results {
		if r.CandidateID == candidateID {
			return r.Rank < maxWinners
		}
	}
	return false
}

// Winners returns the results ranked inside the first maxWinners places, in
// result order.
func Winners(results []Result, maxWinners int) []Result {
	var out []Result
	for _, r := range results {
		if r.Rank < maxWinners {
			out = append(out, r)
		}
	}
	return out
}

// InputsHash fingerprints a vote set: sha256 over the votes sorted by id,
// each contributing its id, update time and choices. Two tallies with the
// same hash were computed from the same inputs.
func InputsHash(votes []Vote) string {
	sorted := slices.Clone(votes)
	slices.SortFunc(sorted, func(a, b Vote) int { return strings.Compare(a.ID, b.ID) })

	h := sha256.New()
	for _, v := range sorted {
		fmt.Fprintf(h, "%s|%d|%s\n", v.ID, v.UpdatedAt.UnixNano(), strings.Join(v.CandidateIDs, ","))
	}
	return hex.EncodeToString(h.Sum(nil))
}
