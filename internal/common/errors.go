// Package common defines shared constants and sentinel errors used across
// the engine, the repositories and the services. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Ballot validation errors.
	ErrMissingField                       = errors.New("missing field")
	ErrInvalidCategory                    = errors.New("invalid category")
	ErrFieldNotAllowedForCategory         = errors.New("field not allowed for category")
	ErrTemporalOrderingViolation          = errors.New("temporal ordering violation")
	ErrOverlappingTermForSingleSeatOffice = errors.New("overlapping term for single-seat office")
	ErrInvalidMaxChoices                  = errors.New("invalid max choices")
	ErrTextTooLong                        = errors.New("text too long")
	ErrCreatorNotInOrg                    = errors.New("creator is not in the org")

	// Vote validation errors.
	ErrCandidateNotOnBallot = errors.New("candidate not on ballot")
	ErrDuplicateCandidate   = errors.New("duplicate candidate")
	ErrChoiceCapExceeded    = errors.New("choice cap exceeded")
	ErrVotingClosed         = errors.New("voting closed")
	ErrVotingStillOpen      = errors.New("voting is still open")
	ErrUserNotInOrg         = errors.New("user is not in the ballot's org")

	// Office errors.
	ErrUnknownOffice     = errors.New("unknown office")
	ErrOfficeUnavailable = errors.New("office unavailable")

	// Election lifecycle errors.
	ErrNotInNominations          = errors.New("ballot is not in nominations")
	ErrNotInTermAcceptancePeriod = errors.New("ballot is not in its term acceptance period")
	ErrNotAWinner                = errors.New("user is not a winner of the election")
)
