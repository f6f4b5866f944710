// Package models defines server-side records persisted in the database that
// have no home in the engine packages.
package models

import "time"

// Org is a membership group that owns ballots and terms.
type Org struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a member. OrgID is empty for users that belong to no org.
type User struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id,omitempty"`
	UserName  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Candidate is one option of a ballot. UserID is the nominee on elections
// and empty otherwise.
type Candidate struct {
	ID        string    `json:"id"`
	BallotID  string    `json:"ballot_id"`
	UserID    string    `json:"user_id,omitempty"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
