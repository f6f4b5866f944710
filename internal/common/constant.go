// Package common contains shared constants and sentinel errors used across
// orgvote components.
package common

// Yes and No are the titles of the fixed candidate pair of a yes/no ballot.
const (
	Yes = "yes"
	No  = "no"
)
