// Package ballotctl implements the operator command line: database
// migration, org and member registration, and the ballot, vote, term and
// result operations of the services layer.
//
// Settings come from defaults, a .env file, an optional config file,
// ORGVOTE_* variables and finally the global flags, in that order.
package ballotctl
