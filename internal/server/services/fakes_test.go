package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/orgvote/internal/ballot"
	"github.com/dmitrijs2005/orgvote/internal/common"
	"github.com/dmitrijs2005/orgvote/internal/cryptox"
	"github.com/dmitrijs2005/orgvote/internal/dbx"
	"github.com/dmitrijs2005/orgvote/internal/office"
	"github.com/dmitrijs2005/orgvote/internal/server/config"
	"github.com/dmitrijs2005/orgvote/internal/server/models"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/ballots"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/candidates"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/terms"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/users"
	"github.com/dmitrijs2005/orgvote/internal/server/repositories/votes"
	"github.com/dmitrijs2005/orgvote/internal/tally"
	"github.com/dmitrijs2005/orgvote/internal/termledger"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// -------- in-memory store --------

type store struct {
	ballots    map[string]ballot.Ballot
	candidates []models.Candidate
	votes      map[string]tally.Vote
	terms      termledger.Ledger
	members    map[string]string

	// onBallotCreate runs after a ballot is stored, standing in for a
	// concurrent writer.
	onBallotCreate func()
	// onTermCreate runs after a term is stored.
	onTermCreate func()
	// beforeBallotLock runs before a ballot row is read for update, standing
	// in for a writer that commits just ahead of the lock.
	beforeBallotLock func()

	// undo reverts the writes of the open transaction in reverse order.
	// Hook writes bypass it and survive a rollback like a committed
	// concurrent writer would.
	undo []func()
}

func (s *store) record(fn func()) { s.undo = append(s.undo, fn) }

func (s *store) begin()  { s.undo = nil }
func (s *store) commit() { s.undo = nil }

func (s *store) rollback() {
	for i := len(s.undo) - 1; i >= 0; i-- {
		s.undo[i]()
	}
	s.undo = nil
}

// restoreBallot returns an undo step that puts id back to its current state.
func (s *store) restoreBallot(id string) func() {
	prev, ok := s.ballots[id]
	return func() {
		if ok {
			s.ballots[id] = prev
		} else {
			delete(s.ballots, id)
		}
	}
}

func newStore() *store {
	return &store{
		ballots: map[string]ballot.Ballot{},
		votes:   map[string]tally.Vote{},
		members: map[string]string{},
	}
}

type fakeBallotsRepo struct {
	ballots.Repository
	s *store
}

func (f *fakeBallotsRepo) Create(ctx context.Context, b *ballot.Ballot) error {
	f.s.record(f.s.restoreBallot(b.ID))
	f.s.ballots[b.ID] = *b
	if f.s.onBallotCreate != nil {
		f.s.onBallotCreate()
	}
	return nil
}

func (f *fakeBallotsRepo) Get(ctx context.Context, id string) (*ballot.Ballot, error) {
	b, ok := f.s.ballots[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &b, nil
}

func (f *fakeBallotsRepo) GetForUpdate(ctx context.Context, id string) (*ballot.Ballot, error) {
	if f.s.beforeBallotLock != nil {
		f.s.beforeBallotLock()
	}
	return f.Get(ctx, id)
}

func (f *fakeBallotsRepo) UpdateSchedule(ctx context.Context, id string, s ballot.Schedule) error {
	b, ok := f.s.ballots[id]
	if !ok {
		return common.ErrorNotFound
	}
	f.s.record(f.s.restoreBallot(id))
	f.s.ballots[id] = b.WithSchedule(s)
	return nil
}

func (f *fakeBallotsRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.s.ballots[id]; !ok {
		return common.ErrorNotFound
	}
	f.s.record(f.s.restoreBallot(id))
	delete(f.s.ballots, id)
	return nil
}

func (f *fakeBallotsRepo) List(ctx context.Context, orgID string, flt ballot.Filter) ([]ballot.Ballot, error) {
	var out []ballot.Ballot
	for _, b := range f.s.ballots {
		if b.OrgID == orgID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b ballot.Ballot) int { return strings.Compare(a.ID, b.ID) })
	return flt.Apply(out), nil
}

func (f *fakeBallotsRepo) ActiveElections(ctx context.Context, orgID string, at time.Time) ([]ballot.Ballot, error) {
	all, _ := f.List(ctx, orgID, ballot.Filter{ActiveAt: &at})
	var out []ballot.Ballot
	for _, b := range all {
		if b.IsElection() {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeCandidatesRepo struct {
	candidates.Repository
	s *store
}

func (f *fakeCandidatesRepo) Create(ctx context.Context, c *models.Candidate) error {
	id := c.ID
	f.s.record(func() {
		f.s.candidates = slices.DeleteFunc(f.s.candidates, func(x models.Candidate) bool { return x.ID == id })
	})
	f.s.candidates = append(f.s.candidates, *c)
	return nil
}

func (f *fakeCandidatesRepo) ListByBallot(ctx context.Context, ballotID string) ([]models.Candidate, error) {
	var out []models.Candidate
	for _, c := range f.s.candidates {
		if c.BallotID == ballotID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b models.Candidate) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

type fakeVotesRepo struct {
	votes.Repository
	s *store
}

func voteKey(ballotID, userID string) string { return ballotID + "|" + userID }

func (f *fakeVotesRepo) Upsert(ctx context.Context, v *tally.Vote) error {
	k := voteKey(v.BallotID, v.UserID)
	prev, ok := f.s.votes[k]
	if ok {
		v.ID = prev.ID
		v.CreatedAt = prev.CreatedAt
	}
	f.s.record(func() {
		if ok {
			f.s.votes[k] = prev
		} else {
			delete(f.s.votes, k)
		}
	})
	f.s.votes[k] = *v
	return nil
}

func (f *fakeVotesRepo) Get(ctx context.Context, ballotID, userID string) (*tally.Vote, error) {
	v, ok := f.s.votes[voteKey(ballotID, userID)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &v, nil
}

func (f *fakeVotesRepo) ListByBallot(ctx context.Context, ballotID string) ([]tally.Vote, error) {
	var out []tally.Vote
	for _, v := range f.s.votes {
		if v.BallotID == ballotID {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b tally.Vote) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

type fakeTermsRepo struct {
	terms.Repository
	s *store
}

func (f *fakeTermsRepo) Create(ctx context.Context, t *termledger.Term) error {
	id := t.ID
	f.s.record(func() {
		f.s.terms = slices.DeleteFunc(f.s.terms, func(x termledger.Term) bool { return x.ID == id })
	})
	f.s.terms = append(f.s.terms, *t)
	if f.s.onTermCreate != nil {
		f.s.onTermCreate()
	}
	return nil
}

func (f *fakeTermsRepo) ListByOrg(ctx context.Context, orgID string) (termledger.Ledger, error) {
	var out termledger.Ledger
	for _, t := range f.s.terms {
		if t.OrgID == orgID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTermsRepo) ListByOrgOffice(ctx context.Context, orgID string, o office.Office) (termledger.Ledger, error) {
	l, _ := f.ListByOrg(ctx, orgID)
	return l.ForOffice(o), nil
}

func (f *fakeTermsRepo) Delete(ctx context.Context, id string) error {
	i := slices.IndexFunc(f.s.terms, func(t termledger.Term) bool { return t.ID == id })
	if i < 0 {
		return common.ErrorNotFound
	}
	removed := f.s.terms[i]
	f.s.record(func() { f.s.terms = append(f.s.terms, removed) })
	f.s.terms = slices.Delete(f.s.terms, i, i+1)
	return nil
}

type fakeUsersRepo struct {
	users.Repository
	s   *store
	err error
}

func (f *fakeUsersRepo) OrgOf(ctx context.Context, userID string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	org, ok := f.s.members[userID]
	return org, ok, nil
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	s *store
	u *fakeUsersRepo
}

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository           { return m.u }
func (m *fakeRepoManager) Ballots(db dbx.DBTX) ballots.Repository       { return &fakeBallotsRepo{s: m.s} }
func (m *fakeRepoManager) Candidates(db dbx.DBTX) candidates.Repository { return &fakeCandidatesRepo{s: m.s} }
func (m *fakeRepoManager) Votes(db dbx.DBTX) votes.Repository           { return &fakeVotesRepo{s: m.s} }
func (m *fakeRepoManager) Terms(db dbx.DBTX) terms.Repository           { return &fakeTermsRepo{s: m.s} }

// -------- transactions --------

// txConnector hands out sqlmock connections whose transactions also commit
// or roll back the in-memory store.
type txConnector struct {
	drv driver.Driver
	dsn string
	s   *store
}

func (c *txConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.drv.Open(c.dsn)
	if err != nil {
		return nil, err
	}
	return &txConn{Conn: conn, s: c.s}, nil
}

func (c *txConnector) Driver() driver.Driver { return c.drv }

type txConn struct {
	driver.Conn
	s *store
}

func (c *txConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	tx, err := c.Conn.(driver.ConnBeginTx).BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	c.s.begin()
	return &storeTx{Tx: tx, s: c.s}, nil
}

type storeTx struct {
	driver.Tx
	s *store
}

func (t *storeTx) Commit() error {
	if err := t.Tx.Commit(); err != nil {
		t.s.rollback()
		return err
	}
	t.s.commit()
	return nil
}

func (t *storeTx) Rollback() error {
	t.s.rollback()
	return t.Tx.Rollback()
}

// -------- clock and ids --------

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

type seqIDs struct{ n int }

func (g *seqIDs) NewID() string {
	g.n++
	return fmt.Sprintf("id%03d", g.n)
}

// -------- helpers --------

var (
	t0  = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	day = 24 * time.Hour
)

func ptr[T any](v T) *T { return &v }

func question(n int) cryptox.EncryptedText {
	return cryptox.EncryptedText{
		Ciphertext: make([]byte, n),
		Nonce:      make([]byte, 12),
		AuthTag:    make([]byte, 16),
	}
}

type env struct {
	deps  Deps
	mock  sqlmock.Sqlmock
	store *store
	clock *fixedClock
}

var envSeq atomic.Int64

func newEnv(t *testing.T) *env {
	t.Helper()
	dsn := fmt.Sprintf("services_%d", envSeq.Add(1))
	mockDB, mock, err := sqlmock.NewWithDSN(dsn)
	if err != nil {
		t.Fatalf("sqlmock.NewWithDSN error: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	s := newStore()
	db := sql.OpenDB(&txConnector{drv: mockDB.Driver(), dsn: dsn, s: s})
	t.Cleanup(func() { db.Close() })

	s.members["alice"] = "org1"
	s.members["bob"] = "org1"
	s.members["carol"] = "org1"
	s.members["mallory"] = "org2"

	cfg := &config.Config{}
	cfg.LoadDefaults()

	clock := &fixedClock{t: t0}
	u := &fakeUsersRepo{s: s}
	return &env{
		deps: Deps{
			DB:         db,
			Repos:      &fakeRepoManager{s: s, u: u},
			Config:     cfg,
			Membership: u,
			Clock:      clock,
			IDs:        &seqIDs{},
		},
		mock:  mock,
		store: s,
		clock: clock,
	}
}

func (e *env) expectCommit() {
	e.mock.ExpectBegin()
	e.mock.ExpectCommit()
}

func (e *env) expectRollback() {
	e.mock.ExpectBegin()
	e.mock.ExpectRollback()
}

func (e *env) verify(t *testing.T) {
	t.Helper()
	if err := e.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

// putBallot stores b with the given candidate ids.
func (e *env) putBallot(b ballot.Ballot, candidateIDs ...string) {
	e.store.ballots[b.ID] = b
	for _, id := range candidateIDs {
		e.store.candidates = append(e.store.candidates, models.Candidate{ID: id, BallotID: b.ID, Title: id})
	}
}

// electionFixture is a president election created a day before t0 whose
// nominations end at t0+1d and voting at t0+2d. Its term runs from t0+4d
// for a year.
func electionFixture(id string, o office.Office) ballot.Ballot {
	return ballot.Ballot{
		ID:                     id,
		OrgID:                  "org1",
		UserID:                 "alice",
		Category:               ballot.Election,
		Question:               question(10),
		MaxCandidateIDsPerVote: 1,
		CreatedAt:              t0.Add(-day),
		Office:                 &o,
		NominationsEndAt:       ptr(t0.Add(day)),
		VotingEndsAt:           t0.Add(2 * day),
		TermStartsAt:           ptr(t0.Add(4 * day)),
		TermEndsAt:             ptr(t0.Add(369 * day)),
	}
}

func measureFixture(id string, votingEnds time.Time) ballot.Ballot {
	return ballot.Ballot{
		ID:                     id,
		OrgID:                  "org1",
		UserID:                 "alice",
		Category:               ballot.YesNo,
		Question:               question(10),
		MaxCandidateIDsPerVote: 1,
		CreatedAt:              t0.Add(-day),
		VotingEndsAt:           votingEnds,
	}
}
