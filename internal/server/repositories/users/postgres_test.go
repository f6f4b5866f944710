package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/orgvote/internal/common"
	"github.com/dmitrijs2005/orgvote/internal/server/models"
)

var created = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreateOrg_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+orgs\s*\(id,\s*name\)\s*VALUES\s*\(\$1,\s*\$2\)\s*RETURNING\s+created_at\s*$`

	mock.ExpectQuery(q).
		WithArgs("org-1", "Cooperative").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	got, err := repo.CreateOrg(context.Background(), &models.Org{ID: "org-1", Name: "Cooperative"})
	if err != nil {
		t.Fatalf("CreateOrg error: %v", err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected org: %+v", got)
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*org_id,\s*username\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+created_at\s*$`

	mock.ExpectQuery(q).
		WithArgs("u-1", "org-1", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectQuery(q).
		WithArgs("u-2", nil, "bob").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	got, err := repo.Create(context.Background(), &models.User{ID: "u-1", OrgID: "org-1", UserName: "alice"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}

	if _, err := repo.Create(context.Background(), &models.User{ID: "u-2", UserName: "bob"}); err != nil {
		t.Fatalf("Create without org error: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1", UserName: "alice"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetUserByLogin_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*org_id,\s*username,\s*created_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`

	rows := sqlmock.NewRows([]string{"id", "org_id", "username", "created_at"}).
		AddRow("u-1", "org-1", "alice", created)
	mock.ExpectQuery(q).
		WithArgs("alice").
		WillReturnRows(rows)

	got, err := repo.GetUserByLogin(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserByLogin error: %v", err)
	}
	if got.ID != "u-1" || got.OrgID != "org-1" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetUserByLogin_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+username`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByLogin(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestOrgOf(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+org_id\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"org_id"}).AddRow("org-1"))
	mock.ExpectQuery(q).WithArgs("u-2").
		WillReturnRows(sqlmock.NewRows([]string{"org_id"}).AddRow(nil))
	mock.ExpectQuery(q).WithArgs("u-3").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q).WithArgs("u-4").
		WillReturnError(errors.New("db err"))

	ctx := context.Background()

	if org, ok, err := repo.OrgOf(ctx, "u-1"); err != nil || !ok || org != "org-1" {
		t.Fatalf("member: got %q %v %v", org, ok, err)
	}
	if _, ok, err := repo.OrgOf(ctx, "u-2"); err != nil || ok {
		t.Fatalf("orgless user: got %v %v", ok, err)
	}
	if _, ok, err := repo.OrgOf(ctx, "u-3"); err != nil || ok {
		t.Fatalf("missing user: got %v %v", ok, err)
	}
	if _, _, err := repo.OrgOf(ctx, "u-4"); err == nil {
		t.Fatal("expected db error")
	}
}
