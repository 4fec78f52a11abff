package access

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ssohub/internal/models"
)

func newTestResolver(t *testing.T) (*Resolver, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return NewResolver(db), mock
}

func grantRows(role models.Role) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "employee_id", "application_id", "role", "created_at", "updated_at",
	}).AddRow(1, 3, 7, string(role), time.Now(), time.Now())
}

func TestRoleFor(t *testing.T) {
	t.Run("grant exists", func(t *testing.T) {
		r, mock := newTestResolver(t)
		mock.ExpectQuery(`SELECT \* FROM "access_grants" WHERE employee_id = \$1 AND application_id = \$2`).
			WillReturnRows(grantRows(models.RoleAdministrator))

		role, found, err := r.RoleFor(context.Background(), 3, 7)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, models.RoleAdministrator, role)
	})

	t.Run("no grant means not authorized, not a default role", func(t *testing.T) {
		r, mock := newTestResolver(t)
		mock.ExpectQuery(`SELECT \* FROM "access_grants"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		role, found, err := r.RoleFor(context.Background(), 3, 7)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, role)
	})
}

func TestHasAccess(t *testing.T) {
	r, mock := newTestResolver(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "access_grants"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := r.HasAccess(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "access_grants"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err = r.HasAccess(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGrantUpserts(t *testing.T) {
	r, mock := newTestResolver(t)
	// a regrant for the same pair replaces the role on the existing edge
	mock.ExpectQuery(`INSERT INTO "access_grants".+ON CONFLICT \("employee_id","application_id"\) DO UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	err := r.Grant(context.Background(), 3, 7, models.RoleStandard)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantRejectsUnknownRole(t *testing.T) {
	r, mock := newTestResolver(t)

	err := r.Grant(context.Background(), 3, 7, models.Role("owner"))
	assert.Error(t, err)
	// the write path never reaches the store with an invalid role
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevoke(t *testing.T) {
	r, mock := newTestResolver(t)
	mock.ExpectExec(`DELETE FROM "access_grants" WHERE employee_id = \$1 AND application_id = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Revoke(context.Background(), 3, 7))

	// revoking a grant that does not exist succeeds silently
	mock.ExpectExec(`DELETE FROM "access_grants"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, r.Revoke(context.Background(), 3, 7))
}
