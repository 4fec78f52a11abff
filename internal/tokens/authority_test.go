package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ssohub/internal/auth"
	"ssohub/internal/models"
)

var testSecret = []byte("this-is-a-test-secret-with-32-bytes!")

const empUUID = "9f8e7d6c-1111-4222-8333-444455556666"

func newTestAuthority(t *testing.T) (*Authority, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return NewAuthority(db, testSecret, time.Hour), mock
}

func employeeFixture() *models.Employee {
	return &models.Employee{ID: 3, UUID: empUUID, FirstName: "Ana", LastName: "Reyes",
		Email: "ana@example.test", IsActive: true}
}

func tokenRows(revokedAt *time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "uuid", "employee_id", "application_id", "token_hash",
		"revoked_at", "last_used_at", "created_at",
	}).AddRow(11, "aaaabbbb-cccc-4ddd-8eee-ffff00001111", 3, nil, "hash",
		revokedAt, nil, time.Now())
}

func employeeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "uuid", "first_name", "middle_name", "last_name", "suffix", "position",
		"email", "password_hash", "is_active", "created_at", "updated_at", "deleted_at",
	}).AddRow(3, empUUID, "Ana", "", "Reyes", "", "Engineer",
		"ana@example.test", "x", true, time.Now(), time.Now(), nil)
}

func expectValidate(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT \* FROM "tokens" WHERE token_hash = \$1`).
		WillReturnRows(tokenRows(nil))
	mock.ExpectQuery(`SELECT \* FROM "employees" WHERE \(?uuid = \$1 AND is_active = \$2`).
		WillReturnRows(employeeRows())
	mock.ExpectExec(`UPDATE "tokens" SET "last_used_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestIssueAndValidate(t *testing.T) {
	a, mock := newTestAuthority(t)
	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO "tokens"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	raw, err := a.Issue(ctx, employeeFixture(), nil)
	require.NoError(t, err)

	// the bearer is a signed JWT carrying the employee UUID as subject
	claims, err := auth.Verify(testSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, empUUID, claims.Subject)

	expectValidate(mock)
	emp, err := a.Validate(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, empUUID, emp.UUID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRejectsForgedToken(t *testing.T) {
	a, mock := newTestAuthority(t)

	forged, err := auth.Sign([]byte("some-other-key-entirely-32-bytes!!!!"), empUUID, time.Hour)
	require.NoError(t, err)

	_, err = a.Validate(context.Background(), forged)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	// rejected before any store access
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRejectsRevokedToken(t *testing.T) {
	a, mock := newTestAuthority(t)

	raw, err := auth.Sign(testSecret, empUUID, time.Hour)
	require.NoError(t, err)

	revoked := time.Now().Add(-time.Minute)
	mock.ExpectQuery(`SELECT \* FROM "tokens" WHERE token_hash = \$1`).
		WillReturnRows(tokenRows(&revoked))

	_, err = a.Validate(context.Background(), raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRejectsUnknownHash(t *testing.T) {
	a, mock := newTestAuthority(t)

	raw, err := auth.Sign(testSecret, empUUID, time.Hour)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "tokens" WHERE token_hash = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = a.Validate(context.Background(), raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRejectsInactiveEmployee(t *testing.T) {
	a, mock := newTestAuthority(t)

	raw, err := auth.Sign(testSecret, empUUID, time.Hour)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "tokens" WHERE token_hash = \$1`).
		WillReturnRows(tokenRows(nil))
	// active filter matches nothing: the account was deactivated after issue
	mock.ExpectQuery(`SELECT \* FROM "employees" WHERE \(?uuid = \$1 AND is_active = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = a.Validate(context.Background(), raw)
	assert.ErrorIs(t, err, ErrEmployeeInactive)
}

func TestRefreshKillsOldToken(t *testing.T) {
	a, mock := newTestAuthority(t)
	ctx := context.Background()

	raw, err := auth.Sign(testSecret, empUUID, time.Hour)
	require.NoError(t, err)

	expectValidate(mock)
	mock.ExpectExec(`UPDATE "tokens" SET "revoked_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "tokens"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	newRaw, emp, err := a.Refresh(ctx, raw)
	require.NoError(t, err)
	assert.NotEqual(t, raw, newRaw)
	assert.Equal(t, empUUID, emp.UUID)

	// the old bearer must not validate again once its row is revoked
	revoked := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "tokens" WHERE token_hash = \$1`).
		WillReturnRows(tokenRows(&revoked))
	_, err = a.Validate(ctx, raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeIsIdempotent(t *testing.T) {
	a, mock := newTestAuthority(t)
	ctx := context.Background()

	// second revoke matches zero rows and is still not an error
	mock.ExpectExec(`UPDATE "tokens" SET "revoked_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "tokens" SET "revoked_at"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, a.Revoke(ctx, "some-bearer"))
	require.NoError(t, a.Revoke(ctx, "some-bearer"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAllForEmployee(t *testing.T) {
	a, mock := newTestAuthority(t)

	mock.ExpectExec(`UPDATE "tokens" SET "revoked_at".+employee_id`).
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, a.RevokeAllForEmployee(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHashBearerIsStable(t *testing.T) {
	assert.Equal(t, HashBearer("abc"), HashBearer("abc"))
	assert.NotEqual(t, HashBearer("abc"), HashBearer("abd"))
	assert.Len(t, HashBearer("abc"), 64)
}
