package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ssohub/internal/access"
	"ssohub/internal/audit"
	"ssohub/internal/auth"
	"ssohub/internal/models"
	"ssohub/internal/tokens"
)

var testSecret = []byte("this-is-a-test-secret-with-32-bytes!")

const empUUID = "9f8e7d6c-1111-4222-8333-444455556666"

type testEnv struct {
	db        *gorm.DB
	mock      sqlmock.Sqlmock
	authority *tokens.Authority
	resolver  *access.Resolver
	rec       *audit.Recorder
	lg        *zap.SugaredLogger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	lg := zap.NewNop().Sugar()
	return &testEnv{
		db:        db,
		mock:      mock,
		authority: tokens.NewAuthority(db, testSecret, time.Hour),
		resolver:  access.NewResolver(db),
		rec:       audit.NewRecorder(db, lg),
		lg:        lg,
	}
}

func testApplication() *models.Application {
	return &models.Application{
		ID: 7, UUID: "3b6a2c1d-0000-4000-8000-000000000007",
		Name: "Payroll", ClientID: "client-abc", RateLimitPerMinute: 2, IsActive: true,
	}
}

func tokenRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "uuid", "employee_id", "application_id", "token_hash",
		"revoked_at", "last_used_at", "created_at",
	}).AddRow(11, "aaaabbbb-cccc-4ddd-8eee-ffff00001111", 3, nil, "hash", nil, nil, time.Now())
}

func employeeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "uuid", "first_name", "middle_name", "last_name", "suffix", "position",
		"email", "password_hash", "is_active", "created_at", "updated_at", "deleted_at",
	}).AddRow(3, empUUID, "Ana", "", "Reyes", "", "Engineer",
		"ana@example.test", "x", true, time.Now(), time.Now(), nil)
}

// queries Validate runs for a live token and active employee
func (e *testEnv) expectTokenValidation() {
	e.mock.ExpectQuery(`SELECT \* FROM "tokens" WHERE token_hash = \$1`).
		WillReturnRows(tokenRows())
	e.mock.ExpectQuery(`SELECT \* FROM "employees" WHERE \(?uuid = \$1 AND is_active = \$2`).
		WillReturnRows(employeeRows())
	e.mock.ExpectExec(`UPDATE "tokens" SET "last_used_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func (e *testEnv) expectAuditInsert() {
	e.mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
}

func signedBearer(t *testing.T) string {
	t.Helper()
	raw, err := auth.Sign(testSecret, empUUID, time.Hour)
	require.NoError(t, err)
	return raw
}

func ssoRequest(t *testing.T, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	return req.WithContext(auth.WithApplication(req.Context(), testApplication()))
}

func TestValidateToken(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		e := newTestEnv(t)
		e.expectTokenValidation()
		e.expectAuditInsert()

		req := ssoRequest(t, "/v1/sso/validate", `{"token":"`+signedBearer(t)+`"}`)
		w := httptest.NewRecorder()
		ValidateToken(e.authority, e.rec, e.lg)(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Valid bool           `json:"valid"`
			Data  map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Valid)
		assert.Equal(t, empUUID, body.Data["uuid"])
		assert.NoError(t, e.mock.ExpectationsWereMet())
	})

	t.Run("missing token", func(t *testing.T) {
		e := newTestEnv(t)
		req := ssoRequest(t, "/v1/sso/validate", `{}`)
		w := httptest.NewRecorder()
		ValidateToken(e.authority, e.rec, e.lg)(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"valid":false`)
	})

	t.Run("revoked token", func(t *testing.T) {
		e := newTestEnv(t)
		revoked := time.Now()
		e.mock.ExpectQuery(`SELECT \* FROM "tokens" WHERE token_hash = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "uuid", "employee_id", "application_id", "token_hash",
				"revoked_at", "last_used_at", "created_at",
			}).AddRow(11, "aaaabbbb-cccc-4ddd-8eee-ffff00001111", 3, nil, "hash", revoked, nil, time.Now()))

		req := ssoRequest(t, "/v1/sso/validate", `{"token":"`+signedBearer(t)+`"}`)
		w := httptest.NewRecorder()
		ValidateToken(e.authority, e.rec, e.lg)(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"valid":false`)
	})

	t.Run("inactive employee", func(t *testing.T) {
		e := newTestEnv(t)
		e.mock.ExpectQuery(`SELECT \* FROM "tokens" WHERE token_hash = \$1`).
			WillReturnRows(tokenRows())
		e.mock.ExpectQuery(`SELECT \* FROM "employees"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		req := ssoRequest(t, "/v1/sso/validate", `{"token":"`+signedBearer(t)+`"}`)
		w := httptest.NewRecorder()
		ValidateToken(e.authority, e.rec, e.lg)(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid or inactive employee.")
	})
}

func TestAuthorize(t *testing.T) {
	t.Run("granted", func(t *testing.T) {
		e := newTestEnv(t)
		e.expectTokenValidation()
		e.mock.ExpectQuery(`SELECT \* FROM "access_grants" WHERE employee_id = \$1 AND application_id = \$2`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "employee_id", "application_id", "role", "created_at", "updated_at",
			}).AddRow(1, 3, 7, "administrator", time.Now(), time.Now()))
		e.expectAuditInsert()

		req := ssoRequest(t, "/v1/sso/authorize", `{"token":"`+signedBearer(t)+`"}`)
		w := httptest.NewRecorder()
		Authorize(e.authority, e.resolver, e.rec, e.lg)(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Authorized bool              `json:"authorized"`
			Role       string            `json:"role"`
			Employee   map[string]string `json:"employee"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Authorized)
		assert.Equal(t, "administrator", body.Role)
		assert.Equal(t, empUUID, body.Employee["uuid"])
		assert.Equal(t, "Ana Reyes", body.Employee["full_name"])
		assert.NoError(t, e.mock.ExpectationsWereMet())
	})

	t.Run("no grant", func(t *testing.T) {
		e := newTestEnv(t)
		e.expectTokenValidation()
		e.mock.ExpectQuery(`SELECT \* FROM "access_grants"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		req := ssoRequest(t, "/v1/sso/authorize", `{"token":"`+signedBearer(t)+`"}`)
		w := httptest.NewRecorder()
		Authorize(e.authority, e.resolver, e.rec, e.lg)(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), `"authorized":false`)
		assert.Contains(t, w.Body.String(), "Employee does not have access to this application.")
	})

	t.Run("application missing from context", func(t *testing.T) {
		e := newTestEnv(t)
		e.expectTokenValidation()

		req := httptest.NewRequest(http.MethodPost, "/v1/sso/authorize",
			strings.NewReader(`{"token":"`+signedBearer(t)+`"}`))
		w := httptest.NewRecorder()
		Authorize(e.authority, e.resolver, e.rec, e.lg)(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Application not found.")
	})

	t.Run("missing token", func(t *testing.T) {
		e := newTestEnv(t)
		req := ssoRequest(t, "/v1/sso/authorize", `{}`)
		w := httptest.NewRecorder()
		Authorize(e.authority, e.resolver, e.rec, e.lg)(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		e := newTestEnv(t)
		req := ssoRequest(t, "/v1/sso/authorize", `{"token":"garbage"}`)
		w := httptest.NewRecorder()
		Authorize(e.authority, e.resolver, e.rec, e.lg)(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid token.")
	})
}
