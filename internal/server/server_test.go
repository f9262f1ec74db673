package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/verificapessoa/verificapessoa/config"
	"github.com/verificapessoa/verificapessoa/internal/lock"
	"github.com/verificapessoa/verificapessoa/internal/report"
	"github.com/verificapessoa/verificapessoa/internal/runtime"
	"github.com/verificapessoa/verificapessoa/internal/search"
	"github.com/verificapessoa/verificapessoa/internal/store"
)

const (
	userID      = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	adminUserID = "16fd2706-8baf-433b-82eb-8c7fada847da"
)

var (
	testSecret = []byte("server-test-secret-0123456789")
	fixedNow   = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	userCols   = []string{"id", "email", "password_hash", "credits", "is_admin", "created_at"}
	searchCols = []string{"id", "user_id", "user_email", "search_name", "national_id", "results", "credits_used", "created_at"}
)

type stubSearcher struct {
	mu    sync.Mutex
	calls int
	rep   report.Report
	err   error
}

func (s *stubSearcher) PerformSearch(ctx context.Context, subject report.Subject) (report.Report, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return report.Report{}, s.err
	}
	r := s.rep
	r.Name = subject.Label()
	return r, nil
}

func (s *stubSearcher) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fixture struct {
	e        *echo.Echo
	mock     sqlmock.Sqlmock
	searcher *stubSearcher
	locker   *lock.Local
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			TokenTTL:    time.Hour,
			CORSOrigins: []string{"*"},
			AdminEmails: []string{"boss@example.com"},
		},
		Search: config.SearchConfig{LockTTL: time.Minute},
		Payment: config.PaymentConfig{
			PIXKey:  "3656e000-acb3-4645-a176-034c4d9ba6df",
			PIXName: "Verifica Pessoa",
			Packages: map[string]config.Package{
				"individual": {Name: "Consulta Individual", Amount: 9.90, Credits: 1},
				"pack10":     {Name: "Pacote 10 Créditos", Amount: 79.90, Credits: 10},
			},
		},
		Telemetry: config.TelemetryConfig{MetricsEnabled: true, MetricsPath: "/metrics"},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations: %v", err)
		}
		db.Close()
	})
	f := &fixture{
		mock: mock,
		searcher: &stubSearcher{rep: report.Report{
			SourcesSearched: 3,
			RiskAssessment:  report.RiskLow,
			Disclaimer:      report.Disclaimer,
			Timestamp:       fixedNow,
		}},
		locker: lock.NewLocal(),
	}
	f.e = New(Deps{
		Config:   testConfig(),
		Store:    &store.Store{DB: db, Now: func() time.Time { return fixedNow }},
		Searcher: f.searcher,
		Locker:   f.locker,
		Secret:   testSecret,
		Now:      func() time.Time { return fixedNow },
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func tokenFor(t *testing.T, sub string, scopes ...string) string {
	t.Helper()
	tok, err := runtime.SignJWT(sub, testSecret, time.Hour, scopes...)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return tok
}

func (f *fixture) expectUser(id string, credits int) {
	f.mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id=$1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(id, "joao@example.com", "hash", credits, false, fixedNow))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var he HTTPError
	if err := json.Unmarshal(rec.Body.Bytes(), &he); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return he.Error
}

func TestHealthAndRoot(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/health", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"healthy"`) {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
	rec = f.do(t, http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "running") {
		t.Fatalf("root: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs(sqlmock.AnyArg(), "joao@example.com", sqlmock.AnyArg(), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := f.do(t, http.MethodPost, "/api/auth/register", `{"email":" Joao@Example.com ","password":"segredo123"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var resp RegisterResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Email != "joao@example.com" || resp.User.Credits != 0 {
		t.Fatalf("unexpected user %+v", resp.User)
	}
	if strings.Contains(rec.Body.String(), "segredo123") || strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password leaked: %s", rec.Body.String())
	}
}

func TestRegisterDuplicateAndInvalid(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505"})

	rec := f.do(t, http.MethodPost, "/api/auth/register", `{"email":"joao@example.com","password":"segredo123"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
	rec = f.do(t, http.MethodPost, "/api/auth/register", `{"email":"not-an-email","password":"segredo123"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad email got %d", rec.Code)
	}
	rec = f.do(t, http.MethodPost, "/api/auth/register", `{"email":"joao@example.com","password":"short"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("segredo123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows(userCols).AddRow(adminUserID, "boss@example.com", string(hash), 5, false, fixedNow)
	}
	f.mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email=$1`)).WithArgs("boss@example.com").WillReturnRows(rows())

	rec := f.do(t, http.MethodPost, "/api/auth/login", `{"email":"boss@example.com","password":"segredo123"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" || resp.User.Credits != 5 || !resp.User.IsAdmin {
		t.Fatalf("unexpected login response %+v", resp)
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == runtime.CookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != resp.Token || !cookie.HttpOnly {
		t.Fatalf("auth cookie not set: %+v", cookie)
	}

	f.mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d"}).AddRow(1, 2, 0.0, 0))
	if rec := f.do(t, http.MethodGet, "/api/admin/stats", "", resp.Token); rec.Code != http.StatusOK {
		t.Fatalf("admin email should get admin scope, got %d", rec.Code)
	}

	f.mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email=$1`)).WithArgs("boss@example.com").WillReturnRows(rows())
	rec = f.do(t, http.MethodPost, "/api/auth/login", `{"email":"boss@example.com","password":"wrong-password"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	f.expectUser(userID, 7)
	rec := f.do(t, http.MethodGet, "/api/user/profile", "", tokenFor(t, userID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var u UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.ID != userID || u.Credits != 7 {
		t.Fatalf("unexpected profile %+v", u)
	}
	if rec := f.do(t, http.MethodGet, "/api/user/profile", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", rec.Code)
	}
}

func TestSubjectComesFromRequestContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if got := subjectOf(c); got != "" {
		t.Fatalf("expected no subject got %q", got)
	}
	c.Set("user_id", "spoofed")
	c.SetRequest(req.WithContext(runtime.ContextWithSubject(req.Context(), userID)))
	if got := subjectOf(c); got != userID {
		t.Fatalf("subject = %q, want %q", got, userID)
	}

	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/user/profile", "", tokenFor(t, "not-a-uuid"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown account got %d", rec.Code)
	}
}

func TestSearchDebitsOneCredit(t *testing.T) {
	f := newFixture(t)
	f.expectUser(userID, 3)
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET credits = credits - $2 WHERE id=$1 AND credits >= $2 RETURNING email`)).
		WithArgs(userID, store.CreditsPerSearch).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("joao@example.com"))
	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO searches`)).
		WithArgs(sqlmock.AnyArg(), userID, "joao@example.com", "João da Silva", "", sqlmock.AnyArg(), 1, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	rec := f.do(t, http.MethodPost, "/api/search", `{"name":"  João   da Silva "}`, tokenFor(t, userID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var rep report.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Name != "João da Silva" || rep.SourcesSearched != 3 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); !strings.HasPrefix(loc, "/api/searches/") {
		t.Fatalf("missing location header: %q", loc)
	}
	ok, _ := f.locker.Acquire(context.Background(), lock.SearchLockName(userID), time.Minute)
	if !ok {
		t.Fatalf("search lock not released")
	}
}

func TestSearchRequiresCredits(t *testing.T) {
	f := newFixture(t)
	f.expectUser(userID, 0)
	rec := f.do(t, http.MethodPost, "/api/search", `{"name":"João da Silva"}`, tokenFor(t, userID))
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 got %d", rec.Code)
	}
	if f.searcher.Calls() != 0 {
		t.Fatalf("searcher must not run without credits")
	}
}

func TestSearchRejectsEmptySubject(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/search", `{"name":"   ","national_id":""}`, tokenFor(t, userID))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg == "" {
		t.Fatalf("expected error message")
	}
}

func TestSearchAlreadyRunning(t *testing.T) {
	f := newFixture(t)
	f.expectUser(userID, 3)
	if ok, _ := f.locker.Acquire(context.Background(), lock.SearchLockName(userID), time.Minute); !ok {
		t.Fatalf("pre-acquire failed")
	}
	rec := f.do(t, http.MethodPost, "/api/search", `{"name":"João da Silva"}`, tokenFor(t, userID))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
	if f.searcher.Calls() != 0 {
		t.Fatalf("searcher must not run while locked")
	}
}

func TestSearchFailureCostsNothing(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"timeout", fmt.Errorf("%w: %w", search.ErrSearchFailed, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"cancelled", fmt.Errorf("%w: %w", search.ErrSearchFailed, context.Canceled), http.StatusBadGateway},
		{"invalid", search.ErrInvalidInput, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.searcher.err = tc.err
			f.expectUser(userID, 3)
			rec := f.do(t, http.MethodPost, "/api/search", `{"name":"João da Silva"}`, tokenFor(t, userID))
			if rec.Code != tc.code {
				t.Fatalf("expected %d got %d", tc.code, rec.Code)
			}
		})
	}
}

func TestSearchHistoryAndReportHTML(t *testing.T) {
	f := newFixture(t)
	payload, err := json.Marshal(report.Report{Name: "João da Silva", RiskAssessment: report.RiskLow, Timestamp: fixedNow})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	searchID := "9b2f0c3e-1d4a-4b5e-8f6a-7b8c9d0e1f2a"
	f.mock.ExpectQuery(regexp.QuoteMeta(`FROM searches WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`)).
		WithArgs(userID, 100).
		WillReturnRows(sqlmock.NewRows(searchCols).AddRow(searchID, userID, "joao@example.com", "João da Silva", "", payload, 1, fixedNow))
	f.mock.ExpectQuery(regexp.QuoteMeta(`FROM searches WHERE id=$1 AND user_id=$2`)).
		WithArgs(searchID, userID).
		WillReturnRows(sqlmock.NewRows(searchCols).AddRow(searchID, userID, "joao@example.com", "João da Silva", "", payload, 1, fixedNow))

	tok := tokenFor(t, userID)
	rec := f.do(t, http.MethodGet, "/api/searches", "", tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200 got %d", rec.Code)
	}
	var list ListResponse[SearchSummary]
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 1 || list.Items[0].ID != searchID || list.Items[0].RiskLevel != report.RiskLow {
		t.Fatalf("unexpected list %+v", list)
	}

	rec = f.do(t, http.MethodGet, "/api/searches/"+searchID+"/report.html", "", tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("html: expected 200 got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "João da Silva") {
		t.Fatalf("report body missing subject")
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, searchID) {
		t.Fatalf("unexpected content disposition %q", cd)
	}

	rec = f.do(t, http.MethodGet, "/api/searches/not-a-uuid", "", tok)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestPurchase(t *testing.T) {
	f := newFixture(t)
	f.expectUser(userID, 0)
	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WithArgs(sqlmock.AnyArg(), userID, "joao@example.com", "pack10", "Pacote 10 Créditos", 79.90, 10, store.TxPending, store.PaymentPIX, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tok := tokenFor(t, userID)
	rec := f.do(t, http.MethodPost, "/api/purchase", `{"package_type":"pack10","amount":79.9,"credits":10}`, tok)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var resp PurchaseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TransactionID == "" || resp.Status != store.TxPending || resp.PIXInfo.Key != "3656e000-acb3-4645-a176-034c4d9ba6df" || resp.PIXInfo.Amount != 79.90 {
		t.Fatalf("unexpected purchase response %+v", resp)
	}

	rec = f.do(t, http.MethodPost, "/api/purchase", `{"package_type":"pack999"}`, tok)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown package got %d", rec.Code)
	}
	rec = f.do(t, http.MethodPost, "/api/purchase", `{"package_type":"pack10","credits":50}`, tok)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for tampered credits got %d", rec.Code)
	}
}

func TestPackagesArePublic(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/packages", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "pack10") {
		t.Fatalf("packages: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAdminRequiresScope(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/admin/stats", "", tokenFor(t, userID))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestAdminAddCredits(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET credits = credits + $2 WHERE email=$1`)).
		WithArgs("joao@example.com", 10).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(userID, "joao@example.com", "hash", 10, false, fixedNow))
	f.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET credits = credits + $2 WHERE email=$1`)).
		WithArgs("ghost@example.com", 10).
		WillReturnRows(sqlmock.NewRows(userCols))

	tok := tokenFor(t, adminUserID, runtime.ScopeAdmin)
	rec := f.do(t, http.MethodPost, "/api/admin/add-credits", `{"email":"joao@example.com","credits":10}`, tok)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"credits":10`) {
		t.Fatalf("add credits: %d %s", rec.Code, rec.Body.String())
	}
	rec = f.do(t, http.MethodPost, "/api/admin/add-credits", `{"email":"ghost@example.com","credits":10}`, tok)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	rec = f.do(t, http.MethodPost, "/api/admin/add-credits", `{"email":"joao@example.com","credits":0}`, tok)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAdminConfirmTransaction(t *testing.T) {
	f := newFixture(t)
	txID := "0f8fad5b-d9cb-469f-a165-70867728950e"
	txCols := []string{"id", "user_id", "user_email", "package_type", "package_name", "amount", "credits", "status", "payment_method", "created_at", "confirmed_at"}
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE transactions SET status=$2, confirmed_at=$3 WHERE id=$1 AND status=$4`)).
		WithArgs(txID, store.TxConfirmed, fixedNow, store.TxPending).
		WillReturnRows(sqlmock.NewRows(txCols).AddRow(txID, userID, "joao@example.com", "pack10", "Pacote 10 Créditos", 79.90, 10, store.TxConfirmed, store.PaymentPIX, fixedNow, fixedNow))
	f.mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET credits = credits + $2 WHERE id=$1`)).
		WithArgs(userID, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	tok := tokenFor(t, adminUserID, runtime.ScopeAdmin)
	rec := f.do(t, http.MethodPost, "/api/admin/transactions/"+txID+"/confirm", "", tok)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"confirmed"`) {
		t.Fatalf("confirm: %d %s", rec.Code, rec.Body.String())
	}
	rec = f.do(t, http.MethodPost, "/api/admin/transactions/nope/confirm", "", tok)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestAdminListsHidePasswords(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectQuery(regexp.QuoteMeta(`FROM users ORDER BY created_at DESC LIMIT $1`)).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(userID, "joao@example.com", "bcrypt-hash", 2, false, fixedNow))

	rec := f.do(t, http.MethodGet, "/api/admin/users", "", tokenFor(t, adminUserID, runtime.ScopeAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "bcrypt-hash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}
