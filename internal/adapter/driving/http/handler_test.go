package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	cryptoadapter "github.com/ericfisherdev/storeadmin/internal/adapter/driven/crypto"
	httphandler "github.com/ericfisherdev/storeadmin/internal/adapter/driving/http"
	"github.com/ericfisherdev/storeadmin/internal/application"
	"github.com/ericfisherdev/storeadmin/internal/catalog"
	"github.com/ericfisherdev/storeadmin/internal/domain/model"
)

// --- Mock implementations ---

type mockSettingStore struct {
	rows []model.Setting
	err  error
}

func (m *mockSettingStore) ListBySection(_ context.Context, section string) ([]model.Setting, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []model.Setting{}
	for _, s := range m.rows {
		if s.Section == section {
			out = append(out, s)
		}
	}
	return out, nil
}
func (m *mockSettingStore) Get(_ context.Context, _ string) (*model.Setting, error) {
	return nil, m.err
}
func (m *mockSettingStore) UpsertAll(_ context.Context, _ []model.Setting) error { return m.err }
func (m *mockSettingStore) Count(_ context.Context) (int, error)                 { return len(m.rows), m.err }

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Test helpers ---

func setupMux(t *testing.T, store *mockSettingStore, db httphandler.Pinger) http.Handler {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	svc := application.NewSettingsService(store, cat, cryptoadapter.NewBcryptHasher(bcrypt.MinCost), slog.Default())
	h := httphandler.NewHandler(svc, db, slog.Default())
	return httphandler.NewServeMux(h, slog.Default())
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	err := json.NewDecoder(rec.Body).Decode(v)
	require.NoError(t, err)
}

func get(mux http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		db         httphandler.Pinger
		wantStatus int
		wantBody   string
		wantDB     string
	}{
		{name: "no database probe", db: nil, wantStatus: http.StatusOK, wantBody: "ok", wantDB: "skipped"},
		{name: "database reachable", db: &mockPinger{}, wantStatus: http.StatusOK, wantBody: "ok", wantDB: "ok"},
		{name: "database down", db: &mockPinger{err: errors.New("closed")}, wantStatus: http.StatusServiceUnavailable, wantBody: "degraded", wantDB: "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(setupMux(t, &mockSettingStore{}, tt.db), "/api/v1/health")

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body httphandler.HealthResponse
			decodeJSON(t, rec, &body)
			assert.Equal(t, tt.wantBody, body.Status)
			assert.Equal(t, tt.wantDB, body.Database)
			assert.NotEmpty(t, body.Time)
		})
	}
}

func TestGetCatalog(t *testing.T) {
	rec := get(setupMux(t, &mockSettingStore{}, nil), "/api/v1/settings/catalog")

	require.Equal(t, http.StatusOK, rec.Code)
	var body []httphandler.SectionResponse
	decodeJSON(t, rec, &body)

	require.Len(t, body, 4)
	names := make([]string, 0, len(body))
	for _, s := range body {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"admin", "contact", "payment", "product"}, names)
	assert.True(t, body[0].Sensitive)
	assert.False(t, body[1].Sensitive)
	assert.Equal(t, "master_passcode", body[0].Fields[0].Key)
}

func TestGetSection(t *testing.T) {
	store := &mockSettingStore{rows: []model.Setting{
		{Section: "product", Key: "sales_tax", Value: "8.25"},
		{Section: "product", Key: "distance_units", Value: "miles"},
		{Section: "payment", Key: "payment_api_key", Value: "sk_live"},
	}}

	tests := []struct {
		name       string
		path       string
		store      *mockSettingStore
		wantStatus int
		check      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:       "public section",
			path:       "/api/v1/settings/product",
			store:      store,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var body httphandler.SectionValuesResponse
				decodeJSON(t, rec, &body)
				assert.Equal(t, "product", body.Section)
				assert.Equal(t, map[string]string{"sales_tax": "8.25", "distance_units": "miles"}, body.Settings)
			},
		},
		{
			name:       "empty public section",
			path:       "/api/v1/settings/contact",
			store:      store,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var body httphandler.SectionValuesResponse
				decodeJSON(t, rec, &body)
				assert.NotNil(t, body.Settings)
				assert.Empty(t, body.Settings)
			},
		},
		{
			name:       "sensitive section refused",
			path:       "/api/v1/settings/payment",
			store:      store,
			wantStatus: http.StatusForbidden,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.NotContains(t, rec.Body.String(), "sk_live")
			},
		},
		{
			name:       "admin section refused",
			path:       "/api/v1/settings/admin",
			store:      store,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "unknown section",
			path:       "/api/v1/settings/billing",
			store:      store,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "store failure",
			path:       "/api/v1/settings/product",
			store:      &mockSettingStore{err: errors.New("disk I/O error")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(setupMux(t, tt.store, nil), tt.path)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.check != nil {
				tt.check(t, rec)
			}
		})
	}
}

func TestApplyMiddleware_RequestID(t *testing.T) {
	var seen string
	h := httphandler.ApplyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httphandler.RequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), slog.Default())

	rec := get(h, "/")
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	require.NoError(t, err)
	assert.Equal(t, rec.Header().Get("X-Request-ID"), seen)

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", incoming)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, incoming, rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "<script>")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "<script>", rec.Header().Get("X-Request-ID"))
}

func TestApplyMiddleware_Recovery(t *testing.T) {
	h := httphandler.ApplyMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), slog.Default())

	rec := get(h, "/")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
