package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	cryptoadapter "github.com/ericfisherdev/storeadmin/internal/adapter/driven/crypto"
	"github.com/ericfisherdev/storeadmin/internal/application"
	"github.com/ericfisherdev/storeadmin/internal/catalog"
	"github.com/ericfisherdev/storeadmin/internal/domain/model"
)

// --- Mock implementations ---

type memSettingStore struct {
	mu        sync.Mutex
	rows      map[string]model.Setting
	upsertErr error
}

func newMemSettingStore() *memSettingStore {
	return &memSettingStore{rows: map[string]model.Setting{}}
}

func (m *memSettingStore) ListBySection(_ context.Context, section string) ([]model.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Setting{}
	for _, s := range m.rows {
		if s.Section == section {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSettingStore) Get(_ context.Context, key string) (*model.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[key]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memSettingStore) UpsertAll(_ context.Context, settings []model.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, s := range settings {
		m.rows[s.Key] = s
	}
	return nil
}

func (m *memSettingStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

func (m *memSettingStore) value(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[key].Value
}

// --- Test helpers ---

type testApp struct {
	mux   http.Handler
	store *memSettingStore
	now   time.Time
}

// browser keeps cookies between requests like a user agent would.
type browser struct {
	t       *testing.T
	app     *testApp
	cookies map[string]*http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	app := &testApp{
		store: newMemSettingStore(),
		now:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	svc := application.NewSettingsService(app.store, cat, cryptoadapter.NewBcryptHasher(bcrypt.MinCost), slog.Default(),
		application.WithClock(func() time.Time { return app.now }))
	require.NoError(t, svc.SetPasscode(context.Background(), "admin123"))

	h := NewHandler(svc, NewSessionCodec([]byte("0123456789abcdef0123456789abcdef"), false), false, slog.Default())
	mux := http.NewServeMux()
	RegisterRoutes(mux, h)
	app.mux = mux
	return app
}

func (a *testApp) browser(t *testing.T) *browser {
	return &browser{t: t, app: a, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.app.mux.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// post submits form with the browser's CSRF token. The token is obtained by
// visiting the console first when the browser has none yet.
func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	if _, ok := b.cookies[csrfCookieName]; !ok {
		b.get("/settings?section=contact")
	}
	form.Set(csrfFormField, b.cookies[csrfCookieName].Value)
	return b.postRaw(path, form)
}

func (b *browser) postRaw(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) verify(passcode string) *httptest.ResponseRecorder {
	return b.post("/settings/verify-passcode", url.Values{
		"section":         {"payment"},
		"master_passcode": {passcode},
	})
}

func productForm() url.Values {
	return url.Values{
		"section":                 {"product"},
		"sales_tax":               {"8.25"},
		"standard_delivery_range": {"25"},
		"extended_delivery_range": {"50"},
		"distance_units":          {"miles"},
	}
}

// --- Tests ---

func TestIndex_RedirectsToSettings(t *testing.T) {
	rec := newTestApp(t).browser(t).get("/")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/settings", rec.Header().Get("Location"))
}

func TestShowSettings_DefaultSectionIsGated(t *testing.T) {
	rec := newTestApp(t).browser(t).get("/settings")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Admin Control")
	assert.Contains(t, body, "Master passcode required")
	assert.NotContains(t, body, `name="master_passcode_confirmation"`)
}

func TestShowSettings_UnknownSection(t *testing.T) {
	rec := newTestApp(t).browser(t).get("/settings?section=billing")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShowSettings_PublicSection(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.store.UpsertAll(context.Background(), []model.Setting{
		{Section: "contact", Key: "contact_phone", Value: "(555) 123-4567", Type: model.FieldTypeTel},
	}))

	rec := app.browser(t).get("/settings?section=contact")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="(555) 123-4567"`)
	assert.Contains(t, body, `name="_token"`)
	assert.Contains(t, body, "<strong>Stores Settings</strong>", "markdown help is rendered")
}

func TestUpdateSettings_RequiresCSRF(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)
	b.get("/settings?section=product")

	rec := b.postRaw("/settings", productForm())

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, app.store.value("sales_tax"))
}

func TestUpdateSettings_Success(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)

	rec := b.post("/settings", productForm())

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/settings?section=product", rec.Header().Get("Location"))
	assert.Equal(t, "8.25", app.store.value("sales_tax"))
	assert.Equal(t, "0", app.store.value("include_extended_range"))

	page := b.get("/settings?section=product")
	assert.Contains(t, page.Body.String(), "Settings updated successfully!")

	again := b.get("/settings?section=product")
	assert.NotContains(t, again.Body.String(), "Settings updated successfully!", "flash is shown once")
}

func TestUpdateSettings_ValidationFailureRerenders(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)
	form := productForm()
	form.Set("sales_tax", "150")
	form.Set("distance_units", "kilometers")

	rec := b.post("/settings", form)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Sales tax cannot exceed 100%.")
	assert.Contains(t, body, `value="150"`)
	assert.Contains(t, body, `<option value="kilometers" selected>`)
	assert.Empty(t, app.store.value("sales_tax"))
}

func TestUpdateSettings_PersistenceFailure(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)
	app.store.upsertErr = errors.New("database is locked")

	rec := b.post("/settings", productForm())

	require.Equal(t, http.StatusSeeOther, rec.Code)
	page := b.get("/settings?section=product")
	assert.Contains(t, page.Body.String(), "Failed to update settings. Please try again.")
}

func TestUpdateSettings_UnknownSection(t *testing.T) {
	rec := newTestApp(t).browser(t).post("/settings", url.Values{"section": {"billing"}})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateSettings_SensitiveSectionNeedsGate(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)
	form := url.Values{
		"section":                {"payment"},
		"payment_gateway":        {"Stripe"},
		"payment_api_public_key": {"pk"},
		"payment_api_key":        {"sk"},
		"payment_api_secret_key": {"shh"},
	}

	rec := b.post("/settings", form)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, app.store.value("payment_gateway"))

	require.Equal(t, http.StatusSeeOther, b.verify("admin123").Code)
	rec = b.post("/settings", form)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "Stripe", app.store.value("payment_gateway"))
}

func TestVerifyPasscode(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)

	rec := b.verify("wrong")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	page := b.get("/settings?section=payment")
	assert.Contains(t, page.Body.String(), "Invalid master passcode. Please try again.")
	assert.Contains(t, page.Body.String(), "Master passcode required")

	rec = b.verify("admin123")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/settings?section=payment", rec.Header().Get("Location"))
	page = b.get("/settings?section=payment")
	body := page.Body.String()
	assert.Contains(t, body, "Master passcode verified successfully!")
	assert.Contains(t, body, `name="payment_api_key"`)
	assert.Contains(t, body, "Verified until")
}

func TestVerifyPasscode_GateExpires(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)
	b.verify("admin123")

	app.now = app.now.Add(30 * time.Minute)
	assert.NotContains(t, b.get("/settings?section=payment").Body.String(), "Master passcode required")

	app.now = app.now.Add(time.Second)
	assert.Contains(t, b.get("/settings?section=payment").Body.String(), "Master passcode required")
}

func TestVerifyPasscode_SessionsAreIndependent(t *testing.T) {
	app := newTestApp(t)
	alice := app.browser(t)
	bob := app.browser(t)

	alice.verify("admin123")

	assert.NotContains(t, alice.get("/settings?section=admin").Body.String(), "Master passcode required")
	assert.Contains(t, bob.get("/settings?section=admin").Body.String(), "Master passcode required")
}

func TestClearPasscode(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)
	b.verify("admin123")

	rec := b.post("/settings/clear-passcode", url.Values{})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/settings", rec.Header().Get("Location"))
	body := b.get("/settings?section=admin").Body.String()
	assert.Contains(t, body, "Passcode verification cleared.")
	assert.Contains(t, body, "Master passcode required")
}

func TestUpdateSettings_ChangePasscode(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)
	b.verify("admin123")

	rec := b.post("/settings", url.Values{
		"section":                      {"admin"},
		"master_passcode":              {"newpass123"},
		"master_passcode_confirmation": {"newpass999"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passcode confirmation does not match.")
	assert.NotContains(t, rec.Body.String(), "newpass123", "passwords are never echoed")

	rec = b.post("/settings", url.Values{
		"section":                      {"admin"},
		"master_passcode":              {"newpass123"},
		"master_passcode_confirmation": {"newpass123"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(app.store.value(model.KeyMasterPasscode)), []byte("newpass123")))
}
