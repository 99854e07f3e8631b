package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/contacts-api/internal/middleware"
	"github.com/iliyamo/contacts-api/internal/model"
	"github.com/iliyamo/contacts-api/internal/repository"
)

// mockContactStore is an in-memory ContactStore for handler tests.
type mockContactStore struct {
	mu       sync.Mutex
	contacts map[uint64]model.Contact
	nextID   uint64
}

func newMockContactStore() *mockContactStore {
	return &mockContactStore{contacts: map[uint64]model.Contact{}}
}

func (m *mockContactStore) List(ctx context.Context, userID uint64, limit, offset int) ([]model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Contact{}
	for id := uint64(1); id <= m.nextID; id++ {
		if c, ok := m.contacts[id]; ok && c.UserID == userID {
			out = append(out, c)
		}
	}
	if offset >= len(out) {
		return []model.Contact{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockContactStore) Get(ctx context.Context, userID, contactID uint64) (model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[contactID]
	if !ok || c.UserID != userID {
		return model.Contact{}, sql.ErrNoRows
	}
	return c, nil
}

func (m *mockContactStore) Create(ctx context.Context, userID uint64, c model.Contact) (model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.contacts {
		if existing.PhoneNumber == c.PhoneNumber {
			return model.Contact{}, repository.ErrDuplicateContact
		}
	}
	m.nextID++
	c.ID = m.nextID
	c.UserID = userID
	m.contacts[c.ID] = c
	return c, nil
}

func (m *mockContactStore) Update(ctx context.Context, userID, contactID uint64, c model.Contact) (model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.contacts[contactID]
	if !ok || existing.UserID != userID {
		return model.Contact{}, sql.ErrNoRows
	}
	c.ID = contactID
	c.UserID = userID
	m.contacts[contactID] = c
	return c, nil
}

func (m *mockContactStore) Delete(ctx context.Context, userID, contactID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[contactID]
	if !ok || c.UserID != userID {
		return sql.ErrNoRows
	}
	delete(m.contacts, contactID)
	return nil
}

func (m *mockContactStore) Search(ctx context.Context, userID uint64, firstName, lastName, email string) ([]model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Contact{}
	for _, c := range m.contacts {
		if c.UserID != userID {
			continue
		}
		if (firstName != "" && strings.Contains(strings.ToLower(c.FirstName), strings.ToLower(firstName))) ||
			(lastName != "" && strings.Contains(strings.ToLower(c.LastName), strings.ToLower(lastName))) ||
			(email != "" && strings.Contains(strings.ToLower(c.Email), strings.ToLower(email))) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockContactStore) UpcomingBirthdays(ctx context.Context, userID uint64, limit, offset int) ([]model.Contact, error) {
	return m.List(ctx, userID, limit, offset)
}

func newContactCtx(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.UserKey, model.User{ID: 1, Email: "a@x.com", Confirmed: true})
	return c, rec
}

func withID(c echo.Context, id uint64) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(id, 10))
	return c
}

const validContact = `{"first_name":"Alice","last_name":"Smith","email":"alice@x.com","phone_number":"+380501234567","birthday":"1990-04-01"}`

func TestContactCreate(t *testing.T) {
	h := NewContactHandler(newMockContactStore())
	e := echo.New()

	c, rec := newContactCtx(e, http.MethodPost, "/v1/contacts", validContact)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"first_name":"Alice"`)

	// Same phone number conflicts.
	c, rec = newContactCtx(e, http.MethodPost, "/v1/contacts", validContact)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestContactCreateValidation(t *testing.T) {
	h := NewContactHandler(newMockContactStore())
	e := echo.New()

	cases := map[string]string{
		"short first name": `{"first_name":"Al","last_name":"S","phone_number":"+380501234567","birthday":"1990-04-01"}`,
		"bad phone":        `{"first_name":"Alice","last_name":"S","phone_number":"12345","birthday":"1990-04-01"}`,
		"bad birthday":     `{"first_name":"Alice","last_name":"S","phone_number":"+380501234567","birthday":"April 1st"}`,
		"missing last":     `{"first_name":"Alice","phone_number":"+380501234567","birthday":"1990-04-01"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, rec := newContactCtx(e, http.MethodPost, "/v1/contacts", body)
			require.NoError(t, h.Create(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestContactGetScopedToOwner(t *testing.T) {
	store := newMockContactStore()
	h := NewContactHandler(store)
	e := echo.New()

	stored, err := store.Create(context.Background(), 2, model.Contact{
		FirstName: "Bob", LastName: "Jones", PhoneNumber: "+380501111111",
		Birthday: time.Date(1985, 2, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// User 1 cannot see user 2's contact.
	c, rec := newContactCtx(e, http.MethodGet, "/v1/contacts/1", "")
	require.NoError(t, h.Get(withID(c, stored.ID)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContactUpdateAndDelete(t *testing.T) {
	store := newMockContactStore()
	h := NewContactHandler(store)
	e := echo.New()

	stored, err := store.Create(context.Background(), 1, model.Contact{
		FirstName: "Alice", LastName: "Smith", PhoneNumber: "+380501234567",
		Birthday: time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	c, rec := newContactCtx(e, http.MethodPut, "/v1/contacts/1",
		`{"first_name":"Alicia","last_name":"Smith","phone_number":"+380501234567","birthday":"1990-04-01"}`)
	require.NoError(t, h.Update(withID(c, stored.ID)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alicia")

	c, rec = newContactCtx(e, http.MethodDelete, "/v1/contacts/1", "")
	require.NoError(t, h.Delete(withID(c, stored.ID)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Deleting again is a 404.
	c, rec = newContactCtx(e, http.MethodDelete, "/v1/contacts/1", "")
	require.NoError(t, h.Delete(withID(c, stored.ID)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContactSearchRequiresFilter(t *testing.T) {
	h := NewContactHandler(newMockContactStore())
	e := echo.New()

	c, rec := newContactCtx(e, http.MethodGet, "/v1/contacts/search", "")
	require.NoError(t, h.Search(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContactSearch(t *testing.T) {
	store := newMockContactStore()
	h := NewContactHandler(store)
	e := echo.New()

	_, err := store.Create(context.Background(), 1, model.Contact{
		FirstName: "Alice", LastName: "Smith", Email: "alice@x.com",
		PhoneNumber: "+380501234567", Birthday: time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	c, rec := newContactCtx(e, http.MethodGet, "/v1/contacts/search?first_name=ali", "")
	require.NoError(t, h.Search(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alice")
}

func TestPageParamsClamped(t *testing.T) {
	e := echo.New()

	c, _ := newContactCtx(e, http.MethodGet, "/v1/contacts?limit=3&offset=-2", "")
	limit, offset := pageParams(c)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 0, offset)

	c, _ = newContactCtx(e, http.MethodGet, "/v1/contacts?limit=9999&offset=20", "")
	limit, offset = pageParams(c)
	assert.Equal(t, 500, limit)
	assert.Equal(t, 20, offset)
}
