package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contacts-api/internal/model"
	"github.com/iliyamo/contacts-api/internal/repository"
)

// ContactStore is the persistence surface the contact endpoints need.
// Satisfied by repository.ContactRepo.
type ContactStore interface {
	List(ctx context.Context, userID uint64, limit, offset int) ([]model.Contact, error)
	Get(ctx context.Context, userID, contactID uint64) (model.Contact, error)
	Create(ctx context.Context, userID uint64, c model.Contact) (model.Contact, error)
	Update(ctx context.Context, userID, contactID uint64, c model.Contact) (model.Contact, error)
	Delete(ctx context.Context, userID, contactID uint64) error
	Search(ctx context.Context, userID uint64, firstName, lastName, email string) ([]model.Contact, error)
	UpcomingBirthdays(ctx context.Context, userID uint64, limit, offset int) ([]model.Contact, error)
}

// ContactHandler bundles dependencies for the contact CRUD endpoints. All of
// them run behind the Authenticate middleware and operate on the account it
// attached to the request context.
type ContactHandler struct {
	Contacts ContactStore
}

func NewContactHandler(contacts ContactStore) *ContactHandler {
	return &ContactHandler{Contacts: contacts}
}

// ----- DTOs -----

var phonePattern = regexp.MustCompile(`^\+\d{12}$`)

type contactReq struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Birthday    string `json:"birthday"` // YYYY-MM-DD
	ExtraData   string `json:"extra_data"`
}

type contactResp struct {
	ID          uint64    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email,omitempty"`
	PhoneNumber string    `json:"phone_number"`
	Birthday    string    `json:"birthday"`
	ExtraData   string    `json:"extra_data,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toContactResp(c model.Contact) contactResp {
	return contactResp{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		Birthday:    c.Birthday.Format("2006-01-02"),
		ExtraData:   c.ExtraData,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toContactResps(contacts []model.Contact) []contactResp {
	out := make([]contactResp, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, toContactResp(c))
	}
	return out
}

// parseContactReq validates the request body against the schema the table
// enforces: first name 3..50 chars, phone in +NNNNNNNNNNNN form, birthday a
// plain date.
func parseContactReq(c echo.Context) (model.Contact, error) {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return model.Contact{}, errors.New("invalid body")
	}
	if len(req.FirstName) < 3 || len(req.FirstName) > 50 {
		return model.Contact{}, errors.New("first_name must be 3-50 characters")
	}
	if req.LastName == "" {
		return model.Contact{}, errors.New("last_name required")
	}
	if !phonePattern.MatchString(req.PhoneNumber) {
		return model.Contact{}, errors.New("phone_number must match +NNNNNNNNNNNN")
	}
	birthday, err := time.Parse("2006-01-02", req.Birthday)
	if err != nil {
		return model.Contact{}, errors.New("birthday must be YYYY-MM-DD")
	}
	return model.Contact{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Birthday:    birthday,
		ExtraData:   req.ExtraData,
	}, nil
}

// List returns a page of the caller's contacts.
func (h *ContactHandler) List(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit, offset := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contacts, err := h.Contacts.List(ctx, u.ID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toContactResps(contacts))
}

// Get returns one contact by id, 404 when it is absent or owned by someone
// else.
func (h *ContactHandler) Get(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contact, err := h.Contacts.Get(ctx, u.ID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toContactResp(contact))
}

// Create stores a new contact for the caller.
func (h *ContactHandler) Create(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	contact, err := parseContactReq(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stored, err := h.Contacts.Create(ctx, u.ID, contact)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateContact) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "contact already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create contact failed"})
	}
	return c.JSON(http.StatusCreated, toContactResp(stored))
}

// Update replaces all fields of one of the caller's contacts.
func (h *ContactHandler) Update(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	contact, err := parseContactReq(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stored, err := h.Contacts.Update(ctx, u.ID, id, contact)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		case errors.Is(err, repository.ErrDuplicateContact):
			return c.JSON(http.StatusConflict, echo.Map{"error": "contact already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update contact failed"})
	}
	return c.JSON(http.StatusOK, toContactResp(stored))
}

// Delete removes one of the caller's contacts.
func (h *ContactHandler) Delete(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Contacts.Delete(ctx, u.ID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete contact failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Search filters the caller's contacts by case-insensitive substring on
// first name, last name or email. At least one filter is required.
func (h *ContactHandler) Search(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	firstName := c.QueryParam("first_name")
	lastName := c.QueryParam("last_name")
	email := c.QueryParam("email")
	if firstName == "" && lastName == "" && email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "search parameter required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contacts, err := h.Contacts.Search(ctx, u.ID, firstName, lastName, email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toContactResps(contacts))
}

// UpcomingBirthdays returns the caller's contacts with a birthday in the
// next seven days.
func (h *ContactHandler) UpcomingBirthdays(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit, offset := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contacts, err := h.Contacts.UpcomingBirthdays(ctx, u.ID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toContactResps(contacts))
}

// pageParams reads limit/offset query parameters and clamps them to the
// bounds the API documents (limit 10..500, offset >= 0).
func pageParams(c echo.Context) (limit, offset int) {
	limit = 10
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		limit = v
	}
	if limit < 10 {
		limit = 10
	}
	if limit > 500 {
		limit = 500
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
