package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/contacts-api/internal/model"
)

// ContactRepo persists contacts in the 'contacts' table. Every query is
// scoped to the owning user so one account can never read or mutate
// another's records.
type ContactRepo struct{ DB *sql.DB }

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{DB: db} }

const contactColumns = "id,first_name,last_name,email,phone_number,birthday,extra_data,user_id,created_at,updated_at"

func scanContact(row interface{ Scan(...any) error }) (model.Contact, error) {
	var (
		c     model.Contact
		email sql.NullString
		extra sql.NullString
	)
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &email, &c.PhoneNumber,
		&c.Birthday, &extra, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Contact{}, err
	}
	c.Email = email.String
	c.ExtraData = extra.String
	return c, nil
}

// List returns a page of the user's contacts ordered by id.
func (r *ContactRepo) List(ctx context.Context, userID uint64, limit, offset int) ([]model.Contact, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE user_id=? ORDER BY id LIMIT ? OFFSET ?",
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// Get fetches one contact owned by the user. Missing or foreign rows surface
// as sql.ErrNoRows.
func (r *ContactRepo) Get(ctx context.Context, userID, contactID uint64) (model.Contact, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE id=? AND user_id=? LIMIT 1",
		contactID, userID)
	return scanContact(row)
}

// Create inserts a contact for the user and returns the stored row.
// Uniqueness violations on phone number or email map to ErrDuplicateContact.
func (r *ContactRepo) Create(ctx context.Context, userID uint64, c model.Contact) (model.Contact, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO contacts (first_name, last_name, email, phone_number, birthday, extra_data, user_id) VALUES (?,?,?,?,?,?,?)",
		c.FirstName, c.LastName, nullable(c.Email), c.PhoneNumber, c.Birthday, nullable(c.ExtraData), userID)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Contact{}, ErrDuplicateContact
		}
		return model.Contact{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Contact{}, err
	}
	return r.Get(ctx, userID, uint64(id))
}

// Update replaces all mutable fields of a contact owned by the user and
// returns the stored row. Missing rows surface as sql.ErrNoRows.
func (r *ContactRepo) Update(ctx context.Context, userID, contactID uint64, c model.Contact) (model.Contact, error) {
	// Select first so an absent row is reported as no-rows even when the new
	// values match the old ones (MySQL reports 0 affected rows for both).
	if _, err := r.Get(ctx, userID, contactID); err != nil {
		return model.Contact{}, err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE contacts SET first_name=?, last_name=?, email=?, phone_number=?, birthday=?, extra_data=? WHERE id=? AND user_id=?",
		c.FirstName, c.LastName, nullable(c.Email), c.PhoneNumber, c.Birthday, nullable(c.ExtraData), contactID, userID)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Contact{}, ErrDuplicateContact
		}
		return model.Contact{}, err
	}
	return r.Get(ctx, userID, contactID)
}

// Delete removes a contact owned by the user. Missing rows surface as
// sql.ErrNoRows.
func (r *ContactRepo) Delete(ctx context.Context, userID, contactID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM contacts WHERE id=? AND user_id=?", contactID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Search returns the user's contacts matching any of the provided filters by
// case-insensitive substring. Empty filters are skipped; the caller
// guarantees at least one is set.
func (r *ContactRepo) Search(ctx context.Context, userID uint64, firstName, lastName, email string) ([]model.Contact, error) {
	where := []string{}
	args := []any{}
	if firstName != "" {
		where = append(where, "LOWER(first_name) LIKE ?")
		args = append(args, "%"+strings.ToLower(firstName)+"%")
	}
	if lastName != "" {
		where = append(where, "LOWER(last_name) LIKE ?")
		args = append(args, "%"+strings.ToLower(lastName)+"%")
	}
	if email != "" {
		where = append(where, "LOWER(email) LIKE ?")
		args = append(args, "%"+strings.ToLower(email)+"%")
	}

	query := "SELECT " + contactColumns + " FROM contacts WHERE user_id=?"
	if len(where) > 0 {
		query += " AND (" + strings.Join(where, " OR ") + ")"
	}
	query += " ORDER BY id"

	rows, err := r.DB.QueryContext(ctx, query, append([]any{userID}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// UpcomingBirthdays returns contacts from a page whose birthday falls within
// the next seven days.
func (r *ContactRepo) UpcomingBirthdays(ctx context.Context, userID uint64, limit, offset int) ([]model.Contact, error) {
	contacts, err := r.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	upcoming := []model.Contact{}
	today := time.Now().UTC()
	for _, c := range contacts {
		if daysToBirthday(c.Birthday, today) <= 7 {
			upcoming = append(upcoming, c)
		}
	}
	return upcoming, nil
}

// daysToBirthday returns the number of whole days from today until the next
// occurrence of the birthday's month and day.
func daysToBirthday(birthday, today time.Time) int {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	next := time.Date(today.Year(), birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	if next.Before(day) {
		next = next.AddDate(1, 0, 0)
	}
	return int(next.Sub(day).Hours() / 24)
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
