package model

import "time"

// Contact represents a row in the `contacts` table. Every contact belongs to
// exactly one user; phone numbers are unique per table and emails are unique
// when present.
//
// Fields:
//
//	ID          – primary key identifier.
//	FirstName   – contact first name (indexed, searched by substring).
//	LastName    – contact last name (indexed, searched by substring).
//	Email       – contact email (nullable, unique when set).
//	PhoneNumber – phone number in +NNNNNNNNNNNN form (unique).
//	Birthday    – date of birth, time component unused.
//	ExtraData   – free-form note (nullable).
//	UserID      – owner of the contact.
//	CreatedAt   – timestamp of creation.
//	UpdatedAt   – timestamp of last update.
type Contact struct {
	ID          uint64    // contacts.id
	FirstName   string    // contacts.first_name
	LastName    string    // contacts.last_name
	Email       string    // contacts.email (nullable)
	PhoneNumber string    // contacts.phone_number
	Birthday    time.Time // contacts.birthday
	ExtraData   string    // contacts.extra_data (nullable)
	UserID      uint64    // contacts.user_id
	CreatedAt   time.Time // contacts.created_at
	UpdatedAt   time.Time // contacts.updated_at
}
