package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysToBirthday(t *testing.T) {
	today := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	bday := func(month time.Month, day int) time.Time {
		return time.Date(1990, month, day, 0, 0, 0, 0, time.UTC)
	}

	assert.Equal(t, 0, daysToBirthday(bday(time.March, 10), today), "birthday today")
	assert.Equal(t, 1, daysToBirthday(bday(time.March, 11), today))
	assert.Equal(t, 7, daysToBirthday(bday(time.March, 17), today))
	assert.Equal(t, 8, daysToBirthday(bday(time.March, 18), today))

	// Yesterday's birthday wraps around to next year.
	assert.Equal(t, 364, daysToBirthday(bday(time.March, 9), today))
}

func TestDaysToBirthdayYearEndWrap(t *testing.T) {
	today := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)
	bday := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 3, daysToBirthday(bday, today))
}
