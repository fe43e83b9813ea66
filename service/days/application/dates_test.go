package application

import (
	"errors"
	"testing"

	"days-api/service/days/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateService_Between(t *testing.T) {
	days, err := DateService{}.Between(Fields{"first": "01.01.2024", "last": "10.01.2024"})
	require.NoError(t, err)
	assert.Equal(t, 9, days)
}

func TestDateService_Between_Errors(t *testing.T) {
	cases := []struct {
		name    string
		in      Fields
		missing bool
	}{
		{name: "no fields", in: Fields{}, missing: true},
		{name: "only first", in: Fields{"first": "01.01.2024"}, missing: true},
		{name: "first is number", in: Fields{"first": float64(5), "last": "01.01.2024"}},
		{name: "only first and it is a number", in: Fields{"first": float64(5)}},
		{name: "last is null", in: Fields{"first": "01.01.2024", "last": nil}},
		{name: "invalid date", in: Fields{"first": "31.04.2024", "last": "01.01.2024"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := DateService{}.Between(c.in)
			require.Error(t, err)
			if c.missing {
				assert.True(t, errors.Is(err, domain.ErrMissingData))
				return
			}
			var pe *domain.ParseError
			assert.True(t, errors.As(err, &pe))
			assert.Equal(t, domain.MsgInvalidDate, err.Error())
		})
	}
}

func TestDateService_Weekday(t *testing.T) {
	day, err := DateService{}.Weekday(Fields{"date": "01.01.2024"})
	require.NoError(t, err)
	assert.Equal(t, "Monday", day)

	_, err = DateService{}.Weekday(Fields{})
	assert.ErrorIs(t, err, domain.ErrMissingData)

	_, err = DateService{}.Weekday(Fields{"date": true})
	var pe *domain.ParseError
	assert.ErrorAs(t, err, &pe)
}
