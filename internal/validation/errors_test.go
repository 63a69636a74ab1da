package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors_EmptyIsNil(t *testing.T) {
	var errs Errors
	assert.NoError(t, errs.Err())
}

func TestErrors_CollectsEveryField(t *testing.T) {
	var errs Errors
	errs.Add("price", "Price must be less than 1,000,000", 2000000)
	errs.Add("datetime", "Datetime must be a valid ISO 8601 date", "not-a-date")

	err := errs.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price: Price must be less than 1,000,000")
	assert.Contains(t, err.Error(), "datetime: Datetime must be a valid ISO 8601 date")
	assert.True(t, errs.Has("price"))
	assert.False(t, errs.Has("name"))
}

func TestAs_UnwrapsWrappedErrors(t *testing.T) {
	var errs Errors
	errs.Add("name", "Name must be between 1 and 100 characters", "")

	wrapped := fmt.Errorf("create transaction: %w", errs.Err())

	got, ok := As(wrapped)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "name", got[0].Field)

	_, ok = As(fmt.Errorf("plain"))
	assert.False(t, ok)
}
