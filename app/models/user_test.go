package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMergeProvider(t *testing.T) {
	u := User{UID: "abc", Email: "a@example.com"}

	assert.True(t, u.MergeProvider("google.com"))
	assert.Equal(t, StringList{"google.com"}, u.Providers)

	// merging the same provider again is a no-op
	assert.False(t, u.MergeProvider("google.com"))
	assert.Equal(t, StringList{"google.com"}, u.Providers)

	assert.True(t, u.MergeProvider("password"))
	assert.Equal(t, StringList{"google.com", "password"}, u.Providers)

	assert.False(t, u.MergeProvider(""))
}

func TestStringListScanValue(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan(`["google.com","password"]`))
	assert.Equal(t, StringList{"google.com", "password"}, l)

	v, err := l.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `["google.com","password"]`, v.(string))

	var empty StringList
	require.NoError(t, empty.Scan(nil))
	assert.Empty(t, empty)

	nv, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", nv)
}
