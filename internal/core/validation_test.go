// internal/core/validation_test.go
package core

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidIdentifier(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    bool
		comment string
	}{
		{"valid simple", "title", true, ""},
		{"valid with numbers", "field_123", true, ""},
		{"valid uppercase", "MY_FIELD", true, ""},
		{"valid underscore start", "_internal", true, ""},
		{"valid short", "a", true, ""},
		{"valid long (64 chars)", strings.Repeat("a", 64), true, ""},
		{"invalid number start", "1title", false, "leading digit"},
		{"invalid empty", "", false, "empty string"},
		{"invalid space", "my field", false, "contains space"},
		{"invalid hyphen", "my-field", false, "contains hyphen"},
		{"invalid special char", "field$", false, "contains dollar sign"},
		{"invalid too long", strings.Repeat("a", 65), false, "exceeds 64 chars"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsValidIdentifier(tc.input)
			if got != tc.want {
				t.Errorf("IsValidIdentifier(%q) = %v; want %v. %s", tc.input, got, tc.want, tc.comment)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{"Blog Posts", "blog-posts"},
		{"  Blog   Posts  ", "blog-posts"},
		{"Café Menu", "cafe-menu"},
		{"Q&A / FAQ", "q-a-faq"},
		{"already-slugged", "already-slugged"},
		{"!!!", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, Slugify(tc.input))
		})
	}
}

func TestIsValidSlug(t *testing.T) {
	assert.True(t, IsValidSlug("blog-posts"))
	assert.False(t, IsValidSlug("Blog Posts"))
	assert.False(t, IsValidSlug(""))
	assert.False(t, IsValidSlug("-leading"))
}

func TestValidationErrorMatchesSentinels(t *testing.T) {
	vErr := NewValidationError([]FieldFailure{{Field: "title", Code: CodeRequired, Message: "required"}})
	assert.True(t, errors.Is(vErr, ErrValidationFailed))
	assert.False(t, errors.Is(vErr, ErrUnknownField))

	uErr := NewUnknownFieldError([]string{"zeta", "alpha"})
	assert.True(t, errors.Is(uErr, ErrUnknownField))
	require.Len(t, uErr.Failures, 2)
	assert.Equal(t, "alpha", uErr.Failures[0].Field)

	wrapped := errors.Join(errors.New("context"), &UniquenessError{Fields: []string{"email"}})
	assert.True(t, errors.Is(wrapped, ErrUniquenessViolation))
	assert.Len(t, Failures(wrapped), 1)
}

func TestParseListQueryOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, err := ParseListQueryOptions(url.Values{})
		require.NoError(t, err)
		assert.Equal(t, 1, opts.Page)
		assert.Equal(t, DefaultPerPage, opts.PerPage)
		assert.Equal(t, 0, opts.Offset())
		assert.Equal(t, "created_at", opts.SortBy)
	})

	t.Run("page window and filters", func(t *testing.T) {
		q := url.Values{}
		q.Set("page", "3")
		q.Set("perPage", "10")
		q.Set("order", "ASC")
		q.Set("filter[status]", "published")
		q.Set("contains[title]", "go")
		opts, err := ParseListQueryOptions(q)
		require.NoError(t, err)
		assert.Equal(t, 20, opts.Offset())
		assert.Equal(t, 10, opts.Limit())
		assert.Equal(t, "asc", opts.SortOrder)
		assert.Equal(t, "published", opts.Equals["status"])
		assert.Equal(t, "go", opts.Contains["title"])
	})

	t.Run("rejects bad input", func(t *testing.T) {
		for _, q := range []url.Values{
			{"page": {"0"}},
			{"perPage": {"1000"}},
			{"sort": {"title"}},
			{"order": {"sideways"}},
			{"filter[bad-key]": {"x"}},
		} {
			_, err := ParseListQueryOptions(q)
			assert.Error(t, err, "query %v", q)
		}
	})
}
