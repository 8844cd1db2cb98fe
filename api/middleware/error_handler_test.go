package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/nebula-studio/api/models"
	"github.com/Annany2002/nebula-studio/internal/auth"
	"github.com/Annany2002/nebula-studio/internal/core"
)

func serveError(t *testing.T, err error) (int, models.ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/", func(c *gin.Context) { _ = c.Error(err) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestErrorHandlerStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("%w: collection 3", core.ErrNotFound), http.StatusNotFound},
		{"unknown component", fmt.Errorf("%w: 'Marquee'", core.ErrUnknownComponent), http.StatusNotFound},
		{"conflict", fmt.Errorf("%w: slug taken", core.ErrConflict), http.StatusConflict},
		{"uniqueness", &core.UniquenessError{Fields: []string{"code"}}, http.StatusConflict},
		{"mismatch", fmt.Errorf("%w: wrong project", core.ErrMismatch), http.StatusBadRequest},
		{"validation", core.NewValidationError([]core.FieldFailure{{Field: "title", Code: core.CodeRequired}}), http.StatusUnprocessableEntity},
		{"unknown field", core.NewUnknownFieldError([]string{"nope"}), http.StatusUnprocessableEntity},
		{"protected", fmt.Errorf("%w: system collection", core.ErrProtected), http.StatusForbidden},
		{"bad request", fmt.Errorf("%w: invalid id", ErrBadRequest), http.StatusBadRequest},
		{"expired token", auth.ErrTokenExpired, http.StatusUnauthorized},
		{"missing token", fmt.Errorf("%w: no header", auth.ErrUnauthorized), http.StatusUnauthorized},
		{"anything else", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := serveError(t, tt.err)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestErrorHandlerReturnsFailures(t *testing.T) {
	err := core.NewValidationError([]core.FieldFailure{
		{Field: "title", Code: core.CodeRequired, Message: "title is required"},
		{Field: "views", Code: core.CodeType, Message: "must be a number"},
	})
	_, body := serveError(t, err)
	require.Len(t, body.Failures, 2)
	assert.Equal(t, "title", body.Failures[0].Field)
	assert.Equal(t, core.CodeType, body.Failures[1].Code)
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	_, body := serveError(t, errors.New("sql: connection refused at 10.0.0.7"))
	assert.NotContains(t, body.Error, "10.0.0.7")
}
