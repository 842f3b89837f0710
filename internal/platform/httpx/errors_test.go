package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{Errorf(ErrNotFound, "gone"), http.StatusNotFound},
		{Errorf(ErrValidation, "bad"), http.StatusBadRequest},
		{Errorf(ErrTooLarge, "big"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", Errorf(ErrNotFound, "gone")), http.StatusNotFound},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusOf(tc.err), "%v", tc.err)
	}
}

func TestRespondErrorHidesInternalCause(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("pq: password authentication failed"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Error)

	rr = httptest.NewRecorder()
	RespondError(rr, Errorf(ErrTooLarge, "Request body too large"))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Request body too large", body.Error)
}
