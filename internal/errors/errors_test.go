package appErrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", appErrors.NewValidation("name is required"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("create: %w", appErrors.NewValidation("dup")), http.StatusBadRequest},
		{"auth", &appErrors.AuthorizationError{}, http.StatusUnauthorized},
		{"campaign not found", appErrors.NewCampaignNotFound("c1"), http.StatusNotFound},
		{"not found", appErrors.NewNotFound("customer", "x"), http.StatusNotFound},
		{"persistence", appErrors.NewPersistence("insert", errors.New("down")), http.StatusInternalServerError},
		{"upstream", appErrors.NewUpstream("generate", errors.New("503")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, appErrors.StatusCode(tc.err))
		})
	}
}

func TestPersistenceUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := appErrors.NewPersistence("update campaign", cause)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, appErrors.NewPersistence("noop", nil))
}
