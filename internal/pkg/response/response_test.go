package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"inmuebles-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, err error) (int, ErrorBody) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return FromError(c, err, "") })
	resp, testErr := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, testErr)
	b, _ := io.ReadAll(resp.Body)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(b, &body))
	return resp.StatusCode, body
}

func TestFromError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
		field  string
	}{
		{domain.NewValidationError("titulo", "El título es inválido."), fiber.StatusBadRequest, "", "titulo"},
		{fmt.Errorf("properties: create: %w", domain.ErrSlugTaken), fiber.StatusConflict, domain.CodeSlugTaken, ""},
		{domain.ErrCodeTaken, fiber.StatusConflict, domain.CodeCodeTaken, ""},
		{domain.ErrPropertyNotFound, fiber.StatusNotFound, domain.CodePropertyNotFound, ""},
		{domain.ErrLeadNotFound, fiber.StatusNotFound, "", ""},
		{domain.ErrImageNotInProperty, fiber.StatusBadRequest, "", ""},
		{fmt.Errorf("%w (timeout)", domain.ErrStorageDelete), fiber.StatusBadGateway, "", ""},
		{domain.ErrImageOrphaned, fiber.StatusInternalServerError, "", ""},
		{domain.ErrUnauthorized, fiber.StatusUnauthorized, "", ""},
	}
	for _, tc := range cases {
		status, body := render(t, tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.False(t, body.OK)
		assert.Equal(t, tc.code, body.Code)
		assert.Equal(t, tc.field, body.Field)
	}

	_, body := render(t, fmt.Errorf("properties: create: %w", domain.ErrSlugTaken))
	assert.Equal(t, domain.ErrSlugTaken.Error(), body.Error)
}

func TestFromError_Unexpected(t *testing.T) {
	status, body := render(t, errors.New("pq: connection refused"))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, GenericMessage, body.Error)
}
