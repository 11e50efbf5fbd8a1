package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/dto"
	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/handler"
	autherror "github.com/AnthoniusHendriyanto/patient-service/internal/errors"
	"github.com/AnthoniusHendriyanto/patient-service/pkg/constant"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStrongPassword(t *testing.T) {
	testCases := []struct {
		password string
		want     bool
	}{
		{"Passw0rd!", true},
		{"Pa0!", false},
		{"password1!", false},
		{"PASSWORD1!", false},
		{"Password!!", false},
		{"Password12", false},
	}

	for _, tc := range testCases {
		t.Run(tc.password, func(t *testing.T) {
			assert.Equal(t, tc.want, handler.IsStrongPassword(tc.password))
		})
	}
}

func TestIsAvatarSource(t *testing.T) {
	assert.True(t, handler.IsAvatarSource("https://cdn.example.com/a.png"))
	assert.True(t, handler.IsAvatarSource("http://localhost:9000/a.png"))
	assert.True(t, handler.IsAvatarSource("data:image/png;base64,iVBORw0KGgo="))
	assert.False(t, handler.IsAvatarSource("ftp://example.com/a.png"))
	assert.False(t, handler.IsAvatarSource("data:text/plain;base64,eA=="))
	assert.False(t, handler.IsAvatarSource("not a url"))
}

func TestValidator_PasswordPolicy(t *testing.T) {
	input := dto.RegisterInput{Email: "a@x.com", Password: "simple1", ConfirmPassword: "simple1"}

	assert.NoError(t, handler.NewValidator(false).Struct(input))

	err := handler.NewValidator(true).Struct(input)
	var ve *autherror.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Details, 1)
	assert.Contains(t, ve.Details[0], "password must be at least 8 characters")

	input.Password, input.ConfirmPassword = "Simple1!", "Simple1!"
	assert.NoError(t, handler.NewValidator(true).Struct(input))
}

func TestValidator_RoleMustBeKnown(t *testing.T) {
	err := handler.NewValidator(false).Struct(dto.UpdateRoleInput{Email: "a@x.com", Role: "root"})

	var ve *autherror.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"role must be one of: user admin"}, ve.Details)
}

func TestCookies_Production(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		handler.Cookies{Production: true}.SetAccess(c, "token", time.Minute)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	cookie := cookieNamed(resp, constant.AccessTokenCookie)
	require.NotNil(t, cookie)
	assert.Equal(t, "token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, 60, cookie.MaxAge)
}
