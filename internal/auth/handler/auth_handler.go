package handler

import (
	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/dto"
	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/service"
	autherror "github.com/AnthoniusHendriyanto/patient-service/internal/errors"
	"github.com/AnthoniusHendriyanto/patient-service/internal/response"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	userService *service.UserService
	validator   *Validator
	cookies     Cookies
}

func NewAuthHandler(userService *service.UserService, validator *Validator, cookies Cookies) *AuthHandler {
	return &AuthHandler{userService: userService, validator: validator, cookies: cookies}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := h.validator.Bind(c, &input); err != nil {
		return err
	}

	user, err := h.userService.Register(c.UserContext(), input)
	if err != nil {
		return err
	}

	return response.User(c, fiber.StatusCreated, "User registered successfully", dto.NewUserOutput(user))
}

// CreateAdmin is mounted behind RequireRole(admin).
func (h *AuthHandler) CreateAdmin(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := h.validator.Bind(c, &input); err != nil {
		return err
	}

	user, err := h.userService.CreateAdmin(c.UserContext(), input)
	if err != nil {
		return err
	}

	return response.User(c, fiber.StatusCreated, "Admin user created successfully", dto.NewUserOutput(user))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := h.validator.Bind(c, &input); err != nil {
		return err
	}

	res, err := h.userService.Login(c.UserContext(), input)
	if err != nil {
		return err
	}

	return h.sendSession(c, "Login successful", res)
}

func (h *AuthHandler) SocialAuth(c *fiber.Ctx) error {
	var input dto.SocialAuthInput
	if err := h.validator.Bind(c, &input); err != nil {
		return err
	}

	res, err := h.userService.SocialAuth(c.UserContext(), input)
	if err != nil {
		return err
	}

	return h.sendSession(c, "Login successful", res)
}

// Logout always clears the token cookies, and drops the session when the
// caller can still be identified. Repeating it is not an error.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if id, ok := IdentityFrom(c).(domain.Authenticated); ok {
		if err := h.userService.Logout(c.UserContext(), id.ID); err != nil {
			return err
		}
	}

	h.cookies.Clear(c)
	return response.Success(c, fiber.StatusOK, "Logged out successfully", nil)
}

// Refresh accepts the refresh token from the body, the refresh-token header or
// the cookie, in that order.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return &autherror.ValidationError{Details: []string{"invalid request body"}}
		}
	}

	token := input.RefreshToken
	if token == "" {
		token = refreshToken(c)
	}
	if token == "" {
		return autherror.ErrUnauthenticated
	}

	res, err := h.userService.Refresh(c.UserContext(), token)
	if err != nil {
		return err
	}

	h.cookies.SetAccess(c, res.AccessToken, res.AccessTokenExpiry)
	return response.Success(c, fiber.StatusOK, "Token refreshed successfully", dto.TokenResponse{AccessToken: res.AccessToken})
}

func (h *AuthHandler) sendSession(c *fiber.Ctx, message string, res *dto.LoginResult) error {
	h.cookies.SetAccess(c, res.AccessToken, res.AccessTokenExpiry)
	h.cookies.SetRefresh(c, res.RefreshToken, res.RefreshTokenExpiry)

	env := response.Envelope{
		Success: true,
		Message: message,
		User:    dto.NewUserOutput(res.User),
	}
	if !h.cookies.Production {
		env.AccessToken = res.AccessToken
		env.RefreshToken = res.RefreshToken
	}
	return response.Send(c, fiber.StatusOK, env)
}
