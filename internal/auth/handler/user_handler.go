package handler

import (
	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/dto"
	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/service"
	"github.com/AnthoniusHendriyanto/patient-service/internal/response"
	"github.com/gofiber/fiber/v2"
)

// UserHandler serves the account endpoints. Every route sits behind
// AuthMiddleware.Authenticate.
type UserHandler struct {
	userService *service.UserService
	validator   *Validator
}

func NewUserHandler(userService *service.UserService, validator *Validator) *UserHandler {
	return &UserHandler{userService: userService, validator: validator}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	id, err := mustIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Me(c.UserContext(), id.ID)
	if err != nil {
		return err
	}
	return response.User(c, fiber.StatusOK, "User retrieved successfully", dto.NewUserOutput(user))
}

func (h *UserHandler) Profile(c *fiber.Ctx) error {
	user, err := h.userService.GetProfile(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return response.User(c, fiber.StatusOK, "User retrieved successfully", dto.NewUserOutput(user))
}

func (h *UserHandler) UpdateInfo(c *fiber.Ctx) error {
	id, err := mustIdentity(c)
	if err != nil {
		return err
	}

	var input dto.UpdateInfoInput
	if err := h.validator.Bind(c, &input); err != nil {
		return err
	}

	user, err := h.userService.UpdateInfo(c.UserContext(), id.ID, input)
	if err != nil {
		return err
	}
	return response.User(c, fiber.StatusOK, "User info updated successfully", dto.NewUserOutput(user))
}

func (h *UserHandler) UpdatePassword(c *fiber.Ctx) error {
	id, err := mustIdentity(c)
	if err != nil {
		return err
	}

	var input dto.UpdatePasswordInput
	if err := h.validator.Bind(c, &input); err != nil {
		return err
	}

	if err := h.userService.UpdatePassword(c.UserContext(), id.ID, input); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Password updated successfully", nil)
}

func (h *UserHandler) UpdateAvatar(c *fiber.Ctx) error {
	id, err := mustIdentity(c)
	if err != nil {
		return err
	}

	var input dto.UpdateAvatarInput
	if err := h.validator.Bind(c, &input); err != nil {
		return err
	}

	user, err := h.userService.UpdateAvatar(c.UserContext(), id.ID, input)
	if err != nil {
		return err
	}
	return response.User(c, fiber.StatusOK, "Avatar updated successfully", dto.NewUserOutput(user))
}

func (h *UserHandler) AllUsers(c *fiber.Ctx) error {
	users, err := h.userService.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "Users retrieved successfully", dto.NewUserOutputs(users))
}

func (h *UserHandler) UpdateRole(c *fiber.Ctx) error {
	var input dto.UpdateRoleInput
	if err := h.validator.Bind(c, &input); err != nil {
		return err
	}

	user, err := h.userService.UpdateRole(c.UserContext(), input)
	if err != nil {
		return err
	}
	return response.User(c, fiber.StatusOK, "User role updated successfully", dto.NewUserOutput(user))
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	if err := h.userService.DeleteUser(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "User deleted successfully", nil)
}
