package handler

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/st-angelo/webarena-auth/internal/api/http/authctx"
	"github.com/st-angelo/webarena-auth/internal/model"
	"github.com/st-angelo/webarena-auth/internal/service"
)

// UserService is the profile layer behind the user endpoints.
type UserService interface {
	Get(ctx context.Context, id uuid.UUID) (model.User, error)
	UpdatePhoto(ctx context.Context, user model.User, photo service.Photo) (model.User, error)
	OpenPhoto(ctx context.Context, user model.User) (io.ReadCloser, string, error)
}

type userResponse struct {
	Status string   `json:"status"`
	Data   userData `json:"data"`
}

// Users serves the current user's profile and admin lookups.
type Users struct {
	svc UserService
}

func NewUsers(svc UserService) *Users {
	return &Users{svc: svc}
}

func (h *Users) Me(c *fiber.Ctx) error {
	user, ok := authctx.User(c.UserContext())
	if !ok {
		return model.ErrMissingToken
	}
	return sendUser(c, user)
}

func (h *Users) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return model.ErrValidation.WithMessage("Invalid user id.")
	}

	user, err := h.svc.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return sendUser(c, user)
}

func (h *Users) UpdatePhoto(c *fiber.Ctx) error {
	user, ok := authctx.User(c.UserContext())
	if !ok {
		return model.ErrMissingToken
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		return model.ErrValidation.WithMessage("Please upload a photo.")
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	saved, err := h.svc.UpdatePhoto(c.UserContext(), user, service.Photo{
		Reader:      f,
		Size:        fh.Size,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
	})
	if err != nil {
		return err
	}
	return sendUser(c, saved)
}

func (h *Users) Photo(c *fiber.Ctx) error {
	user, ok := authctx.User(c.UserContext())
	if !ok {
		return model.ErrMissingToken
	}

	rc, contentType, err := h.svc.OpenPhoto(c.UserContext(), user)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, contentType)
	return c.SendStream(rc)
}

func sendUser(c *fiber.Ctx, user model.User) error {
	return c.Status(fiber.StatusOK).JSON(userResponse{
		Status: "success",
		Data:   userData{User: model.NewPublicUser(user)},
	})
}
