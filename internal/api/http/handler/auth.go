package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/st-angelo/webarena-auth/internal/api/http/authctx"
	"github.com/st-angelo/webarena-auth/internal/model"
	"github.com/st-angelo/webarena-auth/internal/service"
)

// CookieName is the cookie that mirrors the session token.
const CookieName = "jwt"

// AuthService is the flow layer behind the auth endpoints.
type AuthService interface {
	Signup(ctx context.Context, in service.SignupInput) (service.Session, error)
	Login(ctx context.Context, in service.LoginInput) (service.Session, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, secret string, in service.ResetPasswordInput) (service.Session, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, in service.UpdatePasswordInput) (service.Session, error)
}

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Lifetime time.Duration
	Secure   bool
}

type signupRequest struct {
	Handle          string `json:"handle"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Role            string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type sessionResponse struct {
	Status string   `json:"status"`
	Token  string   `json:"token"`
	Data   userData `json:"data"`
}

type userData struct {
	User model.PublicUser `json:"user"`
}

// Auth serves signup, login and the password flows.
type Auth struct {
	svc    AuthService
	cookie CookieOptions
	now    func() time.Time
}

func NewAuth(svc AuthService, cookie CookieOptions) *Auth {
	return &Auth{
		svc:    svc,
		cookie: cookie,
		now:    time.Now,
	}
}

func (h *Auth) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadBody
	}

	s, err := h.svc.Signup(c.UserContext(), service.SignupInput{
		Handle:          req.Handle,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Role:            req.Role,
	})
	if err != nil {
		return err
	}

	return h.sendSession(c, fiber.StatusCreated, s)
}

func (h *Auth) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadBody
	}

	s, err := h.svc.Login(c.UserContext(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return h.sendSession(c, fiber.StatusOK, s)
}

func (h *Auth) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadBody
	}

	if err := h.svc.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Token sent to email!",
	})
}

func (h *Auth) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadBody
	}

	s, err := h.svc.ResetPassword(c.UserContext(), c.Params("secret"), service.ResetPasswordInput{
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return h.sendSession(c, fiber.StatusOK, s)
}

func (h *Auth) UpdatePassword(c *fiber.Ctx) error {
	user, ok := authctx.User(c.UserContext())
	if !ok {
		return model.ErrMissingToken
	}

	var req updatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadBody
	}

	s, err := h.svc.UpdatePassword(c.UserContext(), user.ID, service.UpdatePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return err
	}

	return h.sendSession(c, fiber.StatusOK, s)
}

func (h *Auth) sendSession(c *fiber.Ctx, status int, s service.Session) error {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  h.now().Add(h.cookie.Lifetime),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Status(status).JSON(sessionResponse{
		Status: "success",
		Token:  s.Token,
		Data:   userData{User: model.NewPublicUser(s.User)},
	})
}

var errBadBody = model.ErrValidation.WithMessage("Invalid request body.")
