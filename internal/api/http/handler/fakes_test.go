package handler

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/st-angelo/webarena-auth/internal/model"
	"github.com/st-angelo/webarena-auth/internal/service"
)

type authServiceMock struct {
	mock.Mock
}

func (m *authServiceMock) Signup(ctx context.Context, in service.SignupInput) (service.Session, error) {
	ret := m.Called(ctx, in)
	return ret.Get(0).(service.Session), ret.Error(1)
}

func (m *authServiceMock) Login(ctx context.Context, in service.LoginInput) (service.Session, error) {
	ret := m.Called(ctx, in)
	return ret.Get(0).(service.Session), ret.Error(1)
}

func (m *authServiceMock) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *authServiceMock) ResetPassword(ctx context.Context, secret string, in service.ResetPasswordInput) (service.Session, error) {
	ret := m.Called(ctx, secret, in)
	return ret.Get(0).(service.Session), ret.Error(1)
}

func (m *authServiceMock) UpdatePassword(ctx context.Context, userID uuid.UUID, in service.UpdatePasswordInput) (service.Session, error) {
	ret := m.Called(ctx, userID, in)
	return ret.Get(0).(service.Session), ret.Error(1)
}

type userServiceMock struct {
	mock.Mock
}

func (m *userServiceMock) Get(ctx context.Context, id uuid.UUID) (model.User, error) {
	ret := m.Called(ctx, id)
	return ret.Get(0).(model.User), ret.Error(1)
}

func (m *userServiceMock) UpdatePhoto(ctx context.Context, user model.User, photo service.Photo) (model.User, error) {
	ret := m.Called(ctx, user, photo)
	return ret.Get(0).(model.User), ret.Error(1)
}

func (m *userServiceMock) OpenPhoto(ctx context.Context, user model.User) (io.ReadCloser, string, error) {
	ret := m.Called(ctx, user)
	rc, _ := ret.Get(0).(io.ReadCloser)
	return rc, ret.String(1), ret.Error(2)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}
