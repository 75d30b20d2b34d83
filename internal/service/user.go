package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/st-angelo/webarena-auth/internal/logger"
	"github.com/st-angelo/webarena-auth/internal/model"
)

// MaxPhotoSize is the largest accepted profile photo.
const MaxPhotoSize = 5 << 20

var photoExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

var (
	ErrPhotoNotFound = &model.Error{Kind: model.KindNotFound, Code: "photo_not_found", Message: "This user has no photo."}
	ErrStorageOff    = &model.Error{Kind: model.KindInternal, Code: "storage_unavailable", Message: "Photo storage is not available."}
)

// Photo is an uploaded profile picture.
type Photo struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// Users serves profile reads and photo management.
type Users struct {
	users   model.UserStore
	storage model.Storage
	logger  *logger.Logger
}

// NewUsers creates the profile service. storage may be nil, in which case
// photo operations fail with ErrStorageOff.
func NewUsers(users model.UserStore, storage model.Storage, logger *logger.Logger) *Users {
	return &Users{
		users:   users,
		storage: storage,
		logger:  logger,
	}
}

// Get loads an active user by id.
func (s *Users) Get(ctx context.Context, id uuid.UUID) (model.User, error) {
	user, err := s.users.FindByID(ctx, id, false)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrSubjectNotFound.WithMessage("No user found with that ID.")
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// UpdatePhoto stores photo under a fresh key and points the user at it.
// Only the photo of the stored record changes. The previous object is
// removed on a best-effort basis.
func (s *Users) UpdatePhoto(ctx context.Context, user model.User, photo Photo) (model.User, error) {
	if s.storage == nil {
		return model.User{}, ErrStorageOff
	}

	ext, ok := photoExtensions[photo.ContentType]
	if !ok {
		return model.User{}, model.ErrValidation.WithMessage("Not an image! Please upload a jpeg, png or webp file.")
	}
	if photo.Size <= 0 || photo.Size > MaxPhotoSize {
		return model.User{}, model.ErrValidation.WithMessage("Photo must be between 1 byte and 5 MiB.")
	}

	current, err := s.users.FindByID(ctx, user.ID, false)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrSessionSubjectNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	user = current

	key := fmt.Sprintf("users/%s/%s.%s", user.ID, uuid.NewString(), ext)
	if err := s.storage.Upload(ctx, key, photo.Reader, photo.Size, photo.ContentType); err != nil {
		s.logger.Error("User service: failed to upload photo",
			"user_id", user.ID.String(),
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to upload photo: %w", err)
	}

	previous := user.Photo
	user.Photo = key

	saved, err := s.users.Save(ctx, user, model.SaveOptions{})
	if err != nil {
		s.removeObject(ctx, user.ID, key)
		return model.User{}, fmt.Errorf("failed to save user: %w", err)
	}

	if previous != "" && previous != key {
		s.removeObject(ctx, user.ID, previous)
	}

	s.logger.Info("User service: photo updated",
		"user_id", user.ID.String(),
		"key", key)

	return saved, nil
}

// OpenPhoto streams the user's current photo. The caller closes the reader.
func (s *Users) OpenPhoto(ctx context.Context, user model.User) (io.ReadCloser, string, error) {
	if s.storage == nil {
		return nil, "", ErrStorageOff
	}
	if user.Photo == "" {
		return nil, "", ErrPhotoNotFound
	}

	exists, err := s.storage.Exists(ctx, user.Photo)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check photo: %w", err)
	}
	if !exists {
		return nil, "", ErrPhotoNotFound
	}

	rc, err := s.storage.Download(ctx, user.Photo)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download photo: %w", err)
	}

	return rc, contentTypeOf(user.Photo), nil
}

func (s *Users) removeObject(ctx context.Context, userID uuid.UUID, key string) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn("User service: failed to delete photo",
			"user_id", userID.String(),
			"key", key,
			"error", err.Error())
	}
}

func contentTypeOf(key string) string {
	ext := strings.TrimPrefix(path.Ext(key), ".")
	for ct, e := range photoExtensions {
		if e == ext {
			return ct
		}
	}
	return "application/octet-stream"
}
