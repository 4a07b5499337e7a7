package resource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/tamagocat/office-booking-backend/internal/pkg/storage"
)

// maxPhotoBytes bounds uploaded resource photos (8 MiB).
const maxPhotoBytes = 8 << 20

type CreateRequest struct {
	Name         string
	ResourceType string
	Properties   map[string]any
}

type UpdateRequest struct {
	Name       *string
	IsActive   *bool
	Properties map[string]any
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Resource, error)
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)

	// ListActive returns every active resource of the given type, for the
	// booking engine's alternative-resource suggestions.
	ListActive(ctx context.Context, t Type) ([]*Resource, error)

	Update(ctx context.Context, id string, req UpdateRequest) (*Resource, error)
	Delete(ctx context.Context, id string) error

	UploadPhoto(ctx context.Context, id string, header *multipart.FileHeader) (*Resource, error)
	Photo(ctx context.Context, id string, thumbnail bool) (io.ReadCloser, error)
}

type service struct {
	repo    Repository
	storage storage.Storage
	imgProc *storage.ImageProcessor
}

func NewService(repo Repository, store storage.Storage) Service {
	return &service{
		repo:    repo,
		storage: store,
		imgProc: storage.NewImageProcessor(),
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Resource, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrEmptyName
	}

	t := Type(req.ResourceType)
	if !t.IsValid() {
		return nil, ErrInvalidType
	}

	props := req.Properties
	if props == nil {
		props = map[string]any{}
	}

	res := &Resource{
		Name:         req.Name,
		ResourceType: t,
		IsActive:     true,
		Properties:   props,
	}

	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Resource, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) ListActive(ctx context.Context, t Type) ([]*Resource, error) {
	active := true
	res, _, err := s.repo.List(ctx, Filter{
		ResourceType: string(t),
		IsActive:     &active,
		Page:         1,
		PageSize:     1000,
	})
	return res, err
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Resource, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrEmptyName
		}
		res.Name = *req.Name
	}
	if req.IsActive != nil {
		// Deactivation hides the resource from availability and
		// suggestions but never touches committed bookings.
		res.IsActive = *req.IsActive
	}
	if req.Properties != nil {
		res.Properties = req.Properties
	}

	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if res.PhotoPath != nil {
		_ = s.storage.Delete(ctx, *res.PhotoPath)
		_ = s.storage.Delete(ctx, thumbPath(*res.PhotoPath))
	}
	return nil
}

func (s *service) UploadPhoto(ctx context.Context, id string, header *multipart.FileHeader) (*Resource, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if header.Size > maxPhotoBytes {
		return nil, ErrPhotoTooBig
	}
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		return nil, ErrNotAnImage
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded photo: %w", err)
	}
	defer src.Close()

	photoBytes, err := io.ReadAll(io.LimitReader(src, maxPhotoBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded photo: %w", err)
	}

	photoID := uuid.New().String()
	path := fmt.Sprintf("resources/%s/%s.jpg", res.ID, photoID)

	if err := s.storage.Save(ctx, path, bytes.NewReader(photoBytes)); err != nil {
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}

	// Thumbnail is best effort; the original is the source of truth.
	if thumb, err := s.imgProc.GenerateThumbnail(bytes.NewReader(photoBytes), 320, 320); err == nil {
		_ = s.storage.Save(ctx, thumbPath(path), thumb)
	}

	old := res.PhotoPath
	res.PhotoPath = &path
	if err := s.repo.Update(ctx, res); err != nil {
		_ = s.storage.Delete(ctx, path)
		_ = s.storage.Delete(ctx, thumbPath(path))
		return nil, err
	}

	if old != nil {
		_ = s.storage.Delete(ctx, *old)
		_ = s.storage.Delete(ctx, thumbPath(*old))
	}
	return res, nil
}

func (s *service) Photo(ctx context.Context, id string, thumbnail bool) (io.ReadCloser, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.PhotoPath == nil {
		return nil, ErrNoPhoto
	}

	path := *res.PhotoPath
	if thumbnail {
		path = thumbPath(path)
	}
	return s.storage.Get(ctx, path)
}

// thumbPath derives the thumbnail path from a photo path.
func thumbPath(path string) string {
	return strings.TrimSuffix(path, ".jpg") + "_thumb.jpg"
}
