package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/hldang/stockpile/entity"
	"github.com/hldang/stockpile/storage"
)

// ImageRepository is the database collaborator contract the orchestrator
// needs. No transaction spanning the object store is assumed of it.
type ImageRepository interface {
	FindByProductID(ctx context.Context, productID uuid.UUID) ([]entity.ProductImage, error)
	Create(ctx context.Context, image *entity.ProductImage) error
	Updates(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// ObjectStore is the slice of the storage client the orchestrator drives.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Move(ctx context.Context, destKey, sourceKey string) error
}

// ImageService turns reconciled bulk-save batches into committed state across
// the object store and the database. Storage writes always complete before
// the database write that references them, so a mid-batch failure can leave
// an orphaned blob but never a row pointing at a missing key.
type ImageService struct {
	store      ObjectStore
	images     ImageRepository
	thumbs     Thumbnailer
	reconciler Reconciler
}

func NewImageService(store ObjectStore, images ImageRepository, thumbs Thumbnailer, reconciler Reconciler) *ImageService {
	return &ImageService{
		store:      store,
		images:     images,
		thumbs:     thumbs,
		reconciler: reconciler,
	}
}

// BulkSave validates the whole batch up front, then applies each resolution
// sequentially. Validation failures abort with zero side effects. An I/O
// failure mid-batch aborts the remaining items; already-applied items stay
// applied (no compensating rollback, by design).
//
// The returned list keeps the persisted images in their existing order with
// newly created images last.
func (s *ImageService) BulkSave(ctx context.Context, productID uuid.UUID, files []UploadedFile, descriptors []*ImageMetadata) ([]entity.ProductImage, error) {
	existing, err := s.images.FindByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product images: %w", err)
	}

	resolutions, err := s.reconciler.Reconcile(files, descriptors, existing)
	if err != nil {
		return nil, err
	}

	working := make(map[uuid.UUID]*entity.ProductImage, len(existing))
	order := make([]uuid.UUID, 0, len(existing))
	for i := range existing {
		if existing[i].DeletedAt.Valid {
			continue
		}
		img := existing[i]
		working[img.ID] = &img
		order = append(order, img.ID)
	}

	var created []entity.ProductImage
	for _, res := range resolutions {
		switch res.Op {
		case OpCreateFromFile:
			img, err := s.createFromFile(ctx, productID, files[res.FileIdx], res.Meta)
			if err != nil {
				return nil, err
			}
			created = append(created, *img)
		case OpUpdateExisting:
			if err := s.updateExisting(ctx, productID, working[res.Image.ID], res.Meta); err != nil {
				return nil, err
			}
		case OpDeleteExisting:
			if err := s.deleteExisting(ctx, productID, working[res.Image.ID]); err != nil {
				return nil, err
			}
			delete(working, res.Image.ID)
		}
	}

	result := make([]entity.ProductImage, 0, len(working)+len(created))
	for _, id := range order {
		if img, ok := working[id]; ok {
			result = append(result, *img)
		}
	}
	result = append(result, created...)
	return result, nil
}

// createFromFile writes both storage objects before inserting the row, so a
// storage failure leaves no orphaned row.
func (s *ImageService) createFromFile(ctx context.Context, productID uuid.UUID, file UploadedFile, meta *ImageMetadata) (*entity.ProductImage, error) {
	imageID := uuid.New()
	active := meta.Active != nil && *meta.Active
	visibility := storage.VisibilityForActive(active)
	ext := keyExtension(file.OriginalName)

	imageKey := storage.ResolveImageKey(productID, imageID, visibility, ext)
	thumbnailKey := storage.ResolveThumbnailKey(productID, imageID, visibility)

	if err := s.store.Put(ctx, imageKey, file.Content, file.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store image %s: %w", imageKey, err)
	}

	thumb, err := s.thumbs.Generate(file.Content, file.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate thumbnail for %s: %w", file.OriginalName, err)
	}
	if err := s.store.Put(ctx, thumbnailKey, thumb, "image/jpeg"); err != nil {
		return nil, fmt.Errorf("failed to store thumbnail %s: %w", thumbnailKey, err)
	}

	img := &entity.ProductImage{
		ID:           imageID,
		ProductID:    productID,
		ObjectKey:    imageKey,
		ThumbnailKey: thumbnailKey,
		Name:         meta.Name,
		Description:  meta.Description,
		Active:       active,
		Main:         meta.Main != nil && *meta.Main,
	}
	if err := s.images.Create(ctx, img); err != nil {
		return nil, fmt.Errorf("failed to insert image row: %w", err)
	}
	return img, nil
}

// updateExisting moves the storage objects before committing a visibility
// change, so a concurrent reader never observes a row pointing at a key that
// has not been moved yet.
func (s *ImageService) updateExisting(ctx context.Context, productID uuid.UUID, img *entity.ProductImage, meta *ImageMetadata) error {
	fields := make(map[string]interface{})

	if meta.Active != nil && *meta.Active != img.Active {
		visibility := storage.VisibilityForActive(*meta.Active)
		newImageKey := storage.ResolveImageKey(productID, img.ID, visibility, keyExtension(img.ObjectKey))
		newThumbnailKey := storage.ResolveThumbnailKey(productID, img.ID, visibility)

		if err := s.store.Move(ctx, newImageKey, img.ObjectKey); err != nil {
			return fmt.Errorf("failed to move image %s: %w", img.ObjectKey, err)
		}
		if err := s.store.Move(ctx, newThumbnailKey, img.ThumbnailKey); err != nil {
			return fmt.Errorf("failed to move thumbnail %s: %w", img.ThumbnailKey, err)
		}

		img.ObjectKey = newImageKey
		img.ThumbnailKey = newThumbnailKey
		img.Active = *meta.Active
		fields["object_key"] = newImageKey
		fields["thumbnail_key"] = newThumbnailKey
		fields["active"] = *meta.Active
	}

	if meta.Name != nil {
		img.Name = meta.Name
		fields["name"] = *meta.Name
	}
	if meta.Description != nil {
		img.Description = meta.Description
		fields["description"] = *meta.Description
	}
	if meta.Main != nil {
		img.Main = *meta.Main
		fields["main"] = *meta.Main
	}

	if len(fields) == 0 {
		return nil
	}
	if err := s.images.Updates(ctx, img.ID, fields); err != nil {
		return fmt.Errorf("failed to update image row %s: %w", img.ID, err)
	}
	return nil
}

// deleteExisting moves both objects under pending-deletion before the row is
// soft-deleted; the objects stay recoverable until a purge job removes them.
func (s *ImageService) deleteExisting(ctx context.Context, productID uuid.UUID, img *entity.ProductImage) error {
	pendingImageKey := storage.ResolveImageKey(productID, img.ID, storage.VisibilityPendingDeletion, keyExtension(img.ObjectKey))
	pendingThumbnailKey := storage.ResolveThumbnailKey(productID, img.ID, storage.VisibilityPendingDeletion)

	if err := s.store.Move(ctx, pendingImageKey, img.ObjectKey); err != nil {
		return fmt.Errorf("failed to move image %s to pending deletion: %w", img.ObjectKey, err)
	}
	if err := s.store.Move(ctx, pendingThumbnailKey, img.ThumbnailKey); err != nil {
		return fmt.Errorf("failed to move thumbnail %s to pending deletion: %w", img.ThumbnailKey, err)
	}

	if err := s.images.SoftDelete(ctx, img.ID); err != nil {
		return fmt.Errorf("failed to soft delete image row %s: %w", img.ID, err)
	}
	return nil
}

func keyExtension(name string) string {
	return strings.TrimPrefix(path.Ext(name), ".")
}
