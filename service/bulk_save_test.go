package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hldang/stockpile/entity"
	"github.com/hldang/stockpile/storage"
	"gorm.io/gorm"
)

type fakeImageRepo struct {
	images map[uuid.UUID]*entity.ProductImage
	order  []uuid.UUID

	creates     int
	updates     int
	softDeletes int
	failCreate  bool
}

func newFakeImageRepo(existing ...entity.ProductImage) *fakeImageRepo {
	repo := &fakeImageRepo{images: make(map[uuid.UUID]*entity.ProductImage)}
	for i := range existing {
		img := existing[i]
		repo.images[img.ID] = &img
		repo.order = append(repo.order, img.ID)
	}
	return repo
}

func (r *fakeImageRepo) FindByProductID(ctx context.Context, productID uuid.UUID) ([]entity.ProductImage, error) {
	var out []entity.ProductImage
	for _, id := range r.order {
		img := r.images[id]
		if img.ProductID == productID && !img.DeletedAt.Valid {
			out = append(out, *img)
		}
	}
	return out, nil
}

func (r *fakeImageRepo) Create(ctx context.Context, image *entity.ProductImage) error {
	if r.failCreate {
		return errors.New("insert failed")
	}
	r.creates++
	img := *image
	r.images[img.ID] = &img
	r.order = append(r.order, img.ID)
	return nil
}

func (r *fakeImageRepo) Updates(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	r.updates++
	img := r.images[id]
	if v, ok := fields["name"]; ok {
		name := v.(string)
		img.Name = &name
	}
	if v, ok := fields["description"]; ok {
		desc := v.(string)
		img.Description = &desc
	}
	if v, ok := fields["main"]; ok {
		img.Main = v.(bool)
	}
	if v, ok := fields["active"]; ok {
		img.Active = v.(bool)
	}
	if v, ok := fields["object_key"]; ok {
		img.ObjectKey = v.(string)
	}
	if v, ok := fields["thumbnail_key"]; ok {
		img.ThumbnailKey = v.(string)
	}
	return nil
}

func (r *fakeImageRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.softDeletes++
	r.images[id].DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

type fakeThumbnailer struct {
	fail bool
}

func (t *fakeThumbnailer) Generate(data []byte, sourceMediaType string) ([]byte, error) {
	if t.fail {
		return nil, errors.New("decode failed")
	}
	return []byte("thumb:" + sourceMediaType), nil
}

func newTestService(t *testing.T, repo *fakeImageRepo, thumbs Thumbnailer) (*ImageService, *storage.MemoryBackend) {
	t.Helper()
	backend := storage.NewMemoryBackend()
	t.Cleanup(backend.Reset)
	client := storage.NewClient(backend, "test-bucket")
	svc := NewImageService(client, repo, thumbs, Reconciler{
		MaxImagesPerProduct:  10,
		NameMaxLength:        255,
		DescriptionMaxLength: 1024,
	})
	return svc, backend
}

func existingImage(productID uuid.UUID, main, active bool) entity.ProductImage {
	id := uuid.New()
	vis := storage.VisibilityForActive(active)
	return entity.ProductImage{
		ID:           id,
		ProductID:    productID,
		ObjectKey:    storage.ResolveImageKey(productID, id, vis, "png"),
		ThumbnailKey: storage.ResolveThumbnailKey(productID, id, vis),
		Active:       active,
		Main:         main,
	}
}

func seedObjects(t *testing.T, backend *storage.MemoryBackend, images ...entity.ProductImage) {
	t.Helper()
	ctx := context.Background()
	for _, img := range images {
		require.NoError(t, backend.PutObject(ctx, "test-bucket", img.ObjectKey, []byte("img"), "image/png"))
		require.NoError(t, backend.PutObject(ctx, "test-bucket", img.ThumbnailKey, []byte("thumb"), "image/jpeg"))
	}
}

func TestBulkSaveMainHandoverScenario(t *testing.T) {
	// product P has A(main, active) and B(inactive main candidate); the batch
	// demotes A explicitly and creates a new public main image C.
	ctx := context.Background()
	productID := uuid.New()
	imgA := existingImage(productID, true, true)
	imgB := existingImage(productID, false, true)
	repo := newFakeImageRepo(imgA, imgB)
	svc, backend := newTestService(t, repo, &fakeThumbnailer{})
	seedObjects(t, backend, imgA, imgB)

	files := []UploadedFile{{Content: []byte("new image"), ContentType: "image/png", OriginalName: "front.png"}}
	result, err := svc.BulkSave(ctx, productID, files, []*ImageMetadata{
		{ImageID: idPtr(imgA.ID), Main: boolPtr(false)},
		{FileIdx: intPtr(0), Main: boolPtr(true), Active: boolPtr(true)},
	})
	require.NoError(t, err)
	require.Len(t, result, 3)

	// existing order first, new image last
	assert.Equal(t, imgA.ID, result[0].ID)
	assert.False(t, result[0].Main)
	assert.Equal(t, imgB.ID, result[1].ID)
	assert.False(t, result[1].Main)

	created := result[2]
	assert.True(t, created.Main)
	assert.True(t, created.Active)
	assert.True(t, strings.HasPrefix(created.ObjectKey, "public/"), "got %s", created.ObjectKey)
	assert.True(t, strings.HasSuffix(created.ObjectKey, ".png"))
	assert.True(t, strings.HasSuffix(created.ThumbnailKey, ".thumbnail.jpeg"))
	assert.True(t, backend.Exists("test-bucket", created.ObjectKey))
	assert.True(t, backend.Exists("test-bucket", created.ThumbnailKey))
}

func TestBulkSaveMultipleMainsNoWrites(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	repo := newFakeImageRepo()
	svc, backend := newTestService(t, repo, &fakeThumbnailer{})

	files := []UploadedFile{
		{Content: []byte("a"), ContentType: "image/png", OriginalName: "a.png"},
		{Content: []byte("b"), ContentType: "image/png", OriginalName: "b.png"},
	}
	_, err := svc.BulkSave(ctx, productID, files, []*ImageMetadata{
		{FileIdx: intPtr(0), Main: boolPtr(true)},
		{FileIdx: intPtr(1), Main: boolPtr(true)},
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	entries, listErr := storage.NewClient(backend, "test-bucket").List(ctx, "private/products")
	require.NoError(t, listErr)
	assert.Empty(t, entries)
	assert.Zero(t, repo.creates)
}

func TestBulkSaveCeilingNoWrites(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	imgA := existingImage(productID, false, true)
	imgB := existingImage(productID, false, true)
	repo := newFakeImageRepo(imgA, imgB)

	backend := storage.NewMemoryBackend()
	client := storage.NewClient(backend, "test-bucket")
	svc := NewImageService(client, repo, &fakeThumbnailer{}, Reconciler{
		MaxImagesPerProduct:  2,
		NameMaxLength:        255,
		DescriptionMaxLength: 1024,
	})

	files := []UploadedFile{{Content: []byte("c"), ContentType: "image/png", OriginalName: "c.png"}}
	_, err := svc.BulkSave(ctx, productID, files, []*ImageMetadata{{FileIdx: intPtr(0)}})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Zero(t, repo.creates)
}

func TestBulkSaveImplicitDemotion(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	oldMain := existingImage(productID, true, true)
	repo := newFakeImageRepo(oldMain)
	svc, backend := newTestService(t, repo, &fakeThumbnailer{})
	seedObjects(t, backend, oldMain)

	files := []UploadedFile{{Content: []byte("new"), ContentType: "image/png", OriginalName: "new.png"}}
	result, err := svc.BulkSave(ctx, productID, files, []*ImageMetadata{
		{FileIdx: intPtr(0), Main: boolPtr(true)},
	})
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.False(t, result[0].Main, "previous main must be demoted")
	assert.True(t, result[1].Main)
	assert.False(t, repo.images[oldMain.ID].Main)
}

func TestBulkSaveVisibilityChangeMovesObjects(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	img := existingImage(productID, false, false)
	repo := newFakeImageRepo(img)
	svc, backend := newTestService(t, repo, &fakeThumbnailer{})
	seedObjects(t, backend, img)

	result, err := svc.BulkSave(ctx, productID, nil, []*ImageMetadata{
		{ImageID: idPtr(img.ID), Active: boolPtr(true)},
	})
	require.NoError(t, err)
	require.Len(t, result, 1)

	updated := result[0]
	assert.True(t, updated.Active)
	assert.True(t, strings.HasPrefix(updated.ObjectKey, "public/"))
	assert.True(t, backend.Exists("test-bucket", updated.ObjectKey))
	assert.True(t, backend.Exists("test-bucket", updated.ThumbnailKey))
	assert.False(t, backend.Exists("test-bucket", img.ObjectKey), "old private key must be gone")
	assert.False(t, backend.Exists("test-bucket", img.ThumbnailKey))
	assert.Equal(t, repo.images[img.ID].ObjectKey, updated.ObjectKey)
}

func TestBulkSaveDeleteMovesToPendingDeletion(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	img := existingImage(productID, false, true)
	repo := newFakeImageRepo(img)
	svc, backend := newTestService(t, repo, &fakeThumbnailer{})
	seedObjects(t, backend, img)

	result, err := svc.BulkSave(ctx, productID, nil, []*ImageMetadata{
		{ImageID: idPtr(img.ID), Delete: boolPtr(true)},
	})
	require.NoError(t, err)
	assert.Empty(t, result)

	assert.Equal(t, 1, repo.softDeletes)
	assert.True(t, repo.images[img.ID].DeletedAt.Valid)
	assert.False(t, backend.Exists("test-bucket", img.ObjectKey))
	pendingKey := storage.ResolveImageKey(productID, img.ID, storage.VisibilityPendingDeletion, "png")
	assert.True(t, backend.Exists("test-bucket", pendingKey), "object must be recoverable")
}

func TestBulkSaveThumbnailFailureLeavesNoRow(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	repo := newFakeImageRepo()
	svc, _ := newTestService(t, repo, &fakeThumbnailer{fail: true})

	files := []UploadedFile{{Content: []byte("new"), ContentType: "image/png", OriginalName: "new.png"}}
	_, err := svc.BulkSave(ctx, productID, files, []*ImageMetadata{{FileIdx: intPtr(0)}})
	require.Error(t, err)
	assert.False(t, IsValidationError(err))
	// the image blob may be orphaned, but no row references it
	assert.Zero(t, repo.creates)
}

func TestBulkSaveInsertFailureLeavesNoDanglingReference(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	repo := newFakeImageRepo()
	repo.failCreate = true
	svc, backend := newTestService(t, repo, &fakeThumbnailer{})

	files := []UploadedFile{{Content: []byte("new"), ContentType: "image/png", OriginalName: "new.png"}}
	_, err := svc.BulkSave(ctx, productID, files, []*ImageMetadata{{FileIdx: intPtr(0)}})
	require.Error(t, err)

	// storage objects exist without a row: the accepted orphan direction
	entries, listErr := storage.NewClient(backend, "test-bucket").List(ctx, "private/products")
	require.NoError(t, listErr)
	assert.Len(t, entries, 1)
	assert.Empty(t, repo.order)
}

func TestBulkSaveMidBatchFailureKeepsAppliedItems(t *testing.T) {
	// two-item batch: the delete succeeds, then the create fails at
	// thumbnail generation; there is no compensating rollback, so the
	// delete stays applied and only the create is absent
	ctx := context.Background()
	productID := uuid.New()
	img := existingImage(productID, false, true)
	repo := newFakeImageRepo(img)
	svc, backend := newTestService(t, repo, &fakeThumbnailer{fail: true})
	seedObjects(t, backend, img)

	files := []UploadedFile{{Content: []byte("new"), ContentType: "image/png", OriginalName: "new.png"}}
	_, err := svc.BulkSave(ctx, productID, files, []*ImageMetadata{
		{ImageID: idPtr(img.ID), Delete: boolPtr(true)},
		{FileIdx: intPtr(0)},
	})
	require.Error(t, err)
	assert.False(t, IsValidationError(err))

	// the delete was applied before the failure and remains applied
	assert.Equal(t, 1, repo.softDeletes)
	assert.True(t, repo.images[img.ID].DeletedAt.Valid)
	assert.False(t, backend.Exists("test-bucket", img.ObjectKey))
	pendingKey := storage.ResolveImageKey(productID, img.ID, storage.VisibilityPendingDeletion, "png")
	assert.True(t, backend.Exists("test-bucket", pendingKey))

	// the failed create left no row behind
	assert.Zero(t, repo.creates)
}

func TestBulkSaveUpdateNameAndDescription(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	img := existingImage(productID, false, true)
	repo := newFakeImageRepo(img)
	svc, backend := newTestService(t, repo, &fakeThumbnailer{})
	seedObjects(t, backend, img)

	result, err := svc.BulkSave(ctx, productID, nil, []*ImageMetadata{
		{ImageID: idPtr(img.ID), Name: strPtr("front"), Description: strPtr("front view")},
	})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.NotNil(t, result[0].Name)
	assert.Equal(t, "front", *result[0].Name)
	require.NotNil(t, result[0].Description)
	assert.Equal(t, "front view", *result[0].Description)
	// no visibility change, no storage traffic for the payload
	assert.True(t, backend.Exists("test-bucket", img.ObjectKey))
	assert.Equal(t, 1, repo.updates)
}
