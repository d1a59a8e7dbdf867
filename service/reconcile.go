package service

import (
	"github.com/google/uuid"

	"github.com/hldang/stockpile/entity"
)

type ResolutionOp string

const (
	OpCreateFromFile ResolutionOp = "create_from_file"
	OpUpdateExisting ResolutionOp = "update_existing"
	OpDeleteExisting ResolutionOp = "delete_existing"
)

// Resolution is one typed action the orchestrator executes. Implicit marks
// main-image demotions synthesized during reconciliation rather than
// requested by a descriptor.
type Resolution struct {
	Op       ResolutionOp
	FileIdx  int                  // OpCreateFromFile
	Image    *entity.ProductImage // OpUpdateExisting / OpDeleteExisting
	Meta     *ImageMetadata
	Implicit bool
}

// Reconciler validates a bulk-save batch as a whole and resolves each
// descriptor to a typed action. It is pure: plain data in, plain data out,
// no storage or database access.
type Reconciler struct {
	MaxImagesPerProduct  int
	NameMaxLength        int
	DescriptionMaxLength int
}

// Reconcile runs the ordered validation pipeline and returns the resolved
// actions, implicit main demotions first. The first violated rule aborts the
// whole batch; no partial resolution is ever returned.
func (r *Reconciler) Reconcile(files []UploadedFile, descriptors []*ImageMetadata, existing []entity.ProductImage) ([]Resolution, error) {
	if err := r.validateShapes(descriptors); err != nil {
		return nil, err
	}
	if err := validateUniqueness(descriptors); err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*entity.ProductImage, len(existing))
	for i := range existing {
		if existing[i].DeletedAt.Valid {
			continue
		}
		byID[existing[i].ID] = &existing[i]
	}

	if err := validateReferences(descriptors, len(files), byID); err != nil {
		return nil, err
	}

	creates, deletes := 0, 0
	for _, d := range descriptors {
		switch {
		case d.FileIdx != nil:
			creates++
		case d.Delete != nil && *d.Delete:
			deletes++
		}
	}
	resulting := len(byID) - deletes + creates
	if resulting > r.MaxImagesPerProduct {
		return nil, newValidationError(-1, "",
			"resulting image count %d exceeds the maximum of %d per product", resulting, r.MaxImagesPerProduct)
	}

	return resolveMains(descriptors, byID)
}

func (r *Reconciler) validateShapes(descriptors []*ImageMetadata) error {
	for i, d := range descriptors {
		if d == nil {
			return newValidationError(i, "", "descriptor must be an object")
		}
		if d.FileIdx != nil && d.ImageID != nil {
			return newValidationError(i, "fileIdx", "fileIdx and imageId are mutually exclusive")
		}
		if d.FileIdx == nil && d.ImageID == nil {
			return newValidationError(i, "fileIdx", "one of fileIdx or imageId is required")
		}
		if d.FileIdx != nil && *d.FileIdx < 0 {
			return newValidationError(i, "fileIdx", "fileIdx cannot be negative")
		}
		if d.Name != nil && len(*d.Name) > r.NameMaxLength {
			return newValidationError(i, "name", "name exceeds %d characters", r.NameMaxLength)
		}
		if d.Description != nil && len(*d.Description) > r.DescriptionMaxLength {
			return newValidationError(i, "description", "description exceeds %d characters", r.DescriptionMaxLength)
		}
		if d.Delete != nil && *d.Delete && d.ImageID == nil {
			return newValidationError(i, "delete", "delete is only valid with imageId")
		}
	}
	return nil
}

func validateUniqueness(descriptors []*ImageMetadata) error {
	seenIdx := make(map[int]bool)
	seenID := make(map[uuid.UUID]bool)
	for i, d := range descriptors {
		if d.FileIdx != nil {
			if seenIdx[*d.FileIdx] {
				return newValidationError(i, "fileIdx", "duplicate fileIdx %d", *d.FileIdx)
			}
			seenIdx[*d.FileIdx] = true
		}
		if d.ImageID != nil {
			if seenID[*d.ImageID] {
				return newValidationError(i, "imageId", "duplicate imageId %s", *d.ImageID)
			}
			seenID[*d.ImageID] = true
		}
	}
	return nil
}

func validateReferences(descriptors []*ImageMetadata, fileCount int, byID map[uuid.UUID]*entity.ProductImage) error {
	for i, d := range descriptors {
		if d.FileIdx != nil && *d.FileIdx >= fileCount {
			return newValidationError(i, "fileIdx", "fileIdx %d does not address an uploaded file", *d.FileIdx)
		}
		if d.ImageID != nil {
			if _, ok := byID[*d.ImageID]; !ok {
				return newValidationError(i, "imageId", "image %s does not belong to this product", *d.ImageID)
			}
		}
	}
	return nil
}

// resolveMains enforces the single-main invariant over the resulting image
// set. One explicit main claim demotes every other image whose effective main
// would remain true; two explicit claims in one batch is a hard rejection.
func resolveMains(descriptors []*ImageMetadata, byID map[uuid.UUID]*entity.ProductImage) ([]Resolution, error) {
	explicitMains := 0
	for i, d := range descriptors {
		if isDelete(d) {
			continue
		}
		if d.Main != nil && *d.Main {
			explicitMains++
			if explicitMains > 1 {
				return nil, newValidationError(i, "main", "multiple images marked as main")
			}
		}
	}

	resolutions := make([]Resolution, 0, len(descriptors))
	touched := make(map[uuid.UUID]*Resolution)
	for _, d := range descriptors {
		switch {
		case d.FileIdx != nil:
			resolutions = append(resolutions, Resolution{Op: OpCreateFromFile, FileIdx: *d.FileIdx, Meta: d})
		case isDelete(d):
			resolutions = append(resolutions, Resolution{Op: OpDeleteExisting, Image: byID[*d.ImageID], Meta: d})
		default:
			resolutions = append(resolutions, Resolution{Op: OpUpdateExisting, Image: byID[*d.ImageID], Meta: d})
			touched[*d.ImageID] = &resolutions[len(resolutions)-1]
		}
	}

	var implicit []Resolution
	if explicitMains == 1 {
		for id, img := range byID {
			if claimsMain(touched[id]) {
				continue
			}
			if isDeleted(resolutions, id) {
				continue
			}
			if effectiveMain(img, touched[id]) {
				if res := touched[id]; res != nil {
					// the image is already being updated; fold the
					// demotion into that update
					meta := *res.Meta
					meta.Main = boolPtr(false)
					res.Meta = &meta
				} else {
					implicit = append(implicit, Resolution{
						Op:       OpUpdateExisting,
						Image:    img,
						Meta:     &ImageMetadata{Main: boolPtr(false)},
						Implicit: true,
					})
				}
			}
		}
	}

	// with the demotions folded in, more than one effective main means the
	// batch itself is contradictory
	mains := 0
	for _, res := range resolutions {
		if res.Op == OpDeleteExisting {
			continue
		}
		if res.Op == OpCreateFromFile {
			if res.Meta.Main != nil && *res.Meta.Main {
				mains++
			}
			continue
		}
		if effectiveMain(res.Image, &res) {
			mains++
		}
	}
	for id, img := range byID {
		if touched[id] != nil || isDeleted(resolutions, id) || isDemoted(implicit, id) {
			continue
		}
		if img.Main {
			mains++
		}
	}
	if mains > 1 {
		return nil, newValidationError(-1, "main", "product would end with %d main images", mains)
	}

	return append(implicit, resolutions...), nil
}

func isDelete(d *ImageMetadata) bool {
	return d.Delete != nil && *d.Delete
}

func claimsMain(res *Resolution) bool {
	return res != nil && res.Meta.Main != nil && *res.Meta.Main
}

// effectiveMain is the descriptor's main when it touches the image, else the
// persisted value.
func effectiveMain(img *entity.ProductImage, res *Resolution) bool {
	if res != nil && res.Meta.Main != nil {
		return *res.Meta.Main
	}
	return img.Main
}

func isDeleted(resolutions []Resolution, id uuid.UUID) bool {
	for _, res := range resolutions {
		if res.Op == OpDeleteExisting && res.Image.ID == id {
			return true
		}
	}
	return false
}

func isDemoted(implicit []Resolution, id uuid.UUID) bool {
	for _, res := range implicit {
		if res.Image.ID == id {
			return true
		}
	}
	return false
}

func boolPtr(b bool) *bool {
	return &b
}
