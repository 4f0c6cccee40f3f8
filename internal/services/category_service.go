// internal/services/category_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/internal/models"
	"github.com/grocerly/grocerly-backend/internal/utils"
)

// CategoryService manages the self-referencing category tree. The tree is a
// flat table keyed by id; ancestor and descendant walks are explicit, and
// reparenting runs a descendant check so an update can never introduce a
// cycle.
type CategoryService struct {
	db *gorm.DB
}

type CreateCategoryRequest struct {
	Name     string     `json:"name" validate:"required,min=2,max=100"`
	Slug     string     `json:"slug,omitempty" validate:"omitempty,max=120"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

type UpdateCategoryRequest struct {
	Name     string     `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}

type CategoryNode struct {
	models.Category
	Children []*CategoryNode `json:"children"`
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

func (s *CategoryService) CreateCategory(req *CreateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewServiceErrorf(ErrKindValidation, "validation failed: %v", err)
	}

	if req.ParentID != nil {
		if _, err := s.getCategory(*req.ParentID); err != nil {
			return nil, err
		}
	}

	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Name)
	}

	var existing models.Category
	if err := s.db.Where("slug = ?", slug).First(&existing).Error; err == nil {
		return nil, NewServiceErrorf(ErrKindConflict, "category slug %q already exists", slug)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	category := &models.Category{
		Name:     req.Name,
		Slug:     slug,
		ParentID: req.ParentID,
		IsActive: true,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

func (s *CategoryService) UpdateCategory(id uuid.UUID, req *UpdateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewServiceErrorf(ErrKindValidation, "validation failed: %v", err)
	}

	category, err := s.getCategory(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if req.ParentID != nil {
		if *req.ParentID == id {
			return nil, NewServiceError(ErrKindValidation, "category cannot be its own parent")
		}
		if _, err := s.getCategory(*req.ParentID); err != nil {
			return nil, err
		}
		descendant, err := s.isDescendant(*req.ParentID, id)
		if err != nil {
			return nil, err
		}
		if descendant {
			return nil, NewServiceError(ErrKindValidation, "cannot move a category under one of its descendants")
		}
		updates["parent_id"] = *req.ParentID
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update category: %w", err)
		}
	}

	return s.getCategory(id)
}

func (s *CategoryService) DeleteCategory(id uuid.UUID) error {
	category, err := s.getCategory(id)
	if err != nil {
		return err
	}

	var childCount int64
	if err := s.db.Model(&models.Category{}).
		Where("parent_id = ?", id).Count(&childCount).Error; err != nil {
		return fmt.Errorf("failed to check child categories: %w", err)
	}
	if childCount > 0 {
		return NewServiceError(ErrKindConflict, "category has child categories")
	}

	var productCount int64
	if err := s.db.Model(&models.Product{}).
		Where("category_id = ?", id).Count(&productCount).Error; err != nil {
		return fmt.Errorf("failed to check category products: %w", err)
	}
	if productCount > 0 {
		return NewServiceError(ErrKindConflict, "category has products")
	}

	if err := s.db.Delete(category).Error; err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// GetCategoryTree builds the full tree from one flat query.
func (s *CategoryService) GetCategoryTree() ([]*CategoryNode, error) {
	var categories []models.Category
	if err := s.db.Where("is_active = ?", true).
		Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	nodes := make(map[uuid.UUID]*CategoryNode, len(categories))
	for i := range categories {
		nodes[categories[i].ID] = &CategoryNode{Category: categories[i]}
	}

	var roots []*CategoryNode
	for _, node := range nodes {
		if node.ParentID != nil {
			if parent, ok := nodes[*node.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	return roots, nil
}

// GetAncestors walks parent links up to the root. The walk is bounded by
// the visited set, so a corrupted tree cannot loop forever.
func (s *CategoryService) GetAncestors(id uuid.UUID) ([]models.Category, error) {
	category, err := s.getCategory(id)
	if err != nil {
		return nil, err
	}

	var ancestors []models.Category
	visited := map[uuid.UUID]bool{id: true}

	current := category
	for current.ParentID != nil {
		if visited[*current.ParentID] {
			break
		}
		visited[*current.ParentID] = true

		parent, err := s.getCategory(*current.ParentID)
		if err != nil {
			return nil, err
		}
		ancestors = append(ancestors, *parent)
		current = parent
	}

	return ancestors, nil
}

// GetDescendantIDs collects the ids of the whole subtree rooted at id,
// including id itself. Used for category-scoped product listing.
func (s *CategoryService) GetDescendantIDs(id uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.getCategory(id); err != nil {
		return nil, err
	}

	ids := []uuid.UUID{id}
	frontier := []uuid.UUID{id}

	for len(frontier) > 0 {
		var children []models.Category
		if err := s.db.Where("parent_id IN ?", frontier).Find(&children).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch child categories: %w", err)
		}

		frontier = frontier[:0]
		for _, child := range children {
			ids = append(ids, child.ID)
			frontier = append(frontier, child.ID)
		}
	}

	return ids, nil
}

// SetCategoryImage records a newly uploaded image and returns the storage
// key of the image it replaced, empty when there was none.
func (s *CategoryService) SetCategoryImage(id uuid.UUID, url, key string) (string, error) {
	category, err := s.getCategory(id)
	if err != nil {
		return "", err
	}

	oldKey := category.ImageKey
	if err := s.db.Model(category).Updates(map[string]interface{}{
		"image_url": url,
		"image_key": key,
	}).Error; err != nil {
		return "", fmt.Errorf("failed to update category image: %w", err)
	}

	return oldKey, nil
}

// isDescendant reports whether candidate sits in the subtree rooted at
// ancestor.
func (s *CategoryService) isDescendant(candidate, ancestor uuid.UUID) (bool, error) {
	ids, err := s.GetDescendantIDs(ancestor)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == candidate && id != ancestor {
			return true, nil
		}
	}
	return false, nil
}

func (s *CategoryService) getCategory(id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceErrorf(ErrKindNotFound, "category %s not found", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &category, nil
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	return slug
}
