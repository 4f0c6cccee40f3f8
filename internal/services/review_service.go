// internal/services/review_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/internal/models"
	"github.com/grocerly/grocerly-backend/internal/utils"
)

// ReviewService manages product reviews. After every mutation the product's
// average_rating and reviews_count are recomputed from the approved rows in
// the same transaction instead of being patched incrementally, so the
// aggregate can never drift.
type ReviewService struct {
	db *gorm.DB
}

type CreateReviewRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Comment   string    `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

type UpdateReviewRequest struct {
	Rating  int     `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty"`
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

func (s *ReviewService) CreateReview(userID uuid.UUID, req *CreateReviewRequest) (*models.ProductReview, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewServiceErrorf(ErrKindValidation, "validation failed: %v", err)
	}

	var product models.Product
	if err := s.db.Where("id = ? AND is_active = ?", req.ProductID, true).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceErrorf(ErrKindNotFound, "product %s not found", req.ProductID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var review models.ProductReview
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.ProductReview
		if err := tx.Where("product_id = ? AND user_id = ?", req.ProductID, userID).
			First(&existing).Error; err == nil {
			return NewServiceError(ErrKindConflict, "product already reviewed by this user")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("database error: %w", err)
		}

		review = models.ProductReview{
			ProductID: req.ProductID,
			UserID:    userID,
			Rating:    req.Rating,
			Comment:   req.Comment,
			Status:    models.ReviewStatusApproved,
		}
		if err := tx.Create(&review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

		return s.recomputeProductRating(tx, req.ProductID)
	})

	if err != nil {
		return nil, err
	}

	return &review, nil
}

func (s *ReviewService) UpdateReview(reviewID, userID uuid.UUID, req *UpdateReviewRequest) (*models.ProductReview, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewServiceErrorf(ErrKindValidation, "validation failed: %v", err)
	}

	var review models.ProductReview
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", reviewID, userID).
			First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewServiceErrorf(ErrKindNotFound, "review %s not found", reviewID)
			}
			return fmt.Errorf("database error: %w", err)
		}

		updates := make(map[string]interface{})
		if req.Rating != 0 {
			updates["rating"] = req.Rating
		}
		if req.Comment != nil {
			updates["comment"] = *req.Comment
		}

		if len(updates) > 0 {
			if err := tx.Model(&review).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update review: %w", err)
			}
		}

		return s.recomputeProductRating(tx, review.ProductID)
	})

	if err != nil {
		return nil, err
	}

	return &review, nil
}

func (s *ReviewService) DeleteReview(reviewID, userID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var review models.ProductReview
		if err := tx.Where("id = ? AND user_id = ?", reviewID, userID).
			First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewServiceErrorf(ErrKindNotFound, "review %s not found", reviewID)
			}
			return fmt.Errorf("database error: %w", err)
		}

		if err := tx.Delete(&review).Error; err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}

		return s.recomputeProductRating(tx, review.ProductID)
	})
}

// SetReviewStatus is the admin moderation toggle. Hidden reviews drop out
// of the aggregate.
func (s *ReviewService) SetReviewStatus(reviewID uuid.UUID, status models.ReviewStatus) (*models.ProductReview, error) {
	if status != models.ReviewStatusApproved && status != models.ReviewStatusHidden && status != models.ReviewStatusPending {
		return nil, NewServiceErrorf(ErrKindValidation, "invalid review status %q", status)
	}

	var review models.ProductReview
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&review, reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewServiceErrorf(ErrKindNotFound, "review %s not found", reviewID)
			}
			return fmt.Errorf("database error: %w", err)
		}

		if err := tx.Model(&review).UpdateColumn("status", status).Error; err != nil {
			return fmt.Errorf("failed to update review status: %w", err)
		}
		review.Status = status

		return s.recomputeProductRating(tx, review.ProductID)
	})

	if err != nil {
		return nil, err
	}

	return &review, nil
}

func (s *ReviewService) GetProductReviews(productID uuid.UUID, params utils.PaginationParams) ([]models.ProductReview, int64, error) {
	query := s.db.Model(&models.ProductReview{}).
		Where("product_id = ? AND status = ?", productID, models.ReviewStatusApproved).
		Preload("User")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	allowedSortFields := []string{"created_at", "rating"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var reviews []models.ProductReview
	if err := query.Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch reviews: %w", err)
	}

	return reviews, total, nil
}

// recomputeProductRating derives the aggregate from approved review rows.
func (s *ReviewService) recomputeProductRating(tx *gorm.DB, productID uuid.UUID) error {
	var aggregate struct {
		AverageRating float64
		ReviewsCount  int64
	}

	if err := tx.Model(&models.ProductReview{}).
		Where("product_id = ? AND status = ?", productID, models.ReviewStatusApproved).
		Select("COALESCE(AVG(rating), 0) AS average_rating, COUNT(*) AS reviews_count").
		Scan(&aggregate).Error; err != nil {
		return fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	if err := tx.Model(&models.Product{}).Where("id = ?", productID).
		UpdateColumns(map[string]interface{}{
			"average_rating": aggregate.AverageRating,
			"reviews_count":  aggregate.ReviewsCount,
		}).Error; err != nil {
		return fmt.Errorf("failed to update product rating: %w", err)
	}

	return nil
}
