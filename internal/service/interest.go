package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HEAL-capstone/HEAL-server/internal/apperror"
	"github.com/HEAL-capstone/HEAL-server/internal/model"
	"github.com/HEAL-capstone/HEAL-server/internal/repository"
)

// InterestService manages the user–interest associations.
//
// The update contract is replace, not append: a write replaces the user's
// entire association set atomically. An earlier iteration of this API
// appended without validation; that behaviour is superseded and not kept.
type InterestService struct {
	interests repository.InterestRepository
	logger    *slog.Logger
}

// NewInterestService creates an InterestService.
func NewInterestService(interests repository.InterestRepository, logger *slog.Logger) *InterestService {
	return &InterestService{
		interests: interests,
		logger:    logger,
	}
}

// ListCategories returns every known category in stable order.
func (s *InterestService) ListCategories(ctx context.Context) ([]model.Interest, error) {
	categories, err := s.interests.ListCategories(ctx)
	if err != nil {
		s.logger.Error("failed to list categories", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// ListForUser returns the categories the user is associated with. A user
// with no associations gets an empty list.
func (s *InterestService) ListForUser(ctx context.Context, userID int64) ([]model.Interest, error) {
	interests, err := s.interests.ListForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list user interests",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing interests for user %d: %w", userID, err)
	}
	return interests, nil
}

// Replace swaps the user's entire association set for the given category
// IDs.
//
// An empty set is rejected — this API forbids clearing all interests in one
// write (remove them individually instead). Duplicate IDs collapse to one
// association; order of first occurrence is preserved because the first
// unknown ID in the caller's order is the one reported.
func (s *InterestService) Replace(ctx context.Context, userID int64, interestIDs []int64) ([]model.Interest, error) {
	if len(interestIDs) == 0 {
		return nil, apperror.ValidationFailed("interests", "at least one interest is required")
	}

	// Deduplicate, keeping first-occurrence order so validation reports the
	// same ID the caller would expect.
	seen := make(map[int64]bool, len(interestIDs))
	ids := make([]int64, 0, len(interestIDs))
	for _, id := range interestIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if err := s.interests.ReplaceForUser(ctx, userID, ids); err != nil {
		return nil, err
	}

	s.logger.Info("interests replaced",
		slog.Int64("user_id", userID),
		slog.Int("count", len(ids)),
	)

	return s.interests.ListForUser(ctx, userID)
}

// Remove deletes one association. Missing associations are NotFound.
func (s *InterestService) Remove(ctx context.Context, userID, interestID int64) error {
	if err := s.interests.Remove(ctx, userID, interestID); err != nil {
		return err
	}

	s.logger.Info("interest removed",
		slog.Int64("user_id", userID),
		slog.Int64("interest_id", interestID),
	)
	return nil
}
