package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/HEAL-capstone/HEAL-server/internal/apperror"
	"github.com/HEAL-capstone/HEAL-server/internal/model"
)

func interestIDs(interests []model.Interest) []int64 {
	ids := make([]int64, len(interests))
	for i, in := range interests {
		ids[i] = in.ID
	}
	return ids
}

func TestListCategories_SeededAndOrdered(t *testing.T) {
	db := newTestDB(t)

	categories, err := db.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}

	if len(categories) != len(defaultCategories) {
		t.Fatalf("len(categories) = %d, want %d", len(categories), len(defaultCategories))
	}
	for i := 1; i < len(categories); i++ {
		if categories[i].ID <= categories[i-1].ID {
			t.Errorf("categories not in ascending ID order at index %d", i)
		}
	}
	if categories[0].Category != defaultCategories[0] {
		t.Errorf("first category = %q, want %q", categories[0].Category, defaultCategories[0])
	}
}

func TestListCategories_StableAcrossCalls(t *testing.T) {
	db := newTestDB(t)

	first, _ := db.ListCategories(context.Background())
	second, _ := db.ListCategories(context.Background())

	if len(first) != len(second) {
		t.Fatalf("category list changed size between calls")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("category list order unstable at index %d", i)
		}
	}
}

func TestListForUser_EmptyWithoutAssociations(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")

	interests, err := db.ListForUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(interests) != 0 {
		t.Errorf("ListForUser() = %v, want empty slice", interests)
	}
}

func TestReplaceForUser_WritesExactSet(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")

	if err := db.ReplaceForUser(context.Background(), user.ID, []int64{1, 2}); err != nil {
		t.Fatalf("ReplaceForUser() error = %v", err)
	}

	interests, err := db.ListForUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}

	got := interestIDs(interests)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("interest IDs = %v, want [1 2]", got)
	}
}

func TestReplaceForUser_ReplacesNotAppends(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")

	if err := db.ReplaceForUser(context.Background(), user.ID, []int64{1, 2}); err != nil {
		t.Fatalf("first ReplaceForUser() error = %v", err)
	}
	if err := db.ReplaceForUser(context.Background(), user.ID, []int64{3}); err != nil {
		t.Fatalf("second ReplaceForUser() error = %v", err)
	}

	interests, _ := db.ListForUser(context.Background(), user.ID)
	got := interestIDs(interests)
	if len(got) != 1 || got[0] != 3 {
		t.Errorf("interest IDs = %v, want [3] — old set must be fully replaced", got)
	}
}

// An unknown ID anywhere in the batch must leave the previous set exactly
// as it was: validation failure means full rollback, not partial write.
func TestReplaceForUser_UnknownIDRollsBack(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")

	if err := db.ReplaceForUser(context.Background(), user.ID, []int64{1, 2}); err != nil {
		t.Fatalf("ReplaceForUser() error = %v", err)
	}

	err := db.ReplaceForUser(context.Background(), user.ID, []int64{99})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("ReplaceForUser(99) error = %v, want ErrNotFound", err)
	}

	interests, _ := db.ListForUser(context.Background(), user.ID)
	got := interestIDs(interests)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("interest IDs after failed replace = %v, want unchanged [1 2]", got)
	}
}

// Validation runs in the caller's order, so the first invalid ID supplied
// is the one reported.
func TestReplaceForUser_ReportsFirstUnknownID(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")

	err := db.ReplaceForUser(context.Background(), user.ID, []int64{1, 98, 99})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("ReplaceForUser() error = %v, want ErrNotFound", err)
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error is not an AppError: %v", err)
	}
	if appErr.Message != "interest not found with id 98" {
		t.Errorf("message = %q, want it to name id 98", appErr.Message)
	}
}

func TestReplaceForUser_UnknownUser(t *testing.T) {
	db := newTestDB(t)

	err := db.ReplaceForUser(context.Background(), 999, []int64{1})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("ReplaceForUser() error = %v, want ErrNotFound", err)
	}
}

func TestRemove(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")

	if err := db.ReplaceForUser(context.Background(), user.ID, []int64{1, 2}); err != nil {
		t.Fatalf("ReplaceForUser() error = %v", err)
	}

	if err := db.Remove(context.Background(), user.ID, 1); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	interests, _ := db.ListForUser(context.Background(), user.ID)
	got := interestIDs(interests)
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("interest IDs = %v, want [2]", got)
	}
}

func TestRemove_MissingAssociation(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")

	err := db.Remove(context.Background(), user.ID, 1)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Remove() error = %v, want ErrNotFound", err)
	}
}
