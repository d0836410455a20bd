package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/news-aggregator-api/internal/mocks"
	"github.com/news-aggregator-api/internal/models"
	"github.com/news-aggregator-api/internal/repository"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMockUserRepository_DuplicateEmail(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	ctx := context.Background()

	user1 := &models.User{ID: "user-1", Email: "duplicate@test.com", Name: "User 1"}
	if err := repo.Create(ctx, user1); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	user2 := &models.User{ID: "user-2", Email: "duplicate@test.com", Name: "User 2"}
	if err := repo.Create(ctx, user2); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}

	stored, err := repo.GetByEmail(ctx, "DUPLICATE@test.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if stored == nil || stored.ID != "user-1" {
		t.Errorf("Expected user-1, got %+v", stored)
	}

	missing, err := repo.GetByID(ctx, "nobody")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for unknown id, got %+v, %v", missing, err)
	}
}

func TestMockUserRepository_Count(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	ctx := context.Background()

	if count := repo.Count(); count != 0 {
		t.Errorf("Expected 0, got %d", count)
	}

	for i := 0; i < 5; i++ {
		repo.Create(ctx, &models.User{
			ID:    fmt.Sprintf("user-%d", i),
			Email: fmt.Sprintf("user%d@test.com", i),
		})
	}

	if count := repo.Count(); count != 5 {
		t.Errorf("Expected 5, got %d", count)
	}
}

func TestMockUserEmailRepository_Upsert(t *testing.T) {
	repo := mocks.NewMockUserEmailRepository()
	ctx := context.Background()

	repo.Upsert(ctx, &models.UserEmail{ID: "e-1", UserID: "user-1", Email: "a@test.com", Device: "curl", CreatedAt: now, UpdatedAt: now})
	repo.Upsert(ctx, &models.UserEmail{ID: "e-2", UserID: "user-1", Email: "a@test.com", Device: "firefox", UpdatedAt: now.Add(time.Hour)})
	repo.Upsert(ctx, &models.UserEmail{ID: "e-3", UserID: "user-2", Email: "b@test.com", Device: "curl", CreatedAt: now.Add(time.Minute), UpdatedAt: now.Add(time.Minute)})

	entries, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Email != "b@test.com" {
		t.Fatalf("Expected 2 entries newest first, got %+v", entries)
	}
	entry := entries[1]
	if entry.ID != "e-1" {
		t.Errorf("Expected original row to be kept, got %s", entry.ID)
	}
	if entry.Device != "firefox" || !entry.UpdatedAt.Equal(now.Add(time.Hour)) {
		t.Errorf("Expected device and timestamp refreshed, got %+v", entry)
	}
	if len(repo.Entries) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(repo.Entries))
	}
}

func TestMockArticleRepository_ListPublished(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	articles := []*models.Article{
		{ID: "a-1", Status: models.StatusPublished, CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "a-2", Status: models.StatusDraft, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "a-3", Status: models.StatusPublished, ExpiresAt: &past, CreatedAt: now.Add(-time.Hour)},
		{ID: "a-4", Status: models.StatusPublished, ExpiresAt: &future, CreatedAt: now.Add(-30 * time.Minute)},
		{ID: "a-5", Status: models.StatusPublished, CreatedAt: now.Add(-10 * time.Minute)},
	}
	for _, a := range articles {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	published, err := repo.ListPublished(ctx, now, 0)
	if err != nil {
		t.Fatalf("ListPublished failed: %v", err)
	}

	want := []string{"a-5", "a-4", "a-1"}
	if len(published) != len(want) {
		t.Fatalf("Expected %d articles, got %d", len(want), len(published))
	}
	for i, id := range want {
		if published[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, published[i].ID)
		}
	}

	limited, _ := repo.ListPublished(ctx, now, 2)
	if len(limited) != 2 {
		t.Errorf("Expected limit of 2, got %d", len(limited))
	}
}

func TestMockArticleRepository_CopiesRecords(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	article := &models.Article{ID: "a-1", Title: "Original", Status: models.StatusPublished}
	repo.Create(ctx, article)
	article.Title = "Mutated"

	stored, _ := repo.GetByID(ctx, "a-1")
	if stored.Title != "Original" {
		t.Errorf("Expected stored copy to be unaffected, got %q", stored.Title)
	}

	stored.Title = "Also mutated"
	if again := repo.Stored("a-1"); again.Title != "Original" {
		t.Errorf("Expected returned copy to be detached, got %q", again.Title)
	}
}

func TestMockArticleRepository_UpdateAndDelete(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	if err := repo.Update(ctx, &models.Article{ID: "missing"}); !errors.Is(err, repository.ErrMissingReference) {
		t.Errorf("Expected ErrMissingReference, got %v", err)
	}

	repo.Create(ctx, &models.Article{ID: "a-1", Title: "One"})
	deleted, err := repo.Delete(ctx, "a-1")
	if err != nil || !deleted {
		t.Errorf("Expected deletion, got %v, %v", deleted, err)
	}
	deleted, _ = repo.Delete(ctx, "a-1")
	if deleted {
		t.Error("Second delete should report nothing removed")
	}
}

func TestMockBookmarkRepository_Constraints(t *testing.T) {
	articles := mocks.NewMockArticleRepository()
	repo := mocks.NewMockBookmarkRepository(articles)
	ctx := context.Background()

	articles.Put(&models.Article{ID: "a-1"})

	if err := repo.Create(ctx, &models.Bookmark{ID: "b-1", UserID: "u-1", ArticleID: "missing"}); !errors.Is(err, repository.ErrMissingReference) {
		t.Errorf("Expected ErrMissingReference, got %v", err)
	}
	if err := repo.Create(ctx, &models.Bookmark{ID: "b-1", UserID: "u-1", ArticleID: "a-1"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(ctx, &models.Bookmark{ID: "b-2", UserID: "u-1", ArticleID: "a-1"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
	if err := repo.Create(ctx, &models.Bookmark{ID: "b-3", UserID: "u-2", ArticleID: "a-1"}); err != nil {
		t.Errorf("Other users may bookmark the same article, got %v", err)
	}

	mine, _ := repo.ListByUser(ctx, "u-1")
	if len(mine) != 1 {
		t.Errorf("Expected 1 bookmark for u-1, got %d", len(mine))
	}

	removed, _ := repo.Delete(ctx, "u-1", "a-1")
	if !removed {
		t.Error("Expected bookmark removed")
	}
	removed, _ = repo.Delete(ctx, "u-1", "a-1")
	if removed {
		t.Error("Second delete should report nothing removed")
	}
}
