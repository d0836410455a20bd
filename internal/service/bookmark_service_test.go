package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/news-aggregator-api/internal/models"
	"github.com/news-aggregator-api/internal/service"
)

func TestBookmarks_AddListRemove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := manualArticle("aaaaaaaa-0000-0000-0000-000000000001", baseTime)
	second := manualArticle("aaaaaaaa-0000-0000-0000-000000000002", baseTime)
	env.articles.Put(first)
	env.articles.Put(second)

	if _, err := env.svc.Bookmarks.Add(ctx, bob.ID, first.ID); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	env.clock.Advance(time.Minute)
	if _, err := env.svc.Bookmarks.Add(ctx, bob.ID, second.ID); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	list, err := env.svc.Bookmarks.List(ctx, bob.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 bookmarks, got %d", len(list))
	}
	if list[0].ArticleID != second.ID || list[0].Article == nil || list[0].Article.Title != second.Title {
		t.Errorf("Expected newest bookmark first with article populated, got %+v", list[0])
	}

	if other, _ := env.svc.Bookmarks.List(ctx, alice.ID); len(other) != 0 {
		t.Errorf("Expected no bookmarks for alice, got %d", len(other))
	}

	if err := env.svc.Bookmarks.Remove(ctx, bob.ID, first.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := env.svc.Bookmarks.Remove(ctx, bob.ID, first.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second remove, got %v", err)
	}
	list, _ = env.svc.Bookmarks.List(ctx, bob.ID)
	if len(list) != 1 {
		t.Errorf("Expected 1 bookmark left, got %d", len(list))
	}
}

func TestBookmarks_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	article := manualArticle("aaaaaaaa-0000-0000-0000-000000000001", baseTime)
	env.articles.Put(article)

	if _, err := env.svc.Bookmarks.Add(ctx, bob.ID, article.ID); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := env.svc.Bookmarks.Add(ctx, bob.ID, article.ID); !errors.Is(err, service.ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}
	if _, err := env.svc.Bookmarks.Add(ctx, alice.ID, article.ID); err != nil {
		t.Errorf("Expected another user to bookmark the same article, got %v", err)
	}
}

func TestBookmarks_UnknownArticle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, id := range []string{"feed_123", "aaaaaaaa-0000-0000-0000-000000000009"} {
		if _, err := env.svc.Bookmarks.Add(ctx, bob.ID, id); !errors.Is(err, service.ErrNotFound) {
			t.Errorf("Add(%q): expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestBookmarks_DanglingAreFiltered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	kept := manualArticle("aaaaaaaa-0000-0000-0000-000000000001", baseTime)
	gone := manualArticle("aaaaaaaa-0000-0000-0000-000000000002", baseTime)
	env.articles.Put(kept)
	env.articles.Put(gone)
	env.svc.Bookmarks.Add(ctx, bob.ID, kept.ID)
	env.svc.Bookmarks.Add(ctx, bob.ID, gone.ID)

	env.articles.Remove(gone.ID)

	list, err := env.svc.Bookmarks.List(ctx, bob.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].ArticleID != kept.ID {
		t.Errorf("Expected only the surviving bookmark, got %+v", list)
	}
}

func TestBookmarks_OtherAuthorsDraftIsHidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	draft := manualArticle("aaaaaaaa-0000-0000-0000-000000000001", baseTime)
	draft.Status = models.StatusDraft
	draft.Content = "Unpublished body"
	env.articles.Put(draft)

	if _, err := env.svc.Bookmarks.Add(ctx, bob.ID, draft.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for another author's draft, got %v", err)
	}
	if _, err := env.svc.Bookmarks.Add(ctx, alice.ID, draft.ID); err != nil {
		t.Errorf("Expected the author to bookmark her own draft, got %v", err)
	}

	expired := manualArticle("aaaaaaaa-0000-0000-0000-000000000002", baseTime)
	past := baseTime.Add(-time.Minute)
	expired.ExpiresAt = &past
	env.articles.Put(expired)
	if _, err := env.svc.Bookmarks.Add(ctx, bob.ID, expired.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for an expired article, got %v", err)
	}
}

func TestBookmarks_UnpublishedAfterSavingIsHidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	article := manualArticle("aaaaaaaa-0000-0000-0000-000000000001", baseTime)
	env.articles.Put(article)
	if _, err := env.svc.Bookmarks.Add(ctx, bob.ID, article.ID); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := env.svc.Bookmarks.Add(ctx, alice.ID, article.ID); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	article.Status = models.StatusDraft
	env.articles.Put(article)

	list, err := env.svc.Bookmarks.List(ctx, bob.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected the draft to be hidden from bob, got %+v", list)
	}

	own, _ := env.svc.Bookmarks.List(ctx, alice.ID)
	if len(own) != 1 || own[0].Article.Status != models.StatusDraft {
		t.Errorf("Expected the author to still see her draft, got %+v", own)
	}
}
