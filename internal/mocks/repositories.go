package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/news-aggregator-api/internal/models"
	"github.com/news-aggregator-api/internal/repository"
)

// NewRepositories returns a Repositories aggregate backed by fresh mocks
func NewRepositories() (*repository.Repositories, *MockUserRepository, *MockUserEmailRepository, *MockArticleRepository, *MockBookmarkRepository) {
	users := NewMockUserRepository()
	emails := NewMockUserEmailRepository()
	articles := NewMockArticleRepository()
	bookmarks := NewMockBookmarkRepository(articles)
	return &repository.Repositories{
		User:      users,
		UserEmail: emails,
		Article:   articles,
		Bookmark:  bookmarks,
	}, users, emails, articles, bookmarks
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mu          sync.Mutex
	Users       map[string]*models.User
	EmailToUser map[string]*models.User
	InsertError error
	CreateCalls int
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:       make(map[string]*models.User),
		EmailToUser: make(map[string]*models.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if m.InsertError != nil {
		return m.InsertError
	}
	if _, exists := m.EmailToUser[user.Email]; exists {
		return repository.ErrDuplicate
	}
	stored := *user
	m.Users[user.ID] = &stored
	m.EmailToUser[user.Email] = &stored
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.Users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.EmailToUser[strings.ToLower(email)]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

// Count returns the number of stored users
func (m *MockUserRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Users)
}

// MockUserEmailRepository is a mock implementation of UserEmailRepository
type MockUserEmailRepository struct {
	mu          sync.Mutex
	Entries     map[string]*models.UserEmail
	UpsertError error
	UpsertCalls int
}

var _ repository.UserEmailRepository = (*MockUserEmailRepository)(nil)

func NewMockUserEmailRepository() *MockUserEmailRepository {
	return &MockUserEmailRepository{Entries: make(map[string]*models.UserEmail)}
}

func (m *MockUserEmailRepository) Upsert(ctx context.Context, entry *models.UserEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpsertCalls++
	if m.UpsertError != nil {
		return m.UpsertError
	}
	if existing, ok := m.Entries[entry.Email]; ok {
		existing.UserID = entry.UserID
		existing.Device = entry.Device
		existing.UpdatedAt = entry.UpdatedAt
		return nil
	}
	stored := *entry
	m.Entries[entry.Email] = &stored
	return nil
}

func (m *MockUserEmailRepository) List(ctx context.Context) ([]*models.UserEmail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*models.UserEmail, 0, len(m.Entries))
	for _, e := range m.Entries {
		cp := *e
		result = append(result, &cp)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].Email < result[j].Email
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// MockArticleRepository is a mock implementation of ArticleRepository.
// Stored records are copied on the way in and out.
type MockArticleRepository struct {
	mu          sync.Mutex
	Articles    map[string]*models.Article
	InsertError error
	UpdateError error
	ListError   error
	CreateCalls int
	UpdateCalls int
	DeleteCalls int
}

var _ repository.ArticleRepository = (*MockArticleRepository)(nil)

func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{Articles: make(map[string]*models.Article)}
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if m.InsertError != nil {
		return m.InsertError
	}
	if _, exists := m.Articles[article.ID]; exists {
		return repository.ErrDuplicate
	}
	m.Articles[article.ID] = copyArticle(article)
	return nil
}

func (m *MockArticleRepository) Update(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls++
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, exists := m.Articles[article.ID]; !exists {
		return repository.ErrMissingReference
	}
	m.Articles[article.ID] = copyArticle(article)
	return nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls++
	if _, exists := m.Articles[id]; !exists {
		return false, nil
	}
	delete(m.Articles, id)
	return true, nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.Articles[id]; ok {
		return copyArticle(a), nil
	}
	return nil, nil
}

func (m *MockArticleRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*models.Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := m.Articles[id]; ok {
			result = append(result, copyArticle(a))
		}
	}
	return result, nil
}

func (m *MockArticleRepository) ListPublished(ctx context.Context, now time.Time, limit int) ([]*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListError != nil {
		return nil, m.ListError
	}
	result := make([]*models.Article, 0)
	for _, a := range m.Articles {
		if a.IsVisible(now) {
			result = append(result, copyArticle(a))
		}
	}
	sortNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockArticleRepository) ListByAuthor(ctx context.Context, authorID string) ([]*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*models.Article, 0)
	for _, a := range m.Articles {
		if a.AuthorID == authorID {
			result = append(result, copyArticle(a))
		}
	}
	sortNewestFirst(result)
	return result, nil
}

// Put stores an article directly, bypassing counters and error knobs
func (m *MockArticleRepository) Put(article *models.Article) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Articles[article.ID] = copyArticle(article)
}

// Remove drops an article without touching bookmarks, leaving them dangling
func (m *MockArticleRepository) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Articles, id)
}

// Stored returns a copy of the stored article, or nil
func (m *MockArticleRepository) Stored(id string) *models.Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.Articles[id]; ok {
		return copyArticle(a)
	}
	return nil
}

func (m *MockArticleRepository) exists(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Articles[id]
	return ok
}

// MockBookmarkRepository is a mock implementation of BookmarkRepository.
// Creating a bookmark for an unknown article fails like the foreign key does.
type MockBookmarkRepository struct {
	mu          sync.Mutex
	articles    *MockArticleRepository
	Bookmarks   []*models.Bookmark
	InsertError error
}

var _ repository.BookmarkRepository = (*MockBookmarkRepository)(nil)

func NewMockBookmarkRepository(articles *MockArticleRepository) *MockBookmarkRepository {
	return &MockBookmarkRepository{articles: articles}
}

func (m *MockBookmarkRepository) Create(ctx context.Context, bookmark *models.Bookmark) error {
	if m.articles != nil && !m.articles.exists(bookmark.ArticleID) {
		return repository.ErrMissingReference
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InsertError != nil {
		return m.InsertError
	}
	for _, b := range m.Bookmarks {
		if b.UserID == bookmark.UserID && b.ArticleID == bookmark.ArticleID {
			return repository.ErrDuplicate
		}
	}
	stored := *bookmark
	m.Bookmarks = append(m.Bookmarks, &stored)
	return nil
}

func (m *MockBookmarkRepository) ListByUser(ctx context.Context, userID string) ([]*models.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*models.Bookmark, 0)
	for _, b := range m.Bookmarks {
		if b.UserID == userID {
			cp := *b
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockBookmarkRepository) Delete(ctx context.Context, userID, articleID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, b := range m.Bookmarks {
		if b.UserID == userID && b.ArticleID == articleID {
			m.Bookmarks = append(m.Bookmarks[:i], m.Bookmarks[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func copyArticle(a *models.Article) *models.Article {
	cp := *a
	if a.ExpiresAt != nil {
		t := *a.ExpiresAt
		cp.ExpiresAt = &t
	}
	return &cp
}

func sortNewestFirst(articles []*models.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].CreatedAt.After(articles[j].CreatedAt)
	})
}
