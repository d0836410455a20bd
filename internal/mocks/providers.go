package mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/news-aggregator-api/internal/models"
	"github.com/news-aggregator-api/internal/provider/blob"
	"github.com/news-aggregator-api/internal/provider/email"
	"github.com/news-aggregator-api/internal/provider/headlines"
)

// ErrProviderDown is returned by fakes scripted to fail
var ErrProviderDown = errors.New("provider unavailable")

// MockHeadlines is a scripted headline provider. Each call consumes the
// next entry of Failures (true = fail); once exhausted, calls use Err.
type MockHeadlines struct {
	mu       sync.Mutex
	Items    []headlines.Headline
	Err      error
	Failures []bool
	calls    int

	// Gate, when set, blocks every fetch until it is closed
	Gate chan struct{}
	// Started receives one value per call before Gate is waited on
	Started chan struct{}
}

var _ headlines.Provider = (*MockHeadlines)(nil)

func NewMockHeadlines(items ...headlines.Headline) *MockHeadlines {
	return &MockHeadlines{Items: items}
}

func (m *MockHeadlines) Name() string { return "mock" }

func (m *MockHeadlines) FetchHeadlines(ctx context.Context) ([]headlines.Headline, error) {
	m.mu.Lock()
	m.calls++
	fail := m.Err != nil
	if len(m.Failures) > 0 {
		fail = m.Failures[0]
		m.Failures = m.Failures[1:]
	}
	items := append([]headlines.Headline(nil), m.Items...)
	gate, started := m.Gate, m.Started
	m.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if fail {
		if m.Err != nil {
			return nil, m.Err
		}
		return nil, ErrProviderDown
	}
	return items, nil
}

// Calls returns how many times FetchHeadlines was invoked
func (m *MockHeadlines) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// SetItems replaces the items returned by later fetches
func (m *MockHeadlines) SetItems(items ...headlines.Headline) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Items = items
}

// SetGate replaces the gate used by later fetches; nil stops blocking
func (m *MockHeadlines) SetGate(gate chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gate = gate
}

// SetErr makes later fetches fail with err; nil restores success
func (m *MockHeadlines) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// Headline builds a provider record with the given id and publish time
func Headline(id, title string, publishedAt time.Time) headlines.Headline {
	return headlines.Headline{
		ID:          id,
		Title:       title,
		Description: title + " description",
		Source:      "Mock Wire",
		URL:         "https://example.com/" + id,
		PublishedAt: &publishedAt,
	}
}

// SentCode is one message captured by MockSender
type SentCode struct {
	To       string
	Code     string
	ValidFor time.Duration
}

// MockSender records dispatched codes
type MockSender struct {
	mu   sync.Mutex
	Err  error
	Sent []SentCode
}

var _ email.Sender = (*MockSender)(nil)

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) SendCode(ctx context.Context, to, code string, validFor time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentCode{To: to, Code: code, ValidFor: validFor})
	return nil
}

// LastCode returns the most recent code sent to addr
func (m *MockSender) LastCode(addr string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.Sent) - 1; i >= 0; i-- {
		if m.Sent[i].To == addr {
			return m.Sent[i].Code, true
		}
	}
	return "", false
}

// MockBlobStore keeps uploads in memory under mock:// URLs
type MockBlobStore struct {
	mu        sync.Mutex
	Objects   map[string]int64
	PutErr    error
	DeleteErr error
	Deleted   []string
	seq       int
}

var _ blob.Store = (*MockBlobStore)(nil)

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{Objects: make(map[string]int64)}
}

func (m *MockBlobStore) Put(ctx context.Context, upload *models.Upload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PutErr != nil {
		return "", m.PutErr
	}
	m.seq++
	url := fmt.Sprintf("mock://images/%d-%s", m.seq, upload.Filename)
	m.Objects[url] = upload.Size
	return url, nil
}

func (m *MockBlobStore) Delete(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Deleted = append(m.Deleted, url)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if !strings.HasPrefix(url, "mock://") {
		return blob.ErrForeignURL
	}
	delete(m.Objects, url)
	return nil
}

// Has reports whether url is still stored
func (m *MockBlobStore) Has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Objects[url]
	return ok
}
