// Package otp holds short-lived one-time login codes in memory.
//
// At most one code is outstanding per email: issuing a new code replaces the
// previous one. Codes are consumed by a successful verification and removed
// once expired, either lazily on verify or by the periodic sweep. Contents do
// not survive a restart.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/news-aggregator-api/internal/clock"
	"github.com/rs/zerolog"
)

// CodeLength is the number of digits in a code
const CodeLength = 6

var codeSpace = big.NewInt(1_000_000)

// Result is the outcome of a verification
type Result int

const (
	// ResultOK means the code matched and was consumed
	ResultOK Result = iota
	// ResultExpired means the code had expired; it has been removed
	ResultExpired
	// ResultMismatch means the code differs; the entry is kept for retries
	ResultMismatch
	// ResultAbsent means no code is outstanding for the email
	ResultAbsent
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultExpired:
		return "expired"
	case ResultMismatch:
		return "mismatch"
	case ResultAbsent:
		return "absent"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

type entry struct {
	code      string
	expiresAt time.Time
}

// Store is an in-memory credential store. Safe for concurrent use.
type Store struct {
	ttl   time.Duration
	clock clock.Clock
	log   zerolog.Logger

	mu      sync.Mutex
	entries map[string]entry

	sweeping atomic.Bool
}

// NewStore creates an empty store whose codes live for ttl
func NewStore(ttl time.Duration, clk clock.Clock, log zerolog.Logger) *Store {
	if clk == nil {
		clk = clock.Real()
	}
	return &Store{
		ttl:     ttl,
		clock:   clk,
		log:     log.With().Str("component", "otp").Logger(),
		entries: make(map[string]entry),
	}
}

// Normalize returns the key under which an email's code is stored
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Issue generates a new code for email, replacing any outstanding one
func (s *Store) Issue(email string) (string, time.Time, error) {
	code, err := generateCode()
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := s.clock.Now().Add(s.ttl)

	s.mu.Lock()
	s.entries[Normalize(email)] = entry{code: code, expiresAt: expiresAt}
	s.mu.Unlock()

	return code, expiresAt, nil
}

// Verify checks a submitted code against the outstanding one for email
func (s *Store) Verify(email, code string) Result {
	key := Normalize(email)
	code = strings.TrimSpace(code)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return ResultAbsent
	}
	if !s.clock.Now().Before(e.expiresAt) {
		delete(s.entries, key)
		return ResultExpired
	}
	if subtle.ConstantTimeCompare([]byte(e.code), []byte(code)) != 1 {
		return ResultMismatch
	}
	delete(s.entries, key)
	return ResultOK
}

// Sweep removes every expired entry and returns how many were removed.
// A call made while another sweep is in progress returns 0 immediately.
func (s *Store) Sweep() int {
	if !s.sweeping.CompareAndSwap(false, true) {
		return 0
	}
	defer s.sweeping.Store(false)

	now := s.clock.Now()
	removed := 0

	s.mu.Lock()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()

	return removed
}

// Len returns the number of outstanding entries, expired ones included
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run sweeps on every interval until ctx is cancelled
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	s.log.Info().Dur("interval", interval).Msg("OTP sweeper started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("OTP sweeper stopped")
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				s.log.Debug().Int("removed", removed).Msg("Expired OTP entries swept")
			}
		}
	}
}

// generateCode returns a uniformly random zero-padded numeric code
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}
