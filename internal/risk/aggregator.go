package risk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/examwatch/proctor-admin/internal/auth"
	"github.com/examwatch/proctor-admin/internal/backend"
	"github.com/examwatch/proctor-admin/internal/logging"
	"github.com/examwatch/proctor-admin/internal/metrics"
)

// FlagFetcher reads one session's cheatingThresholdExceeded value from its summary.
type FlagFetcher interface {
	SessionFlag(ctx context.Context, creds auth.Credentials, sessionID, studentID string) (bool, error)
}

// FlagState is the lifecycle position of one session's flag.
type FlagState int

const (
	FlagAbsent FlagState = iota
	FlagPending
	FlagResolved
)

func (s FlagState) String() string {
	switch s {
	case FlagPending:
		return "pending"
	case FlagResolved:
		return "resolved"
	default:
		return "absent"
	}
}

// Result describes one EnsureFlags call.
type Result struct {
	// Requested is the number of summary requests issued.
	Requested int
	// Failed counts requests that errored and resolved to false.
	Failed int
	// Flags holds the resolved flag of every session in the window.
	Flags map[string]bool
}

// Aggregator resolves risk flags for windows of sessions. One Aggregator is shared by every
// board; its pending set and resolving counter are process-wide.
type Aggregator struct {
	fetcher FlagFetcher
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	pending   map[string]int
	resolving atomic.Int64
}

func NewAggregator(fetcher FlagFetcher, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
		pending: make(map[string]int),
	}
}

// EnsureFlags guarantees that every session in visible has a resolved flag in cache. Sessions
// already in cache cost nothing. Missing ones are fetched concurrently with no limit, failures
// resolve to false, and all results land in cache through a single Merge.
//
// Requests run on a context detached from ctx's cancellation, so a window the user has already
// navigated away from still writes its flags. Only store failures and expired credentials are
// returned as errors.
func (a *Aggregator) EnsureFlags(ctx context.Context, creds auth.Credentials, visible []backend.Session, cache FlagStore) (Result, error) {
	ids := sessionIDs(visible)
	if len(ids) == 0 {
		return Result{Flags: map[string]bool{}}, nil
	}

	known, err := cache.Lookup(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("lookup risk flags: %w", err)
	}
	metrics.RiskFlagCacheHitsTotal.Add(float64(len(known)))

	missing := make([]backend.Session, 0, len(ids)-len(known))
	seen := make(map[string]struct{}, len(ids))
	for _, s := range visible {
		if s.ID == "" {
			continue
		}
		if _, ok := known[s.ID]; ok {
			continue
		}
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		missing = append(missing, s)
	}
	if len(missing) == 0 {
		return Result{Flags: known}, nil
	}

	if !creds.Valid(a.now()) {
		return Result{}, auth.ErrUnauthenticated
	}

	missingIDs := sessionIDs(missing)
	a.begin(missingIDs)
	defer a.end(missingIDs)

	fanCtx := context.WithoutCancel(ctx)
	resolved := make([]bool, len(missing))
	var failed atomic.Int64

	var g errgroup.Group
	for i, s := range missing {
		g.Go(func() error {
			flagged, err := a.fetcher.SessionFlag(fanCtx, creds, s.ID, s.StudentID)
			if err != nil {
				failed.Add(1)
				metrics.RiskFlagResolutionsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
				logging.FromContextOr(ctx, a.logger).Warn("risk flag resolution failed; treating session as not flagged",
					"session_id", s.ID,
					"student_id", s.StudentID,
					"err", err,
				)
				return nil
			}
			resolved[i] = flagged
			if flagged {
				metrics.RiskFlagResolutionsTotal.WithLabelValues(metrics.OutcomeFlagged).Inc()
			} else {
				metrics.RiskFlagResolutionsTotal.WithLabelValues(metrics.OutcomeClear).Inc()
			}
			return nil
		})
	}
	_ = g.Wait()

	updates := make(map[string]bool, len(missing))
	for i, s := range missing {
		updates[s.ID] = resolved[i]
	}
	if err := cache.Merge(fanCtx, updates); err != nil {
		return Result{}, fmt.Errorf("merge risk flags: %w", err)
	}

	flags := make(map[string]bool, len(known)+len(updates))
	for id, v := range known {
		flags[id] = v
	}
	for id, v := range updates {
		flags[id] = v
	}
	return Result{
		Requested: len(missing),
		Failed:    int(failed.Load()),
		Flags:     flags,
	}, nil
}

// Flagged ensures flags for the whole collection and returns the flagged sessions in order.
func (a *Aggregator) Flagged(ctx context.Context, creds auth.Credentials, sessions []backend.Session, cache FlagStore) ([]backend.Session, error) {
	res, err := a.EnsureFlags(ctx, creds, sessions, cache)
	if err != nil {
		return nil, err
	}
	out := make([]backend.Session, 0)
	for _, s := range sessions {
		if res.Flags[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

// State reports where one session's flag is in its lifecycle.
func (a *Aggregator) State(ctx context.Context, cache FlagStore, id string) (FlagState, bool, error) {
	known, err := cache.Lookup(ctx, []string{id})
	if err != nil {
		return FlagAbsent, false, err
	}
	if v, ok := known[id]; ok {
		return FlagResolved, v, nil
	}
	a.mu.Lock()
	inFlight := a.pending[id] > 0
	a.mu.Unlock()
	if inFlight {
		return FlagPending, false, nil
	}
	return FlagAbsent, false, nil
}

// Resolving reports whether any EnsureFlags call is fetching summaries.
func (a *Aggregator) Resolving() bool {
	return a.resolving.Load() > 0
}

// ResolvingAny reports whether a summary request is in flight for one of ids. Pages use it so
// the indicator only reflects their own sessions.
func (a *Aggregator) ResolvingAny(ids []string) bool {
	if a.resolving.Load() == 0 {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range ids {
		if a.pending[id] > 0 {
			return true
		}
	}
	return false
}

func (a *Aggregator) begin(ids []string) {
	a.resolving.Add(1)
	metrics.RiskResolvingInFlight.Inc()
	a.mu.Lock()
	for _, id := range ids {
		a.pending[id]++
	}
	a.mu.Unlock()
}

func (a *Aggregator) end(ids []string) {
	a.mu.Lock()
	for _, id := range ids {
		if a.pending[id] <= 1 {
			delete(a.pending, id)
		} else {
			a.pending[id]--
		}
	}
	a.mu.Unlock()
	metrics.RiskResolvingInFlight.Dec()
	a.resolving.Add(-1)
}

func sessionIDs(sessions []backend.Session) []string {
	ids := make([]string, 0, len(sessions))
	seen := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		if s.ID == "" {
			continue
		}
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		ids = append(ids, s.ID)
	}
	return ids
}
