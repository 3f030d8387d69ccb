package risk

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/examwatch/proctor-admin/internal/backend"
)

var ErrBoardNotFound = errors.New("board not found")

// Board is the sessions page state of one dashboard session: the search term, the loaded
// collection and the flags resolved against it.
type Board struct {
	ID       string            `json:"id"`
	Query    string            `json:"query"`
	Sessions []backend.Session `json:"sessions"`
	LoadedAt time.Time         `json:"loaded_at"`
}

// Window returns the sessions on page (1-based) with the given page size.
func (b Board) Window(page, pageSize int) []backend.Session {
	if pageSize <= 0 || page < 1 {
		return nil
	}
	start := (page - 1) * pageSize
	if start >= len(b.Sessions) {
		return nil
	}
	end := min(start+pageSize, len(b.Sessions))
	return b.Sessions[start:end]
}

// BoardStore keeps boards and their flag caches.
type BoardStore interface {
	Get(ctx context.Context, id string) (Board, error)
	// Reset replaces the board's collection and invalidates its flags. It is the only place
	// flags are discarded.
	Reset(ctx context.Context, id, query string, sessions []backend.Session) (Board, error)
	Flags(id string) FlagStore
}

// MemoryBoards keeps boards in process memory. Boards idle longer than ttl are dropped.
type MemoryBoards struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	boards map[string]*memoryBoard
}

type memoryBoard struct {
	board   Board
	flags   *MemoryFlags
	touched time.Time
}

func NewMemoryBoards(ttl time.Duration) *MemoryBoards {
	return &MemoryBoards{
		ttl:    ttl,
		now:    time.Now,
		boards: make(map[string]*memoryBoard),
	}
}

func (m *MemoryBoards) Get(_ context.Context, id string) (Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	entry, ok := m.boards[strings.TrimSpace(id)]
	if !ok || entry.board.LoadedAt.IsZero() {
		return Board{}, ErrBoardNotFound
	}
	entry.touched = m.now()
	return entry.board, nil
}

func (m *MemoryBoards) Reset(ctx context.Context, id, query string, sessions []backend.Session) (Board, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Board{}, errors.New("board id is required")
	}
	now := m.now()
	board := Board{
		ID:       id,
		Query:    strings.TrimSpace(query),
		Sessions: sessions,
		LoadedAt: now,
	}

	m.mu.Lock()
	m.sweepLocked()
	entry := m.entryLocked(id)
	entry.board = board
	entry.touched = now
	flags := entry.flags
	m.mu.Unlock()

	if err := flags.Invalidate(ctx); err != nil {
		return Board{}, err
	}
	return board, nil
}

// Flags returns the board's flag cache, creating an empty one for unknown boards. A board that
// only has a flag cache is still reported as not found by Get.
func (m *MemoryBoards) Flags(id string) FlagStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entryLocked(strings.TrimSpace(id)).flags
}

func (m *MemoryBoards) entryLocked(id string) *memoryBoard {
	entry, ok := m.boards[id]
	if !ok {
		entry = &memoryBoard{board: Board{ID: id}, flags: NewMemoryFlags(), touched: m.now()}
		m.boards[id] = entry
	}
	return entry
}

func (m *MemoryBoards) sweepLocked() {
	if m.ttl <= 0 {
		return
	}
	cutoff := m.now().Add(-m.ttl)
	for id, entry := range m.boards {
		if entry.touched.Before(cutoff) {
			delete(m.boards, id)
		}
	}
}
