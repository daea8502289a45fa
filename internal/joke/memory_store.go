package joke

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Proton-105/joke-bot/internal/domain"
)

// MemoryStore is an in-process Store. Jokes are kept in insertion order.
type MemoryStore struct {
	mu    sync.RWMutex
	jokes []domain.Joke
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Insert appends texts as jokes by author.
func (m *MemoryStore) Insert(_ context.Context, author domain.Author, texts ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for _, text := range texts {
		m.jokes = append(m.jokes, domain.Joke{
			ID:        int64(len(m.jokes) + 1),
			Author:    author,
			Text:      text,
			CreatedAt: now,
		})
	}

	return nil
}

// Search returns the jokes containing pattern.
func (m *MemoryStore) Search(_ context.Context, pattern string) ([]domain.Joke, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found []domain.Joke
	for _, joke := range m.jokes {
		if strings.Contains(joke.Text, pattern) {
			found = append(found, joke)
		}
	}

	return found, nil
}
