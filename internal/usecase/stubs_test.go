package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
	"github.com/sweetworks/sweetshop-api/internal/repository"
)

// memTokenRepo is an in-memory TokenRepository with the same atomicity
// guarantees as the SQL implementation, so rotation races can be exercised
// with real goroutines.
type memTokenRepo struct {
	mu        sync.Mutex
	tokens    map[string]*domain.RefreshToken // keyed by token hash
	blacklist map[string]domain.BlacklistedToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{
		tokens:    make(map[string]*domain.RefreshToken),
		blacklist: make(map[string]domain.BlacklistedToken),
	}
}

func (m *memTokenRepo) CreateRefreshToken(_ context.Context, token domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tokens[token.TokenHash]; ok {
		return repository.ErrDuplicate
	}
	copied := token
	m.tokens[token.TokenHash] = &copied
	return nil
}

func (m *memTokenRepo) GetRefreshTokenByHash(_ context.Context, hash string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, ok := m.tokens[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *token
	return &copied, nil
}

func (m *memTokenRepo) RevokeRefreshToken(_ context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, ok := m.tokens[hash]
	if !ok || token.Revoked {
		return false, nil
	}
	token.Revoked = true
	return true, nil
}

func (m *memTokenRepo) CountValidRefreshTokens(_ context.Context, userID string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, token := range m.tokens {
		if token.UserID == userID && token.IsValid(now) {
			count++
		}
	}
	return count, nil
}

func (m *memTokenRepo) RevokeAllRefreshTokensForUser(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	revoked := 0
	for _, token := range m.tokens {
		if token.UserID == userID && !token.Revoked {
			token.Revoked = true
			revoked++
		}
	}
	return revoked, nil
}

func (m *memTokenRepo) DeleteExpiredRefreshTokens(_ context.Context, expiresBefore time.Time, batchSize int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for hash, token := range m.tokens {
		if deleted >= batchSize {
			break
		}
		if token.ExpiresAt.Before(expiresBefore) {
			delete(m.tokens, hash)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memTokenRepo) BlacklistJTI(_ context.Context, entry domain.BlacklistedToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blacklist[entry.JTI]; ok {
		return nil
	}
	m.blacklist[entry.JTI] = entry
	return nil
}

func (m *memTokenRepo) IsJTIBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.blacklist[jti]
	return ok, nil
}

func (m *memTokenRepo) DeleteExpiredBlacklistEntries(_ context.Context, expiresBefore time.Time, batchSize int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for jti, entry := range m.blacklist {
		if deleted >= batchSize {
			break
		}
		if entry.ExpiresAt.Before(expiresBefore) {
			delete(m.blacklist, jti)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memTokenRepo) activeCount(userID string, now time.Time) int {
	count, _ := m.CountValidRefreshTokens(context.Background(), userID, now)
	return count
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User // keyed by ID
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]domain.User)}
}

func (m *memUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (m *memUserRepo) delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

type memSweetRepo struct {
	mu     sync.Mutex
	sweets map[string]*domain.Sweet
}

func newMemSweetRepo() *memSweetRepo {
	return &memSweetRepo{sweets: make(map[string]*domain.Sweet)}
}

func (m *memSweetRepo) Create(_ context.Context, sweet domain.Sweet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.sweets {
		if existing.Name == sweet.Name {
			return repository.ErrDuplicate
		}
	}
	copied := sweet
	m.sweets[sweet.ID] = &copied
	return nil
}

func (m *memSweetRepo) GetByID(_ context.Context, id string) (*domain.Sweet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sweet, ok := m.sweets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *sweet
	return &copied, nil
}

func (m *memSweetRepo) List(_ context.Context, _ domain.Page) ([]domain.Sweet, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Sweet
	for _, sweet := range m.sweets {
		out = append(out, *sweet)
	}
	return out, len(out), nil
}

func (m *memSweetRepo) Search(_ context.Context, filter domain.SweetFilter, _ domain.Page) ([]domain.Sweet, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Sweet
	for _, sweet := range m.sweets {
		if filter.Name != "" && !strings.Contains(strings.ToLower(sweet.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.Category != nil && sweet.Category != *filter.Category {
			continue
		}
		if filter.MinPriceCents != nil && sweet.PriceCents < *filter.MinPriceCents {
			continue
		}
		if filter.MaxPriceCents != nil && sweet.PriceCents > *filter.MaxPriceCents {
			continue
		}
		out = append(out, *sweet)
	}
	return out, len(out), nil
}

func (m *memSweetRepo) Update(_ context.Context, sweet domain.Sweet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sweets[sweet.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := sweet
	m.sweets[sweet.ID] = &copied
	return nil
}

func (m *memSweetRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sweets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.sweets, id)
	return nil
}

func (m *memSweetRepo) AdjustQuantity(_ context.Context, id string, delta int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sweet, ok := m.sweets[id]
	if !ok {
		return false, nil
	}
	if sweet.Quantity+delta < 0 {
		return false, nil
	}
	sweet.Quantity += delta
	return true, nil
}

type memPurchaseRepo struct {
	mu        sync.Mutex
	purchases []domain.Purchase
	failNext  bool
}

func newMemPurchaseRepo() *memPurchaseRepo {
	return &memPurchaseRepo{}
}

func (m *memPurchaseRepo) Create(_ context.Context, purchase domain.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext {
		m.failNext = false
		return context.DeadlineExceeded
	}
	m.purchases = append(m.purchases, purchase)
	return nil
}

func (m *memPurchaseRepo) ListByUser(_ context.Context, userID string, _ domain.Page) ([]domain.Purchase, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Purchase
	for _, p := range m.purchases {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

// memCache is an in-memory RevocationCache that can be forced to fail.
type memCache struct {
	mu      sync.Mutex
	entries map[string]string
	failing bool
	writes  int
	reads   int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]string)}
}

func (m *memCache) MarkRevoked(_ context.Context, jti string, reason string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failing {
		return context.DeadlineExceeded
	}
	m.entries[jti] = reason
	m.writes++
	return nil
}

func (m *memCache) IsRevoked(_ context.Context, jti string) (bool, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failing {
		return false, "", context.DeadlineExceeded
	}
	m.reads++
	reason, ok := m.entries[jti]
	return ok, reason, nil
}

// plainHasher avoids argon2 cost in service-level tests.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "plain:" + password, nil
}

func (plainHasher) Verify(password string, encoded string) (bool, error) {
	return encoded == "plain:"+password, nil
}
