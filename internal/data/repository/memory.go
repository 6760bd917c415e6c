package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"otp-auth/internal/data/entity"

	"go.uber.org/zap"
)

// memoryStore keeps users in process memory. It backs development runs
// without Postgres and the test suites; data is lost on restart.
type memoryStore struct {
	mu     sync.RWMutex
	byID   map[int64]*entity.User
	nextID int64
	now    func() time.Time
	log    *zap.Logger
}

// NewMemoryRepository returns both repositories backed by one in-memory table.
func NewMemoryRepository(log *zap.Logger) *Repository {
	store := newMemoryStore(log)
	return &Repository{
		User: store,
		OTP:  store,
	}
}

func newMemoryStore(log *zap.Logger) *memoryStore {
	return &memoryStore{
		byID: make(map[int64]*entity.User),
		now:  time.Now,
		log:  log.With(zap.String("repository", "memory")),
	}
}

func clone(u *entity.User) *entity.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (m *memoryStore) findByEmailLocked(email string) *entity.User {
	for _, u := range m.byID {
		if u.Email == email {
			return u
		}
	}
	return nil
}

// ==================== OTP ====================

func (m *memoryStore) Upsert(_ context.Context, email, code string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	codeCopy, expiryCopy := code, expiresAt

	if u := m.findByEmailLocked(email); u != nil {
		u.OTP = &codeCopy
		u.OTPExpiry = &expiryCopy
		u.UpdatedAt = now
		return nil
	}

	m.nextID++
	m.byID[m.nextID] = &entity.User{
		Base:      entity.Base{ID: m.nextID, CreatedAt: now, UpdatedAt: now},
		Email:     email,
		Role:      entity.RoleUser,
		OTP:       &codeCopy,
		OTPExpiry: &expiryCopy,
	}
	return nil
}

func (m *memoryStore) Consume(_ context.Context, email, code string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.findByEmailLocked(email)
	if u == nil || u.OTP == nil || *u.OTP != code {
		return nil, nil
	}

	u.OTP = nil
	u.OTPExpiry = nil
	u.IsVerified = true
	u.UpdatedAt = m.now()
	return clone(u), nil
}

// ==================== USERS ====================

func (m *memoryStore) FindByID(_ context.Context, id int64) (*entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.byID[id]), nil
}

func (m *memoryStore) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.findByEmailLocked(email)), nil
}

// sortedLocked returns users newest first, ties broken by id
func (m *memoryStore) sortedLocked() []*entity.User {
	users := make([]*entity.User, 0, len(m.byID))
	for _, u := range m.byID {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID > users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users
}

func (m *memoryStore) pageLocked(limit, offset int) []*entity.User {
	sorted := m.sortedLocked()
	out := make([]*entity.User, 0, limit)
	for i := offset; i < len(sorted) && len(out) < limit; i++ {
		out = append(out, clone(sorted[i]))
	}
	return out
}

func (m *memoryStore) FindAll(_ context.Context, limit, offset int) ([]*entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pageLocked(limit, offset), nil
}

func (m *memoryStore) CountAll(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.byID)), nil
}

// Stats counts and lists from one snapshot of the table.
func (m *memoryStore) Stats(_ context.Context, recent int) (*entity.UserStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &entity.UserStats{TotalUsers: int64(len(m.byID))}
	for _, u := range m.byID {
		if u.IsVerified {
			stats.VerifiedUsers++
		}
		if u.Role == entity.RoleAdmin {
			stats.AdminUsers++
		}
	}
	stats.RecentUsers = m.pageLocked(recent, 0)
	return stats, nil
}

func (m *memoryStore) UpdateProfile(_ context.Context, email string, update entity.ProfileUpdate) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.findByEmailLocked(email)
	if u == nil {
		return nil, nil
	}
	if update.FirstName != nil {
		v := *update.FirstName
		u.FirstName = &v
	}
	if update.LastName != nil {
		v := *update.LastName
		u.LastName = &v
	}
	if update.Phone != nil {
		v := *update.Phone
		u.Phone = &v
	}
	u.UpdatedAt = m.now()
	return clone(u), nil
}

func (m *memoryStore) UpdateEmail(_ context.Context, email, newEmail string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.findByEmailLocked(email)
	if u == nil {
		return nil, nil
	}
	if other := m.findByEmailLocked(newEmail); other != nil && other.ID != u.ID {
		return nil, ErrEmailTaken
	}
	u.Email = newEmail
	u.UpdatedAt = m.now()
	return clone(u), nil
}

func (m *memoryStore) UpdateRole(_ context.Context, id int64, role entity.UserRole) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	u.Role = role
	u.UpdatedAt = m.now()
	return clone(u), nil
}

func (m *memoryStore) Delete(_ context.Context, id int64) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	delete(m.byID, id)
	m.log.Info("User deleted", zap.Int64("id", id), zap.String("email", u.Email))
	return u, nil
}
