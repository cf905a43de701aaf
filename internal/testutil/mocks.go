// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the backoffice-api service.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"backoffice-api/internal/domain"
)

// ErrMockStore simulates a transient storage failure.
var ErrMockStore = errors.New("mock: storage unreachable")

// MockSessionStore implements domain.SessionStore for testing.
// Set the Func overrides to customize behavior; otherwise calls operate
// on the in-memory Sessions map. FindCalls and DeleteCalls record the
// ids each op was invoked with, in order.
type MockSessionStore struct {
	mu sync.RWMutex

	// Function overrides - set these to customize behavior
	CreateFunc func(ctx context.Context, ownerID string, ttl time.Duration) (*domain.Session, error)
	FindFunc   func(ctx context.Context, id string) (*domain.Session, error)
	DeleteFunc func(ctx context.Context, id string) error

	// In-memory storage for simple tests
	Sessions map[string]*domain.Session

	// Call recording
	FindCalls   []string
	DeleteCalls []string

	nextID int
}

// NewMockSessionStore creates a new MockSessionStore with initialized maps
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		Sessions: make(map[string]*domain.Session),
	}
}

func (m *MockSessionStore) Create(ctx context.Context, ownerID string, ttl time.Duration) (*domain.Session, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, ownerID, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	session := &domain.Session{
		ID:        fmt.Sprintf("mock-session-%d", m.nextID),
		OwnerID:   ownerID,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}
	m.Sessions[session.ID] = session
	return session, nil
}

func (m *MockSessionStore) Find(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	m.FindCalls = append(m.FindCalls, id)
	m.mu.Unlock()

	if m.FindFunc != nil {
		return m.FindFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if session, ok := m.Sessions[id]; ok {
		copied := *session
		return &copied, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (m *MockSessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	m.DeleteCalls = append(m.DeleteCalls, id)
	m.mu.Unlock()

	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.Sessions, id)
	return nil
}

// Cancel implements domain.SessionCanceler.
func (m *MockSessionStore) Cancel(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.Sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Canceled = true
	return nil
}

// Put stores a fixture session directly.
func (m *MockSessionStore) Put(session *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sessions[session.ID] = session
}

// Has reports whether a session id is currently stored.
func (m *MockSessionStore) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.Sessions[id]
	return ok
}

// FindCount returns how many Find calls were recorded.
func (m *MockSessionStore) FindCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.FindCalls)
}

// DeletedIDs returns the recorded Delete call ids.
func (m *MockSessionStore) DeletedIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.DeleteCalls))
	copy(out, m.DeleteCalls)
	return out
}

// MockUserRepository implements domain.UserRepository for testing
type MockUserRepository struct {
	mu sync.RWMutex

	GetByIDFunc       func(ctx context.Context, id string) (*domain.User, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*domain.User, error)

	Users map[string]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository with initialized maps
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
	}
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if user, ok := m.Users[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.Users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// MockCustomerRepository implements domain.CustomerRepository for testing
type MockCustomerRepository struct {
	mu sync.RWMutex

	CreateFunc  func(ctx context.Context, customer *domain.Customer) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.Customer, error)
	ListFunc    func(ctx context.Context, limit int) ([]*domain.Customer, error)

	Customers map[string]*domain.Customer
}

// NewMockCustomerRepository creates a new MockCustomerRepository with initialized maps
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		Customers: make(map[string]*domain.Customer),
	}
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, customer)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if customer.ID == "" {
		customer.ID = "customer-" + customer.Name
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now()
	}
	m.Customers[customer.ID] = customer
	return nil
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if customer, ok := m.Customers[id]; ok {
		return customer, nil
	}
	return nil, domain.ErrCustomerNotFound
}

func (m *MockCustomerRepository) List(ctx context.Context, limit int) ([]*domain.Customer, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	customers := make([]*domain.Customer, 0, len(m.Customers))
	for _, c := range m.Customers {
		if len(customers) == limit {
			break
		}
		customers = append(customers, c)
	}
	return customers, nil
}
