package service

import (
	"context"
	"slices"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/carepoint/identity-service/internal/core/domain"
)

// memAccounts enforces the same uniqueness rules as the Mongo indexes.
type memAccounts struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.Account
	writes int
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: make(map[int64]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Roles = slices.Clone(a.Roles)
	return &c
}

func (r *memAccounts) find(match func(*domain.Account) bool) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if match(a) {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *memAccounts) FindByID(_ context.Context, id int64) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.ID == id })
}

func (r *memAccounts) FindByHandle(_ context.Context, handle string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.Handle == handle })
}

func (r *memAccounts) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.Email != "" && a.Email == email })
}

func (r *memAccounts) FindByProvider(_ context.Context, provider domain.Provider, subject string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool {
		return a.ProviderSubject != "" && a.Provider == provider && a.ProviderSubject == subject
	})
}

// conflict must be called with r.mu held.
func (r *memAccounts) conflict(acc *domain.Account) error {
	for _, a := range r.byID {
		if a.ID == acc.ID {
			continue
		}
		if a.Handle == acc.Handle {
			return domain.ErrDuplicateHandle
		}
		if acc.Email != "" && a.Email == acc.Email {
			return domain.ErrDuplicateEmail
		}
		if acc.ProviderSubject != "" && a.Provider == acc.Provider && a.ProviderSubject == acc.ProviderSubject {
			return domain.ErrDuplicateHandle
		}
	}
	return nil
}

func (r *memAccounts) Create(_ context.Context, acc *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conflict(acc); err != nil {
		return nil, err
	}
	r.nextID++
	c := cloneAccount(acc)
	c.ID = r.nextID
	r.byID[c.ID] = c
	r.writes++
	return cloneAccount(c), nil
}

func (r *memAccounts) Update(_ context.Context, acc *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[acc.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	if err := r.conflict(acc); err != nil {
		return err
	}
	r.byID[acc.ID] = cloneAccount(acc)
	r.writes++
	return nil
}

func (r *memAccounts) ExistsHandle(ctx context.Context, handle string) (bool, error) {
	_, err := r.FindByHandle(ctx, handle)
	return err == nil, nil
}

func (r *memAccounts) ExistsEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *memAccounts) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

// profileFields are the columns memProfiles indexes and filters on.
type profileFields struct {
	accountID      int64
	code           string
	firstName      string
	lastName       string
	specialization string
	active         bool
}

// memProfiles is an in-memory ProfileStore keyed by account id with a
// unique code.
type memProfiles[T any] struct {
	mu     sync.Mutex
	items  map[int64]T
	codes  map[string]int64
	fields func(*T) profileFields
	checks int
}

func newMemProfiles[T any](fields func(*T) profileFields) *memProfiles[T] {
	return &memProfiles[T]{items: make(map[int64]T), codes: make(map[string]int64), fields: fields}
}

func (s *memProfiles[T]) FindByAccountID(_ context.Context, accountID int64) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[accountID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &p, nil
}

func (s *memProfiles[T]) Create(_ context.Context, profile *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.fields(profile)
	if _, ok := s.items[f.accountID]; ok {
		return domain.ErrProfileConflict
	}
	if _, ok := s.codes[f.code]; ok {
		return domain.ErrProfileConflict
	}
	s.codes[f.code] = f.accountID
	s.items[f.accountID] = *profile
	return nil
}

func (s *memProfiles[T]) Save(_ context.Context, profile *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.fields(profile)
	if _, ok := s.items[f.accountID]; !ok {
		return domain.ErrProfileNotFound
	}
	if owner, ok := s.codes[f.code]; ok && owner != f.accountID {
		return domain.ErrProfileConflict
	}
	s.codes[f.code] = f.accountID
	s.items[f.accountID] = *profile
	return nil
}

func (s *memProfiles[T]) ExistsCode(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks++
	_, ok := s.codes[code]
	return ok, nil
}

func (s *memProfiles[T]) List(_ context.Context, filter domain.ProfileFilter) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	name := strings.ToLower(strings.TrimSpace(filter.Name))
	out := []T{}
	skipped := 0
	for _, id := range ids {
		p := s.items[id]
		f := s.fields(&p)
		if filter.ActiveOnly && !f.active {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(f.firstName), name) && !strings.Contains(strings.ToLower(f.lastName), name) {
			continue
		}
		if filter.Specialization != "" && !strings.EqualFold(f.specialization, filter.Specialization) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		if len(out) == filter.Limit {
			break
		}
		out = append(out, p)
	}
	return out, nil
}

// reserve marks code as taken by an unrelated account.
func (s *memProfiles[T]) reserve(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code] = -1
}

func newPatientStore() *memProfiles[domain.PatientProfile] {
	return newMemProfiles(func(p *domain.PatientProfile) profileFields {
		return profileFields{p.AccountID, p.PatientCode, p.FirstName, p.LastName, "", p.Active}
	})
}

func newDoctorStore() *memProfiles[domain.DoctorProfile] {
	return newMemProfiles(func(p *domain.DoctorProfile) profileFields {
		return profileFields{p.AccountID, p.DoctorCode, p.FirstName, p.LastName, p.Specialization, p.Active}
	})
}

func newAdminStore() *memProfiles[domain.AdminProfile] {
	return newMemProfiles(func(p *domain.AdminProfile) profileFields {
		return profileFields{p.AccountID, p.AdminCode, p.FirstName, p.LastName, "", p.Active}
	})
}

type recordedEvents struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (r *recordedEvents) Publish(e domain.AuthEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordedEvents) types() []domain.AuthEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuthEventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func testHasher() *BcryptHasher {
	return NewBcryptHasher(bcrypt.MinCost)
}
