package service

import (
	"context"
	"sort"
	"strings"

	"github.com/workforce/login-service/internal/core/domain"
)

// ---------------------------------------------------------------------------
// User / role / audit stores
// ---------------------------------------------------------------------------

type stubUserStore struct {
	byEmail   map[string]*domain.User
	roles     map[int64]domain.Role
	nextID    int64
	insertErr error
	insertN   *int64 // overrides rows affected when set
	deleteErr error
	findErr   error
	listErr   error
	inserts   int
	deletes   int
}

func newStubUserStore() *stubUserStore {
	roles := make(map[int64]domain.Role, len(domain.DefaultRoles))
	for _, r := range domain.DefaultRoles {
		roles[r.ID] = r
	}
	return &stubUserStore{byEmail: make(map[string]*domain.User), roles: roles, nextID: 1}
}

func (s *stubUserStore) withRole(u *domain.User) *domain.User {
	clone := *u
	if r, ok := s.roles[u.RoleID]; ok {
		clone.Role = &r
	}
	return &clone
}

func (s *stubUserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	u, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return s.withRole(u), nil
}

func (s *stubUserStore) Insert(_ context.Context, user *domain.User) (int64, error) {
	s.inserts++
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	if s.insertN != nil {
		return *s.insertN, nil
	}
	if _, exists := s.byEmail[user.Email]; exists {
		return 0, domain.ErrUserExists
	}
	user.ID = s.nextID
	s.nextID++
	clone := *user
	s.byEmail[user.Email] = &clone
	return 1, nil
}

func (s *stubUserStore) Delete(_ context.Context, user *domain.User) (int64, error) {
	s.deletes++
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	if _, ok := s.byEmail[user.Email]; !ok {
		return 0, nil
	}
	delete(s.byEmail, user.Email)
	return 1, nil
}

func (s *stubUserStore) ListAll(_ context.Context) ([]domain.User, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.User, 0, len(s.byEmail))
	for _, u := range s.byEmail {
		out = append(out, *s.withRole(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type stubRoleStore struct {
	err error
}

func (r *stubRoleStore) Exists(_ context.Context, roleID int64) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	for _, role := range domain.DefaultRoles {
		if role.ID == roleID {
			return true, nil
		}
	}
	return false, nil
}

type stubAuditStore struct {
	err      error
	rows     int64
	inserted []*domain.AuditLogEntry
}

func (a *stubAuditStore) Insert(_ context.Context, e *domain.AuditLogEntry) (int64, error) {
	if a.err != nil {
		return 0, a.err
	}
	a.inserted = append(a.inserted, e)
	if a.rows != 0 {
		return a.rows, nil
	}
	return 1, nil
}

// ---------------------------------------------------------------------------
// Employee client / journal
// ---------------------------------------------------------------------------

type stubEmployeeClient struct {
	createErr error
	getErr    error
	profile   *domain.EmployeeProfile
	created   []domain.EmployeeRequest
	gets      int
}

func (c *stubEmployeeClient) Create(_ context.Context, req domain.EmployeeRequest) error {
	if c.createErr != nil {
		return c.createErr
	}
	c.created = append(c.created, req)
	return nil
}

func (c *stubEmployeeClient) Get(_ context.Context, userID int64) (*domain.EmployeeProfile, error) {
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	if c.profile == nil {
		return nil, nil
	}
	p := *c.profile
	p.UserID = userID
	return &p, nil
}

type stubJournal struct {
	err     error
	records []domain.OrphanRecord
}

func (j *stubJournal) Record(_ context.Context, rec domain.OrphanRecord) error {
	if j.err != nil {
		return j.err
	}
	j.records = append(j.records, rec)
	return nil
}

func (j *stubJournal) Recent(_ context.Context, limit int64) ([]domain.OrphanRecord, error) {
	if int64(len(j.records)) < limit {
		return j.records, nil
	}
	return j.records[:limit], nil
}

// ---------------------------------------------------------------------------
// Hasher / issuer
// ---------------------------------------------------------------------------

type stubHasher struct {
	hashErr   error
	verifyErr error
}

func (h *stubHasher) Hash(string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed", nil
}

func (h *stubHasher) Verify(string, string) (bool, error) {
	if h.verifyErr != nil {
		return false, h.verifyErr
	}
	return true, nil
}

type stubIssuer struct {
	err error
}

func (i *stubIssuer) Issue(*domain.User, *domain.EmployeeProfile) (domain.SessionToken, error) {
	return domain.SessionToken{}, i.err
}
