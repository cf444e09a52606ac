package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/workforce/login-service/internal/core/domain"
	"github.com/workforce/login-service/internal/core/ports"
	"github.com/workforce/login-service/internal/infrastructure/crypto"
	"github.com/workforce/login-service/internal/infrastructure/token"
)

var testNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

type fixture struct {
	users     *stubUserStore
	roles     *stubRoleStore
	audit     *stubAuditStore
	employees *stubEmployeeClient
	journal   *stubJournal
	issuer    *token.JWTIssuer
	svc       *UserService
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	issuer, err := token.NewJWTIssuer("secret", "login-service", "workforce",
		token.WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	f := &fixture{
		users:     newStubUserStore(),
		roles:     &stubRoleStore{},
		audit:     &stubAuditStore{},
		employees: &stubEmployeeClient{profile: &domain.EmployeeProfile{DepartmentID: 5, CompanyID: 9, IsApprover: true}},
		journal:   &stubJournal{},
		issuer:    issuer,
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	f.svc = NewUserService(Deps{
		Users:     f.users,
		Roles:     f.roles,
		AuditLogs: f.audit,
		Employees: f.employees,
		Hasher:    crypto.NewBcryptHasher(bcrypt.MinCost),
		Tokens:    issuer,
		Journal:   f.journal,
	}, opts, zerolog.Nop())
	return f
}

func validInput() ports.RegisterUserInput {
	return ports.RegisterUserInput{
		Email:        "a@x.com",
		Password:     "Secret123",
		RoleID:       domain.RoleUser,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		DepartmentID: 5,
		PositionID:   2,
		IsApprover:   true,
	}
}

func int64Ptr(v int64) *int64 { return &v }

// ---------------------------------------------------------------------------
// RegisterUser
// ---------------------------------------------------------------------------

func TestRegisterUser_Success(t *testing.T) {
	f := newFixture(t, Options{AuditStrict: true})

	in := validInput()
	in.SuperiorID = int64Ptr(3)
	if err := f.svc.RegisterUser(context.Background(), in); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	if len(f.users.byEmail) != 1 {
		t.Fatalf("expected exactly one user, got %d", len(f.users.byEmail))
	}
	u := f.users.byEmail["a@x.com"]
	if u == nil {
		t.Fatalf("user not stored")
	}
	if u.PasswordHash == "Secret123" {
		t.Fatalf("password stored in clear")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("Secret123")) != nil {
		t.Fatalf("stored hash does not match password")
	}
	if u.RoleID != domain.RoleUser {
		t.Fatalf("unexpected role id %d", u.RoleID)
	}

	if len(f.employees.created) != 1 {
		t.Fatalf("expected one employee create call, got %d", len(f.employees.created))
	}
	req := f.employees.created[0]
	if req.UserID != u.ID || req.FirstName != "Ada" || req.LastName != "Lovelace" ||
		req.DepartmentID != 5 || req.PositionID != 2 || !req.IsApprover ||
		req.SuperiorID == nil || *req.SuperiorID != 3 {
		t.Fatalf("unexpected employee request: %+v", req)
	}
	if f.users.deletes != 0 {
		t.Fatalf("no compensation expected")
	}
}

func TestRegisterUser_NormalizesEmail(t *testing.T) {
	f := newFixture(t, Options{})

	in := validInput()
	in.Email = "  A@X.com "
	if err := f.svc.RegisterUser(context.Background(), in); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if _, ok := f.users.byEmail["a@x.com"]; !ok {
		t.Fatalf("expected normalized email to be stored")
	}

	in.Email = "a@X.COM"
	if err := f.svc.RegisterUser(context.Background(), in); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for case-variant email, got %v", err)
	}
}

func TestRegisterUser_EmployeeFailureCompensates(t *testing.T) {
	f := newFixture(t, Options{})
	remoteErr := errors.New("employee service unavailable")
	f.employees.createErr = remoteErr

	err := f.svc.RegisterUser(context.Background(), validInput())
	if !errors.Is(err, domain.ErrDependency) {
		t.Fatalf("expected ErrDependency, got %v", err)
	}
	if !errors.Is(err, remoteErr) {
		t.Fatalf("expected the remote cause to be wrapped, got %v", err)
	}

	if _, err := f.users.FindByEmail(context.Background(), "a@x.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("user row must be gone after compensation, got %v", err)
	}
	if f.users.deletes != 1 {
		t.Fatalf("compensation must run exactly once, ran %d times", f.users.deletes)
	}
	if len(f.journal.records) != 0 {
		t.Fatalf("successful compensation must not be journaled")
	}
}

func TestRegisterUser_CompensationFailureKeepsDependencyError(t *testing.T) {
	f := newFixture(t, Options{})
	remoteErr := errors.New("timeout")
	f.employees.createErr = remoteErr
	f.users.deleteErr = errors.New("store offline")

	err := f.svc.RegisterUser(context.Background(), validInput())
	if !errors.Is(err, domain.ErrDependency) || !errors.Is(err, remoteErr) {
		t.Fatalf("expected original dependency error, got %v", err)
	}
	if errors.Is(err, f.users.deleteErr) {
		t.Fatalf("compensation error must not mask the dependency error")
	}
	if f.users.deletes != 1 {
		t.Fatalf("compensation must be attempted exactly once, got %d", f.users.deletes)
	}

	if len(f.journal.records) != 1 {
		t.Fatalf("expected one orphan record, got %d", len(f.journal.records))
	}
	rec := f.journal.records[0]
	if rec.Email != "a@x.com" || rec.Step != stepInsertUser || rec.UserID == 0 || !rec.OccurredAt.Equal(testNow) {
		t.Fatalf("unexpected orphan record: %+v", rec)
	}
}

func TestRegisterUser_CompensationFailureWithoutJournal(t *testing.T) {
	f := newFixture(t, Options{})
	f.svc.deps.Journal = nil
	f.employees.createErr = errors.New("boom")
	f.users.deleteErr = errors.New("store offline")

	if err := f.svc.RegisterUser(context.Background(), validInput()); !errors.Is(err, domain.ErrDependency) {
		t.Fatalf("expected ErrDependency, got %v", err)
	}
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	f := newFixture(t, Options{})

	if err := f.svc.RegisterUser(context.Background(), validInput()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := f.svc.RegisterUser(context.Background(), validInput())
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if domain.Message(err) != "email already registered" {
		t.Fatalf("unexpected message %q", domain.Message(err))
	}
	if f.users.inserts != 1 || len(f.users.byEmail) != 1 {
		t.Fatalf("second call must not insert a row")
	}
}

func TestRegisterUser_StoreRejectsDuplicateRace(t *testing.T) {
	f := newFixture(t, Options{})
	f.users.insertErr = domain.ErrUserExists

	err := f.svc.RegisterUser(context.Background(), validInput())
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict from the store's unique index, got %v", err)
	}
	if len(f.employees.created) != 0 || f.users.deletes != 0 {
		t.Fatalf("nothing should run after a failed insert")
	}
}

func TestRegisterUser_InvalidRole(t *testing.T) {
	f := newFixture(t, Options{})

	in := validInput()
	in.RoleID = 99
	err := f.svc.RegisterUser(context.Background(), in)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if domain.Message(err) != "invalid role" {
		t.Fatalf("unexpected message %q", domain.Message(err))
	}
	if f.users.inserts != 0 {
		t.Fatalf("no row may be inserted for an invalid role")
	}
}

func TestRegisterUser_InvalidSuperior(t *testing.T) {
	for _, id := range []int64{0, -1, -50} {
		f := newFixture(t, Options{})
		in := validInput()
		in.SuperiorID = int64Ptr(id)

		if err := f.svc.RegisterUser(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("superior %d: expected ErrValidation, got %v", id, err)
		}
		if f.users.inserts != 0 {
			t.Fatalf("superior %d: no row may be inserted", id)
		}
	}
}

func TestRegisterUser_ValidationOrder(t *testing.T) {
	f := newFixture(t, Options{})
	if err := f.svc.RegisterUser(context.Background(), validInput()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Bad superior wins over duplicate email and bad role.
	in := validInput()
	in.SuperiorID = int64Ptr(0)
	in.RoleID = 99
	if err := f.svc.RegisterUser(context.Background(), in); domain.Message(err) != "invalid superior id format" {
		t.Fatalf("expected superior validation first, got %v", err)
	}

	// Duplicate email wins over bad role.
	in.SuperiorID = nil
	if err := f.svc.RegisterUser(context.Background(), in); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict before role check, got %v", err)
	}
}

func TestRegisterUser_InsertFailures(t *testing.T) {
	t.Run("store error", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.users.insertErr = errors.New("disk full")

		if err := f.svc.RegisterUser(context.Background(), validInput()); !errors.Is(err, domain.ErrPersistence) {
			t.Fatalf("expected ErrPersistence, got %v", err)
		}
		if len(f.employees.created) != 0 || f.users.deletes != 0 {
			t.Fatalf("no further steps expected")
		}
	})

	t.Run("zero rows", func(t *testing.T) {
		f := newFixture(t, Options{})
		zero := int64(0)
		f.users.insertN = &zero

		if err := f.svc.RegisterUser(context.Background(), validInput()); !errors.Is(err, domain.ErrPersistence) {
			t.Fatalf("expected ErrPersistence, got %v", err)
		}
		if len(f.employees.created) != 0 {
			t.Fatalf("employee must not be created")
		}
	})
}

func TestRegisterUser_LookupAndRoleErrors(t *testing.T) {
	f := newFixture(t, Options{})
	f.users.findErr = errors.New("connection reset")
	if err := f.svc.RegisterUser(context.Background(), validInput()); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	f = newFixture(t, Options{})
	f.roles.err = errors.New("connection reset")
	if err := f.svc.RegisterUser(context.Background(), validInput()); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func registered(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := newFixture(t, opts)
	if err := f.svc.RegisterUser(context.Background(), validInput()); err != nil {
		t.Fatalf("register: %v", err)
	}
	return f
}

func TestLogin_Success(t *testing.T) {
	f := registered(t, Options{AuditStrict: true})

	tok, err := f.svc.Login(context.Background(), "A@x.com", "Secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if want := testNow.Add(60 * time.Minute); !tok.Expiration.Equal(want) {
		t.Fatalf("expiration = %v, want %v", tok.Expiration, want)
	}

	claims, err := f.issuer.Verify(tok.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	u := f.users.byEmail["a@x.com"]
	if claims.UserID != "1" || u.ID != 1 {
		t.Fatalf("unexpected id claim %q", claims.UserID)
	}
	if claims.Email != "a@x.com" || claims.Role != "User" ||
		claims.Department != "5" || claims.Company != "9" || claims.IsApprover != "true" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if len(f.audit.inserted) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(f.audit.inserted))
	}
	if e := f.audit.inserted[0]; e.UserID != u.ID || !e.Date.Equal(testNow) {
		t.Fatalf("unexpected audit entry: %+v", e)
	}
}

func TestLogin_EnumerationResistance(t *testing.T) {
	f := registered(t, Options{})

	_, unknownErr := f.svc.Login(context.Background(), "ghost@x.com", "Secret123")
	_, wrongPwErr := f.svc.Login(context.Background(), "a@x.com", "wrong")

	if !errors.Is(unknownErr, domain.ErrAuthentication) {
		t.Fatalf("unknown email: expected ErrAuthentication, got %v", unknownErr)
	}
	if !errors.Is(wrongPwErr, domain.ErrAuthentication) {
		t.Fatalf("wrong password: expected ErrAuthentication, got %v", wrongPwErr)
	}
	if domain.KindOf(unknownErr) != domain.KindOf(wrongPwErr) {
		t.Fatalf("both failures must share one kind")
	}
	if f.employees.gets != 0 || len(f.audit.inserted) != 0 {
		t.Fatalf("nothing should run after failed authentication")
	}
}

func TestLogin_MalformedStoredHash(t *testing.T) {
	f := registered(t, Options{})
	f.users.byEmail["a@x.com"].PasswordHash = "garbage"

	if _, err := f.svc.Login(context.Background(), "a@x.com", "Secret123"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestLogin_EmployeeFetchFailsFast(t *testing.T) {
	f := registered(t, Options{AuditStrict: true})
	f.employees.getErr = errors.New("502 bad gateway")

	_, err := f.svc.Login(context.Background(), "a@x.com", "Secret123")
	if !errors.Is(err, domain.ErrDependency) || !errors.Is(err, f.employees.getErr) {
		t.Fatalf("expected dependency error wrapping the cause, got %v", err)
	}
	if len(f.audit.inserted) != 0 {
		t.Fatalf("audit must not run after a failed employee fetch")
	}
}

func TestLogin_EmployeeMissing(t *testing.T) {
	f := registered(t, Options{})
	f.employees.profile = nil

	if _, err := f.svc.Login(context.Background(), "a@x.com", "Secret123"); !errors.Is(err, domain.ErrDependency) {
		t.Fatalf("expected ErrDependency, got %v", err)
	}
}

func TestLogin_AuditFailure(t *testing.T) {
	t.Run("strict", func(t *testing.T) {
		f := registered(t, Options{AuditStrict: true})
		f.audit.err = errors.New("insert failed")

		tok, err := f.svc.Login(context.Background(), "a@x.com", "Secret123")
		if !errors.Is(err, domain.ErrDependency) {
			t.Fatalf("expected ErrDependency, got %v", err)
		}
		if tok.Token != "" {
			t.Fatalf("no token may be issued")
		}
	})

	t.Run("lenient", func(t *testing.T) {
		f := registered(t, Options{AuditStrict: false})
		f.audit.err = errors.New("insert failed")

		tok, err := f.svc.Login(context.Background(), "a@x.com", "Secret123")
		if err != nil {
			t.Fatalf("expected login to continue, got %v", err)
		}
		if tok.Token == "" {
			t.Fatalf("expected a token")
		}
	})
}

func TestLogin_StoreError(t *testing.T) {
	f := registered(t, Options{})
	f.users.findErr = errors.New("connection reset")

	if _, err := f.svc.Login(context.Background(), "a@x.com", "Secret123"); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// GetAllUsers
// ---------------------------------------------------------------------------

func TestGetAllUsers(t *testing.T) {
	f := registered(t, Options{})
	in := validInput()
	in.Email = "b@x.com"
	in.RoleID = domain.RoleAdmin
	if err := f.svc.RegisterUser(context.Background(), in); err != nil {
		t.Fatalf("register b: %v", err)
	}

	users, err := f.svc.GetAllUsers(context.Background())
	if err != nil {
		t.Fatalf("GetAllUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].Email != "a@x.com" || users[0].Role != "User" {
		t.Fatalf("unexpected first user: %+v", users[0])
	}
	if users[1].Email != "b@x.com" || users[1].Role != "Admin" {
		t.Fatalf("unexpected second user: %+v", users[1])
	}
}

func TestGetAllUsers_StoreError(t *testing.T) {
	f := newFixture(t, Options{})
	f.users.listErr = errors.New("boom")

	if _, err := f.svc.GetAllUsers(context.Background()); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestRegisterUser_HasherFailureIsTyped(t *testing.T) {
	f := newFixture(t, Options{})
	f.svc.deps.Hasher = &stubHasher{hashErr: errors.New("entropy source unavailable")}

	err := f.svc.RegisterUser(context.Background(), validInput())
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if f.users.inserts != 0 {
		t.Fatalf("no insert expected after a hashing failure")
	}
}

func TestRegisterUser_HasherValidationPassesThrough(t *testing.T) {
	f := newFixture(t, Options{})
	f.svc.deps.Hasher = &stubHasher{hashErr: domain.Validation("password exceeds 72 bytes")}

	err := f.svc.RegisterUser(context.Background(), validInput())
	if !errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrValidation only, got %v", err)
	}
}

func TestLogin_CollaboratorFailuresAreTyped(t *testing.T) {
	cases := map[string]struct {
		hasher ports.PasswordHasher
		issuer ports.TokenIssuer
	}{
		"verify": {hasher: &stubHasher{verifyErr: errors.New("boom")}},
		"issue":  {hasher: &stubHasher{}, issuer: &stubIssuer{err: errors.New("boom")}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, Options{AuditStrict: true})
			if err := f.svc.RegisterUser(context.Background(), validInput()); err != nil {
				t.Fatalf("register: %v", err)
			}
			f.svc.deps.Hasher = tc.hasher
			if tc.issuer != nil {
				f.svc.deps.Tokens = tc.issuer
			}

			_, err := f.svc.Login(context.Background(), "a@x.com", "Secret123")
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}
