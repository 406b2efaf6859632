package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicgrid/grievance-api/internal/models"
	appErrors "github.com/civicgrid/grievance-api/pkg/errors"
)

type mockUserRepo struct {
	users      map[string]*models.User
	emailTaken bool
	deleted    []string
	auditLogs  []*models.AuditLog
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*models.User{}}
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserRepo) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.Role == role && u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return m.emailTaken, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	if u, ok := m.users[id]; ok {
		u.Role = role
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	if u, ok := m.users[id]; ok {
		u.Active = false
	}
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func TestUserCreateHashesPassword(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "Officer@Example.com",
		FullName: "Jordan Lee",
		Role:     models.RoleOfficer,
		Active:   true,
		Password: "secret123",
	}, "admin-1", models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, "officer@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
	assert.NotEmpty(t, repo.auditLogs)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	repo.emailTaken = true
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "dup@example.com", FullName: "Dup", Role: models.RoleCitizen, Password: "secret123",
	}, "admin-1", models.LoginRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrEmailTaken))
}

func TestUserCreateRejectsUnknownRole(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "x@example.com", FullName: "X", Role: "SUPERVISOR", Password: "secret123",
	}, "admin-1", models.LoginRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestUserSetRole(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", Email: "c@example.com", Role: models.RoleCitizen, Active: true}
	svc := NewUserService(repo, nil, nil)

	user, err := svc.SetRole(context.Background(), "u1", SetRoleRequest{Role: models.RoleOfficer}, "admin-1", models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.RoleOfficer, user.Role)
	assert.Equal(t, models.RoleOfficer, repo.users["u1"].Role)
}

func TestUserSetRoleNotFound(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), nil, nil)

	_, err := svc.SetRole(context.Background(), "ghost", SetRoleRequest{Role: models.RoleOfficer}, "admin-1", models.LoginRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestUserDeleteIsSoft(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", Email: "c@example.com", Role: models.RoleCitizen, Active: true}
	svc := NewUserService(repo, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "u1", "admin-1", models.LoginRequest{}))
	assert.Contains(t, repo.deleted, "u1")
	assert.False(t, repo.users["u1"].Active)
}

func TestOfficersRosterFiltersInactive(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["o1"] = &models.User{ID: "o1", Role: models.RoleOfficer, Active: true}
	repo.users["o2"] = &models.User{ID: "o2", Role: models.RoleOfficer, Active: false}
	repo.users["c1"] = &models.User{ID: "c1", Role: models.RoleCitizen, Active: true}
	svc := NewUserService(repo, nil, nil)

	officers, err := svc.Officers(context.Background())
	require.NoError(t, err)
	require.Len(t, officers, 1)
	assert.Equal(t, "o1", officers[0].ID)
}
