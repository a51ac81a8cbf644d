package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/persistence"
	"github.com/spec-kit/servicedesk/internal/repository/gormstore"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

type fixture struct {
	ctx      context.Context
	services *Services
	admin    *domain.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store, err := persistence.NewSQLite(ctx, ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	enforcer, err := auth.NewEnforcer()
	require.NoError(t, err)

	cfg := &config.Config{Auth: config.AuthConfig{BcryptCost: bcrypt.MinCost}}
	services := New(gormstore.NewSet(store.DB), enforcer, cfg, zap.NewNop())
	services.Audit.RegisterHandlers()
	services.Notifications.RegisterHandlers()

	f := &fixture{ctx: ctx, services: services}
	admin := f.createUser(t, nil, "admin", "1111", domain.RoleAdmin)
	f.admin = identityOf(admin)
	return f
}

func (f *fixture) createUser(t *testing.T, actor *domain.Identity, username, secret string, role domain.Role) *domain.User {
	t.Helper()
	user, err := f.services.Users.CreateUser(f.ctx, actor, UserInput{
		FullName: "Full " + username,
		Username: username,
		Secret:   secret,
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func identityOf(user *domain.User) *domain.Identity {
	return &domain.Identity{UserID: user.ID, FullName: user.FullName, Username: user.Username, Role: user.Role}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	svc := f.services.Auth

	identity, err := svc.Authenticate(f.ctx, "admin", "1111")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, identity.Role)
	assert.Equal(t, f.admin.UserID, identity.UserID)

	for _, tc := range []struct{ username, secret string }{
		{"admin", "2222"},
		{"nobody", "1111"},
		{"Admin", "1111"},
		{"", ""},
	} {
		_, err := svc.Authenticate(f.ctx, tc.username, tc.secret)
		require.Error(t, err, "%s/%s", tc.username, tc.secret)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
		assert.Equal(t, invalidCredentials, apperrors.ToDomainError(err).Message)
	}

	actions, err := f.services.Audit.ListActions(f.ctx, f.admin, 10)
	require.NoError(t, err)
	var logins int
	for _, a := range actions {
		if a.Action == "user_logged_in" {
			logins++
			require.NotNil(t, a.UserID)
			assert.Equal(t, f.admin.UserID, *a.UserID)
		}
	}
	assert.Equal(t, 1, logins)
}

func TestCreateUser_StoresHashedSecret(t *testing.T) {
	f := newFixture(t)
	user, err := f.services.Users.GetUser(f.ctx, f.admin.UserID)
	require.NoError(t, err)
	assert.NotEqual(t, "1111", user.SecretHash)
	assert.NoError(t, auth.CompareSecret(user.SecretHash, "1111"))
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, f.admin, "carla", "pw", domain.RoleCommercial)

	_, err := f.services.Users.CreateUser(f.ctx, f.admin, UserInput{
		FullName: "Another Carla", Username: "carla", Secret: "pw2", Role: domain.RoleTechnician,
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Equal(t, "username already exists", apperrors.ToDomainError(err).Message)

	users, err := f.services.Users.ListUsers(f.ctx, nil)
	require.NoError(t, err)
	count := 0
	for _, u := range users {
		if u.Username == "carla" {
			count++
			assert.Equal(t, domain.RoleCommercial, u.Role)
		}
	}
	assert.Equal(t, 1, count)
}

func TestCreateUser_Validation(t *testing.T) {
	f := newFixture(t)
	cases := map[string]UserInput{
		"missing full name": {Username: "x", Secret: "s", Role: domain.RoleAdmin},
		"bad role":          {FullName: "X", Username: "x", Secret: "s", Role: "owner"},
		"bad email":         {FullName: "X", Username: "x", Secret: "s", Email: "not-an-email", Role: domain.RoleAdmin},
		"spaced username":   {FullName: "X", Username: "x y", Secret: "s", Role: domain.RoleAdmin},
		"missing secret":    {FullName: "X", Username: "x", Role: domain.RoleAdmin},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.services.Users.CreateUser(f.ctx, f.admin, input)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
		})
	}
}

func TestSecretLimitCountsBytes(t *testing.T) {
	f := newFixture(t)
	multiByte := strings.Repeat("ç", 40)
	require.Len(t, multiByte, 80)

	_, err := f.services.Users.CreateUser(f.ctx, f.admin, UserInput{
		FullName: "Cedric", Username: "cedric", Secret: multiByte, Role: domain.RoleTechnician,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)

	fits := strings.Repeat("ç", 36)
	user, err := f.services.Users.CreateUser(f.ctx, f.admin, UserInput{
		FullName: "Cedric", Username: "cedric", Secret: fits, Role: domain.RoleTechnician,
	})
	require.NoError(t, err)

	err = f.services.Users.ResetSecret(f.ctx, f.admin, user.ID, multiByte)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
}

func TestCreateUser_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	clerk := identityOf(f.createUser(t, f.admin, "carla", "pw", domain.RoleCommercial))

	_, err := f.services.Users.CreateUser(f.ctx, clerk, UserInput{FullName: "X", Username: "x", Secret: "s", Role: domain.RoleAdmin})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestListUsers_SortedByUsername(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"zoe", "bruno", "mika", "ana"} {
		f.createUser(t, f.admin, name, "pw", domain.RoleTechnician)
	}

	users, err := f.services.Users.ListUsers(f.ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, u := range users {
		names = append(names, u.Username)
	}
	assert.Equal(t, []string{"admin", "ana", "bruno", "mika", "zoe"}, names)

	role := domain.RoleTechnician
	techs, err := f.services.Users.ListUsers(f.ctx, &role)
	require.NoError(t, err)
	assert.Len(t, techs, 4)

	bad := domain.Role("owner")
	_, err = f.services.Users.ListUsers(f.ctx, &bad)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestUpdateUserAndResetSecret(t *testing.T) {
	f := newFixture(t)
	tech := f.createUser(t, f.admin, "tom", "old", domain.RoleTechnician)

	updated, err := f.services.Users.UpdateUser(f.ctx, f.admin, tech.ID, UserInput{
		FullName: "Tom Tinker", Email: "tom@example.com", Username: "tom", Role: domain.RoleCommercial,
	})
	require.NoError(t, err)
	assert.Equal(t, "Tom Tinker", updated.FullName)
	assert.Equal(t, domain.RoleCommercial, updated.Role)

	_, err = f.services.Auth.Authenticate(f.ctx, "tom", "old")
	require.NoError(t, err)

	require.NoError(t, f.services.Users.ResetSecret(f.ctx, f.admin, tech.ID, "new"))
	_, err = f.services.Auth.Authenticate(f.ctx, "tom", "old")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = f.services.Auth.Authenticate(f.ctx, "tom", "new")
	require.NoError(t, err)

	_, err = f.services.Users.UpdateUser(f.ctx, f.admin, 9999, UserInput{FullName: "X", Username: "ghost", Role: domain.RoleAdmin})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.services.Users.UpdateUser(f.ctx, f.admin, tech.ID, UserInput{FullName: "X", Username: "admin", Role: domain.RoleAdmin})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	clerk := f.createUser(t, f.admin, "carla", "pw", domain.RoleCommercial)
	tech := f.createUser(t, f.admin, "tom", "pw", domain.RoleTechnician)

	_, err := f.services.Tickets.CreateTicket(f.ctx, identityOf(clerk), TicketInput{ClientName: "Jane Doe"})
	require.NoError(t, err)

	err = f.services.Users.DeleteUser(f.ctx, f.admin, f.admin.UserID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	err = f.services.Users.DeleteUser(f.ctx, f.admin, clerk.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	require.NoError(t, f.services.Users.DeleteUser(f.ctx, f.admin, tech.ID))
	_, err = f.services.Users.GetUser(f.ctx, tech.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	err = f.services.Users.DeleteUser(f.ctx, f.admin, tech.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestLookupByFullName(t *testing.T) {
	f := newFixture(t)
	first, err := f.services.Users.CreateUser(f.ctx, f.admin, UserInput{FullName: "Sam Smith", Username: "sam1", Secret: "pw", Role: domain.RoleTechnician})
	require.NoError(t, err)
	_, err = f.services.Users.CreateUser(f.ctx, f.admin, UserInput{FullName: "Sam Smith", Username: "sam2", Secret: "pw", Role: domain.RoleTechnician})
	require.NoError(t, err)

	found, err := f.services.Users.LookupByFullName(f.ctx, "Sam Smith")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	_, err = f.services.Users.LookupByFullName(f.ctx, "Nobody")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestTicketAssignmentScenario(t *testing.T) {
	f := newFixture(t)
	clerk := identityOf(f.createUser(t, f.admin, "carla", "pw", domain.RoleCommercial))
	tech := identityOf(f.createUser(t, f.admin, "tom", "pw", domain.RoleTechnician))

	jane, err := f.services.Tickets.CreateTicket(f.ctx, f.admin, TicketInput{
		ClientName: "Jane Doe", ClientPhone: "555-0101", Equipment: "Laptop", ProblemReport: "Won't boot",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, jane.Status)
	assert.Equal(t, f.admin.UserID, jane.CreatedByID)
	assert.Nil(t, jane.ClosedAt)

	other, err := f.services.Tickets.CreateTicket(f.ctx, clerk, TicketInput{ClientName: "John Roe"})
	require.NoError(t, err)

	_, err = f.services.Assignments.AssignTechnician(f.ctx, clerk, jane.ID, tech.UserID)
	require.NoError(t, err)

	filtered, err := f.services.Tickets.ListTickets(f.ctx, f.admin, TicketListFilter{TechnicianID: tech.UserID})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Jane Doe", filtered[0].ClientName)

	// Technicians are scoped to their own tickets regardless of the filter.
	own, err := f.services.Tickets.ListTickets(f.ctx, tech, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, jane.ID, own[0].ID)

	all, err := f.services.Tickets.ListTickets(f.ctx, clerk, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, other.ID, all[0].ID)

	_, err = f.services.Assignments.AssignTechnician(f.ctx, clerk, jane.ID, tech.UserID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = f.services.Assignments.AssignTechnician(f.ctx, f.admin, jane.ID, clerk.UserID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.services.Assignments.AssignTechnician(f.ctx, f.admin, 9999, tech.UserID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.services.Assignments.AssignTechnician(f.ctx, tech, other.ID, tech.UserID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	techs, err := f.services.Assignments.ListTechnicians(f.ctx, f.admin, jane.ID)
	require.NoError(t, err)
	require.Len(t, techs, 1)
	assert.Equal(t, "tom", techs[0].Username)

	_, err = f.services.Tickets.GetTicket(f.ctx, tech, other.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	_, err = f.services.Tickets.UpdateTicket(f.ctx, tech, other.ID, TicketInput{ClientName: "John Roe", Status: domain.TicketStatusRepair})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	err = f.services.Tickets.DeleteTicket(f.ctx, tech, jane.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestUpdateTicket_StatusAndAudit(t *testing.T) {
	f := newFixture(t)
	tech := identityOf(f.createUser(t, f.admin, "tom", "pw", domain.RoleTechnician))

	ticket, err := f.services.Tickets.CreateTicket(f.ctx, f.admin, TicketInput{
		ClientName: "Jane Doe", Equipment: "Phone", ProblemReport: "Cracked screen",
	})
	require.NoError(t, err)
	_, err = f.services.Assignments.AssignTechnician(f.ctx, f.admin, ticket.ID, tech.UserID)
	require.NoError(t, err)

	delivered, err := f.services.Tickets.UpdateTicket(f.ctx, tech, ticket.ID, TicketInput{
		ClientName: "Jane Doe", Equipment: "Phone", ProblemReport: "Screen replaced", Status: domain.TicketStatusDelivered,
	})
	require.NoError(t, err)
	require.NotNil(t, delivered.ClosedAt)

	canceled, err := f.services.Tickets.UpdateTicket(f.ctx, f.admin, ticket.ID, TicketInput{
		ClientName: "Jane Doe", Equipment: "Phone", ProblemReport: "Screen replaced", Status: domain.TicketStatusCanceled,
	})
	require.NoError(t, err)
	require.NotNil(t, canceled.ClosedAt)
	assert.True(t, delivered.ClosedAt.Equal(*canceled.ClosedAt))

	reopened, err := f.services.Tickets.UpdateTicket(f.ctx, f.admin, ticket.ID, TicketInput{
		ClientName: "Jane Doe", Equipment: "Phone", ProblemReport: "Screen replaced", Status: domain.TicketStatusRepair,
	})
	require.NoError(t, err)
	assert.Nil(t, reopened.ClosedAt)

	stored, err := f.services.Tickets.GetTicket(f.ctx, f.admin, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusRepair, stored.Status)
	assert.Nil(t, stored.ClosedAt)

	_, err = f.services.Tickets.UpdateTicket(f.ctx, f.admin, ticket.ID, TicketInput{ClientName: "Jane Doe"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = f.services.Tickets.UpdateTicket(f.ctx, f.admin, ticket.ID, TicketInput{ClientName: "Jane Doe", Status: "lost"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	history, err := f.services.Audit.ListHistory(f.ctx, f.admin, ticket.ID)
	require.NoError(t, err)
	var statuses []domain.TicketStatus
	for _, h := range history {
		if h.Status != "" {
			statuses = append(statuses, h.Status)
		}
	}
	assert.Equal(t, []domain.TicketStatus{
		domain.TicketStatusOpen,
		domain.TicketStatusDelivered,
		domain.TicketStatusCanceled,
		domain.TicketStatusRepair,
	}, statuses)

	changes, err := f.services.Audit.ListChanges(f.ctx, f.admin, ticket.ID, 0)
	require.NoError(t, err)
	fields := map[string]int{}
	for _, c := range changes {
		fields[c.Field]++
	}
	assert.Equal(t, 3, fields["status"])
	assert.Equal(t, 1, fields["problem_report"])
	assert.Equal(t, 1, fields["ticket"])

	_, err = f.services.Audit.ListChanges(f.ctx, tech, ticket.ID, 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	require.NoError(t, f.services.Tickets.DeleteTicket(f.ctx, f.admin, ticket.ID))
	history, err = f.services.Audit.ListHistory(f.ctx, f.admin, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestListTickets_Filters(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"Jane Doe", "Janet Poe", "Bob Loe"} {
		_, err := f.services.Tickets.CreateTicket(f.ctx, f.admin, TicketInput{ClientName: name})
		require.NoError(t, err)
	}

	janes, err := f.services.Tickets.ListTickets(f.ctx, f.admin, TicketListFilter{ClientPrefix: "jan"})
	require.NoError(t, err)
	assert.Len(t, janes, 2)

	open := domain.TicketStatusOpen
	opened, err := f.services.Tickets.ListTickets(f.ctx, f.admin, TicketListFilter{Status: &open})
	require.NoError(t, err)
	assert.Len(t, opened, 3)

	bad := domain.TicketStatus("lost")
	_, err = f.services.Tickets.ListTickets(f.ctx, f.admin, TicketListFilter{Status: &bad})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}
