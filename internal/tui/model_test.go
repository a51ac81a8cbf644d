package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/navigation"
	"github.com/spec-kit/servicedesk/internal/persistence"
	"github.com/spec-kit/servicedesk/internal/repository/gormstore"
	"github.com/spec-kit/servicedesk/internal/service"
	"github.com/spec-kit/servicedesk/internal/session"
)

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	tabKey   = tea.KeyMsg{Type: tea.KeyTab}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
	downKey  = tea.KeyMsg{Type: tea.KeyDown}
)

func runes(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	ctx := context.Background()
	store, err := persistence.NewSQLite(ctx, ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	enforcer, err := auth.NewEnforcer()
	require.NoError(t, err)
	cfg := &config.Config{Auth: config.AuthConfig{BcryptCost: bcrypt.MinCost}}
	services := service.New(gormstore.NewSet(store.DB), enforcer, cfg, zap.NewNop())
	services.Audit.RegisterHandlers()

	for _, u := range []struct {
		username string
		role     domain.Role
	}{
		{"admin", domain.RoleAdmin},
		{"carla", domain.RoleCommercial},
		{"tom", domain.RoleTechnician},
		{"tina", domain.RoleTechnician},
	} {
		_, err := services.Users.CreateUser(ctx, nil, service.UserInput{
			FullName: "Full " + u.username, Username: u.username, Secret: "1111", Role: u.role,
		})
		require.NoError(t, err)
	}
	return NewModel(ctx, session.New(services, zap.NewNop()), zap.NewNop())
}

func send(t *testing.T, model Model, messages ...tea.Msg) Model {
	t.Helper()
	for _, message := range messages {
		updated, _ := model.Update(message)
		next, ok := updated.(Model)
		require.True(t, ok)
		model = next
	}
	return model
}

func loginAs(t *testing.T, model Model, username string) Model {
	t.Helper()
	model = send(t, model, runes(username), tabKey, runes("1111"), enterKey)
	require.Equal(t, ModeBrowse, model.Mode(), model.View())
	return model
}

func TestLoginRoutesByRole(t *testing.T) {
	cases := map[string]navigation.Screen{
		"admin": navigation.ScreenAdminMenu,
		"carla": navigation.ScreenServices,
		"tom":   navigation.ScreenTechnicianServices,
	}
	for username, screen := range cases {
		t.Run(username, func(t *testing.T) {
			model := loginAs(t, newTestModel(t), username)
			assert.Equal(t, screen, model.Screen())
		})
	}
}

func TestLoginFailureStaysOnLogin(t *testing.T) {
	model := newTestModel(t)
	model = send(t, model, runes("admin"), tabKey, runes("nope"), enterKey)

	assert.Equal(t, navigation.ScreenLogin, model.Screen())
	assert.Equal(t, ModeForm, model.Mode())
	assert.Contains(t, model.View(), invalidLoginMessage)
	assert.Empty(t, model.form.raw("secret"))
}

func TestQuit(t *testing.T) {
	model := loginAs(t, newTestModel(t), "admin")

	_, command := model.Update(runes("q"))
	require.NotNil(t, command)
	_, isQuit := command().(tea.QuitMsg)
	assert.True(t, isQuit)
}

func TestAdminManagesUsers(t *testing.T) {
	model := loginAs(t, newTestModel(t), "admin")

	model = send(t, model, enterKey)
	require.Equal(t, navigation.ScreenUsers, model.Screen())
	require.Len(t, model.users, 4)
	assert.Equal(t, "admin", model.users[0].Username)
	assert.Contains(t, model.View(), "carla")

	model = send(t, model, runes("a"), runes("Dana Smith"), tabKey, tabKey, runes("dana"), tabKey, runes("pw"), enterKey)
	require.Equal(t, ModeBrowse, model.Mode(), model.View())
	assert.Len(t, model.users, 5)

	model = send(t, model, runes("a"), runes("Other"), tabKey, tabKey, runes("carla"), tabKey, runes("pw"), enterKey)
	require.Equal(t, ModeDialog, model.Mode())
	assert.Contains(t, model.View(), failureMessage)
	model = send(t, model, enterKey)
	assert.Equal(t, ModeBrowse, model.Mode())
	assert.Len(t, model.users, 5)

	model = send(t, model, escKey)
	assert.Equal(t, navigation.ScreenAdminMenu, model.Screen())
	model = send(t, model, escKey)
	assert.Equal(t, navigation.ScreenAdminMenu, model.Screen())
}

func TestCommercialCreatesAndAssigns(t *testing.T) {
	model := loginAs(t, newTestModel(t), "carla")

	model = send(t, model, runes("a"), runes("Jane Doe"), tabKey, tabKey, tabKey, runes("Laptop"), enterKey)
	require.Equal(t, ModeBrowse, model.Mode(), model.View())
	require.Len(t, model.tickets, 1)
	assert.Equal(t, domain.TicketStatusOpen, model.tickets[0].Status)

	model = send(t, model, runes("t"))
	require.Equal(t, ModePicker, model.Mode())
	require.Len(t, model.technicians, 2)
	assert.Equal(t, "tina", model.technicians[0].Username)

	model = send(t, model, enterKey)
	assert.Equal(t, ModeBrowse, model.Mode())

	model = send(t, model, runes("t"), enterKey)
	assert.Equal(t, ModeDialog, model.Mode())
	model = send(t, model, escKey)

	model = send(t, model, runes("d"))
	assert.Equal(t, ModeBrowse, model.Mode())

	model = send(t, model, escKey)
	assert.Equal(t, navigation.ScreenServices, model.Screen())

	model = send(t, model, runes("x"))
	require.Equal(t, navigation.ScreenLogin, model.Screen())

	model = loginAs(t, model, "tom")
	assert.Empty(t, model.tickets)

	model = send(t, model, runes("x"))
	model = loginAs(t, model, "tina")
	require.Len(t, model.tickets, 1)
	assert.Equal(t, "Jane Doe", model.tickets[0].ClientName)
}

func TestServicesFilters(t *testing.T) {
	model := loginAs(t, newTestModel(t), "carla")
	for _, client := range []string{"Jane Doe", "John Roe"} {
		model = send(t, model, runes("a"), runes(client), enterKey)
	}
	require.Len(t, model.tickets, 2)

	model = send(t, model, runes("/"), runes("ja"), enterKey)
	require.Len(t, model.tickets, 1)
	assert.Equal(t, "Jane Doe", model.tickets[0].ClientName)

	model = send(t, model, runes("s"))
	require.NotNil(t, model.currentStatusFilter())
	assert.Equal(t, domain.TicketStatusOpen, *model.currentStatusFilter())
	assert.Len(t, model.tickets, 1)

	model = send(t, model, runes("s"))
	assert.Empty(t, model.tickets)
}

func TestHistoryShowsChanges(t *testing.T) {
	model := loginAs(t, newTestModel(t), "admin")

	model = send(t, model, downKey, enterKey)
	require.Equal(t, navigation.ScreenServices, model.Screen())
	model = send(t, model, runes("a"), runes("Jane Doe"), enterKey)
	require.Len(t, model.tickets, 1)

	model = send(t, model, runes("e"), tabKey, tabKey, tabKey, tabKey, tabKey)
	model.form.set("status", string(domain.TicketStatusRepair))
	model = send(t, model, enterKey)
	require.Equal(t, domain.TicketStatusRepair, model.tickets[0].Status)

	model = send(t, model, escKey, downKey, downKey, enterKey)
	require.Equal(t, navigation.ScreenHistory, model.Screen())
	require.Len(t, model.tickets, 1)
	assert.NotEmpty(t, model.changes)
	assert.Contains(t, model.View(), "status")
}

func TestFiltersResetWhenScreenChanges(t *testing.T) {
	model := loginAs(t, newTestModel(t), "admin")

	model = send(t, model, downKey, enterKey)
	require.Equal(t, navigation.ScreenServices, model.Screen())
	for _, client := range []string{"Jane Doe", "John Roe"} {
		model = send(t, model, runes("a"), runes(client), enterKey)
	}
	model = send(t, model, runes("/"), runes("ja"), enterKey, runes("s"))
	require.Len(t, model.tickets, 1)
	require.NotNil(t, model.currentStatusFilter())

	model = send(t, model, escKey)
	require.Equal(t, navigation.ScreenAdminMenu, model.Screen())
	assert.Empty(t, model.filter.Value())
	assert.Nil(t, model.currentStatusFilter())

	model = send(t, model, downKey, downKey, enterKey)
	require.Equal(t, navigation.ScreenHistory, model.Screen())
	assert.Len(t, model.tickets, 2)
}
