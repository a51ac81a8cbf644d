// Package tui is the terminal desk: a bubbletea program that renders the
// desk screens over a session.Context.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/navigation"
	"github.com/spec-kit/servicedesk/internal/service"
	"github.com/spec-kit/servicedesk/internal/session"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// Mode says where key presses go.
type Mode int

const (
	// ModeBrowse routes keys to the current screen.
	ModeBrowse Mode = iota
	// ModeForm routes keys to the open form.
	ModeForm
	// ModeFilter routes keys to the client name filter input.
	ModeFilter
	// ModePicker routes keys to the technician picker.
	ModePicker
	// ModeConfirm waits for a yes/no on a delete.
	ModeConfirm
	// ModeDialog shows the failure dialog until dismissed.
	ModeDialog
)

const (
	failureMessage      = "Operation failed"
	invalidLoginMessage = "Invalid credentials"
)

type menuItem struct {
	label  string
	screen navigation.Screen
}

var adminMenu = []menuItem{
	{label: "Users", screen: navigation.ScreenUsers},
	{label: "Services", screen: navigation.ScreenServices},
	{label: "History", screen: navigation.ScreenHistory},
	{label: "Log out"},
}

type pendingDelete struct {
	user   bool
	id     int64
	label  string
	screen navigation.Screen
}

// Model is the top-level bubbletea model for the desk.
type Model struct {
	ctx     context.Context
	session *session.Context
	logger  *zap.Logger
	keys    KeyMap
	theme   Theme

	width  int
	height int

	mode       Mode
	form       *form
	loginError string
	dialog     string
	pending    pendingDelete

	cursor       int
	users        []domain.User
	tickets      []domain.Ticket
	changes      []domain.ChangeLogEntry
	filter       textinput.Model
	statusFilter int

	technicians  []domain.User
	pickerCursor int
	pickerTicket int64
}

// NewModel returns a desk model on the login screen. ctx bounds every
// storage call made from the update loop.
func NewModel(ctx context.Context, sess *session.Context, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	filter := textinput.New()
	filter.Prompt = ""
	filter.Placeholder = "client name"
	filter.CharLimit = 120

	model := Model{
		ctx:     ctx,
		session: sess,
		logger:  logger,
		keys:    DefaultKeyMap,
		theme:   DefaultTheme,
		filter:  filter,
	}
	model.openLoginForm()
	return model
}

// Run starts the desk on the terminal and blocks until the user quits.
func Run(ctx context.Context, sess *session.Context, logger *zap.Logger) error {
	program := tea.NewProgram(NewModel(ctx, sess, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Screen returns the screen currently shown.
func (model Model) Screen() navigation.Screen {
	return model.session.Navigator.Current()
}

// Mode returns where key presses currently go.
func (model Model) Mode() Mode {
	return model.mode
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		return model, nil
	case tea.KeyMsg:
		if message.String() == "ctrl+c" {
			return model, tea.Quit
		}
		switch model.mode {
		case ModeDialog:
			return model.handleDialogKeys(message)
		case ModeConfirm:
			return model.handleConfirmKeys(message)
		case ModePicker:
			return model.handlePickerKeys(message)
		case ModeFilter:
			return model.handleFilterKeys(message)
		case ModeForm:
			return model.handleFormKeys(message)
		}
		return model.handleBrowseKeys(message)
	}

	if model.mode == ModeForm && model.form != nil {
		var command tea.Cmd
		field := &model.form.fields[model.form.focus]
		field.input, command = field.input.Update(message)
		return model, command
	}
	return model, nil
}

func (model *Model) identity() *domain.Identity {
	return model.session.Identity()
}

// fail shows the generic failure dialog. Missing rows are skipped silently.
func (model *Model) fail(operation string, err error) {
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		model.logger.Debug("desk target vanished", zap.String("operation", operation), zap.Error(err))
		model.mode = ModeBrowse
		return
	}
	model.logger.Warn("desk operation failed", zap.String("operation", operation), zap.Error(err))
	model.dialog = failureMessage
	model.mode = ModeDialog
}

func (model *Model) openLoginForm() {
	model.form = newForm(formLogin, "Sign in", 0,
		fieldSpec{name: "username", label: "Username"},
		fieldSpec{name: "secret", label: "Secret", secret: true},
	)
	model.mode = ModeForm
}

func (model Model) handleDialogKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(message, model.keys.Select) || key.Matches(message, model.keys.Cancel) {
		model.dialog = ""
		model.mode = ModeBrowse
		model.reload()
	}
	return model, nil
}

func (model Model) handleConfirmKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(message, model.keys.Confirm) {
		model.pending = pendingDelete{}
		model.mode = ModeBrowse
		return model, nil
	}

	pending := model.pending
	model.pending = pendingDelete{}
	model.mode = ModeBrowse

	var err error
	if pending.user {
		err = model.session.Services.Users.DeleteUser(model.ctx, model.identity(), pending.id)
	} else {
		err = model.session.Services.Tickets.DeleteTicket(model.ctx, model.identity(), pending.id)
	}
	if err != nil {
		model.fail("delete", err)
		return model, nil
	}
	model.reload()
	return model, nil
}

func (model Model) handlePickerKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Cancel):
		model.mode = ModeBrowse
	case key.Matches(message, model.keys.Up):
		if model.pickerCursor > 0 {
			model.pickerCursor--
		}
	case key.Matches(message, model.keys.Down):
		if model.pickerCursor < len(model.technicians)-1 {
			model.pickerCursor++
		}
	case key.Matches(message, model.keys.Select):
		model.mode = ModeBrowse
		if model.pickerCursor >= len(model.technicians) {
			return model, nil
		}
		technician := model.technicians[model.pickerCursor]
		_, err := model.session.Services.Assignments.AssignTechnician(model.ctx, model.identity(), model.pickerTicket, technician.ID)
		if err != nil {
			model.fail("assign technician", err)
			return model, nil
		}
		model.reload()
	}
	return model, nil
}

func (model Model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(message, model.keys.Select) || key.Matches(message, model.keys.Cancel) {
		model.filter.Blur()
		model.mode = ModeBrowse
		return model, nil
	}
	var command tea.Cmd
	model.filter, command = model.filter.Update(message)
	model.cursor = 0
	model.reload()
	return model, command
}

func (model Model) handleFormKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Submit):
		return model.submitForm()
	case key.Matches(message, model.keys.Cancel):
		if model.form.kind == formLogin {
			return model, nil
		}
		model.form = nil
		model.mode = ModeBrowse
		return model, nil
	}
	return model, model.form.update(model.keys, message)
}

func (model Model) handleBrowseKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit
	case key.Matches(message, model.keys.Logout):
		model.logout()
		return model, nil
	case key.Matches(message, model.keys.Back):
		if model.session.Back() {
			model.enterScreen()
		}
		return model, nil
	case key.Matches(message, model.keys.Up):
		if model.cursor > 0 {
			model.cursor--
			model.cursorMoved()
		}
		return model, nil
	case key.Matches(message, model.keys.Down):
		if model.cursor < model.rowCount()-1 {
			model.cursor++
			model.cursorMoved()
		}
		return model, nil
	}

	switch model.Screen() {
	case navigation.ScreenAdminMenu:
		return model.handleMenuKeys(message)
	case navigation.ScreenUsers:
		return model.handleUsersKeys(message)
	case navigation.ScreenServices, navigation.ScreenTechnicianServices:
		return model.handleTicketKeys(message)
	case navigation.ScreenHistory:
		return model.handleHistoryKeys(message)
	}
	return model, nil
}

func (model *Model) logout() {
	model.session.Logout()
	model.resetLists()
	model.openLoginForm()
}

// enterScreen starts the new current screen with an empty selection and no
// filters, then loads its rows.
func (model *Model) enterScreen() {
	model.resetLists()
	model.reload()
}

func (model *Model) resetLists() {
	model.cursor = 0
	model.users = nil
	model.tickets = nil
	model.changes = nil
	model.technicians = nil
	model.statusFilter = 0
	model.filter.SetValue("")
}

func (model Model) submitForm() (tea.Model, tea.Cmd) {
	f := model.form
	ctx := model.ctx
	services := model.session.Services
	var err error

	switch f.kind {
	case formLogin:
		if _, err := model.session.Login(ctx, f.value("username"), f.raw("secret")); err != nil {
			model.loginError = invalidLoginMessage
			f.set("secret", "")
			return model, nil
		}
		model.loginError = ""
		model.form = nil
		model.mode = ModeBrowse
		model.resetLists()
		model.reload()
		return model, nil
	case formAddUser:
		_, err = services.Users.CreateUser(ctx, model.identity(), userInputFrom(f))
	case formEditUser:
		_, err = services.Users.UpdateUser(ctx, model.identity(), f.targetID, userInputFrom(f))
		if secret := f.raw("secret"); err == nil && secret != "" {
			err = services.Users.ResetSecret(ctx, model.identity(), f.targetID, secret)
		}
	case formAddTicket:
		_, err = services.Tickets.CreateTicket(ctx, model.identity(), ticketInputFrom(f))
	case formEditTicket:
		_, err = services.Tickets.UpdateTicket(ctx, model.identity(), f.targetID, ticketInputFrom(f))
	}

	model.form = nil
	model.mode = ModeBrowse
	if err != nil {
		model.fail("save", err)
		return model, nil
	}
	model.reload()
	return model, nil
}

func userInputFrom(f *form) service.UserInput {
	return service.UserInput{
		FullName: f.value("full_name"),
		Email:    f.value("email"),
		Username: f.value("username"),
		Secret:   f.raw("secret"),
		Role:     domain.Role(f.value("role")),
	}
}

func ticketInputFrom(f *form) service.TicketInput {
	return service.TicketInput{
		ClientName:    f.value("client_name"),
		ClientPhone:   f.value("client_phone"),
		ClientEmail:   f.value("client_email"),
		Equipment:     f.value("equipment"),
		ProblemReport: f.value("problem_report"),
		Status:        domain.TicketStatus(f.value("status")),
	}
}

// reload refreshes the rows behind the current screen.
func (model *Model) reload() {
	identity := model.identity()
	if identity == nil {
		return
	}
	services := model.session.Services

	switch model.Screen() {
	case navigation.ScreenUsers:
		users, err := services.Users.ListUsers(model.ctx, nil)
		if err != nil {
			model.fail("list users", err)
			return
		}
		model.users = users
	case navigation.ScreenServices, navigation.ScreenTechnicianServices, navigation.ScreenHistory:
		tickets, err := services.Tickets.ListTickets(model.ctx, identity, service.TicketListFilter{
			Status:       model.currentStatusFilter(),
			ClientPrefix: model.filter.Value(),
		})
		if err != nil {
			model.fail("list tickets", err)
			return
		}
		model.tickets = tickets
	}
	model.clampCursor()
	model.cursorMoved()
}

func (model *Model) cursorMoved() {
	if model.Screen() != navigation.ScreenHistory {
		return
	}
	model.changes = nil
	ticket, ok := model.selectedTicket()
	if !ok {
		return
	}
	changes, err := model.session.Services.Audit.ListChanges(model.ctx, model.identity(), ticket.ID, 0)
	if err != nil {
		model.fail("list changes", err)
		return
	}
	model.changes = changes
}

func (model *Model) clampCursor() {
	rows := model.rowCount()
	if model.cursor >= rows {
		model.cursor = rows - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
}

func (model Model) rowCount() int {
	switch model.Screen() {
	case navigation.ScreenAdminMenu:
		return len(adminMenu)
	case navigation.ScreenUsers:
		return len(model.users)
	case navigation.ScreenServices, navigation.ScreenTechnicianServices, navigation.ScreenHistory:
		return len(model.tickets)
	}
	return 0
}

func (model Model) currentStatusFilter() *domain.TicketStatus {
	if model.statusFilter <= 0 || model.statusFilter > len(domain.TicketStatuses) {
		return nil
	}
	status := domain.TicketStatuses[model.statusFilter-1]
	return &status
}

func (model Model) selectedTicket() (domain.Ticket, bool) {
	if model.cursor < 0 || model.cursor >= len(model.tickets) {
		return domain.Ticket{}, false
	}
	return model.tickets[model.cursor], true
}

func (model Model) selectedUser() (domain.User, bool) {
	if model.cursor < 0 || model.cursor >= len(model.users) {
		return domain.User{}, false
	}
	return model.users[model.cursor], true
}

func (model Model) can(obj, act string) bool {
	return model.session.Can(obj, act)
}

func (model Model) canEditTickets() bool {
	return model.can(auth.ObjectTickets, auth.ActionWrite)
}
