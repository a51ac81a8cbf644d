package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/navigation"
)

const timeLayout = "2006-01-02 15:04"

func (model Model) handleMenuKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(message, model.keys.Select) || model.cursor >= len(adminMenu) {
		return model, nil
	}
	item := adminMenu[model.cursor]
	if item.screen == "" {
		model.logout()
		return model, nil
	}
	if model.session.Open(item.screen) {
		model.enterScreen()
	}
	return model, nil
}

func (model Model) handleUsersKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Add):
		model.form = newForm(formAddUser, "Add user", 0,
			fieldSpec{name: "full_name", label: "Full name"},
			fieldSpec{name: "email", label: "Email"},
			fieldSpec{name: "username", label: "Username"},
			fieldSpec{name: "secret", label: "Secret", secret: true},
			fieldSpec{name: "role", label: "Role (admin/commercial/technician)", value: string(domain.RoleTechnician)},
		)
		model.mode = ModeForm
	case key.Matches(message, model.keys.Edit):
		user, ok := model.selectedUser()
		if !ok {
			return model, nil
		}
		model.form = newForm(formEditUser, "Edit user "+user.Username, user.ID,
			fieldSpec{name: "full_name", label: "Full name", value: user.FullName},
			fieldSpec{name: "email", label: "Email", value: user.Email},
			fieldSpec{name: "username", label: "Username", value: user.Username},
			fieldSpec{name: "secret", label: "New secret (blank keeps)", secret: true},
			fieldSpec{name: "role", label: "Role (admin/commercial/technician)", value: string(user.Role)},
		)
		model.mode = ModeForm
	case key.Matches(message, model.keys.Delete):
		user, ok := model.selectedUser()
		if !ok {
			return model, nil
		}
		model.pending = pendingDelete{user: true, id: user.ID, label: "user " + user.Username}
		model.mode = ModeConfirm
	}
	return model, nil
}

func (model Model) handleTicketKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Add):
		if model.Screen() != navigation.ScreenServices || !model.canEditTickets() {
			return model, nil
		}
		model.form = newForm(formAddTicket, "Add service", 0,
			fieldSpec{name: "client_name", label: "Client"},
			fieldSpec{name: "client_phone", label: "Phone"},
			fieldSpec{name: "client_email", label: "Email"},
			fieldSpec{name: "equipment", label: "Equipment"},
			fieldSpec{name: "problem_report", label: "Problem"},
		)
		model.mode = ModeForm
	case key.Matches(message, model.keys.Edit):
		ticket, ok := model.selectedTicket()
		if !ok || !model.canEditTickets() {
			return model, nil
		}
		model.form = newForm(formEditTicket, "Edit service #"+strconv.FormatInt(ticket.ID, 10), ticket.ID,
			fieldSpec{name: "client_name", label: "Client", value: ticket.ClientName},
			fieldSpec{name: "client_phone", label: "Phone", value: ticket.ClientPhone},
			fieldSpec{name: "client_email", label: "Email", value: ticket.ClientEmail},
			fieldSpec{name: "equipment", label: "Equipment", value: ticket.Equipment},
			fieldSpec{name: "problem_report", label: "Problem", value: ticket.ProblemReport},
			fieldSpec{name: "status", label: "Status (" + statusChoices() + ")", value: string(ticket.Status)},
		)
		model.mode = ModeForm
	case key.Matches(message, model.keys.Delete):
		ticket, ok := model.selectedTicket()
		if !ok || !model.can(auth.ObjectTickets, auth.ActionDelete) {
			return model, nil
		}
		model.pending = pendingDelete{id: ticket.ID, label: "service #" + strconv.FormatInt(ticket.ID, 10)}
		model.mode = ModeConfirm
	case key.Matches(message, model.keys.Assign):
		ticket, ok := model.selectedTicket()
		if !ok || !model.can(auth.ObjectAssignments, auth.ActionWrite) {
			return model, nil
		}
		role := domain.RoleTechnician
		technicians, err := model.session.Services.Users.ListUsers(model.ctx, &role)
		if err != nil {
			model.fail("list technicians", err)
			return model, nil
		}
		model.technicians = technicians
		model.pickerCursor = 0
		model.pickerTicket = ticket.ID
		model.mode = ModePicker
	default:
		return model.handleFilterShortcuts(message)
	}
	return model, nil
}

func (model Model) handleHistoryKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(message, model.keys.Select) {
		model.cursorMoved()
		return model, nil
	}
	return model.handleFilterShortcuts(message)
}

func (model Model) handleFilterShortcuts(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Filter):
		model.mode = ModeFilter
		return model, model.filter.Focus()
	case key.Matches(message, model.keys.Status) && model.Screen() != navigation.ScreenHistory:
		model.statusFilter = (model.statusFilter + 1) % (len(domain.TicketStatuses) + 1)
		model.cursor = 0
		model.reload()
	}
	return model, nil
}

func statusChoices() string {
	names := make([]string, 0, len(domain.TicketStatuses))
	for _, status := range domain.TicketStatuses {
		names = append(names, string(status))
	}
	return strings.Join(names, "/")
}

// View implements tea.Model.
func (model Model) View() string {
	var b strings.Builder
	b.WriteString(model.renderHeader())
	b.WriteString("\n\n")

	switch {
	case model.mode == ModeDialog:
		b.WriteString(model.theme.dialog().Render(
			model.theme.errorText().Render(model.dialog) + "\n\n" + model.theme.faint().Render("enter to dismiss"),
		))
	case model.mode == ModeConfirm:
		b.WriteString(model.theme.dialog().Render(
			fmt.Sprintf("Delete %s? This cannot be undone.", model.pending.label) + "\n\n" +
				model.theme.faint().Render("y delete · any other key cancel"),
		))
	case model.mode == ModeForm && model.form != nil:
		b.WriteString(model.form.view(model.theme))
		if model.form.kind == formLogin && model.loginError != "" {
			b.WriteString("\n")
			b.WriteString(model.theme.errorText().Render(model.loginError))
		}
	case model.mode == ModePicker:
		b.WriteString(model.renderPicker())
	default:
		b.WriteString(model.renderScreen())
	}

	b.WriteString("\n\n")
	b.WriteString(model.renderHelp())
	return b.String()
}

func (model Model) renderHeader() string {
	title := model.theme.title().Render("Service desk · " + screenTitle(model.Screen()))
	identity := model.identity()
	if identity == nil {
		return title
	}
	who := model.theme.faint().Render(fmt.Sprintf("%s (%s)", identity.FullName, identity.Role))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", who)
}

func screenTitle(screen navigation.Screen) string {
	switch screen {
	case navigation.ScreenLogin:
		return "Login"
	case navigation.ScreenAdminMenu:
		return "Administration"
	case navigation.ScreenUsers:
		return "Users"
	case navigation.ScreenServices:
		return "Services"
	case navigation.ScreenTechnicianServices:
		return "My services"
	case navigation.ScreenHistory:
		return "History"
	}
	return string(screen)
}

func (model Model) renderScreen() string {
	switch model.Screen() {
	case navigation.ScreenAdminMenu:
		rows := make([]string, 0, len(adminMenu))
		for i, item := range adminMenu {
			rows = append(rows, model.renderRow(i, item.label))
		}
		return strings.Join(rows, "\n")
	case navigation.ScreenUsers:
		return model.renderUsers()
	case navigation.ScreenServices, navigation.ScreenTechnicianServices:
		return model.renderFilterLine(true) + "\n\n" + model.renderTickets()
	case navigation.ScreenHistory:
		return model.renderFilterLine(false) + "\n\n" + model.renderTickets() + "\n\n" + model.renderChanges()
	}
	return ""
}

func (model Model) renderRow(index int, text string) string {
	if index == model.cursor {
		return model.theme.selected().Render("> " + text)
	}
	return "  " + text
}

func (model Model) renderUsers() string {
	if len(model.users) == 0 {
		return model.theme.faint().Render("No users.")
	}
	rows := make([]string, 0, len(model.users))
	for i, user := range model.users {
		rows = append(rows, model.renderRow(i, fmt.Sprintf("%-16s %-28s %-12s %s",
			user.Username, user.FullName, user.Role, user.Email)))
	}
	return strings.Join(rows, "\n")
}

func (model Model) renderFilterLine(withStatus bool) string {
	line := "Client: " + model.filter.View()
	if withStatus {
		status := "all"
		if current := model.currentStatusFilter(); current != nil {
			status = string(*current)
		}
		line += "   Status: " + status
	}
	return model.theme.faint().Render(line)
}

func (model Model) renderTickets() string {
	if len(model.tickets) == 0 {
		return model.theme.faint().Render("No services.")
	}
	rows := make([]string, 0, len(model.tickets))
	for i, ticket := range model.tickets {
		status := lipgloss.NewStyle().Foreground(model.theme.StatusColor(ticket.Status)).Render(fmt.Sprintf("%-10s", ticket.Status))
		text := fmt.Sprintf("#%-5d %-24s %-24s ", ticket.ID, ticket.ClientName, ticket.Equipment)
		if i == model.cursor {
			rows = append(rows, model.theme.selected().Render("> "+text)+status)
		} else {
			rows = append(rows, "  "+text+status)
		}
	}
	return strings.Join(rows, "\n")
}

func (model Model) renderChanges() string {
	if len(model.changes) == 0 {
		return model.theme.faint().Render("No changes recorded.")
	}
	rows := make([]string, 0, len(model.changes))
	for _, change := range model.changes {
		rows = append(rows, fmt.Sprintf("%s  %-6s %-16s %q → %q",
			change.CreatedAt.Local().Format(timeLayout), change.ChangeType, change.Field, change.OldValue, change.NewValue))
	}
	return strings.Join(rows, "\n")
}

func (model Model) renderPicker() string {
	var b strings.Builder
	b.WriteString(model.theme.title().Render(fmt.Sprintf("Assign technician to service #%d", model.pickerTicket)))
	b.WriteString("\n\n")
	if len(model.technicians) == 0 {
		b.WriteString(model.theme.faint().Render("No technicians."))
		return b.String()
	}
	for i, technician := range model.technicians {
		text := fmt.Sprintf("%-16s %s", technician.Username, technician.FullName)
		if i == model.pickerCursor {
			b.WriteString(model.theme.selected().Render("> " + text))
		} else {
			b.WriteString("  " + text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (model Model) renderHelp() string {
	var bindings []key.Binding
	switch model.mode {
	case ModeForm:
		bindings = append(bindings, model.keys.NextField, model.keys.Submit)
		if model.form != nil && model.form.kind != formLogin {
			bindings = append(bindings, model.keys.Cancel)
		}
	case ModeFilter:
		bindings = append(bindings, model.keys.Select)
	case ModePicker:
		bindings = append(bindings, model.keys.Up, model.keys.Down, model.keys.Select, model.keys.Cancel)
	case ModeConfirm, ModeDialog:
		return ""
	default:
		bindings = model.browseBindings()
	}

	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return model.theme.faint().Render(strings.Join(parts, " · "))
}

func (model Model) browseBindings() []key.Binding {
	bindings := []key.Binding{model.keys.Up, model.keys.Down}
	switch model.Screen() {
	case navigation.ScreenAdminMenu:
		bindings = append(bindings, model.keys.Select)
	case navigation.ScreenUsers:
		bindings = append(bindings, model.keys.Add, model.keys.Edit, model.keys.Delete)
	case navigation.ScreenServices, navigation.ScreenTechnicianServices:
		if model.Screen() == navigation.ScreenServices && model.canEditTickets() {
			bindings = append(bindings, model.keys.Add)
		}
		if model.canEditTickets() {
			bindings = append(bindings, model.keys.Edit)
		}
		if model.can(auth.ObjectTickets, auth.ActionDelete) {
			bindings = append(bindings, model.keys.Delete)
		}
		if model.can(auth.ObjectAssignments, auth.ActionWrite) {
			bindings = append(bindings, model.keys.Assign)
		}
		bindings = append(bindings, model.keys.Filter, model.keys.Status)
	case navigation.ScreenHistory:
		bindings = append(bindings, model.keys.Filter)
	}
	if model.session.BackVisible() {
		bindings = append(bindings, model.keys.Back)
	}
	return append(bindings, model.keys.Logout, model.keys.Quit)
}
