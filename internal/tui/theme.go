package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// Theme holds the desk palette. Colors are ANSI 256 codes.
type Theme struct {
	NormalText         lipgloss.Color
	FaintText          lipgloss.Color
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color
	HeaderForeground   lipgloss.Color
	BorderColor        lipgloss.Color
	ErrorForeground    lipgloss.Color

	StatusOpen     lipgloss.Color
	StatusActive   lipgloss.Color
	StatusDone     lipgloss.Color
	StatusClosed   lipgloss.Color
	StatusCanceled lipgloss.Color
}

// DefaultTheme is the built-in palette.
var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	SelectedBackground: lipgloss.Color("237"),
	SelectedForeground: lipgloss.Color("255"),
	HeaderForeground:   lipgloss.Color("39"),
	BorderColor:        lipgloss.Color("240"),
	ErrorForeground:    lipgloss.Color("203"),

	StatusOpen:     lipgloss.Color("39"),
	StatusActive:   lipgloss.Color("214"),
	StatusDone:     lipgloss.Color("78"),
	StatusClosed:   lipgloss.Color("243"),
	StatusCanceled: lipgloss.Color("203"),
}

// StatusColor returns the color for a ticket status.
func (theme Theme) StatusColor(status domain.TicketStatus) lipgloss.Color {
	switch status {
	case domain.TicketStatusOpen:
		return theme.StatusOpen
	case domain.TicketStatusDiagnosing, domain.TicketStatusRepair:
		return theme.StatusActive
	case domain.TicketStatusDone:
		return theme.StatusDone
	case domain.TicketStatusDelivered:
		return theme.StatusClosed
	case domain.TicketStatusCanceled:
		return theme.StatusCanceled
	}
	return theme.FaintText
}

func (theme Theme) title() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground)
}

func (theme Theme) faint() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.FaintText)
}

func (theme Theme) selected() lipgloss.Style {
	return lipgloss.NewStyle().Background(theme.SelectedBackground).Foreground(theme.SelectedForeground)
}

func (theme Theme) errorText() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.ErrorForeground)
}

func (theme Theme) dialog() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.BorderColor).
		Padding(1, 2)
}
