package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"users-server/confs"
	"users-server/db"
	"users-server/entities"
	"users-server/logger"
	"users-server/repositories"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

type step int

const (
	stepChecking step = iota
	stepConfirmExtra
	stepEnteringUsername
	stepEnteringChatID
	stepEnteringPassword
	stepConfirmingPassword
	stepCreating
	stepComplete
)

// adminStore is the slice of the admin repository the tool needs.
type adminStore interface {
	Create(ctx context.Context, data entities.AdminCreate) (*entities.Admin, error)
	HasAny(ctx context.Context) (bool, error)
}

type model struct {
	store        adminStore
	step         step
	username     string
	chatID       int64
	password     string
	currentInput string
	message      string
	created      *entities.Admin
	quitting     bool
}

type checkedMsg struct{ hasAdmins bool }
type createdMsg struct{ admin *entities.Admin }
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func initialModel(store adminStore) model {
	return model{store: store, step: stepChecking}
}

func (m model) Init() tea.Cmd {
	return checkAdmins(m.store)
}

func checkAdmins(store adminStore) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		ok, err := store.HasAny(ctx)
		if err != nil {
			return errMsg{fmt.Errorf("could not query admins: %w", err)}
		}
		return checkedMsg{hasAdmins: ok}
	}
}

func createAdmin(store adminStore, data entities.AdminCreate) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a, err := store.Create(ctx, data)
		if err != nil {
			return errMsg{err}
		}
		return createdMsg{admin: a}
	}
}

func (m model) typing() bool {
	switch m.step {
	case stepEnteringUsername, stepEnteringChatID, stepEnteringPassword, stepConfirmingPassword:
		return true
	}
	return false
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyBackspace:
			if len(m.currentInput) > 0 {
				m.currentInput = m.currentInput[:len(m.currentInput)-1]
			}
			return m, nil

		case tea.KeyEnter:
			return m.submit()

		case tea.KeyRunes, tea.KeySpace:
			if m.step == stepConfirmExtra {
				switch strings.ToLower(msg.String()) {
				case "y":
					m.step = stepEnteringUsername
					m.message = ""
				case "n", "q":
					m.quitting = true
					return m, tea.Quit
				}
				return m, nil
			}
			if m.typing() {
				m.currentInput += msg.String()
			}
		}

	case checkedMsg:
		if msg.hasAdmins {
			m.step = stepConfirmExtra
			m.message = "Admin accounts already exist."
		} else {
			m.step = stepEnteringUsername
		}

	case createdMsg:
		m.created = msg.admin
		m.step = stepComplete
		m.message = successStyle.Render(fmt.Sprintf("✓ Admin %q created (id %d)", msg.admin.UserName, msg.admin.ID))

	case errMsg:
		m.message = errorStyle.Render("✗ " + msg.Error())
		if m.step == stepChecking {
			m.step = stepComplete
			return m, nil
		}
		// Start over from the username; the repository rejected the input.
		m.step = stepEnteringUsername
		m.currentInput = ""
		m.password = ""
	}

	return m, nil
}

func (m model) submit() (tea.Model, tea.Cmd) {
	input := m.currentInput
	switch m.step {
	case stepEnteringUsername:
		name := strings.TrimSpace(input)
		if len(name) < 3 {
			m.message = errorStyle.Render("✗ username must be at least 3 characters")
			m.currentInput = ""
			return m, nil
		}
		m.username = name
		m.step = stepEnteringChatID

	case stepEnteringChatID:
		id, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
		if err != nil {
			m.message = errorStyle.Render("✗ chat id must be an integer")
			m.currentInput = ""
			return m, nil
		}
		m.chatID = id
		m.step = stepEnteringPassword

	case stepEnteringPassword:
		if len(input) < 8 {
			m.message = errorStyle.Render("✗ password must be at least 8 characters")
			m.currentInput = ""
			return m, nil
		}
		m.password = input
		m.step = stepConfirmingPassword

	case stepConfirmingPassword:
		if input != m.password {
			m.message = errorStyle.Render("✗ passwords do not match")
			m.password = ""
			m.currentInput = ""
			m.step = stepEnteringPassword
			return m, nil
		}
		m.step = stepCreating
		m.currentInput = ""
		m.message = "Creating admin..."
		return m, createAdmin(m.store, entities.AdminCreate{
			UserName: m.username,
			ChatID:   m.chatID,
			Password: m.password,
		})

	case stepComplete:
		m.quitting = true
		return m, tea.Quit

	default:
		return m, nil
	}
	m.currentInput = ""
	m.message = ""
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("Admin Setup") + "\n")

	if m.message != "" && m.step != stepComplete && m.step != stepCreating {
		s.WriteString(m.message + "\n\n")
	}

	switch m.step {
	case stepChecking:
		s.WriteString("Checking existing admins...\n")

	case stepConfirmExtra:
		s.WriteString(promptStyle.Render("Create another admin? [y/n]") + "\n")

	case stepEnteringUsername:
		s.WriteString(promptStyle.Render("Username:") + "\n")
		s.WriteString(inputStyle.Render("> "+m.currentInput) + "\n")

	case stepEnteringChatID:
		s.WriteString(promptStyle.Render("Chat id:") + "\n")
		s.WriteString(inputStyle.Render("> "+m.currentInput) + "\n")

	case stepEnteringPassword:
		s.WriteString(promptStyle.Render("Password:") + "\n")
		s.WriteString(inputStyle.Render("> "+strings.Repeat("•", len(m.currentInput))) + "\n")

	case stepConfirmingPassword:
		s.WriteString(promptStyle.Render("Repeat password:") + "\n")
		s.WriteString(inputStyle.Render("> "+strings.Repeat("•", len(m.currentInput))) + "\n")

	case stepCreating:
		s.WriteString(m.message + "\n")

	case stepComplete:
		s.WriteString(m.message + "\n")
		s.WriteString("\nPress Enter to exit\n")
		return s.String()
	}

	s.WriteString("\n" + hintStyle.Render("Enter to continue, Esc to quit") + "\n")
	return s.String()
}

func main() {
	// The TUI owns the terminal.
	logger.InitWithWriter("admin-setup", false, io.Discard)

	cfg, err := confs.LoadConfig()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	database, err := db.Connect(cfg)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	defer database.Close()

	store := repositories.NewAdminGormRepository(database, cfg.BcryptCost)
	p := tea.NewProgram(initialModel(store))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		database.Close()
		os.Exit(1)
	}
}
