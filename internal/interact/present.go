package interact

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles for suggestion output.
type Styles struct {
	Command lipgloss.Style
	Arrow   lipgloss.Style
	Hint    lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles builds styles whose color profile matches w.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Command: r.NewStyle().Bold(true).Foreground(lipgloss.Color("15")), // White
		Arrow:   r.NewStyle().Foreground(lipgloss.Color("13")),            // Magenta
		Hint:    r.NewStyle().Foreground(lipgloss.Color("8")),             // Gray
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")),             // Red
	}
}

// Presenter writes suggestions and status lines.
type Presenter struct {
	out         io.Writer
	status      io.Writer
	styles      Styles
	statusStyle Styles
	// Raw switches to CRLF line endings for terminals in raw mode.
	Raw bool
}

// NewPresenter returns a Presenter that writes commands to out and failures
// to status.
func NewPresenter(out, status io.Writer) *Presenter {
	return &Presenter{
		out:         out,
		status:      status,
		styles:      NewStyles(out),
		statusStyle: NewStyles(status),
	}
}

func (p *Presenter) eol() string {
	if p.Raw {
		return "\r\n"
	}
	return "\n"
}

// Command prints cmd unstyled on its own line, for pipes and scripts.
func (p *Presenter) Command(cmd string) {
	_, _ = fmt.Fprint(p.out, cmd+"\n")
}

// Suggestion shows a candidate command with the key hint.
func (p *Presenter) Suggestion(cmd string, n, max int) {
	nl := p.eol()
	hint := fmt.Sprintf("[enter] run  [n] another  (%d/%d)", n, max)
	_, _ = fmt.Fprint(p.out, nl+"  "+p.styles.Arrow.Render(">")+" "+p.styles.Command.Render(cmd)+nl)
	_, _ = fmt.Fprint(p.out, "  "+p.styles.Hint.Render(hint)+nl)
}

// Failure prints a single "Error: ..." line.
func (p *Presenter) Failure(err error) {
	msg := strings.TrimSpace(err.Error())
	_, _ = fmt.Fprint(p.status, p.statusStyle.Error.Render("Error: "+msg)+p.eol())
}
