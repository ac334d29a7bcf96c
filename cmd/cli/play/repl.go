package play

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/myrjola/gumshoe/internal/casefile"
	"github.com/myrjola/gumshoe/internal/engine"
	"github.com/myrjola/gumshoe/internal/errors"
)

const helpText = `Commands:
  look                  show the case
  act <action>          perform an action at the current location
  flights               list the flights from here
  fly <destination>     fly to a destination
  evidence              show the evidence selection
  set <field> [value]   select evidence, no value clears the field
  warrant               request a warrant with the selected evidence
  capture               try to arrest the suspect
  new [case]            start a case over, the current one by default
  help                  show this help
  quit                  leave the game`

type styles struct {
	speaker lipgloss.Style
	status  lipgloss.Style
	muted   lipgloss.Style
	reject  lipgloss.Style
}

// newStyles picks the colors for out. Output that is not a terminal gets plain text.
func newStyles(out io.Writer) styles {
	renderer := lipgloss.NewRenderer(out)
	return styles{
		speaker: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFC857")),
		status:  renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("#67F0A8")),
		muted:   renderer.NewStyle().Faint(true),
		reject:  renderer.NewStyle().Foreground(lipgloss.Color("#FF6F91")),
	}
}

// repl is a line oriented driver of one engine session. Output may also come from the speech worker, so every
// write holds mu.
type repl struct {
	catalog  *casefile.Catalog
	game     *engine.Session
	markdown *glamour.TermRenderer
	styles   styles
	// speak is called with the last dialogue of every command.
	speak func(ctx context.Context, dialogue engine.Dialogue)

	mu  sync.Mutex
	out io.Writer
}

func newREPL(catalog *casefile.Catalog, out io.Writer, glamourStyle string) (*repl, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(glamourStyle),
		glamour.WithWordWrap(78), //nolint:mnd // terminal width.
	)
	if err != nil {
		return nil, errors.Wrap(err, "create markdown renderer")
	}
	return &repl{
		catalog:  catalog,
		game:     nil,
		markdown: renderer,
		styles:   newStyles(out),
		speak:    func(context.Context, engine.Dialogue) {},
		mu:       sync.Mutex{},
		out:      out,
	}, nil
}

// printf writes to the output. Write errors are ignored since there is nobody left to tell.
func (r *repl) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func (r *repl) renderMarkdown(source string) string {
	rendered, err := r.markdown.Render(source)
	if err != nil {
		return source + "\n"
	}
	return rendered
}

// start begins the case caseID from scratch.
func (r *repl) start(ctx context.Context, caseID string) error {
	bundle, err := r.catalog.Bundle(caseID)
	if err != nil {
		return err
	}
	var result engine.Result
	r.game, result = engine.Start(bundle)
	r.printf("%s\n", r.styles.status.Render(bundle.Case.Title))
	r.printResult(ctx, result)
	r.look()
	return nil
}

// run reads commands from in until quit or end of input.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	r.printf("> ")
	for scanner.Scan() {
		if quit := r.execute(ctx, scanner.Text()); quit {
			return nil
		}
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), "play interrupted")
		}
		r.printf("> ")
	}
	return errors.Wrap(scanner.Err(), "read command")
}

// execute runs one input line and reports whether the player wants to quit.
func (r *repl) execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	command, args := strings.ToLower(fields[0]), fields[1:]
	switch command {
	case "quit", "exit":
		return true
	case "help", "?":
		r.printf("%s\n", helpText)
	case "look":
		r.look()
	case "act":
		if len(args) != 1 {
			r.printf("usage: act <action>\n")
			return false
		}
		r.printResult(ctx, r.game.PerformAction(args[0]))
	case "flights":
		r.flights(ctx)
	case "fly":
		if len(args) != 1 {
			r.printf("usage: fly <destination>\n")
			return false
		}
		r.printResult(ctx, r.game.Travel(args[0]))
	case "evidence":
		r.evidence()
	case "set":
		if len(args) == 0 {
			r.printf("usage: set <field> [value]\n")
			return false
		}
		r.printResult(ctx, r.game.SetEvidence(args[0], strings.Join(args[1:], " ")))
		r.evidence()
	case "warrant":
		r.printResult(ctx, r.game.IssueWarrant(r.game.Evidence()))
	case "capture":
		r.printResult(ctx, r.game.AttemptCapture())
	case "new":
		caseID := r.game.Bundle().ID()
		if len(args) > 0 {
			caseID = args[0]
		}
		if err := r.start(ctx, caseID); err != nil {
			r.printf("%s\n", r.styles.reject.Render("Unknown case "+caseID+"."))
		}
	default:
		r.printf("Unknown command %q. Type help for the commands.\n", command)
	}
	return false
}

func (r *repl) look() {
	snapshot := r.game.Snapshot()
	var b strings.Builder
	fmt.Fprintf(&b, "%s | %s left | stop %d of %d | warrant: %s\n",
		r.styles.status.Render(snapshot.StatusText), snapshot.TimeLeft, snapshot.RouteStop, snapshot.RouteLength,
		snapshot.WarrantLabel)
	fmt.Fprintf(&b, "%s\n", r.styles.speaker.Render(snapshot.LocationLabel))
	b.WriteString(r.renderMarkdown(snapshot.LocationDescription))
	b.WriteString("Actions:")
	for _, action := range snapshot.Actions {
		switch {
		case action.Used:
			b.WriteString(" " + r.styles.muted.Render(action.ID+" (done)"))
		case action.Enabled:
			b.WriteString(" " + action.ID)
		}
	}
	b.WriteString("\n")
	r.printf("%s", b.String())
}

func (r *repl) flights(ctx context.Context) {
	choices, hint, result := r.game.TravelOptions()
	if !result.Accepted {
		r.printResult(ctx, result)
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.styles.muted.Render(hint))
	for _, choice := range choices {
		fmt.Fprintf(&b, "  %-10s %s (%dh)\n", choice.To, choice.Label, choice.Hours)
	}
	r.printf("%s", b.String())
}

func (r *repl) evidence() {
	var b strings.Builder
	for _, row := range r.game.Snapshot().Evidence {
		selected := row.Selected
		if selected == "" {
			selected = "?"
		}
		fmt.Fprintf(&b, "  %-10s %-12s %s\n", row.FieldID, selected, r.styles.muted.Render(strings.Join(row.Options, ", ")))
	}
	r.printf("%s", b.String())
}

func (r *repl) printResult(ctx context.Context, result engine.Result) {
	var b strings.Builder
	if !result.Accepted {
		fmt.Fprintf(&b, "%s\n", r.styles.reject.Render("Not possible: "+string(result.Rejection)+"."))
	}
	for _, event := range result.Events {
		fmt.Fprintf(&b, "%s\n", r.styles.muted.Render(event))
	}
	for _, dialogue := range result.Dialogues {
		fmt.Fprintf(&b, "%s\n", r.styles.speaker.Render(dialogue.Speaker+":"))
		b.WriteString(r.renderMarkdown(dialogue.Text))
	}
	if result.Accepted && result.Status != engine.StatusPlaying {
		fmt.Fprintf(&b, "%s Type new to play again.\n", r.styles.status.Render(engine.StatusText(result.Status)))
	}
	r.printf("%s", b.String())
	// A new utterance interrupts the playing one, so only the last dialogue is worth speaking.
	if len(result.Dialogues) > 0 {
		r.speak(ctx, result.Dialogues[len(result.Dialogues)-1])
	}
}

// caseIDs lists the case IDs for error messages.
func caseIDs(catalog *casefile.Catalog) []string {
	ids := make([]string, 0, len(catalog.Entries()))
	for _, entry := range catalog.Entries() {
		ids = append(ids, entry.ID)
	}
	sort.Strings(ids)
	return ids
}
