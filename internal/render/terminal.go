package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/procforge/internal/document"
)

var (
	accent   = lipgloss.Color("#007AFF")
	muted    = lipgloss.Color("#8E8E93")
	border   = lipgloss.Color("#444444")
	okColour = lipgloss.Color("#34C759")
)

// Terminal renders doc as boxed text for a console of the given width.
func Terminal(doc document.Document, width int) string {
	width = max(40, width)
	inner := width - 4

	title := lipgloss.NewStyle().Bold(true).Foreground(accent)
	label := lipgloss.NewStyle().Bold(true)
	dim := lipgloss.NewStyle().Foreground(muted).Italic(true)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(width)

	cover := lipgloss.JoinVertical(lipgloss.Center,
		title.Render(doc.Cover.Heading),
		label.Render(doc.Cover.Title),
		fmt.Sprintf("v%s · %s · %s", doc.Cover.Version, doc.Cover.Author, doc.Cover.Date),
	)
	blocks := []string{
		box.BorderForeground(accent).Align(lipgloss.Center).Render(cover),
		lipgloss.NewStyle().Foreground(muted).Render(fmt.Sprintf("%s | %s | v%s | %s | %s",
			doc.Header.Title, doc.Header.Reference, doc.Header.Version, doc.Header.Date, doc.Header.LastModifier)),
		box.Render(fmt.Sprintf("%s %s   %s v%s   %s %s   %s %s",
			label.Render("Référence"), doc.Cartouche.Reference,
			label.Render("Version"), doc.Cartouche.Version,
			label.Render("Date"), doc.Cartouche.Date,
			label.Render("Validé par"), doc.Cartouche.Validator)),
	}

	for _, s := range doc.Sections {
		lines := []string{title.Render(s.Heading)}
		switch {
		case s.Objective != nil:
			lines = append(lines, wrap(s.Objective.Objective, inner))
			lines = append(lines, cardLines(label, s.Objective.Scope)...)
		case s.Prerequisites != nil:
			for _, c := range s.Prerequisites.Categories {
				lines = append(lines, listLines(label, dim, c)...)
			}
		case s.Steps != nil:
			if s.Steps.Empty {
				lines = append(lines, dim.Render(s.Steps.EmptyMessage))
			}
			for _, st := range s.Steps.Steps {
				lines = append(lines, "", label.Render(st.Title))
				lines = append(lines, cardLines(label, st.Cards)...)
				for _, a := range st.Actions {
					lines = append(lines, "  "+a.Title)
					for _, sc := range a.Scenarios {
						lines = append(lines, "    "+sc.Condition)
						for i, line := range sc.Steps {
							lines = append(lines, fmt.Sprintf("      %d. %s", i+1, line))
						}
					}
				}
				if st.Controls != nil {
					lines = append(lines, listLines(label, dim, *st.Controls)...)
				}
				if st.Result != "" {
					lines = append(lines, lipgloss.NewStyle().Foreground(okColour).Render("Résultat attendu : "+st.Result))
				}
			}
		case s.History != nil:
			if len(s.History.Rows) == 0 {
				lines = append(lines, dim.Render(s.History.EmptyMessage))
			}
			for _, r := range s.History.Rows {
				badge := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(r.Color)).Render(r.Label)
				lines = append(lines, fmt.Sprintf("v%-8s %-12s %-10s %s  %s", r.Version, r.Author, r.Date, badge, r.Comment))
			}
		case s.Contact != nil:
			lines = append(lines, cardLines(label, s.Contact.Cards)...)
		}
		blocks = append(blocks, box.Render(strings.Join(lines, "\n")))
	}

	blocks = append(blocks, lipgloss.NewStyle().Foreground(muted).Render(strings.Join(doc.Footer.Lines, "\n")))
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func cardLines(label lipgloss.Style, cards []document.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, label.Render(c.Label+" : ")+c.Value)
	}
	return out
}

func listLines(label, dim lipgloss.Style, l document.ItemList) []string {
	out := []string{label.Render(l.Title)}
	if len(l.Items) == 0 {
		return append(out, dim.Render("  "+l.EmptyMessage))
	}
	for _, item := range l.Items {
		out = append(out, "  ✓ "+item)
	}
	return out
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}
