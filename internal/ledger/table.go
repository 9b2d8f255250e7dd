package ledger

import "github.com/starford/procforge/internal/models"

// TableRow is one display row of the version history table.
type TableRow struct {
	Version         string `json:"version"`
	PreviousVersion string `json:"previousVersion,omitempty"`
	Author          string `json:"author"`
	Date            string `json:"date"`
	Label           string `json:"label"`
	Color           string `json:"color"`
	Comment         string `json:"comment"`
}

// ChangeLabel returns the display label of a change type.
func ChangeLabel(ct models.ChangeType) string {
	switch ct {
	case models.ChangeMajor:
		return "MAJEURE"
	case models.ChangeMinor:
		return "MINEURE"
	case models.ChangePatch:
		return "CORRECTION"
	default:
		return "MODIFICATION"
	}
}

// ChangeColor returns the badge colour of a change type.
func ChangeColor(ct models.ChangeType) string {
	switch ct {
	case models.ChangeMajor:
		return "#ff3b30"
	case models.ChangeMinor:
		return "#ff9500"
	case models.ChangePatch:
		return "#34c759"
	default:
		return "#007aff"
	}
}

// Table builds history rows, most recent first, from chronological entries.
func Table(history []models.Entry) []TableRow {
	rows := make([]TableRow, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		e := history[i]
		rows = append(rows, TableRow{
			Version:         e.Version,
			PreviousVersion: e.PreviousVersion,
			Author:          e.Author,
			Date:            e.Date,
			Label:           ChangeLabel(e.ChangeType),
			Color:           ChangeColor(e.ChangeType),
			Comment:         e.Comment,
		})
	}
	return rows
}
