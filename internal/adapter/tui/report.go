package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/rl1809/lot-ledger/internal/core/domain"
)

var (
	accent  = lipgloss.Color("#D97706")
	fg      = lipgloss.Color("#E8E6E3")
	dim     = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(fg).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	lowStyle    = cellStyle.Foreground(danger)
	inStyle     = cellStyle.Foreground(success)
	outStyle    = cellStyle.Foreground(danger)
	dimStyle    = lipgloss.NewStyle().Foreground(dim)
	borderStyle = lipgloss.NewStyle().Foreground(dim)
)

const timeLayout = "2006-01-02 15:04:05"

// RenderInventory prints current lots; rows strictly below threshold are highlighted.
func RenderInventory(lots []domain.Lot, threshold decimal.Decimal) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Current Inventory"))
	b.WriteString("\n")

	if len(lots) == 0 {
		b.WriteString(dimStyle.Render("No lots on hand."))
		b.WriteString("\n")
		return b.String()
	}

	low := make(map[int]bool)
	rows := make([][]string, 0, len(lots))
	for i, l := range lots {
		if l.IsLow(threshold) {
			low[i] = true
		}
		rows = append(rows, []string{
			l.ItemNumber, l.Lot, l.Name, l.Quantity.String(), l.Unit, l.Supplier, l.Expiration,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("ITEM", "LOT", "NAME", "QTY", "UNIT", "SUPPLIER", "EXP").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case low[row]:
				return lowStyle
			default:
				return cellStyle
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d lots, %d below threshold %s", len(lots), len(low), threshold)))
	b.WriteString("\n")
	return b.String()
}

// RenderHistory prints ledger entries in the order given.
func RenderHistory(entries []domain.LedgerEntry) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Inventory History"))
	b.WriteString("\n")

	if len(entries) == 0 {
		b.WriteString(dimStyle.Render("No movements recorded."))
		b.WriteString("\n")
		return b.String()
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			fmt.Sprint(e.ID),
			e.Timestamp.Format(timeLayout),
			e.ItemNumber,
			e.Lot,
			signed(e.Change),
			e.Remaining.String(),
			e.Unit,
			string(e.ActionType),
			e.Username,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("ID", "TIME", "ITEM", "LOT", "CHANGE", "REMAINING", "UNIT", "ACTION", "USER").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 4 {
				if entries[row].Change.IsNegative() {
					return outStyle
				}
				return inStyle
			}
			return cellStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.String()
	}
	return d.String()
}
