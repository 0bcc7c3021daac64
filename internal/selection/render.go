package selection

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"

	"serialsync/internal/models"
)

// DefaultTitleWidth is the display width titles are truncated to.
const DefaultTitleWidth = 60

// Status column values.
const (
	StatusModified  = "modified"
	StatusUnchanged = "unchanged"
	StatusUnknown   = "modified (no data)"
)

// PartStatus describes a part's modification flag for display.
func PartStatus(part models.PartDescriptor) string {
	switch {
	case !part.IsModified:
		return StatusUnchanged
	case !part.MetadataKnown || part.ModifiedAt == nil:
		return StatusUnknown
	default:
		return StatusModified
	}
}

// RenderParts renders the numbered part list shown to the operator.
func RenderParts(parts []models.PartDescriptor, titleWidth int) string {
	if titleWidth <= 0 {
		titleWidth = DefaultTitleWidth
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Label", "Title", "Added", "Status"})

	for i, part := range parts {
		added := ""
		if part.ModifiedAt != nil {
			added = part.ModifiedAt.Format("2006-01-02")
		}

		tw.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			part.OrderLabel,
			runewidth.Truncate(part.Title, titleWidth, "…"),
			added,
			PartStatus(part),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
