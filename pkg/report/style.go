package report

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// NewScoreTableStyle is the rounded style with upper-case headers and a centered title.
func NewScoreTableStyle() table.Style {
	style := table.StyleRounded
	style.Format.Header = text.FormatUpper
	style.Format.Footer = text.FormatUpper
	style.Title.Align = text.AlignCenter
	style.Options.SeparateRows = false
	return style
}
