package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/amishk599/internfeed/internal/model"
	"github.com/amishk599/internfeed/internal/pipeline"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func recordTable(recs []model.Record) *table.Table {
	t := newTable("Title", "Company", "Country", "Field", "Posted", "Link")
	for _, r := range recs {
		posted := "unknown"
		if r.PostedAt != nil {
			posted = r.PostedAt.Format(time.DateOnly)
		}
		t.Row(truncate(r.Title, 40), truncate(r.Company, 20), r.Country, r.Field, posted, r.Link)
	}
	return t
}

func runStatsTable(s pipeline.Stats) *table.Table {
	return newTable("Fetched", "Fresh", "New", "Duplicates", "Collisions", "Producer errors", "Delivered", "Failed").
		Row(
			strconv.Itoa(s.Fetched),
			strconv.Itoa(s.Fresh),
			strconv.Itoa(s.Inserted),
			strconv.Itoa(s.Duplicates),
			strconv.Itoa(s.Collisions),
			strconv.Itoa(s.ProducerErrors),
			strconv.Itoa(s.Delivered),
			strconv.Itoa(s.DeliveryFailed),
		)
}

func notice(format string, args ...any) {
	fmt.Println(noticeStyle.Render(fmt.Sprintf(format, args...)))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
