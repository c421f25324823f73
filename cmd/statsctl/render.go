package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"bf6-tracker/internal/domain"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const noData = "No match data available for this player."

func renderOverview(w io.Writer, ov *domain.Overview) {
	p := ov.Player
	title := p.PlayerID
	if p.Handle != "" {
		title = p.Handle + " (" + p.PlayerID + ")"
	}
	source := "fetched"
	if ov.Cached {
		source = "cached"
	}
	fmt.Fprintf(w, "%s on %s, %s %s\n\n", title, p.Platform, source, humanize.Time(ov.FetchedAt))

	t := ov.Totals
	if !t.HasData {
		fmt.Fprintln(w, noData)
		return
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	tbl.AppendHeader(table.Row{"Stat", "Value"})
	tbl.AppendRows([]table.Row{
		{"Rank", t.Rank},
		{"Matches", humanize.Comma(t.TotalMatches)},
		{"Wins", humanize.Comma(t.TotalWins)},
		{"Losses", humanize.Comma(t.TotalLosses)},
		{"Win rate", fmt.Sprintf("%.1f%%", t.WinRate)},
		{"Kills", humanize.Comma(t.TotalKills)},
		{"Deaths", humanize.Comma(t.TotalDeaths)},
		{"K/D", fmt.Sprintf("%.2f", t.OverallKD)},
		{"Time played", formatSeconds(t.TotalTimePlayed)},
	})

	keys := make([]string, 0, len(t.PointInTime))
	for k := range t.PointInTime {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		tbl.AppendSeparator()
		for _, k := range keys {
			v := t.PointInTime[k]
			display := v.DisplayValue
			if display == "" {
				display = humanize.FormatFloat("#,###.##", v.Value)
			}
			tbl.AppendRow(table.Row{k, display})
		}
	}
	tbl.AppendFooter(table.Row{"Snapshots", t.SnapshotCount})
	tbl.Render()

	h := ov.Highlights
	if h.MostPlayedGamemode == nil && h.MostUsedWeapon == nil && h.MostUsedKit == nil {
		return
	}
	fmt.Fprintln(w)
	hl := table.NewWriter()
	hl.SetOutputMirror(w)
	hl.SetStyle(table.StyleLight)
	hl.AppendHeader(table.Row{"Highlight", "Name", "Value"})
	if e := h.MostPlayedGamemode; e != nil {
		hl.AppendRow(table.Row{"Most played mode", e.Name, humanize.Comma(int64(e.Stat("matchesPlayed"))) + " matches"})
	}
	if e := h.MostUsedWeapon; e != nil {
		hl.AppendRow(table.Row{"Top weapon", e.Name, humanize.Comma(int64(e.Stat("kills"))) + " kills"})
	}
	if e := h.MostUsedKit; e != nil {
		hl.AppendRow(table.Row{"Top kit", e.Name, formatSeconds(int64(e.Stat("timePlayed")))})
	}
	hl.Render()
}

func renderHistory(w io.Writer, h *domain.StatHistory) {
	fmt.Fprintf(w, "%s for %s on %s: current %.2f\n\n", h.Name, h.PlayerID, h.Platform, h.Current)
	if len(h.Points) == 0 {
		fmt.Fprintln(w, "No history points.")
		return
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Day", "Value"})
	for _, p := range h.Points {
		display := p.DisplayValue
		if display == "" {
			display = fmt.Sprintf("%.2f", p.Value)
		}
		tbl.AppendRow(table.Row{p.Day.Format(time.DateOnly), display})
	}
	tbl.AppendFooter(table.Row{"Points", len(h.Points)})
	tbl.Render()
}

func renderPlayers(w io.Writer, players []domain.Player) {
	if len(players) == 0 {
		fmt.Fprintln(w, "No cached players.")
		return
	}
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Player", "Platform", "Handle", "Rank", "Last fetch"})
	for _, p := range players {
		tbl.AppendRow(table.Row{p.PlayerID, p.Platform, p.Handle, p.Rank, humanize.Time(p.LastFetchAt)})
	}
	tbl.Render()
}

func formatSeconds(s int64) string {
	d := time.Duration(s) * time.Second
	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%sh %02dm", humanize.Comma(hours), minutes)
}
