package ui

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-roster/internal/config"
	"github.com/tartampluch/go-roster/internal/dashboard"
	"github.com/tartampluch/go-roster/internal/engine"
	"github.com/tartampluch/go-roster/internal/roster"
)

// ShowRosterWindow displays every dated member sorted by next occurrence.
// It implements a singleton pattern: if the window is already open, it requests focus.
func (app *RosterApp) ShowRosterWindow() {
	if app.rosterWindow != nil {
		app.rosterWindow.RequestFocus()
		return
	}

	w := app.App.NewWindow(app.GetMsg(config.TKeyWinRoster))
	app.rosterWindow = w
	w.Resize(fyne.NewSize(config.RosterWinWidth, config.RosterWinHeight))

	// The snapshot is immutable, but sorting works on a private copy.
	snap := app.Dashboard.Current()
	var rows []engine.Occurrence
	if snap != nil {
		rows = make([]engine.Occurrence, len(snap.Schedule))
		copy(rows, snap.Schedule)
	}

	slog.Info(config.LogMsgOpenWin,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyCount, len(rows))

	currentSortCol := config.ColIDDate
	sortAsc := true

	var refreshTable func()

	performSort := func() {
		sortOccurrences(rows, currentSortCol, sortAsc)
		slog.Debug(config.LogMsgSorted,
			config.LogKeyComponent, config.CompUI,
			config.LogKeySortCol, currentSortCol,
			config.LogKeySortAsc, sortAsc)
	}
	performSort()

	// --- UI Table Component ---

	table := widget.NewTable(
		func() (int, int) {
			return len(rows), config.ColumnCount
		},
		func() fyne.CanvasObject {
			return widget.NewLabel(config.TablePlaceholder)
		},
		func(id widget.TableCellID, o fyne.CanvasObject) {
			label := o.(*widget.Label)
			if id.Row >= len(rows) {
				return
			}
			row := rows[id.Row]

			switch id.Col {
			case config.ColIDName:
				label.SetText(row.Person.Name)
			case config.ColIDDate:
				label.SetText(row.Next.Time().Format(app.dateLayout()))
			case config.ColIDCountdown:
				label.SetText(app.Countdown(row.DaysUntil))
			case config.ColIDAge:
				label.SetText(formatAge(row, app.birthLabel()))
			}
		},
	)

	// --- Header Configuration (Fyne Native) ---

	table.ShowHeaderRow = true
	table.CreateHeader = func() fyne.CanvasObject {
		return widget.NewButton("Header", func() {})
	}

	table.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		btn := o.(*widget.Button)

		var titleKey string
		switch id.Col {
		case config.ColIDName:
			titleKey = config.TKeyColName
		case config.ColIDDate:
			titleKey = config.TKeyColDate
		case config.ColIDCountdown:
			titleKey = config.TKeyColCountdown
		case config.ColIDAge:
			titleKey = config.TKeyColAge
		}

		text := app.GetMsg(titleKey)
		if id.Col == currentSortCol {
			if sortAsc {
				text += config.SortIconAsc
			} else {
				text += config.SortIconDesc
			}
		}
		btn.SetText(text)

		btn.OnTapped = func() {
			if currentSortCol == id.Col {
				sortAsc = !sortAsc
			} else {
				currentSortCol = id.Col
				sortAsc = true
			}
			refreshTable()
		}
	}

	table.SetColumnWidth(config.ColIDName, config.ColWidthName)
	table.SetColumnWidth(config.ColIDDate, config.ColWidthDate)
	table.SetColumnWidth(config.ColIDCountdown, config.ColWidthCountdown)
	table.SetColumnWidth(config.ColIDAge, config.ColWidthAge)

	refreshTable = func() {
		performSort()
		table.Refresh()
	}

	// --- Footer: summary & export ---

	summary := widget.NewLabel(app.rosterSummary(snap))
	summary.TextStyle = fyne.TextStyle{Italic: true}

	btnExport := widget.NewButtonWithIcon(app.GetMsg(config.TKeyMenuExport), theme.DocumentSaveIcon(), func() {
		app.exportCSV(w, snap)
	})
	if snap == nil {
		btnExport.Disable()
	}

	footer := container.NewBorder(nil, nil, nil, btnExport, summary)
	w.SetContent(container.NewBorder(nil, footer, nil, nil, table))

	w.SetOnClosed(func() {
		app.rosterWindow = nil
	})

	w.Show()
}

// exportCSV asks for a destination and writes the snapshot's members to it.
func (app *RosterApp) exportCSV(parent fyne.Window, snap *dashboard.Snapshot) {
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, parent)
			return
		}
		if wc == nil {
			return // Cancelled
		}
		defer wc.Close()

		if err := roster.WriteCSV(wc, snap.Members); err != nil {
			slog.Error(config.ErrCSVWrite, config.LogKeyComponent, config.CompUI, config.LogKeyError, err)
			dialog.ShowError(fmt.Errorf("%s: %w", config.ErrCSVWrite, err), parent)
			return
		}

		slog.Info(config.MsgExported,
			config.LogKeyComponent, config.CompUI,
			config.LogKeyFile, wc.URI().Path(),
			config.LogKeyCount, len(snap.Members))
		app.App.SendNotification(fyne.NewNotification(config.AppName, app.GetMsg(config.TKeyNotifExported)))
	}, parent)

	d.SetFileName(roster.CSVFileName(snap.Reference))
	d.Show()
}

// dateLayout returns the localized Go time layout for table dates.
func (app *RosterApp) dateLayout() string {
	layout := app.GetMsg(config.TKeyFormatDate)
	if layout == config.TKeyFormatDate {
		return config.DateFormatDisplay
	}
	return layout
}

func (app *RosterApp) birthLabel() string {
	text := app.GetMsg(config.TKeyAgeBirth)
	if text == config.TKeyAgeBirth {
		return config.FallbackAgeBirth
	}
	return text
}

// rosterSummary renders the member and event totals shown under the table.
func (app *RosterApp) rosterSummary(snap *dashboard.Snapshot) string {
	if snap == nil {
		return config.HTTPMsgInitializing
	}
	data := map[string]interface{}{
		"Total":  snap.TotalMembers,
		"Recent": snap.RecentMembers,
		"Events": snap.UpcomingEvents,
	}
	if msg, ok := app.localize(config.TKeyLblRosterSummary, data, nil); ok {
		return msg
	}
	return fmt.Sprintf(config.FallbackRosterSummary, snap.TotalMembers, snap.RecentMembers, snap.UpcomingEvents)
}

// -----------------------------------------------------------------------------
// Table logic
// -----------------------------------------------------------------------------

// sortOccurrences orders rows in place by the given column.
// Ties always fall back to the case-insensitive name so the order is stable.
func sortOccurrences(rows []engine.Occurrence, col int, asc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]

		// Unknown ages sink to the bottom whatever the direction.
		if col == config.ColIDAge {
			ak, bk := a.Person.Birthday.YearKnown(), b.Person.Birthday.YearKnown()
			if ak != bk {
				return ak
			}
		}

		var cmp int
		switch col {
		case config.ColIDName:
			cmp = strings.Compare(strings.ToLower(a.Person.Name), strings.ToLower(b.Person.Name))
		case config.ColIDAge:
			cmp = a.AgeNext - b.AgeNext
		default: // Date and countdown share the same order
			cmp = a.Next.Compare(b.Next)
		}

		if cmp == 0 {
			return strings.ToLower(a.Person.Name) < strings.ToLower(b.Person.Name)
		}
		if asc {
			return cmp < 0
		}
		return cmp > 0
	})
}

// formatAge renders the age transition of an occurrence, e.g. "25 → 26".
func formatAge(o engine.Occurrence, birth string) string {
	if !o.Person.Birthday.YearKnown() {
		return config.AgeUnknown
	}
	switch o.AgeNext {
	case 0:
		return config.AgeBirth
	case 1:
		return fmt.Sprintf(config.FormatAgeTransitionBirth, birth, o.AgeNext)
	default:
		return fmt.Sprintf(config.FormatAgeTransition, o.AgeNext-1, o.AgeNext)
	}
}
