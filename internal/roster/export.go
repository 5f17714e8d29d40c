package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/tartampluch/go-roster/internal/config"
	"github.com/tartampluch/go-roster/internal/engine"
)

// WriteCSV dumps the members as comma-separated text, header first.
// Absent birthdays and registration times are written as empty cells.
func WriteCSV(w io.Writer, people []engine.Person) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(config.CSVHeader); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCSVWrite, err)
	}

	for _, p := range people {
		birthday := ""
		if !p.Birthday.IsZero() {
			birthday = p.Birthday.String()
		}
		created := ""
		if !p.CreatedAt.IsZero() {
			created = p.CreatedAt.UTC().Format(time.RFC3339)
		}
		if err := cw.Write([]string{p.ID, p.Name, p.Email, birthday, created}); err != nil {
			return fmt.Errorf("%s: %w", config.ErrCSVWrite, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCSVWrite, err)
	}
	return nil
}

// CSVFileName returns the download name for an export made on day.
func CSVFileName(day engine.Date) string {
	return fmt.Sprintf(config.CSVFilePattern, day.String())
}
