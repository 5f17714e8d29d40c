package roster

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-roster/internal/config"
	"github.com/tartampluch/go-roster/internal/engine"
)

// decodeVCards reads every card of a vCard collection.
// Malformed cards are logged and skipped to maximize data recovery.
func decodeVCards(ctx context.Context, data []byte) ([]engine.Person, error) {
	decoder := vcard.NewDecoder(bytes.NewReader(data))
	var members []engine.Person

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompRoster,
				config.LogKeyError, err)
			continue
		}

		members = append(members, personFromCard(card))
	}

	return members, nil
}

// personFromCard maps a vCard onto a member record.
func personFromCard(card vcard.Card) engine.Person {
	// Name Strategy: FN (Formatted) > N (Structured) > Fallback
	name := config.FallbackName
	if fn := card.Get(config.VCardFN); fn != nil && fn.Value != "" {
		name = fn.Value
	} else if n := card.Name(); n != nil {
		if joined := strings.TrimSpace(n.GivenName + " " + n.FamilyName); joined != "" {
			name = joined
		}
	}

	rawBday := ""
	if bday := card.Get(config.VCardBDAY); bday != nil {
		rawBday = bday.Value
	}

	id := ""
	if uid := card.Get(config.VCardUID); uid != nil {
		id = strings.TrimSpace(uid.Value)
	}
	if id == "" {
		id = recordID(name, rawBday)
	}

	p := engine.Person{
		ID:       id,
		Name:     name,
		Email:    card.PreferredValue(config.VCardEmail),
		Birthday: normalizeBirthday(id, rawBday),
	}

	// REV is the best registration-time proxy a vCard offers.
	if rev := card.Get(config.VCardREV); rev != nil {
		p.CreatedAt = parseRevision(rev.Value)
	}
	return p
}

func parseRevision(value string) time.Time {
	for _, layout := range []string{config.DateFormatREVBasic, time.RFC3339, config.DateFormatFullDash} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
