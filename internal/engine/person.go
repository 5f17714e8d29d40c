package engine

import "time"

// Person is the slice of a member record the scheduling logic reads.
// Records are owned by the roster; the engine only ever sees copies.
type Person struct {
	// ID is an opaque identifier, stable for the lifetime of the record.
	ID string

	// Name is the display name.
	Name string

	// Email is optional and only carried through for greetings and exports.
	Email string

	// Birthday is the recurring date. The zero Date means it is absent.
	Birthday Date

	// CreatedAt is when the member was registered, if known.
	CreatedAt time.Time
}

// Occurrence pairs a person with the next date their birthday falls on.
type Occurrence struct {
	Person Person

	// Next is the soonest date on or after the reference day sharing the birthday's month/day.
	Next Date

	// DaysUntil is the number of days from the reference day to Next.
	DaysUntil int

	// AgeNext is the age the person turns on Next. Only valid if the birth year is known.
	AgeNext int
}

// NextBirthday answers "whose birthday is literally next".
type NextBirthday struct {
	// People holds everyone sharing the nearest occurrence.
	People []Person

	// Next is the nearest occurrence; zero when People is empty.
	Next Date

	// DaysUntil is the day count used to build Label.
	DaysUntil int

	// Label is the English countdown ("Today", "1 day to go", "n days to go").
	Label string
}

// Empty reports whether no one has a usable birthday.
func (n NextBirthday) Empty() bool {
	return len(n.People) == 0
}
