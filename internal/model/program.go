package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Program mirrors the `fitness_programs` table. CreatedBy is nil for
// catalogue programs that were imported rather than authored through the API.
type Program struct {
	ID             uint64
	Title          string
	Description    string
	Levels         []string
	Goals          []string
	Equipment      string
	ProgramLength  float64 // weeks
	TimePerWorkout float64 // minutes
	TotalExercises int
	CreatedBy      *uint64
	Creator        *Creator // populated on reads
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Creator is the slice of the owning user that program responses expose.
type Creator struct {
	ID        uint64
	Username  string
	FirstName *string
	LastName  *string
}

// DisplayName returns the creator's full name, or their username.
func (c Creator) DisplayName() string {
	return User{Username: c.Username, FirstName: c.FirstName, LastName: c.LastName}.DisplayName()
}

// Owner returns the id of the user that created the program.
func (p Program) Owner() *uint64 { return p.CreatedBy }

// IsPublic reports whether the program has no owner.
func (p Program) IsPublic() bool { return p.CreatedBy == nil }

// WeeklyPlanEntry is one day of a program's weekly schedule.
type WeeklyPlanEntry struct {
	ID        uint64
	ProgramID uint64
	DayOfWeek string // short code such as MON
	Content   string
}

var dayCodes = map[string]string{
	"MON": "MON", "MONDAY": "MON",
	"TUE": "TUE", "TUESDAY": "TUE",
	"WED": "WED", "WEDNESDAY": "WED",
	"THU": "THU", "THURSDAY": "THU",
	"FRI": "FRI", "FRIDAY": "FRI",
	"SAT": "SAT", "SATURDAY": "SAT",
	"SUN": "SUN", "SUNDAY": "SUN",
}

// NormalizeDay maps a day name or short code to its short code.
func NormalizeDay(s string) (string, bool) {
	d, ok := dayCodes[strings.ToUpper(strings.TrimSpace(s))]
	return d, ok
}

// EncodeTags serializes a tag list for storage as a JSON array. Characters
// such as & are kept literal so LIKE searches over the column see them.
func EncodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(tags)
	return strings.TrimSuffix(buf.String(), "\n")
}

// DecodeTags reads a stored tag list. Besides JSON arrays it accepts the
// bracketed, single-quoted form produced by the legacy CSV export
// ("['Beginner', 'Intermediate']") and a bare comma-separated list.
func DecodeTags(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}
	var out []string
	if strings.HasPrefix(s, "[") && json.Unmarshal([]byte(s), &out) == nil {
		return out
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	out = []string{}
	for _, p := range strings.Split(s, ",") {
		p = strings.Trim(strings.TrimSpace(p), `'"`)
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
