package library

import "time"

// dateLayout is how calendar dates are stored in the database, matching the
// ISO form the rest of the records use.
const dateLayout = "2006-01-02"

// DateOnly truncates t to midnight UTC. All circulation and membership rules
// operate on whole calendar dates.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the number of whole days from "from" to "to". Negative
// when "to" precedes "from". Both arguments must already be date-truncated.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func formatDate(t time.Time) string { return t.Format(dateLayout) }

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}
