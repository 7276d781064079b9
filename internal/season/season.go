// Package season maps dates onto the quarterly release buckets used by the
// listing API. A season starts in January, April, July or October and is
// rendered as "YYYY-M" without zero padding, e.g. "2024-7".
package season

import (
	"fmt"
	"time"
)

var quarterStarts = [...]time.Month{time.January, time.April, time.July, time.October}

// Season identifies one quarterly bucket.
type Season struct {
	Year  int
	Month time.Month
}

// Current returns the season containing t.
func Current(t time.Time) Season {
	month := quarterStarts[0]
	for _, start := range quarterStarts {
		if start <= t.Month() {
			month = start
		}
	}
	return Season{Year: t.Year(), Month: month}
}

// Previous returns the season before s. January rolls back to October of the
// prior year.
func Previous(s Season) Season {
	if s.Month <= time.March {
		return Season{Year: s.Year - 1, Month: time.October}
	}
	return Season{Year: s.Year, Month: s.Month - 3}
}

// Window returns the seasons scanned by a full run, current first.
func Window(t time.Time) []Season {
	current := Current(t)
	return []Season{current, Previous(current)}
}

func (s Season) String() string {
	return fmt.Sprintf("%d-%d", s.Year, int(s.Month))
}
