package booking

import (
	"context"
	"strconv"
	"strings"
	"time"

	"digitrack/pkg/models"
)

const (
	DefaultYearRange = 5
	DefaultMinYear   = 2024
	maxYearRange     = 100
)

// ParseSource maps the source query parameter to a booking source. An empty
// value selects registrations; "all" disables the filter.
func ParseSource(s string) (models.BookingSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(models.SourceRegistration):
		return models.SourceRegistration, nil
	case string(models.SourceCalendar):
		return models.SourceCalendar, nil
	case "all":
		return "", nil
	}
	return "", ErrInvalidSource
}

// StatsQuery selects the bookings summed by AggregateGuestCounts. Yearly
// totals cover [FromYear, ToYear]; monthly totals cover Year.
type StatsQuery struct {
	HomestayID *uint
	Source     models.BookingSource
	Year       int
	FromYear   int
	ToYear     int
}

// TrailingWindow is the query for the yearRange years ending at year.
func TrailingWindow(year, yearRange int) (StatsQuery, error) {
	if yearRange <= 0 || yearRange > maxYearRange {
		return StatsQuery{}, ErrInvalidYearRange
	}
	return StatsQuery{Year: year, FromYear: year - yearRange + 1, ToYear: year}, nil
}

type GuestCounts struct {
	Year     int
	FromYear int
	ToYear   int
	Monthly  [12]int
	Yearly   map[int]int
}

func (g GuestCounts) YearRange() int {
	return g.ToYear - g.FromYear + 1
}

// MonthlyByName keys monthly totals by abbreviated month name.
func (g GuestCounts) MonthlyByName() map[string]int {
	out := make(map[string]int, 12)
	for i, n := range g.Monthly {
		out[time.Month(i + 1).String()[:3]] = n
	}
	return out
}

// YearlyByName keys yearly totals by the decimal year.
func (g GuestCounts) YearlyByName() map[string]int {
	out := make(map[string]int, len(g.Yearly))
	for y, n := range g.Yearly {
		out[strconv.Itoa(y)] = n
	}
	return out
}

// AggregateGuestCounts sums num_people over matching bookings by month of
// q.Year and by year of [q.FromYear, q.ToYear]. Empty buckets are zero.
func (s *Service) AggregateGuestCounts(ctx context.Context, q StatsQuery) (GuestCounts, error) {
	if q.Year <= 0 {
		q.Year = s.today().Year()
	}
	if q.FromYear == 0 && q.ToYear == 0 {
		q.FromYear, q.ToYear = q.Year, q.Year
	}
	if q.ToYear < q.FromYear || q.ToYear-q.FromYear >= maxYearRange {
		return GuestCounts{}, ErrInvalidYearRange
	}

	lo, hi := q.FromYear, q.ToYear
	if q.Year < lo {
		lo = q.Year
	}
	if q.Year > hi {
		hi = q.Year
	}
	bookings, err := s.repo.FindBookings(ctx, BookingFilter{
		HomestayID:     q.HomestayID,
		From:           time.Date(lo, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:             time.Date(hi, time.December, 31, 0, 0, 0, 0, time.UTC),
		Source:         q.Source,
		PositivePeople: true,
	})
	if err != nil {
		return GuestCounts{}, err
	}

	counts := GuestCounts{
		Year:     q.Year,
		FromYear: q.FromYear,
		ToYear:   q.ToYear,
		Yearly:   make(map[int]int, q.ToYear-q.FromYear+1),
	}
	for y := q.FromYear; y <= q.ToYear; y++ {
		counts.Yearly[y] = 0
	}
	for _, b := range bookings {
		if b.NumPeople == nil || *b.NumPeople <= 0 {
			continue
		}
		y := b.Date.Year()
		if y == q.Year {
			counts.Monthly[b.Date.Month()-1] += *b.NumPeople
		}
		if _, ok := counts.Yearly[y]; ok {
			counts.Yearly[y] += *b.NumPeople
		}
	}
	return counts, nil
}

// OwnerGuestCounts reports the owner's homestay from the stats floor year
// through the later of year and the last booked year.
func (s *Service) OwnerGuestCounts(ctx context.Context, ownerID uint, year int, source models.BookingSource) (GuestCounts, error) {
	h, err := s.repo.HomestayByOwner(ctx, ownerID)
	if err != nil {
		return GuestCounts{}, err
	}
	if year <= 0 {
		year = s.today().Year()
	}
	maxYear := year
	latest, ok, err := s.repo.LatestBookingDate(ctx, h.ID)
	if err != nil {
		return GuestCounts{}, err
	}
	if ok && latest.Year() > maxYear {
		maxYear = latest.Year()
	}
	minYear := s.minYear
	if minYear > maxYear {
		minYear = maxYear
	}
	return s.AggregateGuestCounts(ctx, StatsQuery{
		HomestayID: &h.ID,
		Source:     source,
		Year:       year,
		FromYear:   minYear,
		ToYear:     maxYear,
	})
}

// HomestayGuestTotals sums guests of every source per homestay.
func (s *Service) HomestayGuestTotals(ctx context.Context) (map[uint]int, error) {
	return s.repo.GuestTotals(ctx)
}
