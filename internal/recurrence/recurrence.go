// Package recurrence описывает расписания пользовательских рассылок.
//
// Выражение разбирается один раз при создании правила в один из вариантов
// Hourly, Daily, Weekly или Monthly. Проверка Due работает с точностью до минуты:
// правило подходит на каждом тике внутри совпавшей минуты, от повторной
// отправки защищает только интервал антидребезга у вызывающего.
package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Frequency частота повторения.
type Frequency string

const (
	FrequencyHourly  Frequency = "hourly"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ErrInvalidExpression выражение расписания не соответствует грамматике частоты.
var ErrInvalidExpression = errors.New("invalid schedule expression")

// Schedule разобранное расписание.
type Schedule interface {
	// Due сообщает, совпадает ли now с расписанием.
	Due(now time.Time) bool
	Frequency() Frequency
	// String возвращает каноническое выражение, которое хранится в базе.
	String() string
}

// Clock время суток с точностью до минуты.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) matches(now time.Time) bool {
	return now.Hour() == c.Hour && now.Minute() == c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Hourly срабатывает каждый час в заданную минуту.
type Hourly struct {
	Minute int
}

func (h Hourly) Due(now time.Time) bool { return now.Minute() == h.Minute }
func (h Hourly) Frequency() Frequency   { return FrequencyHourly }
func (h Hourly) String() string         { return strconv.Itoa(h.Minute) }

// Daily срабатывает каждый день в заданное время.
type Daily struct {
	At Clock
}

func (d Daily) Due(now time.Time) bool { return d.At.matches(now) }
func (d Daily) Frequency() Frequency   { return FrequencyDaily }
func (d Daily) String() string         { return d.At.String() }

// Weekly срабатывает в заданный день недели.
type Weekly struct {
	Day time.Weekday
	At  Clock
}

func (w Weekly) Due(now time.Time) bool { return now.Weekday() == w.Day && w.At.matches(now) }
func (w Weekly) Frequency() Frequency   { return FrequencyWeekly }
func (w Weekly) String() string         { return w.Day.String() + " " + w.At.String() }

// Monthly срабатывает в заданный день месяца. День 31 в коротких месяцах не наступает.
type Monthly struct {
	Day int
	At  Clock
}

func (m Monthly) Due(now time.Time) bool { return now.Day() == m.Day && m.At.matches(now) }
func (m Monthly) Frequency() Frequency   { return FrequencyMonthly }
func (m Monthly) String() string         { return strconv.Itoa(m.Day) + " " + m.At.String() }

// Parse разбирает выражение расписания для заданной частоты.
//
//	hourly   "15"
//	daily    "09:30"
//	weekly   "Monday 09:30"
//	monthly  "1 09:30"
func Parse(freq string, expr string) (Schedule, error) {
	expr = strings.TrimSpace(expr)
	switch Frequency(strings.ToLower(strings.TrimSpace(freq))) {
	case FrequencyHourly:
		m, err := parseRange(expr, 0, 59)
		if err != nil {
			return nil, invalid(freq, expr, err)
		}
		return Hourly{Minute: m}, nil
	case FrequencyDaily:
		at, err := parseClock(expr)
		if err != nil {
			return nil, invalid(freq, expr, err)
		}
		return Daily{At: at}, nil
	case FrequencyWeekly:
		day, rest, err := splitPrefix(expr)
		if err != nil {
			return nil, invalid(freq, expr, err)
		}
		wd, err := parseWeekday(day)
		if err != nil {
			return nil, invalid(freq, expr, err)
		}
		at, err := parseClock(rest)
		if err != nil {
			return nil, invalid(freq, expr, err)
		}
		return Weekly{Day: wd, At: at}, nil
	case FrequencyMonthly:
		day, rest, err := splitPrefix(expr)
		if err != nil {
			return nil, invalid(freq, expr, err)
		}
		d, err := parseRange(day, 1, 31)
		if err != nil {
			return nil, invalid(freq, expr, err)
		}
		at, err := parseClock(rest)
		if err != nil {
			return nil, invalid(freq, expr, err)
		}
		return Monthly{Day: d, At: at}, nil
	default:
		return nil, fmt.Errorf("%w: unknown frequency %q", ErrInvalidExpression, freq)
	}
}

func invalid(freq, expr string, err error) error {
	return fmt.Errorf("%w: %s %q: %v", ErrInvalidExpression, freq, expr, err)
}

func splitPrefix(expr string) (string, string, error) {
	fields := strings.Fields(expr)
	if len(fields) != 2 {
		return "", "", errors.New("expected two space separated parts")
	}
	return fields[0], fields[1], nil
}

func parseRange(s string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("must be between %d and %d", lo, hi)
	}
	return n, nil
}

func parseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(mm) != 2 || hh == "" || len(hh) > 2 {
		return Clock{}, errors.New("expected HH:MM")
	}
	h, err := parseRange(hh, 0, 23)
	if err != nil {
		return Clock{}, fmt.Errorf("hour %w", err)
	}
	m, err := parseRange(mm, 0, 59)
	if err != nil {
		return Clock{}, fmt.Errorf("minute %w", err)
	}
	return Clock{Hour: h, Minute: m}, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
