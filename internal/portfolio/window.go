package portfolio

import (
	"fmt"
	"strconv"
	"strings"
)

// Window is a lookback horizon in calendar days.
type Window int

// DefaultWindow is the window selected when nothing else was chosen.
const DefaultWindow Window = 30

// Windows lists the selectable lookback horizons in ascending order.
var Windows = []Window{7, 30, 90, 180, 365, 730, 1095, 1460, 1825, 2190, 2555, 2920, 3285, 3650}

// Days returns the window as a plain day count.
func (w Window) Days() int { return int(w) }

// Valid reports whether w is one of the selectable windows.
func (w Window) Valid() bool {
	for _, v := range Windows {
		if v == w {
			return true
		}
	}
	return false
}

// Label returns the human label shown in period selectors.
func (w Window) Label() string {
	switch {
	case w == 7:
		return "1 Week"
	case w == 30:
		return "1 Month"
	case w == 90:
		return "3 Months"
	case w == 180:
		return "6 Months"
	case w == 365:
		return "1 Year"
	case w > 365 && w%365 == 0:
		return fmt.Sprintf("%d Years", w/365)
	default:
		return fmt.Sprintf("%d Days", int(w))
	}
}

func (w Window) String() string { return strconv.Itoa(int(w)) + "d" }

// ParseWindow accepts either a day count ("90") or a shorthand
// ("1w", "1m", "3m", "6m", "1y" ... "10y"). The result must be one of Windows.
func ParseWindow(s string) (Window, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultWindow, nil
	}

	var w Window
	switch {
	case strings.HasSuffix(s, "d"):
		n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid window %q", s)
		}
		w = Window(n)
	case strings.HasSuffix(s, "w"):
		n, err := strconv.Atoi(strings.TrimSuffix(s, "w"))
		if err != nil {
			return 0, fmt.Errorf("invalid window %q", s)
		}
		w = Window(n * 7)
	case strings.HasSuffix(s, "m"):
		n, err := strconv.Atoi(strings.TrimSuffix(s, "m"))
		if err != nil {
			return 0, fmt.Errorf("invalid window %q", s)
		}
		w = Window(n * 30)
	case strings.HasSuffix(s, "y"):
		n, err := strconv.Atoi(strings.TrimSuffix(s, "y"))
		if err != nil {
			return 0, fmt.Errorf("invalid window %q", s)
		}
		w = Window(n * 365)
	default:
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid window %q (use a day count or 1w, 1m, 3m, 6m, 1y..10y)", s)
		}
		w = Window(n)
	}

	if !w.Valid() {
		return 0, fmt.Errorf("unsupported window %s", w)
	}
	return w, nil
}
