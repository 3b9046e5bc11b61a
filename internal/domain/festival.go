package domain

// FestivalWindow summarizes the festival calendar around a reference day.
type FestivalWindow struct {
	FestivalToday bool `json:"festival_today"`
	// HighRiskWindow is set when a high-risk festival falls within the
	// look-ahead window, today included.
	HighRiskWindow   bool           `json:"high_risk_window"`
	UpcomingCount    int            `json:"upcoming_count"`
	UpcomingHighRisk int            `json:"upcoming_high_risk"`
	Next             *FestivalEvent `json:"next,omitempty"`
	// DaysToNext is only meaningful when Next is set.
	DaysToNext int `json:"days_to_next"`
}

// Window computes the festival features of today. Events without a date are
// ignored; past events only matter when they fall on today.
func (p FestivalParams) Window(festivals []FestivalEvent, today Date) FestivalWindow {
	var w FestivalWindow
	for i := range festivals {
		f := festivals[i]
		if f.Date.IsZero() {
			continue
		}
		days := today.DaysUntil(f.Date)
		if days < 0 {
			continue
		}
		high := f.IsHighRisk(p.Keywords)
		if days == 0 {
			w.FestivalToday = true
		}
		if days <= p.WindowDays {
			w.UpcomingCount++
			if high {
				w.UpcomingHighRisk++
				w.HighRiskWindow = true
			}
		}
		if w.Next == nil || days < w.DaysToNext {
			w.Next = &f
			w.DaysToNext = days
		}
	}
	return w
}

// NearestHighRisk returns the absolute distance in days from day to the
// closest high-risk festival. ok is false when there is none.
func (p FestivalParams) NearestHighRisk(festivals []FestivalEvent, day Date) (distance int, ok bool) {
	for _, f := range festivals {
		if f.Date.IsZero() || !f.IsHighRisk(p.Keywords) {
			continue
		}
		d := day.DaysUntil(f.Date)
		if d < 0 {
			d = -d
		}
		if !ok || d < distance {
			distance, ok = d, true
		}
	}
	return distance, ok
}
