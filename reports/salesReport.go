package reports

import (
	"time"

	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// MaxRangeDays bounds a report range, both ends included.
const MaxRangeDays = 366

type DaySales struct {
	Date    string          `json:"date"`
	Total   decimal.Decimal `json:"total"`
	Tickets int             `json:"tickets"`
}

type SalesReport struct {
	From          string          `json:"from"`
	To            string          `json:"to"`
	Days          []DaySales      `json:"days"`
	Total         decimal.Decimal `json:"total"`
	Tickets       int             `json:"tickets"`
	AveragePerDay decimal.Decimal `json:"average_per_day"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	BestDay       *DaySales       `json:"best_day"`
	Today         DaySales        `json:"today"`
	// reservations are counted in the totals above and broken out here
	PendingCount int             `json:"pending_count"`
	PendingTotal decimal.Decimal `json:"pending_total"`
}

// DayStart truncates t to midnight in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DefaultRange is the last seven days ending today.
func DefaultRange(now time.Time, loc *time.Location) (time.Time, time.Time) {
	to := DayStart(now, loc)
	return to.AddDate(0, 0, -6), to
}

// BuildSalesReport buckets sales by day between from and to inclusive, every day listed.
// Sales outside the range only count towards Today.
func BuildSalesReport(sales []*models.Sale, from time.Time, to time.Time, now time.Time, loc *time.Location) SalesReport {
	from, to = DayStart(from, loc), DayStart(to, loc)
	if to.Before(from) {
		from, to = to, from
	}
	todayKey := now.In(loc).Format(DateLayout)

	report := SalesReport{
		From:          from.Format(DateLayout),
		To:            to.Format(DateLayout),
		Total:         decimal.Zero,
		AveragePerDay: decimal.Zero,
		AverageTicket: decimal.Zero,
		PendingTotal:  decimal.Zero,
		Today:         DaySales{Date: todayKey, Total: decimal.Zero},
	}

	index := map[string]int{}
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(DateLayout)
		index[key] = len(report.Days)
		report.Days = append(report.Days, DaySales{Date: key, Total: decimal.Zero})
	}

	for _, sale := range sales {
		key := sale.CreatedAt.In(loc).Format(DateLayout)
		if key == todayKey {
			report.Today.Total = report.Today.Total.Add(sale.Total)
			report.Today.Tickets++
		}
		i, ok := index[key]
		if !ok {
			continue
		}
		report.Days[i].Total = report.Days[i].Total.Add(sale.Total)
		report.Days[i].Tickets++
		report.Total = report.Total.Add(sale.Total)
		report.Tickets++
		if sale.IsReservation() {
			report.PendingCount++
			report.PendingTotal = report.PendingTotal.Add(sale.Total)
		}
	}

	if n := len(report.Days); n > 0 {
		report.AveragePerDay = report.Total.Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	if report.Tickets > 0 {
		report.AverageTicket = report.Total.Div(decimal.NewFromInt(int64(report.Tickets))).Round(2)
	}
	for i := range report.Days {
		if report.Days[i].Tickets == 0 {
			continue
		}
		if report.BestDay == nil || report.Days[i].Total.GreaterThan(report.BestDay.Total) {
			best := report.Days[i]
			report.BestDay = &best
		}
	}
	return report
}
