package http

import (
	"mayfinance/internal/core"
)

// Chart geometry in SVG user units.
const (
	chartHeight   = 220
	chartPlot     = 180 // bars live in [chartTop, chartTop+chartPlot]
	chartTop      = 10
	chartBarWidth = 14
	chartGroupGap = 12
	chartLeft     = 8
)

type chartBar struct {
	X, Y, W, H int
	Class      string
	Title      string
}

type chartLabel struct {
	X, Y int
	Text string
}

// dailyChart is a grouped bar chart: one group per day, one bar per type.
type dailyChart struct {
	Width  int
	Height int
	Bars   []chartBar
	Labels []chartLabel
	Max    string
}

func (c dailyChart) Empty() bool {
	return len(c.Bars) == 0
}

// buildDailyChart lays out points, which arrive date ascending with Income
// before Expense within a date.
func buildDailyChart(points []core.DailyPoint) dailyChart {
	if len(points) == 0 {
		return dailyChart{}
	}

	var maxCents int64
	var dates []string
	seen := make(map[string]int)
	for _, p := range points {
		if p.Amount.Cents > maxCents {
			maxCents = p.Amount.Cents
		}
		d := p.Date.String()
		if _, ok := seen[d]; !ok {
			seen[d] = len(dates)
			dates = append(dates, d)
		}
	}

	types := core.Types()
	groupWidth := len(types)*chartBarWidth + chartGroupGap
	c := dailyChart{
		Width:  chartLeft*2 + len(dates)*groupWidth,
		Height: chartHeight,
		Max:    formatRupiah(core.Money{Cents: maxCents}),
	}

	for _, p := range points {
		group := seen[p.Date.String()]
		h := 0
		if maxCents > 0 {
			h = int(float64(p.Amount.Cents) / float64(maxCents) * chartPlot)
			if h == 0 && p.Amount.Cents > 0 {
				h = 1
			}
		}
		class := "bar-expense"
		if p.Type == core.Income {
			class = "bar-income"
		}
		c.Bars = append(c.Bars, chartBar{
			X:     chartLeft + group*groupWidth + p.Type.Rank()*chartBarWidth,
			Y:     chartTop + chartPlot - h,
			W:     chartBarWidth - 2,
			H:     h,
			Class: class,
			Title: p.Date.String() + " " + p.Type.String() + ": " + formatRupiah(p.Amount),
		})
	}
	for i, d := range dates {
		c.Labels = append(c.Labels, chartLabel{
			X:    chartLeft + i*groupWidth + len(types)*chartBarWidth/2,
			Y:    chartTop + chartPlot + 18,
			Text: d[5:], // MM-DD
		})
	}
	return c
}
