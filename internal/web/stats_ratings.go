package web

import (
	"errors"
	"log"
	"math"
	"net/http"
	"ratemycompany/internal/back"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var errNotEnoughData = errors.New("not enough data to draw a chart")

// statsRatings renders the distribution of company ratings.
func (s *Server) statsRatings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { log.Printf("debug: computed ratings stats in %s", time.Since(start)) }()

	entries, err := s.back.GetLeaderboard(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	bars, maxValue, err := getRatingsStats(entries, chart.Style{
		FontColor:   drawing.ColorBlack,
		FillColor:   drawing.ColorFromHex("285577"),
		StrokeColor: drawing.ColorFromHex("4c7899"),
		StrokeWidth: 1,
	})
	if err != nil {
		response(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	graph := chart.BarChart{
		Height:     300,
		Width:      600,
		BarSpacing: 4,
		Canvas:     chart.Style{FillColor: chart.ColorTransparent},
		Background: chart.Style{
			FillColor: chart.ColorTransparent,
		},
		YAxis: chart.YAxis{
			Ticks: []chart.Tick{
				{Value: 0, Label: "0%"},
				{Value: maxValue, Label: strconv.Itoa(int(math.Round(maxValue*100))) + "%"},
			},
		},
		Bars: bars,
	}
	graph.BarWidth = (graph.Width - (len(bars) * graph.BarSpacing)) / len(bars)

	s.cache(w, "public", 1*time.Hour)
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := graph.Render(chart.SVG, w); err != nil {
		s.error(w, r, err, http.StatusInternalServerError)
		return
	}
}

// getRatingsStats bins ratings by 100 points, values are the share of
// companies in each bin.
func getRatingsStats(
	entries []back.LeaderboardEntry,
	barStyle chart.Style,
) (
	[]chart.Value, float64, error,
) {
	if len(entries) == 0 {
		return nil, 0, errNotEnoughData
	}

	binWidth := 100 // width in rating units

	bins := make(map[int]int, 20)
	minBin, maxBin := math.MaxInt64, math.MinInt64
	maxValue := 0

	for k := range entries {
		r := int(math.Round(entries[k].Rating/float64(binWidth)) * float64(binWidth))
		bins[r]++
		if r < minBin {
			minBin = r
		}
		if r > maxBin {
			maxBin = r
		}

		if bins[r] > maxValue {
			maxValue = bins[r]
		}
	}

	bars := make([]chart.Value, 0, len(bins))
	for i := minBin; i <= maxBin; i += binWidth {
		bars = append(bars, chart.Value{
			Value: float64(bins[i]) / float64(len(entries)),
			Label: strconv.Itoa(i),
			Style: barStyle,
		})
	}

	return bars, float64(maxValue) / float64(len(entries)), nil
}

// getCompanyHistoryChart renders the latest ratings of a company.
func (s *Server) getCompanyHistoryChart(w http.ResponseWriter, r *http.Request) {
	points, err := s.back.GetRatingHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	series, yRange, err := getRatingHistorySeries(points)
	if err != nil {
		response(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	graph := chart.Chart{
		Height:     300,
		Width:      600,
		Canvas:     chart.Style{FillColor: chart.ColorTransparent},
		Background: chart.Style{FillColor: chart.ColorTransparent},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Range: yRange,
		},
		Series: []chart.Series{series},
	}

	s.cache(w, "public", 1*time.Minute)
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := graph.Render(chart.SVG, w); err != nil {
		s.error(w, r, err, http.StatusInternalServerError)
		return
	}
}

// getRatingHistorySeries returns the rating series and a Y range padded so a
// flat series can still be drawn.
func getRatingHistorySeries(
	points []back.RatingHistoryPoint,
) (
	chart.TimeSeries, *chart.ContinuousRange, error,
) {
	if len(points) < 2 {
		return chart.TimeSeries{}, nil, errNotEnoughData
	}

	series := chart.TimeSeries{
		Name: "Rating",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("285577"),
			StrokeWidth: 2,
		},
		XValues: make([]time.Time, len(points)),
		YValues: make([]float64, len(points)),
	}

	yRange := &chart.ContinuousRange{Min: math.Inf(1), Max: math.Inf(-1)}
	for k, v := range points {
		series.XValues[k] = v.CreatedAt.Time()
		series.YValues[k] = v.Rating
		yRange.Min = math.Min(yRange.Min, v.Rating)
		yRange.Max = math.Max(yRange.Max, v.Rating)
	}
	yRange.Min -= 10
	yRange.Max += 10

	return series, yRange, nil
}
