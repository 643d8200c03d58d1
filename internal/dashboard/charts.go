// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package dashboard

import (
	"fmt"
	"time"

	"github.com/tomtom215/qrpulse/internal/analytics"
	"github.com/tomtom215/qrpulse/internal/models"
)

// Bar is one bar of a histogram. Height is a percentage of the tallest bar.
type Bar struct {
	Label     string  `json:"label"`
	Value     int     `json:"value"`
	Height    float64 `json:"height"`
	IsCurrent bool    `json:"isCurrent"`
}

type Chart struct {
	Bars  []Bar `json:"bars"`
	Max   int   `json:"max"`
	Total int   `json:"total"`
}

// HourlyChart renders the 24 hour buckets labelled "00" to "23". The current
// hour is only highlighted when mounted.
func HourlyChart(view *models.LiveAggregateView, rc RenderContext) Chart {
	labels := make([]string, 24)
	for h := range labels {
		labels[h] = fmt.Sprintf("%02d", h)
	}
	current := -1
	if rc.Mounted {
		current = view.CurrentHour
	}
	return barChart(view.Hourly[:], labels, current)
}

// WeeklyChart renders the weekday buckets Sun to Sat.
func WeeklyChart(view *models.LiveAggregateView) Chart {
	labels := make([]string, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		labels[d] = d.String()[:3]
	}
	return barChart(view.Daily[:], labels, -1)
}

func barChart(values []int, labels []string, current int) Chart {
	c := Chart{Bars: make([]Bar, len(values))}
	for _, v := range values {
		if v > c.Max {
			c.Max = v
		}
		c.Total += v
	}
	for i, v := range values {
		c.Bars[i] = Bar{
			Label:     labels[i],
			Value:     v,
			Height:    analytics.Percent(int64(v), int64(c.Max)),
			IsCurrent: i == current,
		}
	}
	return c
}

// Row is one line of a breakdown table.
type Row struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Breakdown adds a share of total to each count. A zero total gives 0%.
func Breakdown(counts []models.Count, total int64) []Row {
	rows := make([]Row, 0, len(counts))
	for _, c := range counts {
		label := c.Label
		if label == "" {
			label = c.Key
		}
		rows = append(rows, Row{
			Key:     c.Key,
			Label:   label,
			Count:   c.Count,
			Percent: analytics.Percent(int64(c.Count), total),
		})
	}
	return rows
}

// BreakdownMap is Breakdown for the map-shaped summaries the analytics API
// returns, ordered by count descending then key.
func BreakdownMap(m map[string]int64, total int64) []Row {
	counts := make(map[string]int, len(m))
	for k, v := range m {
		counts[k] = int(v)
	}
	return Breakdown(analytics.SortCounts(counts, 0), total)
}
