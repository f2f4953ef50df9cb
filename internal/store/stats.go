package store

import (
	"context"
	"time"

	"CampusSOS/internal/models"
	apperrors "CampusSOS/pkg/errors"
)

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type HourCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// Stats is the dashboard aggregate: totals, today's outcomes, a 24h
// hourly histogram and the mean time from creation to resolution.
type Stats struct {
	Total                int64         `json:"total"`
	Active               int64         `json:"active"`
	ResolvedToday        int64         `json:"resolvedToday"`
	FalseAlarmsToday     int64         `json:"falseAlarmsToday"`
	AlertsByStatus       []StatusCount `json:"alertsByStatus"`
	AlertsByHour         []HourCount   `json:"alertsByHour"`
	AvgResolutionMinutes float64       `json:"avgResolutionTime"`
}

// Stats computes the dashboard aggregate. Bucketing happens in Go so the
// query shape is identical across the sqlite/mysql/postgres drivers.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	out := &Stats{}

	if err := db.Model(&models.Alert{}).Count(&out.Total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, err, "stats query failed")
	}
	if err := db.Model(&models.Alert{}).
		Where("status = ?", models.StatusActive).
		Count(&out.Active).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, err, "stats query failed")
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := db.Model(&models.Alert{}).
		Where("status = ? AND created_at >= ?", models.StatusResolved, dayStart).
		Count(&out.ResolvedToday).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, err, "stats query failed")
	}
	if err := db.Model(&models.Alert{}).
		Where("status = ? AND created_at >= ?", models.StatusFalseAlarm, dayStart).
		Count(&out.FalseAlarmsToday).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, err, "stats query failed")
	}

	var statuses []string
	if err := db.Model(&models.Alert{}).Pluck("status", &statuses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, err, "stats query failed")
	}
	counts := map[string]int64{}
	for _, st := range statuses {
		counts[st]++
	}
	for _, st := range []string{models.StatusActive, models.StatusInProgress, models.StatusResolved, models.StatusFalseAlarm} {
		if counts[st] > 0 {
			out.AlertsByStatus = append(out.AlertsByStatus, StatusCount{Status: st, Count: counts[st]})
		}
	}

	var recent []time.Time
	if err := db.Model(&models.Alert{}).
		Where("created_at >= ?", now.Add(-24*time.Hour)).
		Pluck("created_at", &recent).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, err, "stats query failed")
	}
	out.AlertsByHour = make([]HourCount, 24)
	for h := range out.AlertsByHour {
		out.AlertsByHour[h].Hour = h
	}
	for _, ts := range recent {
		out.AlertsByHour[ts.Hour()].Count++
	}

	var resolved []models.Alert
	if err := db.Select("created_at", "resolved_at").
		Where("status = ? AND resolved_at IS NOT NULL", models.StatusResolved).
		Find(&resolved).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, err, "stats query failed")
	}
	if len(resolved) > 0 {
		var total time.Duration
		for _, a := range resolved {
			total += a.ResolvedAt.Sub(a.CreatedAt)
		}
		out.AvgResolutionMinutes = total.Minutes() / float64(len(resolved))
	}

	return out, nil
}
