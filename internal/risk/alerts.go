package risk

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voltgrid-lab/bess-trading/internal/events"
	"github.com/voltgrid-lab/bess-trading/internal/types"
	"github.com/voltgrid-lab/bess-trading/pkg/errors"
)

// CheckLimits evaluates the asset's metrics against its limits and appends
// an alert for every metric in its warning band or at/over its limit.
// Alerts are append-only; a persisting condition creates a new alert on
// every check rather than updating an earlier one.
func (m *Manager) CheckLimits(assetID string) []types.RiskAlert {
	m.mu.Lock()

	limits, configured := m.limits[assetID]
	if !configured {
		m.mu.Unlock()

		return nil
	}

	state := m.ensureAssetLocked(assetID)
	metrics := state.metrics

	created := make([]types.RiskAlert, 0)

	appendAlert := func(severity types.AlertSeverity, metric string, current, limit float64, message string) {
		alert := types.RiskAlert{
			ID:           uuid.New().String(),
			AssetID:      assetID,
			Severity:     severity,
			Metric:       metric,
			CurrentValue: current,
			LimitValue:   limit,
			Message:      message,
			Timestamp:    m.clock(),
		}
		m.alerts = append(m.alerts, alert)
		created = append(created, alert)
	}

	position := math.Abs(metrics.CurrentPosition)
	if position >= limits.MaxPositionMWh {
		appendAlert(types.AlertSeverityBreach, "position", position, limits.MaxPositionMWh,
			fmt.Sprintf("position %.2f MWh breaches limit %.2f MWh", position, limits.MaxPositionMWh))
	} else if position >= limits.MaxPositionMWh*positionWarnRatio {
		appendAlert(types.AlertSeverityWarning, "position", position, limits.MaxPositionMWh,
			fmt.Sprintf("position %.2f MWh at %.0f%% of limit", position, position/limits.MaxPositionMWh*100))
	}

	dailyLoss := math.Max(0, -metrics.DailyPnL)
	if dailyLoss >= limits.MaxDailyLoss {
		appendAlert(types.AlertSeverityBreach, "daily_loss", dailyLoss, limits.MaxDailyLoss,
			fmt.Sprintf("daily loss %.2f breaches limit %.2f", dailyLoss, limits.MaxDailyLoss))
	} else if dailyLoss >= limits.MaxDailyLoss*lossWarnRatio {
		appendAlert(types.AlertSeverityWarning, "daily_loss", dailyLoss, limits.MaxDailyLoss,
			fmt.Sprintf("daily loss %.2f at %.0f%% of limit", dailyLoss, dailyLoss/limits.MaxDailyLoss*100))
	}

	var drawdownPercent float64
	if metrics.PeakPnL > 0 {
		drawdownPercent = metrics.CurrentDrawdown / metrics.PeakPnL * 100
	}

	if drawdownPercent >= limits.MaxDrawdownPercent {
		appendAlert(types.AlertSeverityCritical, "drawdown", drawdownPercent, limits.MaxDrawdownPercent,
			fmt.Sprintf("drawdown %.1f%% at or over limit %.1f%%", drawdownPercent, limits.MaxDrawdownPercent))
	} else if drawdownPercent >= limits.MaxDrawdownPercent*drawdownWarnRatio {
		appendAlert(types.AlertSeverityWarning, "drawdown", drawdownPercent, limits.MaxDrawdownPercent,
			fmt.Sprintf("drawdown %.1f%% approaching limit %.1f%%", drawdownPercent, limits.MaxDrawdownPercent))
	}

	if metrics.VaR95 >= limits.MaxVaR {
		appendAlert(types.AlertSeverityCritical, "var_95", metrics.VaR95, limits.MaxVaR,
			fmt.Sprintf("VaR95 %.2f at or over limit %.2f", metrics.VaR95, limits.MaxVaR))
	} else if metrics.VaR95 >= limits.MaxVaR*varWarnRatio {
		appendAlert(types.AlertSeverityWarning, "var_95", metrics.VaR95, limits.MaxVaR,
			fmt.Sprintf("VaR95 %.2f at %.0f%% of limit", metrics.VaR95, metrics.VaR95/limits.MaxVaR*100))
	}

	m.mu.Unlock()

	for i := range created {
		alert := created[i]

		m.logger.Warn("risk alert raised",
			zap.String("asset_id", assetID),
			zap.String("metric", alert.Metric),
			zap.String("severity", string(alert.Severity)),
			zap.Float64("current", alert.CurrentValue),
			zap.Float64("limit", alert.LimitValue),
		)

		m.journalAlert(alert)
		m.bus.Publish(events.Event{
			Kind:      events.KindRiskAlert,
			AssetID:   assetID,
			Timestamp: alert.Timestamp,
			Alert:     &alert,
		})
	}

	return created
}

// AlertFilter narrows GetAlerts results. The zero value matches everything.
type AlertFilter struct {
	// Severity, when non-empty, matches alerts of that severity only.
	Severity types.AlertSeverity
	// UnacknowledgedOnly excludes acknowledged alerts.
	UnacknowledgedOnly bool
}

// GetAlerts returns every alert for an asset, oldest first.
func (m *Manager) GetAlerts(assetID string) []types.RiskAlert {
	return m.FilterAlerts(assetID, AlertFilter{})
}

// FilterAlerts returns the asset's alerts matching the filter, oldest first.
func (m *Manager) FilterAlerts(assetID string, filter AlertFilter) []types.RiskAlert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alerts := make([]types.RiskAlert, 0)

	for _, alert := range m.alerts {
		if alert.AssetID != assetID {
			continue
		}

		if filter.Severity != "" && alert.Severity != filter.Severity {
			continue
		}

		if filter.UnacknowledgedOnly && alert.Acknowledged {
			continue
		}

		alerts = append(alerts, alert)
	}

	return alerts
}

// AcknowledgeAlert marks an alert as acknowledged. The alert is otherwise
// immutable.
func (m *Manager) AcknowledgeAlert(alertID string) error {
	m.mu.Lock()

	var acknowledged *types.RiskAlert

	for i := range m.alerts {
		if m.alerts[i].ID == alertID {
			m.alerts[i].Acknowledged = true
			snapshot := m.alerts[i]
			acknowledged = &snapshot

			break
		}
	}
	m.mu.Unlock()

	if acknowledged == nil {
		return errors.Newf(errors.ErrCodeAlertNotFound, "alert %s not found", alertID)
	}

	m.bus.Publish(events.Event{
		Kind:      events.KindAlertAcknowledged,
		AssetID:   acknowledged.AssetID,
		Timestamp: m.clock(),
		Alert:     acknowledged,
	})

	return nil
}

// GetRiskSummary aggregates unacknowledged alerts and the current risk score
// into a traffic-light status: red on any unacknowledged critical or breach
// alert, yellow on an unacknowledged warning or a risk score over 0.7,
// green otherwise.
func (m *Manager) GetRiskSummary(assetID string) types.RiskSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var metrics types.RiskMetrics
	if state, ok := m.assets[assetID]; ok {
		metrics = state.metrics
	}

	summary := types.RiskSummary{
		AssetID:   assetID,
		Status:    types.RiskStatusGreen,
		Metrics:   metrics,
		RiskScore: m.currentRiskScoreLocked(assetID, metrics),
	}

	var hasWarning, hasCritical bool

	for _, alert := range m.alerts {
		if alert.AssetID != assetID || alert.Acknowledged {
			continue
		}

		summary.UnacknowledgedAlerts++

		switch alert.Severity {
		case types.AlertSeverityCritical, types.AlertSeverityBreach:
			hasCritical = true
		case types.AlertSeverityWarning:
			hasWarning = true
		}
	}

	switch {
	case hasCritical:
		summary.Status = types.RiskStatusRed
	case hasWarning || summary.RiskScore > 0.7:
		summary.Status = types.RiskStatusYellow
	}

	return summary
}

// currentRiskScoreLocked computes the composite score from the asset's
// standing metrics, without a hypothetical order. Caller holds m.mu.
func (m *Manager) currentRiskScoreLocked(assetID string, metrics types.RiskMetrics) float64 {
	limits, ok := m.limits[assetID]
	if !ok {
		return 0
	}

	return utilizationTerm(math.Abs(metrics.CurrentPosition), limits.MaxPositionMWh, positionWeight) +
		utilizationTerm(metrics.DailyVolume, limits.MaxDailyVolumeMWh, volumeWeight) +
		utilizationTerm(math.Max(0, -metrics.DailyPnL), limits.MaxDailyLoss, lossWeight) +
		utilizationTerm(metrics.VaR95, limits.MaxVaR, varWeight)
}

// journalAlert appends the alert to the audit journal. Failures are logged
// and never block risk decisions.
func (m *Manager) journalAlert(alert types.RiskAlert) {
	if m.journal == nil {
		return
	}

	if err := m.journal.AppendAlert(alert); err != nil {
		m.logger.Warn("failed to journal alert", zap.String("alert_id", alert.ID), zap.Error(err))
	}
}
