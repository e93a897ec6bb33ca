// Package ui provides the Bubble Tea terminal display for Nexus.
package ui

import (
	"time"

	"github.com/abelbrown/nexus/internal/model"
)

// SnapshotUpdated is sent when the feed store publishes a snapshot.
type SnapshotUpdated struct {
	Snapshot model.Snapshot
}

// PricesUpdated is sent when the market refresher has a new ticker.
type PricesUpdated struct {
	Prices  []model.CryptoPrice
	Updated time.Time
}

// ClockTick drives the header clock and the alerts panel.
type ClockTick time.Time
