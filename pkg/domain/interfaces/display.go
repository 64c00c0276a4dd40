package interfaces

import (
	"time"

	"github.com/m-mizutani/octodash/pkg/domain/model"
)

type Display interface {
	ShowRuns(runs []*model.Run, stats model.RunStats)
	ShowSummary(result *model.RunSummary)
}

// WatchDisplay is used by the watch command between polls
type WatchDisplay interface {
	Display
	ShowRefresh(runs []*model.Run, stats model.RunStats, lastUpdate time.Time, interval time.Duration)
	ShowError(err error)
}
