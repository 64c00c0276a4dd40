package usecase

import (
	"context"

	"github.com/m-mizutani/octodash/pkg/domain/interfaces"
)

// Export for testing
var ParseGitHubURL = parseGitHubURL

func FindConfigInDirectory(svc interfaces.ConfigService, dir string) string {
	return svc.(*configService).findConfigInDirectory(dir)
}

// Refresh performs a single watch poll
func (u *WatchUseCase) Refresh(ctx context.Context) error {
	return u.refresh(ctx)
}

var NotificationCommand = notificationCommand

func NewNotifyActionFor(goos string) interfaces.ActionExecutor {
	return &notifyAction{goos: goos}
}
