package notify

import "github.com/samvad-hq/samvad-report-harvester/internal/domain"

// ErrNotifyFailed is returned (wrapped) by every channel on delivery failure.
var ErrNotifyFailed = domain.ErrNotifyFailed
