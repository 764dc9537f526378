package rendezvous

import (
	"context"
	"time"

	"github.com/keypuzzlewallet/tss/common"
)

// StatusUpdater posts keygen progress to a room's status endpoint, mapping
// per-stage action counts into a window [minRatio, maxRatio] of the overall
// pipeline. Posts are rate limited; failures are logged and ignored since
// progress is advisory.
type StatusUpdater struct {
	tr          Transport
	room        string
	lastUpdated time.Time

	currentAction  int
	maxAction      int
	minGlobalRatio float64
	maxGlobalRatio float64
}

const statusUpdateInterval = 2 * time.Second

func NewStatusUpdater(tr Transport, room string) *StatusUpdater {
	return &StatusUpdater{tr: tr, room: room}
}

// SetWindow positions the current stage within the overall pipeline.
func (u *StatusUpdater) SetWindow(currentAction, maxAction int, minGlobalRatio, maxGlobalRatio float64) {
	u.currentAction = currentAction
	u.maxAction = maxAction
	u.minGlobalRatio = minGlobalRatio
	u.maxGlobalRatio = maxGlobalRatio
}

// CompleteAction reports the stage's progress if enough time has passed
// since the last report.
func (u *StatusUpdater) CompleteAction(ctx context.Context) {
	if time.Since(u.lastUpdated) < statusUpdateInterval {
		return
	}
	u.lastUpdated = time.Now()
	percent := u.minGlobalRatio * 100
	if u.maxAction > 0 {
		percent += float64(u.currentAction) / float64(u.maxAction) * 100 * (u.maxGlobalRatio - u.minGlobalRatio)
	}
	common.Logger.Debugf("room %s: progress %d%%", u.room, int(percent))
	if err := u.tr.PostStatus(ctx, u.room, int(percent)); err != nil {
		common.Logger.Warnf("room %s: posting progress failed: %v", u.room, err)
	}
}
