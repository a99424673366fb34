package form

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"ChamCong/config"
	"ChamCong/internal/model"
	"ChamCong/utils"
)

// Dispatcher 负责单个用户的一次自动打卡：随机延迟、按半天选载荷、提交。
// 所有失败（包括 panic）都折算进返回值，绝不向上抛。
type Dispatcher struct {
	submitter Submitter
	log       *zap.Logger
	jitterMax time.Duration
	now       func() time.Time
}

func NewDispatcher(submitter Submitter, jitterMax time.Duration, l *zap.Logger) *Dispatcher {
	return &Dispatcher{
		submitter: submitter,
		log:       l,
		jitterMax: jitterMax,
		now:       time.Now,
	}
}

func Failure(user, reason string) model.SubmissionOutcome {
	return model.SubmissionOutcome{User: user, Err: reason}
}

func Success(user string) model.SubmissionOutcome {
	return model.SubmissionOutcome{User: user}
}

func (d *Dispatcher) Dispatch(ctx context.Context, user string, profile config.Profile) (outcome model.SubmissionOutcome) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Submission task panicked",
				zap.String("user", user),
				zap.Any("panic", r),
			)
			outcome = Failure(user, fmt.Sprintf("panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return Failure(user, err.Error())
	}

	// 全员错峰提交，避免同一秒扎堆
	if d.jitterMax > 0 {
		delay := time.Duration(rand.Int63n(int64(d.jitterMax) + 1))
		select {
		case <-ctx.Done():
			return Failure(user, ctx.Err().Error())
		case <-time.After(delay):
		}
	}

	var pages Pages
	if utils.IsMorning(d.now()) {
		pages = checkInPages(profile)
	} else {
		pages = checkOutPages(profile)
	}

	if err := d.submitter.Submit(ctx, pages); err != nil {
		d.log.Error("Failed to submit attendance form",
			zap.String("user", user),
			zap.Error(err),
		)
		return Failure(user, err.Error())
	}

	d.log.Info("Attendance form submitted", zap.String("user", user))
	return Success(user)
}

func checkInPages(profile config.Profile) Pages {
	return Pages{
		1: {
			"User name":     profile.DisplayName,
			"Phòng ban":     profile.Department,
			"User teamlead": profile.TeamLead,
		},
		2: {"Bạn muốn ?": "Check in"},
		3: {"Ca làm việc": profile.WorkShift},
		4: {"Loại chấm công - Check in?": "Onsite"},
		5: {"Địa điểm": profile.SiteAddress},
		6: {"1+9=? (Điền số)": "10"},
	}
}

func checkOutPages(profile config.Profile) Pages {
	return Pages{
		1: {
			"User name":     profile.DisplayName,
			"Phòng ban":     profile.Department,
			"User teamlead": profile.TeamLead,
		},
		2: {"Bạn muốn ?": "Check out"},
		3: {"Ca làm việc": profile.WorkShift},
		4: {"Loại chấm công - Check out?": "Onsite"},
		5: {"Địa điểm": profile.SiteAddress},
		6: {"2+3=? (Điền số)": "5"},
	}
}
