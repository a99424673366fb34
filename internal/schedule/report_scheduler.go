package schedule

// 对账调度器：链路探测、自动打卡、月度核对、月初清理四个定时任务的执行体

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"ChamCong/config"
	"ChamCong/internal/model"
	"ChamCong/internal/state"
)

// 任务产出的越南语通知文案
const (
	noticeFormLinkDown     = "Hôm nay cấu trúc Google Form bị thay đổi nên anh không check in/out hộ các em được, các em chủ động nhé."
	noticeTimekeepLinkDown = "Hôm nay cấu trúc Time Keep bị thay đổi nên anh không lấy báo cáo check in/out được, các em chủ động nhé."

	formLinkOK       = "✅ Cấu trúc Google Form không đổi"
	formLinkBroken   = "❌ Cấu trúc Google Form đã bị thay đổi"
	timekeepLinkOK   = "✅ Cấu trúc Time Keep không đổi"
	timekeepLinkDead = "❌ Cấu trúc Time Keep đã bị thay đổi"
)

// Notifier 把任务结果投递出去，production 走 MQ，测试里捕获。
type Notifier interface {
	Notify(kind, text string) error
}

// FormProber 校验表单结构是否仍可用。
type FormProber interface {
	Probe(ctx context.Context) error
}

// TimekeepProber 校验远程考勤系统是否仍可用。
type TimekeepProber interface {
	Probe(ctx context.Context, now time.Time) error
}

// MissingReader 给出某员工本月的缺卡列表。
type MissingReader interface {
	MonthlyMissing(ctx context.Context, employeeID string, now time.Time, excluded []model.Date) ([]model.DayMissing, error)
}

// SubmitDispatcher 执行单个用户的一次自动打卡。
type SubmitDispatcher interface {
	Dispatch(ctx context.Context, user string, profile config.Profile) model.SubmissionOutcome
}

// jobGuard 防止同一任务并发重入
type jobGuard struct {
	mu      sync.Mutex
	running bool
}

func (g *jobGuard) begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return false
	}
	g.running = true
	return true
}

func (g *jobGuard) end() {
	g.mu.Lock()
	g.running = false
	g.mu.Unlock()
}

type ReportScheduler struct {
	logger     *zap.Logger
	store      *state.Store
	roster     config.Roster
	formProber FormProber
	tkProber   TimekeepProber
	reader     MissingReader
	dispatcher SubmitDispatcher
	notifier   Notifier
	workerCap  int

	linkJob   jobGuard
	submitJob jobGuard
	verifyJob jobGuard
	purgeJob  jobGuard
}

type Deps struct {
	Logger         *zap.Logger
	Store          *state.Store
	Roster         config.Roster
	FormProber     FormProber
	TimekeepProber TimekeepProber
	Reader         MissingReader
	Dispatcher     SubmitDispatcher
	Notifier       Notifier
	WorkerCap      int
}

func NewReportScheduler(deps Deps) *ReportScheduler {
	workerCap := deps.WorkerCap
	if workerCap <= 0 {
		workerCap = 10
	}

	return &ReportScheduler{
		logger:     deps.Logger,
		store:      deps.Store,
		roster:     deps.Roster,
		formProber: deps.FormProber,
		tkProber:   deps.TimekeepProber,
		reader:     deps.Reader,
		dispatcher: deps.Dispatcher,
		notifier:   deps.Notifier,
		workerCap:  workerCap,
	}
}

func (s *ReportScheduler) notify(kind, text string) error {
	if err := s.notifier.Notify(kind, text); err != nil {
		s.logger.Error("Failed to publish notice",
			zap.String("kind", kind),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// sortedUsers 按固定顺序遍历 roster，digest 输出保持稳定
func (s *ReportScheduler) sortedUsers() []string {
	users := make([]string, 0, len(s.roster))
	for user := range s.roster {
		users = append(users, user)
	}
	sort.Strings(users)
	return users
}

// CheckLinkStatus 每天探测两条外部链路并把结果写进状态文档。
func (s *ReportScheduler) CheckLinkStatus(ctx context.Context, now time.Time) error {
	if !s.linkJob.begin() {
		s.logger.Info("Link status job already running, skipping")
		return nil
	}
	defer s.linkJob.end()

	startTime := time.Now()
	s.logger.Info("Starting link status check", zap.Time("run_date", now))

	formUp := s.formProber.Probe(ctx) == nil
	timekeepUp := s.tkProber.Probe(ctx, now) == nil

	if err := s.store.SetFormLink(ctx, formUp); err != nil {
		s.logger.Error("Failed to persist form link status", zap.Error(err))
	}
	if err := s.store.SetTimekeepLink(ctx, timekeepUp); err != nil {
		s.logger.Error("Failed to persist timekeep link status", zap.Error(err))
	}

	var sb strings.Builder
	if formUp {
		sb.WriteString(formLinkOK)
	} else {
		sb.WriteString(formLinkBroken)
	}
	sb.WriteString("\n")
	if timekeepUp {
		sb.WriteString(timekeepLinkOK)
	} else {
		sb.WriteString(timekeepLinkDead)
	}

	s.logger.Info("Link status check completed",
		zap.Bool("form_link", formUp),
		zap.Bool("timekeep_link", timekeepUp),
		zap.Duration("duration", time.Since(startTime)),
	)

	return s.notify(model.NoticeKindLinkStatus, sb.String())
}

// AutoCheckInOut 给名册里所有未被 on_board 豁免的用户自动提交当次打卡。
func (s *ReportScheduler) AutoCheckInOut(ctx context.Context, now time.Time) error {
	if !s.submitJob.begin() {
		s.logger.Info("Auto check in/out job already running, skipping")
		return nil
	}
	defer s.submitJob.end()

	startTime := time.Now()
	s.logger.Info("Starting auto check in/out", zap.Time("run_date", now))

	if !s.store.LinkHealth().FormLink {
		s.logger.Warn("Form link is down, skipping all submissions")
		return s.notify(model.NoticeKindAlert, noticeFormLinkDown)
	}

	today := model.DateOf(now)

	eligible := make([]string, 0, len(s.roster))
	for _, user := range s.sortedUsers() {
		if err := s.store.EnsureUser(ctx, user); err != nil {
			s.logger.Warn("Failed to ensure user state record",
				zap.String("user", user),
				zap.Error(err),
			)
		}

		if s.store.IsOnboard(user, today) {
			s.logger.Info("User is on board today, skipping submission",
				zap.String("user", user),
			)
			continue
		}

		eligible = append(eligible, user)
	}

	outcomes := make([]model.SubmissionOutcome, 0, len(eligible))
	outcomesMu := sync.Mutex{}

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.workerCap)

	for _, user := range eligible {
		wg.Add(1)
		go func(user string, profile config.Profile) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			outcome := s.dispatcher.Dispatch(ctx, user, profile)

			outcomesMu.Lock()
			outcomes = append(outcomes, outcome)
			outcomesMu.Unlock()

			s.logger.Info("Submission task resolved",
				zap.String("user", outcome.User),
				zap.Bool("failed", outcome.Failed()),
			)
		}(user, s.roster[user])
	}

	wg.Wait()

	s.logger.Info("Auto check in/out completed",
		zap.Int("dispatched", len(eligible)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return s.notify(model.NoticeKindSubmitDigest, formatSubmitDigest(outcomes))
}

// CheckAllInOut 核对名册里每个人本月的打卡缺口并汇总播报。
func (s *ReportScheduler) CheckAllInOut(ctx context.Context, now time.Time) error {
	if !s.verifyJob.begin() {
		s.logger.Info("Verify job already running, skipping")
		return nil
	}
	defer s.verifyJob.end()

	startTime := time.Now()
	s.logger.Info("Starting monthly attendance verification", zap.Time("run_date", now))

	if !s.store.LinkHealth().TimekeepLink {
		s.logger.Warn("Timekeep link is down, skipping verification")
		return s.notify(model.NoticeKindAlert, noticeTimekeepLinkDown)
	}

	users := s.sortedUsers()
	deficient := make(map[string][]model.DayMissing)
	failures := make(map[string]string)

	for _, user := range users {
		if err := s.store.EnsureUser(ctx, user); err != nil {
			s.logger.Warn("Failed to ensure user state record",
				zap.String("user", user),
				zap.Error(err),
			)
		}

		missing, err := s.reader.MonthlyMissing(ctx, s.roster[user].EmployeeID, now, s.store.ExcludedDates(user))
		if err != nil {
			// 单人失败只记入 digest，不拖垮整轮核对
			s.logger.Error("Failed to read monthly attendance",
				zap.String("user", user),
				zap.Error(err),
			)
			failures[user] = err.Error()
			continue
		}

		if len(missing) > 0 {
			deficient[user] = missing
		}
	}

	s.logger.Info("Monthly attendance verification completed",
		zap.Int("user_count", len(users)),
		zap.Int("deficient_count", len(deficient)),
		zap.Int("failure_count", len(failures)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return s.notify(model.NoticeKindVerifyDigest, formatVerifyDigest(users, deficient, failures))
}

// ClearMonthlyStates 每月 1 号清掉所有已过期的配置日期。
func (s *ReportScheduler) ClearMonthlyStates(ctx context.Context, now time.Time) error {
	if !s.purgeJob.begin() {
		s.logger.Info("Purge job already running, skipping")
		return nil
	}
	defer s.purgeJob.end()

	if now.Day() != 1 {
		s.logger.Debug("Not the first day of month, skipping purge")
		return nil
	}

	s.logger.Info("Starting monthly state purge", zap.Time("run_date", now))

	if err := s.store.Purge(ctx, model.DateOf(now)); err != nil {
		s.logger.Error("Failed to purge monthly states", zap.Error(err))
		return err
	}

	s.logger.Info("Monthly state purge completed")
	return nil
}

func formatSubmitDigest(outcomes []model.SubmissionOutcome) string {
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].User < outcomes[j].User
	})

	var sb strings.Builder
	sb.WriteString("Kết quả check in/out tự động hôm nay:\n")
	for _, outcome := range outcomes {
		if outcome.Failed() {
			sb.WriteString(fmt.Sprintf("❌ %s (Lỗi: %s)\n", outcome.User, outcome.Err))
		} else {
			sb.WriteString(fmt.Sprintf("✅ %s\n", outcome.User))
		}
	}
	return sb.String()
}

func formatVerifyDigest(users []string, deficient map[string][]model.DayMissing, failures map[string]string) string {
	var sb strings.Builder
	sb.WriteString("Tất cả các em tháng này đã chấm công đầy đủ.\n")

	for _, user := range users {
		if _, bad := deficient[user]; bad {
			continue
		}
		if _, failed := failures[user]; failed {
			continue
		}
		sb.WriteString(fmt.Sprintf("✅ %s\n", user))
	}

	if len(deficient) > 0 {
		sb.WriteString("Trừ các em sau trong tháng này còn chưa chấm công các ngày:\n")
		for _, user := range users {
			missing, ok := deficient[user]
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf("❌ %s:\n", user))
			for _, dm := range missing {
				sb.WriteString(fmt.Sprintf("   - Ngày %s: Thiếu %s\n", dm.Date.Compact(), dm.Missing))
			}
		}
		sb.WriteString("\nGiải trình ngay cho tôi. Các em chú ý chấm công đầy đủ nhé!")
	}

	if len(failures) > 0 {
		sb.WriteString("\nKhông lấy được báo cáo của:\n")
		for _, user := range users {
			reason, ok := failures[user]
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf("⚠️ %s (Lỗi: %s)\n", user, reason))
		}
	}

	return sb.String()
}
