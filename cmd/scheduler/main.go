package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ChamCong/config"
	"ChamCong/internal/cache"
	"ChamCong/internal/form"
	"ChamCong/internal/queue"
	"ChamCong/internal/repository"
	"ChamCong/internal/schedule"
	"ChamCong/internal/state"
	"ChamCong/internal/timekeep"
	"ChamCong/pkg/logger"
	"ChamCong/pkg/snowflake"
	"ChamCong/storage"
	"ChamCong/storage/database"
	"ChamCong/utils"
)

// job 是一次定时触发的调度任务。runOnce 保证进程重启后当天不重跑。
type job struct {
	name         string
	at           string // HH:MM，按 config.Cfg.Timezone
	weekdaysOnly bool
	runOnce      bool
	run          func(ctx context.Context, now time.Time) error
}

func main() {
	l := logger.New()
	defer logger.Sync(l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		l.Info("Scheduler received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(l); err != nil {
		l.Fatal("Failed to initialize storage for scheduler", zap.Error(err))
	}
	defer storage.Close(l)

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		l.Fatal("Failed to initialize snowflake for scheduler", zap.Error(err))
	}

	roster, err := config.LoadRoster(config.Cfg.RosterPath)
	if err != nil {
		l.Fatal("Failed to load roster",
			zap.String("path", config.Cfg.RosterPath),
			zap.Error(err),
		)
	}

	var repo state.Repository
	if config.Cfg.StateBackend == "postgres" {
		repo = repository.NewDatabaseRepository(database.DB())
	} else {
		repo = repository.NewRedisRepository()
	}

	store, err := state.NewStore(ctx, repo, l)
	if err != nil {
		l.Fatal("Failed to load state document", zap.Error(err))
	}

	tkClient, err := timekeep.NewClient(l)
	if err != nil {
		l.Fatal("Failed to create timekeep client", zap.Error(err))
	}

	submitter, err := form.NewGatewaySubmitter(l)
	if err != nil {
		l.Fatal("Failed to create form gateway submitter", zap.Error(err))
	}

	jitterMax := time.Duration(config.Cfg.SubmitJitterMaxSeconds) * time.Second
	dispatcher := form.NewDispatcher(submitter, jitterMax, l)

	scheduler := schedule.NewReportScheduler(schedule.Deps{
		Logger:         l,
		Store:          store,
		Roster:         roster,
		FormProber:     submitter,
		TimekeepProber: tkClient,
		Reader:         timekeep.NewReader(tkClient),
		Dispatcher:     dispatcher,
		Notifier:       queue.NewNoticeProducer(l),
		WorkerCap:      config.Cfg.SubmitWorkerCap,
	})

	l.Info("Scheduler service starting",
		zap.String("service", config.Cfg.ServiceName+"-scheduler"),
		zap.String("environment", config.Cfg.Environment),
		zap.String("timezone", config.Cfg.Timezone),
		zap.Int("roster_size", len(roster)),
	)

	jobs := []job{
		{name: "monthly_purge", at: config.Cfg.PurgeAt, run: scheduler.ClearMonthlyStates},
		{name: "link_probe", at: config.Cfg.ProbeAt, run: scheduler.CheckLinkStatus},
		{name: "morning_submit", at: config.Cfg.MorningSubmitAt, weekdaysOnly: true, runOnce: true, run: scheduler.AutoCheckInOut},
		{name: "morning_verify", at: config.Cfg.MorningVerifyAt, weekdaysOnly: true, run: scheduler.CheckAllInOut},
		{name: "evening_submit", at: config.Cfg.EveningSubmitAt, weekdaysOnly: true, runOnce: true, run: scheduler.AutoCheckInOut},
		{name: "evening_verify", at: config.Cfg.EveningVerifyAt, weekdaysOnly: true, run: scheduler.CheckAllInOut},
	}

	for _, j := range jobs {
		go runDailyLoop(ctx, l, j)
	}

	<-ctx.Done()

	l.Info("Scheduler service shutting down gracefully")
}

// runDailyLoop 每天在 j.at 触发一次 j.run，直到 ctx 取消。
func runDailyLoop(ctx context.Context, l *zap.Logger, j job) {
	hour, minute, err := parseClock(j.at)
	if err != nil {
		l.Fatal("Invalid job trigger time",
			zap.String("job", j.name),
			zap.String("at", j.at),
			zap.Error(err),
		)
	}

	loc := config.Cfg.Location()

	for {
		now := time.Now().In(loc)
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}

		delay := time.Until(next)
		l.Info("Scheduled next run",
			zap.String("job", j.name),
			zap.Time("next_run", next),
			zap.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			fireJob(ctx, l, j, time.Now().In(loc))
		}
	}
}

func fireJob(ctx context.Context, l *zap.Logger, j job, now time.Time) {
	if j.weekdaysOnly && utils.IsWeekend(now) {
		l.Info("Skipping weekend run", zap.String("job", j.name))
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, 15*time.Minute)
	defer cancel()

	passDate := now.Format("2006-01-02") + "_" + passHalf(now)

	if j.runOnce {
		done, err := cache.IsPassCompleted(runCtx, j.name, passDate)
		if err != nil {
			l.Warn("Failed to check pass completion, running anyway",
				zap.String("job", j.name),
				zap.Error(err),
			)
		} else if done {
			l.Info("Pass already completed today, skipping",
				zap.String("job", j.name),
				zap.String("pass_date", passDate),
			)
			return
		}
	}

	if err := j.run(runCtx, now); err != nil {
		l.Error("Scheduled run failed",
			zap.String("job", j.name),
			zap.Error(err),
		)
		return
	}

	if j.runOnce {
		if err := cache.MarkPassCompleted(runCtx, j.name, passDate); err != nil {
			l.Warn("Failed to mark pass completed",
				zap.String("job", j.name),
				zap.Error(err),
			)
		}
	}
}

func passHalf(now time.Time) string {
	if utils.IsMorning(now) {
		return "am"
	}
	return "pm"
}

func parseClock(at string) (hour, minute int, err error) {
	if _, err := fmt.Sscanf(at, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q: %w", at, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock value out of range: %q", at)
	}
	return hour, minute, nil
}
