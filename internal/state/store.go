package state

// Store 是进程内唯一的共享可变状态：user states + link health。
// 所有操作都在同一把锁内完成 读-改-写-落盘（write-through），
// command router 和各个 scheduled job 共用同一个实例。

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ChamCong/internal/model"
	"ChamCong/pkg/errors"
	"ChamCong/utils"
)

type Store struct {
	mu     sync.Mutex
	doc    *model.StateDocument
	repo   Repository
	logger *zap.Logger
}

// NewStore 载入现有文档（没有则从空文档开始）。
func NewStore(ctx context.Context, repo Repository, logger *zap.Logger) (*Store, error) {
	doc, err := repo.Load(ctx)
	if err != nil {
		return nil, &errors.StateError{Op: "load", Err: err}
	}
	if doc == nil {
		doc = model.NewStateDocument()
	}

	s := &Store{
		doc:    doc,
		repo:   repo,
		logger: logger,
	}
	logger.Info("State store loaded",
		zap.Int("user_count", len(doc.UserStates)),
		zap.Bool("form_link", doc.LinkHealth.FormLink),
		zap.Bool("timekeep_link", doc.LinkHealth.TimekeepLink),
	)
	return s, nil
}

// persist 在锁内调用，把整份文档写回存储。
func (s *Store) persist(ctx context.Context, op string) error {
	if err := s.repo.Save(ctx, s.doc); err != nil {
		s.logger.Error("Failed to persist state document",
			zap.String("op", op),
			zap.Error(err),
		)
		return &errors.StateError{Op: op, Err: err}
	}
	return nil
}

// AddOnboard 并集合入用户的 on_board，幂等；用户不存在则先创建。
func (s *Store) AddOnboard(ctx context.Context, user string, dates []model.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	us, _ := s.doc.User(user)
	us.AddOnBoard(dates...)

	if err := s.persist(ctx, "add_onboard"); err != nil {
		return err
	}
	s.logger.Info("Added onboard dates",
		zap.String("user", user),
		zap.Int("date_count", len(dates)),
	)
	return nil
}

// AddExcluded 并集合入用户的 remove_days，幂等。
func (s *Store) AddExcluded(ctx context.Context, user string, dates []model.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	us, _ := s.doc.User(user)
	us.AddRemoveDays(dates...)

	if err := s.persist(ctx, "add_excluded"); err != nil {
		return err
	}
	s.logger.Info("Added excluded dates",
		zap.String("user", user),
		zap.Int("date_count", len(dates)),
	)
	return nil
}

// Reset 清空用户的两组日期。
func (s *Store) Reset(ctx context.Context, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.UserStates[user] = model.NewUserState()

	if err := s.persist(ctx, "reset"); err != nil {
		return err
	}
	s.logger.Info("Reset user state", zap.String("user", user))
	return nil
}

// Purge 对所有用户丢弃严格早于 ref 所在月第一天的日期。幂等。
func (s *Store) Purge(ctx context.Context, ref model.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := model.DateOf(utils.FirstOfMonth(ref.Time(time.UTC)))
	for _, us := range s.doc.UserStates {
		us.PruneBefore(cutoff)
	}

	if err := s.persist(ctx, "purge"); err != nil {
		return err
	}
	s.logger.Info("Purged stale dates",
		zap.String("cutoff", cutoff.String()),
		zap.Int("user_count", len(s.doc.UserStates)),
	)
	return nil
}

// Status 返回用户两组日期的副本；用户不存在则创建空记录并落盘
// （第一次接触必须成功，后续操作不再走创建分支）。
func (s *Store) Status(ctx context.Context, user string) (model.UserState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	us, created := s.doc.User(user)
	if created {
		if err := s.persist(ctx, "status_create"); err != nil {
			return model.UserState{}, err
		}
	}

	return model.UserState{
		OnBoard:    append([]model.Date(nil), us.OnBoard...),
		RemoveDays: append([]model.Date(nil), us.RemoveDays...),
	}, nil
}

// EnsureUser 惰性创建用户记录，已存在则不触碰存储。
func (s *Store) EnsureUser(ctx context.Context, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, created := s.doc.User(user); created {
		return s.persist(ctx, "ensure_user")
	}
	return nil
}

// IsOnboard reports whether user đã cấu hình tự xử lý ngày d.
func (s *Store) IsOnboard(user string, d model.Date) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	us, ok := s.doc.UserStates[user]
	return ok && us.HasOnBoard(d)
}

// ExcludedDates 返回用户 remove_days 的副本。
func (s *Store) ExcludedDates(user string) []model.Date {
	s.mu.Lock()
	defer s.mu.Unlock()

	us, ok := s.doc.UserStates[user]
	if !ok {
		return nil
	}
	return append([]model.Date(nil), us.RemoveDays...)
}

// LinkHealth 返回当天的链路健康缓存。
func (s *Store) LinkHealth() model.LinkHealth {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.LinkHealth
}

// SetFormLink 更新 form gateway 链路标记并落盘。
func (s *Store) SetFormLink(ctx context.Context, up bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.LinkHealth.FormLink = up
	return s.persist(ctx, "set_form_link")
}

// SetTimekeepLink 更新 timekeep 链路标记并落盘。
func (s *Store) SetTimekeepLink(ctx context.Context, up bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.LinkHealth.TimekeepLink = up
	return s.persist(ctx, "set_timekeep_link")
}
