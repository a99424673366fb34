package service

// 命令路由：把聊天消息翻译成状态操作或查询，并生成越南语回复

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ChamCong/config"
	"ChamCong/internal/command"
	"ChamCong/internal/model"
	"ChamCong/internal/state"
)

// 用户可见的回复文案，保持与 bot 一贯的语气
const (
	replyUnknownUser      = "Xin lỗi anh không biết em là ai. Vui lòng đăng ký với bộ phận nhân sự nhé."
	replyParseFailed      = "Từ từ em nói nhanh quá anh không theo kịp. Nói lại theo format đi em."
	replyDidNotUnderstand = "Anh đang không hiểu lệnh em nói gì. Nói lại đi em."
	replyOnboardAdded     = "Đã thêm các ngày vào cấu hình onboard."
	replyExcludeAdded     = "Đã thêm các ngày vào cấu hình không theo dõi timekeep."
	replyResetDone        = "Đã xóa toàn bộ cấu hình"
	replyShutdown         = "Đã nhận lệnh tắt bot."
	replyCheckComplete    = "Em đã chấm công đầy đủ trong tháng này."

	replyOnboardError = "Lỗi khi thêm ngày vào cấu hình onboard."
	replyExcludeError = "Lỗi khi xóa ngày khỏi cấu hình theo dõi timekeep."
	replyResetError   = "Lỗi khi xóa toàn bộ cấu hình."
)

// AttendanceReader 查询某员工本月缺卡情况。
type AttendanceReader interface {
	MonthlyMissing(ctx context.Context, employeeID string, now time.Time, excluded []model.Date) ([]model.DayMissing, error)
}

type MessageService struct {
	logger   *zap.Logger
	store    *state.Store
	roster   config.Roster
	reader   AttendanceReader
	shutdown func()
	now      func() time.Time
}

func NewMessageService(
	store *state.Store,
	roster config.Roster,
	reader AttendanceReader,
	shutdown func(),
	l *zap.Logger,
) *MessageService {
	return &MessageService{
		logger:   l,
		store:    store,
		roster:   roster,
		reader:   reader,
		shutdown: shutdown,
		now:      time.Now,
	}
}

// Handle 处理一条入站聊天消息，永远返回一条可直接回给用户的文案。
func (s *MessageService) Handle(ctx context.Context, sender, text string) string {
	if !s.roster.Contains(sender) {
		s.logger.Warn("Message from unknown sender",
			zap.String("sender", sender),
		)
		return replyUnknownUser
	}

	req, err := command.Parse(text, s.now())
	if err != nil {
		s.logger.Info("Failed to parse command",
			zap.String("sender", sender),
			zap.String("text", text),
			zap.Error(err),
		)
		return replyParseFailed
	}

	// 需要日期的操作没带日期也按听不懂处理
	if req.Action.RequiresDates() && len(req.Dates) == 0 {
		return replyDidNotUnderstand
	}

	switch req.Action {
	case model.ActionOnboard:
		if err := s.store.AddOnboard(ctx, sender, req.Dates); err != nil {
			s.logger.Error("Failed to add onboard dates",
				zap.String("sender", sender),
				zap.Error(err),
			)
			return replyOnboardError
		}
		return replyOnboardAdded

	case model.ActionExclude:
		if err := s.store.AddExcluded(ctx, sender, req.Dates); err != nil {
			s.logger.Error("Failed to add excluded dates",
				zap.String("sender", sender),
				zap.Error(err),
			)
			return replyExcludeError
		}
		return replyExcludeAdded

	case model.ActionStatus:
		st, err := s.store.Status(ctx, sender)
		if err != nil {
			s.logger.Error("Failed to read user status",
				zap.String("sender", sender),
				zap.Error(err),
			)
			return fmt.Sprintf("Lỗi khi kiểm tra trạng thái cấu hình của %s.", sender)
		}
		return s.formatStatus(sender, st)

	case model.ActionCheck:
		return s.checkAction(ctx, sender)

	case model.ActionReset:
		if err := s.store.Reset(ctx, sender); err != nil {
			s.logger.Error("Failed to reset user state",
				zap.String("sender", sender),
				zap.Error(err),
			)
			return replyResetError
		}
		return replyResetDone

	case model.ActionShutdown:
		s.logger.Warn("Shutdown requested via chat command",
			zap.String("sender", sender),
		)
		s.shutdown()
		return replyShutdown

	default:
		return replyDidNotUnderstand
	}
}

func (s *MessageService) checkAction(ctx context.Context, sender string) string {
	now := s.now()
	missing, err := s.reader.MonthlyMissing(ctx, s.roster[sender].EmployeeID, now, s.store.ExcludedDates(sender))
	if err != nil {
		s.logger.Error("Failed to read monthly attendance",
			zap.String("sender", sender),
			zap.Error(err),
		)
		return fmt.Sprintf("Lỗi khi kiểm tra tình trạng check in/out của %s trong tháng này.", sender)
	}

	if len(missing) == 0 {
		return replyCheckComplete
	}

	var sb strings.Builder
	sb.WriteString("Em còn thiếu chấm công các ngày sau trong tháng này:\n")
	for _, dm := range missing {
		sb.WriteString(fmt.Sprintf("   - Ngày %s: Thiếu %s\n", dm.Date.Compact(), dm.Missing))
	}
	sb.WriteString("Chú ý chấm công đầy đủ nhé!")
	return sb.String()
}

func (s *MessageService) formatStatus(sender string, st model.UserState) string {
	gender := s.roster[sender].Gender

	switch {
	case len(st.OnBoard) == 0 && len(st.RemoveDays) == 0:
		return fmt.Sprintf(
			"%s %s chưa có cấu hình onboard và ngày xóa thông báo nào. Tháng này tôi sẽ tự động check in/out onsite mọi ngày cho %s.",
			gender, sender, strings.ToLower(gender),
		)

	case len(st.OnBoard) == 0:
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%s %s đã cấu hình không theo dõi timekeep các ngày.\n", gender, sender))
		for _, day := range st.RemoveDays {
			sb.WriteString(fmt.Sprintf("- %s\n", day))
		}
		sb.WriteString("Chủ động theo dõi các ngày trên")
		return sb.String()

	case len(st.RemoveDays) == 0:
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%s %s đã cấu hình onboard các ngày.\n", gender, sender))
		for _, day := range st.OnBoard {
			sb.WriteString(fmt.Sprintf("- %s\n", day))
		}
		sb.WriteString("Chủ động check in/out các ngày trên")
		return sb.String()

	default:
		var sb strings.Builder
		sb.WriteString("Các ngày cấu hình onboard\n")
		for _, day := range st.OnBoard {
			sb.WriteString(fmt.Sprintf("- %s\n", day))
		}
		sb.WriteString("Chủ động check in/out các ngày trên\n\n")
		sb.WriteString("Các ngày cấu hình xóa thông báo\n")
		for _, day := range st.RemoveDays {
			sb.WriteString(fmt.Sprintf("- %s\n", day))
		}
		sb.WriteString("Chủ động check timekeep các ngày trên")
		return sb.String()
	}
}
