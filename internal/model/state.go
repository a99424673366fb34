package model

// UserState 记录单个用户的自动化例外日期。
// on_board: những ngày user tự check in/out, bot phải bỏ qua.
// remove_days: những ngày bị loại khỏi báo cáo thiếu chấm công (nghỉ phép...).
type UserState struct {
	OnBoard    []Date `json:"on_board"`
	RemoveDays []Date `json:"remove_days"`
}

func NewUserState() *UserState {
	return &UserState{OnBoard: []Date{}, RemoveDays: []Date{}}
}

// AddOnBoard 并集合入 on_board，重复日期丢弃，幂等。
func (s *UserState) AddOnBoard(dates ...Date) {
	s.OnBoard = mergeDates(s.OnBoard, dates)
}

// AddRemoveDays 并集合入 remove_days，幂等。
func (s *UserState) AddRemoveDays(dates ...Date) {
	s.RemoveDays = mergeDates(s.RemoveDays, dates)
}

// HasOnBoard reports whether d là ngày user tự xử lý.
func (s *UserState) HasOnBoard(d Date) bool {
	for _, existing := range s.OnBoard {
		if existing == d {
			return true
		}
	}
	return false
}

// HasRemoveDay reports whether d bị loại khỏi báo cáo.
func (s *UserState) HasRemoveDay(d Date) bool {
	for _, existing := range s.RemoveDays {
		if existing == d {
			return true
		}
	}
	return false
}

// PruneBefore 丢弃严格早于 cutoff 的日期（cutoff 当天保留）。
func (s *UserState) PruneBefore(cutoff Date) {
	s.OnBoard = keepFrom(s.OnBoard, cutoff)
	s.RemoveDays = keepFrom(s.RemoveDays, cutoff)
}

func mergeDates(existing []Date, incoming []Date) []Date {
	seen := make(map[Date]struct{}, len(existing))
	for _, d := range existing {
		seen[d] = struct{}{}
	}
	for _, d := range incoming {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		existing = append(existing, d)
	}
	SortDates(existing)
	return existing
}

func keepFrom(dates []Date, cutoff Date) []Date {
	kept := dates[:0]
	for _, d := range dates {
		if !d.Before(cutoff) {
			kept = append(kept, d)
		}
	}
	return kept
}

// LinkHealth 是两个外部依赖的可达性缓存，每天由 probe job 刷新一次。
type LinkHealth struct {
	FormLink     bool `json:"form_link"`
	TimekeepLink bool `json:"timekeep_link"`
}

// StateDocument 是持久化的完整状态文档（key-value 存储里的一条 JSON）。
type StateDocument struct {
	UserStates map[string]*UserState `json:"user_states"`
	LinkHealth LinkHealth            `json:"link_health"`
}

func NewStateDocument() *StateDocument {
	return &StateDocument{
		UserStates: make(map[string]*UserState),
		// 新部署默认两条链路健康，第一次 probe 会校正
		LinkHealth: LinkHealth{FormLink: true, TimekeepLink: true},
	}
}

// User 返回 identity 的状态记录，没有则惰性创建。
// 返回值第二项表示是否新建（调用方决定是否需要落盘）。
func (d *StateDocument) User(identity string) (*UserState, bool) {
	if d.UserStates == nil {
		d.UserStates = make(map[string]*UserState)
	}
	if s, ok := d.UserStates[identity]; ok {
		return s, false
	}
	s := NewUserState()
	d.UserStates[identity] = s
	return s, true
}
