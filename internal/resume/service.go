package resume

import (
	"context"
	"time"

	"github.com/jkc-mycode/spa-recruit-3-layered/internal/database"
)

// Service 封装简历的查询、字段修改与状态流转逻辑。
// 角色相关的可见性由 ListScope/DetailScope 决定，角色门禁由外层中间件负责。
type Service struct {
	repo Repository
}

// NewService 构造 Service。
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// View 是列表/详情的输出投影，不暴露所有者的用户 ID。
type View struct {
	ResumeID  uint      `json:"resumeId"`
	UserName  string    `json:"userName"`
	Title     string    `json:"title"`
	Introduce string    `json:"introduce"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LogView 是状态历史的输出投影。
type LogView struct {
	LogID     uint      `json:"resumeLogId"`
	UserName  string    `json:"userName"`
	ResumeID  uint      `json:"resumeId"`
	OldState  string    `json:"oldState"`
	NewState  string    `json:"newState"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// Create 以 APPLY 阶段创建一份新简历。
func (s *Service) Create(ctx context.Context, ownerID uint, title, introduce string) (database.Resume, error) {
	return s.repo.Create(ctx, ownerID, title, introduce)
}

// List 返回调用者可见的简历列表。
// statusRaw 仅对招聘负责人生效；sortRaw 非法时按创建时间倒序。
func (s *Service) List(ctx context.Context, ident Identity, statusRaw, sortRaw string) ([]View, error) {
	records, err := s.repo.FindMany(ctx, ListScope(ident, statusRaw), NormalizeSort(sortRaw))
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(records))
	for _, record := range records {
		views = append(views, newView(record))
	}
	return views, nil
}

// Detail 返回调用者可见的单份简历。
// 不存在与无权查看都返回 ErrResumeNotFound。
func (s *Service) Detail(ctx context.Context, ident Identity, resumeID uint) (View, error) {
	record, err := s.repo.FindOne(ctx, DetailScope(ident, resumeID))
	if err != nil {
		return View{}, err
	}
	return newView(record), nil
}

// FindForExport 按调用者可见范围返回原始简历记录，供导出相关接口使用。
func (s *Service) FindForExport(ctx context.Context, ident Identity, resumeID uint) (database.Resume, error) {
	return s.repo.FindOne(ctx, DetailScope(ident, resumeID))
}

// Update 修改简历的标题/自我介绍，只应用调用方实际传入的字段。
// 所有权不匹配返回 ErrResumeNotFound。
func (s *Service) Update(ctx context.Context, resumeID, ownerID uint, title, introduce *string) (database.Resume, error) {
	fields := map[string]any{}
	if title != nil {
		fields["title"] = *title
	}
	if introduce != nil {
		fields["introduce"] = *introduce
	}
	if len(fields) == 0 {
		return database.Resume{}, ErrNoUpdateFields
	}

	owner := ownerID
	return s.repo.UpdateFields(ctx, DetailFilter{ResumeID: resumeID, OwnerID: &owner}, fields)
}

// Delete 删除调用者自己的简历，返回被删除的简历 ID。
func (s *Service) Delete(ctx context.Context, resumeID, ownerID uint) (uint, error) {
	owner := ownerID
	return s.repo.Delete(ctx, DetailFilter{ResumeID: resumeID, OwnerID: &owner})
}

// TransitionState 由招聘负责人将简历切换到新阶段，返回新写入的历史记录。
//
// 简历按 ID 查找，不附加所有权过滤（招聘负责人跨所有者操作）。
// 阶段合法性在输入边界校验，这里不再检查，也不约束阶段之间的转移关系。
func (s *Service) TransitionState(ctx context.Context, recruiterID, resumeID uint, newState State, reason string) (database.ResumeHistory, error) {
	if _, err := s.repo.FindOne(ctx, DetailFilter{ResumeID: resumeID}); err != nil {
		return database.ResumeHistory{}, err
	}
	return s.repo.Transition(ctx, recruiterID, resumeID, newState, reason)
}

// StateLog 返回一份简历的全部状态历史，按时间倒序。
// 简历不存在时返回 ErrResumeNotFound。
func (s *Service) StateLog(ctx context.Context, resumeID uint) ([]LogView, error) {
	if _, err := s.repo.FindOne(ctx, DetailFilter{ResumeID: resumeID}); err != nil {
		return nil, err
	}

	entries, err := s.repo.History(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	views := make([]LogView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, LogView{
			LogID:     entry.ID,
			UserName:  entry.Recruiter.Name,
			ResumeID:  entry.ResumeID,
			OldState:  entry.OldState,
			NewState:  entry.NewState,
			Reason:    entry.Reason,
			CreatedAt: entry.CreatedAt,
		})
	}
	return views, nil
}

func newView(record database.Resume) View {
	return View{
		ResumeID:  record.ID,
		UserName:  record.User.Name,
		Title:     record.Title,
		Introduce: record.Introduce,
		State:     record.State,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
