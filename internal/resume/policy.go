package resume

// ListFilter 描述列表查询的可见范围。
// OwnerID 非空时只返回该用户的简历，State 非空时只返回处于该阶段的简历。
type ListFilter struct {
	OwnerID *uint
	State   *State
}

// DetailFilter 描述单条查询的可见范围。
type DetailFilter struct {
	ResumeID uint
	OwnerID  *uint
}

// ListScope 根据调用者角色计算列表查询过滤条件。
//
// 招聘负责人可以看到全部简历，并可按阶段过滤（statusRaw 不是合法阶段时不过滤）；
// 求职者只能看到自己的简历，阶段过滤参数被忽略（有意的范围限制，而非缺陷）。
func ListScope(ident Identity, statusRaw string) ListFilter {
	switch ident.Role {
	case RoleRecruiter:
		var filter ListFilter
		if state, ok := ParseState(statusRaw); ok {
			filter.State = &state
		}
		return filter
	case RoleApplicant:
		fallthrough
	default:
		owner := ident.UserID
		return ListFilter{OwnerID: &owner}
	}
}

// DetailScope 计算单条查询过滤条件。
// 非招聘负责人附加所有权约束，使"不存在"与"不属于你"对调用者不可区分。
func DetailScope(ident Identity, resumeID uint) DetailFilter {
	filter := DetailFilter{ResumeID: resumeID}
	if ident.Role != RoleRecruiter {
		owner := ident.UserID
		filter.OwnerID = &owner
	}
	return filter
}
