package resume

import "strings"

// State 表示简历在招聘流程中的阶段。
// 阶段之间不做前驱/后继校验，任意阶段都可以直接切换到其他阶段。
type State string

const (
	StateApply      State = "APPLY"
	StateDrop       State = "DROP"
	StatePass       State = "PASS"
	StateInterview1 State = "INTERVIEW1"
	StateInterview2 State = "INTERVIEW2"
	StateFinalPass  State = "FINAL_PASS"
)

// States 按流程顺序列出全部合法阶段。
func States() []State {
	return []State{StateApply, StateDrop, StatePass, StateInterview1, StateInterview2, StateFinalPass}
}

// ParseState 将任意大小写的输入规范化为 State。
// 输入不是合法阶段时返回 ok=false。
func ParseState(raw string) (State, bool) {
	s := State(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case StateApply, StateDrop, StatePass, StateInterview1, StateInterview2, StateFinalPass:
		return s, true
	}
	return "", false
}

// Role 表示账号在系统中的角色。
type Role string

const (
	RoleApplicant Role = "APPLICANT"
	RoleRecruiter Role = "RECRUITER"
)

// ParseRole 规范化角色字符串。未知角色返回 ok=false。
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	switch r {
	case RoleApplicant, RoleRecruiter:
		return r, true
	}
	return "", false
}

// Identity 表示一次已认证请求的调用者。
type Identity struct {
	UserID uint
	Role   Role
}

// 列表排序方向。
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// NormalizeSort 规范化排序参数，非法或缺省时按 desc 处理。
func NormalizeSort(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case SortAsc:
		return SortAsc
	case SortDesc:
		return SortDesc
	default:
		return SortDesc
	}
}
