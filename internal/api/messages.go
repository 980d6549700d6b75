package api

import (
	"strings"

	"github.com/jkc-mycode/spa-recruit-3-layered/internal/resume"
)

// 响应消息常量。错误消息保持固定文案，避免泄露内部细节。
const (
	MsgUnauthorized   = "unauthorized"
	MsgInternalError  = "internal error"
	MsgResumeNotFound = "resume not found"

	MsgSignUpSucceed     = "sign-up succeed"
	MsgSignInSucceed     = "sign-in succeed"
	MsgSignOutSucceed    = "sign-out succeed"
	MsgTokenRefreshed    = "token refreshed"
	MsgEmailDuplicated   = "email already registered"
	MsgInvalidPassword   = "password must contain a letter, a digit and a special character (6-15 chars)"
	MsgPasswordMismatch  = "password confirmation does not match"
	MsgProfileFetched    = "profile fetched"
	MsgResumeCreated     = "resume created"
	MsgResumeListFetched = "resume list fetched"
	MsgResumeFetched     = "resume fetched"
	MsgResumeUpdated     = "resume updated"
	MsgResumeDeleted     = "resume deleted"
	MsgStateChanged      = "resume state changed"
	MsgStateLogFetched   = "resume state log fetched"
	MsgNoUpdateFields    = "at least one of title or introduce is required"
	MsgIntroduceTooShort = "introduce must be at least 150 characters"
	MsgExportAccepted    = "resume pdf export accepted"
	MsgPdfNotReady       = "pdf not ready"
)

// MsgInvalidState 由合法阶段列表拼出，枚举扩展时文案自动跟进。
var MsgInvalidState = func() string {
	states := resume.States()
	names := make([]string, 0, len(states))
	for _, state := range states {
		names = append(names, string(state))
	}
	return "state must be one of [" + strings.Join(names, ", ") + "]"
}()
