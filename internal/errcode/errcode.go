package errcode

// 通知消息中的错误码约定：
// - 0：无错误
// - 5xxx：系统错误（任务最终失败）
const (
	OK          = 0
	SystemError = 5000
)
