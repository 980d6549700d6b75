package resume

import "errors"

// ErrResumeNotFound 表示按当前过滤条件找不到简历。
// 所有权不匹配同样返回该错误，对非所有者隐藏简历是否存在。
var ErrResumeNotFound = errors.New("resume not found")

// ErrNoUpdateFields 表示部分更新请求没有携带任何字段。
var ErrNoUpdateFields = errors.New("no fields to update")
