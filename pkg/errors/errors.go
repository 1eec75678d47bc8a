package errors

import "errors"

// ErrLockNotAcquired 计划锁已被其他请求持有
var ErrLockNotAcquired = errors.New("生产计划正在被其他请求处理，请稍后重试")
