package assistant

import "errors"

// 错误定义
var (
	// ErrUnavailable 意图识别服务无法连接
	ErrUnavailable = errors.New("classifier unavailable")

	// ErrTimeout 请求超时
	ErrTimeout = errors.New("classifier request timed out")

	// ErrInvalidOutput 模型输出无法解析为意图
	ErrInvalidOutput = errors.New("invalid classifier output")

	ErrUnauthorized   = errors.New("classifier unauthorized")
	ErrRateLimited    = errors.New("classifier rate limited")
	ErrRetryExhausted = errors.New("classifier retry attempts exhausted")
)
