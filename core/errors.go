package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message），可选包裹底层错误（Cause）
//   - 支持错误检查函数（IsXXX）与 errors.Is / errors.As
//
// 使用场景：
//   - Store 错误：NOT_FOUND
//   - Feature 错误：FEATURE_MISMATCH, BUNDLE_MISMATCH, NOT_FITTED
//   - Inference 错误：INVALID_INPUT（种子电影均不在目录中等调用方错误）
//   - Model 错误：UNAVAILABLE（远程分类器不可达、熔断打开）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_INPUT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "feature", "inference"）
	Cause   error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is 按 Module + Code 比较，使 errors.Is(err, ErrXXX) 对包裹后的错误同样成立。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的第一个 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建包裹底层错误的领域错误
func WrapDomainError(module, code, message string, cause error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound        = "NOT_FOUND"        // 资源不存在
	ErrorCodeNotSupported    = "NOT_SUPPORTED"    // 操作不支持
	ErrorCodeUnavailable     = "UNAVAILABLE"      // 服务不可用
	ErrorCodeInvalidInput    = "INVALID_INPUT"    // 输入无效
	ErrorCodeInternalError   = "INTERNAL_ERROR"   // 内部错误
	ErrorCodeFeatureMismatch = "FEATURE_MISMATCH" // 特征列名/顺序/数量不一致
	ErrorCodeBundleMismatch  = "BUNDLE_MISMATCH"  // 词表与目录不是同一次保存产生
	ErrorCodeNotFitted       = "NOT_FITTED"       // 转换器尚未 fit/load
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleFeature   = "feature"   // 特征模块
	ModuleInference = "inference" // 推理候选准备
	ModuleModel     = "model"     // 分类器模块
	ModuleService   = "service"   // 服务模块
	ModuleDataset   = "dataset"   // 数据加载
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT（调用方错误，应以 4xx 语义返回）
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsFeatureMismatch 检查错误是否为 FEATURE_MISMATCH
func IsFeatureMismatch(err error) bool { return hasCode(err, ErrorCodeFeatureMismatch) }

// IsBundleMismatch 检查错误是否为 BUNDLE_MISMATCH
func IsBundleMismatch(err error) bool { return hasCode(err, ErrorCodeBundleMismatch) }

// IsNotFitted 检查错误是否为 NOT_FITTED
func IsNotFitted(err error) bool { return hasCode(err, ErrorCodeNotFitted) }
