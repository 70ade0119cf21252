package errors

import (
	"errors"
	"fmt"
)

// AppError 带业务错误码的应用错误
// 设计说明：
// 1. Code给客户端做分支判断,和HTTP状态码解耦(本服务业务错误
//    一律HTTP 200 + 非零code)
// 2. Message直接展示给用户
// 3. Err是底层原因,只进日志不出网,领域/存储层用Wrap把
//    它藏进来,避免把SQL错误之类的细节泄给客户端
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"` // 内部原因,不序列化
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 让errors.Is/As能穿透到底层原因
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 构造不带底层原因的业务错误
// 领域包用它定义哨兵错误,如order.ErrOrderNotFound
func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap 把基础设施错误(数据库/缓存/网络)包成内部错误
func Wrap(err error, message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message, Err: err}
}

// GetAppError 从错误链里取AppError,取不到则按内部错误处理
// response.Error靠它决定返回哪个code
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// 错误码分段:
//   - 4xxxx 客户端侧(参数、业务规则、资源不存在)
//   - 5xxxx 服务端侧(数据库等基础设施故障)
//
// 表里只列本服务真的会发出的码,哨兵错误本身定义在各领域包
const (
	// 业务规则(40000-40099)
	ErrCodeBusinessError  = 40000 // 业务规则冲突(通用)
	ErrCodeISBNDuplicate  = 40004 // ISBN已存在
	ErrCodeDuplicateEntry = 40009 // 唯一键冲突(通用)

	// 资源不存在(40400-40499)
	ErrCodeBookNotFound  = 40402 // 图书不存在或已下架
	ErrCodeOrderNotFound = 40403 // 订单不存在(含不属于当前顾客)

	// 参数错误(40900-40999):请求本身不合法,还没走到业务校验
	ErrCodeInvalidParams = 40900

	// 校验错误(42200-42299):实体没过保存前的业务规则校验。
	// 与参数错误的区别:参数错误是请求格式问题(JSON解析失败等),
	// 校验错误带字段级明细,是预期内的业务结果
	ErrCodeValidationFailed = 42200

	// 系统级(50000-50099)
	ErrCodeInternal      = 50000 // 内部错误(兜底)
	ErrCodeDatabaseError = 50001 // 数据库故障
)
