package validation

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// 校验门禁的核心类型定义
// 设计说明：
// 1. 校验失败是"数据"不是"错误"：规则未通过返回[]FieldError，
//    调用方据此渲染给用户；只有基础设施故障（如查库失败）才走error通道
// 2. 每种实体一个校验函数，按实体种类注册到Registry，保存时统一调度
//    （替代反射式的标签扫描，规则定义处即可读到全部逻辑）
// 3. 跨实体规则（如"图书必须存在且未下架"）通过Lookup接口回查存储，
//    Lookup由持久化层实现，规则本身不感知数据库

// FieldError 单个字段的校验失败
type FieldError struct {
	Field   string `json:"field"`   // 失败的成员名（如 Items[0].BookID）
	Message string `json:"message"` // 用户可读的原因
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Lookup 补充查询接口
// 供跨实体规则回查存储，实现方必须套用与正常读路径相同的查询过滤
// （软删除的图书对规则同样不可见）
type Lookup interface {
	// BookExists 图书是否存在且未被软删除
	BookExists(ctx context.Context, bookID uint) (bool, error)
}

// Func 实体校验函数
// 返回值约定：
//   - []FieldError 非空：规则未通过（预期内，保存会被拒绝）
//   - error 非nil：校验过程本身出错（查库失败等，按存储故障处理）
type Func func(ctx context.Context, look Lookup, entity interface{}) ([]FieldError, error)

// Registry 按实体种类索引的校验函数注册表
// 种类键由持久化层在暂存时解析（类型开关），未注册的种类视为无需校验
type Registry struct {
	funcs map[string]Func
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register 注册实体种类的校验函数（重复注册时后者覆盖前者）
func (r *Registry) Register(kind string, fn Func) {
	r.funcs[kind] = fn
}

// Get 按种类查找校验函数，未注册返回nil
func (r *Registry) Get(kind string) Func {
	return r.funcs[kind]
}

// =========================================
// 声明式字段规则（validator标签适配）
// =========================================

// structValidator 进程级validator实例（官方文档说明其并发安全，缓存结构体元数据）
var structValidator = validator.New()

// CheckStruct 按实体结构体上的validate标签做字段级校验
// 将validator的错误翻译为FieldError列表；实体种类级的跨字段/跨实体规则
// 在各自的校验函数里补充，不在这里处理
func CheckStruct(entity interface{}) []FieldError {
	err := structValidator.Struct(entity)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		// InvalidValidationError：传入了非结构体等非法参数，属编程错误
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fieldPath(fe),
			Message: messageFor(fe),
		})
	}
	return out
}

// fieldPath 取相对字段路径（去掉最外层结构体名）
// 如 Order.Items[0].Quantity → Items[0].Quantity
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	for i := 0; i < len(ns); i++ {
		if ns[i] == '.' {
			return ns[i+1:]
		}
	}
	return ns
}

// messageFor 将validator的tag翻译为用户可读的中文提示
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "不能为空"
	case "min":
		return fmt.Sprintf("不能小于%s", fe.Param())
	case "max":
		return fmt.Sprintf("不能超过%s", fe.Param())
	case "gte":
		return fmt.Sprintf("不能小于%s", fe.Param())
	case "lte":
		return fmt.Sprintf("不能大于%s", fe.Param())
	case "gt":
		return fmt.Sprintf("必须大于%s", fe.Param())
	case "url":
		return "不是合法的URL"
	default:
		return fmt.Sprintf("未通过%s校验", fe.Tag())
	}
}
