package book

import (
	"context"
	"fmt"
	"regexp"

	"github.com/chenxi/bookshop/internal/domain/validation"
)

// 实体种类键
// 存储上下文暂存实体时按类型解析出种类,再到校验注册表里取对应规则
const (
	KindBook       = "book"
	KindAuthor     = "author"
	KindTag        = "tag"
	KindPriceOffer = "price_offer"
)

// ValidateBook 图书保存前校验
// 规则:
// - 字段级规则见实体上的validate标签(书名/出版社必填、价格1分-9999.99元等)
// - ISBN必须是10位或13位数字(允许带分隔符)
func ValidateBook(_ context.Context, _ validation.Lookup, entity interface{}) ([]validation.FieldError, error) {
	b, ok := entity.(*Book)
	if !ok {
		return nil, fmt.Errorf("校验book时收到错误类型: %T", entity)
	}

	errs := validation.CheckStruct(b)
	if b.ISBN != "" && !isValidISBN(b.ISBN) {
		errs = append(errs, validation.FieldError{
			Field:   "ISBN",
			Message: "ISBN格式不正确(需10位或13位数字)",
		})
	}
	return errs, nil
}

// ValidateAuthor 作者保存前校验
func ValidateAuthor(_ context.Context, _ validation.Lookup, entity interface{}) ([]validation.FieldError, error) {
	a, ok := entity.(*Author)
	if !ok {
		return nil, fmt.Errorf("校验author时收到错误类型: %T", entity)
	}
	return validation.CheckStruct(a), nil
}

// ValidateTag 标签保存前校验
func ValidateTag(_ context.Context, _ validation.Lookup, entity interface{}) ([]validation.FieldError, error) {
	t, ok := entity.(*Tag)
	if !ok {
		return nil, fmt.Errorf("校验tag时收到错误类型: %T", entity)
	}
	return validation.CheckStruct(t), nil
}

// ValidatePriceOffer 促销价保存前校验
func ValidatePriceOffer(_ context.Context, _ validation.Lookup, entity interface{}) ([]validation.FieldError, error) {
	p, ok := entity.(*PriceOffer)
	if !ok {
		return nil, fmt.Errorf("校验price_offer时收到错误类型: %T", entity)
	}
	return validation.CheckStruct(p), nil
}

// isValidISBN 校验ISBN格式
// 支持:
// - ISBN-10: 10位数字
// - ISBN-13: 13位数字,如9787115428028
// 简化实现:先去掉分隔符(978-7-115-42802-8 → 9787115428028),
// 只检查位数(生产环境应校验校验位)
func isValidISBN(isbn string) bool {
	re := regexp.MustCompile(`[^0-9]`)
	cleanISBN := re.ReplaceAllString(isbn, "")

	length := len(cleanISBN)
	return length == 10 || length == 13
}
