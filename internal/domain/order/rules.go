package order

import (
	"context"
	"fmt"

	"github.com/chenxi/bookshop/internal/domain/validation"
)

// KindOrder 订单的实体种类键
const KindOrder = "order"

// ValidateOrder 订单保存前校验
// 规则:
// - 字段级规则见实体validate标签(行号/数量/单价范围等)
// - 订单必须至少包含一件商品
// - 冗余的Total必须与明细合计一致(防止改价攻击)
// - 每行引用的图书必须存在且未下架(跨实体规则,通过Lookup回查,
//   回查走与正常读路径相同的过滤,所以下架图书视同不存在)
func ValidateOrder(ctx context.Context, look validation.Lookup, entity interface{}) ([]validation.FieldError, error) {
	o, ok := entity.(*Order)
	if !ok {
		return nil, fmt.Errorf("校验order时收到错误类型: %T", entity)
	}

	errs := validation.CheckStruct(o)

	if len(o.Items) == 0 {
		errs = append(errs, validation.FieldError{
			Field:   "Items",
			Message: "订单必须至少包含一件商品",
		})
		return errs, nil
	}

	if sum := o.CalculateTotal(); o.Total != sum {
		errs = append(errs, validation.FieldError{
			Field:   "Total",
			Message: fmt.Sprintf("订单总额与明细合计不一致(总额%d,合计%d)", o.Total, sum),
		})
	}

	for i := range o.Items {
		exists, err := look.BookExists(ctx, o.Items[i].BookID)
		if err != nil {
			// 回查失败是基础设施故障,不是校验失败
			return nil, err
		}
		if !exists {
			errs = append(errs, validation.FieldError{
				Field:   fmt.Sprintf("Items[%d].BookID", i),
				Message: "图书不存在或已下架",
			})
		}
	}

	return errs, nil
}
