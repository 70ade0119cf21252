package mysql

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chenxi/bookshop/internal/domain/book"
	"github.com/chenxi/bookshop/internal/domain/order"
	"github.com/chenxi/bookshop/internal/domain/validation"
	"github.com/chenxi/bookshop/internal/identity"
	apperrors "github.com/chenxi/bookshop/pkg/errors"
	"github.com/chenxi/bookshop/pkg/logger"
)

// StoreContext 存储上下文(工作单元)
// 设计说明：
// 1. 一次逻辑工作单元一个实例(服务端通常是一请求一个),
//    持有待保存集和构造时固化的顾客身份,内部不加锁,
//    不允许跨并发工作单元共享;并发请求之间的隔离
//    交给数据库的事务隔离级别
// 2. 它是通往持久存储的唯一入口:读走带过滤的类型化访问器,
//    写走Add/Update/Remove暂存 + SaveChanges落库
// 3. 查询过滤(软删除/租户)在访问器内部无条件拼接,
//    调用方加的谓词只会与之叠加,不可能替换
// 4. 待保存集就是显式的"脏集":暂存时登记,保存时消费,
//    不依赖ORM的变更追踪,也就没有追踪开关要恢复
type StoreContext struct {
	db       *gorm.DB
	tx       *gorm.DB // BeginTransaction开启的显式事务(未开启为nil)
	registry *validation.Registry
	log      *logger.Logger
	userID   uuid.UUID
	pending  []pendingChange
	broken   bool // 保存途中发生存储故障后置位,上下文作废
}

// ErrContextBroken 上下文已因存储故障作废
// 故障后待保存集与库内状态不再可信,必须丢弃本实例重建
var ErrContextBroken = apperrors.New(apperrors.ErrCodeDatabaseError, "存储上下文已失效,请丢弃后重建")

// entityOp 暂存操作类型
type entityOp int

const (
	opAdd    entityOp = iota // 新增
	opUpdate                 // 更新
	opRemove                 // 删除
)

// pendingChange 待保存集中的一条登记
type pendingChange struct {
	op     entityOp
	kind   string // 实体种类键(校验注册表用)
	entity interface{}
}

// StoreContextFactory 存储上下文工厂
// 进程级单例:持有连接池、校验注册表和日志器,按工作单元产出上下文
type StoreContextFactory struct {
	db       *gorm.DB
	registry *validation.Registry
	log      *logger.Logger
}

// NewStoreContextFactory 创建工厂
func NewStoreContextFactory(db *gorm.DB, log *logger.Logger) *StoreContextFactory {
	return &StoreContextFactory{
		db:       db,
		registry: newValidationRegistry(),
		log:      log,
	}
}

// NewContext 为一个工作单元构造存储上下文
// 身份解析恰好发生一次:此刻调用src.GetUserID并固化结果。
// src可为nil(种子工具/测试),此时回退到占位身份。
// 生产请求路径绝不应走到这个分支,走到了说明接线有误,记告警
func (f *StoreContextFactory) NewContext(src identity.UserIDService) *StoreContext {
	userID := identity.PlaceholderID
	if src != nil {
		userID = src.GetUserID()
	} else {
		f.log.Warn("构造存储上下文时未提供身份源,回退到占位身份",
			"placeholder", userID.String(),
		)
	}

	return &StoreContext{
		db:       f.db,
		registry: f.registry,
		log:      f.log,
		userID:   userID,
	}
}

// UserID 本工作单元固化的顾客身份
func (s *StoreContext) UserID() uuid.UUID {
	return s.userID
}

// conn 当前应使用的连接:显式事务开启期间走事务,否则走连接池
func (s *StoreContext) conn() *gorm.DB {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// =========================================
// 类型化访问器(带查询过滤)
// =========================================

// Books 图书访问器:自动过滤软删除
// 返回的查询可继续叠加Where/Preload/Order等,过滤谓词不可移除
func (s *StoreContext) Books() *gorm.DB {
	return s.conn().Model(&BookModel{}).Scopes(notSoftDeleted)
}

// Authors 作者访问器
func (s *StoreContext) Authors() *gorm.DB {
	return s.conn().Model(&AuthorModel{})
}

// Tags 标签访问器
func (s *StoreContext) Tags() *gorm.DB {
	return s.conn().Model(&TagModel{})
}

// PriceOffers 促销价访问器
func (s *StoreContext) PriceOffers() *gorm.DB {
	return s.conn().Model(&PriceOfferModel{})
}

// Orders 订单访问器:自动限定当前顾客
// 租户隔离在这里强制收口,上层代码不写也写不出跨租户的订单查询
func (s *StoreContext) Orders() *gorm.DB {
	return s.conn().Model(&OrderModel{}).Scopes(ownedBy(s.userID))
}

// BooksUnfiltered 跳过软删除过滤的图书访问器(**慎用**)
// 仅供管理/种子/测试等确需看到下架图书的路径;正常业务一律用Books
func (s *StoreContext) BooksUnfiltered() *gorm.DB {
	return s.conn().Model(&BookModel{})
}

// OrdersUnfiltered 跳过租户过滤的订单访问器(**慎用**)
// 仅供运营后台等跨租户路径;正常业务一律用Orders
func (s *StoreContext) OrdersUnfiltered() *gorm.DB {
	return s.conn().Model(&OrderModel{})
}

// =========================================
// 暂存(构建待保存集)
// =========================================

// Add 暂存一个新增实体
// 只登记不落库;落库由SaveChanges/SaveChangesWithValidation统一执行
func (s *StoreContext) Add(entity interface{}) {
	s.stage(opAdd, entity)
}

// Update 暂存一个更新实体
func (s *StoreContext) Update(entity interface{}) {
	s.stage(opUpdate, entity)
}

// Remove 暂存一个删除实体(硬删除)
// 图书下架不要用它:那是软删除,走MarkDeleted+Update
func (s *StoreContext) Remove(entity interface{}) {
	s.stage(opRemove, entity)
}

func (s *StoreContext) stage(op entityOp, entity interface{}) {
	s.pending = append(s.pending, pendingChange{
		op:     op,
		kind:   kindOf(entity),
		entity: entity,
	})
}

// PendingCount 待保存集大小
// 校验失败后待保存集原样保留,调用方(和测试)据此确认没有偷偷落库
func (s *StoreContext) PendingCount() int {
	return len(s.pending)
}

// kindOf 按实体类型解析种类键(未知类型返回空串,保存时报错)
func kindOf(entity interface{}) string {
	switch entity.(type) {
	case *book.Book:
		return book.KindBook
	case *book.Author:
		return book.KindAuthor
	case *book.Tag:
		return book.KindTag
	case *book.PriceOffer:
		return book.KindPriceOffer
	case *order.Order:
		return order.KindOrder
	default:
		return ""
	}
}

// =========================================
// 保存
// =========================================

// SaveChanges 无校验保存:把待保存集原子提交进库
// 语义:
// - 未开显式事务时,整个待保存集包在一个事务里,要么全部落库要么全不
// - 已开显式事务时,直接写进该事务,提交与否由事务句柄的持有者决定
// - 任何后端错误按存储故障处理:返回error,上下文作废(broken)
// - 仅在成功时清空待保存集
// 仅供受信路径(种子工具、测试夹具)使用;业务路径一律走带校验的保存
func (s *StoreContext) SaveChanges(ctx context.Context) error {
	if s.broken {
		return ErrContextBroken
	}
	if len(s.pending) == 0 {
		return nil
	}

	flush := func(tx *gorm.DB) error {
		for i := range s.pending {
			if err := s.flushOne(tx, s.pending[i]); err != nil {
				return err
			}
		}
		return nil
	}

	var err error
	if s.tx != nil {
		err = flush(s.tx.WithContext(ctx))
	} else {
		err = s.db.WithContext(ctx).Transaction(flush)
	}

	if err != nil {
		s.broken = true
		return err
	}

	s.pending = nil
	return nil
}

// SaveChangesWithValidation 带校验门禁的保存
// 契约(调用方据此写分支):
//   - 返回(failures, nil)且failures非空:有实体未通过校验。
//     没有任何写入发生,待保存集原样保留在内存里,调用方可以
//     把failures渲染给用户,修正后重试,或者直接丢弃上下文
//   - 返回(nil, nil):全部通过,待保存集已在一个原子提交中落库
//   - 返回(nil, err):校验回查或落库发生存储故障,上下文作废
//
// 校验范围:待保存集中暂存为新增/更新的实体(删除的不校验);
// 按实体种类从注册表取规则执行,规则可通过Lookup回查存储
func (s *StoreContext) SaveChangesWithValidation(ctx context.Context) ([]validation.FieldError, error) {
	if s.broken {
		return nil, ErrContextBroken
	}

	var failures []validation.FieldError
	for i := range s.pending {
		c := &s.pending[i]
		if c.op == opRemove {
			continue
		}
		fn := s.registry.Get(c.kind)
		if fn == nil {
			continue
		}
		errs, err := fn(ctx, s, c.entity)
		if err != nil {
			// 规则执行失败(回查出错等)是故障,不是校验失败
			return nil, err
		}
		failures = append(failures, errs...)
	}

	if len(failures) > 0 {
		// 保存不执行,待保存集保留:校验失败是数据,不是异常
		return failures, nil
	}

	return nil, s.SaveChanges(ctx)
}

// BookExists 实现validation.Lookup:图书是否存在且未下架
// 走Books()这条被过滤的读路径,所以对规则而言下架即不存在
func (s *StoreContext) BookExists(ctx context.Context, bookID uint) (bool, error) {
	var count int64
	err := s.Books().WithContext(ctx).Where("books.id = ?", bookID).Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(err, "查询图书失败")
	}
	return count > 0, nil
}

// =========================================
// 落库(按实体种类分发)
// =========================================

func (s *StoreContext) flushOne(tx *gorm.DB, c pendingChange) error {
	switch e := c.entity.(type) {
	case *book.Book:
		return s.flushBook(tx, c.op, e)
	case *book.Author:
		return s.flushAuthor(tx, c.op, e)
	case *book.Tag:
		return s.flushTag(tx, c.op, e)
	case *book.PriceOffer:
		return s.flushPriceOffer(tx, c.op, e)
	case *order.Order:
		return s.flushOrder(tx, c.op, e)
	default:
		return apperrors.New(apperrors.ErrCodeInternal,
			fmt.Sprintf("待保存集中出现不支持的实体类型: %T", c.entity))
	}
}

func (s *StoreContext) flushBook(tx *gorm.DB, op entityOp, b *book.Book) error {
	model := toBookModel(b)
	switch op {
	case opAdd:
		if err := tx.Create(model).Error; err != nil {
			if isDuplicateError(err) {
				return book.ErrISBNDuplicate
			}
			return apperrors.Wrap(err, "创建图书失败")
		}
		// 回填数据库生成的ID和时间戳(含关联)
		b.ID = model.ID
		b.CreatedAt = model.CreatedAt
		b.UpdatedAt = model.UpdatedAt
		for i := range model.Authors {
			b.Authors[i].ID = model.Authors[i].ID
		}
		for i := range model.Tags {
			b.Tags[i].ID = model.Tags[i].ID
		}
		if model.Promotion != nil {
			b.Promotion.ID = model.Promotion.ID
			b.Promotion.BookID = model.Promotion.BookID
		}
	case opUpdate:
		if err := tx.Save(model).Error; err != nil {
			return apperrors.Wrap(err, "更新图书失败")
		}
		b.UpdatedAt = model.UpdatedAt
	case opRemove:
		// 硬删除:若有订单明细行引用这本书,数据库的RESTRICT外键
		// 会拒绝删除,错误按存储故障冒泡,这正是预期行为
		result := tx.Delete(&BookModel{}, b.ID)
		if result.Error != nil {
			return apperrors.Wrap(result.Error, "删除图书失败")
		}
		if result.RowsAffected == 0 {
			return book.ErrBookNotFound
		}
	}
	return nil
}

func (s *StoreContext) flushAuthor(tx *gorm.DB, op entityOp, a *book.Author) error {
	model := toAuthorModel(a)
	switch op {
	case opAdd:
		if err := tx.Create(model).Error; err != nil {
			return apperrors.Wrap(err, "创建作者失败")
		}
		a.ID = model.ID
	case opUpdate:
		if err := tx.Save(model).Error; err != nil {
			return apperrors.Wrap(err, "更新作者失败")
		}
	case opRemove:
		result := tx.Delete(&AuthorModel{}, a.ID)
		if result.Error != nil {
			return apperrors.Wrap(result.Error, "删除作者失败")
		}
	}
	return nil
}

func (s *StoreContext) flushTag(tx *gorm.DB, op entityOp, t *book.Tag) error {
	model := toTagModel(t)
	switch op {
	case opAdd:
		if err := tx.Create(model).Error; err != nil {
			if isDuplicateError(err) {
				return apperrors.New(apperrors.ErrCodeDuplicateEntry, "标签名已存在")
			}
			return apperrors.Wrap(err, "创建标签失败")
		}
		t.ID = model.ID
	case opUpdate:
		if err := tx.Save(model).Error; err != nil {
			return apperrors.Wrap(err, "更新标签失败")
		}
	case opRemove:
		result := tx.Delete(&TagModel{}, t.ID)
		if result.Error != nil {
			return apperrors.Wrap(result.Error, "删除标签失败")
		}
	}
	return nil
}

func (s *StoreContext) flushPriceOffer(tx *gorm.DB, op entityOp, p *book.PriceOffer) error {
	model := toPriceOfferModel(p)
	switch op {
	case opAdd:
		if err := tx.Create(model).Error; err != nil {
			if isDuplicateError(err) {
				return apperrors.New(apperrors.ErrCodeDuplicateEntry, "该图书已有促销价")
			}
			return apperrors.Wrap(err, "创建促销价失败")
		}
		p.ID = model.ID
	case opUpdate:
		if err := tx.Save(model).Error; err != nil {
			return apperrors.Wrap(err, "更新促销价失败")
		}
	case opRemove:
		result := tx.Delete(&PriceOfferModel{}, p.ID)
		if result.Error != nil {
			return apperrors.Wrap(result.Error, "删除促销价失败")
		}
	}
	return nil
}

func (s *StoreContext) flushOrder(tx *gorm.DB, op entityOp, o *order.Order) error {
	switch op {
	case opAdd:
		model := toOrderModel(o)
		if err := tx.Create(model).Error; err != nil {
			return apperrors.Wrap(err, "创建订单失败")
		}
		// 回填数据库生成的ID和时间戳(订单和明细行)
		o.ID = model.ID
		o.CreatedAt = model.CreatedAt
		o.UpdatedAt = model.UpdatedAt
		for i := range model.Items {
			o.Items[i].ID = model.Items[i].ID
			o.Items[i].OrderID = model.ID
		}
	case opUpdate, opRemove:
		// 订单落库后不可变:没有更新路径,正常流程也绝不硬删除
		return order.ErrOrderImmutable
	}
	return nil
}
