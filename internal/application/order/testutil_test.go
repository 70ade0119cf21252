package order

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chenxi/bookshop/internal/domain/book"
	"github.com/chenxi/bookshop/internal/domain/order"
	"github.com/chenxi/bookshop/internal/identity"
	"github.com/chenxi/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/chenxi/bookshop/pkg/logger"
	"github.com/chenxi/bookshop/pkg/metrics"
)

// 订单用例测试基础设施
// 教学说明:
// 1. 用例直接跑在SQLite内存库上:存储上下文、校验门禁、查询过滤
//    走与线上完全相同的代码路径,只有缓存和事件发布换成假实现
// 2. 指标助手不带nil保护,跑用例前必须注册指标(InitMetrics幂等)

var testDBSeq int64

// newTestFactory 构造SQLite内存库上的存储上下文工厂
func newTestFactory(t *testing.T) *mysql.StoreContextFactory {
	t.Helper()

	metrics.InitMetrics()

	dsn := fmt.Sprintf("file:ordertest%d?mode=memory&cache=shared&_foreign_keys=on", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "打开测试数据库失败")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, mysql.SetupSchema(db), "建表失败")
	return mysql.NewStoreContextFactory(db, newTestLogger(t))
}

// newTestLogger error级日志器:缓存降级之类的预期告警不刷屏
func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New("error", "console", false)
	require.NoError(t, err)
	return log
}

// testBook 组装一本能通过校验的图书
func testBook(isbn, title string, price int64) *book.Book {
	return &book.Book{
		ISBN:        isbn,
		Title:       title,
		Publisher:   "人民邮电出版社",
		Price:       price,
		PublishedAt: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

// mustSaveBooks 用独立工作单元把图书落库(测试夹具,不走被测路径)
func mustSaveBooks(t *testing.T, f *mysql.StoreContextFactory, books ...*book.Book) {
	t.Helper()

	store := f.NewContext(identity.Static(uuid.New()))
	for _, b := range books {
		store.Add(b)
	}
	require.NoError(t, store.SaveChanges(context.Background()))
}

// mustSaveOrder 以指定顾客身份直接落一张订单(绕过下单用例)
func mustSaveOrder(t *testing.T, f *mysql.StoreContextFactory, customerID uuid.UUID, items []order.LineItem) *order.Order {
	t.Helper()

	store := f.NewContext(identity.Static(customerID))
	o := order.NewOrder(customerID, items)
	store.Add(o)
	require.NoError(t, store.SaveChanges(context.Background()))
	return o
}

// mustDelist 把已落库的图书下架(软删除+更新)
func mustDelist(t *testing.T, f *mysql.StoreContextFactory, b *book.Book) {
	t.Helper()

	b.MarkDeleted()
	store := f.NewContext(identity.Static(uuid.New()))
	store.Update(b)
	require.NoError(t, store.SaveChanges(context.Background()))
}

// capturePublisher 记录发布内容的假事件发布器
type capturePublisher struct {
	failWith error // 注入发布故障
	events   []capturedEvent
}

type capturedEvent struct {
	routingKey string
	message    interface{}
}

func (p *capturePublisher) Publish(routingKey string, message interface{}) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.events = append(p.events, capturedEvent{routingKey: routingKey, message: message})
	return nil
}

func (p *capturePublisher) Exchange() string { return "bookshop.events" }

// fakeDetailCache 内存版订单详情缓存(可注入读写故障)
// 键含顾客标识,与redis.OrderCache的键口径一致
type fakeDetailCache struct {
	data     map[string]string
	getErr   error
	setErr   error
	getCalls int
	setCalls int
}

func newFakeDetailCache() *fakeDetailCache {
	return &fakeDetailCache{data: make(map[string]string)}
}

func (c *fakeDetailCache) key(customerID uuid.UUID, orderID uint) string {
	return fmt.Sprintf("%s:%d", customerID.String(), orderID)
}

func (c *fakeDetailCache) GetDetail(_ context.Context, customerID uuid.UUID, orderID uint) (string, bool, error) {
	c.getCalls++
	if c.getErr != nil {
		return "", false, c.getErr
	}
	v, ok := c.data[c.key(customerID, orderID)]
	return v, ok, nil
}

func (c *fakeDetailCache) SetDetail(_ context.Context, customerID uuid.UUID, orderID uint, detailJSON string) error {
	c.setCalls++
	if c.setErr != nil {
		return c.setErr
	}
	c.data[c.key(customerID, orderID)] = detailJSON
	return nil
}
