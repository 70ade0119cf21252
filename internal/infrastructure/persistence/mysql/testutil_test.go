package mysql

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
	"github.com/chenxi/bookshop/pkg/logger"
)

// 存储层测试基础设施
// 教学说明:
// 1. 用SQLite内存库跑存储层测试:表结构与线上共用SetupSchema,
//    不依赖外部MySQL,裸机go test就能跑
// 2. 每个测试开一个带序号的独立内存库,互不串数据
// 3. 连接池收紧到1:内存库按连接隔离,多个连接各自看到一个空库
// 4. SQLite默认不开外键,_foreign_keys=on打开,否则RESTRICT约束形同虚设

var testDBSeq int64

// newTestDB 打开一个全新的SQLite内存库并建表
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared&_foreign_keys=on", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "打开测试数据库失败")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, SetupSchema(db), "建表失败")
	return db
}

// newTestFactory 构造测试用的存储上下文工厂
// 日志级别定为error:占位身份告警之类的预期日志不刷屏
func newTestFactory(t *testing.T) *StoreContextFactory {
	t.Helper()

	log, err := logger.New("error", "console", false)
	require.NoError(t, err)
	return NewStoreContextFactory(newTestDB(t), log)
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
func mustSaveBooks(t *testing.T, f *StoreContextFactory, books ...*book.Book) {
	t.Helper()

	store := f.NewContext(identity.Static(uuid.New()))
	for _, b := range books {
		store.Add(b)
	}
	require.NoError(t, store.SaveChanges(context.Background()))
}

// mustSaveOrder 以指定顾客身份直接落一张订单
func mustSaveOrder(t *testing.T, f *StoreContextFactory, customerID uuid.UUID, items []order.LineItem) *order.Order {
	t.Helper()

	store := f.NewContext(identity.Static(customerID))
	o := order.NewOrder(customerID, items)
	store.Add(o)
	require.NoError(t, store.SaveChanges(context.Background()))
	return o
}
