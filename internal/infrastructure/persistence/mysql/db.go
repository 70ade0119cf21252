package mysql

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chenxi/bookshop/internal/infrastructure/config"
	"github.com/chenxi/bookshop/pkg/logger"
)

// NewDB 打开MySQL连接池并准备好表结构
//
// 教学说明：
// GORM自带的logger和本服务的结构化日志是两套东西:前者打SQL语句,
// 只在debug模式开;后者打业务事件,始终开。连接池参数走配置,
// 默认20/10/1h对单实例部署足够
func NewDB(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	sqlLog := gormlogger.Silent
	if cfg.Server.Mode == "debug" {
		sqlLog = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(sqlLog),
	})
	if err != nil {
		return nil, fmt.Errorf("打开MySQL连接: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("取底层连接池: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	// 寿命设得比MySQL侧wait_timeout短,连接由我们主动换新,不等服务端掐
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("MySQL探活: %w", err)
	}

	log.Info("数据库连接成功", "max_open_conns", cfg.Database.MaxOpenConns)

	// 开发期靠AutoMigrate建表;上生产应换golang-migrate这类带版本的迁移
	if err := SetupSchema(db); err != nil {
		return nil, fmt.Errorf("迁移表结构: %w", err)
	}

	return db, nil
}

// SetupSchema 注册联结模型并迁移表结构
//
// SetupJoinTable必须先于AutoMigrate:book_authors要按显式联结模型
// (复合主键)建表,否则ORM会替这个many2many生成一张影子表。
// 导出是给测试和种子工具用的,它们在SQLite连接上建同一套表
func SetupSchema(db *gorm.DB) error {
	if err := db.SetupJoinTable(&BookModel{}, "Authors", &BookAuthorModel{}); err != nil {
		return fmt.Errorf("注册联结模型: %w", err)
	}

	return db.AutoMigrate(
		&AuthorModel{},
		&TagModel{},
		&BookModel{},
		&PriceOfferModel{},
		&OrderModel{},
		&LineItemModel{},
	)
}
