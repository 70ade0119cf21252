// Package main 书目种子工具
//
// 向数据库灌入一批图书数据（含作者、标签、促销价），供本地开发和联调使用。
// 书目没有HTTP写接口，上架、改价、下架都只能走这里。
//
// 用法：
//
//	go run ./cmd/seed                    # 增量灌入，已存在的ISBN跳过
//	BOOKSHOP_ENV=prod go run ./cmd/seed  # 指定环境配置
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/chenxi/bookshop/internal/domain/book"
	"github.com/chenxi/bookshop/internal/infrastructure/config"
	"github.com/chenxi/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/chenxi/bookshop/pkg/logger"
)

// seedBook 种子书目条目
// 扁平结构方便手工维护，灌入时再组装成领域实体
type seedBook struct {
	isbn        string
	title       string
	publisher   string
	price       int64 // 定价（分）
	description string
	coverURL    string
	publishedAt string   // 出版年月，如"2017-03"
	authors     []string // 作者名（多本书共享同名作者时只建一条）
	tags        []string
	offerPrice  int64  // 促销价（分），0表示无促销
	offerText   string // 促销文案
	delisted    bool   // 灌入后立即下架（演示软删除后对浏览不可见）
}

// catalog 种子书目
var catalog = []seedBook{
	{
		isbn: "9787115428028", title: "Go语言实战", publisher: "人民邮电出版社",
		price: 5900, publishedAt: "2017-03",
		description: "面向有一定编程经验的开发者，讲解Go的类型系统、并发模型和标准库实践。",
		coverURL:    "https://img.bookshop.dev/covers/9787115428028.jpg",
		authors:     []string{"威廉·肯尼迪", "布莱恩·克特森"},
		tags:        []string{"Go", "编程语言"},
		offerPrice:  4900, offerText: "新店开业特惠",
	},
	{
		isbn: "9787111558422", title: "Go程序设计语言", publisher: "机械工业出版社",
		price: 7900, publishedAt: "2017-01",
		description: "Go语言圣经中译本，从语言规范到并发编程的权威参考。",
		coverURL:    "https://img.bookshop.dev/covers/9787111558422.jpg",
		authors:     []string{"艾伦·多诺万", "布莱恩·柯尼汉"},
		tags:        []string{"Go", "编程语言"},
	},
	{
		isbn: "9787115545381", title: "Go语言高级编程", publisher: "人民邮电出版社",
		price: 8900, publishedAt: "2019-06",
		description: "覆盖CGO、汇编、RPC与分布式系统等进阶主题。",
		coverURL:    "https://img.bookshop.dev/covers/9787115545381.jpg",
		authors:     []string{"柴树杉", "曹春晖"},
		tags:        []string{"Go", "分布式"},
	},
	{
		isbn: "9787111213826", title: "设计模式：可复用面向对象软件的基础", publisher: "机械工业出版社",
		price: 6900, publishedAt: "2007-01",
		description: "GoF经典，23个模式的原始出处。",
		coverURL:    "https://img.bookshop.dev/covers/9787111213826.jpg",
		authors:     []string{"埃里希·伽玛"},
		tags:        []string{"软件设计", "经典"},
	},
	{
		isbn: "9787115221834", title: "重构：改善既有代码的设计", publisher: "人民邮电出版社",
		price: 8800, publishedAt: "2010-01",
		description: "马丁·福勒代表作，逐步改善代码结构的系统方法。",
		coverURL:    "https://img.bookshop.dev/covers/9787115221834.jpg",
		authors:     []string{"马丁·福勒"},
		tags:        []string{"软件设计", "经典"},
		offerPrice:  6600, offerText: "经典回馈",
	},
	{
		isbn: "9787121315466", title: "代码整洁之道", publisher: "电子工业出版社",
		price: 5900, publishedAt: "2018-09",
		description: "鲍勃大叔谈命名、函数、注释与测试的整洁准则。",
		coverURL:    "https://img.bookshop.dev/covers/9787121315466.jpg",
		authors:     []string{"罗伯特·马丁"},
		tags:        []string{"软件设计"},
	},
	{
		isbn: "9787111544937", title: "深入理解计算机系统", publisher: "机械工业出版社",
		price: 13900, publishedAt: "2016-11",
		description: "CSAPP第3版，从程序员视角理解硬件、操作系统与网络。",
		coverURL:    "https://img.bookshop.dev/covers/9787111544937.jpg",
		authors:     []string{"兰德尔·布莱恩特"},
		tags:        []string{"计算机系统", "经典"},
	},
	{
		// 下架演示数据：浏览接口看不到这本书，但保留数据行，
		// 旧订单的明细仍然可以引用它
		isbn: "9787302224464", title: "C++编程思想（已绝版）", publisher: "清华大学出版社",
		price: 9900, publishedAt: "2011-01",
		description: "已停印，仅保留历史数据。",
		authors:     []string{"布鲁斯·埃克尔"},
		tags:        []string{"经典"},
		delisted:    true,
	},
}

func main() {
	// 1. 配置与日志
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.EnableCaller); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	lg := logger.L()
	defer lg.Sync()

	// 2. 数据库连接（内部完成建表迁移）
	db, err := mysql.NewDB(cfg, lg)
	if err != nil {
		lg.Fatal("初始化数据库失败", "err", err)
	}

	factory := mysql.NewStoreContextFactory(db, lg)

	// 种子工具没有顾客身份，传nil走占位身份（启动时的Warn属于预期）
	store := factory.NewContext(nil)
	ctx := context.Background()

	// 3. 先保证作者和标签存在（按名字去重，多本书共享同一条）
	authorByName, tagByName, err := ensureAuthorsAndTags(ctx, store)
	if err != nil {
		lg.Fatal("灌入作者/标签失败", "err", err)
	}

	// 4. 组装并暂存图书（已存在的ISBN跳过，保证工具可重复执行）
	var delist []*book.Book
	staged := 0
	for _, s := range catalog {
		exists, err := isbnTaken(ctx, store, s.isbn)
		if err != nil {
			lg.Fatal("查询ISBN失败", "isbn", s.isbn, "err", err)
		}
		if exists {
			fmt.Printf("跳过（已存在）: %s %s\n", s.isbn, s.title)
			continue
		}

		b := buildBook(s, authorByName, tagByName)
		store.Add(b)
		staged++
		if s.delisted {
			delist = append(delist, b)
		}
	}

	if staged == 0 {
		fmt.Println("书目已是最新，无需灌入")
		return
	}

	// 5. 一次性校验并提交：任何一本校验不过，整批都不落库
	failures, err := store.SaveChangesWithValidation(ctx)
	if err != nil {
		lg.Fatal("保存书目失败", "err", err)
	}
	if len(failures) > 0 {
		fmt.Println("种子数据校验未通过，本次未写入任何数据:")
		for _, f := range failures {
			fmt.Printf("  %s: %s\n", f.Field, f.Message)
		}
		os.Exit(1)
	}
	fmt.Printf("已灌入 %d 本图书\n", staged)

	// 6. 下架演示数据（软删除：只改标记不删行）
	for _, b := range delist {
		b.MarkDeleted()
		store.Update(b)
	}
	if len(delist) > 0 {
		if err := store.SaveChanges(ctx); err != nil {
			lg.Fatal("下架演示数据失败", "err", err)
		}
		fmt.Printf("已下架 %d 本演示图书\n", len(delist))
	}

	fmt.Println("灌入完成")
}

// ensureAuthorsAndTags 把书目里出现的作者、标签名补齐到数据库
// 返回名字到实体的映射（实体带数据库ID，后续组装图书时直接引用）
func ensureAuthorsAndTags(ctx context.Context, store *mysql.StoreContext) (map[string]*book.Author, map[string]*book.Tag, error) {
	authorNames := make([]string, 0)
	tagNames := make([]string, 0)
	seenAuthor := make(map[string]bool)
	seenTag := make(map[string]bool)
	for _, s := range catalog {
		for _, n := range s.authors {
			if !seenAuthor[n] {
				seenAuthor[n] = true
				authorNames = append(authorNames, n)
			}
		}
		for _, n := range s.tags {
			if !seenTag[n] {
				seenTag[n] = true
				tagNames = append(tagNames, n)
			}
		}
	}

	// 已有的直接复用
	var authorRows []mysql.AuthorModel
	if err := store.Authors().WithContext(ctx).Where("name IN ?", authorNames).Find(&authorRows).Error; err != nil {
		return nil, nil, err
	}
	var tagRows []mysql.TagModel
	if err := store.Tags().WithContext(ctx).Where("name IN ?", tagNames).Find(&tagRows).Error; err != nil {
		return nil, nil, err
	}

	authorByName := make(map[string]*book.Author, len(authorNames))
	for _, row := range authorRows {
		authorByName[row.Name] = &book.Author{ID: row.ID, Name: row.Name}
	}
	tagByName := make(map[string]*book.Tag, len(tagNames))
	for _, row := range tagRows {
		tagByName[row.Name] = &book.Tag{ID: row.ID, Name: row.Name}
	}

	// 缺的暂存创建，保存后实体里带回数据库ID
	staged := 0
	for _, n := range authorNames {
		if authorByName[n] == nil {
			a := &book.Author{Name: n}
			store.Add(a)
			authorByName[n] = a
			staged++
		}
	}
	for _, n := range tagNames {
		if tagByName[n] == nil {
			t := &book.Tag{Name: n}
			store.Add(t)
			tagByName[n] = t
			staged++
		}
	}

	if staged > 0 {
		failures, err := store.SaveChangesWithValidation(ctx)
		if err != nil {
			return nil, nil, err
		}
		if len(failures) > 0 {
			return nil, nil, fmt.Errorf("作者/标签校验未通过: %s: %s", failures[0].Field, failures[0].Message)
		}
		fmt.Printf("已补齐 %d 条作者/标签\n", staged)
	}

	return authorByName, tagByName, nil
}

// isbnTaken 查询ISBN是否已占用
// 用不过滤的访问器：同ISBN的书即使已下架也算占用（数据库唯一索引不认软删除标记）
func isbnTaken(ctx context.Context, store *mysql.StoreContext, isbn string) (bool, error) {
	var n int64
	err := store.BooksUnfiltered().WithContext(ctx).Where("isbn = ?", isbn).Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// buildBook 把种子条目组装成领域实体
func buildBook(s seedBook, authorByName map[string]*book.Author, tagByName map[string]*book.Tag) *book.Book {
	b := &book.Book{
		ISBN:        s.isbn,
		Title:       s.title,
		Publisher:   s.publisher,
		Price:       s.price,
		Description: s.description,
		CoverURL:    s.coverURL,
		PublishedAt: parseMonth(s.publishedAt),
	}
	for _, n := range s.authors {
		b.Authors = append(b.Authors, *authorByName[n])
	}
	for _, n := range s.tags {
		b.Tags = append(b.Tags, *tagByName[n])
	}
	if s.offerPrice > 0 {
		b.Promotion = &book.PriceOffer{
			NewPrice:        s.offerPrice,
			PromotionalText: s.offerText,
		}
	}
	return b
}

// parseMonth 解析"2006-01"格式的出版年月
func parseMonth(v string) time.Time {
	t, err := time.Parse("2006-01", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
