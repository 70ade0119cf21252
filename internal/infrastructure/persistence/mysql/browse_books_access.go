package mysql

import (
	"context"

	"github.com/chenxi/bookshop/internal/domain/book"
	apperrors "github.com/chenxi/bookshop/pkg/errors"
)

// browseBooksDBAccess 图书浏览数据访问实现
type browseBooksDBAccess struct {
	store *StoreContext
}

// NewBrowseBooksDBAccess 在给定存储上下文上构造图书浏览数据访问
func NewBrowseBooksDBAccess(store *StoreContext) book.BrowseBooksDBAccess {
	return &browseBooksDBAccess{store: store}
}

// Search 按条件分页查询在售图书
// 软删除过滤来自Books()访问器,关键词/排序在其上叠加
func (a *browseBooksDBAccess) Search(ctx context.Context, q book.BrowseQuery) ([]*book.Book, int64, error) {
	query := a.store.Books().WithContext(ctx)

	// 关键词搜索(匹配标题、出版社、ISBN)
	if q.Keyword != "" {
		keyword := "%" + q.Keyword + "%"
		query = query.Where("books.title LIKE ? OR books.publisher LIKE ? OR books.isbn LIKE ?",
			keyword, keyword, keyword)
	}

	// 查询总数(总数与数据页必须口径一致,在同一组谓词上统计)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询图书总数失败")
	}

	// 排序
	switch q.SortBy {
	case "price_asc":
		query = query.Order("books.price ASC")
	case "price_desc":
		query = query.Order("books.price DESC")
	default:
		query = query.Order("books.created_at DESC") // 默认按上架时间降序
	}

	// 分页查询,联带展示所需的关联
	var models []BookModel
	offset := (q.Page - 1) * q.PageSize
	err := query.
		Preload("Authors").
		Preload("Tags").
		Preload("Promotion").
		Limit(q.PageSize).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询图书列表失败")
	}

	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books, total, nil
}
