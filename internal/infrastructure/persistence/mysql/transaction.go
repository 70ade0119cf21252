package mysql

import (
	"context"

	apperrors "github.com/chenxi/bookshop/pkg/errors"
)

var (
	// ErrNestedTransaction 同一上下文不支持嵌套显式事务
	ErrNestedTransaction = apperrors.New(apperrors.ErrCodeInternal, "存储上下文已有进行中的事务")
	// ErrTransactionFinished 事务句柄已提交或回滚,不可复用
	ErrTransactionFinished = apperrors.New(apperrors.ErrCodeInternal, "事务已结束,不可重复提交或回滚")
)

// Transaction 显式事务句柄
// BeginTransaction开启,Commit/Rollback恰好调用其一收尾。
// 进行中时,上下文的读写(含SaveChanges)都走这个事务
type Transaction struct {
	store *StoreContext
	done  bool
}

// BeginTransaction 在存储上下文上开启显式事务
// 典型用法是把"读-算-写"整段圈进一个数据库事务:
//
//	tx, err := store.BeginTransaction(ctx)
//	if err != nil { ... }
//	defer tx.Rollback() // 已提交时是无害空操作
//	... 读、暂存 ...
//	if err := store.SaveChanges(ctx); err != nil { return err }
//	return tx.Commit()
func (s *StoreContext) BeginTransaction(ctx context.Context) (*Transaction, error) {
	if s.broken {
		return nil, ErrContextBroken
	}
	if s.tx != nil {
		return nil, ErrNestedTransaction
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.Wrap(tx.Error, "开启事务失败")
	}
	s.tx = tx

	return &Transaction{store: s}, nil
}

// Commit 提交事务
func (t *Transaction) Commit() error {
	if t.done {
		return ErrTransactionFinished
	}
	t.done = true

	tx := t.store.tx
	t.store.tx = nil
	if err := tx.Commit().Error; err != nil {
		t.store.broken = true
		return apperrors.Wrap(err, "提交事务失败")
	}
	return nil
}

// Rollback 回滚事务
// 已结束的句柄上调用返回nil,方便defer tx.Rollback()兜底
func (t *Transaction) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true

	tx := t.store.tx
	t.store.tx = nil
	if err := tx.Rollback().Error; err != nil {
		t.store.broken = true
		return apperrors.Wrap(err, "回滚事务失败")
	}
	return nil
}
