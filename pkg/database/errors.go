package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// IsUniqueViolation 判断错误是否为唯一约束冲突
// TranslateError 开启时 gorm 会转换为 ErrDuplicatedKey，未转换的 pg 错误按 SQLSTATE 判断
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	// SQLite 驱动未翻译时的兜底
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsSerializationFailure 并发事务冲突，可重试
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return false
}
