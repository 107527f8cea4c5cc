package errors

import "errors"

// ErrOptimisticLock 比较并交换失败：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrDuplicate 唯一约束冲突
var ErrDuplicate = errors.New("记录已存在")

// ErrLockNotAcquired 未能获取会话写锁
var ErrLockNotAcquired = errors.New("会话正在被其他操作修改")
