package rdb

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind 错误类别
type Kind string

const (
	KindTableNotFound       Kind = "TableNotFound"
	KindUnknownColumn       Kind = "UnknownColumn"
	KindUnknownSortColumn   Kind = "UnknownSortColumn"
	KindNoPrimaryKey        Kind = "NoPrimaryKey"
	KindPrimaryKeyImmutable Kind = "PrimaryKeyImmutable"
	KindRowNotFound         Kind = "RowNotFound"
	KindNoUpdateData        Kind = "NoUpdateData"
	KindInsertFailed        Kind = "InsertFailed"
	KindValidationFailed    Kind = "ValidationFailed"
	KindStorageError        Kind = "StorageError"
)

// Error 引擎对外暴露的错误，Message 可直接展示给用户
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Expected 是否为用户可触发的预期错误（区别于基础设施错误）
func (e *Error) Expected() bool {
	return e.Kind != KindStorageError && e.Kind != KindInsertFailed
}

// KindOf 返回错误类别，非引擎错误返回空字符串
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func ErrTableNotFound(table string) *Error {
	return &Error{Kind: KindTableNotFound, Message: fmt.Sprintf("Table %q not found", table)}
}

func ErrUnknownColumn(table, column string) *Error {
	return &Error{Kind: KindUnknownColumn, Message: fmt.Sprintf("Column %q not found in table %q", column, table)}
}

func ErrUnknownSortColumn(table, column string) *Error {
	return &Error{Kind: KindUnknownSortColumn, Message: fmt.Sprintf("Sort column %q not found in table %q", column, table)}
}

func ErrNoPrimaryKey(table string) *Error {
	return &Error{Kind: KindNoPrimaryKey, Message: fmt.Sprintf("Table %q has no primary key", table)}
}

func ErrPrimaryKeyImmutable(column string) *Error {
	return &Error{Kind: KindPrimaryKeyImmutable, Message: fmt.Sprintf("Primary key column %q cannot be modified", column)}
}

func ErrRowNotFound(table string, id any) *Error {
	return &Error{Kind: KindRowNotFound, Message: fmt.Sprintf("Row %q not found in table %q", fmt.Sprint(id), table)}
}

func ErrNoUpdateData() *Error {
	return &Error{Kind: KindNoUpdateData, Message: "No data to update"}
}

func ErrInsertFailed(table string) *Error {
	return &Error{Kind: KindInsertFailed, Message: fmt.Sprintf("Insert into table %q returned no row", table)}
}

func ErrValidationFailed(column, reason string) *Error {
	return &Error{Kind: KindValidationFailed, Message: fmt.Sprintf("Invalid value for column %q: %s", column, reason)}
}

// ErrStorage 包装存储层错误，消息透传驱动的原始错误信息
func ErrStorage(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindStorageError, Message: errors.Cause(err).Error(), Err: err}
}
