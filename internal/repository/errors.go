package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrUniqueViolation indicates an insert or update collided with a unique index.
var ErrUniqueViolation = errors.New("unique constraint violated")

func translateUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUniqueViolation
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "sqlstate 23505") {
		return ErrUniqueViolation
	}

	return err
}

func paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		return query
	}
	if page <= 0 {
		page = 1
	}
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}
