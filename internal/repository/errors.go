package repository

import "errors"

// ErrNotFound 记录不存在（屏蔽 gorm.ErrRecordNotFound）
var ErrNotFound = errors.New("record not found")
