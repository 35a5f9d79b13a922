package repository

import "errors"

// ErrNotFound 记录不存在（sql.ErrNoRows）
var ErrNotFound = errors.New("not found")
