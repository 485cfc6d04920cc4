package store

import "codeberg.org/mutker/envmon/internal/errors"

const (
	ErrInvalidDBPath = errors.ErrorCode("store_invalid_db_path")
	ErrStorageInit   = errors.ErrorCode("store_init_failed")
	ErrStorageAccess = errors.ErrorCode("store_access_failed")
	ErrStorageClose  = errors.ErrorCode("store_close_failed")
	ErrEncodeFailed  = errors.ErrorCode("store_encode_failed")
	ErrDecodeFailed  = errors.ErrorCode("store_decode_failed")
)
