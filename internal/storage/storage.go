package storage

import "errors"

var (
	ErrUserExists           = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrRoleNotFound         = errors.New("role not found")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")

	ErrBrandNotFound    = errors.New("brand not found")
	ErrBrandExists      = errors.New("brand already exists")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrProductNotFound  = errors.New("product not found")
	ErrProductExists    = errors.New("product already exists")
)
