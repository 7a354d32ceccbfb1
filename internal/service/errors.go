package service

import "errors"

// 错误定义
var (
	ErrEmptyQuestion      = errors.New("question is required")
	ErrMissingCredentials = errors.New("email and password are required")
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrDeviceNotFound     = errors.New("device not found")
	ErrInvalidDevice      = errors.New("device name and type are required")
	ErrInvalidReading     = errors.New("energy_watts must be a finite number")
)
