package xpem

import "errors"

var (
	// ErrNoCertificates 表示数据中没有证书块。
	ErrNoCertificates = errors.New("xpem: no certificates found")

	// ErrInvalidPEM 表示 PEM 数据不合法或证书解析失败。
	ErrInvalidPEM = errors.New("xpem: invalid pem data")

	// ErrUnexpectedBlock 表示出现非证书块（如私钥）。
	ErrUnexpectedBlock = errors.New("xpem: unexpected pem block type")
)
