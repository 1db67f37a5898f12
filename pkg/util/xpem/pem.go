package xpem

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const certificateBlockType = "CERTIFICATE"

// Bundle 是一组已解析的证书及其规范化 PEM 编码。
//
// 构建后只读。Bytes() 返回的编码是重新序列化的证书块，
// 不保留来源文件中的注释与空白。
type Bundle struct {
	certs []*x509.Certificate
}

// Parse 解析 PEM 数据中的全部证书块。
//
// 数据中出现非证书块或无法解析的证书时报错；
// 没有任何证书块时返回 ErrNoCertificates。
func Parse(data []byte) (*Bundle, error) {
	var certs []*x509.Certificate
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != certificateBlockType {
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedBlock, block.Type)
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPEM, err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, ErrNoCertificates
	}
	return &Bundle{certs: certs}, nil
}

// ReadBundle 读取并合并多个 PEM 文件为一个 Bundle。
// 任一文件读取或解析失败时整体失败，错误带上文件路径。
func ReadBundle(paths ...string) (*Bundle, error) {
	if len(paths) == 0 {
		return nil, ErrNoCertificates
	}

	var certs []*x509.Certificate
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("xpem: read %s: %w", path, err)
		}
		b, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("xpem: parse %s: %w", path, err)
		}
		certs = append(certs, b.certs...)
	}
	return &Bundle{certs: certs}, nil
}

// Certificates 返回解析出的证书，按来源顺序。
func (b *Bundle) Certificates() []*x509.Certificate {
	out := make([]*x509.Certificate, len(b.certs))
	copy(out, b.certs)
	return out
}

// Len 返回证书数量。
func (b *Bundle) Len() int {
	return len(b.certs)
}

// Bytes 返回 bundle 的规范化 PEM 编码。
func (b *Bundle) Bytes() []byte {
	var out []byte
	for _, cert := range b.certs {
		out = append(out, pem.EncodeToMemory(&pem.Block{
			Type:  certificateBlockType,
			Bytes: cert.Raw,
		})...)
	}
	return out
}

// Install 把 bundle 原子写入目标路径。
// 先写同目录临时文件再 rename，读方看不到半截文件。
func (b *Bundle) Install(path string, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".xpem-*")
	if err != nil {
		return fmt.Errorf("xpem: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(b.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("xpem: write bundle: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("xpem: chmod bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("xpem: close bundle: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("xpem: install bundle: %w", err)
	}
	return nil
}

// AppendToPool 把 bundle 中的证书加入证书池。
// pool 为 nil 时新建空池。返回传入（或新建）的池。
func (b *Bundle) AppendToPool(pool *x509.CertPool) *x509.CertPool {
	if pool == nil {
		pool = x509.NewCertPool()
	}
	for _, cert := range b.certs {
		pool.AddCert(cert)
	}
	return pool
}

// Validate 检查全部证书当前是否在有效期内。
// 返回首个过期或尚未生效的证书错误。
func (b *Bundle) Validate(now time.Time) error {
	for _, cert := range b.certs {
		if now.Before(cert.NotBefore) {
			return fmt.Errorf("xpem: certificate %q not yet valid (from %s)",
				cert.Subject.CommonName, cert.NotBefore.Format(time.RFC3339))
		}
		if now.After(cert.NotAfter) {
			return fmt.Errorf("xpem: certificate %q expired on %s",
				cert.Subject.CommonName, cert.NotAfter.Format(time.RFC3339))
		}
	}
	return nil
}
