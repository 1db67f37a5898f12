// Package xpem 提供 PEM 证书包的读取、校验、合并与安装。
//
// # 设计理念
//
// OTLP collector、内部 CA 等场景经常需要把多个 PEM 证书文件
// 拼成一个 bundle 下发给客户端。xpem 把这条链路收敛为：
// 读取并校验每个来源文件 -> 合并为 Bundle -> 原子安装到目标路径
// 或注入 x509.CertPool。
//
// 只处理 CERTIFICATE 块；私钥等其他块类型在读取时报错，
// 防止私钥被误并入对外下发的 bundle。
package xpem
