package xprom

// ensureForTest 暴露物化入口，供白盒测试检查底层实例。
func (r *Registry) ensureForTest(name string) (*registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensure(name, nil)
}
