package xwrap

import (
	"context"
	"sync"
)

// Deferred 表示延迟完成的结果。
//
// 这是一个能力接口（capability test）：包装核心通过类型断言判断
// 返回值是否延迟，而非依赖某个具体 future 实现的身份。
// 任何异步原语只要暴露结算订阅操作即可参与包装生命周期。
//
// 实现契约：结算后注册的回调必须立即（同步）执行；
// 回调按注册顺序执行，且每个回调至多执行一次。
type Deferred interface {
	// OnSettle 注册结算回调。成功时 err 为 nil，失败时 value 无意义。
	OnSettle(func(value any, err error))
}

// Future 是 Deferred 的默认实现：可显式结算的延迟值。
//
// 零值不可用，必须通过 NewFuture / Resolved / Rejected 创建。
type Future struct {
	mu    sync.Mutex
	done  bool
	value any
	err   error
	subs  []func(any, error)
	ch    chan struct{}
}

var _ Deferred = (*Future)(nil)

// NewFuture 创建未结算的 Future。
func NewFuture() *Future {
	return &Future{ch: make(chan struct{})}
}

// Resolved 创建已成功结算的 Future。
func Resolved(value any) *Future {
	f := NewFuture()
	f.Resolve(value)
	return f
}

// Rejected 创建已失败结算的 Future。
func Rejected(err error) *Future {
	f := NewFuture()
	f.Reject(err)
	return f
}

// Resolve 以成功值结算。重复结算是 no-op（结算至多一次）。
func (f *Future) Resolve(value any) { f.settle(value, nil) }

// Reject 以错误结算。重复结算是 no-op。
func (f *Future) Reject(err error) { f.settle(nil, err) }

func (f *Future) settle(value any, err error) {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return
	}
	f.done = true
	f.value = value
	f.err = err
	subs := f.subs
	f.subs = nil
	close(f.ch)
	f.mu.Unlock()

	// 锁外按注册顺序执行回调，允许回调中再次操作 Future
	for _, cb := range subs {
		cb(value, err)
	}
}

// OnSettle 注册结算回调。
//
// 已结算的 Future 同步执行回调；未结算的按注册顺序在结算时执行。
func (f *Future) OnSettle(cb func(value any, err error)) {
	if cb == nil {
		return
	}
	f.mu.Lock()
	if !f.done {
		f.subs = append(f.subs, cb)
		f.mu.Unlock()
		return
	}
	value, err := f.value, f.err
	f.mu.Unlock()
	cb(value, err)
}

// Done 返回是否已结算。
func (f *Future) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// Await 阻塞等待结算，返回结算结果。
//
// context 取消时返回 ctx.Err()；这不会结算 Future 本身——
// 包装核心不实现超时，被包装调用永不结算则 Future 永不结算。
func (f *Future) Await(ctx context.Context) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-f.ch:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
