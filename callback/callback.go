// Package callback provides a compact completion-notification handle: an
// adapter function plus an opaque receiver, two words in total.
//
// The handle is set up once, where the receiver is known, and invoked any
// number of times without allocating. States use it to expose "operation
// done" notifications to external code without the machine knowing anything
// about the receiver; the engine itself never touches callbacks.
//
// A zero Callback is valid and inert: Invoke on it does nothing.
package callback

// Callback holds a notification target for payloads of type A.
type Callback[A any] struct {
	fn  func(ctx any, arg A)
	ctx any
}

// Make builds a callback from an explicit receiver and adapter function. The
// adapter receives the receiver back as its first argument.
func Make[A any](ctx any, fn func(ctx any, arg A)) Callback[A] {
	return Callback[A]{fn: fn, ctx: ctx}
}

// Func wraps a free function with no receiver.
func Func[A any](fn func(arg A)) Callback[A] {
	if fn == nil {
		return Callback[A]{}
	}
	return Callback[A]{fn: func(_ any, arg A) { fn(arg) }}
}

// Method binds a method-shaped function to its receiver. The adapter closure
// is the one allocation, paid at setup.
func Method[T, A any](obj *T, fn func(obj *T, arg A)) Callback[A] {
	if obj == nil || fn == nil {
		return Callback[A]{}
	}
	return Callback[A]{
		ctx: obj,
		fn:  func(ctx any, arg A) { fn(ctx.(*T), arg) },
	}
}

// Valid reports whether the callback has a target.
func (c Callback[A]) Valid() bool { return c.fn != nil }

// Invoke notifies the target. No-op on an empty callback.
func (c Callback[A]) Invoke(arg A) {
	if c.fn != nil {
		c.fn(c.ctx, arg)
	}
}

// Clear detaches the target.
func (c *Callback[A]) Clear() { *c = Callback[A]{} }
