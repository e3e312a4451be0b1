package model

// Decorator enriches a class model after it has been built and its tokens
// collected, before any file is rendered.
type Decorator interface {
	Decorate(*ClassModel) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*ClassModel) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(cls *ClassModel) error {
	return fn(cls)
}
