// Package debounce задерживает распространение значений до окончания
// периода тишины заданной длительности.
package debounce

import (
	"sync"
	"time"
)

// Timer - отменяемый таймер.
type Timer interface {
	// Stop отменяет таймер. Возвращает false, если таймер уже сработал или остановлен.
	Stop() bool
}

// AfterFunc запускает f через d и возвращает отменяемый таймер.
type AfterFunc func(d time.Duration, f func()) Timer

// StdAfterFunc - реализация AfterFunc на time.AfterFunc.
func StdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option настраивает Debouncer.
type Option func(*options)

type options struct {
	afterFunc AfterFunc
}

// WithAfterFunc подменяет фабрику таймеров.
func WithAfterFunc(fn AfterFunc) Option {
	return func(o *options) {
		o.afterFunc = fn
	}
}

// Debouncer испускает последнее полученное значение, когда вход молчит не меньше wait.
// Серия значений внутри окна схлопывается в одно испускание.
// emit вызывается из горутины таймера и не должен вызывать Dispose.
type Debouncer[T any] struct {
	wait      time.Duration
	emit      func(T)
	afterFunc AfterFunc

	// emitMu сериализует испускания и позволяет Dispose дождаться текущего.
	emitMu sync.Mutex

	mu       sync.Mutex
	timer    Timer
	seq      uint64
	value    T
	pending  bool
	disposed bool
}

// New создает Debouncer с окном wait.
func New[T any](wait time.Duration, emit func(T), opts ...Option) *Debouncer[T] {
	o := options{afterFunc: StdAfterFunc}
	for _, opt := range opts {
		opt(&o)
	}
	return &Debouncer[T]{
		wait:      wait,
		emit:      emit,
		afterFunc: o.afterFunc,
	}
}

// Push запоминает значение и перезапускает окно тишины.
// После Dispose вызов игнорируется.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disposed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	d.seq++
	seq := d.seq
	d.value = v
	d.pending = true
	d.timer = d.afterFunc(d.wait, func() { d.fire(seq) })
}

// Pending сообщает, ожидается ли испускание.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Dispose отменяет ожидающее испускание. После возврата emit больше не вызывается.
func (d *Debouncer[T]) Dispose() {
	d.mu.Lock()
	d.disposed = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	// Дожидаемся испускания, которое могло начаться до отмены.
	d.emitMu.Lock()
	d.emitMu.Unlock() //nolint:staticcheck
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.emitMu.Lock()
	defer d.emitMu.Unlock()

	d.mu.Lock()
	// Устаревший таймер: его Stop опоздал, значение уже перезаписано.
	if d.disposed || !d.pending || seq != d.seq {
		d.mu.Unlock()
		return
	}
	v := d.value
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.emit(v)
}
