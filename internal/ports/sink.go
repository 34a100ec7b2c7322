package ports

import "github.com/NkanyeziNgobese/ares-1/internal/domain"

// Sink receives every frame produced by the tick loop.
type Sink interface {
	WriteFrame(f *domain.Frame) error
	Name() string
}
