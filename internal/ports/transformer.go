package ports

import "github.com/NkanyeziNgobese/ares-1/internal/domain"

type Transformer interface {
	Transform(domain.Sample) (domain.Sample, error)
	Version() uint16
}
