package world

type Entity interface {
	ID() int
}

type Repository[T any] interface {
	Get(id int) (T, error)
	Put(value T) error
}

type AuditedRepository[T any] interface {
	Repository[T]
	History(id int) []T
}

type BaseStore struct {
	name string
}

func (s *BaseStore) Name() string { return s.name }

type UserStore struct {
	BaseStore
}

func (s *UserStore) ID() int { return 1 }

type MemoryStore[T any] struct {
	items []T
}

type CachedStore[T any] struct {
	MemoryStore[T]
}

type Keyed[K comparable, V Entity] struct {
	key   K
	value V
}

type Currency int

type Money struct {
	Amount   int64
	Currency Currency
}
