package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/alldopamine/catalog/internal/usecase"
)

// Store hands out repositories bound either to the pool or to a single
// transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Repositories() usecase.Repositories {
	return repositoriesFor(s.db)
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, repos usecase.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, repositoriesFor(tx))
	})
}

func repositoriesFor(db *gorm.DB) usecase.Repositories {
	return usecase.Repositories{
		Works:    NewWorkRepository(db),
		Mappings: NewMappingRepository(db),
		Sources:  NewSourceRecordRepository(db),
	}
}

var (
	_ usecase.Transactor             = (*Store)(nil)
	_ usecase.WorkRepository         = (*WorkRepository)(nil)
	_ usecase.MappingRepository      = (*MappingRepository)(nil)
	_ usecase.SourceRecordRepository = (*SourceRecordRepository)(nil)
	_ usecase.ConfigRepository       = (*ConfigRepository)(nil)
)
