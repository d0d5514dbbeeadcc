package unitofwork

import (
	"context"
	"fmt"

	"companion-game-be/internal/repository/contract"
	"companion-game-be/internal/repository/implementation"

	"gorm.io/gorm"
)

// The JobExecutionRepository is intentionally absent here: the ledger must
// keep its audit row even when a pipeline transaction rolls back, so it is
// constructed on the root DB handle in the container instead.
type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) UserRepository() contract.UserRepository {
	return implementation.NewUserRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ConversationRepository() contract.ConversationRepository {
	return implementation.NewConversationRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ReadyPromptRepository() contract.ReadyPromptRepository {
	return implementation.NewReadyPromptRepository(u.getDB())
}

func (u *UnitOfWorkImpl) UserFactRepository() contract.UserFactRepository {
	return implementation.NewUserFactRepository(u.getDB())
}

func (u *UnitOfWorkImpl) PersonaStateRepository() contract.PersonaStateRepository {
	return implementation.NewPersonaStateRepository(u.getDB())
}

func (u *UnitOfWorkImpl) EmotionalStateRepository() contract.EmotionalStateRepository {
	return implementation.NewEmotionalStateRepository(u.getDB())
}

func (u *UnitOfWorkImpl) GameStateRepository() contract.GameStateRepository {
	return implementation.NewGameStateRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ConflictRepository() contract.ConflictRepository {
	return implementation.NewConflictRepository(u.getDB())
}

func (u *UnitOfWorkImpl) TouchpointRepository() contract.TouchpointRepository {
	return implementation.NewTouchpointRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ConversationSummaryRepository() contract.ConversationSummaryRepository {
	return implementation.NewConversationSummaryRepository(u.getDB())
}
