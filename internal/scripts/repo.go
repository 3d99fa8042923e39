package scripts

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, s *Script) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// GetOwned returns gorm.ErrRecordNotFound both when the script is absent and
// when it belongs to someone else.
func (r *Repo) GetOwned(ctx context.Context, authorID, id uint64) (*Script, error) {
	var s Script
	if err := r.db.WithContext(ctx).
		Where("id = ? AND author_id = ?", id, authorID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByAuthor returns scripts in insertion (id) order.
func (r *Repo) ListByAuthor(ctx context.Context, authorID uint64) ([]Script, error) {
	var out []Script
	if err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Update(ctx context.Context, s *Script) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// DeleteOwned removes the script and its chat messages in one transaction.
func (r *Repo) DeleteOwned(ctx context.Context, authorID, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND author_id = ?", id, authorID).Delete(&Script{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Exec("DELETE FROM chat_messages WHERE script_id = ?", id).Error
	})
}
