package repositories

import (
	"context"
	"strings"

	"users-server/apperrors"
	"users-server/db"
	"users-server/entities"
	"users-server/validation"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userGormRepository struct {
	baseRepository[entities.User]
}

func NewUserGormRepository(database db.Database) UserRepository {
	return &userGormRepository{
		baseRepository: baseRepository[entities.User]{
			db:       database,
			entity:   "user",
			idColumn: "id",
			from: func(tx *gorm.DB) *gorm.DB {
				return tx.Model(&entities.User{})
			},
		},
	}
}

func (r *userGormRepository) Create(ctx context.Context, data entities.UserCreate) (*entities.User, error) {
	data.UserName = strings.TrimSpace(data.UserName)
	if err := validation.Struct(data); err != nil {
		return nil, err
	}

	user := &entities.User{
		UserName: data.UserName,
		ChatID:   *data.ChatID,
		Type:     entities.TypeUser,
	}
	err := r.run(ctx, "create", func(tx *gorm.DB) error {
		return r.translate(tx.Create(user).Error, nil)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Update writes only the supplied columns in a single UPDATE ... RETURNING.
// A supplied type must name the row's current variant: changing a row
// between user and admin needs the admins extension row, which this
// repository does not own.
func (r *userGormRepository) Update(ctx context.Context, id int64, data entities.UserUpdate) (*entities.User, error) {
	if err := validation.Struct(data); err != nil {
		return nil, err
	}
	values := data.Values()

	var out *entities.User
	err := r.run(ctx, "update", func(tx *gorm.DB) error {
		if len(values) == 0 {
			found, err := r.take(tx, id)
			out = found
			return err
		}

		var updated entities.User
		q := tx.Model(&updated).Clauses(clause.Returning{}).Where("id = ?", id)
		if data.Type != nil {
			q = q.Where("type = ?", *data.Type)
		}
		res := q.Updates(values)
		if res.Error != nil {
			return r.translate(res.Error, id)
		}
		if res.RowsAffected == 0 {
			current, err := r.take(tx, id)
			if err != nil {
				return err
			}
			return apperrors.NewValidationError("type",
				"cannot change type from "+current.Type+" to "+*data.Type)
		}
		out = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the row and, for an admin, its extension row.
func (r *userGormRepository) Delete(ctx context.Context, id int64) (int64, error) {
	var deleted int64
	err := r.run(ctx, "delete", func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Delete(&entities.AdminAccount{}).Error; err != nil {
			return r.translate(err, id)
		}
		res := tx.Where("id = ?", id).Delete(&entities.User{})
		if res.Error != nil {
			return r.translate(res.Error, id)
		}
		if res.RowsAffected > 0 {
			deleted = id
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
