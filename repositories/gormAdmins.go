package repositories

import (
	"context"
	"errors"
	"strings"

	"users-server/apperrors"
	"users-server/db"
	"users-server/entities"
	"users-server/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const adminColumns = "users.*, admins.hashed_password, admins.is_active"

// dummyHash is compared against when the username is unknown so a miss costs
// the same bcrypt work as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

type adminGormRepository struct {
	baseRepository[entities.Admin]
	cost int
}

// NewAdminGormRepository builds the admin repository. cost is the bcrypt
// cost; zero means bcrypt.DefaultCost.
func NewAdminGormRepository(database db.Database, cost int) AdminRepository {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &adminGormRepository{
		baseRepository: baseRepository[entities.Admin]{
			db:       database,
			entity:   "admin",
			idColumn: "users.id",
			columns:  adminColumns,
			from: func(tx *gorm.DB) *gorm.DB {
				return tx.Table("users").Joins("JOIN admins ON admins.id = users.id")
			},
		},
		cost: cost,
	}
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

func (r *adminGormRepository) hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", apperrors.NewValidationError("password", "must be at most 72 bytes")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to hash password")
	}
	return string(h), nil
}

func (r *adminGormRepository) HasAny(ctx context.Context) (bool, error) {
	var n int64
	err := r.run(ctx, "has_any", func(tx *gorm.DB) error {
		return r.translate(tx.Model(&entities.AdminAccount{}).Count(&n).Error, nil)
	})
	return n > 0, err
}

func (r *adminGormRepository) GetByUsername(ctx context.Context, userName string) (*entities.Admin, error) {
	var out entities.Admin
	err := r.run(ctx, "get_by_username", func(tx *gorm.DB) error {
		err := r.query(tx).Where("users.user_name = ?", userName).Take(&out).Error
		return r.translate(err, userName)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Create hashes the password, then writes the users row and its admins
// extension in one transaction.
func (r *adminGormRepository) Create(ctx context.Context, data entities.AdminCreate) (*entities.Admin, error) {
	data.UserName = strings.TrimSpace(data.UserName)
	if err := validation.Struct(data); err != nil {
		return nil, err
	}
	hashed, err := r.hash(data.Password)
	if err != nil {
		return nil, err
	}

	var out *entities.Admin
	err = r.run(ctx, "create", func(tx *gorm.DB) error {
		user := entities.User{
			UserName: data.UserName,
			ChatID:   data.ChatID,
			Type:     entities.TypeAdmin,
		}
		if err := tx.Create(&user).Error; err != nil {
			return r.translate(err, nil)
		}
		account := entities.AdminAccount{
			ID:             user.ID,
			HashedPassword: hashed,
			IsActive:       true,
		}
		// Select forces is_active=true to be written rather than skipped
		// in favour of the column default.
		if err := tx.Select("*").Create(&account).Error; err != nil {
			return r.translate(err, nil)
		}
		out = &entities.Admin{User: user, HashedPassword: hashed, IsActive: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update hashes a new password when one is supplied; every other field is
// written as given. Base and extension columns change in the same
// transaction.
func (r *adminGormRepository) Update(ctx context.Context, id int64, data entities.AdminUpdate) (*entities.Admin, error) {
	if data.UserName != nil {
		trimmed := strings.TrimSpace(*data.UserName)
		data.UserName = &trimmed
	}
	if err := validation.Struct(data); err != nil {
		return nil, err
	}

	userValues := map[string]interface{}{}
	if data.UserName != nil {
		userValues["user_name"] = *data.UserName
	}
	if data.ChatID != nil {
		userValues["chat_id"] = *data.ChatID
	}
	if data.Credits != nil {
		userValues["credits"] = *data.Credits
	}

	accountValues := map[string]interface{}{}
	if data.Password != nil {
		hashed, err := r.hash(*data.Password)
		if err != nil {
			return nil, err
		}
		accountValues["hashed_password"] = hashed
	}
	if data.IsActive != nil {
		accountValues["is_active"] = *data.IsActive
	}

	var out *entities.Admin
	err := r.run(ctx, "update", func(tx *gorm.DB) error {
		res := tx.Model(&entities.AdminAccount{}).Where("id = ?", id)
		if len(accountValues) > 0 {
			res = res.Updates(accountValues)
		} else {
			// Touch nothing but still learn whether the admin exists.
			var n int64
			res = res.Count(&n)
			if res.Error == nil && n == 0 {
				return apperrors.NewNotFoundError(r.entity, id)
			}
		}
		if res.Error != nil {
			return r.translate(res.Error, id)
		}
		if len(accountValues) > 0 && res.RowsAffected == 0 {
			return apperrors.NewNotFoundError(r.entity, id)
		}

		if len(userValues) > 0 {
			err := tx.Model(&entities.User{}).Where("id = ? AND type = ?", id, entities.TypeAdmin).Updates(userValues).Error
			if err != nil {
				return r.translate(err, id)
			}
		}

		found, err := r.take(tx, id)
		out = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *adminGormRepository) SetActive(ctx context.Context, id int64, active bool) (*entities.Admin, error) {
	return r.Update(ctx, id, entities.AdminUpdate{IsActive: &active})
}

// Delete removes the extension row and then the users row. A plain user id
// matches nothing and yields 0.
func (r *adminGormRepository) Delete(ctx context.Context, id int64) (int64, error) {
	var deleted int64
	err := r.run(ctx, "delete", func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&entities.AdminAccount{})
		if res.Error != nil {
			return r.translate(res.Error, id)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Where("id = ?", id).Delete(&entities.User{}).Error; err != nil {
			return r.translate(err, id)
		}
		deleted = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// Authenticate looks the admin up in its own unit of work, then verifies the
// password outside any transaction. Every failure is the same not-found.
func (r *adminGormRepository) Authenticate(ctx context.Context, userName, password string) (*entities.Admin, error) {
	admin, err := r.GetByUsername(ctx, userName)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, apperrors.NewNotFoundError(r.entity, nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.HashedPassword), []byte(password)); err != nil {
		return nil, apperrors.NewNotFoundError(r.entity, nil)
	}
	return admin, nil
}
