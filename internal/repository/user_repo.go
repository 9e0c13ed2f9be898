package repository

import (
	"context"
	"fmt"

	"go-storefront/internal/model"
	"go-storefront/pkg/apperror"

	"gorm.io/gorm"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user %s: %w", u.Username, err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, apperror.FromGorm(err, "user %d not found", id)
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, apperror.FromGorm(err, "user %q not found", username)
	}
	return &u, nil
}

// UsernameTaken exceptID 为 0 时检查所有用户
func (r *UserRepo) UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	var n int64
	tx := r.db.WithContext(ctx).Model(&model.User{}).Where("username = ?", username)
	if exceptID != 0 {
		tx = tx.Where("id <> ?", exceptID)
	}
	if err := tx.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Update 按 map 更新指定字段
func (r *UserRepo) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("user %d not found", id)
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context, search string) ([]model.User, error) {
	tx := r.db.WithContext(ctx).Order("id")
	if search != "" {
		pattern := ContainsPattern(search)
		tx = tx.Where("LOWER(username) LIKE ? ESCAPE '!' OR LOWER(first_name) LIKE ? ESCAPE '!' OR LOWER(last_name) LIKE ? ESCAPE '!'",
			pattern, pattern, pattern)
	}
	var users []model.User
	if err := tx.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, err
}
