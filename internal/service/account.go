package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/pkg/apperror"
	"go-storefront/pkg/jwt"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenDenylist 已注销的 Token (按 jti)
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisDenylist key: token:revoked:<jti>, 过期时间与 Token 一致
type RedisDenylist struct {
	rdb redis.Cmdable
}

func NewRedisDenylist(rdb redis.Cmdable) *RedisDenylist {
	return &RedisDenylist{rdb: rdb}
}

func revokedKey(jti string) string {
	return "token:revoked:" + jti
}

func (d *RedisDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, revokedKey(jti), 1, ttl).Err()
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.rdb.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type AccountService struct {
	users    *repository.UserRepo
	tokens   *jwt.Manager
	denylist TokenDenylist
	validate *validator.Validate
	log      *zap.Logger
	cost     int
}

func NewAccountService(users *repository.UserRepo, tokens *jwt.Manager, denylist TokenDenylist, log *zap.Logger) *AccountService {
	return &AccountService{
		users:    users,
		tokens:   tokens,
		denylist: denylist,
		validate: NewValidator(),
		log:      log,
		cost:     bcrypt.DefaultCost,
	}
}

type RegisterInput struct {
	FirstName       string `json:"first_name" validate:"required,max=150"`
	LastName        string `json:"last_name" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Username        string `json:"username" validate:"required,max=150"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// Register 两次密码不一致或用户名已存在时不创建用户
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	fields, err := fieldErrors(s.validate, in)
	if err != nil {
		return nil, err
	}
	if in.Password != in.ConfirmPassword {
		fields["confirm_password"] = "the two password fields do not match"
	}
	if len(fields) > 0 {
		return nil, apperror.ValidationFields(fields)
	}
	taken, err := s.users.UsernameTaken(ctx, in.Username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperror.ValidationField("username", "a user with that username already exists")
	}

	hash, err := s.hashPassword("password", in.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  string(hash),
		Role:      model.RoleUser,
		IsActive:  true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		// 并发注册同名用户时唯一索引冲突
		if taken, terr := s.users.UsernameTaken(ctx, in.Username, 0); terr == nil && taken {
			return nil, apperror.ValidationField("username", "a user with that username already exists")
		}
		return nil, err
	}
	s.log.Info("user registered", zap.Uint("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// Login 成功返回 Token
func (s *AccountService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", nil, apperror.Unauthorized("invalid username or password")
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, apperror.Unauthorized("invalid username or password")
	}
	if !u.IsActive {
		return "", nil, apperror.Forbidden("this account is disabled")
	}

	token, _, err := s.tokens.GenerateToken(u.ID, u.Username, u.Role)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, u, nil
}

// hashPassword bcrypt 只接受 72 字节以内的密码, validator 的 max 按字符计
func (s *AccountService) hashPassword(field, password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperror.ValidationField(field, "password is too long (at most 72 bytes)")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// Authenticate 解析 Token 并检查是否已注销
// 用户名和角色以数据库为准, 停用或删除的用户立即失效
func (s *AccountService) Authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, apperror.Unauthorized("invalid or expired token")
	}
	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token: %w", err)
	}
	if revoked {
		return nil, apperror.Unauthorized("token has been revoked")
	}

	u, err := s.users.Get(ctx, claims.UserId)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.Unauthorized("user no longer exists")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, apperror.Forbidden("this account is disabled")
	}
	claims.Username = u.Username
	claims.Role = u.Role
	return claims, nil
}

// Logout 注销到 Token 过期为止
func (s *AccountService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil || claims.ID == "" {
		return apperror.Unauthorized("not logged in")
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.denylist.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

type ChangePasswordInput struct {
	OldPassword     string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

func (s *AccountService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	if err := validateStruct(s.validate, in); err != nil {
		return err
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.OldPassword)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return apperror.ValidationField("old_password", "your old password was entered incorrectly")
		}
		return fmt.Errorf("compare password: %w", err)
	}
	if in.NewPassword != in.ConfirmPassword {
		return apperror.ValidationField("confirm_password", "the two password fields do not match")
	}

	hash, err := s.hashPassword("new_password", in.NewPassword)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{"password": string(hash)})
}

type PersonalDetailsInput struct {
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150"`
}

func (s *AccountService) PersonalDetails(ctx context.Context, userID uint) (*model.User, error) {
	return s.users.Get(ctx, userID)
}

func (s *AccountService) UpdatePersonalDetails(ctx context.Context, userID uint, in PersonalDetailsInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	taken, err := s.users.UsernameTaken(ctx, in.Username, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperror.ValidationField("username", "a user with that username already exists")
	}
	err = s.users.Update(ctx, userID, map[string]interface{}{
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"email":      in.Email,
		"username":   in.Username,
	})
	if err != nil {
		return nil, err
	}
	return s.users.Get(ctx, userID)
}
