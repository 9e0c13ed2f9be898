package model

import "gorm.io/gorm"

const (
	RoleUser  = "user"
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model        // 包含了 ID, CreatedAt, UpdatedAt, DeletedAt
	Username   string `gorm:"type:varchar(150);unique;not null" json:"username"`
	Email      string `gorm:"type:varchar(254)" json:"email"`
	FirstName  string `gorm:"type:varchar(150)" json:"first_name"`
	LastName   string `gorm:"type:varchar(150)" json:"last_name"`
	Password   string `gorm:"type:varchar(255);not null" json:"-"`
	Role       string `gorm:"type:varchar(20);default:'user'" json:"role"` // user / staff / admin
	IsActive   bool   `gorm:"not null;default:true" json:"is_active"`
}

// IsStaff 可访问后台
func (u *User) IsStaff() bool {
	return u.Role == RoleStaff || u.Role == RoleAdmin
}

// DisplayName "姓, 名", 后台列表使用
func (u *User) DisplayName() string {
	if u.LastName == "" && u.FirstName == "" {
		return u.Username
	}
	return u.LastName + ", " + u.FirstName
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
