package model

// 用户角色
const (
	RoleAdmin     = "admin"
	RoleTech      = "tech"
	RolePhysician = "physician"
)

// User 用户表，对应 users
type User struct {
	UserID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string  `gorm:"type:varchar(128);not null"                     json:"name"`
	Email        string  `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string  `gorm:"type:varchar(20);not null;default:'tech'"       json:"role"`
	TechGroup    *string `gorm:"type:varchar(2)"                                json:"tech_group,omitempty"` // MO | CA | CE | DE，仅技师
	IsActive     bool    `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsTech 是否为带技能组的技师
func (u *User) IsTech() bool {
	return u.Role == RoleTech && u.TechGroup != nil && *u.TechGroup != ""
}
