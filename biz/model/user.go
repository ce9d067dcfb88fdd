package model

// User 用户账户（USD余额，8位小数字符串）
type User struct {
	UserID    string `gorm:"primaryKey;column:user_id" json:"user_id"`
	Name      string `gorm:"column:name" json:"name"`
	Email     string `gorm:"column:email;uniqueIndex" json:"email"`
	Balance   string `gorm:"column:balance;type:decimal(20,8);not null;default:0" json:"balance"`
	CreatedAt int64  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt int64  `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
