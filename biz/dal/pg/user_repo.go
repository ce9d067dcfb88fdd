package pg

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spotex/biz/model"
)

// LockUser 行级排他锁取用户，事务内调用
func LockUser(tx *gorm.DB, userID string) (*model.User, error) {
	var user model.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser 无锁读取
func GetUser(userID string) (*model.User, error) {
	var user model.User
	err := GormDB.Where("user_id = ?", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func CreateUser(user *model.User) error {
	return GormDB.Create(user).Error
}

// SaveUserBalance 事务内回写余额
func SaveUserBalance(tx *gorm.DB, user *model.User) error {
	return tx.Model(&model.User{}).
		Where("user_id = ?", user.UserID).
		Update("balance", user.Balance).Error
}

func CountUsers() (int64, error) {
	var n int64
	err := GormDB.Model(&model.User{}).Count(&n).Error
	return n, err
}
