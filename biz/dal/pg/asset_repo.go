package pg

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spotex/biz/model"
)

// LockAsset 行级排他锁取持仓行，不存在时返回 gorm.ErrRecordNotFound
func LockAsset(tx *gorm.DB, userID, symbol string) (*model.Asset, error) {
	var asset model.Asset
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		First(&asset).Error
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// LockOrCreateAsset 锁定持仓行，不存在则先建后锁。
// 并发建同一行时 ON CONFLICT DO NOTHING 保证先写者胜出，双方最终锁到同一行
func LockOrCreateAsset(tx *gorm.DB, userID, symbol string) (*model.Asset, error) {
	asset, err := LockAsset(tx, userID, symbol)
	if err == nil {
		return asset, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	now := time.Now().UnixMilli()
	fresh := &model.Asset{
		UserID:       userID,
		Symbol:       symbol,
		Amount:       "0",
		LockedAmount: "0",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(fresh).Error; err != nil {
		return nil, err
	}
	return LockAsset(tx, userID, symbol)
}

// SaveAssetAvailable 事务内只回写可用数量
func SaveAssetAvailable(tx *gorm.DB, asset *model.Asset) error {
	return tx.Model(&model.Asset{}).
		Where("user_id = ? AND symbol = ?", asset.UserID, asset.Symbol).
		Updates(map[string]interface{}{
			"amount":     asset.Amount,
			"updated_at": time.Now().UnixMilli(),
		}).Error
}

// SaveAssetLocked 事务内只回写冻结数量。
// 结算按列回写：自成交时买卖两侧是同一行，整行覆盖会吃掉另一侧的变更
func SaveAssetLocked(tx *gorm.DB, asset *model.Asset) error {
	return tx.Model(&model.Asset{}).
		Where("user_id = ? AND symbol = ?", asset.UserID, asset.Symbol).
		Updates(map[string]interface{}{
			"locked_amount": asset.LockedAmount,
			"updated_at":    time.Now().UnixMilli(),
		}).Error
}

// SaveAssetAmounts 事务内回写可用/冻结数量，行是刚锁到的最新副本时使用
func SaveAssetAmounts(tx *gorm.DB, asset *model.Asset) error {
	return tx.Model(&model.Asset{}).
		Where("user_id = ? AND symbol = ?", asset.UserID, asset.Symbol).
		Updates(map[string]interface{}{
			"amount":        asset.Amount,
			"locked_amount": asset.LockedAmount,
			"updated_at":    time.Now().UnixMilli(),
		}).Error
}

// ListUserAssets 查询用户全部持仓
func ListUserAssets(userID string) ([]model.Asset, error) {
	var assets []model.Asset
	err := GormDB.Where("user_id = ?", userID).Order("symbol asc").Find(&assets).Error
	return assets, err
}

func CreateAsset(asset *model.Asset) error {
	return GormDB.Create(asset).Error
}
