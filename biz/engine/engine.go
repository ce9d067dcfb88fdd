package engine

import (
	"github.com/panjf2000/ants/v2"
)

var BroadcastPool *ants.Pool

func InitBroadcastPool(size int) error {
	pool, err := ants.NewPool(size)
	if err != nil {
		return err
	}
	BroadcastPool = pool
	return nil
}

// Broadcaster 按交易对广播回调类型
type Broadcaster func(symbol string, msg []byte)

// Unicaster 按用户单播回调类型
type Unicaster func(userID string, msg []byte)
