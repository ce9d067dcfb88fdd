package dal

import (
	"spotex/biz/dal/kafka"
	"spotex/biz/dal/pg"
	"spotex/biz/dal/redis"
)

func Init() {
	pg.Init()
	redis.Init()
	kafka.Init()
}
