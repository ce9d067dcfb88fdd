package main

import (
	"io"
	"os"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/hertz-contrib/cors"
	"github.com/hertz-contrib/gzip"
	"github.com/hertz-contrib/logger/accesslog"
	"github.com/hertz-contrib/pprof"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"spotex/biz/dal"
	"spotex/biz/dal/pg"
	"spotex/biz/engine"
	"spotex/biz/handler"
	"spotex/biz/service"
	"spotex/conf"
	wsserver "spotex/server"
	"spotex/util"
)

func initLogger() *zap.Logger {
	hertzConf := conf.GetConf().Hertz
	fileWriter := &lumberjack.Logger{
		Filename:   hertzConf.LogFileName,
		MaxSize:    hertzConf.LogMaxSize,
		MaxBackups: hertzConf.LogMaxBackups,
		MaxAge:     hertzConf.LogMaxAge,
	}
	hlog.SetLevel(conf.LogLevel())
	hlog.SetOutput(io.MultiWriter(os.Stdout, fileWriter))

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(fileWriter),
		zap.InfoLevel,
	)
	return zap.New(core)
}

func main() {
	_ = godotenv.Load()
	cfg := conf.GetConf()

	logger := initLogger()
	defer func() { _ = logger.Sync() }()

	util.InitSonyFlake()
	dal.Init()

	if cfg.Demo.Seed {
		if err := service.EnsureDemoData(); err != nil {
			logger.Fatal("demo seed failed", zap.Error(err))
		}
	}

	if err := engine.InitBroadcastPool(1024); err != nil {
		logger.Fatal("broadcast pool init failed", zap.Error(err))
	}

	// 撮合引擎 + 消费组：下单提交后经 Kafka 触达这里
	matchEngine := service.NewMatchEngine(
		pg.GormDB,
		service.WithBroadcaster(wsserver.Broadcast),
		service.WithUnicaster(wsserver.Unicast),
	)
	service.StartMatchConsumers(matchEngine)
	defer service.ShutdownMatchConsumers()

	wsserver.StartWebSocketServer(cfg.Hertz.WsPort)

	if cfg.Registry.Enable {
		helper, err := service.NewConsulHelperWithAddrs(cfg.Registry.RegistryAddress)
		if err != nil {
			logger.Fatal("consul init failed", zap.Error(err))
		}
		if err := helper.RegisterService(cfg.Registry.NodeID, cfg.Hertz.Service, cfg.Registry.ServicePort); err != nil {
			logger.Fatal("consul register failed", zap.Error(err))
		}
		defer func() { _ = helper.DeregisterService(cfg.Registry.NodeID) }()
		logger.Info("registered to consul",
			zap.String("node_id", cfg.Registry.NodeID),
			zap.Int("port", cfg.Registry.ServicePort))
	}

	h := server.New(server.WithHostPorts(cfg.Hertz.Address))
	h.Use(cors.Default())
	if cfg.Hertz.EnableGzip {
		h.Use(gzip.Gzip(gzip.DefaultCompression))
	}
	if cfg.Hertz.EnableAccessLog {
		h.Use(accesslog.New())
	}
	if cfg.Hertz.EnablePprof {
		pprof.Register(h)
	}

	api := h.Group("/api")
	api.POST("/orders", handler.SubmitOrder)
	api.POST("/orders/cancel", handler.CancelOrder)
	api.GET("/orders/:id", handler.GetOrder)
	api.GET("/orders", handler.ListOrders)
	api.GET("/profile", handler.GetProfile)
	api.GET("/holdings", handler.GetHoldings)
	api.GET("/active_orders", handler.GetActiveOrders)
	api.GET("/depth", handler.GetDepth)
	api.GET("/trades", handler.GetTrades)
	api.GET("/my_trades", handler.GetMyTrades)
	api.GET("/ticker", handler.GetTicker)

	logger.Info("spotex started", zap.String("addr", cfg.Hertz.Address))
	h.Spin()
}
