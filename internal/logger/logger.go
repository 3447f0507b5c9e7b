package logger

import (
	"go-bms/internal/config"
	"go-bms/internal/database"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the application logger: console (or JSON in production),
// an optional rotating file sink, and the async Mongo tee core.
func NewLogger(cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {

	// 1. Setup Base Config (Console/JSON)
	var zapConfig zap.Config
	if cfg.Environment == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Important: Enable Caller to get Function Name
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	core := baseLogger.Core()

	// 2. Optional rotating file sink
	if cfg.LogFile != "" {
		fileSink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zapConfig.EncoderConfig),
			fileSink,
			zapConfig.Level,
		)
		core = zapcore.NewTee(core, fileCore)
	}

	// 3. Create our Async DB Writer and wrap the core with the tee
	dbWriter := NewDBLogWriter(mongodb, cfg)
	finalCore := NewDBCore(core, dbWriter)

	// 4. Return new Logger with AddCaller enabled
	return zap.New(finalCore, zap.AddCaller()), nil
}
