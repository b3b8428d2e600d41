package configs

import (
	"fmt"
	"net"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const (
	maxConnectRetries = 10
	connectRetryDelay = 5 * time.Second
)

// DSN builds the MySQL data source name for env.
func (e ENV) DSN() string {
	cfg := mysqldriver.NewConfig()
	cfg.User = e.DBUser
	cfg.Passwd = e.DBPassword
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(e.DBHost, e.DBPort)
	cfg.DBName = e.DBName
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// GormConfig is shared by every gorm connection so that driver errors are
// translated into gorm.ErrDuplicatedKey and friends.
func GormConfig() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

func OpenConnection(env ENV, logger *zap.Logger) (*gorm.DB, error) {
	dsn := env.DSN()

	var lastErr error
	for i := 0; i < maxConnectRetries; i++ {
		logger.Info("connecting to database", zap.Int("attempt", i+1), zap.Int("max_attempts", maxConnectRetries), zap.String("addr", net.JoinHostPort(env.DBHost, env.DBPort)))

		db, err := gorm.Open(mysql.Open(dsn), GormConfig())
		if err == nil {
			sqlDB, pingErr := db.DB()
			if pingErr == nil {
				pingErr = sqlDB.Ping()
				if pingErr == nil {
					logger.Info("database connection successful")
					return db, nil
				}
			}
			lastErr = pingErr
			logger.Warn("failed to ping database", zap.Error(pingErr), zap.Duration("retry_in", connectRetryDelay))
		} else {
			lastErr = err
			logger.Warn("failed to open gorm connection", zap.Error(err), zap.Duration("retry_in", connectRetryDelay))
		}

		time.Sleep(connectRetryDelay)
	}

	return nil, fmt.Errorf("failed to connect to the database after %d retries: %w", maxConnectRetries, lastErr)
}
