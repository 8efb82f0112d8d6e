package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"chessclass/config"

	"github.com/go-redis/redis/v8"
)

var RedisClient *redis.Client

// Open connects the record store selected by STORE_DRIVER.
func Open(cfg *config.Config) (Store, error) {
	connectRedis(cfg)

	switch cfg.StoreDriver {
	case config.StoreMySQL:
		store, err := NewSQLStore(cfg.GetDSN(), cfg.AppEnv == "development")
		if err != nil {
			return nil, err
		}
		log.Println("Database connected successfully")
		return store, nil
	default:
		var locker Locker
		if RedisClient != nil {
			locker = NewRedisLocker(RedisClient, "lock:workbook:"+cfg.WorkbookPath, 30*time.Second)
		} else {
			locker = NewMutexLocker()
		}
		store, err := NewWorkbookStore(cfg.WorkbookPath, locker)
		if err != nil {
			return nil, err
		}
		log.Printf("Workbook store ready at %s", cfg.WorkbookPath)
		return store, nil
	}
}

// connectRedis initializes the Redis connection when REDIS_HOST is set.
func connectRedis(cfg *config.Config) {
	if cfg.RedisHost == "" {
		return
	}
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		log.Printf("Redis connection failed: %v", err)
		log.Println("Continuing without Redis - workbook writes are serialised in-process only")
		RedisClient = nil
		return
	}

	log.Println("Redis connected successfully")
}

// GetRedisClient returns the Redis client instance
func GetRedisClient() *redis.Client {
	return RedisClient
}
