package database

import (
	"github.com/hibiken/asynq"
)

var AsynqClient *asynq.Client

// InitAsynq initializes the Asynq client only if Redis is available
func InitAsynq(addr string) {
	if RedisClient == nil || addr == "" {
		logger.Warningf("Redis not available, Asynq client will not be initialized")
		return
	}

	AsynqClient = asynq.NewClient(asynq.RedisClientOpt{Addr: addr})
	logger.Infof("Asynq client initialized")
}

func CloseAsynq() error {
	if AsynqClient == nil {
		return nil
	}
	return AsynqClient.Close()
}
