package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"support-agent/config"
	"support-agent/dao"
	"support-agent/dataset"
	"support-agent/model"
	"support-agent/route"
	"support-agent/service"
)

func main() {
	// .env 可选，没有就用环境变量和默认值
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用环境变量")
	}
	cfg := config.Load()

	intents, err := loadIntentRules(cfg.IntentPath)
	if err != nil {
		log.Printf("加载意图配置失败（使用内置意图表）: %v", err)
		intents = service.DefaultIntentRules()
	}
	log.Printf("意图表加载完成，共 %d 个意图", len(intents))

	ds, err := dataset.Open(cfg.DatasetPath, cfg.LookupTimeout)
	if err != nil {
		log.Fatalf("打开数据集失败: %v", err)
	}
	defer ds.Close()
	if err := ds.SeedFromFile(context.Background(), cfg.SeedPath); err != nil {
		log.Printf("数据集初始导入失败（跳过）: %v", err)
	}

	var store dao.SessionStore
	switch cfg.StorageBackend {
	case "redis":
		store = dao.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL)
		log.Printf("会话存储: redis (%s)", cfg.RedisAddr)
	default:
		store = dao.NewMemoryStore()
		log.Println("会话存储: memory")
	}
	defer store.Close()

	chatSvc := service.NewChatService(store, ds, service.NewClassifier(intents), cfg.SessionTTL)

	// 后台定时清扫闲置会话
	c := cron.New()
	if _, err := c.AddFunc(cfg.SweepInterval, func() {
		chatSvc.SweepIdle(context.Background())
	}); err != nil {
		log.Fatalf("注册会话清扫任务失败: %v", err)
	}
	c.Start()
	defer c.Stop()

	r := gin.Default()
	r.Use(corsMiddleware(cfg.FrontendURL))
	route.Register(r, chatSvc)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("服务启动失败: %v", err)
	}
}

func corsMiddleware(frontendURL string) gin.HandlerFunc {
	conf := cors.DefaultConfig()
	if frontendURL != "" {
		conf.AllowOrigins = []string{frontendURL}
	} else {
		conf.AllowAllOrigins = true
	}
	conf.AllowHeaders = append(conf.AllowHeaders, "Authorization")
	return cors.New(conf)
}

func loadIntentRules(path string) ([]model.IntentDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var conf model.IntentConfig
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	if len(conf.Intents) == 0 {
		return nil, fmt.Errorf("配置文件 %s 中没有意图定义", path)
	}
	return conf.Intents, nil
}
