package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"sid-assistant/config"
	"sid-assistant/dao"
	"sid-assistant/route"
	"sid-assistant/service"
	"sid-assistant/service/assistant"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadEnv()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	engine, err := newEngine(cfg.Engine)
	if err != nil {
		log.Fatalf("初始化引擎失败: %v", err)
	}

	store := newStore(cfg.Redis)
	defer store.Close()

	ai, err := service.NewOpenAIAsker(cfg.Assistant.APIKey, cfg.Assistant.Model, cfg.Assistant.MaxTokens)
	if err != nil {
		log.Fatalf("初始化AI助手失败: %v", err)
	}
	if ai == nil {
		log.Printf("[Main] OPENAI_API_KEY not set, /chat/assistant disabled")
	}

	chatSvc := service.NewChatService(engine, store, ai)

	r := gin.Default()
	route.Register(r, chatSvc)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: c.Handler(r),
	}

	go func() {
		log.Printf("[Main] listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	log.Println("Received shutdown signal, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[Main] shutdown: %v", err)
	}
}

func newEngine(cfg config.EngineConfig) (*assistant.Engine, error) {
	kb, err := config.LoadKnowledgeBase(cfg.FAQPath)
	if err != nil {
		return nil, err
	}
	steps, err := config.LoadStepTable(cfg.StepsPath)
	if err != nil {
		return nil, err
	}
	intents, err := config.LoadIntentConfig(cfg.IntentsPath)
	if err != nil {
		return nil, err
	}
	log.Printf("加载知识库成功，共 %d 个主题, %d 个步骤, %d 个意图", len(kb.Topics), len(steps.Steps), len(intents.Intents))

	return assistant.NewEngine(kb, steps, intents,
		assistant.WithMatchThreshold(cfg.MatchThreshold),
		assistant.WithResponseThreshold(cfg.ResponseThreshold),
	)
}

// newStore uses Redis when an address is configured, memory otherwise.
func newStore(cfg config.RedisConfig) dao.SessionStore {
	if cfg.Addr == "" {
		log.Printf("[Main] REDIS_ADDR not set, sessions kept in memory")
		return dao.NewMemoryStore()
	}

	store := dao.NewRedisStore(cfg.Addr, cfg.Password, cfg.DB, cfg.TTL)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		log.Printf("[Main] redis %s not reachable yet: %v", cfg.Addr, err)
	}
	return store
}
