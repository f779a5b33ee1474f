package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"match-go/internal/config"
	"match-go/internal/events"
	"match-go/internal/handlers/notifyserver"
	"match-go/internal/websocket"

	appRedis "match-go/internal/redis"

	redisDriver "github.com/redis/go-redis/v9"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	log.Println("通知服务器配置加载成功。")

	// 2. 初始化 Redis Client（用于校验已吊销的 Token）
	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		log.Fatalf("无法连接到 Redis: %v", err)
	}
	log.Println("成功连接到 Redis")
	tokenBlacklistService := appRedis.NewRedisTokenBlacklist(redisClient)

	// 3. 初始化 WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run() // 在 goroutine 中运行 Hub
	log.Println("WebSocket Hub 已启动。")

	// 4. 初始化 WebSocket Handler
	wsHandler := notifyserver.NewWebSocketHandler(hub, tokenBlacklistService, cfg)

	// 5. 初始化并启动 Kafka 消费者（关系事件 -> 在线推送）
	eventConsumer, err := events.NewKafkaConsumer(cfg.Kafka)
	if err != nil {
		log.Fatalf("无法创建关系事件 Kafka 消费者: %v", err)
	}
	defer eventConsumer.Close()

	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()

	go func() {
		log.Printf("Kafka 关系事件消费者启动，监听 topic: %s, GroupID: %s", cfg.Kafka.EventsTopic, cfg.Kafka.ConsumerGroup)
		err := eventConsumer.Consume(consumerCtx, func(ctx context.Context, event *events.RelationshipEvent) error {
			// 接收方不在线时事件被静默丢弃；REST 接口仍是事实来源。
			hub.Deliver(event)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Kafka 关系事件消费者错误: %v", err)
		}
		log.Println("Kafka 关系事件消费者 goroutine 已停止。")
	}()

	// 6. 配置 HTTP 服务器路由
	mux := http.NewServeMux()
	mux.HandleFunc(cfg.NotifyServer.WebSocketPath, wsHandler.ServeWS)

	// 7. 启动 HTTP 服务器
	serverAddr := fmt.Sprintf("%s:%s", cfg.NotifyServer.Host, cfg.NotifyServer.Port)
	// 长连接服务器不设置读写超时，心跳由 WebSocket 层处理
	httpServer := &http.Server{Addr: serverAddr, Handler: mux}

	go func() {
		log.Printf("通知 HTTP 服务器启动于 %s, WebSocket 路径: %s", serverAddr, cfg.NotifyServer.WebSocketPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("通知服务器启动失败: %v", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("通知服务器准备关闭...")

	cancelConsumers() // 通知 Kafka 消费者停止
	log.Println("正在等待 Kafka 消费者停止...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("通知服务器关闭失败: %v", err)
	}
	log.Println("通知服务器已优雅关闭。")
}
