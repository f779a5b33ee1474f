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
	"match-go/internal/handlers/apiserver"
	"match-go/internal/middleware"
	"match-go/internal/services"
	"match-go/internal/storage"

	appRedis "match-go/internal/redis"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	redisDriver "github.com/redis/go-redis/v9"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	log.Println("API 服务器配置加载成功。")

	// 2. 初始化数据库连接
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("无法初始化数据库: %v", err)
	}
	log.Println("API 服务器数据库连接成功。")

	// (可选) 表结构迁移
	if err := storage.AutoMigrateTables(db); err != nil {
		log.Printf("警告：API 服务器数据库表迁移可能失败: %v", err)
	} else {
		log.Println("API 服务器数据库表迁移成功 (如果执行)。")
	}

	// 3. 初始化 Redis Client
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

	// 4. 初始化 TokenBlacklist 服务
	tokenBlacklistService := appRedis.NewRedisTokenBlacklist(redisClient)

	// 5. 初始化 Repositories
	userRepo := storage.NewGormUserRepository(db)
	profileRepo := storage.NewGormProfileRepository(db)
	likeRepo := storage.NewGormLikeRepository(db)
	matchRepo := storage.NewGormMatchRepository(db)
	blockRepo := storage.NewGormBlockRepository(db)
	messageRepo := storage.NewGormMessageRepository(db)

	// 6. 初始化 Kafka Producer（关系事件总线）
	kfkProducer, err := events.NewKafkaProducer(cfg.Kafka)
	if err != nil {
		log.Fatalf("无法创建 Kafka 生产者: %v", err)
	}
	defer kfkProducer.Close()
	log.Println("Kafka 生产者初始化成功 (API Server)。")

	// 7. 初始化 Services
	authService := services.NewAuthService(userRepo, cfg)
	userService := services.NewUserService(userRepo)
	profileService := services.NewProfileService(userRepo, profileRepo, likeRepo, blockRepo)
	likeService := services.NewLikeService(db, userRepo, likeRepo, kfkProducer)
	matchService := services.NewMatchService(db, matchRepo, kfkProducer)
	blockService := services.NewBlockService(db, userRepo, blockRepo, kfkProducer)
	messageService := services.NewMessageService(matchRepo, messageRepo, kfkProducer)

	// 8. 初始化 Handlers
	authHandler := apiserver.NewAuthHandler(authService, tokenBlacklistService)
	userHandler := apiserver.NewUserHandler(userService)
	profileHandler := apiserver.NewProfileHandler(profileService)
	likeHandler := apiserver.NewLikeHandler(likeService)
	matchHandler := apiserver.NewMatchHandler(matchService)
	blockHandler := apiserver.NewBlockHandler(blockService)
	messageHandler := apiserver.NewMessageHandler(messageService)

	// 9. 设置 HTTP 路由
	r := mux.NewRouter()

	// 9.1 认证路由
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	// 创建 AuthMiddleware 实例
	authMW := middleware.AuthMiddleware(cfg.Auth.JWTSecretKey, tokenBlacklistService)

	// 9.2 API 子路由 (需要认证)
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(authMW)

	// 登出需要认证来获取 JTI
	apiRouter.HandleFunc("/auth/logout", authHandler.LogoutHandler).Methods(http.MethodPost)

	// 用户路由
	apiRouter.HandleFunc("/users/me", userHandler.GetMeHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/me", userHandler.UpdateMeHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/users/search", userHandler.SearchUsersHandler).Methods(http.MethodGet)

	// 交友资料路由
	apiRouter.HandleFunc("/profiles/me", profileHandler.GetMyProfileHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/profiles/me", profileHandler.UpdateMyProfileHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/profiles/discover", profileHandler.DiscoverHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/profiles/{userID:[0-9]+}", profileHandler.GetProfileHandler).Methods(http.MethodGet)

	// 点赞路由
	likeRouter := apiRouter.PathPrefix("/likes").Subrouter()
	likeRouter.HandleFunc("", likeHandler.SendLikeHandler).Methods(http.MethodPost)
	likeRouter.HandleFunc("/sent", likeHandler.ListSentLikesHandler).Methods(http.MethodGet)
	likeRouter.HandleFunc("/received", likeHandler.ListReceivedLikesHandler).Methods(http.MethodGet)
	likeRouter.HandleFunc("/{likeID:[0-9]+}/accept", likeHandler.AcceptLikeHandler).Methods(http.MethodPost)
	likeRouter.HandleFunc("/{likeID:[0-9]+}/reject", likeHandler.RejectLikeHandler).Methods(http.MethodPost)

	// 匹配与消息路由
	apiRouter.HandleFunc("/matches", matchHandler.ListMatchesHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/matches/{matchID:[0-9]+}", matchHandler.GetMatchHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/matches/{matchID:[0-9]+}", matchHandler.UnmatchHandler).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/matches/{matchID:[0-9]+}/messages", messageHandler.SendMessageHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/matches/{matchID:[0-9]+}/messages", messageHandler.GetHistoryHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/messages/{messageID:[0-9]+}/read", messageHandler.MarkReadHandler).Methods(http.MethodPost)

	// 屏蔽路由
	apiRouter.HandleFunc("/blocks", blockHandler.BlockUserHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/blocks", blockHandler.ListBlockedHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/blocks/{blockID:[0-9]+}", blockHandler.UnblockHandler).Methods(http.MethodDelete)

	// 9.3 公开路由 (不需要认证)
	r.HandleFunc("/users/{userID:[0-9]+}", userHandler.GetUserHandler).Methods(http.MethodGet)

	// 10. 启动 HTTP 服务器并实现优雅关闭
	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)

	// 定义 CORS 选项，从配置中读取
	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}

	// 将主路由器 r 包装在 CORS 中间件中
	corsHandler := handlers.CORS(corsOptions...)(r)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      corsHandler,
		ReadTimeout:  cfg.APIServer.ReadTimeout,
		WriteTimeout: cfg.APIServer.WriteTimeout,
		IdleTimeout:  time.Second * 60,
	}

	go func() {
		log.Printf("API 服务器启动于 %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API 服务器启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("收到关闭信号，正在关闭 API 服务器...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("API 服务器强制关闭: %v", err)
	}

	log.Println("API 服务器已成功关闭")
}
