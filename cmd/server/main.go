package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newsflow/go-sanitizer-service/internal/audit"
	"github.com/newsflow/go-sanitizer-service/internal/config"
	"github.com/newsflow/go-sanitizer-service/internal/extractor"
	"github.com/newsflow/go-sanitizer-service/internal/fetcher"
	sanitizergrpc "github.com/newsflow/go-sanitizer-service/internal/grpc"
	"github.com/newsflow/go-sanitizer-service/internal/handler"
	"github.com/newsflow/go-sanitizer-service/internal/metrics"
	"github.com/newsflow/go-sanitizer-service/internal/queue"
	"github.com/newsflow/go-sanitizer-service/internal/sanitizer"
	"github.com/newsflow/go-sanitizer-service/internal/service"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis（队列和审计共用）
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		client, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("Failed to connect to Redis: %v", err)
		} else {
			rdb = client
			defer rdb.Close()
		}
	}

	m := metrics.New()
	recorder := audit.NewRecorder(m, auditSinks(ctx, cfg, rdb)...)
	defer recorder.Close()

	s := sanitizer.New(cfg.SanitizerOptions())
	svc := service.New(s, recorder, m)

	f := fetcher.New(cfg)
	defer f.Close()
	importer := extractor.NewImporter(f, extractor.New(svc))

	h := handler.New(cfg, svc, importer, m)
	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcServer interface{ GracefulStop() }
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			log.Fatalf("Failed to listen on gRPC port %s: %v", cfg.GRPCPort, err)
		}
		gs := sanitizergrpc.NewServer(cfg, svc)
		grpcServer = gs
		go func() {
			log.Printf("gRPC server listening on port %s", cfg.GRPCPort)
			if err := gs.Serve(lis); err != nil {
				log.Printf("gRPC server error: %v", err)
			}
		}()
	}

	if rdb != nil {
		q := queue.NewRedisQueueWithClient(rdb, cfg.ConsumerName)
		if n, err := q.GetQueueLength(ctx); err == nil {
			log.Printf("Redis queue backlog: %d task(s)", n)
		}
		go func() {
			log.Printf("Redis queue consumer %s started", cfg.ConsumerName)
			q.StartConsumer(ctx, queue.NewTaskHandler(svc), cfg.MaxConcurrent)
		}()
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		cancel()
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("Go Sanitizer Service starting on port %s", cfg.HTTPPort)
	log.Printf("Max concurrent: %d", cfg.MaxConcurrent)
	log.Printf("Untrusted content mode: %v", cfg.UntrustedContentMode)
	log.Printf("Allowed URL schemes: %v", cfg.AllowedSchemes)
	log.Printf("Audit enabled: %v", recorder.Enabled())

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped")
}

func connectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// auditSinks 根据配置创建审计后端，连接失败只记录日志
func auditSinks(ctx context.Context, cfg *config.Config, rdb *redis.Client) []audit.Sink {
	var sinks []audit.Sink

	if cfg.AuditPostgresDSN != "" {
		pgCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		pg, err := audit.NewPostgresSink(pgCtx, cfg.AuditPostgresDSN)
		if err != nil {
			log.Printf("[Audit] PostgreSQL sink disabled: %v", err)
		} else {
			sinks = append(sinks, pg)
		}
	}

	if cfg.AuditRedisList != "" {
		if rdb == nil {
			log.Printf("[Audit] Redis sink disabled: REDIS_URL not available")
		} else {
			sinks = append(sinks, audit.NewRedisSink(rdb, cfg.AuditRedisList))
		}
	}

	return sinks
}
