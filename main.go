package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/browserwing/nopo/api"
	"github.com/browserwing/nopo/config"
	"github.com/browserwing/nopo/pkg/logger"
	"github.com/browserwing/nopo/services/browser"
	"github.com/browserwing/nopo/services/player"
	"github.com/browserwing/nopo/storage"
)

var (
	Version   = "v0.1.0"
	BuildTime = ""
	GoVersion = ""
)

func main() {
	port := flag.String("port", "", "Server port (default: 8080)")
	host := flag.String("host", "", "Server host (default: 0.0.0.0)")
	configPath := flag.String("config", "", "Path to config file (default: $NOPO_CONFIG or config.toml)")
	autoStart := flag.Bool("start-browser", false, "Start the browser together with the server")
	version := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *version {
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Go Version: %s\n", GoVersion)
		os.Exit(0)
	}

	path := *configPath
	if path == "" {
		path = os.Getenv("NOPO_CONFIG")
	}
	if path == "" {
		path = "config.toml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config file %s: %v", path, err)
	}

	logger.InitLogger(cfg.Log)
	ctx := context.Background()

	// 命令行参数优先于配置文件和环境变量
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *host != "" {
		cfg.Server.Host = *host
	}

	db, err := storage.NewBoltDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Println("✓ Database initialization successful")

	browserManager := browser.NewManager(cfg.Browser)
	log.Printf("✓ Browser manager initialized: %s", browserManager)
	if *autoStart {
		if err := browserManager.Start(ctx); err != nil {
			log.Printf("Warning: Failed to start browser: %v", err)
		}
	}

	handler := api.NewHandler(db, api.Managed(browserManager), player.NewPlayer(cfg.Wait.Options()...))
	router := api.SetupRouter(handler, cfg.Debug)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 nopo server started at http://%s", addr)
		log.Printf("📝 API Documentation: http://%s/health", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	waitForShutdown(srv, browserManager, db)
}

// waitForShutdown 收到退出信号后依次关闭 HTTP 服务、浏览器和数据库
func waitForShutdown(srv *http.Server, browserManager *browser.Manager, db *storage.BoltDB) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("\nReceived exit signal: %v", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}

	if browserManager.IsRunning() {
		log.Println("Browser is running, closing...")
		if err := browserManager.Stop(ctx); err != nil {
			log.Printf("Failed to close browser: %v", err)
		} else {
			log.Println("✓ Browser closed")
		}
	}

	if err := db.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	} else {
		log.Println("✓ Database closed")
	}
	log.Println("Program exited")
}
