// @title Exam Portal 后端 API
// @version 1.0
// @description 在线考试与练习平台的后端服务器。
// @termsOfService http://swagger.io/terms/

// @contact.name API支持
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"flag"
	"log"

	"exam_portal_backend/internal/app"
	"exam_portal_backend/internal/config"
	"exam_portal_backend/pkg/logger"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件目录")
	seedOnly := flag.Bool("seed-only", false, "只导入种子题库，完成后退出")
	watch := flag.Bool("watch-config", true, "监听配置文件变化并热更新")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.SeedOnly = *seedOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 导入完成后直接退出
	if cfg.SeedOnly {
		if cfg.Content.SeedFile == "" {
			log.Println("content.seed_file 未配置，无需导入")
		} else if err := application.Seed(context.Background()); err != nil {
			log.Printf("导入种子题库失败: %v", err)
		}
		application.Close()
		return
	}

	if *watch {
		application.WatchConfig(*configDir)
	}

	application.Run()
}
