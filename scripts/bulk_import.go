// 从文本文件批量导入题目
//
// 每行一题: Subject|Topic|Difficulty|Question|Opt1|Opt2|Opt3|Opt4|CorrectIndex|Explanation
// 与管理后台的批量导入使用同一套解析规则，直接写入配置的存储。
//
// 用法: go run scripts/bulk_import.go -file questions.txt

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/service"
	"exam_portal_backend/pkg/kvstore"
	"exam_portal_backend/pkg/logger"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	file := flag.String("file", "", "题目文本文件")
	flag.Parse()

	if *file == "" {
		log.Fatal("缺少 -file 参数")
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("无法读取题目文件: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := kvstore.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("存储连接失败: %v", err)
	}
	defer store.Close()

	content := service.NewContentService(repository.NewQuestionRepository(store), cfg)

	log.Println("开始导入题目...")
	report, err := content.BulkImport(ctx, string(data))
	if err != nil {
		log.Fatalf("导入失败: %v", err)
	}
	log.Printf("完成！新增 %d 题，跳过 %d 行", report.Added, report.Skipped)
}
