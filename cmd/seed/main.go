package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/config"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/kv"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/repository"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var groupName string
	var groupID string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 用已有用户创建演示组, 3: 在组里发布演示调查并生成随机回答)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.StringVar(&groupName, "group-name", "デモ店舗", "演示组的名称")
	flag.StringVar(&groupID, "group-id", "", "发布演示调查的组 ID")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// 演示数据只写入 redis
	repo := repository.NewRepository(cfg, kv.NewRedisStore(rdb), dbpool)
	s := seed.New(repo, cfg.Invite.CodeLength)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
			return
		}
		cnt := s.Users(n, cfg.Seed.UserPassword, cfg.Seed.EmailDomain)
		slog.Info("插入用户成功", slog.Int("count", cnt))
	case 2:
		users, err := repo.GetAllUsers()
		if err != nil {
			slog.Error("无法获取所有用户", slog.String("error", err.Error()))
			return
		}
		users = users[:min(n, len(users))]

		group, err := s.Group(groupName, users)
		if err != nil {
			slog.Error("无法创建演示组", slog.String("error", err.Error()))
			return
		}
		slog.Info("创建演示组成功", slog.String("group_id", group.ID), slog.String("invite_code", group.InviteCode), slog.Int("members", len(users)))
	case 3:
		if groupID == "" {
			slog.Error("请指定组 ID")
			return
		}

		// 从下周一开始
		now := time.Now().In(cfg.Location())
		days := (8 - int(now.Weekday())) % 7
		if days == 0 {
			days = 7
		}
		start := now.AddDate(0, 0, days)

		post, cnt, err := s.Survey(groupID, start)
		if err != nil {
			slog.Error("无法发布演示调查", slog.String("error", err.Error()))
			return
		}
		slog.Info("发布演示调查成功", slog.String("post_id", post.ID), slog.Int("responses", cnt))
	default:
		slog.Error("指定的操作非法")
	}
}
