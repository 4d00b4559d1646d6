package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/zoeyai/tplsearch/internal/logger"
	"github.com/zoeyai/tplsearch/internal/sysinfo"
	"github.com/zoeyai/tplsearch/pkg/auto/screen"
	"github.com/zoeyai/tplsearch/pkg/config"
	"github.com/zoeyai/tplsearch/pkg/service"
	"github.com/zoeyai/tplsearch/pkg/vision"
	"github.com/zoeyai/tplsearch/pkg/vision/annotate"
	"github.com/zoeyai/tplsearch/pkg/vision/cv"
)

// 版本信息 (可通过 ldflags 注入)
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 命令行参数
	var (
		imagePath    = flag.String("image", "", "源图像路径")
		templatePath = flag.String("template", "", "模板图像路径")
		colorTol     = flag.Int("color-tol", 0, "单通道允许的最大差值")
		pixelTol     = flag.Int("pixel-tol", 0, "允许的失配像素数")
		workers      = flag.Int("workers", 0, "比较器并发数 (0 为自动)")
		clustering   = flag.String("clustering", "", "重叠候选归并策略: greedy | components")
		maxResults   = flag.Int("max", 0, "最多返回的结果数 (0 为不限制)")
		useScreen    = flag.Bool("screen", false, "在屏幕截图中查找模板")
		region       = flag.String("region", "", "搜索区域 x,y,w,h (用于 -screen 或 -cv)")
		gridCell     = flag.String("grid", "", "截屏网格 rows.cols.row.col (如 2.2.1.1)")
		useCV        = flag.Bool("cv", false, "使用 OpenCV 解码图像")
		annotateOut  = flag.String("annotate", "", "把标注结果保存到指定文件")
		serve        = flag.Bool("serve", false, "启动 WebSocket 服务")
		serveGRPC    = flag.Bool("grpc", false, "启动 gRPC 服务")
		listenAddr   = flag.String("listen", "", "WebSocket 监听地址")
		grpcAddr     = flag.String("grpc-addr", "", "gRPC 监听地址")
		logLevel     = flag.String("log-level", "", "日志级别: debug | info | warn | error")
		logFile      = flag.String("log-file", "", "日志文件路径")
		saveConfig   = flag.Bool("save-config", false, "保存配置到本地")
		showVersion  = flag.Bool("version", false, "显示版本信息")
		showHelp     = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}
	if *showHelp {
		printHelp()
		return
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("[WARN] 加载配置失败: %v\n", err)
	}

	// 命令行参数优先级高于配置文件
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "color-tol":
			cfg.ColorTolerance = *colorTol
		case "pixel-tol":
			cfg.PixelTolerance = *pixelTol
		case "workers":
			cfg.Workers = *workers
		case "clustering":
			cfg.Clustering = *clustering
		case "max":
			cfg.MaxResults = *maxResults
		case "listen":
			cfg.ListenAddr = *listenAddr
		case "grpc-addr":
			cfg.GRPCAddr = *grpcAddr
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-file":
			cfg.LogFile = *logFile
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Printf("[ERROR] 参数无效: %v\n", err)
		os.Exit(1)
	}

	if *saveConfig {
		if err := config.Save(cfg); err != nil {
			fmt.Printf("[WARN] 保存配置失败: %v\n", err)
		} else {
			fmt.Printf("[INFO] 配置已保存到 %s\n", config.GetDefaultManager().GetConfigFile())
		}
	}

	if err := setupLogging(cfg); err != nil {
		fmt.Printf("[WARN] %v\n", err)
	}
	defer logger.Default().Close()

	if cfg.Workers == 0 {
		cfg.Workers = sysinfo.RecommendedWorkers()
	}
	opts := cfg.VisionOptions()

	switch {
	case *serve || *serveGRPC:
		if err := runServers(cfg, opts, *serve, *serveGRPC); err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
	case *templatePath != "" && (*useScreen || *imagePath != ""):
		if err := runSearch(*imagePath, *templatePath, *useScreen, *region, *gridCell, *useCV, *annotateOut, opts); err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			os.Exit(1)
		}
	default:
		printHelp()
		os.Exit(1)
	}
}

// setupLogging 把配置中的日志设置应用到默认 logger
func setupLogging(cfg *config.SearchConfig) error {
	opts := *vision.GetOptions()
	opts.LogLevel = cfg.LogLevel
	opts.LogFile = cfg.LogFile != ""
	if cfg.LogFile != "" {
		opts.LogPath = cfg.LogFile
	}
	vision.SetOptions(opts)
	return vision.ApplyLogOptions()
}

// runSearch 执行一次文件或屏幕搜索，把结果以 JSON 打印到标准输出
func runSearch(imagePath, templatePath string, useScreen bool, regionSpec, gridSpec string, useCV bool, annotateOut string, opts []vision.Option) error {
	var (
		results []vision.MatchResult
		err     error
	)

	switch {
	case useScreen:
		var r *screen.Region
		switch {
		case regionSpec != "":
			r, err = parseRegion(regionSpec)
		case gridSpec != "":
			r, err = screen.GridRegion(gridSpec)
		}
		if err != nil {
			return err
		}
		results, err = screen.FindOnScreen(templatePath, r, opts...)
	case useCV:
		results, err = searchCV(imagePath, templatePath, regionSpec, annotateOut, opts)
	default:
		results, err = vision.FindAll(imagePath, templatePath, opts...)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return err
	}

	if annotateOut != "" && !useCV {
		if useScreen {
			return fmt.Errorf("屏幕搜索不支持 -annotate")
		}
		if err := annotate.DrawFile(imagePath, annotateOut, results, annotate.DefaultConfig); err != nil {
			return err
		}
		logger.Info("标注结果已保存到 %s", annotateOut)
	}
	return nil
}

// searchCV 用 OpenCV 读取源图像，指定 region 时只在该区域内查找，标注图也由 OpenCV 绘制
func searchCV(imagePath, templatePath, regionSpec, annotateOut string, opts []vision.Option) ([]vision.MatchResult, error) {
	mat, err := cv.ReadImage(imagePath)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	var results []vision.MatchResult
	if regionSpec != "" {
		r, err := parseRegion(regionSpec)
		if err != nil {
			return nil, err
		}
		rect := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
		results, err = cv.FindInRegion(mat, rect, templatePath, opts...)
		if err != nil {
			return nil, err
		}
	} else {
		results, err = cv.FindAll(mat, templatePath, opts...)
		if err != nil {
			return nil, err
		}
	}

	if annotateOut != "" {
		cv.DrawResults(&mat, results)
		if err := cv.WriteImage(annotateOut, mat); err != nil {
			return nil, err
		}
		logger.Info("标注结果已保存到 %s", annotateOut)
	}
	return results, nil
}

// runServers 启动 WebSocket 和/或 gRPC 服务，收到中断信号后退出
func runServers(cfg *config.SearchConfig, opts []vision.Option, ws, rpc bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := service.New(opts...)

	fmt.Println("========================================")
	fmt.Printf("  tplsearch v%s\n", vision.Version)
	fmt.Println("========================================")

	g, ctx := errgroup.WithContext(ctx)
	if ws {
		g.Go(func() error {
			return svc.ListenAndServe(ctx, cfg.ListenAddr)
		})
	}
	if rpc {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("gRPC 监听 %s 失败: %w", cfg.GRPCAddr, err)
		}
		g.Go(func() error {
			return svc.ServeGRPC(ctx, lis)
		})
	}

	fmt.Println("[INFO] 按 Ctrl+C 退出")
	err := g.Wait()
	fmt.Println("[INFO] 已退出")
	return err
}

// parseRegion 解析 "x,y,w,h"
func parseRegion(s string) (*screen.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("区域格式应为 x,y,w,h: %q", s)
	}
	v := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("区域格式应为 x,y,w,h: %q", s)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return nil, fmt.Errorf("区域宽高必须为正数: %q", s)
	}
	return &screen.Region{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("tplsearch v%s\n", vision.Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)

	info := sysinfo.GetSystemInfo()
	fmt.Printf("Platform: %s %s\n", info.Platform, info.OSVersion)
	fmt.Printf("CPU: %s (%d/%d cores)\n", info.CPUModel, info.PhysicalCores, info.LogicalCores)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("tplsearch - 容差模板搜索")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  tplsearch -image <源图像> -template <模板> [选项]")
	fmt.Println("  tplsearch -screen -template <模板> [-region x,y,w,h | -grid rows.cols.row.col] [选项]")
	fmt.Println("  tplsearch -cv -image <源图像> -template <模板> [-region x,y,w,h] [-annotate out.png] [选项]")
	fmt.Println("  tplsearch -serve [-grpc] [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  # 允许每通道 8 的差值和 2 个失配像素")
	fmt.Println("  tplsearch -image screen.png -template button.png -color-tol 8 -pixel-tol 2")
	fmt.Println()
	fmt.Println("  # 保存标注图")
	fmt.Println("  tplsearch -image screen.png -template button.png -annotate out.png")
	fmt.Println()
	fmt.Println("  # 启动 WebSocket 与 gRPC 服务")
	fmt.Println("  tplsearch -serve -grpc")
	fmt.Println()
	fmt.Printf("配置文件位置: %s\n", config.GetDefaultManager().GetConfigFile())
}
