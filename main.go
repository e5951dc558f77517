package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/forgecdn/forge/internal/config"
	"github.com/forgecdn/forge/internal/forge"
	"github.com/forgecdn/forge/internal/logging"
	"github.com/forgecdn/forge/internal/server"
	"github.com/forgecdn/forge/internal/server/routes"
	"github.com/forgecdn/forge/internal/store"
	"github.com/forgecdn/forge/internal/version"
)

// configEnv 在未传入 --config 时提供配置路径。
const configEnv = "FORGE_CONFIG"

const shutdownTimeout = 5 * time.Second

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, opts)
	stop()
	os.Exit(code)
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(ctx context.Context, opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	pipeline, err := forge.ResolvePipeline(cfg.Forge.Converters)
	if err != nil {
		fmt.Fprintf(stdErr, "解析转换流水线失败: %v\n", err)
		return 1
	}

	instances := cfg.Forge.Instances
	if opts.checkOnly {
		instances = 1
	}

	// 启动遵循“配置 → 实例池 → 文件监听 → Fiber server”顺序，
	// 目录树构建失败时直接退出，不会以空树对外服务。
	pool, err := store.NewPool(instances, store.Options{
		Root:         cfg.Forge.ForgeRoot,
		CacheEntries: cfg.Forge.CacheEntries,
		Pipeline:     pipeline,
		Logger:       logger,
	})
	if err != nil {
		fmt.Fprintf(stdErr, "构建目录树失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		for k, v := range logging.ForgeFields(cfg.Forge.ForgeRoot, cfg.Forge.Instances, cfg.Forge.CacheEntries) {
			fields[k] = v
		}
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		fmt.Fprintln(stdOut, cfg.Summary())
		pool.Dump(stdOut)
		return 0
	}

	watcher, err := pool.Watch(ctx, store.WatchOptions{
		Debounce: cfg.Forge.ReloadDebounce.DurationValue(),
	})
	if err != nil {
		fmt.Fprintf(stdErr, "初始化文件监听失败: %v\n", err)
		return 1
	}
	defer watcher.Close()

	if cfg.Forge.ResyncEnabled() {
		resync, err := pool.ScheduleResync(cfg.Forge.ResyncSchedule)
		if err != nil {
			fmt.Fprintf(stdErr, "初始化定时 resync 失败: %v\n", err)
			return 1
		}
		defer resync.Stop()
	}

	fields := logging.BaseFields("startup", opts.configPath)
	for k, v := range logging.ForgeFields(pool.Root(), pool.Size(), cfg.Forge.CacheEntries) {
		fields[k] = v
	}
	fields["listen_port"] = cfg.Global.ListenPort
	fields["converters"] = cfg.Forge.Converters
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(ctx, cfg, pool, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := pflag.NewFlagSet("forge", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVarP(&configFlag, "config", "c", "", "配置文件路径（默认 ./config.toml，可被 "+configEnv+" 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置并输出目录树后退出")
	fs.BoolVarP(&showVer, "version", "v", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}
	if fs.NArg() > 0 {
		return cliOptions{}, fmt.Errorf("解析参数失败: 未知参数 %v", fs.Args())
	}

	path := os.Getenv(configEnv)
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = config.DefaultPath
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

func startHTTPServer(ctx context.Context, cfg *config.Config, pool *store.Pool, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:       logger,
		Pool:         pool,
		CDNPrefix:    cfg.Forge.CDNPrefix,
		BrowsePrefix: cfg.Forge.BrowsePrefix,
		ListenPort:   port,
	})
	if err != nil {
		return err
	}
	routes.RegisterDiagnostics(app, pool)

	go func() {
		<-ctx.Done()
		logger.WithField("action", "shutdown").Info("收到退出信号，停止 Fiber 服务")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.WithField("action", "shutdown").WithError(err).Warn("Fiber 服务停止超时")
		}
	}()

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
		"cdn":    cfg.Forge.CDNPrefix,
		"browse": cfg.Forge.BrowsePrefix,
	}).Info("Fiber 服务启动")

	err = app.Listen(fmt.Sprintf(":%d", port), fiber.ListenConfig{DisableStartupMessage: true})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
