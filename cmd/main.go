package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/browser"
	"golang.org/x/sync/errgroup"

	"github.com/char5742/floatball/internal/api"
	"github.com/char5742/floatball/internal/config"
	"github.com/char5742/floatball/internal/consts"
	"github.com/char5742/floatball/internal/engine"
	"github.com/char5742/floatball/internal/features"
	"github.com/char5742/floatball/internal/log"
)

func main() {
	// コマンドライン引数の解析
	useApi := flag.Bool("api", false, "APIサーバーモードで起動します")
	configPath := flag.String("config", "", "設定ファイルのパス (指定しない場合はデフォルトパスを使用)")
	port := flag.Int("port", 0, "APIサーバーのポート番号 (0の場合は設定ファイルの値)")
	openBrowser := flag.Bool("open", false, "起動後にブラウザで状態を開きます")
	logLevel := flag.String("log", "", "ログレベル (debug, info, warn, error)")
	flag.Parse()

	// デフォルト設定ファイルパスの設定
	defaultConfigPath := ""
	configDir, err := config.GetDefaultConfigDir()
	if err == nil {
		defaultConfigPath = filepath.Join(configDir, "config.toml")
	}

	// 設定ファイルパスの決定
	cfgPath := defaultConfigPath
	if *configPath != "" {
		cfgPath = *configPath
	}

	// 設定ファイルの読み込み
	var cfg *config.Config
	var loadErr error
	if cfgPath != "" {
		cfg, loadErr = config.LoadConfig(cfgPath)
	} else {
		cfg = config.DefaultConfig()
	}

	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *openBrowser {
		cfg.Server.OpenBrowser = true
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger, err := log.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ロガーの初期化に失敗しました: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if loadErr != nil {
		logger.Warn("設定ファイルの読み込みに失敗しました。デフォルト設定を使用します",
			log.String("path", cfgPath), log.Err(loadErr))
	} else if cfgPath != "" {
		logger.Info("設定ファイルを読み込みました", log.String("path", cfgPath))
	}

	// コンテナサイズが未設定なら端末の大きさを使う
	if cfg.Session.Container.Width <= 0 || cfg.Session.Container.Height <= 0 {
		if bounds, err := features.TerminalBounds(os.Stdout, consts.CellWidth, consts.CellHeight); err == nil {
			cfg.Session.Container = bounds
		} else {
			logger.Debug("端末サイズを取得できませんでした", log.Err(err))
		}
	}

	// シグナルハンドラの設定
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 設定ファイルの監視
	var watcher *config.Watcher
	if cfgPath != "" {
		watcher, err = config.NewWatcher(cfgPath, logger)
		if err != nil {
			logger.Warn("設定ファイルの監視を開始できませんでした", log.Err(err))
		} else if err := watcher.Start(); err != nil {
			logger.Warn("設定ファイルの監視を開始できませんでした", log.Err(err))
			watcher = nil
		} else {
			defer watcher.Stop()
		}
	}

	// APIモードかCLIモードかを判断
	if *useApi {
		err = runApiServer(ctx, cfg, watcher, logger)
	} else {
		err = runCLI(ctx, cfg, watcher, logger)
	}
	if err != nil {
		logger.Error("異常終了しました", log.Err(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("シャットダウンしました")
}

// APIサーバーモードでの実行
func runApiServer(ctx context.Context, cfg *config.Config, watcher *config.Watcher, logger log.Log) error {
	hub := api.NewHub(logger)
	service := api.NewSimulationService(cfg, logger, hub)
	server := api.NewServer(cfg, service, hub, logger)

	if watcher != nil {
		watcher.RegisterCallback(func(newConfig *config.Config) {
			// コンテナサイズとポートは起動時の値を維持する
			newConfig.Session = cfg.Session
			newConfig.Server = cfg.Server
			server.UpdateConfig(newConfig)
		})
	}

	if err := service.Start(); err != nil {
		return err
	}
	defer service.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})
	if cfg.Server.OpenBrowser {
		g.Go(func() error {
			if err := browser.OpenURL(server.URL() + "/api/state"); err != nil {
				logger.Warn("ブラウザを開けませんでした", log.Err(err))
			}
			return nil
		})
	}
	return g.Wait()
}

// CLIモードでの実行
// 標準入力の1行を1コマンドとして処理し、位置を標準出力に書き出す
func runCLI(ctx context.Context, cfg *config.Config, watcher *config.Watcher, logger log.Log) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink := engine.NewChannelSink(consts.SinkBuffer)
	session := engine.NewSession(cfg, sink, engine.WithLogger(logger))
	if err := session.Start(); err != nil {
		return err
	}

	if watcher != nil {
		watcher.RegisterCallback(func(newConfig *config.Config) {
			if err := session.UpdateConfig(newConfig.Physics); err != nil {
				logger.Warn("設定をセッションに反映できませんでした", log.Err(err))
			}
		})
	}

	console := api.NewConsole(session, os.Stdout, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		console.PrintPositions(gctx, sink.C())
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return session.Close()
	})

	// 標準入力の読み込みは中断できないため、グループの外で待つ
	go func() {
		if err := console.Run(gctx, os.Stdin); err != nil {
			logger.Warn("入力の読み込みに失敗しました", log.Err(err))
		}
		cancel()
	}()

	return g.Wait()
}
