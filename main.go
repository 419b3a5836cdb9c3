package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/task"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/utils/config"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/utils/output"
	"gopkg.in/yaml.v2"
)

var (
	// 本程序监听的Connect RPC地址，设置为空则不提供RPC服务
	listenAddr = flag.String("listen", ":51102", "connect RPC listening address (empty means disabled)")
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "fourway")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置
	var c config.Config
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	} else {
		log.Panic("config file or config data must be specified")
	}
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		log.Panicf("config file load err: %v", err)
	}
	log.Infof("%+v", c)

	t, err := task.NewContext(c)
	if err != nil {
		log.Panicf("init model err: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 指标序列输出到MongoDB
	if o := t.RuntimeConfig().All.Output; o != nil {
		w, err := output.NewMongoWriter(ctx, *o)
		if err != nil {
			log.Panicf("output init err: %v", err)
		}
		t.AddWriter(w)
	}

	// RPC服务协程
	var server *http.Server
	if *listenAddr != "" {
		mux := http.NewServeMux()
		t.Register(mux)
		server = &http.Server{Addr: *listenAddr, Handler: mux}
		go func() {
			log.Infof("serve connect rpc at %s", *listenAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Panicf("failed to serve: %v", err)
			}
		}()
	}

	if err := t.Run(ctx); err != nil {
		log.Errorf("engine close err: %v", err)
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("server shutdown err: %v", err)
		}
	}
}
