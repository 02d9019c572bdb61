package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/hactar.go/pkg/board"
	"github.com/robotalks/hactar.go/pkg/cli/sh"
	"github.com/robotalks/hactar.go/pkg/config"
	"github.com/robotalks/hactar.go/pkg/fault"
	fx "github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/netlink"
	"github.com/robotalks/hactar.go/pkg/tasks"
	"github.com/robotalks/hactar.go/pkg/telemetry"
)

func init() {
	config.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := config.Default()
	if err := conf.Load(); err != nil {
		glog.Fatalf("load config: %v", err)
	}
	if err := conf.Validate(); err != nil {
		glog.Fatalf("invalid config: %v", err)
	}

	link, err := netlink.Open(conf.LinkURL, conf.DeviceID)
	if err != nil {
		glog.Fatalf("open link %s: %v", conf.LinkURL, err)
	}
	b := board.New(board.Config{Out: os.Stdout, Echo: conf.Echo, Link: link})
	b.Init()
	defer fault.Halt(b.LED)
	if err := b.Validate(); err != nil {
		glog.Fatalf("board: %v", err)
	}

	data, err := conf.NewData()
	if err != nil {
		glog.Fatalf("%v", err)
	}
	opts := conf.TaskOptions()
	var exporter *telemetry.Exporter
	if conf.MetricsAddr != "" {
		exporter = telemetry.NewExporter(conf.MetricsAddr, conf.DeviceID)
		exporter.WatchBattery(b.Battery)
		opts.Sink = exporter
	}

	sys := tasks.NewSystem(b, data, nil, opts)
	sys.Loop.Interval = conf.LoopInterval
	if exporter != nil {
		sys.Loop.Add(exporter)
	}
	if r, ok := link.(netlink.Runnable); ok {
		sys.Loop.AddRunnable(fx.NamedRun("link", r))
	}

	b.ReportStack("Starting")
	b.LED.Set(board.Green)

	ctx, cancel := context.WithCancel(fx.NewRunner().HandleSignals().Context)
	defer cancel()
	if conf.Shell {
		shell := sh.New(sys)
		go func() {
			shell.Run(ctx)
			cancel()
		}()
	}

	glog.Infof("device %s running, link %s", conf.DeviceID, conf.LinkURL)
	if err := sys.Loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		glog.Errorf("loop: %v", err)
	}
}
