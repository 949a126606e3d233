package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/robotalks/hdlc485/pkg/bridge"
	"github.com/robotalks/hdlc485/pkg/env"
	fx "github.com/robotalks/hdlc485/pkg/framework"
)

var pollTimeout = bridge.DefaultPollTimeout

func init() {
	env.SetupFlags()
	flag.DurationVar(&pollTimeout, "poll", pollTimeout, "Bus poll timeout between sends")
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	gw := bridge.NewGateway(conf.MustNewBridge())
	gw.AckTimeout = conf.AckTimeout
	gw.PollTimeout = pollTimeout
	gw.Link = conf.MustNewStation(gw.OnFrame)

	runner := fx.NewRunner().HandleSignals()
	fx.NewLoop().Add(gw).RunOrFail(runner.Context)
}
