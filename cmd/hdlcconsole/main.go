package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"

	"github.com/robotalks/hdlc485/pkg/console"
	"github.com/robotalks/hdlc485/pkg/env"
	fx "github.com/robotalks/hdlc485/pkg/framework"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	port, err := conf.OpenConsole()
	if err != nil {
		log.Fatalln(err)
	}
	defer port.Close()

	c := console.New(port, port, nil)
	c.AckTimeout = conf.AckTimeout
	c.BaudRate = uint32(conf.BaudRate)
	c.Echo = conf.ConsolePort != ""
	c.Link = conf.MustNewStation(c.FrameReporter())
	c.PrintStatus()

	runner := fx.NewRunner().HandleSignals()
	runner.Go(
		fx.NamedRun("loop", fx.NewLoop().Add(c)),
		fx.NamedRun("eof", fx.RunFunc(func(ctx context.Context) error {
			select {
			case <-c.Done():
				runner.Cancel()
			case <-ctx.Done():
			}
			return nil
		})),
	)
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
