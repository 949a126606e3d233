package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/robotalks/hdlc485/pkg/bridge"
	"github.com/robotalks/hdlc485/pkg/bridge/mqtt"
	"github.com/robotalks/hdlc485/pkg/env"
	fx "github.com/robotalks/hdlc485/pkg/framework"
	"github.com/robotalks/hdlc485/pkg/hdlc"
)

var sendHex string

func init() {
	env.SetupFlags()
	flag.StringVar(&sendHex, "send", sendHex, "HEX payload to send through the gateway once connected.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	conf := env.NewConfig()
	q, err := mqtt.NewQueueFromURL(conf.BridgeURL, conf.BridgeClientID()+"-mon")
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub("+/rx", func(topic string, payload []byte) {
		rec, err := bridge.DecodeRecord(payload)
		if err != nil {
			log.Printf("%s: bad record: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, rec.Summary())
	})
	q.Sub("+/tx", func(topic string, payload []byte) {
		log.Printf("%s: send %s", topic, hdlc.FormatHex(payload))
	})

	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	if sendHex != "" {
		payload, err := hdlc.ParseHex(sendHex)
		if err != nil {
			log.Fatalln(err)
		}
		rw := mqtt.NewPacketReadWriter(q).ForClient(byte(conf.Address))
		if err := rw.WritePacket(payload); err != nil {
			log.Fatalln(err)
		}
	}

	<-fx.NewRunner().HandleSignals().Context.Done()
}
