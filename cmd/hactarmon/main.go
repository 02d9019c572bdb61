package main

import (
	"flag"
	"log"
	"os"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/robotalks/hactar.go/pkg/netlink"
)

var (
	mqttURL = "mqtt://localhost:1883/hactar/"
)

func init() {
	if val := os.Getenv("HACTAR_LINK_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	opts, prefix, err := netlink.ClientOptionsFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	opts.SetClientID("")
	topic := prefix + netlink.ChatTopic + "#"
	opts.SetOnConnectHandler(func(c paho.Client) {
		c.Subscribe(topic, 0, func(_ paho.Client, m paho.Message) {
			f, err := netlink.DecodeFrame(m.Payload())
			if err != nil {
				log.Printf("%s: bad frame: %v", m.Topic(), err)
				return
			}
			log.Printf("%s: [%s] object=%d group=%d key=%d %d bytes",
				m.Topic(), f.Origin, f.ObjectId, f.GroupId, f.KeyId, len(f.EncData))
		})
	})
	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
