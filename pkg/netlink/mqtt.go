package netlink

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// ChatTopic is the topic (under the prefix) carrying frames of a track.
const ChatTopic = "chat/"

// MQTT implements Link using an MQTT broker. Frames are published to
// {prefix}chat/{track_alias} and every chat topic is subscribed. Frames
// carrying this device's origin are ignored as the broker echoes them.
type MQTT struct {
	inbox
	Client      paho.Client
	TopicPrefix string
	Origin      string
}

// MatchTopic matches topic with pattern.
func MatchTopic(topic, pattern string) bool {
	tokensT, tokensP := strings.Split(topic, "/"), strings.Split(pattern, "/")
	if len(tokensP) > len(tokensT) {
		return false
	}
	for i, token := range tokensP {
		if token == "+" {
			continue
		}
		if token == "#" && i+1 == len(tokensP) {
			break
		}
		if token != tokensT[i] {
			return false
		}
	}
	return len(tokensP) == len(tokensT) || tokensP[len(tokensP)-1] == "#"
}

// ClientOptionsFromURL creates ClientOptions from URL.
// The path of the URL is the topic prefix.
func ClientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	var server string
	if u.Scheme == "" || u.Scheme == "mqtt" {
		server = "tcp"
	} else {
		server = u.Scheme
	}
	server += "://" + u.Host

	topicPrefix := strings.TrimPrefix(u.Path, "/")
	if topicPrefix != "" && !strings.HasSuffix(topicPrefix, "/") {
		topicPrefix += "/"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	if clientID := u.Query().Get("client-id"); clientID != "" {
		opts.SetClientID(clientID)
	}
	return opts, topicPrefix, nil
}

// NewMQTT creates an MQTT link.
func NewMQTT(options *paho.ClientOptions, topicPrefix, origin string) *MQTT {
	m := &MQTT{TopicPrefix: topicPrefix, Origin: origin}
	if options.ClientID == "" {
		options.SetClientID("hactar:" + origin)
	}
	options.SetOnConnectHandler(m.onConnect)
	options.SetConnectionLostHandler(func(_ paho.Client, err error) {
		glog.Warningf("netlink mqtt connection lost: %v", err)
	})
	m.Client = paho.NewClient(options)
	return m
}

// NewMQTTFromURL creates an MQTT link from broker URL.
func NewMQTTFromURL(brokerURL, origin string) (*MQTT, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return NewMQTT(opts, topicPrefix, origin), nil
}

// TopicFor returns the full topic for a frame.
func (m *MQTT) TopicFor(f *Frame) string {
	return m.TopicPrefix + ChatTopic + strconv.FormatUint(f.TrackAlias, 10)
}

// Send implements Link. It doesn't wait for the broker.
func (m *MQTT) Send(f *Frame) error {
	if m.isClosed() {
		return ErrClosed
	}
	out := *f
	out.Origin = m.Origin
	data, err := out.Encode()
	if err != nil {
		return err
	}
	topic := m.TopicFor(f)
	glog.V(2).Infof("PUB %q", topic)
	m.Client.Publish(topic, 0, false, data)
	return nil
}

// Recv implements Link.
func (m *MQTT) Recv() (*Frame, bool) {
	return m.get()
}

// Run connects to the broker and stays connected until ctx is done.
func (m *MQTT) Run(ctx context.Context) error {
	token := m.Client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	<-ctx.Done()
	m.Close()
	return nil
}

// Close implements io.Closer.
func (m *MQTT) Close() error {
	m.markClosed()
	m.Client.Disconnect(0)
	return nil
}

func (m *MQTT) onConnect(c paho.Client) {
	topic := m.TopicPrefix + ChatTopic + "+"
	glog.Infof("netlink mqtt connected, SUB %q", topic)
	c.Subscribe(topic, 0, func(_ paho.Client, msg paho.Message) {
		m.handle(msg.Topic(), msg.Payload())
	})
}

func (m *MQTT) handle(topic string, payload []byte) {
	if !strings.HasPrefix(topic, m.TopicPrefix) ||
		!MatchTopic(topic[len(m.TopicPrefix):], ChatTopic+"+") {
		return
	}
	f, err := DecodeFrame(payload)
	if err != nil {
		glog.Warningf("netlink mqtt %q: %v", topic, err)
		return
	}
	if f.Origin == m.Origin {
		return
	}
	glog.V(2).Infof("RCV %q", topic)
	m.put(f)
}
