package announce

import (
	"fmt"

	"github.com/bytedance/sonic"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Zahlii/godslr/tool"
	"github.com/Zahlii/godslr/types"
)

// MQTTAnnouncer publishes server presence and capture events to a
// broker and listens for remote trigger commands.
type MQTTAnnouncer struct {
	cfg       types.AnnounceConfig
	self      *types.AnnounceMessage
	client    mqtt.Client
	onTrigger func()
}

// NewMQTTAnnouncer wires an announcer to a broker. onTrigger runs when
// a remote client publishes to the trigger topic; it may be nil.
func NewMQTTAnnouncer(cfg types.AnnounceConfig, self *types.AnnounceMessage, onTrigger func()) *MQTTAnnouncer {
	return &MQTTAnnouncer{cfg: cfg, self: self, onTrigger: onTrigger}
}

func (m *MQTTAnnouncer) topic(leaf string) string {
	return fmt.Sprintf("godslr/%s/%s", m.self.Alias, leaf)
}

// Start connects to the broker. The presence message is retained so
// late subscribers still see the server.
func (m *MQTTAnnouncer) Start() error {
	if m.cfg.MQTTBroker == "" {
		return fmt.Errorf("no MQTT broker configured")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(m.cfg.MQTTBroker)
	if m.cfg.MQTTUsername != "" {
		opts.SetUsername(m.cfg.MQTTUsername)
		opts.SetPassword(m.cfg.MQTTPassword)
	}
	opts.SetClientID("godslr-" + m.self.Fingerprint)
	opts.SetCleanSession(true)

	opts.OnConnect = func(c mqtt.Client) {
		tool.DefaultLogger.Infof("Connected to MQTT broker %s", m.cfg.MQTTBroker)
		c.Subscribe(m.topic("trigger"), 0, m.handleTrigger)
		m.publishPresence(c)
	}

	m.client = mqtt.NewClient(opts)
	token := m.client.Connect()
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return nil
}

// Stop clears the retained presence message and disconnects.
func (m *MQTTAnnouncer) Stop() {
	if m.client == nil {
		return
	}
	if m.client.IsConnected() {
		m.client.Publish(m.topic("status"), 0, true, []byte{}).Wait()
	}
	m.client.Disconnect(1000)
}

func (m *MQTTAnnouncer) publishPresence(c mqtt.Client) {
	payload, err := sonic.Marshal(m.self)
	if err != nil {
		tool.DefaultLogger.Errorf("failed to marshal presence message: %v", err)
		return
	}
	c.Publish(m.topic("status"), 0, true, payload)
}

// Broadcast pushes a notification to the capture topic so remote
// listeners can react to fresh images. Implements notify.Hub.
func (m *MQTTAnnouncer) Broadcast(n *types.Notification) {
	if m.client == nil || !m.client.IsConnected() {
		return
	}
	payload, err := sonic.Marshal(n)
	if err != nil {
		tool.DefaultLogger.Errorf("failed to marshal capture message: %v", err)
		return
	}
	m.client.Publish(m.topic("capture"), 0, false, payload)
}

func (m *MQTTAnnouncer) handleTrigger(client mqtt.Client, msg mqtt.Message) {
	tool.DefaultLogger.Infof("MQTT trigger received on %s", msg.Topic())
	if m.onTrigger != nil {
		m.onTrigger()
	}
}
