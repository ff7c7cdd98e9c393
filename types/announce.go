package types

/*
 UDP Multicast Message example

{
  "alias": "booth-livingroom",
  "version": "1.0",
  "deviceModel": "Canon EOS R6m2",
  "deviceType": "camera-server",
  "fingerprint": "random string",
  "port": 8000,
  "protocol": "http",
  "announce": true
}

*/

// AnnounceMessage is a unified device information container. Used as
// the payload for UDP multicast beacons and MQTT status publishes so
// booth frontends can discover the camera server.
type AnnounceMessage struct {
	Alias       string `json:"alias"`
	Version     string `json:"version"`
	DeviceModel string `json:"deviceModel"`
	DeviceType  string `json:"deviceType"`
	Fingerprint string `json:"fingerprint"`
	Port        int    `json:"port"`
	Protocol    string `json:"protocol"`
	Announce    bool   `json:"announce"`
}
