package tool

import (
	"fmt"
	"math/rand"
)

var adjectives = []string{
	"Bright",
	"Calm",
	"Clever",
	"Cool",
	"Crisp",
	"Fast",
	"Fine",
	"Golden",
	"Grand",
	"Keen",
	"Lucky",
	"Mystic",
	"Neat",
	"Nice",
	"Patient",
	"Quick",
	"Quiet",
	"Sharp",
	"Silent",
	"Smart",
	"Solid",
	"Steady",
	"Strong",
	"Swift",
	"Vivid",
	"Wide",
	"Wise",
}

var subjects = []string{
	"Aperture",
	"Bokeh",
	"Bracket",
	"Diffuser",
	"Exposure",
	"Filter",
	"Flash",
	"Focus",
	"Gimbal",
	"Histogram",
	"Lens",
	"Monopod",
	"Pixel",
	"Prism",
	"Sensor",
	"Shutter",
	"Softbox",
	"Tripod",
	"Viewfinder",
	"Zoom",
}

// NameGenerator picks a default alias for a fresh install.
func NameGenerator() string {
	adjective := adjectives[rand.Intn(len(adjectives))]
	subject := subjects[rand.Intn(len(subjects))]
	return fmt.Sprintf("%s %s", adjective, subject)
}
