package layoutshot

import (
	"fmt"

	"github.com/go-rod/rod/lib/devices"
	"github.com/go-rod/rod/lib/proto"
)

// Viewport is the simulated browser window applied before navigation.
type Viewport struct {
	Name   string
	Width  int
	Height int
	Mobile bool // enables mobile metrics, touch and a mobile user agent
}

var (
	Desktop = Viewport{Name: "desktop", Width: 1280, Height: 800, Mobile: false}
	Mobile  = Viewport{Name: "mobile", Width: 390, Height: 844, Mobile: true}
)

// mobileUserAgent is sent by pages emulating a mobile viewport.
var mobileUserAgent = devices.IPhoneX.UserAgent

func (v Viewport) String() string {
	return fmt.Sprintf("%s %dx%d", v.Name, v.Width, v.Height)
}

// Matches reports whether the measured state has the same geometry and mode.
func (v Viewport) Matches(state Viewport) bool {
	return v.Width == state.Width && v.Height == state.Height && v.Mobile == state.Mobile
}

func (v Viewport) deviceMetrics() *proto.EmulationSetDeviceMetricsOverride {
	return &proto.EmulationSetDeviceMetricsOverride{
		Width:             v.Width,
		Height:            v.Height,
		DeviceScaleFactor: 1,
		Mobile:            v.Mobile,
	}
}
