package layoutshot

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cdpRecorder answers every call with an empty result, except Runtime.evaluate
// which returns screen.
type cdpRecorder struct {
	mu      sync.Mutex
	methods []string
	screen  Viewport
}

func (c *cdpRecorder) Event() <-chan *cdp.Event {
	return make(chan *cdp.Event)
}

func (c *cdpRecorder) Call(ctx context.Context, sessionID, method string, params interface{}) ([]byte, error) {
	c.mu.Lock()
	c.methods = append(c.methods, method)
	c.mu.Unlock()

	if method != (proto.RuntimeEvaluate{}).ProtoReq() {
		return []byte("{}"), nil
	}

	value, err := json.Marshal(map[string]interface{}{
		"width":  c.screen.Width,
		"height": c.screen.Height,
		"mobile": c.screen.Mobile,
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]interface{}{
		"result": map[string]interface{}{"type": "object", "value": json.RawMessage(value)},
	})
}

func (c *cdpRecorder) called(method string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.methods {
		if m == method {
			return true
		}
	}
	return false
}

func newRecordedPage(client *cdpRecorder) *rodPage {
	browser := rod.New().Client(client)
	return &rodPage{page: browser.PageFromSession("session")}
}

func TestRodViewportStateReportsBrowser(t *testing.T) {
	client := &cdpRecorder{screen: Viewport{Width: 980, Height: 1742}}
	page := newRecordedPage(client)

	require.NoError(t, page.SetViewport(Mobile))
	assert.True(t, client.called("Emulation.setDeviceMetricsOverride"))
	assert.True(t, client.called("Emulation.setTouchEmulationEnabled"))

	state, err := page.ViewportState()
	require.NoError(t, err)
	assert.True(t, client.called("Runtime.evaluate"))

	// the requested override must not be echoed back
	assert.Equal(t, Viewport{Width: 980, Height: 1742}, state)
	assert.False(t, Mobile.Matches(state))
}

func TestRodViewportStateMatches(t *testing.T) {
	client := &cdpRecorder{screen: Viewport{Width: 390, Height: 844, Mobile: true}}
	page := newRecordedPage(client)

	require.NoError(t, page.SetViewport(Mobile))

	state, err := page.ViewportState()
	require.NoError(t, err)
	assert.True(t, Mobile.Matches(state))
}
