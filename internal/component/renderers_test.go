package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func merged(t *testing.T, r *Registry, typeKey string, instance map[string]any) Config {
	t.Helper()
	cfg, err := r.DefaultConfig(typeKey)
	require.NoError(t, err)
	for k, v := range instance {
		cfg[k] = v
	}
	return Config(cfg)
}

func TestButtonInstanceOverridesOnlyItsKeys(t *testing.T) {
	r := newTestRegistry(t)
	render, err := r.Renderer("Button")
	require.NoError(t, err)

	data := render(merged(t, r, "Button", map[string]any{"label": "Go"}))

	assert.Equal(t, "Go", data["text"])
	style := data["style"].(map[string]any)
	assert.Equal(t, "#3B82F6", style["backgroundColor"])
}

func TestButtonSizes(t *testing.T) {
	tests := []struct {
		size     string
		padV     float64
		padH     float64
		fontSize float64
	}{
		{"small", 6, 12, 14},
		{"medium", 10, 20, 16},
		{"large", 14, 28, 18},
		{"huge", 10, 20, 16},
	}
	for _, tt := range tests {
		t.Run(tt.size, func(t *testing.T) {
			style := renderButton(Config{"size": tt.size})["style"].(map[string]any)
			assert.Equal(t, tt.padV, style["paddingVertical"])
			assert.Equal(t, tt.padH, style["paddingHorizontal"])
			assert.Equal(t, tt.fontSize, style["fontSize"])
		})
	}
}

func TestButtonOutlinedVariant(t *testing.T) {
	style := renderButton(Config{"variant": "outlined", "color": "#FF0000"})["style"].(map[string]any)
	assert.Equal(t, "transparent", style["backgroundColor"])
	assert.Equal(t, "#FF0000", style["color"])
	assert.Equal(t, "#FF0000", style["borderColor"])
}

func TestAppBarStatusBarFollowsLuminance(t *testing.T) {
	tests := []struct {
		background string
		barStyle   string
		titleColor string
	}{
		{"#FFFFFF", "dark-content", "#000000"},
		{"#000000", "light-content", "#FFFFFF"},
		{"#3B82F6", "light-content", "#FFFFFF"},
		{"#FACC15", "dark-content", "#000000"},
	}
	for _, tt := range tests {
		t.Run(tt.background, func(t *testing.T) {
			data := renderAppBar(Config{"backgroundColor": tt.background})
			assert.Equal(t, tt.barStyle, data["statusBar"].(map[string]any)["barStyle"])
			assert.Equal(t, tt.titleColor, data["style"].(map[string]any)["color"])
		})
	}
}

func TestLuminanceThreshold(t *testing.T) {
	l, ok := luminance("#3B82F6")
	require.True(t, ok)
	assert.InDelta(t, 121.995, l, 0.001)

	assert.False(t, isLightColor("#7E7E7E"))
	assert.True(t, isLightColor("#808080"))
	assert.True(t, isLightColor("not-a-color"))
}

func TestAppBarExplicitTitleColorWins(t *testing.T) {
	data := renderAppBar(Config{"backgroundColor": "#000000", "titleColor": "#FF00FF"})
	assert.Equal(t, "#FF00FF", data["style"].(map[string]any)["color"])
}

func TestHeadingLevelClamped(t *testing.T) {
	assert.Equal(t, 6, renderHeading(Config{"level": 12.0})["level"])
	assert.Equal(t, 1, renderHeading(Config{"level": -1.0})["level"])
	style := renderHeading(Config{"level": 2.0})["style"].(map[string]any)
	assert.Equal(t, 28.0, style["fontSize"])
}

func TestStatDisplayValue(t *testing.T) {
	data := renderStat(Config{"label": "Revenue", "value": 1250.5, "prefix": "$", "trend": "up", "trendValue": "+4%"})
	assert.Equal(t, "1250.5", data["value"])
	assert.Equal(t, "$1250.5", data["displayValue"])
	trend := data["trend"].(map[string]any)
	assert.Equal(t, "#16A34A", trend["color"])

	_, hasTrend := renderStat(Config{"value": "3"})["trend"]
	assert.False(t, hasTrend)
}

func TestListItems(t *testing.T) {
	data := renderList(Config{"items": []any{"a", map[string]any{"title": "b", "subtitle": "c"}, 3.0}})
	items := data["items"].([]map[string]any)
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0]["text"])
	assert.Equal(t, "b", items[1]["text"])
	assert.Equal(t, "c", items[1]["subtitle"])
	assert.Equal(t, "3", items[2]["text"])
}

func TestChartSeries(t *testing.T) {
	data := renderChart(Config{"labels": []any{"Jan"}, "values": []any{4.0, "9"}})
	series := data["series"].([]map[string]any)
	require.Len(t, series, 2)
	assert.Equal(t, "Jan", series[0]["label"])
	assert.Equal(t, "2", series[1]["label"])
	assert.Equal(t, 9.0, series[1]["value"])
	assert.Equal(t, 9.0, data["maxValue"])
}

func TestFormRenderers(t *testing.T) {
	input := renderTextInput(Config{"inputType": "password", "maxLength": 20.0})
	assert.Equal(t, true, input["secureTextEntry"])
	assert.Equal(t, "default", input["keyboardType"])
	assert.Equal(t, 20.0, input["maxLength"])

	radio := renderRadioGroup(Config{"options": []any{"a", "b"}, "selected": "b", "direction": "horizontal"})
	options := radio["options"].([]map[string]any)
	assert.Equal(t, false, options[0]["selected"])
	assert.Equal(t, true, options[1]["selected"])
	assert.Equal(t, "row", radio["style"].(map[string]any)["flexDirection"])

	login := renderLoginForm(Config{"showSignup": false})
	assert.Len(t, login["links"], 1)
}

func TestRenderersArePure(t *testing.T) {
	r := newTestRegistry(t)
	for typeKey, fn := range builtins {
		t.Run(typeKey, func(t *testing.T) {
			cfg := merged(t, r, typeKey, nil)
			assert.Equal(t, fn(cfg), fn(cfg))
		})
	}
}
