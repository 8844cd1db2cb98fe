package component

import (
	"fmt"
	"strconv"
)

var trendColors = map[string]string{
	"up":   "#16A34A",
	"down": "#DC2626",
}

var keyboardTypes = map[string]string{
	"email":  "email-address",
	"number": "numeric",
	"phone":  "phone-pad",
}

func renderStat(cfg Config) map[string]any {
	value := cfg.String("value", "")
	data := map[string]any{
		"label":        cfg.String("label", ""),
		"value":        value,
		"displayValue": cfg.String("prefix", "") + value + cfg.String("suffix", ""),
		"style":        map[string]any{"color": cfg.String("color", "#111827")},
	}
	if dir := cfg.String("trend", ""); dir != "" {
		data["trend"] = map[string]any{
			"direction": dir,
			"value":     cfg.String("trendValue", ""),
			"color":     trendColors[dir],
		}
	}
	return data
}

func renderList(cfg Config) map[string]any {
	raw := cfg.List("items")
	items := make([]map[string]any, 0, len(raw))
	for i, item := range raw {
		entry := map[string]any{"key": strconv.Itoa(i)}
		switch v := item.(type) {
		case map[string]any:
			sub := Config(v)
			entry["text"] = sub.String("title", sub.String("text", ""))
			if s := sub.String("subtitle", ""); s != "" {
				entry["subtitle"] = s
			}
		case string:
			entry["text"] = v
		default:
			entry["text"] = fmt.Sprint(v)
		}
		items = append(items, entry)
	}
	return map[string]any{
		"items":        items,
		"ordered":      cfg.Bool("ordered", false),
		"showDividers": cfg.Bool("showDividers", true),
		"style":        map[string]any{"color": cfg.String("itemColor", "#111827")},
	}
}

func renderChart(cfg Config) map[string]any {
	labels := cfg.List("labels")
	values := cfg.List("values")

	series := make([]map[string]any, 0, len(values))
	maxValue := 0.0
	for i, v := range values {
		n := Config{"v": v}.Number("v", 0)
		label := strconv.Itoa(i + 1)
		if i < len(labels) {
			label = fmt.Sprint(labels[i])
		}
		if n > maxValue {
			maxValue = n
		}
		series = append(series, map[string]any{"label": label, "value": n})
	}

	return map[string]any{
		"chartType":  cfg.String("chartType", "bar"),
		"title":      cfg.String("title", ""),
		"series":     series,
		"maxValue":   maxValue,
		"showLegend": cfg.Bool("showLegend", true),
		"style": map[string]any{
			"height": cfg.Number("height", 220),
			"color":  cfg.String("color", "#3B82F6"),
		},
	}
}

func renderTextInput(cfg Config) map[string]any {
	inputType := cfg.String("inputType", "text")
	keyboard, ok := keyboardTypes[inputType]
	if !ok {
		keyboard = "default"
	}
	data := map[string]any{
		"label":           cfg.String("label", ""),
		"placeholder":     cfg.String("placeholder", ""),
		"value":           cfg.String("defaultValue", ""),
		"keyboardType":    keyboard,
		"secureTextEntry": inputType == "password",
		"required":        cfg.Bool("required", false),
		"autoCapitalize":  "sentences",
	}
	if inputType == "email" || inputType == "password" {
		data["autoCapitalize"] = "none"
	}
	if n := cfg.Number("maxLength", 0); n > 0 {
		data["maxLength"] = n
	}
	return data
}

func renderCheckbox(cfg Config) map[string]any {
	return map[string]any{
		"label": cfg.String("label", ""),
		"value": cfg.Bool("checked", false),
		"style": map[string]any{"tintColor": cfg.String("color", "#3B82F6")},
	}
}

func renderRadioGroup(cfg Config) map[string]any {
	selected := cfg.String("selected", "")
	raw := cfg.List("options")
	options := make([]map[string]any, 0, len(raw))
	for _, o := range raw {
		value := fmt.Sprint(o)
		options = append(options, map[string]any{
			"label":    value,
			"value":    value,
			"selected": value == selected,
		})
	}

	direction := "column"
	if cfg.String("direction", "vertical") == "horizontal" {
		direction = "row"
	}
	return map[string]any{
		"label":   cfg.String("label", ""),
		"options": options,
		"style": map[string]any{
			"flexDirection": direction,
			"tintColor":     cfg.String("color", "#3B82F6"),
		},
	}
}

func renderLoginForm(cfg Config) map[string]any {
	primary := cfg.String("primaryColor", "#3B82F6")

	links := []map[string]any{}
	if cfg.Bool("showForgotPassword", true) {
		links = append(links, map[string]any{"text": "Forgot password?", "action": "forgot_password"})
	}
	if cfg.Bool("showSignup", true) {
		links = append(links, map[string]any{"text": "Create an account", "action": "signup"})
	}

	return map[string]any{
		"title": cfg.String("title", ""),
		"fields": []map[string]any{
			{
				"name":           "email",
				"label":          cfg.String("emailLabel", "Email"),
				"keyboardType":   keyboardTypes["email"],
				"autoCapitalize": "none",
			},
			{
				"name":            "password",
				"label":           cfg.String("passwordLabel", "Password"),
				"secureTextEntry": true,
			},
		},
		"submit": map[string]any{
			"text":  cfg.String("submitLabel", "Sign in"),
			"style": map[string]any{"backgroundColor": primary, "color": "#FFFFFF"},
		},
		"links": links,
		"style": map[string]any{"linkColor": primary},
	}
}
