package component

import (
	"strconv"
	"strings"
)

// builtins are the renderers of the stock catalog, keyed by type.
var builtins = map[string]Renderer{
	"Text":       renderText,
	"Heading":    renderHeading,
	"Button":     renderButton,
	"Image":      renderImage,
	"AppBar":     renderAppBar,
	"Card":       renderCard,
	"Stat":       renderStat,
	"List":       renderList,
	"Divider":    renderDivider,
	"Spacer":     renderSpacer,
	"TextInput":  renderTextInput,
	"Checkbox":   renderCheckbox,
	"RadioGroup": renderRadioGroup,
	"LoginForm":  renderLoginForm,
	"Chart":      renderChart,
}

func registerBuiltins(r *Registry) error {
	for typeKey, fn := range builtins {
		if err := r.Register(typeKey, fn); err != nil {
			return err
		}
	}
	return nil
}

// Button sizes as padding and font size triples.
type sizeStyle struct {
	PaddingVertical   float64
	PaddingHorizontal float64
	FontSize          float64
}

var buttonSizes = map[string]sizeStyle{
	"small":  {PaddingVertical: 6, PaddingHorizontal: 12, FontSize: 14},
	"medium": {PaddingVertical: 10, PaddingHorizontal: 20, FontSize: 16},
	"large":  {PaddingVertical: 14, PaddingHorizontal: 28, FontSize: 18},
}

var headingSizes = []float64{32, 28, 24, 20, 18, 16}

// Luminance above this is a light background.
const luminanceThreshold = 127

func renderText(cfg Config) map[string]any {
	data := map[string]any{
		"text": cfg.String("text", ""),
		"style": map[string]any{
			"fontSize":   cfg.Number("fontSize", 16),
			"color":      cfg.String("color", "#111827"),
			"textAlign":  cfg.String("align", "left"),
			"fontWeight": fontWeight(cfg.Bool("bold", false)),
			"fontStyle":  fontStyle(cfg.Bool("italic", false)),
		},
	}
	if n := cfg.Number("maxLines", 0); n > 0 {
		data["numberOfLines"] = n
	}
	return data
}

func renderHeading(cfg Config) map[string]any {
	level := int(cfg.Number("level", 1))
	if level < 1 {
		level = 1
	}
	if level > len(headingSizes) {
		level = len(headingSizes)
	}
	return map[string]any{
		"text":  cfg.String("text", ""),
		"level": level,
		"style": map[string]any{
			"fontSize":   headingSizes[level-1],
			"fontWeight": "bold",
			"color":      cfg.String("color", "#111827"),
			"textAlign":  cfg.String("align", "left"),
		},
	}
}

func renderButton(cfg Config) map[string]any {
	size, ok := buttonSizes[cfg.String("size", "medium")]
	if !ok {
		size = buttonSizes["medium"]
	}
	color := cfg.String("color", "#3B82F6")
	textColor := cfg.String("textColor", "#FFFFFF")

	background, border := color, color
	switch cfg.String("variant", "filled") {
	case "outlined":
		background, textColor = "transparent", color
	case "text":
		background, border, textColor = "transparent", "transparent", color
	}

	width := "auto"
	if cfg.Bool("fullWidth", false) {
		width = "100%"
	}

	return map[string]any{
		"text":     cfg.String("label", ""),
		"action":   cfg.String("action", ""),
		"disabled": cfg.Bool("disabled", false),
		"style": map[string]any{
			"backgroundColor":   background,
			"color":             textColor,
			"borderColor":       border,
			"borderWidth":       1.0,
			"borderRadius":      cfg.Number("borderRadius", 8),
			"paddingVertical":   size.PaddingVertical,
			"paddingHorizontal": size.PaddingHorizontal,
			"fontSize":          size.FontSize,
			"width":             width,
			"opacity":           opacity(cfg.Bool("disabled", false)),
		},
	}
}

func renderImage(cfg Config) map[string]any {
	style := map[string]any{
		"height":       cfg.Number("height", 200),
		"borderRadius": cfg.Number("borderRadius", 0),
	}
	if w := cfg.Number("width", 0); w > 0 {
		style["width"] = w
	} else {
		style["width"] = "100%"
	}
	return map[string]any{
		"source":     map[string]any{"uri": cfg.String("src", "")},
		"alt":        cfg.String("alt", ""),
		"resizeMode": cfg.String("fit", "cover"),
		"style":      style,
	}
}

func renderAppBar(cfg Config) map[string]any {
	background := cfg.String("backgroundColor", "#FFFFFF")
	light := isLightColor(background)

	titleColor := cfg.String("titleColor", "")
	if titleColor == "" {
		titleColor = "#FFFFFF"
		if light {
			titleColor = "#000000"
		}
	}
	iconStyle := "light-content"
	if light {
		iconStyle = "dark-content"
	}

	return map[string]any{
		"title":    cfg.String("title", ""),
		"showBack": cfg.Bool("showBack", false),
		"actions":  nonNilList(cfg.List("actions")),
		"style": map[string]any{
			"backgroundColor": background,
			"color":           titleColor,
		},
		"statusBar": map[string]any{
			"backgroundColor": background,
			"barStyle":        iconStyle,
		},
	}
}

func renderCard(cfg Config) map[string]any {
	elevation := cfg.Number("elevation", 2)
	shadow := elevation * 0.05
	if shadow > 0.5 {
		shadow = 0.5
	}
	data := map[string]any{
		"title":    cfg.String("title", ""),
		"subtitle": cfg.String("subtitle", ""),
		"body":     cfg.String("body", ""),
		"style": map[string]any{
			"backgroundColor": cfg.String("backgroundColor", "#FFFFFF"),
			"borderRadius":    cfg.Number("borderRadius", 12),
			"padding":         cfg.Number("padding", 16),
			"elevation":       elevation,
			"shadowOpacity":   shadow,
			"shadowRadius":    elevation * 2,
		},
	}
	if img := cfg.String("image", ""); img != "" {
		data["image"] = map[string]any{"uri": img}
	}
	return data
}

func renderDivider(cfg Config) map[string]any {
	return map[string]any{
		"style": map[string]any{
			"backgroundColor": cfg.String("color", "#E5E7EB"),
			"height":          cfg.Number("thickness", 1),
			"marginVertical":  cfg.Number("margin", 8),
		},
	}
}

func renderSpacer(cfg Config) map[string]any {
	return map[string]any{
		"style": map[string]any{"height": cfg.Number("size", 16)},
	}
}

func fontWeight(bold bool) string {
	if bold {
		return "bold"
	}
	return "normal"
}

func fontStyle(italic bool) string {
	if italic {
		return "italic"
	}
	return "normal"
}

func opacity(disabled bool) float64 {
	if disabled {
		return 0.5
	}
	return 1
}

func nonNilList(l []any) []any {
	if l == nil {
		return []any{}
	}
	return l
}

// luminance weighs a #RRGGBB color as 0.299R + 0.587G + 0.114B.
func luminance(hex string) (float64, bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, false
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, false
	}
	r := float64((rgb >> 16) & 0xFF)
	g := float64((rgb >> 8) & 0xFF)
	b := float64(rgb & 0xFF)
	return 0.299*r + 0.587*g + 0.114*b, true
}

// isLightColor treats unparseable colors as light.
func isLightColor(hex string) bool {
	l, ok := luminance(hex)
	return !ok || l > luminanceThreshold
}
