package fyne

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// variantTheme is the default theme pinned to one variant, so the saved
// preference wins over the desktop setting.
type variantTheme struct {
	fyne.Theme
	variant fyne.ThemeVariant
}

func newVariantTheme(t domain.Theme) fyne.Theme {
	variant := theme.VariantLight
	if t == domain.ThemeDark {
		variant = theme.VariantDark
	}
	return &variantTheme{Theme: theme.DefaultTheme(), variant: variant}
}

// Color implements fyne.Theme.
func (t *variantTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.Theme.Color(name, t.variant)
}
