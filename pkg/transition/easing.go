package transition

import (
	"sort"
	"strings"

	"github.com/tanema/gween/ease"
)

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"inquad":       ease.InQuad,
	"outquad":      ease.OutQuad,
	"inoutquad":    ease.InOutQuad,
	"incubic":      ease.InCubic,
	"outcubic":     ease.OutCubic,
	"inoutcubic":   ease.InOutCubic,
	"inquart":      ease.InQuart,
	"outquart":     ease.OutQuart,
	"inoutquart":   ease.InOutQuart,
	"insine":       ease.InSine,
	"outsine":      ease.OutSine,
	"inoutsine":    ease.InOutSine,
	"inexpo":       ease.InExpo,
	"outexpo":      ease.OutExpo,
	"inoutexpo":    ease.InOutExpo,
	"incirc":       ease.InCirc,
	"outcirc":      ease.OutCirc,
	"inoutcirc":    ease.InOutCirc,
	"inback":       ease.InBack,
	"outback":      ease.OutBack,
	"inoutback":    ease.InOutBack,
	"inelastic":    ease.InElastic,
	"outelastic":   ease.OutElastic,
	"inoutelastic": ease.InOutElastic,
	"inbounce":     ease.InBounce,
	"outbounce":    ease.OutBounce,
	"inoutbounce":  ease.InOutBounce,
}

// Easing looks up an easing function by name, ignoring case
// ("outQuad", "inOutBack", ...).
func Easing(name string) (ease.TweenFunc, bool) {
	fn, ok := easings[strings.ToLower(name)]
	return fn, ok
}

// EasingNames returns the known easing names, lower-cased and sorted.
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for name := range easings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
