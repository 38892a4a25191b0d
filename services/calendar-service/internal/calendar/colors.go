package calendar

const FallbackColor = "#0ea5e9"

var doctorColors = map[string]string{
	"Dr. Sarah Johnson": "#22c55e",
	"Dr. Michael Chen":  "#3b82f6",
	"Dr. Emily White":   "#a855f7",
	"Dr. David Lee":     "#f97316",
}

func DoctorColor(name string) string {
	if c, ok := doctorColors[name]; ok {
		return c
	}
	return FallbackColor
}
