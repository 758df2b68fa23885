package model

// Condition is one of the six display labels used for the widget.
type Condition string

const (
	ConditionSunny  Condition = "Sunny"
	ConditionCloudy Condition = "Cloudy"
	ConditionRainy  Condition = "Rainy"
	ConditionSnowy  Condition = "Snowy"
	ConditionStormy Condition = "Stormy"
	ConditionFoggy  Condition = "Foggy"
)

// DefaultProviderCondition is assumed when the provider sends no condition.
const DefaultProviderCondition = "Clear"

var providerConditions = map[string]Condition{
	"Clear":        ConditionSunny,
	"Clouds":       ConditionCloudy,
	"Rain":         ConditionRainy,
	"Drizzle":      ConditionRainy,
	"Snow":         ConditionSnowy,
	"Thunderstorm": ConditionStormy,
	"Mist":         ConditionFoggy,
	"Fog":          ConditionFoggy,
	"Haze":         ConditionFoggy,
}

var conditionIcons = map[Condition]string{
	ConditionSunny:  "sunny.svg",
	ConditionCloudy: "cloudy.svg",
	ConditionRainy:  "rainy.svg",
	ConditionSnowy:  "snowy.svg",
	ConditionStormy: "stormy.svg",
	ConditionFoggy:  "foggy.svg",
}

// MapCondition translates a provider "weather[0].main" value. Unknown values map to Sunny.
func MapCondition(providerMain string) Condition {
	if c, ok := providerConditions[providerMain]; ok {
		return c
	}
	return ConditionSunny
}

// Icon returns the icon asset for a condition, falling back to the sunny icon.
func (c Condition) Icon() string {
	if icon, ok := conditionIcons[c]; ok {
		return icon
	}
	return conditionIcons[ConditionSunny]
}

// WeatherModel is the normalized record rendered by the widget.
type WeatherModel struct {
	Location     string    `json:"location"`
	TemperatureC int       `json:"temperatureC"`
	Condition    Condition `json:"condition"`
	HumidityPct  int       `json:"humidityPct"`
	WindSpeedKmh int       `json:"windSpeedKmh"`
	FeelsLikeC   int       `json:"feelsLikeC"`
}

// WeatherView is a WeatherModel plus its icon, as returned over HTTP.
type WeatherView struct {
	WeatherModel
	Icon string `json:"icon"`
}

func NewWeatherView(m WeatherModel) WeatherView {
	return WeatherView{WeatherModel: m, Icon: m.Condition.Icon()}
}
