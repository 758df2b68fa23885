package service

import (
	"math"

	"github.com/fakhrymubarak/weather-widget/internal/model"
)

// msToKmh converts wind speed from meters per second to kilometers per hour.
const msToKmh = 3.6

// Normalize maps a provider payload to the display model. Missing numbers become 0
// and a missing condition is read as "Clear". It never fails.
func Normalize(resp *model.OpenWeatherMapResponse) model.WeatherModel {
	if resp == nil {
		resp = &model.OpenWeatherMapResponse{}
	}

	var temp, feelsLike, humidity, wind float64
	if m := resp.Main; m != nil {
		temp = deref(m.Temp)
		feelsLike = deref(m.FeelsLike)
		humidity = deref(m.Humidity)
	}
	if resp.Wind != nil {
		wind = deref(resp.Wind.Speed)
	}

	providerMain := model.DefaultProviderCondition
	if len(resp.Weather) > 0 && resp.Weather[0].Main != nil {
		providerMain = *resp.Weather[0].Main
	}

	return model.WeatherModel{
		Location:     resp.Name,
		TemperatureC: round(temp),
		Condition:    model.MapCondition(providerMain),
		HumidityPct:  round(humidity),
		WindSpeedKmh: round(wind * msToKmh),
		FeelsLikeC:   round(feelsLike),
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// round is half away from zero.
func round(v float64) int {
	return int(math.Round(v))
}
