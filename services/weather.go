package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
)

const defaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5"
const weatherRequestTimeout = 10 * time.Second

// current conditions barely move inside this window, no point re-fetching
const currentWeatherTTL = 10 * time.Minute

const maxForecastDays = 5

var rainConditions = map[string]bool{
	"Rain":         true,
	"Drizzle":      true,
	"Thunderstorm": true,
}

type WeatherConfig struct {
	APIKey      string
	BaseURL     string
	City        string
	CountryCode string
	Language    string
}

func WeatherConfigFromEnv() WeatherConfig {
	return WeatherConfig{
		APIKey:      GetEnv("OPENWEATHER_API_KEY", ""),
		BaseURL:     GetEnv("OPENWEATHER_BASE_URL", defaultWeatherBaseURL),
		City:        GetEnv("WEATHER_CITY", "Seoul"),
		CountryCode: GetEnv("WEATHER_COUNTRY", "KR"),
		Language:    GetEnv("WEATHER_LANG", "en"),
	}
}

type WeatherSnapshot struct {
	Temp        float64 `json:"temp"`
	FeelsLike   float64 `json:"feels_like"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	Humidity    int     `json:"humidity"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	WindSpeed   float64 `json:"wind_speed"`
	Icon        string  `json:"icon"`
	Date        string  `json:"date"`
	Mock        bool    `json:"mock"`
}

type ForecastDay struct {
	Date      string  `json:"date"`
	Temp      float64 `json:"temp"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Humidity  int     `json:"humidity"`
	Condition string  `json:"condition"`
	WindSpeed float64 `json:"wind_speed"`
	Icon      string  `json:"icon"`
	Mock      bool    `json:"mock"`
}

type ClothingAdvice struct {
	Materials           []string `json:"materials"`
	Suggestions         []string `json:"suggestions"`
	OuterRecommended    bool     `json:"outer_recommended"`
	RainwearRecommended bool     `json:"rainwear_recommended"`
}

type WeatherService struct {
	cfg     WeatherConfig
	client  *http.Client
	current *cache.LoadableCache[WeatherSnapshot]
}

func NewWeatherService(cfg WeatherConfig) *WeatherService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultWeatherBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	service := &WeatherService{
		cfg:    cfg,
		client: &http.Client{Timeout: weatherRequestTimeout},
	}

	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		log.Printf("Weather cache init failed, serving uncached: %v", err)
		return service
	}
	ristrettoStore := ristretto_store.NewRistretto(ristrettoCache)
	loadFunction := func(ctx context.Context, key any) (WeatherSnapshot, []store.Option, error) {
		snapshot, err := service.fetchCurrent(ctx)
		return snapshot, []store.Option{store.WithExpiration(currentWeatherTTL)}, err
	}
	service.current = cache.NewLoadable[WeatherSnapshot](
		loadFunction,
		cache.New[WeatherSnapshot](ristrettoStore),
	)
	return service
}

// MockWeatherSnapshot is the fixed snapshot served whenever the upstream
// provider is unconfigured or unreachable. Callers always get usable weather.
func MockWeatherSnapshot() WeatherSnapshot {
	return WeatherSnapshot{
		Temp:        20.0,
		FeelsLike:   18.0,
		TempMin:     15.0,
		TempMax:     25.0,
		Humidity:    60,
		Condition:   "Clear",
		Description: "clear sky",
		WindSpeed:   3.5,
		Icon:        "01d",
		Date:        time.Now().Format("2006-01-02"),
		Mock:        true,
	}
}

func (s *WeatherService) GetCurrent(ctx context.Context) WeatherSnapshot {
	if s.cfg.APIKey == "" {
		return MockWeatherSnapshot()
	}
	if s.current != nil {
		snapshot, err := s.current.Get(ctx, "current:"+s.locationQuery())
		if err != nil {
			fmt.Println("Weather fetch failed, serving mock snapshot:", err)
			return MockWeatherSnapshot()
		}
		return snapshot
	}
	snapshot, err := s.fetchCurrent(ctx)
	if err != nil {
		fmt.Println("Weather fetch failed, serving mock snapshot:", err)
		return MockWeatherSnapshot()
	}
	return snapshot
}

func (s *WeatherService) GetForecast(ctx context.Context, days int) []ForecastDay {
	if days < 1 {
		days = 1
	}
	if days > maxForecastDays {
		days = maxForecastDays
	}
	if s.cfg.APIKey == "" {
		return mockForecast(days)
	}
	forecast, err := s.fetchForecast(ctx, days)
	if err != nil {
		fmt.Println("Forecast fetch failed, serving mock forecast:", err)
		return mockForecast(days)
	}
	return forecast
}

func mockForecast(days int) []ForecastDay {
	base := MockWeatherSnapshot()
	forecast := make([]ForecastDay, 0, days)
	for i := 0; i < days; i++ {
		forecast = append(forecast, ForecastDay{
			Date:      time.Now().AddDate(0, 0, i).Format("2006-01-02"),
			Temp:      base.Temp,
			TempMin:   base.TempMin,
			TempMax:   base.TempMax,
			Humidity:  base.Humidity,
			Condition: base.Condition,
			WindSpeed: base.WindSpeed,
			Icon:      base.Icon,
			Mock:      true,
		})
	}
	return forecast
}

func (s *WeatherService) locationQuery() string {
	if s.cfg.CountryCode != "" {
		return fmt.Sprintf("%s,%s", s.cfg.City, s.cfg.CountryCode)
	}
	return s.cfg.City
}

type owmWeatherEntry struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Humidity  int     `json:"humidity"`
}

type owmWind struct {
	Speed float64 `json:"speed"`
}

type owmCurrentResponse struct {
	Weather []owmWeatherEntry `json:"weather"`
	Main    owmMain           `json:"main"`
	Wind    owmWind           `json:"wind"`
}

type owmForecastResponse struct {
	List []struct {
		DtTxt   string            `json:"dt_txt"`
		Main    owmMain           `json:"main"`
		Weather []owmWeatherEntry `json:"weather"`
		Wind    owmWind           `json:"wind"`
	} `json:"list"`
}

func (s *WeatherService) doRequest(ctx context.Context, path string, out interface{}) error {
	params := url.Values{}
	params.Set("q", s.locationQuery())
	params.Set("appid", s.cfg.APIKey)
	params.Set("units", "metric")
	params.Set("lang", s.cfg.Language)

	req, err := http.NewRequestWithContext(ctx, "GET", s.cfg.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build weather request: %v", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("weather request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather provider returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}

func (s *WeatherService) fetchCurrent(ctx context.Context) (WeatherSnapshot, error) {
	var response owmCurrentResponse
	if err := s.doRequest(ctx, "/weather", &response); err != nil {
		return WeatherSnapshot{}, err
	}
	snapshot := WeatherSnapshot{
		Temp:      round1(response.Main.Temp),
		FeelsLike: round1(response.Main.FeelsLike),
		TempMin:   round1(response.Main.TempMin),
		TempMax:   round1(response.Main.TempMax),
		Humidity:  response.Main.Humidity,
		WindSpeed: response.Wind.Speed,
		Date:      time.Now().Format("2006-01-02"),
	}
	if len(response.Weather) > 0 {
		snapshot.Condition = response.Weather[0].Main
		snapshot.Description = response.Weather[0].Description
		snapshot.Icon = response.Weather[0].Icon
	}
	return snapshot, nil
}

func (s *WeatherService) fetchForecast(ctx context.Context, days int) ([]ForecastDay, error) {
	var response owmForecastResponse
	if err := s.doRequest(ctx, "/forecast", &response); err != nil {
		return nil, err
	}

	type dayBucket struct {
		temps      []float64
		tempMin    float64
		tempMax    float64
		humidities []int
		winds      []float64
		conditions []string
		icons      map[string]string
	}
	// the 3-hourly list is chronological, keep first-seen day order
	var dayOrder []string
	buckets := map[string]*dayBucket{}
	for _, entry := range response.List {
		if len(entry.DtTxt) < 10 {
			continue
		}
		date := entry.DtTxt[:10]
		bucket, ok := buckets[date]
		if !ok {
			bucket = &dayBucket{
				tempMin: entry.Main.TempMin,
				tempMax: entry.Main.TempMax,
				icons:   map[string]string{},
			}
			buckets[date] = bucket
			dayOrder = append(dayOrder, date)
		}
		bucket.temps = append(bucket.temps, entry.Main.Temp)
		bucket.tempMin = math.Min(bucket.tempMin, entry.Main.TempMin)
		bucket.tempMax = math.Max(bucket.tempMax, entry.Main.TempMax)
		bucket.humidities = append(bucket.humidities, entry.Main.Humidity)
		bucket.winds = append(bucket.winds, entry.Wind.Speed)
		if len(entry.Weather) > 0 {
			condition := entry.Weather[0].Main
			bucket.conditions = append(bucket.conditions, condition)
			if _, seen := bucket.icons[condition]; !seen {
				bucket.icons[condition] = entry.Weather[0].Icon
			}
		}
	}

	var forecast []ForecastDay
	for _, date := range dayOrder {
		if len(forecast) >= days {
			break
		}
		bucket := buckets[date]
		condition := mostFrequent(bucket.conditions)
		forecast = append(forecast, ForecastDay{
			Date:      date,
			Temp:      round1(mean(bucket.temps)),
			TempMin:   round1(bucket.tempMin),
			TempMax:   round1(bucket.tempMax),
			Humidity:  int(math.Round(meanInt(bucket.humidities))),
			Condition: condition,
			WindSpeed: round1(mean(bucket.winds)),
			Icon:      bucket.icons[condition],
		})
	}
	return forecast, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanInt(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// mostFrequent breaks ties in favor of the condition seen first.
func mostFrequent(values []string) string {
	if len(values) == 0 {
		return ""
	}
	counts := map[string]int{}
	best := values[0]
	for _, v := range values {
		counts[v]++
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best
}

func ShouldWearOuter(temp float64, condition string) bool {
	return temp < 15 || rainConditions[condition]
}

func ShouldWearRainwear(condition string) bool {
	return rainConditions[condition]
}

func ClothingRecommendation(snapshot WeatherSnapshot) ClothingAdvice {
	advice := ClothingAdvice{
		OuterRecommended:    ShouldWearOuter(snapshot.Temp, snapshot.Condition),
		RainwearRecommended: ShouldWearRainwear(snapshot.Condition),
	}
	switch {
	case snapshot.Temp < 10:
		advice.Materials = []string{"wool", "fleece"}
		advice.Suggestions = []string{"heavy coat", "knitwear", "scarf"}
	case snapshot.Temp < 15:
		advice.Materials = []string{"cotton", "polyester"}
		advice.Suggestions = []string{"jacket or cardigan", "layered tops"}
	case snapshot.Temp < 25:
		advice.Materials = []string{"cotton"}
		advice.Suggestions = []string{"long sleeve shirt", "light pants"}
	default:
		advice.Materials = []string{"linen", "light cotton"}
		advice.Suggestions = []string{"short sleeves", "light layers"}
	}
	if advice.RainwearRecommended {
		advice.Suggestions = append(advice.Suggestions, "umbrella or rain jacket")
	}
	return advice
}
