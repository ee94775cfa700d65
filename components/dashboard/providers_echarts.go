package dashboard

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	defaultChartHeight = "220px"
	trendChartID       = "agrik-trend"
	temperatureColor   = "#ff7300"
	humidityColor      = "#387908"
)

var sharedChartCache = NewChartCache(5 * time.Minute)

// EChartsProvider renders the sensor trend chart as server-side go-echarts markup.
type EChartsProvider struct {
	cache      RenderCache
	assetsHost string
	height     string
}

// EChartsProviderOption customizes provider behavior.
type EChartsProviderOption func(*EChartsProvider)

// WithChartCache injects a render cache. Passing nil disables caching.
func WithChartCache(cache RenderCache) EChartsProviderOption {
	return func(p *EChartsProvider) {
		p.cache = cache
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN or self-hosted bucket.
func WithChartAssetsHost(host string) EChartsProviderOption {
	return func(p *EChartsProvider) {
		p.assetsHost = host
	}
}

// WithChartHeight overrides the chart height (CSS length).
func WithChartHeight(height string) EChartsProviderOption {
	return func(p *EChartsProvider) {
		if height != "" {
			p.height = height
		}
	}
}

// NewEChartsProvider builds the trend chart renderer.
func NewEChartsProvider(options ...EChartsProviderOption) *EChartsProvider {
	p := &EChartsProvider{
		cache:  sharedChartCache,
		height: defaultChartHeight,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// ChartSeries represents a set of values plotted for a given legend entry.
type ChartSeries struct {
	Key    string    `json:"key"`
	Name   string    `json:"name"`
	Color  string    `json:"color"`
	Values []float64 `json:"values"`
}

// TrendChart is the chart model: one line per numeric series over a shared time axis.
type TrendChart struct {
	Title  string        `json:"title"`
	XAxis  []string      `json:"x_axis"`
	Series []ChartSeries `json:"series"`
	Theme  string        `json:"theme"`
	HTML   string        `json:"-"`
}

// BuildTrendChart orders points chronologically and splits them into temperature and humidity lines.
func BuildTrendChart(points []SensorTimeSeriesPoint, labels Labels, theme *ThemeSelection) TrendChart {
	ordered := chronological(points)
	axis := make([]string, len(ordered))
	temps := make([]float64, len(ordered))
	humidity := make([]float64, len(ordered))
	for i, point := range ordered {
		axis[i] = point.Timestamp
		temps[i] = point.Temperature
		humidity[i] = point.Humidity
	}
	chartTheme := types.ThemeWesteros
	if theme != nil && theme.ChartTheme != "" {
		chartTheme = theme.ChartTheme
	}
	return TrendChart{
		Title: labels.Get(LabelChartTitle),
		XAxis: axis,
		Series: []ChartSeries{
			{Key: "temperature", Name: labels.Get(LabelSeriesTemperature), Color: temperatureColor, Values: temps},
			{Key: "humidity", Name: labels.Get(LabelSeriesHumidity), Color: humidityColor, Values: humidity},
		},
		Theme: chartTheme,
	}
}

// Render fills chart.HTML with go-echarts markup, using the cache when configured.
func (p *EChartsProvider) Render(chart TrendChart) (TrendChart, error) {
	if len(chart.Series) == 0 {
		return chart, fmt.Errorf("chart series is required")
	}
	renderFn := func() (string, error) {
		return p.renderLineChart(chart)
	}
	var (
		html string
		err  error
	)
	if p.cache != nil {
		html, err = p.cache.GetOrRender(chartCacheKey(chart), renderFn)
	} else {
		html, err = renderFn()
	}
	if err != nil {
		return chart, err
	}
	chart.HTML = html
	return chart, nil
}

func (p *EChartsProvider) renderLineChart(chart TrendChart) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(p.globalChartOptions(chart)...)
	line.SetXAxis(chart.XAxis)
	for _, s := range chart.Series {
		line.AddSeries(s.Name, toLineData(s.Values),
			charts.WithLineStyleOpts(opts.LineStyle{Color: s.Color}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}),
		)
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return renderChart(line)
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (p *EChartsProvider) globalChartOptions(chart TrendChart) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:   chart.Theme,
		Width:   "100%",
		Height:  p.height,
		ChartID: trendChartID,
	}
	if p.assetsHost != "" {
		initOpts.AssetsHost = p.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: chart.Title}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	}
}

func toLineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, value := range values {
		data[i] = opts.LineData{Value: value}
	}
	return data
}

var timestampLayouts = []string{time.RFC3339, time.DateTime, time.DateOnly, "15:04:05", "15:04"}

// chronological returns the points sorted by timestamp when every timestamp parses, else in input order.
func chronological(points []SensorTimeSeriesPoint) []SensorTimeSeriesPoint {
	out := make([]SensorTimeSeriesPoint, len(points))
	copy(out, points)
	parsed := make([]time.Time, len(out))
	for i, point := range out {
		ts, ok := parseTimestamp(point.Timestamp)
		if !ok {
			return out
		}
		parsed[i] = ts
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return parsed[idx[a]].Before(parsed[idx[b]])
	})
	sorted := make([]SensorTimeSeriesPoint, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func chartCacheKey(chart TrendChart) string {
	return fmt.Sprintf("%s:%s:%s", trendChartID, chart.Theme, contentHash(map[string]any{
		"title":  chart.Title,
		"x_axis": chart.XAxis,
		"series": chart.Series,
	}))
}
