package reporting

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"retail-sales-lab/internal/domain"
)

// Output file names.
const (
	FileMarkdown       = "REPORT.md"
	FileText           = "analysis_report.txt"
	FileTrendCSV       = "trend.csv"
	FileSegmentsCSV    = "segments.csv"
	FilePromotionCSV   = "promotion.csv"
	FileTrendChart     = "sales_trend.png"
	FileSegmentChart   = "segment_analysis.png"
	FilePromotionChart = "promo_effectiveness.png"
)

// WriterOptions configures Writer. Zero chart sizes select defaults.
type WriterOptions struct {
	Dir         string
	Charts      bool
	ChartWidth  int
	ChartHeight int
}

// Writer renders a report into an output directory.
type Writer struct {
	opts WriterOptions
	text *TextRenderer
}

// NewWriter creates a writer using the built-in text template.
func NewWriter(opts WriterOptions) (*Writer, error) {
	if opts.ChartWidth == 0 {
		opts.ChartWidth = DefaultChartWidth
	}
	if opts.ChartHeight == 0 {
		opts.ChartHeight = DefaultChartHeight
	}
	text, err := NewTextRenderer()
	if err != nil {
		return nil, err
	}
	return &Writer{opts: opts, text: text}, nil
}

// WriteAll writes every artifact and returns the written paths in a fixed order.
func (w *Writer) WriteAll(r *Report) ([]string, error) {
	if err := os.MkdirAll(w.opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	text, err := w.text.Render(r)
	if err != nil {
		return nil, err
	}
	trendCSV, err := RenderTrendCSV(r)
	if err != nil {
		return nil, err
	}
	segmentsCSV, err := RenderSegmentsCSV(r)
	if err != nil {
		return nil, err
	}
	promotionCSV, err := RenderPromotionCSV(r)
	if err != nil {
		return nil, err
	}

	files := []outputFile{
		{FileMarkdown, []byte(RenderMarkdown(r))},
		{FileText, []byte(text)},
		{FileTrendCSV, []byte(trendCSV)},
		{FileSegmentsCSV, []byte(segmentsCSV)},
		{FilePromotionCSV, []byte(promotionCSV)},
	}

	if w.opts.Charts {
		for _, chart := range w.charts(r) {
			var buf bytes.Buffer
			if err := EncodePNG(&buf, chart.img); err != nil {
				return nil, fmt.Errorf("%s: %w", chart.name, err)
			}
			files = append(files, outputFile{chart.name, buf.Bytes()})
		}
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(w.opts.Dir, f.name)
		if err := os.WriteFile(path, f.content, 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

type outputFile struct {
	name    string
	content []byte
}

type namedChart struct {
	name string
	img  image.Image
}

// charts renders the three report charts, with placeholders for unavailable stages.
func (w *Writer) charts(r *Report) []namedChart {
	width, height := w.opts.ChartWidth, w.opts.ChartHeight

	trendTitle := fmt.Sprintf("Sales Trend: revenue per %s", r.Granularity)
	segmentTitle := "Revenue by Customer Segment"
	promoTitle := "Average Units Sold by Promotion Status"

	charts := make([]namedChart, 0, 3)

	if r.Trend.Available() {
		charts = append(charts, namedChart{FileTrendChart, RenderLineChart(trendTitle, TrendSeries(r), width, height)})
	} else {
		charts = append(charts, namedChart{FileTrendChart, RenderUnavailable(trendTitle, r.Trend.Reason(), width, height)})
	}

	if r.Segments.Available() && r.Segments.Value != nil {
		charts = append(charts, namedChart{FileSegmentChart, RenderBarChart(segmentTitle, SegmentSeries(r.Segments.Value), width, height)})
	} else {
		charts = append(charts, namedChart{FileSegmentChart, RenderUnavailable(segmentTitle, r.Segments.Reason(), width, height)})
	}

	if r.Promotion.Available() && r.Promotion.Value != nil {
		charts = append(charts, namedChart{FilePromotionChart, RenderBarChart(promoTitle, PromotionSeries(r.Promotion.Value), width, height)})
	} else {
		charts = append(charts, namedChart{FilePromotionChart, RenderUnavailable(promoTitle, r.Promotion.Reason(), width, height)})
	}
	return charts
}

// TrendSeries is total revenue per period.
func TrendSeries(r *Report) Series {
	s := Series{}
	for _, p := range r.Trend.Value {
		s.Labels = append(s.Labels, formatBucket(r.Granularity, p.Bucket))
		s.Values = append(s.Values, p.TotalRevenue)
	}
	return s
}

// SegmentSeries is total revenue per segment, in segment order.
func SegmentSeries(seg *domain.Segmentation) Series {
	s := Series{}
	for _, g := range seg.Segments {
		s.Labels = append(s.Labels, string(g.Label))
		s.Values = append(s.Values, g.Centroid.TotalRevenue)
	}
	return s
}

// PromotionSeries is mean units for non-promoted and promoted records.
func PromotionSeries(p *domain.PromotionEffect) Series {
	return Series{
		Labels: []string{"not promoted", "promoted"},
		Values: []float64{p.MeanSalesNonPromoted, p.MeanSalesPromoted},
	}
}
