// Package report 生成检验报告PDF：缺陷报告、缺陷汇总、潜水日志和录像日志。
package report

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/aims/internal/inspection/entity"
)

var ErrUnknownType = errors.New("unknown report type")

// Type 报告类型，取值与查询接口路径一致
type Type string

const (
	TypeAnomaly       Type = "anomaly-report"
	TypeDefectSummary Type = "defect-summary"
	TypeDiverLog      Type = "diver-log"
	TypeVideoLog      Type = "video-log"
)

// ParseType 解析报告类型
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeAnomaly, TypeDefectSummary, TypeDiverLog, TypeVideoLog:
		return t, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownType)
}

// Name 文件名中的报告类型
func (t Type) Name() string {
	switch t {
	case TypeAnomaly:
		return "AnomalyReport"
	case TypeDefectSummary:
		return "DefectSummary"
	case TypeDiverLog:
		return "DiverLog"
	case TypeVideoLog:
		return "VideoLog"
	}
	return "Report"
}

// Title 页眉标题
func (t Type) Title() string {
	switch t {
	case TypeAnomaly:
		return "Anomaly Report"
	case TypeDefectSummary:
		return "Defect Summary"
	case TypeDiverLog:
		return "Diver Log"
	case TypeVideoLog:
		return "Video Log"
	}
	return "Report"
}

// Filename 生成下载文件名 {prefix}_{ReportType}.pdf
func Filename(prefix string, t Type) string {
	prefix = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "Report"
	}
	return prefix + "_" + t.Name() + ".pdf"
}

// Result 生成结果
type Result struct {
	Type     Type
	Filename string
	Data     []byte
	Pages    int
}

// Renderer PDF渲染器
type Renderer struct {
	// Compress 压缩页面内容流
	Compress bool
}

func NewRenderer() *Renderer {
	return &Renderer{Compress: true}
}

func (r *Renderer) finish(t Type, meta Meta, d *document, start time.Time) (*Result, error) {
	data, pages, err := d.output()
	if err != nil {
		generatedTotal.WithLabelValues(string(t), "error").Inc()
		return nil, err
	}
	generatedTotal.WithLabelValues(string(t), "ok").Inc()
	generateDuration.WithLabelValues(string(t)).Observe(time.Since(start).Seconds())
	pagesTotal.WithLabelValues(string(t)).Add(float64(pages))
	return &Result{Type: t, Filename: Filename(meta.Prefix, t), Data: data, Pages: pages}, nil
}

func (r *Renderer) begin(t Type, meta Meta, orientation string) *document {
	if meta.Title == "" {
		meta.Title = t.Title()
	}
	d := newDocument(meta, orientation, r.Compress)
	d.pdf.AddPage()
	return d
}

func fmtElevation(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func fmtTime(t *time.Time, layout string) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

var anomalyColumns = []Column{
	{Title: "Ref", Width: 24},
	{Title: "Component", Width: 30},
	{Title: "Elevation", Width: 18, Align: "R"},
	{Title: "Description", Width: 78},
	{Title: "Priority", Width: 20, Align: "C"},
	{Title: "Status", Width: 18, Align: "C"},
	{Title: "Recommendation", Width: 64},
	{Title: "Inspected", Width: 25, Align: "C"},
}

// Anomaly 缺陷报告，优先级列按颜色着色
func (r *Renderer) Anomaly(meta Meta, rows []entity.Anomaly, priorityColors map[string]string) (*Result, error) {
	start := time.Now()
	d := r.begin(TypeAnomaly, meta, "L")

	d.keyValues([][2]string{
		{"Total anomalies", strconv.Itoa(len(rows))},
	})

	data := make([][]string, 0, len(rows))
	colors := make([]RGB, 0, len(rows))
	for _, a := range rows {
		data = append(data, []string{
			a.AnomalyRef,
			a.ComponentQID,
			fmtElevation(a.Elevation),
			a.Description,
			a.Priority,
			a.Status,
			a.Recommendation,
			fmtTime(a.InspectedAt, "2006-01-02"),
		})
		colors = append(colors, ResolvePriorityColor(a.PriorityColor, a.Priority, priorityColors))
	}
	d.table(anomalyColumns, data, func(row, col int) *RGB {
		if col != 4 {
			return nil
		}
		return &colors[row]
	})
	return r.finish(TypeAnomaly, meta, d, start)
}

// PriorityCount 按优先级统计
type PriorityCount struct {
	Priority string `json:"priority"`
	Count    int    `json:"count"`
	Color    string `json:"color"`
}

func priorityRank(label string) int {
	switch NormalizePriority(label) {
	case "P1", "CRITICAL", "HIGH":
		return 1
	case "P2", "MEDIUM":
		return 2
	case "P3", "LOW":
		return 3
	case "P4", "OBSERVATION", "INFO":
		return 4
	}
	return 5
}

// SummarizeByPriority 缺陷按优先级汇总，高优先级在前，空优先级记为 Unassigned
func SummarizeByPriority(rows []entity.Anomaly, priorityColors map[string]string) []PriorityCount {
	counts := make(map[string]int)
	colors := make(map[string]RGB)
	for _, a := range rows {
		p := strings.TrimSpace(a.Priority)
		if p == "" {
			p = "Unassigned"
		}
		counts[p]++
		if _, ok := colors[p]; !ok {
			colors[p] = ResolvePriorityColor(a.PriorityColor, p, priorityColors)
		}
	}
	out := make([]PriorityCount, 0, len(counts))
	for p, n := range counts {
		out = append(out, PriorityCount{Priority: p, Count: n, Color: colors[p].Hex()})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := priorityRank(out[i].Priority), priorityRank(out[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return out[i].Priority < out[j].Priority
	})
	return out
}

var summaryColumns = []Column{
	{Title: "Priority", Width: 60, Align: "C"},
	{Title: "Count", Width: 30, Align: "R"},
}

var summaryDetailColumns = []Column{
	{Title: "Ref", Width: 28},
	{Title: "Component", Width: 36},
	{Title: "Priority", Width: 24, Align: "C"},
	{Title: "Status", Width: 22, Align: "C"},
	{Title: "Description", Width: 80},
}

// DefectSummary 缺陷汇总：按优先级统计表和缺陷清单
func (r *Renderer) DefectSummary(meta Meta, rows []entity.Anomaly, priorityColors map[string]string) (*Result, error) {
	start := time.Now()
	d := r.begin(TypeDefectSummary, meta, "P")

	summary := SummarizeByPriority(rows, priorityColors)
	d.section("Summary by priority")
	sumRows := make([][]string, 0, len(summary)+1)
	sumColors := make([]*RGB, 0, len(summary)+1)
	for _, s := range summary {
		c, _ := parseHex(s.Color)
		sumRows = append(sumRows, []string{s.Priority, strconv.Itoa(s.Count)})
		sumColors = append(sumColors, &c)
	}
	sumRows = append(sumRows, []string{"Total", strconv.Itoa(len(rows))})
	sumColors = append(sumColors, nil)
	d.table(summaryColumns, sumRows, func(row, col int) *RGB {
		if col != 0 {
			return nil
		}
		return sumColors[row]
	})

	d.section("Defects")
	detail := make([][]string, 0, len(rows))
	detailColors := make([]RGB, 0, len(rows))
	for _, a := range rows {
		detail = append(detail, []string{a.AnomalyRef, a.ComponentQID, a.Priority, a.Status, a.Description})
		detailColors = append(detailColors, ResolvePriorityColor(a.PriorityColor, a.Priority, priorityColors))
	}
	d.table(summaryDetailColumns, detail, func(row, col int) *RGB {
		if col != 2 {
			return nil
		}
		return &detailColors[row]
	})
	return r.finish(TypeDefectSummary, meta, d, start)
}

var diverColumns = []Column{
	{Title: "Dive No", Width: 18},
	{Title: "Diver", Width: 36},
	{Title: "Left Surface", Width: 26, Align: "C"},
	{Title: "Reached Bottom", Width: 26, Align: "C"},
	{Title: "Left Bottom", Width: 26, Align: "C"},
	{Title: "Reached Surface", Width: 26, Align: "C"},
	{Title: "Bottom Time", Width: 22, Align: "R"},
	{Title: "Max Depth (m)", Width: 24, Align: "R"},
	{Title: "Task", Width: 73},
}

// BottomTime 离开水底与到达水底的时间差
func BottomTime(l entity.DiveLog) (time.Duration, bool) {
	if l.ReachedBottom == nil || l.LeftBottom == nil || l.LeftBottom.Before(*l.ReachedBottom) {
		return 0, false
	}
	return l.LeftBottom.Sub(*l.ReachedBottom), true
}

func fmtDuration(d time.Duration) string {
	mins := int(d.Round(time.Minute) / time.Minute)
	return fmt.Sprintf("%d:%02d", mins/60, mins%60)
}

// DiverLog 潜水日志
func (r *Renderer) DiverLog(meta Meta, rows []entity.DiveLog) (*Result, error) {
	start := time.Now()
	d := r.begin(TypeDiverLog, meta, "L")

	var total time.Duration
	data := make([][]string, 0, len(rows))
	for _, l := range rows {
		bt := ""
		if dur, ok := BottomTime(l); ok {
			total += dur
			bt = fmtDuration(dur)
		}
		depth := ""
		if l.MaxDepth != nil {
			depth = strconv.FormatFloat(*l.MaxDepth, 'f', 1, 64)
		}
		data = append(data, []string{
			l.DiveNo,
			l.DiverName,
			fmtTime(l.LeftSurface, "01-02 15:04"),
			fmtTime(l.ReachedBottom, "01-02 15:04"),
			fmtTime(l.LeftBottom, "01-02 15:04"),
			fmtTime(l.ReachedSurface, "01-02 15:04"),
			bt,
			depth,
			l.Task,
		})
	}
	d.keyValues([][2]string{
		{"Dives", strconv.Itoa(len(rows))},
		{"Total bottom time", fmtDuration(total)},
	})
	d.table(diverColumns, data, nil)
	return r.finish(TypeDiverLog, meta, d, start)
}

var videoColumns = []Column{
	{Title: "Tape", Width: 20},
	{Title: "Component", Width: 36},
	{Title: "Inspection", Width: 26},
	{Title: "Start TC", Width: 24, Align: "C"},
	{Title: "End TC", Width: 24, Align: "C"},
	{Title: "Description", Width: 147},
}

// VideoLog 录像日志
func (r *Renderer) VideoLog(meta Meta, rows []entity.VideoLog) (*Result, error) {
	start := time.Now()
	d := r.begin(TypeVideoLog, meta, "L")

	tapes := make(map[string]bool)
	data := make([][]string, 0, len(rows))
	for _, v := range rows {
		tapes[v.TapeNo] = true
		data = append(data, []string{v.TapeNo, v.ComponentQID, v.InspectionID, v.StartTC, v.EndTC, v.Description})
	}
	d.keyValues([][2]string{
		{"Entries", strconv.Itoa(len(rows))},
		{"Tapes", strconv.Itoa(len(tapes))},
	})
	d.table(videoColumns, data, nil)
	return r.finish(TypeVideoLog, meta, d, start)
}
