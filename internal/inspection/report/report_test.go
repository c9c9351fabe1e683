package report

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/bitfantasy/aims/internal/inspection/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePriorityColorPrecedence(t *testing.T) {
	library := map[string]string{"P1": "#112233", "MEDIUM": "#445566"}

	// 记录自带颜色优先
	assert.Equal(t, RGB{0xAA, 0xBB, 0xCC}, ResolvePriorityColor("#AABBCC", "P1", library))
	// 其次主数据颜色表
	assert.Equal(t, RGB{0x11, 0x22, 0x33}, ResolvePriorityColor("", "p1", library))
	assert.Equal(t, RGB{0x44, 0x55, 0x66}, ResolvePriorityColor("not-a-color", "Medium", library))
	// 最后内置调色板
	assert.Equal(t, colorRed, ResolvePriorityColor("", "Critical", nil))
	assert.Equal(t, colorOrange, ResolvePriorityColor("", "P2", nil))
	assert.Equal(t, colorYellow, ResolvePriorityColor("", "priority 3", nil))
	assert.Equal(t, colorGreen, ResolvePriorityColor("", "Observation", nil))
	assert.Equal(t, colorGrey, ResolvePriorityColor("", "whatever", nil))
}

func TestNormalizePriority(t *testing.T) {
	cases := map[string]string{
		" p1 ":       "P1",
		"Priority 2": "P2",
		"PRIORITY-4": "P4",
		"high":       "HIGH",
		"Priority":   "PRIORITY",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePriority(in), in)
	}
}

func TestFilenameAndTypes(t *testing.T) {
	assert.Equal(t, "JP-2026-0001_AnomalyReport.pdf", Filename("JP-2026-0001", TypeAnomaly))
	assert.Equal(t, "SOW_01_DefectSummary.pdf", Filename("SOW/01", TypeDefectSummary))
	assert.Equal(t, "Report_VideoLog.pdf", Filename("  ", TypeVideoLog))

	typ, err := ParseType("diver-log")
	require.NoError(t, err)
	assert.Equal(t, TypeDiverLog, typ)
	_, err = ParseType("cathodic")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func anomalies(n int) []entity.Anomaly {
	priorities := []string{"P1", "P2", "P3", "P4", ""}
	out := make([]entity.Anomaly, 0, n)
	for i := 0; i < n; i++ {
		elv := -float64(i % 30)
		out = append(out, entity.Anomaly{
			ID:           fmt.Sprintf("a-%03d", i),
			AnomalyRef:   fmt.Sprintf("AN-%03d", i),
			ComponentQID: fmt.Sprintf("LEG-A%d", i%4),
			Description:  "Coating breakdown with light surface corrosion",
			Priority:     priorities[i%len(priorities)],
			Status:       "open",
			Elevation:    &elv,
		})
	}
	return out
}

func TestAnomalyReportPaginatesAndRepeatsHeader(t *testing.T) {
	r := &Renderer{}
	meta := Meta{Prefix: "JP-2026-0001", JobPackNo: "JP-2026-0001", StructureName: "Platform Alpha"}

	res, err := r.Anomaly(meta, anomalies(120), nil)
	require.NoError(t, err)
	assert.Equal(t, "JP-2026-0001_AnomalyReport.pdf", res.Filename)
	assert.True(t, bytes.HasPrefix(res.Data, []byte("%PDF")))
	require.Greater(t, res.Pages, 1)

	assert.Equal(t, res.Pages, bytes.Count(res.Data, []byte("(Anomaly Report) Tj")))
	assert.Equal(t, res.Pages, bytes.Count(res.Data, []byte("(Ref) Tj")))
	last := fmt.Sprintf("(Page %d of %d) Tj", res.Pages, res.Pages)
	assert.Contains(t, string(res.Data), last)
}

func TestEmptyReportsRenderSinglePage(t *testing.T) {
	r := &Renderer{}
	meta := Meta{Prefix: "X"}

	for _, fn := range []func() (*Result, error){
		func() (*Result, error) { return r.Anomaly(meta, nil, nil) },
		func() (*Result, error) { return r.DefectSummary(meta, nil, nil) },
		func() (*Result, error) { return r.DiverLog(meta, nil) },
		func() (*Result, error) { return r.VideoLog(meta, nil) },
	} {
		res, err := fn()
		require.NoError(t, err)
		assert.Equal(t, 1, res.Pages, res.Type)
	}
}

func TestSummarizeByPriority(t *testing.T) {
	summary := SummarizeByPriority(anomalies(10), map[string]string{"P4": "#00FF00"})
	require.Len(t, summary, 5)
	assert.Equal(t, "P1", summary[0].Priority)
	assert.Equal(t, 2, summary[0].Count)
	assert.Equal(t, colorRed.Hex(), summary[0].Color)
	assert.Equal(t, "P4", summary[3].Priority)
	assert.Equal(t, "#00FF00", summary[3].Color)
	assert.Equal(t, "Unassigned", summary[4].Priority)
}

func TestDiverLogBottomTime(t *testing.T) {
	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	reached := base.Add(5 * time.Minute)
	left := reached.Add(47 * time.Minute)
	log := entity.DiveLog{DiveNo: "D-01", ReachedBottom: &reached, LeftBottom: &left}

	d, ok := BottomTime(log)
	require.True(t, ok)
	assert.Equal(t, 47*time.Minute, d)
	assert.Equal(t, "0:47", fmtDuration(d))

	_, ok = BottomTime(entity.DiveLog{ReachedBottom: &left, LeftBottom: &reached})
	assert.False(t, ok)

	res, err := (&Renderer{}).DiverLog(Meta{Prefix: "JP"}, []entity.DiveLog{log})
	require.NoError(t, err)
	assert.Contains(t, string(res.Data), "(0:47) Tj")
}

func TestLogoIgnoredWhenUnrecognised(t *testing.T) {
	res, err := (&Renderer{}).VideoLog(Meta{Prefix: "JP", Logo: []byte("not an image")}, []entity.VideoLog{
		{TapeNo: "T1", ComponentQID: "LEG-A1", StartTC: "00:00:10", EndTC: "00:03:00", Description: "GVI pass"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
}
