package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin   = 10.0
	bottomMargin = 16.0
	bandHeight   = 24.0
	lineHeight   = 4.6
	cellPadding  = 1.2
	logoName     = "contractor-logo"
)

// Meta 报告页眉信息
type Meta struct {
	Title          string
	Prefix         string
	JobPackNo      string
	JobPackName    string
	StructureName  string
	SOWReportNo    string
	ContractorName string
	Logo           []byte
	GeneratedAt    time.Time
}

// Column 表格列
type Column struct {
	Title string
	Width float64
	Align string
}

type document struct {
	pdf     *fpdf.Fpdf
	meta    Meta
	tr      func(string) string
	hasLogo bool
}

func newDocument(meta Meta, orientation string, compress bool) *document {
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, bottomMargin)
	pdf.AliasNbPages("")
	pdf.SetTitle(meta.Title, true)
	pdf.SetCreator("AIMS", true)
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now()
	}

	d := &document{pdf: pdf, meta: meta, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	if imgType := imageType(meta.Logo); imgType != "" {
		pdf.RegisterImageOptionsReader(logoName, fpdf.ImageOptions{ImageType: imgType, ReadDpi: true}, bytes.NewReader(meta.Logo))
		d.hasLogo = !pdf.Err()
		if !d.hasLogo {
			pdf.ClearError()
		}
	}
	pdf.SetHeaderFunc(d.header)
	pdf.SetFooterFunc(d.footer)
	return d
}

// imageType 按文件头识别Logo格式，无法识别时不绘制Logo
func imageType(data []byte) string {
	switch {
	case len(data) > 8 && bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "PNG"
	case len(data) > 3 && data[0] == 0xFF && data[1] == 0xD8:
		return "JPG"
	}
	return ""
}

// header 每页重绘页眉：Logo、标题和工作包信息
func (d *document) header() {
	pdf := d.pdf
	pageW, _ := pdf.GetPageSize()
	top := pageMargin

	if d.hasLogo {
		pdf.ImageOptions(logoName, pageMargin, top, 0, 14, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(pageMargin, top)
	pdf.CellFormat(pageW-2*pageMargin, 7, d.tr(d.meta.Title), "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(pageMargin, top+8)
	pdf.CellFormat(pageW-2*pageMargin, 5, d.tr(d.subtitle()), "", 0, "C", false, 0, "")
	if d.meta.ContractorName != "" {
		pdf.SetXY(pageMargin, top+13)
		pdf.CellFormat(pageW-2*pageMargin, 5, d.tr(d.meta.ContractorName), "", 0, "C", false, 0, "")
	}

	pdf.SetDrawColor(60, 60, 60)
	pdf.Line(pageMargin, top+bandHeight-4, pageW-pageMargin, top+bandHeight-4)
	pdf.SetXY(pageMargin, top+bandHeight)
}

func (d *document) subtitle() string {
	s := ""
	add := func(label, v string) {
		if v == "" {
			return
		}
		if s != "" {
			s += "   "
		}
		s += label + ": " + v
	}
	jp := d.meta.JobPackNo
	if d.meta.JobPackName != "" {
		if jp != "" {
			jp += " "
		}
		jp += d.meta.JobPackName
	}
	add("Job Pack", jp)
	add("Structure", d.meta.StructureName)
	add("SOW Report", d.meta.SOWReportNo)
	return s
}

func (d *document) footer() {
	pdf := d.pdf
	pageW, pageH := pdf.GetPageSize()
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(90, 90, 90)
	pdf.SetXY(pageMargin, pageH-pageMargin-2)
	pdf.CellFormat((pageW-2*pageMargin)/2, 5, "Generated "+d.meta.GeneratedAt.Format("2006-01-02 15:04"), "", 0, "L", false, 0, "")
	pdf.CellFormat((pageW-2*pageMargin)/2, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func (d *document) limit() float64 {
	_, pageH := d.pdf.GetPageSize()
	return pageH - bottomMargin
}

// ensureSpace 剩余空间不足时换页，返回是否换页
func (d *document) ensureSpace(h float64) bool {
	if d.pdf.GetY()+h <= d.limit() {
		return false
	}
	d.pdf.AddPage()
	return true
}

func (d *document) section(title string) {
	d.ensureSpace(12)
	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.SetX(pageMargin)
	d.pdf.CellFormat(0, 7, d.tr(title), "", 1, "L", false, 0, "")
	d.pdf.Ln(1)
}

// keyValues 两列信息块
func (d *document) keyValues(pairs [][2]string) {
	for _, p := range pairs {
		d.ensureSpace(lineHeight + 1)
		d.pdf.SetX(pageMargin)
		d.pdf.SetFont("Helvetica", "B", 9)
		d.pdf.CellFormat(40, lineHeight+1, d.tr(p[0]), "", 0, "L", false, 0, "")
		d.pdf.SetFont("Helvetica", "", 9)
		d.pdf.CellFormat(0, lineHeight+1, d.tr(p[1]), "", 1, "L", false, 0, "")
	}
	d.pdf.Ln(2)
}

// cellStyle 单元格背景色，nil 表示不填充
type cellStyle func(row, col int) *RGB

// table 自动分页表格，换页后重绘表头
func (d *document) table(cols []Column, rows [][]string, style cellStyle) {
	d.tableHeader(cols)
	d.pdf.SetFont("Helvetica", "", 8)
	for i, row := range rows {
		h := d.rowHeight(cols, row)
		if d.ensureSpace(h) {
			d.tableHeader(cols)
			d.pdf.SetFont("Helvetica", "", 8)
		}
		d.drawRow(cols, row, h, func(col int) *RGB {
			if style == nil {
				return nil
			}
			return style(i, col)
		})
	}
	d.pdf.Ln(3)
}

func (d *document) tableHeader(cols []Column) {
	d.pdf.SetFont("Helvetica", "B", 8)
	h := lineHeight + 2*cellPadding
	d.ensureSpace(h + lineHeight)
	d.pdf.SetFillColor(217, 225, 242)
	x := pageMargin
	y := d.pdf.GetY()
	for _, c := range cols {
		d.pdf.Rect(x, y, c.Width, h, "FD")
		d.pdf.SetXY(x+cellPadding, y+cellPadding)
		d.pdf.CellFormat(c.Width-2*cellPadding, lineHeight, d.tr(c.Title), "", 0, "C", false, 0, "")
		x += c.Width
	}
	d.pdf.SetXY(pageMargin, y+h)
}

func (d *document) rowHeight(cols []Column, row []string) float64 {
	maxLines := 1
	for i, c := range cols {
		if i >= len(row) {
			break
		}
		if n := len(d.lines(row[i], c.Width-2*cellPadding)); n > maxLines {
			maxLines = n
		}
	}
	return float64(maxLines)*lineHeight + 2*cellPadding
}

// lines 按列宽折行。字体只覆盖单字节字符集，超出的字符替换为 '?'
func (d *document) lines(text string, w float64) []string {
	safe := []rune(text)
	for i, r := range safe {
		if r > 0xFF {
			safe[i] = '?'
		}
	}
	out := d.pdf.SplitText(string(safe), w)
	for i := range out {
		out[i] = d.tr(out[i])
	}
	return out
}

func (d *document) drawRow(cols []Column, row []string, h float64, fill func(col int) *RGB) {
	x := pageMargin
	y := d.pdf.GetY()
	for i, c := range cols {
		text := ""
		if i < len(row) {
			text = row[i]
		}
		if bg := fill(i); bg != nil {
			d.pdf.SetFillColor(bg.R, bg.G, bg.B)
			d.pdf.Rect(x, y, c.Width, h, "FD")
			fg := textColorFor(*bg)
			d.pdf.SetTextColor(fg.R, fg.G, fg.B)
		} else {
			d.pdf.Rect(x, y, c.Width, h, "D")
			d.pdf.SetTextColor(0, 0, 0)
		}
		align := c.Align
		if align == "" {
			align = "L"
		}
		for j, line := range d.lines(text, c.Width-2*cellPadding) {
			d.pdf.SetXY(x+cellPadding, y+cellPadding+float64(j)*lineHeight)
			d.pdf.CellFormat(c.Width-2*cellPadding, lineHeight, line, "", 0, align, false, 0, "")
		}
		x += c.Width
	}
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.SetXY(pageMargin, y+h)
}

func (d *document) output() ([]byte, int, error) {
	pages := d.pdf.PageNo()
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, 0, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), pages, nil
}
