package service

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/signintech/gopdf"

	"dutyreport_backend/internals/constants"
)

/* =========================================================
   Report document composer: A4 letter-style PDF of a duty
   report. Thai fragments go through the bitmap path (see
   thai_text.go); digits use the native TTF text path.
   ========================================================= */

// A4 portrait metrics in points
const (
	pageWidth     = 595.28
	pageHeight    = 841.89
	marginLeft    = 57.0
	marginRight   = 57.0
	contentWidth  = pageWidth - marginLeft - marginRight
	topMargin     = 40.0
	pageBreakAt   = 780.0
	logoWidthPt   = 64.0
	bodyFontSize  = 13.0
	smallFontSize = 9.5
	titleFontSize = 16.0
	lineSpacing   = 4.0
)

type HealthEntry struct {
	Name      string `json:"name"`
	Year      string `json:"year"`
	Symptoms  string `json:"symptoms"`
	Treatment string `json:"treatment"`
	Result    string `json:"result"`
}

// ReportDocument is everything the printed page needs, already loaded.
type ReportDocument struct {
	Date             time.Time
	TeacherName      string
	TeacherPosition  string
	StartTime        string
	EndTime          string
	ReplacingTeacher string
	Dormitory        string

	CleanlinessGood            string
	CleanlinessNeedImprovement string
	StudentBehavior            string

	TeacherSignature        string
	DeputyDirectorSignature string
	DirectorSignature       string

	Rows   []CohortRow
	Health []HealthEntry
}

type ReportComposer struct {
	ras       *TextRasterizer
	fontBytes []byte
	logoPNG   []byte // pre-scaled, nil when the asset is missing
	logoRatio float64
}

// NewReportComposer loads the Thai TTF and the emblem image. A missing logo
// only drops step 1 of the layout; a missing font is fatal because every
// Thai fragment depends on it.
func NewReportComposer(fontPath, logoPath string) (*ReportComposer, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("โหลดฟอนต์ไม่สำเร็จ: %w", err)
	}
	ras, err := NewTextRasterizer(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("ฟอนต์ไม่ถูกต้อง: %w", err)
	}

	c := &ReportComposer{ras: ras, fontBytes: fontBytes}
	if logoPath != "" {
		if img, err := loadImage(logoPath); err == nil {
			// scale to the fixed target width at 2x for sharpness
			resized := imaging.Resize(img, int(logoWidthPt)*rasterScale, 0, imaging.Lanczos)
			var buf bytes.Buffer
			if err := png.Encode(&buf, resized); err == nil {
				c.logoPNG = buf.Bytes()
				b := resized.Bounds()
				c.logoRatio = float64(b.Dy()) / float64(b.Dx())
			}
		}
	}
	return c, nil
}

func loadImage(path string) (image.Image, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		return webp.Decode(bytes.NewReader(b))
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		// some uploads carry the wrong extension
		if wimg, werr := webp.Decode(bytes.NewReader(b)); werr == nil {
			return wimg, nil
		}
		return nil, err
	}
	return img, nil
}

/* =========================================================
   Sticky-error compose state
   ========================================================= */

type composer struct {
	pdf *gopdf.GoPdf
	ras *TextRasterizer
	y   float64
	err error
}

func (cs *composer) fail(err error) {
	if cs.err == nil && err != nil {
		cs.err = err
	}
}

// breakPage starts a new page when the next block of the given height would
// cross the threshold.
func (cs *composer) breakPage(needed float64) {
	if cs.err != nil {
		return
	}
	if cs.y+needed > pageBreakAt {
		cs.pdf.AddPage()
		cs.y = topMargin
	}
}

// placeThai renders text as a bitmap and places it at (x, y), returning the
// placed size in points.
func (cs *composer) placeThai(text string, size, x, y float64) (w, h float64) {
	if cs.err != nil || text == "" {
		return 0, 0
	}
	pngBytes, w, h, err := cs.ras.Render(text, size)
	if err != nil {
		cs.fail(err)
		return 0, 0
	}
	cs.placeImage(pngBytes, x, y, w, h)
	return w, h
}

func (cs *composer) placeImage(pngBytes []byte, x, y, w, h float64) {
	if cs.err != nil {
		return
	}
	holder, err := gopdf.ImageHolderByBytes(pngBytes)
	if err != nil {
		cs.fail(err)
		return
	}
	cs.fail(cs.pdf.ImageByHolder(holder, x, y, &gopdf.Rect{W: w, H: h}))
}

// centeredThai places a bitmap centered on centerX and advances nothing.
func (cs *composer) centeredThai(text string, size, centerX, y float64) (w, h float64) {
	if cs.err != nil || text == "" {
		return 0, 0
	}
	pngBytes, w, h, err := cs.ras.Render(text, size)
	if err != nil {
		cs.fail(err)
		return 0, 0
	}
	cs.placeImage(pngBytes, centerX-w/2, y, w, h)
	return w, h
}

// cellThai centers a bitmap inside a cell box, shrinking to fit.
func (cs *composer) cellThai(text string, size, x, y, cellW, cellH float64) {
	if cs.err != nil || text == "" {
		return
	}
	pngBytes, w, h, err := cs.ras.Render(text, size)
	if err != nil {
		cs.fail(err)
		return
	}
	w, h = FitWidth(w, h, cellW-4)
	cs.placeImage(pngBytes, x+(cellW-w)/2, y+(cellH-h)/2, w, h)
}

// nativeCell draws ASCII text with the PDF engine's own font, centered.
func (cs *composer) nativeCell(text string, size, x, y, cellW, cellH float64) {
	if cs.err != nil || text == "" {
		return
	}
	cs.fail(cs.pdf.SetFont("thai", "", size))
	if cs.err != nil {
		return
	}
	tw, err := cs.pdf.MeasureTextWidth(text)
	if err != nil {
		cs.fail(err)
		return
	}
	cs.pdf.SetXY(x+(cellW-tw)/2, y+(cellH-size)/2-1)
	cs.fail(cs.pdf.Cell(nil, text))
}

// cellAuto routes a value to the bitmap or native path.
func (cs *composer) cellAuto(text string, size, x, y, cellW, cellH float64) {
	if HasThai(text) {
		cs.cellThai(text, size, x, y, cellW, cellH)
	} else {
		cs.nativeCell(text, size, x, y, cellW, cellH)
	}
}

// paragraph places word-wrapped left-aligned bitmap lines starting at the
// cursor, with indent applied to the first line only, and advances the
// cursor. Page breaks are checked per line.
func (cs *composer) paragraph(text string, size, indent float64) {
	if cs.err != nil {
		return
	}
	if strings.TrimSpace(text) == "" {
		text = "-"
	}
	// indent folded in via wrapping the first line narrower
	lines, err := cs.ras.Wrap(text, size, contentWidth-indent)
	if err != nil {
		cs.fail(err)
		return
	}
	for i, line := range lines {
		x := marginLeft
		if i == 0 {
			x += indent
		}
		if line == "" {
			cs.y += size + lineSpacing
			continue
		}
		_, h := cs.placeThai(line, size, x, cs.y)
		cs.y += h + lineSpacing
		cs.breakPage(size + lineSpacing)
	}
}

/* =========================================================
   Section 1 table (cohort grid)
   ========================================================= */

var rosterColWidths = [11]float64{50, 46, 46, 50, 36, 36, 36, 36, 36, 36, 77.28}

func rosterColX(i int) float64 {
	x := marginLeft
	for j := 0; j < i; j++ {
		x += rosterColWidths[j]
	}
	return x
}

const (
	rosterHeaderRowH = 20.0
	rosterBodyRowH   = 20.0
)

func (cs *composer) rosterHeader() {
	y := cs.y
	x0 := marginLeft
	x11 := rosterColX(11)
	headerH := 3 * rosterHeaderRowH

	// horizontal rules: outer rows full width, inner splits only across the
	// six sign-out sub-columns
	cs.line(x0, y, x11, y)
	cs.line(rosterColX(4), y+rosterHeaderRowH, rosterColX(10), y+rosterHeaderRowH)
	cs.line(rosterColX(4), y+2*rosterHeaderRowH, rosterColX(10), y+2*rosterHeaderRowH)
	cs.line(x0, y+headerH, x11, y+headerH)

	// vertical rules: span boundaries start lower inside the grouped header
	for i := 0; i <= 11; i++ {
		x := rosterColX(i)
		switch i {
		case 5, 7, 9: // inside a gender pair: third row only
			cs.line(x, y+2*rosterHeaderRowH, x, y+headerH)
		case 6, 8: // between pairs: below the super-header
			cs.line(x, y+rosterHeaderRowH, x, y+headerH)
		default:
			cs.line(x, y, x, y+headerH)
		}
	}

	// row-spanning cells
	cs.cellThai("ชั้นปีที่/รุ่นที่", smallFontSize, rosterColX(0), y, rosterColWidths[0], headerH)
	cs.cellThai("จำนวนนักศึกษาหญิง", smallFontSize, rosterColX(1), y, rosterColWidths[1], headerH)
	cs.cellThai("จำนวนนักศึกษาชาย", smallFontSize, rosterColX(2), y, rosterColWidths[2], headerH)
	cs.cellThai("จำนวนนักศึกษาทั้งหมด", smallFontSize, rosterColX(3), y, rosterColWidths[3], headerH)
	cs.cellThai("รวมจำนวนนักศึกษาคงเหลือในหอพัก", smallFontSize, rosterColX(10), y, rosterColWidths[10], headerH)

	// sign-out super-header and its three column pairs
	signOutW := rosterColX(10) - rosterColX(4)
	cs.cellThai("จำนวนนักศึกษาที่เซ็นออกหอพัก", smallFontSize, rosterColX(4), y, signOutW, rosterHeaderRowH)
	pairTitles := [3]string{"พักค้างคืน", "พักค้างคืนกรณีฉุกเฉิน", "ไม่พักค้างคืน"}
	for p := 0; p < 3; p++ {
		px := rosterColX(4 + 2*p)
		pw := rosterColWidths[4+2*p] + rosterColWidths[5+2*p]
		cs.cellThai(pairTitles[p], smallFontSize, px, y+rosterHeaderRowH, pw, rosterHeaderRowH)
		cs.cellThai("หญิง", smallFontSize, px, y+2*rosterHeaderRowH, rosterColWidths[4+2*p], rosterHeaderRowH)
		cs.cellThai("ชาย", smallFontSize, px+rosterColWidths[4+2*p], y+2*rosterHeaderRowH, rosterColWidths[5+2*p], rosterHeaderRowH)
	}

	cs.y += headerH
}

func (cs *composer) rosterRow(label string, cells [10]int, thaiLabel bool) {
	y := cs.y
	x11 := rosterColX(11)
	cs.line(marginLeft, y+rosterBodyRowH, x11, y+rosterBodyRowH)
	for i := 0; i <= 11; i++ {
		cs.line(rosterColX(i), y, rosterColX(i), y+rosterBodyRowH)
	}
	if thaiLabel {
		cs.cellThai(label, smallFontSize, rosterColX(0), y, rosterColWidths[0], rosterBodyRowH)
	} else {
		cs.nativeCell(label, smallFontSize+1, rosterColX(0), y, rosterColWidths[0], rosterBodyRowH)
	}
	for i, v := range cells {
		cs.nativeCell(strconv.Itoa(v), smallFontSize+1, rosterColX(i+1), y, rosterColWidths[i+1], rosterBodyRowH)
	}
	cs.y += rosterBodyRowH
}

func rowCells(r CohortRow) [10]int {
	return [10]int{
		r.FemaleCount, r.MaleCount, r.TotalCount,
		r.FemaleSignOut, r.MaleSignOut,
		r.FemaleEmergencyStay, r.MaleEmergencyStay,
		r.FemaleNotStayingOut, r.MaleNotStayingOut,
		r.FemaleRemaining + r.MaleRemaining,
	}
}

/* =========================================================
   Section 2 table (health records)
   ========================================================= */

var healthColWidths = [6]float64{32, 112, 55, 103, 103, 76.28}

func healthColX(i int) float64 {
	x := marginLeft
	for j := 0; j < i; j++ {
		x += healthColWidths[j]
	}
	return x
}

const healthRowH = 22.0

func (cs *composer) healthRow(cells [6]string, header bool) {
	y := cs.y
	size := float64(smallFontSize)
	if !header {
		size = smallFontSize + 0.5
	}
	cs.line(marginLeft, y, healthColX(6), y)
	cs.line(marginLeft, y+healthRowH, healthColX(6), y+healthRowH)
	for i := 0; i <= 6; i++ {
		cs.line(healthColX(i), y, healthColX(i), y+healthRowH)
	}
	for i, cell := range cells {
		cs.cellAuto(cell, size, healthColX(i), y, healthColWidths[i], healthRowH)
	}
	cs.y += healthRowH
}

func (cs *composer) line(x1, y1, x2, y2 float64) {
	if cs.err != nil {
		return
	}
	cs.pdf.Line(x1, y1, x2, y2)
}

/* =========================================================
   Compose
   ========================================================= */

// Compose lays the report out top to bottom and returns the finished PDF.
// Everything is built in memory; any error discards the whole document.
func (c *ReportComposer) Compose(doc ReportDocument) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()
	if err := pdf.AddTTFFontData("thai", c.fontBytes); err != nil {
		return nil, err
	}
	pdf.SetLineWidth(0.6)

	cs := &composer{pdf: pdf, ras: c.ras, y: topMargin}

	// 1. emblem centered at the top; its bottom anchors the rest
	if c.logoPNG != nil {
		logoH := logoWidthPt * c.logoRatio
		cs.placeImage(c.logoPNG, (pageWidth-logoWidthPt)/2, cs.y, logoWidthPt, logoH)
		cs.y += logoH + 10
	}

	// 2. centered title + shift date
	_, h := cs.centeredThai(constants.InstitutionName, titleFontSize, pageWidth/2, cs.y)
	cs.y += h + 6
	_, h = cs.centeredThai(constants.ReportTitle, bodyFontSize, pageWidth/2, cs.y)
	cs.y += h + 6
	_, h = cs.centeredThai("วันที่ "+FormatThaiDate(doc.Date), bodyFontSize, pageWidth/2, cs.y)
	cs.y += h + 14

	// 3. salutation + interpolated intro + dormitory line
	cs.paragraph("เรียน ผู้อำนวยการวิทยาลัยพยาบาลบรมราชชนนี อุดรธานี", bodyFontSize, 0)
	cs.y += 2
	intro := fmt.Sprintf("ตามที่ข้าพเจ้า %s ได้ปฏิบัติหน้าที่อาจารย์เวรประจำวันที่ %s เวลา %s - %s น.",
		doc.TeacherName, FormatThaiDate(doc.Date), doc.StartTime, doc.EndTime)
	if strings.TrimSpace(doc.ReplacingTeacher) != "" {
		intro += fmt.Sprintf(" (ปฏิบัติหน้าที่แทน %s)", doc.ReplacingTeacher)
	}
	intro += " ขอรายงานผลการปฏิบัติหน้าที่ ดังนี้"
	cs.paragraph(intro, bodyFontSize, 36)
	if strings.TrimSpace(doc.Dormitory) != "" {
		cs.paragraph(fmt.Sprintf("ปฏิบัติหน้าที่ดูแลนักศึกษา ณ %s", doc.Dormitory), bodyFontSize, 36)
	}
	cs.y += 6

	// 4. section 1: cohort grid with spanning header + totals row
	cs.breakPage(3*rosterHeaderRowH + 6*rosterBodyRowH + 30)
	cs.paragraph("1. รายงานจำนวนนักศึกษาที่พักอาศัยอยู่ในหอพักของวิทยาลัย", bodyFontSize, 0)
	cs.y += 2
	cs.rosterHeader()
	for _, r := range doc.Rows {
		cs.rosterRow(r.Year, rowCells(r), HasThai(r.Year))
	}
	totals := Totals(doc.Rows)
	cs.rosterRow("รวม", rowCells(totals), true)
	cs.y += 14

	// 5. section 2: health table, or the no-sick-students line
	cs.breakPage(float64(len(doc.Health)+2)*healthRowH + 30)
	cs.paragraph("2. รายงานการดูแลสุขภาพนักศึกษา", bodyFontSize, 0)
	cs.y += 2
	if len(doc.Health) == 0 {
		cs.paragraph("ไม่มีนักศึกษาเจ็บป่วย", bodyFontSize, 36)
	} else {
		cs.healthRow([6]string{"ลำดับ", "ชื่อ-สกุล", "ชั้นปีที่/รุ่น", "อาการ", "การรักษาที่ได้รับ", "ผลการรักษา"}, true)
		for i, rec := range doc.Health {
			cs.breakPage(healthRowH)
			cs.healthRow([6]string{strconv.Itoa(i + 1), rec.Name, rec.Year, rec.Symptoms, rec.Treatment, rec.Result}, false)
		}
	}
	cs.y += 14

	// 6. sections 3 and 4: heading + wrapped free text, page-break checked
	cs.breakPage(60)
	cs.paragraph("3. รายงานสุ่มตรวจความสะอาดเรียบร้อยของหอพัก", bodyFontSize, 0)
	cs.paragraph("3.1 ตรวจพบความสะอาดเรียบร้อยระดับ (ดี, ดีมาก)", bodyFontSize, 18)
	cs.paragraph(doc.CleanlinessGood, bodyFontSize, 36)
	cs.paragraph("3.2 ตรวจพบความสะอาดในระดับต้องปรับปรุงในแต่ละหอพัก", bodyFontSize, 18)
	cs.paragraph(doc.CleanlinessNeedImprovement, bodyFontSize, 36)
	cs.y += 6
	cs.breakPage(60)
	cs.paragraph("4. รายงานพฤติกรรมของนักศึกษา", bodyFontSize, 0)
	cs.paragraph(doc.StudentBehavior, bodyFontSize, 36)
	cs.y += 10

	// 7. closing line + signature blocks
	cs.breakPage(3*64 + 30)
	cs.paragraph("จึงเรียนมาเพื่อโปรดทราบ", bodyFontSize, 36)
	cs.y += 10

	signCenterX := pageWidth - marginRight - 120
	cs.signatureBlock(signCenterX, doc.TeacherSignature, signOrDefault(doc.TeacherPosition, "อาจารย์เวร"))
	cs.signatureBlock(signCenterX, doc.DeputyDirectorSignature, "รองผู้อำนวยการ")
	cs.signatureBlock(signCenterX, doc.DirectorSignature, "ผู้อำนวยการ")

	if cs.err != nil {
		return nil, cs.err
	}
	// 8. serialize; nothing was written anywhere else
	return pdf.GetBytesPdfReturnErr()
}

func signOrDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func (cs *composer) signatureBlock(centerX float64, name, role string) {
	cs.breakPage(64)
	_, h := cs.centeredThai("ลงชื่อ .............................................", bodyFontSize, centerX, cs.y)
	cs.y += h + 4
	display := strings.TrimSpace(name)
	if display == "" {
		display = "................................."
	}
	_, h = cs.centeredThai("( "+display+" )", bodyFontSize, centerX, cs.y)
	cs.y += h + 4
	_, h = cs.centeredThai(role, bodyFontSize, centerX, cs.y)
	cs.y += h + 16
}

/* =========================================================
   Filename + Thai date helpers
   ========================================================= */

var thaiMonths = [12]string{
	"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน",
	"กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม",
}

// FormatThaiDate renders a date the way the paperwork does: day, Thai month
// name, Buddhist-era year.
func FormatThaiDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), thaiMonths[t.Month()-1], t.Year()+543)
}

// DocumentFileName builds "<thai-date>_<teacher>.pdf" with filename-unsafe
// characters stripped.
func DocumentFileName(date time.Time, teacherName string) string {
	return fmt.Sprintf("%s_%s.pdf",
		SanitizeFileName(FormatThaiDate(date)),
		SanitizeFileName(teacherName))
}

// SanitizeFileName keeps letters and digits of any script, folding runs of
// anything else into single dashes.
func SanitizeFileName(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		out = "report"
	}
	return out
}
