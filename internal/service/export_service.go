package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AlexSserb/dental-lab-backend/internal/dto"
	"github.com/AlexSserb/dental-lab-backend/internal/repository"
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 车间日历导出为 Excel (.xlsx)，每行一道已排工序，冲突单元格标红
//   - 技师日历导出为 iCalendar (.ics)，可直接订阅到手机日历
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportSchedule 导出 [from, to] 的车间日历为 Excel
	ExportSchedule(ctx context.Context, from, to string) (*bytes.Buffer, string, error)
	// ExportTechCalendar 导出技师 [from, to] 的工序为 iCalendar
	ExportTechCalendar(ctx context.Context, email, from, to string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	engine *Engine
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, engine *Engine, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, engine: engine, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportSchedule: 车间日历导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "生产计划"
//   - 列：开始 | 结束 | 技师 | 技能组 | 订单 | 产品 | 序号 | 工序 | 截止日期 | 冲突
//   - 按开始时间排序（查询已排序）

var scheduleHeaders = []string{"开始", "结束", "技师", "技能组", "订单", "产品", "序号", "工序", "截止日期", "冲突"}

func (s *exportService) ExportSchedule(ctx context.Context, fromStr, toStr string) (*bytes.Buffer, string, error) {
	from, to, err := s.exportRange(fromStr, toStr)
	if err != nil {
		return nil, "", err
	}

	ops, err := s.repo.Operation.ListScheduledInRange(ctx, from, to, "")
	if err != nil {
		s.logger.Error("查询导出工序失败", zap.Error(err))
		return nil, "", err
	}
	if len(ops) == 0 {
		return nil, "", ErrExportNoOperations
	}
	items := annotate(s.engine.Annotator, ops, nil, nil)

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "生产计划"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "B", 18)
	f.SetColWidth(sheetName, "C", "C", 22)
	f.SetColWidth(sheetName, "D", "H", 12)
	f.SetColWidth(sheetName, "I", "I", 12)
	f.SetColWidth(sheetName, "J", "J", 40)

	// 样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	errorStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#C00000"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FCE4D6"}, Pattern: 1},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("生产计划 %s ~ %s", fromStr, to.AddDate(0, 0, -1).Format(dateLayout)))
	f.MergeCell(sheetName, "A1", cell(colName(len(scheduleHeaders)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range scheduleHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(scheduleHeaders)-1), 2), headerStyle)

	// 数据行
	loc := s.engine.Generator.Window().Location
	row := 3
	for _, it := range items {
		values := []interface{}{
			localTime(it.Start, loc),
			localTime(it.End, loc),
			techLabel(it),
			it.Group,
			it.OrderID,
			it.WorkID,
			it.Ordinal,
			it.OperationType.Name,
			it.Deadline,
			it.ErrorDescription,
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		if it.Error {
			f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(values)-1), row), errorStyle)
		}
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("生产计划_%s.xlsx", fromStr)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportTechCalendar: 技师日历导出为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportTechCalendar(ctx context.Context, email, fromStr, toStr string) (*bytes.Buffer, string, error) {
	tech, err := s.repo.User.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrTechnicianNotFound
		}
		s.logger.Error("查询技师失败", zap.String("email", email), zap.Error(err))
		return nil, "", err
	}

	from, to, err := s.exportRange(fromStr, toStr)
	if err != nil {
		return nil, "", err
	}

	ops, err := s.repo.Operation.ListScheduledInRange(ctx, from, to, tech.UserID)
	if err != nil {
		s.logger.Error("查询技师工序失败", zap.String("email", email), zap.Error(err))
		return nil, "", err
	}
	items := annotate(s.engine.Annotator, ops, nil, nil)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//dental-lab//production planner//ZH")
	cal.SetXWRCalName(fmt.Sprintf("%s 的工序", tech.Name))

	stamp := time.Now().UTC()
	for _, it := range items {
		if it.Start == nil || it.End == nil {
			continue
		}
		start, _ := time.Parse(time.RFC3339, *it.Start)
		end, _ := time.Parse(time.RFC3339, *it.End)

		evt := cal.AddEvent(it.ID + "@dental-lab")
		evt.SetDtStampTime(stamp)
		evt.SetStartAt(start)
		evt.SetEndAt(end)
		evt.SetSummary(fmt.Sprintf("%s #%d", it.OperationType.Name, it.Ordinal))

		desc := fmt.Sprintf("订单 %s\n产品 %s\n截止日期 %s", it.OrderID, it.WorkID, it.Deadline)
		if it.Error {
			desc += "\n冲突: " + it.ErrorDescription
		}
		evt.SetDescription(desc)
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, fmt.Sprintf("%s.ics", tech.Email), nil
}

// ── 辅助函数 ──

// exportRange 解析导出范围；未给出 to 时导出 from 起 7 天
func (s *exportService) exportRange(fromStr, toStr string) (time.Time, time.Time, error) {
	return parseRange(s.engine.Generator.Window().Location, fromStr, toStr, 0, 7)
}

func localTime(s *string, loc *time.Location) string {
	if s == nil {
		return ""
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return *s
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

func techLabel(it dto.ScheduledOperation) string {
	if it.TechName == "" {
		return it.TechEmail
	}
	return fmt.Sprintf("%s (%s)", it.TechName, it.TechEmail)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
