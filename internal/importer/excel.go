package importer

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"factoryqa-data/internal/access"
	"factoryqa-data/internal/domain"
)

// Access 电子表格导出的完整列集（BuildSeedWorkbook 按此顺序写出）
var seedWorkbookColumns = []string{
	"PROJECT GUID",
	"GUID",
	"PROJECT CODE",
	"PROJECT NAME",
	"ACCESS_GUID",
	"WP GUID",
	"TEMPLATE",
	"PANEL ID",
	"GROUP CODE",
	"TITLE",
	"RESULT",
	"PHOTO TAKEN",
	"SIGNEE",
	"TIMESTAMP",
}

// WP_GUID 的常见形态：可选数字项目前缀 + 字母类型段 + 数字编号
// （如 "230041_EW_0001"、"EW0001"）
var wpGuidPattern = regexp.MustCompile(`^(?:(\d+)[_-]?)?([A-Za-z]+)[_-]?(\d+)$`)

// ParseSeedWorkbook 把 Access 电子表格（首个工作表）转成种子载荷。
// 表头按大小写/标点不敏感匹配；每行对应一条 qaItem，
// 挂到按 panel_id 归并出的构件上
func ParseSeedWorkbook(r io.Reader) (*SeedPayload, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rawRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rawRows) == 0 {
		return &SeedPayload{}, nil
	}

	headers := rawRows[0]
	rows := make([]map[string]string, 0, len(rawRows)-1)
	for _, raw := range rawRows[1:] {
		row := make(map[string]string, len(headers))
		for col, header := range headers {
			if col < len(raw) {
				row[header] = raw[col]
			}
		}
		rows = append(rows, row)
	}
	return buildSeedFromRows(rows), nil
}

func buildSeedFromRows(rows []map[string]string) *SeedPayload {
	payload := &SeedPayload{}
	componentIndex := make(map[string]int)

	for _, row := range rows {
		wp, ok := access.PickColumn(row, "WP_GUID", "WP GUID", "WP", "ACCESS_GUID")
		if !ok {
			continue
		}

		var projectCodeFromWP, letters, digits string
		if m := wpGuidPattern.FindStringSubmatch(wp); m != nil {
			projectCodeFromWP, letters, digits = m[1], m[2], m[3]
		}

		guid, ok := access.PickColumn(row, "GUID")
		if !ok {
			guid, ok = access.PickColumn(row, "PROJECT_GUID")
		}
		if !ok {
			guid = uuid.NewString()
		}

		lettersUpper := strings.ToUpper(letters)
		var groupCodeParts []string
		if lettersUpper != "" {
			groupCodeParts = append(groupCodeParts, lettersUpper)
		}
		if digits != "" {
			groupCodeParts = append(groupCodeParts, digits[:1])
		}
		groupCode := strings.Join(groupCodeParts, "_")

		var id, panelID string
		if digits != "" {
			id = padLeft(lastN(digits, 3), 3)
			panelDigits := padLeft(digits, 4)
			var panelIDParts []string
			if lettersUpper != "" {
				panelIDParts = append(panelIDParts, lettersUpper)
			}
			panelIDParts = append(panelIDParts, panelDigits)
			panelID = strings.Join(panelIDParts, "_")
		}

		componentType := domain.ComponentType(strings.ToLower(letters))
		if !componentType.Valid() {
			continue
		}

		projectName, _ := access.PickColumn(row, "PROJECT_NAME", "PROJECT NAME")
		projectCode, ok := access.PickColumn(row, "PROJECT_CODE", "PROJECT CODE")
		if !ok {
			projectCode = projectCodeFromWP
		}

		if !containsProject(payload.Projects, guid) {
			payload.Projects = append(payload.Projects, domain.Project{
				ProjectID:   guid,
				ProjectCode: projectCode,
				ProjectName: projectName,
				Status:      domain.ProjectStatusActive,
			})
		}

		componentKey := guid + "::" + panelID
		idx, exists := componentIndex[componentKey]
		if !exists {
			templateID, _ := access.PickColumn(row, "TEMPLATE")
			payload.Components = append(payload.Components, domain.Component{
				Type:       componentType,
				ProjectID:  guid,
				GroupCode:  groupCode,
				ID:         id,
				PanelID:    panelID,
				TemplateID: templateID,
				AccessGUID: wp,
				QAItems:    []domain.AccessQAItem{},
			})
			idx = len(payload.Components) - 1
			componentIndex[componentKey] = idx
		}

		component := &payload.Components[idx]
		if component.AccessGUID == "" {
			component.AccessGUID = wp
		}

		title, _ := access.PickColumn(row, "TITLE")
		result, _ := access.PickColumn(row, "RESULT")
		photoTaken, _ := access.PickColumn(row, "PHOTO_TAKEN", "PHOTO TAKEN")
		signee, _ := access.PickColumn(row, "SIGNEE")
		timestamp, _ := access.PickColumn(row, "TIMESTAMP")

		component.QAItems = append(component.QAItems, domain.AccessQAItem{
			Title:      title,
			Result:     result,
			PhotoTaken: photoTaken,
			Signee:     signee,
			Timestamp:  timestamp,
		})
	}

	return payload
}

func containsProject(projects []domain.Project, projectID string) bool {
	for _, p := range projects {
		if p.ProjectID == projectID {
			return true
		}
	}
	return false
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func padLeft(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}

var guidDigits = regexp.MustCompile(`\d+`)

// deriveAccessGUIDForExport 行上没有 access_guid 时按
// 项目号 + 类型段 + 数字段拼一个回去（电子表格往返需要非空 WP 列）
func deriveAccessGUIDForExport(component *domain.Component, project *domain.Project) string {
	if component.AccessGUID != "" {
		return component.AccessGUID
	}

	var projectCode string
	if project != nil {
		projectCode = strings.TrimSpace(project.ProjectCode)
	}

	typePart := strings.ToUpper(strings.TrimSpace(string(component.Type)))
	if typePart == "" && component.PanelID != "" {
		typePart = strings.ToUpper(strings.SplitN(component.PanelID, "_", 2)[0])
	}

	panelDigits := strings.Join(guidDigits.FindAllString(component.PanelID, -1), "")
	idDigits := strings.Join(guidDigits.FindAllString(component.ID, -1), "")
	var groupDigits string
	if m := guidDigits.FindString(component.GroupCode); m != "" {
		groupDigits = m
	}

	digitsPart := panelDigits
	if digitsPart == "" {
		digitsPart = idDigits
	}
	if digitsPart == "" {
		digitsPart = groupDigits
	}

	return strings.TrimSpace(projectCode + typePart + digitsPart)
}

// BuildSeedWorkbook 反向转换：把种子/导出载荷还原成 Access 电子表格。
// 每个 qaItem 一行，无 qaItems 的构件输出一个空行占位
func BuildSeedWorkbook(payload *SeedPayload) ([]byte, error) {
	f := excelize.NewFile()
	sheetName := "Sheet1"

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range seedWorkbookColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	projectsByID := make(map[string]*domain.Project, len(payload.Projects))
	for i := range payload.Projects {
		projectsByID[payload.Projects[i].ProjectID] = &payload.Projects[i]
	}

	row := 2
	writeRow := func(component *domain.Component, project *domain.Project, item domain.AccessQAItem) error {
		accessGUID := deriveAccessGUIDForExport(component, project)
		var projectCode, projectName string
		if project != nil {
			projectCode = project.ProjectCode
			projectName = project.ProjectName
		}
		values := []string{
			component.ProjectID,
			component.ProjectID,
			projectCode,
			projectName,
			accessGUID,
			accessGUID,
			component.TemplateID,
			component.PanelID,
			component.GroupCode,
			item.Title,
			item.Result,
			item.PhotoTaken,
			item.Signee,
			item.Timestamp,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
		row++
		return nil
	}

	for i := range payload.Components {
		component := &payload.Components[i]
		project := projectsByID[component.ProjectID]
		items := component.QAItems
		if len(items) == 0 {
			items = []domain.AccessQAItem{{}}
		}
		for _, item := range items {
			if err := writeRow(component, project, item); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}
