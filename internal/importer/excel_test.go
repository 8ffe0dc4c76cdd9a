package importer

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factoryqa-data/internal/domain"
)

func TestBuildSeedFromRows(t *testing.T) {
	rows := []map[string]string{
		{
			"WP GUID":      "230041_EW_0001",
			"GUID":         "proj-guid-1",
			"PROJECT CODE": "230041",
			"PROJECT NAME": "Alpine Homes",
			"TEMPLATE":     "EW_I1E1",
			"TITLE":        "Framing check for square",
			"RESULT":       "yes",
			"SIGNEE":       "Jonathan Tagasa",
		},
		{
			// 同一面板的第二行只追加 qaItem
			"WP GUID": "230041_EW_0001",
			"GUID":    "proj-guid-1",
			"TITLE":   "Slings installed as per drawings",
			"RESULT":  "no",
		},
		{
			// 类型段不是合法面板类型，整行忽略
			"WP GUID": "230041_ZZ_0001",
			"GUID":    "proj-guid-1",
		},
	}

	payload := buildSeedFromRows(rows)

	require.Len(t, payload.Projects, 1)
	project := payload.Projects[0]
	assert.Equal(t, "proj-guid-1", project.ProjectID)
	assert.Equal(t, "230041", project.ProjectCode)
	assert.Equal(t, "Alpine Homes", project.ProjectName)
	assert.Equal(t, domain.ProjectStatusActive, project.Status)

	require.Len(t, payload.Components, 1)
	component := payload.Components[0]
	assert.Equal(t, domain.TypeExternalWall, component.Type)
	assert.Equal(t, "EW_0", component.GroupCode)
	assert.Equal(t, "001", component.ID)
	assert.Equal(t, "EW_0001", component.PanelID)
	assert.Equal(t, "EW_I1E1", component.TemplateID)
	assert.Equal(t, "230041_EW_0001", component.AccessGUID)

	require.Len(t, component.QAItems, 2)
	assert.Equal(t, "Framing check for square", component.QAItems[0].Title)
	assert.Equal(t, "Jonathan Tagasa", component.QAItems[0].Signee)
	assert.Equal(t, "no", component.QAItems[1].Result)
}

func TestBuildSeedFromRows_ProjectCodeFromWPPrefix(t *testing.T) {
	rows := []map[string]string{
		{"WP GUID": "230041_IW_0006", "GUID": "proj-guid-2"},
	}

	payload := buildSeedFromRows(rows)

	require.Len(t, payload.Projects, 1)
	assert.Equal(t, "230041", payload.Projects[0].ProjectCode)

	require.Len(t, payload.Components, 1)
	component := payload.Components[0]
	assert.Equal(t, domain.TypeInternalWall, component.Type)
	assert.Equal(t, "IW_0", component.GroupCode)
	assert.Equal(t, "006", component.ID)
	assert.Equal(t, "IW_0006", component.PanelID)
}

func TestBuildSeedFromRows_SkipsRowsWithoutWP(t *testing.T) {
	payload := buildSeedFromRows([]map[string]string{
		{"TITLE": "orphan row"},
		{},
	})

	assert.Empty(t, payload.Projects)
	assert.Empty(t, payload.Components)
}

func TestSeedWorkbookRoundTrip(t *testing.T) {
	original := &SeedPayload{
		Projects: []domain.Project{
			{ProjectID: "proj-guid-1", ProjectCode: "230041", ProjectName: "Alpine Homes", Status: "active"},
		},
		Components: []domain.Component{
			{
				Type:       domain.TypeExternalWall,
				ProjectID:  "proj-guid-1",
				GroupCode:  "EW_0",
				ID:         "001",
				PanelID:    "EW_0001",
				TemplateID: "EW_I1E1",
				AccessGUID: "230041_EW_0001",
				QAItems: []domain.AccessQAItem{
					{Title: "Framing check for square", Result: "yes", Signee: "Jonathan Tagasa"},
				},
			},
		},
	}

	raw, err := BuildSeedWorkbook(original)
	require.NoError(t, err)

	parsed, err := ParseSeedWorkbook(bytes.NewReader(raw))
	require.NoError(t, err)

	require.Len(t, parsed.Projects, 1)
	assert.Equal(t, "proj-guid-1", parsed.Projects[0].ProjectID)
	assert.Equal(t, "230041", parsed.Projects[0].ProjectCode)

	require.Len(t, parsed.Components, 1)
	component := parsed.Components[0]
	assert.Equal(t, "EW_0", component.GroupCode)
	assert.Equal(t, "001", component.ID)
	assert.Equal(t, "EW_0001", component.PanelID)
	assert.Equal(t, "EW_I1E1", component.TemplateID)
	require.Len(t, component.QAItems, 1)
	assert.Equal(t, "yes", component.QAItems[0].Result)
}

func TestDeriveAccessGUIDForExport(t *testing.T) {
	project := &domain.Project{ProjectCode: "230041"}

	withGUID := &domain.Component{AccessGUID: "230041_EW_0001"}
	assert.Equal(t, "230041_EW_0001", deriveAccessGUIDForExport(withGUID, project))

	derived := &domain.Component{
		Type:      domain.TypeExternalWall,
		PanelID:   "EW_0001",
		ID:        "001",
		GroupCode: "EW_0",
	}
	assert.Equal(t, "230041EW0001", deriveAccessGUIDForExport(derived, project))

	noProject := &domain.Component{Type: domain.TypeRoof, ID: "004"}
	assert.Equal(t, "R004", deriveAccessGUIDForExport(noProject, nil))
}

func TestFormatExportFilename(t *testing.T) {
	ts := time.Date(2026, 8, 28, 14, 30, 5, 0, time.UTC)
	assert.Equal(t, "factory-qa-export-20260828-143005.json", FormatExportFilename(ts))
}
