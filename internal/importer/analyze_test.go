package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factoryqa-data/internal/domain"
)

func issueMessages(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.Message
	}
	return out
}

func TestAnalyze_InvalidJSON(t *testing.T) {
	analysis := Analyze([]byte("not json {"))

	require.Len(t, analysis.Errors, 1)
	assert.Equal(t, "file", analysis.Errors[0].Path)
	assert.Nil(t, analysis.Project)
	assert.Empty(t, analysis.Components)
}

func TestAnalyze_SchemaVersionMissingAssumesSupported(t *testing.T) {
	analysis := Analyze([]byte(`{
		"project": {"project_id": "p1", "project_code": "230041"},
		"components": [{"group_code": "EW_0", "id": "001", "type": "ew"}]
	}`))

	require.NotNil(t, analysis.EffectiveSchemaVersion)
	assert.Equal(t, float64(1), *analysis.EffectiveSchemaVersion)
	assert.Contains(t, issueMessages(analysis.Warnings), "schema_version missing; assuming 1.")
	assert.Empty(t, analysis.Errors)
}

func TestAnalyze_SchemaVersionStringCoerced(t *testing.T) {
	analysis := Analyze([]byte(`{
		"schema_version": "1",
		"project": {"project_id": "p1", "project_code": "230041"},
		"components": []
	}`))

	require.NotNil(t, analysis.EffectiveSchemaVersion)
	assert.Equal(t, float64(1), *analysis.EffectiveSchemaVersion)
	assert.Contains(t, issueMessages(analysis.Warnings), "schema_version was a string; treated as number 1.")
	assert.Empty(t, analysis.Errors)
}

func TestAnalyze_UnsupportedSchemaVersionFatal(t *testing.T) {
	analysis := Analyze([]byte(`{
		"schema_version": 2,
		"project": {"project_id": "p1", "project_code": "230041"},
		"components": [{"group_code": "EW_0", "id": "001", "type": "ew"}]
	}`))

	require.NotEmpty(t, analysis.Errors)
	assert.Contains(t, issueMessages(analysis.Errors), "Unsupported schema_version 2. Expected 1.")
	// 分析结果仍然返回用于展示
	assert.NotNil(t, analysis.Project)
	assert.Len(t, analysis.Components, 1)
}

func TestAnalyze_NonNumericSchemaVersionFatal(t *testing.T) {
	analysis := Analyze([]byte(`{
		"schema_version": "abc",
		"project": {"project_id": "p1", "project_code": "230041"},
		"components": []
	}`))

	assert.Nil(t, analysis.EffectiveSchemaVersion)
	assert.NotEmpty(t, analysis.Errors)
}

func TestAnalyze_ProjectDerivedFromWPGuids(t *testing.T) {
	analysis := Analyze([]byte(`{
		"schema_version": 1,
		"components": [
			{"group_code": "EW_0", "id": "001", "type": "ew", "WP_GUID": "230041_EW_0001"}
		]
	}`))

	require.NotNil(t, analysis.Project)
	assert.Equal(t, "230041", analysis.Project.ProjectCode)
	assert.Equal(t, "derived-230041", analysis.Project.ProjectID)
	assert.Contains(t, issueMessages(analysis.Warnings),
		"Derived project metadata from WP_GUID values because the project object was missing.")
	assert.Empty(t, analysis.Errors)
}

func TestAnalyze_MissingProjectAndGuidsFatal(t *testing.T) {
	analysis := Analyze([]byte(`{
		"schema_version": 1,
		"components": [{"group_code": "EW_0", "id": "001", "type": "ew"}]
	}`))

	assert.Nil(t, analysis.Project)
	assert.Contains(t, issueMessages(analysis.Errors), `Missing "project" object in import file.`)
}

func TestAnalyze_ComponentsSynthesizedFromWPGuids(t *testing.T) {
	analysis := Analyze([]byte(`{
		"schema_version": 1,
		"items": [
			{"WP_GUID": "230041_EW_0001"},
			{"WP_GUID": "230041_EW_0002"},
			{"WP_GUID": "230041_EW_0001"}
		]
	}`))

	require.NotNil(t, analysis.Project)
	require.Len(t, analysis.Components, 2)
	assert.Equal(t, "EW", analysis.Components[0].GroupCode)
	assert.Equal(t, domain.TypeExternalWall, analysis.Components[0].Type)
	assert.Contains(t, issueMessages(analysis.Warnings),
		"Derived component list from WP_GUID values because the components array was missing.")
	assert.Empty(t, analysis.Errors)
}

func TestAnalyze_MissingGroupCodeDropsEntry(t *testing.T) {
	analysis := Analyze([]byte(`{
		"schema_version": 1,
		"project": {"project_id": "p1", "project_code": "230041"},
		"components": [
			{"id": "001", "type": "ew"},
			{"group_code": "IW_0", "id": "002", "type": "iw"}
		]
	}`))

	require.Len(t, analysis.Components, 1)
	assert.Equal(t, "IW_0", analysis.Components[0].GroupCode)

	require.NotEmpty(t, analysis.Errors)
	assert.Equal(t, "components[0].group_code", analysis.Errors[0].Path)
}

func TestAnalyze_MissingIDWithoutPanelIDFatal(t *testing.T) {
	analysis := Analyze([]byte(`{
		"schema_version": 1,
		"project": {"project_id": "p1", "project_code": "230041"},
		"components": [{"group_code": "EW_0"}]
	}`))

	assert.Empty(t, analysis.Components)
	require.NotEmpty(t, analysis.Errors)
	assert.Equal(t, "components[0].id", analysis.Errors[0].Path)
}

func TestAnalyze_IDDerivedFromPanelID(t *testing.T) {
	analysis := Analyze([]byte(`{
		"schema_version": 1,
		"project": {"project_id": "p1", "project_code": "230041"},
		"components": [{"group_code": "EW_0", "panel_id": "EW_0001", "type": "ew"}]
	}`))

	require.Len(t, analysis.Components, 1)
	assert.Equal(t, "0001", analysis.Components[0].ID)
	assert.Contains(t, issueMessages(analysis.Warnings),
		"Derived id from panel_id because it was missing in the import file.")
	assert.Empty(t, analysis.Errors)
}

func TestAnalyze_TypeInferredFromGroupCode(t *testing.T) {
	analysis := Analyze([]byte(`{
		"schema_version": 1,
		"project": {"project_id": "p1", "project_code": "230041"},
		"components": [{"group_code": "MF_1", "id": "004"}]
	}`))

	require.Len(t, analysis.Components, 1)
	assert.Equal(t, domain.TypeMidFloor, analysis.Components[0].Type)
	assert.Contains(t, issueMessages(analysis.Warnings), "Inferred component type from group_code.")
}

func TestAnalyze_TemplateTypeMismatchWarning(t *testing.T) {
	analysis := Analyze([]byte(`{
		"schema_version": 1,
		"project": {"project_id": "p1", "project_code": "230041"},
		"components": [{"group_code": "IW_0", "id": "001", "type": "iw", "template_id": "EW_I1E1"}]
	}`))

	require.Len(t, analysis.Components, 1)
	assert.Contains(t, issueMessages(analysis.Warnings),
		"Template (EW_I1E1) may not match inferred type (iw).")
	assert.Empty(t, analysis.Errors)
}

func TestAnalyze_DuplicateComponentsFirstWins(t *testing.T) {
	analysis := Analyze([]byte(`{
		"schema_version": 1,
		"project": {"project_id": "p1", "project_code": "230041"},
		"components": [
			{"group_code": "EW_0", "id": "001", "type": "ew", "panel_id": "EW_0001"},
			{"group_code": "EW_0", "id": "001", "type": "ew", "panel_id": "EW_0001_dup"}
		]
	}`))

	require.Len(t, analysis.Components, 1)
	assert.Equal(t, "EW_0001", analysis.Components[0].PanelID)
	assert.Equal(t, 2, analysis.Stats.TotalComponents)
	assert.Equal(t, 1, analysis.Stats.UniqueComponents)
	assert.Equal(t, 1, analysis.Stats.DuplicateComponents)
}

func TestAnalyze_ConflictingProjectCodesWarning(t *testing.T) {
	analysis := Analyze([]byte(`{
		"schema_version": 1,
		"components": [
			{"group_code": "EW_0", "id": "001", "type": "ew", "WP_GUID": "230041_EW_0001"},
			{"group_code": "EW_0", "id": "002", "type": "ew", "WP_GUID": "230099_EW_0002"}
		]
	}`))

	require.NotNil(t, analysis.Project)
	found := false
	for _, msg := range issueMessages(analysis.Warnings) {
		if msg == "Multiple project codes discovered from WP_GUID values (230041, 230099); using 230041." {
			found = true
		}
	}
	assert.True(t, found, "expected conflicting project codes warning")
}

func TestAnalyze_MetadataCapturedFromAccessColumns(t *testing.T) {
	analysis := Analyze([]byte(`{
		"schema_version": 1,
		"project": {"project_id": "p1", "project_code": "230041"},
		"components": [{
			"group_code": "EW_0", "id": "001", "type": "ew",
			"WP_GUID": "230041_EW_0001", "SIGNEE": "Jonathan Tagasa"
		}]
	}`))

	require.Len(t, analysis.Components, 1)
	component := analysis.Components[0]
	assert.Equal(t, "230041_EW_0001", component.AccessGUID)

	values := make(map[string]string)
	for _, entry := range component.Metadata {
		values[entry.Key] = entry.Value
	}
	assert.Equal(t, "230041_EW_0001", values["wp_guid"])
	assert.Equal(t, "Jonathan Tagasa", values["signee"])
}
