package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"factoryqa-data/internal/importer"
)

// convert-xls Access 导出工作簿与种子 JSON 的双向转换：
//
//	convert-xls data.xlsx seed-data.json   # 工作簿 → 种子 JSON
//	convert-xls seed-data.json data.xlsx   # 种子 JSON → 工作簿
//
// 方向由输入文件扩展名决定
func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <input.(xlsx|json)> <output.(json|xlsx)>\n", os.Args[0])
		os.Exit(1)
	}
	input, output := os.Args[1], os.Args[2]

	var err error
	switch strings.ToLower(filepath.Ext(input)) {
	case ".xlsx":
		err = workbookToJSON(input, output)
	case ".json":
		err = jsonToWorkbook(input, output)
	default:
		err = fmt.Errorf("unsupported input extension: %s", filepath.Ext(input))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "conversion failed: %v\n", err)
		os.Exit(1)
	}
}

func workbookToJSON(input, output string) error {
	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	payload, err := importer.ParseSeedWorkbook(f)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, raw, 0o644); err != nil {
		return err
	}

	fmt.Printf("wrote %s: %d projects, %d components\n",
		output, len(payload.Projects), len(payload.Components))
	return nil
}

func jsonToWorkbook(input, output string) error {
	raw, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	var payload importer.SeedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("input is not a valid seed JSON: %w", err)
	}

	book, err := importer.BuildSeedWorkbook(&payload)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, book, 0o644); err != nil {
		return err
	}

	fmt.Printf("wrote %s: %d projects, %d components\n",
		output, len(payload.Projects), len(payload.Components))
	return nil
}
