package mapper

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/go-viper/mapstructure/v2"
	"gorm.io/datatypes"
)

// DecodeDatasetPatch 将 PUT 请求体 (已解析为 map) 解码为 DatasetPatch
// 只有请求中出现的 key 会被赋值, 以此区分 "未提供" 与 "置空"
func DecodeDatasetPatch(raw map[string]any) (*models.DatasetPatch, error) {
	var patch models.DatasetPatch

	// JSON 数字解析后是 float64, 带小数的值不能静默截断为整数
	intHook := func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.Float64 {
			return data, nil
		}
		switch t.Kind() {
		case reflect.Int, reflect.Int64:
			v := data.(float64)
			if v != float64(int64(v)) {
				return nil, fmt.Errorf("expected integer, got %v", v)
			}
			return int64(v), nil
		}
		return data, nil
	}

	config := &mapstructure.DecoderConfig{
		Result:     &patch,
		TagName:    "json",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(intHook),
		// 详情接口返回的 id / updatedAt 等字段可能被原样提交, 忽略即可
		ErrorUnused: false,
	}
	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create patch decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode dataset patch: %w", err)
	}
	return &patch, nil
}

// PatchColumns 生成 Updates 使用的列映射, 总是刷新 updated_at
func PatchColumns(p *models.DatasetPatch, now time.Time) map[string]any {
	cols := map[string]any{"updated_at": now.Format(time.DateOnly)}
	setString := func(col string, v *string) {
		if v != nil {
			cols[col] = strings.TrimSpace(*v)
		}
	}
	setString("name", p.Name)
	setString("author", p.Author)
	setString("description", p.Description)
	setString("size", p.Size)
	setString("format", p.Format)
	setString("license", p.License)
	setString("task", p.Task)
	setString("language", p.Language)
	if p.Tags != nil {
		cols["tags"] = datatypes.JSONSlice[string](normalizeTags(*p.Tags))
	}
	if p.Rows != nil {
		cols["rows"] = *p.Rows
	}
	if p.Downloads != nil {
		cols["downloads"] = *p.Downloads
	}
	if p.Likes != nil {
		cols["likes"] = *p.Likes
	}
	return cols
}

// DatasetFromCreate 由创建请求构造模型, 默认值由调用方补全
func DatasetFromCreate(id string, req *models.CreateDatasetRequest) (*models.Dataset, error) {
	previewRows, err := PreviewRows(id, req.PreviewData)
	if err != nil {
		return nil, err
	}
	return &models.Dataset{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Author:      strings.TrimSpace(req.Author),
		Description: req.Description,
		Tags:        normalizeTags(req.Tags),
		Downloads:   req.Downloads,
		Likes:       req.Likes,
		Size:        req.Size,
		Format:      req.Format,
		License:     req.License,
		Task:        req.Task,
		Language:    req.Language,
		Rows:        req.Rows,
		Splits:      Splits(id, req.Splits),
		Features:    Features(id, req.Features),
		PreviewRows: previewRows,
	}, nil
}

func Splits(datasetID string, in []models.SplitInput) []models.DatasetSplit {
	out := make([]models.DatasetSplit, 0, len(in))
	for _, s := range in {
		out = append(out, models.DatasetSplit{DatasetID: datasetID, Name: s.Name, Rows: s.Rows})
	}
	return out
}

func Features(datasetID string, in []models.FeatureInput) []models.DatasetFeature {
	out := make([]models.DatasetFeature, 0, len(in))
	for _, f := range in {
		out = append(out, models.DatasetFeature{DatasetID: datasetID, Name: f.Name, Type: f.Type})
	}
	return out
}

// PreviewRows 每个样例行序列化为一条 JSON 记录
func PreviewRows(datasetID string, in []map[string]any) ([]models.DatasetPreviewRow, error) {
	out := make([]models.DatasetPreviewRow, 0, len(in))
	for i, row := range in {
		data, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("preview row %d: %w", i, err)
		}
		out = append(out, models.DatasetPreviewRow{DatasetID: datasetID, Data: datatypes.JSON(data)})
	}
	return out, nil
}

// PreviewRowMaps 详情接口输出, 无法解析的行跳过
func PreviewRowMaps(rows []models.DatasetPreviewRow) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		var m map[string]any
		if err := json.Unmarshal(r.Data, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

// normalizeTags 去掉空白与重复, 保持原有顺序
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
