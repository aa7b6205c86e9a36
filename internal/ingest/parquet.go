package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/marcboeker/go-duckdb"
)

const (
	PreviewMaxRows    = 100
	PreviewMaxColumns = 50
	// 列表类型的值只保留前 maxListItems 个元素
	maxListItems = 100
)

// PreviewExtractor 为本地 parquet 文件生成表格预览
type PreviewExtractor interface {
	Extract(ctx context.Context, path string) (*models.ParquetPreview, error)
}

// DuckDBPreviewer 用内存 duckdb 的 read_parquet 读取前若干行
type DuckDBPreviewer struct {
	MaxRows    int
	MaxColumns int
}

func NewDuckDBPreviewer() *DuckDBPreviewer {
	return &DuckDBPreviewer{MaxRows: PreviewMaxRows, MaxColumns: PreviewMaxColumns}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (p *DuckDBPreviewer) Extract(ctx context.Context, path string) (*models.ParquetPreview, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	source := "read_parquet(" + quoteLiteral(path) + ")"

	var total int64
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM "+source).Scan(&total); err != nil {
		return nil, fmt.Errorf("count rows of %s: %w", path, err)
	}

	columns, err := p.columns(ctx, db, source)
	if err != nil {
		return nil, err
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	query := fmt.Sprintf("SELECT %s FROM %s LIMIT %d", strings.Join(quoted, ", "), source, p.MaxRows)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer rows.Close()

	out := &models.ParquetPreview{Columns: columns, Rows: []map[string]any{}, TotalRows: total}
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row of %s: %w", path, err)
		}
		row := make(map[string]any, len(columns))
		for i, c := range columns {
			row[c] = PreviewValue(values[i])
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", path, err)
	}
	return out, nil
}

// columns 取 schema 中的前 MaxColumns 列
func (p *DuckDBPreviewer) columns(ctx context.Context, db *sql.DB, source string) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+source+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	if len(cols) > p.MaxColumns {
		cols = cols[:p.MaxColumns]
	}
	return cols, nil
}

// PreviewValue 把 duckdb 扫描出的值转换成可 JSON 序列化的形式
func PreviewValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		if utf8.Valid(x) {
			return string(x)
		}
		return fmt.Sprintf("<binary: %d bytes>", len(x))
	case string, bool, int8, int16, int32, int64, uint8, uint16, uint32, uint64, int, uint:
		return x
	case float32:
		return finiteOrString(float64(x))
	case float64:
		return finiteOrString(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case []any:
		n := min(len(x), maxListItems)
		out := make([]any, 0, n+1)
		for _, e := range x[:n] {
			out = append(out, PreviewValue(e))
		}
		if len(x) > maxListItems {
			out = append(out, fmt.Sprintf("... (%d more)", len(x)-maxListItems))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = PreviewValue(e)
		}
		return out
	case duckdb.Map:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = PreviewValue(e)
		}
		return out
	case duckdb.Decimal:
		return decimalValue(x)
	}
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprint(v)
	}
	return v
}

func decimalValue(d duckdb.Decimal) any {
	if d.Value == nil {
		return nil
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d.Scale)), nil))
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(d.Value), scale).Float64()
	return finiteOrString(f)
}

// NaN 与 Inf 无法编码为 JSON
func finiteOrString(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Sprint(f)
	}
	return f
}
