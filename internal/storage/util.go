package storage

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
)

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence
// 错误（部分源可能返回 GBK/混编内容）
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

// truncateRunesDB 按 rune 数截断，防止外部返回的超长文本超出字段长度导致入库失败
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

func toJSONList(list []string) datatypes.JSON {
	if len(list) == 0 {
		return datatypes.JSON("[]")
	}
	bs, err := json.Marshal(list)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(bs)
}

func jsonToStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// JSONToStrings 导出给读路径（个性化筛选）解析 jsonb 数组字段
func JSONToStrings(raw datatypes.JSON) []string {
	return jsonToStrings(raw)
}

func floatOr50(v *float64) float64 {
	if v == nil {
		return 50
	}
	return *v
}
