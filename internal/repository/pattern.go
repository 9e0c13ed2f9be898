package repository

import "strings"

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ContainsPattern 不区分大小写的子串匹配模式, 配合 LOWER(col) LIKE ? ESCAPE '!'
// MySQL 与 SQLite 对 '\\' 字面量解析不一致, 统一用 '!' 转义
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
