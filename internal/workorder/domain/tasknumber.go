package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// suffixLength 任务号后缀长度
const suffixLength = 10

// GenerateTaskNumber 生成任务号：{类型前缀}{子类型编码}-{yyyymmdd}-{10 位后缀}
// 后缀取自 UUID，碰撞概率可忽略；每次调用必产生新值，永不复用
func GenerateTaskNumber(subtype WorkOrderSubtype) string {
	spec := subtypeSpecs[subtype]
	prefix := typePrefixes[spec.Type]

	date := time.Now().Format("20060102")
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:suffixLength]

	return prefix + spec.Code + "-" + date + "-" + suffix
}

// GenerateTraceID 生成跨系统关联用 trace ID，与任务号编号空间相互独立
func GenerateTraceID() string {
	return uuid.New().String()
}
