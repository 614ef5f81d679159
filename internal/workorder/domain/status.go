package domain

// Status 工单状态
// 字符串枚举为唯一权威状态，数字状态码仅作为展示层方言互转
type Status string

const (
	// StatusPending 已提交，等待第三方确认或人工审核
	StatusPending Status = "PENDING"
	// StatusProcessing 第三方已受理，等待平台侧完成
	StatusProcessing Status = "PROCESSING"
	// StatusApproved 审核通过（终态）
	StatusApproved Status = "APPROVED"
	// StatusCompleted 平台侧处理完成（终态）
	StatusCompleted Status = "COMPLETED"
	// StatusRejected 审核拒绝（终态）
	StatusRejected Status = "REJECTED"
	// StatusFailed 第三方调用失败，可通过 update 重新提交
	StatusFailed Status = "FAILED"
	// StatusCanceled 已取消（终态）
	StatusCanceled Status = "CANCELED"
	// StatusReturned 退回修改，重新提交后回到 PENDING
	StatusReturned Status = "RETURNED"
)

// statusTransitions 状态机边表，不在表内的流转一律拒绝
var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusApproved, StatusRejected, StatusFailed, StatusCanceled, StatusReturned},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusFailed:     {StatusPending},
	StatusReturned:   {StatusPending},
}

// statusCodes 数字状态码方言（历史遗留展示格式）
var statusCodes = map[Status]int{
	StatusPending:    10,
	StatusProcessing: 20,
	StatusApproved:   30,
	StatusCompleted:  40,
	StatusRejected:   50,
	StatusFailed:     60,
	StatusCanceled:   70,
	StatusReturned:   80,
}

// IsValid 判断是否为已定义状态
func (s Status) IsValid() bool {
	_, ok := statusCodes[s]
	return ok
}

// IsTerminal 判断是否为终态
// FAILED 不在此列：审核操作对其关闭，但允许通过 update 重新提交
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusCompleted, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// CanTransitionTo 判断状态机是否允许流转到目标状态
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range statusTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Code 返回数字状态码方言
func (s Status) Code() int {
	return statusCodes[s]
}

// StatusFromCode 从数字状态码还原状态，未知码返回空状态
func StatusFromCode(code int) Status {
	for s, c := range statusCodes {
		if c == code {
			return s
		}
	}
	return ""
}
